package provider

import (
	"archive/tar"
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/docker/go-connections/nat"

	devcerrors "github.com/s-retlaw/devc/internal/errors"
)

// CreateOptions configures container creation.
type CreateOptions struct {
	Name        string
	Image       string
	Privileged  bool
	CapAdd      []string
	SecurityOpt []string
	Mounts      []string // "type=bind,src=...,dst=..." form, passed through verbatim
	Env         map[string]string
	RunArgs     []string
	Ports       []string // "hostPort:containerPort[/proto]"
	Entrypoint  string
	Command     []string
}

// ValidatePorts normalizes and validates a set of "host:container/proto"
// style port specs using the same acceptance rules Docker itself applies,
// so malformed specs fail before argv composition rather than inside the
// runtime binary.
func ValidatePorts(specs []string) ([]string, error) {
	normalized := make([]string, 0, len(specs))
	for _, s := range specs {
		pm, err := nat.ParsePortSpec(s)
		if err != nil {
			return nil, devcerrors.Wrapf(err, devcerrors.CategoryConfig, devcerrors.CodeConfigInvalid,
				"invalid port spec %q", s)
		}
		for _, p := range pm {
			normalized = append(normalized, fmt.Sprintf("%s:%s", p.Binding.HostPort, p.Port.Port()+"/"+p.Port.Proto()))
		}
	}
	return normalized, nil
}

// EnsureImage pulls the given image reference if not already present.
func (p *Provider) EnsureImage(ctx context.Context, ref string) error {
	if res, _ := p.Run(ctx, "image", "inspect", ref); res != nil && res.ExitCode == 0 {
		return nil
	}
	_, err := p.RunStreaming(ctx, []string{"pull", ref}, nil, nil, nil)
	return err
}

// BuildImage runs a Dockerfile build, tagging the result.
func (p *Provider) BuildImage(ctx context.Context, dockerfile, contextDir, tag string, buildArgs map[string]string, noCache bool) error {
	args := []string{"build", "-f", dockerfile, "-t", tag}
	if noCache {
		args = append(args, "--no-cache")
	}
	for k, v := range buildArgs {
		args = append(args, "--build-arg", fmt.Sprintf("%s=%s", k, v))
	}
	args = append(args, contextDir)
	_, err := p.RunStreaming(ctx, args, nil, nil, nil)
	return err
}

// CreateContainer creates (but does not start) a container.
func (p *Provider) CreateContainer(ctx context.Context, opts CreateOptions) (string, error) {
	args := []string{"create", "--name", opts.Name}
	if opts.Privileged {
		args = append(args, "--privileged")
	}
	for _, c := range opts.CapAdd {
		args = append(args, "--cap-add", c)
	}
	for _, s := range opts.SecurityOpt {
		args = append(args, "--security-opt", s)
	}
	for _, m := range opts.Mounts {
		args = append(args, "--mount", m)
	}
	for k, v := range opts.Env {
		args = append(args, "-e", fmt.Sprintf("%s=%s", k, v))
	}
	for _, port := range opts.Ports {
		args = append(args, "-p", port)
	}
	args = append(args, opts.RunArgs...)
	if opts.Entrypoint != "" {
		args = append(args, "--entrypoint", opts.Entrypoint)
	}
	args = append(args, opts.Image)
	args = append(args, opts.Command...)

	res, err := p.Run(ctx, args...)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(res.Stdout), nil
}

func (p *Provider) Start(ctx context.Context, name string) error {
	_, err := p.Run(ctx, "start", name)
	return err
}

func (p *Provider) Stop(ctx context.Context, name string) error {
	_, err := p.Run(ctx, "stop", name)
	return err
}

func (p *Provider) Remove(ctx context.Context, name string, force bool) error {
	args := []string{"rm"}
	if force {
		args = append(args, "-f")
	}
	args = append(args, name)
	_, err := p.Run(ctx, args...)
	return err
}

// RemoveImage removes an image tag. A non-zero exit (image already gone,
// still referenced by another container) is swallowed rather than failing
// the caller's teardown — only a failure to invoke the runtime at all
// propagates.
func (p *Provider) RemoveImage(ctx context.Context, ref string) error {
	res, err := p.Run(ctx, "image", "rm", "-f", ref)
	if res == nil {
		return err
	}
	return nil
}

// Inspect returns the raw `inspect` JSON for a container or image name,
// bounded by InspectTimeout.
func (p *Provider) Inspect(ctx context.Context, name string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, InspectTimeout)
	defer cancel()
	res, err := p.Run(ctx, "inspect", name)
	if err != nil {
		return "", err
	}
	return res.Stdout, nil
}

// List returns the raw `ps -a --format {{json .}}` output, newline-delimited.
func (p *Provider) List(ctx context.Context, filter string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, InspectTimeout)
	defer cancel()
	args := []string{"ps", "-a", "--format", "{{json .}}"}
	if filter != "" {
		args = append(args, "--filter", filter)
	}
	res, err := p.Run(ctx, args...)
	if err != nil {
		return "", err
	}
	return res.Stdout, nil
}

// Exec runs argv inside the named container, optionally allocating a TTY.
// stdin/stdout/stderr are wired through for interactive `shell`/`run`.
func (p *Provider) Exec(ctx context.Context, name string, argv []string, user string, env map[string]string, tty bool, stdin io.Reader, stdout, stderr io.Writer) (*RunResult, error) {
	args := []string{"exec"}
	if tty {
		args = append(args, "-it")
	} else {
		args = append(args, "-i")
	}
	if user != "" {
		args = append(args, "-u", user)
	}
	for k, v := range env {
		args = append(args, "-e", fmt.Sprintf("%s=%s", k, v))
	}
	args = append(args, name)
	args = append(args, argv...)
	return p.RunStreaming(ctx, args, stdin, stdout, stderr)
}

// ExecArgv composes the full argv that would run argv inside name via Exec,
// including the Toolbox bridge prefix when applicable — used by callers
// (the port forwarder's socat EXEC: address) that need the command line as
// a string rather than actually running it.
func (p *Provider) ExecArgv(name string, argv []string) []string {
	args := []string{"exec", "-i", name}
	args = append(args, argv...)
	prefix := p.toolboxBridge()
	full := append(append([]string{}, prefix...), append([]string{p.binaryPath}, args...)...)
	return full
}

// Logs streams (or dumps) container logs.
func (p *Provider) Logs(ctx context.Context, name string, follow bool, stdout, stderr io.Writer) error {
	args := []string{"logs"}
	if follow {
		args = append(args, "-f")
	}
	args = append(args, name)
	_, err := p.RunStreaming(ctx, args, nil, stdout, stderr)
	return err
}

// CopyInto writes a single file into the container at destPath by streaming
// a one-file tar archive to `<runtime> cp - <container>:<destPath's dir>`,
// matching how the teacher seeds its in-container helper binary.
func (p *Provider) CopyInto(ctx context.Context, name, destPath string, content []byte, mode int64) error {
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	base := destPath
	if idx := strings.LastIndex(destPath, "/"); idx >= 0 {
		base = destPath[idx+1:]
	}
	hdr := &tar.Header{Name: base, Mode: mode, Size: int64(len(content))}
	if err := tw.WriteHeader(hdr); err != nil {
		return devcerrors.Internal(err)
	}
	if _, err := tw.Write(content); err != nil {
		return devcerrors.Internal(err)
	}
	if err := tw.Close(); err != nil {
		return devcerrors.Internal(err)
	}

	dir := destPath
	if idx := strings.LastIndex(destPath, "/"); idx >= 0 {
		dir = destPath[:idx]
	}
	_, err := p.RunStreaming(ctx, []string{"cp", "-", fmt.Sprintf("%s:%s", name, dir)}, &buf, nil, nil)
	return err
}

// CopyTreeInto streams a whole local directory into the container at
// destDir by tarring it in memory and piping the archive to
// `<runtime> cp - <container>:<destDir>`, the directory-tree counterpart to
// CopyInto used to seed an OCI feature's extracted files before running its
// install script.
func (p *Provider) CopyTreeInto(ctx context.Context, name, destDir, localDir string) error {
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	err := filepath.Walk(localDir, func(path string, info fs.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		rel, err := filepath.Rel(localDir, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if info.IsDir() {
			hdr := &tar.Header{Name: rel + "/", Mode: int64(info.Mode().Perm()), Typeflag: tar.TypeDir}
			return tw.WriteHeader(hdr)
		}
		if info.Mode()&os.ModeSymlink != 0 {
			target, err := os.Readlink(path)
			if err != nil {
				return err
			}
			hdr := &tar.Header{Name: rel, Mode: int64(info.Mode().Perm()), Typeflag: tar.TypeSymlink, Linkname: target}
			return tw.WriteHeader(hdr)
		}
		hdr := &tar.Header{Name: rel, Mode: int64(info.Mode().Perm()), Size: info.Size(), Typeflag: tar.TypeReg}
		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = io.Copy(tw, f)
		return err
	})
	if err != nil {
		return devcerrors.Internal(err)
	}
	if err := tw.Close(); err != nil {
		return devcerrors.Internal(err)
	}

	if _, err := p.Run(ctx, "exec", name, "mkdir", "-p", destDir); err != nil {
		return err
	}
	_, err = p.RunStreaming(ctx, []string{"cp", "-", fmt.Sprintf("%s:%s", name, destDir)}, &buf, nil, nil)
	return err
}

// CopyOut reads a file out of the container as a tar stream and returns the
// first entry's contents.
func (p *Provider) CopyOut(ctx context.Context, name, srcPath string) ([]byte, error) {
	var out bytes.Buffer
	_, err := p.RunStreaming(ctx, []string{"cp", fmt.Sprintf("%s:%s", name, srcPath), "-"}, nil, &out, nil)
	if err != nil {
		return nil, err
	}
	tr := tar.NewReader(&out)
	if _, err := tr.Next(); err != nil {
		return nil, devcerrors.Internal(err)
	}
	data, err := io.ReadAll(tr)
	if err != nil {
		return nil, devcerrors.Internal(err)
	}
	return data, nil
}

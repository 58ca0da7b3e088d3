// Package provider implements C1: a uniform command surface over Docker,
// Podman, and their respective Compose companions. Every operation composes
// an argv and shells out via os/exec — this is what lets Podman and Fedora
// Toolbox be first-class runtimes instead of a Docker-SDK special case.
package provider

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	devcerrors "github.com/s-retlaw/devc/internal/errors"
)

// Kind discriminates the runtime binary in play; it only ever selects a
// quirk branch (rootless --privileged handling, compose socket), never the
// argv shape of the common operations.
type Kind string

const (
	KindDocker Kind = "docker"
	KindPodman Kind = "podman"
)

// InspectTimeout bounds inspect/list/ps calls per §5's "Timeouts" note.
const InspectTimeout = 10 * time.Second

// stderrTailCap is the ring-buffer size kept for ProviderError messages.
const stderrTailCap = 16 * 1024

// Provider executes container-runtime operations by composing argv and
// invoking the runtime binary, optionally bridged through Toolbox.
type Provider struct {
	Kind       Kind
	binaryPath string

	toolboxOnce   sync.Once
	toolboxPrefix []string
}

// New returns a Provider bound to the given runtime binary path and kind.
func New(kind Kind, binaryPath string) *Provider {
	return &Provider{Kind: kind, binaryPath: binaryPath}
}

// Select implements runtime selection per §4.1: first non-empty of the
// --runtime flag, DEVC_TEST_PROVIDER/DEVC_RUNTIME env, global config
// runtime, then a first-available-on-PATH scan (docker, then podman).
func Select(flagRuntime, configRuntime string) (*Provider, error) {
	candidate := flagRuntime
	if candidate == "" {
		candidate = os.Getenv("DEVC_TEST_PROVIDER")
	}
	if candidate == "" {
		candidate = os.Getenv("DEVC_RUNTIME")
	}
	if candidate == "" {
		candidate = configRuntime
	}

	if candidate == "toolbox" {
		// Toolbox bridges whichever runtime is present on the host; default
		// to docker and let bridging prefix every invocation.
		candidate = "docker"
	}

	if candidate != "" {
		path, err := exec.LookPath(candidate)
		if err != nil {
			return nil, devcerrors.ErrNoRuntime.Clone().WithContext("requested", candidate)
		}
		return New(Kind(candidate), path), nil
	}

	for _, k := range []Kind{KindDocker, KindPodman} {
		if path, err := exec.LookPath(string(k)); err == nil {
			return New(k, path), nil
		}
	}
	return nil, devcerrors.ErrNoRuntime
}

// toolboxBridge reports whether argv must be prefixed with
// `flatpak-spawn --host`, cached per-process via sync.Once.
func (p *Provider) toolboxBridge() []string {
	p.toolboxOnce.Do(func() {
		if _, err := os.Stat("/.flatpak-info"); err == nil {
			p.toolboxPrefix = []string{"flatpak-spawn", "--host"}
			return
		}
		if os.Getenv("DEVC_TEST_PROVIDER") == "toolbox" {
			p.toolboxPrefix = []string{"flatpak-spawn", "--host"}
			return
		}
		p.toolboxPrefix = nil
	})
	return p.toolboxPrefix
}

// RunResult carries captured stdout and the process exit code for callers
// that need the text, not just success/failure.
type RunResult struct {
	Stdout   string
	ExitCode int
}

// ringBuffer bounds memory for long-running child stderr by keeping only
// the last N bytes written to it.
type ringBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
	cap int
}

func newRingBuffer(capBytes int) *ringBuffer {
	return &ringBuffer{cap: capBytes}
}

func (r *ringBuffer) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.buf.Write(p)
	if over := r.buf.Len() - r.cap; over > 0 {
		r.buf.Next(over)
	}
	return len(p), nil
}

func (r *ringBuffer) String() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.buf.String()
}

// ProviderError reports a non-zero exit from the runtime binary, always
// carrying the runtime name, the composed argv, and the stderr tail — never
// a generic "command failed" message, per §4.1/§7.
type ProviderError struct {
	Runtime    string
	Argv       []string
	ExitCode   int
	StderrTail string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s %s: exit %d: %s", e.Runtime, strings.Join(e.Argv, " "), e.ExitCode, e.StderrTail)
}

// AsDevcError converts a ProviderError into the common error taxonomy.
func (e *ProviderError) AsDevcError() *devcerrors.DevcError {
	return devcerrors.Newf(devcerrors.CategoryProvider, devcerrors.CodeProviderError,
		"%s %s failed with exit %d", e.Runtime, strings.Join(e.Argv, " "), e.ExitCode).
		WithContext("stderrTail", e.StderrTail).
		WithContext("runtime", e.Runtime)
}

// buildCmd constructs an *exec.Cmd for the runtime binary, with the argv
// bridged through Toolbox when applicable.
func (p *Provider) buildCmd(ctx context.Context, args []string) *exec.Cmd {
	prefix := p.toolboxBridge()
	if len(prefix) == 0 {
		return exec.CommandContext(ctx, p.binaryPath, args...)
	}
	full := append(append([]string{}, prefix...), append([]string{p.binaryPath}, args...)...)
	return exec.CommandContext(ctx, full[0], full[1:]...)
}

// run executes args against the runtime binary, capturing stdout fully and
// streaming stderr into a bounded tail buffer. stdin/stdout/stderr writers
// are optionally tee'd to the caller for live streaming (hooks, logs).
func (p *Provider) run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) (*RunResult, error) {
	cmd := p.buildCmd(ctx, args)
	cmd.Stdin = stdin

	var outBuf bytes.Buffer
	tail := newRingBuffer(stderrTailCap)

	outWriters := []io.Writer{&outBuf}
	if stdout != nil {
		outWriters = append(outWriters, stdout)
	}
	errWriters := []io.Writer{tail}
	if stderr != nil {
		errWriters = append(errWriters, stderr)
	}
	cmd.Stdout = io.MultiWriter(outWriters...)
	cmd.Stderr = io.MultiWriter(errWriters...)

	err := cmd.Run()
	exitCode := 0
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		} else {
			return nil, devcerrors.Wrap(err, devcerrors.CategoryProvider, devcerrors.CodeProviderError,
				fmt.Sprintf("failed to start %s", p.binaryPath))
		}
	}

	result := &RunResult{Stdout: outBuf.String(), ExitCode: exitCode}
	if exitCode != 0 {
		return result, &ProviderError{
			Runtime:    string(p.Kind),
			Argv:       args,
			ExitCode:   exitCode,
			StderrTail: tail.String(),
		}
	}
	return result, nil
}

// Run executes an arbitrary runtime subcommand (e.g. ["inspect", name]) with
// no stdin and no live output streaming, returning captured stdout.
func (p *Provider) Run(ctx context.Context, args ...string) (*RunResult, error) {
	return p.run(ctx, args, nil, nil, nil)
}

// RunStreaming executes args, tee-ing stdout/stderr live to the given
// writers as well as capturing them, for hook execution and `logs`.
func (p *Provider) RunStreaming(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) (*RunResult, error) {
	return p.run(ctx, args, stdin, stdout, stderr)
}

// BinaryPath returns the resolved path of the runtime binary.
func (p *Provider) BinaryPath() string { return p.binaryPath }

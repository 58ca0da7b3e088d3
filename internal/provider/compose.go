package provider

import (
	"context"
	"regexp"
)

// ComposeRuntime is the optional sub-interface a Provider satisfies when the
// active config uses Compose. It is asserted via a type switch at the call
// site (the teacher's sealed-variant idiom applied to an interface mixin
// instead of a closed struct set), never embedded unconditionally — a plain
// Image/Build plan never needs compose_up/down/ps.
type ComposeRuntime interface {
	ComposeUp(ctx context.Context, project string, files []string, build bool) error
	ComposeDown(ctx context.Context, project string, removeVolumes bool) error
	ComposePs(ctx context.Context, project string) (string, error)
}

// composeArgs returns the compose companion for this provider's runtime and
// the leading args: "docker compose" for Docker, "podman-compose" for Podman.
func (p *Provider) composeArgs(sub ...string) (string, []string) {
	if p.Kind == KindPodman {
		return "podman-compose", sub
	}
	return p.binaryPath, append([]string{"compose"}, sub...)
}

func (p *Provider) runCompose(ctx context.Context, project string, files []string, sub []string) (*RunResult, error) {
	bin, args := p.composeArgs()
	composeArgs := []string{"-p", project}
	for _, f := range files {
		composeArgs = append(composeArgs, "-f", f)
	}
	full := append(composeArgs, sub...)

	if bin == p.binaryPath {
		return p.RunStreaming(ctx, append(args, full...), nil, nil, nil)
	}
	// podman-compose: run as its own binary, still honoring toolbox bridging.
	podmanCompose := New(KindPodman, bin)
	podmanCompose.toolboxPrefix = p.toolboxBridge()
	return podmanCompose.RunStreaming(ctx, full, nil, nil, nil)
}

// ComposeUp brings up the named compose project, building first if requested.
func (p *Provider) ComposeUp(ctx context.Context, project string, files []string, build bool) error {
	args := []string{"up", "-d"}
	if build {
		args = append(args, "--build")
	}
	_, err := p.runCompose(ctx, project, files, args)
	return err
}

// ComposeDown tears down the named compose project.
func (p *Provider) ComposeDown(ctx context.Context, project string, removeVolumes bool) error {
	args := []string{"down"}
	if removeVolumes {
		args = append(args, "-v")
	}
	_, err := p.runCompose(ctx, project, nil, args)
	return err
}

// ComposePs lists the named compose project's containers.
func (p *Provider) ComposePs(ctx context.Context, project string) (string, error) {
	res, err := p.runCompose(ctx, project, nil, []string{"ps", "--format", "json"})
	if err != nil {
		return "", err
	}
	return res.Stdout, nil
}

// rootlessSetegidPattern matches the stderr shape rootless Podman emits
// when a feature install script tries to change its effective group.
var rootlessSetegidPattern = regexp.MustCompile(`(?i)setegid|setgroups`)

// IsRootlessIncompatible reports whether stderr output indicates the
// rootless-Podman setegid/setgroups incompatibility from §4.1's Podman
// quirks, so callers can reclassify a FeatureFailed as
// FeatureIncompatibleRootless.
func IsRootlessIncompatible(kind Kind, stderr string) bool {
	return kind == KindPodman && rootlessSetegidPattern.MatchString(stderr)
}

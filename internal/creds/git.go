package creds

import (
	"bytes"
	"context"
	"os/exec"

	devcerrors "github.com/s-retlaw/devc/internal/errors"
)

// GitResolver forwards Git credential requests to the host's own `git
// credential fill|approve|reject`, writing/reading the documented
// key=value\n block verbatim — this is git's own stdin/stdout protocol, not
// one devc invents, so no library is needed (§4.5D).
type GitResolver struct {
	// GitPath overrides the `git` binary path; empty uses PATH lookup.
	GitPath string
}

func (g *GitResolver) binary() string {
	if g != nil && g.GitPath != "" {
		return g.GitPath
	}
	return "git"
}

// action maps the shared Op vocabulary onto git's own porcelain verbs.
func (g *GitResolver) action(op Op) (string, error) {
	switch op {
	case OpGet:
		return "fill", nil
	case OpStore:
		return "approve", nil
	case OpErase:
		return "reject", nil
	default:
		return "", devcerrors.Newf(devcerrors.CategoryCredential, devcerrors.CodeCredentialUnavailable,
			"git credential op %q unsupported", op)
	}
}

func (g *GitResolver) Resolve(ctx context.Context, op Op, stdin []byte) ([]byte, error) {
	action, err := g.action(op)
	if err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, g.binary(), "credential", action)
	cmd.Stdin = bytes.NewReader(stdin)
	var out, errOut bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errOut

	if err := cmd.Run(); err != nil {
		return nil, devcerrors.CredentialUnavailable("git", firstHostLine(stdin), err)
	}
	return out.Bytes(), nil
}

// firstHostLine extracts the "host=" field from a git credential protocol
// block for warning context, without echoing the full (potentially
// sensitive) block.
func firstHostLine(stdin []byte) string {
	for _, line := range bytes.Split(stdin, []byte("\n")) {
		if bytes.HasPrefix(line, []byte("host=")) {
			return string(bytes.TrimPrefix(line, []byte("host=")))
		}
	}
	return ""
}

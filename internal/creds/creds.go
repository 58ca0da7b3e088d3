// Package creds implements C5: the credential-forwarding subsystem. A
// per-container Unix socket proxies Docker registry and Git host credential
// requests to the host's real credential helpers, without ever persisting a
// secret to disk inside or outside the container (§4.5).
package creds

import (
	"fmt"
	"strings"
)

// Kind discriminates the two credential classes this proxy forwards.
type Kind string

const (
	KindDocker Kind = "docker"
	KindGit    Kind = "git"
)

// Op is one credential-helper operation, shared across both Kinds per
// §4.5's "KIND\t<op>" framing.
type Op string

const (
	OpGet   Op = "get"
	OpStore Op = "store"
	OpErase Op = "erase"
	OpList  Op = "list"
)

// ContainerSocketPath is where the host socket is bind-mounted inside the
// container (§6 "Inside the container" layout).
const ContainerSocketPath = "/run/devc/creds.sock"

// DockerCredHelperPath and GitCredHelperPath are the in-container shim
// locations installed on `up` (§4.5 step 3).
const (
	DockerCredHelperPath = "/usr/local/bin/docker-credential-devc"
	GitCredHelperPath    = "/usr/local/bin/git-credential-devc"
)

// header renders the single-line "KIND\t<op>\n" frame header the client
// shim sends before the verbatim host-protocol payload.
func header(kind Kind, op Op) string {
	return fmt.Sprintf("%s\t%s\n", kind, op)
}

// Header is header's exported form, used by internal/credshim to build the
// frame the in-container docker-credential-devc/git-credential-devc shims
// send.
func Header(kind Kind, op Op) string {
	return header(kind, op)
}

// parseHeader parses a frame header line as returned by the caller's
// bufio.Reader.ReadString('\n') call, which keeps the trailing newline;
// this trims it before splitting.
func parseHeader(line string) (Kind, Op, error) {
	line = strings.TrimRight(line, "\n")
	parts := strings.SplitN(line, "\t", 2)
	if len(parts) != 2 {
		return "", "", fmt.Errorf("creds: malformed frame header %q", line)
	}
	kind := Kind(parts[0])
	op := Op(parts[1])
	switch kind {
	case KindDocker, KindGit:
	default:
		return "", "", fmt.Errorf("creds: unknown kind %q", kind)
	}
	switch op {
	case OpGet, OpStore, OpErase, OpList:
	default:
		return "", "", fmt.Errorf("creds: unknown op %q", op)
	}
	return kind, op, nil
}

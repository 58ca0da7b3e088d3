// Package credshim is the in-container client half of C5: the same dial,
// frame, and copy logic backs both docker-credential-devc and
// git-credential-devc, which differ only in which creds.Kind they pass and
// how they map their own argv onto the shared creds.Op vocabulary.
package credshim

import (
	"io"
	"net"
	"time"

	"github.com/s-retlaw/devc/internal/creds"
)

// DialTimeout bounds the connect to the bind-mounted proxy socket. Helper
// binaries are expected to fail fast rather than hang a `docker pull` or
// `git fetch` when the host side of the socket isn't listening.
const DialTimeout = 3 * time.Second

// Run dials the credential proxy socket at creds.ContainerSocketPath, sends
// a KIND\t<op> header followed by the verbatim stdin payload, half-closes,
// and copies the response to stdout. This is the entire body of both helper
// binaries.
func Run(kind creds.Kind, op creds.Op, stdin io.Reader, stdout io.Writer) error {
	return run(creds.ContainerSocketPath, kind, op, stdin, stdout)
}

// run does the actual dial/frame/copy work against an explicit socket
// path, so tests can point it at a temporary listener instead of the fixed
// container path Run always uses.
func run(sockPath string, kind creds.Kind, op creds.Op, stdin io.Reader, stdout io.Writer) error {
	conn, err := net.DialTimeout("unix", sockPath, DialTimeout)
	if err != nil {
		return err
	}
	defer conn.Close()

	if _, err := io.WriteString(conn, creds.Header(kind, op)); err != nil {
		return err
	}
	if _, err := io.Copy(conn, stdin); err != nil {
		return err
	}
	if uc, ok := conn.(*net.UnixConn); ok {
		_ = uc.CloseWrite()
	}

	_, err = io.Copy(stdout, conn)
	return err
}

// DockerOp maps a docker-credential-helper argv[1] onto the shared Op
// vocabulary, which already matches docker-credential-helpers' own verbs.
func DockerOp(arg string) (creds.Op, bool) {
	switch arg {
	case "get":
		return creds.OpGet, true
	case "store":
		return creds.OpStore, true
	case "erase":
		return creds.OpErase, true
	case "list":
		return creds.OpList, true
	default:
		return "", false
	}
}

// GitOp maps a git credential-helper argv[1] onto the shared Op vocabulary.
// Git never calls "list", so that verb is docker-only.
func GitOp(arg string) (creds.Op, bool) {
	switch arg {
	case "get":
		return creds.OpGet, true
	case "store":
		return creds.OpStore, true
	case "erase":
		return creds.OpErase, true
	default:
		return "", false
	}
}

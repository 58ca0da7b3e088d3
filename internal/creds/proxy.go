package creds

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"sync"
	"time"

	devcerrors "github.com/s-retlaw/devc/internal/errors"
	"github.com/s-retlaw/devc/internal/util"
)

// RequestTimeout bounds one credential request end to end, per §5's
// "Credential-proxy per-request timeout: 5 s."
const RequestTimeout = 5 * time.Second

// Resolver resolves one credential operation against a real host helper.
// DockerResolver and GitResolver are the two production implementations;
// tests substitute fakes.
type Resolver interface {
	Resolve(ctx context.Context, op Op, stdin []byte) ([]byte, error)
}

// Proxy is the host-side socket server described in §4.5's architecture:
// it owns exactly one Unix socket file, accepts connections from the
// in-container helper shims, and dispatches each frame to the matching
// Resolver. It is not a persistent daemon — it runs as a child of the devc
// process that issued `up` and is torn down with it (§4.5 "Lifetime").
type Proxy struct {
	SocketPath string
	Docker     Resolver
	Git        Resolver
	Logger     *slog.Logger

	listener net.Listener
	wg       sync.WaitGroup
	closeWG  sync.Once
}

// NewProxy builds a Proxy bound to socketPath, not yet listening.
func NewProxy(socketPath string, docker, git Resolver, logger *slog.Logger) *Proxy {
	if logger == nil {
		logger = slog.Default()
	}
	return &Proxy{SocketPath: socketPath, Docker: docker, Git: git, Logger: logger}
}

// Start binds the Unix socket and begins accepting connections in the
// background. A stale socket file from a crashed prior process (§4.5
// "Lifetime": cleaned up on next `up` for the same id) is removed first.
// Calling Start on an already-listening Proxy is a no-op — Up calls it
// once before the container is created so the socket exists before it is
// bind-mounted, and a resumed `up` may re-enter that step.
func (p *Proxy) Start() error {
	if p.listener != nil {
		return nil
	}
	if err := util.EnsureDir(filepath.Dir(p.SocketPath), 0700); err != nil {
		return devcerrors.Internal(err)
	}
	_ = os.Remove(p.SocketPath)

	l, err := net.Listen("unix", p.SocketPath)
	if err != nil {
		return devcerrors.Wrap(err, devcerrors.CategoryCredential, devcerrors.CodeCredentialUnavailable,
			"failed to bind credential proxy socket").WithContext("path", p.SocketPath)
	}
	if err := os.Chmod(p.SocketPath, 0600); err != nil {
		l.Close()
		return devcerrors.Internal(err)
	}
	p.listener = l

	p.wg.Add(1)
	go p.acceptLoop()
	return nil
}

func (p *Proxy) acceptLoop() {
	defer p.wg.Done()
	for {
		conn, err := p.listener.Accept()
		if err != nil {
			return
		}
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			p.handle(conn)
		}()
	}
}

// handle services exactly one frame: a header line naming the kind and op,
// followed by the verbatim stdin payload the host protocol expects,
// terminated by the client's half-close (or full close). The resolved
// response is written back verbatim; the secret value itself never
// touches p.Logger (§8 invariant 5).
func (p *Proxy) handle(conn net.Conn) {
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(RequestTimeout))

	reader := bufio.NewReader(conn)
	line, err := reader.ReadString('\n')
	if err != nil {
		p.Logger.Warn("creds: failed to read frame header", "error", err)
		return
	}
	kind, op, err := parseHeader(line)
	if err != nil {
		p.Logger.Warn("creds: rejecting frame", "error", err)
		return
	}

	payload, err := io.ReadAll(reader)
	if err != nil {
		p.Logger.Warn("creds: failed to read frame payload", "kind", kind, "op", op, "error", err)
		return
	}

	var resolver Resolver
	switch kind {
	case KindDocker:
		resolver = p.Docker
	case KindGit:
		resolver = p.Git
	}
	if resolver == nil {
		p.Logger.Warn("creds: no resolver configured", "kind", kind)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), RequestTimeout)
	defer cancel()
	out, err := resolver.Resolve(ctx, op, payload)
	if err != nil {
		// Advisory per §7 CredentialUnavailable: the client sees a closed
		// connection (no credentials), the operation that asked for the
		// credential is not itself fatal.
		p.Logger.Warn("creds: resolver failed", "kind", kind, "op", op, "host", extractHost(kind, payload))
		return
	}

	if _, err := conn.Write(out); err != nil {
		return
	}
	if uc, ok := conn.(*net.UnixConn); ok {
		_ = uc.CloseWrite()
	}
}

// extractHost returns a displayable host/server hint for a warning message
// without ever including the secret payload itself, per §4.5's "Warnings...
// contain host+URL but not credentials." For git this is the host= field;
// for docker it is the first payload line (the server URL), or "" when that
// line is a JSON body (a store request, which carries the secret).
func extractHost(kind Kind, payload []byte) string {
	if kind == KindGit {
		return firstHostLine(payload)
	}
	s := string(payload)
	if idx := indexAny(s, "\r\n"); idx >= 0 {
		s = s[:idx]
	}
	if len(s) > 0 && s[0] == '{' {
		return ""
	}
	if len(s) > 256 {
		s = s[:256]
	}
	return s
}

func indexAny(s, chars string) int {
	for i, r := range s {
		for _, c := range chars {
			if r == c {
				return i
			}
		}
	}
	return -1
}

// Stop closes the listener, waits for in-flight requests to finish, and
// removes the socket file.
func (p *Proxy) Stop() error {
	if p.listener != nil {
		_ = p.listener.Close()
	}
	p.wg.Wait()
	if err := os.Remove(p.SocketPath); err != nil && !os.IsNotExist(err) {
		return devcerrors.Internal(err)
	}
	return nil
}

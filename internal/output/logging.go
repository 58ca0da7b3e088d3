// Package output is the ambient logging/rendering layer: a slog.Logger
// tuned for humans on a TTY (via devslog) or machines in a pipe/CI (plain
// JSON), plus the pterm-based progress/status helpers the CLI layer uses
// for interactive feedback.
package output

import (
	"io"
	"log/slog"
	"os"

	"github.com/golang-cz/devslog"
	"golang.org/x/term"
)

// NewLogger returns a *slog.Logger appropriate for w: a colorized,
// indentation-aware devslog handler when w is a terminal, a plain
// single-line JSON handler otherwise (CI logs, `--log-format json`, piped
// output) — same "don't force a human format on a machine" split the
// teacher's `internal/util/logging.go` documents in its doc comment, now
// actually branching on terminal-ness instead of hardcoding text output.
func NewLogger(w io.Writer, verbose bool, forceJSON bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	if forceJSON || !isTerminalWriter(w) {
		handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
		return slog.New(handler)
	}

	handler := devslog.NewHandler(w, &devslog.Options{
		HandlerOptions:    &slog.HandlerOptions{Level: level},
		SortKeys:          true,
		NewLineAfterLog:   true,
		StringIndentation: true,
	})
	return slog.New(handler)
}

// isTerminalWriter reports whether w is connected to a terminal, so
// NewLogger can choose devslog's human rendering vs. plain JSON.
func isTerminalWriter(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// defaultLogger is the package-wide logger returned by Default, created
// against os.Stderr when the package is initialized; `cmd/devc`'s root
// command re-points it via SetDefault once flags are parsed.
var defaultLogger = NewLogger(os.Stderr, false, false)

// SetDefault replaces the package-wide logger, called once by the CLI
// root command after flags (--verbose, --log-format) are parsed.
func SetDefault(l *slog.Logger) {
	defaultLogger = l
	slog.SetDefault(l)
}

// Default returns the current package-wide logger.
func Default() *slog.Logger {
	return defaultLogger
}

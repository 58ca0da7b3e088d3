package ui

import (
	"errors"
	"fmt"
	"io"
	"strings"

	devcerrors "github.com/s-retlaw/devc/internal/errors"
	"github.com/pterm/pterm"
)

// ErrorFormatter renders a devcerrors.DevcError (or any plain error) for
// terminal display.
type ErrorFormatter struct {
	writer io.Writer
}

func NewErrorFormatter(w io.Writer) *ErrorFormatter {
	return &ErrorFormatter{writer: w}
}

func (f *ErrorFormatter) Format(err error) string {
	if err == nil {
		return ""
	}
	var devcErr *devcerrors.DevcError
	if errors.As(err, &devcErr) {
		return f.formatDevcError(devcErr)
	}
	return f.formatGenericError(err)
}

func (f *ErrorFormatter) formatDevcError(err *devcerrors.DevcError) string {
	var sb strings.Builder

	badge := pterm.NewStyle(pterm.BgRed, pterm.FgWhite, pterm.Bold).
		Sprintf(" %s ", strings.ToUpper(string(err.Category)))
	sb.WriteString(badge)
	sb.WriteString(" ")
	sb.WriteString(pterm.FgRed.Sprint(err.Message))
	sb.WriteString("\n")

	if err.Cause != nil {
		sb.WriteString("\n")
		sb.WriteString(pterm.FgBlue.Sprint("Cause"))
		sb.WriteString(": ")
		sb.WriteString(err.Cause.Error())
		sb.WriteString("\n")
	}
	if len(err.Context) > 0 {
		sb.WriteString("\n")
		sb.WriteString(pterm.FgBlue.Sprint("Context"))
		sb.WriteString(":\n")
		for k, v := range err.Context {
			sb.WriteString(fmt.Sprintf("  %s: %s\n", pterm.FgGray.Sprint(k), v))
		}
	}
	if err.Hint != "" {
		sb.WriteString("\n")
		sb.WriteString(pterm.FgCyan.Sprint("ℹ"))
		sb.WriteString(" ")
		sb.WriteString(pterm.FgGray.Sprint(err.Hint))
		sb.WriteString("\n")
	}
	if err.DocURL != "" {
		sb.WriteString("\n")
		sb.WriteString(pterm.FgGray.Sprint("See: "))
		sb.WriteString(pterm.FgCyan.Sprint(err.DocURL))
		sb.WriteString("\n")
	}
	return sb.String()
}

func (f *ErrorFormatter) formatGenericError(err error) string {
	return fmt.Sprintf("%s %s\n", pterm.FgRed.Sprint("✗"), err.Error())
}

func (f *ErrorFormatter) Write(err error) {
	if err == nil {
		return
	}
	fmt.Fprint(f.writer, f.Format(err))
}

// PrintError prints a formatted error using the global UI configuration.
func PrintError(err error) {
	if err == nil {
		return
	}
	NewErrorFormatter(ErrWriter()).Write(err)
}

// FormatErrorBrief renders a one-line "[category/code] message" summary,
// for the aggregate agent-warning line and similar compact reporting.
func FormatErrorBrief(err error) string {
	if err == nil {
		return ""
	}
	var devcErr *devcerrors.DevcError
	if errors.As(err, &devcErr) {
		return fmt.Sprintf("[%s/%s] %s", devcErr.Category, devcErr.Code, devcErr.Message)
	}
	return err.Error()
}

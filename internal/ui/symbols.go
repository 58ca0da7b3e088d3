package ui

import "github.com/pterm/pterm"

// Symbols are the glyphs used across check/status rendering.
var Symbols = struct {
	CheckPass string
	CheckFail string
	CheckWarn string
	CheckSkip string
	Bullet    string
}{
	CheckPass: "✓",
	CheckFail: "✗",
	CheckWarn: "!",
	CheckSkip: "-",
	Bullet:    "•",
}

// PhaseColor colors a lifecycle phase name for table/status rendering —
// state.Phase values (Uninitialized/Built/Created/Started/HooksRan/
// Stopped/Adopted/Removed), not a generic container-runtime status string.
func PhaseColor(phase string) string {
	switch phase {
	case "Started", "HooksRan", "Adopted":
		return pterm.FgGreen.Sprint(phase)
	case "Stopped":
		return pterm.FgYellow.Sprint(phase)
	case "Removed":
		return pterm.FgGray.Sprint(phase)
	case "Uninitialized":
		return pterm.FgGray.Sprint(phase)
	default:
		return pterm.FgBlue.Sprint(phase)
	}
}

// CheckResult is one `agents doctor` row's pass/fail/warn/skip outcome.
type CheckResult int

const (
	CheckResultPass CheckResult = iota
	CheckResultFail
	CheckResultWarn
	CheckResultSkip
)

// FormatCheck renders a check result with symbol and color.
func FormatCheck(result CheckResult, message string) string {
	switch result {
	case CheckResultPass:
		return pterm.FgGreen.Sprint(Symbols.CheckPass) + " " + message
	case CheckResultFail:
		return pterm.FgRed.Sprint(Symbols.CheckFail) + " " + message
	case CheckResultWarn:
		return pterm.FgYellow.Sprint(Symbols.CheckWarn) + " " + message
	case CheckResultSkip:
		return pterm.FgGray.Sprint(Symbols.CheckSkip) + " " + pterm.FgGray.Sprint(message)
	default:
		return message
	}
}

// FormatLabel formats a "label: value" pair with consistent styling.
func FormatLabel(label, value string) string {
	return pterm.FgBlue.Sprint(label+":") + " " + value
}

func Bold(text string) string { return pterm.Bold.Sprint(text) }
func Dim(text string) string  { return pterm.FgGray.Sprint(text) }
func Code(text string) string { return pterm.FgCyan.Sprint(text) }

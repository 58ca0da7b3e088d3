package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatCheckIncludesSymbol(t *testing.T) {
	assert.Contains(t, FormatCheck(CheckResultPass, "ok"), Symbols.CheckPass)
	assert.Contains(t, FormatCheck(CheckResultFail, "bad"), Symbols.CheckFail)
	assert.Contains(t, FormatCheck(CheckResultWarn, "meh"), Symbols.CheckWarn)
	assert.Contains(t, FormatCheck(CheckResultSkip, "n/a"), Symbols.CheckSkip)
}

func TestFormatLabelIncludesBothParts(t *testing.T) {
	out := FormatLabel("state", "Started")
	assert.Contains(t, out, "state")
	assert.Contains(t, out, "Started")
}

func TestPhaseColorDoesNotPanicOnUnknownPhase(t *testing.T) {
	assert.NotPanics(t, func() { PhaseColor("SomeNewPhase") })
}

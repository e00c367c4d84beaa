// Package progress tests terminal capability detection with environment variable overrides.
// Related: internal/progress/terminal.go
// Tags: progress, terminal, capabilities, env-vars, unicode, colors
package progress

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetect(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		isTTY       bool
		env         map[string]string
		wantColor   bool
		wantUnicode bool
	}{
		"terminal":            {isTTY: true, wantColor: true, wantUnicode: true},
		"pipe":                {isTTY: false},
		"NO_COLOR":            {isTTY: true, env: map[string]string{"NO_COLOR": "1"}, wantUnicode: true},
		"VISTORIA_ASCII":      {isTTY: true, env: map[string]string{"VISTORIA_ASCII": "1"}, wantColor: true},
		"ASCII other value":   {isTTY: true, env: map[string]string{"VISTORIA_ASCII": "0"}, wantColor: true, wantUnicode: true},
		"pipe ignores colors": {isTTY: false, env: map[string]string{"NO_COLOR": ""}},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			caps := detect(tt.isTTY, func(k string) string { return tt.env[k] })
			assert.Equal(t, tt.isTTY, caps.IsTTY)
			assert.Equal(t, tt.wantColor, caps.SupportsColor)
			assert.Equal(t, tt.wantUnicode, caps.SupportsUnicode)
		})
	}
}

func TestSelectSymbols(t *testing.T) {
	t.Parallel()

	unicode := SelectSymbols(TerminalCapabilities{SupportsUnicode: true})
	assert.Equal(t, "✓", unicode.Checkmark)
	assert.Equal(t, 14, unicode.SpinnerSet)

	ascii := SelectSymbols(TerminalCapabilities{})
	assert.Equal(t, "[OK]", ascii.Checkmark)
	assert.Equal(t, "[FAIL]", ascii.Failure)
	assert.Equal(t, 9, ascii.SpinnerSet)
}

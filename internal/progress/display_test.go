// Package progress_test tests step rendering, checkmarks, and spinner lifecycle.
// Related: internal/progress/display.go
// Tags: progress, display, rendering, steps, spinner, tty
package progress_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariel-frischer/vistoria/internal/progress"
)

var plain = progress.TerminalCapabilities{}

func TestDisplay_Start(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		step    progress.StepInfo
		want    string
		wantErr bool
	}{
		"first step":  {step: progress.StepInfo{Name: "validando", Number: 1, Total: 3}, want: "[1/3] validando...\n"},
		"last step":   {step: progress.StepInfo{Name: "enviando", Number: 3, Total: 3}, want: "[3/3] enviando...\n"},
		"empty name":  {step: progress.StepInfo{Number: 1, Total: 3}, wantErr: true},
		"zero number": {step: progress.StepInfo{Name: "x", Total: 3}, wantErr: true},
		"beyond total": {
			step:    progress.StepInfo{Name: "x", Number: 4, Total: 3},
			wantErr: true,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			var buf bytes.Buffer
			err := progress.NewDisplay(plain, &buf).Start(tt.step)
			if tt.wantErr {
				require.Error(t, err)
				assert.Zero(t, buf.Len())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestDisplay_CompleteAndFail(t *testing.T) {
	t.Parallel()

	step := progress.StepInfo{Name: "gerando PDF", Number: 2, Total: 3}

	var buf bytes.Buffer
	d := progress.NewDisplay(plain, &buf)
	d.Complete(step, "Relatorio_Cliente_20250114_v1.pdf")
	d.Fail(step, errors.New("disco cheio"))

	assert.Equal(t,
		"[OK] [2/3] gerando PDF: Relatorio_Cliente_20250114_v1.pdf\n"+
			"[FAIL] [2/3] gerando PDF failed: disco cheio\n",
		buf.String())
}

func TestDisplay_ColorAndUnicode(t *testing.T) {
	t.Parallel()

	caps := progress.TerminalCapabilities{SupportsColor: true, SupportsUnicode: true}
	var buf bytes.Buffer
	progress.NewDisplay(caps, &buf).Complete(progress.StepInfo{Name: "ok", Number: 1, Total: 1}, "")

	assert.Contains(t, buf.String(), "✓")
	assert.Contains(t, buf.String(), "\x1b[32m")
}

func TestDisplay_SpinnerLifecycle(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	d := progress.NewDisplay(progress.TerminalCapabilities{IsTTY: true, SupportsUnicode: true}, &buf)
	step := progress.StepInfo{Name: "validando", Number: 1, Total: 1}
	require.NoError(t, d.Start(step))
	d.Stop()
	d.Stop()
	d.Complete(step, "")
	assert.Contains(t, buf.String(), "✓ [1/1] validando")
}

// Package log tests level parsing and logger setup.
// Related: internal/log/log.go
// Tags: log, slog, levels
package log

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		input   string
		want    any
		wantErr bool
	}{
		"debug":          {input: "debug", want: LevelDebug},
		"empty is info":  {input: "", want: LevelInfo},
		"upper warn":     {input: "WARN", want: LevelWarn},
		"warning alias":  {input: "warning", want: LevelWarn},
		"error":          {input: "error", want: LevelError},
		"unknown errors": {input: "loud", want: LevelInfo, wantErr: true},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseLevel(tc.input)
			if tc.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestSetupWritesComponent(t *testing.T) {
	var buf bytes.Buffer
	Setup(LevelDebug, &buf)
	t.Cleanup(func() { Setup(LevelInfo, nil) })

	For("export").Debug("artifact uploaded", "version", 3)

	out := buf.String()
	assert.Contains(t, out, "component=export")
	assert.Contains(t, out, "version=3")
	assert.Equal(t, LevelDebug, GetLevel())
}

func TestOrDefault(t *testing.T) {
	t.Parallel()

	l := Discard()
	assert.Same(t, l, OrDefault(l, "x"))
	assert.NotNil(t, OrDefault(nil, "x"))
}

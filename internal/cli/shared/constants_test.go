// Package shared tests exit code mapping for CLI errors.
// Related: internal/cli/shared/constants.go
// Tags: cli, exit-codes, errors
package shared

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "github.com/ariel-frischer/vistoria/internal/errors"
	"github.com/ariel-frischer/vistoria/internal/retry"
)

func TestExitCode(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		err  error
		want int
	}{
		"nil":             {err: nil, want: ExitSuccess},
		"plain error":     {err: errors.New("boom"), want: ExitValidationFailed},
		"exit error":      {err: NewExitError(4), want: 4},
		"wrapped exit":    {err: fmt.Errorf("ctx: %w", NewExitError(5)), want: 5},
		"retry exhausted": {err: fmt.Errorf("sending: %w", &retry.RetryExhaustedError{Key: "log", MaxRetries: 3}), want: ExitRetryLimitReached},
		"deadline":        {err: fmt.Errorf("export: %w", context.DeadlineExceeded), want: ExitTimeout},
		"argument":        {err: apperrors.NewArgumentError("bad"), want: ExitInvalidArguments},
		"configuration":   {err: apperrors.NewConfigError("bad"), want: ExitInvalidArguments},
		"prerequisite":    {err: apperrors.NewPrerequisiteError("missing"), want: ExitMissingDependency},
		"validation":      {err: apperrors.NewValidationError("blocked", nil), want: ExitValidationFailed},
		"runtime":         {err: apperrors.NewRuntimeError("failed"), want: ExitValidationFailed},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
}

func TestIsExitError(t *testing.T) {
	t.Parallel()

	assert.True(t, IsExitError(NewExitError(1)))
	assert.True(t, IsExitError(fmt.Errorf("wrapped: %w", NewExitError(2))))
	assert.False(t, IsExitError(errors.New("other")))
	assert.False(t, IsExitError(nil))
	assert.Equal(t, "exit code 3", NewExitError(3).Error())
}

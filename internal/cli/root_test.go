// Package cli tests the command tree end to end: each test builds a fresh root command over
// a temp database and drives it with arguments the way a user would.
// Related: internal/cli/root.go, internal/cli/inspection.go, internal/cli/validate.go
// Tags: cli, cobra, commands, exit-codes
package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariel-frischer/vistoria/internal/cli/shared"
	"github.com/ariel-frischer/vistoria/internal/config"
	apperrors "github.com/ariel-frischer/vistoria/internal/errors"
	"github.com/ariel-frischer/vistoria/internal/store"
	"github.com/ariel-frischer/vistoria/internal/testutil"
)

type harness struct {
	t   *testing.T
	cfg *config.Configuration
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	cfg, err := config.LoadWithOptions(config.LoadOptions{SkipEnv: true})
	require.NoError(t, err)
	dir := t.TempDir()
	cfg.DatabasePath = filepath.Join(dir, "vistoria.db")
	cfg.ArtifactsDir = filepath.Join(dir, "reports")
	cfg.LogLevel = "error"
	return &harness{t: t, cfg: cfg}
}

// run executes one command line and returns its stdout.
func (h *harness) run(args ...string) (string, error) {
	h.t.Helper()
	root := NewRootCmd(func(string) (*config.Configuration, error) {
		cfg := *h.cfg
		return &cfg, nil
	})
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func (h *harness) mustRun(args ...string) string {
	h.t.Helper()
	out, err := h.run(args...)
	require.NoError(h.t, err, out)
	return out
}

// seed stores an inspection directly in the harness database.
func (h *harness) seed(values map[string]map[string]string, media []store.MediaRow) string {
	h.t.Helper()
	s, err := store.Open(context.Background(), h.cfg.DatabasePath)
	require.NoError(h.t, err)
	defer s.Close()
	return testutil.Seed(h.t, s, values, media)
}

func (h *harness) createInspection(args ...string) string {
	h.t.Helper()
	out := h.mustRun(append([]string{"inspection", "create"}, args...)...)
	fields := strings.Fields(out)
	require.NotEmpty(h.t, fields)
	return fields[len(fields)-1]
}

func TestInspectionLifecycle(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	id := h.createInspection("--client", "Condomínio São João", "--site", "Bloco A")

	var list []store.Inspection
	require.NoError(t, json.Unmarshal([]byte(h.mustRun("inspection", "list", "--json")), &list))
	require.Len(t, list, 1)
	assert.Equal(t, id, list[0].ID)
	assert.Equal(t, "Condomínio São João", list[0].ClientName)
	assert.Equal(t, store.StatusInProgress, list[0].Status)

	out := h.mustRun("inspection", "show", id)
	assert.Contains(t, out, "Condomínio São João")
	assert.Contains(t, out, "Bloco A")

	out = h.mustRun("module", "set", id, "cabin_type", "cabin_type=CONVENCIONAL")
	assert.NotEmpty(t, out)

	out = h.mustRun("inspection", "delete", id)
	assert.Contains(t, out, id)

	_, err := h.run("inspection", "show", id)
	require.Error(t, err)
	assert.Equal(t, shared.ExitMissingDependency, ExitCode(err))
}

func TestInspectionList_Empty(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	assert.Contains(t, h.mustRun("inspection", "list"), "No inspections yet")
	assert.Equal(t, "[]\n", h.mustRun("inspection", "list", "--json"))
}

func TestModuleSet_Errors(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	id := h.createInspection()

	tests := map[string]struct {
		args     []string
		wantCode int
		wantText string
	}{
		"unknown module": {
			args:     []string{"module", "set", id, "clinet", "a=1"},
			wantCode: shared.ExitInvalidArguments,
			wantText: "client",
		},
		"unknown inspection": {
			args:     []string{"module", "set", "nope", "client", "a=1"},
			wantCode: shared.ExitMissingDependency,
			wantText: "nope",
		},
		"missing equals": {
			args:     []string{"module", "set", id, "client", "client_name"},
			wantCode: shared.ExitInvalidArguments,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := h.run(tt.args...)
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, ExitCode(err))
			if tt.wantText != "" {
				assert.Contains(t, apperrors.FormatErrorPlain(apperrors.AsCLIError(err)), tt.wantText)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	complete := h.seed(testutil.CompleteValues(), testutil.CompleteMedia(""))
	noPhotos := h.seed(testutil.CompleteValues(), nil)
	blocked := h.seed(testutil.Set(testutil.CompleteValues(), "client", "authorization", "false"),
		testutil.CompleteMedia(""))

	out := h.mustRun("validate", complete)
	assert.Contains(t, out, "ready to be reported")

	out = h.mustRun("validate", noPhotos)
	assert.Contains(t, out, "incomplete")

	_, err := h.run("validate", blocked)
	require.Error(t, err)
	assert.Equal(t, shared.ExitValidationFailed, ExitCode(err))
	cliErr := apperrors.AsCLIError(err)
	require.NotNil(t, cliErr)
	assert.Equal(t, apperrors.Validation, cliErr.Category)
	assert.NotEmpty(t, cliErr.Details)
}

func TestValidate_Args(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	_, err := h.run("validate")
	require.Error(t, err)
	assert.Equal(t, shared.ExitInvalidArguments, ExitCode(err))

	_, err = h.run("validate", "missing-id")
	require.Error(t, err)
	assert.Equal(t, shared.ExitMissingDependency, ExitCode(err))
}

func TestValidateAll(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	complete := h.seed(testutil.CompleteValues(), testutil.CompleteMedia(""))
	empty := h.seed(nil, nil)

	out := h.mustRun("validate", "--all")
	assert.Contains(t, out, complete)
	assert.Contains(t, out, empty)
}

func TestExport(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	id := h.seed(testutil.CompleteValues(), testutil.CompleteMedia(""))

	out := h.mustRun("export", id, "--json")
	assert.Contains(t, out, "Report exported")
	assert.Contains(t, out, "_v1.pdf")

	out = h.mustRun("export", id)
	assert.Contains(t, out, "_v2.pdf")

	var logs []store.ExportLog
	require.NoError(t, json.Unmarshal([]byte(h.mustRun("exports", id, "--json")), &logs))
	require.Len(t, logs, 2)
	assert.Equal(t, 1, logs[0].Version)
	assert.Equal(t, 2, logs[1].Version)
	assert.FileExists(t, filepath.Join(h.cfg.ArtifactsDir, logs[0].FileName))
}

func TestExport_Errors(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	blocked := h.seed(testutil.Set(testutil.CompleteValues(), "client", "authorization", "false"), nil)

	tests := map[string]struct {
		args     []string
		wantCode int
	}{
		"bad mode":           {args: []string{"export", blocked, "--mode", "fancy"}, wantCode: shared.ExitInvalidArguments},
		"unknown inspection": {args: []string{"export", "nope"}, wantCode: shared.ExitMissingDependency},
		"critical findings":  {args: []string{"export", blocked}, wantCode: shared.ExitValidationFailed},
		"unknown export log": {args: []string{"retry-delivery", "nope"}, wantCode: shared.ExitMissingDependency},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := h.run(tt.args...)
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, ExitCode(err))
		})
	}
}

func TestSchemaCommands(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	out := h.mustRun("schema", "list")
	assert.Contains(t, out, "cabin_type")
	assert.Contains(t, out, "CONVENCIONAL")

	out = h.mustRun("schema", "show", "cabin_type")
	assert.Contains(t, out, "FIELD")
	assert.Contains(t, out, "supply_voltage")

	_, err := h.run("schema", "show", "cabin_typ")
	require.Error(t, err)
	assert.Equal(t, shared.ExitInvalidArguments, ExitCode(err))
	assert.Contains(t, apperrors.FormatErrorPlain(apperrors.AsCLIError(err)), "Did you mean: cabin_type")
}

func TestSkipConfig(t *testing.T) {
	t.Parallel()

	root := NewRootCmd(func(string) (*config.Configuration, error) {
		return nil, assert.AnError
	})
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"version", "--plain"})
	require.NoError(t, root.Execute())
	assert.Equal(t, "vistoria dev\n", out.String())

	root = NewRootCmd(func(string) (*config.Configuration, error) {
		return nil, assert.AnError
	})
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"inspection", "list"})
	err := root.Execute()
	require.Error(t, err)
	assert.Equal(t, shared.ExitInvalidArguments, ExitCode(err))
}

func TestPrintError(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		err  error
		want string
	}{
		"nil":        {err: nil, want: ""},
		"exit error": {err: shared.NewExitError(1), want: ""},
		"cli error":  {err: apperrors.InspectionNotFound("abc"), want: "inspection not found: abc"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			var buf bytes.Buffer
			printError(&buf, tt.err)
			if tt.want == "" {
				assert.Empty(t, buf.String())
				return
			}
			assert.Contains(t, buf.String(), tt.want)
		})
	}
}

func TestDoctor(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	out := h.mustRun("doctor")
	assert.Contains(t, out, "✓ Database")
	assert.Contains(t, out, "✓ Checklist templates")

	h.cfg.Notifications.Enabled = true
	h.cfg.Notifications.Channel = "webhook"
	h.cfg.Notifications.WebhookURL = ""
	out, err := h.run("doctor")
	require.Error(t, err)
	assert.Equal(t, shared.ExitMissingDependency, ExitCode(err))
	assert.Contains(t, out, "✗ Error: Notifications")
}

// Package health tests environment checks for the database, artifact storage, checklist
// templates and notification settings.
// Related: internal/health/health.go
// Tags: health, doctor, validation

package health

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariel-frischer/vistoria/internal/checklist"
	"github.com/ariel-frischer/vistoria/internal/config"
	"github.com/ariel-frischer/vistoria/internal/notify"
	"github.com/ariel-frischer/vistoria/internal/schema"
)

func TestRunHealthChecks(t *testing.T) {
	t.Parallel()
	cfg, err := config.LoadWithOptions(config.LoadOptions{SkipEnv: true})
	require.NoError(t, err)
	dir := t.TempDir()
	cfg.DatabasePath = filepath.Join(dir, "vistoria.db")
	cfg.ArtifactsDir = filepath.Join(dir, "reports")

	report := RunHealthChecks(context.Background(), cfg)
	require.Len(t, report.Checks, 4)
	assert.True(t, report.Passed, FormatReport(report))
	assert.DirExists(t, cfg.ArtifactsDir)

	entries, err := os.ReadDir(cfg.ArtifactsDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "write-check file should be removed")
}

func TestCheckArtifactsDir_NotWritable(t *testing.T) {
	t.Parallel()
	file := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(file, nil, 0o644))

	result := CheckArtifactsDir(filepath.Join(file, "reports"))
	assert.False(t, result.Passed)
	assert.Contains(t, result.Message, "cannot create")
}

func TestCheckTemplates(t *testing.T) {
	t.Parallel()

	assert.True(t, CheckTemplates(schema.Default(), checklist.DefaultTemplates()).Passed)

	partial, err := checklist.LoadTemplates([]byte(`templates:
  - cabin_type: SIMPLIFICADA
    items:
      - id: simp_visual_pole
        action: Inspecionar poste
        category: visual
        criticality: low
`))
	require.NoError(t, err)
	result := CheckTemplates(schema.Default(), partial)
	assert.False(t, result.Passed)
	assert.Contains(t, result.Message, "CONVENCIONAL")
}

func TestCheckNotifications(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		cfg        notify.NotificationConfig
		wantPassed bool
		wantMsg    string
	}{
		"disabled": {
			cfg:        notify.NotificationConfig{},
			wantPassed: true,
			wantMsg:    "disabled",
		},
		"email without host": {
			cfg:     notify.NotificationConfig{Enabled: true, Channel: notify.ChannelEmail},
			wantMsg: "smtp.host",
		},
		"email configured": {
			cfg: notify.NotificationConfig{Enabled: true, Channel: notify.ChannelEmail,
				SMTP: notify.SMTPConfig{Host: "smtp.example.com", Port: 587, From: "relatorios@example.com"}},
			wantPassed: true,
			wantMsg:    "smtp.example.com:587",
		},
		"webhook without url": {
			cfg:     notify.NotificationConfig{Enabled: true, Channel: notify.ChannelWebhook},
			wantMsg: "webhook_url",
		},
		"log channel": {
			cfg:        notify.NotificationConfig{Enabled: true, Channel: notify.ChannelLog},
			wantPassed: true,
			wantMsg:    "log only",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			result := CheckNotifications(tt.cfg)
			assert.Equal(t, tt.wantPassed, result.Passed)
			assert.Contains(t, result.Message, tt.wantMsg)
		})
	}
}

func TestFormatReport(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		report   *HealthReport
		expected []string
	}{
		"all checks pass": {
			report: &HealthReport{Passed: true, Checks: []CheckResult{
				{Name: "Database", Passed: true, Message: "/tmp/v.db"},
			}},
			expected: []string{"✓ Database: /tmp/v.db"},
		},
		"one check fails": {
			report: &HealthReport{Checks: []CheckResult{
				{Name: "Database", Passed: true, Message: "ok"},
				{Name: "Notifications", Message: "webhook channel needs notifications.webhook_url"},
			}},
			expected: []string{"✓ Database: ok", "✗ Error: Notifications: webhook channel needs"},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			out := FormatReport(tt.report)
			for _, want := range tt.expected {
				assert.Contains(t, out, want)
			}
		})
	}
}

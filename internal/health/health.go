// Package health runs environment checks for vistoria: database, artifact storage, the
// embedded schema and the notification channel.
package health

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ariel-frischer/vistoria/internal/checklist"
	"github.com/ariel-frischer/vistoria/internal/config"
	"github.com/ariel-frischer/vistoria/internal/notify"
	"github.com/ariel-frischer/vistoria/internal/schema"
	"github.com/ariel-frischer/vistoria/internal/store"
)

// CheckResult represents the result of a single health check
type CheckResult struct {
	Name    string
	Passed  bool
	Message string
}

// HealthReport contains all health check results
type HealthReport struct {
	Checks []CheckResult
	Passed bool
}

// RunHealthChecks runs all health checks against cfg and returns a report
func RunHealthChecks(ctx context.Context, cfg *config.Configuration) *HealthReport {
	report := &HealthReport{Passed: true}
	for _, check := range []CheckResult{
		CheckDatabase(ctx, cfg.DatabasePath),
		CheckArtifactsDir(cfg.ArtifactsDir),
		CheckTemplates(schema.Default(), checklist.DefaultTemplates()),
		CheckNotifications(cfg.Notifications),
	} {
		report.Checks = append(report.Checks, check)
		if !check.Passed {
			report.Passed = false
		}
	}
	return report
}

// CheckDatabase opens the database, applying migrations.
func CheckDatabase(ctx context.Context, path string) CheckResult {
	s, err := store.Open(ctx, path)
	if err != nil {
		return CheckResult{Name: "Database", Message: fmt.Sprintf("cannot open %s: %v", path, err)}
	}
	_ = s.Close()
	return CheckResult{Name: "Database", Passed: true, Message: path}
}

// CheckArtifactsDir verifies the report directory exists or can be created, and is writable.
func CheckArtifactsDir(dir string) CheckResult {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return CheckResult{Name: "Artifacts directory", Message: fmt.Sprintf("cannot create %s: %v", dir, err)}
	}
	f, err := os.CreateTemp(dir, ".doctor-*")
	if err != nil {
		return CheckResult{Name: "Artifacts directory", Message: fmt.Sprintf("%s is not writable: %v", dir, err)}
	}
	name := f.Name()
	_ = f.Close()
	_ = os.Remove(name)
	return CheckResult{Name: "Artifacts directory", Passed: true, Message: filepath.Clean(dir)}
}

// CheckTemplates verifies every cabin type of the registry has a checklist template.
func CheckTemplates(reg *schema.Registry, templates *checklist.Templates) CheckResult {
	var missing []string
	for _, ct := range reg.CabinTypes() {
		if _, ok := templates.ForCabinType(ct.Type); !ok {
			missing = append(missing, ct.Type)
		}
	}
	if len(missing) > 0 {
		return CheckResult{Name: "Checklist templates", Message: "no template for " + strings.Join(missing, ", ")}
	}
	return CheckResult{
		Name:    "Checklist templates",
		Passed:  true,
		Message: fmt.Sprintf("%d modules, %d cabin types", len(reg.Modules()), len(reg.CabinTypes())),
	}
}

// CheckNotifications verifies the selected channel has what it needs to deliver.
func CheckNotifications(nc notify.NotificationConfig) CheckResult {
	const name = "Notifications"
	if !nc.Enabled {
		return CheckResult{Name: name, Passed: true, Message: "disabled (report emails are recorded as email_failed)"}
	}
	switch nc.Channel {
	case notify.ChannelEmail:
		if nc.SMTP.Host == "" || nc.SMTP.From == "" {
			return CheckResult{Name: name, Message: "email channel needs notifications.smtp.host and notifications.smtp.from"}
		}
		return CheckResult{Name: name, Passed: true, Message: fmt.Sprintf("email via %s:%d", nc.SMTP.Host, nc.SMTP.Port)}
	case notify.ChannelWebhook:
		if nc.WebhookURL == "" {
			return CheckResult{Name: name, Message: "webhook channel needs notifications.webhook_url"}
		}
		return CheckResult{Name: name, Passed: true, Message: "webhook " + nc.WebhookURL}
	}
	return CheckResult{Name: name, Passed: true, Message: "log only"}
}

// FormatReport formats the health report for console output
func FormatReport(report *HealthReport) string {
	var b strings.Builder
	for _, check := range report.Checks {
		if check.Passed {
			fmt.Fprintf(&b, "✓ %s: %s\n", check.Name, check.Message)
		} else {
			fmt.Fprintf(&b, "✗ Error: %s: %s\n", check.Name, check.Message)
		}
	}
	return b.String()
}

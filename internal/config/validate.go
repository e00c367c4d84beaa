package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ariel-frischer/vistoria/internal/notify"
)

// ValidationError represents a configuration validation error with context
type ValidationError struct {
	FilePath string
	Line     int
	Column   int
	Message  string
	Field    string
}

func (e *ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s", e.FilePath, e.Line, e.Column, e.Message)
	}
	if e.Field != "" {
		return fmt.Sprintf("%s: field '%s': %s", e.FilePath, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.FilePath, e.Message)
}

// ValidateJSONSyntax checks if the JSON file has valid syntax.
// Returns nil if valid, or a ValidationError with line/column information if invalid.
func ValidateJSONSyntax(filePath string) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // Missing file is not an error - will use defaults
		}
		if os.IsPermission(err) {
			return &ValidationError{FilePath: filePath, Message: "permission denied"}
		}
		return &ValidationError{FilePath: filePath, Message: err.Error()}
	}
	return ValidateJSONSyntaxFromBytes(data, filePath)
}

// ValidateJSONSyntaxFromBytes checks if JSON data has valid syntax.
// Empty data is valid and means defaults apply.
func ValidateJSONSyntaxFromBytes(data []byte, filePath string) error {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil
	}
	var v map[string]any
	err := json.Unmarshal(data, &v)
	if err == nil {
		return nil
	}

	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		line, column := lineColumn(data, syntaxErr.Offset)
		return &ValidationError{FilePath: filePath, Line: line, Column: column, Message: syntaxErr.Error()}
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return &ValidationError{FilePath: filePath, Message: "top-level value must be an object"}
	}
	return &ValidationError{FilePath: filePath, Message: err.Error()}
}

// lineColumn converts a byte offset into 1-based line and column numbers.
func lineColumn(data []byte, offset int64) (line, column int) {
	if offset > int64(len(data)) {
		offset = int64(len(data))
	}
	line, column = 1, 1
	for _, b := range data[:offset] {
		if b == '\n' {
			line++
			column = 1
			continue
		}
		column++
	}
	// Offset points just past the offending byte.
	return line, max(column-1, 1)
}

// ValidateConfigValues checks constraints that span several fields.
// Returns nil if valid, or a ValidationError with field information if invalid.
func ValidateConfigValues(cfg *Configuration, filePath string) error {
	if cfg.DatabasePath == "" {
		return &ValidationError{FilePath: filePath, Field: "database_path", Message: "is required"}
	}
	if cfg.ArtifactsDir == "" {
		return &ValidationError{FilePath: filePath, Field: "artifacts_dir", Message: "is required"}
	}

	// MaxRetries: min=0, max=10
	if cfg.MaxRetries < 0 || cfg.MaxRetries > 10 {
		return &ValidationError{FilePath: filePath, Field: "max_retries", Message: "must be between 0 and 10"}
	}

	return validateNotificationConfig(&cfg.Notifications, filePath)
}

// validateNotificationConfig validates notification configuration values.
// Returns nil if valid, or a ValidationError with field information if invalid.
func validateNotificationConfig(nc *notify.NotificationConfig, filePath string) error {
	if nc.Channel != "" && !notify.ValidChannel(string(nc.Channel)) {
		return &ValidationError{
			FilePath: filePath,
			Field:    "notifications.channel",
			Message:  "must be one of: email, webhook, log",
		}
	}
	if nc.Timeout < 0 {
		return &ValidationError{FilePath: filePath, Field: "notifications.timeout", Message: "must not be negative"}
	}

	// Channel settings only matter once notifications are switched on.
	if !nc.Enabled {
		return nil
	}
	switch nc.Channel {
	case notify.ChannelEmail:
		if nc.SMTP.Host == "" {
			return &ValidationError{FilePath: filePath, Field: "notifications.smtp.host", Message: "is required for the email channel"}
		}
		if nc.SMTP.From == "" {
			return &ValidationError{FilePath: filePath, Field: "notifications.smtp.from", Message: "is required for the email channel"}
		}
		if nc.SMTP.Port <= 0 || nc.SMTP.Port > 65535 {
			return &ValidationError{FilePath: filePath, Field: "notifications.smtp.port", Message: "must be between 1 and 65535"}
		}
	case notify.ChannelWebhook:
		if !strings.HasPrefix(nc.WebhookURL, "http://") && !strings.HasPrefix(nc.WebhookURL, "https://") {
			return &ValidationError{FilePath: filePath, Field: "notifications.webhook_url", Message: "must be an http(s) URL for the webhook channel"}
		}
	}
	return nil
}

package notify

import (
	"context"
	"time"
)

// NotificationType identifies the event being delivered.
type NotificationType string

const (
	// TypeMeasurementAlert is raised when a measurement falls outside tolerance.
	TypeMeasurementAlert NotificationType = "measurement_alert"
	// TypeSafetyAlert is raised when a safety-category checklist item fails.
	TypeSafetyAlert NotificationType = "safety_alert"
	// TypeCriticalAlert is raised when a high-criticality item fails.
	TypeCriticalAlert NotificationType = "critical_alert"
	// TypeWorkOrder announces a generated work order.
	TypeWorkOrder NotificationType = "work_order"
	// TypeReportReady carries the links of an exported report.
	TypeReportReady NotificationType = "report_ready"
)

// Urgency ranks how quickly a notification must be seen.
type Urgency string

const (
	UrgencyNormal Urgency = "normal"
	UrgencyHigh   Urgency = "high"
)

// Channel selects the delivery mechanism.
type Channel string

const (
	ChannelEmail   Channel = "email"
	ChannelWebhook Channel = "webhook"
	ChannelLog     Channel = "log"
)

// ValidChannel checks if the given string is a valid channel
func ValidChannel(s string) bool {
	switch Channel(s) {
	case ChannelEmail, ChannelWebhook, ChannelLog:
		return true
	default:
		return false
	}
}

// SMTPConfig holds the mail relay settings of the email channel.
type SMTPConfig struct {
	Host     string `koanf:"host" json:"host"`
	Port     int    `koanf:"port" json:"port"`
	Username string `koanf:"username" json:"username"`
	Password string `koanf:"password" json:"password"`
	From     string `koanf:"from" json:"from"`
}

// NotificationConfig holds user preferences for notification behavior.
// Configuration is loaded from the config hierarchy (env > project > user > defaults).
type NotificationConfig struct {
	// Enabled is the master switch for all notifications (default: false, opt-in)
	Enabled bool `koanf:"enabled" json:"enabled"`

	// Channel is email, webhook or log (default: log)
	Channel Channel `koanf:"channel" json:"channel"`

	// Timeout bounds a single delivery (default: 10s)
	Timeout time.Duration `koanf:"timeout" json:"timeout"`

	// AlertRecipients receive checklist alerts when a notification names no recipients
	AlertRecipients []string `koanf:"alert_recipients" json:"alert_recipients"`

	SMTP SMTPConfig `koanf:"smtp" json:"smtp"`

	// WebhookURL receives a JSON POST per notification on the webhook channel
	WebhookURL string `koanf:"webhook_url" json:"webhook_url"`
}

// DefaultConfig returns a NotificationConfig with default values
func DefaultConfig() NotificationConfig {
	return NotificationConfig{
		Enabled: false,
		Channel: ChannelLog,
		Timeout: 10 * time.Second,
		SMTP:    SMTPConfig{Port: 587},
	}
}

// Notification is a single event to dispatch.
type Notification struct {
	Type         NotificationType  `json:"type"`
	Subject      string            `json:"subject,omitempty"`
	Message      string            `json:"message"`
	Recipients   []string          `json:"recipients,omitempty"`
	Urgency      Urgency           `json:"urgency"`
	InspectionID string            `json:"inspection_id,omitempty"`
	FaultID      string            `json:"fault_id,omitempty"`
	Data         map[string]string `json:"data,omitempty"`
}

// Receipt reports what happened to a notification.
type Receipt struct {
	Success bool
	// Skipped is true when notifications are disabled and nothing was attempted.
	Skipped bool
	Channel Channel
}

// Sink accepts notifications. Handler is the production implementation.
type Sink interface {
	Send(ctx context.Context, n Notification) (Receipt, error)
}

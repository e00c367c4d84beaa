package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/wneessen/go-mail"
)

// Sender delivers a notification over one channel.
type Sender interface {
	Send(ctx context.Context, n Notification) error

	// Available returns true if the channel is configured well enough to attempt delivery
	Available() bool

	Channel() Channel
}

// NewSender creates the sender for the configured channel.
// Unknown channels fall back to the log sender.
func NewSender(cfg NotificationConfig, logger *slog.Logger) Sender {
	switch cfg.Channel {
	case ChannelEmail:
		return NewSMTPSender(cfg.SMTP)
	case ChannelWebhook:
		return NewWebhookSender(cfg.WebhookURL, cfg.Timeout)
	default:
		return NewLogSender(logger)
	}
}

// SMTPSender sends plain-text mail through an SMTP relay.
type SMTPSender struct {
	cfg SMTPConfig

	// deliver is swapped in tests
	deliver func(ctx context.Context, msg *mail.Msg) error
}

// NewSMTPSender creates an email sender.
func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	s := &SMTPSender{cfg: cfg}
	s.deliver = s.dialAndSend
	return s
}

func (s *SMTPSender) Channel() Channel { return ChannelEmail }

func (s *SMTPSender) Available() bool {
	return s.cfg.Host != "" && s.cfg.From != ""
}

func (s *SMTPSender) Send(ctx context.Context, n Notification) error {
	if !s.Available() {
		return fmt.Errorf("smtp relay not configured")
	}
	if len(n.Recipients) == 0 {
		return fmt.Errorf("no recipients for %s notification", n.Type)
	}

	msg, err := buildMessage(s.cfg.From, n)
	if err != nil {
		return err
	}
	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	if err := s.deliver(ctx, msg); err != nil {
		return fmt.Errorf("sending mail via %s: %w", addr, err)
	}
	return nil
}

// dialAndSend submits msg with STARTTLS when the relay offers it.
func (s *SMTPSender) dialAndSend(ctx context.Context, msg *mail.Msg) error {
	opts := []mail.Option{
		mail.WithPort(s.cfg.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if s.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.cfg.Username),
			mail.WithPassword(s.cfg.Password),
		)
	}
	client, err := mail.NewClient(s.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("creating smtp client: %w", err)
	}
	return client.DialAndSendWithContext(ctx, msg)
}

// buildMessage renders the notification as a UTF-8 plain-text message: the body followed by
// the data block. Non-ASCII subjects are encoded per RFC 2047 by go-mail.
func buildMessage(from string, n Notification) (*mail.Msg, error) {
	subject := n.Subject
	if subject == "" {
		subject = string(n.Type)
	}

	m := mail.NewMsg()
	if err := m.From(from); err != nil {
		return nil, fmt.Errorf("invalid sender %q: %w", from, err)
	}
	if err := m.To(n.Recipients...); err != nil {
		return nil, fmt.Errorf("invalid recipients: %w", err)
	}
	m.Subject(subject)
	if n.Urgency == UrgencyHigh {
		m.SetImportance(mail.ImportanceHigh)
	}

	var b strings.Builder
	b.WriteString(n.Message)
	b.WriteString("\n")
	for _, k := range sortedKeys(n.Data) {
		fmt.Fprintf(&b, "%s: %s\n", k, n.Data[k])
	}
	m.SetBodyString(mail.TypeTextPlain, b.String())
	return m, nil
}

// WebhookSender POSTs the notification as JSON.
type WebhookSender struct {
	url    string
	client *http.Client
}

// NewWebhookSender creates a webhook sender with the given request timeout.
func NewWebhookSender(url string, timeout time.Duration) *WebhookSender {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WebhookSender{url: url, client: &http.Client{Timeout: timeout}}
}

func (s *WebhookSender) Channel() Channel { return ChannelWebhook }

func (s *WebhookSender) Available() bool { return s.url != "" }

func (s *WebhookSender) Send(ctx context.Context, n Notification) error {
	if !s.Available() {
		return fmt.Errorf("webhook url not configured")
	}
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encoding notification: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("posting webhook: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

// LogSender writes notifications to the structured log. Useful for local runs.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender creates a log sender.
func NewLogSender(logger *slog.Logger) *LogSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSender{logger: logger}
}

func (s *LogSender) Channel() Channel { return ChannelLog }

func (s *LogSender) Available() bool { return true }

func (s *LogSender) Send(ctx context.Context, n Notification) error {
	level := slog.LevelInfo
	if n.Urgency == UrgencyHigh {
		level = slog.LevelWarn
	}
	s.logger.Log(ctx, level, n.Message,
		"type", string(n.Type),
		"recipients", strings.Join(n.Recipients, ","),
		"inspection_id", n.InspectionID,
		"fault_id", n.FaultID,
	)
	return nil
}

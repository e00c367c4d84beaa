// Package notify delivers inspection alerts and report emails.
//
// A Handler wraps a channel-specific Sender (SMTP email, JSON webhook, or structured log)
// with the user's notification configuration. Delivery is bounded by a timeout and never
// panics the caller; when notifications are disabled Send returns a skipped Receipt.
//
// # Usage
//
//	cfg := notify.DefaultConfig()
//	cfg.Enabled = true
//	cfg.Channel = notify.ChannelEmail
//	h := notify.NewHandler(cfg, logger)
//	receipt, err := h.Send(ctx, notify.Notification{
//		Type:       notify.TypeReportReady,
//		Subject:    "Relatório de vistoria",
//		Message:    "O relatório está disponível.",
//		Recipients: []string{"cliente@example.com"},
//	})
package notify

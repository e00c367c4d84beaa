package notify

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"time"
)

// Handler manages notification dispatch based on configuration.
// It wraps a Sender with configuration and applies defaults and the delivery timeout.
type Handler struct {
	config NotificationConfig
	sender Sender
	logger *slog.Logger
}

// NewHandler creates a new notification handler with the given configuration.
// If notifications are disabled in config, Send no-ops with a skipped receipt.
func NewHandler(config NotificationConfig, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		config: config,
		sender: NewSender(config, logger),
		logger: logger,
	}
}

// NewHandlerWithSender creates a handler with a custom sender (for testing).
func NewHandlerWithSender(config NotificationConfig, sender Sender) *Handler {
	return &Handler{
		config: config,
		sender: sender,
		logger: slog.Default(),
	}
}

// Config returns the handler's notification configuration
func (h *Handler) Config() NotificationConfig {
	return h.config
}

// Send delivers n through the configured sender.
//
// Recipients default to the configured alert recipients. Urgency defaults to normal.
// Delivery runs in a goroutine bounded by the configured timeout so a stuck relay never
// blocks the caller past it.
func (h *Handler) Send(ctx context.Context, n Notification) (Receipt, error) {
	receipt := Receipt{Channel: h.sender.Channel()}
	if !h.config.Enabled {
		h.logger.Debug("notification skipped, notifications disabled", "type", string(n.Type))
		receipt.Skipped = true
		return receipt, nil
	}

	if len(n.Recipients) == 0 {
		n.Recipients = slices.Clone(h.config.AlertRecipients)
	}
	if n.Urgency == "" {
		n.Urgency = UrgencyNormal
	}

	timeout := h.config.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- h.sender.Send(ctx, n)
	}()

	var err error
	select {
	case err = <-done:
	case <-ctx.Done():
		err = fmt.Errorf("notification timed out after %s: %w", timeout, ctx.Err())
	}

	if err != nil {
		h.logger.Warn("notification delivery failed",
			"type", string(n.Type), "channel", string(receipt.Channel), "error", err)
		return receipt, err
	}
	receipt.Success = true
	return receipt, nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

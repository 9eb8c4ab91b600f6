// Package notify pushes operator alerts for trading events. Alerts are
// dispatched to all configured channels (Telegram, Discord) and filtered by
// event type so operators receive only the alerts they care about.
package notify

import (
	"context"
	"log/slog"
	"strings"

	"github.com/ZanKramar/polymarket-trading/internal/config"
)

// Event types emitted by the bot.
const (
	EventTradeExecuted = "trade_executed"
	EventTradeResolved = "trade_resolved"
	EventCycleError    = "cycle_error"
)

// Sender is the interface that each notification channel must implement.
type Sender interface {
	// Send delivers a notification with the given title and message body.
	Send(ctx context.Context, title, message string) error
	// Name returns a human-readable identifier for the sender (e.g. "telegram").
	Name() string
}

// Notifier dispatches alerts to the configured senders. Delivery is best
// effort: sender failures are logged and never surface to the trading loop.
type Notifier struct {
	senders []Sender
	events  map[string]bool // allowed event types; empty allows all
	log     *slog.Logger
}

// New creates a Notifier delivering to the given senders. Only events whose
// type appears in the events slice are forwarded; an empty slice allows all.
func New(senders []Sender, events []string, log *slog.Logger) *Notifier {
	allowed := make(map[string]bool, len(events))
	for _, e := range events {
		allowed[strings.TrimSpace(e)] = true
	}
	return &Notifier{
		senders: senders,
		events:  allowed,
		log:     log.With("component", "notifier"),
	}
}

// FromConfig builds a Notifier with the channels that have credentials
// configured. With no channels configured the Notifier is a no-op.
func FromConfig(cfg config.NotifyConfig, log *slog.Logger) *Notifier {
	var senders []Sender
	if cfg.TelegramToken != "" && cfg.TelegramChatID != "" {
		senders = append(senders, NewTelegramSender(cfg.TelegramToken, cfg.TelegramChatID))
	}
	if cfg.DiscordWebhookURL != "" {
		senders = append(senders, NewDiscordSender(cfg.DiscordWebhookURL))
	}
	return New(senders, cfg.Events, log)
}

// Notify sends an alert to every sender if the event type is allowed.
// Failures are logged per sender; the remaining senders still receive the
// alert.
func (n *Notifier) Notify(ctx context.Context, event, title, message string) {
	if len(n.senders) == 0 {
		return
	}
	if len(n.events) > 0 && !n.events[event] {
		return
	}

	for _, s := range n.senders {
		if err := s.Send(ctx, title, message); err != nil {
			n.log.Warn("alert delivery failed",
				"sender", s.Name(),
				"event", event,
				"error", err)
		}
	}
}

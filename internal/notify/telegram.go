package notify

import (
	"encoding/json"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"prebook/internal/events"
)

// TelegramSender is the narrow slice of the bot API the notifier needs.
type TelegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier шлет оператору алерты о движении заявок.
type TelegramNotifier struct {
	bot    TelegramSender
	chatID int64
	logger zerolog.Logger
}

func NewTelegramNotifier(botToken string, chatID int64, logger *zerolog.Logger) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	return newTelegramNotifier(bot, chatID, logger), nil
}

func newTelegramNotifier(bot TelegramSender, chatID int64, logger *zerolog.Logger) *TelegramNotifier {
	log := zerolog.Nop()
	if logger != nil {
		log = logger.With().Str("component", "telegram_notify").Logger()
	}
	return &TelegramNotifier{bot: bot, chatID: chatID, logger: log}
}

// NotifyOperator sends a plain text alert to the operator chat.
func (n *TelegramNotifier) NotifyOperator(text string) error {
	msg := tgbotapi.NewMessage(n.chatID, text)
	if _, err := n.bot.Send(msg); err != nil {
		return fmt.Errorf("failed to send operator alert: %w", err)
	}
	return nil
}

// SubscribeBookingEvents wires the notifier to booking lifecycle events.
func (n *TelegramNotifier) SubscribeBookingEvents(bus *events.EventBus) {
	for _, eventType := range []string{
		events.EventBookingRequested,
		events.EventBookingConfirmed,
		events.EventBookingCancelled,
		events.EventBookingRejected,
	} {
		bus.Subscribe(eventType, n.handleBookingEvent)
	}
}

func (n *TelegramNotifier) handleBookingEvent(event *events.Event) error {
	var payload events.BookingEventPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		n.logger.Error().Err(err).Str("type", event.Type).Msg("decode booking event")
		return err
	}

	text := formatBookingAlert(event.Type, payload)
	if err := n.NotifyOperator(text); err != nil {
		n.logger.Error().Err(err).Str("type", event.Type).Msg("send booking alert")
		return err
	}
	return nil
}

func formatBookingAlert(eventType string, p events.BookingEventPayload) string {
	var header string
	switch eventType {
	case events.EventBookingRequested:
		header = "🆕 새 예약 신청"
	case events.EventBookingConfirmed:
		header = "✅ 예약 확정"
	case events.EventBookingCancelled:
		header = "🚫 예약 취소"
	case events.EventBookingRejected:
		header = "❌ 예약 거절"
	default:
		header = eventType
	}

	service := p.ServiceName
	if service == "" {
		service = p.ServiceType
	}

	text := fmt.Sprintf("%s\n%s %s\n%s · %s", header, p.Date, p.Time, p.CustomerName, service)
	if p.CustomerPhone != "" {
		text += "\n" + p.CustomerPhone
	}
	if p.Reason != "" {
		text += "\n사유: " + p.Reason
	}
	return text
}

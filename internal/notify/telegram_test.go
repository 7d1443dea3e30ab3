package notify

import (
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prebook/internal/events"
)

type fakeSender struct {
	sent []tgbotapi.MessageConfig
	err  error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, msg)
	}
	return tgbotapi.Message{}, f.err
}

func TestNotifyOperator(t *testing.T) {
	sender := &fakeSender{}
	n := newTelegramNotifier(sender, 42, nil)

	require.NoError(t, n.NotifyOperator("hello"))
	require.Len(t, sender.sent, 1)
	assert.Equal(t, int64(42), sender.sent[0].ChatID)
	assert.Equal(t, "hello", sender.sent[0].Text)
}

func TestSubscribeBookingEvents(t *testing.T) {
	sender := &fakeSender{}
	n := newTelegramNotifier(sender, 42, nil)

	bus := events.NewEventBus()
	n.SubscribeBookingEvents(bus)

	err := bus.PublishJSON(events.EventBookingRequested, events.BookingEventPayload{
		BookingID:     "b1",
		Date:          "2026-09-01",
		Time:          "10:00",
		ServiceType:   "natural",
		ServiceName:   "자연눈썹",
		CustomerName:  "김하늘",
		CustomerPhone: "010-1234-5678",
		Status:        "pending",
	})
	require.NoError(t, err)

	require.Len(t, sender.sent, 1)
	text := sender.sent[0].Text
	assert.Contains(t, text, "새 예약 신청")
	assert.Contains(t, text, "2026-09-01 10:00")
	assert.Contains(t, text, "김하늘")
	assert.Contains(t, text, "자연눈썹")
	assert.Contains(t, text, "010-1234-5678")
}

func TestFormatBookingAlert_RejectedWithReason(t *testing.T) {
	text := formatBookingAlert(events.EventBookingRejected, events.BookingEventPayload{
		Date:         "2026-09-01",
		Time:         "13:00",
		ServiceType:  "retouch",
		CustomerName: "이서준",
		Reason:       "일정 중복",
	})
	assert.Contains(t, text, "예약 거절")
	assert.Contains(t, text, "사유: 일정 중복")
	// Без ServiceName показываем код услуги
	assert.Contains(t, text, "retouch")
}

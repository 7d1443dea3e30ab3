package domain

import (
	"context"
	"time"

	"prebook/internal/models"
)

type Repository interface {
	CreateBooking(ctx context.Context, booking *models.Booking) error
	CreateBookingWithSlotLock(ctx context.Context, booking *models.Booking) error
	GetBooking(ctx context.Context, id string) (*models.Booking, error)
	UpdateBookingStatusWithVersion(ctx context.Context, id string, status models.BookingStatus, version int64) error
	GetBookingsByDate(ctx context.Context, date string, status models.BookingStatus) ([]*models.Booking, error)
	GetBookingsByDateRange(ctx context.Context, from, to string) ([]*models.Booking, error)

	CreateBlock(ctx context.Context, block *models.Block) error
	CreateBlocksBulk(ctx context.Context, blocks []*models.Block) (int, error)
	DeleteBlock(ctx context.Context, id string) error
	GetBlock(ctx context.Context, id string) (*models.Block, error)
	FindBlock(ctx context.Context, date, timeLabel string) (*models.Block, error)
	GetBlocksByDate(ctx context.Context, date string) ([]*models.Block, error)
	GetBlocksByDateRange(ctx context.Context, from, to string) ([]*models.Block, error)
}

// SlotCache кеширует рассчитанную доступность по датам.
type SlotCache interface {
	GetSlots(ctx context.Context, date string) ([]byte, error)
	SetSlots(ctx context.Context, date string, data []byte, ttl time.Duration) error
	InvalidateDate(ctx context.Context, date string) error
}

// Scheduler mirrors a confirmed booking into the operator's external calendar.
type Scheduler interface {
	ScheduleEvent(ctx context.Context, booking *models.Booking) error
}

// ChatSender delivers a text message to the customer's messenger.
type ChatSender interface {
	SendMessage(ctx context.Context, phone, text string) error
}

// OutboundQueue accepts automation work to be executed asynchronously.
type OutboundQueue interface {
	EnqueueCalendarEvent(ctx context.Context, booking *models.Booking) error
	EnqueueChatMessage(ctx context.Context, booking *models.Booking, text string) error
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// Notifier pushes operator-facing alerts out of band.
type Notifier interface {
	NotifyOperator(text string) error
}

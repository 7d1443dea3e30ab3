package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"prebook/internal/availability"
	"prebook/internal/database"
	"prebook/internal/domain"
	"prebook/internal/events"
	"prebook/internal/kakao"
	"prebook/internal/models"
)

// BookingService ведет жизненный цикл заявки: от запроса клиента через
// одобрение оператора до подтверждения с запуском автоматизации.
type BookingService struct {
	repo           domain.Repository
	engine         *availability.Engine
	queue          domain.OutboundQueue
	availabilitySv *AvailabilityService
	eventBus       domain.EventPublisher
	maxAdvanceDays int
	logger         *zerolog.Logger
}

func NewBookingService(repo domain.Repository, engine *availability.Engine, queue domain.OutboundQueue, availabilitySv *AvailabilityService, eventBus domain.EventPublisher, maxAdvanceDays int, logger *zerolog.Logger) *BookingService {
	if maxAdvanceDays <= 0 {
		maxAdvanceDays = models.DefaultMaxAdvanceDays
	}
	return &BookingService{
		repo:           repo,
		engine:         engine,
		queue:          queue,
		availabilitySv: availabilitySv,
		eventBus:       eventBus,
		maxAdvanceDays: maxAdvanceDays,
		logger:         logger,
	}
}

// ValidateBookingDate rejects past dates and dates beyond the advance
// booking horizon.
func (s *BookingService) ValidateBookingDate(date string) error {
	parsed, err := time.Parse(models.DateLayout, date)
	if err != nil {
		return err
	}

	today := time.Now().Truncate(24 * time.Hour)
	if parsed.Before(today.AddDate(0, 0, -1)) {
		return database.ErrPastDate
	}
	if parsed.After(today.AddDate(0, 0, s.maxAdvanceDays)) {
		return database.ErrDateTooFar
	}
	return nil
}

// RequestBooking stores a customer request in pending status. Pending
// requests do not occupy the slot, so no availability check happens here.
func (s *BookingService) RequestBooking(ctx context.Context, booking *models.Booking) error {
	if err := s.ValidateBookingDate(booking.Date); err != nil {
		return err
	}

	booking.Status = models.StatusPending
	if err := s.repo.CreateBooking(ctx, booking); err != nil {
		return err
	}

	s.publishEvent(events.EventBookingRequested, booking, "")
	return nil
}

// AcceptBooking moves a pending request to deposit_wait: the slot is now
// occupied and the customer receives deposit instructions. The whole
// duration span must still be free at this point.
func (s *BookingService) AcceptBooking(ctx context.Context, bookingID string, version int64) error {
	booking, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return err
	}
	if !booking.Status.CanTransitionTo(models.StatusDepositWait) {
		return database.ErrInvalidTransition
	}

	if err := s.checkSlotSpanFree(ctx, booking); err != nil {
		return err
	}

	if err := s.repo.UpdateBookingStatusWithVersion(ctx, bookingID, models.StatusDepositWait, version); err != nil {
		return err
	}
	booking.Status = models.StatusDepositWait

	s.invalidate(ctx, booking.Date)
	s.publishEvent(events.EventBookingAccepted, booking, "")

	if err := s.queue.EnqueueChatMessage(ctx, booking, kakao.DepositGuideMessage()); err != nil {
		s.logger.Error().Err(err).Str("booking_id", bookingID).Msg("failed to enqueue deposit guide message")
	}
	return nil
}

// ConfirmBooking finalizes a deposit_wait booking: the external calendar
// gets the event and the customer gets the confirmation text.
func (s *BookingService) ConfirmBooking(ctx context.Context, bookingID string, version int64) error {
	booking, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return err
	}
	if !booking.Status.CanTransitionTo(models.StatusConfirmed) {
		return database.ErrInvalidTransition
	}

	if err := s.repo.UpdateBookingStatusWithVersion(ctx, bookingID, models.StatusConfirmed, version); err != nil {
		return err
	}
	booking.Status = models.StatusConfirmed

	s.invalidate(ctx, booking.Date)
	s.publishEvent(events.EventBookingConfirmed, booking, "")

	if err := s.queue.EnqueueCalendarEvent(ctx, booking); err != nil {
		s.logger.Error().Err(err).Str("booking_id", bookingID).Msg("failed to enqueue calendar event")
	}
	text := kakao.ConfirmationMessage(booking.CustomerName, booking.Date, booking.Time)
	if err := s.queue.EnqueueChatMessage(ctx, booking, text); err != nil {
		s.logger.Error().Err(err).Str("booking_id", bookingID).Msg("failed to enqueue confirmation message")
	}
	return nil
}

// RejectBooking declines a pending or deposit_wait request.
func (s *BookingService) RejectBooking(ctx context.Context, bookingID string, version int64, reason string) error {
	booking, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return err
	}
	if !booking.Status.CanTransitionTo(models.StatusRejected) {
		return database.ErrInvalidTransition
	}

	if err := s.repo.UpdateBookingStatusWithVersion(ctx, bookingID, models.StatusRejected, version); err != nil {
		return err
	}
	booking.Status = models.StatusRejected

	s.invalidate(ctx, booking.Date)
	s.publishEvent(events.EventBookingRejected, booking, reason)
	return nil
}

// CancelBooking cancels a booking in any non-terminal status.
func (s *BookingService) CancelBooking(ctx context.Context, bookingID string, version int64, reason string) error {
	booking, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return err
	}
	if !booking.Status.CanTransitionTo(models.StatusCancelled) {
		return database.ErrInvalidTransition
	}

	if err := s.repo.UpdateBookingStatusWithVersion(ctx, bookingID, models.StatusCancelled, version); err != nil {
		return err
	}
	booking.Status = models.StatusCancelled

	s.invalidate(ctx, booking.Date)
	s.publishEvent(events.EventBookingCancelled, booking, reason)
	return nil
}

// CreateBookingByOperator records a booking made out of band (phone,
// walk-in) in deposit_wait or directly confirmed. Only the start slot is
// checked: the operator sees the calendar and owns the overlap decision.
func (s *BookingService) CreateBookingByOperator(ctx context.Context, booking *models.Booking) error {
	if err := s.ValidateBookingDate(booking.Date); err != nil {
		return err
	}

	if booking.Status == "" {
		booking.Status = models.StatusDepositWait
	}
	if booking.Status != models.StatusDepositWait && booking.Status != models.StatusConfirmed {
		return database.ErrInvalidTransition
	}

	if err := s.repo.CreateBookingWithSlotLock(ctx, booking); err != nil {
		return err
	}

	s.invalidate(ctx, booking.Date)

	if booking.Status == models.StatusConfirmed {
		s.publishEvent(events.EventBookingConfirmed, booking, "")
		if err := s.queue.EnqueueCalendarEvent(ctx, booking); err != nil {
			s.logger.Error().Err(err).Str("booking_id", booking.ID).Msg("failed to enqueue calendar event")
		}
	} else {
		s.publishEvent(events.EventBookingAccepted, booking, "")
	}
	return nil
}

func (s *BookingService) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	return s.repo.GetBooking(ctx, id)
}

// ListBookingsByDate returns bookings for a day, optionally filtered by
// status (empty status means all).
func (s *BookingService) ListBookingsByDate(ctx context.Context, date string, status models.BookingStatus) ([]*models.Booking, error) {
	return s.repo.GetBookingsByDate(ctx, date, status)
}

func (s *BookingService) ListBookingsByDateRange(ctx context.Context, from, to string) ([]*models.Booking, error) {
	return s.repo.GetBookingsByDateRange(ctx, from, to)
}

// checkSlotSpanFree recomputes the day grid without the candidate
// booking and verifies every grid label its duration covers is open.
func (s *BookingService) checkSlotSpanFree(ctx context.Context, booking *models.Booking) error {
	blocks, err := s.repo.GetBlocksByDate(ctx, booking.Date)
	if err != nil {
		return err
	}
	bookings, err := s.repo.GetBookingsByDate(ctx, booking.Date, "")
	if err != nil {
		return err
	}

	others := make([]models.Booking, 0, len(bookings))
	for _, b := range bookings {
		if b.ID != booking.ID {
			others = append(others, *b)
		}
	}

	slots := s.engine.SlotsForDate(booking.Date, deref(blocks), others)
	byTime := make(map[string]bool, len(slots))
	for _, slot := range slots {
		byTime[slot.Time] = slot.Available
	}

	startHour, ok := hourOfLabel(booking.Time)
	if !ok {
		if free, found := byTime[booking.Time]; !found || !free {
			return database.ErrSlotTaken
		}
		return nil
	}

	duration := s.engine.DurationHours(booking.ServiceType)
	for _, slot := range slots {
		hour, ok := hourOfLabel(slot.Time)
		if !ok {
			continue
		}
		if hour >= startHour && hour < startHour+duration && !slot.Available {
			return database.ErrSlotTaken
		}
	}
	return nil
}

func (s *BookingService) invalidate(ctx context.Context, date string) {
	if s.availabilitySv != nil {
		s.availabilitySv.InvalidateDate(ctx, date)
	}
}

func (s *BookingService) publishEvent(eventType string, booking *models.Booking, reason string) {
	err := s.eventBus.PublishJSON(eventType, events.BookingEventPayload{
		BookingID:     booking.ID,
		Date:          booking.Date,
		Time:          booking.Time,
		ServiceType:   booking.ServiceType,
		ServiceName:   s.engine.ServiceName(booking.ServiceType),
		CustomerName:  booking.CustomerName,
		CustomerPhone: booking.CustomerPhone,
		Status:        string(booking.Status),
		Reason:        reason,
	})
	if err != nil {
		s.logger.Error().Err(err).Str("type", eventType).Msg("failed to publish event")
	}
}

func hourOfLabel(label string) (int, bool) {
	head, _, found := strings.Cut(label, ":")
	if !found {
		return 0, false
	}
	hour, err := strconv.Atoi(head)
	if err != nil {
		return 0, false
	}
	return hour, true
}

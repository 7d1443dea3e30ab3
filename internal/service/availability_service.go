package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"prebook/internal/availability"
	"prebook/internal/domain"
	"prebook/internal/metrics"
	"prebook/internal/models"
)

// AvailabilityService отдает календарь доступности: сначала кеш, затем
// расчет по данным из БД. При отказе хранилища отвечает fail-open, чтобы
// клиент мог оставить заявку, а оператор разобрался при одобрении.
type AvailabilityService struct {
	repo   domain.Repository
	cache  domain.SlotCache
	engine *availability.Engine
	ttl    time.Duration
	logger *zerolog.Logger
}

func NewAvailabilityService(repo domain.Repository, cache domain.SlotCache, engine *availability.Engine, cacheTTL time.Duration, logger *zerolog.Logger) *AvailabilityService {
	if cacheTTL <= 0 {
		cacheTTL = time.Duration(models.DefaultSlotCacheTTL) * time.Second
	}
	return &AvailabilityService{
		repo:   repo,
		cache:  cache,
		engine: engine,
		ttl:    cacheTTL,
		logger: logger,
	}
}

// SlotsForDate returns the day grid with availability verdicts. The
// degraded flag is set when storage failed and the response is the
// fail-open fallback; fallbacks are never cached.
func (s *AvailabilityService) SlotsForDate(ctx context.Context, date string) ([]availability.Slot, bool, error) {
	if _, err := time.Parse(models.DateLayout, date); err != nil {
		return nil, false, fmt.Errorf("invalid date %q: %w", date, err)
	}

	if s.cache != nil {
		if data, err := s.cache.GetSlots(ctx, date); err == nil && data != nil {
			var slots []availability.Slot
			if err := json.Unmarshal(data, &slots); err == nil {
				return slots, false, nil
			}
			// Битый кеш просто пересчитываем
			s.logger.Warn().Str("date", date).Msg("corrupt slot cache entry, recomputing")
		}
	}

	blocks, err := s.repo.GetBlocksByDate(ctx, date)
	if err != nil {
		return s.failOpen(date, err), true, nil
	}
	bookings, err := s.repo.GetBookingsByDate(ctx, date, "")
	if err != nil {
		return s.failOpen(date, err), true, nil
	}

	slots := s.engine.SlotsForDate(date, deref(blocks), deref(bookings))

	if s.cache != nil {
		if data, err := json.Marshal(slots); err == nil {
			if err := s.cache.SetSlots(ctx, date, data, s.ttl); err != nil {
				s.logger.Warn().Err(err).Str("date", date).Msg("failed to cache slots")
			}
		}
	}

	return slots, false, nil
}

// MonthAvailability flags each day of the month that still has an open
// slot. On storage failure every day is reported available (degraded).
func (s *AvailabilityService) MonthAvailability(ctx context.Context, year, month int) ([]availability.DateAvailability, bool, error) {
	if month < 1 || month > 12 {
		return nil, false, fmt.Errorf("invalid month %d", month)
	}

	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)
	from := first.Format(models.DateLayout)
	to := last.Format(models.DateLayout)

	blocks, err := s.repo.GetBlocksByDateRange(ctx, from, to)
	if err != nil {
		return s.failOpenMonth(year, month, err), true, nil
	}
	bookings, err := s.repo.GetBookingsByDateRange(ctx, from, to)
	if err != nil {
		return s.failOpenMonth(year, month, err), true, nil
	}

	return s.engine.DatesForMonth(year, month, deref(blocks), deref(bookings)), false, nil
}

// InvalidateDate drops the cached grid after a booking or block change.
func (s *AvailabilityService) InvalidateDate(ctx context.Context, date string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateDate(ctx, date); err != nil {
		s.logger.Warn().Err(err).Str("date", date).Msg("failed to invalidate slot cache")
	}
}

func (s *AvailabilityService) failOpen(date string, cause error) []availability.Slot {
	s.logger.Error().Err(cause).Str("date", date).Msg("availability fetch failed, serving fail-open")
	metrics.IncAvailabilityFallback()
	return s.engine.AllOpen(date)
}

func (s *AvailabilityService) failOpenMonth(year, month int, cause error) []availability.DateAvailability {
	s.logger.Error().Err(cause).Int("year", year).Int("month", month).Msg("month availability fetch failed, serving fail-open")
	metrics.IncAvailabilityFallback()

	days := time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
	out := make([]availability.DateAvailability, 0, days)
	for day := 1; day <= days; day++ {
		date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC).Format(models.DateLayout)
		out = append(out, availability.DateAvailability{Date: date, HasAvailableSlot: true})
	}
	return out
}

func deref[T any](in []*T) []T {
	out := make([]T, 0, len(in))
	for _, p := range in {
		if p != nil {
			out = append(out, *p)
		}
	}
	return out
}

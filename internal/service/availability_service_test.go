package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"prebook/internal/availability"
	"prebook/internal/models"
	"prebook/internal/repository"
)

func newAvailabilityService(repo *mockRepo, withCache bool) *AvailabilityService {
	logger := zerolog.Nop()
	var cache *repository.MemorySlotCache
	if withCache {
		cache = repository.NewMemorySlotCache()
	}
	if cache != nil {
		return NewAvailabilityService(repo, cache, testEngine(), time.Minute, &logger)
	}
	return NewAvailabilityService(repo, nil, testEngine(), time.Minute, &logger)
}

func TestSlotsForDate(t *testing.T) {
	repo := &mockRepo{}
	svc := newAvailabilityService(repo, false)

	date := "2026-09-01"
	repo.On("GetBlocksByDate", mock.Anything, date).Return([]*models.Block{
		{Date: date, Time: "14:00"},
	}, nil)
	repo.On("GetBookingsByDate", mock.Anything, date, models.BookingStatus("")).Return([]*models.Booking{
		{Date: date, Time: "10:00", ServiceType: "natural", Status: models.StatusConfirmed},
	}, nil)

	slots, degraded, err := svc.SlotsForDate(context.Background(), date)
	require.NoError(t, err)
	assert.False(t, degraded)
	require.Len(t, slots, len(models.DefaultTimeGrid))

	byTime := make(map[string]bool)
	for _, s := range slots {
		byTime[s.Time] = s.Available
	}
	assert.False(t, byTime["10:00"]) // старт брони
	assert.False(t, byTime["11:00"]) // хвост двухчасовой процедуры
	assert.False(t, byTime["14:00"]) // ручная блокировка
	assert.True(t, byTime["13:00"])
}

func TestSlotsForDate_InvalidDate(t *testing.T) {
	svc := newAvailabilityService(&mockRepo{}, false)

	_, _, err := svc.SlotsForDate(context.Background(), "nope")
	assert.Error(t, err)
}

func TestSlotsForDate_FailOpen(t *testing.T) {
	repo := &mockRepo{}
	svc := newAvailabilityService(repo, false)

	date := "2026-09-01"
	repo.On("GetBlocksByDate", mock.Anything, date).Return(nil, errors.New("db down"))

	slots, degraded, err := svc.SlotsForDate(context.Background(), date)
	require.NoError(t, err)
	assert.True(t, degraded)
	require.Len(t, slots, len(models.DefaultTimeGrid))
	for _, s := range slots {
		assert.True(t, s.Available)
	}
}

func TestSlotsForDate_CacheHit(t *testing.T) {
	repo := &mockRepo{}
	svc := newAvailabilityService(repo, true)

	date := "2026-09-01"
	repo.On("GetBlocksByDate", mock.Anything, date).Return([]*models.Block{}, nil).Once()
	repo.On("GetBookingsByDate", mock.Anything, date, models.BookingStatus("")).Return([]*models.Booking{}, nil).Once()

	first, degraded, err := svc.SlotsForDate(context.Background(), date)
	require.NoError(t, err)
	assert.False(t, degraded)

	// Второй запрос обслуживается из кеша, репозиторий не трогаем
	second, degraded, err := svc.SlotsForDate(context.Background(), date)
	require.NoError(t, err)
	assert.False(t, degraded)
	assert.Equal(t, first, second)
	repo.AssertExpectations(t)
}

func TestSlotsForDate_FallbackNotCached(t *testing.T) {
	repo := &mockRepo{}
	svc := newAvailabilityService(repo, true)

	date := "2026-09-01"
	repo.On("GetBlocksByDate", mock.Anything, date).Return(nil, errors.New("db down")).Once()

	_, degraded, err := svc.SlotsForDate(context.Background(), date)
	require.NoError(t, err)
	require.True(t, degraded)

	// После восстановления хранилища отдаем реальные данные, а не
	// закешированный fail-open
	repo.On("GetBlocksByDate", mock.Anything, date).Return([]*models.Block{{Date: date, Time: "10:00"}}, nil).Once()
	repo.On("GetBookingsByDate", mock.Anything, date, models.BookingStatus("")).Return([]*models.Booking{}, nil).Once()

	slots, degraded, err := svc.SlotsForDate(context.Background(), date)
	require.NoError(t, err)
	assert.False(t, degraded)
	assert.False(t, slotAvailable(slots, "10:00"))
}

func TestInvalidateDate(t *testing.T) {
	repo := &mockRepo{}
	svc := newAvailabilityService(repo, true)

	date := "2026-09-01"
	repo.On("GetBlocksByDate", mock.Anything, date).Return([]*models.Block{}, nil).Twice()
	repo.On("GetBookingsByDate", mock.Anything, date, models.BookingStatus("")).Return([]*models.Booking{}, nil).Twice()

	_, _, err := svc.SlotsForDate(context.Background(), date)
	require.NoError(t, err)

	svc.InvalidateDate(context.Background(), date)

	_, _, err = svc.SlotsForDate(context.Background(), date)
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestMonthAvailability(t *testing.T) {
	repo := &mockRepo{}
	svc := newAvailabilityService(repo, false)

	repo.On("GetBlocksByDateRange", mock.Anything, "2026-09-01", "2026-09-30").Return([]*models.Block{}, nil)
	repo.On("GetBookingsByDateRange", mock.Anything, "2026-09-01", "2026-09-30").Return([]*models.Booking{}, nil)

	days, degraded, err := svc.MonthAvailability(context.Background(), 2026, 9)
	require.NoError(t, err)
	assert.False(t, degraded)
	require.Len(t, days, 30)
	assert.Equal(t, "2026-09-01", days[0].Date)
	for _, d := range days {
		assert.True(t, d.HasAvailableSlot)
	}
}

func TestMonthAvailability_FailOpen(t *testing.T) {
	repo := &mockRepo{}
	svc := newAvailabilityService(repo, false)

	repo.On("GetBlocksByDateRange", mock.Anything, "2026-02-01", "2026-02-28").Return(nil, errors.New("db down"))

	days, degraded, err := svc.MonthAvailability(context.Background(), 2026, 2)
	require.NoError(t, err)
	assert.True(t, degraded)
	require.Len(t, days, 28)
	for _, d := range days {
		assert.True(t, d.HasAvailableSlot)
	}
}

func TestMonthAvailability_InvalidMonth(t *testing.T) {
	svc := newAvailabilityService(&mockRepo{}, false)

	_, _, err := svc.MonthAvailability(context.Background(), 2026, 13)
	assert.Error(t, err)
}

func slotAvailable(slots []availability.Slot, label string) bool {
	for _, s := range slots {
		if s.Time == label {
			return s.Available
		}
	}
	return false
}

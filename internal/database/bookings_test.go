package database

import (
	"context"
	"os"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prebook/internal/models"
)

func setupTestDB(t *testing.T) *DB {
	logger := zerolog.New(os.Stdout)
	db, err := NewDB(":memory:", &logger)
	require.NoError(t, err)
	return db
}

func TestCreateAndGetBooking(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	b := &models.Booking{
		Date:          "2026-09-01",
		Time:          "10:00",
		ServiceType:   "natural",
		CustomerName:  "김하늘",
		CustomerPhone: "010-1234-5678",
	}
	err := db.CreateBooking(ctx, b)
	require.NoError(t, err)
	require.NotEmpty(t, b.ID)
	assert.Equal(t, models.StatusPending, b.Status)
	assert.Equal(t, int64(1), b.Version)

	got, err := db.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, b.Date, got.Date)
	assert.Equal(t, b.Time, got.Time)
	assert.Equal(t, b.CustomerName, got.CustomerName)
	assert.Equal(t, models.StatusPending, got.Status)
}

func TestGetBooking_NotFound(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	_, err := db.GetBooking(context.Background(), "no-such-id")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateBookingWithSlotLock(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	first := &models.Booking{
		Date:        "2026-09-01",
		Time:        "13:00",
		ServiceType: "retouch",
		Status:      models.StatusConfirmed,
	}
	require.NoError(t, db.CreateBookingWithSlotLock(ctx, first))

	// Та же пара дата+время занята активной бронью
	second := &models.Booking{
		Date:        "2026-09-01",
		Time:        "13:00",
		ServiceType: "natural",
		Status:      models.StatusDepositWait,
	}
	err := db.CreateBookingWithSlotLock(ctx, second)
	assert.ErrorIs(t, err, ErrSlotTaken)

	// Другое время того же дня свободно
	second.Time = "14:00"
	assert.NoError(t, db.CreateBookingWithSlotLock(ctx, second))
}

func TestCreateBookingWithSlotLock_BlockedSlot(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	require.NoError(t, db.CreateBlock(ctx, &models.Block{
		Date: "2026-09-02",
		Time: "11:00",
	}))

	b := &models.Booking{
		Date:        "2026-09-02",
		Time:        "11:00",
		ServiceType: "combo",
		Status:      models.StatusDepositWait,
	}
	err := db.CreateBookingWithSlotLock(ctx, b)
	assert.ErrorIs(t, err, ErrSlotTaken)
}

func TestCreateBookingWithSlotLock_PendingDoesNotBlock(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	pending := &models.Booking{
		Date:        "2026-09-03",
		Time:        "15:00",
		ServiceType: "shadow",
	}
	require.NoError(t, db.CreateBooking(ctx, pending))

	b := &models.Booking{
		Date:        "2026-09-03",
		Time:        "15:00",
		ServiceType: "natural",
		Status:      models.StatusConfirmed,
	}
	assert.NoError(t, db.CreateBookingWithSlotLock(ctx, b))
}

func TestUpdateBookingStatusWithVersion(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	b := &models.Booking{
		Date:        "2026-09-05",
		Time:        "10:00",
		ServiceType: "natural",
	}
	require.NoError(t, db.CreateBooking(ctx, b))

	err := db.UpdateBookingStatusWithVersion(ctx, b.ID, models.StatusDepositWait, 1)
	require.NoError(t, err)

	got, err := db.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDepositWait, got.Status)
	assert.Equal(t, int64(2), got.Version)

	// Повторное обновление со старой версией должно упасть
	err = db.UpdateBookingStatusWithVersion(ctx, b.ID, models.StatusConfirmed, 1)
	assert.ErrorIs(t, err, ErrConcurrentModification)

	// С актуальной версией проходит
	err = db.UpdateBookingStatusWithVersion(ctx, b.ID, models.StatusConfirmed, 2)
	assert.NoError(t, err)
}

func TestUpdateBookingStatusWithVersion_NotFound(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	err := db.UpdateBookingStatusWithVersion(context.Background(), "missing", models.StatusConfirmed, 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetBookingsByDate(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	for _, b := range []*models.Booking{
		{Date: "2026-09-10", Time: "10:00", ServiceType: "natural", Status: models.StatusConfirmed},
		{Date: "2026-09-10", Time: "13:00", ServiceType: "retouch", Status: models.StatusPending},
		{Date: "2026-09-11", Time: "10:00", ServiceType: "combo", Status: models.StatusConfirmed},
	} {
		require.NoError(t, db.CreateBooking(ctx, b))
	}

	all, err := db.GetBookingsByDate(ctx, "2026-09-10", "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	confirmed, err := db.GetBookingsByDate(ctx, "2026-09-10", models.StatusConfirmed)
	require.NoError(t, err)
	require.Len(t, confirmed, 1)
	assert.Equal(t, "10:00", confirmed[0].Time)
}

func TestGetBookingsByDateRange(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	for _, b := range []*models.Booking{
		{Date: "2026-09-01", Time: "10:00", ServiceType: "natural"},
		{Date: "2026-09-15", Time: "11:00", ServiceType: "retouch"},
		{Date: "2026-10-01", Time: "10:00", ServiceType: "combo"},
	} {
		require.NoError(t, db.CreateBooking(ctx, b))
	}

	got, err := db.GetBookingsByDateRange(ctx, "2026-09-01", "2026-09-30")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "2026-09-01", got[0].Date)
	assert.Equal(t, "2026-09-15", got[1].Date)
}

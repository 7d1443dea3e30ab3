package service

import (
	"context"

	"github.com/stretchr/testify/mock"

	"prebook/internal/models"
)

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) CreateBooking(ctx context.Context, b *models.Booking) error {
	return m.Called(ctx, b).Error(0)
}
func (m *mockRepo) CreateBookingWithSlotLock(ctx context.Context, b *models.Booking) error {
	return m.Called(ctx, b).Error(0)
}
func (m *mockRepo) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}
func (m *mockRepo) UpdateBookingStatusWithVersion(ctx context.Context, id string, status models.BookingStatus, version int64) error {
	return m.Called(ctx, id, status, version).Error(0)
}
func (m *mockRepo) GetBookingsByDate(ctx context.Context, date string, status models.BookingStatus) ([]*models.Booking, error) {
	args := m.Called(ctx, date, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Booking), args.Error(1)
}
func (m *mockRepo) GetBookingsByDateRange(ctx context.Context, from, to string) ([]*models.Booking, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Booking), args.Error(1)
}
func (m *mockRepo) CreateBlock(ctx context.Context, b *models.Block) error {
	return m.Called(ctx, b).Error(0)
}
func (m *mockRepo) CreateBlocksBulk(ctx context.Context, blocks []*models.Block) (int, error) {
	args := m.Called(ctx, blocks)
	return args.Int(0), args.Error(1)
}
func (m *mockRepo) DeleteBlock(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}
func (m *mockRepo) GetBlock(ctx context.Context, id string) (*models.Block, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Block), args.Error(1)
}
func (m *mockRepo) FindBlock(ctx context.Context, date, timeLabel string) (*models.Block, error) {
	args := m.Called(ctx, date, timeLabel)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Block), args.Error(1)
}
func (m *mockRepo) GetBlocksByDate(ctx context.Context, date string) ([]*models.Block, error) {
	args := m.Called(ctx, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Block), args.Error(1)
}
func (m *mockRepo) GetBlocksByDateRange(ctx context.Context, from, to string) ([]*models.Block, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Block), args.Error(1)
}

type mockQueue struct {
	mock.Mock
}

func (m *mockQueue) EnqueueCalendarEvent(ctx context.Context, b *models.Booking) error {
	return m.Called(ctx, b).Error(0)
}
func (m *mockQueue) EnqueueChatMessage(ctx context.Context, b *models.Booking, text string) error {
	return m.Called(ctx, b, text).Error(0)
}

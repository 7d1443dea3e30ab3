package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"prebook/internal/database"
	"prebook/internal/domain"
	"prebook/internal/events"
	"prebook/internal/models"
)

// BlockService управляет ручными блокировками слотов оператором.
type BlockService struct {
	repo           domain.Repository
	availabilitySv *AvailabilityService
	eventBus       domain.EventPublisher
	logger         *zerolog.Logger
}

func NewBlockService(repo domain.Repository, availabilitySv *AvailabilityService, eventBus domain.EventPublisher, logger *zerolog.Logger) *BlockService {
	return &BlockService{
		repo:           repo,
		availabilitySv: availabilitySv,
		eventBus:       eventBus,
		logger:         logger,
	}
}

// ToggleBlock flips the block state of a single slot: blocked slots get
// released, open slots get blocked. Returns the resulting blocked state.
func (s *BlockService) ToggleBlock(ctx context.Context, date, timeLabel, reason string) (bool, error) {
	existing, err := s.repo.FindBlock(ctx, date, timeLabel)
	switch {
	case err == nil:
		if err := s.repo.DeleteBlock(ctx, existing.ID); err != nil {
			return true, err
		}
		s.afterChange(ctx, date, timeLabel, false, "")
		return false, nil
	case errors.Is(err, database.ErrNotFound):
		block := &models.Block{Date: date, Time: timeLabel, Reason: reason}
		if err := s.repo.CreateBlock(ctx, block); err != nil {
			return false, err
		}
		s.afterChange(ctx, date, timeLabel, true, reason)
		return true, nil
	default:
		return false, err
	}
}

// CreateBlocksBulk blocks every date×time combination in the inclusive
// date range. Existing blocks are skipped; returns how many were created.
func (s *BlockService) CreateBlocksBulk(ctx context.Context, fromDate, toDate string, times []string, reason string) (int, error) {
	from, err := time.Parse(models.DateLayout, fromDate)
	if err != nil {
		return 0, err
	}
	to, err := time.Parse(models.DateLayout, toDate)
	if err != nil {
		return 0, err
	}
	if to.Before(from) {
		return 0, errors.New("to date is before from date")
	}

	var blocks []*models.Block
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		date := d.Format(models.DateLayout)
		for _, label := range times {
			blocks = append(blocks, &models.Block{Date: date, Time: label, Reason: reason})
		}
	}

	created, err := s.repo.CreateBlocksBulk(ctx, blocks)
	if err != nil {
		return 0, err
	}

	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		s.invalidate(ctx, d.Format(models.DateLayout))
	}
	return created, nil
}

func (s *BlockService) DeleteBlock(ctx context.Context, id string) error {
	// Дату узнаем до удаления, чтобы сбросить кеш
	block, err := s.repo.GetBlock(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.DeleteBlock(ctx, id); err != nil {
		return err
	}
	s.afterChange(ctx, block.Date, block.Time, false, "")
	return nil
}

func (s *BlockService) ListBlocksByDate(ctx context.Context, date string) ([]*models.Block, error) {
	return s.repo.GetBlocksByDate(ctx, date)
}

func (s *BlockService) ListBlocksByDateRange(ctx context.Context, from, to string) ([]*models.Block, error) {
	return s.repo.GetBlocksByDateRange(ctx, from, to)
}

func (s *BlockService) invalidate(ctx context.Context, date string) {
	if s.availabilitySv != nil {
		s.availabilitySv.InvalidateDate(ctx, date)
	}
}

func (s *BlockService) afterChange(ctx context.Context, date, timeLabel string, blocked bool, reason string) {
	s.invalidate(ctx, date)
	err := s.eventBus.PublishJSON(events.EventBlockChanged, events.BlockEventPayload{
		Date:    date,
		Time:    timeLabel,
		Blocked: blocked,
		Reason:  reason,
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to publish block event")
	}
}

package repository

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"prebook/internal/domain"
)

// FailoverSlotCache ходит в основной кеш (redis), а при его отказе
// прозрачно переключается на резервный in-memory. Раз в минуту пробует
// вернуться на основной.
type FailoverSlotCache struct {
	primary   domain.SlotCache
	fallback  domain.SlotCache
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastCheck time.Time
}

func NewFailoverSlotCache(primary, fallback domain.SlotCache, logger *zerolog.Logger) *FailoverSlotCache {
	return &FailoverSlotCache{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (c *FailoverSlotCache) markDown(err error) {
	c.logger.Error().Err(err).Msg("Primary slot cache failed, falling back to memory")
	c.isDown.Store(true)
	c.lastCheck = time.Now()
}

func (c *FailoverSlotCache) GetSlots(ctx context.Context, date string) ([]byte, error) {
	if !c.isDown.Load() {
		data, err := c.primary.GetSlots(ctx, date)
		if err == nil {
			return data, nil
		}
		c.markDown(err)
	}

	// Пробуем восстановиться через минуту
	if c.isDown.Load() && time.Since(c.lastCheck) > time.Minute {
		data, err := c.primary.GetSlots(ctx, date)
		if err == nil {
			c.isDown.Store(false)
			return data, nil
		}
		c.lastCheck = time.Now()
	}

	return c.fallback.GetSlots(ctx, date)
}

func (c *FailoverSlotCache) SetSlots(ctx context.Context, date string, data []byte, ttl time.Duration) error {
	if !c.isDown.Load() {
		err := c.primary.SetSlots(ctx, date, data, ttl)
		if err == nil {
			return nil
		}
		c.markDown(err)
	}
	return c.fallback.SetSlots(ctx, date, data, ttl)
}

func (c *FailoverSlotCache) InvalidateDate(ctx context.Context, date string) error {
	if !c.isDown.Load() {
		err := c.primary.InvalidateDate(ctx, date)
		if err == nil {
			// Резервный кеш тоже чистим, чтобы не отдать протухшее после failover
			return c.fallback.InvalidateDate(ctx, date)
		}
		c.markDown(err)
	}
	return c.fallback.InvalidateDate(ctx, date)
}

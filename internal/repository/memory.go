package repository

import (
	"context"
	"sync"
	"time"
)

type cacheEntry struct {
	data      []byte
	expiresAt time.Time
}

type MemorySlotCache struct {
	entries sync.Map
}

func NewMemorySlotCache() *MemorySlotCache {
	return &MemorySlotCache{}
}

func (c *MemorySlotCache) GetSlots(ctx context.Context, date string) ([]byte, error) {
	val, ok := c.entries.Load(date)
	if !ok {
		return nil, nil
	}
	entry := val.(*cacheEntry)
	if time.Now().After(entry.expiresAt) {
		c.entries.Delete(date)
		return nil, nil
	}
	return entry.data, nil
}

func (c *MemorySlotCache) SetSlots(ctx context.Context, date string, data []byte, ttl time.Duration) error {
	c.entries.Store(date, &cacheEntry{
		data:      data,
		expiresAt: time.Now().Add(ttl),
	})
	return nil
}

func (c *MemorySlotCache) InvalidateDate(ctx context.Context, date string) error {
	c.entries.Delete(date)
	return nil
}

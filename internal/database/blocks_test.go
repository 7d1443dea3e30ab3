package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prebook/internal/models"
)

func TestCreateAndFindBlock(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	block := &models.Block{
		Date:   "2026-09-20",
		Time:   "14:00",
		Reason: "개인 일정",
	}
	require.NoError(t, db.CreateBlock(ctx, block))
	require.NotEmpty(t, block.ID)
	assert.Equal(t, models.BlockStatusBlocked, block.Status)

	got, err := db.FindBlock(ctx, "2026-09-20", "14:00")
	require.NoError(t, err)
	assert.Equal(t, block.ID, got.ID)
	assert.Equal(t, "개인 일정", got.Reason)

	_, err = db.FindBlock(ctx, "2026-09-20", "15:00")
	assert.ErrorIs(t, err, ErrNotFound)

	byID, err := db.GetBlock(ctx, block.ID)
	require.NoError(t, err)
	assert.Equal(t, "2026-09-20", byID.Date)

	_, err = db.GetBlock(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateBlocksBulk(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	require.NoError(t, db.CreateBlock(ctx, &models.Block{Date: "2026-09-21", Time: "10:00"}))

	blocks := []*models.Block{
		{Date: "2026-09-21", Time: "10:00"}, // уже есть, пропускается
		{Date: "2026-09-21", Time: "11:00"},
		{Date: "2026-09-22", Time: "10:00"},
	}
	created, err := db.CreateBlocksBulk(ctx, blocks)
	require.NoError(t, err)
	assert.Equal(t, 2, created)

	day1, err := db.GetBlocksByDate(ctx, "2026-09-21")
	require.NoError(t, err)
	assert.Len(t, day1, 2)
}

func TestDeleteBlock(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	block := &models.Block{Date: "2026-09-23", Time: "16:00"}
	require.NoError(t, db.CreateBlock(ctx, block))

	require.NoError(t, db.DeleteBlock(ctx, block.ID))

	err := db.DeleteBlock(ctx, block.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetBlocksByDateRange(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	for _, b := range []*models.Block{
		{Date: "2026-09-01", Time: "10:00"},
		{Date: "2026-09-30", Time: "11:00"},
		{Date: "2026-10-01", Time: "10:00"},
	} {
		require.NoError(t, db.CreateBlock(ctx, b))
	}

	got, err := db.GetBlocksByDateRange(ctx, "2026-09-01", "2026-09-30")
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

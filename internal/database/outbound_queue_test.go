package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prebook/internal/models"
)

func TestOutboundQueueLifecycle(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	task := &models.OutboundTask{
		TaskType:  "calendar_event",
		BookingID: "booking-1",
		Payload:   `{"customer_name":"김하늘","date":"2026-09-01","time":"10:00"}`,
	}
	require.NoError(t, db.CreateOutboundTask(ctx, task))
	require.NotZero(t, task.ID)
	assert.Equal(t, "pending", task.Status)

	pending, err := db.GetPendingOutboundTasks(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "calendar_event", pending[0].TaskType)
	assert.Equal(t, "booking-1", pending[0].BookingID)

	// Завершаем задачу, в pending больше ничего нет
	require.NoError(t, db.UpdateOutboundTaskStatus(ctx, task.ID, "completed", "", nil))
	pending, err = db.GetPendingOutboundTasks(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestOutboundQueueRetry(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	task := &models.OutboundTask{
		TaskType:  "chat_message",
		BookingID: "booking-2",
		Payload:   `{"phone":"010-1234-5678"}`,
	}
	require.NoError(t, db.CreateOutboundTask(ctx, task))

	// Повтор в будущем — задача не видна до срока
	future := time.Now().Add(time.Hour)
	require.NoError(t, db.UpdateOutboundTaskStatus(ctx, task.ID, "retry", "kakao api timeout", &future))

	pending, err := db.GetPendingOutboundTasks(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)

	// Повтор в прошлом — задача снова доступна, retry_count вырос
	past := time.Now().Add(-time.Minute)
	require.NoError(t, db.UpdateOutboundTaskStatus(ctx, task.ID, "retry", "kakao api timeout", &past))

	pending, err = db.GetPendingOutboundTasks(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, 2, pending[0].RetryCount)
	require.NotNil(t, pending[0].LastError)
	assert.Equal(t, "kakao api timeout", *pending[0].LastError)
}

func TestGetFailedOutboundTasks(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	task := &models.OutboundTask{
		TaskType:  "calendar_event",
		BookingID: "booking-3",
		Payload:   `{}`,
	}
	require.NoError(t, db.CreateOutboundTask(ctx, task))
	require.NoError(t, db.UpdateOutboundTaskStatus(ctx, task.ID, "failed", "max retries exceeded", nil))

	failed, err := db.GetFailedOutboundTasks(ctx, 10)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, "failed", failed[0].Status)
	require.NotNil(t, failed[0].ProcessedAt)
}

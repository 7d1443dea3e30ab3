package database

import (
	"context"
	"fmt"
	"time"

	"prebook/internal/models"
)

// CreateOutboundTask сохраняет задачу автоматизации в очередь.
func (db *DB) CreateOutboundTask(ctx context.Context, task *models.OutboundTask) error {
	result, err := db.db.ExecContext(ctx, `
        INSERT INTO outbound_queue (task_type, booking_id, payload, status, retry_count, created_at)
        VALUES (?, ?, ?, 'pending', 0, ?)`,
		task.TaskType, task.BookingID, task.Payload, time.Now())
	if err != nil {
		return fmt.Errorf("failed to create outbound task: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get task id: %w", err)
	}
	task.ID = id
	task.Status = "pending"
	return nil
}

// GetPendingOutboundTasks возвращает задачи, готовые к обработке:
// новые и те, у которых подошло время повтора.
func (db *DB) GetPendingOutboundTasks(ctx context.Context, limit int) ([]*models.OutboundTask, error) {
	rows, err := db.db.QueryContext(ctx, `
        SELECT id, task_type, booking_id, payload, status, retry_count,
               last_error, created_at, processed_at, next_retry_at
        FROM outbound_queue
        WHERE status = 'pending'
           OR (status = 'retry' AND next_retry_at <= ?)
        ORDER BY created_at
        LIMIT ?`, time.Now(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query outbound tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*models.OutboundTask
	for rows.Next() {
		var t models.OutboundTask
		err := rows.Scan(&t.ID, &t.TaskType, &t.BookingID, &t.Payload, &t.Status,
			&t.RetryCount, &t.LastError, &t.CreatedAt, &t.ProcessedAt, &t.NextRetryAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan outbound task: %w", err)
		}
		tasks = append(tasks, &t)
	}
	return tasks, rows.Err()
}

// UpdateOutboundTaskStatus переводит задачу в новый статус. Для retry
// увеличивает счетчик попыток и выставляет время следующей попытки.
func (db *DB) UpdateOutboundTaskStatus(ctx context.Context, id int64, status, errMsg string, nextRetryAt *time.Time) error {
	var err error
	switch status {
	case "retry":
		_, err = db.db.ExecContext(ctx, `
            UPDATE outbound_queue
            SET status = ?, retry_count = retry_count + 1, last_error = ?, next_retry_at = ?
            WHERE id = ?`, status, errMsg, nextRetryAt, id)
	case "completed":
		_, err = db.db.ExecContext(ctx, `
            UPDATE outbound_queue
            SET status = ?, processed_at = ?, last_error = NULL
            WHERE id = ?`, status, time.Now(), id)
	default:
		_, err = db.db.ExecContext(ctx, `
            UPDATE outbound_queue
            SET status = ?, processed_at = ?, last_error = ?
            WHERE id = ?`, status, time.Now(), errMsg, id)
	}
	if err != nil {
		return fmt.Errorf("failed to update outbound task: %w", err)
	}
	return nil
}

// GetFailedOutboundTasks возвращает задачи, исчерпавшие попытки.
func (db *DB) GetFailedOutboundTasks(ctx context.Context, limit int) ([]*models.OutboundTask, error) {
	rows, err := db.db.QueryContext(ctx, `
        SELECT id, task_type, booking_id, payload, status, retry_count,
               last_error, created_at, processed_at, next_retry_at
        FROM outbound_queue
        WHERE status = 'failed'
        ORDER BY created_at DESC
        LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query failed tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*models.OutboundTask
	for rows.Next() {
		var t models.OutboundTask
		err := rows.Scan(&t.ID, &t.TaskType, &t.BookingID, &t.Payload, &t.Status,
			&t.RetryCount, &t.LastError, &t.CreatedAt, &t.ProcessedAt, &t.NextRetryAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan outbound task: %w", err)
		}
		tasks = append(tasks, &t)
	}
	return tasks, rows.Err()
}

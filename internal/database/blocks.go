package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"prebook/internal/models"
)

const blockColumns = `id, date, time, reason, status, created_at, updated_at`

func scanBlock(row interface{ Scan(...any) error }) (*models.Block, error) {
	var b models.Block
	err := row.Scan(&b.ID, &b.Date, &b.Time, &b.Reason, &b.Status, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (db *DB) CreateBlock(ctx context.Context, block *models.Block) error {
	if block.ID == "" {
		block.ID = uuid.New().String()
	}
	if block.Status == "" {
		block.Status = models.BlockStatusBlocked
	}
	now := time.Now()
	block.CreatedAt = now
	block.UpdatedAt = now

	_, err := db.db.ExecContext(ctx, `
        INSERT INTO blocked_slots (id, date, time, reason, status, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?)`,
		block.ID, block.Date, block.Time, block.Reason, block.Status,
		block.CreatedAt, block.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create block: %w", err)
	}
	return nil
}

// CreateBlocksBulk вставляет набор блокировок одной транзакцией. Уже
// существующие пары дата+время пропускаются.
func (db *DB) CreateBlocksBulk(ctx context.Context, blocks []*models.Block) (int, error) {
	tx, err := db.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	created := 0
	now := time.Now()
	for _, block := range blocks {
		var count int
		err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM blocked_slots WHERE date = ? AND time = ?`,
			block.Date, block.Time).Scan(&count)
		if err != nil {
			return 0, fmt.Errorf("failed to check block: %w", err)
		}
		if count > 0 {
			continue
		}

		if block.ID == "" {
			block.ID = uuid.New().String()
		}
		if block.Status == "" {
			block.Status = models.BlockStatusBlocked
		}
		block.CreatedAt = now
		block.UpdatedAt = now

		_, err = tx.ExecContext(ctx, `
            INSERT INTO blocked_slots (id, date, time, reason, status, created_at, updated_at)
            VALUES (?, ?, ?, ?, ?, ?, ?)`,
			block.ID, block.Date, block.Time, block.Reason, block.Status,
			block.CreatedAt, block.UpdatedAt)
		if err != nil {
			return 0, fmt.Errorf("failed to create block: %w", err)
		}
		created++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit: %w", err)
	}
	return created, nil
}

func (db *DB) DeleteBlock(ctx context.Context, id string) error {
	result, err := db.db.ExecContext(ctx, `DELETE FROM blocked_slots WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete block: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *DB) GetBlock(ctx context.Context, id string) (*models.Block, error) {
	row := db.db.QueryRowContext(ctx,
		`SELECT `+blockColumns+` FROM blocked_slots WHERE id = ?`, id)
	b, err := scanBlock(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get block: %w", err)
	}
	return b, nil
}

// FindBlock ищет блокировку по паре дата+время.
func (db *DB) FindBlock(ctx context.Context, date, timeLabel string) (*models.Block, error) {
	row := db.db.QueryRowContext(ctx,
		`SELECT `+blockColumns+` FROM blocked_slots WHERE date = ? AND time = ?`,
		date, timeLabel)
	b, err := scanBlock(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find block: %w", err)
	}
	return b, nil
}

func (db *DB) GetBlocksByDate(ctx context.Context, date string) ([]*models.Block, error) {
	rows, err := db.db.QueryContext(ctx,
		`SELECT `+blockColumns+` FROM blocked_slots WHERE date = ? ORDER BY time`, date)
	if err != nil {
		return nil, fmt.Errorf("failed to query blocks: %w", err)
	}
	defer rows.Close()

	var blocks []*models.Block
	for rows.Next() {
		b, err := scanBlock(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan block: %w", err)
		}
		blocks = append(blocks, b)
	}
	return blocks, rows.Err()
}

func (db *DB) GetBlocksByDateRange(ctx context.Context, from, to string) ([]*models.Block, error) {
	rows, err := db.db.QueryContext(ctx, `
        SELECT `+blockColumns+` FROM blocked_slots
        WHERE date >= ? AND date <= ?
        ORDER BY date, time`, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query blocks: %w", err)
	}
	defer rows.Close()

	var blocks []*models.Block
	for rows.Next() {
		b, err := scanBlock(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan block: %w", err)
		}
		blocks = append(blocks, b)
	}
	return blocks, rows.Err()
}

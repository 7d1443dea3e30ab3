package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"prebook/internal/models"
)

const bookingColumns = `id, date, time, service_type, customer_name, customer_phone,
       status, notes, created_at, updated_at, version`

func scanBooking(row interface{ Scan(...any) error }) (*models.Booking, error) {
	var b models.Booking
	var status string
	err := row.Scan(&b.ID, &b.Date, &b.Time, &b.ServiceType, &b.CustomerName,
		&b.CustomerPhone, &status, &b.Notes, &b.CreatedAt, &b.UpdatedAt, &b.Version)
	if err != nil {
		return nil, err
	}
	b.Status = models.BookingStatus(status)
	return &b, nil
}

// CreateBooking сохраняет новую заявку без проверки занятости слота.
// Заявки в статусе pending не занимают слот.
func (db *DB) CreateBooking(ctx context.Context, b *models.Booking) error {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	if b.Status == "" {
		b.Status = models.StatusPending
	}
	now := time.Now()
	b.CreatedAt = now
	b.UpdatedAt = now
	b.Version = 1

	_, err := db.db.ExecContext(ctx, `
        INSERT INTO bookings (id, date, time, service_type, customer_name,
            customer_phone, status, notes, created_at, updated_at, version)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.Date, b.Time, b.ServiceType, b.CustomerName,
		b.CustomerPhone, string(b.Status), b.Notes, b.CreatedAt, b.UpdatedAt, b.Version)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}
	return nil
}

// CreateBookingWithSlotLock создает бронь в активном статусе, атомарно
// проверяя внутри транзакции, что ровно этот слот не занят другой
// активной бронью или блокировкой. Перекрытия по длительности здесь не
// проверяются, это ответственность вызывающего.
func (db *DB) CreateBookingWithSlotLock(ctx context.Context, b *models.Booking) error {
	tx, err := db.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var count int
	err = tx.QueryRowContext(ctx, `
        SELECT COUNT(*) FROM bookings
        WHERE date = ? AND time = ? AND status IN (?, ?)`,
		b.Date, b.Time, string(models.StatusDepositWait), string(models.StatusConfirmed)).Scan(&count)
	if err != nil {
		return fmt.Errorf("failed to check slot: %w", err)
	}
	if count > 0 {
		return ErrSlotTaken
	}

	err = tx.QueryRowContext(ctx, `
        SELECT COUNT(*) FROM blocked_slots WHERE date = ? AND time = ?`,
		b.Date, b.Time).Scan(&count)
	if err != nil {
		return fmt.Errorf("failed to check blocked slots: %w", err)
	}
	if count > 0 {
		return ErrSlotTaken
	}

	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	now := time.Now()
	b.CreatedAt = now
	b.UpdatedAt = now
	b.Version = 1

	_, err = tx.ExecContext(ctx, `
        INSERT INTO bookings (id, date, time, service_type, customer_name,
            customer_phone, status, notes, created_at, updated_at, version)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.Date, b.Time, b.ServiceType, b.CustomerName,
		b.CustomerPhone, string(b.Status), b.Notes, b.CreatedAt, b.UpdatedAt, b.Version)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}

	return tx.Commit()
}

func (db *DB) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	row := db.db.QueryRowContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id)
	b, err := scanBooking(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return b, nil
}

// UpdateBookingStatusWithVersion меняет статус брони с оптимистичной
// блокировкой по version. Возвращает ErrConcurrentModification, если
// запись была изменена с момента чтения.
func (db *DB) UpdateBookingStatusWithVersion(ctx context.Context, id string, status models.BookingStatus, version int64) error {
	result, err := db.db.ExecContext(ctx, `
        UPDATE bookings
        SET status = ?, updated_at = ?, version = version + 1
        WHERE id = ? AND version = ?`,
		string(status), time.Now(), id, version)
	if err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		var exists int
		if err := db.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM bookings WHERE id = ?`, id).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check booking existence: %w", err)
		}
		if exists == 0 {
			return ErrNotFound
		}
		return ErrConcurrentModification
	}
	return nil
}

// GetBookingsByDate возвращает брони на дату. Пустой status означает
// все статусы.
func (db *DB) GetBookingsByDate(ctx context.Context, date string, status models.BookingStatus) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE date = ?`
	args := []any{date}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY time, created_at`

	rows, err := db.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings: %w", err)
	}
	defer rows.Close()

	var bookings []*models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

// GetBookingsByDateRange возвращает брони в диапазоне дат включительно.
func (db *DB) GetBookingsByDateRange(ctx context.Context, from, to string) ([]*models.Booking, error) {
	rows, err := db.db.QueryContext(ctx, `
        SELECT `+bookingColumns+` FROM bookings
        WHERE date >= ? AND date <= ?
        ORDER BY date, time`, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings: %w", err)
	}
	defer rows.Close()

	var bookings []*models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

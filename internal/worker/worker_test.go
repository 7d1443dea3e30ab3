package worker

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"prebook/internal/database"
	"prebook/internal/models"
)

type fakeScheduler struct {
	calls int
	err   error
	last  *models.Booking
}

func (f *fakeScheduler) ScheduleEvent(_ context.Context, b *models.Booking) error {
	f.calls++
	f.last = b
	return f.err
}

type fakeChat struct {
	calls int
	err   error
	phone string
	text  string
}

func (f *fakeChat) SendMessage(_ context.Context, phone, text string) error {
	f.calls++
	f.phone = phone
	f.text = text
	return f.err
}

func newTestDB(t *testing.T) (*database.DB, string) {
	path := filepath.Join(t.TempDir(), "worker.db")
	logger := zerolog.Nop()
	db, err := database.NewDB(path, &logger)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, path
}

func loadTaskStatus(t *testing.T, path string, id int64) (string, int, sql.NullTime) {
	raw, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("open raw db: %v", err)
	}
	defer raw.Close()

	var status string
	var retryCount int
	var nextRetry sql.NullTime
	err = raw.QueryRow(
		`SELECT status, retry_count, next_retry_at FROM outbound_queue WHERE id = ?`, id,
	).Scan(&status, &retryCount, &nextRetry)
	if err != nil {
		t.Fatalf("load task: %v", err)
	}
	return status, retryCount, nextRetry
}

func testBooking() *models.Booking {
	return &models.Booking{
		ID:            "booking-1",
		Date:          "2026-09-01",
		Time:          "10:00",
		ServiceType:   "natural",
		CustomerName:  "김하늘",
		CustomerPhone: "010-1234-5678",
		Status:        models.StatusConfirmed,
	}
}

func TestProcessCalendarTaskSuccess(t *testing.T) {
	db, path := newTestDB(t)
	scheduler := &fakeScheduler{}
	w := NewOutboundWorker(db, scheduler, &fakeChat{}, nil, RetryPolicy{}, nil)

	ctx := context.Background()
	if err := w.EnqueueCalendarEvent(ctx, testBooking()); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	task, ok := w.tryLocalQueue()
	if !ok {
		t.Fatalf("expected task in local queue")
	}
	w.processTask(ctx, &task)

	status, retryCount, nextRetry := loadTaskStatus(t, path, task.ID)
	if status != "completed" {
		t.Fatalf("expected status=completed, got %s", status)
	}
	if retryCount != 0 {
		t.Fatalf("expected retry_count=0, got %d", retryCount)
	}
	if nextRetry.Valid {
		t.Fatalf("expected next_retry_at NULL on success")
	}
	if scheduler.calls != 1 {
		t.Fatalf("expected one scheduler call, got %d", scheduler.calls)
	}
	if scheduler.last.CustomerName != "김하늘" {
		t.Fatalf("booking snapshot lost in payload: %+v", scheduler.last)
	}
}

func TestProcessChatTaskSuccess(t *testing.T) {
	db, _ := newTestDB(t)
	chat := &fakeChat{}
	w := NewOutboundWorker(db, &fakeScheduler{}, chat, nil, RetryPolicy{}, nil)

	ctx := context.Background()
	if err := w.EnqueueChatMessage(ctx, testBooking(), "예약이 확정되었습니다."); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	task, _ := w.tryLocalQueue()
	w.processTask(ctx, &task)

	if chat.calls != 1 {
		t.Fatalf("expected one chat call, got %d", chat.calls)
	}
	if chat.phone != "010-1234-5678" {
		t.Fatalf("expected customer phone, got %s", chat.phone)
	}
	if chat.text != "예약이 확정되었습니다." {
		t.Fatalf("unexpected text: %s", chat.text)
	}
}

func TestProcessTaskRetry(t *testing.T) {
	db, path := newTestDB(t)
	scheduler := &fakeScheduler{err: errors.New("calendar api unavailable")}
	w := NewOutboundWorker(db, scheduler, &fakeChat{}, nil, RetryPolicy{MaxRetries: 3, InitialDelay: time.Second}, nil)

	ctx := context.Background()
	if err := w.EnqueueCalendarEvent(ctx, testBooking()); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	task, _ := w.tryLocalQueue()
	w.processTask(ctx, &task)

	status, retryCount, nextRetry := loadTaskStatus(t, path, task.ID)
	if status != "retry" {
		t.Fatalf("expected status=retry, got %s", status)
	}
	if retryCount != 1 {
		t.Fatalf("expected retry_count=1, got %d", retryCount)
	}
	if !nextRetry.Valid || nextRetry.Time.Before(time.Now()) {
		t.Fatalf("expected next_retry_at in future, got %v", nextRetry)
	}
}

func TestProcessTaskFail(t *testing.T) {
	db, path := newTestDB(t)
	scheduler := &fakeScheduler{err: errors.New("fatal")}
	w := NewOutboundWorker(db, scheduler, &fakeChat{}, nil, RetryPolicy{MaxRetries: 1}, nil)

	ctx := context.Background()
	w.EnqueueCalendarEvent(ctx, testBooking())
	task, _ := w.tryLocalQueue()
	w.processTask(ctx, &task)

	status, _, _ := loadTaskStatus(t, path, task.ID)
	if status != "failed" {
		t.Fatalf("expected status=failed, got %s", status)
	}
}

type fakeNotifier struct {
	calls int
	text  string
}

func (f *fakeNotifier) NotifyOperator(text string) error {
	f.calls++
	f.text = text
	return nil
}

func TestFailedTaskAlertsOperator(t *testing.T) {
	db, _ := newTestDB(t)
	scheduler := &fakeScheduler{err: errors.New("fatal")}
	w := NewOutboundWorker(db, scheduler, &fakeChat{}, nil, RetryPolicy{MaxRetries: 1}, nil)
	notifier := &fakeNotifier{}
	w.SetNotifier(notifier)

	ctx := context.Background()
	w.EnqueueCalendarEvent(ctx, testBooking())
	task, _ := w.tryLocalQueue()
	w.processTask(ctx, &task)

	if notifier.calls != 1 {
		t.Fatalf("expected 1 operator alert, got %d", notifier.calls)
	}
	if notifier.text == "" {
		t.Fatalf("expected alert text")
	}
}

func TestEnqueueValidation(t *testing.T) {
	db, _ := newTestDB(t)
	w := NewOutboundWorker(db, &fakeScheduler{}, &fakeChat{}, nil, RetryPolicy{}, nil)

	ctx := context.Background()
	if err := w.EnqueueCalendarEvent(ctx, nil); err == nil {
		t.Fatalf("expected error for nil booking")
	}
	if err := w.EnqueueCalendarEvent(ctx, &models.Booking{}); err == nil {
		t.Fatalf("expected error for missing booking id")
	}
	if err := w.EnqueueChatMessage(ctx, testBooking(), ""); err == nil {
		t.Fatalf("expected error for empty message")
	}
}

func TestRetryPolicyNextDelay(t *testing.T) {
	p := RetryPolicy{InitialDelay: time.Second, BackoffFactor: 2, MaxDelay: 5 * time.Second}

	if d := p.NextDelay(1); d != time.Second {
		t.Fatalf("attempt 1: expected 1s, got %v", d)
	}
	if d := p.NextDelay(2); d != 2*time.Second {
		t.Fatalf("attempt 2: expected 2s, got %v", d)
	}
	if d := p.NextDelay(10); d != 5*time.Second {
		t.Fatalf("attempt 10: expected clamp to 5s, got %v", d)
	}
	if d := p.NextDelay(0); d != time.Second {
		t.Fatalf("attempt 0: expected 1s, got %v", d)
	}
}

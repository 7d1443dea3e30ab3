package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"prebook/internal/database"
	"prebook/internal/domain"
	"prebook/internal/metrics"
	"prebook/internal/models"
)

const (
	TaskCalendarEvent = "calendar_event"
	TaskChatMessage   = "chat_message"
)

// taskPayload is persisted in OutboundTask.Payload as JSON.
type taskPayload struct {
	Booking *models.Booking `json:"booking,omitempty"`
	Message string          `json:"message,omitempty"`
}

// OutboundWorker consumes outbound_queue tasks and applies them to the
// operator's calendar and the customer's messenger. Tasks are persisted
// in the DB first, then scheduled via redis or the in-memory queue; the
// DB poll picks up anything the fast paths dropped.
type OutboundWorker struct {
	db            *database.DB
	scheduler     domain.Scheduler
	chat          domain.ChatSender
	redis         *redis.Client
	notifier      domain.Notifier
	retryPolicy   RetryPolicy
	queue         chan models.OutboundTask
	redisQueueKey string
	deadLetterKey string
	pollInterval  time.Duration
	batchSize     int
	logger        zerolog.Logger
}

// NewOutboundWorker builds a worker with sane defaults.
func NewOutboundWorker(db *database.DB, scheduler domain.Scheduler, chat domain.ChatSender, redisClient *redis.Client, retry RetryPolicy, logger *zerolog.Logger) *OutboundWorker {
	if retry.MaxRetries == 0 {
		retry.MaxRetries = 5
	}
	if retry.InitialDelay == 0 {
		retry.InitialDelay = 2 * time.Second
	}
	if retry.MaxDelay == 0 {
		retry.MaxDelay = 1 * time.Minute
	}
	if retry.BackoffFactor == 0 {
		retry.BackoffFactor = 2
	}

	log := zerolog.Nop()
	if logger != nil {
		log = logger.With().Str("component", "outbound_worker").Logger()
	}

	return &OutboundWorker{
		db:            db,
		scheduler:     scheduler,
		chat:          chat,
		redis:         redisClient,
		retryPolicy:   retry,
		queue:         make(chan models.OutboundTask, models.WorkerQueueSize),
		redisQueueKey: "outbound:queue",
		deadLetterKey: "outbound:deadletter",
		pollInterval:  2 * time.Second,
		batchSize:     20,
		logger:        log,
	}
}

// SetNotifier wires the operator alert channel for dead-lettered tasks.
func (w *OutboundWorker) SetNotifier(notifier domain.Notifier) {
	w.notifier = notifier
}

// EnqueueCalendarEvent schedules mirroring a confirmed booking into the
// external calendar.
func (w *OutboundWorker) EnqueueCalendarEvent(ctx context.Context, booking *models.Booking) error {
	return w.enqueue(ctx, TaskCalendarEvent, booking, "")
}

// EnqueueChatMessage schedules delivery of a messenger text to the
// booking's customer.
func (w *OutboundWorker) EnqueueChatMessage(ctx context.Context, booking *models.Booking, text string) error {
	if text == "" {
		return errors.New("message text is required")
	}
	return w.enqueue(ctx, TaskChatMessage, booking, text)
}

func (w *OutboundWorker) enqueue(ctx context.Context, taskType string, booking *models.Booking, message string) error {
	if booking == nil || booking.ID == "" {
		return errors.New("booking id is required")
	}

	payloadBytes, err := json.Marshal(taskPayload{Booking: booking, Message: message})
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	task := models.OutboundTask{
		TaskType:  taskType,
		BookingID: booking.ID,
		Payload:   string(payloadBytes),
	}

	if err := w.db.CreateOutboundTask(ctx, &task); err != nil {
		return fmt.Errorf("persist outbound task: %w", err)
	}

	// Try redis first for durability.
	if w.redis != nil {
		if err := w.pushRedis(ctx, task); err != nil {
			w.logger.Warn().Err(err).Msg("redis push failed, fallback to memory queue")
		} else {
			return nil
		}
	}

	// Fallback to in-memory queue if redis missing or failed.
	select {
	case w.queue <- task:
	default:
		w.logger.Warn().Int64("task_id", task.ID).Msg("in-memory queue full, task dropped to polling")
	}

	return nil
}

// Start launches main loop; stops when ctx is done.
func (w *OutboundWorker) Start(ctx context.Context) {
	w.logger.Info().Msg("outbound worker started")
	defer w.logger.Info().Msg("outbound worker stopped")

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if t, ok := w.tryLocalQueue(); ok {
			w.processTask(ctx, &t)
			continue
		}

		if t, ok := w.tryRedis(ctx); ok {
			w.processTask(ctx, &t)
			continue
		}

		tasks, err := w.db.GetPendingOutboundTasks(ctx, w.batchSize)
		if err != nil {
			w.logger.Error().Err(err).Msg("fetch pending tasks")
			time.Sleep(w.pollInterval)
			continue
		}
		if len(tasks) == 0 {
			time.Sleep(w.pollInterval)
			continue
		}

		for _, t := range tasks {
			w.processTask(ctx, t)
		}
	}
}

func (w *OutboundWorker) tryLocalQueue() (models.OutboundTask, bool) {
	select {
	case t := <-w.queue:
		return t, true
	default:
		return models.OutboundTask{}, false
	}
}

func (w *OutboundWorker) tryRedis(ctx context.Context) (models.OutboundTask, bool) {
	if w.redis == nil {
		return models.OutboundTask{}, false
	}
	res, err := w.redis.BRPop(ctx, time.Second, w.redisQueueKey).Result()
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, redis.Nil) {
			return models.OutboundTask{}, false
		}
		w.logger.Error().Err(err).Msg("redis BRPOP error")
		return models.OutboundTask{}, false
	}
	if len(res) != 2 {
		return models.OutboundTask{}, false
	}
	var task models.OutboundTask
	if err := json.Unmarshal([]byte(res[1]), &task); err != nil {
		w.logger.Error().Err(err).Msg("decode redis task")
		return models.OutboundTask{}, false
	}
	return task, true
}

func (w *OutboundWorker) processTask(ctx context.Context, task *models.OutboundTask) {
	var payload taskPayload
	if err := json.Unmarshal([]byte(task.Payload), &payload); err != nil {
		w.failTask(ctx, task, fmt.Errorf("decode payload: %w", err))
		return
	}

	if err := w.handleTask(ctx, task.TaskType, payload); err != nil {
		w.retryOrFail(ctx, task, err)
		return
	}

	metrics.IncOutboundTask(task.TaskType, "completed")
	if err := w.db.UpdateOutboundTaskStatus(ctx, task.ID, "completed", "", nil); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("mark completed")
	}
}

func (w *OutboundWorker) handleTask(ctx context.Context, taskType string, payload taskPayload) error {
	if payload.Booking == nil {
		return errors.New("booking payload missing")
	}
	switch taskType {
	case TaskCalendarEvent:
		if w.scheduler == nil {
			return errors.New("scheduler is not configured")
		}
		return w.scheduler.ScheduleEvent(ctx, payload.Booking)
	case TaskChatMessage:
		if w.chat == nil {
			return errors.New("chat sender is not configured")
		}
		if payload.Message == "" {
			return errors.New("message text missing")
		}
		return w.chat.SendMessage(ctx, payload.Booking.CustomerPhone, payload.Message)
	default:
		return fmt.Errorf("unknown task type: %s", taskType)
	}
}

func (w *OutboundWorker) retryOrFail(ctx context.Context, task *models.OutboundTask, cause error) {
	attempt := task.RetryCount + 1
	if attempt >= w.retryPolicy.MaxRetries {
		metrics.IncOutboundTask(task.TaskType, "failed")
		if err := w.db.UpdateOutboundTaskStatus(ctx, task.ID, "failed", cause.Error(), nil); err != nil {
			w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("mark failed")
		}
		w.pushDeadLetter(ctx, task)
		return
	}

	metrics.IncOutboundTask(task.TaskType, "retry")
	nextTime := time.Now().Add(w.retryPolicy.NextDelay(attempt))
	if err := w.db.UpdateOutboundTaskStatus(ctx, task.ID, "retry", cause.Error(), &nextTime); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("mark retry")
	}
}

func (w *OutboundWorker) failTask(ctx context.Context, task *models.OutboundTask, cause error) {
	metrics.IncOutboundTask(task.TaskType, "failed")
	if err := w.db.UpdateOutboundTaskStatus(ctx, task.ID, "failed", cause.Error(), nil); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("mark failed")
	}
	w.pushDeadLetter(ctx, task)
}

func (w *OutboundWorker) pushRedis(ctx context.Context, task models.OutboundTask) error {
	if w.redis == nil {
		return errors.New("redis client is nil")
	}
	data, err := json.Marshal(task)
	if err != nil {
		return err
	}
	return w.redis.LPush(ctx, w.redisQueueKey, data).Err()
}

func (w *OutboundWorker) pushDeadLetter(ctx context.Context, task *models.OutboundTask) {
	w.alertOperator(task)

	if w.redis == nil {
		return
	}
	data, err := json.Marshal(task)
	if err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("encode deadletter")
		return
	}
	if err := w.redis.LPush(ctx, w.deadLetterKey, data).Err(); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("deadletter push")
	}
}

func (w *OutboundWorker) alertOperator(task *models.OutboundTask) {
	if w.notifier == nil {
		return
	}
	text := fmt.Sprintf("⚠️ 자동화 작업 실패\n%s · 예약 %s\n재시도 %d회 후 중단", task.TaskType, task.BookingID, task.RetryCount)
	if err := w.notifier.NotifyOperator(text); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("operator alert")
	}
}

package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"maitred/internal/database"
	"maitred/internal/domain"
	"maitred/internal/metrics"
	"maitred/internal/models"

	"github.com/redis/go-redis/v9"
)

const (
	TaskUpsert       = "upsert"
	TaskUpdateStatus = "update_status"
	TaskNotify       = "notify"
	TaskSyncSchedule = "sync_schedule"
)

// outboundPayload is persisted in SyncTask.Payload as JSON. Only the fields
// relevant to the task type are set.
type outboundPayload struct {
	BookingID    int64           `json:"booking_id,omitempty"`
	Booking      *models.Booking `json:"booking,omitempty"`
	Status       string          `json:"status,omitempty"`
	RestaurantID int64           `json:"restaurant_id,omitempty"`
	EventType    string          `json:"event_type,omitempty"`
	Message      string          `json:"message,omitempty"`
	StartDate    time.Time       `json:"start_date,omitempty"`
	EndDate      time.Time       `json:"end_date,omitempty"`
}

// OutboundWorker consumes sync_queue tasks and delivers them: booking rows to
// the Sheets mirror, alerts to staff Telegram chats. Tasks survive restarts
// in the DB; Redis is the fast path, the in-memory channel the fallback, and
// DB polling the safety net.
type OutboundWorker struct {
	db            *database.DB
	sheets        domain.SheetsWriter
	notifier      domain.Notifier
	redis         *redis.Client
	retryPolicy   RetryPolicy
	queue         chan models.SyncTask
	redisQueueKey string
	deadLetterKey string
	pollInterval  time.Duration
	batchSize     int
	logger        *log.Logger
}

// NewOutboundWorker builds a worker with sane defaults. sheets and notifier
// may be nil; their tasks then fail and retry until configured.
func NewOutboundWorker(db *database.DB, sheets domain.SheetsWriter, notifier domain.Notifier, redisClient *redis.Client, retry RetryPolicy, logger *log.Logger) *OutboundWorker {
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
	if logger == nil {
		logger = log.Default()
	}

	return &OutboundWorker{
		db:            db,
		sheets:        sheets,
		notifier:      notifier,
		redis:         redisClient,
		retryPolicy:   retry,
		queue:         make(chan models.SyncTask, models.WorkerQueueSize),
		redisQueueKey: "outbound:queue",
		deadLetterKey: "outbound:deadletter",
		pollInterval:  2 * time.Second,
		batchSize:     20,
		logger:        logger,
	}
}

// EnqueueTask persists a Sheets mirror task and schedules it.
func (w *OutboundWorker) EnqueueTask(ctx context.Context, taskType string, bookingID int64, booking *models.Booking, status string) error {
	if taskType == "" {
		return errors.New("task type is required")
	}
	if bookingID == 0 && booking != nil {
		bookingID = booking.ID
	}
	if bookingID == 0 {
		return errors.New("booking id is required")
	}

	return w.enqueue(ctx, taskType, bookingID, outboundPayload{
		BookingID: bookingID,
		Booking:   booking,
		Status:    status,
	})
}

// EnqueueNotify persists a staff alert task.
func (w *OutboundWorker) EnqueueNotify(ctx context.Context, restaurantID int64, eventType, message string) error {
	if eventType == "" || message == "" {
		return errors.New("event type and message are required")
	}
	return w.enqueue(ctx, TaskNotify, 0, outboundPayload{
		RestaurantID: restaurantID,
		EventType:    eventType,
		Message:      message,
	})
}

// EnqueueSyncSchedule persists a full schedule sheet rebuild for a range.
func (w *OutboundWorker) EnqueueSyncSchedule(ctx context.Context, restaurantID int64, startDate, endDate time.Time) error {
	if startDate.IsZero() {
		startDate = time.Now().UTC()
	}
	if endDate.IsZero() {
		endDate = startDate.AddDate(0, 0, 14)
	}
	return w.enqueue(ctx, TaskSyncSchedule, 0, outboundPayload{
		RestaurantID: restaurantID,
		StartDate:    startDate,
		EndDate:      endDate,
	})
}

func (w *OutboundWorker) enqueue(ctx context.Context, taskType string, bookingID int64, payload outboundPayload) error {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	syncTask := models.SyncTask{
		TaskType:  taskType,
		BookingID: bookingID,
		Payload:   string(payloadBytes),
		Status:    "pending",
		CreatedAt: time.Now(),
	}

	if err := w.db.CreateSyncTask(ctx, &syncTask); err != nil {
		return fmt.Errorf("persist sync task: %w", err)
	}

	// Try redis first for durability.
	if w.redis != nil {
		if err := w.pushRedis(ctx, syncTask); err != nil {
			w.logger.Printf("outbound_worker: redis push failed, fallback to memory queue: %v", err)
		} else {
			return nil
		}
	}

	// Fallback to in-memory queue if redis missing or failed.
	select {
	case w.queue <- syncTask:
	default:
		w.logger.Printf("outbound_worker: in-memory queue full, task %d dropped to polling", syncTask.ID)
	}

	return nil
}

// Start launches main loop; stops when ctx is done.
func (w *OutboundWorker) Start(ctx context.Context) {
	w.logger.Printf("outbound_worker: started")
	defer w.logger.Printf("outbound_worker: stopped")

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

		tasks, err := w.db.GetPendingSyncTasks(ctx, w.batchSize)
		if err != nil {
			w.logger.Printf("outbound_worker: fetch pending: %v", err)
			time.Sleep(w.pollInterval)
			continue
		}
		if len(tasks) == 0 {
			time.Sleep(w.pollInterval)
			continue
		}

		for i := range tasks {
			w.processTask(ctx, &tasks[i])
		}
	}
}

func (w *OutboundWorker) tryLocalQueue() (models.SyncTask, bool) {
	select {
	case t := <-w.queue:
		return t, true
	default:
		return models.SyncTask{}, false
	}
}

func (w *OutboundWorker) tryRedis(ctx context.Context) (models.SyncTask, bool) {
	if w.redis == nil {
		return models.SyncTask{}, false
	}
	res, err := w.redis.BRPop(ctx, time.Second, w.redisQueueKey).Result()
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, redis.Nil) {
			return models.SyncTask{}, false
		}
		w.logger.Printf("outbound_worker: redis BRPOP error: %v", err)
		return models.SyncTask{}, false
	}
	if len(res) != 2 {
		return models.SyncTask{}, false
	}
	var task models.SyncTask
	if err := json.Unmarshal([]byte(res[1]), &task); err != nil {
		w.logger.Printf("outbound_worker: decode redis task: %v", err)
		return models.SyncTask{}, false
	}
	return task, true
}

func (w *OutboundWorker) processTask(ctx context.Context, task *models.SyncTask) {
	var payload outboundPayload
	if err := json.Unmarshal([]byte(task.Payload), &payload); err != nil {
		w.failTask(ctx, task, fmt.Errorf("decode payload: %w", err))
		return
	}

	if err := w.handleTask(ctx, task.TaskType, payload); err != nil {
		w.retryOrFail(ctx, task, err)
		return
	}

	metrics.IncSyncTask(task.TaskType, "completed")
	if err := w.db.UpdateSyncTaskStatus(ctx, task.ID, "completed", "", nil); err != nil {
		w.logger.Printf("outbound_worker: mark completed %d: %v", task.ID, err)
	}
}

func (w *OutboundWorker) handleTask(ctx context.Context, taskType string, payload outboundPayload) error {
	switch taskType {
	case TaskUpsert:
		if w.sheets == nil {
			return errors.New("sheets writer not configured")
		}
		if payload.Booking == nil {
			return errors.New("booking payload missing")
		}
		return w.sheets.UpsertBooking(ctx, payload.Booking)
	case TaskUpdateStatus:
		if w.sheets == nil {
			return errors.New("sheets writer not configured")
		}
		if payload.BookingID == 0 || payload.Status == "" {
			return errors.New("booking id or status missing")
		}
		return w.sheets.UpdateBookingStatus(ctx, payload.BookingID, payload.Status)
	case TaskNotify:
		if w.notifier == nil {
			return errors.New("notifier not configured")
		}
		if payload.EventType == "" {
			return errors.New("event type missing")
		}
		return w.notifier.NotifyStaff(ctx, payload.RestaurantID, payload.EventType, payload.Message)
	case TaskSyncSchedule:
		if w.sheets == nil {
			return errors.New("sheets writer not configured")
		}
		return w.syncSchedule(ctx, payload)
	default:
		return fmt.Errorf("unknown task type: %s", taskType)
	}
}

func (w *OutboundWorker) syncSchedule(ctx context.Context, payload outboundPayload) error {
	daily, err := w.db.GetDailyBookings(ctx, payload.RestaurantID, payload.StartDate, payload.EndDate)
	if err != nil {
		return fmt.Errorf("load daily bookings: %w", err)
	}
	tables, err := w.db.GetActiveTables(ctx, payload.RestaurantID)
	if err != nil {
		return fmt.Errorf("load tables: %w", err)
	}
	return w.sheets.UpdateScheduleSheet(ctx, payload.StartDate, payload.EndDate, daily, tables)
}

func (w *OutboundWorker) retryOrFail(ctx context.Context, task *models.SyncTask, cause error) {
	attempt := task.RetryCount + 1
	if attempt >= w.retryPolicy.MaxRetries {
		metrics.IncSyncTask(task.TaskType, "failed")
		if err := w.db.UpdateSyncTaskStatus(ctx, task.ID, "failed", cause.Error(), nil); err != nil {
			w.logger.Printf("outbound_worker: mark failed %d: %v", task.ID, err)
		}
		w.pushDeadLetter(ctx, task)
		return
	}

	metrics.IncSyncTask(task.TaskType, "retry")
	nextDelay := w.retryPolicy.NextDelay(attempt)
	nextTime := time.Now().Add(nextDelay)
	if err := w.db.UpdateSyncTaskStatus(ctx, task.ID, "retry", cause.Error(), &nextTime); err != nil {
		w.logger.Printf("outbound_worker: mark retry %d: %v", task.ID, err)
	}
}

func (w *OutboundWorker) failTask(ctx context.Context, task *models.SyncTask, err error) {
	metrics.IncSyncTask(task.TaskType, "failed")
	if err := w.db.UpdateSyncTaskStatus(ctx, task.ID, "failed", err.Error(), nil); err != nil {
		w.logger.Printf("outbound_worker: mark failed %d: %v", task.ID, err)
	}
	w.pushDeadLetter(ctx, task)
}

func (w *OutboundWorker) pushRedis(ctx context.Context, task models.SyncTask) error {
	if w.redis == nil {
		return errors.New("redis client is nil")
	}
	data, err := json.Marshal(task)
	if err != nil {
		return err
	}
	return w.redis.LPush(ctx, w.redisQueueKey, data).Err()
}

func (w *OutboundWorker) pushDeadLetter(ctx context.Context, task *models.SyncTask) {
	if w.redis == nil {
		return
	}
	data, err := json.Marshal(task)
	if err != nil {
		w.logger.Printf("outbound_worker: encode deadletter %d: %v", task.ID, err)
		return
	}
	if err := w.redis.LPush(ctx, w.deadLetterKey, data).Err(); err != nil {
		w.logger.Printf("outbound_worker: deadletter push %d: %v", task.ID, err)
	}
}

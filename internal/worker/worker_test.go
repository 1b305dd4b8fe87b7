package worker

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"maitred/internal/database"
	"maitred/internal/models"

	"github.com/rs/zerolog"
)

func TestProcessTaskSuccess(t *testing.T) {
	db := newTestDB(t)
	sheets := &fakeSheets{}
	worker := NewOutboundWorker(db, sheets, nil, nil, RetryPolicy{}, nil)

	booking := &models.Booking{
		ID:              1,
		Ref:             "BK-1001",
		RestaurantID:    1,
		GuestName:       "tester",
		GuestPhone:      "+100",
		StartAt:         time.Now(),
		PartySize:       2,
		TurnTimeMinutes: 90,
		Status:          models.StatusPending,
	}

	ctx := context.Background()
	if err := worker.EnqueueTask(ctx, TaskUpsert, booking.ID, booking, ""); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	task, ok := worker.tryLocalQueue()
	if !ok {
		t.Fatalf("expected task in local queue")
	}
	worker.processTask(ctx, &task)

	status, retryCount, nextRetry := loadTaskStatus(t, db, task.ID)
	if status != "completed" {
		t.Fatalf("expected status=completed, got %s", status)
	}
	if retryCount != 0 {
		t.Fatalf("expected retry_count=0, got %d", retryCount)
	}
	if nextRetry.Valid {
		t.Fatalf("expected next_retry_at NULL on success")
	}
	if sheets.upsertCalls != 1 {
		t.Fatalf("expected upsert call, got %d", sheets.upsertCalls)
	}
}

func TestProcessTaskRetry(t *testing.T) {
	db := newTestDB(t)
	sheets := &fakeSheets{err: errors.New("boom")}
	worker := NewOutboundWorker(db, sheets, nil, nil, RetryPolicy{MaxRetries: 3, InitialDelay: time.Second}, nil)

	booking := &models.Booking{ID: 2, Ref: "BK-1002", RestaurantID: 1, GuestName: "tester", StartAt: time.Now(), Status: models.StatusPending}

	ctx := context.Background()
	if err := worker.EnqueueTask(ctx, TaskUpsert, booking.ID, booking, ""); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	task, ok := worker.tryLocalQueue()
	if !ok {
		t.Fatalf("expected task in local queue")
	}
	worker.processTask(ctx, &task)

	status, retryCount, nextRetry := loadTaskStatus(t, db, task.ID)
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
	db := newTestDB(t)
	sheets := &fakeSheets{err: errors.New("fatal")}
	worker := NewOutboundWorker(db, sheets, nil, nil, RetryPolicy{MaxRetries: 1}, nil)

	booking := &models.Booking{ID: 3, Ref: "BK-1003", RestaurantID: 1, GuestName: "tester", StartAt: time.Now(), Status: models.StatusPending}

	ctx := context.Background()
	worker.EnqueueTask(ctx, TaskUpsert, booking.ID, booking, "")
	task, _ := worker.tryLocalQueue()
	worker.processTask(ctx, &task)

	status, _, _ := loadTaskStatus(t, db, task.ID)
	if status != "failed" {
		t.Fatalf("expected status=failed, got %s", status)
	}
}

func TestProcessNotifyTask(t *testing.T) {
	db := newTestDB(t)
	notifier := &fakeNotifier{}
	worker := NewOutboundWorker(db, nil, notifier, nil, RetryPolicy{}, nil)

	ctx := context.Background()
	if err := worker.EnqueueNotify(ctx, 1, models.NotifyBookingRequested, "Table for two at 19:00"); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	task, ok := worker.tryLocalQueue()
	if !ok {
		t.Fatalf("expected task in local queue")
	}
	worker.processTask(ctx, &task)

	if notifier.calls != 1 {
		t.Fatalf("expected 1 notify call, got %d", notifier.calls)
	}
	if notifier.lastEvent != models.NotifyBookingRequested {
		t.Fatalf("unexpected event type %s", notifier.lastEvent)
	}
	status, _, _ := loadTaskStatus(t, db, task.ID)
	if status != "completed" {
		t.Fatalf("expected status=completed, got %s", status)
	}
}

func TestEnqueueSyncSchedule(t *testing.T) {
	db := newTestDB(t)
	sheets := &fakeSheets{}
	worker := NewOutboundWorker(db, sheets, nil, nil, RetryPolicy{MaxRetries: 3}, nil)

	ctx := context.Background()
	start := time.Now()
	end := start.AddDate(0, 0, 7)

	if err := worker.EnqueueSyncSchedule(ctx, 1, start, end); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	tasks, _ := db.GetPendingSyncTasks(ctx, 10)
	if len(tasks) != 1 {
		t.Fatalf("expected 1 task, got %d", len(tasks))
	}
	if tasks[0].TaskType != TaskSyncSchedule {
		t.Fatalf("expected TaskSyncSchedule, got %s", tasks[0].TaskType)
	}
}

func TestHandleTask(t *testing.T) {
	db := newTestDB(t)
	sheets := &fakeSheets{}
	notifier := &fakeNotifier{}
	worker := NewOutboundWorker(db, sheets, notifier, nil, RetryPolicy{MaxRetries: 3}, nil)

	ctx := context.Background()

	t.Run("Upsert", func(t *testing.T) {
		booking := &models.Booking{ID: 1, GuestName: "Test"}
		if err := worker.handleTask(ctx, TaskUpsert, outboundPayload{Booking: booking}); err != nil {
			t.Fatalf("handle: %v", err)
		}
		if sheets.upsertCalls != 1 {
			t.Fatalf("expected 1 upsert call, got %d", sheets.upsertCalls)
		}
	})

	t.Run("UpdateStatus", func(t *testing.T) {
		if err := worker.handleTask(ctx, TaskUpdateStatus, outboundPayload{BookingID: 123, Status: models.StatusConfirmed}); err != nil {
			t.Fatalf("handle: %v", err)
		}
		if sheets.statusCalls != 1 {
			t.Fatalf("expected 1 status call, got %d", sheets.statusCalls)
		}
	})

	t.Run("Notify", func(t *testing.T) {
		err := worker.handleTask(ctx, TaskNotify, outboundPayload{RestaurantID: 1, EventType: models.NotifyStatusChanged, Message: "seated"})
		if err != nil {
			t.Fatalf("handle: %v", err)
		}
		if notifier.calls != 1 {
			t.Fatalf("expected 1 notify call, got %d", notifier.calls)
		}
	})

	t.Run("UnknownType", func(t *testing.T) {
		if err := worker.handleTask(ctx, "bogus", outboundPayload{}); err == nil {
			t.Fatalf("expected error for unknown task type")
		}
	})
}

func TestRetryPolicyNextDelay(t *testing.T) {
	policy := RetryPolicy{InitialDelay: time.Second, BackoffFactor: 2, MaxDelay: 5 * time.Second}
	d1 := policy.NextDelay(1)
	d2 := policy.NextDelay(2)
	d3 := policy.NextDelay(5)

	if d1 != time.Second {
		t.Fatalf("attempt1 expected 1s, got %s", d1)
	}
	if d2 != 2*time.Second {
		t.Fatalf("attempt2 expected 2s, got %s", d2)
	}
	if d3 != 5*time.Second {
		t.Fatalf("attempt5 expected capped 5s, got %s", d3)
	}
}

func TestEnqueueTaskValidation(t *testing.T) {
	db := newTestDB(t)
	sheets := &fakeSheets{}
	worker := NewOutboundWorker(db, sheets, nil, nil, RetryPolicy{}, nil)

	ctx := context.Background()
	booking := &models.Booking{ID: 1, GuestName: "test"}

	t.Run("ValidTask", func(t *testing.T) {
		if err := worker.EnqueueTask(ctx, TaskUpsert, 1, booking, ""); err != nil {
			t.Fatalf("enqueue: %v", err)
		}
	})

	t.Run("EmptyTaskType", func(t *testing.T) {
		if err := worker.EnqueueTask(ctx, "", 1, booking, ""); err == nil {
			t.Fatalf("expected error for empty task type")
		}
	})

	t.Run("MissingBookingID", func(t *testing.T) {
		if err := worker.EnqueueTask(ctx, TaskUpsert, 0, nil, ""); err == nil {
			t.Fatalf("expected error for missing booking id")
		}
	})
}

// Helpers

type fakeSheets struct {
	err         error
	upsertCalls int
	statusCalls int
}

func (f *fakeSheets) UpsertBooking(ctx context.Context, b *models.Booking) error {
	f.upsertCalls++
	return f.err
}

func (f *fakeSheets) UpdateBookingStatus(ctx context.Context, id int64, status string) error {
	f.statusCalls++
	return f.err
}

func (f *fakeSheets) UpdateScheduleSheet(ctx context.Context, startDate, endDate time.Time, dailyBookings map[string][]*models.Booking, tables []*models.Table) error {
	return f.err
}

type fakeNotifier struct {
	err       error
	calls     int
	lastEvent string
}

func (f *fakeNotifier) NotifyStaff(ctx context.Context, restaurantID int64, eventType, message string) error {
	f.calls++
	f.lastEvent = eventType
	return f.err
}

func newTestDB(t *testing.T) *database.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "worker.db")
	logger := zerolog.Nop()
	db, err := database.NewDB(path, &logger)
	if err != nil {
		t.Fatalf("new db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func loadTaskStatus(t *testing.T, db *database.DB, id int64) (status string, retryCount int, nextRetry sql.NullTime) {
	t.Helper()
	row := db.QueryRowContext(context.Background(), `SELECT status, retry_count, next_retry_at FROM sync_queue WHERE id = ?`, id)
	if err := row.Scan(&status, &retryCount, &nextRetry); err != nil {
		t.Fatalf("scan task: %v", err)
	}
	return status, retryCount, nextRetry
}

package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mmdatafocus/roastery_backend/config"
	"github.com/mmdatafocus/roastery_backend/models"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PublishFunc publishes one change message and returns the Pub/Sub message id.
type PublishFunc func(ctx context.Context, msg config.ChangeMessage) (string, error)

// OutboxDispatcher publishes committed outbox rows to PUBSUB_TOPIC.
type OutboxDispatcher struct {
	DB           *gorm.DB
	Logger       *logrus.Logger
	DispatcherID string
	Publish      PublishFunc

	BatchSize      int
	PollInterval   time.Duration
	LockTimeout    time.Duration
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

func NewOutboxDispatcher(db *gorm.DB, logger *logrus.Logger) *OutboxDispatcher {
	return &OutboxDispatcher{
		DB:             db,
		Logger:         logger,
		DispatcherID:   uuid.NewString(),
		Publish:        config.PublishChangeWithResult,
		BatchSize:      50,
		PollInterval:   500 * time.Millisecond,
		LockTimeout:    30 * time.Second,
		MaxAttempts:    20,
		InitialBackoff: 5 * time.Second,
		MaxBackoff:     10 * time.Minute,
	}
}

func (d *OutboxDispatcher) Run(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		d.dispatchOnce(ctx)
		select {
		case <-ctx.Done():
			return
		case <-time.After(d.PollInterval):
		}
	}
}

func toChangeMessage(rec models.OutboxRecord) config.ChangeMessage {
	return config.ChangeMessage{
		RecordId:      rec.ID,
		Table:         rec.EntityTable,
		RowId:         rec.RowId,
		Action:        string(rec.Action),
		Row:           json.RawMessage(rec.Payload),
		CorrelationId: rec.CorrelationId,
		OccurredAt:    rec.CreatedAt,
	}
}

// claim locks a batch of due rows for this dispatcher. Rows past MaxAttempts go DEAD.
func (d *OutboxDispatcher) claim(ctx context.Context, now time.Time) ([]models.OutboxRecord, error) {
	staleBefore := now.Add(-d.LockTimeout)
	var claimed []models.OutboxRecord
	err := d.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// due: PENDING/FAILED past their backoff, or PROCESSING with a stale lock
		q := tx.
			Where(`
				(
					publish_status IN ? AND (next_attempt_at IS NULL OR next_attempt_at <= ?)
				)
				OR
				(
					publish_status = ? AND locked_at IS NOT NULL AND locked_at <= ?
				)
			`, []string{models.OutboxStatusPending, models.OutboxStatusFailed}, now, models.OutboxStatusProcessing, staleBefore).
			Order("id ASC").
			Limit(d.BatchSize)
		// sqlite has no row locks; a single writer holds the database instead
		if tx.Dialector.Name() != "sqlite" {
			q = q.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"})
		}
		if err := q.Find(&claimed).Error; err != nil {
			return err
		}
		for i := range claimed {
			if d.MaxAttempts > 0 && claimed[i].PublishAttempts >= d.MaxAttempts {
				msg := fmt.Sprintf("max publish attempts exceeded (%d)", d.MaxAttempts)
				claimed[i].PublishStatus = models.OutboxStatusDead
				if err := tx.Model(&models.OutboxRecord{}).Where("id = ?", claimed[i].ID).Updates(map[string]interface{}{
					"publish_status":     models.OutboxStatusDead,
					"last_publish_error": &msg,
					"next_attempt_at":    nil,
					"locked_at":          nil,
					"locked_by":          nil,
				}).Error; err != nil {
					return err
				}
				continue
			}

			claimed[i].PublishStatus = models.OutboxStatusProcessing
			claimed[i].LockedAt = &now
			claimed[i].LockedBy = &d.DispatcherID
			claimed[i].PublishAttempts++
			if err := tx.Model(&models.OutboxRecord{}).Where("id = ?", claimed[i].ID).Updates(map[string]interface{}{
				"publish_status":     models.OutboxStatusProcessing,
				"locked_at":          &now,
				"locked_by":          &d.DispatcherID,
				"publish_attempts":   gorm.Expr("publish_attempts + 1"),
				"last_publish_error": nil,
				"next_attempt_at":    nil,
			}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	return claimed, err
}

func (d *OutboxDispatcher) dispatchOnce(ctx context.Context) int {
	if d.DB == nil || d.Publish == nil {
		return 0
	}
	now := time.Now().UTC()
	claimed, err := d.claim(ctx, now)
	if err != nil {
		config.LogError(d.Logger, "workflow", "OutboxDispatcher.dispatchOnce", "claim outbox rows", d.DispatcherID, err)
		return 0
	}

	sent := 0
	for _, rec := range claimed {
		if rec.PublishStatus == models.OutboxStatusDead {
			continue
		}
		pubID, pubErr := d.Publish(ctx, toChangeMessage(rec))
		if pubErr != nil {
			d.markPublishFailed(ctx, rec, pubErr)
			continue
		}
		d.markPublishSent(ctx, rec.ID, pubID, now)
		sent++
	}
	return sent
}

func (d *OutboxDispatcher) markPublishSent(ctx context.Context, recordID int, pubsubMsgID string, now time.Time) {
	id := pubsubMsgID
	_ = d.DB.WithContext(ctx).Model(&models.OutboxRecord{}).
		Where("id = ?", recordID).
		Updates(map[string]interface{}{
			"publish_status":     models.OutboxStatusSent,
			"published_at":       &now,
			"pub_sub_message_id": &id,
			"locked_at":          nil,
			"locked_by":          nil,
			"next_attempt_at":    nil,
		}).Error
}

// backoff doubles InitialBackoff per attempt, capped at MaxBackoff.
func (d *OutboxDispatcher) backoff(attempt int) time.Duration {
	delay := d.InitialBackoff
	for i := 1; i < attempt; i++ {
		delay *= 2
		if d.MaxBackoff > 0 && delay >= d.MaxBackoff {
			return d.MaxBackoff
		}
	}
	return delay
}

func (d *OutboxDispatcher) markPublishFailed(ctx context.Context, rec models.OutboxRecord, err error) {
	db := d.DB.WithContext(ctx)
	msg := err.Error()
	attempt := rec.PublishAttempts

	if d.MaxAttempts > 0 && attempt >= d.MaxAttempts {
		_ = db.Model(&models.OutboxRecord{}).
			Where("id = ?", rec.ID).
			Updates(map[string]interface{}{
				"publish_status":     models.OutboxStatusDead,
				"last_publish_error": &msg,
				"next_attempt_at":    nil,
				"locked_at":          nil,
				"locked_by":          nil,
			}).Error
		if d.Logger != nil {
			d.Logger.WithFields(logrus.Fields{
				"field":     "OutboxDispatcher",
				"table":     rec.EntityTable,
				"row_id":    rec.RowId,
				"record_id": rec.ID,
				"attempt":   attempt,
			}).Error("outbox publish moved to DEAD after max attempts: " + msg)
		}
		return
	}

	next := time.Now().UTC().Add(d.backoff(attempt))
	_ = db.Model(&models.OutboxRecord{}).
		Where("id = ?", rec.ID).
		Updates(map[string]interface{}{
			"publish_status":     models.OutboxStatusFailed,
			"last_publish_error": &msg,
			"next_attempt_at":    &next,
			"locked_at":          nil,
			"locked_by":          nil,
		}).Error

	if d.Logger != nil {
		d.Logger.WithFields(logrus.Fields{
			"field":           "OutboxDispatcher",
			"table":           rec.EntityTable,
			"row_id":          rec.RowId,
			"record_id":       rec.ID,
			"attempt":         attempt,
			"next_attempt_at": next.Format(time.RFC3339Nano),
		}).Error("outbox publish failed: " + msg)
	}
}

// ReplayOutboxRecord puts a FAILED or DEAD row back in the queue with a fresh
// attempt budget.
func ReplayOutboxRecord(ctx context.Context, db *gorm.DB, recordID int) (*models.OutboxRecord, error) {
	var rec models.OutboxRecord
	if err := db.WithContext(ctx).Where("id = ?", recordID).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: outbox record %d", models.ErrNotFound, recordID)
		}
		return nil, err
	}
	if rec.PublishStatus != models.OutboxStatusFailed && rec.PublishStatus != models.OutboxStatusDead {
		return nil, fmt.Errorf("%w: outbox record %d is %s", models.ErrValidation, recordID, rec.PublishStatus)
	}
	now := time.Now().UTC()
	if err := db.WithContext(ctx).Model(&models.OutboxRecord{}).Where("id = ?", recordID).
		Updates(map[string]interface{}{
			"publish_status":     models.OutboxStatusFailed,
			"publish_attempts":   0,
			"next_attempt_at":    &now,
			"locked_at":          nil,
			"locked_by":          nil,
			"last_publish_error": nil,
		}).Error; err != nil {
		return nil, err
	}
	rec.PublishStatus = models.OutboxStatusFailed
	rec.PublishAttempts = 0
	rec.NextAttemptAt = &now
	rec.LockedAt = nil
	rec.LockedBy = nil
	rec.LastPublishError = nil
	return &rec, nil
}

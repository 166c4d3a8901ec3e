package workflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mmdatafocus/roastery_backend/config"
	"github.com/mmdatafocus/roastery_backend/models"
	"github.com/sirupsen/logrus"
)

type recordingPublisher struct {
	msgs []config.ChangeMessage
	err  error
}

func (p *recordingPublisher) publish(ctx context.Context, msg config.ChangeMessage) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	p.msgs = append(p.msgs, msg)
	return "msg-" + msg.RowId, nil
}

func outboxRows(t *testing.T, d *OutboxDispatcher) []models.OutboxRecord {
	t.Helper()
	var rows []models.OutboxRecord
	if err := d.DB.Order("id ASC").Find(&rows).Error; err != nil {
		t.Fatalf("select outbox: %v", err)
	}
	return rows
}

func TestOutboxDispatcher_PublishesCommittedChanges(t *testing.T) {
	b, st := newTestBooks(t)
	item := mustStockItem(t, b, models.StockItemKindGreenCoffee, "Guji")
	mustPurchase(t, b, item.ID, nil, "10", "100")

	pub := &recordingPublisher{}
	d := NewOutboxDispatcher(st.DB(), logrus.New())
	d.Publish = pub.publish

	// stock item insert, then purchase, movement and stock item update
	if sent := d.dispatchOnce(context.Background()); sent != 4 {
		t.Fatalf("expected 4 sent, got %d", sent)
	}
	if pub.msgs[0].Table != "stock_items" || pub.msgs[0].Action != string(models.ChangeActionInsert) || pub.msgs[0].RowId != item.ID {
		t.Fatalf("unexpected first message: %+v", pub.msgs[0])
	}
	if pub.msgs[1].CorrelationId == "" || pub.msgs[1].CorrelationId != pub.msgs[3].CorrelationId {
		t.Fatalf("purchase changes should share a correlation id: %q %q", pub.msgs[1].CorrelationId, pub.msgs[3].CorrelationId)
	}
	for _, rec := range outboxRows(t, d) {
		if rec.PublishStatus != models.OutboxStatusSent || rec.PubSubMessageId == nil || rec.PublishAttempts != 1 {
			t.Fatalf("row %d not sent: %+v", rec.ID, rec)
		}
	}

	if sent := d.dispatchOnce(context.Background()); sent != 0 {
		t.Fatalf("expected nothing left to send, got %d", sent)
	}
}

func TestOutboxDispatcher_RetriesThenDead(t *testing.T) {
	b, st := newTestBooks(t)
	mustStockItem(t, b, models.StockItemKindGreenCoffee, "Guji")

	pub := &recordingPublisher{err: errors.New("topic not found")}
	d := NewOutboxDispatcher(st.DB(), logrus.New())
	d.Publish = pub.publish
	d.MaxAttempts = 2
	d.InitialBackoff = time.Hour

	d.dispatchOnce(context.Background())
	rows := outboxRows(t, d)
	if len(rows) != 1 {
		t.Fatalf("expected 1 outbox row, got %d", len(rows))
	}
	rec := rows[0]
	if rec.PublishStatus != models.OutboxStatusFailed || rec.PublishAttempts != 1 || rec.NextAttemptAt == nil {
		t.Fatalf("expected FAILED with backoff, got %+v", rec)
	}
	if rec.LastPublishError == nil || *rec.LastPublishError != "topic not found" {
		t.Fatalf("expected error recorded, got %v", rec.LastPublishError)
	}

	// not due yet
	if sent := d.dispatchOnce(context.Background()); sent != 0 {
		t.Fatalf("expected no publish during backoff, got %d", sent)
	}
	if got := outboxRows(t, d)[0].PublishAttempts; got != 1 {
		t.Fatalf("attempts changed during backoff: %d", got)
	}

	if err := d.DB.Model(&models.OutboxRecord{}).Where("id = ?", rec.ID).Update("next_attempt_at", nil).Error; err != nil {
		t.Fatalf("clear backoff: %v", err)
	}
	d.dispatchOnce(context.Background())
	if got := outboxRows(t, d)[0]; got.PublishStatus != models.OutboxStatusDead || got.PublishAttempts != 2 {
		t.Fatalf("expected DEAD after 2 attempts, got %+v", got)
	}
}

func TestOutboxDispatcher_Backoff(t *testing.T) {
	d := &OutboxDispatcher{InitialBackoff: 5 * time.Second, MaxBackoff: time.Minute}
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 5 * time.Second},
		{2, 10 * time.Second},
		{3, 20 * time.Second},
		{4, 40 * time.Second},
		{5, time.Minute},
		{12, time.Minute},
	}
	for _, tt := range tests {
		if got := d.backoff(tt.attempt); got != tt.want {
			t.Fatalf("backoff(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestReplayOutboxRecord(t *testing.T) {
	b, st := newTestBooks(t)
	mustStockItem(t, b, models.StockItemKindGreenCoffee, "Guji")

	pub := &recordingPublisher{err: errors.New("topic not found")}
	d := NewOutboxDispatcher(st.DB(), logrus.New())
	d.Publish = pub.publish
	d.MaxAttempts = 1
	d.dispatchOnce(context.Background())

	rec := outboxRows(t, d)[0]
	if rec.PublishStatus != models.OutboxStatusDead {
		t.Fatalf("expected DEAD, got %s", rec.PublishStatus)
	}
	if _, err := ReplayOutboxRecord(context.Background(), d.DB, rec.ID); err != nil {
		t.Fatalf("replay: %v", err)
	}

	pub.err = nil
	d.MaxAttempts = 3
	if sent := d.dispatchOnce(context.Background()); sent != 1 {
		t.Fatalf("expected replayed row sent, got %d", sent)
	}
	if _, err := ReplayOutboxRecord(context.Background(), d.DB, rec.ID); !errors.Is(err, models.ErrValidation) {
		t.Fatalf("expected ErrValidation replaying a sent row, got %v", err)
	}
	if _, err := ReplayOutboxRecord(context.Background(), d.DB, 9999); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

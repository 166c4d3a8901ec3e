package models

import "time"

const (
	OutboxStatusPending    = "PENDING"
	OutboxStatusProcessing = "PROCESSING"
	OutboxStatusSent       = "SENT"
	OutboxStatusFailed     = "FAILED"
	OutboxStatusDead       = "DEAD"
)

// OutboxRecord is written in the same transaction as the change it describes
// and published to Pub/Sub after commit by the dispatcher.
type OutboxRecord struct {
	ID               int          `gorm:"primary_key;index:idx_outbox_dispatch,priority:3" json:"id"`
	EntityTable      string       `gorm:"size:64;not null;index" json:"entity_table"`
	RowId            string       `gorm:"size:36;index" json:"row_id"`
	Action           ChangeAction `gorm:"size:10;not null" json:"action"`
	Payload          []byte       `gorm:"type:blob" json:"payload"`
	CorrelationId    string       `gorm:"size:64;index" json:"correlation_id"`
	PublishStatus    string       `gorm:"size:20;index;not null;index:idx_outbox_dispatch,priority:1" json:"publish_status"` // PENDING|PROCESSING|SENT|FAILED|DEAD
	PublishAttempts  int          `gorm:"not null" json:"publish_attempts"`
	NextAttemptAt    *time.Time   `gorm:"index;index:idx_outbox_dispatch,priority:2" json:"next_attempt_at"`
	LockedAt         *time.Time   `gorm:"index" json:"locked_at"`
	LockedBy         *string      `gorm:"size:100" json:"locked_by"`
	LastPublishError *string      `gorm:"type:text" json:"last_publish_error"`
	PubSubMessageId  *string      `gorm:"size:255" json:"pubsub_message_id"`
	PublishedAt      *time.Time   `gorm:"index" json:"published_at"`
	CreatedAt        time.Time    `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time    `gorm:"autoUpdateTime" json:"updated_at"`
}

func (OutboxRecord) TableName() string { return "outbox_records" }

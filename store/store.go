package store

import (
	"context"

	"github.com/mmdatafocus/roastery_backend/models"
)

// Store is the persistence port of the books. Rows are addressed by their
// table name and id (models.Record).
type Store interface {
	Select(ctx context.Context, dest interface{}) error
	Get(ctx context.Context, id string, dest models.Record) error
	Insert(ctx context.Context, row models.Record) error
	Update(ctx context.Context, row models.Record) error
	Upsert(ctx context.Context, row models.Record) error
	Delete(ctx context.Context, row models.Record) error
	Reset(ctx context.Context, tables ...string) error

	// Commit applies every change of the set in one transaction, or none of them.
	Commit(ctx context.Context, cs *ChangeSet) error
	// Replace empties tables and inserts rows in one transaction.
	Replace(ctx context.Context, tables []string, rows []models.Record, correlationId string) error
}

type Change struct {
	Action models.ChangeAction
	Row    models.Record
}

// ChangeSet collects the writes of one business operation. Rows must be pointers.
type ChangeSet struct {
	CorrelationId string
	Changes       []Change
}

func NewChangeSet(correlationId string) *ChangeSet {
	return &ChangeSet{CorrelationId: correlationId}
}

func (cs *ChangeSet) add(action models.ChangeAction, rows ...models.Record) *ChangeSet {
	for _, r := range rows {
		cs.Changes = append(cs.Changes, Change{Action: action, Row: r})
	}
	return cs
}

func (cs *ChangeSet) Insert(rows ...models.Record) *ChangeSet {
	return cs.add(models.ChangeActionInsert, rows...)
}

func (cs *ChangeSet) Update(rows ...models.Record) *ChangeSet {
	return cs.add(models.ChangeActionUpdate, rows...)
}

func (cs *ChangeSet) Upsert(rows ...models.Record) *ChangeSet {
	return cs.add(models.ChangeActionUpsert, rows...)
}

func (cs *ChangeSet) Delete(rows ...models.Record) *ChangeSet {
	return cs.add(models.ChangeActionDelete, rows...)
}

func (cs *ChangeSet) Len() int {
	return len(cs.Changes)
}

// Count returns how many changes of the given action touch table.
func (cs *ChangeSet) Count(action models.ChangeAction, table string) int {
	n := 0
	for _, c := range cs.Changes {
		if c.Action == action && c.Row.TableName() == table {
			n++
		}
	}
	return n
}

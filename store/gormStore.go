package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/mmdatafocus/roastery_backend/config"
	"github.com/mmdatafocus/roastery_backend/models"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var tracer = otel.Tracer("roastery-store")

// GormStore implements Store on gorm. Every committed change also writes an
// outbox row in the same transaction for the replication dispatcher.
type GormStore struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewGormStore(db *gorm.DB, logger *logrus.Logger) *GormStore {
	return &GormStore{db: db, logger: logger}
}

func (s *GormStore) DB() *gorm.DB {
	return s.db
}

func (s *GormStore) Select(ctx context.Context, dest interface{}) error {
	return s.db.WithContext(ctx).Find(dest).Error
}

func (s *GormStore) Get(ctx context.Context, id string, dest models.Record) error {
	err := s.db.WithContext(ctx).Where("id = ?", id).Take(dest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s %s", models.ErrNotFound, dest.TableName(), id)
	}
	return err
}

func (s *GormStore) Insert(ctx context.Context, row models.Record) error {
	return s.Commit(ctx, NewChangeSet("").Insert(row))
}

func (s *GormStore) Update(ctx context.Context, row models.Record) error {
	return s.Commit(ctx, NewChangeSet("").Update(row))
}

func (s *GormStore) Upsert(ctx context.Context, row models.Record) error {
	return s.Commit(ctx, NewChangeSet("").Upsert(row))
}

func (s *GormStore) Delete(ctx context.Context, row models.Record) error {
	return s.Commit(ctx, NewChangeSet("").Delete(row))
}

func (s *GormStore) Reset(ctx context.Context, tables ...string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return resetTables(tx, tables, "")
	})
}

func (s *GormStore) Commit(ctx context.Context, cs *ChangeSet) error {
	if cs == nil || cs.Len() == 0 {
		return nil
	}
	ctx, span := tracer.Start(ctx, "store.Commit")
	defer span.End()
	span.SetAttributes(
		attribute.Int("changes", cs.Len()),
		attribute.String("correlation_id", cs.CorrelationId),
	)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, c := range cs.Changes {
			if err := applyChange(tx, c); err != nil {
				return err
			}
			if err := writeOutbox(tx, c.Action, c.Row.TableName(), c.Row.GetId(), c.Row, cs.CorrelationId); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		config.LogError(s.logger, "store", "Commit", "commit change set", cs.CorrelationId, err)
		return err
	}
	return nil
}

func (s *GormStore) Replace(ctx context.Context, tables []string, rows []models.Record, correlationId string) error {
	ctx, span := tracer.Start(ctx, "store.Replace")
	defer span.End()
	span.SetAttributes(attribute.Int("rows", len(rows)))

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := resetTables(tx, tables, correlationId); err != nil {
			return err
		}
		for _, row := range rows {
			c := Change{Action: models.ChangeActionInsert, Row: row}
			if err := applyChange(tx, c); err != nil {
				return err
			}
			if err := writeOutbox(tx, c.Action, row.TableName(), row.GetId(), row, correlationId); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		config.LogError(s.logger, "store", "Replace", "replace tables", correlationId, err)
		return err
	}
	return nil
}

func applyChange(tx *gorm.DB, c Change) error {
	var err error
	switch c.Action {
	case models.ChangeActionInsert:
		err = tx.Create(c.Row).Error
	case models.ChangeActionUpdate:
		// RowsAffected is not checked: MySQL reports 0 when nothing changed.
		err = tx.Model(c.Row).Select("*").Updates(c.Row).Error
	case models.ChangeActionUpsert:
		err = tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(c.Row).Error
	case models.ChangeActionDelete:
		err = tx.Delete(c.Row).Error
	default:
		return fmt.Errorf("unsupported change action %q", c.Action)
	}
	if err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("%w: %s %s", models.ErrDuplicate, c.Row.TableName(), c.Row.GetId())
		}
		return fmt.Errorf("%s %s %s: %w", c.Action, c.Row.TableName(), c.Row.GetId(), err)
	}
	return nil
}

func resetTables(tx *gorm.DB, tables []string, correlationId string) error {
	allowed := make(map[string]bool)
	for _, t := range models.BookTables() {
		allowed[t] = true
	}
	for _, t := range tables {
		if !allowed[t] {
			return fmt.Errorf("reset of table %q is not allowed", t)
		}
		if err := tx.Exec("DELETE FROM " + tx.Statement.Quote(t)).Error; err != nil {
			return err
		}
		if err := writeOutbox(tx, models.ChangeActionReset, t, "", nil, correlationId); err != nil {
			return err
		}
	}
	return nil
}

func writeOutbox(tx *gorm.DB, action models.ChangeAction, table string, rowId string, row interface{}, correlationId string) error {
	var payload []byte
	if row != nil {
		var err error
		if payload, err = json.Marshal(row); err != nil {
			return err
		}
	}
	return tx.Create(&models.OutboxRecord{
		EntityTable:   table,
		RowId:         rowId,
		Action:        action,
		Payload:       payload,
		CorrelationId: correlationId,
		PublishStatus: models.OutboxStatusPending,
	}).Error
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

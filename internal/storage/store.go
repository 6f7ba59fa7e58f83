// Package storage holds the data access and domain rules for listings, the
// CRM pipeline, the affiliate marketplace and the activity trail.
package storage

import (
	"context"
	"time"

	"realtycore/internal/metrics"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var tracer = otel.Tracer("storage")

type Store struct {
	db      *gorm.DB
	lg      *zap.SugaredLogger
	metrics *metrics.Metrics
	now     func() time.Time
}

func New(db *gorm.DB, lg *zap.SugaredLogger, m *metrics.Metrics) *Store {
	if lg == nil {
		lg = zap.NewNop().Sugar()
	}
	return &Store{db: db, lg: lg, metrics: m, now: time.Now}
}

// DB exposes the underlying handle for middleware that needs raw lookups.
func (s *Store) DB() *gorm.DB { return s.db }

func (s *Store) Ping(ctx context.Context) error {
	return ping(ctx, s.db)
}

func (s *Store) conn(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

type pendingActivityKey struct{}

type pendingActivity struct {
	entityType string
	action     string
}

// transact runs fn in a transaction. Activity counters recorded by fn are
// only incremented once the transaction commits.
func (s *Store) transact(ctx context.Context, fn func(tx *gorm.DB) error) error {
	var pending []pendingActivity
	ctx = context.WithValue(ctx, pendingActivityKey{}, &pending)
	if err := s.conn(ctx).Transaction(fn); err != nil {
		return err
	}
	for _, p := range pending {
		s.metrics.IncrActivity(p.entityType, p.action)
	}
	return nil
}

// loadOwned fetches a row by id and checks that the caller owns it.
func loadOwned[T any](ctx context.Context, db *gorm.DB, resource string, id, userID int64, owner func(*T) int64) (*T, error) {
	var row T
	if err := db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, notFoundOr(err, resource, id)
	}
	if owner(&row) != userID {
		return nil, &ErrForbidden{Action: "modify " + resource}
	}
	return &row, nil
}

func normalizePage(page, limit, def int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = def
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit
}

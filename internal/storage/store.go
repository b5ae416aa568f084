// Package storage holds the session-scoped repositories: sessions, notification
// settings and subscriptions. Every subscription read carries a freshly derived status.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/01moynul/cancelbuddy/internal/database"
	"github.com/01moynul/cancelbuddy/internal/models"
	"github.com/google/uuid"
)

// Store is safe for concurrent use.
type Store struct {
	db              *database.DB
	now             func() time.Time
	newID           func() string
	defaultCurrency string
	observeStatus   func(models.Status)
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces time.Now, which drives status derivation and created_at.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithDefaultCurrency sets the currency used when a subscription is created without one.
func WithDefaultCurrency(code string) Option {
	return func(s *Store) {
		if code = models.NormalizeCurrency(code); code != "" {
			s.defaultCurrency = code
		}
	}
}

// WithStatusObserver is called once for every status derived on a read or write.
func WithStatusObserver(fn func(models.Status)) Option {
	return func(s *Store) {
		s.observeStatus = fn
	}
}

// New wraps an open, migrated database.
func New(db *database.DB, opts ...Option) *Store {
	s := &Store{
		db:              db,
		now:             time.Now,
		newID:           uuid.NewString,
		defaultCurrency: "EUR",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ping checks that the database answers.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return unavailable("ping", err)
	}
	return nil
}

func (s *Store) deriveStatus(cancelByDate *time.Time, reminderDays int) models.Status {
	status := models.DeriveStatus(cancelByDate, reminderDays, s.now())
	if s.observeStatus != nil {
		s.observeStatus(status)
	}
	return status
}

func (s *Store) rebind(query string) string {
	return s.db.Rebind(query)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// truncate drops precision the database cannot hold, so a returned row matches a later read.
func truncate(value time.Time) time.Time {
	return fromMillis(toMillis(value))
}

func nullMillis(value *time.Time) sql.NullInt64 {
	if value == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: toMillis(*value), Valid: true}
}

func timePtr(value sql.NullInt64) *time.Time {
	if !value.Valid {
		return nil
	}
	t := fromMillis(value.Int64)
	return &t
}

func nullString(value *string) sql.NullString {
	if value == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *value, Valid: true}
}

func stringPtr(value sql.NullString) *string {
	if !value.Valid {
		return nil
	}
	v := value.String
	return &v
}

func rollbackWith(tx *sql.Tx, err error) error {
	if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
		return errors.Join(err, rbErr)
	}
	return err
}

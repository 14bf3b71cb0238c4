// Package store is the tenant-scoped repository over gorm.
//
// Every accessor that reads or writes tenant data takes the tenant id as its first
// parameter and filters on it, so a lookup of another tenant's row is
// indistinguishable from a missing row. The only unscoped entry points are the
// roots from which a tenant is derived: a table scanned by id and a session
// resolved by its token.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/table-session/apperr"
	"github.com/yeremiapane/table-session/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Tx is a handle bound to one database transaction, or to the plain connection
// pool for read-only calls made through Store.Reader.
type Tx struct {
	db *gorm.DB
}

// Reader returns a non-transactional handle for reads.
func (s *Store) Reader(ctx context.Context) *Tx {
	return &Tx{db: s.db.WithContext(ctx)}
}

// Transaction runs fn in a database transaction. A transient failure (deadlock,
// lock timeout, busy database, lost unique-slot race) is retried once; if the
// retry fails the same way the error is reported as a concurrency conflict.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Tx) error) error {
	err := s.run(ctx, fn)
	if err == nil || !isTransient(err) {
		return err
	}

	utils.InfoLogger.WithFields(logrus.Fields{"error": err}).Warn("retrying transaction after transient failure")

	err = s.run(ctx, fn)
	if err != nil && isTransient(err) {
		if errors.Is(err, apperr.ErrConcurrencyConflict) {
			return err
		}
		return fmt.Errorf("%w: %v", apperr.ErrConcurrencyConflict, err)
	}
	return err
}

func (s *Store) run(ctx context.Context, fn func(tx *Tx) error) error {
	return s.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		return fn(&Tx{db: db})
	})
}

// forUpdate adds a row lock to the next query. Dialects without row locks
// (SQLite) drop the clause and serialize whole transactions instead.
func (tx *Tx) forUpdate() *gorm.DB {
	return tx.db.Clauses(clause.Locking{Strength: "UPDATE"})
}

// notFound converts gorm's record-not-found into the domain error.
func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", what, apperr.ErrNotFound)
	}
	return err
}

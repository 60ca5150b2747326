// Package postgres implements the store interfaces on PostgreSQL via pgx v5.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/NomadCrew/tripsync-backend/internal/store"
	"github.com/NomadCrew/tripsync-backend/logger"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the subset of *pgxpool.Pool the stores use. pgxmock pools satisfy it.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	Ping(ctx context.Context) error
}

// Store bundles the PostgreSQL-backed stores over one pool.
type Store struct {
	db        DBTX
	trips     *TripStore
	reactions *ReactionStore
}

var _ store.Store = (*Store)(nil)

func NewStore(db DBTX) *Store {
	return &Store{
		db:        db,
		trips:     NewTripStore(db),
		reactions: NewReactionStore(db),
	}
}

func (s *Store) Trips() store.TripStore         { return s.trips }
func (s *Store) Reactions() store.ReactionStore { return s.reactions }

func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// TxFn is the unit of work run by WithTx.
type TxFn func(tx pgx.Tx) error

// WithTx runs fn inside a transaction. It commits when fn returns nil and
// rolls back otherwise, including when fn panics.
func WithTx(ctx context.Context, db DBTX, fn TxFn) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			logger.GetLogger().Errorw("Failed to rollback transaction", "error", err)
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	committed = true
	return nil
}

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

package postgres

import (
	"context"
	"database/sql"

	"unilift/internal/repository"
)

// Querier is an interface satisfied by both *sql.DB and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Ensure interfaces are satisfied.
var (
	_ Querier = (*sql.DB)(nil)
	_ Querier = (*sql.Tx)(nil)
)

// Store is the PostgreSQL implementation of repository.Store.
type Store struct {
	db *sql.DB
	q  Querier
}

// Ensure interface is satisfied.
var _ repository.Store = (*Store)(nil)

// NewStore creates a Store backed by the given database handle.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db, q: db}
}

// Users returns the user repository bound to this store's scope.
func (s *Store) Users() repository.UserRepository {
	return &UserRepository{q: s.q}
}

// Rides returns the ride repository bound to this store's scope.
func (s *Store) Rides() repository.RideRepository {
	return &RideRepository{q: s.q}
}

// Bookings returns the booking repository bound to this store's scope.
func (s *Store) Bookings() repository.BookingRepository {
	return &BookingRepository{q: s.q}
}

// WithinTx runs fn against a transaction-scoped store. The transaction is
// rolled back if fn returns an error and committed otherwise.
func (s *Store) WithinTx(ctx context.Context, fn func(repository.Store) error) error {
	if s.db == nil {
		// Already transaction-scoped; nested units of work join it.
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	if err := fn(&Store{q: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}

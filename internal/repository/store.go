package repository

import "context"

// Store bundles the repositories behind a single unit-of-work boundary.
// WithinTx runs fn against transaction-scoped repositories: either every
// write in fn is applied or none is. Multi-entity writes (booking insert +
// seat decrement, ride cancel + booking cascade) must go through it.
type Store interface {
	Users() UserRepository
	Rides() RideRepository
	Bookings() BookingRepository

	// WithinTx executes fn inside a transaction. The Store passed to fn
	// yields transaction-scoped repositories; it must not be retained
	// after fn returns.
	WithinTx(ctx context.Context, fn func(Store) error) error
}

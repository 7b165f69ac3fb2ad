package repository

import (
	"context"
	"errors"
	"time"

	"unilift/internal/domain"
)

var (
	// ErrRideNotActive is returned by ReserveSeats when the ride exists but
	// is not accepting bookings.
	ErrRideNotActive = errors.New("ride is not active")

	// ErrInsufficientSeats is returned by ReserveSeats when fewer seats are
	// available than requested.
	ErrInsufficientSeats = errors.New("not enough seats available")
)

// RideSearch holds the optional filters for searching active rides.
type RideSearch struct {
	SourceAddress      string
	DestinationAddress string
	Date               time.Time // Zero value means any date.
}

// RideRepository defines the persistence operations for rides.
// ReserveSeats and ReleaseSeats are the only two ways the seat counter
// changes; both are single atomic statements in the SQL implementation.
type RideRepository interface {
	// Create persists a new ride.
	Create(ctx context.Context, ride *domain.Ride) error

	// GetByID retrieves a ride by ID.
	GetByID(ctx context.Context, id string) (*domain.Ride, error)

	// GetByIDForUpdate retrieves a ride by ID and holds its row lock for
	// the rest of the surrounding transaction. Callers that write the ride
	// row back must read through this, or a seat reservation committed
	// between read and write would be silently overwritten.
	GetByIDForUpdate(ctx context.Context, id string) (*domain.Ride, error)

	// GetDetailByID retrieves a ride joined with its driver summary.
	GetDetailByID(ctx context.Context, id string) (*domain.RideDetail, error)

	// GetActive retrieves all active rides, soonest first.
	GetActive(ctx context.Context) ([]*domain.RideDetail, error)

	// Search retrieves active rides with open seats matching the filters.
	Search(ctx context.Context, filter RideSearch) ([]*domain.RideDetail, error)

	// GetByDriverID retrieves all rides posted by a driver, newest first.
	GetByDriverID(ctx context.Context, driverID string) ([]*domain.Ride, error)

	// Update updates an existing ride.
	Update(ctx context.Context, ride *domain.Ride) error

	// Delete removes a ride.
	Delete(ctx context.Context, id string) error

	// ReserveSeats decrements the ride's available seats by count, only if
	// the ride is active and has at least count seats left. Returns
	// ErrNotFound, ErrRideNotActive, or ErrInsufficientSeats otherwise.
	ReserveSeats(ctx context.Context, id string, count int) error

	// ReleaseSeats increments the ride's available seats by count, clamped
	// at the ride's total seats.
	ReleaseSeats(ctx context.Context, id string, count int) error
}

package repository

import (
	"context"

	"unilift/internal/domain"
)

// BookingRepository defines the persistence operations for bookings.
// CancelByID and CompleteWithRating are the only ways a booking leaves the
// confirmed state; both are single conditional statements in the SQL
// implementation, so racing transitions cannot both win.
type BookingRepository interface {
	// Create persists a new booking.
	Create(ctx context.Context, booking *domain.Booking) error

	// GetByID retrieves a booking by ID.
	GetByID(ctx context.Context, id string) (*domain.Booking, error)

	// GetDetailByID retrieves a booking joined with its ride and both
	// party summaries.
	GetDetailByID(ctx context.Context, id string) (*domain.BookingDetail, error)

	// GetByRiderID retrieves a rider's bookings, newest first.
	GetByRiderID(ctx context.Context, riderID string) ([]*domain.BookingDetail, error)

	// GetByDriverID retrieves all bookings against rides posted by the
	// given driver, newest first.
	GetByDriverID(ctx context.Context, driverID string) ([]*domain.BookingDetail, error)

	// HasActiveByRideAndRider reports whether the rider already holds a
	// non-cancelled booking on the ride.
	HasActiveByRideAndRider(ctx context.Context, rideID, riderID string) (bool, error)

	// CancelByID flips the booking to cancelled, only if it is not already
	// cancelled. Reports whether this call won the transition.
	CancelByID(ctx context.Context, id string) (bool, error)

	// CompleteWithRating flips a confirmed booking to completed and stores
	// the rating and feedback. Reports whether this call won the transition.
	CompleteWithRating(ctx context.Context, id string, rating int, feedback string) (bool, error)

	// CancelConfirmedByRideID cancels every confirmed booking on the ride
	// and returns how many were cancelled.
	CancelConfirmedByRideID(ctx context.Context, rideID string) (int, error)

	// CountConfirmedByRideID counts the confirmed bookings on the ride.
	CountConfirmedByRideID(ctx context.Context, rideID string) (int, error)

	// DeleteByRideID removes all bookings referencing the ride.
	DeleteByRideID(ctx context.Context, rideID string) error
}

package postgres

import (
	"context"
	"database/sql"
	"errors"

	"unilift/internal/domain"
	"unilift/internal/repository"
)

// BookingRepository is a PostgreSQL implementation of repository.BookingRepository.
//
// Table: bookings (id, ride_id, rider_id, seats_booked, status,
// pickup_address, pickup_lat, pickup_lng, rating, feedback, created_at)
type BookingRepository struct {
	q Querier
}

// NewBookingRepository creates a new PostgreSQL booking repository.
func NewBookingRepository(db *sql.DB) *BookingRepository {
	return &BookingRepository{q: db}
}

const bookingColumns = `
	id, ride_id, rider_id, seats_booked, status,
	pickup_address, pickup_lat, pickup_lng, rating, feedback, created_at
`

// Create persists a new booking.
func (r *BookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	query := `
		INSERT INTO bookings (` + bookingColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	var rating sql.NullInt64
	if booking.Rating != 0 {
		rating = sql.NullInt64{Int64: int64(booking.Rating), Valid: true}
	}

	_, err := r.q.ExecContext(ctx, query,
		booking.ID,
		booking.RideID,
		booking.RiderID,
		booking.SeatsBooked,
		booking.Status,
		nullString(booking.PickupPoint.Address),
		booking.PickupPoint.Latitude,
		booking.PickupPoint.Longitude,
		rating,
		nullString(booking.Feedback),
		booking.CreatedAt,
	)

	return err
}

// GetByID retrieves a booking by ID.
func (r *BookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	booking, err := scanBooking(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return booking, nil
}

// GetDetailByID retrieves a booking joined with its ride and both party
// summaries.
func (r *BookingRepository) GetDetailByID(ctx context.Context, id string) (*domain.BookingDetail, error) {
	query := bookingDetailQuery + ` WHERE b.id = $1`

	detail, err := scanBookingDetail(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return detail, nil
}

// GetByRiderID retrieves a rider's bookings, newest first.
func (r *BookingRepository) GetByRiderID(ctx context.Context, riderID string) ([]*domain.BookingDetail, error) {
	query := bookingDetailQuery + ` WHERE b.rider_id = $1 ORDER BY b.created_at DESC`

	rows, err := r.q.QueryContext(ctx, query, riderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectBookingDetails(rows)
}

// GetByDriverID retrieves all bookings against rides posted by the driver,
// newest first.
func (r *BookingRepository) GetByDriverID(ctx context.Context, driverID string) ([]*domain.BookingDetail, error) {
	query := bookingDetailQuery + ` WHERE r.driver_id = $1 ORDER BY b.created_at DESC`

	rows, err := r.q.QueryContext(ctx, query, driverID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectBookingDetails(rows)
}

// HasActiveByRideAndRider reports whether the rider already holds a
// non-cancelled booking on the ride.
func (r *BookingRepository) HasActiveByRideAndRider(ctx context.Context, rideID, riderID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM bookings
			WHERE ride_id = $1 AND rider_id = $2 AND status <> $3
		)
	`

	var exists bool
	err := r.q.QueryRowContext(ctx, query, rideID, riderID, domain.BookingStatusCancelled).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

// CancelByID flips the booking to cancelled as a single conditional UPDATE.
// The statement both checks and claims the transition, so of two racing
// cancels exactly one sees a row change and releases seats.
func (r *BookingRepository) CancelByID(ctx context.Context, id string) (bool, error) {
	query := `UPDATE bookings SET status = $1 WHERE id = $2 AND status <> $1`

	result, err := r.q.ExecContext(ctx, query, domain.BookingStatusCancelled, id)
	if err != nil {
		return false, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rowsAffected > 0, nil
}

// CompleteWithRating flips a confirmed booking to completed and stores the
// rating, as a single conditional UPDATE. Racing rating submissions
// serialize on the row; the loser re-evaluates the predicate against the
// committed row and reports no transition.
func (r *BookingRepository) CompleteWithRating(ctx context.Context, id string, rating int, feedback string) (bool, error) {
	query := `
		UPDATE bookings
		SET status = $1, rating = $2, feedback = $3
		WHERE id = $4 AND status = $5
	`

	result, err := r.q.ExecContext(ctx, query,
		domain.BookingStatusCompleted,
		rating,
		nullString(feedback),
		id,
		domain.BookingStatusConfirmed,
	)
	if err != nil {
		return false, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rowsAffected > 0, nil
}

// CancelConfirmedByRideID cancels every confirmed booking on the ride.
func (r *BookingRepository) CancelConfirmedByRideID(ctx context.Context, rideID string) (int, error) {
	query := `UPDATE bookings SET status = $1 WHERE ride_id = $2 AND status = $3`

	result, err := r.q.ExecContext(ctx, query,
		domain.BookingStatusCancelled,
		rideID,
		domain.BookingStatusConfirmed,
	)
	if err != nil {
		return 0, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(rowsAffected), nil
}

// CountConfirmedByRideID counts the confirmed bookings on the ride.
func (r *BookingRepository) CountConfirmedByRideID(ctx context.Context, rideID string) (int, error) {
	query := `SELECT COUNT(*) FROM bookings WHERE ride_id = $1 AND status = $2`

	var count int
	err := r.q.QueryRowContext(ctx, query, rideID, domain.BookingStatusConfirmed).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

// DeleteByRideID removes all bookings referencing the ride.
func (r *BookingRepository) DeleteByRideID(ctx context.Context, rideID string) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM bookings WHERE ride_id = $1`, rideID)
	return err
}

const bookingDetailQuery = `
	SELECT b.id, b.ride_id, b.rider_id, b.seats_booked, b.status,
	       b.pickup_address, b.pickup_lat, b.pickup_lng, b.rating, b.feedback, b.created_at,
	       ` + rideDetailColumns + `,
	       rd.id, rd.name, rd.phone, rd.email, rd.college, rd.rating
	FROM bookings b
	JOIN rides r ON r.id = b.ride_id
	JOIN users u ON u.id = r.driver_id
	JOIN users rd ON rd.id = b.rider_id
`

func scanBooking(row scanner) (*domain.Booking, error) {
	var booking domain.Booking
	var pickupAddress, feedback sql.NullString
	var rating sql.NullInt64

	err := row.Scan(
		&booking.ID,
		&booking.RideID,
		&booking.RiderID,
		&booking.SeatsBooked,
		&booking.Status,
		&pickupAddress,
		&booking.PickupPoint.Latitude,
		&booking.PickupPoint.Longitude,
		&rating,
		&feedback,
		&booking.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	booking.PickupPoint.Address = pickupAddress.String
	booking.Rating = int(rating.Int64)
	booking.Feedback = feedback.String

	return &booking, nil
}

func scanBookingDetail(row scanner) (*domain.BookingDetail, error) {
	var detail domain.BookingDetail
	var pickupAddress, feedback sql.NullString
	var rating sql.NullInt64
	var model, number, color, notes sql.NullString

	err := row.Scan(
		&detail.Booking.ID,
		&detail.RideID,
		&detail.RiderID,
		&detail.SeatsBooked,
		&detail.Booking.Status,
		&pickupAddress,
		&detail.PickupPoint.Latitude,
		&detail.PickupPoint.Longitude,
		&rating,
		&feedback,
		&detail.Booking.CreatedAt,
		&detail.Ride.ID,
		&detail.Ride.DriverID,
		&detail.Ride.Source.Address,
		&detail.Ride.Source.Latitude,
		&detail.Ride.Source.Longitude,
		&detail.Ride.Destination.Address,
		&detail.Ride.Destination.Latitude,
		&detail.Ride.Destination.Longitude,
		&detail.Ride.Date,
		&detail.Ride.Time,
		&detail.Ride.TotalSeats,
		&detail.Ride.AvailableSeats,
		&detail.Ride.PricePerSeat,
		&model,
		&number,
		&color,
		&detail.Ride.Status,
		&notes,
		&detail.Ride.CreatedAt,
		&detail.Driver.ID,
		&detail.Driver.Name,
		&detail.Driver.Phone,
		&detail.Driver.Email,
		&detail.Driver.College,
		&detail.Driver.Rating,
		&detail.Rider.ID,
		&detail.Rider.Name,
		&detail.Rider.Phone,
		&detail.Rider.Email,
		&detail.Rider.College,
		&detail.Rider.Rating,
	)
	if err != nil {
		return nil, err
	}

	detail.PickupPoint.Address = pickupAddress.String
	detail.Booking.Rating = int(rating.Int64)
	detail.Feedback = feedback.String
	detail.Ride.Vehicle.Model = model.String
	detail.Ride.Vehicle.Number = number.String
	detail.Ride.Vehicle.Color = color.String
	detail.Ride.Notes = notes.String

	return &detail, nil
}

func collectBookingDetails(rows *sql.Rows) ([]*domain.BookingDetail, error) {
	var details []*domain.BookingDetail
	for rows.Next() {
		detail, err := scanBookingDetail(rows)
		if err != nil {
			return nil, err
		}
		details = append(details, detail)
	}
	return details, rows.Err()
}

package postgres

import (
	"context"
	"database/sql"
	"errors"

	"unilift/internal/domain"
	"unilift/internal/repository"
)

// RideRepository is a PostgreSQL implementation of repository.RideRepository.
//
// Table: rides (id, driver_id, source_address, source_lat, source_lng,
// destination_address, destination_lat, destination_lng, ride_date,
// departure_time, total_seats, available_seats, price_per_seat,
// vehicle_model, vehicle_number, vehicle_color, status, notes, created_at)
type RideRepository struct {
	q Querier
}

// NewRideRepository creates a new PostgreSQL ride repository.
func NewRideRepository(db *sql.DB) *RideRepository {
	return &RideRepository{q: db}
}

const rideColumns = `
	id, driver_id, source_address, source_lat, source_lng,
	destination_address, destination_lat, destination_lng, ride_date,
	departure_time, total_seats, available_seats, price_per_seat,
	vehicle_model, vehicle_number, vehicle_color, status, notes, created_at
`

// Create persists a new ride.
func (r *RideRepository) Create(ctx context.Context, ride *domain.Ride) error {
	query := `
		INSERT INTO rides (` + rideColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
	`

	_, err := r.q.ExecContext(ctx, query,
		ride.ID,
		ride.DriverID,
		ride.Source.Address,
		ride.Source.Latitude,
		ride.Source.Longitude,
		ride.Destination.Address,
		ride.Destination.Latitude,
		ride.Destination.Longitude,
		ride.Date,
		ride.Time,
		ride.TotalSeats,
		ride.AvailableSeats,
		ride.PricePerSeat,
		nullString(ride.Vehicle.Model),
		nullString(ride.Vehicle.Number),
		nullString(ride.Vehicle.Color),
		ride.Status,
		nullString(ride.Notes),
		ride.CreatedAt,
	)

	return err
}

// GetByID retrieves a ride by ID.
func (r *RideRepository) GetByID(ctx context.Context, id string) (*domain.Ride, error) {
	return r.getRide(ctx, `SELECT `+rideColumns+` FROM rides WHERE id = $1`, id)
}

// GetByIDForUpdate retrieves a ride by ID and locks its row until the
// surrounding transaction ends. Ride edits read through this so the seat
// counter they write back cannot clobber a concurrent reservation.
func (r *RideRepository) GetByIDForUpdate(ctx context.Context, id string) (*domain.Ride, error) {
	return r.getRide(ctx, `SELECT `+rideColumns+` FROM rides WHERE id = $1 FOR UPDATE`, id)
}

func (r *RideRepository) getRide(ctx context.Context, query, id string) (*domain.Ride, error) {
	ride, err := scanRide(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return ride, nil
}

// GetDetailByID retrieves a ride joined with its driver summary.
func (r *RideRepository) GetDetailByID(ctx context.Context, id string) (*domain.RideDetail, error) {
	query := `
		SELECT ` + rideDetailColumns + `
		FROM rides r
		JOIN users u ON u.id = r.driver_id
		WHERE r.id = $1
	`

	detail, err := scanRideDetail(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return detail, nil
}

// GetActive retrieves all active rides, soonest first.
func (r *RideRepository) GetActive(ctx context.Context) ([]*domain.RideDetail, error) {
	query := `
		SELECT ` + rideDetailColumns + `
		FROM rides r
		JOIN users u ON u.id = r.driver_id
		WHERE r.status = $1
		ORDER BY r.ride_date, r.departure_time
	`

	rows, err := r.q.QueryContext(ctx, query, domain.RideStatusActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectRideDetails(rows)
}

// Search retrieves active rides with open seats matching the filters.
// Address filters are case-insensitive substring matches.
func (r *RideRepository) Search(ctx context.Context, filter repository.RideSearch) ([]*domain.RideDetail, error) {
	query := `
		SELECT ` + rideDetailColumns + `
		FROM rides r
		JOIN users u ON u.id = r.driver_id
		WHERE r.status = $1
		  AND r.available_seats > 0
		  AND ($2 = '' OR r.source_address ILIKE '%' || $2 || '%')
		  AND ($3 = '' OR r.destination_address ILIKE '%' || $3 || '%')
		  AND ($4::timestamptz IS NULL OR (r.ride_date >= $4 AND r.ride_date < $4 + interval '1 day'))
		ORDER BY r.ride_date, r.departure_time
	`

	var date sql.NullTime
	if !filter.Date.IsZero() {
		date = sql.NullTime{Time: filter.Date, Valid: true}
	}

	rows, err := r.q.QueryContext(ctx, query,
		domain.RideStatusActive,
		filter.SourceAddress,
		filter.DestinationAddress,
		date,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectRideDetails(rows)
}

// GetByDriverID retrieves all rides posted by a driver, newest first.
func (r *RideRepository) GetByDriverID(ctx context.Context, driverID string) ([]*domain.Ride, error) {
	query := `
		SELECT ` + rideColumns + `
		FROM rides WHERE driver_id = $1
		ORDER BY ride_date DESC, created_at DESC
	`

	rows, err := r.q.QueryContext(ctx, query, driverID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rides []*domain.Ride
	for rows.Next() {
		ride, err := scanRide(rows)
		if err != nil {
			return nil, err
		}
		rides = append(rides, ride)
	}
	return rides, rows.Err()
}

// Update updates an existing ride.
func (r *RideRepository) Update(ctx context.Context, ride *domain.Ride) error {
	query := `
		UPDATE rides
		SET source_address = $1, source_lat = $2, source_lng = $3,
		    destination_address = $4, destination_lat = $5, destination_lng = $6,
		    ride_date = $7, departure_time = $8, total_seats = $9,
		    available_seats = $10, price_per_seat = $11, vehicle_model = $12,
		    vehicle_number = $13, vehicle_color = $14, status = $15, notes = $16
		WHERE id = $17
	`

	result, err := r.q.ExecContext(ctx, query,
		ride.Source.Address,
		ride.Source.Latitude,
		ride.Source.Longitude,
		ride.Destination.Address,
		ride.Destination.Latitude,
		ride.Destination.Longitude,
		ride.Date,
		ride.Time,
		ride.TotalSeats,
		ride.AvailableSeats,
		ride.PricePerSeat,
		nullString(ride.Vehicle.Model),
		nullString(ride.Vehicle.Number),
		nullString(ride.Vehicle.Color),
		ride.Status,
		nullString(ride.Notes),
		ride.ID,
	)
	if err != nil {
		return err
	}

	return requireRow(result)
}

// Delete removes a ride.
func (r *RideRepository) Delete(ctx context.Context, id string) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM rides WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireRow(result)
}

// ReserveSeats decrements the available seat count by count as a single
// conditional UPDATE. The statement both checks and mutates atomically, and
// the row lock it takes serializes every later read of the ride within the
// surrounding transaction.
func (r *RideRepository) ReserveSeats(ctx context.Context, id string, count int) error {
	query := `
		UPDATE rides
		SET available_seats = available_seats - $1
		WHERE id = $2 AND status = $3 AND available_seats >= $1
	`

	result, err := r.q.ExecContext(ctx, query, count, id, domain.RideStatusActive)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected > 0 {
		return nil
	}

	// Nothing changed; read the ride to diagnose which condition failed.
	ride, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if ride.Status != domain.RideStatusActive {
		return repository.ErrRideNotActive
	}
	return repository.ErrInsufficientSeats
}

// ReleaseSeats increments the available seat count by count, clamped at the
// ride's total seats.
func (r *RideRepository) ReleaseSeats(ctx context.Context, id string, count int) error {
	query := `
		UPDATE rides
		SET available_seats = LEAST(available_seats + $1, total_seats)
		WHERE id = $2
	`

	result, err := r.q.ExecContext(ctx, query, count, id)
	if err != nil {
		return err
	}
	return requireRow(result)
}

const rideDetailColumns = `
	r.id, r.driver_id, r.source_address, r.source_lat, r.source_lng,
	r.destination_address, r.destination_lat, r.destination_lng, r.ride_date,
	r.departure_time, r.total_seats, r.available_seats, r.price_per_seat,
	r.vehicle_model, r.vehicle_number, r.vehicle_color, r.status, r.notes, r.created_at,
	u.id, u.name, u.phone, u.email, u.college, u.rating
`

// scanner matches the Scan method shared by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRide(row scanner) (*domain.Ride, error) {
	var ride domain.Ride
	var model, number, color, notes sql.NullString

	err := row.Scan(
		&ride.ID,
		&ride.DriverID,
		&ride.Source.Address,
		&ride.Source.Latitude,
		&ride.Source.Longitude,
		&ride.Destination.Address,
		&ride.Destination.Latitude,
		&ride.Destination.Longitude,
		&ride.Date,
		&ride.Time,
		&ride.TotalSeats,
		&ride.AvailableSeats,
		&ride.PricePerSeat,
		&model,
		&number,
		&color,
		&ride.Status,
		&notes,
		&ride.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	ride.Vehicle.Model = model.String
	ride.Vehicle.Number = number.String
	ride.Vehicle.Color = color.String
	ride.Notes = notes.String

	return &ride, nil
}

func scanRideDetail(row scanner) (*domain.RideDetail, error) {
	var detail domain.RideDetail
	var model, number, color, notes sql.NullString

	err := row.Scan(
		&detail.ID,
		&detail.DriverID,
		&detail.Source.Address,
		&detail.Source.Latitude,
		&detail.Source.Longitude,
		&detail.Destination.Address,
		&detail.Destination.Latitude,
		&detail.Destination.Longitude,
		&detail.Date,
		&detail.Time,
		&detail.TotalSeats,
		&detail.AvailableSeats,
		&detail.PricePerSeat,
		&model,
		&number,
		&color,
		&detail.Status,
		&notes,
		&detail.CreatedAt,
		&detail.Driver.ID,
		&detail.Driver.Name,
		&detail.Driver.Phone,
		&detail.Driver.Email,
		&detail.Driver.College,
		&detail.Driver.Rating,
	)
	if err != nil {
		return nil, err
	}

	detail.Vehicle.Model = model.String
	detail.Vehicle.Number = number.String
	detail.Vehicle.Color = color.String
	detail.Notes = notes.String

	return &detail, nil
}

func collectRideDetails(rows *sql.Rows) ([]*domain.RideDetail, error) {
	var details []*domain.RideDetail
	for rows.Next() {
		detail, err := scanRideDetail(rows)
		if err != nil {
			return nil, err
		}
		details = append(details, detail)
	}
	return details, rows.Err()
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func requireRow(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"unilift/internal/domain"
	"unilift/internal/redis"
	"unilift/internal/repository"
)

// RideService is the ride inventory manager. It owns ride records and
// enforces creation, update, cancellation, and deletion rules. The seat
// counter itself is mutated only through the ride repository's
// ReserveSeats/ReleaseSeats, which both services reach through the store.
type RideService struct {
	store  repository.Store
	cache  redis.CacheStoreInterface
	policy Policy
	logger *zap.Logger
}

// NewRideService creates a new RideService. The cache is optional.
func NewRideService(store repository.Store, cache redis.CacheStoreInterface, logger *zap.Logger) *RideService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RideService{
		store:  store,
		cache:  cache,
		policy: OwnerOnly,
		logger: logger,
	}
}

// CreateRideRequest contains the parameters for posting a ride.
type CreateRideRequest struct {
	DriverID     string
	Source       domain.Location
	Destination  domain.Location
	Date         time.Time
	Time         string
	TotalSeats   int
	PricePerSeat float64
	Vehicle      domain.Vehicle
	Notes        string
}

// CreateRide posts a new ride with the full seat inventory open.
func (s *RideService) CreateRide(ctx context.Context, req CreateRideRequest) (*domain.RideDetail, error) {
	if err := s.validateCreateRequest(req); err != nil {
		return nil, err
	}

	ride := &domain.Ride{
		ID:             uuid.New().String(),
		DriverID:       req.DriverID,
		Source:         req.Source,
		Destination:    req.Destination,
		Date:           req.Date,
		Time:           req.Time,
		TotalSeats:     req.TotalSeats,
		AvailableSeats: req.TotalSeats,
		PricePerSeat:   req.PricePerSeat,
		Vehicle:        req.Vehicle,
		Status:         domain.RideStatusActive,
		CreatedAt:      time.Now(),
		Notes:          req.Notes,
	}

	if err := s.store.Rides().Create(ctx, ride); err != nil {
		return nil, err
	}

	s.logger.Info("ride posted",
		zap.String("ride_id", ride.ID),
		zap.String("driver_id", ride.DriverID),
		zap.Int("total_seats", ride.TotalSeats),
	)

	return s.store.Rides().GetDetailByID(ctx, ride.ID)
}

// GetRide retrieves a ride joined with its driver summary.
func (s *RideService) GetRide(ctx context.Context, rideID string) (*domain.RideDetail, error) {
	if rideID == "" {
		return nil, ErrInvalidRideID
	}

	detail, err := s.store.Rides().GetDetailByID(ctx, rideID)
	if err != nil {
		return nil, err
	}

	s.cacheRide(ctx, &detail.Ride)

	return detail, nil
}

// GetActiveRides retrieves all active rides, soonest first.
func (s *RideService) GetActiveRides(ctx context.Context) ([]*domain.RideDetail, error) {
	return s.store.Rides().GetActive(ctx)
}

// SearchRides retrieves active rides with open seats matching the filters.
func (s *RideService) SearchRides(ctx context.Context, filter repository.RideSearch) ([]*domain.RideDetail, error) {
	return s.store.Rides().Search(ctx, filter)
}

// GetRidesByDriver retrieves all rides posted by the driver, newest first.
func (s *RideService) GetRidesByDriver(ctx context.Context, driverID string) ([]*domain.Ride, error) {
	if driverID == "" {
		return nil, ErrInvalidUserID
	}
	return s.store.Rides().GetByDriverID(ctx, driverID)
}

// UpdateRideRequest contains the patch for editing a ride. Nil fields are
// left unchanged.
type UpdateRideRequest struct {
	RideID       string
	DriverID     string
	Source       *domain.Location
	Destination  *domain.Location
	Date         *time.Time
	Time         *string
	TotalSeats   *int
	PricePerSeat *float64
	Vehicle      *domain.Vehicle
	Notes        *string
}

// UpdateRide applies field changes to a ride owned by the caller. A change
// to the seat total shifts the available count by the same delta and is
// refused if that would drop availability below zero.
func (s *RideService) UpdateRide(ctx context.Context, req UpdateRideRequest) (*domain.RideDetail, error) {
	if req.RideID == "" {
		return nil, ErrInvalidRideID
	}

	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		// The row lock holds until commit. Update writes available_seats
		// back, so the read it patches from must exclude concurrent
		// reservations or their decrement would be overwritten.
		ride, err := tx.Rides().GetByIDForUpdate(ctx, req.RideID)
		if err != nil {
			return err
		}

		if !s.policy(req.DriverID, ride.DriverID) {
			return ErrNotRideOwner
		}

		if err := applyRidePatch(ride, req); err != nil {
			return err
		}

		return tx.Rides().Update(ctx, ride)
	})
	if err != nil {
		return nil, err
	}

	s.invalidateRide(ctx, req.RideID)

	return s.store.Rides().GetDetailByID(ctx, req.RideID)
}

// CancelRide sets the ride to cancelled and cancels its confirmed bookings
// in the same transaction, so no confirmed booking can reference a ride that
// is no longer active.
func (s *RideService) CancelRide(ctx context.Context, rideID, driverID string) (*domain.Ride, error) {
	if rideID == "" {
		return nil, ErrInvalidRideID
	}

	var cancelled *domain.Ride
	var cascaded int

	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		// Locked read: the status check and the full-row write below must
		// see a seat counter no reservation can move underneath them.
		ride, err := tx.Rides().GetByIDForUpdate(ctx, rideID)
		if err != nil {
			return err
		}

		if !s.policy(driverID, ride.DriverID) {
			return ErrNotRideOwner
		}

		if ride.Status == domain.RideStatusCancelled {
			return ErrRideAlreadyCancelled
		}

		ride.Status = domain.RideStatusCancelled
		if err := tx.Rides().Update(ctx, ride); err != nil {
			return err
		}

		cascaded, err = tx.Bookings().CancelConfirmedByRideID(ctx, rideID)
		if err != nil {
			return err
		}

		cancelled = ride
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateRide(ctx, rideID)

	s.logger.Info("ride cancelled",
		zap.String("ride_id", rideID),
		zap.Int("bookings_cancelled", cascaded),
	)

	return cancelled, nil
}

// DeleteRide removes a ride owned by the caller. Deletion is refused while
// confirmed bookings exist; otherwise the ride's remaining booking records
// go with it.
func (s *RideService) DeleteRide(ctx context.Context, rideID, driverID string) error {
	if rideID == "" {
		return ErrInvalidRideID
	}

	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		// Locked read: a reservation racing this delete either commits
		// first and raises the confirmed count below, or blocks on the row
		// until the ride is gone.
		ride, err := tx.Rides().GetByIDForUpdate(ctx, rideID)
		if err != nil {
			return err
		}

		if !s.policy(driverID, ride.DriverID) {
			return ErrNotRideOwner
		}

		confirmed, err := tx.Bookings().CountConfirmedByRideID(ctx, rideID)
		if err != nil {
			return err
		}
		if confirmed > 0 {
			return ErrRideHasBookings
		}

		if err := tx.Bookings().DeleteByRideID(ctx, rideID); err != nil {
			return err
		}

		return tx.Rides().Delete(ctx, rideID)
	})
	if err != nil {
		return err
	}

	s.invalidateRide(ctx, rideID)

	s.logger.Info("ride deleted", zap.String("ride_id", rideID))

	return nil
}

func (s *RideService) validateCreateRequest(req CreateRideRequest) error {
	if req.DriverID == "" {
		return ErrInvalidUserID
	}

	if req.TotalSeats < domain.MinSeats || req.TotalSeats > domain.MaxSeats {
		return ErrInvalidSeatCount
	}

	if req.PricePerSeat < 0 {
		return ErrInvalidPricePerSeat
	}

	if req.Source.Address == "" || req.Destination.Address == "" {
		return ErrMissingAddress
	}

	if !validLocation(req.Source) || !validLocation(req.Destination) {
		return ErrInvalidCoordinates
	}

	if req.Date.IsZero() {
		return ErrMissingRideDate
	}

	if req.Time == "" {
		return ErrMissingDepartureTime
	}

	if len(req.Notes) > domain.MaxNotesLen {
		return ErrNotesTooLong
	}

	return nil
}

func applyRidePatch(ride *domain.Ride, req UpdateRideRequest) error {
	if req.Source != nil {
		if req.Source.Address == "" {
			return ErrMissingAddress
		}
		if !validLocation(*req.Source) {
			return ErrInvalidCoordinates
		}
		ride.Source = *req.Source
	}

	if req.Destination != nil {
		if req.Destination.Address == "" {
			return ErrMissingAddress
		}
		if !validLocation(*req.Destination) {
			return ErrInvalidCoordinates
		}
		ride.Destination = *req.Destination
	}

	if req.Date != nil {
		if req.Date.IsZero() {
			return ErrMissingRideDate
		}
		ride.Date = *req.Date
	}

	if req.Time != nil {
		if *req.Time == "" {
			return ErrMissingDepartureTime
		}
		ride.Time = *req.Time
	}

	if req.PricePerSeat != nil {
		if *req.PricePerSeat < 0 {
			return ErrInvalidPricePerSeat
		}
		ride.PricePerSeat = *req.PricePerSeat
	}

	if req.TotalSeats != nil {
		newTotal := *req.TotalSeats
		if newTotal < domain.MinSeats || newTotal > domain.MaxSeats {
			return ErrInvalidSeatCount
		}

		// Shift availability by the seat-total delta; booked seats stay booked.
		newAvailable := ride.AvailableSeats + (newTotal - ride.TotalSeats)
		if newAvailable < 0 {
			return ErrSeatsBelowBooked
		}

		ride.TotalSeats = newTotal
		ride.AvailableSeats = newAvailable
	}

	if req.Vehicle != nil {
		ride.Vehicle = *req.Vehicle
	}

	if req.Notes != nil {
		if len(*req.Notes) > domain.MaxNotesLen {
			return ErrNotesTooLong
		}
		ride.Notes = *req.Notes
	}

	return nil
}

func validLocation(loc domain.Location) bool {
	return isValidLatitude(loc.Latitude) && isValidLongitude(loc.Longitude)
}

func isValidLatitude(lat float64) bool {
	return lat >= -90 && lat <= 90
}

func isValidLongitude(lng float64) bool {
	return lng >= -180 && lng <= 180
}

func (s *RideService) cacheRide(ctx context.Context, ride *domain.Ride) {
	if s.cache == nil {
		return
	}
	_ = s.cache.SetRide(ctx, &redis.CachedRide{
		ID:             ride.ID,
		DriverID:       ride.DriverID,
		Status:         string(ride.Status),
		TotalSeats:     ride.TotalSeats,
		AvailableSeats: ride.AvailableSeats,
		PricePerSeat:   ride.PricePerSeat,
	})
}

func (s *RideService) invalidateRide(ctx context.Context, rideID string) {
	if s.cache == nil {
		return
	}
	_ = s.cache.InvalidateRide(ctx, rideID)
}

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

// rideLockTTL bounds how long a booking may hold the per-ride lock.
const rideLockTTL = 10 * time.Second

// BookingService is the booking lifecycle manager. It owns booking records,
// drives the confirmed -> cancelled / confirmed -> completed state machine,
// and coordinates seat-count mutation and rating aggregation. Every
// multi-entity write runs inside one store transaction.
type BookingService struct {
	store  repository.Store
	locks  redis.LockStoreInterface
	cache  redis.CacheStoreInterface
	policy Policy
	logger *zap.Logger
}

// NewBookingService creates a new BookingService. Lock and cache stores are
// optional; correctness never depends on them.
func NewBookingService(
	store repository.Store,
	locks redis.LockStoreInterface,
	cache redis.CacheStoreInterface,
	logger *zap.Logger,
) *BookingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BookingService{
		store:  store,
		locks:  locks,
		cache:  cache,
		policy: OwnerOnly,
		logger: logger,
	}
}

// CreateBookingRequest contains the parameters for booking seats on a ride.
type CreateBookingRequest struct {
	RiderID     string
	RideID      string
	SeatsBooked int
	PickupPoint domain.Location
}

// CreateBooking reserves seats on a ride for the rider. The booking insert
// and the seat decrement are one transaction: the conditional decrement
// checks and mutates the counter atomically, and the row lock it takes
// serializes the duplicate check that follows, so two racing bookings can
// never both pass.
func (s *BookingService) CreateBooking(ctx context.Context, req CreateBookingRequest) (*domain.BookingDetail, error) {
	if req.RiderID == "" {
		return nil, ErrInvalidUserID
	}
	if req.RideID == "" {
		return nil, ErrInvalidRideID
	}
	if req.SeatsBooked < 1 {
		return nil, ErrInvalidSeatsRequested
	}

	// Fast-fail on a cached inactive ride. Ride status only ever moves away
	// from active, so a stale "active" snapshot just falls through to the
	// authoritative checks below.
	if s.cache != nil {
		if cached, err := s.cache.GetRide(ctx, req.RideID); err == nil && cached != nil {
			if cached.Status != string(domain.RideStatusActive) {
				return nil, repository.ErrRideNotActive
			}
		}
	}

	// Best-effort per-ride lock to shed contention on hot rides. If it is
	// unavailable the transaction below still serializes on the ride row.
	if s.locks != nil {
		if locked, err := s.locks.AcquireRideLock(ctx, req.RideID, rideLockTTL); err == nil && locked {
			defer func() {
				_ = s.locks.ReleaseRideLock(ctx, req.RideID)
			}()
		}
	}

	booking := &domain.Booking{
		ID:          uuid.New().String(),
		RideID:      req.RideID,
		RiderID:     req.RiderID,
		SeatsBooked: req.SeatsBooked,
		Status:      domain.BookingStatusConfirmed,
		PickupPoint: req.PickupPoint,
		CreatedAt:   time.Now(),
	}

	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		ride, err := tx.Rides().GetByID(ctx, req.RideID)
		if err != nil {
			return err
		}

		if ride.Status != domain.RideStatusActive {
			return repository.ErrRideNotActive
		}

		if req.SeatsBooked > ride.AvailableSeats {
			return repository.ErrInsufficientSeats
		}

		if s.policy(req.RiderID, ride.DriverID) {
			return ErrOwnRideBooking
		}

		// The authoritative seat check. From here on the ride row is locked
		// until commit.
		if err := tx.Rides().ReserveSeats(ctx, req.RideID, req.SeatsBooked); err != nil {
			return err
		}

		exists, err := tx.Bookings().HasActiveByRideAndRider(ctx, req.RideID, req.RiderID)
		if err != nil {
			return err
		}
		if exists {
			return ErrDuplicateBooking
		}

		return tx.Bookings().Create(ctx, booking)
	})
	if err != nil {
		return nil, err
	}

	s.invalidateRide(ctx, req.RideID)

	s.logger.Info("booking confirmed",
		zap.String("booking_id", booking.ID),
		zap.String("ride_id", req.RideID),
		zap.String("rider_id", req.RiderID),
		zap.Int("seats", req.SeatsBooked),
	)

	return s.store.Bookings().GetDetailByID(ctx, booking.ID)
}

// CancelBooking cancels the rider's booking and returns the reserved seats
// to the ride's inventory in the same transaction.
func (s *BookingService) CancelBooking(ctx context.Context, bookingID, requesterID string) (*domain.Booking, error) {
	if bookingID == "" {
		return nil, ErrInvalidBookingID
	}

	var cancelled *domain.Booking

	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		booking, err := tx.Bookings().GetByID(ctx, bookingID)
		if err != nil {
			return err
		}

		if !s.policy(requesterID, booking.RiderID) {
			return ErrNotBookingOwner
		}

		// The conditional flip is the authoritative guard: of two racing
		// cancels only one changes the row, so the seats below are
		// released exactly once.
		won, err := tx.Bookings().CancelByID(ctx, bookingID)
		if err != nil {
			return err
		}
		if !won {
			return ErrBookingAlreadyCancelled
		}

		if err := tx.Rides().ReleaseSeats(ctx, booking.RideID, booking.SeatsBooked); err != nil {
			return err
		}

		booking.Status = domain.BookingStatusCancelled
		cancelled = booking
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateRide(ctx, cancelled.RideID)

	s.logger.Info("booking cancelled",
		zap.String("booking_id", bookingID),
		zap.Int("seats_released", cancelled.SeatsBooked),
	)

	return cancelled, nil
}

// RateBookingRequest contains the parameters for rating a completed ride.
type RateBookingRequest struct {
	BookingID   string
	RequesterID string
	Rating      int
	Feedback    string
}

// RateBooking moves a confirmed booking to completed and folds the rating
// into the driver's aggregate, all in one transaction. Rating is a one-shot
// transition: completed and cancelled bookings are rejected, so repeat calls
// cannot skew the driver's running mean.
func (s *BookingService) RateBooking(ctx context.Context, req RateBookingRequest) (*domain.Booking, error) {
	if req.BookingID == "" {
		return nil, ErrInvalidBookingID
	}
	if req.Rating < domain.MinRating || req.Rating > domain.MaxRating {
		return nil, ErrInvalidRating
	}
	if len(req.Feedback) > domain.MaxFeedbackLen {
		return nil, ErrFeedbackTooLong
	}

	var rated *domain.Booking
	var driverID string

	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		booking, err := tx.Bookings().GetByID(ctx, req.BookingID)
		if err != nil {
			return err
		}

		if !s.policy(req.RequesterID, booking.RiderID) {
			return ErrNotBookingOwner
		}

		// The conditional flip gates the aggregate update: of two racing
		// submissions only one wins the confirmed→completed transition,
		// so the rating folds into the driver's mean exactly once. The
		// loser re-reads the row to diagnose which terminal state beat it.
		won, err := tx.Bookings().CompleteWithRating(ctx, req.BookingID, req.Rating, req.Feedback)
		if err != nil {
			return err
		}
		if !won {
			current, err := tx.Bookings().GetByID(ctx, req.BookingID)
			if err != nil {
				return err
			}
			if current.Status == domain.BookingStatusCancelled {
				return ErrBookingCancelled
			}
			return ErrBookingAlreadyRated
		}

		ride, err := tx.Rides().GetByID(ctx, booking.RideID)
		if err != nil {
			return err
		}

		if err := tx.Users().ApplyRating(ctx, ride.DriverID, req.Rating); err != nil {
			return err
		}

		booking.Rating = req.Rating
		booking.Feedback = req.Feedback
		booking.Status = domain.BookingStatusCompleted
		rated = booking
		driverID = ride.DriverID
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("booking rated",
		zap.String("booking_id", req.BookingID),
		zap.String("driver_id", driverID),
		zap.Int("rating", req.Rating),
	)

	return rated, nil
}

// GetBooking retrieves a booking joined with its ride and both party
// summaries.
func (s *BookingService) GetBooking(ctx context.Context, bookingID string) (*domain.BookingDetail, error) {
	if bookingID == "" {
		return nil, ErrInvalidBookingID
	}
	return s.store.Bookings().GetDetailByID(ctx, bookingID)
}

// GetBookingsForRider retrieves the rider's bookings, newest first.
func (s *BookingService) GetBookingsForRider(ctx context.Context, riderID string) ([]*domain.BookingDetail, error) {
	if riderID == "" {
		return nil, ErrInvalidUserID
	}
	return s.store.Bookings().GetByRiderID(ctx, riderID)
}

// GetBookingsForDriver retrieves all bookings against the driver's rides,
// newest first.
func (s *BookingService) GetBookingsForDriver(ctx context.Context, driverID string) ([]*domain.BookingDetail, error) {
	if driverID == "" {
		return nil, ErrInvalidUserID
	}
	return s.store.Bookings().GetByDriverID(ctx, driverID)
}

func (s *BookingService) invalidateRide(ctx context.Context, rideID string) {
	if s.cache == nil {
		return
	}
	_ = s.cache.InvalidateRide(ctx, rideID)
}

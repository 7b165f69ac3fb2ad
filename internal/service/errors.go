package service

import "errors"

var (
	// ErrInvalidUserID is returned when a caller identifier is empty.
	ErrInvalidUserID = errors.New("invalid user id")

	// ErrInvalidRideID is returned when ride ID is empty.
	ErrInvalidRideID = errors.New("invalid ride id")

	// ErrInvalidBookingID is returned when booking ID is empty.
	ErrInvalidBookingID = errors.New("invalid booking id")

	// ErrInvalidSeatCount is returned when total seats is outside [1,7].
	ErrInvalidSeatCount = errors.New("total seats must be between 1 and 7")

	// ErrInvalidPricePerSeat is returned when price per seat is negative.
	ErrInvalidPricePerSeat = errors.New("price per seat must not be negative")

	// ErrMissingAddress is returned when a source or destination address is empty.
	ErrMissingAddress = errors.New("source and destination addresses are required")

	// ErrInvalidCoordinates is returned when coordinates are out of range.
	ErrInvalidCoordinates = errors.New("invalid coordinates")

	// ErrMissingRideDate is returned when the ride date is missing.
	ErrMissingRideDate = errors.New("ride date is required")

	// ErrMissingDepartureTime is returned when the departure time is missing.
	ErrMissingDepartureTime = errors.New("departure time is required")

	// ErrNotesTooLong is returned when ride notes exceed the limit.
	ErrNotesTooLong = errors.New("notes must be at most 500 characters")

	// ErrNotRideOwner is returned when a caller tries to modify someone
	// else's ride.
	ErrNotRideOwner = errors.New("not the owner of this ride")

	// ErrNotBookingOwner is returned when a caller tries to act on someone
	// else's booking.
	ErrNotBookingOwner = errors.New("not the owner of this booking")

	// ErrRideAlreadyCancelled is returned when cancelling an already
	// cancelled ride.
	ErrRideAlreadyCancelled = errors.New("ride already cancelled")

	// ErrRideHasBookings is returned when deleting a ride that still has
	// confirmed bookings.
	ErrRideHasBookings = errors.New("ride has confirmed bookings")

	// ErrSeatsBelowBooked is returned when a seat-count edit would drop
	// available seats below zero.
	ErrSeatsBelowBooked = errors.New("cannot reduce total seats below booked seats")

	// ErrInvalidSeatsRequested is returned when a booking requests fewer
	// than one seat.
	ErrInvalidSeatsRequested = errors.New("seats booked must be at least 1")

	// ErrOwnRideBooking is returned when a driver tries to book their own ride.
	ErrOwnRideBooking = errors.New("cannot book your own ride")

	// ErrDuplicateBooking is returned when the rider already holds a
	// non-cancelled booking on the ride.
	ErrDuplicateBooking = errors.New("already have a booking for this ride")

	// ErrBookingAlreadyCancelled is returned when cancelling an already
	// cancelled booking.
	ErrBookingAlreadyCancelled = errors.New("booking already cancelled")

	// ErrBookingAlreadyRated is returned when rating a completed booking a
	// second time.
	ErrBookingAlreadyRated = errors.New("booking already rated")

	// ErrBookingCancelled is returned when rating a cancelled booking.
	ErrBookingCancelled = errors.New("cannot rate a cancelled booking")

	// ErrInvalidRating is returned when a rating is outside [1,5].
	ErrInvalidRating = errors.New("rating must be between 1 and 5")

	// ErrFeedbackTooLong is returned when feedback exceeds the limit.
	ErrFeedbackTooLong = errors.New("feedback must be at most 500 characters")
)

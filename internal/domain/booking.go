package domain

import "time"

// BookingStatus represents the current status of a booking.
// Bookings are created confirmed and end in exactly one terminal state:
// cancelled (seats released) or completed (rated, nothing released).
type BookingStatus string

const (
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCompleted BookingStatus = "completed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// Rating bounds for a completed booking.
const (
	MinRating = 1
	MaxRating = 5
)

// MaxFeedbackLen bounds the free-text feedback on a rated booking.
const MaxFeedbackLen = 500

// Booking represents a rider's reservation against a ride's seat inventory.
// Invariant: at most one non-cancelled booking per (ride, rider) pair.
type Booking struct {
	ID          string
	RideID      string
	RiderID     string
	SeatsBooked int
	Status      BookingStatus
	PickupPoint Location
	Rating      int // 1-5 once rated, 0 otherwise.
	Feedback    string
	CreatedAt   time.Time
}

// BookingDetail is a booking joined with its ride and both party summaries.
type BookingDetail struct {
	Booking
	Ride   Ride
	Rider  UserSummary
	Driver UserSummary
}

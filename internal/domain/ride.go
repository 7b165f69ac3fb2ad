package domain

import "time"

// RideStatus represents the current status of a posted ride.
type RideStatus string

const (
	RideStatusActive    RideStatus = "active"
	RideStatusCompleted RideStatus = "completed"
	RideStatusCancelled RideStatus = "cancelled"
)

// Seat inventory bounds for a posted ride.
const (
	MinSeats = 1
	MaxSeats = 7
)

// MaxNotesLen bounds the free-text notes on a posted ride.
const MaxNotesLen = 500

// Location is an address with coordinates.
type Location struct {
	Address   string
	Latitude  float64
	Longitude float64
}

// Vehicle holds the driver's vehicle details for a ride.
type Vehicle struct {
	Model  string
	Number string
	Color  string
}

// Ride represents a driver-posted trip offering with a seat inventory.
// Invariant: 0 <= AvailableSeats <= TotalSeats at all times. The seat counter
// is mutated only through the ride repository's ReserveSeats/ReleaseSeats.
type Ride struct {
	ID             string
	DriverID       string
	Source         Location
	Destination    Location
	Date           time.Time
	Time           string // Departure time, "HH:MM".
	TotalSeats     int
	AvailableSeats int
	PricePerSeat   float64
	Vehicle        Vehicle
	Status         RideStatus
	Notes          string
	CreatedAt      time.Time
}

// RideDetail is a ride joined with its driver summary.
type RideDetail struct {
	Ride
	Driver UserSummary
}

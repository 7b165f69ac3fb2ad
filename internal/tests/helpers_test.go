package tests

import (
	"time"

	"unilift/internal/domain"
	"unilift/internal/service"
)

// fixture bundles the in-memory store, redis mocks, and both services the
// way wireServer assembles the real ones.
type fixture struct {
	store    *MockStore
	locks    *MockLockStore
	cache    *MockCacheStore
	rides    *service.RideService
	bookings *service.BookingService
}

func newFixture() *fixture {
	store := NewMockStore()
	locks := NewMockLockStore()
	cache := NewMockCacheStore()
	return &fixture{
		store:    store,
		locks:    locks,
		cache:    cache,
		rides:    service.NewRideService(store, cache, nil),
		bookings: service.NewBookingService(store, locks, cache, nil),
	}
}

func (f *fixture) seedUser(id string) *domain.User {
	user := &domain.User{
		ID:        id,
		Name:      "User " + id,
		Email:     id + "@campus.edu",
		Phone:     "5550000000",
		College:   "Engineering",
		CreatedAt: time.Now(),
	}
	f.store.UserRepo.AddUser(user)
	return user
}

func (f *fixture) seedActiveRide(id, driverID string, totalSeats, availableSeats int) *domain.Ride {
	ride := &domain.Ride{
		ID:             id,
		DriverID:       driverID,
		Source:         domain.Location{Address: "North Campus Gate", Latitude: 28.54, Longitude: 77.16},
		Destination:    domain.Location{Address: "City Railway Station", Latitude: 28.64, Longitude: 77.21},
		Date:           time.Now().Add(24 * time.Hour),
		Time:           "09:30",
		TotalSeats:     totalSeats,
		AvailableSeats: availableSeats,
		PricePerSeat:   50,
		Vehicle:        domain.Vehicle{Model: "Swift", Number: "DL 3C 1234", Color: "white"},
		Status:         domain.RideStatusActive,
		CreatedAt:      time.Now(),
	}
	f.store.RideRepo.AddRide(ride)
	return ride
}

func (f *fixture) seedBooking(id, rideID, riderID string, seats int, status domain.BookingStatus) *domain.Booking {
	booking := &domain.Booking{
		ID:          id,
		RideID:      rideID,
		RiderID:     riderID,
		SeatsBooked: seats,
		Status:      status,
		PickupPoint: domain.Location{Address: "Hostel Block C", Latitude: 28.545, Longitude: 77.165},
		CreatedAt:   time.Now(),
	}
	f.store.BookingRepo.AddBooking(booking)
	return booking
}

func validCreateRideRequest(driverID string) service.CreateRideRequest {
	return service.CreateRideRequest{
		DriverID:     driverID,
		Source:       domain.Location{Address: "North Campus Gate", Latitude: 28.54, Longitude: 77.16},
		Destination:  domain.Location{Address: "City Railway Station", Latitude: 28.64, Longitude: 77.21},
		Date:         time.Now().Add(24 * time.Hour),
		Time:         "09:30",
		TotalSeats:   4,
		PricePerSeat: 50,
		Vehicle:      domain.Vehicle{Model: "Swift", Number: "DL 3C 1234", Color: "white"},
	}
}

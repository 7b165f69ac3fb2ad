package tests

import (
	"context"
	"errors"
	"sync"
	"testing"

	"unilift/internal/domain"
	"unilift/internal/redis"
	"unilift/internal/repository"
	"unilift/internal/service"
)

// ──────────────────────────────────────────────
// 4. BOOKING CREATION
// ──────────────────────────────────────────────

func TestCreateBooking_DecrementsSeatInventory(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.seedUser("driver-1")
	f.seedUser("rider-1")
	f.seedActiveRide("ride-1", "driver-1", 4, 4)

	detail, err := f.bookings.CreateBooking(context.Background(), service.CreateBookingRequest{
		RiderID:     "rider-1",
		RideID:      "ride-1",
		SeatsBooked: 3,
		PickupPoint: domain.Location{Address: "Hostel Block C", Latitude: 28.545, Longitude: 77.165},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if detail.Status != domain.BookingStatusConfirmed {
		t.Errorf("expected status %s, got %s", domain.BookingStatusConfirmed, detail.Status)
	}
	if detail.SeatsBooked != 3 {
		t.Errorf("expected 3 seats booked, got %d", detail.SeatsBooked)
	}
	if detail.Rider.ID != "rider-1" || detail.Driver.ID != "driver-1" {
		t.Errorf("expected both party summaries, got rider=%s driver=%s",
			detail.Rider.ID, detail.Driver.ID)
	}

	if got := f.store.RideRepo.GetRide("ride-1").AvailableSeats; got != 1 {
		t.Errorf("expected 1 seat left, got %d", got)
	}
}

func TestCreateBooking_InsufficientSeats(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.seedUser("driver-1")
	f.seedUser("rider-1")
	f.seedActiveRide("ride-1", "driver-1", 4, 1)

	_, err := f.bookings.CreateBooking(context.Background(), service.CreateBookingRequest{
		RiderID:     "rider-1",
		RideID:      "ride-1",
		SeatsBooked: 2,
	})
	if !errors.Is(err, repository.ErrInsufficientSeats) {
		t.Fatalf("expected ErrInsufficientSeats, got %v", err)
	}

	if f.store.BookingRepo.CountBookings() != 0 {
		t.Error("failed booking must not be persisted")
	}
	if got := f.store.RideRepo.GetRide("ride-1").AvailableSeats; got != 1 {
		t.Errorf("failed booking must leave seats unchanged, got %d", got)
	}
}

func TestCreateBooking_RideNotActive(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.seedUser("driver-1")
	f.seedUser("rider-1")
	ride := f.seedActiveRide("ride-1", "driver-1", 4, 4)
	ride.Status = domain.RideStatusCancelled

	_, err := f.bookings.CreateBooking(context.Background(), service.CreateBookingRequest{
		RiderID:     "rider-1",
		RideID:      "ride-1",
		SeatsBooked: 1,
	})
	if !errors.Is(err, repository.ErrRideNotActive) {
		t.Fatalf("expected ErrRideNotActive, got %v", err)
	}
}

func TestCreateBooking_OwnRideRefused(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.seedUser("driver-1")
	f.seedActiveRide("ride-1", "driver-1", 4, 4)

	_, err := f.bookings.CreateBooking(context.Background(), service.CreateBookingRequest{
		RiderID:     "driver-1",
		RideID:      "ride-1",
		SeatsBooked: 1,
	})
	if !errors.Is(err, service.ErrOwnRideBooking) {
		t.Fatalf("expected ErrOwnRideBooking, got %v", err)
	}
}

func TestCreateBooking_DuplicateRefusedAndSeatsRestored(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.seedUser("driver-1")
	f.seedUser("rider-1")
	f.seedActiveRide("ride-1", "driver-1", 4, 4)

	req := service.CreateBookingRequest{
		RiderID:     "rider-1",
		RideID:      "ride-1",
		SeatsBooked: 1,
	}

	if _, err := f.bookings.CreateBooking(context.Background(), req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := f.bookings.CreateBooking(context.Background(), req)
	if !errors.Is(err, service.ErrDuplicateBooking) {
		t.Fatalf("expected ErrDuplicateBooking, got %v", err)
	}

	// The duplicate's seat reservation is part of the failed unit of work.
	if got := f.store.RideRepo.GetRide("ride-1").AvailableSeats; got != 3 {
		t.Errorf("expected 3 seats left after rollback, got %d", got)
	}
	if f.store.BookingRepo.CountBookings() != 1 {
		t.Errorf("expected 1 booking, got %d", f.store.BookingRepo.CountBookings())
	}
}

func TestCreateBooking_AllowedAgainAfterCancel(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.seedUser("driver-1")
	f.seedUser("rider-1")
	f.seedActiveRide("ride-1", "driver-1", 4, 4)

	req := service.CreateBookingRequest{
		RiderID:     "rider-1",
		RideID:      "ride-1",
		SeatsBooked: 2,
	}

	first, err := f.bookings.CreateBooking(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := f.bookings.CancelBooking(context.Background(), first.Booking.ID, "rider-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	second, err := f.bookings.CreateBooking(context.Background(), req)
	if err != nil {
		t.Fatalf("expected rebooking after cancel to succeed, got %v", err)
	}
	if second.Status != domain.BookingStatusConfirmed {
		t.Errorf("expected status %s, got %s", domain.BookingStatusConfirmed, second.Status)
	}
	if got := f.store.RideRepo.GetRide("ride-1").AvailableSeats; got != 2 {
		t.Errorf("expected 2 seats left, got %d", got)
	}
}

func TestCreateBooking_CachedInactiveRideFastFails(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.seedUser("driver-1")
	f.seedUser("rider-1")
	f.seedActiveRide("ride-1", "driver-1", 4, 4)

	// Cached snapshot says cancelled: the booking is refused before any
	// repository work happens.
	if err := f.cache.SetRide(context.Background(), &redis.CachedRide{
		ID:       "ride-1",
		DriverID: "driver-1",
		Status:   string(domain.RideStatusCancelled),
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := f.bookings.CreateBooking(context.Background(), service.CreateBookingRequest{
		RiderID:     "rider-1",
		RideID:      "ride-1",
		SeatsBooked: 1,
	})
	if !errors.Is(err, repository.ErrRideNotActive) {
		t.Fatalf("expected ErrRideNotActive, got %v", err)
	}
	if f.store.RideRepo.ReserveSeatsCallCount != 0 {
		t.Error("fast-fail path must not reach the seat counter")
	}
}

func TestCreateBooking_SucceedsWithoutRideLock(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.seedUser("driver-1")
	f.seedUser("rider-1")
	f.seedActiveRide("ride-1", "driver-1", 4, 4)
	f.locks.ForceAcquireFailure = true

	_, err := f.bookings.CreateBooking(context.Background(), service.CreateBookingRequest{
		RiderID:     "rider-1",
		RideID:      "ride-1",
		SeatsBooked: 1,
	})
	if err != nil {
		t.Fatalf("lock contention must not fail the booking: %v", err)
	}
}

func TestCreateBooking_Validation(t *testing.T) {
	t.Parallel()

	f := newFixture()

	cases := []struct {
		name    string
		req     service.CreateBookingRequest
		wantErr error
	}{
		{"missing rider", service.CreateBookingRequest{RideID: "ride-1", SeatsBooked: 1}, service.ErrInvalidUserID},
		{"missing ride", service.CreateBookingRequest{RiderID: "rider-1", SeatsBooked: 1}, service.ErrInvalidRideID},
		{"zero seats", service.CreateBookingRequest{RiderID: "rider-1", RideID: "ride-1"}, service.ErrInvalidSeatsRequested},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := f.bookings.CreateBooking(context.Background(), tc.req)
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("expected error %v, got %v", tc.wantErr, err)
			}
		})
	}
}

// ──────────────────────────────────────────────
// 5. BOOKING CANCELLATION
// ──────────────────────────────────────────────

func TestCancelBooking_ReleasesSeats(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.seedUser("driver-1")
	f.seedUser("rider-1")
	f.seedActiveRide("ride-1", "driver-1", 4, 1)
	f.seedBooking("booking-1", "ride-1", "rider-1", 3, domain.BookingStatusConfirmed)

	booking, err := f.bookings.CancelBooking(context.Background(), "booking-1", "rider-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if booking.Status != domain.BookingStatusCancelled {
		t.Errorf("expected status %s, got %s", domain.BookingStatusCancelled, booking.Status)
	}
	if got := f.store.RideRepo.GetRide("ride-1").AvailableSeats; got != 4 {
		t.Errorf("expected 4 seats after release, got %d", got)
	}
}

func TestCancelBooking_TwiceRefused(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.seedUser("driver-1")
	f.seedUser("rider-1")
	f.seedActiveRide("ride-1", "driver-1", 4, 1)
	f.seedBooking("booking-1", "ride-1", "rider-1", 3, domain.BookingStatusConfirmed)

	if _, err := f.bookings.CancelBooking(context.Background(), "booking-1", "rider-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := f.bookings.CancelBooking(context.Background(), "booking-1", "rider-1")
	if !errors.Is(err, service.ErrBookingAlreadyCancelled) {
		t.Fatalf("expected ErrBookingAlreadyCancelled, got %v", err)
	}

	// Seats must not be released twice.
	if got := f.store.RideRepo.GetRide("ride-1").AvailableSeats; got != 4 {
		t.Errorf("expected 4 seats, got %d", got)
	}
}

func TestCancelBooking_OnlyOwnerCanCancel(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.seedUser("driver-1")
	f.seedUser("rider-1")
	f.seedActiveRide("ride-1", "driver-1", 4, 1)
	f.seedBooking("booking-1", "ride-1", "rider-1", 3, domain.BookingStatusConfirmed)

	_, err := f.bookings.CancelBooking(context.Background(), "booking-1", "intruder")
	if !errors.Is(err, service.ErrNotBookingOwner) {
		t.Fatalf("expected ErrNotBookingOwner, got %v", err)
	}

	if f.store.BookingRepo.GetBooking("booking-1").Status != domain.BookingStatusConfirmed {
		t.Error("rejected cancellation must leave the booking confirmed")
	}
}

func TestCancelBooking_ConcurrentCancelsReleaseSeatsOnce(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.seedUser("driver-1")
	f.seedUser("rider-a")
	f.seedUser("rider-b")
	// Both riders hold 2 of the 4 seats; a double release of rider A's
	// booking would reopen seats rider B still occupies.
	f.seedActiveRide("ride-1", "driver-1", 4, 0)
	f.seedBooking("booking-a", "ride-1", "rider-a", 2, domain.BookingStatusConfirmed)
	f.seedBooking("booking-b", "ride-1", "rider-b", 2, domain.BookingStatusConfirmed)

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = f.bookings.CancelBooking(context.Background(), "booking-a", "rider-a")
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range results {
		if err == nil {
			successes++
		} else if !errors.Is(err, service.ErrBookingAlreadyCancelled) {
			t.Errorf("loser must fail with ErrBookingAlreadyCancelled, got %v", err)
		}
	}
	if successes != 1 {
		t.Fatalf("expected exactly 1 winning cancel, got %d", successes)
	}

	if got := f.store.RideRepo.GetRide("ride-1").AvailableSeats; got != 2 {
		t.Errorf("expected 2 seats released exactly once, got %d available", got)
	}
}

func TestCancelBooking_InterleavedStatusReadsCannotBothWin(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.seedBooking("booking-1", "ride-1", "rider-1", 2, domain.BookingStatusConfirmed)
	ctx := context.Background()
	repo := f.store.BookingRepo

	// Two cancels both read the booking as confirmed before either writes;
	// the conditional flip is what keeps the second from releasing again.
	first, err := repo.GetByID(ctx, "booking-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := repo.GetByID(ctx, "booking-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.Status != domain.BookingStatusConfirmed || second.Status != domain.BookingStatusConfirmed {
		t.Fatal("both reads should observe the confirmed booking")
	}

	won, err := repo.CancelByID(ctx, "booking-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !won {
		t.Fatal("first flip should win the transition")
	}

	won, err = repo.CancelByID(ctx, "booking-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if won {
		t.Error("second flip must report no transition despite its stale read")
	}
}

func TestCancelBooking_ReleaseClampedAtTotal(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.seedUser("driver-1")
	f.seedUser("rider-1")
	// Availability already back at total; releasing must not exceed it.
	f.seedActiveRide("ride-1", "driver-1", 4, 4)
	f.seedBooking("booking-1", "ride-1", "rider-1", 2, domain.BookingStatusConfirmed)

	if _, err := f.bookings.CancelBooking(context.Background(), "booking-1", "rider-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ride := f.store.RideRepo.GetRide("ride-1")
	if ride.AvailableSeats != ride.TotalSeats {
		t.Errorf("expected availability clamped at %d, got %d", ride.TotalSeats, ride.AvailableSeats)
	}
}

package tests

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"testing"

	"unilift/internal/domain"
	"unilift/internal/service"
)

// ──────────────────────────────────────────────
// 6. RATING AND DRIVER REPUTATION
// ──────────────────────────────────────────────

func TestRateBooking_CompletesAndSeedsDriverMean(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.seedUser("driver-1")
	f.seedUser("rider-1")
	f.seedActiveRide("ride-1", "driver-1", 4, 1)
	f.seedBooking("booking-1", "ride-1", "rider-1", 3, domain.BookingStatusConfirmed)

	booking, err := f.bookings.RateBooking(context.Background(), service.RateBookingRequest{
		BookingID:   "booking-1",
		RequesterID: "rider-1",
		Rating:      5,
		Feedback:    "smooth ride, on time",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if booking.Status != domain.BookingStatusCompleted {
		t.Errorf("expected status %s, got %s", domain.BookingStatusCompleted, booking.Status)
	}
	if booking.Rating != 5 {
		t.Errorf("expected rating 5, got %d", booking.Rating)
	}
	if booking.Feedback != "smooth ride, on time" {
		t.Errorf("unexpected feedback: %q", booking.Feedback)
	}

	driver := f.store.UserRepo.GetUser("driver-1")
	if driver.Rating != 5.0 || driver.TotalRatings != 1 {
		t.Errorf("expected driver (5.0, 1), got (%.2f, %d)", driver.Rating, driver.TotalRatings)
	}
}

func TestRateBooking_FoldsIntoRunningMean(t *testing.T) {
	t.Parallel()

	f := newFixture()
	driver := f.seedUser("driver-1")
	driver.Rating = 4.0
	driver.TotalRatings = 2
	f.seedUser("rider-1")
	f.seedActiveRide("ride-1", "driver-1", 4, 3)
	f.seedBooking("booking-1", "ride-1", "rider-1", 1, domain.BookingStatusConfirmed)

	if _, err := f.bookings.RateBooking(context.Background(), service.RateBookingRequest{
		BookingID:   "booking-1",
		RequesterID: "rider-1",
		Rating:      5,
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	updated := f.store.UserRepo.GetUser("driver-1")
	want := (4.0*2 + 5) / 3
	if math.Abs(updated.Rating-want) > 1e-9 {
		t.Errorf("expected driver rating %.4f, got %.4f", want, updated.Rating)
	}
	if updated.TotalRatings != 3 {
		t.Errorf("expected 3 total ratings, got %d", updated.TotalRatings)
	}
}

func TestRateBooking_TwiceRefused(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.seedUser("driver-1")
	f.seedUser("rider-1")
	f.seedActiveRide("ride-1", "driver-1", 4, 3)
	f.seedBooking("booking-1", "ride-1", "rider-1", 1, domain.BookingStatusConfirmed)

	req := service.RateBookingRequest{
		BookingID:   "booking-1",
		RequesterID: "rider-1",
		Rating:      4,
	}

	if _, err := f.bookings.RateBooking(context.Background(), req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	req.Rating = 1
	_, err := f.bookings.RateBooking(context.Background(), req)
	if !errors.Is(err, service.ErrBookingAlreadyRated) {
		t.Fatalf("expected ErrBookingAlreadyRated, got %v", err)
	}

	// The refused second rating must not skew the aggregate.
	driver := f.store.UserRepo.GetUser("driver-1")
	if driver.Rating != 4.0 || driver.TotalRatings != 1 {
		t.Errorf("expected driver (4.0, 1), got (%.2f, %d)", driver.Rating, driver.TotalRatings)
	}
}

func TestRateBooking_CancelledBookingRefused(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.seedUser("driver-1")
	f.seedUser("rider-1")
	f.seedActiveRide("ride-1", "driver-1", 4, 4)
	f.seedBooking("booking-1", "ride-1", "rider-1", 1, domain.BookingStatusCancelled)

	_, err := f.bookings.RateBooking(context.Background(), service.RateBookingRequest{
		BookingID:   "booking-1",
		RequesterID: "rider-1",
		Rating:      5,
	})
	if !errors.Is(err, service.ErrBookingCancelled) {
		t.Fatalf("expected ErrBookingCancelled, got %v", err)
	}
}

func TestRateBooking_RatingBounds(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.seedUser("driver-1")
	f.seedUser("rider-1")
	f.seedActiveRide("ride-1", "driver-1", 4, 3)
	f.seedBooking("booking-1", "ride-1", "rider-1", 1, domain.BookingStatusConfirmed)

	for _, rating := range []int{0, -1, 6, 100} {
		_, err := f.bookings.RateBooking(context.Background(), service.RateBookingRequest{
			BookingID:   "booking-1",
			RequesterID: "rider-1",
			Rating:      rating,
		})
		if !errors.Is(err, service.ErrInvalidRating) {
			t.Errorf("rating %d: expected ErrInvalidRating, got %v", rating, err)
		}
	}
}

func TestRateBooking_FeedbackTooLong(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.seedUser("driver-1")
	f.seedUser("rider-1")
	f.seedActiveRide("ride-1", "driver-1", 4, 3)
	f.seedBooking("booking-1", "ride-1", "rider-1", 1, domain.BookingStatusConfirmed)

	_, err := f.bookings.RateBooking(context.Background(), service.RateBookingRequest{
		BookingID:   "booking-1",
		RequesterID: "rider-1",
		Rating:      5,
		Feedback:    strings.Repeat("x", domain.MaxFeedbackLen+1),
	})
	if !errors.Is(err, service.ErrFeedbackTooLong) {
		t.Fatalf("expected ErrFeedbackTooLong, got %v", err)
	}
}

func TestRateBooking_OnlyOwnerCanRate(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.seedUser("driver-1")
	f.seedUser("rider-1")
	f.seedActiveRide("ride-1", "driver-1", 4, 3)
	f.seedBooking("booking-1", "ride-1", "rider-1", 1, domain.BookingStatusConfirmed)

	_, err := f.bookings.RateBooking(context.Background(), service.RateBookingRequest{
		BookingID:   "booking-1",
		RequesterID: "intruder",
		Rating:      5,
	})
	if !errors.Is(err, service.ErrNotBookingOwner) {
		t.Fatalf("expected ErrNotBookingOwner, got %v", err)
	}
}

func TestRateBooking_ConcurrentSubmissionsFoldOnce(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.seedUser("driver-1")
	f.seedUser("rider-1")
	f.seedActiveRide("ride-1", "driver-1", 4, 3)
	f.seedBooking("booking-1", "ride-1", "rider-1", 1, domain.BookingStatusConfirmed)

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = f.bookings.RateBooking(context.Background(), service.RateBookingRequest{
				BookingID:   "booking-1",
				RequesterID: "rider-1",
				Rating:      5,
			})
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range results {
		if err == nil {
			successes++
		} else if !errors.Is(err, service.ErrBookingAlreadyRated) {
			t.Errorf("loser must fail with ErrBookingAlreadyRated, got %v", err)
		}
	}
	if successes != 1 {
		t.Fatalf("expected exactly 1 winning submission, got %d", successes)
	}

	// A doubled fold would leave (5.0, 2).
	driver := f.store.UserRepo.GetUser("driver-1")
	if driver.Rating != 5.0 || driver.TotalRatings != 1 {
		t.Errorf("expected driver (5.0, 1), got (%.2f, %d)", driver.Rating, driver.TotalRatings)
	}
}

func TestRateBooking_StaleConfirmedReadCannotRateTwice(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.seedBooking("booking-1", "ride-1", "rider-1", 1, domain.BookingStatusConfirmed)
	ctx := context.Background()
	repo := f.store.BookingRepo

	// Two submissions both read the booking as confirmed; only the first
	// conditional transition may gate an aggregate update.
	won, err := repo.CompleteWithRating(ctx, "booking-1", 5, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !won {
		t.Fatal("first transition should win")
	}

	won, err = repo.CompleteWithRating(ctx, "booking-1", 1, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if won {
		t.Error("second transition must report no change")
	}

	booking := f.store.BookingRepo.GetBooking("booking-1")
	if booking.Rating != 5 {
		t.Errorf("losing submission must not overwrite the rating, got %d", booking.Rating)
	}
}

func TestRateBooking_RolledBackWhenAggregateUpdateFails(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.seedUser("driver-1")
	f.seedUser("rider-1")
	f.seedActiveRide("ride-1", "driver-1", 4, 3)
	f.seedBooking("booking-1", "ride-1", "rider-1", 1, domain.BookingStatusConfirmed)

	f.store.UserRepo.ApplyRatingError = ErrMockTimeout

	_, err := f.bookings.RateBooking(context.Background(), service.RateBookingRequest{
		BookingID:   "booking-1",
		RequesterID: "rider-1",
		Rating:      5,
	})
	if !errors.Is(err, ErrMockTimeout) {
		t.Fatalf("expected injected error, got %v", err)
	}

	// The status flip and the aggregate update are one unit of work.
	if got := f.store.BookingRepo.GetBooking("booking-1").Status; got != domain.BookingStatusConfirmed {
		t.Errorf("expected booking still confirmed after rollback, got %s", got)
	}
}

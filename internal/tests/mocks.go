package tests

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"unilift/internal/domain"
	"unilift/internal/redis"
	"unilift/internal/repository"
)

// ──────────────────────────────────────────────
// MOCK STORE
// ──────────────────────────────────────────────

// MockStore is an in-memory implementation of repository.Store. WithinTx
// serializes units of work behind a single mutex and restores a snapshot of
// all three repositories when fn fails, which is exactly the serialization
// and rollback a booking gets from the database's row lock in production.
type MockStore struct {
	txMu sync.Mutex

	UserRepo    *MockUserRepository
	RideRepo    *MockRideRepository
	BookingRepo *MockBookingRepository

	// Counters for verification
	WithinTxCallCount int32

	// Error injection
	WithinTxError error
}

// NewMockStore creates a mock store with empty repositories.
func NewMockStore() *MockStore {
	users := NewMockUserRepository()
	rides := NewMockRideRepository()
	bookings := NewMockBookingRepository()
	rides.users = users
	bookings.users = users
	bookings.rides = rides
	return &MockStore{
		UserRepo:    users,
		RideRepo:    rides,
		BookingRepo: bookings,
	}
}

func (m *MockStore) Users() repository.UserRepository       { return m.UserRepo }
func (m *MockStore) Rides() repository.RideRepository       { return m.RideRepo }
func (m *MockStore) Bookings() repository.BookingRepository { return m.BookingRepo }

func (m *MockStore) WithinTx(ctx context.Context, fn func(repository.Store) error) error {
	atomic.AddInt32(&m.WithinTxCallCount, 1)
	if m.WithinTxError != nil {
		return m.WithinTxError
	}

	m.txMu.Lock()
	defer m.txMu.Unlock()

	users := m.UserRepo.snapshot()
	rides := m.RideRepo.snapshot()
	bookings := m.BookingRepo.snapshot()

	if err := fn(m); err != nil {
		m.UserRepo.restore(users)
		m.RideRepo.restore(rides)
		m.BookingRepo.restore(bookings)
		return err
	}
	return nil
}

// ──────────────────────────────────────────────
// MOCK USER REPOSITORY
// ──────────────────────────────────────────────

// MockUserRepository is a mock implementation of UserRepository.
type MockUserRepository struct {
	mu    sync.RWMutex
	users map[string]*domain.User

	// Counters for verification
	CreateCallCount      int32
	ApplyRatingCallCount int32

	// Error injection
	CreateError      error
	ApplyRatingError error
}

// NewMockUserRepository creates a new mock user repository.
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		users: make(map[string]*domain.User),
	}
}

// AddUser adds a user to the mock repository.
func (m *MockUserRepository) AddUser(user *domain.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.ID] = user
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.ID] = user
	return nil
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	user, ok := m.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	// Return a copy to avoid mutation issues.
	copy := *user
	return &copy, nil
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Email == email {
			copy := *u
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockUserRepository) ApplyRating(ctx context.Context, id string, rating int) error {
	atomic.AddInt32(&m.ApplyRatingCallCount, 1)
	if m.ApplyRatingError != nil {
		return m.ApplyRatingError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	// Same running-mean recompute the SQL implementation performs.
	user.Rating = (user.Rating*float64(user.TotalRatings) + float64(rating)) / float64(user.TotalRatings+1)
	user.TotalRatings++
	return nil
}

// GetUser returns a user for test assertions.
func (m *MockUserRepository) GetUser(id string) *domain.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.users[id]
}

func (m *MockUserRepository) summary(id string) domain.UserSummary {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if u, ok := m.users[id]; ok {
		return u.Summary()
	}
	return domain.UserSummary{ID: id}
}

func (m *MockUserRepository) snapshot() map[string]*domain.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]*domain.User, len(m.users))
	for k, v := range m.users {
		copy := *v
		out[k] = &copy
	}
	return out
}

func (m *MockUserRepository) restore(users map[string]*domain.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users = users
}

// ──────────────────────────────────────────────
// MOCK RIDE REPOSITORY
// ──────────────────────────────────────────────

// MockRideRepository is a mock implementation of RideRepository.
type MockRideRepository struct {
	mu    sync.RWMutex
	rides map[string]*domain.Ride
	users *MockUserRepository

	// Counters for verification
	CreateCallCount       int32
	UpdateCallCount       int32
	GetForUpdateCallCount int32
	ReserveSeatsCallCount int32
	ReleaseSeatsCallCount int32

	// Error injection
	CreateError       error
	UpdateError       error
	ReserveSeatsError error
	ReleaseSeatsError error
}

// NewMockRideRepository creates a new mock ride repository.
func NewMockRideRepository() *MockRideRepository {
	return &MockRideRepository{
		rides: make(map[string]*domain.Ride),
	}
}

// AddRide adds a ride to the mock repository.
func (m *MockRideRepository) AddRide(ride *domain.Ride) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rides[ride.ID] = ride
}

func (m *MockRideRepository) Create(ctx context.Context, ride *domain.Ride) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rides[ride.ID] = ride
	return nil
}

func (m *MockRideRepository) GetByID(ctx context.Context, id string) (*domain.Ride, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ride, ok := m.rides[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	// Return a copy to avoid mutation issues.
	copy := *ride
	return &copy, nil
}

// GetByIDForUpdate behaves like GetByID; the store mutex already serializes
// whole units of work, which is the row lock's effect in production. The
// call counter lets tests assert that writers read through the locked path.
func (m *MockRideRepository) GetByIDForUpdate(ctx context.Context, id string) (*domain.Ride, error) {
	atomic.AddInt32(&m.GetForUpdateCallCount, 1)
	return m.GetByID(ctx, id)
}

func (m *MockRideRepository) GetDetailByID(ctx context.Context, id string) (*domain.RideDetail, error) {
	ride, err := m.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &domain.RideDetail{
		Ride:   *ride,
		Driver: m.users.summary(ride.DriverID),
	}, nil
}

func (m *MockRideRepository) GetActive(ctx context.Context) ([]*domain.RideDetail, error) {
	m.mu.RLock()
	ids := make([]string, 0, len(m.rides))
	for id, r := range m.rides {
		if r.Status == domain.RideStatusActive {
			ids = append(ids, id)
		}
	}
	m.mu.RUnlock()

	sort.Strings(ids)
	result := make([]*domain.RideDetail, 0, len(ids))
	for _, id := range ids {
		detail, err := m.GetDetailByID(ctx, id)
		if err != nil {
			return nil, err
		}
		result = append(result, detail)
	}
	return result, nil
}

func (m *MockRideRepository) Search(ctx context.Context, filter repository.RideSearch) ([]*domain.RideDetail, error) {
	active, err := m.GetActive(ctx)
	if err != nil {
		return nil, err
	}
	result := make([]*domain.RideDetail, 0, len(active))
	for _, d := range active {
		if d.AvailableSeats < 1 {
			continue
		}
		if filter.SourceAddress != "" && !containsFold(d.Source.Address, filter.SourceAddress) {
			continue
		}
		if filter.DestinationAddress != "" && !containsFold(d.Destination.Address, filter.DestinationAddress) {
			continue
		}
		if !filter.Date.IsZero() && !sameDay(d.Date, filter.Date) {
			continue
		}
		result = append(result, d)
	}
	return result, nil
}

func (m *MockRideRepository) GetByDriverID(ctx context.Context, driverID string) ([]*domain.Ride, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Ride, 0)
	for _, r := range m.rides {
		if r.DriverID == driverID {
			copy := *r
			result = append(result, &copy)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (m *MockRideRepository) Update(ctx context.Context, ride *domain.Ride) error {
	atomic.AddInt32(&m.UpdateCallCount, 1)
	if m.UpdateError != nil {
		return m.UpdateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rides[ride.ID]; !ok {
		return repository.ErrNotFound
	}
	copy := *ride
	m.rides[ride.ID] = &copy
	return nil
}

func (m *MockRideRepository) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rides[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.rides, id)
	return nil
}

// ReserveSeats performs the same conditional decrement the SQL
// implementation does, atomically under the repository mutex.
func (m *MockRideRepository) ReserveSeats(ctx context.Context, id string, count int) error {
	atomic.AddInt32(&m.ReserveSeatsCallCount, 1)
	if m.ReserveSeatsError != nil {
		return m.ReserveSeatsError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	ride, ok := m.rides[id]
	if !ok {
		return repository.ErrNotFound
	}
	if ride.Status != domain.RideStatusActive {
		return repository.ErrRideNotActive
	}
	if ride.AvailableSeats < count {
		return repository.ErrInsufficientSeats
	}
	ride.AvailableSeats -= count
	return nil
}

func (m *MockRideRepository) ReleaseSeats(ctx context.Context, id string, count int) error {
	atomic.AddInt32(&m.ReleaseSeatsCallCount, 1)
	if m.ReleaseSeatsError != nil {
		return m.ReleaseSeatsError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	ride, ok := m.rides[id]
	if !ok {
		return repository.ErrNotFound
	}
	ride.AvailableSeats += count
	if ride.AvailableSeats > ride.TotalSeats {
		ride.AvailableSeats = ride.TotalSeats
	}
	return nil
}

// GetRide returns the ride by ID (for test assertions).
func (m *MockRideRepository) GetRide(id string) *domain.Ride {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rides[id]
}

// CountRides returns the number of rides.
func (m *MockRideRepository) CountRides() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rides)
}

func (m *MockRideRepository) snapshot() map[string]*domain.Ride {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]*domain.Ride, len(m.rides))
	for k, v := range m.rides {
		copy := *v
		out[k] = &copy
	}
	return out
}

func (m *MockRideRepository) restore(rides map[string]*domain.Ride) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rides = rides
}

// ──────────────────────────────────────────────
// MOCK BOOKING REPOSITORY
// ──────────────────────────────────────────────

// MockBookingRepository is a mock implementation of BookingRepository.
type MockBookingRepository struct {
	mu       sync.RWMutex
	bookings map[string]*domain.Booking
	users    *MockUserRepository
	rides    *MockRideRepository

	// Counters for verification
	CreateCallCount             int32
	CancelByIDCallCount         int32
	CompleteWithRatingCallCount int32

	// Error injection
	CreateError             error
	CancelByIDError         error
	CompleteWithRatingError error
}

// NewMockBookingRepository creates a new mock booking repository.
func NewMockBookingRepository() *MockBookingRepository {
	return &MockBookingRepository{
		bookings: make(map[string]*domain.Booking),
	}
}

// AddBooking adds a booking to the mock repository.
func (m *MockBookingRepository) AddBooking(booking *domain.Booking) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bookings[booking.ID] = booking
}

func (m *MockBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bookings[booking.ID] = booking
	return nil
}

func (m *MockBookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	booking, ok := m.bookings[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *booking
	return &copy, nil
}

func (m *MockBookingRepository) GetDetailByID(ctx context.Context, id string) (*domain.BookingDetail, error) {
	booking, err := m.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return m.detail(booking)
}

func (m *MockBookingRepository) GetByRiderID(ctx context.Context, riderID string) ([]*domain.BookingDetail, error) {
	m.mu.RLock()
	matched := make([]*domain.Booking, 0)
	for _, b := range m.bookings {
		if b.RiderID == riderID {
			copy := *b
			matched = append(matched, &copy)
		}
	}
	m.mu.RUnlock()
	return m.details(matched)
}

func (m *MockBookingRepository) GetByDriverID(ctx context.Context, driverID string) ([]*domain.BookingDetail, error) {
	m.mu.RLock()
	matched := make([]*domain.Booking, 0)
	for _, b := range m.bookings {
		if ride := m.rides.GetRide(b.RideID); ride != nil && ride.DriverID == driverID {
			copy := *b
			matched = append(matched, &copy)
		}
	}
	m.mu.RUnlock()
	return m.details(matched)
}

func (m *MockBookingRepository) HasActiveByRideAndRider(ctx context.Context, rideID, riderID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, b := range m.bookings {
		if b.RideID == rideID && b.RiderID == riderID && b.Status != domain.BookingStatusCancelled {
			return true, nil
		}
	}
	return false, nil
}

// CancelByID performs the same conditional status flip the SQL
// implementation does, atomically under the repository mutex.
func (m *MockBookingRepository) CancelByID(ctx context.Context, id string) (bool, error) {
	atomic.AddInt32(&m.CancelByIDCallCount, 1)
	if m.CancelByIDError != nil {
		return false, m.CancelByIDError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	booking, ok := m.bookings[id]
	if !ok || booking.Status == domain.BookingStatusCancelled {
		return false, nil
	}
	booking.Status = domain.BookingStatusCancelled
	return true, nil
}

// CompleteWithRating flips confirmed→completed and stores the rating,
// atomically under the repository mutex.
func (m *MockBookingRepository) CompleteWithRating(ctx context.Context, id string, rating int, feedback string) (bool, error) {
	atomic.AddInt32(&m.CompleteWithRatingCallCount, 1)
	if m.CompleteWithRatingError != nil {
		return false, m.CompleteWithRatingError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	booking, ok := m.bookings[id]
	if !ok || booking.Status != domain.BookingStatusConfirmed {
		return false, nil
	}
	booking.Status = domain.BookingStatusCompleted
	booking.Rating = rating
	booking.Feedback = feedback
	return true, nil
}

func (m *MockBookingRepository) CancelConfirmedByRideID(ctx context.Context, rideID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, b := range m.bookings {
		if b.RideID == rideID && b.Status == domain.BookingStatusConfirmed {
			b.Status = domain.BookingStatusCancelled
			count++
		}
	}
	return count, nil
}

func (m *MockBookingRepository) CountConfirmedByRideID(ctx context.Context, rideID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for _, b := range m.bookings {
		if b.RideID == rideID && b.Status == domain.BookingStatusConfirmed {
			count++
		}
	}
	return count, nil
}

func (m *MockBookingRepository) DeleteByRideID(ctx context.Context, rideID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, b := range m.bookings {
		if b.RideID == rideID {
			delete(m.bookings, id)
		}
	}
	return nil
}

func (m *MockBookingRepository) detail(booking *domain.Booking) (*domain.BookingDetail, error) {
	ride := m.rides.GetRide(booking.RideID)
	if ride == nil {
		return nil, repository.ErrNotFound
	}
	return &domain.BookingDetail{
		Booking: *booking,
		Ride:    *ride,
		Rider:   m.users.summary(booking.RiderID),
		Driver:  m.users.summary(ride.DriverID),
	}, nil
}

func (m *MockBookingRepository) details(bookings []*domain.Booking) ([]*domain.BookingDetail, error) {
	sort.Slice(bookings, func(i, j int) bool {
		return bookings[i].CreatedAt.After(bookings[j].CreatedAt)
	})
	result := make([]*domain.BookingDetail, 0, len(bookings))
	for _, b := range bookings {
		d, err := m.detail(b)
		if err != nil {
			return nil, err
		}
		result = append(result, d)
	}
	return result, nil
}

// GetBooking returns a booking for test assertions.
func (m *MockBookingRepository) GetBooking(id string) *domain.Booking {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.bookings[id]
}

// CountBookings returns the number of bookings.
func (m *MockBookingRepository) CountBookings() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.bookings)
}

func (m *MockBookingRepository) snapshot() map[string]*domain.Booking {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]*domain.Booking, len(m.bookings))
	for k, v := range m.bookings {
		copy := *v
		out[k] = &copy
	}
	return out
}

func (m *MockBookingRepository) restore(bookings map[string]*domain.Booking) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bookings = bookings
}

// ──────────────────────────────────────────────
// MOCK LOCK STORE
// ──────────────────────────────────────────────

// MockLockStore is a mock implementation of LockStoreInterface.
type MockLockStore struct {
	mu    sync.Mutex
	locks map[string]time.Time

	// Counters
	AcquireCallCount int32
	ReleaseCallCount int32

	// Error injection
	AcquireError error

	// Force lock failure
	ForceAcquireFailure bool
}

// NewMockLockStore creates a new mock lock store.
func NewMockLockStore() *MockLockStore {
	return &MockLockStore{
		locks: make(map[string]time.Time),
	}
}

func (m *MockLockStore) AcquireRideLock(ctx context.Context, rideID string, ttl time.Duration) (bool, error) {
	atomic.AddInt32(&m.AcquireCallCount, 1)
	if m.AcquireError != nil {
		return false, m.AcquireError
	}
	if m.ForceAcquireFailure {
		return false, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	key := "lock:ride:" + rideID
	if expiry, exists := m.locks[key]; exists {
		if time.Now().Before(expiry) {
			return false, nil // Lock still held.
		}
	}

	m.locks[key] = time.Now().Add(ttl)
	return true, nil
}

func (m *MockLockStore) ReleaseRideLock(ctx context.Context, rideID string) error {
	atomic.AddInt32(&m.ReleaseCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locks, "lock:ride:"+rideID)
	return nil
}

// IsLocked checks if a ride is locked (for test assertions).
func (m *MockLockStore) IsLocked(rideID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	expiry, exists := m.locks["lock:ride:"+rideID]
	return exists && time.Now().Before(expiry)
}

// ──────────────────────────────────────────────
// MOCK CACHE STORE
// ──────────────────────────────────────────────

// MockCacheStore is a mock implementation of CacheStoreInterface.
type MockCacheStore struct {
	mu    sync.RWMutex
	rides map[string]*redis.CachedRide

	// Counters
	GetCallCount        int32
	SetCallCount        int32
	InvalidateCallCount int32

	// Error injection
	GetError error
	SetError error
}

// NewMockCacheStore creates a new mock cache store.
func NewMockCacheStore() *MockCacheStore {
	return &MockCacheStore{
		rides: make(map[string]*redis.CachedRide),
	}
}

func (m *MockCacheStore) GetRide(ctx context.Context, rideID string) (*redis.CachedRide, error) {
	atomic.AddInt32(&m.GetCallCount, 1)
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	ride, ok := m.rides[rideID]
	if !ok {
		return nil, nil // Cache miss
	}
	copy := *ride
	return &copy, nil
}

func (m *MockCacheStore) SetRide(ctx context.Context, ride *redis.CachedRide) error {
	atomic.AddInt32(&m.SetCallCount, 1)
	if m.SetError != nil {
		return m.SetError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *ride
	m.rides[ride.ID] = &copy
	return nil
}

func (m *MockCacheStore) InvalidateRide(ctx context.Context, rideID string) error {
	atomic.AddInt32(&m.InvalidateCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rides, rideID)
	return nil
}

// HasRide checks if a ride snapshot is cached (for test assertions).
func (m *MockCacheStore) HasRide(rideID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.rides[rideID]
	return ok
}

// ──────────────────────────────────────────────
// HELPERS
// ──────────────────────────────────────────────

var (
	ErrMockDBConstraint = errors.New("mock: unique constraint violation")
	ErrMockTimeout      = errors.New("mock: operation timeout")
)

// containsFold mirrors the ILIKE '%..%' matching the SQL search uses.
func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

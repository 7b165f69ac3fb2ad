package repository

import (
	"context"

	"unilift/internal/domain"
)

// UserRepository defines the persistence operations for users.
// The booking core only reads users and updates their rating aggregate;
// everything else belongs to the identity directory.
type UserRepository interface {
	// Create persists a new user.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by ID.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByEmail retrieves a user by email.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// ApplyRating folds one rating into the user's running mean and count
	// as a single atomic update.
	ApplyRating(ctx context.Context, id string, rating int) error
}

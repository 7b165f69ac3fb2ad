package postgres

import (
	"context"
	"database/sql"
	"errors"

	"unilift/internal/domain"
	"unilift/internal/repository"
)

// UserRepository is a PostgreSQL implementation of repository.UserRepository.
//
// Table: users (id, name, email, phone, college, rating, total_ratings, created_at)
type UserRepository struct {
	q Querier
}

// NewUserRepository creates a new PostgreSQL user repository.
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{q: db}
}

// Create persists a new user.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (id, name, email, phone, college, rating, total_ratings, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.q.ExecContext(ctx, query,
		user.ID,
		user.Name,
		user.Email,
		user.Phone,
		user.College,
		user.Rating,
		user.TotalRatings,
		user.CreatedAt,
	)

	return err
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `
		SELECT id, name, email, phone, college, rating, total_ratings, created_at
		FROM users WHERE id = $1
	`

	return r.scanUser(r.q.QueryRowContext(ctx, query, id))
}

// GetByEmail retrieves a user by email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `
		SELECT id, name, email, phone, college, rating, total_ratings, created_at
		FROM users WHERE email = $1
	`

	return r.scanUser(r.q.QueryRowContext(ctx, query, email))
}

// ApplyRating folds one rating into the user's running mean and count.
// The whole recompute happens in a single UPDATE so concurrent ratings
// against the same user serialize on the row.
func (r *UserRepository) ApplyRating(ctx context.Context, id string, rating int) error {
	query := `
		UPDATE users
		SET rating = (rating * total_ratings + $1) / (total_ratings + 1),
		    total_ratings = total_ratings + 1
		WHERE id = $2
	`

	result, err := r.q.ExecContext(ctx, query, float64(rating), id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

func (r *UserRepository) scanUser(row *sql.Row) (*domain.User, error) {
	var user domain.User
	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.Phone,
		&user.College,
		&user.Rating,
		&user.TotalRatings,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

package domain

import "time"

// User represents a registered campus user. Any user can post rides as a
// driver and book seats on other users' rides as a rider.
type User struct {
	ID           string
	Name         string
	Email        string
	Phone        string
	College      string
	Rating       float64 // Running mean of received ratings, 0 when unrated.
	TotalRatings int
	CreatedAt    time.Time
}

// UserSummary carries the counterpart fields joined onto ride and booking
// reads so the presentation layer never has to resolve references itself.
type UserSummary struct {
	ID      string
	Name    string
	Phone   string
	Email   string
	College string
	Rating  float64
}

// Summary projects a user onto its joined summary form.
func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:      u.ID,
		Name:    u.Name,
		Phone:   u.Phone,
		Email:   u.Email,
		College: u.College,
		Rating:  u.Rating,
	}
}

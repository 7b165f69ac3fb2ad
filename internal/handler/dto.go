package handler

import (
	"time"

	"unilift/internal/domain"
)

// LocationPayload is the wire form of an address with coordinates.
type LocationPayload struct {
	Address   string  `json:"address"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// VehiclePayload is the wire form of the driver's vehicle details.
type VehiclePayload struct {
	Model  string `json:"model,omitempty"`
	Number string `json:"number,omitempty"`
	Color  string `json:"color,omitempty"`
}

// UserSummaryResponse is the joined counterpart summary on ride and booking
// responses.
type UserSummaryResponse struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Phone   string  `json:"phone"`
	Email   string  `json:"email"`
	College string  `json:"college"`
	Rating  float64 `json:"rating"`
}

// RideResponse is the wire form of a ride with its driver summary.
type RideResponse struct {
	ID             string               `json:"id"`
	DriverID       string               `json:"driver_id"`
	Driver         *UserSummaryResponse `json:"driver,omitempty"`
	Source         LocationPayload      `json:"source"`
	Destination    LocationPayload      `json:"destination"`
	Date           string               `json:"date"`
	Time           string               `json:"time"`
	TotalSeats     int                  `json:"total_seats"`
	AvailableSeats int                  `json:"available_seats"`
	PricePerSeat   float64              `json:"price_per_seat"`
	Vehicle        VehiclePayload       `json:"vehicle"`
	Status         string               `json:"status"`
	Notes          string               `json:"notes,omitempty"`
	CreatedAt      time.Time            `json:"created_at"`
}

// BookingResponse is the wire form of a booking with its joined ride and
// party summaries.
type BookingResponse struct {
	ID          string               `json:"id"`
	RideID      string               `json:"ride_id"`
	RiderID     string               `json:"rider_id"`
	SeatsBooked int                  `json:"seats_booked"`
	Status      string               `json:"status"`
	PickupPoint LocationPayload      `json:"pickup_point"`
	Rating      int                  `json:"rating,omitempty"`
	Feedback    string               `json:"feedback,omitempty"`
	CreatedAt   time.Time            `json:"created_at"`
	Ride        *RideResponse        `json:"ride,omitempty"`
	Rider       *UserSummaryResponse `json:"rider,omitempty"`
	Driver      *UserSummaryResponse `json:"driver,omitempty"`
}

const rideDateLayout = "2006-01-02"

func toLocationPayload(loc domain.Location) LocationPayload {
	return LocationPayload{
		Address:   loc.Address,
		Latitude:  loc.Latitude,
		Longitude: loc.Longitude,
	}
}

func toLocation(p LocationPayload) domain.Location {
	return domain.Location{
		Address:   p.Address,
		Latitude:  p.Latitude,
		Longitude: p.Longitude,
	}
}

func toUserSummaryResponse(u domain.UserSummary) *UserSummaryResponse {
	return &UserSummaryResponse{
		ID:      u.ID,
		Name:    u.Name,
		Phone:   u.Phone,
		Email:   u.Email,
		College: u.College,
		Rating:  u.Rating,
	}
}

func toRideResponse(ride *domain.Ride) *RideResponse {
	return &RideResponse{
		ID:             ride.ID,
		DriverID:       ride.DriverID,
		Source:         toLocationPayload(ride.Source),
		Destination:    toLocationPayload(ride.Destination),
		Date:           ride.Date.Format(rideDateLayout),
		Time:           ride.Time,
		TotalSeats:     ride.TotalSeats,
		AvailableSeats: ride.AvailableSeats,
		PricePerSeat:   ride.PricePerSeat,
		Vehicle: VehiclePayload{
			Model:  ride.Vehicle.Model,
			Number: ride.Vehicle.Number,
			Color:  ride.Vehicle.Color,
		},
		Status:    string(ride.Status),
		Notes:     ride.Notes,
		CreatedAt: ride.CreatedAt,
	}
}

func toRideDetailResponse(detail *domain.RideDetail) *RideResponse {
	resp := toRideResponse(&detail.Ride)
	resp.Driver = toUserSummaryResponse(detail.Driver)
	return resp
}

func toBookingResponse(booking *domain.Booking) *BookingResponse {
	return &BookingResponse{
		ID:          booking.ID,
		RideID:      booking.RideID,
		RiderID:     booking.RiderID,
		SeatsBooked: booking.SeatsBooked,
		Status:      string(booking.Status),
		PickupPoint: toLocationPayload(booking.PickupPoint),
		Rating:      booking.Rating,
		Feedback:    booking.Feedback,
		CreatedAt:   booking.CreatedAt,
	}
}

func toBookingDetailResponse(detail *domain.BookingDetail) *BookingResponse {
	resp := toBookingResponse(&detail.Booking)
	resp.Ride = toRideResponse(&detail.Ride)
	resp.Rider = toUserSummaryResponse(detail.Rider)
	resp.Driver = toUserSummaryResponse(detail.Driver)
	return resp
}

package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"unilift/internal/domain"
	"unilift/internal/repository"
	"unilift/internal/service"
)

// RideHandler handles HTTP requests for rides.
type RideHandler struct {
	rideService *service.RideService
}

// NewRideHandler creates a new RideHandler.
func NewRideHandler(rideService *service.RideService) *RideHandler {
	return &RideHandler{rideService: rideService}
}

// CreateRideRequest is the HTTP request body for posting a ride.
type CreateRideRequest struct {
	Source       LocationPayload `json:"source"`
	Destination  LocationPayload `json:"destination"`
	Date         string          `json:"date"` // YYYY-MM-DD
	Time         string          `json:"time"` // HH:MM
	TotalSeats   int             `json:"total_seats"`
	PricePerSeat float64         `json:"price_per_seat"`
	Vehicle      VehiclePayload  `json:"vehicle"`
	Notes        string          `json:"notes,omitempty"`
}

// UpdateRideRequest is the HTTP request body for editing a ride. Absent
// fields are left unchanged.
type UpdateRideRequest struct {
	Source       *LocationPayload `json:"source,omitempty"`
	Destination  *LocationPayload `json:"destination,omitempty"`
	Date         *string          `json:"date,omitempty"`
	Time         *string          `json:"time,omitempty"`
	TotalSeats   *int             `json:"total_seats,omitempty"`
	PricePerSeat *float64         `json:"price_per_seat,omitempty"`
	Vehicle      *VehiclePayload  `json:"vehicle,omitempty"`
	Notes        *string          `json:"notes,omitempty"`
}

// CreateRide handles POST /v1/rides
func (h *RideHandler) CreateRide(c *gin.Context) {
	var req CreateRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	date, ok := parseRideDate(c, req.Date)
	if !ok {
		return
	}

	detail, err := h.rideService.CreateRide(c.Request.Context(), service.CreateRideRequest{
		DriverID:     callerID(c),
		Source:       toLocation(req.Source),
		Destination:  toLocation(req.Destination),
		Date:         date,
		Time:         req.Time,
		TotalSeats:   req.TotalSeats,
		PricePerSeat: req.PricePerSeat,
		Vehicle: domain.Vehicle{
			Model:  req.Vehicle.Model,
			Number: req.Vehicle.Number,
			Color:  req.Vehicle.Color,
		},
		Notes: req.Notes,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toRideDetailResponse(detail))
}

// GetAll handles GET /v1/rides
func (h *RideHandler) GetAll(c *gin.Context) {
	rides, err := h.rideService.GetActiveRides(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toRideListResponse(rides))
}

// Search handles GET /v1/rides/search
func (h *RideHandler) Search(c *gin.Context) {
	filter := repository.RideSearch{
		SourceAddress:      c.Query("source"),
		DestinationAddress: c.Query("destination"),
	}

	if dateStr := c.Query("date"); dateStr != "" {
		date, err := time.Parse(rideDateLayout, dateStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid date, expected YYYY-MM-DD"})
			return
		}
		filter.Date = date
	}

	rides, err := h.rideService.SearchRides(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toRideListResponse(rides))
}

// GetMyRides handles GET /v1/rides/my-rides
func (h *RideHandler) GetMyRides(c *gin.Context) {
	rides, err := h.rideService.GetRidesByDriver(c.Request.Context(), callerID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]*RideResponse, 0, len(rides))
	for _, ride := range rides {
		response = append(response, toRideResponse(ride))
	}
	respondJSON(c, http.StatusOK, response)
}

// GetRide handles GET /v1/rides/:id
func (h *RideHandler) GetRide(c *gin.Context) {
	detail, err := h.rideService.GetRide(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toRideDetailResponse(detail))
}

// UpdateRide handles PUT /v1/rides/:id
func (h *RideHandler) UpdateRide(c *gin.Context) {
	var req UpdateRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	patch := service.UpdateRideRequest{
		RideID:       c.Param("id"),
		DriverID:     callerID(c),
		Time:         req.Time,
		TotalSeats:   req.TotalSeats,
		PricePerSeat: req.PricePerSeat,
		Notes:        req.Notes,
	}

	if req.Source != nil {
		loc := toLocation(*req.Source)
		patch.Source = &loc
	}
	if req.Destination != nil {
		loc := toLocation(*req.Destination)
		patch.Destination = &loc
	}
	if req.Date != nil {
		date, ok := parseRideDate(c, *req.Date)
		if !ok {
			return
		}
		patch.Date = &date
	}
	if req.Vehicle != nil {
		patch.Vehicle = &domain.Vehicle{
			Model:  req.Vehicle.Model,
			Number: req.Vehicle.Number,
			Color:  req.Vehicle.Color,
		}
	}

	detail, err := h.rideService.UpdateRide(c.Request.Context(), patch)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toRideDetailResponse(detail))
}

// CancelRide handles POST /v1/rides/:id/cancel
func (h *RideHandler) CancelRide(c *gin.Context) {
	ride, err := h.rideService.CancelRide(c.Request.Context(), c.Param("id"), callerID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toRideResponse(ride))
}

// DeleteRide handles DELETE /v1/rides/:id
func (h *RideHandler) DeleteRide(c *gin.Context) {
	if err := h.rideService.DeleteRide(c.Request.Context(), c.Param("id"), callerID(c)); err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, gin.H{"message": "ride deleted"})
}

func toRideListResponse(rides []*domain.RideDetail) []*RideResponse {
	response := make([]*RideResponse, 0, len(rides))
	for _, detail := range rides {
		response = append(response, toRideDetailResponse(detail))
	}
	return response
}

func parseRideDate(c *gin.Context, value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, true
	}
	date, err := time.Parse(rideDateLayout, value)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid date, expected YYYY-MM-DD"})
		return time.Time{}, false
	}
	return date, true
}

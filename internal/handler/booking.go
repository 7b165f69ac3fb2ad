package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"unilift/internal/domain"
	"unilift/internal/service"
)

// BookingHandler handles HTTP requests for bookings.
type BookingHandler struct {
	bookingService *service.BookingService
}

// NewBookingHandler creates a new BookingHandler.
func NewBookingHandler(bookingService *service.BookingService) *BookingHandler {
	return &BookingHandler{bookingService: bookingService}
}

// CreateBookingRequest is the HTTP request body for booking seats.
type CreateBookingRequest struct {
	RideID      string          `json:"ride_id"`
	SeatsBooked int             `json:"seats_booked"`
	PickupPoint LocationPayload `json:"pickup_point"`
}

// RateBookingRequest is the HTTP request body for rating a booking.
type RateBookingRequest struct {
	Rating   int    `json:"rating"`
	Feedback string `json:"feedback,omitempty"`
}

// CreateBooking handles POST /v1/bookings
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	detail, err := h.bookingService.CreateBooking(c.Request.Context(), service.CreateBookingRequest{
		RiderID:     callerID(c),
		RideID:      req.RideID,
		SeatsBooked: req.SeatsBooked,
		PickupPoint: toLocation(req.PickupPoint),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toBookingDetailResponse(detail))
}

// GetMyBookings handles GET /v1/bookings/my-bookings
func (h *BookingHandler) GetMyBookings(c *gin.Context) {
	bookings, err := h.bookingService.GetBookingsForRider(c.Request.Context(), callerID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toBookingListResponse(bookings))
}

// GetRideBookings handles GET /v1/bookings/ride-bookings
func (h *BookingHandler) GetRideBookings(c *gin.Context) {
	bookings, err := h.bookingService.GetBookingsForDriver(c.Request.Context(), callerID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toBookingListResponse(bookings))
}

// GetBooking handles GET /v1/bookings/:id
func (h *BookingHandler) GetBooking(c *gin.Context) {
	detail, err := h.bookingService.GetBooking(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toBookingDetailResponse(detail))
}

// CancelBooking handles POST /v1/bookings/:id/cancel
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	booking, err := h.bookingService.CancelBooking(c.Request.Context(), c.Param("id"), callerID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toBookingResponse(booking))
}

// RateBooking handles POST /v1/bookings/:id/rate
func (h *BookingHandler) RateBooking(c *gin.Context) {
	var req RateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	booking, err := h.bookingService.RateBooking(c.Request.Context(), service.RateBookingRequest{
		BookingID:   c.Param("id"),
		RequesterID: callerID(c),
		Rating:      req.Rating,
		Feedback:    req.Feedback,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toBookingResponse(booking))
}

func toBookingListResponse(bookings []*domain.BookingDetail) []*BookingResponse {
	response := make([]*BookingResponse, 0, len(bookings))
	for _, detail := range bookings {
		response = append(response, toBookingDetailResponse(detail))
	}
	return response
}

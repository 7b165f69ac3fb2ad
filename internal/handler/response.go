package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"unilift/internal/repository"
	"unilift/internal/service"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondError sends an error response with the appropriate HTTP status code.
func respondError(c *gin.Context, err error) {
	code := mapErrorToHTTPStatus(err)
	c.JSON(code, ErrorResponse{Error: err.Error()})
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// mapErrorToHTTPStatus maps service/repository errors to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	switch {
	// Not found errors
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound

	// Validation errors - Bad Request
	case errors.Is(err, service.ErrInvalidUserID),
		errors.Is(err, service.ErrInvalidRideID),
		errors.Is(err, service.ErrInvalidBookingID),
		errors.Is(err, service.ErrInvalidSeatCount),
		errors.Is(err, service.ErrInvalidPricePerSeat),
		errors.Is(err, service.ErrMissingAddress),
		errors.Is(err, service.ErrInvalidCoordinates),
		errors.Is(err, service.ErrMissingRideDate),
		errors.Is(err, service.ErrMissingDepartureTime),
		errors.Is(err, service.ErrNotesTooLong),
		errors.Is(err, service.ErrInvalidSeatsRequested),
		errors.Is(err, service.ErrInvalidRating),
		errors.Is(err, service.ErrFeedbackTooLong),
		errors.Is(err, service.ErrOwnRideBooking):
		return http.StatusBadRequest

	// Authorization errors
	case errors.Is(err, service.ErrNotRideOwner),
		errors.Is(err, service.ErrNotBookingOwner):
		return http.StatusForbidden

	// Conflict errors
	case errors.Is(err, repository.ErrRideNotActive),
		errors.Is(err, repository.ErrInsufficientSeats),
		errors.Is(err, service.ErrDuplicateBooking),
		errors.Is(err, service.ErrRideAlreadyCancelled),
		errors.Is(err, service.ErrRideHasBookings),
		errors.Is(err, service.ErrSeatsBelowBooked),
		errors.Is(err, service.ErrBookingAlreadyCancelled),
		errors.Is(err, service.ErrBookingAlreadyRated),
		errors.Is(err, service.ErrBookingCancelled):
		return http.StatusConflict

	// Default to internal server error
	default:
		return http.StatusInternalServerError
	}
}

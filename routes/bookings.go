package routes

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"parkspot-server/config"
	"parkspot-server/models"
	"parkspot-server/services"
)

// CreateBookingRequest represents the request body for creating a booking
type CreateBookingRequest struct {
	ListingID  uint      `json:"listing_id" binding:"required"`
	StartTime  time.Time `json:"start_time" binding:"required"`
	EndTime    time.Time `json:"end_time" binding:"required"`
	TotalPrice float64   `json:"total_price"`
}

// UpdateBookingStatusRequest represents the request body for status updates
type UpdateBookingStatusRequest struct {
	Status models.BookingStatus `json:"status" binding:"required"`
}

// RegisterBookingRoutes registers booking routes on a protected group
func RegisterBookingRoutes(router *gin.RouterGroup) {
	router.POST("/bookings", createBooking)
	router.GET("/bookings", listMyBookings)
	router.GET("/bookings/host", listHostBookings)
	router.GET("/bookings/:id", getBooking)
	router.PATCH("/bookings/:id/status", updateBookingStatus)
}

// cancelledRetention is how long cancelled bookings remain visible in lists
func cancelledRetention() time.Duration {
	days := 15
	if config.AppConfig != nil && config.AppConfig.Booking.CancelledRetentionDays > 0 {
		days = config.AppConfig.Booking.CancelledRetentionDays
	}
	return time.Duration(days) * 24 * time.Hour
}

// bookingErrorResponse maps booking service errors to HTTP responses
func bookingErrorResponse(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidTimeRange),
		errors.Is(err, services.ErrInvalidPrice),
		errors.Is(err, services.ErrInvalidStatus):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrListingNotFound),
		errors.Is(err, services.ErrBookingNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrBookingConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrInvalidTransition),
		errors.Is(err, services.ErrListingInactive):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrNotAllowed):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	default:
		log.Printf("❌ Booking operation failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
	}
}

// createBooking creates a pending booking for the authenticated driver
func createBooking(c *gin.Context) {
	userID := c.GetUint("user_id")

	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	booking, err := bookingService.CreateBooking(services.CreateBookingInput{
		ListingID:  req.ListingID,
		UserID:     userID,
		StartTime:  req.StartTime,
		EndTime:    req.EndTime,
		TotalPrice: req.TotalPrice,
	})
	if err != nil {
		bookingErrorResponse(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"booking": booking,
	})
}

// listMyBookings returns the bookings the authenticated user requested
func listMyBookings(c *gin.Context) {
	userID := c.GetUint("user_id")

	bookings, err := bookingService.ListUserBookings(userID)
	if err != nil {
		bookingErrorResponse(c, err)
		return
	}

	// Cancelled bookings outside the retention window are not shown even if
	// the purge job has not removed them yet
	bookings = services.FilterOldCancelledBookings(bookings, cancelledRetention())

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"bookings": bookings,
	})
}

// listHostBookings returns the bookings on the authenticated host's listings
func listHostBookings(c *gin.Context) {
	hostID := c.GetUint("user_id")

	bookings, err := bookingService.ListHostBookings(hostID)
	if err != nil {
		bookingErrorResponse(c, err)
		return
	}

	bookings = services.FilterOldCancelledBookings(bookings, cancelledRetention())

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"bookings": bookings,
	})
}

// getBooking returns a booking's detail to its participants
func getBooking(c *gin.Context) {
	userID := c.GetUint("user_id")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid booking ID"})
		return
	}

	booking, err := bookingService.GetBooking(uint(id))
	if err != nil {
		bookingErrorResponse(c, err)
		return
	}

	if booking.UserID != userID && booking.HostID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only booking participants can view it"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"booking": booking,
	})
}

// updateBookingStatus moves a booking through its lifecycle on behalf of the
// authenticated user. The service enforces who may perform which transition.
func updateBookingStatus(c *gin.Context) {
	userID := c.GetUint("user_id")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid booking ID"})
		return
	}

	var req UpdateBookingStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	booking, err := bookingService.UpdateBookingStatus(uint(id), req.Status, userID)
	if err != nil {
		bookingErrorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"booking": booking,
	})
}

package routes

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"parkspot-server/database"
	"parkspot-server/models"
)

type SendMessageRequest struct {
	Content string `json:"content" binding:"required,min=1,max=2000"`
}

// RegisterMessageRoutes registers booking-scoped message routes on a protected group
func RegisterMessageRoutes(router *gin.RouterGroup) {
	router.GET("/bookings/:id/messages", getBookingMessages)
	router.POST("/bookings/:id/messages", sendBookingMessage)
	router.POST("/bookings/:id/messages/mark-read", markBookingMessagesAsRead)
}

// loadBookingForParticipant loads a booking and checks the user is driver or host
func loadBookingForParticipant(c *gin.Context) (*models.Booking, bool) {
	userID := c.GetUint("user_id")

	bookingID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid booking ID"})
		return nil, false
	}

	var booking models.Booking
	if err := database.DB.First(&booking, bookingID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Booking not found"})
		return nil, false
	}

	if booking.UserID != userID && booking.HostID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not a participant of this booking"})
		return nil, false
	}

	return &booking, true
}

// getBookingMessages returns the message history for a booking, oldest first
func getBookingMessages(c *gin.Context) {
	booking, ok := loadBookingForParticipant(c)
	if !ok {
		return
	}

	var messages []models.Message
	err := database.DB.Where("booking_id = ?", booking.ID).
		Order("created_at ASC").
		Limit(200).
		Find(&messages).Error

	if err != nil {
		log.Printf("❌ Error fetching messages for booking %d: %v", booking.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch messages"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"messages": messages,
	})
}

// sendBookingMessage appends a message to the booking conversation
func sendBookingMessage(c *gin.Context) {
	booking, ok := loadBookingForParticipant(c)
	if !ok {
		return
	}
	userID := c.GetUint("user_id")

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// The other participant is always the receiver
	receiverID := booking.HostID
	if userID == booking.HostID {
		receiverID = booking.UserID
	}

	message := models.Message{
		BookingID:  booking.ID,
		SenderID:   userID,
		ReceiverID: receiverID,
		Content:    req.Content,
	}

	if err := database.DB.Create(&message).Error; err != nil {
		log.Printf("❌ Error saving message for booking %d: %v", booking.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send message"})
		return
	}

	log.Printf("💬 Message %d sent on booking %d (%d -> %d)", message.ID, booking.ID, userID, receiverID)

	if notificationService != nil {
		senderName := "Someone"
		if u, exists := c.Get("user"); exists {
			if sender, ok := u.(models.User); ok && sender.FullName != "" {
				senderName = sender.FullName
			}
		}
		notificationService.NotifyNewMessage(&message, senderName)
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    message,
	})
}

// markBookingMessagesAsRead marks all messages addressed to the caller as read
func markBookingMessagesAsRead(c *gin.Context) {
	booking, ok := loadBookingForParticipant(c)
	if !ok {
		return
	}
	userID := c.GetUint("user_id")

	now := time.Now()
	result := database.DB.Model(&models.Message{}).
		Where("booking_id = ? AND receiver_id = ? AND is_read = ?", booking.ID, userID, false).
		Updates(map[string]interface{}{
			"is_read": true,
			"read_at": now,
		})

	if result.Error != nil {
		log.Printf("❌ Error marking messages as read for booking %d: %v", booking.ID, result.Error)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to mark messages as read"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"updated_rows": result.RowsAffected,
	})
}

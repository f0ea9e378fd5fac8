package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"parkspot-server/database"
	"parkspot-server/models"
	ws "parkspot-server/websocket"
)

// expoPushURL is the Expo push delivery endpoint used for mobile clients
const expoPushURL = "https://exp.host/--/api/v2/push/send"

// NotificationService records user-facing events and delivers them
// best-effort over push and WebSocket. A delivery failure is logged and never
// fails the booking operation that triggered it.
type NotificationService struct {
	hub *ws.Hub
}

// NewNotificationService creates a new notification service. The hub may be
// nil when realtime delivery is not wired (tests, seed tooling).
func NewNotificationService(hub *ws.Hub) *NotificationService {
	return &NotificationService{hub: hub}
}

// Create records a notification for a user and attempts delivery.
// Returns the stored notification's ID.
func (ns *NotificationService) Create(userID uint, notificationType, title, body string, bookingID, listingID *uint) (uint, error) {
	notification := models.Notification{
		UserID:    userID,
		Title:     title,
		Body:      body,
		Type:      notificationType,
		BookingID: bookingID,
		ListingID: listingID,
		Read:      false,
	}

	data := map[string]interface{}{"type": notificationType}
	if bookingID != nil {
		data["booking_id"] = *bookingID
	}
	if listingID != nil {
		data["listing_id"] = *listingID
	}
	dataJSON, _ := json.Marshal(data)
	notification.Data = string(dataJSON)

	if err := database.DB.Create(&notification).Error; err != nil {
		return 0, fmt.Errorf("failed to create notification for user %d: %w", userID, err)
	}

	log.Printf("✅ Notification %d (%s) recorded for user %d", notification.ID, notificationType, userID)

	// Delivery is best-effort from here on
	ns.sendPush(userID, title, body, data)
	ns.sendRealtime(userID, notificationType, data)

	return notification.ID, nil
}

// NotifyBookingRequest tells the host a driver requested one of their listings
func (ns *NotificationService) NotifyBookingRequest(booking *models.Booking) {
	title := "New booking request"
	body := fmt.Sprintf("A driver requested your spot from %s to %s.",
		booking.StartTime.Format("Jan 2 15:04"), booking.EndTime.Format("15:04"))

	if _, err := ns.Create(booking.HostID, "booking_request", title, body, &booking.ID, &booking.ListingID); err != nil {
		log.Printf("⚠️ Could not notify host %d about booking %d: %v", booking.HostID, booking.ID, err)
	}
}

// NotifyBookingStatusChange notifies the other participant of a status
// change. The recipient and the copy depend on who acted:
// host confirms/declines/completes -> driver; driver cancels -> host.
func (ns *NotificationService) NotifyBookingStatusChange(booking *models.Booking, actingUserID uint) {
	var (
		recipient        uint
		notificationType string
		title            string
		body             string
	)

	actorIsHost := actingUserID == booking.HostID

	switch booking.Status {
	case models.BookingStatusConfirmed:
		recipient = booking.UserID
		notificationType = "booking_accepted"
		title = "Booking accepted"
		body = "The host accepted your booking request. Your spot is reserved."
	case models.BookingStatusCancelled:
		if actorIsHost {
			recipient = booking.UserID
			notificationType = "booking_declined"
			title = "Booking declined"
			body = "The host declined your booking request."
		} else {
			recipient = booking.HostID
			notificationType = "booking_cancelled"
			title = "Booking cancelled"
			body = "The driver cancelled their booking."
		}
	case models.BookingStatusCompleted:
		recipient = booking.UserID
		notificationType = "booking_completed"
		title = "Booking completed"
		body = "Your booking is complete. Thanks for parking with us!"
	default:
		return
	}

	if _, err := ns.Create(recipient, notificationType, title, body, &booking.ID, &booking.ListingID); err != nil {
		log.Printf("⚠️ Could not notify user %d about booking %d: %v", recipient, booking.ID, err)
	}
}

// NotifyNewMessage tells the receiver of a booking message that it arrived
func (ns *NotificationService) NotifyNewMessage(message *models.Message, senderName string) {
	title := "New message"
	body := fmt.Sprintf("%s sent you a message.", senderName)

	if _, err := ns.Create(message.ReceiverID, "message", title, body, &message.BookingID, nil); err != nil {
		log.Printf("⚠️ Could not notify user %d about message %d: %v", message.ReceiverID, message.ID, err)
	}

	if ns.hub != nil {
		ns.hub.SendToUser(message.ReceiverID, &ws.Message{
			Type:      "message",
			BookingID: message.BookingID,
			SenderID:  message.SenderID,
			Content:   message.Content,
			Timestamp: time.Now(),
		})
	}
}

// sendRealtime pushes an event to the user's open WebSocket connection, if any
func (ns *NotificationService) sendRealtime(userID uint, notificationType string, data map[string]interface{}) {
	if ns.hub == nil || !ns.hub.IsUserConnected(userID) {
		return
	}

	ns.hub.SendToUser(userID, &ws.Message{
		Type:      "notification",
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"notification_type": notificationType,
			"payload":           data,
		},
	})
}

// sendPush delivers a push notification to all of the user's active tokens
func (ns *NotificationService) sendPush(userID uint, title, body string, data map[string]interface{}) {
	var tokens []models.PushToken
	err := database.DB.Where("user_id = ? AND active = ?", userID, true).Find(&tokens).Error
	if err != nil {
		log.Printf("❌ Error fetching push tokens for user %d: %v", userID, err)
		return
	}

	if len(tokens) == 0 {
		log.Printf("⚠️ No push tokens found for user %d", userID)
		return
	}

	successCount := 0
	for _, token := range tokens {
		if err := sendExpoPushNotification(token.Token, title, body, data); err != nil {
			log.Printf("❌ Error sending push notification to token %s: %v", token.Token, err)
		} else {
			successCount++
		}
	}

	log.Printf("📊 Push summary: %d/%d sent to user %d", successCount, len(tokens), userID)
}

// sendExpoPushNotification sends a notification via the Expo Push API
func sendExpoPushNotification(token, title, body string, data map[string]interface{}) error {
	payload := map[string]interface{}{
		"to":        token,
		"title":     title,
		"body":      body,
		"data":      data,
		"sound":     "default",
		"priority":  "high",
		"channelId": "booking_updates",
	}

	bodyBytes, _ := json.Marshal(payload)

	req, err := http.NewRequest("POST", expoPushURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Printf("❌ Failed to read Expo response: %v", err)
	} else {
		log.Printf("📥 Expo response (%d): %s", resp.StatusCode, string(respBody))
	}

	if resp.StatusCode >= 400 {
		return fmt.Errorf("expo push failed: %s", resp.Status)
	}

	return nil
}

package websocket

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"parkspot-server/database"
	"parkspot-server/models"
	"parkspot-server/utils"
)

// EventsHandler upgrades authenticated users to a WebSocket connection on
// which booking and notification events are pushed
type EventsHandler struct {
	hub *Hub
}

// NewEventsHandler creates a new events handler bound to a hub
func NewEventsHandler(hub *Hub) *EventsHandler {
	return &EventsHandler{hub: hub}
}

// HandleEvents authenticates via the token query parameter and upgrades the
// connection. Browsers cannot set an Authorization header on a WebSocket
// handshake, so the token travels in the query string.
func (h *EventsHandler) HandleEvents(c *gin.Context) {
	tokenString := c.Query("token")
	if tokenString == "" {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":   "Token required",
			"message": "Please provide a valid token in query parameters",
		})
		return
	}

	claims, err := utils.VerifyToken(tokenString)
	if err != nil {
		log.Printf("❌ WebSocket token verification failed: %v", err)
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":   "Invalid token",
			"message": "Token is invalid or expired",
		})
		return
	}

	var user models.User
	if err := database.DB.First(&user, claims.UserID).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":   "User not found",
			"message": "User associated with token not found",
		})
		return
	}

	if !user.IsActive {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":   "User inactive",
			"message": "User account is deactivated",
		})
		return
	}

	log.Printf("🔌 WebSocket events connection for user %d (%s)", user.ID, user.Role)
	ServeWebSocket(h.hub, c.Writer, c.Request, user.ID, string(user.Role))
}

package main

import (
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"parkspot-server/config"
	"parkspot-server/database"
	"parkspot-server/jobs"
	"parkspot-server/middleware"
	"parkspot-server/routes"
	"parkspot-server/services"
	ws "parkspot-server/websocket"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	// Load configuration
	config.Load()

	// Initialize database
	if err := database.Initialize(); err != nil {
		log.Fatal("Failed to initialize database:", err)
	}

	// Optional demo data
	if os.Getenv("SEED_DEMO") == "true" {
		seedDemoListings()
	}

	// Set Gin mode
	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create router
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// Disable automatic redirects for trailing slashes
	router.RedirectTrailingSlash = false
	router.RedirectFixedPath = false

	// Security headers (must be first)
	router.Use(middleware.SecurityHeadersMiddleware())

	// Input validation
	router.Use(middleware.InputValidationMiddleware())

	// Rate limiting
	router.Use(middleware.RateLimitMiddleware())

	// Secure CORS
	router.Use(middleware.CORSMiddleware())

	// Audit logging
	router.Use(middleware.AuditLogMiddleware())

	// WebSocket hub for realtime booking events
	hub := ws.NewHub()
	go hub.Run()

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":            "ok",
			"message":           "ParkSpot Server is running",
			"time":              time.Now().UTC(),
			"connected_clients": hub.ConnectedUserCount(),
		})
	})

	eventsHandler := ws.NewEventsHandler(hub)
	router.GET("/api/v1/ws/events", eventsHandler.HandleEvents)

	// Wire services: notifications feed off the hub, bookings feed notifications
	notificationService := services.NewNotificationService(hub)
	bookingService := services.NewBookingService(notificationService)
	routes.InitServices(bookingService, notificationService)

	// API routes
	api := router.Group("/api/v1")
	{
		// Auth routes (no authentication required) - with strict rate limiting
		authRoutes := api.Group("/auth")
		authRoutes.Use(middleware.AuthRateLimitMiddleware())
		routes.RegisterAuthRoutes(authRoutes)

		// Public listing discovery; auth is optional so signed-in users get
		// personalized responses without blocking anonymous browsing
		listingRoutes := api.Group("/listings")
		listingRoutes.Use(middleware.OptionalAuthMiddleware())
		routes.RegisterListingRoutes(listingRoutes)

		// Protected routes
		protected := api.Group("")
		protected.Use(middleware.AuthMiddleware())
		{
			// Session management across devices
			routes.RegisterProtectedAuthRoutes(protected)

			// Booking lifecycle
			routes.RegisterBookingRoutes(protected)

			// Booking conversation
			routes.RegisterMessageRoutes(protected)

			// Notification inbox and push tokens
			notifications := protected.Group("/notifications")
			routes.RegisterNotificationRoutes(notifications)

			// Host-only listing management
			host := protected.Group("/host")
			host.Use(middleware.HostOnlyMiddleware())
			{
				routes.RegisterHostListingRoutes(host)
				routes.RegisterListingMediaRoutes(host)
			}
		}
	}

	// Admin API (separate auth)
	routes.RegisterAdminRoutes(router, hub)

	// Get port from environment or use default
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	// Start background jobs
	purgeJob := jobs.NewPurgeJob()
	purgeJob.Start()
	defer purgeJob.Stop()

	// Start token cleanup job
	go func() {
		ticker := time.NewTicker(24 * time.Hour) // Run daily
		defer ticker.Stop()

		for range ticker.C {
			jwtService := services.NewJWTService()
			if err := jwtService.CleanupExpiredTokens(); err != nil {
				log.Printf("❌ Token cleanup failed: %v", err)
			}
		}
	}()

	log.Printf("Server starting on port %s", port)
	if err := router.Run("0.0.0.0:" + port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}

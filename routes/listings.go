package routes

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"parkspot-server/database"
	"parkspot-server/models"
	"parkspot-server/services"
	"parkspot-server/utils"
)

// RegisterListingRoutes registers public listing routes
func RegisterListingRoutes(router *gin.RouterGroup) {
	router.GET("", listListings)
	router.GET("/", listListings)
	router.GET("/nearby", listNearbyListings)
	router.GET("/:id", getListing)
	router.GET("/:id/availability", checkListingAvailability)
}

// RegisterHostListingRoutes registers listing management routes for hosts
func RegisterHostListingRoutes(router *gin.RouterGroup) {
	router.GET("/listings", listMyListings)
	router.POST("/listings", createListing)
	router.PUT("/listings/:id", updateListing)
	router.DELETE("/listings/:id", deactivateListing)
}

// listListings returns active listings, optionally filtered by city
func listListings(c *gin.Context) {
	query := database.DB.
		Preload("Photos").
		Where("is_active = ?", true).
		Order("created_at DESC")

	if city := c.Query("city"); city != "" {
		query = query.Where("city = ?", city)
	}

	var listings []models.Listing
	if err := query.Limit(100).Find(&listings).Error; err != nil {
		log.Printf("❌ Error fetching listings: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch listings"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"listings": listings,
	})
}

// listNearbyListings returns active listings within a radius of a coordinate
func listNearbyListings(c *gin.Context) {
	lat, latErr := strconv.ParseFloat(c.Query("lat"), 64)
	lng, lngErr := strconv.ParseFloat(c.Query("lng"), 64)
	if latErr != nil || lngErr != nil || !utils.IsLocationValid(lat, lng) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Valid lat and lng query parameters are required"})
		return
	}

	radius := utils.GetDefaultSearchRadius()
	if r := c.Query("radius"); r != "" {
		parsed, err := strconv.ParseFloat(r, 64)
		if err != nil || !utils.ValidateSearchRadius(parsed) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid search radius"})
			return
		}
		radius = parsed
	}

	listings, err := utils.FindNearbyListings(database.DB, utils.Location{Latitude: lat, Longitude: lng}, radius)
	if err != nil {
		log.Printf("❌ Error searching nearby listings: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to search listings"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"listings": listings,
		"radius":   radius,
	})
}

// getListing returns a single listing with its photos and host display fields
func getListing(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid listing ID"})
		return
	}

	var listing models.Listing
	err = database.DB.
		Preload("Photos").
		Preload("Host").
		First(&listing, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Listing not found"})
		} else {
			log.Printf("❌ Error fetching listing %d: %v", id, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"listing": listing,
	})
}

// checkListingAvailability reports whether a requested interval is free.
// Overlapping pending/confirmed bookings are returned so clients can show
// the blocked slots.
func checkListingAvailability(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid listing ID"})
		return
	}

	start, err := time.Parse(time.RFC3339, c.Query("start"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start must be an RFC3339 timestamp"})
		return
	}
	end, err := time.Parse(time.RFC3339, c.Query("end"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "end must be an RFC3339 timestamp"})
		return
	}
	if !start.Before(end) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start must be before end"})
		return
	}

	overlapping, err := bookingService.GetOverlappingBookings(uint(id), start, end)
	if err != nil {
		log.Printf("❌ Error checking availability for listing %d: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check availability"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"available": len(overlapping) == 0,
		"conflicts": overlapping,
	})
}

// listMyListings returns all listings owned by the authenticated host
func listMyListings(c *gin.Context) {
	hostID := c.GetUint("user_id")

	var listings []models.Listing
	err := database.DB.
		Preload("Photos").
		Where("host_id = ?", hostID).
		Order("created_at DESC").
		Find(&listings).Error
	if err != nil {
		log.Printf("❌ Error fetching listings for host %d: %v", hostID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch listings"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"listings": listings,
	})
}

// createListing creates a new listing owned by the authenticated host
func createListing(c *gin.Context) {
	hostID := c.GetUint("user_id")

	var req models.ListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.PricePerHour < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Price must not be negative"})
		return
	}

	listing := models.Listing{
		HostID:         hostID,
		Title:          req.Title,
		Description:    req.Description,
		Address:        req.Address,
		City:           req.City,
		Latitude:       req.Latitude,
		Longitude:      req.Longitude,
		PricePerHour:   req.PricePerHour,
		AvailableFrom:  req.AvailableFrom,
		AvailableUntil: req.AvailableUntil,
		IsActive:       true,
	}

	// Fill in coordinates from the address when the client did not send any
	if listing.Latitude == nil || listing.Longitude == nil {
		if geo, err := utils.GeocodeAddress(req.Address); err == nil {
			listing.Latitude = &geo.Latitude
			listing.Longitude = &geo.Longitude
			if listing.City == "" {
				listing.City = geo.City
			}
		} else {
			log.Printf("⚠️ Could not geocode address for new listing: %v", err)
		}
	}

	if err := database.DB.Create(&listing).Error; err != nil {
		log.Printf("❌ Error creating listing for host %d: %v", hostID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create listing"})
		return
	}

	log.Printf("✅ Listing %d created by host %d", listing.ID, hostID)
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"listing": listing,
	})
}

// updateListing updates a listing; only the owner may modify it
func updateListing(c *gin.Context) {
	hostID := c.GetUint("user_id")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid listing ID"})
		return
	}

	var listing models.Listing
	if err := database.DB.First(&listing, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Listing not found"})
		return
	}

	if listing.HostID != hostID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the owner can modify this listing"})
		return
	}

	var req models.ListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.PricePerHour < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Price must not be negative"})
		return
	}

	listing.Title = req.Title
	listing.Description = req.Description
	listing.Address = req.Address
	listing.City = req.City
	if req.Latitude != nil {
		listing.Latitude = req.Latitude
	}
	if req.Longitude != nil {
		listing.Longitude = req.Longitude
	}
	listing.PricePerHour = req.PricePerHour
	listing.AvailableFrom = req.AvailableFrom
	listing.AvailableUntil = req.AvailableUntil

	if err := database.DB.Save(&listing).Error; err != nil {
		log.Printf("❌ Error updating listing %d: %v", listing.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update listing"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"listing": listing,
	})
}

// deactivateListing hides a listing from search; only the owner may do this.
// Existing bookings are untouched.
func deactivateListing(c *gin.Context) {
	hostID := c.GetUint("user_id")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid listing ID"})
		return
	}

	var listing models.Listing
	if err := database.DB.First(&listing, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Listing not found"})
		return
	}

	if listing.HostID != hostID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the owner can remove this listing"})
		return
	}

	listing.IsActive = false
	if err := database.DB.Save(&listing).Error; err != nil {
		log.Printf("❌ Error deactivating listing %d: %v", listing.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove listing"})
		return
	}

	log.Printf("✅ Listing %d deactivated by host %d", listing.ID, hostID)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Listing removed from search",
	})
}

// bookingService is shared by the listing and booking routes.
// InitServices wires it before the router starts.
var bookingService *services.BookingService

// notificationService backs the notification routes and the dispatcher
var notificationService *services.NotificationService

// InitServices wires the shared service instances used by route handlers
func InitServices(bs *services.BookingService, ns *services.NotificationService) {
	bookingService = bs
	notificationService = ns
}

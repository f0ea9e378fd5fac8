package utils

import (
	"math"

	"gorm.io/gorm"

	"parkspot-server/models"
)

// Location represents a geographical coordinate
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// HaversineDistance calculates the distance between two points on Earth using the Haversine formula
// Returns distance in kilometers
func HaversineDistance(lat1, lon1, lat2, lon2 float64) float64 {
	const R = 6371 // Earth's radius in kilometers

	// Convert degrees to radians
	lat1Rad := lat1 * math.Pi / 180
	lon1Rad := lon1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	lon2Rad := lon2 * math.Pi / 180

	// Differences in coordinates
	deltaLat := lat2Rad - lat1Rad
	deltaLon := lon2Rad - lon1Rad

	// Haversine formula
	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(deltaLon/2)*math.Sin(deltaLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return R * c
}

// FindNearbyListings finds active listings within a specified radius of a location.
// Distance filtering happens in memory. Note: for large datasets consider PostGIS.
func FindNearbyListings(db *gorm.DB, location Location, radius float64) ([]models.Listing, error) {
	var listings []models.Listing

	err := db.Preload("Photos").
		Where("is_active = ? AND latitude IS NOT NULL AND longitude IS NOT NULL", true).
		Find(&listings).Error

	if err != nil {
		return nil, err
	}

	var nearby []models.Listing
	for _, listing := range listings {
		if listing.Latitude != nil && listing.Longitude != nil {
			distance := HaversineDistance(
				location.Latitude, location.Longitude,
				*listing.Latitude, *listing.Longitude,
			)

			if distance <= radius {
				nearby = append(nearby, listing)
			}
		}
	}

	return nearby, nil
}

// IsLocationValid checks if the provided coordinates are valid
func IsLocationValid(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

// GetDefaultSearchRadius returns the default listing search radius in kilometers
func GetDefaultSearchRadius() float64 {
	return 5.0 // 5 kilometers
}

// GetMaxSearchRadius returns the maximum allowed search radius in kilometers
func GetMaxSearchRadius() float64 {
	return 50.0 // 50 kilometers
}

// ValidateSearchRadius checks if the search radius is within acceptable limits
func ValidateSearchRadius(radius float64) bool {
	return radius > 0 && radius <= GetMaxSearchRadius()
}

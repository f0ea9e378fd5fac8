package models

import (
	"time"

	"gorm.io/gorm"
)

// Listing represents a parking spot offered by a host
type Listing struct {
	ID             uint           `json:"id" gorm:"primaryKey"`
	HostID         uint           `json:"host_id" gorm:"not null;index"`
	Host           User           `json:"host,omitempty" gorm:"foreignKey:HostID"`
	Title          string         `json:"title" gorm:"type:varchar(200);not null"`
	Description    string         `json:"description" gorm:"type:text"`
	Address        string         `json:"address" gorm:"size:500;not null"`
	City           string         `json:"city" gorm:"type:varchar(100)"`
	Latitude       *float64       `json:"latitude"`
	Longitude      *float64       `json:"longitude"`
	PricePerHour   float64        `json:"price_per_hour" gorm:"type:decimal(10,2);not null"`
	AvailableFrom  *time.Time     `json:"available_from"`
	AvailableUntil *time.Time     `json:"available_until"`
	IsActive       bool           `json:"is_active" gorm:"default:true"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`

	// Relationships
	Photos   []ListingPhoto `json:"photos,omitempty" gorm:"foreignKey:ListingID"`
	Bookings []Booking      `json:"bookings,omitempty" gorm:"foreignKey:ListingID"`
}

// TableName specifies the table name for the Listing model
func (Listing) TableName() string {
	return "listings"
}

// ListingPhoto represents an uploaded photo of a parking spot
type ListingPhoto struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	ListingID uint      `json:"listing_id" gorm:"not null;index"`
	URL       string    `json:"url" gorm:"type:varchar(500);not null"`
	PublicID  string    `json:"public_id" gorm:"type:varchar(255)"` // Cloudinary public ID
	SortOrder int       `json:"sort_order" gorm:"default:0"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for the ListingPhoto model
func (ListingPhoto) TableName() string {
	return "listing_photos"
}

// ListingRequest represents the request structure for creating/updating listings
type ListingRequest struct {
	Title          string     `json:"title" binding:"required"`
	Description    string     `json:"description"`
	Address        string     `json:"address" binding:"required"`
	City           string     `json:"city"`
	Latitude       *float64   `json:"latitude"`
	Longitude      *float64   `json:"longitude"`
	PricePerHour   float64    `json:"price_per_hour" binding:"required"`
	AvailableFrom  *time.Time `json:"available_from"`
	AvailableUntil *time.Time `json:"available_until"`
}

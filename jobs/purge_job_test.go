package jobs

import (
	"fmt"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"parkspot-server/config"
	"parkspot-server/database"
	"parkspot-server/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(&models.Booking{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	previousDB := database.DB
	database.DB = db

	previousConfig := config.AppConfig
	config.AppConfig = &config.Config{
		Booking: config.BookingConfig{CancelledRetentionDays: 15},
	}

	t.Cleanup(func() {
		database.DB = previousDB
		config.AppConfig = previousConfig
	})

	return db
}

func TestPurgeOldCancelledBookings(t *testing.T) {
	db := setupTestDB(t)

	now := time.Now()
	old := now.AddDate(0, 0, -20)
	recent := now.AddDate(0, 0, -3)
	start := now.Add(-24 * time.Hour)

	bookings := []models.Booking{
		{ListingID: 1, UserID: 2, HostID: 3, StartTime: start, EndTime: start.Add(time.Hour), Status: models.BookingStatusPending},
		{ListingID: 1, UserID: 2, HostID: 3, StartTime: start, EndTime: start.Add(time.Hour), Status: models.BookingStatusCompleted},
		{ListingID: 1, UserID: 2, HostID: 3, StartTime: start, EndTime: start.Add(time.Hour), Status: models.BookingStatusCancelled, CancelledAt: &recent},
		{ListingID: 1, UserID: 2, HostID: 3, StartTime: start, EndTime: start.Add(time.Hour), Status: models.BookingStatusCancelled, CancelledAt: &old},
		{ListingID: 1, UserID: 2, HostID: 3, StartTime: start, EndTime: start.Add(time.Hour), Status: models.BookingStatusCancelled}, // no timestamp
	}
	for i := range bookings {
		if err := db.Create(&bookings[i]).Error; err != nil {
			t.Fatalf("failed to seed booking: %v", err)
		}
	}

	job := NewPurgeJob()
	removed := job.PurgeOldCancelledBookings()
	if removed != 1 {
		t.Fatalf("purged %d bookings, want 1", removed)
	}

	var remaining []models.Booking
	if err := db.Find(&remaining).Error; err != nil {
		t.Fatalf("failed to load remaining bookings: %v", err)
	}
	if len(remaining) != 4 {
		t.Fatalf("%d bookings remain, want 4", len(remaining))
	}
	for _, b := range remaining {
		if b.Status == models.BookingStatusCancelled && b.CancelledAt != nil && b.CancelledAt.Before(now.AddDate(0, 0, -15)) {
			t.Errorf("booking %d should have been purged (cancelled_at %v)", b.ID, b.CancelledAt)
		}
	}

	// Running the purge again removes nothing
	if removed := job.PurgeOldCancelledBookings(); removed != 0 {
		t.Errorf("second purge removed %d bookings, want 0", removed)
	}
}

func TestPurgeKeepsEverythingInsideRetention(t *testing.T) {
	db := setupTestDB(t)

	recent := time.Now().AddDate(0, 0, -1)
	booking := models.Booking{
		ListingID: 1, UserID: 2, HostID: 3,
		StartTime: time.Now(), EndTime: time.Now().Add(time.Hour),
		Status: models.BookingStatusCancelled, CancelledAt: &recent,
	}
	if err := db.Create(&booking).Error; err != nil {
		t.Fatalf("failed to seed booking: %v", err)
	}

	job := NewPurgeJob()
	if removed := job.PurgeOldCancelledBookings(); removed != 0 {
		t.Fatalf("purged %d bookings, want 0", removed)
	}
}

package services

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"parkspot-server/database"
	"parkspot-server/models"
)

// setupTestDB points the global database handle at an in-memory SQLite
// database with the booking schema migrated.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	// SQLite has no row locks; a single connection serializes transactions the
	// way the Postgres FOR UPDATE lock does in production
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(1)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Listing{},
		&models.Booking{},
		&models.Notification{},
		&models.PushToken{},
		&models.RefreshToken{},
	); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	previous := database.DB
	database.DB = db
	t.Cleanup(func() {
		database.DB = previous
	})

	return db
}

func seedListing(t *testing.T, db *gorm.DB, hostID uint, active bool) models.Listing {
	t.Helper()

	host := models.User{
		FullName:     "Test Host",
		PhoneNumber:  fmt.Sprintf("+2224%07d", hostID),
		PasswordHash: "x",
		Role:         models.RoleHost,
		IsActive:     true,
	}
	host.ID = hostID
	if err := db.Create(&host).Error; err != nil {
		t.Fatalf("failed to seed host: %v", err)
	}

	listing := models.Listing{
		HostID:       hostID,
		Title:        "Test spot",
		Address:      "1 Test Street",
		City:         "Nouakchott",
		PricePerHour: 10,
		IsActive:     active,
	}
	if err := db.Create(&listing).Error; err != nil {
		t.Fatalf("failed to seed listing: %v", err)
	}
	return listing
}

func newTestBookingService() *BookingService {
	return NewBookingService(NewNotificationService(nil))
}

func TestCreateBookingValidation(t *testing.T) {
	db := setupTestDB(t)
	bs := newTestBookingService()
	listing := seedListing(t, db, 1, true)

	start := time.Now().Add(time.Hour).Truncate(time.Second)

	tests := []struct {
		name    string
		input   CreateBookingInput
		wantErr error
	}{
		{
			name: "end before start",
			input: CreateBookingInput{
				ListingID: listing.ID, UserID: 2,
				StartTime: start, EndTime: start.Add(-time.Hour), TotalPrice: 10,
			},
			wantErr: ErrInvalidTimeRange,
		},
		{
			name: "zero-length interval",
			input: CreateBookingInput{
				ListingID: listing.ID, UserID: 2,
				StartTime: start, EndTime: start, TotalPrice: 10,
			},
			wantErr: ErrInvalidTimeRange,
		},
		{
			name: "missing times",
			input: CreateBookingInput{
				ListingID: listing.ID, UserID: 2, TotalPrice: 10,
			},
			wantErr: ErrInvalidTimeRange,
		},
		{
			name: "negative price",
			input: CreateBookingInput{
				ListingID: listing.ID, UserID: 2,
				StartTime: start, EndTime: start.Add(time.Hour), TotalPrice: -1,
			},
			wantErr: ErrInvalidPrice,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := bs.CreateBooking(tt.input)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("CreateBooking() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	// Rejected requests must not write anything
	var count int64
	db.Model(&models.Booking{}).Count(&count)
	if count != 0 {
		t.Errorf("expected no bookings after rejected requests, found %d", count)
	}
}

func TestCreateBookingListingNotFound(t *testing.T) {
	setupTestDB(t)
	bs := newTestBookingService()

	start := time.Now().Add(time.Hour)
	_, err := bs.CreateBooking(CreateBookingInput{
		ListingID: 999, UserID: 2,
		StartTime: start, EndTime: start.Add(time.Hour), TotalPrice: 10,
	})
	if !errors.Is(err, ErrListingNotFound) {
		t.Fatalf("CreateBooking() error = %v, want ErrListingNotFound", err)
	}
}

func TestCreateBookingInactiveListing(t *testing.T) {
	db := setupTestDB(t)
	bs := newTestBookingService()
	listing := seedListing(t, db, 1, false)

	start := time.Now().Add(time.Hour)
	_, err := bs.CreateBooking(CreateBookingInput{
		ListingID: listing.ID, UserID: 2,
		StartTime: start, EndTime: start.Add(time.Hour), TotalPrice: 10,
	})
	if !errors.Is(err, ErrListingInactive) {
		t.Fatalf("CreateBooking() error = %v, want ErrListingInactive", err)
	}
}

func TestCreateBookingResolvesHostFromListing(t *testing.T) {
	db := setupTestDB(t)
	bs := newTestBookingService()
	listing := seedListing(t, db, 7, true)

	start := time.Now().Add(time.Hour)
	booking, err := bs.CreateBooking(CreateBookingInput{
		ListingID: listing.ID, UserID: 2,
		StartTime: start, EndTime: start.Add(time.Hour), TotalPrice: 10,
	})
	if err != nil {
		t.Fatalf("CreateBooking() error = %v", err)
	}
	if booking.HostID != 7 {
		t.Errorf("booking.HostID = %d, want 7 (resolved from listing)", booking.HostID)
	}
	if booking.Status != models.BookingStatusPending {
		t.Errorf("booking.Status = %s, want pending", booking.Status)
	}
}

func TestCreateBookingConflict(t *testing.T) {
	db := setupTestDB(t)
	bs := newTestBookingService()
	listing := seedListing(t, db, 1, true)

	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	first, err := bs.CreateBooking(CreateBookingInput{
		ListingID: listing.ID, UserID: 2,
		StartTime: base, EndTime: base.Add(time.Hour), TotalPrice: 10,
	})
	if err != nil {
		t.Fatalf("first CreateBooking() error = %v", err)
	}

	// Overlapping request must be rejected
	_, err = bs.CreateBooking(CreateBookingInput{
		ListingID: listing.ID, UserID: 3,
		StartTime: base.Add(30 * time.Minute), EndTime: base.Add(90 * time.Minute), TotalPrice: 10,
	})
	if !errors.Is(err, ErrBookingConflict) {
		t.Fatalf("overlapping CreateBooking() error = %v, want ErrBookingConflict", err)
	}

	// Back-to-back request sharing a boundary is allowed
	_, err = bs.CreateBooking(CreateBookingInput{
		ListingID: listing.ID, UserID: 3,
		StartTime: base.Add(time.Hour), EndTime: base.Add(2 * time.Hour), TotalPrice: 10,
	})
	if err != nil {
		t.Fatalf("back-to-back CreateBooking() error = %v", err)
	}

	// Cancelling frees the slot
	if _, err := bs.UpdateBookingStatus(first.ID, models.BookingStatusCancelled, 2); err != nil {
		t.Fatalf("UpdateBookingStatus() error = %v", err)
	}
	_, err = bs.CreateBooking(CreateBookingInput{
		ListingID: listing.ID, UserID: 4,
		StartTime: base, EndTime: base.Add(time.Hour), TotalPrice: 10,
	})
	if err != nil {
		t.Fatalf("CreateBooking() after cancellation error = %v", err)
	}
}

func TestCreateBookingConcurrentOverlap(t *testing.T) {
	db := setupTestDB(t)
	bs := newTestBookingService()
	listing := seedListing(t, db, 1, true)

	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = bs.CreateBooking(CreateBookingInput{
				ListingID: listing.ID, UserID: uint(10 + i),
				StartTime: base, EndTime: base.Add(time.Hour), TotalPrice: 10,
			})
		}(i)
	}
	wg.Wait()

	var succeeded, conflicted int
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, ErrBookingConflict):
			conflicted++
		default:
			t.Fatalf("unexpected error from concurrent create: %v", err)
		}
	}
	if succeeded != 1 || conflicted != 1 {
		t.Fatalf("want exactly one success and one conflict, got %d successes, %d conflicts", succeeded, conflicted)
	}

	var count int64
	db.Model(&models.Booking{}).Where("listing_id = ?", listing.ID).Count(&count)
	if count != 1 {
		t.Errorf("expected exactly 1 booking row, found %d", count)
	}
}

func TestUpdateBookingStatusConcurrentCancel(t *testing.T) {
	db := setupTestDB(t)
	bs := newTestBookingService()
	listing := seedListing(t, db, 1, true)

	const driverID = 2

	start := time.Date(2025, 3, 2, 10, 0, 0, 0, time.UTC)
	booking, err := bs.CreateBooking(CreateBookingInput{
		ListingID: listing.ID, UserID: driverID,
		StartTime: start, EndTime: start.Add(time.Hour), TotalPrice: 10,
	})
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}

	// Host and driver cancel at the same time. The row lock serializes the
	// two updates: whichever lands second must see the terminal status and
	// be rejected by the transition guard instead of saving its stale copy.
	var wg sync.WaitGroup
	errs := make([]error, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, errs[0] = bs.UpdateBookingStatus(booking.ID, models.BookingStatusCancelled, listing.HostID)
	}()
	go func() {
		defer wg.Done()
		_, errs[1] = bs.UpdateBookingStatus(booking.ID, models.BookingStatusCancelled, driverID)
	}()
	wg.Wait()

	var succeeded, rejected int
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, ErrInvalidTransition):
			rejected++
		default:
			t.Fatalf("unexpected error from concurrent cancel: %v", err)
		}
	}
	if succeeded != 1 || rejected != 1 {
		t.Fatalf("want exactly one success and one rejected transition, got %d successes, %d rejections", succeeded, rejected)
	}

	var final models.Booking
	if err := db.First(&final, booking.ID).Error; err != nil {
		t.Fatalf("reload booking: %v", err)
	}
	if final.Status != models.BookingStatusCancelled {
		t.Fatalf("booking ended in status %s, want cancelled", final.Status)
	}
	if final.CancelledAt == nil {
		t.Error("cancelled booking lost its cancellation timestamp")
	}
}

func TestUpdateBookingStatusLifecycle(t *testing.T) {
	db := setupTestDB(t)
	bs := newTestBookingService()
	listing := seedListing(t, db, 1, true)

	const driverID = 2

	newPending := func(offset time.Duration) *models.Booking {
		start := time.Date(2025, 4, 1, 8, 0, 0, 0, time.UTC).Add(offset)
		booking, err := bs.CreateBooking(CreateBookingInput{
			ListingID: listing.ID, UserID: driverID,
			StartTime: start, EndTime: start.Add(time.Hour), TotalPrice: 10,
		})
		if err != nil {
			t.Fatalf("CreateBooking() error = %v", err)
		}
		return booking
	}

	t.Run("host confirms then completes", func(t *testing.T) {
		booking := newPending(0)
		updated, err := bs.UpdateBookingStatus(booking.ID, models.BookingStatusConfirmed, listing.HostID)
		if err != nil {
			t.Fatalf("confirm error = %v", err)
		}
		if updated.Status != models.BookingStatusConfirmed {
			t.Fatalf("status = %s, want confirmed", updated.Status)
		}
		updated, err = bs.UpdateBookingStatus(booking.ID, models.BookingStatusCompleted, listing.HostID)
		if err != nil {
			t.Fatalf("complete error = %v", err)
		}
		if updated.Status != models.BookingStatusCompleted {
			t.Fatalf("status = %s, want completed", updated.Status)
		}
	})

	t.Run("driver cannot confirm", func(t *testing.T) {
		booking := newPending(2 * time.Hour)
		if _, err := bs.UpdateBookingStatus(booking.ID, models.BookingStatusConfirmed, driverID); !errors.Is(err, ErrNotAllowed) {
			t.Fatalf("driver confirm error = %v, want ErrNotAllowed", err)
		}
	})

	t.Run("stranger cannot touch the booking", func(t *testing.T) {
		booking := newPending(4 * time.Hour)
		if _, err := bs.UpdateBookingStatus(booking.ID, models.BookingStatusCancelled, 999); !errors.Is(err, ErrNotAllowed) {
			t.Fatalf("stranger cancel error = %v, want ErrNotAllowed", err)
		}
	})

	t.Run("driver cancel stamps CancelledAt", func(t *testing.T) {
		booking := newPending(6 * time.Hour)
		updated, err := bs.UpdateBookingStatus(booking.ID, models.BookingStatusCancelled, driverID)
		if err != nil {
			t.Fatalf("cancel error = %v", err)
		}
		if updated.CancelledAt == nil {
			t.Fatal("CancelledAt not set on cancellation")
		}
		if updated.CancelledAt.Before(updated.CreatedAt) {
			t.Errorf("CancelledAt %v precedes CreatedAt %v", updated.CancelledAt, updated.CreatedAt)
		}
	})

	t.Run("terminal states reject transitions", func(t *testing.T) {
		booking := newPending(8 * time.Hour)
		if _, err := bs.UpdateBookingStatus(booking.ID, models.BookingStatusCancelled, driverID); err != nil {
			t.Fatalf("cancel error = %v", err)
		}
		if _, err := bs.UpdateBookingStatus(booking.ID, models.BookingStatusConfirmed, listing.HostID); !errors.Is(err, ErrInvalidTransition) {
			t.Fatalf("confirm after cancel error = %v, want ErrInvalidTransition", err)
		}
	})

	t.Run("pending cannot jump to completed", func(t *testing.T) {
		booking := newPending(10 * time.Hour)
		if _, err := bs.UpdateBookingStatus(booking.ID, models.BookingStatusCompleted, listing.HostID); !errors.Is(err, ErrInvalidTransition) {
			t.Fatalf("pending->completed error = %v, want ErrInvalidTransition", err)
		}
	})

	t.Run("unknown status rejected", func(t *testing.T) {
		booking := newPending(12 * time.Hour)
		if _, err := bs.UpdateBookingStatus(booking.ID, models.BookingStatus("archived"), listing.HostID); !errors.Is(err, ErrInvalidStatus) {
			t.Fatalf("unknown status error = %v, want ErrInvalidStatus", err)
		}
	})
}

func TestUpdateBookingStatusNotFound(t *testing.T) {
	setupTestDB(t)
	bs := newTestBookingService()

	if _, err := bs.UpdateBookingStatus(42, models.BookingStatusCancelled, 1); !errors.Is(err, ErrBookingNotFound) {
		t.Fatalf("error = %v, want ErrBookingNotFound", err)
	}
}

func TestGetOverlappingBookingsIgnoresInactiveStatuses(t *testing.T) {
	db := setupTestDB(t)
	bs := newTestBookingService()
	listing := seedListing(t, db, 1, true)

	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	now := time.Now()

	rows := []models.Booking{
		{ListingID: listing.ID, UserID: 2, HostID: 1, StartTime: base, EndTime: base.Add(time.Hour), Status: models.BookingStatusPending},
		{ListingID: listing.ID, UserID: 3, HostID: 1, StartTime: base, EndTime: base.Add(time.Hour), Status: models.BookingStatusCancelled, CancelledAt: &now},
		{ListingID: listing.ID, UserID: 4, HostID: 1, StartTime: base, EndTime: base.Add(time.Hour), Status: models.BookingStatusCompleted},
	}
	for i := range rows {
		if err := db.Create(&rows[i]).Error; err != nil {
			t.Fatalf("failed to seed booking: %v", err)
		}
	}

	overlaps, err := bs.GetOverlappingBookings(listing.ID, base.Add(30*time.Minute), base.Add(90*time.Minute))
	if err != nil {
		t.Fatalf("GetOverlappingBookings() error = %v", err)
	}
	if len(overlaps) != 1 {
		t.Fatalf("got %d overlaps, want 1 (cancelled and completed do not block)", len(overlaps))
	}
	if overlaps[0].UserID != 2 {
		t.Errorf("overlap belongs to user %d, want 2", overlaps[0].UserID)
	}
}

func TestCreateBookingWritesHostNotification(t *testing.T) {
	db := setupTestDB(t)
	bs := newTestBookingService()
	listing := seedListing(t, db, 1, true)

	start := time.Now().Add(time.Hour)
	booking, err := bs.CreateBooking(CreateBookingInput{
		ListingID: listing.ID, UserID: 2,
		StartTime: start, EndTime: start.Add(time.Hour), TotalPrice: 10,
	})
	if err != nil {
		t.Fatalf("CreateBooking() error = %v", err)
	}

	var notifications []models.Notification
	if err := db.Where("user_id = ?", listing.HostID).Find(&notifications).Error; err != nil {
		t.Fatalf("failed to load notifications: %v", err)
	}
	if len(notifications) != 1 {
		t.Fatalf("got %d host notifications, want 1", len(notifications))
	}
	if notifications[0].Type != "booking_request" {
		t.Errorf("notification type = %s, want booking_request", notifications[0].Type)
	}
	if notifications[0].BookingID == nil || *notifications[0].BookingID != booking.ID {
		t.Errorf("notification BookingID = %v, want %d", notifications[0].BookingID, booking.ID)
	}
}

func TestFilterOldCancelledBookings(t *testing.T) {
	now := time.Now()
	old := now.Add(-20 * 24 * time.Hour)
	recent := now.Add(-2 * 24 * time.Hour)
	retention := 15 * 24 * time.Hour

	bookings := []models.Booking{
		{ID: 1, Status: models.BookingStatusPending},
		{ID: 2, Status: models.BookingStatusCompleted},
		{ID: 3, Status: models.BookingStatusCancelled, CancelledAt: &recent},
		{ID: 4, Status: models.BookingStatusCancelled, CancelledAt: &old},
		{ID: 5, Status: models.BookingStatusCancelled}, // no timestamp, kept
	}

	kept := FilterOldCancelledBookings(bookings, retention)

	wantIDs := map[uint]bool{1: true, 2: true, 3: true, 5: true}
	if len(kept) != len(wantIDs) {
		t.Fatalf("kept %d bookings, want %d", len(kept), len(wantIDs))
	}
	for _, b := range kept {
		if !wantIDs[b.ID] {
			t.Errorf("booking %d should have been filtered out", b.ID)
		}
	}

	// Idempotent: filtering an already-filtered slice changes nothing
	again := FilterOldCancelledBookings(kept, retention)
	if len(again) != len(kept) {
		t.Errorf("second filter pass removed bookings: %d -> %d", len(kept), len(again))
	}
}

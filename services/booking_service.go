package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"parkspot-server/database"
	"parkspot-server/models"
)

// Booking service errors. Routes map these to HTTP status codes; nothing in
// this layer swallows an error into an empty result.
var (
	ErrInvalidTimeRange  = errors.New("start time must be before end time")
	ErrInvalidPrice      = errors.New("total price must not be negative")
	ErrListingNotFound   = errors.New("listing not found")
	ErrListingInactive   = errors.New("listing is not active")
	ErrBookingNotFound   = errors.New("booking not found")
	ErrBookingConflict   = errors.New("time slot overlaps an existing booking")
	ErrInvalidStatus     = errors.New("invalid booking status")
	ErrInvalidTransition = errors.New("booking status transition not allowed")
	ErrNotAllowed        = errors.New("user is not allowed to perform this action")
)

// CreateBookingInput carries the fields a driver submits when requesting a booking
type CreateBookingInput struct {
	ListingID  uint
	UserID     uint // the requesting driver
	HostID     uint // optional; resolved from the listing when zero
	StartTime  time.Time
	EndTime    time.Time
	TotalPrice float64
}

// BookingService enforces the booking state machine and the interval-overlap
// invariant: for a listing, no two pending/confirmed bookings may have
// overlapping [start, end) intervals.
type BookingService struct {
	notifications *NotificationService
}

// NewBookingService creates a new booking service
func NewBookingService(notifications *NotificationService) *BookingService {
	return &BookingService{notifications: notifications}
}

// CreateBooking validates the request, rejects overlapping intervals and
// creates the booking in pending status.
//
// The conflict check and the insert run in one transaction holding a row lock
// on the listing, so two concurrent requests for the same listing serialize
// and at most one of two overlapping requests succeeds.
func (bs *BookingService) CreateBooking(input CreateBookingInput) (*models.Booking, error) {
	if input.StartTime.IsZero() || input.EndTime.IsZero() || !input.StartTime.Before(input.EndTime) {
		return nil, ErrInvalidTimeRange
	}
	if input.TotalPrice < 0 {
		return nil, ErrInvalidPrice
	}

	var booking *models.Booking
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		// Lock the listing row: concurrent creates for the same listing
		// queue up behind this lock until the transaction commits
		var listing models.Listing
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&listing, input.ListingID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrListingNotFound
			}
			return fmt.Errorf("failed to load listing %d: %w", input.ListingID, err)
		}

		if !listing.IsActive {
			return ErrListingInactive
		}

		hostID := input.HostID
		if hostID == 0 {
			hostID = listing.HostID
		}

		conflicts, err := overlappingBookings(tx, input.ListingID, input.StartTime, input.EndTime)
		if err != nil {
			return err
		}
		if len(conflicts) > 0 {
			log.Printf("⚠️ Booking conflict on listing %d: requested [%s, %s) overlaps booking %d",
				input.ListingID, input.StartTime.Format(time.RFC3339), input.EndTime.Format(time.RFC3339), conflicts[0].ID)
			return ErrBookingConflict
		}

		booking = &models.Booking{
			ListingID:  input.ListingID,
			UserID:     input.UserID,
			HostID:     hostID,
			StartTime:  input.StartTime,
			EndTime:    input.EndTime,
			TotalPrice: input.TotalPrice,
			Status:     models.BookingStatusPending,
		}

		if err := tx.Create(booking).Error; err != nil {
			return fmt.Errorf("failed to create booking: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("✅ Booking %d created on listing %d by user %d", booking.ID, booking.ListingID, booking.UserID)

	// Notify the host. Best-effort: a notification failure never rolls back
	// the booking, it is logged and the booking stands.
	bs.notifications.NotifyBookingRequest(booking)

	return booking, nil
}

// UpdateBookingStatus moves a booking through its lifecycle:
// pending -> confirmed|cancelled, confirmed -> completed|cancelled.
// Only the host may confirm or complete; either participant may cancel.
func (bs *BookingService) UpdateBookingStatus(bookingID uint, newStatus models.BookingStatus, actingUserID uint) (*models.Booking, error) {
	if !newStatus.IsValid() {
		return nil, ErrInvalidStatus
	}

	// Load, check, and write under a row lock so two concurrent updates
	// cannot both observe the old status and race past the transition guard
	var booking models.Booking
	var previous models.BookingStatus
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&booking, bookingID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBookingNotFound
			}
			return fmt.Errorf("failed to load booking %d: %w", bookingID, err)
		}

		isHost := actingUserID == booking.HostID
		isDriver := actingUserID == booking.UserID
		if !isHost && !isDriver {
			return ErrNotAllowed
		}

		if !booking.Status.CanTransitionTo(newStatus) {
			log.Printf("⚠️ Rejected transition %s -> %s for booking %d", booking.Status, newStatus, booking.ID)
			return ErrInvalidTransition
		}

		switch newStatus {
		case models.BookingStatusConfirmed, models.BookingStatusCompleted:
			if !isHost {
				return ErrNotAllowed
			}
		}

		previous = booking.Status
		booking.Status = newStatus
		if newStatus == models.BookingStatusCancelled {
			now := time.Now()
			booking.CancelledAt = &now
		}

		if err := tx.Save(&booking).Error; err != nil {
			return fmt.Errorf("failed to update booking %d: %w", bookingID, err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("✅ Booking %d status %s -> %s by user %d", booking.ID, previous, newStatus, actingUserID)

	// Recipient and copy depend on who acted and the new status; delivery is
	// best-effort, same policy as on create
	bs.notifications.NotifyBookingStatusChange(&booking, actingUserID)

	return &booking, nil
}

// GetBooking loads a booking with its listing and participants
func (bs *BookingService) GetBooking(bookingID uint) (*models.Booking, error) {
	var booking models.Booking
	err := database.DB.
		Preload("Listing").
		Preload("User").
		Preload("Host").
		First(&booking, bookingID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("failed to load booking %d: %w", bookingID, err)
	}
	return &booking, nil
}

// GetOverlappingBookings returns the pending/confirmed bookings on a listing
// whose [start, end) interval overlaps the requested one, ordered by start
// time. Errors propagate to the caller; there is no degrade-to-empty here.
func (bs *BookingService) GetOverlappingBookings(listingID uint, start, end time.Time) ([]models.Booking, error) {
	return overlappingBookings(database.DB, listingID, start, end)
}

// overlappingBookings fetches the active bookings for a listing and filters
// them in memory with the half-open overlap predicate
func overlappingBookings(db *gorm.DB, listingID uint, start, end time.Time) ([]models.Booking, error) {
	var candidates []models.Booking
	err := db.
		Where("listing_id = ? AND status IN ?", listingID,
			[]models.BookingStatus{models.BookingStatusPending, models.BookingStatusConfirmed}).
		Order("start_time ASC").
		Find(&candidates).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings for listing %d: %w", listingID, err)
	}

	var overlapping []models.Booking
	for _, b := range candidates {
		if b.OverlapsRange(start, end) {
			overlapping = append(overlapping, b)
		}
	}

	return overlapping, nil
}

// ListUserBookings returns the bookings a driver requested, newest first
func (bs *BookingService) ListUserBookings(userID uint) ([]models.Booking, error) {
	var bookings []models.Booking
	err := database.DB.
		Preload("Listing").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&bookings).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings for user %d: %w", userID, err)
	}
	return bookings, nil
}

// ListHostBookings returns the bookings on a host's listings, newest first
func (bs *BookingService) ListHostBookings(hostID uint) ([]models.Booking, error) {
	var bookings []models.Booking
	err := database.DB.
		Preload("Listing").
		Preload("User").
		Where("host_id = ?", hostID).
		Order("created_at DESC").
		Find(&bookings).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings for host %d: %w", hostID, err)
	}
	return bookings, nil
}

// FilterOldCancelledBookings keeps every non-cancelled booking and every
// cancelled booking whose CancelledAt is within the retention window.
// Cancelled bookings without a CancelledAt timestamp are kept conservatively.
// The function is pure and idempotent.
func FilterOldCancelledBookings(bookings []models.Booking, retention time.Duration) []models.Booking {
	cutoff := time.Now().Add(-retention)

	kept := make([]models.Booking, 0, len(bookings))
	for _, b := range bookings {
		if b.Status != models.BookingStatusCancelled {
			kept = append(kept, b)
			continue
		}
		if b.CancelledAt == nil || b.CancelledAt.After(cutoff) {
			kept = append(kept, b)
		}
	}

	return kept
}

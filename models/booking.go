package models

import (
	"time"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusCompleted BookingStatus = "completed"
)

// IsValid checks if the booking status is one of the known states
func (s BookingStatus) IsValid() bool {
	switch s {
	case BookingStatusPending, BookingStatusConfirmed, BookingStatusCancelled, BookingStatusCompleted:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further transitions are allowed from s
func (s BookingStatus) IsTerminal() bool {
	return s == BookingStatusCancelled || s == BookingStatusCompleted
}

// CanTransitionTo reports whether the lifecycle allows moving from s to target.
// pending -> confirmed|cancelled, confirmed -> completed|cancelled.
func (s BookingStatus) CanTransitionTo(target BookingStatus) bool {
	switch s {
	case BookingStatusPending:
		return target == BookingStatusConfirmed || target == BookingStatusCancelled
	case BookingStatusConfirmed:
		return target == BookingStatusCompleted || target == BookingStatusCancelled
	default:
		return false
	}
}

type Booking struct {
	ID          uint          `json:"id" gorm:"primaryKey"`
	ListingID   uint          `json:"listing_id" gorm:"not null;index"`
	UserID      uint          `json:"user_id" gorm:"not null;index"` // the driver who requested the booking
	HostID      uint          `json:"host_id" gorm:"not null;index"`
	StartTime   time.Time     `json:"start_time" gorm:"not null"`
	EndTime     time.Time     `json:"end_time" gorm:"not null"`
	TotalPrice  float64       `json:"total_price" gorm:"type:decimal(10,2);not null"`
	Status      BookingStatus `json:"status" gorm:"type:varchar(20);default:'pending';check:status IN ('pending','confirmed','cancelled','completed')"`
	CancelledAt *time.Time    `json:"cancelled_at"`
	CreatedAt   time.Time     `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time     `json:"updated_at" gorm:"autoUpdateTime"`

	// Relationships
	Listing Listing `json:"listing,omitempty" gorm:"foreignKey:ListingID"`
	User    User    `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Host    User    `json:"host,omitempty" gorm:"foreignKey:HostID"`
}

// TableName specifies the table name for the Booking model
func (Booking) TableName() string {
	return "bookings"
}

// IsActive reports whether the booking still blocks its time slot
func (b *Booking) IsActive() bool {
	return b.Status == BookingStatusPending || b.Status == BookingStatusConfirmed
}

// OverlapsRange reports whether the booking's [StartTime, EndTime) interval
// overlaps the half-open interval [start, end)
func (b *Booking) OverlapsRange(start, end time.Time) bool {
	return IntervalsOverlap(b.StartTime, b.EndTime, start, end)
}

// IntervalsOverlap reports whether the half-open intervals [s1, e1) and
// [s2, e2) share at least one instant. Touching boundaries do not overlap.
func IntervalsOverlap(s1, e1, s2, e2 time.Time) bool {
	return e1.After(s2) && s1.Before(e2)
}

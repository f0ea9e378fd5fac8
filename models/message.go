package models

import (
	"time"
)

// Message represents a single message exchanged between the driver and host
// of a booking. Messages form a simple append-only log scoped to a booking.
type Message struct {
	ID         uint       `json:"id" gorm:"primaryKey"`
	BookingID  uint       `json:"booking_id" gorm:"not null;index"`
	SenderID   uint       `json:"sender_id" gorm:"not null"`
	ReceiverID uint       `json:"receiver_id" gorm:"not null"`
	Content    string     `json:"content" gorm:"type:text;not null"`
	IsRead     bool       `json:"is_read" gorm:"default:false"`
	ReadAt     *time.Time `json:"read_at"`
	CreatedAt  time.Time  `json:"created_at"`

	// Relations
	Booking  Booking `json:"booking,omitempty" gorm:"foreignKey:BookingID"`
	Sender   User    `json:"sender,omitempty" gorm:"foreignKey:SenderID"`
	Receiver User    `json:"receiver,omitempty" gorm:"foreignKey:ReceiverID"`
}

// TableName specifies the table name for the Message model
func (Message) TableName() string {
	return "messages"
}

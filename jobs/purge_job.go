package jobs

import (
	"log"
	"time"

	"parkspot-server/config"
	"parkspot-server/database"
	"parkspot-server/models"
)

// PurgeJob removes cancelled bookings once they fall out of the retention
// window. Cancelled bookings without a cancelled_at timestamp are kept.
type PurgeJob struct {
	stopChan chan bool
}

// NewPurgeJob creates a new purge job
func NewPurgeJob() *PurgeJob {
	return &PurgeJob{
		stopChan: make(chan bool),
	}
}

// Start begins the purge job
func (j *PurgeJob) Start() {
	go j.run()
	log.Println("🚀 Booking purge job started")
}

// Stop stops the purge job
func (j *PurgeJob) Stop() {
	j.stopChan <- true
	log.Println("🛑 Booking purge job stopped")
}

// run executes the purge job
func (j *PurgeJob) run() {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			j.PurgeOldCancelledBookings()
		case <-j.stopChan:
			return
		}
	}
}

// PurgeOldCancelledBookings deletes cancelled bookings whose cancelled_at is
// older than the retention window. Returns the number of rows removed.
func (j *PurgeJob) PurgeOldCancelledBookings() int64 {
	retentionDays := config.AppConfig.Booking.CancelledRetentionDays
	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	result := database.DB.
		Where("status = ? AND cancelled_at IS NOT NULL AND cancelled_at < ?",
			models.BookingStatusCancelled, cutoff).
		Delete(&models.Booking{})

	if result.Error != nil {
		log.Printf("❌ Error purging old cancelled bookings: %v", result.Error)
		return 0
	}

	if result.RowsAffected > 0 {
		log.Printf("🧹 Purged %d cancelled bookings older than %d days", result.RowsAffected, retentionDays)
	}

	return result.RowsAffected
}

package utils

import (
	"log"
	"time"

	"odl/config"
	"odl/database"
	courseModels "odl/models/course"

	"github.com/robfig/cron/v3"
)

// InitializeExamScheduler sets up the stale-attempt cleanup job
func InitializeExamScheduler() {
	log.Println("[EXAM-SCHEDULER] Initializing exam scheduler...")

	c := cron.New()

	// Run hourly to close abandoned in-progress attempts
	c.AddFunc("0 * * * *", func() {
		log.Println("[EXAM-SCHEDULER] Running stale attempt cleanup...")
		ExpireStaleAttempts()
	})

	c.Start()
	log.Println("[EXAM-SCHEDULER] Exam scheduler started - runs hourly")
}

// ExpireStaleAttempts marks abandoned in-progress attempts as EXPIRED. An
// attempt a learner walked away from is never resumed mid-answering; on the
// next visit the entry state is derived fresh and a new attempt starts.
func ExpireStaleAttempts() {
	db := database.Database.Db
	cutoff := time.Now().Add(-time.Duration(config.AppConfig.AttemptExpiryHours) * time.Hour)

	result := db.Model(&courseModels.ExamAttempt{}).
		Where("status = ? AND created_at < ? AND is_deleted = ?", courseModels.AttemptInProgress, cutoff, false).
		Update("status", courseModels.AttemptExpired)

	if result.Error != nil {
		log.Printf("[EXAM-SCHEDULER] Error expiring stale attempts: %v", result.Error)
		return
	}

	if result.RowsAffected > 0 {
		log.Printf("[EXAM-SCHEDULER] Expired %d stale attempts", result.RowsAffected)
	}
}

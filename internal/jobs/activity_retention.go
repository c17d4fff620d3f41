package jobs

import (
	"context"
	"log"
	"time"

	"ganttboard/internal/services"
)

// ActivityRetention purges audit records older than the configured
// retention window.
type ActivityRetention struct {
	activities    *services.ActivityService
	retentionDays int
}

// NewActivityRetention creates the retention job
func NewActivityRetention(activities *services.ActivityService, retentionDays int) *ActivityRetention {
	return &ActivityRetention{activities: activities, retentionDays: retentionDays}
}

// Run deletes activities past the retention cutoff
func (j *ActivityRetention) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	cutoff := time.Now().UTC().AddDate(0, 0, -j.retentionDays)
	deleted, err := j.activities.PurgeOlderThan(ctx, cutoff)
	if err != nil {
		log.Printf("❌ [RETENTION] Purge failed: %v", err)
		return
	}

	if deleted > 0 {
		log.Printf("🗑️  [RETENTION] Purged %d activities older than %d days", deleted, j.retentionDays)
	}
}

package jobs

import (
	"context"
	"log"
	"time"

	"ganttboard/internal/models"
	"ganttboard/internal/services"

	"github.com/google/uuid"
)

// DelayedSweep flips overdue tasks to delayed. A task is overdue when
// its end date has passed and it isn't completed. The sweep never
// reverses itself; moving a task out of delayed is a user action.
type DelayedSweep struct {
	tasks      *services.TaskService
	projects   *services.ProjectService
	activities *services.ActivityService
	redis      *services.RedisService // nil in single-instance deployments
	metrics    *services.Metrics
}

// NewDelayedSweep creates the sweep job. activities, redis, and metrics
// may each be nil.
func NewDelayedSweep(tasks *services.TaskService, projects *services.ProjectService, activities *services.ActivityService, redis *services.RedisService, metrics *services.Metrics) *DelayedSweep {
	return &DelayedSweep{tasks: tasks, projects: projects, activities: activities, redis: redis, metrics: metrics}
}

// Run executes one sweep. With Redis configured, a short lock ensures
// only one instance sweeps per tick.
func (j *DelayedSweep) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if j.redis != nil {
		lockValue := uuid.New().String()
		acquired, err := j.redis.AcquireLock(ctx, "lock:delayed-sweep", lockValue, time.Minute)
		if err != nil {
			log.Printf("⚠️  [SWEEP] Lock check failed, sweeping anyway: %v", err)
		} else if !acquired {
			log.Println("⏭️  [SWEEP] Another instance holds the lock, skipping")
			return
		} else {
			defer j.redis.ReleaseLock(ctx, "lock:delayed-sweep", lockValue)
		}
	}

	start := time.Now()
	today := time.Now().UTC().Format("2006-01-02")

	flipped, err := j.tasks.MarkDelayed(ctx, today)
	if err != nil {
		log.Printf("❌ [SWEEP] Failed: %v", err)
		return
	}

	orgByProject := map[string]string{}
	for _, t := range flipped {
		orgID, ok := orgByProject[t.ProjectID]
		if !ok {
			var err error
			orgID, err = j.projects.OrgOfProject(ctx, t.ProjectID)
			if err != nil {
				log.Printf("⚠️  [SWEEP] Org lookup failed for project %s: %v", t.ProjectID, err)
			}
			orgByProject[t.ProjectID] = orgID
		}
		j.activities.Record(ctx, orgID, "", t.ProjectID, t.ID, models.ActionTaskDelayed, map[string]interface{}{
			"title":    t.Title,
			"end_date": t.EndDate,
		})
	}

	if j.metrics != nil {
		j.metrics.RecordDelayedTasks(len(flipped))
		j.metrics.RecordSweepDuration(time.Since(start).Seconds())
	}

	if len(flipped) > 0 {
		log.Printf("✅ [SWEEP] Marked %d tasks delayed in %v", len(flipped), time.Since(start))
	}
}

package jobs

import (
	"fmt"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/robfig/cron/v3"
)

// Runner owns the background job scheduler: the delayed-task sweep on
// its cron expression, and the nightly activity retention purge.
type Runner struct {
	scheduler gocron.Scheduler
	sweep     *DelayedSweep
	retention *ActivityRetention
	sweepCron string
}

// NewRunner creates the job runner. retention may be nil when the
// activity feed is disabled.
func NewRunner(sweep *DelayedSweep, retention *ActivityRetention, sweepCron string) (*Runner, error) {
	// Fail fast on a bad SWEEP_CRON rather than at first tick
	if _, err := cron.ParseStandard(sweepCron); err != nil {
		return nil, fmt.Errorf("invalid sweep cron expression %q: %w", sweepCron, err)
	}

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	return &Runner{
		scheduler: scheduler,
		sweep:     sweep,
		retention: retention,
		sweepCron: sweepCron,
	}, nil
}

// Start registers and starts all jobs
func (r *Runner) Start() error {
	_, err := r.scheduler.NewJob(
		gocron.CronJob(r.sweepCron, false),
		gocron.NewTask(r.sweep.Run),
		gocron.WithName("delayed-sweep"),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule delayed sweep: %w", err)
	}
	log.Printf("⏰ [JOBS] Delayed sweep scheduled: %s", r.sweepCron)

	if r.retention != nil {
		_, err = r.scheduler.NewJob(
			gocron.DurationJob(24*time.Hour),
			gocron.NewTask(r.retention.Run),
			gocron.WithName("activity-retention"),
		)
		if err != nil {
			return fmt.Errorf("failed to schedule activity retention: %w", err)
		}
		log.Println("⏰ [JOBS] Activity retention scheduled: every 24h")
	}

	r.scheduler.Start()
	log.Println("🚀 [JOBS] Background jobs started")
	return nil
}

// Stop shuts the scheduler down, waiting for running jobs
func (r *Runner) Stop() {
	if err := r.scheduler.Shutdown(); err != nil {
		log.Printf("⚠️  [JOBS] Scheduler shutdown error: %v", err)
		return
	}
	log.Println("✅ [JOBS] Background jobs stopped")
}

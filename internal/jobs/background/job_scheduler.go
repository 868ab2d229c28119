package background

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"stockroom/internal/jobs"
	"stockroom/internal/store"
)

// JobScheduler manages the periodic background jobs: the hourly reorder
// sweep and the persistence snapshot refresh.
type JobScheduler struct {
	scheduler gocron.Scheduler
	alertSvc  *jobs.ReorderAlertService
	snapshot  *store.SnapshotStore
	jobJobs   map[string]gocron.Job
	mu        sync.RWMutex
}

func NewJobScheduler(alertSvc *jobs.ReorderAlertService, snapshot *store.SnapshotStore) (*JobScheduler, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	js := &JobScheduler{
		scheduler: scheduler,
		alertSvc:  alertSvc,
		snapshot:  snapshot,
		jobJobs:   make(map[string]gocron.Job),
	}

	js.registerJobs()

	return js, nil
}

// Start starts the job scheduler.
func (js *JobScheduler) Start() {
	log.Printf("Starting background job scheduler")
	js.scheduler.Start()
}

// Stop stops the job scheduler.
func (js *JobScheduler) Stop() error {
	log.Printf("Stopping background job scheduler")
	return js.scheduler.Shutdown()
}

func (js *JobScheduler) registerJobs() {
	js.mu.Lock()
	defer js.mu.Unlock()

	reorderJob, err := js.scheduler.NewJob(
		gocron.DurationJob(1*time.Hour),
		gocron.NewTask(js.runReorderCheck, context.Background()),
		gocron.WithName("reorder-alert-sweep"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		log.Printf("Failed to create reorder alert job: %v", err)
	} else {
		js.jobJobs["reorder-alerts"] = reorderJob
	}

	if js.snapshot != nil {
		refreshJob, err := js.scheduler.NewJob(
			gocron.DurationJob(5*time.Minute),
			gocron.NewTask(js.refreshSnapshot, context.Background()),
			gocron.WithName("snapshot-refresh"),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		)
		if err != nil {
			log.Printf("Failed to create snapshot refresh job: %v", err)
		} else {
			js.jobJobs["snapshot-refresh"] = refreshJob
		}
	}
}

func (js *JobScheduler) runReorderCheck(ctx context.Context) {
	if err := js.alertSvc.ScheduledReorderCheck(ctx); err != nil {
		log.Printf("Reorder check job failed: %v", err)
	}
}

func (js *JobScheduler) refreshSnapshot(ctx context.Context) {
	js.snapshot.Refresh(ctx)
}

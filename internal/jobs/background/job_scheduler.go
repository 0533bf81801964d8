package background

import (
	"context"
	"log"
	"time"

	"byggmart/internal/services"

	"github.com/go-co-op/gocron/v2"
)

// JobScheduler runs the background maintenance jobs, currently the audit
// retry-queue drain.
type JobScheduler struct {
	scheduler gocron.Scheduler
	recorder  services.AuditRecorder
}

func NewJobScheduler(recorder services.AuditRecorder) (*JobScheduler, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	js := &JobScheduler{
		scheduler: scheduler,
		recorder:  recorder,
	}
	js.registerJobs()
	return js, nil
}

func (js *JobScheduler) Start() {
	log.Printf("Starting background job scheduler")
	js.scheduler.Start()
}

func (js *JobScheduler) Stop() error {
	log.Printf("Stopping background job scheduler")
	return js.scheduler.Shutdown()
}

func (js *JobScheduler) registerJobs() {
	_, err := js.scheduler.NewJob(
		gocron.DurationJob(1*time.Minute),
		gocron.NewTask(js.drainAuditQueue, context.Background()),
		gocron.WithName("audit-retry-drain"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		log.Printf("Failed to create audit drain job: %v", err)
	}
}

func (js *JobScheduler) drainAuditQueue(ctx context.Context) {
	pending := js.recorder.Pending()
	if pending == 0 {
		return
	}
	log.Printf("Draining %d queued audit entries", pending)
	if err := js.recorder.Flush(ctx); err != nil {
		log.Printf("Audit drain left entries queued: %v", err)
	}
}

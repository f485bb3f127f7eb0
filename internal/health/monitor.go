package health

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/unfoldingWord/tx-enqueue-job/internal/entities"
)

// FailedRetention is how long a failed-job record is kept before pruning.
const FailedRetention = 14 * 24 * time.Hour

// Broker is the introspection surface of the external job broker.
type Broker interface {
	QueueLength(ctx context.Context, queueName string) (int64, error)
	WorkerCount(ctx context.Context, queueName string) (int64, error)
	FailedJobs(ctx context.Context) ([]entities.FailedJob, error)
	DeleteFailedJob(ctx context.Context, id string) error
}

// Monitor inspects a queue's pending and worker counts and prunes expired
// failed-job records. It is side-channel telemetry: its failures are
// reported but never fail the request being served.
type Monitor struct {
	broker Broker
	now    func() time.Time
}

func NewMonitor(broker Broker) *Monitor {
	return &Monitor{broker: broker, now: time.Now}
}

// NewMonitorWithClock pins the clock, for tests.
func NewMonitorWithClock(broker Broker, now func() time.Time) *Monitor {
	return &Monitor{broker: broker, now: now}
}

// Inspect snapshots one queue. Introspection errors are logged and reported
// but leave the corresponding count at zero.
func (m *Monitor) Inspect(ctx context.Context, queueName string) entities.QueueHealth {
	h := entities.QueueHealth{QueueName: queueName}

	length, err := m.broker.QueueLength(ctx, queueName)
	if err != nil {
		m.report(err)
	}
	h.Length = length

	failed, err := m.PruneFailed(ctx, queueName)
	if err != nil {
		m.report(err)
	}
	h.FailedCount = failed

	workers, err := m.broker.WorkerCount(ctx, queueName)
	if err != nil {
		m.report(err)
	}
	h.WorkerCount = workers

	if err == nil && workers < 1 {
		// The job is still enqueued on the expectation that a worker starts
		// later, but somebody should know.
		log.Printf("health: %s has no job handler workers running!", queueName)
		sentry.CaptureMessage(fmt.Sprintf("queue %s has no workers", queueName))
	}

	return h
}

// PruneFailed walks a snapshot of the failed-job archive. Records that
// originated from queueName and are older than FailedRetention are deleted;
// younger ones are counted as live failures for that queue.
func (m *Monitor) PruneFailed(ctx context.Context, queueName string) (int, error) {
	jobs, err := m.broker.FailedJobs(ctx)
	if err != nil {
		return 0, fmt.Errorf("scan failed jobs: %w", err)
	}

	now := m.now().UTC()
	live := 0
	for _, job := range jobs {
		if job.Origin != queueName {
			continue
		}
		if now.Sub(job.EnqueuedAt) >= FailedRetention {
			log.Printf("health: deleting expired %q failed job from %v", queueName, job.EnqueuedAt)
			if err := m.broker.DeleteFailedJob(ctx, job.ID); err != nil {
				m.report(err)
			}
			continue
		}
		live++
	}

	if live > 0 {
		log.Printf("health: have %d %q jobs in failed archive", live, queueName)
	}
	return live, nil
}

func (m *Monitor) report(err error) {
	log.Printf("health: %v", err)
	sentry.CaptureException(err)
}

package use_case

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/unfoldingWord/tx-enqueue-job/internal/entities"
	"github.com/unfoldingWord/tx-enqueue-job/internal/schema"
	"github.com/unfoldingWord/tx-enqueue-job/internal/telemetry"
)

// Collaborator-down failures are a different class from bad requests; the
// handler maps them to 5xx instead of 400.
var (
	ErrBrokerUnavailable   = errors.New("broker unavailable")
	ErrIdentityUnavailable = errors.New("identity service unavailable")
)

type Validator interface {
	Check(ctx context.Context, body []byte, meta schema.RequestMeta) (map[string]any, *schema.Rejection, error)
}

type Enricher interface {
	Enrich(payload map[string]any) entities.JobRecord
}

type Router interface {
	Route(rec *entities.JobRecord)
}

type Broker interface {
	Enqueue(ctx context.Context, queueName string, rec entities.JobRecord) error
}

type HealthMonitor interface {
	Inspect(ctx context.Context, queueName string) entities.QueueHealth
}

// Result is the outcome of one submission: exactly one of Record and
// Rejection is set.
type Result struct {
	Record    *entities.JobRecord
	Rejection *schema.Rejection
}

type useCase struct {
	validator      Validator
	enricher       Enricher
	router         Router
	broker         Broker
	health         HealthMonitor
	enqueueTimeout time.Duration
}

func New(validator Validator, enricher Enricher, router Router, broker Broker, health HealthMonitor, enqueueTimeout time.Duration) *useCase {
	return &useCase{
		validator:      validator,
		enricher:       enricher,
		router:         router,
		broker:         broker,
		health:         health,
		enqueueTimeout: enqueueTimeout,
	}
}

// Submit runs one request through validate, enrich, route, enqueue, in that
// order; each step must fully complete before the next so no partially-built
// record ever reaches the broker. The enqueue is the last effect and commits
// the job: it is never retracted, even if the caller has gone away.
func (u *useCase) Submit(ctx context.Context, body []byte, meta schema.RequestMeta) (Result, error) {
	payload, rejection, err := u.validator.Check(ctx, body, meta)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrIdentityUnavailable, err)
	}
	if rejection != nil {
		return Result{Rejection: rejection}, nil
	}

	rec := u.enricher.Enrich(payload)
	u.router.Route(&rec)

	// Side-channel telemetry; never fails the request.
	h := u.health.Inspect(ctx, rec.QueueName)
	telemetry.QueueLength.WithLabelValues(rec.QueueName).Set(float64(h.Length))
	telemetry.FailedQueueLength.WithLabelValues(rec.QueueName).Set(float64(h.FailedCount))
	telemetry.WorkersAvailable.WithLabelValues(rec.QueueName).Set(float64(h.WorkerCount))

	enqueueCtx, cancel := context.WithTimeout(ctx, u.enqueueTimeout)
	defer cancel()
	if err := u.broker.Enqueue(enqueueCtx, rec.QueueName, rec); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrBrokerUnavailable, err)
	}

	log.Printf("use-case: queued job %s to %s queue (%d jobs for %d workers, %d failed)",
		rec.JobID, rec.QueueName, h.Length+1, h.WorkerCount, h.FailedCount)
	return Result{Record: &rec}, nil
}

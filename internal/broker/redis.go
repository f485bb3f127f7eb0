// Package broker talks to the external job broker over Redis. Queues are
// streams consumed by worker pools the gateway does not manage; the failed
// archive is a sorted-set index over per-job hashes. Every read is a
// point-in-time snapshot of state many processes mutate concurrently.
package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/unfoldingWord/tx-enqueue-job/internal/entities"
)

const (
	failedIndexKey   = "failed"
	failedKeyPrefix  = "failed:"
	streamMaxBacklog = 10000
)

// ClientSource yields the current Redis client; the holder swaps clients
// under us when it reconnects.
type ClientSource interface {
	Get() redis.UniversalClient
}

type Client struct {
	source     ClientSource
	jobTimeout string // handed to the worker as its max run time
}

func New(source ClientSource, jobTimeout string) *Client {
	return &Client{source: source, jobTimeout: jobTimeout}
}

// Enqueue appends the record to the named queue stream. Once this returns
// nil the job is considered submitted; it is never retracted.
func (c *Client) Enqueue(ctx context.Context, queueName string, rec entities.JobRecord) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal job record: %w", err)
	}

	err = c.source.Get().XAdd(ctx, &redis.XAddArgs{
		Stream: queueName,
		MaxLen: streamMaxBacklog,
		Approx: true,
		Values: map[string]any{
			"payload":     string(raw),
			"attempt":     0,
			"job_timeout": c.jobTimeout,
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("enqueue on %s: %w", queueName, err)
	}
	return nil
}

// QueueLength reports how many jobs are pending on the queue.
func (c *Client) QueueLength(ctx context.Context, queueName string) (int64, error) {
	n, err := c.source.Get().XLen(ctx, queueName).Result()
	if err != nil {
		if isMissingKey(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("queue length of %s: %w", queueName, err)
	}
	return n, nil
}

// WorkerCount reports how many consumers are registered against the queue's
// stream, across all of its consumer groups.
func (c *Client) WorkerCount(ctx context.Context, queueName string) (int64, error) {
	groups, err := c.source.Get().XInfoGroups(ctx, queueName).Result()
	if err != nil {
		if isMissingKey(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("worker count of %s: %w", queueName, err)
	}
	var n int64
	for _, g := range groups {
		n += g.Consumers
	}
	return n, nil
}

// FailedJobs returns a snapshot of the failed-job archive. Workers insert
// into the archive concurrently; the index read is a single command, so new
// failures simply miss this snapshot and show up in the next one.
func (c *Client) FailedJobs(ctx context.Context) ([]entities.FailedJob, error) {
	rc := c.source.Get()

	members, err := rc.ZRangeWithScores(ctx, failedIndexKey, 0, -1).Result()
	if err != nil {
		if isMissingKey(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read failed index: %w", err)
	}

	jobs := make([]entities.FailedJob, 0, len(members))
	for _, m := range members {
		id, _ := m.Member.(string)
		if id == "" {
			continue
		}
		vals, err := rc.HGetAll(ctx, failedKeyPrefix+id).Result()
		if err != nil {
			return nil, fmt.Errorf("read failed job %s: %w", id, err)
		}
		jobs = append(jobs, entities.FailedJob{
			ID:         id,
			Origin:     vals["origin"],
			EnqueuedAt: time.Unix(int64(m.Score), 0).UTC(),
			Payload:    vals["payload"],
		})
	}
	return jobs, nil
}

// DeleteFailedJob removes a failed-job record and its index entry.
func (c *Client) DeleteFailedJob(ctx context.Context, id string) error {
	pl := c.source.Get().Pipeline()
	pl.ZRem(ctx, failedIndexKey, id)
	pl.Del(ctx, failedKeyPrefix+id)
	if _, err := pl.Exec(ctx); err != nil {
		return fmt.Errorf("delete failed job %s: %w", id, err)
	}
	return nil
}

func isMissingKey(err error) bool {
	return err == redis.Nil || strings.Contains(err.Error(), "no such key")
}

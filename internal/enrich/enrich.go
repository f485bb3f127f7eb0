package enrich

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/unfoldingWord/tx-enqueue-job/internal/entities"
)

const (
	outputLifetime = 24 * time.Hour
	expectedDelay  = 5 * time.Minute
)

// UniqueJobID derives a job identifier from a microsecond-resolution
// timestamp. Two calls in one process cannot land on the same microsecond
// under normal scheduling, so no uniqueness check against the broker is
// made.
func UniqueJobID(now time.Time) string {
	stamp := now.UTC().Format("2006-01-02 15:04:05.000000")
	sum := sha256.Sum256([]byte(stamp))
	return hex.EncodeToString(sum[:])
}

// Enricher builds the status skeleton of a JobRecord from a validated
// payload. Queue and output fields are left for the router.
type Enricher struct {
	now func() time.Time
}

func New() *Enricher {
	return &Enricher{now: time.Now}
}

// NewWithClock pins the clock, for tests.
func NewWithClock(now func() time.Time) *Enricher {
	return &Enricher{now: now}
}

// Enrich never overwrites a caller-supplied job_id; a missing identifier
// defaults to the job id.
func (e *Enricher) Enrich(payload map[string]any) entities.JobRecord {
	now := e.now().UTC()

	rec := entities.JobRecord{
		Fields:     payload,
		QueuedAt:   now,
		ExpiresAt:  now.Add(outputLifetime),
		ETA:        now.Add(expectedDelay),
		RetryCount: 0,
		Success:    true,
		Status:     "queued",
	}

	if id, ok := payload["job_id"].(string); ok && id != "" {
		rec.JobID = id
	} else {
		rec.JobID = UniqueJobID(now)
	}
	if ident, ok := payload["identifier"].(string); ok && ident != "" {
		rec.Identifier = ident
	} else {
		rec.Identifier = rec.JobID
	}

	return rec
}

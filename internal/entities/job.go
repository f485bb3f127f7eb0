package entities

import (
	"encoding/json"
	"time"
)

// JobRecord is the enriched, routed form of an accepted conversion request.
// Fields carries the caller's payload verbatim; the canonical fields below
// are added by the gateway and win on marshalling.
type JobRecord struct {
	Fields map[string]any

	JobID      string
	Identifier string
	QueueName  string
	Output     string // advisory prediction; may be "UNKNOWN"
	QueuedAt   time.Time
	ExpiresAt  time.Time
	ETA        time.Time
	RetryCount int
	Success    bool
	Status     string
}

func (r JobRecord) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(r.Fields)+10)
	for k, v := range r.Fields {
		m[k] = v
	}
	m["job_id"] = r.JobID
	m["identifier"] = r.Identifier
	m["queue_name"] = r.QueueName
	m["output"] = r.Output
	m["tx_job_queued_at"] = r.QueuedAt
	m["expires_at"] = r.ExpiresAt
	m["eta"] = r.ETA
	m["tx_retry_count"] = r.RetryCount
	m["success"] = r.Success
	m["status"] = r.Status
	return json.Marshal(m)
}

// FailedJob is a broker-owned record of a job a worker gave up on. The
// gateway only reads and deletes these.
type FailedJob struct {
	ID         string
	Origin     string // queue the job was originally enqueued on
	EnqueuedAt time.Time
	Payload    string
}

// QueueHealth is a point-in-time snapshot of one queue; the broker is
// mutated concurrently by many processes, so none of this is authoritative.
type QueueHealth struct {
	QueueName   string
	Length      int64
	FailedCount int
	WorkerCount int64
}

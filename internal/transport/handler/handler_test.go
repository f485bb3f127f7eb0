package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/unfoldingWord/tx-enqueue-job/internal/config"
	"github.com/unfoldingWord/tx-enqueue-job/internal/enrich"
	"github.com/unfoldingWord/tx-enqueue-job/internal/entities"
	"github.com/unfoldingWord/tx-enqueue-job/internal/routing"
	"github.com/unfoldingWord/tx-enqueue-job/internal/schema"
	"github.com/unfoldingWord/tx-enqueue-job/internal/transport/handler"
	"github.com/unfoldingWord/tx-enqueue-job/internal/transport/router"
	use_case "github.com/unfoldingWord/tx-enqueue-job/internal/use-case"
)

const knownToken = "0123456789abcdef0123456789abcdef01234567"

type stubLookup struct {
	found bool
	err   error
}

func (s *stubLookup) LookupUser(ctx context.Context, token string) (string, bool, error) {
	return "bob", s.found, s.err
}

type mockBroker struct {
	EnqueueFunc func(ctx context.Context, queueName string, rec entities.JobRecord) error

	queueName string
	record    entities.JobRecord
	calls     int
}

func (m *mockBroker) Enqueue(ctx context.Context, queueName string, rec entities.JobRecord) error {
	m.calls++
	m.queueName = queueName
	m.record = rec
	if m.EnqueueFunc != nil {
		return m.EnqueueFunc(ctx, queueName, rec)
	}
	return nil
}

type mockHealth struct {
	health entities.QueueHealth
}

func (m *mockHealth) Inspect(ctx context.Context, queueName string) entities.QueueHealth {
	m.health.QueueName = queueName
	return m.health
}

type fixture struct {
	srv    *httptest.Server
	broker *mockBroker
	lookup *stubLookup
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	lookup := &stubLookup{found: true}
	checker := schema.NewChecker(schema.Default(), schema.KnownValues(), lookup, schema.OriginPolicy{
		PrimaryDomain: "door43.org",
	})

	table := routing.NewTable(config.RoutingConfig{
		HTMLQueue:     "tx_job_handler",
		OBSPDFQueue:   "tx_obs_pdf_job_handler",
		OtherPDFQueue: "tx_other_pdf_job_handler",
		OBSSubjects:   []string{"Open_Bible_Stories", "obs"},
	}, "", config.CDNConfig{
		JobBase: "https://cdn.door43.org/tx/job/",
		PDFBase: "https://cdn.door43.org/u/",
	})

	now := time.Date(2026, 5, 20, 10, 30, 0, 0, time.UTC)
	broker := &mockBroker{}
	uc := use_case.New(checker, enrich.NewWithClock(func() time.Time { return now }),
		table, broker, &mockHealth{}, time.Second)

	cfg := &config.Config{}
	cfg.Gateway.MaxRequestBodyKB = 256

	h := handler.New(uc, cfg)
	srv := httptest.NewServer(router.NewRouter(h))
	t.Cleanup(srv.Close)

	return &fixture{srv: srv, broker: broker, lookup: lookup}
}

func (f *fixture) post(t *testing.T, body []byte, headers map[string]string) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, f.srv.URL+"/", bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

func TestReceiveJob_AcceptsAndEnqueues(t *testing.T) {
	f := newFixture(t)

	body, _ := json.Marshal(map[string]any{
		"user_token":    knownToken,
		"resource_type": "obs",
		"input_format":  "md",
		"output_format": "pdf",
		"source":        "https://host/owner/repo/archive/v1.zip",
	})

	resp, decoded := f.post(t, body, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, true, decoded["success"])
	assert.Equal(t, "queued", decoded["status"])
	assert.Equal(t, "tx_obs_pdf_job_handler", decoded["queue_name"])
	assert.Equal(t, "https://cdn.door43.org/u/owner/repo/v1/owner--repo--v1.pdf", decoded["output"])
	assert.Equal(t, float64(0), decoded["tx_retry_count"])
	assert.NotEmpty(t, decoded["job_id"])
	assert.Equal(t, decoded["job_id"], decoded["identifier"], "identifier defaults to the job id")
	assert.Equal(t, "https://host/owner/repo/archive/v1.zip", decoded["source"], "payload fields pass through")
	assert.NotEmpty(t, decoded["expires_at"])
	assert.NotEmpty(t, decoded["eta"])

	require.Equal(t, 1, f.broker.calls)
	assert.Equal(t, "tx_obs_pdf_job_handler", f.broker.queueName)
	assert.Equal(t, decoded["job_id"], f.broker.record.JobID)
}

func TestReceiveJob_ExpiryAndETAOffsets(t *testing.T) {
	f := newFixture(t)

	body, _ := json.Marshal(map[string]any{
		"user_token":    knownToken,
		"resource_type": "Bible",
		"input_format":  "usfm",
		"output_format": "html",
		"source":        "https://host/owner/repo/archive/main.zip",
	})

	resp, _ := f.post(t, body, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	rec := f.broker.record
	assert.Equal(t, 24*time.Hour, rec.ExpiresAt.Sub(rec.QueuedAt))
	assert.Equal(t, 5*time.Minute, rec.ETA.Sub(rec.QueuedAt))
	assert.Equal(t, "tx_job_handler", rec.QueueName)
}

func TestReceiveJob_RejectsEmptyObject(t *testing.T) {
	f := newFixture(t)

	resp, decoded := f.post(t, []byte("{}"), nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	assert.Equal(t, "invalid", decoded["status"])
	assert.Equal(t,
		"Missing user_token, Missing resource_type, Missing input_format, Missing output_format, Missing source",
		decoded["error"])
	assert.Zero(t, f.broker.calls, "nothing is enqueued for a rejected payload")
}

func TestReceiveJob_RejectsEmptyBody(t *testing.T) {
	f := newFixture(t)

	resp, decoded := f.post(t, nil, nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid", decoded["status"])
	assert.Equal(t, "No payload found. You must submit a POST request", decoded["error"])
}

func TestReceiveJob_ProbeGetsBenignOK(t *testing.T) {
	f := newFixture(t)

	resp, decoded := f.post(t, nil, map[string]string{"User-Agent": "ELB-HealthChecker/2.0"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", decoded["status"])
	assert.Zero(t, f.broker.calls)
}

func TestReceiveJob_BrokerDown(t *testing.T) {
	f := newFixture(t)
	f.broker.EnqueueFunc = func(ctx context.Context, q string, rec entities.JobRecord) error {
		return errors.New("connection refused")
	}

	body, _ := json.Marshal(map[string]any{
		"user_token":    knownToken,
		"resource_type": "obs",
		"input_format":  "md",
		"output_format": "html",
		"source":        "https://host/o/r/archive/v1.zip",
	})

	resp, decoded := f.post(t, body, nil)
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "failed", decoded["status"])
	assert.Equal(t, "job broker unavailable", decoded["error"])
}

func TestReceiveJob_IdentityServiceDown(t *testing.T) {
	f := newFixture(t)
	f.lookup.err = errors.New("identity timeout")

	body, _ := json.Marshal(map[string]any{
		"user_token":    knownToken,
		"resource_type": "obs",
		"input_format":  "md",
		"output_format": "html",
		"source":        "https://host/o/r/archive/v1.zip",
	})

	resp, decoded := f.post(t, body, nil)
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "failed", decoded["status"])
	assert.Equal(t, "identity service unavailable", decoded["error"])
	assert.Zero(t, f.broker.calls)
}

func TestReceiveJob_CallerJobIDPreserved(t *testing.T) {
	f := newFixture(t)

	body, _ := json.Marshal(map[string]any{
		"job_id":        "my-job-42",
		"identifier":    "nightly en_obs build",
		"user_token":    knownToken,
		"resource_type": "obs",
		"input_format":  "md",
		"output_format": "html",
		"source":        "https://host/o/r/archive/v1.zip",
	})

	resp, decoded := f.post(t, body, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "my-job-42", decoded["job_id"])
	assert.Equal(t, "nightly en_obs build", decoded["identifier"])
}

func TestReadiness(t *testing.T) {
	f := newFixture(t)

	resp, err := http.Get(f.srv.URL + "/readiness")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

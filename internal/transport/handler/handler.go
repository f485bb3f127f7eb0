package handler

import (
	"context"
	"io"
	"net/http"
	"net/url"

	"github.com/unfoldingWord/tx-enqueue-job/internal/config"
	"github.com/unfoldingWord/tx-enqueue-job/internal/schema"
	"github.com/unfoldingWord/tx-enqueue-job/internal/telemetry"
	use_case "github.com/unfoldingWord/tx-enqueue-job/internal/use-case"
)

type UseCase interface {
	Submit(ctx context.Context, body []byte, meta schema.RequestMeta) (use_case.Result, error)
}

type Handler struct {
	useCase UseCase
	cfg     *config.Config
}

func New(useCase UseCase, cfg *config.Config) *Handler {
	return &Handler{
		useCase: useCase,
		cfg:     cfg,
	}
}

// ReceiveJob accepts a POSTed conversion request and answers with the
// enriched job record, a 400 rejection, or a 503 when a collaborator is
// down.
func (h *Handler) ReceiveJob(w http.ResponseWriter, r *http.Request) {
	telemetry.PostsAttempted.Inc()

	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.Gateway.MaxRequestBodyKB<<10)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		telemetry.PostsInvalid.Inc()
		writeRejection(w, "request body unreadable: "+err.Error())
		return
	}

	meta := schema.RequestMeta{
		UserAgent: r.UserAgent(),
		Origin:    originHost(r),
	}

	res, err := h.useCase.Submit(r.Context(), body, meta)
	if err != nil {
		telemetry.PostsErrored.Inc()
		writeFailure(w, err)
		return
	}

	if rej := res.Rejection; rej != nil {
		if rej.Benign() {
			writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
			return
		}
		telemetry.PostsInvalid.Inc()
		writeRejection(w, rej.Message)
		return
	}

	telemetry.PostsSucceeded.Inc()
	writeJSON(w, http.StatusOK, res.Record)
}

// Readiness answers orchestrator GET probes without touching the broker.
func (h *Handler) Readiness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

// originHost extracts the host of the request's declared origin, preferring
// the Origin header and falling back to Referer.
func originHost(r *http.Request) string {
	for _, header := range []string{"Origin", "Referer"} {
		raw := r.Header.Get(header)
		if raw == "" {
			continue
		}
		if u, err := url.Parse(raw); err == nil && u.Host != "" {
			return u.Hostname()
		}
		return raw
	}
	return ""
}

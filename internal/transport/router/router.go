package router

import (
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/unfoldingWord/tx-enqueue-job/internal/transport/handler"
)

func NewRouter(h *handler.Handler) chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.ReceiveJob)
	r.Get("/readiness", h.Readiness)
	r.Method("GET", "/metrics", promhttp.Handler())

	return r
}

package handler

import (
	"context"
	"net/http"
)

// StorePinger and QueuePinger are the reachability probes the health
// endpoint runs. Satisfied by the sqlite DB and the Redis queue.
type StorePinger interface {
	Ping() error
}

type QueuePinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports liveness of the gateway and its two backends.
type HealthHandler struct {
	store StorePinger
	queue QueuePinger
}

func NewHealthHandler(store StorePinger, queue QueuePinger) *HealthHandler {
	return &HealthHandler{store: store, queue: queue}
}

type healthResponse struct {
	Status string `json:"status"`
	Store  string `json:"store"`
	Queue  string `json:"queue"`
}

// HandleHealth answers GET /healthz. 200 when both backends respond, 503
// otherwise; the body says which side is down.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", Store: "ok", Queue: "ok"}
	status := http.StatusOK

	if err := h.store.Ping(); err != nil {
		resp.Status = "degraded"
		resp.Store = err.Error()
		status = http.StatusServiceUnavailable
	}
	if err := h.queue.Ping(r.Context()); err != nil {
		resp.Status = "degraded"
		resp.Queue = err.Error()
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, resp)
}

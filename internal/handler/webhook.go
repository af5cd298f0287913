package handler

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/tahmid/reviewdeck/internal/service"
)

// eventHeader carries GitHub's event classification on every delivery.
const eventHeader = "X-GitHub-Event"

// maxWebhookBody caps the payload we buffer per delivery. GitHub caps
// webhook payloads at 25 MB.
const maxWebhookBody = 25 << 20

// WebhookHandler receives GitHub webhook deliveries. The route is
// unauthenticated (delivery trust is established outside this service)
// and it must answer fast: the only work done inline is a single queue
// push.
type WebhookHandler struct {
	intake *service.WebhookService
	logger *slog.Logger
}

func NewWebhookHandler(intake *service.WebhookService, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{intake: intake, logger: logger}
}

// HandleWebhook ingests one delivery.
//
// POST /api/webhook
//
// pull_request events are wrapped and enqueued: 202 once the push
// succeeds, 400 when the body is not JSON, 500 if the push errors so
// GitHub's own retry redelivers. Every other event type is acknowledged
// with 200 and dropped. The response never waits on downstream
// processing.
func (h *WebhookHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	eventType := r.Header.Get(eventHeader)
	if eventType == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "missing " + eventHeader + " header",
		})
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		h.logger.Error("webhook: reading body failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "failed to read request body",
		})
		return
	}

	queued, err := h.intake.Handle(r.Context(), eventType, body)
	if err != nil {
		writeError(w, err)
		return
	}

	if !queued {
		writeJSON(w, http.StatusOK, map[string]string{"message": "event received, not processed"})
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"message": "accepted and queued for processing"})
}

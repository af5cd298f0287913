package service

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/tahmid/reviewdeck/internal/apperror"
	"github.com/tahmid/reviewdeck/internal/metrics"
	"github.com/tahmid/reviewdeck/internal/queue"
)

// EventPullRequest is the only GitHub event type the pipeline analyzes.
const EventPullRequest = "pull_request"

// WebhookService is the event intake: it classifies GitHub deliveries and
// hands pull-request events to the queue. It is a pure producer: it
// never waits on, or knows about, downstream processing.
type WebhookService struct {
	q      queue.Queue
	rec    metrics.Recorder
	logger *slog.Logger
}

func NewWebhookService(q queue.Queue, rec metrics.Recorder, logger *slog.Logger) *WebhookService {
	return &WebhookService{
		q:      q,
		rec:    rec,
		logger: logger,
	}
}

// Handle processes one webhook delivery. It returns queued=true when a
// job was pushed, queued=false for event types the pipeline ignores,
// which is not an error, just unhandled. A validation error means the
// payload was not JSON; any other non-nil error means the push itself
// failed, which the handler turns into a 500 so GitHub's delivery retry
// resends the event.
func (s *WebhookService) Handle(ctx context.Context, eventType string, payload []byte) (queued bool, err error) {
	s.rec.RecordWebhook(eventType)

	if eventType != EventPullRequest {
		s.logger.Info("webhook ignored", slog.String("event", eventType))
		return false, nil
	}

	// The payload rides inside the job envelope as a json.RawMessage;
	// a non-JSON body would poison the envelope's own serialization.
	if !json.Valid(payload) {
		return false, apperror.ValidationFailed("payload", "webhook payload must be valid JSON")
	}

	job := queue.Job{EventType: eventType, Payload: payload}
	if err := s.q.Enqueue(ctx, job); err != nil {
		s.rec.RecordEnqueueFailure()
		s.logger.Error("failed to enqueue job",
			slog.String("event", eventType),
			slog.String("error", err.Error()),
		)
		return false, err
	}

	s.rec.RecordEnqueue()
	s.logger.Info("job enqueued", slog.String("event", eventType))
	return true, nil
}

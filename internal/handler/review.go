package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/tahmid/reviewdeck/internal/auth"
	"github.com/tahmid/reviewdeck/internal/service"
)

// ReviewHandler serves the dashboard and review-history endpoints. All
// routes sit behind the auth gate.
type ReviewHandler struct {
	reviews *service.ReviewService
	logger  *slog.Logger
}

func NewReviewHandler(reviews *service.ReviewService, logger *slog.Logger) *ReviewHandler {
	return &ReviewHandler{reviews: reviews, logger: logger}
}

// HandleStats returns the caller's aggregate dashboard numbers and chart
// series.
//
// GET /api/dashboard/stats
func (h *ReviewHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFromContext(r.Context())

	stats, err := h.reviews.Stats(r.Context(), id)
	if err != nil {
		h.logger.Error("computing stats failed", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

// HandleRecent returns the caller's 10 most recent reviews.
//
// GET /api/dashboard/reviews
func (h *ReviewHandler) HandleRecent(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFromContext(r.Context())

	reviews, err := h.reviews.Recent(r.Context(), id)
	if err != nil {
		h.logger.Error("listing recent reviews failed", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, reviews)
}

// HandleAll returns the caller's full review history.
//
// GET /api/reviews
func (h *ReviewHandler) HandleAll(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFromContext(r.Context())

	reviews, err := h.reviews.All(r.Context(), id)
	if err != nil {
		h.logger.Error("listing reviews failed", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, reviews)
}

// HandleGet returns one review owned by the caller.
//
// GET /api/reviews/{id}
func (h *ReviewHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFromContext(r.Context())
	reviewID := chi.URLParam(r, "id")

	review, err := h.reviews.ByID(r.Context(), id, reviewID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, review)
}

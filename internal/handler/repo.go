package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/tahmid/reviewdeck/internal/auth"
	"github.com/tahmid/reviewdeck/internal/service"
)

// RepoHandler serves the repository-registry endpoints. All routes sit
// behind the auth gate; the identity comes from the request context.
type RepoHandler struct {
	repos  *service.RepoService
	logger *slog.Logger
}

func NewRepoHandler(repos *service.RepoService, logger *slog.Logger) *RepoHandler {
	return &RepoHandler{repos: repos, logger: logger}
}

type registerRequest struct {
	RepoURL string `json:"repo_url"`
}

// HandleRegister registers a repository for the caller.
//
// POST /api/repositories {"repo_url": "https://github.com/owner/name"}
//
// 201 with the stored repository on success; 400 for malformed input,
// 401 for a stale GitHub token, 403 without push/admin permission,
// 404 for repos GitHub won't show the caller, 409 for duplicates.
func (h *RepoHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFromContext(r.Context())

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "request body must be JSON with a repo_url field",
		})
		return
	}

	repo, err := h.repos.Register(r.Context(), id, req.RepoURL)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, repo)
}

// HandleList returns the caller's repositories.
//
// GET /api/repositories
func (h *RepoHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFromContext(r.Context())

	repos, err := h.repos.List(r.Context(), id)
	if err != nil {
		h.logger.Error("listing repositories failed", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, repos)
}

// HandleGet returns one repository with its review history embedded.
//
// GET /api/repositories/{id}
func (h *RepoHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFromContext(r.Context())
	repoID := chi.URLParam(r, "id")

	detail, err := h.repos.Get(r.Context(), id, repoID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, detail)
}

// HandleDelete removes one of the caller's registrations. Review history
// is retained.
//
// DELETE /api/repositories/{id}
func (h *RepoHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFromContext(r.Context())
	repoID := chi.URLParam(r, "id")

	if err := h.repos.Delete(r.Context(), id, repoID); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "repository deleted"})
}

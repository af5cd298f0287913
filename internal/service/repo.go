package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/tahmid/reviewdeck/internal/apperror"
	"github.com/tahmid/reviewdeck/internal/auth"
	"github.com/tahmid/reviewdeck/internal/github"
	"github.com/tahmid/reviewdeck/internal/metrics"
	"github.com/tahmid/reviewdeck/internal/model"
	"github.com/tahmid/reviewdeck/internal/repository"
)

// RepoService is the repository registry: it validates registrations
// against live GitHub permissions and keeps every read and write scoped
// to the calling user.
type RepoService struct {
	repos   repository.RepoRepository
	reviews repository.ReviewRepository
	users   repository.UserRepository
	gh      *github.Client
	rec     metrics.Recorder
	logger  *slog.Logger
}

func NewRepoService(
	repos repository.RepoRepository,
	reviews repository.ReviewRepository,
	users repository.UserRepository,
	gh *github.Client,
	rec metrics.Recorder,
	logger *slog.Logger,
) *RepoService {
	return &RepoService{
		repos:   repos,
		reviews: reviews,
		users:   users,
		gh:      gh,
		rec:     rec,
		logger:  logger,
	}
}

// ParseRepoURL normalizes a submitted repository URL to its "owner/name"
// full name: leading/trailing slashes and a trailing ".git" are stripped,
// and the remaining path must be exactly two non-empty segments. Casing
// is preserved; comparisons elsewhere are case-insensitive.
func ParseRepoURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", apperror.ValidationFailed("repo_url", "repository URL is required")
	}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return "", apperror.ValidationFailed("repo_url", "repository URL must be a valid http(s) URL")
	}

	path := strings.Trim(u.Path, "/")
	path = strings.TrimSuffix(path, ".git")

	parts := strings.Split(path, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", apperror.ValidationFailed("repo_url", "repository URL path must be owner/name")
	}

	return parts[0] + "/" + parts[1], nil
}

// Register validates and stores a monitored repository for the caller.
//
// Sequence: parse and normalize the URL; reject case-insensitive
// duplicates for this user; load the caller's stored GitHub token (absent
// means they must re-authenticate); probe the repository through the
// GitHub API with that token and require push or admin permission; then
// persist. The storage layer's unique index backstops the duplicate check
// against concurrent registrations, so a lost race also comes back as a
// conflict and no second row exists.
func (s *RepoService) Register(ctx context.Context, id auth.Identity, repoURL string) (*model.Repository, error) {
	fullName, err := ParseRepoURL(repoURL)
	if err != nil {
		return nil, err
	}

	exists, err := s.repos.RepoExists(ctx, id.UserID, fullName)
	if err != nil {
		return nil, fmt.Errorf("checking existing registration: %w", err)
	}
	if exists {
		return nil, apperror.Conflict(fmt.Sprintf("repository %s is already registered", fullName))
	}

	user, err := s.users.GetUserByID(ctx, id.UserID)
	if err != nil {
		return nil, fmt.Errorf("loading user %s: %w", id.UserID, err)
	}
	if user.AccessToken == "" {
		return nil, apperror.StaleCredential("GitHub token missing; please log in again")
	}

	owner, name, _ := strings.Cut(fullName, "/")
	ghRepo, err := s.gh.GetRepo(ctx, user.AccessToken, owner, name)
	if err != nil {
		// Not-found covers both nonexistent and inaccessible-private
		// repos; GitHub doesn't distinguish them and neither do we.
		return nil, err
	}
	if !ghRepo.Permissions.Admin && !ghRepo.Permissions.Push {
		return nil, apperror.Forbidden(fmt.Sprintf("push or admin permission required on %s", fullName))
	}

	repo := &model.Repository{
		UserID:   id.UserID,
		FullName: fullName,
		URL:      repoURL,
		Status:   model.RepoStatusActive,
	}
	if err := s.repos.CreateRepo(ctx, repo); err != nil {
		return nil, err
	}

	s.rec.RecordRegistration()
	s.logger.Info("repository registered",
		slog.String("userID", id.UserID),
		slog.String("fullName", fullName),
	)

	return repo, nil
}

// List returns the caller's registered repositories.
func (s *RepoService) List(ctx context.Context, id auth.Identity) ([]model.Repository, error) {
	repos, err := s.repos.ListRepos(ctx, id.UserID)
	if err != nil {
		return nil, fmt.Errorf("listing repositories: %w", err)
	}
	return repos, nil
}

// Get returns one of the caller's repositories with its review history
// embedded, newest review first.
func (s *RepoService) Get(ctx context.Context, id auth.Identity, repoID string) (*model.RepositoryDetail, error) {
	repo, err := s.repos.GetRepo(ctx, id.UserID, repoID)
	if err != nil {
		return nil, err
	}

	reviews, err := s.reviews.ListReviewsForRepo(ctx, id.UserID, repo.FullName)
	if err != nil {
		return nil, fmt.Errorf("listing reviews for %s: %w", repo.FullName, err)
	}

	return &model.RepositoryDetail{Repository: *repo, Reviews: reviews}, nil
}

// Delete removes one of the caller's registrations. Review history for
// the repository is retained.
func (s *RepoService) Delete(ctx context.Context, id auth.Identity, repoID string) error {
	if err := s.repos.DeleteRepo(ctx, id.UserID, repoID); err != nil {
		return err
	}

	s.logger.Info("repository deleted",
		slog.String("userID", id.UserID),
		slog.String("repoID", repoID),
	)
	return nil
}

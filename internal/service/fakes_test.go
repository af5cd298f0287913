package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/tahmid/reviewdeck/internal/apperror"
	"github.com/tahmid/reviewdeck/internal/model"
	"github.com/tahmid/reviewdeck/internal/queue"
)

// In-memory fakes for the repository interfaces. Hand-written rather than
// generated so each test reads as plain Go.

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

type fakeUserRepo struct {
	users  map[string]*model.User
	byGHID map[int64]*model.User
	nextID int

	upsertErr error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		users:  make(map[string]*model.User),
		byGHID: make(map[int64]*model.User),
		nextID: 1,
	}
}

func (f *fakeUserRepo) Upsert(ctx context.Context, user *model.User) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	now := time.Now()
	user.LastLoginAt = now
	user.UpdatedAt = now
	if existing, ok := f.byGHID[user.GitHubID]; ok {
		existing.Login = user.Login
		existing.AvatarURL = user.AvatarURL
		existing.AccessToken = user.AccessToken
		existing.LastLoginAt = now
		*user = *existing
		return nil
	}
	user.ID = fmt.Sprintf("user-%d", f.nextID)
	f.nextID++
	user.CreatedAt = now
	copied := *user
	f.users[user.ID] = &copied
	f.byGHID[user.GitHubID] = &copied
	return nil
}

func (f *fakeUserRepo) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	copied := *u
	return &copied, nil
}

// addUser seeds an account directly, bypassing the upsert path.
func (f *fakeUserRepo) addUser(t *testing.T, id, login, token string) *model.User {
	t.Helper()
	u := &model.User{ID: id, GitHubID: int64(len(f.users) + 1), Login: login, AccessToken: token}
	f.users[id] = u
	f.byGHID[u.GitHubID] = u
	return u
}

type fakeRepoRepo struct {
	repos  map[string]*model.Repository
	nextID int

	createErr error
}

func newFakeRepoRepo() *fakeRepoRepo {
	return &fakeRepoRepo{repos: make(map[string]*model.Repository), nextID: 1}
}

func (f *fakeRepoRepo) CreateRepo(ctx context.Context, repo *model.Repository) error {
	if f.createErr != nil {
		return f.createErr
	}
	for _, r := range f.repos {
		if r.UserID == repo.UserID && strings.EqualFold(r.FullName, repo.FullName) {
			return apperror.Conflict(fmt.Sprintf("repository %s is already registered", repo.FullName))
		}
	}
	repo.ID = fmt.Sprintf("repo-%d", f.nextID)
	f.nextID++
	repo.Status = model.RepoStatusActive
	repo.AddedAt = time.Now()
	copied := *repo
	f.repos[repo.ID] = &copied
	return nil
}

func (f *fakeRepoRepo) RepoExists(ctx context.Context, userID, fullName string) (bool, error) {
	for _, r := range f.repos {
		if r.UserID == userID && strings.EqualFold(r.FullName, fullName) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRepoRepo) ListRepos(ctx context.Context, userID string) ([]model.Repository, error) {
	out := []model.Repository{}
	for _, r := range f.repos {
		if r.UserID == userID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeRepoRepo) GetRepo(ctx context.Context, userID, id string) (*model.Repository, error) {
	r, ok := f.repos[id]
	if !ok || r.UserID != userID {
		return nil, apperror.NotFound("repository", id)
	}
	copied := *r
	return &copied, nil
}

func (f *fakeRepoRepo) DeleteRepo(ctx context.Context, userID, id string) error {
	r, ok := f.repos[id]
	if !ok || r.UserID != userID {
		return apperror.NotFound("repository", id)
	}
	delete(f.repos, id)
	return nil
}

func (f *fakeRepoRepo) CountRepos(ctx context.Context, userID string) (int, error) {
	n := 0
	for _, r := range f.repos {
		if r.UserID == userID {
			n++
		}
	}
	return n, nil
}

type fakeReviewRepo struct {
	reviews []model.ReviewRecord // stored newest first, as ListReviews returns
	daily   []model.DailyCount

	listErr error
}

func (f *fakeReviewRepo) ListReviews(ctx context.Context, userID string, limit int) ([]model.ReviewRecord, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := []model.ReviewRecord{}
	for _, r := range f.reviews {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeReviewRepo) ListReviewsForRepo(ctx context.Context, userID, fullName string) ([]model.ReviewRecord, error) {
	out := []model.ReviewRecord{}
	for _, r := range f.reviews {
		if r.UserID == userID && strings.EqualFold(r.RepoFullName, fullName) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeReviewRepo) GetReview(ctx context.Context, userID, id string) (*model.ReviewRecord, error) {
	for _, r := range f.reviews {
		if r.ID == id && r.UserID == userID {
			copied := r
			return &copied, nil
		}
	}
	return nil, apperror.NotFound("review", id)
}

func (f *fakeReviewRepo) ReviewAggregates(ctx context.Context, userID string) (int, int, error) {
	count, issues := 0, 0
	for _, r := range f.reviews {
		if r.UserID == userID {
			count++
			issues += r.IssuesCount
		}
	}
	return count, issues, nil
}

func (f *fakeReviewRepo) DailyReviewCounts(ctx context.Context, userID string, maxDays int) ([]model.DailyCount, error) {
	if len(f.daily) > maxDays {
		return f.daily[len(f.daily)-maxDays:], nil
	}
	return f.daily, nil
}

func newReview(id, userID, fullName string, issues int) model.ReviewRecord {
	return model.ReviewRecord{
		ID:           id,
		UserID:       userID,
		RepoFullName: fullName,
		PRNumber:     1,
		Language:     "go",
		IssuesCount:  issues,
		CreatedAt:    time.Now(),
	}
}

type fakeQueue struct {
	jobs       []queue.Job
	enqueueErr error
}

func (f *fakeQueue) Enqueue(ctx context.Context, job queue.Job) error {
	if f.enqueueErr != nil {
		return f.enqueueErr
	}
	f.jobs = append(f.jobs, job)
	return nil
}

func (f *fakeQueue) Ping(ctx context.Context) error { return nil }

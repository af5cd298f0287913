// Package repository declares the storage interfaces the service layer
// depends on. The sqlite subpackage is the concrete implementation;
// service tests substitute in-memory fakes.
package repository

import (
	"context"

	"github.com/tahmid/reviewdeck/internal/model"
)

// UserRepository persists GitHub identity ↔ local account records.
type UserRepository interface {
	// Upsert creates the user on first login and refreshes login, avatar,
	// access token and last-login on every subsequent one, keyed by the
	// GitHub numeric ID. Idempotent; safe to retry.
	Upsert(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
}

// RepoRepository stores monitored repositories, always scoped to an
// owning user.
type RepoRepository interface {
	// CreateRepo inserts a registration. The storage layer enforces
	// uniqueness of (user, lowercased full name) and returns a conflict
	// error when a concurrent or repeated registration collides.
	CreateRepo(ctx context.Context, repo *model.Repository) error
	// RepoExists reports whether the user already registered fullName,
	// compared case-insensitively.
	RepoExists(ctx context.Context, userID, fullName string) (bool, error)
	ListRepos(ctx context.Context, userID string) ([]model.Repository, error)
	GetRepo(ctx context.Context, userID, id string) (*model.Repository, error)
	// DeleteRepo removes a registration owned by userID. Review history is
	// retained. Returns not-found if the row is absent or owned by someone
	// else.
	DeleteRepo(ctx context.Context, userID, id string) error
	CountRepos(ctx context.Context, userID string) (int, error)
}

// ReviewRepository is the read side over records the analysis worker
// writes.
type ReviewRepository interface {
	// ListReviews returns the user's reviews newest first. limit <= 0
	// means unbounded.
	ListReviews(ctx context.Context, userID string, limit int) ([]model.ReviewRecord, error)
	// ListReviewsForRepo returns the user's reviews for one repository
	// full name (case-insensitive), newest first.
	ListReviewsForRepo(ctx context.Context, userID, fullName string) ([]model.ReviewRecord, error)
	GetReview(ctx context.Context, userID, id string) (*model.ReviewRecord, error)
	// ReviewAggregates returns the user's review count and summed issue
	// count.
	ReviewAggregates(ctx context.Context, userID string) (count, totalIssues int, err error)
	// DailyReviewCounts buckets the user's reviews by calendar day,
	// ascending by date, at most maxDays buckets (the most recent days).
	DailyReviewCounts(ctx context.Context, userID string, maxDays int) ([]model.DailyCount, error)
}

package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/rs/xid"
	"github.com/tahmid/reviewdeck/internal/apperror"
	"github.com/tahmid/reviewdeck/internal/auth"
	"github.com/tahmid/reviewdeck/internal/model"
	"github.com/tahmid/reviewdeck/internal/repository"
)

const (
	// RecentReviewsLimit caps the dashboard's recent-reviews widget.
	RecentReviewsLimit = 10
	// MaxDailyBuckets caps the dashboard chart series.
	MaxDailyBuckets = 30
)

// ReviewService is the read side over records the analysis worker writes.
// Every operation is scoped to the calling user.
type ReviewService struct {
	reviews repository.ReviewRepository
	repos   repository.RepoRepository
	logger  *slog.Logger
}

func NewReviewService(
	reviews repository.ReviewRepository,
	repos repository.RepoRepository,
	logger *slog.Logger,
) *ReviewService {
	return &ReviewService{
		reviews: reviews,
		repos:   repos,
		logger:  logger,
	}
}

// Stats aggregates the caller's dashboard numbers.
//
// estimatedLinterErrors is 80% of total issues, rounded: a documented
// approximation, not a measured quantity. The daily series holds at most
// the 30 most recent days, ascending by date.
func (s *ReviewService) Stats(ctx context.Context, id auth.Identity) (*model.DashboardStats, error) {
	repoCount, err := s.repos.CountRepos(ctx, id.UserID)
	if err != nil {
		return nil, fmt.Errorf("counting repositories: %w", err)
	}

	reviewCount, totalIssues, err := s.reviews.ReviewAggregates(ctx, id.UserID)
	if err != nil {
		return nil, fmt.Errorf("aggregating reviews: %w", err)
	}

	series, err := s.reviews.DailyReviewCounts(ctx, id.UserID, MaxDailyBuckets)
	if err != nil {
		return nil, fmt.Errorf("bucketing reviews: %w", err)
	}

	return &model.DashboardStats{
		RepositoryCount:       repoCount,
		ReviewCount:           reviewCount,
		TotalIssues:           totalIssues,
		EstimatedLinterErrors: int(math.Round(float64(totalIssues) * 0.8)),
		DailySeries:           series,
	}, nil
}

// Recent returns the caller's 10 most recent reviews, newest first.
func (s *ReviewService) Recent(ctx context.Context, id auth.Identity) ([]model.ReviewRecord, error) {
	reviews, err := s.reviews.ListReviews(ctx, id.UserID, RecentReviewsLimit)
	if err != nil {
		return nil, fmt.Errorf("listing recent reviews: %w", err)
	}
	return reviews, nil
}

// All returns the caller's full review history, newest first.
func (s *ReviewService) All(ctx context.Context, id auth.Identity) ([]model.ReviewRecord, error) {
	reviews, err := s.reviews.ListReviews(ctx, id.UserID, 0)
	if err != nil {
		return nil, fmt.Errorf("listing reviews: %w", err)
	}
	return reviews, nil
}

// ByID returns one review owned by the caller. A malformed ID is an
// input error; an absent review and another user's review are the same
// not-found, so record existence never leaks across accounts.
func (s *ReviewService) ByID(ctx context.Context, id auth.Identity, reviewID string) (*model.ReviewRecord, error) {
	if _, err := xid.FromString(reviewID); err != nil {
		return nil, apperror.ValidationFailed("id", "malformed review id")
	}

	return s.reviews.GetReview(ctx, id.UserID, reviewID)
}

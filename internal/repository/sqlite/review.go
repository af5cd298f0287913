package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tahmid/reviewdeck/internal/apperror"
	"github.com/tahmid/reviewdeck/internal/model"
	"github.com/tahmid/reviewdeck/internal/repository"
)

var _ repository.ReviewRepository = (*DB)(nil)

const reviewColumns = `id, user_id, repo_full_name, pr_number, language,
	issues_count, review_comment, created_at`

// ListReviews returns the user's reviews newest first.
// limit <= 0 means the full history.
func (db *DB) ListReviews(ctx context.Context, userID string, limit int) ([]model.ReviewRecord, error) {
	query := `SELECT ` + reviewColumns + `
		 FROM reviews WHERE user_id = ?
		 ORDER BY created_at DESC, id DESC`
	args := []any{userID}

	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing reviews for user %s: %w", userID, err)
	}
	defer rows.Close()

	return collectReviews(rows)
}

// ListReviewsForRepo returns the user's reviews for one repository,
// matched case-insensitively on full name, newest first.
//
// Reviews are matched by full name rather than a foreign key to the
// repositories table: a deleted registration keeps its history, and the
// worker writing reviews never needs to know registration row IDs.
func (db *DB) ListReviewsForRepo(ctx context.Context, userID, fullName string) ([]model.ReviewRecord, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+reviewColumns+`
		 FROM reviews
		 WHERE user_id = ? AND lower(repo_full_name) = lower(?)
		 ORDER BY created_at DESC, id DESC`,
		userID, fullName,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing reviews for %s: %w", fullName, err)
	}
	defer rows.Close()

	return collectReviews(rows)
}

// GetReview fetches one review owned by userID. Absent rows and rows
// owned by another user both return not-found, so existence never leaks
// across accounts.
func (db *DB) GetReview(ctx context.Context, userID, id string) (*model.ReviewRecord, error) {
	var rec model.ReviewRecord

	err := db.conn.QueryRowContext(ctx,
		`SELECT `+reviewColumns+`
		 FROM reviews WHERE id = ? AND user_id = ?`,
		id, userID,
	).Scan(
		&rec.ID,
		&rec.UserID,
		&rec.RepoFullName,
		&rec.PRNumber,
		&rec.Language,
		&rec.IssuesCount,
		&rec.ReviewComment,
		&rec.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("review", id)
		}
		return nil, fmt.Errorf("sqlite: getting review %s: %w", id, err)
	}

	return &rec, nil
}

// ReviewAggregates returns the user's review count and summed issue count.
func (db *DB) ReviewAggregates(ctx context.Context, userID string) (int, int, error) {
	var count, totalIssues int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(issues_count), 0)
		 FROM reviews WHERE user_id = ?`,
		userID,
	).Scan(&count, &totalIssues)
	if err != nil {
		return 0, 0, fmt.Errorf("sqlite: aggregating reviews for user %s: %w", userID, err)
	}
	return count, totalIssues, nil
}

// DailyReviewCounts buckets the user's reviews by calendar day, ascending,
// keeping only the maxDays most recent buckets. The inner query selects
// the newest days; the outer one flips them back into ascending order for
// the chart.
//
// The day is cut out of created_at with substr rather than date():
// every encoding written to that column (RFC3339 text from the worker,
// the driver's own time.Time serialization) starts with YYYY-MM-DD, but
// not all of them are parseable by SQLite's date functions, which would
// yield NULL buckets.
func (db *DB) DailyReviewCounts(ctx context.Context, userID string, maxDays int) ([]model.DailyCount, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT day, n FROM (
			SELECT substr(created_at, 1, 10) AS day, COUNT(*) AS n
			FROM reviews
			WHERE user_id = ?
			GROUP BY day
			ORDER BY day DESC
			LIMIT ?
		 ) ORDER BY day ASC`,
		userID, maxDays,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: bucketing reviews for user %s: %w", userID, err)
	}
	defer rows.Close()

	series := []model.DailyCount{}
	for rows.Next() {
		var d model.DailyCount
		if err := rows.Scan(&d.Date, &d.Count); err != nil {
			return nil, fmt.Errorf("sqlite: scanning daily bucket: %w", err)
		}
		series = append(series, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating daily buckets: %w", err)
	}

	return series, nil
}

func collectReviews(rows *sql.Rows) ([]model.ReviewRecord, error) {
	reviews := []model.ReviewRecord{}
	for rows.Next() {
		var rec model.ReviewRecord
		err := rows.Scan(
			&rec.ID,
			&rec.UserID,
			&rec.RepoFullName,
			&rec.PRNumber,
			&rec.Language,
			&rec.IssuesCount,
			&rec.ReviewComment,
			&rec.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning review: %w", err)
		}
		reviews = append(reviews, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating reviews: %w", err)
	}
	return reviews, nil
}

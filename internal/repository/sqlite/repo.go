package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"
	"github.com/tahmid/reviewdeck/internal/apperror"
	"github.com/tahmid/reviewdeck/internal/model"
	"github.com/tahmid/reviewdeck/internal/repository"
)

var _ repository.RepoRepository = (*DB)(nil)

// CreateRepo inserts a repository registration.
//
// The unique index on (user_id, lower(full_name)) is the final arbiter
// against duplicate registrations: two concurrent inserts for the same
// normalized name race past the service-level existence check, and the
// loser lands here with a constraint violation, which we surface as a
// conflict just like the pre-check would have.
func (db *DB) CreateRepo(ctx context.Context, repo *model.Repository) error {
	repo.ID = xid.New().String()
	if repo.Status == "" {
		repo.Status = model.RepoStatusActive
	}
	repo.AddedAt = time.Now()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO repositories (id, user_id, full_name, url, status, added_at, last_checked_at)
		 VALUES (?, ?, ?, ?, ?, ?, NULL)`,
		repo.ID,
		repo.UserID,
		repo.FullName,
		repo.URL,
		repo.Status,
		repo.AddedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict(fmt.Sprintf("repository %s is already registered", repo.FullName))
		}
		return fmt.Errorf("sqlite: inserting repository %s: %w", repo.FullName, err)
	}

	return nil
}

// isUniqueViolation reports whether err is a SQLite unique-constraint
// failure. modernc.org/sqlite doesn't export a typed error for this, so we
// match the stable message prefix the engine emits.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// RepoExists reports whether userID already registered fullName, compared
// case-insensitively.
func (db *DB) RepoExists(ctx context.Context, userID, fullName string) (bool, error) {
	var count int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM repositories
		 WHERE user_id = ? AND lower(full_name) = lower(?)`,
		userID, fullName,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("sqlite: checking repository %s for user %s: %w", fullName, userID, err)
	}
	return count > 0, nil
}

// ListRepos returns the user's registrations, newest first.
func (db *DB) ListRepos(ctx context.Context, userID string) ([]model.Repository, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, user_id, full_name, url, status, added_at, last_checked_at
		 FROM repositories
		 WHERE user_id = ?
		 ORDER BY added_at DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing repositories for user %s: %w", userID, err)
	}
	defer rows.Close()

	repos := []model.Repository{}
	for rows.Next() {
		r, err := scanRepo(rows)
		if err != nil {
			return nil, err
		}
		repos = append(repos, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating repositories: %w", err)
	}

	return repos, nil
}

// GetRepo fetches one registration owned by userID.
// Returns apperror.ErrNotFound for absent rows and rows owned by someone
// else alike; the caller cannot distinguish the two.
func (db *DB) GetRepo(ctx context.Context, userID, id string) (*model.Repository, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT id, user_id, full_name, url, status, added_at, last_checked_at
		 FROM repositories
		 WHERE id = ? AND user_id = ?`,
		id, userID,
	)

	r, err := scanRepo(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("repository", id)
		}
		return nil, err
	}
	return r, nil
}

// DeleteRepo removes a registration owned by userID. Reviews for the
// repository are left behind; history survives removal.
func (db *DB) DeleteRepo(ctx context.Context, userID, id string) error {
	res, err := db.conn.ExecContext(ctx,
		`DELETE FROM repositories WHERE id = ? AND user_id = ?`,
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting repository %s: %w", id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: delete rows affected: %w", err)
	}
	if affected == 0 {
		return apperror.NotFound("repository", id)
	}

	return nil
}

// CountRepos returns how many repositories the user has registered.
func (db *DB) CountRepos(ctx context.Context, userID string) (int, error) {
	var count int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM repositories WHERE user_id = ?`, userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("sqlite: counting repositories for user %s: %w", userID, err)
	}
	return count, nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRepo(s scanner) (*model.Repository, error) {
	var r model.Repository
	var lastChecked sql.NullTime

	err := s.Scan(
		&r.ID,
		&r.UserID,
		&r.FullName,
		&r.URL,
		&r.Status,
		&r.AddedAt,
		&lastChecked,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("sqlite: scanning repository: %w", err)
	}

	if lastChecked.Valid {
		t := lastChecked.Time
		r.LastCheckedAt = &t
	}

	return &r, nil
}

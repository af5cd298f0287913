package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/tahmid/reviewdeck/internal/apperror"
	"github.com/tahmid/reviewdeck/internal/model"
	"github.com/tahmid/reviewdeck/internal/repository"
)

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

// Upsert inserts or refreshes a user keyed by their GitHub numeric ID.
//
// First login inserts a new row with a freshly minted internal ID.
// Subsequent logins keep the internal ID and overwrite login, avatar,
// access token and last-login. Last writer wins on the token, which is
// the intended refresh semantics. The caller's struct is updated in place
// with the canonical row either way, so a retried login self-heals.
func (db *DB) Upsert(ctx context.Context, user *model.User) error {
	var existingID string
	var createdAt time.Time
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, created_at FROM users WHERE github_id = ?`, user.GitHubID,
	).Scan(&existingID, &createdAt)

	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("sqlite: looking up user by github_id %d: %w", user.GitHubID, err)
	}

	now := time.Now()
	user.LastLoginAt = now
	user.UpdatedAt = now

	if existingID != "" {
		user.ID = existingID
		user.CreatedAt = createdAt
		_, err = db.conn.ExecContext(ctx,
			`UPDATE users SET login = ?, avatar_url = ?, access_token = ?,
			 last_login_at = ?, updated_at = ?
			 WHERE id = ?`,
			user.Login,
			user.AvatarURL,
			user.AccessToken,
			user.LastLoginAt,
			user.UpdatedAt,
			user.ID,
		)
		if err != nil {
			return fmt.Errorf("sqlite: updating user %s: %w", user.ID, err)
		}
		return nil
	}

	user.ID = xid.New().String()
	user.CreatedAt = now

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO users (id, github_id, login, avatar_url, access_token,
		 last_login_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.GitHubID,
		user.Login,
		user.AvatarURL,
		user.AccessToken,
		user.LastLoginAt,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting user (githubID=%d): %w", user.GitHubID, err)
	}

	return nil
}

// GetUserByID retrieves a user by internal ID.
// Returns apperror.ErrNotFound if no user exists with that ID.
func (db *DB) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	var u model.User

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, github_id, login, avatar_url, access_token,
		 last_login_at, created_at, updated_at
		 FROM users WHERE id = ?`,
		id,
	).Scan(
		&u.ID,
		&u.GitHubID,
		&u.Login,
		&u.AvatarURL,
		&u.AccessToken,
		&u.LastLoginAt,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}

	return &u, nil
}

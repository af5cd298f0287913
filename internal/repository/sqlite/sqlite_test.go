package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/rs/xid"
	"github.com/tahmid/reviewdeck/internal/model"
)

// newTestDB opens an in-memory database that lives for one test.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// createTestUser upserts a user and returns it with the generated ID.
func createTestUser(t *testing.T, db *DB, githubID int64, login string) *model.User {
	t.Helper()
	user := &model.User{
		GitHubID:    githubID,
		Login:       login,
		AvatarURL:   "https://avatars.githubusercontent.com/u/1",
		AccessToken: "gho_testtoken",
	}
	if err := db.Upsert(context.Background(), user); err != nil {
		t.Fatalf("failed to upsert test user: %v", err)
	}
	return user
}

// createTestRepo registers a repository for the user.
func createTestRepo(t *testing.T, db *DB, userID, fullName string) *model.Repository {
	t.Helper()
	repo := &model.Repository{
		UserID:   userID,
		FullName: fullName,
		URL:      "https://github.com/" + fullName,
	}
	if err := db.CreateRepo(context.Background(), repo); err != nil {
		t.Fatalf("failed to create test repository: %v", err)
	}
	return repo
}

// insertTestReview writes a review row directly, the way the analysis
// worker would. The repository layer is read-only for reviews, so tests
// go through the connection.
func insertTestReview(t *testing.T, db *DB, userID, fullName string, issues int, createdAt time.Time) string {
	t.Helper()
	id := xid.New().String()
	_, err := db.conn.Exec(
		`INSERT INTO reviews (id, user_id, repo_full_name, pr_number, language,
		 issues_count, review_comment, created_at)
		 VALUES (?, ?, ?, 1, 'go', ?, 'looks fine', ?)`,
		id, userID, fullName, issues, createdAt,
	)
	if err != nil {
		t.Fatalf("failed to insert test review: %v", err)
	}
	return id
}

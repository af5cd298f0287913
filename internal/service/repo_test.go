package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tahmid/reviewdeck/internal/apperror"
	"github.com/tahmid/reviewdeck/internal/auth"
	"github.com/tahmid/reviewdeck/internal/github"
	"github.com/tahmid/reviewdeck/internal/metrics"
)

func TestParseRepoURL(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{name: "plain", raw: "https://github.com/acme/widgets", want: "acme/widgets"},
		{name: "trailing slash", raw: "https://github.com/acme/widgets/", want: "acme/widgets"},
		{name: "git suffix", raw: "https://github.com/acme/widgets.git", want: "acme/widgets"},
		{name: "git suffix and slash", raw: "https://github.com/acme/widgets.git/", want: "acme/widgets"},
		{name: "casing preserved", raw: "https://github.com/ACME/Widgets", want: "ACME/Widgets"},
		{name: "http scheme", raw: "http://github.com/acme/widgets", want: "acme/widgets"},
		{name: "empty", raw: "", wantErr: true},
		{name: "not a url", raw: "::nope::", wantErr: true},
		{name: "no scheme", raw: "github.com/acme/widgets", wantErr: true},
		{name: "missing name", raw: "https://github.com/acme", wantErr: true},
		{name: "extra path segment", raw: "https://github.com/acme/widgets/tree/main", wantErr: true},
		{name: "empty owner", raw: "https://github.com//widgets", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRepoURL(tt.raw)
			if tt.wantErr {
				if !errors.Is(err, apperror.ErrValidation) {
					t.Fatalf("ParseRepoURL(%q) error = %v, want ErrValidation", tt.raw, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseRepoURL(%q) error = %v", tt.raw, err)
			}
			if got != tt.want {
				t.Errorf("ParseRepoURL(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

// githubStub fakes the /repos/{owner}/{name} endpoint. status is what the
// stub answers; permissions only matter on 200.
func githubStub(t *testing.T, status int, perms github.Permissions) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got == "Bearer " {
			t.Errorf("permission probe sent an empty token")
		}
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		json.NewEncoder(w).Encode(github.Repo{
			FullName:    "acme/widgets",
			Permissions: perms,
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestRepoService(t *testing.T, users *fakeUserRepo, repos *fakeRepoRepo, gh *github.Client) *RepoService {
	t.Helper()
	return NewRepoService(repos, &fakeReviewRepo{}, users, gh, metrics.Nop{}, testLogger())
}

func TestRegister_Success(t *testing.T) {
	users := newFakeUserRepo()
	users.addUser(t, "user-1", "alice", "gho_token")
	repos := newFakeRepoRepo()
	stub := githubStub(t, http.StatusOK, github.Permissions{Push: true})
	svc := newTestRepoService(t, users, repos, github.NewWithBaseURL(stub.URL))

	id := auth.Identity{UserID: "user-1", Username: "alice"}
	repo, err := svc.Register(context.Background(), id, "https://github.com/acme/widgets")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if repo.FullName != "acme/widgets" {
		t.Errorf("FullName = %q, want %q", repo.FullName, "acme/widgets")
	}
	if repo.UserID != "user-1" {
		t.Errorf("UserID = %q, want %q", repo.UserID, "user-1")
	}
	if repo.ID == "" {
		t.Error("Register() returned repository without an ID")
	}
}

func TestRegister_DuplicateNormalizedVariants(t *testing.T) {
	users := newFakeUserRepo()
	users.addUser(t, "user-1", "alice", "gho_token")
	repos := newFakeRepoRepo()
	stub := githubStub(t, http.StatusOK, github.Permissions{Push: true})
	svc := newTestRepoService(t, users, repos, github.NewWithBaseURL(stub.URL))

	id := auth.Identity{UserID: "user-1", Username: "alice"}
	if _, err := svc.Register(context.Background(), id, "https://github.com/acme/widgets"); err != nil {
		t.Fatalf("first Register() error = %v", err)
	}

	variants := []string{
		"https://github.com/acme/widgets",
		"https://github.com/ACME/widgets/",
		"https://github.com/Acme/Widgets.git",
	}
	for _, v := range variants {
		_, err := svc.Register(context.Background(), id, v)
		if !errors.Is(err, apperror.ErrConflict) {
			t.Errorf("Register(%q) error = %v, want ErrConflict", v, err)
		}
	}

	all, _ := repos.ListRepos(context.Background(), "user-1")
	if len(all) != 1 {
		t.Errorf("got %d repositories after duplicate attempts, want 1", len(all))
	}
}

func TestRegister_SameRepoDifferentUsers(t *testing.T) {
	users := newFakeUserRepo()
	users.addUser(t, "user-1", "alice", "gho_a")
	users.addUser(t, "user-2", "bob", "gho_b")
	repos := newFakeRepoRepo()
	stub := githubStub(t, http.StatusOK, github.Permissions{Admin: true})
	svc := newTestRepoService(t, users, repos, github.NewWithBaseURL(stub.URL))

	if _, err := svc.Register(context.Background(), auth.Identity{UserID: "user-1"}, "https://github.com/acme/widgets"); err != nil {
		t.Fatalf("Register() as alice: error = %v", err)
	}
	if _, err := svc.Register(context.Background(), auth.Identity{UserID: "user-2"}, "https://github.com/acme/widgets"); err != nil {
		t.Fatalf("Register() as bob: error = %v", err)
	}
}

func TestRegister_PermissionDeniedPersistsNothing(t *testing.T) {
	users := newFakeUserRepo()
	users.addUser(t, "user-1", "alice", "gho_token")
	repos := newFakeRepoRepo()
	// Pull-only access: the probe succeeds but grants no write.
	stub := githubStub(t, http.StatusOK, github.Permissions{Pull: true})
	svc := newTestRepoService(t, users, repos, github.NewWithBaseURL(stub.URL))

	_, err := svc.Register(context.Background(), auth.Identity{UserID: "user-1"}, "https://github.com/acme/widgets")
	if !errors.Is(err, apperror.ErrForbidden) {
		t.Fatalf("Register() error = %v, want ErrForbidden", err)
	}

	all, _ := repos.ListRepos(context.Background(), "user-1")
	if len(all) != 0 {
		t.Errorf("got %d repositories after denied registration, want 0", len(all))
	}
}

func TestRegister_RepoNotVisible(t *testing.T) {
	users := newFakeUserRepo()
	users.addUser(t, "user-1", "alice", "gho_token")
	repos := newFakeRepoRepo()
	stub := githubStub(t, http.StatusNotFound, github.Permissions{})
	svc := newTestRepoService(t, users, repos, github.NewWithBaseURL(stub.URL))

	_, err := svc.Register(context.Background(), auth.Identity{UserID: "user-1"}, "https://github.com/acme/secret")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("Register() error = %v, want ErrNotFound", err)
	}
}

func TestRegister_UpstreamFailure(t *testing.T) {
	users := newFakeUserRepo()
	users.addUser(t, "user-1", "alice", "gho_token")
	repos := newFakeRepoRepo()
	stub := githubStub(t, http.StatusBadGateway, github.Permissions{})
	svc := newTestRepoService(t, users, repos, github.NewWithBaseURL(stub.URL))

	_, err := svc.Register(context.Background(), auth.Identity{UserID: "user-1"}, "https://github.com/acme/widgets")
	if !errors.Is(err, apperror.ErrUpstream) {
		t.Fatalf("Register() error = %v, want ErrUpstream", err)
	}
}

func TestRegister_MissingTokenIsStaleCredential(t *testing.T) {
	users := newFakeUserRepo()
	users.addUser(t, "user-1", "alice", "") // no stored token
	repos := newFakeRepoRepo()
	stub := githubStub(t, http.StatusOK, github.Permissions{Push: true})
	svc := newTestRepoService(t, users, repos, github.NewWithBaseURL(stub.URL))

	_, err := svc.Register(context.Background(), auth.Identity{UserID: "user-1"}, "https://github.com/acme/widgets")
	if !errors.Is(err, apperror.ErrStaleCredential) {
		t.Fatalf("Register() error = %v, want ErrStaleCredential", err)
	}
}

func TestGet_EmbedsReviews(t *testing.T) {
	users := newFakeUserRepo()
	users.addUser(t, "user-1", "alice", "gho_token")
	repos := newFakeRepoRepo()
	reviews := &fakeReviewRepo{}
	stub := githubStub(t, http.StatusOK, github.Permissions{Push: true})
	svc := NewRepoService(repos, reviews, users, github.NewWithBaseURL(stub.URL), metrics.Nop{}, testLogger())

	id := auth.Identity{UserID: "user-1"}
	repo, err := svc.Register(context.Background(), id, "https://github.com/acme/widgets")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	reviews.reviews = append(reviews.reviews,
		newReview("rev-1", "user-1", "acme/widgets", 2),
		newReview("rev-2", "user-2", "acme/widgets", 9), // other user's review
	)

	detail, err := svc.Get(context.Background(), id, repo.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if len(detail.Reviews) != 1 {
		t.Fatalf("got %d embedded reviews, want 1", len(detail.Reviews))
	}
	if detail.Reviews[0].ID != "rev-1" {
		t.Errorf("embedded review = %q, want %q", detail.Reviews[0].ID, "rev-1")
	}
}

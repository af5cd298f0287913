// Package github is a minimal authenticated client for the GitHub REST
// API. The gateway only needs one call: fetching a repository to learn
// what permissions the caller's token grants on it.
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/tahmid/reviewdeck/internal/apperror"
)

const defaultBaseURL = "https://api.github.com"

// Permissions is the permissions object GitHub embeds in a repository
// response when the request is authenticated.
type Permissions struct {
	Admin bool `json:"admin"`
	Push  bool `json:"push"`
	Pull  bool `json:"pull"`
}

// Repo is the slice of GitHub's repository object the registry needs.
type Repo struct {
	FullName    string      `json:"full_name"`
	Private     bool        `json:"private"`
	Permissions Permissions `json:"permissions"`
}

// StatusRecorder counts GitHub API responses by status code. Satisfied by
// the metrics collector; nil disables recording.
type StatusRecorder interface {
	RecordGitHubStatus(statusCode int)
}

// Client calls the GitHub REST API with a per-user token supplied on each
// request. A single Client is shared by all requests; it holds no
// credential state of its own.
type Client struct {
	baseURL string
	http    *http.Client
	rec     StatusRecorder
}

// New creates a Client against api.github.com. The 10s timeout bounds how
// long a hung GitHub call can occupy a request handler.
func New(rec StatusRecorder) *Client {
	return &Client{
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
		rec:     rec,
	}
}

// NewWithBaseURL creates a Client against a custom API origin. Used by
// tests with an httptest server.
func NewWithBaseURL(baseURL string) *Client {
	c := New(nil)
	c.baseURL = baseURL
	return c
}

// GetRepo fetches /repos/{owner}/{name} with the given user token.
//
// GitHub answers 404 for both nonexistent repositories and private ones
// the token cannot see; the ambiguity is passed through here as a
// not-found. Any other non-2xx becomes an
// upstream error carrying the status for the logs.
func (c *Client) GetRepo(ctx context.Context, token, owner, name string) (*Repo, error) {
	url := fmt.Sprintf("%s/repos/%s/%s", c.baseURL, owner, name)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("github: building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, apperror.Upstream(fmt.Sprintf("GitHub API unreachable: %v", err))
	}
	defer resp.Body.Close()

	if c.rec != nil {
		c.rec.RecordGitHubStatus(resp.StatusCode)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, apperror.NotFound("repository", owner+"/"+name)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, apperror.Upstream(fmt.Sprintf("GitHub API returned status %d for %s/%s", resp.StatusCode, owner, name))
	}

	var repo Repo
	if err := json.NewDecoder(resp.Body).Decode(&repo); err != nil {
		return nil, apperror.Upstream(fmt.Sprintf("decoding GitHub repository response: %v", err))
	}

	return &repo, nil
}

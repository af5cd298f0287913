// Package service contains the business logic layer of the gateway:
// session issuing, the repository registry, event intake, and the review
// query service. Services accept plain values, return domain errors from
// internal/apperror, and know nothing about HTTP.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tahmid/reviewdeck/internal/auth"
	"github.com/tahmid/reviewdeck/internal/metrics"
	"github.com/tahmid/reviewdeck/internal/model"
	"github.com/tahmid/reviewdeck/internal/repository"
)

// AuthService is the session issuer: it turns an exchanged GitHub profile
// into a local account and a signed session token.
type AuthService struct {
	users  repository.UserRepository
	tokens *auth.TokenService
	rec    metrics.Recorder
	logger *slog.Logger
}

func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	rec metrics.Recorder,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:  users,
		tokens: tokens,
		rec:    rec,
		logger: logger,
	}
}

// AuthResult bundles the upserted user with the issued session token so
// the handler can set the cookie and redirect in one step.
type AuthResult struct {
	User  *model.User
	Token string
}

// CompleteLogin finishes the OAuth callback after the handler has
// exchanged the code: upsert the account keyed by GitHub ID (create on
// first login, refresh login/avatar/token/last-login after), then mint a
// 7-day session.
//
// The upsert is idempotent, so a login that failed partway and was
// retried converges on the same account. No partial state is treated as
// success; any error here aborts the whole flow.
func (s *AuthService) CompleteLogin(ctx context.Context, ghUser *auth.GitHubUser, accessToken string) (*AuthResult, error) {
	if ghUser == nil {
		return nil, fmt.Errorf("service/auth: GitHub user must not be nil")
	}

	user := &model.User{
		GitHubID:    ghUser.ID,
		Login:       ghUser.Login,
		AvatarURL:   ghUser.AvatarURL,
		AccessToken: accessToken,
	}

	if err := s.users.Upsert(ctx, user); err != nil {
		return nil, fmt.Errorf("service/auth: upserting user (githubID=%d): %w", ghUser.ID, err)
	}

	token, err := s.tokens.Issue(auth.Identity{UserID: user.ID, Username: user.Login})
	if err != nil {
		return nil, fmt.Errorf("service/auth: issuing session for user %s: %w", user.ID, err)
	}

	s.rec.RecordLogin()
	s.logger.Info("user authenticated via GitHub",
		slog.String("userID", user.ID),
		slog.String("login", user.Login),
	)

	return &AuthResult{User: user, Token: token}, nil
}

// GetUserByID returns the account for the given internal ID. Used by the
// /api/auth/me handler after the gate has verified the session.
func (s *AuthService) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, fmt.Errorf("service/auth: user ID must not be empty")
	}

	user, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/auth: fetching user %s: %w", id, err)
	}

	return user, nil
}

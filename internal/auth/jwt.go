// Package auth provides session tokens, the GitHub OAuth provider, and the
// middleware that gates every protected route.
//
// Sessions are stateless: a signed JWT carries {user id, username, expiry}
// in an HttpOnly cookie. Any instance of the gateway can verify it with
// nothing but the shared signing secret, which is what lets the service
// scale horizontally without a session store. Revocation is only possible
// by rotating the secret or the client dropping the cookie.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionTTL is the fixed lifetime of an issued session. After expiry the
// user must log in again via GitHub.
const SessionTTL = 7 * 24 * time.Hour

const issuer = "reviewdeck"

// Identity is the authenticated {user id, username} pair the gate attaches
// to a request.
type Identity struct {
	UserID   string
	Username string
}

// TokenService signs and verifies session tokens with an HMAC secret.
// The same secret must be shared by every instance verifying tokens.
type TokenService struct {
	secret []byte
}

// NewTokenService creates a TokenService with the given secret.
// The secret should be at least 32 bytes of random data in production.
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: session secret must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret)}, nil
}

// claims is the session payload: the standard registered claims plus the
// GitHub login, so the gate can attach a full Identity without a DB read.
type claims struct {
	Login string `json:"login"`
	jwt.RegisteredClaims
}

// Issue creates and signs a session token for the given identity with the
// standard 7-day lifetime.
func (s *TokenService) Issue(id Identity) (string, error) {
	return s.IssueWithDuration(id, SessionTTL)
}

// IssueWithDuration creates a token with a custom expiry. Exists for tests
// that need an already-expired or nearly-expired session.
func (s *TokenService) IssueWithDuration(id Identity, d time.Duration) (string, error) {
	now := time.Now()

	c := claims{
		Login: id.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Verify parses and validates a session token string and returns the
// identity it encodes.
//
// Checks performed: HMAC signature, expiry (required), issuer, and that
// the signing algorithm is HS256. Pinning the algorithm prevents
// algorithm-confusion forgeries.
func (s *TokenService) Verify(tokenStr string) (Identity, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, fmt.Errorf("auth: session expired")
		}
		return Identity{}, fmt.Errorf("auth: invalid session: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return Identity{}, fmt.Errorf("auth: invalid session claims")
	}
	if c.Subject == "" {
		return Identity{}, fmt.Errorf("auth: session has no subject")
	}

	return Identity{UserID: c.Subject, Username: c.Login}, nil
}

package auth

import (
	"context"
	"net/http"
)

// SessionCookie is the name of the HttpOnly cookie carrying the session
// token.
const SessionCookie = "token"

// contextKey is an unexported type for context keys in this package, so no
// other package can read or shadow the identity value.
type contextKey struct{}

var identityKey contextKey

// RequireAuth is the gate in front of every protected route.
//
// It reads the session cookie, verifies the token, and stores the
// resulting Identity in the request context. A missing cookie or a token
// that fails signature/expiry checks stops the chain with 401. Downstream
// handlers trust the context identity without re-validating; this
// middleware is the sole point of trust establishment.
func RequireAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookie)
			if err != nil {
				http.Error(w, `{"error":"unauthenticated","message":"authentication required"}`, http.StatusUnauthorized)
				return
			}

			id, err := tokens.Verify(cookie.Value)
			if err != nil {
				http.Error(w, `{"error":"invalid_session","message":"session is invalid or expired"}`, http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), identityKey, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IdentityFromContext retrieves the authenticated identity attached by
// RequireAuth. ok is false on routes outside the gate.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok && id.UserID != ""
}

// WithIdentity returns a context carrying the given identity. Test helper
// for exercising handlers without running the middleware.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

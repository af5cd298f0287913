package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/rs/xid"
	"github.com/tahmid/reviewdeck/internal/auth"
	"github.com/tahmid/reviewdeck/internal/service"
)

// AuthHandler runs the GitHub OAuth login flow and session endpoints.
type AuthHandler struct {
	github       *auth.GitHubProvider
	authService  *service.AuthService
	dashboardURL string
	secureCookie bool
	logger       *slog.Logger
}

// NewAuthHandler creates an AuthHandler. dashboardURL is where a
// completed login redirects; secureCookie marks the session cookie
// Secure (set it in production, where the dashboard is HTTPS-only).
func NewAuthHandler(
	github *auth.GitHubProvider,
	authService *service.AuthService,
	dashboardURL string,
	secureCookie bool,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		github:       github,
		authService:  authService,
		dashboardURL: dashboardURL,
		secureCookie: secureCookie,
		logger:       logger,
	}
}

// HandleLogin redirects the browser to GitHub's authorization page.
//
// GET /api/auth/github
//
// A random state nonce goes into a short-lived HttpOnly cookie and into
// the authorize URL; the callback requires them to match, so an attacker
// can't complete an OAuth flow the user never started.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	state := xid.New().String()

	http.SetCookie(w, &http.Cookie{
		Name:     "oauth_state",
		Value:    state,
		Path:     "/",
		MaxAge:   600, // 10 minutes
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.github.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleCallback completes the OAuth login.
//
// GET /api/auth/callback?code=xxx&state=yyy
//
// Verify the state, exchange the code for a token and profile, upsert the
// account, set the 7-day session cookie, redirect to the dashboard. Every
// failure aborts the whole flow with a generic authentication-failed
// response; no step's partial result counts as a login.
func (h *AuthHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	stateCookie, err := r.Cookie("oauth_state")
	if err != nil || stateCookie.Value == "" {
		h.logger.Warn("auth callback: missing state cookie")
		http.Error(w, "invalid OAuth state", http.StatusBadRequest)
		return
	}
	if r.URL.Query().Get("state") != stateCookie.Value {
		h.logger.Warn("auth callback: state mismatch")
		http.Error(w, "invalid OAuth state", http.StatusBadRequest)
		return
	}

	// The state nonce is single-use.
	http.SetCookie(w, &http.Cookie{
		Name:   "oauth_state",
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.Info("auth callback: user denied authorization",
			slog.String("error", errParam),
		)
		http.Redirect(w, r, h.dashboardURL+"?auth=denied", http.StatusSeeOther)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "missing OAuth code", http.StatusBadRequest)
		return
	}

	ghUser, accessToken, err := h.github.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("auth callback: GitHub exchange failed", slog.String("error", err.Error()))
		http.Error(w, "authentication failed", http.StatusInternalServerError)
		return
	}

	result, err := h.authService.CompleteLogin(r.Context(), ghUser, accessToken)
	if err != nil {
		h.logger.Error("auth callback: completing login failed",
			slog.Int64("githubID", ghUser.ID),
			slog.String("error", err.Error()),
		)
		http.Error(w, "authentication failed", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    result.Token,
		Path:     "/",
		MaxAge:   int(auth.SessionTTL / time.Second),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.dashboardURL, http.StatusSeeOther)
}

// HandleLogout clears the session cookie.
//
// POST /api/auth/logout
//
// Sessions are stateless; the token itself stays valid until expiry, but
// overwriting the cookie with an expired empty value is the only
// revocation the design has.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// meResponse is the GET /api/auth/me payload.
type meResponse struct {
	UserID    string `json:"userId"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatarUrl"`
}

// HandleMe returns the authenticated user's profile.
//
// GET /api/auth/me (behind the auth gate)
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error":"unauthenticated"}`, http.StatusUnauthorized)
		return
	}

	user, err := h.authService.GetUserByID(r.Context(), id.UserID)
	if err != nil {
		h.logger.Error("HandleMe: user lookup failed", slog.String("userID", id.UserID))
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, meResponse{
		UserID:    user.ID,
		Username:  user.Login,
		AvatarURL: user.AvatarURL,
	})
}

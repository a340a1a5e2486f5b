package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/rs/xid"

	"github.com/sakif/event-board/internal/apperror"
	"github.com/sakif/event-board/internal/auth"
)

const stateCookie = "oauth_state"

// GitHubProvider is the part of auth.GitHubProvider the handlers use.
type GitHubProvider interface {
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (*auth.GitHubUser, error)
}

// AuthHandler runs the GitHub sign-in flow. It is only mounted when GitHub
// credentials are configured.
type AuthHandler struct {
	github        GitHubProvider
	users         UserService
	tokens        *auth.TokenService
	views         *Views
	secureCookies bool
	logger        *slog.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(
	github GitHubProvider,
	users UserService,
	tokens *auth.TokenService,
	views *Views,
	secureCookies bool,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		github:        github,
		users:         users,
		tokens:        tokens,
		views:         views,
		secureCookies: secureCookies,
		logger:        logger,
	}
}

// HandleGitHubLogin redirects to GitHub's authorization page.
//
// HTTP: GET /auth/github/login
//
// The random state is stored in a short-lived cookie and checked on the
// callback, which proves the flow was started here.
func (h *AuthHandler) HandleGitHubLogin(w http.ResponseWriter, r *http.Request) {
	state := xid.New().String()

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/auth/github",
		MaxAge:   600,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.github.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleGitHubCallback completes the sign-in: check the state, exchange the
// code for the profile, find or create the account, start a session.
//
// HTTP: GET /auth/github/callback?code=xxx&state=yyy
func (h *AuthHandler) HandleGitHubCallback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	cookie, err := r.Cookie(stateCookie)
	if err != nil || cookie.Value == "" || query.Get("state") != cookie.Value {
		h.logger.Warn("github callback: state mismatch")
		h.views.errorPage(w, r, http.StatusBadRequest, "The sign-in request expired. Please try again.")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:   stateCookie,
		Value:  "",
		Path:   "/auth/github",
		MaxAge: -1,
	})

	if errParam := query.Get("error"); errParam != "" {
		h.logger.Info("github callback: authorization denied", slog.String("error", errParam))
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	code := query.Get("code")
	if code == "" {
		h.views.errorPage(w, r, http.StatusBadRequest, "GitHub did not send an authorization code.")
		return
	}

	ghUser, err := h.github.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("github callback: exchange failed", slog.String("error", err.Error()))
		h.views.errorPage(w, r, http.StatusBadGateway, "GitHub sign-in failed. Please try again.")
		return
	}

	user, err := h.users.LoginGitHub(r.Context(), ghUser)
	if err != nil {
		if errors.Is(err, apperror.ErrValidation) {
			h.views.errorPage(w, r, http.StatusUnprocessableEntity, err.Error())
			return
		}
		h.views.Error(w, r, err)
		return
	}

	if err := auth.SetSession(w, h.tokens, h.users.Principal(user), h.secureCookies); err != nil {
		h.views.Error(w, r, err)
		return
	}

	h.logger.Info("user logged in via GitHub", slog.Int64("userID", user.ID), slog.String("login", ghUser.Login))
	http.Redirect(w, r, "/myEvents", http.StatusSeeOther)
}

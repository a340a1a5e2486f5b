package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/event-board/internal/apperror"
	"github.com/sakif/event-board/internal/auth"
	"github.com/sakif/event-board/internal/model"
	"github.com/sakif/event-board/internal/service"
)

// UserService is the part of service.UserService the handlers use.
type UserService interface {
	Register(ctx context.Context, in service.RegisterInput) (*model.User, error)
	Authenticate(ctx context.Context, email, password string) (*model.User, error)
	LoginGitHub(ctx context.Context, gh *auth.GitHubUser) (*model.User, error)
	Principal(user *model.User) auth.Principal
}

type registerPage struct {
	layout
	Email  string
	Errors map[string]string
}

type loginPage struct {
	layout
	LastUsername string
	Error        string
}

// UserHandler serves registration and the email/password login.
// Logout is not here: /logout is handled by auth.Logout.
type UserHandler struct {
	users         UserService
	tokens        *auth.TokenService
	views         *Views
	secureCookies bool
	logger        *slog.Logger
}

// NewUserHandler creates a UserHandler. secureCookies marks the session
// cookie Secure, which requires HTTPS.
func NewUserHandler(users UserService, tokens *auth.TokenService, views *Views, secureCookies bool, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		users:         users,
		tokens:        tokens,
		views:         views,
		secureCookies: secureCookies,
		logger:        logger,
	}
}

// HandleRegisterForm shows the registration form.
//
// HTTP: GET /register
func (h *UserHandler) HandleRegisterForm(w http.ResponseWriter, r *http.Request) {
	h.renderRegister(w, r, http.StatusOK, "", nil)
}

// HandleRegister creates the account and redirects to the login page.
// Only email and password are read from the form; a submitted "roles" field
// is ignored.
//
// HTTP: POST /register
func (h *UserHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderRegister(w, r, http.StatusBadRequest, "", map[string]string{"email": "The form could not be read."})
		return
	}

	in := service.RegisterInput{
		Email:    r.PostForm.Get("email"),
		Password: r.PostForm.Get("password"),
	}

	if _, err := h.users.Register(r.Context(), in); err != nil {
		if errors.Is(err, apperror.ErrValidation) {
			h.renderRegister(w, r, http.StatusUnprocessableEntity, in.Email, apperror.Fields(err))
			return
		}
		h.views.Error(w, r, err)
		return
	}

	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// HandleLoginForm shows the login form. A signed-in user is sent to their
// events instead.
//
// HTTP: GET /login
func (h *UserHandler) HandleLoginForm(w http.ResponseWriter, r *http.Request) {
	if auth.PrincipalFromContext(r.Context()) != nil {
		http.Redirect(w, r, "/myEvents", http.StatusFound)
		return
	}
	h.renderLogin(w, r, http.StatusOK, "", "")
}

// HandleLogin checks the credentials, starts a session and redirects to the
// user's events. A failed attempt re-renders the form with the email that was
// tried and the error.
//
// HTTP: POST /login
func (h *UserHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if auth.PrincipalFromContext(r.Context()) != nil {
		http.Redirect(w, r, "/myEvents", http.StatusSeeOther)
		return
	}

	if err := r.ParseForm(); err != nil {
		h.renderLogin(w, r, http.StatusBadRequest, "", "The form could not be read.")
		return
	}
	email := r.PostForm.Get("email")

	user, err := h.users.Authenticate(r.Context(), email, r.PostForm.Get("password"))
	if err != nil {
		if errors.Is(err, apperror.ErrValidation) {
			h.renderLogin(w, r, http.StatusUnprocessableEntity, email, err.Error())
			return
		}
		h.views.Error(w, r, err)
		return
	}

	if err := auth.SetSession(w, h.tokens, h.users.Principal(user), h.secureCookies); err != nil {
		h.views.Error(w, r, err)
		return
	}

	h.logger.Info("user logged in", slog.Int64("userID", user.ID))
	http.Redirect(w, r, "/myEvents", http.StatusSeeOther)
}

func (h *UserHandler) renderRegister(w http.ResponseWriter, r *http.Request, status int, email string, errs map[string]string) {
	h.views.render(w, r, status, "register", registerPage{
		layout: h.views.layout(r, "Register"),
		Email:  email,
		Errors: errs,
	})
}

func (h *UserHandler) renderLogin(w http.ResponseWriter, r *http.Request, status int, lastUsername, errMsg string) {
	h.views.render(w, r, status, "login", loginPage{
		layout:       h.views.layout(r, "Log in"),
		LastUsername: lastUsername,
		Error:        errMsg,
	})
}

package auth

import (
	"context"
	"log/slog"
	"net/http"
)

// SessionCookie is the name of the HttpOnly cookie holding the session token.
const SessionCookie = "session"

// contextKey is an unexported type used for context keys in this package, so
// no other package can read or shadow the principal.
type contextKey string

const principalKey contextKey = "principal"

// LoadSession is a middleware that resolves the session cookie into a
// Principal and stores it in the request context.
//
// It never blocks a request: a missing, expired or forged token simply leaves
// the request anonymous (and an invalid cookie is cleared). Deciding what an
// anonymous caller may see is the job of the service layer, which receives
// the principal explicitly.
func LoadSession(tokens *TokenService, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookie)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(w, r)
				return
			}

			p, err := tokens.Validate(cookie.Value)
			if err != nil {
				logger.Debug("discarding invalid session", slog.String("error", err.Error()))
				ClearSession(w)
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFromContext returns the authenticated user of the request, or nil
// when the request is anonymous.
func PrincipalFromContext(ctx context.Context) *Principal {
	p, ok := ctx.Value(principalKey).(Principal)
	if !ok || p.UserID <= 0 {
		return nil
	}
	return &p
}

// SetSession issues a session token for p and stores it in the cookie.
//
// HttpOnly keeps the token away from JavaScript; SameSite=Lax keeps it off
// cross-site POSTs.
func SetSession(w http.ResponseWriter, tokens *TokenService, p Principal, secure bool) error {
	token, err := tokens.Generate(p)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(tokens.TTL().Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// ClearSession deletes the session cookie.
func ClearSession(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// Logout terminates the session and redirects to target. It is mounted
// directly on POST /logout, so session termination never reaches application code.
//
// The token itself stays valid until it expires; without the cookie the
// browser can no longer present it.
func Logout(target string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ClearSession(w)
		http.Redirect(w, r, target, http.StatusSeeOther)
	})
}

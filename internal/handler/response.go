package handler

import (
	"errors"
	"log/slog"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/event-board/internal/apperror"
)

type errorPage struct {
	layout
	Status  int
	Message string
}

// Home renders the landing page.
func (v *Views) Home(w http.ResponseWriter, r *http.Request) {
	v.render(w, r, http.StatusOK, "home", struct{ layout }{v.layout(r, "Welcome")})
}

// NotFound renders the 404 page.
func (v *Views) NotFound(w http.ResponseWriter, r *http.Request) {
	v.errorPage(w, r, http.StatusNotFound, "The page you are looking for does not exist.")
}

// Error answers a failed request. Validation errors never get here: the form
// handlers re-render their form with the field messages instead.
//
//	ErrUnauthenticated → landing page (200), never any event data
//	ErrNotFound        → 404 page
//	anything else      → 500 page; the cause is logged, not shown
func (v *Views) Error(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, apperror.ErrUnauthenticated):
		v.Home(w, r)
	case errors.Is(err, apperror.ErrNotFound):
		v.NotFound(w, r)
	default:
		v.logger.Error("request failed",
			slog.String("requestID", chimw.GetReqID(r.Context())),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		v.errorPage(w, r, http.StatusInternalServerError, "Something went wrong. Please try again later.")
	}
}

func (v *Views) errorPage(w http.ResponseWriter, r *http.Request, status int, message string) {
	v.render(w, r, status, "error", errorPage{
		layout:  v.layout(r, http.StatusText(status)),
		Status:  status,
		Message: message,
	})
}

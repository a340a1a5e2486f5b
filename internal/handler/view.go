// Package handler contains the HTTP handlers of the event board.
//
// Handlers parse the request, read the principal the session middleware put
// in the context, call a service and render a page. They hold no business
// rules: who may create or list what is decided in the service layer.
package handler

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/event-board/internal/auth"
)

// pages lists, per view, the templates parsed together with base.html.
var pages = map[string][]string{
	"home":       {"home.html"},
	"event_form": {"event_form.html"},
	"my_events":  {"my_events.html", "events_list.html"},
	"all_events": {"all_events.html", "events_list.html"},
	"register":   {"register.html"},
	"login":      {"login.html"},
	"error":      {"error.html"},
}

// layout is the data every page shares with base.html.
type layout struct {
	Title         string
	Principal     *auth.Principal
	GitHubEnabled bool
}

// Views renders the HTML pages. Each page is its own template set so the
// "content" block of one page cannot collide with another's.
type Views struct {
	pages  map[string]*template.Template
	github bool
	logger *slog.Logger
}

// NewViews parses every page from fsys, which must contain base.html and the
// page templates at its root.
func NewViews(fsys fs.FS, githubEnabled bool, logger *slog.Logger) (*Views, error) {
	v := &Views{
		pages:  make(map[string]*template.Template, len(pages)),
		github: githubEnabled,
		logger: logger,
	}
	for name, files := range pages {
		tmpl, err := template.ParseFS(fsys, append([]string{"base.html"}, files...)...)
		if err != nil {
			return nil, fmt.Errorf("parsing %s templates: %w", name, err)
		}
		v.pages[name] = tmpl
	}
	return v, nil
}

func (v *Views) layout(r *http.Request, title string) layout {
	return layout{
		Title:         title,
		Principal:     auth.PrincipalFromContext(r.Context()),
		GitHubEnabled: v.github,
	}
}

// render executes the page into a buffer first, so a template error still
// produces a clean 500 instead of half a page.
func (v *Views) render(w http.ResponseWriter, r *http.Request, status int, page string, data any) {
	tmpl, ok := v.pages[page]
	if !ok {
		v.logger.Error("unknown page", slog.String("page", page))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base", data); err != nil {
		v.logger.Error("failed to render template",
			slog.String("page", page),
			slog.String("requestID", chimw.GetReqID(r.Context())),
			slog.String("error", err.Error()),
		)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		v.logger.Debug("client went away", slog.String("error", err.Error()))
	}
}

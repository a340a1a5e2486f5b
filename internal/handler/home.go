package handler

import "net/http"

// HomeHandler serves the landing page.
type HomeHandler struct {
	views *Views
}

// NewHomeHandler creates a HomeHandler.
func NewHomeHandler(views *Views) *HomeHandler {
	return &HomeHandler{views: views}
}

// HandleHome renders the landing page.
//
// HTTP: GET /
func (h *HomeHandler) HandleHome(w http.ResponseWriter, r *http.Request) {
	h.views.Home(w, r)
}

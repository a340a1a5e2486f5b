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

// EventService is the part of service.EventService the handlers use.
type EventService interface {
	Create(ctx context.Context, principal *auth.Principal, in service.EventInput) (*model.Event, error)
	ListMine(ctx context.Context, principal *auth.Principal) (*model.User, error)
	ListAll(ctx context.Context) ([]*model.Event, error)
	CurrentUser(ctx context.Context, principal *auth.Principal) (*model.User, error)
}

type eventFormPage struct {
	layout
	Input  service.EventInput
	Errors map[string]string
}

type myEventsPage struct {
	layout
	User *model.User
}

type allEventsPage struct {
	layout
	Events []*model.Event
}

// EventHandler serves the event pages.
type EventHandler struct {
	events EventService
	views  *Views
	logger *slog.Logger
}

// NewEventHandler creates an EventHandler.
func NewEventHandler(events EventService, views *Views, logger *slog.Logger) *EventHandler {
	return &EventHandler{
		events: events,
		views:  views,
		logger: logger,
	}
}

// HandleNewEventForm shows the event form, or the landing page to anonymous
// visitors and to sessions whose account no longer exists.
//
// HTTP: GET /nuevoEvento
func (h *EventHandler) HandleNewEventForm(w http.ResponseWriter, r *http.Request) {
	if _, err := h.events.CurrentUser(r.Context(), auth.PrincipalFromContext(r.Context())); err != nil {
		h.views.Error(w, r, err)
		return
	}
	h.renderForm(w, r, http.StatusOK, service.EventInput{}, nil)
}

// HandleCreateEvent stores the submitted event for the current user and
// redirects to their events. Invalid input re-renders the form with 422.
//
// HTTP: POST /nuevoEvento
func (h *EventHandler) HandleCreateEvent(w http.ResponseWriter, r *http.Request) {
	principal := auth.PrincipalFromContext(r.Context())
	if principal == nil {
		h.views.Home(w, r)
		return
	}

	if err := r.ParseForm(); err != nil {
		h.renderForm(w, r, http.StatusBadRequest, service.EventInput{}, map[string]string{
			"title": "The form could not be read.",
		})
		return
	}

	in := service.EventInput{
		Title:     r.PostForm.Get("title"),
		Image:     r.PostForm.Get("image"),
		Text:      r.PostForm.Get("text"),
		Ubication: r.PostForm.Get("ubication"),
		Date:      r.PostForm.Get("date"),
	}

	_, err := h.events.Create(r.Context(), principal, in)
	if err != nil {
		if errors.Is(err, apperror.ErrValidation) {
			h.renderForm(w, r, http.StatusUnprocessableEntity, in, apperror.Fields(err))
			return
		}
		h.views.Error(w, r, err)
		return
	}

	http.Redirect(w, r, "/myEvents", http.StatusSeeOther)
}

// HandleMyEvents lists the events owned by the current user.
//
// HTTP: GET /myEvents
func (h *EventHandler) HandleMyEvents(w http.ResponseWriter, r *http.Request) {
	user, err := h.events.ListMine(r.Context(), auth.PrincipalFromContext(r.Context()))
	if err != nil {
		h.views.Error(w, r, err)
		return
	}

	h.views.render(w, r, http.StatusOK, "my_events", myEventsPage{
		layout: h.views.layout(r, "My events"),
		User:   user,
	})
}

// HandleAllEvents lists every event. It is public.
//
// HTTP: GET /allEvents
func (h *EventHandler) HandleAllEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.events.ListAll(r.Context())
	if err != nil {
		h.views.Error(w, r, err)
		return
	}

	h.views.render(w, r, http.StatusOK, "all_events", allEventsPage{
		layout: h.views.layout(r, "All events"),
		Events: events,
	})
}

func (h *EventHandler) renderForm(w http.ResponseWriter, r *http.Request, status int, in service.EventInput, errs map[string]string) {
	h.views.render(w, r, status, "event_form", eventFormPage{
		layout: h.views.layout(r, "New event"),
		Input:  in,
		Errors: errs,
	})
}

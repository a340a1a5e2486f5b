// Package service contains the business logic layer of the application.
//
//	Handler (HTTP layer)     → parses requests, renders views
//	Service (business layer) → validates, enforces ownership rules, orchestrates
//	Repository (data layer)  → reads/writes the database
//
// Services never read the current user from anywhere ambient: operations that
// need one take an *auth.Principal argument, and nil means "anonymous".
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/event-board/internal/apperror"
	"github.com/sakif/event-board/internal/auth"
	"github.com/sakif/event-board/internal/model"
	"github.com/sakif/event-board/internal/repository"
)

// EventInput is the event-creation form. Date is kept as the submitted text
// so a malformed date is reported as a field error rather than a bind error.
type EventInput struct {
	Title     string `form:"title" validate:"required,max=255"`
	Image     string `form:"image" validate:"required,max=255"`
	Text      string `form:"text" validate:"required"`
	Ubication string `form:"ubication" validate:"required,max=255"`
	Date      string `form:"date" validate:"required,datetime=2006-01-02"`
}

func (in *EventInput) normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.Image = strings.TrimSpace(in.Image)
	in.Text = strings.TrimSpace(in.Text)
	in.Ubication = strings.TrimSpace(in.Ubication)
	in.Date = strings.TrimSpace(in.Date)
}

// EventService handles creating and listing events.
type EventService struct {
	events repository.EventRepository
	users  repository.UserRepository
	logger *slog.Logger
}

// NewEventService creates a new EventService.
func NewEventService(events repository.EventRepository, users repository.UserRepository, logger *slog.Logger) *EventService {
	return &EventService{
		events: events,
		users:  users,
		logger: logger,
	}
}

// Create validates in and stores it as an event owned by principal.
//
// Errors:
//   - apperror.ErrUnauthenticated: principal is nil, or its user no longer exists
//   - apperror.ErrValidation: a required field is blank, too long, or the date
//     is not a calendar date (YYYY-MM-DD); nothing is stored
func (s *EventService) Create(ctx context.Context, principal *auth.Principal, in EventInput) (*model.Event, error) {
	if principal == nil {
		return nil, apperror.Unauthenticated("log in to create events")
	}

	in.normalize()
	if err := validateInput(in); err != nil {
		return nil, err
	}

	// validateInput already checked the layout
	date, err := time.Parse(model.DateLayout, in.Date)
	if err != nil {
		return nil, apperror.ValidationFailed("date", "This value is not a valid date.")
	}

	owner, err := s.principalUser(ctx, principal)
	if err != nil {
		return nil, err
	}

	event := &model.Event{
		Title:     in.Title,
		Image:     in.Image,
		Text:      in.Text,
		Ubication: in.Ubication,
		Date:      date,
	}
	owner.AddEvent(event)

	if err := s.events.CreateEvent(ctx, event); err != nil {
		s.logger.Error("failed to create event",
			slog.Int64("userID", owner.ID),
			slog.String("title", event.Title),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating event: %w", err)
	}

	s.logger.Info("event created",
		slog.Int64("id", event.ID),
		slog.Int64("userID", owner.ID),
		slog.String("title", event.Title),
	)

	return event, nil
}

// ListMine returns the principal's user with its owned events attached
// (see model.User.Events).
func (s *EventService) ListMine(ctx context.Context, principal *auth.Principal) (*model.User, error) {
	if principal == nil {
		return nil, apperror.Unauthenticated("log in to see your events")
	}

	owner, err := s.principalUser(ctx, principal)
	if err != nil {
		return nil, err
	}

	events, err := s.events.ListEventsByOwner(ctx, owner.ID)
	if err != nil {
		return nil, fmt.Errorf("listing events of user %d: %w", owner.ID, err)
	}
	for _, e := range events {
		owner.AddEvent(e)
	}

	return owner, nil
}

// CurrentUser returns the account behind principal, or ErrUnauthenticated
// when there is no principal or its account is gone.
func (s *EventService) CurrentUser(ctx context.Context, principal *auth.Principal) (*model.User, error) {
	if principal == nil {
		return nil, apperror.Unauthenticated("log in to create events")
	}
	return s.principalUser(ctx, principal)
}

// ListAll returns every stored event regardless of owner. It needs no
// principal: the listing is public.
func (s *EventService) ListAll(ctx context.Context) ([]*model.Event, error) {
	events, err := s.events.ListEvents(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}
	return events, nil
}

// principalUser loads the account behind a session. A session whose user row
// is gone is treated as no session at all.
func (s *EventService) principalUser(ctx context.Context, principal *auth.Principal) (*model.User, error) {
	user, err := s.users.GetUserByID(ctx, principal.UserID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			s.logger.Warn("session refers to a missing user", slog.Int64("userID", principal.UserID))
			return nil, apperror.Unauthenticated("your account no longer exists")
		}
		return nil, fmt.Errorf("loading user %d: %w", principal.UserID, err)
	}
	return user, nil
}

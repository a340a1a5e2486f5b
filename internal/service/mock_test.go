package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/sakif/event-board/internal/apperror"
	"github.com/sakif/event-board/internal/model"
)

// mockStore is an in-memory stand-in for sqlite.DB. It implements both
// repository interfaces, like the real one, and stores copies so tests
// cannot reach into its state through returned pointers.
type mockStore struct {
	mu     sync.Mutex
	users  []model.User
	events []model.Event

	// failCreateEvent / failCreateUser simulate a storage outage.
	failCreateEvent error
	failCreateUser  error
}

func newMockStore() *mockStore {
	return &mockStore{}
}

func (m *mockStore) CreateUser(_ context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failCreateUser != nil {
		return m.failCreateUser
	}
	for _, existing := range m.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return apperror.Conflict("user", u.Email)
		}
	}
	u.ID = int64(len(m.users) + 1)
	stored := *u
	stored.Roles = append([]string(nil), u.Roles...)
	m.users = append(m.users, stored)
	return nil
}

func (m *mockStore) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			out := u
			return &out, nil
		}
	}
	return nil, apperror.NotFound("user", email)
}

func (m *mockStore) GetUserByID(_ context.Context, id int64) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ID == id {
			out := u
			return &out, nil
		}
	}
	return nil, apperror.NotFound("user", strconv.FormatInt(id, 10))
}

func (m *mockStore) CreateEvent(_ context.Context, e *model.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failCreateEvent != nil {
		return m.failCreateEvent
	}
	if e.OwnerID != nil && !m.hasUser(*e.OwnerID) {
		return errors.New("FOREIGN KEY constraint failed")
	}
	e.ID = int64(len(m.events) + 1)
	m.events = append(m.events, model.Event{
		ID:        e.ID,
		Title:     e.Title,
		Image:     e.Image,
		Text:      e.Text,
		Ubication: e.Ubication,
		Date:      e.Date,
		OwnerID:   e.OwnerID,
	})
	return nil
}

func (m *mockStore) ListEvents(_ context.Context) ([]*model.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.list(func(model.Event) bool { return true }), nil
}

func (m *mockStore) ListEventsByOwner(_ context.Context, ownerID int64) ([]*model.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.list(func(e model.Event) bool { return e.OwnerID != nil && *e.OwnerID == ownerID }), nil
}

func (m *mockStore) list(keep func(model.Event) bool) []*model.Event {
	out := []*model.Event{}
	for _, e := range m.events {
		if !keep(e) {
			continue
		}
		event := &model.Event{
			ID:        e.ID,
			Title:     e.Title,
			Image:     e.Image,
			Text:      e.Text,
			Ubication: e.Ubication,
			Date:      e.Date,
			OwnerID:   e.OwnerID,
		}
		if e.OwnerID != nil {
			for _, u := range m.users {
				if u.ID == *e.OwnerID {
					event.Owner = &model.User{ID: u.ID, Email: u.Email}
				}
			}
		}
		out = append(out, event)
	}
	return out
}

func (m *mockStore) hasUser(id int64) bool {
	for _, u := range m.users {
		if u.ID == id {
			return true
		}
	}
	return false
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

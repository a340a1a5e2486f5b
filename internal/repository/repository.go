// Package repository declares the storage contracts the service layer
// depends on. Implementations live in sub-packages (see repository/sqlite).
package repository

import (
	"context"

	"github.com/sakif/event-board/internal/model"
)

// UserRepository stores user accounts.
//
// CreateUser inserts and commits the row, then sets user.ID. A duplicate email
// is reported as apperror.ErrConflict. The lookups return apperror.ErrNotFound
// when no row matches.
type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
}

// EventRepository stores events.
//
// CreateEvent inserts and commits the row (including the nullable owner
// reference) and sets event.ID. The list methods never return nil slices.
type EventRepository interface {
	CreateEvent(ctx context.Context, event *model.Event) error
	ListEvents(ctx context.Context) ([]*model.Event, error)
	ListEventsByOwner(ctx context.Context, ownerID int64) ([]*model.Event, error)
}

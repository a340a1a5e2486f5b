// Package model defines the data structures used throughout the application.
package model

// RoleUser is granted to every account created through registration.
const RoleUser = "ROLE_USER"

// DefaultRoles is the role set assigned to newly registered accounts when
// configuration does not override it.
func DefaultRoles() []string {
	return []string{RoleUser}
}

// User represents a registered account.
//
// Email is the login identifier and is unique across all users (the DB has a
// UNIQUE index on it). Password always holds a bcrypt hash, never plaintext.
//
// The owned events are not a column: they are loaded on demand by the event
// service and attached with AddEvent. The slice is unexported so the only way
// to grow it is the idempotent AddEvent.
type User struct {
	ID       int64    `json:"id"`
	Email    string   `json:"email"`
	Password string   `json:"-"`
	Roles    []string `json:"roles"`

	events []*Event
}

// AddEvent attaches e to the user's owned events and makes the user its owner.
// Adding an event that is already present has no effect.
func (u *User) AddEvent(e *Event) {
	if e == nil || u.ownsEvent(e) {
		return
	}
	u.events = append(u.events, e)
	e.setOwner(u)
}

// Events returns the user's owned events. The returned slice is a copy;
// appending to it does not change the user.
func (u *User) Events() []*Event {
	out := make([]*Event, len(u.events))
	copy(out, u.events)
	return out
}

// HasRole reports whether role is in the user's role set.
func (u *User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// SetRoles replaces the role set, dropping duplicates and empty entries
// while keeping the first-seen order.
func (u *User) SetRoles(roles []string) {
	seen := make(map[string]struct{}, len(roles))
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		if r == "" {
			continue
		}
		if _, dup := seen[r]; dup {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	u.Roles = out
}

func (u *User) removeEvent(e *Event) {
	for i, existing := range u.events {
		if sameEvent(existing, e) {
			u.events = append(u.events[:i], u.events[i+1:]...)
			return
		}
	}
}

func (u *User) ownsEvent(e *Event) bool {
	for _, existing := range u.events {
		if sameEvent(existing, e) {
			return true
		}
	}
	return false
}

// sameUser treats two users as equal when they are the same pointer or share
// a persisted ID. Unsaved users (ID 0) are only equal to themselves.
func sameUser(a, b *User) bool {
	if a == b {
		return true
	}
	return a != nil && b != nil && a.ID != 0 && a.ID == b.ID
}

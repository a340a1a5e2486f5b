package model

import "time"

// DateLayout is the calendar-date format used in forms and templates.
const DateLayout = "2006-01-02"

// Event is a listed event.
//
// Title, Image, Text, Ubication and Date are required; the evento table
// declares them NOT NULL. OwnerID is the nullable user_id foreign key: nil
// means the event has no owner (for example after the owner row was deleted,
// which sets the column to NULL).
//
// Owner is filled in when the owner was loaded alongside the event. It may be
// a partial User (ID and Email only) when it comes from a listing query.
type Event struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Image     string    `json:"image"`
	Text      string    `json:"text"`
	Ubication string    `json:"ubication"`
	Date      time.Time `json:"date"`
	OwnerID   *int64    `json:"ownerId,omitempty"`
	Owner     *User     `json:"-"`

	users []*User
}

// AddUser associates u with the event. Re-adding a user that is already
// associated has no effect. The first associated user becomes the owner when
// the event has none yet. Only OwnerID is stored, so an unsaved owner (ID 0)
// is not persisted with the event.
func (e *Event) AddUser(u *User) {
	if u == nil || e.hasUser(u) {
		return
	}
	e.users = append(e.users, u)
	if e.OwnerID == nil && e.Owner == nil {
		e.Owner = u
		if u.ID != 0 {
			id := u.ID
			e.OwnerID = &id
		}
	}
}

// RemoveUser drops u from the event's associated users. Removing the owner
// clears the owner reference, the same outcome as deleting the owning row,
// and takes the event out of the owner's Events.
func (e *Event) RemoveUser(u *User) {
	for i, existing := range e.users {
		if sameUser(existing, u) {
			e.users = append(e.users[:i], e.users[i+1:]...)
			break
		}
	}
	if e.IsOwnedBy(u) {
		u.removeEvent(e)
		if e.Owner != nil {
			e.Owner.removeEvent(e)
		}
		e.Owner = nil
		e.OwnerID = nil
	}
}

// Users returns a copy of the event's associated users.
func (e *Event) Users() []*User {
	out := make([]*User, len(e.users))
	copy(out, e.users)
	return out
}

// IsOwnedBy reports whether u is the event's owner.
func (e *Event) IsOwnedBy(u *User) bool {
	if u == nil {
		return false
	}
	if e.Owner != nil && sameUser(e.Owner, u) {
		return true
	}
	return e.OwnerID != nil && u.ID != 0 && *e.OwnerID == u.ID
}

// OwnerEmail returns the owner's email when the owner was loaded, else "".
func (e *Event) OwnerEmail() string {
	if e.Owner == nil {
		return ""
	}
	return e.Owner.Email
}

// FormattedDate renders Date as a calendar date for templates.
func (e *Event) FormattedDate() string {
	return e.Date.Format(DateLayout)
}

// setOwner is called by User.AddEvent. It replaces any previous owner.
func (e *Event) setOwner(u *User) {
	if e.Owner != nil && !sameUser(e.Owner, u) {
		e.RemoveUser(e.Owner)
	}
	e.Owner = u
	if u.ID != 0 {
		id := u.ID
		e.OwnerID = &id
	}
	e.AddUser(u)
}

func (e *Event) hasUser(u *User) bool {
	for _, existing := range e.users {
		if sameUser(existing, u) {
			return true
		}
	}
	return false
}

func sameEvent(a, b *Event) bool {
	if a == b {
		return true
	}
	return a != nil && b != nil && a.ID != 0 && a.ID == b.ID
}

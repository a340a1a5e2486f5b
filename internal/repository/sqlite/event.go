package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sakif/event-board/internal/model"
	"github.com/sakif/event-board/internal/repository"
)

var _ repository.EventRepository = (*DB)(nil)

// eventColumns is shared by both listing queries. The owner columns come from
// a LEFT JOIN so events without an owner are still returned.
const eventColumns = `e.id, e.title, e.image, e.text, e.ubication, e.date, e.user_id, u.email`

// CreateEvent inserts an event. event.OwnerID may be nil.
//
// The date is stored as a plain "2006-01-02" string: the column is a
// calendar date, so any time-of-day or zone on event.Date is dropped.
func (db *DB) CreateEvent(ctx context.Context, event *model.Event) error {
	var ownerID sql.NullInt64
	if event.OwnerID != nil {
		ownerID = sql.NullInt64{Int64: *event.OwnerID, Valid: true}
	}

	result, err := db.conn.ExecContext(ctx,
		`INSERT INTO evento (title, image, text, ubication, date, user_id)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		event.Title,
		event.Image,
		event.Text,
		event.Ubication,
		event.Date.Format(model.DateLayout),
		ownerID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting event %q: %w", event.Title, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading event id: %w", err)
	}
	event.ID = id

	return nil
}

// ListEvents returns every stored event regardless of owner, ordered by date.
func (db *DB) ListEvents(ctx context.Context) ([]*model.Event, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+eventColumns+`
		 FROM evento e
		 LEFT JOIN "user" u ON u.id = e.user_id
		 ORDER BY e.date, e.id`,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// ListEventsByOwner returns the events whose user_id is ownerID.
func (db *DB) ListEventsByOwner(ctx context.Context, ownerID int64) ([]*model.Event, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+eventColumns+`
		 FROM evento e
		 LEFT JOIN "user" u ON u.id = e.user_id
		 WHERE e.user_id = ?
		 ORDER BY e.date, e.id`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing events of user %d: %w", ownerID, err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]*model.Event, error) {
	events := make([]*model.Event, 0)

	for rows.Next() {
		var (
			e          model.Event
			date       dateValue
			ownerID    sql.NullInt64
			ownerEmail sql.NullString
		)
		if err := rows.Scan(
			&e.ID, &e.Title, &e.Image, &e.Text, &e.Ubication,
			&date, &ownerID, &ownerEmail,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning event row: %w", err)
		}
		e.Date = date.Time
		if ownerID.Valid {
			id := ownerID.Int64
			e.OwnerID = &id
			e.Owner = &model.User{ID: id, Email: ownerEmail.String}
		}
		events = append(events, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating events: %w", err)
	}

	return events, nil
}

// dateValue scans a DATE column. Depending on the declared column type the
// driver hands back either a time.Time or the stored text, so both are
// accepted and normalised to midnight UTC.
type dateValue struct {
	time.Time
}

func (d *dateValue) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		d.Time = time.Date(v.Year(), v.Month(), v.Day(), 0, 0, 0, 0, time.UTC)
		return nil
	case string:
		return d.parse(v)
	case []byte:
		return d.parse(string(v))
	default:
		return fmt.Errorf("unsupported date value %T", src)
	}
}

func (d *dateValue) parse(s string) error {
	if len(s) < len(model.DateLayout) {
		return fmt.Errorf("invalid date %q", s)
	}
	t, err := time.Parse(model.DateLayout, s[:len(model.DateLayout)])
	if err != nil {
		return fmt.Errorf("invalid date %q: %w", s, err)
	}
	d.Time = t
	return nil
}

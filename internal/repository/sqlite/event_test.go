package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/event-board/internal/model"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func createTestEvent(t *testing.T, db *DB, title string, owner *model.User, when time.Time) *model.Event {
	t.Helper()
	e := &model.Event{
		Title:     title,
		Image:     title + ".png",
		Text:      "about " + title,
		Ubication: "HQ",
		Date:      when,
	}
	if owner != nil {
		owner.AddEvent(e)
	}
	require.NoError(t, db.CreateEvent(context.Background(), e))
	return e
}

func TestCreateEvent(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "owner@example.com")

	e := createTestEvent(t, db, "Launch", owner, date(2024, 5, 1))

	assert.NotZero(t, e.ID)

	var userID sql.NullInt64
	require.NoError(t, db.conn.QueryRow(`SELECT user_id FROM evento WHERE id = ?`, e.ID).Scan(&userID))
	assert.True(t, userID.Valid)
	assert.Equal(t, owner.ID, userID.Int64)
}

func TestCreateEvent_WithoutOwner(t *testing.T) {
	db := newTestDB(t)

	e := createTestEvent(t, db, "Orphan", nil, date(2024, 1, 1))

	events, err := db.ListEvents(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, e.ID, events[0].ID)
	assert.Nil(t, events[0].OwnerID)
	assert.Nil(t, events[0].Owner)
}

func TestCreateEvent_UnknownOwnerRejected(t *testing.T) {
	db := newTestDB(t)

	missing := int64(999)
	e := &model.Event{
		Title: "Ghost", Image: "g.png", Text: "t", Ubication: "u",
		Date: date(2024, 1, 1), OwnerID: &missing,
	}
	err := db.CreateEvent(context.Background(), e)
	assert.Error(t, err, "foreign key must reject an owner that does not exist")
}

func TestCreateEvent_RequiredColumnsAreNotNull(t *testing.T) {
	db := newTestDB(t)

	_, err := db.conn.Exec(`INSERT INTO evento (title, image, text, ubication, date) VALUES (NULL, 'i', 't', 'u', '2024-01-01')`)
	assert.Error(t, err)
}

func TestListEvents_RoundTrip(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "user@example.com")
	createTestEvent(t, db, "Launch", owner, time.Date(2024, 5, 1, 15, 30, 0, 0, time.FixedZone("X", 3600)))

	events, err := db.ListEvents(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 1)

	got := events[0]
	assert.Equal(t, "Launch", got.Title)
	assert.Equal(t, "Launch.png", got.Image)
	assert.Equal(t, "about Launch", got.Text)
	assert.Equal(t, "HQ", got.Ubication)
	assert.Equal(t, "2024-05-01", got.FormattedDate())
	require.NotNil(t, got.OwnerID)
	assert.Equal(t, owner.ID, *got.OwnerID)
	assert.Equal(t, "user@example.com", got.OwnerEmail())
}

func TestListEvents_AllOwnersOrderedByDate(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice@example.com")
	bob := createTestUser(t, db, "bob@example.com")

	createTestEvent(t, db, "Later", alice, date(2024, 6, 1))
	createTestEvent(t, db, "Sooner", bob, date(2024, 2, 1))
	createTestEvent(t, db, "Nobody", nil, date(2024, 4, 1))

	events, err := db.ListEvents(context.Background())
	require.NoError(t, err)

	titles := make([]string, 0, len(events))
	for _, e := range events {
		titles = append(titles, e.Title)
	}
	assert.Equal(t, []string{"Sooner", "Nobody", "Later"}, titles)
}

func TestListEvents_Empty(t *testing.T) {
	db := newTestDB(t)

	events, err := db.ListEvents(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, events)
	assert.Empty(t, events)
}

func TestListEventsByOwner(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice@example.com")
	bob := createTestUser(t, db, "bob@example.com")

	a := createTestEvent(t, db, "Alice's", alice, date(2024, 3, 1))
	createTestEvent(t, db, "Bob's", bob, date(2024, 3, 2))
	createTestEvent(t, db, "Unowned", nil, date(2024, 3, 3))

	events, err := db.ListEventsByOwner(context.Background(), alice.ID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, a.ID, events[0].ID)

	none, err := db.ListEventsByOwner(context.Background(), 4242)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestDeletingOwnerSetsUserIDNull(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "leaving@example.com")
	e := createTestEvent(t, db, "Kept", owner, date(2024, 7, 1))

	_, err := db.conn.Exec(`DELETE FROM "user" WHERE id = ?`, owner.ID)
	require.NoError(t, err)

	events, err := db.ListEvents(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, e.ID, events[0].ID)
	assert.Nil(t, events[0].OwnerID)
}

// TestMigrate_FromJoinTableLayout opens a database created with the first
// schema (join table, no user_id) and checks it converges to the final one.
func TestMigrate_FromJoinTableLayout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "legacy.db")

	legacy, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	_, err = legacy.Exec(`
		CREATE TABLE evento (id INTEGER PRIMARY KEY AUTOINCREMENT, title TEXT NOT NULL, image TEXT NOT NULL,
			text TEXT NOT NULL, ubication TEXT NOT NULL, date DATE NOT NULL);
		CREATE TABLE "user" (id INTEGER PRIMARY KEY AUTOINCREMENT, email TEXT NOT NULL UNIQUE,
			roles TEXT NOT NULL, password TEXT NOT NULL);
		CREATE TABLE evento_user (evento_id INTEGER NOT NULL REFERENCES evento(id) ON DELETE CASCADE,
			user_id INTEGER NOT NULL REFERENCES "user"(id) ON DELETE CASCADE, PRIMARY KEY (evento_id, user_id));
		INSERT INTO evento (title, image, text, ubication, date) VALUES ('Old', 'o.png', 't', 'u', '2022-03-13');
	`)
	require.NoError(t, err)
	require.NoError(t, legacy.Close())

	db, err := New(path)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	var joinTables int
	require.NoError(t, db.conn.QueryRow(
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'evento_user'`,
	).Scan(&joinTables))
	assert.Zero(t, joinTables)

	events, err := db.ListEvents(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "Old", events[0].Title)
	assert.Nil(t, events[0].OwnerID)

	// running the migration again is a no-op
	require.NoError(t, db.migrate())
}

package remind

import (
	"context"
	"database/sql/driver"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/teranos/smolassistant/db"
	"github.com/teranos/smolassistant/errors"
	smoltest "github.com/teranos/smolassistant/internal/testing"
)

var created = time.Date(2024, 3, 13, 8, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store := NewStore(smoltest.CreateTestDB(t), zaptest.NewLogger(t).Sugar())
	require.NoError(t, store.Init(context.Background()))
	return store
}

func TestStore_OneTimeRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	berlin := time.FixedZone("CET", 3600)
	r := OneTimeReminder{
		ID:        "a1",
		Message:   "call mum",
		DueAt:     time.Date(2024, 3, 13, 18, 30, 0, 0, berlin),
		CreatedAt: created,
	}
	require.NoError(t, store.UpsertOneTime(ctx, r))

	got, err := store.GetOneTime(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, "call mum", got.Message)
	assert.True(t, r.DueAt.Equal(got.DueAt), "due time survives a round trip as an instant")
	assert.True(t, created.Equal(got.CreatedAt))

	// Upsert replaces by id
	r.Message = "call dad"
	require.NoError(t, store.UpsertOneTime(ctx, r))
	all, err := store.ListOneTime(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "call dad", all[0].Message)

	removed, err := store.DeleteOneTime(ctx, "a1")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = store.DeleteOneTime(ctx, "a1")
	require.NoError(t, err)
	assert.False(t, removed, "unknown id is not an error")

	_, err = store.GetOneTime(ctx, "a1")
	assert.True(t, errors.IsNotFoundError(err))
}

func TestStore_ListOneTimeOrderedByDueTime(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	for i, id := range []string{"late", "early", "middle"} {
		offsets := []time.Duration{3 * time.Hour, time.Hour, 2 * time.Hour}
		require.NoError(t, store.UpsertOneTime(ctx, OneTimeReminder{
			ID: id, Message: id, DueAt: created.Add(offsets[i]), CreatedAt: created,
		}))
	}

	all, err := store.ListOneTime(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "early", all[0].ID)
	assert.Equal(t, "middle", all[1].ID)
	assert.Equal(t, "late", all[2].ID)
}

func TestStore_KeepsSubSecondDueTimes(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	due := created.Add(1500 * time.Millisecond)
	require.NoError(t, store.UpsertOneTime(ctx, OneTimeReminder{
		ID: "later", Message: "later", DueAt: due, CreatedAt: created,
	}))
	require.NoError(t, store.UpsertOneTime(ctx, OneTimeReminder{
		ID: "sooner", Message: "sooner", DueAt: created.Add(1200 * time.Millisecond), CreatedAt: created,
	}))

	got, err := store.GetOneTime(ctx, "later")
	require.NoError(t, err)
	assert.True(t, due.Equal(got.DueAt), "got %s, want %s", got.DueAt, due)

	// Within one second, ordering still follows the fraction
	all, err := store.ListOneTime(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "sooner", all[0].ID)
	assert.Equal(t, "later", all[1].ID)
}

func TestStore_ReadsTimestampsWithoutFraction(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	_, err := store.db.Exec(`INSERT INTO one_time_reminders (id, message, due_time, created_at)
		VALUES ('old', 'old row', '2024-03-13T09:00:00Z', '2024-03-13T08:00:00Z')`)
	require.NoError(t, err)

	got, err := store.GetOneTime(ctx, "old")
	require.NoError(t, err)
	assert.True(t, created.Add(time.Hour).Equal(got.DueAt))
}

func TestStore_RecurringRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, store.UpsertRecurring(ctx, RecurringReminder{
		ID: "r1", Message: "stand up", Interval: "day", TimeSpec: "09:00", CreatedAt: created,
	}))
	require.NoError(t, store.UpsertRecurring(ctx, RecurringReminder{
		ID: "r2", Message: "drink water", Interval: "2 hours", CreatedAt: created.Add(time.Minute),
	}))

	// Empty time spec is stored as NULL
	var nulls int
	require.NoError(t, store.db.QueryRow(
		"SELECT COUNT(*) FROM recurring_reminders WHERE time_spec IS NULL").Scan(&nulls))
	assert.Equal(t, 1, nulls)

	all, err := store.ListRecurring(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "r1", all[0].ID)
	assert.Equal(t, "09:00", all[0].TimeSpec)
	assert.Equal(t, "day at 09:00", all[0].Pattern())
	assert.Equal(t, "", all[1].TimeSpec)
	assert.Equal(t, "2 hours", all[1].Pattern())

	got, err := store.GetRecurring(ctx, "r2")
	require.NoError(t, err)
	assert.Equal(t, "drink water", got.Message)

	removed, err := store.DeleteRecurring(ctx, "r2")
	require.NoError(t, err)
	assert.True(t, removed)

	_, err = store.GetRecurring(ctx, "r2")
	assert.True(t, errors.IsNotFoundError(err))
}

func TestStore_InitIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, store.UpsertRecurring(ctx, RecurringReminder{
		ID: "r1", Message: "keep me", Interval: "hour", CreatedAt: created,
	}))
	require.NoError(t, store.Init(ctx))

	all, err := store.ListRecurring(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

// Minimal sqlmock tests to verify failure classification

func TestStore_UpsertFailureIsStorageError(t *testing.T) {
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create sqlmock: %v", err)
	}
	defer conn.Close()

	store := NewStore(conn, zaptest.NewLogger(t).Sugar())

	mock.ExpectExec("INSERT OR REPLACE INTO one_time_reminders").
		WithArgs("a1", "msg", "2024-03-13T08:00:00.000000000Z", "2024-03-13T08:00:00.000000000Z").
		WillReturnError(errors.New("disk I/O error"))

	err = store.UpsertOneTime(context.Background(), OneTimeReminder{
		ID: "a1", Message: "msg", DueAt: created, CreatedAt: created,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, db.ErrStorage))
	assert.Contains(t, err.Error(), "a1")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_UpsertRecurringWritesNullTimeSpec(t *testing.T) {
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create sqlmock: %v", err)
	}
	defer conn.Close()

	store := NewStore(conn, zaptest.NewLogger(t).Sugar())

	mock.ExpectExec("INSERT OR REPLACE INTO recurring_reminders").
		WithArgs("r1", "msg", "3 days", nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = store.UpsertRecurring(context.Background(), RecurringReminder{
		ID: "r1", Message: "msg", Interval: "3 days", CreatedAt: created,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_DeleteFailures(t *testing.T) {
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create sqlmock: %v", err)
	}
	defer conn.Close()

	store := NewStore(conn, zaptest.NewLogger(t).Sugar())
	ctx := context.Background()

	mock.ExpectExec("DELETE FROM recurring_reminders").
		WithArgs("r1").
		WillReturnError(errors.New("database is locked"))
	removed, err := store.DeleteRecurring(ctx, "r1")
	assert.False(t, removed)
	assert.True(t, db.IsStorageError(err))

	mock.ExpectExec("DELETE FROM one_time_reminders").
		WithArgs("a1").
		WillReturnResult(sqlmock.NewErrorResult(errors.New("rows affected unavailable")))
	removed, err = store.DeleteOneTime(ctx, "a1")
	assert.False(t, removed)
	assert.True(t, db.IsStorageError(err))

	mock.ExpectExec("DELETE FROM one_time_reminders").
		WithArgs("a2").
		WillReturnResult(driver.RowsAffected(0))
	removed, err = store.DeleteOneTime(ctx, "a2")
	assert.NoError(t, err)
	assert.False(t, removed)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_CorruptTimestampIsStorageError(t *testing.T) {
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create sqlmock: %v", err)
	}
	defer conn.Close()

	store := NewStore(conn, zaptest.NewLogger(t).Sugar())

	rows := sqlmock.NewRows([]string{"id", "message", "due_time", "created_at"}).
		AddRow("a1", "msg", "tomorrow-ish", "2024-03-13T08:00:00Z")
	mock.ExpectQuery("SELECT id, message, due_time, created_at").WillReturnRows(rows)

	_, err = store.ListOneTime(context.Background())
	require.Error(t, err)
	assert.True(t, db.IsStorageError(err))
	assert.Contains(t, err.Error(), "due_time")
	assert.NoError(t, mock.ExpectationsWereMet())
}

package remind

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/smolassistant/db"
	"github.com/teranos/smolassistant/errors"
	"github.com/teranos/smolassistant/logger"
)

// Store handles persistence of reminders.
// Every call borrows its own connection from the pool; nothing is held open between calls.
type Store struct {
	db  *sql.DB
	log *zap.SugaredLogger
}

// NewStore creates a new reminder store
func NewStore(conn *sql.DB, log *zap.SugaredLogger) *Store {
	if log == nil {
		log = logger.Logger
	}
	return &Store{db: conn, log: log}
}

// Init creates the reminder tables if they do not exist. Safe on every start.
func (s *Store) Init(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := db.Migrate(s.db, s.log); err != nil {
		return db.StorageError(err, "initialize reminder store")
	}
	return nil
}

// UpsertOneTime inserts or replaces a one-time reminder by id
func (s *Store) UpsertOneTime(ctx context.Context, r OneTimeReminder) error {
	query := `
		INSERT OR REPLACE INTO one_time_reminders (id, message, due_time, created_at)
		VALUES (?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		r.ID,
		r.Message,
		formatTime(r.DueAt),
		formatTime(r.CreatedAt),
	)
	return db.StorageError(err, "failed to save one-time reminder %s", r.ID)
}

// UpsertRecurring inserts or replaces a recurring reminder by id.
// An empty time spec is stored as NULL.
func (s *Store) UpsertRecurring(ctx context.Context, r RecurringReminder) error {
	query := `
		INSERT OR REPLACE INTO recurring_reminders (id, message, interval, time_spec, created_at)
		VALUES (?, ?, ?, ?, ?)
	`

	var timeSpec interface{}
	if r.TimeSpec != "" {
		timeSpec = r.TimeSpec
	}

	_, err := s.db.ExecContext(ctx, query,
		r.ID,
		r.Message,
		r.Interval,
		timeSpec,
		formatTime(r.CreatedAt),
	)
	return db.StorageError(err, "failed to save recurring reminder %s", r.ID)
}

// DeleteOneTime removes a one-time reminder. Unknown ids return false, nil.
func (s *Store) DeleteOneTime(ctx context.Context, id string) (bool, error) {
	return s.delete(ctx, "DELETE FROM one_time_reminders WHERE id = ?", id)
}

// DeleteRecurring removes a recurring reminder. Unknown ids return false, nil.
func (s *Store) DeleteRecurring(ctx context.Context, id string) (bool, error) {
	return s.delete(ctx, "DELETE FROM recurring_reminders WHERE id = ?", id)
}

func (s *Store) delete(ctx context.Context, query, id string) (bool, error) {
	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, db.StorageError(err, "failed to delete reminder %s", id)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, db.StorageError(err, "failed to get rows affected deleting reminder %s", id)
	}
	return rows > 0, nil
}

// ListOneTime returns all one-time reminders ordered by due time
func (s *Store) ListOneTime(ctx context.Context) ([]OneTimeReminder, error) {
	query := `
		SELECT id, message, due_time, created_at
		FROM one_time_reminders
		ORDER BY due_time ASC, id ASC
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, db.StorageError(err, "failed to list one-time reminders")
	}
	defer rows.Close()

	var reminders []OneTimeReminder
	for rows.Next() {
		r, err := scanOneTime(rows)
		if err != nil {
			return nil, err
		}
		reminders = append(reminders, r)
	}
	if err := rows.Err(); err != nil {
		return nil, db.StorageError(err, "failed to iterate one-time reminders")
	}
	return reminders, nil
}

// ListRecurring returns all recurring reminders ordered by creation time
func (s *Store) ListRecurring(ctx context.Context) ([]RecurringReminder, error) {
	query := `
		SELECT id, message, interval, time_spec, created_at
		FROM recurring_reminders
		ORDER BY created_at ASC, id ASC
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, db.StorageError(err, "failed to list recurring reminders")
	}
	defer rows.Close()

	var reminders []RecurringReminder
	for rows.Next() {
		r, err := scanRecurring(rows)
		if err != nil {
			return nil, err
		}
		reminders = append(reminders, r)
	}
	if err := rows.Err(); err != nil {
		return nil, db.StorageError(err, "failed to iterate recurring reminders")
	}
	return reminders, nil
}

// GetOneTime retrieves a one-time reminder by id.
// Returns an error matching errors.ErrNotFound when no row exists.
func (s *Store) GetOneTime(ctx context.Context, id string) (OneTimeReminder, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, message, due_time, created_at
		FROM one_time_reminders
		WHERE id = ?
	`, id)

	r, err := scanOneTime(row)
	if errors.Is(err, sql.ErrNoRows) {
		return OneTimeReminder{}, errors.NewNotFoundError("one-time reminder %s", id)
	}
	return r, err
}

// GetRecurring retrieves a recurring reminder by id.
// Returns an error matching errors.ErrNotFound when no row exists.
func (s *Store) GetRecurring(ctx context.Context, id string) (RecurringReminder, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, message, interval, time_spec, created_at
		FROM recurring_reminders
		WHERE id = ?
	`, id)

	r, err := scanRecurring(row)
	if errors.Is(err, sql.ErrNoRows) {
		return RecurringReminder{}, errors.NewNotFoundError("recurring reminder %s", id)
	}
	return r, err
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanOneTime(row scanner) (OneTimeReminder, error) {
	var r OneTimeReminder
	var dueAt, createdAt string

	if err := row.Scan(&r.ID, &r.Message, &dueAt, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return r, err
		}
		return r, db.StorageError(err, "failed to scan one-time reminder")
	}

	var err error
	// Parse failures indicate data corruption or schema mismatch
	if r.DueAt, err = parseTime(dueAt); err != nil {
		return r, db.StorageError(err, "failed to parse due_time for reminder %s", r.ID)
	}
	if r.CreatedAt, err = parseTime(createdAt); err != nil {
		return r, db.StorageError(err, "failed to parse created_at for reminder %s", r.ID)
	}
	return r, nil
}

func scanRecurring(row scanner) (RecurringReminder, error) {
	var r RecurringReminder
	var timeSpec sql.NullString
	var createdAt string

	if err := row.Scan(&r.ID, &r.Message, &r.Interval, &timeSpec, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return r, err
		}
		return r, db.StorageError(err, "failed to scan recurring reminder")
	}

	if timeSpec.Valid {
		r.TimeSpec = timeSpec.String
	}

	var err error
	if r.CreatedAt, err = parseTime(createdAt); err != nil {
		return r, db.StorageError(err, "failed to parse created_at for reminder %s", r.ID)
	}
	return r, nil
}

// timeLayout is RFC 3339 with a fixed nine-digit fraction, so UTC values
// keep sub-second precision and still sort lexically
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// parseTime also reads rows written without a fraction
func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

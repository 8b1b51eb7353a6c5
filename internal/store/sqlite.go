package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	// Registers the "sqlite" driver (pure Go).
	_ "modernc.org/sqlite"

	"github.com/Ozichk/telegram-grade-bot/internal/domain"
)

// SQLiteRepo implements Repo using an embedded SQLite database.
type SQLiteRepo struct {
	db        *sql.DB
	retention int
}

// DefaultRetention bounds the per-user snapshot history.
const DefaultRetention = 60

// OpenSQLite opens (or creates) the SQLite database at the given path,
// applies recommended PRAGMAs, runs SQL migrations, and returns a repository.
// retention bounds how many snapshots are kept per user; values < 1 fall
// back to DefaultRetention.
func OpenSQLite(ctx context.Context, path string, retention int) (*SQLiteRepo, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Reasonable pooling for SQLite; it's a single-writer engine.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := applyPragmas(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}
	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	if retention < 1 {
		retention = DefaultRetention
	}
	return &SQLiteRepo{db: db, retention: retention}, nil
}

// applyPragmas configures the SQLite connection for durability and concurrency.
func applyPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA foreign_keys=ON;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the underlying database resources.
func (r *SQLiteRepo) Close() error {
	return r.db.Close()
}

// EnsureUser returns the user row for chatID, inserting an empty record on
// first contact.
func (r *SQLiteRepo) EnsureUser(ctx context.Context, chatID int64) (*domain.User, error) {
	u, err := r.GetUser(ctx, chatID)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO users (chat_id, created_at, reminder_enabled, reminder_time, last_overall, last_averages_json)
		VALUES (?, ?, 0, NULL, NULL, '{}')
		ON CONFLICT(chat_id) DO NOTHING`,
		chatID, now.Unix(),
	)
	if err != nil {
		return nil, err
	}
	return r.GetUser(ctx, chatID)
}

// GetUser returns a user by chatID or ErrNotFound.
func (r *SQLiteRepo) GetUser(ctx context.Context, chatID int64) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT chat_id, created_at, reminder_enabled, reminder_time, last_overall, last_averages_json
		FROM users
		WHERE chat_id = ?`,
		chatID,
	)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return u, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*domain.User, error) {
	var (
		chatID      int64
		createdAt   int64
		enabledInt  int
		timeNS      sql.NullString
		overallNF   sql.NullFloat64
		averagesRaw string
	)
	if err := row.Scan(&chatID, &createdAt, &enabledInt, &timeNS, &overallNF, &averagesRaw); err != nil {
		return nil, err
	}
	averages, err := unmarshalAverages(averagesRaw)
	if err != nil {
		return nil, fmt.Errorf("decode averages: %w", err)
	}
	return &domain.User{
		ChatID:          chatID,
		ReminderEnabled: enabledInt != 0,
		ReminderTime:    fromNullString(timeNS),
		LastOverall:     fromNullFloat(overallNF),
		LastAverages:    averages,
		CreatedAt:       time.Unix(createdAt, 0).UTC(),
	}, nil
}

// SetReminder updates the reminder flag and time for a user.
func (r *SQLiteRepo) SetReminder(ctx context.Context, chatID int64, enabled bool, hhmm *string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET reminder_enabled = ?, reminder_time = ?
		WHERE chat_id = ?`,
		boolToInt(enabled), toNullString(hhmm), chatID,
	)
	return err
}

// ListReminderUsers returns users whose reminder is enabled and has a time set.
func (r *SQLiteRepo) ListReminderUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT chat_id, created_at, reminder_enabled, reminder_time, last_overall, last_averages_json
		FROM users
		WHERE reminder_enabled = 1 AND reminder_time IS NOT NULL`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, *u)
	}
	return res, rows.Err()
}

// Multiset returns the user's current grade multiset from grade_counter.
func (r *SQLiteRepo) Multiset(ctx context.Context, chatID int64) (domain.Multiset, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT subject, grade, count FROM grade_counter WHERE chat_id = ?`,
		chatID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ms := domain.Multiset{}
	for rows.Next() {
		var (
			subject string
			grade   int
			count   int
		)
		if err := rows.Scan(&subject, &grade, &count); err != nil {
			return nil, err
		}
		ms[domain.GradeKey{Subject: subject, Grade: grade}] = count
	}
	return ms, rows.Err()
}

// SaveIngestion appends a snapshot, replaces the user's current multiset and
// cached averages, and trims history beyond the retention bound. Everything
// happens in one transaction so the snapshot sequence and the current-state
// cache can never diverge.
func (r *SQLiteRepo) SaveIngestion(ctx context.Context, chatID int64, takenAt time.Time, overall float64, averages map[string]float64, ms domain.Multiset) error {
	averagesJSON, err := marshalAverages(averages)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO users (chat_id, created_at, reminder_enabled, reminder_time, last_overall, last_averages_json)
		VALUES (?, ?, 0, NULL, NULL, '{}')
		ON CONFLICT(chat_id) DO NOTHING`,
		chatID, takenAt.UTC().Unix(),
	); err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO snapshots (chat_id, taken_at, overall, averages_json)
		VALUES (?, ?, ?, ?)`,
		chatID, takenAt.UTC().Unix(), overall, averagesJSON,
	)
	if err != nil {
		return err
	}
	snapID, err := res.LastInsertId()
	if err != nil {
		return err
	}

	for key, count := range ms {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO counter_snapshots (snapshot_id, subject, grade, count)
			VALUES (?, ?, ?, ?)`,
			snapID, key.Subject, key.Grade, count,
		); err != nil {
			return err
		}
	}

	if err := replaceCounterTx(ctx, tx, chatID, ms); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE users
		SET last_overall = ?, last_averages_json = ?
		WHERE chat_id = ?`,
		overall, averagesJSON, chatID,
	); err != nil {
		return err
	}

	// Trim oldest snapshots beyond the retention bound; counter rows follow
	// via ON DELETE CASCADE.
	if _, err := tx.ExecContext(ctx, `
		DELETE FROM snapshots
		WHERE chat_id = ?
		  AND id NOT IN (
			SELECT id FROM snapshots WHERE chat_id = ? ORDER BY id DESC LIMIT ?
		  )`,
		chatID, chatID, r.retention,
	); err != nil {
		return err
	}

	return tx.Commit()
}

func replaceCounterTx(ctx context.Context, tx *sql.Tx, chatID int64, ms domain.Multiset) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM grade_counter WHERE chat_id = ?`, chatID); err != nil {
		return err
	}
	for key, count := range ms {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO grade_counter (chat_id, subject, grade, count)
			VALUES (?, ?, ?, ?)`,
			chatID, key.Subject, key.Grade, count,
		); err != nil {
			return err
		}
	}
	return nil
}

// Undo deletes the newest snapshot and restores the current-state cache from
// the one before it. With no remaining snapshot the cache and the multiset
// are reset to empty. Returns ErrNothingToUndo when there was no snapshot.
func (r *SQLiteRepo) Undo(ctx context.Context, chatID int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var newestID int64
	err = tx.QueryRowContext(ctx, `
		SELECT id FROM snapshots WHERE chat_id = ? ORDER BY id DESC LIMIT 1`,
		chatID,
	).Scan(&newestID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNothingToUndo
	}
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM snapshots WHERE id = ?`, newestID); err != nil {
		return err
	}

	var (
		prevID       int64
		prevOverall  float64
		prevAverages string
	)
	err = tx.QueryRowContext(ctx, `
		SELECT id, overall, averages_json
		FROM snapshots WHERE chat_id = ? ORDER BY id DESC LIMIT 1`,
		chatID,
	).Scan(&prevID, &prevOverall, &prevAverages)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		// History exhausted: reset to the pristine state.
		if _, err := tx.ExecContext(ctx, `
			UPDATE users
			SET last_overall = NULL, last_averages_json = '{}'
			WHERE chat_id = ?`,
			chatID,
		); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM grade_counter WHERE chat_id = ?`, chatID); err != nil {
			return err
		}

	case err != nil:
		return err

	default:
		if _, err := tx.ExecContext(ctx, `
			UPDATE users
			SET last_overall = ?, last_averages_json = ?
			WHERE chat_id = ?`,
			prevOverall, prevAverages, chatID,
		); err != nil {
			return err
		}
		ms, err := snapshotCounterTx(ctx, tx, prevID)
		if err != nil {
			return err
		}
		if err := replaceCounterTx(ctx, tx, chatID, ms); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func snapshotCounterTx(ctx context.Context, tx *sql.Tx, snapshotID int64) (domain.Multiset, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT subject, grade, count FROM counter_snapshots WHERE snapshot_id = ?`,
		snapshotID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ms := domain.Multiset{}
	for rows.Next() {
		var (
			subject string
			grade   int
			count   int
		)
		if err := rows.Scan(&subject, &grade, &count); err != nil {
			return nil, err
		}
		ms[domain.GradeKey{Subject: subject, Grade: grade}] = count
	}
	return ms, rows.Err()
}

// History returns the most recent limit snapshots in chronological order.
// Counter rows are not loaded; trend display only needs the averages.
func (r *SQLiteRepo) History(ctx context.Context, chatID int64, limit int) ([]domain.Snapshot, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, taken_at, overall, averages_json
		FROM snapshots
		WHERE chat_id = ?
		ORDER BY id DESC
		LIMIT ?`,
		chatID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snaps []domain.Snapshot
	for rows.Next() {
		var (
			id          int64
			takenAt     int64
			overall     float64
			averagesRaw string
		)
		if err := rows.Scan(&id, &takenAt, &overall, &averagesRaw); err != nil {
			return nil, err
		}
		averages, err := unmarshalAverages(averagesRaw)
		if err != nil {
			return nil, fmt.Errorf("decode averages: %w", err)
		}
		snaps = append(snaps, domain.Snapshot{
			ID:       id,
			ChatID:   chatID,
			TakenAt:  time.Unix(takenAt, 0).UTC(),
			Overall:  overall,
			Averages: averages,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Query returned newest first; present oldest first.
	for i, j := 0, len(snaps)-1; i < j; i, j = i+1, j-1 {
		snaps[i], snaps[j] = snaps[j], snaps[i]
	}
	return snaps, nil
}

// SnapshotCount returns how many snapshots the user currently has.
func (r *SQLiteRepo) SnapshotCount(ctx context.Context, chatID int64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM snapshots WHERE chat_id = ?`,
		chatID,
	).Scan(&n)
	return n, err
}

// boolToInt converts a boolean to 1/0 for SQLite.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

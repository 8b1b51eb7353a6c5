package store

import (
	"context"
	"time"
)

// DumpDoc is the admin export document: every table, row by row.
type DumpDoc struct {
	ExportedAt time.Time         `json:"exported_at"`
	Users      []DumpUser        `json:"users"`
	Counter    []DumpCounterRow  `json:"grade_counter"`
	Snapshots  []DumpSnapshot    `json:"snapshots"`
	Counters   []DumpSnapCounter `json:"counter_snapshots"`
}

type DumpUser struct {
	ChatID          int64    `json:"chat_id"`
	CreatedAt       int64    `json:"created_at"`
	ReminderEnabled bool     `json:"reminder_enabled"`
	ReminderTime    *string  `json:"reminder_time"`
	LastOverall     *float64 `json:"last_overall"`
	LastAverages    string   `json:"last_averages_json"`
}

type DumpCounterRow struct {
	ChatID  int64  `json:"chat_id"`
	Subject string `json:"subject"`
	Grade   int    `json:"grade"`
	Count   int    `json:"count"`
}

type DumpSnapshot struct {
	ID       int64   `json:"id"`
	ChatID   int64   `json:"chat_id"`
	TakenAt  int64   `json:"taken_at"`
	Overall  float64 `json:"overall"`
	Averages string  `json:"averages_json"`
}

type DumpSnapCounter struct {
	SnapshotID int64  `json:"snapshot_id"`
	Subject    string `json:"subject"`
	Grade      int    `json:"grade"`
	Count      int    `json:"count"`
}

// Dump reads every table into a DumpDoc for the admin export command.
func (r *SQLiteRepo) Dump(ctx context.Context) (*DumpDoc, error) {
	doc := &DumpDoc{ExportedAt: time.Now().UTC()}

	rows, err := r.db.QueryContext(ctx, `
		SELECT chat_id, created_at, reminder_enabled, reminder_time, last_overall, last_averages_json
		FROM users ORDER BY chat_id`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		averagesJSON, err := marshalAverages(u.LastAverages)
		if err != nil {
			rows.Close()
			return nil, err
		}
		doc.Users = append(doc.Users, DumpUser{
			ChatID:          u.ChatID,
			CreatedAt:       u.CreatedAt.Unix(),
			ReminderEnabled: u.ReminderEnabled,
			ReminderTime:    u.ReminderTime,
			LastOverall:     u.LastOverall,
			LastAverages:    averagesJSON,
		})
	}
	if err := closeRows(rows); err != nil {
		return nil, err
	}

	rows, err = r.db.QueryContext(ctx, `
		SELECT chat_id, subject, grade, count FROM grade_counter ORDER BY chat_id, subject, grade`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var c DumpCounterRow
		if err := rows.Scan(&c.ChatID, &c.Subject, &c.Grade, &c.Count); err != nil {
			rows.Close()
			return nil, err
		}
		doc.Counter = append(doc.Counter, c)
	}
	if err := closeRows(rows); err != nil {
		return nil, err
	}

	rows, err = r.db.QueryContext(ctx, `
		SELECT id, chat_id, taken_at, overall, averages_json FROM snapshots ORDER BY id`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var s DumpSnapshot
		if err := rows.Scan(&s.ID, &s.ChatID, &s.TakenAt, &s.Overall, &s.Averages); err != nil {
			rows.Close()
			return nil, err
		}
		doc.Snapshots = append(doc.Snapshots, s)
	}
	if err := closeRows(rows); err != nil {
		return nil, err
	}

	rows, err = r.db.QueryContext(ctx, `
		SELECT snapshot_id, subject, grade, count FROM counter_snapshots ORDER BY snapshot_id, subject, grade`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var c DumpSnapCounter
		if err := rows.Scan(&c.SnapshotID, &c.Subject, &c.Grade, &c.Count); err != nil {
			rows.Close()
			return nil, err
		}
		doc.Counters = append(doc.Counters, c)
	}
	return doc, closeRows(rows)
}

func closeRows(rows interface {
	Close() error
	Err() error
}) error {
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	return rows.Close()
}

package domain

import "time"

// User represents per-chat settings and the denormalized "current" grade
// state. LastOverall and LastAverages mirror the newest snapshot; the store
// keeps them consistent on every ingestion and undo.
type User struct {
	ChatID          int64
	ReminderEnabled bool
	ReminderTime    *string // "HH:MM", nil when unset
	LastOverall     *float64
	LastAverages    map[string]float64
	CreatedAt       time.Time // UTC
}

// HasReminder reports whether a daily trigger should exist for the user.
func (u *User) HasReminder() bool {
	return u.ReminderEnabled && u.ReminderTime != nil && *u.ReminderTime != ""
}

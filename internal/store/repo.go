package store

import (
	"context"
	"errors"
	"time"

	"github.com/Ozichk/telegram-grade-bot/internal/domain"
)

var (
	// ErrNotFound is returned when a requested user does not exist.
	ErrNotFound = errors.New("not found")
	// ErrNothingToUndo is returned by Undo when no snapshot exists.
	ErrNothingToUndo = errors.New("nothing to undo")
)

// Repo defines storage operations for users, grade state and snapshots.
type Repo interface {
	// EnsureUser returns the user, creating an empty record on first contact.
	EnsureUser(ctx context.Context, chatID int64) (*domain.User, error)
	GetUser(ctx context.Context, chatID int64) (*domain.User, error)
	SetReminder(ctx context.Context, chatID int64, enabled bool, hhmm *string) error
	// ListReminderUsers returns users whose reminder is enabled and has a time set.
	ListReminderUsers(ctx context.Context) ([]domain.User, error)

	// Multiset returns the user's current grade multiset.
	Multiset(ctx context.Context, chatID int64) (domain.Multiset, error)
	// SaveIngestion appends a snapshot and updates the user's current state
	// in one transaction, trimming history beyond the retention bound.
	SaveIngestion(ctx context.Context, chatID int64, takenAt time.Time, overall float64, averages map[string]float64, ms domain.Multiset) error
	// Undo deletes the newest snapshot and restores current state from the
	// one before it, or resets to empty when none remains.
	Undo(ctx context.Context, chatID int64) error
	// History returns the most recent limit snapshots, oldest first.
	History(ctx context.Context, chatID int64, limit int) ([]domain.Snapshot, error)
	SnapshotCount(ctx context.Context, chatID int64) (int, error)

	// Dump exports all tables for the admin command.
	Dump(ctx context.Context) (*DumpDoc, error)

	Close() error
}

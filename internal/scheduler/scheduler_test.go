package scheduler

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Ozichk/telegram-grade-bot/internal/store"
)

type fakeNotifier struct {
	mu    sync.Mutex
	calls []int64
}

func (f *fakeNotifier) Notify(chatID int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, chatID)
}

func newTestScheduler(t *testing.T) (*Scheduler, *store.SQLiteRepo, *fakeNotifier) {
	t.Helper()
	repo, err := store.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "test.db"), 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	n := &fakeNotifier{}
	s := New(repo, zap.NewNop(), n, time.UTC)
	return s, repo, n
}

func TestSchedule_Idempotent(t *testing.T) {
	s, _, _ := newTestScheduler(t)

	require.NoError(t, s.Schedule(1, "08:00"))
	require.NoError(t, s.Schedule(1, "08:00"))

	// Exactly one active trigger for the user, not two.
	assert.Equal(t, 1, s.EntryCount())
	assert.Equal(t, []int64{1}, s.Scheduled())
}

func TestSchedule_ReplaceChangesFireTime(t *testing.T) {
	s, _, _ := newTestScheduler(t)

	require.NoError(t, s.Schedule(1, "08:00"))
	require.NoError(t, s.Schedule(1, "21:00"))
	require.Equal(t, 1, s.EntryCount())

	// The surviving entry fires daily at 21:00.
	ref := time.Date(2026, time.March, 2, 12, 0, 0, 0, time.UTC)
	next := s.cron.Entries()[0].Schedule.Next(ref)
	assert.Equal(t, time.Date(2026, time.March, 2, 21, 0, 0, 0, time.UTC), next)
	assert.Equal(t, next.Add(24*time.Hour), s.cron.Entries()[0].Schedule.Next(next))
}

func TestUnschedule_MissingIsNoOp(t *testing.T) {
	s, _, _ := newTestScheduler(t)

	s.Unschedule(99) // never scheduled

	require.NoError(t, s.Schedule(1, "08:00"))
	s.Unschedule(1)
	s.Unschedule(1)
	assert.Equal(t, 0, s.EntryCount())
	assert.Empty(t, s.Scheduled())
}

func TestRestore_RebuildsTriggersFromStore(t *testing.T) {
	ctx := context.Background()
	s, repo, _ := newTestScheduler(t)

	for _, id := range []int64{10, 20, 30} {
		_, err := repo.EnsureUser(ctx, id)
		require.NoError(t, err)
	}
	hhmm := "21:00"
	require.NoError(t, repo.SetReminder(ctx, 10, true, &hhmm))
	require.NoError(t, repo.SetReminder(ctx, 20, false, &hhmm))
	require.NoError(t, repo.SetReminder(ctx, 30, true, nil))

	require.NoError(t, s.Restore(ctx))

	// Only the enabled user with a time gets a trigger, at 21:00.
	require.Equal(t, 1, s.EntryCount())
	assert.Equal(t, []int64{10}, s.Scheduled())

	ref := time.Date(2026, time.March, 2, 12, 0, 0, 0, time.UTC)
	next := s.cron.Entries()[0].Schedule.Next(ref)
	assert.Equal(t, time.Date(2026, time.March, 2, 21, 0, 0, 0, time.UTC), next)
}

func TestNotify_ReachesNotifier(t *testing.T) {
	s, _, n := newTestScheduler(t)
	s.notify(7)
	assert.Equal(t, []int64{7}, n.calls)
}

func TestSetNotifier_LateBinding(t *testing.T) {
	repo, err := store.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "test.db"), 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	s := New(repo, zap.NewNop(), nil, time.UTC)
	s.notify(1) // no notifier yet: dropped, no panic

	n := &fakeNotifier{}
	s.SetNotifier(n)
	s.notify(1)
	assert.Equal(t, []int64{1}, n.calls)
}

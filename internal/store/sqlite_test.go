package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ozichk/telegram-grade-bot/internal/domain"
)

func openTestRepo(t *testing.T, retention int) *SQLiteRepo {
	t.Helper()
	repo, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "test.db"), retention)
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func ms(pairs ...domain.GradeEntry) domain.Multiset {
	return domain.NewMultiset(pairs)
}

func TestEnsureUser_CreatesOnce(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t, 0)

	_, err := repo.GetUser(ctx, 42)
	require.ErrorIs(t, err, ErrNotFound)

	u, err := repo.EnsureUser(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, int64(42), u.ChatID)
	assert.False(t, u.ReminderEnabled)
	assert.Nil(t, u.ReminderTime)
	assert.Nil(t, u.LastOverall)
	assert.Empty(t, u.LastAverages)

	again, err := repo.EnsureUser(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, u.CreatedAt, again.CreatedAt)
}

func TestSaveIngestion_UpdatesCurrentState(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t, 0)
	now := time.Now().UTC().Truncate(time.Second)

	counter := ms(
		domain.GradeEntry{Subject: "Math", Grade: 5},
		domain.GradeEntry{Subject: "Math", Grade: 5},
		domain.GradeEntry{Subject: "Bio", Grade: 3},
	)
	require.NoError(t, repo.SaveIngestion(ctx, 1, now, 4.0, map[string]float64{"Math": 5, "Bio": 3}, counter))

	u, err := repo.GetUser(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, u.LastOverall)
	assert.Equal(t, 4.0, *u.LastOverall)
	assert.Equal(t, map[string]float64{"Math": 5, "Bio": 3}, u.LastAverages)

	got, err := repo.Multiset(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, counter, got)

	n, err := repo.SnapshotCount(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestUndo_RoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t, 0)
	base := time.Now().UTC().Truncate(time.Second)

	msA := ms(domain.GradeEntry{Subject: "Math", Grade: 5})
	avgA := map[string]float64{"Math": 5}
	require.NoError(t, repo.SaveIngestion(ctx, 1, base, 5.0, avgA, msA))

	msB := ms(
		domain.GradeEntry{Subject: "Math", Grade: 5},
		domain.GradeEntry{Subject: "Math", Grade: 3},
	)
	require.NoError(t, repo.SaveIngestion(ctx, 1, base.Add(time.Hour), 4.0, map[string]float64{"Math": 4}, msB))

	require.NoError(t, repo.Undo(ctx, 1))

	// Current state must be exactly what it was after ingesting A.
	u, err := repo.GetUser(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, u.LastOverall)
	assert.Equal(t, 5.0, *u.LastOverall)
	assert.Equal(t, avgA, u.LastAverages)

	got, err := repo.Multiset(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, msA, got)
}

func TestUndo_ToEmptyThenNothingToUndo(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t, 0)

	require.NoError(t, repo.SaveIngestion(ctx, 1, time.Now().UTC(), 5.0,
		map[string]float64{"Math": 5}, ms(domain.GradeEntry{Subject: "Math", Grade: 5})))

	require.NoError(t, repo.Undo(ctx, 1))

	u, err := repo.GetUser(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, u.LastOverall)
	assert.Empty(t, u.LastAverages)

	got, err := repo.Multiset(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, got)

	require.ErrorIs(t, repo.Undo(ctx, 1), ErrNothingToUndo)

	// A failed undo must not mutate anything.
	u, err = repo.GetUser(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, u.LastOverall)
}

func TestUndo_NoHistoryAtAll(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t, 0)
	_, err := repo.EnsureUser(ctx, 1)
	require.NoError(t, err)
	require.ErrorIs(t, repo.Undo(ctx, 1), ErrNothingToUndo)
}

func TestRetentionBound(t *testing.T) {
	ctx := context.Background()
	const retention = 5
	repo := openTestRepo(t, retention)
	base := time.Now().UTC().Truncate(time.Second)

	for i := 0; i < retention+5; i++ {
		overall := float64(i)
		require.NoError(t, repo.SaveIngestion(ctx, 1, base.Add(time.Duration(i)*time.Minute), overall,
			map[string]float64{"Math": overall}, ms(domain.GradeEntry{Subject: "Math", Grade: i})))
	}

	n, err := repo.SnapshotCount(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, retention, n)

	// Survivors are the most recent ones, oldest first.
	snaps, err := repo.History(ctx, 1, retention+5)
	require.NoError(t, err)
	require.Len(t, snaps, retention)
	for i, s := range snaps {
		assert.Equal(t, float64(5+i), s.Overall)
	}
}

func TestHistory_LimitAndOrder(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t, 0)
	base := time.Now().UTC().Truncate(time.Second)

	for i := 0; i < 4; i++ {
		require.NoError(t, repo.SaveIngestion(ctx, 1, base.Add(time.Duration(i)*time.Hour), float64(i),
			map[string]float64{"Math": float64(i)}, ms(domain.GradeEntry{Subject: "Math", Grade: i})))
	}

	snaps, err := repo.History(ctx, 1, 2)
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	assert.Equal(t, 2.0, snaps[0].Overall)
	assert.Equal(t, 3.0, snaps[1].Overall)
	assert.True(t, snaps[0].TakenAt.Before(snaps[1].TakenAt))
}

func TestSetReminder_ListReminderUsers(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t, 0)

	for _, id := range []int64{1, 2, 3} {
		_, err := repo.EnsureUser(ctx, id)
		require.NoError(t, err)
	}

	hhmm := "21:00"
	require.NoError(t, repo.SetReminder(ctx, 1, true, &hhmm))
	require.NoError(t, repo.SetReminder(ctx, 2, true, nil))  // enabled but no time
	require.NoError(t, repo.SetReminder(ctx, 3, false, &hhmm)) // time but disabled

	users, err := repo.ListReminderUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, int64(1), users[0].ChatID)
	require.NotNil(t, users[0].ReminderTime)
	assert.Equal(t, "21:00", *users[0].ReminderTime)
}

func TestUsersAreIndependent(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t, 0)
	now := time.Now().UTC()

	require.NoError(t, repo.SaveIngestion(ctx, 1, now, 5.0,
		map[string]float64{"Math": 5}, ms(domain.GradeEntry{Subject: "Math", Grade: 5})))
	require.NoError(t, repo.SaveIngestion(ctx, 2, now, 3.0,
		map[string]float64{"Bio": 3}, ms(domain.GradeEntry{Subject: "Bio", Grade: 3})))

	require.NoError(t, repo.Undo(ctx, 1))

	u2, err := repo.GetUser(ctx, 2)
	require.NoError(t, err)
	require.NotNil(t, u2.LastOverall)
	assert.Equal(t, 3.0, *u2.LastOverall)
}

func TestDump_AllTables(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t, 0)

	require.NoError(t, repo.SaveIngestion(ctx, 1, time.Now().UTC(), 5.0,
		map[string]float64{"Math": 5}, ms(domain.GradeEntry{Subject: "Math", Grade: 5})))

	doc, err := repo.Dump(ctx)
	require.NoError(t, err)
	assert.Len(t, doc.Users, 1)
	assert.Len(t, doc.Counter, 1)
	assert.Len(t, doc.Snapshots, 1)
	assert.Len(t, doc.Counters, 1)
}

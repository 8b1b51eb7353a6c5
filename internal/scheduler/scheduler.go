// Package scheduler maintains one daily reminder trigger per user on top of
// a cron runner. The runner holds no state across restarts; Restore rebuilds
// the trigger set from persisted users at startup.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/Ozichk/telegram-grade-bot/internal/domain"
	"github.com/Ozichk/telegram-grade-bot/internal/store"
)

// Notifier delivers the daily reminder for one chat. telegram.Router
// implements this behind the retrying sender.
type Notifier interface {
	Notify(chatID int64)
}

// Scheduler wraps a cron runner with the at-most-one-trigger-per-user
// invariant.
type Scheduler struct {
	cron     *cron.Cron
	repo     store.Repo
	log      *zap.Logger
	notifier Notifier

	mu      sync.Mutex
	entries map[int64]cron.EntryID
}

// New creates a Scheduler whose triggers fire in the given location. The
// notifier may be nil at construction time and set later with SetNotifier,
// since the router that implements it needs the scheduler first.
func New(repo store.Repo, log *zap.Logger, notifier Notifier, loc *time.Location) *Scheduler {
	return &Scheduler{
		cron:     cron.New(cron.WithLocation(loc)),
		repo:     repo,
		log:      log,
		notifier: notifier,
		entries:  make(map[int64]cron.EntryID),
	}
}

// SetNotifier installs the notifier triggers fire into. Must be called
// before Start.
func (s *Scheduler) SetNotifier(n Notifier) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifier = n
}

// notify dispatches one firing; a trigger installed before the notifier is
// set simply drops the firing.
func (s *Scheduler) notify(chatID int64) {
	s.mu.Lock()
	n := s.notifier
	s.mu.Unlock()
	if n != nil {
		n.Notify(chatID)
	}
}

// Start begins trigger evaluation.
func (s *Scheduler) Start() { s.cron.Start() }

// Stop halts trigger evaluation and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// Schedule installs the daily trigger for a user, replacing any existing
// one. hhmm must already be validated.
func (s *Scheduler) Schedule(chatID int64, hhmm string) error {
	hour, minute := domain.SplitHHMM(hhmm)
	spec := fmt.Sprintf("%d %d * * *", minute, hour)

	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.entries[chatID]; ok {
		s.cron.Remove(old)
		delete(s.entries, chatID)
	}

	id, err := s.cron.AddFunc(spec, func() { s.notify(chatID) })
	if err != nil {
		return fmt.Errorf("add trigger: %w", err)
	}
	s.entries[chatID] = id
	s.log.Debug("reminder scheduled", zap.Int64("chatID", chatID), zap.String("time", hhmm))
	return nil
}

// Unschedule removes the user's trigger. A missing trigger is a no-op.
func (s *Scheduler) Unschedule(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.entries[chatID]; ok {
		s.cron.Remove(id)
		delete(s.entries, chatID)
		s.log.Debug("reminder removed", zap.Int64("chatID", chatID))
	}
}

// Restore re-installs triggers for every persisted user with an enabled
// reminder and a set time. Called once at process start.
func (s *Scheduler) Restore(ctx context.Context) error {
	users, err := s.repo.ListReminderUsers(ctx)
	if err != nil {
		return fmt.Errorf("list reminder users: %w", err)
	}
	for _, u := range users {
		if !u.HasReminder() {
			continue
		}
		if err := s.Schedule(u.ChatID, *u.ReminderTime); err != nil {
			s.log.Warn("restore trigger failed", zap.Error(err), zap.Int64("chatID", u.ChatID))
		}
	}
	s.log.Info("reminder triggers restored", zap.Int("count", len(users)))
	return nil
}

// Scheduled returns the chat ids with an active trigger, for tests and
// diagnostics.
func (s *Scheduler) Scheduled() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]int64, 0, len(s.entries))
	for id := range s.entries {
		ids = append(ids, id)
	}
	return ids
}

// EntryCount returns the number of active cron entries in the runner.
func (s *Scheduler) EntryCount() int {
	return len(s.cron.Entries())
}

package telegram

import (
	"context"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/Ozichk/telegram-grade-bot/internal/retry"
	"github.com/Ozichk/telegram-grade-bot/internal/store"
)

// Pending state keys used in conversational flows.
const (
	pendingTime    = "await_time_text"
	pendingSubject = "await_subject_text"
)

// Reminders holds the trigger operations the router drives. Implemented by
// scheduler.Scheduler.
type Reminders interface {
	Schedule(chatID int64, hhmm string) error
	Unschedule(chatID int64)
}

// Router wires Telegram updates to handlers and holds minimal in-memory state.
type Router struct {
	bot         *tgbotapi.BotAPI
	log         *zap.Logger
	repo        store.Repo
	reminders   Reminders
	sendPolicy  retry.Policy
	adminChatID int64
	dbPath      string
	state       map[int64]string // chatID -> pending state
	mu          sync.RWMutex
}

// NewRouter creates a new Telegram router. adminChatID of 0 disables the
// export command.
func NewRouter(bot *tgbotapi.BotAPI, log *zap.Logger, repo store.Repo, reminders Reminders, adminChatID int64, dbPath string) *Router {
	return &Router{
		bot:         bot,
		log:         log,
		repo:        repo,
		reminders:   reminders,
		sendPolicy:  retry.Default(),
		adminChatID: adminChatID,
		dbPath:      dbPath,
		state:       make(map[int64]string),
	}
}

// setPending sets a pending state for a chat (non-persistent, in-memory).
func (r *Router) setPending(chatID int64, s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state[chatID] = s
}

// getPending returns current pending state for a chat.
func (r *Router) getPending(chatID int64) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state[chatID]
}

// clearPending clears a pending state for a chat.
func (r *Router) clearPending(chatID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.state, chatID)
}

// HandleUpdate routes a single update to the appropriate handler. A failure
// in one update must never take down the loop for other users, so panics
// are recovered here.
func (r *Router) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("update handler panicked", zap.Any("panic", rec))
		}
	}()

	// Text messages and documents
	if upd.Message != nil {
		msg := upd.Message
		chatID := msg.Chat.ID

		if msg.Document != nil {
			r.handleDocument(ctx, chatID, msg.Document)
			return
		}

		text := strings.TrimSpace(msg.Text)
		switch {
		case strings.HasPrefix(text, "/start"):
			r.handleStart(ctx, chatID)
		case strings.HasPrefix(text, "/export"):
			r.handleExport(ctx, chatID)
		default:
			// Free-form text used by the custom-time and subject flows.
			r.handleFreeForm(ctx, chatID, text)
		}
		return
	}

	// Callback queries (inline buttons)
	if upd.CallbackQuery != nil {
		cb := upd.CallbackQuery
		if cb.Message == nil {
			return
		}
		r.handleCallback(ctx, cb.Message.Chat.ID, cb.Data, cb.ID)
	}
}

// handleCallback dispatches one button press.
func (r *Router) handleCallback(ctx context.Context, chatID int64, data, cbID string) {
	switch {
	case data == cbSummary:
		r.handleSummary(ctx, chatID, cbID)
	case data == cbDetails:
		r.handleDetails(ctx, chatID, cbID)
	case data == cbRefresh:
		r.answerAndSend(chatID, cbID, refreshText)
	case data == cbReminders:
		r.handleReminders(ctx, chatID, cbID)
	case data == cbRemToggle:
		r.handleReminderToggle(ctx, chatID, cbID)
	case data == cbTimeCustom:
		_ = r.answerCallback(cbID, "")
		r.setPending(chatID, pendingTime)
		r.sendText(chatID, askTimeText)
	case strings.HasPrefix(data, cbTimePrefix):
		r.handleReminderTime(ctx, chatID, strings.TrimPrefix(data, cbTimePrefix), cbID)
	case data == cbHistory:
		r.handleHistory(ctx, chatID, cbID)
	case data == cbSubjectTrend:
		_ = r.answerCallback(cbID, "")
		r.setPending(chatID, pendingSubject)
		r.sendText(chatID, askSubjectText)
	case data == cbUndo:
		r.handleUndo(ctx, chatID, cbID)
	case data == cbBack:
		_ = r.answerCallback(cbID, "")
		r.sendMenu(chatID, menuText)
	default:
		_ = r.answerCallback(cbID, "")
	}
}

// SendMessage sends a plain text message to the given chat.
func (r *Router) SendMessage(chatID int64, text string) error {
	_, err := r.bot.Send(tgbotapi.NewMessage(chatID, text))
	return err
}

// Notify delivers the daily reminder through the bounded retry policy. This
// makes Router satisfy scheduler.Notifier; a send that exhausts its attempts
// is dropped, not queued.
func (r *Router) Notify(chatID int64) {
	err := r.sendPolicy.Do(func() error {
		return r.SendMessage(chatID, reminderFiredText)
	})
	if err != nil {
		r.log.Warn("reminder delivery dropped", zap.Error(err), zap.Int64("chatID", chatID))
	}
}

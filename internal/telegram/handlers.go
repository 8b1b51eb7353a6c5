package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/Ozichk/telegram-grade-bot/internal/analyze"
	"github.com/Ozichk/telegram-grade-bot/internal/domain"
	"github.com/Ozichk/telegram-grade-bot/internal/excel"
	"github.com/Ozichk/telegram-grade-bot/internal/store"
)

// diffRenderLimit caps how many new grades one reply lists.
const diffRenderLimit = 30

// historyWindow is how many snapshots trend views look back over.
const historyWindow = 10

var fileClient = &http.Client{Timeout: 30 * time.Second}

// --- Generic helpers ---

func (r *Router) sendText(chatID int64, text string) {
	_, _ = r.bot.Send(tgbotapi.NewMessage(chatID, text))
}

// sendMenu sends text with the primary action menu attached.
func (r *Router) sendMenu(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = menuKeyboard()
	_, _ = r.bot.Send(msg)
}

func (r *Router) answerCallback(id, text string) error {
	_, err := r.bot.Request(tgbotapi.NewCallback(id, text))
	return err
}

func (r *Router) answerAndSend(chatID int64, cbID, text string) {
	_ = r.answerCallback(cbID, "")
	r.sendMenu(chatID, text)
}

// --- /start ---

func (r *Router) handleStart(ctx context.Context, chatID int64) {
	if _, err := r.repo.EnsureUser(ctx, chatID); err != nil {
		r.log.Error("ensure user failed", zap.Error(err), zap.Int64("chatID", chatID))
		r.sendText(chatID, "Profile initialization error. Please try again later.")
		return
	}
	r.sendMenu(chatID, startText)
}

// --- Document upload: one full ingestion ---

func (r *Router) handleDocument(ctx context.Context, chatID int64, doc *tgbotapi.Document) {
	if !strings.HasSuffix(strings.ToLower(doc.FileName), ".xlsx") {
		r.sendMenu(chatID, badExtensionText)
		return
	}

	// Single download attempt; failure aborts the ingestion with no state
	// written.
	file, err := r.bot.GetFile(tgbotapi.FileConfig{FileID: doc.FileID})
	if err != nil {
		r.log.Warn("get file failed", zap.Error(err), zap.Int64("chatID", chatID))
		r.sendMenu(chatID, downloadFailedText)
		return
	}
	resp, err := fileClient.Get(file.Link(r.bot.Token))
	if err != nil {
		r.log.Warn("download failed", zap.Error(err), zap.Int64("chatID", chatID))
		r.sendMenu(chatID, downloadFailedText)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		r.log.Warn("download failed", zap.Int("status", resp.StatusCode), zap.Int64("chatID", chatID))
		r.sendMenu(chatID, downloadFailedText)
		return
	}

	entries, err := excel.Extract(resp.Body)
	if err != nil {
		r.log.Warn("extract failed", zap.Error(err), zap.Int64("chatID", chatID))
		r.sendMenu(chatID, unreadableFileText)
		return
	}

	rep, err := analyze.Analyze(entries)
	if err != nil {
		// analyze.ErrNoGrades is the only analysis failure.
		r.sendMenu(chatID, noGradesText)
		return
	}

	if _, err := r.repo.EnsureUser(ctx, chatID); err != nil {
		r.log.Error("ensure user failed", zap.Error(err), zap.Int64("chatID", chatID))
		r.sendMenu(chatID, "Could not process the file. Please try again later.")
		return
	}

	oldMS, err := r.repo.Multiset(ctx, chatID)
	if err != nil {
		r.log.Error("load multiset failed", zap.Error(err), zap.Int64("chatID", chatID))
		r.sendMenu(chatID, "Could not process the file. Please try again later.")
		return
	}

	newMS := domain.NewMultiset(entries)
	added := domain.DiffMultisets(oldMS, newMS)

	if err := r.repo.SaveIngestion(ctx, chatID, time.Now().UTC(), rep.Overall, rep.Averages, newMS); err != nil {
		r.log.Error("save ingestion failed", zap.Error(err), zap.Int64("chatID", chatID))
		r.sendMenu(chatID, "Could not save the results. Please try again later.")
		return
	}

	r.log.Info("ingestion complete",
		zap.Int64("chatID", chatID),
		zap.Int("entries", len(entries)),
		zap.Int("new", len(added)),
	)
	r.sendMenu(chatID, renderIngestion(added))
}

func renderIngestion(added []domain.Added) string {
	var b strings.Builder
	b.WriteString(processedText)
	b.WriteString("\n")
	if len(added) == 0 {
		b.WriteString("\n" + noNewGradesText)
		return b.String()
	}

	b.WriteString("\n" + newGradesTitle + "\n")
	shown := added
	if len(shown) > diffRenderLimit {
		shown = shown[:diffRenderLimit]
	}
	lines := make([]string, 0, len(shown))
	for _, a := range shown {
		suffix := ""
		if a.Count > 1 {
			suffix = fmt.Sprintf(" x%d", a.Count)
		}
		lines = append(lines, fmt.Sprintf("• %s: %d%s", a.Subject, a.Grade, suffix))
	}
	b.WriteString(strings.Join(lines, "\n"))
	if len(added) > diffRenderLimit {
		b.WriteString(fmt.Sprintf("\n…and %d more", len(added)-diffRenderLimit))
	}
	return b.String()
}

// --- Summary & details ---

func (r *Router) handleSummary(ctx context.Context, chatID int64, cbID string) {
	u, err := r.repo.EnsureUser(ctx, chatID)
	if err != nil {
		r.log.Error("ensure user failed", zap.Error(err), zap.Int64("chatID", chatID))
		_ = r.answerCallback(cbID, "Error reading your data.")
		return
	}
	if u.LastOverall == nil || len(u.LastAverages) == 0 {
		_ = r.answerCallback(cbID, sendFileFirstText)
		return
	}

	best, worst := bestWorst(u.LastAverages)
	text := fmt.Sprintf("📊 Overall average: %.2f\n🏆 Best subject: %s\n⚠ Weakest subject: %s",
		*u.LastOverall, best, worst)
	if *u.LastOverall < 3.5 {
		text += lowOverallWarning
	}
	r.answerAndSend(chatID, cbID, text)
}

// bestWorst mirrors the analyzer's tie rule: first maximal/minimal subject
// in name order.
func bestWorst(averages map[string]float64) (best, worst string) {
	subjects := make([]string, 0, len(averages))
	for s := range averages {
		subjects = append(subjects, s)
	}
	sort.Strings(subjects)
	best, worst = subjects[0], subjects[0]
	for _, s := range subjects {
		if averages[s] > averages[best] {
			best = s
		}
		if averages[s] < averages[worst] {
			worst = s
		}
	}
	return best, worst
}

func (r *Router) handleDetails(ctx context.Context, chatID int64, cbID string) {
	u, err := r.repo.EnsureUser(ctx, chatID)
	if err != nil {
		r.log.Error("ensure user failed", zap.Error(err), zap.Int64("chatID", chatID))
		_ = r.answerCallback(cbID, "Error reading your data.")
		return
	}
	if len(u.LastAverages) == 0 {
		_ = r.answerCallback(cbID, sendFileFirstText)
		return
	}

	subjects := make([]string, 0, len(u.LastAverages))
	for s := range u.LastAverages {
		subjects = append(subjects, s)
	}
	sort.Strings(subjects)

	lines := []string{"📚 Per-subject report:"}
	for _, s := range subjects {
		lines = append(lines, fmt.Sprintf("• %s: %.2f", s, u.LastAverages[s]))
	}
	r.answerAndSend(chatID, cbID, strings.Join(lines, "\n"))
}

// --- Reminders ---

func (r *Router) handleReminders(ctx context.Context, chatID int64, cbID string) {
	u, err := r.repo.EnsureUser(ctx, chatID)
	if err != nil {
		r.log.Error("ensure user failed", zap.Error(err), zap.Int64("chatID", chatID))
		_ = r.answerCallback(cbID, "Error reading your settings.")
		return
	}
	_ = r.answerCallback(cbID, "")

	status := "disabled ⛔"
	if u.ReminderEnabled {
		status = "enabled ✅"
	}
	t := "not set"
	if u.ReminderTime != nil {
		t = *u.ReminderTime
	}
	text := fmt.Sprintf("⏰ Reminders\nStatus: %s\nTime: %s\n\nPick a time or toggle on/off:", status, t)

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = remindersKeyboard(u.ReminderEnabled)
	_, _ = r.bot.Send(msg)
}

func (r *Router) handleReminderToggle(ctx context.Context, chatID int64, cbID string) {
	u, err := r.repo.EnsureUser(ctx, chatID)
	if err != nil {
		r.log.Error("ensure user failed", zap.Error(err), zap.Int64("chatID", chatID))
		_ = r.answerCallback(cbID, "Could not update reminders.")
		return
	}

	enabled := !u.ReminderEnabled
	if err := r.repo.SetReminder(ctx, chatID, enabled, u.ReminderTime); err != nil {
		r.log.Error("set reminder failed", zap.Error(err), zap.Int64("chatID", chatID))
		_ = r.answerCallback(cbID, "Could not update reminders.")
		return
	}

	if enabled && u.ReminderTime != nil {
		if err := r.reminders.Schedule(chatID, *u.ReminderTime); err != nil {
			r.log.Error("schedule failed", zap.Error(err), zap.Int64("chatID", chatID))
		}
	} else if !enabled {
		r.reminders.Unschedule(chatID)
	}

	_ = r.answerCallback(cbID, "")
	status := "disabled"
	if enabled {
		status = "enabled"
	}
	t := "not set"
	if u.ReminderTime != nil {
		t = *u.ReminderTime
	}
	msg := tgbotapi.NewMessage(chatID, fmt.Sprintf("Done ✅ Reminders: %s.\nTime: %s", status, t))
	msg.ReplyMarkup = remindersKeyboard(enabled)
	_, _ = r.bot.Send(msg)
}

func (r *Router) handleReminderTime(ctx context.Context, chatID int64, raw, cbID string) {
	_ = r.answerCallback(cbID, "")
	hhmm, err := domain.ParseHHMM(raw)
	if err != nil {
		r.sendText(chatID, badTimeText)
		return
	}
	r.applyReminderTime(ctx, chatID, hhmm)
}

// applyReminderTime persists the time and reinstalls the trigger when
// reminders are enabled.
func (r *Router) applyReminderTime(ctx context.Context, chatID int64, hhmm string) {
	u, err := r.repo.EnsureUser(ctx, chatID)
	if err != nil {
		r.log.Error("ensure user failed", zap.Error(err), zap.Int64("chatID", chatID))
		r.sendText(chatID, "Could not save the reminder time.")
		return
	}
	if err := r.repo.SetReminder(ctx, chatID, u.ReminderEnabled, &hhmm); err != nil {
		r.log.Error("set reminder failed", zap.Error(err), zap.Int64("chatID", chatID))
		r.sendText(chatID, "Could not save the reminder time.")
		return
	}
	if u.ReminderEnabled {
		if err := r.reminders.Schedule(chatID, hhmm); err != nil {
			r.log.Error("schedule failed", zap.Error(err), zap.Int64("chatID", chatID))
		}
	}

	msg := tgbotapi.NewMessage(chatID, "✅ Reminder time set: "+hhmm)
	msg.ReplyMarkup = remindersKeyboard(u.ReminderEnabled)
	_, _ = r.bot.Send(msg)
}

// --- Free-form text (custom time, subject name) ---

func (r *Router) handleFreeForm(ctx context.Context, chatID int64, text string) {
	switch r.getPending(chatID) {
	case pendingTime:
		r.clearPending(chatID)
		hhmm, err := domain.ParseHHMM(text)
		if err != nil {
			r.sendText(chatID, badTimeText)
			return
		}
		r.applyReminderTime(ctx, chatID, hhmm)

	case pendingSubject:
		r.clearPending(chatID)
		r.sendSubjectTrend(ctx, chatID, strings.TrimSpace(text))

	default:
		r.sendMenu(chatID, useButtonsText)
	}
}

// --- Trends ---

func (r *Router) handleHistory(ctx context.Context, chatID int64, cbID string) {
	snaps, err := r.repo.History(ctx, chatID, historyWindow)
	if err != nil {
		r.log.Error("history failed", zap.Error(err), zap.Int64("chatID", chatID))
		_ = r.answerCallback(cbID, "Error reading history.")
		return
	}

	pts := domain.OverallTrend(snaps)
	delta, ok := domain.TrendDelta(pts)
	if !ok {
		_ = r.answerCallback(cbID, "")
		r.sendMenu(chatID, notEnoughPointsText)
		return
	}
	r.answerAndSend(chatID, cbID, renderTrend("📈 Overall average", pts, delta))
}

func (r *Router) sendSubjectTrend(ctx context.Context, chatID int64, subject string) {
	snaps, err := r.repo.History(ctx, chatID, historyWindow)
	if err != nil {
		r.log.Error("history failed", zap.Error(err), zap.Int64("chatID", chatID))
		r.sendMenu(chatID, "Error reading history.")
		return
	}

	pts := domain.SubjectTrend(snaps, subject)
	if len(pts) == 0 {
		r.sendMenu(chatID, subjectUnknownText)
		return
	}
	delta, ok := domain.TrendDelta(pts)
	if !ok {
		r.sendMenu(chatID, notEnoughPointsText)
		return
	}
	r.sendMenu(chatID, renderTrend("📉 "+subject, pts, delta))
}

func renderTrend(title string, pts []domain.TrendPoint, delta float64) string {
	lines := []string{title + ":"}
	for _, p := range pts {
		lines = append(lines, fmt.Sprintf("• %s: %.2f", p.TakenAt.Format("02.01 15:04"), p.Value))
	}
	switch {
	case delta > 0:
		lines = append(lines, fmt.Sprintf("\n↗ Up %.2f since the first point.", delta))
	case delta < 0:
		lines = append(lines, fmt.Sprintf("\n↘ Down %.2f since the first point.", -delta))
	default:
		lines = append(lines, "\n→ No change.")
	}
	return strings.Join(lines, "\n")
}

// --- Undo ---

func (r *Router) handleUndo(ctx context.Context, chatID int64, cbID string) {
	err := r.repo.Undo(ctx, chatID)
	if errors.Is(err, store.ErrNothingToUndo) {
		_ = r.answerCallback(cbID, "")
		r.sendMenu(chatID, nothingToUndoText)
		return
	}
	if err != nil {
		r.log.Error("undo failed", zap.Error(err), zap.Int64("chatID", chatID))
		_ = r.answerCallback(cbID, "Could not undo.")
		return
	}

	u, err := r.repo.GetUser(ctx, chatID)
	if err != nil {
		r.log.Error("get user failed", zap.Error(err), zap.Int64("chatID", chatID))
		r.answerAndSend(chatID, cbID, "↩️ Last upload removed.")
		return
	}
	if u.LastOverall == nil {
		r.answerAndSend(chatID, cbID, undoneEmptyText)
		return
	}
	r.answerAndSend(chatID, cbID, fmt.Sprintf("↩️ Last upload removed.\n📊 Overall average is back to %.2f", *u.LastOverall))
}

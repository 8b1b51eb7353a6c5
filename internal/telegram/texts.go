package telegram

import tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

// UI texts in English
const (
	startText = "👋 I am a gradebook bot.\n\n" +
		"Send me an Excel file (.xlsx) with grades and I will analyze it.\n" +
		"After that, use the buttons below."
	sendFileFirstText   = "Send an Excel file first 🙂"
	badExtensionText    = "I need an .xlsx file 🙂"
	downloadFailedText  = "Could not download the file. Please send it again."
	unreadableFileText  = "Could not read that file. Is it a valid .xlsx?"
	noGradesText        = "Found no grades in the file 😔"
	processedText       = "✅ File processed."
	noNewGradesText     = "No new grades found."
	newGradesTitle      = "🔔 New grades found:"
	nothingToUndoText   = "Nothing to undo — no uploads recorded yet."
	undoneEmptyText     = "↩️ Last upload removed. No grade data left."
	refreshText         = "🔄 OK! Send a fresh Excel file (.xlsx)."
	notEnoughPointsText = "Not enough data for a trend yet — upload at least twice."
	askSubjectText      = "Which subject? Send its name exactly as in the table."
	subjectUnknownText  = "No history for that subject. Check the spelling."
	askTimeText         = "Send the time as HH:MM (for example 18:30)."
	badTimeText         = "❌ Wrong format. Example: 18:30"
	reminderFiredText   = "⏰ Time to refresh your grades: send a fresh Excel file (.xlsx)."
	useButtonsText      = "Pick an action with the buttons 👇"
	menuText            = "Menu:"
	notAllowedText      = "This command is not available."
	lowOverallWarning   = "\n\n❗ Warning: the overall average is below 3.5"
)

// Callback tokens. Reminder time presets carry the time in the token
// itself ("time_08:00").
const (
	cbSummary      = "summary"
	cbDetails      = "details"
	cbRefresh      = "refresh"
	cbReminders    = "reminders"
	cbRemToggle    = "rem_toggle"
	cbTimePrefix   = "time_"
	cbTimeCustom   = "time_custom"
	cbHistory      = "history"
	cbSubjectTrend = "subject_trend"
	cbUndo         = "undo"
	cbBack         = "back"
)

// menuKeyboard is the primary action menu shown after every interaction.
func menuKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📊 Summary", cbSummary),
			tgbotapi.NewInlineKeyboardButtonData("📚 Details", cbDetails),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔄 Refresh", cbRefresh),
			tgbotapi.NewInlineKeyboardButtonData("⏰ Reminders", cbReminders),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📈 Trend", cbHistory),
			tgbotapi.NewInlineKeyboardButtonData("📉 Subject trend", cbSubjectTrend),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("↩️ Undo last upload", cbUndo),
		),
	)
}

// remindersKeyboard shows the toggle, time presets and the custom option.
func remindersKeyboard(enabled bool) tgbotapi.InlineKeyboardMarkup {
	toggle := "✅ Enable reminders"
	if enabled {
		toggle = "⛔ Disable reminders"
	}
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(toggle, cbRemToggle),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("08:00", cbTimePrefix+"08:00"),
			tgbotapi.NewInlineKeyboardButtonData("12:00", cbTimePrefix+"12:00"),
			tgbotapi.NewInlineKeyboardButtonData("18:00", cbTimePrefix+"18:00"),
			tgbotapi.NewInlineKeyboardButtonData("21:00", cbTimePrefix+"21:00"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✍️ Custom time…", cbTimeCustom),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⬅️ Back", cbBack),
		),
	)
}

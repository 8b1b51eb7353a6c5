package telegram

import (
	"context"
	"encoding/json"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// handleExport dumps all tables as a JSON document plus the raw database
// file. Restricted to the configured admin chat.
func (r *Router) handleExport(ctx context.Context, chatID int64) {
	if r.adminChatID == 0 || chatID != r.adminChatID {
		r.sendMenu(chatID, notAllowedText)
		return
	}

	doc, err := r.repo.Dump(ctx)
	if err != nil {
		r.log.Error("dump failed", zap.Error(err))
		r.sendText(chatID, "Export failed.")
		return
	}
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		r.log.Error("encode dump failed", zap.Error(err))
		r.sendText(chatID, "Export failed.")
		return
	}

	jsonDoc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{
		Name:  "export.json",
		Bytes: raw,
	})
	if _, err := r.bot.Send(jsonDoc); err != nil {
		r.log.Error("send export failed", zap.Error(err))
		r.sendText(chatID, "Export failed.")
		return
	}

	dbDoc := tgbotapi.NewDocument(chatID, tgbotapi.FilePath(r.dbPath))
	if _, err := r.bot.Send(dbDoc); err != nil {
		// JSON already delivered; the raw file is best effort.
		r.log.Warn("send db file failed", zap.Error(err))
	}
}

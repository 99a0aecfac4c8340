package client

import (
	"context"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
	"pricewatch/internal/model"
)

// Telegram broadcasts every notification to one chat, whatever the alert's webhook URL.
type Telegram struct {
	Bot    *tgbotapi.BotAPI
	ChatID int64
}

func NewTelegram(token string, chatID int64) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, errors.Wrap(err, "NewTelegram: error authorizing bot")
	}
	return &Telegram{Bot: bot, ChatID: chatID}, nil
}

func (t *Telegram) Notify(_ context.Context, _ string, n model.Notification) error {
	text := "Price Drop Alert!\n" + NotificationMessage(n)
	if n.ProductURL != "" {
		text += "\n" + n.ProductURL
	}
	msg := tgbotapi.NewMessage(t.ChatID, text)
	msg.DisableWebPagePreview = true
	if _, err := t.Bot.Send(msg); err != nil {
		return &NotifyFailure{Channel: "telegram", Reason: "sending message", Err: err}
	}
	return nil
}

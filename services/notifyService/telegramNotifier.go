package notifyService

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"perfectTipsBot/models"
)

type telegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type TelegramNotifier struct {
	bot    telegramSender
	chatID int64
}

func NewTelegramNotifier(token string, chatID int64) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	return &TelegramNotifier{bot: bot, chatID: chatID}, nil
}

func (t *TelegramNotifier) Name() string { return "telegram" }

func (t *TelegramNotifier) NotifySettlement(ctx context.Context, report models.SettlementReport) error {
	if report.Quiet() {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(t.chatID, truncate(FormatReport(report), 4096))
	msg.DisableWebPagePreview = true
	_, err := t.bot.Send(msg)
	return err
}

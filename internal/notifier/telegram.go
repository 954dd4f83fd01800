package notifier

import (
	"context"
	"fmt"
	"strings"

	"simwatch/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramNotifier mirrors the purchase summary to a Telegram chat.
type TelegramNotifier struct {
	api    *tgbotapi.BotAPI
	chatID int64
}

// NewTelegram connects the bot and validates the token against the Telegram
// API.
func NewTelegram(token string, chatID int64) (*TelegramNotifier, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram init: %w", err)
	}
	api.Debug = false
	return &TelegramNotifier{api: api, chatID: chatID}, nil
}

// Notify sends a single message listing the batch.
func (n *TelegramNotifier) Notify(_ context.Context, batch []models.PurchasedNumber) error {
	first := batch[0]

	var b strings.Builder
	fmt.Fprintf(&b, "Purchased %d %s number(s) in country %d:\n\n", len(batch), first.Service, first.Country)
	for _, pn := range batch {
		fmt.Fprintf(&b, "• %s — $%.2f (tx %s)\n", pn.Number, pn.Price, pn.TransactionID)
	}

	if _, err := n.api.Send(tgbotapi.NewMessage(n.chatID, b.String())); err != nil {
		return fmt.Errorf("telegram send to chat %d: %w", n.chatID, err)
	}
	return nil
}

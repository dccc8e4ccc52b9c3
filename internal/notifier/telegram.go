package notifier

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/notifyhub/wishlist-watcher/internal/domain"
)

// TelegramSink delivers messages through the Telegram Bot API. Recipient
// addresses are chat ids; users and groups differ only in the id's sign.
type TelegramSink struct {
	api *tgbotapi.BotAPI
}

func NewTelegramSink(token string) (*TelegramSink, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return &TelegramSink{api: api}, nil
}

// NewTelegramSinkWithClient points the bot at a custom endpoint, e.g. a
// local Bot API server. endpoint follows tgbotapi.APIEndpoint's format.
func NewTelegramSinkWithClient(token, endpoint string, client *http.Client) (*TelegramSink, error) {
	api, err := tgbotapi.NewBotAPIWithClient(token, endpoint, client)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return &TelegramSink{api: api}, nil
}

func (s *TelegramSink) Deliver(ctx context.Context, d Delivery) error {
	chatID, err := strconv.ParseInt(d.Address, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: %q", domain.ErrInvalidAddress, d.Address)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(chatID, FormatMessage(d))
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	// Group posts arrive silently; direct messages keep the default alert.
	msg.DisableNotification = !d.Direct

	if _, err := s.api.Send(msg); err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	return nil
}

var _ Sink = (*TelegramSink)(nil)

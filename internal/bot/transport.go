package bot

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Sender delivers one outbound message, optionally with a reply keyboard
// (rows of button labels). The reconciliation worker and the SLA monitor
// share this interface with the conversation engine.
type Sender interface {
	Send(chatID int64, text string, keyboard [][]string) error
}

// MediaFetcher downloads the bytes of an inbound media item by its transport
// reference, so evidence can be fingerprinted and attached to a request.
type MediaFetcher interface {
	Fetch(fileID string) ([]byte, error)
}

// TelegramSender adapts Sender onto the Telegram Bot API.
type TelegramSender struct {
	botAPI *tgbotapi.BotAPI
}

func NewTelegramSender(botAPI *tgbotapi.BotAPI) *TelegramSender {
	return &TelegramSender{botAPI: botAPI}
}

func (t *TelegramSender) Send(chatID int64, text string, keyboard [][]string) error {
	msg := tgbotapi.NewMessage(chatID, text)

	if len(keyboard) == 0 {
		msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(true)
	} else {
		rows := make([][]tgbotapi.KeyboardButton, 0, len(keyboard))
		for _, row := range keyboard {
			buttons := make([]tgbotapi.KeyboardButton, 0, len(row))
			for _, label := range row {
				buttons = append(buttons, tgbotapi.NewKeyboardButton(label))
			}

			rows = append(rows, tgbotapi.NewKeyboardButtonRow(buttons...))
		}

		msg.ReplyMarkup = tgbotapi.NewReplyKeyboard(rows...)
	}

	if _, err := t.botAPI.Send(msg); err != nil {
		return fmt.Errorf("TelegramSender.Send: %w", err)
	}

	return nil
}

package telegram

import (
	"context"
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/FoadGhasemi/CodeSpark/internal/domain"
)

// botAPI is the subset of *tgbotapi.BotAPI the bot uses.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Client renders replies as Telegram messages. It also serves as the
// application's Messenger for broadcasts and payment notices.
type Client struct {
	api    botAPI
	logger zerolog.Logger
}

// NewClient authorizes token against the Bot API.
func NewClient(token string, debug bool, logger zerolog.Logger) (*Client, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram auth: %w", err)
	}
	api.Debug = debug
	logger = logger.With().Str("component", "telegram").Logger()
	logger.Info().Str("account", api.Self.UserName).Msg("authorized on telegram")
	return newClient(api, logger), nil
}

func newClient(api botAPI, logger zerolog.Logger) *Client {
	return &Client{api: api, logger: logger}
}

// Send delivers plain text to userID, which must be a numeric chat id.
func (c *Client) Send(ctx context.Context, userID, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	chatID, err := strconv.ParseInt(userID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid chat id %q: %w", userID, err)
	}
	if _, err := c.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		return fmt.Errorf("send to %s: %w", userID, err)
	}
	return nil
}

// Deliver sends reply to chatID. Replies marked ReplaceOriginal edit messageID
// in place when it is known.
func (c *Client) Deliver(ctx context.Context, chatID int64, messageID int, reply domain.Reply) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	markup, hasMarkup := c.keyboard(reply.Buttons)

	var msg tgbotapi.Chattable
	if reply.ReplaceOriginal && messageID != 0 {
		edit := tgbotapi.NewEditMessageText(chatID, messageID, reply.Text)
		if hasMarkup {
			edit.ReplyMarkup = &markup
		}
		msg = edit
	} else {
		m := tgbotapi.NewMessage(chatID, reply.Text)
		if hasMarkup {
			m.ReplyMarkup = markup
		}
		msg = m
	}

	if _, err := c.api.Send(msg); err != nil {
		return fmt.Errorf("deliver to %d: %w", chatID, err)
	}
	return nil
}

// AnswerCallback stops the client-side spinner on a pressed button.
func (c *Client) AnswerCallback(queryID string) {
	if _, err := c.api.Request(tgbotapi.NewCallback(queryID, "")); err != nil {
		c.logger.Warn().Err(err).Msg("answer callback failed")
	}
}

// SetWebhook registers url with Telegram so updates are pushed instead of polled.
func (c *Client) SetWebhook(url string) error {
	wh, err := tgbotapi.NewWebhook(url)
	if err != nil {
		return fmt.Errorf("build webhook: %w", err)
	}
	if _, err := c.api.Request(wh); err != nil {
		return fmt.Errorf("set webhook: %w", err)
	}
	return nil
}

// DeleteWebhook switches the bot back to long polling.
func (c *Client) DeleteWebhook() error {
	if _, err := c.api.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		return fmt.Errorf("delete webhook: %w", err)
	}
	return nil
}

func (c *Client) keyboard(rows [][]domain.Button) (tgbotapi.InlineKeyboardMarkup, bool) {
	if len(rows) == 0 {
		return tgbotapi.InlineKeyboardMarkup{}, false
	}
	kb := make([][]tgbotapi.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			if b.Action == domain.ActionURL {
				buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonURL(b.Label, b.URL))
				continue
			}
			data, err := encodeCallback(b)
			if err != nil {
				c.logger.Error().Err(err).Str("label", b.Label).Msg("button dropped")
				continue
			}
			if len(data) > maxCallbackData {
				c.logger.Warn().Str("data", data).Msg("callback data exceeds telegram limit")
			}
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(b.Label, data))
		}
		if len(buttons) > 0 {
			kb = append(kb, tgbotapi.NewInlineKeyboardRow(buttons...))
		}
	}
	if len(kb) == 0 {
		return tgbotapi.InlineKeyboardMarkup{}, false
	}
	return tgbotapi.NewInlineKeyboardMarkup(kb...), true
}

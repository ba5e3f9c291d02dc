// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package telegram

import (
	"context"
	"fmt"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/jeranaias/tagbot/internal/bot"
)

// DefaultPollTimeout is the long-poll timeout in seconds.
const DefaultPollTimeout = 30

// Handler consumes one incoming message to completion.
type Handler interface {
	HandleMessage(ctx context.Context, in bot.Incoming) error
}

// =============================================================================
// TELEGRAM TRANSPORT
// =============================================================================

// Bot wraps the Telegram Bot API as a bot.Transport.
type Bot struct {
	api         *tgbotapi.BotAPI
	logger      *zap.Logger
	pollTimeout int
}

// New connects to the Telegram Bot API with the given token. The
// connection is verified immediately (getMe), so an invalid token
// fails here rather than on the first message.
func New(token string) (*Bot, error) {
	return NewWithEndpoint(token, tgbotapi.APIEndpoint)
}

// NewWithEndpoint connects against a custom API endpoint. Tests point
// this at a local fake server.
func NewWithEndpoint(token, endpoint string) (*Bot, error) {
	api, err := tgbotapi.NewBotAPIWithAPIEndpoint(token, endpoint)
	if err != nil {
		return nil, fmt.Errorf("connect to telegram: %w", err)
	}

	return &Bot{
		api:         api,
		logger:      zap.NewNop(),
		pollTimeout: DefaultPollTimeout,
	}, nil
}

// WithLogger sets the logger. Defaults to a no-op logger.
func (b *Bot) WithLogger(logger *zap.Logger) *Bot {
	b.logger = logger
	return b
}

// WithPollTimeout sets the long-poll timeout in seconds.
func (b *Bot) WithPollTimeout(seconds int) *Bot {
	b.pollTimeout = seconds
	return b
}

// WithDebug enables the underlying library's request logging.
func (b *Bot) WithDebug(debug bool) *Bot {
	b.api.Debug = debug
	return b
}

// Username returns the bot account's username.
func (b *Bot) Username() string {
	return b.api.Self.UserName
}

// =============================================================================
// TRANSPORT IMPLEMENTATION
// =============================================================================

// Send posts a new MarkdownV2 message to the chat.
func (b *Bot) Send(ctx context.Context, chatID int64, text string) (bot.Message, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	return b.send(msg)
}

// Reply posts a new MarkdownV2 message as a reply to messageID.
func (b *Bot) Reply(ctx context.Context, chatID int64, messageID int, text string) (bot.Message, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	msg.ReplyToMessageID = messageID
	return b.send(msg)
}

// Edit replaces the text of an existing message.
func (b *Bot) Edit(ctx context.Context, msg bot.Message, text string) (bot.Message, error) {
	edit := tgbotapi.NewEditMessageText(msg.ChatID, msg.ID, text)
	edit.ParseMode = tgbotapi.ModeMarkdownV2
	return b.send(edit)
}

func (b *Bot) send(c tgbotapi.Chattable) (bot.Message, error) {
	sent, err := b.api.Send(c)
	if err != nil {
		return bot.Message{}, err
	}

	out := bot.Message{ID: sent.MessageID, Text: sent.Text}
	if sent.Chat != nil {
		out.ChatID = sent.Chat.ID
	}
	return out, nil
}

// =============================================================================
// UPDATE LOOP
// =============================================================================

// Run long-polls for updates until ctx is canceled, dispatching one
// goroutine per message. It returns after all in-flight handlers have
// finished.
func (b *Bot) Run(ctx context.Context, handler Handler) error {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = b.pollTimeout
	updates := b.api.GetUpdatesChan(cfg)

	b.logger.Info("polling for updates", zap.String("username", b.Username()))

	var wg sync.WaitGroup
	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			wg.Wait()
			return ctx.Err()

		case update, ok := <-updates:
			if !ok {
				wg.Wait()
				return nil
			}
			msg := update.Message
			if msg == nil || msg.Chat == nil {
				continue
			}

			in := bot.Incoming{
				ChatID:    msg.Chat.ID,
				MessageID: msg.MessageID,
				Text:      msg.Text,
			}

			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := handler.HandleMessage(ctx, in); err != nil {
					b.logger.Error("message handling failed",
						zap.Int64("chat_id", in.ChatID),
						zap.Int("message_id", in.MessageID),
						zap.Error(err))
				}
			}()
		}
	}
}

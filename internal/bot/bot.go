// Package bot wires the Telegram transport to the command registry and the
// recipe conversation flow.
package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/kapu/recipe-telegram-bot-go/internal/adapter"
	"github.com/kapu/recipe-telegram-bot-go/internal/command"
	"github.com/kapu/recipe-telegram-bot-go/internal/config"
	"github.com/kapu/recipe-telegram-bot-go/internal/constants"
	"github.com/kapu/recipe-telegram-bot-go/internal/domain"
	"github.com/kapu/recipe-telegram-bot-go/internal/flow"
	"github.com/kapu/recipe-telegram-bot-go/internal/service/ai"
	"github.com/kapu/recipe-telegram-bot-go/internal/session"
	"go.uber.org/zap"
)

// Dependencies carries the assembled services the bot runs on.
type Dependencies struct {
	Config         *config.Config
	Logger         *zap.Logger
	MessageAdapter *adapter.MessageAdapter
	Formatter      *adapter.ResponseFormatter
	Sessions       *session.Store
	Catalog        flow.Catalog
	Translator     *ai.TranslationService
}

// Bot is the long-polling Telegram bot.
type Bot struct {
	api        *tgbotapi.BotAPI
	deps       *Dependencies
	flow       *flow.Flow
	registry   *command.Registry
	dispatcher command.Dispatcher
	logger     *zap.Logger
}

// NewBot authenticates against the Telegram API and assembles the command
// registry and conversation flow around it.
func NewBot(deps *Dependencies) (*Bot, error) {
	if deps == nil || deps.Config == nil {
		return nil, fmt.Errorf("bot dependencies not initialized")
	}

	api, err := tgbotapi.NewBotAPI(deps.Config.Telegram.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	b := &Bot{
		api:    api,
		deps:   deps,
		logger: deps.Logger,
	}

	b.flow = flow.New(deps.Sessions, deps.Catalog, deps.Translator, b, deps.Formatter, deps.Logger)

	cmdDeps := &command.Dependencies{
		Flow:      b.flow,
		Formatter: deps.Formatter,
		SendMessage: func(chatID int64, message string) error {
			return b.SendHTML(context.Background(), chatID, message)
		},
		SendError: func(chatID int64, message string) error {
			return b.SendText(context.Background(), chatID, message)
		},
		Logger: deps.Logger,
	}

	b.registry = command.NewRegistry()
	b.registry.Register(command.NewStartCommand(cmdDeps))
	b.registry.Register(command.NewHelpCommand(cmdDeps))
	b.registry.Register(command.NewRandomCommand(cmdDeps))

	b.dispatcher = command.NewSequentialDispatcher(b.registry, func(cmdType domain.CommandType, params map[string]any) (string, map[string]any) {
		return cmdType.String(), params
	})

	return b, nil
}

// Start registers the command menu and consumes updates until the context is
// cancelled.
func (b *Bot) Start(ctx context.Context) error {
	b.logger.Info("Telegram bot authorized",
		zap.String("username", b.api.Self.UserName),
		zap.Int("commands", b.registry.Count()),
	)

	if err := b.registerCommandMenu(); err != nil {
		b.logger.Warn("Failed to register command menu", zap.Error(err))
	}

	updateCfg := tgbotapi.NewUpdate(0)
	updateCfg.Timeout = constants.TelegramConfig.UpdateTimeoutSeconds

	updates := b.api.GetUpdatesChan(updateCfg)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			// Each update gets its own goroutine so a slow turn (detail
			// fan-out, translation) never stalls other users. The session
			// store serializes state access per user.
			go b.handleUpdate(ctx, update)
		}
	}
}

// Shutdown stops the update stream.
func (b *Bot) Shutdown(ctx context.Context) error {
	b.api.StopReceivingUpdates()
	b.logger.Info("Telegram update stream stopped")
	return nil
}

// SendText sends a plain text message.
func (b *Bot) SendText(_ context.Context, chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	_, err := b.api.Send(msg)
	return err
}

// SendHTML sends an HTML-formatted message.
func (b *Bot) SendHTML(_ context.Context, chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	_, err := b.api.Send(msg)
	return err
}

// SendKeyboard sends a message with an inline keyboard, one button per row.
func (b *Bot) SendKeyboard(_ context.Context, chatID int64, text string, buttons []flow.Button) error {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(buttons))
	for _, btn := range buttons {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(btn.Label, btn.Data),
		))
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Panic while handling update", zap.Any("panic", r))
		}
	}()

	if update.CallbackQuery != nil {
		b.handleCallback(ctx, update.CallbackQuery)
		return
	}
	if update.Message == nil || update.Message.Text == "" {
		return
	}

	chatID := update.Message.Chat.ID
	text := update.Message.Text

	if b.deps.MessageAdapter.IsCommand(text) {
		b.handleCommand(ctx, update.Message)
		return
	}

	consumed, err := b.flow.HandleText(ctx, chatID, text)
	if err != nil {
		b.logger.Error("Failed to handle text message",
			zap.Int64("chat_id", chatID),
			zap.Error(err),
		)
	}
	if !consumed {
		b.logger.Debug("Ignoring free text outside a conversation",
			zap.Int64("chat_id", chatID),
		)
	}
}

func (b *Bot) handleCommand(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID
	parsed := b.deps.MessageAdapter.ParseMessage(message.Text)

	if parsed.Type == domain.CommandUnknown {
		b.logger.Debug("Unknown command",
			zap.Int64("chat_id", chatID),
			zap.String("text", message.Text),
		)
		return
	}

	cmdCtx := domain.NewCommandContext(chatID, senderID(message), senderName(message), message.Text)

	_, err := b.dispatcher.Publish(ctx, cmdCtx, command.CommandEvent{
		Type:   parsed.Type,
		Params: parsed.Params,
	})
	if err != nil && !errors.Is(err, command.ErrUnknownCommand) {
		b.logger.Error("Command execution failed",
			zap.String("command", parsed.Type.String()),
			zap.Int64("chat_id", chatID),
			zap.Error(err),
		)
	}
}

func (b *Bot) handleCallback(ctx context.Context, callback *tgbotapi.CallbackQuery) {
	// Acknowledge immediately so the button stops spinning.
	if _, err := b.api.Request(tgbotapi.NewCallback(callback.ID, "")); err != nil {
		b.logger.Warn("Failed to answer callback query", zap.Error(err))
	}

	if callback.Message == nil {
		return
	}
	chatID := callback.Message.Chat.ID

	if err := b.flow.HandleCallback(ctx, chatID, callback.Data); err != nil {
		b.logger.Error("Failed to handle callback",
			zap.Int64("chat_id", chatID),
			zap.String("data", callback.Data),
			zap.Error(err),
		)
	}
}

func (b *Bot) registerCommandMenu() error {
	commands := make([]tgbotapi.BotCommand, 0, b.registry.Count())
	for _, handler := range b.registry.All() {
		commands = append(commands, tgbotapi.BotCommand{
			Command:     handler.Name(),
			Description: handler.Description(),
		})
	}

	_, err := b.api.Request(tgbotapi.NewSetMyCommands(commands...))
	return err
}

func senderID(message *tgbotapi.Message) int64 {
	if message.From == nil {
		return message.Chat.ID
	}
	return message.From.ID
}

func senderName(message *tgbotapi.Message) string {
	if message.From == nil {
		return ""
	}
	name := message.From.FirstName
	if message.From.LastName != "" {
		name = strings.TrimSpace(name + " " + message.From.LastName)
	}
	return name
}

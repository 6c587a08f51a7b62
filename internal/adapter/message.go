package adapter

import (
	"strings"

	"github.com/kapu/recipe-telegram-bot-go/internal/domain"
	"github.com/kapu/recipe-telegram-bot-go/internal/util"
)

// MessageAdapter converts inbound Telegram messages to bot commands
type MessageAdapter struct{}

// NewMessageAdapter creates a new MessageAdapter
func NewMessageAdapter() *MessageAdapter {
	return &MessageAdapter{}
}

// ParsedCommand represents a parsed command
type ParsedCommand struct {
	Type       domain.CommandType
	Params     map[string]any
	RawMessage string
}

// ParseMessage parses a Telegram message text into a command. Commands start
// with a slash; "/random 3" carries the requested count as a raw argument,
// validation happens in the handler.
func (ma *MessageAdapter) ParseMessage(text string) *ParsedCommand {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || !strings.HasPrefix(trimmed, "/") {
		return ma.createUnknownCommand(trimmed)
	}

	parts := strings.Fields(trimmed[1:])
	if len(parts) == 0 {
		return ma.createUnknownCommand(trimmed)
	}

	// Telegram group chats append the bot name: /random@RecipeBot
	command := util.Normalize(parts[0])
	if at := strings.Index(command, "@"); at >= 0 {
		command = command[:at]
	}
	args := parts[1:]

	switch command {
	case "start":
		return &ParsedCommand{
			Type:       domain.CommandStart,
			Params:     make(map[string]any),
			RawMessage: trimmed,
		}
	case "help":
		return &ParsedCommand{
			Type:       domain.CommandHelp,
			Params:     make(map[string]any),
			RawMessage: trimmed,
		}
	case "random", "category_search_random":
		params := make(map[string]any)
		if len(args) > 0 {
			params["count"] = args[0]
		}
		return &ParsedCommand{
			Type:       domain.CommandRandom,
			Params:     params,
			RawMessage: trimmed,
		}
	default:
		return ma.createUnknownCommand(trimmed)
	}
}

// IsCommand reports whether the text looks like a slash command.
func (ma *MessageAdapter) IsCommand(text string) bool {
	return strings.HasPrefix(strings.TrimSpace(text), "/")
}

func (ma *MessageAdapter) createUnknownCommand(raw string) *ParsedCommand {
	return &ParsedCommand{
		Type:       domain.CommandUnknown,
		Params:     make(map[string]any),
		RawMessage: raw,
	}
}

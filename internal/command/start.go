package command

import (
	"context"

	"github.com/kapu/recipe-telegram-bot-go/internal/domain"
)

type StartCommand struct {
	deps *Dependencies
}

func NewStartCommand(deps *Dependencies) *StartCommand {
	return &StartCommand{deps: deps}
}

func (c *StartCommand) Name() string {
	return "start"
}

func (c *StartCommand) Description() string {
	return "Приветствие и краткая инструкция"
}

func (c *StartCommand) Execute(ctx context.Context, cmdCtx *domain.CommandContext, params map[string]any) error {
	message := c.deps.Formatter.FormatStart(cmdCtx.Sender)
	return c.deps.SendMessage(cmdCtx.ChatID, message)
}

package command

import (
	"context"

	"github.com/kapu/recipe-telegram-bot-go/internal/domain"
)

type HelpCommand struct {
	deps *Dependencies
}

func NewHelpCommand(deps *Dependencies) *HelpCommand {
	return &HelpCommand{deps: deps}
}

func (c *HelpCommand) Name() string {
	return "help"
}

func (c *HelpCommand) Description() string {
	return "Список команд"
}

func (c *HelpCommand) Execute(ctx context.Context, cmdCtx *domain.CommandContext, params map[string]any) error {
	message := c.deps.Formatter.FormatHelp()
	return c.deps.SendMessage(cmdCtx.ChatID, message)
}

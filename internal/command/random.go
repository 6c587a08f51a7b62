package command

import (
	"context"
	"strconv"
	"strings"

	"github.com/kapu/recipe-telegram-bot-go/internal/domain"
	"go.uber.org/zap"
)

// RandomCommand starts the random-recipe conversation. With a numeric
// argument it jumps straight to category selection, otherwise it asks for
// the count first.
type RandomCommand struct {
	deps *Dependencies
}

func NewRandomCommand(deps *Dependencies) *RandomCommand {
	return &RandomCommand{deps: deps}
}

func (c *RandomCommand) Name() string {
	return "random"
}

func (c *RandomCommand) Description() string {
	return "Случайные рецепты по категории"
}

// Execute keys the conversation by chat id, the same key the text and
// callback paths use, so replies always land in the chat the command came
// from.
func (c *RandomCommand) Execute(ctx context.Context, cmdCtx *domain.CommandContext, params map[string]any) error {
	if raw, ok := params["count"].(string); ok {
		trimmed := strings.TrimSpace(raw)
		if count, err := strconv.Atoi(trimmed); err == nil && count > 0 {
			return c.deps.Flow.BeginCategorySelection(ctx, cmdCtx.ChatID, count)
		}
		c.deps.Logger.Debug("Ignoring invalid count argument",
			zap.String("raw", raw),
			zap.Int64("chat_id", cmdCtx.ChatID),
		)
	}

	return c.deps.Flow.PromptForCount(ctx, cmdCtx.ChatID)
}

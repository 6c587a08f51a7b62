package command

import (
	"context"

	"github.com/kapu/recipe-telegram-bot-go/internal/adapter"
	"github.com/kapu/recipe-telegram-bot-go/internal/domain"
	"go.uber.org/zap"
)

type Command interface {
	Name() string
	Description() string
	Execute(ctx context.Context, cmdCtx *domain.CommandContext, params map[string]any) error
}

// RecipeFlow is the slice of the conversation engine the commands drive.
// Conversations are keyed by chat id.
type RecipeFlow interface {
	PromptForCount(ctx context.Context, chatID int64) error
	BeginCategorySelection(ctx context.Context, chatID int64, count int) error
}

type Dependencies struct {
	Flow        RecipeFlow
	Formatter   *adapter.ResponseFormatter
	SendMessage func(chatID int64, message string) error
	SendError   func(chatID int64, message string) error
	Logger      *zap.Logger
}

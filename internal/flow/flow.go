// Package flow implements the multi-turn recipe conversation:
// count intake → category selection → preview confirmation → detail render.
package flow

import (
	"context"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/kapu/recipe-telegram-bot-go/internal/adapter"
	"github.com/kapu/recipe-telegram-bot-go/internal/constants"
	"github.com/kapu/recipe-telegram-bot-go/internal/domain"
	"github.com/kapu/recipe-telegram-bot-go/internal/session"
	"github.com/kapu/recipe-telegram-bot-go/internal/util"
	"github.com/kapu/recipe-telegram-bot-go/pkg/errors"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

const (
	// CategoryCallbackPrefix marks category-selection callback tokens.
	CategoryCallbackPrefix = "cat:"
	// ConfirmCallbackData is the callback token of the confirmation button.
	ConfirmCallbackData = "show_recipes"
)

// Catalog is the recipe catalog contract the flow needs.
type Catalog interface {
	ListCategories(ctx context.Context) ([]domain.Category, error)
	ListRecipesByCategory(ctx context.Context, category domain.Category) ([]domain.RecipeSummary, error)
	LookupRecipe(ctx context.Context, id string) (*domain.RecipeDetail, error)
}

// Translator translates batches of text, preserving input order.
type Translator interface {
	TranslateAll(ctx context.Context, texts []string) []string
}

// Button is one selectable option attached to an outbound message.
type Button struct {
	Label string
	Data  string
}

// Sender delivers messages back to the chat transport.
type Sender interface {
	SendText(ctx context.Context, chatID int64, text string) error
	SendHTML(ctx context.Context, chatID int64, text string) error
	SendKeyboard(ctx context.Context, chatID int64, text string, buttons []Button) error
}

// Flow drives the per-user conversation state machine.
type Flow struct {
	sessions   *session.Store
	catalog    Catalog
	translator Translator
	sender     Sender
	formatter  *adapter.ResponseFormatter
	logger     *zap.Logger

	rngMu sync.Mutex
	rng   *rand.Rand
}

func New(
	sessions *session.Store,
	catalog Catalog,
	translator Translator,
	sender Sender,
	formatter *adapter.ResponseFormatter,
	logger *zap.Logger,
) *Flow {
	return &Flow{
		sessions:   sessions,
		catalog:    catalog,
		translator: translator,
		sender:     sender,
		formatter:  formatter,
		logger:     logger,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// PromptForCount asks the user how many recipes they want and moves the
// conversation to the awaiting-count step.
func (f *Flow) PromptForCount(ctx context.Context, chatID int64) error {
	if err := f.sender.SendText(ctx, chatID, f.formatter.FormatCountPrompt()); err != nil {
		return err
	}
	f.sessions.SetStep(chatID, domain.StepAwaitingCount)
	return nil
}

// BeginCategorySelection stores the requested count and presents the category
// keyboard. A catalog failure or an empty category list abandons the turn and
// resets the session.
func (f *Flow) BeginCategorySelection(ctx context.Context, chatID int64, count int) error {
	f.sessions.SetCount(chatID, count)

	categories, err := f.catalog.ListCategories(ctx)
	if err != nil || len(categories) == 0 {
		f.logger.Error("Category fetch failed",
			zap.Int64("chat_id", chatID),
			zap.Int("count", len(categories)),
			zap.Error(err),
		)
		f.sessions.Clear(chatID)
		return f.sender.SendText(ctx, chatID, f.formatter.FormatUpstreamFailure())
	}

	buttons := make([]Button, 0, len(categories))
	for _, cat := range categories {
		buttons = append(buttons, Button{
			Label: cat.String(),
			Data:  CategoryCallbackPrefix + cat.String(),
		})
	}

	if err := f.sender.SendKeyboard(ctx, chatID, f.formatter.FormatCategoryPrompt(count), buttons); err != nil {
		return err
	}

	f.sessions.SetStep(chatID, domain.StepAwaitingCategory)
	return nil
}

// HandleText processes a plain text message. It only acts while the user is
// in the awaiting-count step; the returned flag reports whether the message
// was consumed.
func (f *Flow) HandleText(ctx context.Context, chatID int64, text string) (bool, error) {
	sess := f.sessions.Get(chatID)
	if sess.Step != domain.StepAwaitingCount {
		return false, nil
	}

	trimmed := strings.TrimSpace(text)
	count, convErr := strconv.Atoi(trimmed)
	if !util.IsDigits(trimmed) || convErr != nil {
		vErr := errors.NewValidationError("recipe count must be a number", "count", trimmed)
		f.logger.Warn("Rejected count input",
			zap.Int64("chat_id", chatID),
			zap.Error(vErr),
		)
		// Validation reply; the step stays put so the user can retry.
		return true, f.sender.SendText(ctx, chatID, f.formatter.FormatInvalidCount())
	}

	return true, f.BeginCategorySelection(ctx, chatID, count)
}

// HandleCallback processes a button press. Stale or out-of-step callbacks are
// ignored: the step machine only moves forward.
func (f *Flow) HandleCallback(ctx context.Context, chatID int64, data string) error {
	sess := f.sessions.Get(chatID)

	switch {
	case strings.HasPrefix(data, CategoryCallbackPrefix):
		if sess.Step != domain.StepAwaitingCategory {
			f.logger.Debug("Ignoring stale category callback",
				zap.Int64("chat_id", chatID),
				zap.String("step", sess.Step.String()),
			)
			return nil
		}
		category := domain.Category(strings.TrimPrefix(data, CategoryCallbackPrefix))
		return f.selectRecipes(ctx, chatID, category, sess.RequestedCount)

	case data == ConfirmCallbackData:
		if sess.Step != domain.StepAwaitingConfirm {
			f.logger.Debug("Ignoring stale confirm callback",
				zap.Int64("chat_id", chatID),
				zap.String("step", sess.Step.String()),
			)
			return nil
		}
		return f.renderDetails(ctx, chatID, sess.SelectedRecipeIDs)

	default:
		f.logger.Warn("Unknown callback token", zap.String("data", data))
		return nil
	}
}

// selectRecipes fetches the category's recipes, samples with replacement and
// shows the translated preview with the confirmation button.
func (f *Flow) selectRecipes(ctx context.Context, chatID int64, category domain.Category, requested int) error {
	summaries, err := f.catalog.ListRecipesByCategory(ctx, category)
	if err != nil {
		f.logger.Error("Recipe list fetch failed",
			zap.String("category", category.String()),
			zap.Error(err),
		)
		f.sessions.Clear(chatID)
		return f.sender.SendText(ctx, chatID, f.formatter.FormatUpstreamFailure())
	}

	effective := util.Min(requested, len(summaries))
	if effective <= 0 {
		emptyErr := errors.NewEmptyResultError(category.String())
		f.logger.Info("No recipes to sample",
			zap.Int("available", len(summaries)),
			zap.Int("requested", requested),
			zap.Error(emptyErr),
		)
		f.sessions.Clear(chatID)
		return f.sender.SendText(ctx, chatID, f.formatter.FormatNoRecipes())
	}

	sampled := f.sampleWithReplacement(summaries, effective)

	ids := make([]string, len(sampled))
	names := make([]string, len(sampled))
	for i, summary := range sampled {
		ids[i] = summary.ID
		names[i] = summary.Name
	}
	f.sessions.SetSelection(chatID, ids)

	translatedNames := f.translator.TranslateAll(ctx, names)

	preview := f.formatter.FormatPreview(translatedNames)
	confirm := []Button{{Label: adapter.ConfirmButtonLabel, Data: ConfirmCallbackData}}
	if err := f.sender.SendKeyboard(ctx, chatID, preview, confirm); err != nil {
		return err
	}

	f.sessions.SetStep(chatID, domain.StepAwaitingConfirm)
	return nil
}

// renderDetails fetches every selected recipe concurrently, translates and
// renders one message per recipe in sampled order, then always resets the
// session.
func (f *Flow) renderDetails(ctx context.Context, chatID int64, ids []string) error {
	defer f.sessions.Clear(chatID)

	if len(ids) == 0 {
		return f.sender.SendText(ctx, chatID, f.formatter.FormatNothingToShow())
	}

	fetchCtx, cancel := context.WithTimeout(ctx, constants.RecipeConfig.DetailTimeout)
	defer cancel()

	details := make([]*domain.RecipeDetail, len(ids))
	detailsMu := sync.Mutex{}

	p := pool.New().WithMaxGoroutines(constants.RecipeConfig.DetailConcurrency)
	for idx, id := range ids {
		idx, id := idx, id
		p.Go(func() {
			detail, err := f.catalog.LookupRecipe(fetchCtx, id)
			if err != nil {
				f.logger.Warn("Recipe lookup failed, skipping",
					zap.String("id", id),
					zap.Error(err),
				)
				return
			}
			detailsMu.Lock()
			details[idx] = detail
			detailsMu.Unlock()
		})
	}
	p.Wait()

	for _, detail := range details {
		if detail == nil {
			// Withdrawn upstream; the spent id is not retried.
			continue
		}

		texts := make([]string, 0, 2+len(detail.Ingredients))
		texts = append(texts, detail.Name, detail.Instructions)
		ingredients := detail.IngredientStrings()
		texts = append(texts, ingredients...)

		translated := f.translator.TranslateAll(fetchCtx, texts)

		message := f.formatter.FormatRecipeDetail(translated[0], translated[1], translated[2:])
		if err := f.sender.SendHTML(ctx, chatID, message); err != nil {
			f.logger.Error("Failed to send recipe message",
				zap.String("id", detail.ID),
				zap.Error(err),
			)
		}
	}

	return nil
}

// sampleWithReplacement draws count recipes uniformly at random, with
// replacement: duplicates are possible and accepted.
func (f *Flow) sampleWithReplacement(summaries []domain.RecipeSummary, count int) []domain.RecipeSummary {
	f.rngMu.Lock()
	defer f.rngMu.Unlock()

	sampled := make([]domain.RecipeSummary, count)
	for i := 0; i < count; i++ {
		sampled[i] = summaries[f.rng.Intn(len(summaries))]
	}
	return sampled
}

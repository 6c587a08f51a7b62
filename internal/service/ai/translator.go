package ai

import (
	"context"
	"strings"
	"sync"

	"github.com/kapu/recipe-telegram-bot-go/internal/constants"
	"github.com/kapu/recipe-telegram-bot-go/internal/prompt"
	"github.com/kapu/recipe-telegram-bot-go/pkg/errors"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

// TextGenerator is the slice of the model layer the translator needs.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// TranslationService translates recipe text between a fixed language pair.
type TranslationService struct {
	generator  TextGenerator
	sourceLang string
	targetLang string
	logger     *zap.Logger
}

func NewTranslationService(generator TextGenerator, sourceLang, targetLang string, logger *zap.Logger) *TranslationService {
	return &TranslationService{
		generator:  generator,
		sourceLang: sourceLang,
		targetLang: targetLang,
		logger:     logger,
	}
}

// Translate translates a single text. Empty input short-circuits to empty
// output without touching a provider.
func (ts *TranslationService) Translate(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", nil
	}

	translatePrompt, err := prompt.BuildTranslate(prompt.TranslateVars{
		SourceLang: ts.sourceLang,
		TargetLang: ts.targetLang,
		Text:       text,
	})
	if err != nil {
		return "", errors.NewTranslationError("failed to build translation prompt", text, err)
	}

	result, err := ts.generator.GenerateText(ctx, translatePrompt)
	if err != nil {
		return "", errors.NewTranslationError("translation failed", text, err)
	}

	return strings.TrimSpace(result), nil
}

// TranslateAll translates every text concurrently and returns the results in
// input order. A failed item falls back to its source text so one bad
// translation never sinks the batch.
func (ts *TranslationService) TranslateAll(ctx context.Context, texts []string) []string {
	results := make([]string, len(texts))
	if len(texts) == 0 {
		return results
	}

	resultsMu := sync.Mutex{}
	p := pool.New().WithMaxGoroutines(constants.TranslateConfig.MaxConcurrency)

	for idx, text := range texts {
		idx, text := idx, text
		p.Go(func() {
			itemCtx, cancel := context.WithTimeout(ctx, constants.TranslateConfig.ItemTimeout)
			defer cancel()

			translated, err := ts.Translate(itemCtx, text)
			if err != nil {
				ts.logger.Warn("Translation failed, falling back to source text",
					zap.Error(err),
					zap.Int("index", idx),
				)
				translated = text
			}

			resultsMu.Lock()
			results[idx] = translated
			resultsMu.Unlock()
		})
	}

	p.Wait()
	return results
}

package ai

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"testing"

	"github.com/kapu/recipe-telegram-bot-go/pkg/errors"
	"go.uber.org/zap"
)

type fakeGenerator struct {
	failOn map[string]bool
}

func (f *fakeGenerator) GenerateText(_ context.Context, prompt string) (string, error) {
	// The source text is the last line of the prompt template.
	lines := strings.Split(strings.TrimSpace(prompt), "\n")
	source := lines[len(lines)-1]
	if f.failOn[source] {
		return "", fmt.Errorf("provider exploded")
	}
	return "ru(" + source + ")", nil
}

func TestTranslateEmptyInputSkipsProvider(t *testing.T) {
	ts := NewTranslationService(&fakeGenerator{}, "en", "ru", zap.NewNop())

	out, err := ts.Translate(context.Background(), "   ")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if out != "" {
		t.Fatalf("empty input must yield empty output, got %q", out)
	}
}

func TestTranslateWrapsProviderError(t *testing.T) {
	ts := NewTranslationService(&fakeGenerator{failOn: map[string]bool{"Beef Wellington": true}}, "en", "ru", zap.NewNop())

	_, err := ts.Translate(context.Background(), "Beef Wellington")
	if err == nil {
		t.Fatal("expected error")
	}
	var trErr *errors.TranslationError
	if !stderrors.As(err, &trErr) {
		t.Fatalf("expected TranslationError, got %T", err)
	}
	if trErr.SourceText != "Beef Wellington" {
		t.Fatalf("unexpected source text: %q", trErr.SourceText)
	}
}

func TestTranslateAllPreservesOrder(t *testing.T) {
	ts := NewTranslationService(&fakeGenerator{}, "en", "ru", zap.NewNop())

	texts := []string{"alpha", "bravo", "charlie", "delta", "echo", "foxtrot"}
	results := ts.TranslateAll(context.Background(), texts)

	if len(results) != len(texts) {
		t.Fatalf("expected %d results, got %d", len(texts), len(results))
	}
	for i, text := range texts {
		expected := "ru(" + text + ")"
		if results[i] != expected {
			t.Fatalf("order broken at %d: expected %q, got %q", i, expected, results[i])
		}
	}
}

func TestTranslateAllFallsBackToSourceOnFailure(t *testing.T) {
	ts := NewTranslationService(&fakeGenerator{failOn: map[string]bool{"bravo": true}}, "en", "ru", zap.NewNop())

	results := ts.TranslateAll(context.Background(), []string{"alpha", "bravo", "charlie"})

	if results[0] != "ru(alpha)" || results[2] != "ru(charlie)" {
		t.Fatalf("siblings must still translate, got %v", results)
	}
	if results[1] != "bravo" {
		t.Fatalf("failed item must fall back to source text, got %q", results[1])
	}
}

func TestTranslateAllEmptyBatch(t *testing.T) {
	ts := NewTranslationService(&fakeGenerator{}, "en", "ru", zap.NewNop())

	results := ts.TranslateAll(context.Background(), nil)
	if len(results) != 0 {
		t.Fatalf("expected empty result, got %v", results)
	}
}

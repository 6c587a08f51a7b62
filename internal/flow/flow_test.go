package flow

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/kapu/recipe-telegram-bot-go/internal/adapter"
	"github.com/kapu/recipe-telegram-bot-go/internal/domain"
	"github.com/kapu/recipe-telegram-bot-go/internal/session"
	"github.com/kapu/recipe-telegram-bot-go/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const testChatID int64 = 42

type fakeCatalog struct {
	categories []domain.Category
	catErr     error
	recipes    map[domain.Category][]domain.RecipeSummary
	listErr    error
	details    map[string]*domain.RecipeDetail
}

func (f *fakeCatalog) ListCategories(_ context.Context) ([]domain.Category, error) {
	return f.categories, f.catErr
}

func (f *fakeCatalog) ListRecipesByCategory(_ context.Context, category domain.Category) ([]domain.RecipeSummary, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.recipes[category], nil
}

func (f *fakeCatalog) LookupRecipe(_ context.Context, id string) (*domain.RecipeDetail, error) {
	return f.details[id], nil
}

type fakeTranslator struct{}

func (f *fakeTranslator) TranslateAll(_ context.Context, texts []string) []string {
	results := make([]string, len(texts))
	for i, text := range texts {
		results[i] = "ru(" + text + ")"
	}
	return results
}

type sentKeyboard struct {
	text    string
	buttons []Button
}

type fakeSender struct {
	mu        sync.Mutex
	texts     []string
	htmls     []string
	keyboards []sentKeyboard
}

func (f *fakeSender) SendText(_ context.Context, _ int64, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, text)
	return nil
}

func (f *fakeSender) SendHTML(_ context.Context, _ int64, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.htmls = append(f.htmls, text)
	return nil
}

func (f *fakeSender) SendKeyboard(_ context.Context, _ int64, text string, buttons []Button) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keyboards = append(f.keyboards, sentKeyboard{text: text, buttons: buttons})
	return nil
}

func summaries(n int) []domain.RecipeSummary {
	result := make([]domain.RecipeSummary, n)
	for i := range result {
		result[i] = domain.RecipeSummary{
			ID:   fmt.Sprintf("520%d", i+1),
			Name: fmt.Sprintf("Recipe %d", i+1),
		}
	}
	return result
}

func details(ids ...string) map[string]*domain.RecipeDetail {
	result := make(map[string]*domain.RecipeDetail, len(ids))
	for _, id := range ids {
		result[id] = &domain.RecipeDetail{
			ID:           id,
			Name:         "Dish " + id,
			Instructions: "Cook it.",
			Ingredients: []domain.Ingredient{
				{Name: "Flour", Measure: "120g"},
				{Name: "Butter", Measure: ""},
			},
		}
	}
	return result
}

func newTestFlow(catalog *fakeCatalog) (*Flow, *session.Store, *fakeSender) {
	store := session.NewStore()
	sender := &fakeSender{}
	f := New(store, catalog, &fakeTranslator{}, sender, adapter.NewResponseFormatter(), zap.NewNop())
	return f, store, sender
}

func TestPromptForCountMovesToAwaitingCount(t *testing.T) {
	f, store, sender := newTestFlow(&fakeCatalog{})

	if err := f.PromptForCount(context.Background(), testChatID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if store.Get(testChatID).Step != domain.StepAwaitingCount {
		t.Fatalf("expected awaiting-count step, got %s", store.Get(testChatID).Step)
	}
	if len(sender.texts) != 1 {
		t.Fatalf("expected one prompt message, got %d", len(sender.texts))
	}
}

func TestBeginCategorySelectionShowsCategoryKeyboard(t *testing.T) {
	catalog := &fakeCatalog{categories: []domain.Category{"Dessert", "Seafood"}}
	f, store, sender := newTestFlow(catalog)

	if err := f.BeginCategorySelection(context.Background(), testChatID, 3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sess := store.Get(testChatID)
	if sess.Step != domain.StepAwaitingCategory {
		t.Fatalf("expected awaiting-category step, got %s", sess.Step)
	}
	if sess.RequestedCount != 3 {
		t.Fatalf("expected stored count 3, got %d", sess.RequestedCount)
	}

	if len(sender.keyboards) != 1 {
		t.Fatalf("expected one keyboard, got %d", len(sender.keyboards))
	}
	kb := sender.keyboards[0]
	if len(kb.buttons) != 2 {
		t.Fatalf("expected 2 category buttons, got %d", len(kb.buttons))
	}
	if kb.buttons[0].Data != "cat:Dessert" || kb.buttons[1].Data != "cat:Seafood" {
		t.Fatalf("unexpected callback tokens: %+v", kb.buttons)
	}
}

func TestCategoryFetchFailureResetsSession(t *testing.T) {
	catalog := &fakeCatalog{catErr: fmt.Errorf("upstream down")}
	f, store, sender := newTestFlow(catalog)

	if err := f.BeginCategorySelection(context.Background(), testChatID, 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if store.Get(testChatID).Step != domain.StepIdle {
		t.Fatalf("session must reset to idle after upstream failure")
	}
	if len(sender.texts) != 1 || !strings.Contains(sender.texts[0], "❌") {
		t.Fatalf("expected a failure message, got %v", sender.texts)
	}
}

func TestHandleTextIgnoredOutsideAwaitingCount(t *testing.T) {
	f, _, sender := newTestFlow(&fakeCatalog{})

	consumed, err := f.HandleText(context.Background(), testChatID, "3")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if consumed {
		t.Fatal("idle sessions must not consume plain text")
	}
	if len(sender.texts) != 0 {
		t.Fatalf("no reply expected, got %v", sender.texts)
	}
}

func TestHandleTextNonNumericKeepsStep(t *testing.T) {
	f, store, sender := newTestFlow(&fakeCatalog{})
	store.SetStep(testChatID, domain.StepAwaitingCount)

	consumed, err := f.HandleText(context.Background(), testChatID, "abc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !consumed {
		t.Fatal("awaiting-count text must be consumed")
	}
	if sender.texts[0] != adapter.NewResponseFormatter().FormatInvalidCount() {
		t.Fatalf("expected validation reply, got %q", sender.texts[0])
	}
	if store.Get(testChatID).Step != domain.StepAwaitingCount {
		t.Fatal("step must stay at awaiting-count so the user can retry")
	}
}

func TestHandleTextNumericAdvancesToCategory(t *testing.T) {
	catalog := &fakeCatalog{categories: []domain.Category{"Dessert"}}
	f, store, _ := newTestFlow(catalog)
	store.SetStep(testChatID, domain.StepAwaitingCount)

	consumed, err := f.HandleText(context.Background(), testChatID, " 2 ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !consumed {
		t.Fatal("numeric text must be consumed")
	}

	sess := store.Get(testChatID)
	if sess.Step != domain.StepAwaitingCategory || sess.RequestedCount != 2 {
		t.Fatalf("expected awaiting-category with count 2, got %+v", sess)
	}
}

func TestCategorySelectionSamplesAndPreviews(t *testing.T) {
	catalog := &fakeCatalog{
		recipes: map[domain.Category][]domain.RecipeSummary{
			"Dessert": summaries(5),
		},
	}
	f, store, sender := newTestFlow(catalog)
	store.SetCount(testChatID, 3)
	store.SetStep(testChatID, domain.StepAwaitingCategory)

	if err := f.HandleCallback(context.Background(), testChatID, "cat:Dessert"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sess := store.Get(testChatID)
	if sess.Step != domain.StepAwaitingConfirm {
		t.Fatalf("expected awaiting-confirm step, got %s", sess.Step)
	}
	if len(sess.SelectedRecipeIDs) != 3 {
		t.Fatalf("expected 3 selected ids, got %v", sess.SelectedRecipeIDs)
	}

	if len(sender.keyboards) != 1 {
		t.Fatalf("expected one preview keyboard, got %d", len(sender.keyboards))
	}
	kb := sender.keyboards[0]
	if !strings.HasPrefix(kb.text, "Как Вам такие варианты:") {
		t.Fatalf("unexpected preview header: %q", kb.text)
	}
	if strings.Count(kb.text, "\n• ") != 3 {
		t.Fatalf("expected 3 preview lines, got %q", kb.text)
	}
	if !strings.Contains(kb.text, "ru(Recipe ") {
		t.Fatalf("preview names must be translated, got %q", kb.text)
	}
	if len(kb.buttons) != 1 || kb.buttons[0].Data != ConfirmCallbackData {
		t.Fatalf("expected the confirm button, got %+v", kb.buttons)
	}
}

func TestRequestedCountClampsToPoolSize(t *testing.T) {
	catalog := &fakeCatalog{
		recipes: map[domain.Category][]domain.RecipeSummary{
			"Starter": summaries(2),
		},
	}
	f, store, _ := newTestFlow(catalog)
	store.SetCount(testChatID, 10)
	store.SetStep(testChatID, domain.StepAwaitingCategory)

	if err := f.HandleCallback(context.Background(), testChatID, "cat:Starter"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := len(store.Get(testChatID).SelectedRecipeIDs); got != 2 {
		t.Fatalf("expected selection clamped to 2, got %d", got)
	}
}

func TestSingleRecipePoolYieldsDuplicates(t *testing.T) {
	catalog := &fakeCatalog{
		recipes: map[domain.Category][]domain.RecipeSummary{
			"Vegan": summaries(1),
		},
	}
	f, store, _ := newTestFlow(catalog)
	store.SetCount(testChatID, 3)
	store.SetStep(testChatID, domain.StepAwaitingCategory)

	if err := f.HandleCallback(context.Background(), testChatID, "cat:Vegan"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ids := store.Get(testChatID).SelectedRecipeIDs
	if len(ids) != 1 {
		t.Fatalf("requested 3 from a pool of 1, expected 1 selected, got %v", ids)
	}
	if ids[0] != "5201" {
		t.Fatalf("unexpected id: %v", ids)
	}
}

func TestEmptyCategoryResetsSession(t *testing.T) {
	catalog := &fakeCatalog{recipes: map[domain.Category][]domain.RecipeSummary{}}
	f, store, sender := newTestFlow(catalog)
	store.SetCount(testChatID, 2)
	store.SetStep(testChatID, domain.StepAwaitingCategory)

	if err := f.HandleCallback(context.Background(), testChatID, "cat:Goat"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if store.Get(testChatID).Step != domain.StepIdle {
		t.Fatal("empty category must reset the session to idle")
	}
	if sender.texts[0] != adapter.NewResponseFormatter().FormatNoRecipes() {
		t.Fatalf("expected no-recipes message, got %q", sender.texts[0])
	}
	if len(sender.keyboards) != 0 {
		t.Fatal("no preview keyboard expected for an empty category")
	}
}

func TestConfirmRendersEachRecipeAndClears(t *testing.T) {
	catalog := &fakeCatalog{details: details("111", "222", "333")}
	f, store, sender := newTestFlow(catalog)
	store.SetCount(testChatID, 3)
	store.SetSelection(testChatID, []string{"111", "222", "333"})
	store.SetStep(testChatID, domain.StepAwaitingConfirm)

	if err := f.HandleCallback(context.Background(), testChatID, ConfirmCallbackData); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(sender.htmls) != 3 {
		t.Fatalf("expected 3 recipe messages, got %d", len(sender.htmls))
	}
	// Sampled order is preserved in the rendered output.
	for i, id := range []string{"111", "222", "333"} {
		if !strings.Contains(sender.htmls[i], "ru(Dish "+id+")") {
			t.Fatalf("message %d should render recipe %s, got %q", i, id, sender.htmls[i])
		}
		if !strings.Contains(sender.htmls[i], "<b>Рецепт:</b>") {
			t.Fatalf("message %d missing instructions section: %q", i, sender.htmls[i])
		}
		if !strings.Contains(sender.htmls[i], "ru(120g Flour)") {
			t.Fatalf("message %d missing translated ingredient: %q", i, sender.htmls[i])
		}
	}

	if store.Get(testChatID).Step != domain.StepIdle {
		t.Fatal("session must reset to idle after rendering")
	}
	if len(store.Get(testChatID).SelectedRecipeIDs) != 0 {
		t.Fatal("selection must be cleared after rendering")
	}
}

func TestConfirmSkipsWithdrawnRecipes(t *testing.T) {
	catalog := &fakeCatalog{details: details("111", "333")}
	f, store, sender := newTestFlow(catalog)
	store.SetSelection(testChatID, []string{"111", "222", "333"})
	store.SetStep(testChatID, domain.StepAwaitingConfirm)

	if err := f.HandleCallback(context.Background(), testChatID, ConfirmCallbackData); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(sender.htmls) != 2 {
		t.Fatalf("withdrawn recipe must be skipped, got %d messages", len(sender.htmls))
	}
	if store.Get(testChatID).Step != domain.StepIdle {
		t.Fatal("session must still reset after partial rendering")
	}
}

func TestConfirmWithEmptySelectionReportsNothing(t *testing.T) {
	f, store, sender := newTestFlow(&fakeCatalog{})
	store.SetStep(testChatID, domain.StepAwaitingConfirm)

	if err := f.HandleCallback(context.Background(), testChatID, ConfirmCallbackData); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if sender.texts[0] != adapter.NewResponseFormatter().FormatNothingToShow() {
		t.Fatalf("expected nothing-to-show message, got %q", sender.texts[0])
	}
	if store.Get(testChatID).Step != domain.StepIdle {
		t.Fatal("session must reset to idle")
	}
}

func TestStaleCallbacksAreIgnored(t *testing.T) {
	catalog := &fakeCatalog{
		recipes: map[domain.Category][]domain.RecipeSummary{"Dessert": summaries(3)},
		details: details("5201"),
	}
	f, store, sender := newTestFlow(catalog)

	// Idle user presses leftover buttons from an old conversation.
	if err := f.HandleCallback(context.Background(), testChatID, "cat:Dessert"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := f.HandleCallback(context.Background(), testChatID, ConfirmCallbackData); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(sender.texts)+len(sender.htmls)+len(sender.keyboards) != 0 {
		t.Fatal("stale callbacks must produce no output")
	}
	if store.Get(testChatID).Step != domain.StepIdle {
		t.Fatal("stale callbacks must not move the step machine")
	}
}

// loggedError digs the error field out of an observed log entry.
func loggedError(t *testing.T, logs *observer.ObservedLogs) error {
	t.Helper()
	for _, entry := range logs.All() {
		for _, field := range entry.Context {
			if field.Type == zapcore.ErrorType {
				if err, ok := field.Interface.(error); ok {
					return err
				}
			}
		}
	}
	t.Fatal("no error field logged")
	return nil
}

func TestInvalidCountEmitsValidationError(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	store := session.NewStore()
	sender := &fakeSender{}
	f := New(store, &fakeCatalog{}, &fakeTranslator{}, sender, adapter.NewResponseFormatter(), zap.New(core))
	store.SetStep(testChatID, domain.StepAwaitingCount)

	if _, err := f.HandleText(context.Background(), testChatID, "abc"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var vErr *errors.ValidationError
	if !stderrors.As(loggedError(t, logs), &vErr) {
		t.Fatal("rejected count must surface as a ValidationError")
	}
	if vErr.Field != "count" || vErr.Value != "abc" {
		t.Fatalf("unexpected field/value: %s/%v", vErr.Field, vErr.Value)
	}
}

func TestEmptyCategoryEmitsEmptyResultError(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	store := session.NewStore()
	sender := &fakeSender{}
	catalog := &fakeCatalog{recipes: map[domain.Category][]domain.RecipeSummary{}}
	f := New(store, catalog, &fakeTranslator{}, sender, adapter.NewResponseFormatter(), zap.New(core))
	store.SetCount(testChatID, 2)
	store.SetStep(testChatID, domain.StepAwaitingCategory)

	if err := f.HandleCallback(context.Background(), testChatID, "cat:Goat"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var emptyErr *errors.EmptyResultError
	if !stderrors.As(loggedError(t, logs), &emptyErr) {
		t.Fatal("empty category must surface as an EmptyResultError")
	}
	if emptyErr.Category != "Goat" {
		t.Fatalf("unexpected category: %s", emptyErr.Category)
	}
}

// gatedCatalog blocks every lookup until released, to simulate a slow
// upstream while another user's turn runs.
type gatedCatalog struct {
	fakeCatalog
	gate chan struct{}
}

func (g *gatedCatalog) LookupRecipe(ctx context.Context, id string) (*domain.RecipeDetail, error) {
	<-g.gate
	return g.fakeCatalog.LookupRecipe(ctx, id)
}

func TestSlowRenderDoesNotBlockOtherUsers(t *testing.T) {
	catalog := &gatedCatalog{
		fakeCatalog: fakeCatalog{
			categories: []domain.Category{"Dessert"},
			recipes:    map[domain.Category][]domain.RecipeSummary{"Dessert": summaries(2)},
			details:    details("5201", "5202"),
		},
		gate: make(chan struct{}),
	}
	f, store, _ := newTestFlow(&catalog.fakeCatalog)
	f.catalog = catalog

	const slowUser, fastUser int64 = 1, 2

	store.SetSelection(slowUser, []string{"5201", "5202"})
	store.SetStep(slowUser, domain.StepAwaitingConfirm)

	rendered := make(chan error, 1)
	go func() {
		rendered <- f.HandleCallback(context.Background(), slowUser, ConfirmCallbackData)
	}()

	// While the slow user's lookups hang, the fast user's turn completes.
	if err := f.PromptForCount(context.Background(), fastUser); err != nil {
		t.Fatalf("prompt: %v", err)
	}
	if _, err := f.HandleText(context.Background(), fastUser, "1"); err != nil {
		t.Fatalf("count: %v", err)
	}
	if store.Get(fastUser).Step != domain.StepAwaitingCategory {
		t.Fatal("fast user must advance while the slow user's render is in flight")
	}

	close(catalog.gate)
	if err := <-rendered; err != nil {
		t.Fatalf("render: %v", err)
	}
	if store.Get(slowUser).Step != domain.StepIdle {
		t.Fatal("slow user's session must still reset after the render completes")
	}
}

func TestFullConversationScenario(t *testing.T) {
	catalog := &fakeCatalog{
		categories: []domain.Category{"Dessert", "Seafood"},
		recipes: map[domain.Category][]domain.RecipeSummary{
			"Dessert": summaries(5),
		},
		details: details("5201", "5202", "5203", "5204", "5205"),
	}
	f, store, sender := newTestFlow(catalog)
	ctx := context.Background()

	// /random with no argument: ask for the count.
	if err := f.PromptForCount(ctx, testChatID); err != nil {
		t.Fatalf("prompt: %v", err)
	}

	// A typo first, then a valid count.
	if _, err := f.HandleText(ctx, testChatID, "abc"); err != nil {
		t.Fatalf("invalid count: %v", err)
	}
	if store.Get(testChatID).Step != domain.StepAwaitingCount {
		t.Fatal("typo must not advance the conversation")
	}
	if _, err := f.HandleText(ctx, testChatID, "3"); err != nil {
		t.Fatalf("valid count: %v", err)
	}
	if store.Get(testChatID).Step != domain.StepAwaitingCategory {
		t.Fatal("valid count must advance to category selection")
	}

	// Pick a category, confirm the preview.
	if err := f.HandleCallback(ctx, testChatID, "cat:Dessert"); err != nil {
		t.Fatalf("category: %v", err)
	}
	if err := f.HandleCallback(ctx, testChatID, ConfirmCallbackData); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	if len(sender.htmls) != 3 {
		t.Fatalf("expected 3 recipe messages, got %d", len(sender.htmls))
	}
	if store.Get(testChatID).Step != domain.StepIdle {
		t.Fatal("conversation must end idle")
	}

	// A repeated confirm press after completion is a no-op.
	before := len(sender.htmls) + len(sender.texts)
	if err := f.HandleCallback(ctx, testChatID, ConfirmCallbackData); err != nil {
		t.Fatalf("repeat confirm: %v", err)
	}
	if len(sender.htmls)+len(sender.texts) != before {
		t.Fatal("repeated confirm must produce no output")
	}
}

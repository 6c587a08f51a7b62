package session

import (
	"testing"

	"github.com/kapu/recipe-telegram-bot-go/internal/domain"
)

func TestGetReturnsIdleSessionForUnknownChat(t *testing.T) {
	store := NewStore()

	sess := store.Get(42)
	if sess.Step != domain.StepIdle {
		t.Fatalf("expected idle step, got %s", sess.Step)
	}
	if sess.RequestedCount != 0 || len(sess.SelectedRecipeIDs) != 0 {
		t.Fatalf("expected zero-valued session, got %+v", sess)
	}
}

func TestUpdatesMergeFields(t *testing.T) {
	store := NewStore()

	store.SetCount(1, 3)
	store.SetStep(1, domain.StepAwaitingCategory)
	store.SetSelection(1, []string{"52772", "52893"})

	sess := store.Get(1)
	if sess.RequestedCount != 3 {
		t.Fatalf("expected count 3, got %d", sess.RequestedCount)
	}
	if sess.Step != domain.StepAwaitingCategory {
		t.Fatalf("expected awaiting_category, got %s", sess.Step)
	}
	if len(sess.SelectedRecipeIDs) != 2 || sess.SelectedRecipeIDs[0] != "52772" {
		t.Fatalf("unexpected selection: %v", sess.SelectedRecipeIDs)
	}
}

func TestSetSelectionCopiesInput(t *testing.T) {
	store := NewStore()

	ids := []string{"1", "2"}
	store.SetSelection(7, ids)
	ids[0] = "mutated"

	sess := store.Get(7)
	if sess.SelectedRecipeIDs[0] != "1" {
		t.Fatalf("store must not alias caller slice, got %v", sess.SelectedRecipeIDs)
	}
}

func TestClearDropsAllFields(t *testing.T) {
	store := NewStore()

	store.SetCount(9, 5)
	store.SetStep(9, domain.StepAwaitingConfirm)
	store.SetSelection(9, []string{"52772"})
	store.Clear(9)

	sess := store.Get(9)
	if sess.Step != domain.StepIdle {
		t.Fatalf("expected idle after clear, got %s", sess.Step)
	}
	if sess.RequestedCount != 0 {
		t.Fatalf("expected count reset, got %d", sess.RequestedCount)
	}
	if len(sess.SelectedRecipeIDs) != 0 {
		t.Fatalf("expected no leaked recipe ids, got %v", sess.SelectedRecipeIDs)
	}
	if store.Count() != 0 {
		t.Fatalf("expected empty store, got %d entries", store.Count())
	}
}

func TestChatsAreIndependent(t *testing.T) {
	store := NewStore()

	store.SetCount(1, 2)
	store.SetCount(2, 7)
	store.Clear(1)

	if got := store.Get(2).RequestedCount; got != 7 {
		t.Fatalf("clearing chat 1 must not affect chat 2, got count %d", got)
	}
}

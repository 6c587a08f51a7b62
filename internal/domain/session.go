package domain

// Step represents a finite-state machine step of a user's conversation.
type Step string

const (
	// StepIdle indicates no flow is in progress for the user.
	StepIdle Step = "idle"
	// StepAwaitingCount indicates the bot asked how many recipes to fetch.
	StepAwaitingCount Step = "awaiting_count"
	// StepAwaitingCategory indicates the bot presented the category keyboard.
	StepAwaitingCategory Step = "awaiting_category"
	// StepAwaitingConfirm indicates the preview was shown and the bot waits
	// for the "show recipes" button.
	StepAwaitingConfirm Step = "awaiting_confirm"
)

func (s Step) String() string {
	return string(s)
}

// Session captures the conversation state of a single user. Steps only move
// forward: Idle → AwaitingCount (optional) → AwaitingCategory →
// AwaitingConfirm → Idle.
type Session struct {
	Step              Step
	RequestedCount    int
	SelectedRecipeIDs []string
}

// NewSession returns a fresh idle session.
func NewSession() Session {
	return Session{Step: StepIdle}
}

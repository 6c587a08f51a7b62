package adapter

import (
	"testing"

	"github.com/kapu/recipe-telegram-bot-go/internal/domain"
)

func TestParseMessageCommands(t *testing.T) {
	ma := NewMessageAdapter()

	tests := []struct {
		text     string
		expected domain.CommandType
	}{
		{"/start", domain.CommandStart},
		{"/help", domain.CommandHelp},
		{"/random", domain.CommandRandom},
		{"/RANDOM", domain.CommandRandom},
		{"/random@RecipeBot", domain.CommandRandom},
		{"/category_search_random", domain.CommandRandom},
		{"  /random 3  ", domain.CommandRandom},
		{"/unknowncmd", domain.CommandUnknown},
		{"random", domain.CommandUnknown},
		{"", domain.CommandUnknown},
	}

	for _, tt := range tests {
		parsed := ma.ParseMessage(tt.text)
		if parsed.Type != tt.expected {
			t.Errorf("ParseMessage(%q) = %s, expected %s", tt.text, parsed.Type, tt.expected)
		}
	}
}

func TestParseMessageCarriesCountArgument(t *testing.T) {
	ma := NewMessageAdapter()

	parsed := ma.ParseMessage("/random 5")
	if parsed.Type != domain.CommandRandom {
		t.Fatalf("expected random command, got %s", parsed.Type)
	}
	if raw, ok := parsed.Params["count"].(string); !ok || raw != "5" {
		t.Fatalf("expected raw count argument %q, got %v", "5", parsed.Params["count"])
	}

	bare := ma.ParseMessage("/random")
	if _, ok := bare.Params["count"]; ok {
		t.Fatal("bare command must not carry a count parameter")
	}
}

func TestIsCommand(t *testing.T) {
	ma := NewMessageAdapter()

	if !ma.IsCommand("  /help") {
		t.Fatal("slash-prefixed text is a command")
	}
	if ma.IsCommand("help me") {
		t.Fatal("plain text is not a command")
	}
}

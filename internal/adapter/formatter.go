package adapter

import (
	"fmt"
	"html"
	"strings"

	"github.com/kapu/recipe-telegram-bot-go/internal/constants"
	"github.com/kapu/recipe-telegram-bot-go/internal/util"
)

// ConfirmButtonLabel is the caption of the "show recipes" confirmation button.
const ConfirmButtonLabel = "Покажи рецепты"

// ResponseFormatter formats bot responses. Messages are rendered for
// Telegram's HTML parse mode, so user-facing dynamic text is escaped.
type ResponseFormatter struct{}

// NewResponseFormatter creates a new ResponseFormatter
func NewResponseFormatter() *ResponseFormatter {
	return &ResponseFormatter{}
}

// FormatStart formats the /start greeting.
func (f *ResponseFormatter) FormatStart(fullName string) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("👋 Привет, <b>%s</b>!\n\n", html.EscapeString(fullName)))
	sb.WriteString("Я — бот 🍳 для поиска рецептов.\n\n")
	sb.WriteString("Вот что я умею:\n")
	sb.WriteString("🔎 Найти рецепты по категории (например, Завтрак, Обед, Десерт)\n")
	sb.WriteString("🎲 Показать случайные рецепты\n")
	sb.WriteString("📋 У каждого рецепта будут шаги приготовления и список ингредиентов\n\n")
	sb.WriteString("Напиши команду или выбери её из меню ниже, чтобы начать 👇")
	return sb.String()
}

// FormatHelp formats the /help message.
func (f *ResponseFormatter) FormatHelp() string {
	var sb strings.Builder
	sb.WriteString("📖 Команды:\n\n")
	sb.WriteString("/random — случайные рецепты по категории\n")
	sb.WriteString("/random 3 — сразу запросить три рецепта\n")
	sb.WriteString("/help — это сообщение\n\n")
	sb.WriteString("Я спрошу количество, предложу категории и покажу рецепты с переводом.")
	return sb.String()
}

// FormatCountPrompt asks the user how many recipes they want.
func (f *ResponseFormatter) FormatCountPrompt() string {
	return "Сколько рецептов вы хотите получить? Введите число:"
}

// FormatInvalidCount is the validation reply for a non-numeric count.
func (f *ResponseFormatter) FormatInvalidCount() string {
	return "❌ Пожалуйста, введите корректное число."
}

// FormatCategoryPrompt accompanies the category keyboard.
func (f *ResponseFormatter) FormatCategoryPrompt(count int) string {
	return fmt.Sprintf("Вы выбрали %d рецепт(а/ов).\nТеперь выберите категорию:", count)
}

// FormatNoRecipes reports an empty category.
func (f *ResponseFormatter) FormatNoRecipes() string {
	return "❌ Рецепты не найдены для этой категории."
}

// FormatNothingToShow reports a confirmation with no stored selection.
func (f *ResponseFormatter) FormatNothingToShow() string {
	return "❌ Не удалось найти рецепты."
}

// FormatUpstreamFailure reports a catalog failure for the current turn.
func (f *ResponseFormatter) FormatUpstreamFailure() string {
	return "❌ Не удалось получить данные из каталога рецептов. Попробуйте позже."
}

// FormatPreview renders the translated name preview shown before the full
// recipes, in sampled order.
func (f *ResponseFormatter) FormatPreview(names []string) string {
	var sb strings.Builder
	sb.WriteString("Как Вам такие варианты:")
	for _, name := range names {
		sb.WriteString("\n• ")
		sb.WriteString(name)
	}
	return sb.String()
}

// FormatRecipeDetail renders one full recipe message in HTML.
func (f *ResponseFormatter) FormatRecipeDetail(name, instructions string, ingredients []string) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🍽️ <b>%s</b>\n\n", html.EscapeString(name)))
	sb.WriteString("<b>Рецепт:</b>\n")
	sb.WriteString(html.EscapeString(util.TruncateString(instructions, constants.TelegramConfig.MaxInstructionRunes)))
	sb.WriteString("\n\n<b>Ингредиенты:</b> ")

	escaped := make([]string, 0, len(ingredients))
	for _, ing := range ingredients {
		escaped = append(escaped, html.EscapeString(ing))
	}
	sb.WriteString(strings.Join(escaped, ", "))

	return sb.String()
}

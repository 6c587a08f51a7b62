package domain

import "strings"

// Category is an opaque label grouping recipes in the external catalog.
type Category string

func (c Category) String() string {
	return string(c)
}

// RecipeSummary is the minimal recipe shape used during sampling and preview.
type RecipeSummary struct {
	ID   string
	Name string
}

// Ingredient is a single ingredient slot with an optional measure.
type Ingredient struct {
	Name    string
	Measure string
}

// Display renders the ingredient as "measure name", or just the name when no
// measure is present.
func (i Ingredient) Display() string {
	name := strings.TrimSpace(i.Name)
	measure := strings.TrimSpace(i.Measure)
	if measure == "" {
		return name
	}
	return measure + " " + name
}

// RecipeDetail is the full recipe shape used for final rendering.
type RecipeDetail struct {
	ID           string
	Name         string
	Instructions string
	Ingredients  []Ingredient
}

// IngredientStrings returns the display form of every non-empty ingredient,
// in slot order.
func (r *RecipeDetail) IngredientStrings() []string {
	result := make([]string, 0, len(r.Ingredients))
	for _, ing := range r.Ingredients {
		if strings.TrimSpace(ing.Name) == "" {
			continue
		}
		result = append(result, ing.Display())
	}
	return result
}

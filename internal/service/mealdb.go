package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/kapu/recipe-telegram-bot-go/internal/constants"
	"github.com/kapu/recipe-telegram-bot-go/internal/domain"
	"github.com/kapu/recipe-telegram-bot-go/internal/service/cache"
	"github.com/kapu/recipe-telegram-bot-go/pkg/errors"
	"go.uber.org/zap"
)

const categoriesCacheKey = "mealdb:categories"

// MealDBService exposes the recipe catalog operations the bot needs:
// category listing, filter-by-category and lookup-by-id. The category list is
// cached; recipe summaries and details are always fetched fresh.
type MealDBService struct {
	client MealDBRequester
	cache  *cache.CacheService
	logger *zap.Logger
}

func NewMealDBService(client MealDBRequester, cacheSvc *cache.CacheService, logger *zap.Logger) *MealDBService {
	return &MealDBService{
		client: client,
		cache:  cacheSvc,
		logger: logger,
	}
}

type categoryListPayload struct {
	Meals []struct {
		Category string `json:"strCategory"`
	} `json:"meals"`
}

type recipeListPayload struct {
	Meals []struct {
		ID   string `json:"idMeal"`
		Name string `json:"strMeal"`
	} `json:"meals"`
}

type recipeLookupPayload struct {
	Meals []map[string]any `json:"meals"`
}

// ListCategories returns the available recipe categories.
func (s *MealDBService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	if s.cache != nil {
		var cached []domain.Category
		if hit, err := s.cache.Get(ctx, categoriesCacheKey, &cached); err == nil && hit && len(cached) > 0 {
			s.logger.Debug("Categories served from cache", zap.Int("count", len(cached)))
			return cached, nil
		}
	}

	body, err := s.client.DoRequest(ctx, "/list.php", url.Values{"c": {"list"}})
	if err != nil {
		return nil, err
	}

	var payload categoryListPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		apiErr := errors.NewAPIError("malformed category list payload", 502, nil)
		apiErr.Cause = err
		return nil, apiErr
	}

	categories := make([]domain.Category, 0, len(payload.Meals))
	for _, m := range payload.Meals {
		if m.Category != "" {
			categories = append(categories, domain.Category(m.Category))
		}
	}

	if s.cache != nil && len(categories) > 0 {
		if err := s.cache.Set(ctx, categoriesCacheKey, categories, constants.CacheTTL.Categories); err != nil {
			s.logger.Warn("Failed to cache categories", zap.Error(err))
		}
	}

	s.logger.Info("Categories fetched", zap.Int("count", len(categories)))
	return categories, nil
}

// ListRecipesByCategory returns the recipe summaries of a category. An empty
// slice is a valid result, not an error.
func (s *MealDBService) ListRecipesByCategory(ctx context.Context, category domain.Category) ([]domain.RecipeSummary, error) {
	body, err := s.client.DoRequest(ctx, "/filter.php", url.Values{"c": {category.String()}})
	if err != nil {
		return nil, err
	}

	var payload recipeListPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		apiErr := errors.NewAPIError("malformed recipe list payload", 502, map[string]any{
			"category": category.String(),
		})
		apiErr.Cause = err
		return nil, apiErr
	}

	summaries := make([]domain.RecipeSummary, 0, len(payload.Meals))
	for _, m := range payload.Meals {
		if m.ID == "" {
			continue
		}
		summaries = append(summaries, domain.RecipeSummary{ID: m.ID, Name: m.Name})
	}

	s.logger.Debug("Recipes listed",
		zap.String("category", category.String()),
		zap.Int("count", len(summaries)),
	)
	return summaries, nil
}

// LookupRecipe fetches the full detail for a recipe id. A nil result with a
// nil error means the id no longer resolves upstream.
func (s *MealDBService) LookupRecipe(ctx context.Context, id string) (*domain.RecipeDetail, error) {
	body, err := s.client.DoRequest(ctx, "/lookup.php", url.Values{"i": {id}})
	if err != nil {
		return nil, err
	}

	var payload recipeLookupPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		apiErr := errors.NewAPIError("malformed recipe lookup payload", 502, map[string]any{
			"id": id,
		})
		apiErr.Cause = err
		return nil, apiErr
	}

	if len(payload.Meals) == 0 || payload.Meals[0] == nil {
		s.logger.Debug("Recipe no longer available", zap.String("id", id))
		return nil, nil
	}

	return decodeRecipeDetail(id, payload.Meals[0]), nil
}

// decodeRecipeDetail maps a raw lookup object onto the domain shape.
// TheMealDB spreads ingredients over strIngredient1..strIngredient20 with
// matching strMeasureN slots; blank slots are skipped.
func decodeRecipeDetail(id string, raw map[string]any) *domain.RecipeDetail {
	detail := &domain.RecipeDetail{
		ID:           stringField(raw, "idMeal"),
		Name:         stringField(raw, "strMeal"),
		Instructions: stringField(raw, "strInstructions"),
	}
	if detail.ID == "" {
		detail.ID = id
	}

	for i := 1; i <= constants.RecipeConfig.MaxIngredientSlots; i++ {
		name := strings.TrimSpace(stringField(raw, fmt.Sprintf("strIngredient%d", i)))
		if name == "" {
			continue
		}
		measure := strings.TrimSpace(stringField(raw, fmt.Sprintf("strMeasure%d", i)))
		detail.Ingredients = append(detail.Ingredients, domain.Ingredient{
			Name:    name,
			Measure: measure,
		})
	}

	return detail
}

func stringField(raw map[string]any, key string) string {
	if v, ok := raw[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

package services

import (
	"strings"

	"github.com/bitematch/bitematch/internal/models"
)

// predicate decides whether a catalog item passes a filter.
type predicate func(models.FoodItem) bool

// valueRange is a closed interval, inclusive on both ends.
type valueRange struct {
	lo, hi float64
}

func (r valueRange) contains(v float64) bool {
	return v >= r.lo && v <= r.hi
}

// Calorie ranges per hunger level and health-score ranges per desired
// healthiness. Unknown keys are a caller error.
var (
	hungerRanges = map[string]valueRange{
		"all":    {0, 2000},
		"low":    {0, 400},
		"medium": {401, 999},
		"high":   {1000, 2000},
	}

	healthRanges = map[string]valueRange{
		"all":    {1, 10},
		"low":    {1, 4.9},
		"medium": {5, 7.9},
		"high":   {8, 10},
	}
)

func all(preds ...predicate) predicate {
	return func(it models.FoodItem) bool {
		for _, p := range preds {
			if p != nil && !p(it) {
				return false
			}
		}
		return true
	}
}

func inCalorieRange(r valueRange) predicate {
	return func(it models.FoodItem) bool { return r.contains(float64(it.Calories)) }
}

func inHealthRange(r valueRange) predicate {
	return func(it models.FoodItem) bool { return r.contains(it.HealthScore) }
}

// restaurantFilter returns nil when no restaurant constraint is active.
// A single name matches case-insensitively; a name set matches by exact
// membership.
func restaurantFilter(c models.Criteria) predicate {
	if len(c.Restaurants) > 0 {
		names := make(map[string]struct{}, len(c.Restaurants))
		for _, r := range c.Restaurants {
			names[r] = struct{}{}
		}
		return func(it models.FoodItem) bool {
			_, ok := names[it.Restaurant]
			return ok
		}
	}
	if c.Restaurant == "" || c.Restaurant == "any" {
		return nil
	}
	name := c.Restaurant
	return func(it models.FoodItem) bool {
		return strings.EqualFold(it.Restaurant, name)
	}
}

// typeFilter returns nil when value is empty or "any".
func typeFilter(value string, field func(models.FoodItem) string) predicate {
	if value == "" || value == "any" {
		return nil
	}
	return func(it models.FoodItem) bool { return field(it) == value }
}

func filterItems(items []models.FoodItem, pred predicate) []models.FoodItem {
	var out []models.FoodItem
	for _, it := range items {
		if pred(it) {
			out = append(out, it)
		}
	}
	return out
}

// dedupKey identifies a catalog row across relaxation stages.
type dedupKey struct {
	id         int
	restaurant string
	name       string
}

func keyOf(it models.FoodItem) dedupKey {
	return dedupKey{id: it.ID, restaurant: it.Restaurant, name: it.ItemName}
}

// mergeDedup appends relaxed-stage items to the current result set,
// keeping earlier-stage members first and dropping duplicates.
func mergeDedup(current, relaxed []models.FoodItem) []models.FoodItem {
	seen := make(map[dedupKey]struct{}, len(current))
	out := make([]models.FoodItem, 0, len(current)+len(relaxed))
	for _, it := range current {
		k := keyOf(it)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, it)
	}
	for _, it := range relaxed {
		k := keyOf(it)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, it)
	}
	return out
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func itemView(it models.FoodItem) models.FoodItemView {
	return models.FoodItemView{
		ID:          it.ID,
		Restaurant:  it.Restaurant,
		ItemName:    it.ItemName,
		Calories:    it.Calories,
		HealthScore: it.HealthScore,
		Protein:     it.Protein,
		Carbs:       it.Carbohydrates,
		Fat:         it.TotalFat,
		Fiber:       it.DietaryFiber,
		Sugar:       it.Sugar,
		Sodium:      it.Sodium,
		FoodType:    orDefault(it.FoodType, "Unknown"),
		ProteinType: orDefault(it.ProteinType, "Unknown"),
		Reasoning:   orDefault(it.Reasoning, models.NoReasoning),
		Description: orDefault(it.ItemDescription, models.NoDescription),
	}
}

// matchedView builds the match payload. A nil score marks the degraded
// fallback, where no similarity was computed.
func matchedView(it models.FoodItem, score *float64) models.MatchedItemView {
	return models.MatchedItemView{
		ID:          it.ID,
		Restaurant:  it.Restaurant,
		ItemName:    it.ItemName,
		Calories:    it.Calories,
		HealthScore: it.HealthScore,
		Protein:     it.Protein,
		Carbs:       it.Carbohydrates,
		Fat:         it.TotalFat,
		Fiber:       it.DietaryFiber,
		Sugar:       it.Sugar,
		Sodium:      it.Sodium,
		MatchScore:  score,
		FoodType:    orDefault(it.FoodType, "Unknown"),
		ProteinType: orDefault(it.ProteinType, "Unknown"),
		Reasoning:   orDefault(it.Reasoning, models.NoReasoning),
	}
}

package services

import (
	"math/rand"
	"sort"

	"go.uber.org/zap"

	"github.com/bitematch/bitematch/internal/models"
)

// RecommendationService runs the recommendation and matching engine over
// an immutable catalog snapshot. Both operations are pure, read-only
// computations; concurrent calls share no mutable state.
type RecommendationService struct {
	catalog []models.FoodItem
	log     *zap.SugaredLogger
}

// NewRecommendationService creates the engine over a catalog snapshot.
// The snapshot is shared by reference and must not be mutated after.
func NewRecommendationService(catalog []models.FoodItem, log *zap.SugaredLogger) *RecommendationService {
	return &RecommendationService{
		catalog: catalog,
		log:     log,
	}
}

// Recommend returns at most criteria.Count items satisfying as many
// constraints as possible, progressively relaxing the most specific
// filters (protein type, then food type, then restaurant and both types)
// when a stage yields too few results. The calorie and health-score
// ranges are never relaxed. An empty result is not an error.
func (s *RecommendationService) Recommend(criteria models.Criteria) (models.RecommendationResult, error) {
	if s.catalog == nil {
		return models.RecommendationResult{}, ErrCatalogUnavailable
	}

	calRange, ok := hungerRanges[criteria.Hunger]
	if !ok {
		return models.RecommendationResult{}, &CallerError{Field: "hunger", Value: criteria.Hunger}
	}
	healthRange, ok := healthRanges[criteria.Health]
	if !ok {
		return models.RecommendationResult{}, &CallerError{Field: "health", Value: criteria.Health}
	}
	if criteria.Count <= 0 {
		return models.RecommendationResult{}, &CallerError{Field: "count", Value: criteria.Count}
	}

	ranges := all(inCalorieRange(calRange), inHealthRange(healthRange))
	restaurant := restaurantFilter(criteria)
	foodType := typeFilter(criteria.FoodType, func(it models.FoodItem) string { return it.FoodType })
	proteinType := typeFilter(criteria.ProteinType, func(it models.FoodItem) string { return it.ProteinType })

	// Stage 1: full conjunction.
	result := filterItems(s.catalog, all(ranges, restaurant, foodType, proteinType))

	// Stage 2: drop the protein type constraint, earlier matches stay first.
	if len(result) < criteria.Count && proteinType != nil {
		relaxed := filterItems(s.catalog, all(ranges, restaurant, foodType))
		result = mergeDedup(result, relaxed)
	}

	// Stage 3: drop the food type constraint instead.
	if len(result) < criteria.Count && foodType != nil {
		relaxed := filterItems(s.catalog, all(ranges, restaurant, proteinType))
		result = mergeDedup(result, relaxed)
	}

	// Stage 4: calorie and health ranges only, best health first.
	if len(result) < criteria.Count {
		result = filterItems(s.catalog, ranges)
		sort.SliceStable(result, func(i, j int) bool {
			return result[i].HealthScore > result[j].HealthScore
		})
	}

	if len(result) > criteria.Count {
		result = sampleItems(result, criteria.Count)
	}

	items := make([]models.FoodItemView, 0, len(result))
	for _, it := range result {
		items = append(items, itemView(it))
	}

	s.log.Debugw("recommendation computed",
		"hunger", criteria.Hunger,
		"health", criteria.Health,
		"count", criteria.Count,
		"returned", len(items))

	return models.RecommendationResult{Items: items}, nil
}

// sampleItems draws a uniform random sample of n items without
// replacement.
func sampleItems(items []models.FoodItem, n int) []models.FoodItem {
	out := make([]models.FoodItem, 0, n)
	for _, idx := range rand.Perm(len(items))[:n] {
		out = append(out, items[idx])
	}
	return out
}

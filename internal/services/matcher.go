package services

import (
	"math"
	"sort"

	"github.com/bitematch/bitematch/internal/models"
)

const matchLimit = 10

// Feature scales normalize nutrient distance from the liked-profile mean
// into [0,1] before weighting.
const (
	calorieScale = 1000
	proteinScale = 50
	fatScale     = 70
	carbScale    = 100
	healthScale  = 10
)

// Weights for the continuous features plus flat bonuses for categorical
// affinity. Bonuses are additive and uncapped: category, restaurant and
// type overlap with liked items is a stronger signal than nutrient
// proximity and is allowed to dominate the ranking.
const (
	calorieWeight = 0.10
	proteinWeight = 0.15
	fatWeight     = 0.10
	carbWeight    = 0.10
	healthWeight  = 0.10

	categoryBonus    = 0.3
	restaurantBonus  = 0.2
	foodTypeBonus    = 0.3
	proteinTypeBonus = 0.25
)

// likedProfile aggregates the items the user liked.
type likedProfile struct {
	avgCalories  float64
	avgProtein   float64
	avgFat       float64
	avgCarbs     float64
	avgHealth    float64
	categories   map[string]struct{}
	restaurants  map[string]struct{}
	foodTypes    map[string]struct{}
	proteinTypes map[string]struct{}
}

// Match scores every unrated catalog item against the profile of liked
// items and returns the top 10 by descending score. With no liked items
// it falls back to the 10 highest health scores (Degraded=true); with
// every item already rated it returns an empty list.
func (s *RecommendationService) Match(prefLog []models.PreferenceRecord) (models.MatchResult, error) {
	if s.catalog == nil {
		return models.MatchResult{}, ErrCatalogUnavailable
	}

	// An id that ever appears liked stays liked: recording never removes
	// an id from a prior set, so a later dislike does not retract it.
	likedIDs := make(map[int]struct{})
	dislikedIDs := make(map[int]struct{})
	for _, rec := range prefLog {
		if rec.IsLiked {
			likedIDs[rec.FoodID] = struct{}{}
		} else {
			dislikedIDs[rec.FoodID] = struct{}{}
		}
	}

	if len(likedIDs) == 0 {
		return s.healthFallback(), nil
	}

	var likedItems []models.FoodItem
	for _, it := range s.catalog {
		if _, ok := likedIDs[it.ID]; ok {
			likedItems = append(likedItems, it)
		}
	}
	if len(likedItems) == 0 {
		return models.MatchResult{}, ErrLikedNotFound
	}
	profile := buildProfile(likedItems)

	var candidates []models.FoodItem
	for _, it := range s.catalog {
		_, liked := likedIDs[it.ID]
		_, disliked := dislikedIDs[it.ID]
		if !liked && !disliked {
			candidates = append(candidates, it)
		}
	}
	if len(candidates) == 0 {
		return models.MatchResult{Matches: []models.MatchedItemView{}}, nil
	}

	scores := make([]float64, len(candidates))
	for i, it := range candidates {
		scores[i] = matchScore(it, profile)
	}

	order := make([]int, len(candidates))
	for i := range order {
		order[i] = i
	}
	// Stable sort keeps catalog order on score ties.
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})
	if len(order) > matchLimit {
		order = order[:matchLimit]
	}

	matches := make([]models.MatchedItemView, 0, len(order))
	for _, idx := range order {
		score := displayScore(scores[idx])
		matches = append(matches, matchedView(candidates[idx], &score))
	}

	s.log.Debugw("matches computed",
		"liked", len(likedIDs),
		"disliked", len(dislikedIDs),
		"candidates", len(candidates),
		"returned", len(matches))

	return models.MatchResult{Matches: matches}, nil
}

// healthFallback serves the cold-start case: the 10 healthiest items,
// ties broken by catalog order, with no match scores.
func (s *RecommendationService) healthFallback() models.MatchResult {
	ranked := make([]models.FoodItem, len(s.catalog))
	copy(ranked, s.catalog)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].HealthScore > ranked[j].HealthScore
	})
	if len(ranked) > matchLimit {
		ranked = ranked[:matchLimit]
	}

	matches := make([]models.MatchedItemView, 0, len(ranked))
	for _, it := range ranked {
		matches = append(matches, matchedView(it, nil))
	}
	return models.MatchResult{Matches: matches, Degraded: true}
}

func buildProfile(liked []models.FoodItem) likedProfile {
	p := likedProfile{
		categories:   make(map[string]struct{}),
		restaurants:  make(map[string]struct{}),
		foodTypes:    make(map[string]struct{}),
		proteinTypes: make(map[string]struct{}),
	}
	for _, it := range liked {
		p.avgCalories += float64(it.Calories)
		p.avgProtein += it.Protein
		p.avgFat += it.TotalFat
		p.avgCarbs += it.Carbohydrates
		p.avgHealth += it.HealthScore
		p.categories[it.FoodCategory] = struct{}{}
		p.restaurants[it.Restaurant] = struct{}{}
	}
	n := float64(len(liked))
	p.avgCalories /= n
	p.avgProtein /= n
	p.avgFat /= n
	p.avgCarbs /= n
	p.avgHealth /= n

	for _, ft := range rankByFrequency(liked, func(it models.FoodItem) string { return it.FoodType }) {
		p.foodTypes[ft] = struct{}{}
	}
	for _, pt := range rankByFrequency(liked, func(it models.FoodItem) string { return it.ProteinType }) {
		p.proteinTypes[pt] = struct{}{}
	}
	return p
}

// rankByFrequency lists the distinct values of a field in descending
// frequency, ties broken by first appearance among the liked items.
func rankByFrequency(items []models.FoodItem, field func(models.FoodItem) string) []string {
	counts := make(map[string]int)
	var order []string
	for _, it := range items {
		v := field(it)
		if _, seen := counts[v]; !seen {
			order = append(order, v)
		}
		counts[v]++
	}
	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	return order
}

// proximity maps the distance between a value and the liked-profile mean
// into [0,1], where 1 is an exact match and 0 is at least one full scale
// away.
func proximity(value, mean, scale float64) float64 {
	d := math.Abs(value-mean) / scale
	if d > 1 {
		d = 1
	}
	return 1 - d
}

func matchScore(it models.FoodItem, p likedProfile) float64 {
	score := calorieWeight*proximity(float64(it.Calories), p.avgCalories, calorieScale) +
		proteinWeight*proximity(it.Protein, p.avgProtein, proteinScale) +
		fatWeight*proximity(it.TotalFat, p.avgFat, fatScale) +
		carbWeight*proximity(it.Carbohydrates, p.avgCarbs, carbScale) +
		healthWeight*proximity(it.HealthScore, p.avgHealth, healthScale)

	if _, ok := p.categories[it.FoodCategory]; ok {
		score += categoryBonus
	}
	if _, ok := p.restaurants[it.Restaurant]; ok {
		score += restaurantBonus
	}
	if _, ok := p.foodTypes[it.FoodType]; ok {
		score += foodTypeBonus
	}
	if _, ok := p.proteinTypes[it.ProteinType]; ok {
		score += proteinTypeBonus
	}
	return score
}

// displayScore is the raw score as a percentage-like value, rounded half
// to even at one decimal. It can exceed 100 because bonuses are additive.
func displayScore(score float64) float64 {
	return math.RoundToEven(score*1000) / 10
}

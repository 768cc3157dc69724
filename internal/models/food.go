package models

// Placeholder text substituted for optional fields missing from the catalog.
const (
	NoDescription = "No description available."
	NoReasoning   = "No nutritional analysis available."
)

// FoodItem is one row of the catalog. Loaded once at startup and treated
// as read-only for the lifetime of the process.
type FoodItem struct {
	ID              int     `json:"id"`
	FoodCategory    string  `json:"food_category"`
	Restaurant      string  `json:"restaurant"`
	ItemName        string  `json:"item_name"`
	ItemDescription string  `json:"item_description"`
	Calories        int     `json:"calories"`
	TotalFat        float64 `json:"total_fat"`
	SaturatedFat    float64 `json:"saturated_fat"`
	TransFat        float64 `json:"trans_fat"`
	Cholesterol     float64 `json:"cholesterol"`
	Sodium          float64 `json:"sodium"`
	Carbohydrates   float64 `json:"carbohydrates"`
	DietaryFiber    float64 `json:"dietary_fiber"`
	Sugar           float64 `json:"sugar"`
	Protein         float64 `json:"protein"`
	HealthScore     float64 `json:"health_score"`
	Reasoning       string  `json:"reasoning"`
	ProteinType     string  `json:"protein_type"`
	FoodType        string  `json:"food_type"`
}

// PreferenceRecord is one like/dislike event. The preference log is
// append-only; the same food id may appear in multiple records.
type PreferenceRecord struct {
	FoodID  int  `json:"food_id"`
	IsLiked bool `json:"is_liked"`
}

// Criteria are the coarse filters for a cold-start recommendation.
// Restaurant holds a single name ("any" or empty means no filter);
// Restaurants, when non-empty, takes precedence and matches by
// set membership.
type Criteria struct {
	Hunger      string
	Health      string
	Restaurant  string
	Restaurants []string
	FoodType    string
	ProteinType string
	Count       int
}

// FoodItemView is the response shape for a recommended item.
type FoodItemView struct {
	ID          int     `json:"id"`
	Restaurant  string  `json:"restaurant"`
	ItemName    string  `json:"item_name"`
	Calories    int     `json:"calories"`
	HealthScore float64 `json:"health_score"`
	Protein     float64 `json:"protein"`
	Carbs       float64 `json:"carbs"`
	Fat         float64 `json:"fat"`
	Fiber       float64 `json:"fiber"`
	Sugar       float64 `json:"sugar"`
	Sodium      float64 `json:"sodium"`
	FoodType    string  `json:"food_type"`
	ProteinType string  `json:"protein_type"`
	Reasoning   string  `json:"reasoning"`
	Description string  `json:"description"`
}

// MatchedItemView is the response shape for a personalized match.
// MatchScore is a display value: the raw score times 100, rounded to one
// decimal. Bonuses are additive, so it can exceed 100. It is nil only in
// the degraded cold-start fallback, so a computed score of 0 still
// serializes.
type MatchedItemView struct {
	ID          int      `json:"id"`
	Restaurant  string   `json:"restaurant"`
	ItemName    string   `json:"item_name"`
	Calories    int      `json:"calories"`
	HealthScore float64  `json:"health_score"`
	Protein     float64  `json:"protein"`
	Carbs       float64  `json:"carbs"`
	Fat         float64  `json:"fat"`
	Fiber       float64  `json:"fiber"`
	Sugar       float64  `json:"sugar"`
	Sodium      float64  `json:"sodium"`
	MatchScore  *float64 `json:"match_score,omitempty"`
	FoodType    string   `json:"food_type"`
	ProteinType string   `json:"protein_type"`
	Reasoning   string   `json:"reasoning"`
}

// TestCard is a compact item view used by the rating UI.
type TestCard struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	Restaurant  string  `json:"restaurant"`
	Calories    int     `json:"calories"`
	Protein     float64 `json:"protein"`
	Carbs       float64 `json:"carbs"`
	Fat         float64 `json:"fat"`
	HealthScore float64 `json:"health_score"`
	ProteinType string  `json:"protein_type"`
	FoodType    string  `json:"food_type"`
}

// RecommendationResult is the output of the filter cascade.
type RecommendationResult struct {
	Items []FoodItemView `json:"items"`
}

// MatchResult is the output of the similarity matcher. Degraded signals
// the cold-start fallback taken when no liked items exist yet.
type MatchResult struct {
	Matches  []MatchedItemView `json:"matches"`
	Degraded bool              `json:"degraded"`
}

package database

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/bitematch/bitematch/internal/models"
)

// Store wraps the SQLite database holding the food catalog and the
// preference log.
type Store struct {
	db *sql.DB
}

// NewStore opens the database at path, verifies the connection and
// bootstraps the schema.
func NewStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to verify database connection: %w", err)
	}

	store := &Store{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS foods (
        id INTEGER PRIMARY KEY,
        food_category TEXT,
        restaurant TEXT,
        item_name TEXT,
        item_description TEXT,
        calories INTEGER,
        total_fat REAL,
        saturated_fat REAL,
        trans_fat REAL,
        cholesterol REAL,
        sodium REAL,
        carbohydrates REAL,
        dietary_fiber REAL,
        sugar REAL,
        protein REAL,
        health_score REAL,
        reasoning TEXT,
        protein_type TEXT,
        food_type TEXT
    );

    CREATE TABLE IF NOT EXISTS preferences (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        food_id INTEGER NOT NULL,
        is_liked INTEGER NOT NULL,
        FOREIGN KEY (food_id) REFERENCES foods (id)
    );
    `
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Health checks the database connection.
func (s *Store) Health(ctx context.Context) error {
	var one int
	if err := s.db.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	return nil
}

// LoadCatalog reads the full foods table into memory, ordered by id.
// It is intended to run once at startup; the returned slice is the
// immutable catalog snapshot for the lifetime of the process. An empty
// table yields an empty, non-nil snapshot.
func (s *Store) LoadCatalog(ctx context.Context) ([]models.FoodItem, error) {
	query := `
        SELECT id, food_category, restaurant, item_name, item_description,
               calories, total_fat, saturated_fat, trans_fat, cholesterol,
               sodium, carbohydrates, dietary_fiber, sugar, protein,
               health_score, reasoning, protein_type, food_type
        FROM foods
        ORDER BY id
    `
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query foods: %w", err)
	}
	defer rows.Close()

	catalog := []models.FoodItem{}
	for rows.Next() {
		var it models.FoodItem
		var category, restaurant, name, description sql.NullString
		var reasoning, proteinType, foodType sql.NullString
		err := rows.Scan(
			&it.ID, &category, &restaurant, &name, &description,
			&it.Calories, &it.TotalFat, &it.SaturatedFat, &it.TransFat,
			&it.Cholesterol, &it.Sodium, &it.Carbohydrates, &it.DietaryFiber,
			&it.Sugar, &it.Protein, &it.HealthScore, &reasoning,
			&proteinType, &foodType)
		if err != nil {
			return nil, fmt.Errorf("failed to scan food row: %w", err)
		}
		it.FoodCategory = category.String
		it.Restaurant = restaurant.String
		it.ItemName = name.String
		it.ItemDescription = description.String
		it.Reasoning = reasoning.String
		it.ProteinType = proteinType.String
		it.FoodType = foodType.String
		catalog = append(catalog, normalizeItem(it))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read foods: %w", err)
	}
	return catalog, nil
}

// normalizeItem enforces the catalog invariants once at load time:
// health_score stays in [1,10], calories and nutrients are non-negative.
func normalizeItem(it models.FoodItem) models.FoodItem {
	if it.HealthScore < 1 {
		it.HealthScore = 1
	}
	if it.HealthScore > 10 {
		it.HealthScore = 10
	}
	if it.Calories < 0 {
		it.Calories = 0
	}
	for _, f := range []*float64{
		&it.TotalFat, &it.SaturatedFat, &it.TransFat, &it.Cholesterol,
		&it.Sodium, &it.Carbohydrates, &it.DietaryFiber, &it.Sugar, &it.Protein,
	} {
		if *f < 0 {
			*f = 0
		}
	}
	return it
}

// SavePreference appends one rating event to the preference log.
func (s *Store) SavePreference(ctx context.Context, foodID int, isLiked bool) error {
	liked := 0
	if isLiked {
		liked = 1
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO preferences (food_id, is_liked) VALUES (?, ?)", foodID, liked)
	if err != nil {
		return fmt.Errorf("failed to insert preference: %w", err)
	}
	return nil
}

// ListPreferences returns the full preference log in insert order.
func (s *Store) ListPreferences(ctx context.Context) ([]models.PreferenceRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT food_id, is_liked FROM preferences ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query preferences: %w", err)
	}
	defer rows.Close()

	var records []models.PreferenceRecord
	for rows.Next() {
		var rec models.PreferenceRecord
		var liked int
		if err := rows.Scan(&rec.FoodID, &liked); err != nil {
			return nil, fmt.Errorf("failed to scan preference row: %w", err)
		}
		rec.IsLiked = liked != 0
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read preferences: %w", err)
	}
	return records, nil
}

// CountFoods returns the number of catalog rows.
func (s *Store) CountFoods(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM foods").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count foods: %w", err)
	}
	return count, nil
}

// DistinctRestaurants lists every restaurant present in the catalog.
func (s *Store) DistinctRestaurants(ctx context.Context) ([]string, error) {
	return s.distinctColumn(ctx,
		"SELECT DISTINCT restaurant FROM foods WHERE restaurant IS NOT NULL AND restaurant != ''")
}

// DistinctFoodTypes lists the labeled food types, excluding "Unknown".
func (s *Store) DistinctFoodTypes(ctx context.Context) ([]string, error) {
	return s.distinctColumn(ctx,
		"SELECT DISTINCT food_type FROM foods WHERE food_type IS NOT NULL AND food_type != '' AND food_type != 'Unknown'")
}

// DistinctProteinTypes lists the labeled protein types, excluding "Unknown".
func (s *Store) DistinctProteinTypes(ctx context.Context) ([]string, error) {
	return s.distinctColumn(ctx,
		"SELECT DISTINCT protein_type FROM foods WHERE protein_type IS NOT NULL AND protein_type != '' AND protein_type != 'Unknown'")
}

func (s *Store) distinctColumn(ctx context.Context, query string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query distinct values: %w", err)
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("failed to scan distinct value: %w", err)
		}
		values = append(values, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read distinct values: %w", err)
	}
	return values, nil
}

// healthBand is one slice of the test-card selection: up to count random
// items whose health score falls in [lo, hi].
type healthBand struct {
	lo, hi float64
	count  int
}

// testCardBands spreads the rating cards across health-score ranges so
// the user rates healthy and unhealthy items alike.
var testCardBands = []healthBand{
	{7, 10, 2},
	{4, 6.9, 2},
	{1, 3.9, 1},
}

// TestCards returns a small random selection of items balanced across
// health-score bands, for the rating UI.
func (s *Store) TestCards(ctx context.Context) ([]models.TestCard, error) {
	query := `
        SELECT id, item_name, restaurant, calories, protein,
               carbohydrates, total_fat, health_score,
               protein_type, food_type
        FROM foods
        WHERE health_score BETWEEN ? AND ?
        ORDER BY RANDOM()
        LIMIT ?
    `
	var cards []models.TestCard
	for _, band := range testCardBands {
		rows, err := s.db.QueryContext(ctx, query, band.lo, band.hi, band.count)
		if err != nil {
			return nil, fmt.Errorf("failed to query test cards: %w", err)
		}
		for rows.Next() {
			var card models.TestCard
			var proteinType, foodType sql.NullString
			err := rows.Scan(
				&card.ID, &card.Name, &card.Restaurant, &card.Calories,
				&card.Protein, &card.Carbs, &card.Fat, &card.HealthScore,
				&proteinType, &foodType)
			if err != nil {
				rows.Close()
				return nil, fmt.Errorf("failed to scan test card: %w", err)
			}
			card.ProteinType = proteinType.String
			card.FoodType = foodType.String
			cards = append(cards, card)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to read test cards: %w", err)
		}
		rows.Close()
	}
	return cards, nil
}

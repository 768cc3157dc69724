package database

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/bitematch/bitematch/internal/models"
	"github.com/bitematch/bitematch/internal/services"
)

const datasetHeader = "food_category,restaurant,item_name,item_description,calories,total_fat,saturated_fat,trans_fat,cholesterol,sodium,carbohydrates,dietary_fiber,sugar,protein,health_score,reasoning,protein_type,food_type"

var datasetRows = []string{
	`Salads,Green Leaf,Kale Caesar,Crisp kale with grilled chicken,300,12,2,0,40,420,18,6,4,25,9.0,,Chicken,Salad`,
	`Burgers,Burger Barn,Double Stack,,1200,70,25,2,150,1800,60,3,12,55,12.5,,Beef,Burger`,
	`Sides,Burger Barn,Fries,,500,-5,3,0,0,710,63,5,1,5,3.0,Salty side,,Side`,
}

func writeDataset(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dataset.csv")
	content := datasetHeader + "\n" + strings.Join(datasetRows, "\n") + "\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("could not write dataset: %v", err)
	}
	return path
}

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("could not open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func setupImportedStore(t *testing.T) *Store {
	t.Helper()
	store := setupTestStore(t)
	importer := NewCSVImporter(store, zap.NewNop().Sugar())
	if err := importer.ImportFoods(context.Background(), writeDataset(t)); err != nil {
		t.Fatalf("import failed: %v", err)
	}
	return store
}

func TestImportAndLoadCatalog(t *testing.T) {
	store := setupImportedStore(t)
	ctx := context.Background()

	catalog, err := store.LoadCatalog(ctx)
	if err != nil {
		t.Fatalf("LoadCatalog failed: %v", err)
	}
	if len(catalog) != 3 {
		t.Fatalf("expected 3 items, got %d", len(catalog))
	}

	salad := catalog[0]
	if salad.ItemName != "Kale Caesar" || salad.Restaurant != "Green Leaf" {
		t.Fatalf("unexpected first item: %#v", salad)
	}
	if salad.Reasoning != "Balanced" {
		t.Errorf("expected computed Balanced reasoning, got %q", salad.Reasoning)
	}

	burger := catalog[1]
	if burger.HealthScore != 10 {
		t.Errorf("out-of-domain health score should clamp to 10, got %v", burger.HealthScore)
	}
	if !strings.HasPrefix(burger.Reasoning, "High: calories, total fat") {
		t.Errorf("unexpected computed reasoning: %q", burger.Reasoning)
	}
	if !strings.Contains(burger.Reasoning, "Low: dietary fiber") {
		t.Errorf("expected low fiber flag, got %q", burger.Reasoning)
	}

	fries := catalog[2]
	if fries.TotalFat != 0 {
		t.Errorf("negative nutrient should load as 0, got %v", fries.TotalFat)
	}
	if fries.ProteinType != "Unknown" {
		t.Errorf("blank protein type should import as Unknown, got %q", fries.ProteinType)
	}
	if fries.Reasoning != "Salty side" {
		t.Errorf("provided reasoning should be preserved, got %q", fries.Reasoning)
	}
}

func TestLoadCatalogEmptyTableServesEmptyResults(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	catalog, err := store.LoadCatalog(ctx)
	if err != nil {
		t.Fatalf("LoadCatalog failed: %v", err)
	}
	if catalog == nil {
		t.Fatal("empty table must load as a non-nil snapshot")
	}
	if len(catalog) != 0 {
		t.Fatalf("expected empty catalog, got %d items", len(catalog))
	}

	// An empty database is not an error: the engine serves empty and
	// fallback results instead of failing every request.
	svc := services.NewRecommendationService(catalog, zap.NewNop().Sugar())
	rec, err := svc.Recommend(models.Criteria{Hunger: "all", Health: "all", Count: 5})
	if err != nil {
		t.Fatalf("Recommend on empty catalog failed: %v", err)
	}
	if len(rec.Items) != 0 {
		t.Fatalf("expected no recommendations, got %d", len(rec.Items))
	}

	match, err := svc.Match(nil)
	if err != nil {
		t.Fatalf("Match on empty catalog failed: %v", err)
	}
	if !match.Degraded || len(match.Matches) != 0 {
		t.Fatalf("expected an empty degraded result, got %#v", match)
	}
}

func TestImportIfEmptySkipsPopulatedTable(t *testing.T) {
	store := setupImportedStore(t)
	ctx := context.Background()

	importer := NewCSVImporter(store, zap.NewNop().Sugar())
	if err := importer.ImportIfEmpty(ctx, writeDataset(t)); err != nil {
		t.Fatalf("ImportIfEmpty failed: %v", err)
	}
	count, err := store.CountFoods(ctx)
	if err != nil {
		t.Fatalf("CountFoods failed: %v", err)
	}
	if count != 3 {
		t.Fatalf("repeat import should not duplicate rows, got %d", count)
	}
}

func TestSaveAndListPreferences(t *testing.T) {
	store := setupImportedStore(t)
	ctx := context.Background()

	if err := store.SavePreference(ctx, 1, true); err != nil {
		t.Fatalf("SavePreference failed: %v", err)
	}
	if err := store.SavePreference(ctx, 2, false); err != nil {
		t.Fatalf("SavePreference failed: %v", err)
	}
	if err := store.SavePreference(ctx, 1, false); err != nil {
		t.Fatalf("SavePreference failed: %v", err)
	}

	records, err := store.ListPreferences(ctx)
	if err != nil {
		t.Fatalf("ListPreferences failed: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	// The log is a history in insert order, not one row per item.
	if records[0].FoodID != 1 || !records[0].IsLiked {
		t.Errorf("unexpected first record: %#v", records[0])
	}
	if records[2].FoodID != 1 || records[2].IsLiked {
		t.Errorf("unexpected last record: %#v", records[2])
	}
}

func TestDistinctValues(t *testing.T) {
	store := setupImportedStore(t)
	ctx := context.Background()

	restaurants, err := store.DistinctRestaurants(ctx)
	if err != nil {
		t.Fatalf("DistinctRestaurants failed: %v", err)
	}
	if len(restaurants) != 2 {
		t.Fatalf("expected 2 restaurants, got %v", restaurants)
	}

	proteinTypes, err := store.DistinctProteinTypes(ctx)
	if err != nil {
		t.Fatalf("DistinctProteinTypes failed: %v", err)
	}
	for _, pt := range proteinTypes {
		if pt == "Unknown" {
			t.Error("Unknown must be excluded from protein types")
		}
	}
	if len(proteinTypes) != 2 {
		t.Fatalf("expected 2 protein types, got %v", proteinTypes)
	}

	foodTypes, err := store.DistinctFoodTypes(ctx)
	if err != nil {
		t.Fatalf("DistinctFoodTypes failed: %v", err)
	}
	if len(foodTypes) != 3 {
		t.Fatalf("expected 3 food types, got %v", foodTypes)
	}
}

func TestTestCardsSpanHealthBands(t *testing.T) {
	store := setupImportedStore(t)
	ctx := context.Background()

	cards, err := store.TestCards(ctx)
	if err != nil {
		t.Fatalf("TestCards failed: %v", err)
	}
	// Fixture has one item in the 7-10 band, none in 4-6.9 and one in
	// 1-3.9 (the burger's 12.5 sits above every band).
	if len(cards) != 2 {
		t.Fatalf("expected 2 cards, got %d", len(cards))
	}
	seen := map[int]bool{}
	for _, c := range cards {
		seen[c.ID] = true
	}
	if !seen[1] || !seen[3] {
		t.Fatalf("expected cards 1 and 3, got %#v", cards)
	}
}

func TestGetImportStatus(t *testing.T) {
	store := setupImportedStore(t)
	ctx := context.Background()

	if err := store.SavePreference(ctx, 1, true); err != nil {
		t.Fatalf("SavePreference failed: %v", err)
	}

	importer := NewCSVImporter(store, zap.NewNop().Sugar())
	status, err := importer.GetImportStatus(ctx)
	if err != nil {
		t.Fatalf("GetImportStatus failed: %v", err)
	}
	if status["foods"] != 3 || status["preferences"] != 1 {
		t.Fatalf("unexpected status: %v", status)
	}
}

func TestStoreHealth(t *testing.T) {
	store := setupTestStore(t)
	if err := store.Health(context.Background()); err != nil {
		t.Fatalf("Health failed: %v", err)
	}
}

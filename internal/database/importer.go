package database

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/bitematch/bitematch/internal/models"
)

// CSVImporter loads the classified food dataset into the store. The
// dataset already carries the offline-computed health_score, food_type
// and protein_type labels; the importer only fills in the nutrient-flag
// reasoning when a row lacks one.
type CSVImporter struct {
	store *Store
	log   *zap.SugaredLogger
}

// NewCSVImporter creates a new dataset importer.
func NewCSVImporter(store *Store, log *zap.SugaredLogger) *CSVImporter {
	return &CSVImporter{store: store, log: log}
}

// ImportIfEmpty imports the dataset at path unless the foods table
// already has rows. A missing path is not an error when the table is
// populated.
func (i *CSVImporter) ImportIfEmpty(ctx context.Context, path string) error {
	count, err := i.store.CountFoods(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		i.log.Infow("catalog already populated, skipping import", "rows", count)
		return nil
	}
	if path == "" {
		i.log.Warnw("catalog is empty and no dataset path configured")
		return nil
	}
	return i.ImportFoods(ctx, path)
}

// ImportFoods parses the CSV dataset and inserts every row into the
// foods table in a single transaction.
func (i *CSVImporter) ImportFoods(ctx context.Context, path string) error {
	i.log.Infow("importing food dataset", "path", path)

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open dataset: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("failed to read dataset header: %w", err)
	}
	columns := make(map[string]int, len(header))
	for idx, name := range header {
		columns[strings.TrimSpace(strings.ToLower(name))] = idx
	}

	tx, err := i.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	insert := `
        INSERT INTO foods (
            food_category, restaurant, item_name, item_description,
            calories, total_fat, saturated_fat, trans_fat,
            cholesterol, sodium, carbohydrates, dietary_fiber,
            sugar, protein, health_score, reasoning,
            protein_type, food_type
        )
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `
	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	imported := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read dataset row: %w", err)
		}

		it := rowToItem(record, columns)
		if it.Reasoning == "" {
			it.Reasoning = computeReasoning(it)
		}

		_, err = stmt.ExecContext(ctx,
			it.FoodCategory, it.Restaurant, it.ItemName, it.ItemDescription,
			it.Calories, it.TotalFat, it.SaturatedFat, it.TransFat,
			it.Cholesterol, it.Sodium, it.Carbohydrates, it.DietaryFiber,
			it.Sugar, it.Protein, it.HealthScore, it.Reasoning,
			it.ProteinType, it.FoodType)
		if err != nil {
			return fmt.Errorf("failed to insert food row: %w", err)
		}
		imported++
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit import: %w", err)
	}

	i.log.Infow("food dataset imported", "rows", imported)
	return nil
}

func rowToItem(record []string, columns map[string]int) models.FoodItem {
	field := func(name string) string {
		idx, ok := columns[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}
	number := func(name string) float64 {
		v, err := strconv.ParseFloat(field(name), 64)
		if err != nil {
			return 0
		}
		return v
	}

	return models.FoodItem{
		FoodCategory:    field("food_category"),
		Restaurant:      field("restaurant"),
		ItemName:        field("item_name"),
		ItemDescription: field("item_description"),
		Calories:        int(number("calories")),
		TotalFat:        number("total_fat"),
		SaturatedFat:    number("saturated_fat"),
		TransFat:        number("trans_fat"),
		Cholesterol:     number("cholesterol"),
		Sodium:          number("sodium"),
		Carbohydrates:   number("carbohydrates"),
		DietaryFiber:    number("dietary_fiber"),
		Sugar:           number("sugar"),
		Protein:         number("protein"),
		HealthScore:     number("health_score"),
		Reasoning:       field("reasoning"),
		ProteinType:     labelOrUnknown(field("protein_type")),
		FoodType:        labelOrUnknown(field("food_type")),
	}
}

func labelOrUnknown(v string) string {
	if v == "" {
		return "Unknown"
	}
	return v
}

// Per-meal nutrient targets used for the reasoning flags.
var mealTargets = map[string]float64{
	"calories":      600,
	"total fat":     20,
	"saturated fat": 7,
	"trans fat":     0.5,
	"cholesterol":   60,
	"sodium":        800,
	"dietary fiber": 5,
	"sugar":         25,
	"protein":       20,
}

// computeReasoning builds the human-readable nutrient-flag summary for a
// row: nutrients above the per-meal target are flagged high, fiber and
// protein under 70% of target are flagged low.
func computeReasoning(it models.FoodItem) string {
	var high, low []string

	overTargets := []struct {
		name  string
		value float64
	}{
		{"calories", float64(it.Calories)},
		{"total fat", it.TotalFat},
		{"saturated fat", it.SaturatedFat},
		{"trans fat", it.TransFat},
		{"cholesterol", it.Cholesterol},
		{"sodium", it.Sodium},
		{"sugar", it.Sugar},
	}
	for _, t := range overTargets {
		if t.value > mealTargets[t.name] {
			high = append(high, t.name)
		}
	}

	underTargets := []struct {
		name  string
		value float64
	}{
		{"dietary fiber", it.DietaryFiber},
		{"protein", it.Protein},
	}
	for _, t := range underTargets {
		if t.value < mealTargets[t.name]*0.7 {
			low = append(low, t.name)
		}
	}

	if len(high) == 0 && len(low) == 0 {
		return "Balanced"
	}
	var parts []string
	if len(high) > 0 {
		parts = append(parts, "High: "+strings.Join(high, ", "))
	}
	if len(low) > 0 {
		parts = append(parts, "Low: "+strings.Join(low, ", "))
	}
	return strings.Join(parts, " | ")
}

// GetImportStatus reports the current row counts.
func (i *CSVImporter) GetImportStatus(ctx context.Context) (map[string]int, error) {
	foods, err := i.store.CountFoods(ctx)
	if err != nil {
		return nil, err
	}
	var prefs int
	if err := i.store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM preferences").Scan(&prefs); err != nil {
		return nil, fmt.Errorf("failed to count preferences: %w", err)
	}
	return map[string]int{
		"foods":       foods,
		"preferences": prefs,
	}, nil
}

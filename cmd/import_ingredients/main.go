package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"rationbook/internal/config"
	"rationbook/internal/db"
	"rationbook/models"
)

func main() {
	csvPath := "ingredient catalog.csv"
	if len(os.Args) > 1 {
		csvPath = os.Args[1]
	}

	if err := run(csvPath); err != nil {
		fmt.Fprintf(os.Stderr, "import failed: %v\n", err)
		os.Exit(1)
	}
}

func run(csvPath string) error {
	if strings.TrimSpace(csvPath) == "" {
		return fmt.Errorf("csv path must not be empty")
	}

	if _, err := os.Stat(csvPath); err != nil {
		return fmt.Errorf("locate csv: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	database, err := db.Initialize(cfg.Database)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	if err := db.AutoMigrate(database); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	records, err := readCSV(csvPath)
	if err != nil {
		return fmt.Errorf("read csv: %w", err)
	}

	imported := 0
	for idx, record := range records {
		if err := database.Transaction(func(tx *gorm.DB) error {
			ingredient := buildIngredient(record)
			if ingredient.Name == "" {
				return nil
			}

			var existing models.Ingredient
			err := tx.Where("lower(name) = ?", strings.ToLower(ingredient.Name)).First(&existing).Error
			switch {
			case err == nil:
				updates := map[string]any{
					"category":          ingredient.Category,
					"unit":              ingredient.Unit,
					"cost_per_unit":     ingredient.CostPerUnit,
					"dry_matter_pct":    ingredient.DryMatterPct,
					"description":       ingredient.Description,
					"available":         ingredient.Available,
					"max_inclusion_pct": ingredient.MaxInclusionPct,
				}
				if err := tx.Model(&existing).Updates(updates).Error; err != nil {
					return fmt.Errorf("update ingredient %q: %w", ingredient.Name, err)
				}
			case errors.Is(err, gorm.ErrRecordNotFound):
				if err := tx.Create(&ingredient).Error; err != nil {
					return fmt.Errorf("create ingredient %q: %w", ingredient.Name, err)
				}
			default:
				return fmt.Errorf("find ingredient %q: %w", ingredient.Name, err)
			}
			return nil
		}); err != nil {
			return fmt.Errorf("row %d: %w", idx+2, err)
		}
		imported++
	}

	fmt.Printf("imported %d ingredient rows from %s\n", imported, csvPath)
	return nil
}

type catalogRecord map[string]string

func readCSV(path string) ([]catalogRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i := range header {
		header[i] = strings.ToLower(strings.TrimSpace(header[i]))
	}

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}

	records := make([]catalogRecord, 0, len(rows))
	for _, row := range rows {
		record := catalogRecord{}
		for i, value := range row {
			if i < len(header) {
				record[header[i]] = strings.TrimSpace(value)
			}
		}
		records = append(records, record)
	}
	return records, nil
}

func buildIngredient(record catalogRecord) models.Ingredient {
	unit := record["unit"]
	if unit == "" {
		unit = "kg"
	}

	available := true
	if raw := record["available"]; raw != "" {
		if parsed, err := strconv.ParseBool(raw); err == nil {
			available = parsed
		}
	}

	return models.Ingredient{
		Name:            record["name"],
		Category:        record["category"],
		Unit:            unit,
		CostPerUnit:     parseFloatField(record["cost_per_unit"]),
		DryMatterPct:    parseFloatField(record["dry_matter_pct"]),
		Description:     record["description"],
		Available:       available,
		MaxInclusionPct: parseFloatField(record["max_inclusion_pct"]),
	}
}

func parseFloatField(value string) float64 {
	trimmed := strings.TrimSpace(strings.TrimSuffix(value, "%"))
	if trimmed == "" {
		return 0
	}
	parsed, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return 0
	}
	return parsed
}

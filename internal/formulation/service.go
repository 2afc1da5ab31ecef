package formulation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	applog "rationbook/internal/log"
	"rationbook/models"
)

// ServiceConfig holds the engine's feature switches.
type ServiceConfig struct {
	// VersionCheck rejects updates whose expected version no longer matches
	// the stored row.
	VersionCheck bool
}

// Service is the only entry point that mutates formulations and their
// ingredient rows. Every write path runs inside a single database
// transaction: either all of a formulation's concomitant writes commit, or
// none do.
type Service struct {
	db           *gorm.DB
	versionCheck bool
}

// NewService builds a Service on top of the shared database handle.
func NewService(db *gorm.DB, cfg ServiceConfig) *Service {
	return &Service{db: db, versionCheck: cfg.VersionCheck}
}

// MetadataPatch carries field-level updates; nil fields are left untouched.
type MetadataPatch struct {
	Name              *string
	Type              *string
	AnimalID          *uint
	StageID           *uint
	TotalQuantity     *float64
	TotalCost         *float64
	Analysis          datatypes.JSON
	MeetsRequirements *bool
	Notes             *string
}

// UpdateInput describes an update request. Entries nil leaves the ingredient
// set untouched; a non-nil slice replaces it wholesale. ExpectedVersion is
// only consulted when the service runs with version checks enabled.
type UpdateInput struct {
	Metadata        *MetadataPatch
	Entries         []Entry
	ExpectedVersion *int
}

// ListFilter narrows List results.
type ListFilter struct {
	Status   string
	AnimalID uint
	StageID  uint
	Query    string
}

// Create validates the proposed mix, persists the formulation together with
// its ingredient rows, and returns the stored result. New formulations always
// start in draft status.
func (s *Service) Create(ctx context.Context, meta Metadata, entries []Entry) (*models.Formulation, error) {
	if err := ValidateMetadata(meta); err != nil {
		return nil, err
	}
	if err := ValidateEntries(entries); err != nil {
		return nil, err
	}
	if err := ValidatePercentages(entries); err != nil {
		return nil, err
	}

	var created *models.Formulation
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		record := models.Formulation{
			Name:              strings.TrimSpace(meta.Name),
			Type:              meta.Type,
			Status:            models.StatusDraft,
			AnimalID:          meta.AnimalID,
			StageID:           meta.StageID,
			TotalQuantity:     meta.TotalQuantity,
			TotalCost:         meta.TotalCost,
			CostPerUnit:       costPerUnit(meta.TotalCost, meta.TotalQuantity),
			IngredientCount:   len(entries),
			MainIngredients:   BuildSummary(entries),
			Analysis:          meta.Analysis,
			MeetsRequirements: meta.MeetsRequirements,
			Version:           1,
			Notes:             meta.Notes,
		}
		if err := tx.Create(&record).Error; err != nil {
			return fmt.Errorf("insert formulation: %w", err)
		}

		unitCosts, err := resolveUnitCosts(tx, entries)
		if err != nil {
			return fmt.Errorf("resolve unit costs: %w", err)
		}

		rows := buildIngredientRows(ctx, record.ID, entries, unitCosts, meta.TotalCost)
		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("insert formulation ingredients: %w", err)
		}

		loaded, err := loadFormulation(tx, record.ID)
		if err != nil {
			return err
		}
		created = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}

	applog.Info(ctx, "formulation created", "id", created.ID, "name", created.Name, "ingredients", created.IngredientCount)
	return created, nil
}

// Update applies metadata changes and, when entries are supplied, replaces
// the ingredient set wholesale, recomputing costs, the main-ingredient digest
// and the ingredient count inside one transaction. Active formulations are
// rejected.
func (s *Service) Update(ctx context.Context, id uint, in UpdateInput) (*models.Formulation, error) {
	if in.Metadata != nil {
		if err := validateMetadataPatch(in.Metadata); err != nil {
			return nil, err
		}
	}
	if in.Entries != nil {
		if err := ValidateEntries(in.Entries); err != nil {
			return nil, err
		}
		if err := ValidatePercentages(in.Entries); err != nil {
			return nil, err
		}
	}

	var updated *models.Formulation
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current models.Formulation
		if err := tx.First(&current, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if !current.Editable() {
			return ErrActiveFormulation
		}
		if s.versionCheck && in.ExpectedVersion != nil && *in.ExpectedVersion != current.Version {
			return ErrVersionConflict
		}

		updates := map[string]any{}
		if in.Metadata != nil {
			applyMetadataPatch(updates, in.Metadata)
		}

		totalCost := current.TotalCost
		if in.Metadata != nil && in.Metadata.TotalCost != nil {
			totalCost = *in.Metadata.TotalCost
		}
		totalQuantity := current.TotalQuantity
		if in.Metadata != nil && in.Metadata.TotalQuantity != nil {
			totalQuantity = *in.Metadata.TotalQuantity
		}
		if in.Metadata != nil && (in.Metadata.TotalCost != nil || in.Metadata.TotalQuantity != nil) {
			updates["cost_per_unit"] = costPerUnit(totalCost, totalQuantity)
		}

		if in.Entries != nil {
			if err := tx.Unscoped().
				Where("formulation_id = ?", current.ID).
				Delete(&models.FormulationIngredient{}).Error; err != nil {
				return fmt.Errorf("clear formulation ingredients: %w", err)
			}

			unitCosts, err := resolveUnitCosts(tx, in.Entries)
			if err != nil {
				return fmt.Errorf("resolve unit costs: %w", err)
			}

			rows := buildIngredientRows(ctx, current.ID, in.Entries, unitCosts, totalCost)
			if err := tx.Create(&rows).Error; err != nil {
				return fmt.Errorf("insert formulation ingredients: %w", err)
			}

			updates["ingredient_count"] = len(in.Entries)
			updates["main_ingredients"] = BuildSummary(in.Entries)
		}

		updates["version"] = current.Version + 1

		query := tx.Model(&models.Formulation{}).Where("id = ?", current.ID)
		if s.versionCheck {
			query = query.Where("version = ?", current.Version)
		}
		result := query.Updates(updates)
		if result.Error != nil {
			return fmt.Errorf("update formulation: %w", result.Error)
		}
		if s.versionCheck && result.RowsAffected == 0 {
			return ErrVersionConflict
		}

		loaded, err := loadFormulation(tx, current.ID)
		if err != nil {
			return err
		}
		updated = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}

	applog.Info(ctx, "formulation updated", "id", updated.ID, "version", updated.Version)
	return updated, nil
}

// Delete removes a non-active formulation and its ingredient rows.
func (s *Service) Delete(ctx context.Context, id uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current models.Formulation
		if err := tx.First(&current, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if !current.Editable() {
			return ErrActiveFormulation
		}

		if err := tx.Unscoped().
			Where("formulation_id = ?", current.ID).
			Delete(&models.FormulationIngredient{}).Error; err != nil {
			return fmt.Errorf("delete formulation ingredients: %w", err)
		}
		if err := tx.Delete(&current).Error; err != nil {
			return fmt.Errorf("delete formulation: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	applog.Info(ctx, "formulation deleted", "id", id)
	return nil
}

// Duplicate creates a new draft formulation copying the source's metadata and
// ingredient proportions. Costs are recomputed from current unit costs; the
// copy is a draft regardless of the source's status.
func (s *Service) Duplicate(ctx context.Context, id uint, newName string) (*models.Formulation, error) {
	source, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(newName)
	if name == "" {
		name = fmt.Sprintf("%s (Copy)", source.Name)
	}

	entries := make([]Entry, 0, len(source.Ingredients))
	for _, row := range source.Ingredients {
		entries = append(entries, Entry{
			IngredientID: row.IngredientID,
			Quantity:     row.Quantity,
			Percentage:   row.Percentage,
			Role:         row.Role,
			Essential:    row.Essential,
		})
	}

	meta := Metadata{
		Name:              name,
		Type:              source.Type,
		AnimalID:          source.AnimalID,
		StageID:           source.StageID,
		TotalQuantity:     source.TotalQuantity,
		TotalCost:         source.TotalCost,
		Analysis:          source.Analysis,
		MeetsRequirements: source.MeetsRequirements,
		Notes:             source.Notes,
	}

	return s.Create(ctx, meta, entries)
}

// ToggleStatus flips a formulation between active and draft. This is the only
// sanctioned way into or out of the active status.
func (s *Service) ToggleStatus(ctx context.Context, id uint, activate bool) (*models.Formulation, error) {
	status := models.StatusDraft
	if activate {
		status = models.StatusActive
	}

	var toggled *models.Formulation
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current models.Formulation
		if err := tx.First(&current, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		if err := tx.Model(&current).Update("status", status).Error; err != nil {
			return fmt.Errorf("toggle formulation status: %w", err)
		}

		loaded, err := loadFormulation(tx, current.ID)
		if err != nil {
			return err
		}
		toggled = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}

	applog.Info(ctx, "formulation status toggled", "id", id, "status", status)
	return toggled, nil
}

// Get returns the formulation with its ingredient rows ordered by display
// order, each annotated with its referenced ingredient, plus the animal and
// stage lookups.
func (s *Service) Get(ctx context.Context, id uint) (*models.Formulation, error) {
	return loadFormulation(s.db.WithContext(ctx), id)
}

// List returns formulations matching the filter ordered by name.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]models.Formulation, error) {
	query := s.db.WithContext(ctx).
		Model(&models.Formulation{}).
		Preload("Animal").
		Preload("Stage").
		Order("name asc")

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.AnimalID != 0 {
		query = query.Where("animal_id = ?", filter.AnimalID)
	}
	if filter.StageID != 0 {
		query = query.Where("stage_id = ?", filter.StageID)
	}
	if trimmed := strings.TrimSpace(filter.Query); trimmed != "" {
		query = query.Where("lower(name) LIKE ?", "%"+strings.ToLower(trimmed)+"%")
	}

	var results []models.Formulation
	if err := query.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func loadFormulation(tx *gorm.DB, id uint) (*models.Formulation, error) {
	var record models.Formulation
	err := tx.
		Preload("Ingredients", func(db *gorm.DB) *gorm.DB {
			return db.Order("display_order asc")
		}).
		Preload("Ingredients.Ingredient").
		Preload("Animal").
		Preload("Stage").
		First(&record, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

func buildIngredientRows(ctx context.Context, formulationID uint, entries []Entry, unitCosts map[uint]float64, totalCost float64) []models.FormulationIngredient {
	shares := AllocateCosts(ctx, entries, unitCosts, totalCost)
	rows := make([]models.FormulationIngredient, len(entries))
	for i, entry := range entries {
		rows[i] = models.FormulationIngredient{
			FormulationID:    formulationID,
			IngredientID:     entry.IngredientID,
			Quantity:         entry.Quantity,
			Percentage:       entry.Percentage,
			Proportion:       entry.Percentage / 100,
			CostContribution: shares[i].Contribution,
			CostPercentage:   shares[i].Percentage,
			Role:             entry.Role,
			Essential:        entry.Essential,
			DisplayOrder:     i,
		}
	}
	return rows
}

func applyMetadataPatch(updates map[string]any, patch *MetadataPatch) {
	if patch.Name != nil {
		updates["name"] = strings.TrimSpace(*patch.Name)
	}
	if patch.Type != nil {
		updates["type"] = *patch.Type
	}
	if patch.AnimalID != nil {
		updates["animal_id"] = *patch.AnimalID
	}
	if patch.StageID != nil {
		updates["stage_id"] = *patch.StageID
	}
	if patch.TotalQuantity != nil {
		updates["total_quantity"] = *patch.TotalQuantity
	}
	if patch.TotalCost != nil {
		updates["total_cost"] = *patch.TotalCost
	}
	if patch.Analysis != nil {
		updates["analysis"] = patch.Analysis
	}
	if patch.MeetsRequirements != nil {
		updates["meets_requirements"] = *patch.MeetsRequirements
	}
	if patch.Notes != nil {
		updates["notes"] = *patch.Notes
	}
}

func validateMetadataPatch(patch *MetadataPatch) error {
	verr := &ValidationError{}

	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		verr.add("name", "name must not be empty")
	}
	if patch.Type != nil && !models.KnownFormulationType(*patch.Type) {
		verr.add("type", fmt.Sprintf("unknown formulation type %q", *patch.Type))
	}
	if patch.TotalQuantity != nil && *patch.TotalQuantity < 0 {
		verr.add("total_quantity", "total quantity must not be negative")
	}
	if patch.TotalCost != nil && *patch.TotalCost < 0 {
		verr.add("total_cost", "total cost must not be negative")
	}

	return verr.orNil()
}

func costPerUnit(totalCost, totalQuantity float64) float64 {
	if totalQuantity <= 0 {
		return 0
	}
	return totalCost / totalQuantity
}

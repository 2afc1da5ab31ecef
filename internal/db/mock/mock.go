package mock

import (
	"context"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	applog "rationbook/internal/log"
	"rationbook/models"
)

// New returns an in-memory sqlite database seeded with representative feed data.
func New(ctx context.Context) (*gorm.DB, error) {
	applog.Debug(ctx, "initialising mock database")

	db, err := gorm.Open(sqlite.Open("file:rationbook-mock?mode=memory&cache=shared"), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		PrepareStmt:                              true,
		SkipDefaultTransaction:                   true,
		DisableForeignKeyConstraintWhenMigrating: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Nutrient{},
		&models.Ingredient{},
		&models.IngredientNutrient{},
		&models.Animal{},
		&models.ProductionStage{},
		&models.Formulation{},
		&models.FormulationIngredient{},
	); err != nil {
		return nil, err
	}

	if err := seed(ctx, db); err != nil {
		return nil, err
	}

	applog.Debug(ctx, "mock database ready")
	return db, nil
}

func seed(ctx context.Context, db *gorm.DB) error {
	applog.Debug(ctx, "seeding mock database")

	password, err := bcrypt.GenerateFromPassword([]byte("granary"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	user := &models.User{
		Name:         "Mill Operator",
		Email:        "operator@rationbook.app",
		PasswordHash: string(password),
	}
	if err := db.WithContext(ctx).Create(user).Error; err != nil {
		return err
	}

	protein := models.Nutrient{Name: "Crude Protein", Unit: "%", Category: "proximate"}
	lysine := models.Nutrient{Name: "Lysine", Unit: "%", Category: "amino acid"}
	calcium := models.Nutrient{Name: "Calcium", Unit: "%", Category: "mineral"}
	for _, nutrient := range []*models.Nutrient{&protein, &lysine, &calcium} {
		if err := db.WithContext(ctx).Create(nutrient).Error; err != nil {
			return err
		}
	}

	corn := models.Ingredient{
		Name:         "Yellow Corn",
		Category:     "energy",
		Unit:         "kg",
		CostPerUnit:  0.28,
		DryMatterPct: 88.0,
		Description:  "Ground yellow dent corn, primary energy source.",
		Available:    true,
	}
	soy := models.Ingredient{
		Name:         "Soybean Meal 48",
		Category:     "protein",
		Unit:         "kg",
		CostPerUnit:  0.52,
		DryMatterPct: 89.0,
		Description:  "Solvent-extracted soybean meal, 48% crude protein.",
		Available:    true,
	}
	bran := models.Ingredient{
		Name:         "Wheat Bran",
		Category:     "fiber",
		Unit:         "kg",
		CostPerUnit:  0.18,
		DryMatterPct: 87.0,
		Available:    true,
	}
	limestone := models.Ingredient{
		Name:         "Limestone",
		Category:     "mineral",
		Unit:         "kg",
		CostPerUnit:  0.06,
		DryMatterPct: 98.0,
		Available:    true,
	}
	premix := models.Ingredient{
		Name:            "Vitamin-Mineral Premix",
		Category:        "additive",
		Unit:            "kg",
		CostPerUnit:     2.40,
		DryMatterPct:    95.0,
		Available:       true,
		MaxInclusionPct: 1.0,
	}
	ingredients := []*models.Ingredient{&corn, &soy, &bran, &limestone, &premix}
	for _, ingredient := range ingredients {
		if err := db.WithContext(ctx).Create(ingredient).Error; err != nil {
			return err
		}
	}

	nutrientRows := []models.IngredientNutrient{
		{IngredientID: corn.ID, NutrientID: protein.ID, Amount: 8.5, Basis: models.BasisAsFed},
		{IngredientID: corn.ID, NutrientID: lysine.ID, Amount: 0.26, Basis: models.BasisAsFed},
		{IngredientID: soy.ID, NutrientID: protein.ID, Amount: 48.0, Basis: models.BasisAsFed},
		{IngredientID: soy.ID, NutrientID: lysine.ID, Amount: 3.02, Basis: models.BasisAsFed},
		{IngredientID: limestone.ID, NutrientID: calcium.ID, Amount: 38.0, Basis: models.BasisDryMatter},
	}
	for _, row := range nutrientRows {
		rowCopy := row
		if err := db.WithContext(ctx).Create(&rowCopy).Error; err != nil {
			return err
		}
	}

	broiler := models.Animal{Name: "Broiler", Species: "chicken"}
	if err := db.WithContext(ctx).Create(&broiler).Error; err != nil {
		return err
	}

	starter := models.ProductionStage{AnimalID: broiler.ID, Name: "Starter", MinWeightKg: 0.04, MaxWeightKg: 0.5}
	grower := models.ProductionStage{AnimalID: broiler.ID, Name: "Grower", MinWeightKg: 0.5, MaxWeightKg: 1.8}
	for _, stage := range []*models.ProductionStage{&starter, &grower} {
		if err := db.WithContext(ctx).Create(stage).Error; err != nil {
			return err
		}
	}

	ration := models.Formulation{
		Name:            "Broiler Starter",
		Type:            models.TypeCustom,
		Status:          models.StatusDraft,
		AnimalID:        broiler.ID,
		StageID:         starter.ID,
		TotalQuantity:   1000,
		TotalCost:       352.6,
		CostPerUnit:     0.3526,
		IngredientCount: 4,
		MainIngredients: models.MainIngredientList{
			{IngredientID: corn.ID, Percentage: 58},
			{IngredientID: soy.ID, Percentage: 34},
			{IngredientID: limestone.ID, Percentage: 7},
			{IngredientID: premix.ID, Percentage: 1},
		},
	}
	if err := db.WithContext(ctx).Create(&ration).Error; err != nil {
		return err
	}

	mix := []models.FormulationIngredient{
		{FormulationID: ration.ID, IngredientID: corn.ID, Quantity: 580, Percentage: 58, Proportion: 0.58, CostContribution: 162.4, CostPercentage: 46.06, Role: models.RolePrimary, Essential: true, DisplayOrder: 0},
		{FormulationID: ration.ID, IngredientID: soy.ID, Quantity: 340, Percentage: 34, Proportion: 0.34, CostContribution: 176.8, CostPercentage: 50.14, Role: models.RolePrimary, Essential: true, DisplayOrder: 1},
		{FormulationID: ration.ID, IngredientID: limestone.ID, Quantity: 70, Percentage: 7, Proportion: 0.07, CostContribution: 4.2, CostPercentage: 1.19, Role: models.RoleSupplement, DisplayOrder: 2},
		{FormulationID: ration.ID, IngredientID: premix.ID, Quantity: 10, Percentage: 1, Proportion: 0.01, CostContribution: 24.0, CostPercentage: 6.81, Role: models.RoleAdditive, Essential: true, DisplayOrder: 3},
	}
	for _, row := range mix {
		rowCopy := row
		if err := db.WithContext(ctx).Create(&rowCopy).Error; err != nil {
			return err
		}
	}

	applog.Debug(ctx, "mock database seeded")
	return nil
}

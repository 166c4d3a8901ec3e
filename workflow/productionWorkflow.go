package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/mmdatafocus/roastery_backend/models"
	"github.com/shopspring/decimal"
)

// RecordProduction consumes coffee (one stock item or a blend recipe) and packaging
// at their current averages and books the packs produced at the rolled-up cost.
func (b *Books) RecordProduction(ctx context.Context, input *models.NewProduction) (*models.ProductionLog, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	hasItem := input.StockItemId != nil && *input.StockItemId != ""
	hasRecipe := input.RecipeId != nil && *input.RecipeId != ""
	if hasItem == hasRecipe {
		return nil, fmt.Errorf("%w: select either a coffee stock item or a recipe", models.ErrValidation)
	}
	if err := requirePositive("total coffee kg", input.TotalCoffeeKg); err != nil {
		return nil, err
	}
	if err := requireNotNegative("pack count", input.PackCount); err != nil {
		return nil, err
	}
	for _, use := range input.PackagingUses {
		if !use.Role.IsValid() {
			return nil, fmt.Errorf("%w: unknown packaging role %q", models.ErrValidation, use.Role)
		}
		if err := requirePositive("packaging quantity", use.Quantity); err != nil {
			return nil, err
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	p := b.newPosting(ctx)
	brand := strings.TrimSpace(input.Brand)
	productName := strings.TrimSpace(input.ProductName)
	packSize := strings.TrimSpace(input.PackSize)
	run := &models.ProductionLog{
		ID:             models.NewId(),
		ProductionDate: input.ProductionDate,
		Brand:          brand,
		ProductName:    productName,
		PackSize:       packSize,
		PackCount:      input.PackCount,
		TotalCoffeeKg:  input.TotalCoffeeKg,
		Notes:          input.Notes,
		VoidInfo:       models.VoidInfo{Status: models.RecordStatusActive},
		CorrelationId:  p.correlationId,
		CreatedAt:      p.now,
		UpdatedAt:      p.now,
	}

	var uses []models.IngredientUse
	if hasRecipe {
		recipe, ok := b.recipes.get(*input.RecipeId)
		if !ok {
			return nil, notFound("recipe", *input.RecipeId)
		}
		if !recipe.IsActive {
			return nil, fmt.Errorf("%w: recipe %s is inactive", models.ErrValidation, recipe.Name)
		}
		if err := models.ValidateIngredients(recipe.Ingredients); err != nil {
			return nil, err
		}
		recipeId := recipe.ID
		run.RecipeId = &recipeId
		uses = models.RecipeUsage(recipe.Ingredients, input.TotalCoffeeKg, func(id string) decimal.Decimal {
			item, _ := b.stockItems.get(id)
			return item.AverageCost
		})
	} else {
		item, ok := b.stockItems.get(*input.StockItemId)
		if !ok {
			return nil, notFound("stock item", *input.StockItemId)
		}
		if item.Kind == models.StockItemKindPackaging {
			return nil, fmt.Errorf("%w: %s is packaging, not coffee", models.ErrValidation, item.Name)
		}
		itemId := item.ID
		run.StockItemId = &itemId
		uses = []models.IngredientUse{{
			StockItemId: item.ID,
			Quantity:    input.TotalCoffeeKg,
			UnitCost:    item.AverageCost,
			TotalCost:   models.RoundCost(item.AverageCost.Mul(input.TotalCoffeeKg)),
		}}
	}

	coffeeCost := decimal.Zero
	for _, use := range uses {
		if _, err := p.stockMovement(use.StockItemId, use.Quantity.Neg(), use.UnitCost, use.TotalCost.Neg(),
			models.MovementReasonUsage, models.SourceTypeProduction, run.ID, input.ProductionDate); err != nil {
			return nil, err
		}
		coffeeCost = coffeeCost.Add(use.TotalCost)
	}

	packagingCost := decimal.Zero
	packaging := make(models.JSONList[models.PackagingUse], 0, len(input.PackagingUses))
	for _, use := range input.PackagingUses {
		item, err := p.stockItem(use.StockItemId)
		if err != nil {
			return nil, err
		}
		if item.Kind != models.StockItemKindPackaging {
			return nil, fmt.Errorf("%w: %s is not packaging", models.ErrValidation, item.Name)
		}
		unitCost := item.AverageCost
		total := models.RoundCost(unitCost.Mul(use.Quantity))
		if _, err := p.stockMovement(use.StockItemId, use.Quantity.Neg(), unitCost, total.Neg(),
			models.MovementReasonUsage, models.SourceTypeProduction, run.ID, input.ProductionDate); err != nil {
			return nil, err
		}
		packagingCost = packagingCost.Add(total)
		packaging = append(packaging, models.PackagingUse{
			StockItemId: use.StockItemId,
			Role:        use.Role,
			Quantity:    use.Quantity,
			UnitCost:    unitCost,
			TotalCost:   total,
		})
	}

	run.PackagingUses = packaging
	run.CoffeeCost = coffeeCost
	run.PackagingCost = packagingCost
	run.TotalCost = coffeeCost.Add(packagingCost)
	run.UnitCost = models.UnitCost(run.TotalCost, input.PackCount)
	p.cs.Insert(run)

	if input.PackCount.IsPositive() {
		if _, err := p.goodsMovement(brand, productName, packSize, input.PackCount, run.UnitCost, run.TotalCost,
			models.MovementReasonProduction, models.SourceTypeProduction, run.ID, input.ProductionDate); err != nil {
			return nil, err
		}
	}

	if err := b.commit(ctx, p.finish()); err != nil {
		return nil, err
	}
	return run, nil
}

// VoidProduction returns the consumed coffee and packaging to stock and removes
// the produced packs. Rejected when the packs have since been sold.
func (b *Books) VoidProduction(ctx context.Context, id string, reason string) (*models.ProductionLog, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	current, ok := b.productions.get(id)
	if !ok {
		return nil, notFound("production", id)
	}
	if current.IsVoided() {
		return nil, fmt.Errorf("%w: production %s", models.ErrAlreadyVoided, id)
	}

	p := b.newPosting(ctx)
	if _, err := p.reverseMovements(models.SourceTypeProduction, id); err != nil {
		return nil, err
	}

	run := current
	run.MarkVoided(p.now, reason)
	run.UpdatedAt = p.now
	p.cs.Update(&run)

	if err := b.commit(ctx, p.finish()); err != nil {
		return nil, err
	}
	return &run, nil
}

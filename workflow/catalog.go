package workflow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mmdatafocus/roastery_backend/models"
	"github.com/mmdatafocus/roastery_backend/utils"
)

func (b *Books) CreateStockItem(ctx context.Context, input *models.NewStockItem) (*models.StockItem, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	if !input.Kind.IsValid() {
		return nil, fmt.Errorf("%w: unknown stock item kind %q", models.ErrValidation, input.Kind)
	}
	if err := requireNotNegative("reorder level", input.ReorderLevel); err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	p := b.newPosting(ctx)
	item := &models.StockItem{
		ID:           models.NewId(),
		Kind:         input.Kind,
		Name:         strings.TrimSpace(input.Name),
		Unit:         strings.TrimSpace(input.Unit),
		ReorderLevel: input.ReorderLevel,
		IsActive:     true,
		Notes:        input.Notes,
		CreatedAt:    p.now,
		UpdatedAt:    p.now,
	}
	p.cs.Insert(item)
	if err := b.commit(ctx, p.cs); err != nil {
		return nil, err
	}
	return item, nil
}

// UpdateStockItem edits catalog fields. Quantity and average cost only move through movements.
func (b *Books) UpdateStockItem(ctx context.Context, id string, input *models.UpdateStockItem) (*models.StockItem, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	if err := requireNotNegative("reorder level", input.ReorderLevel); err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	current, ok := b.stockItems.get(id)
	if !ok {
		return nil, notFound("stock item", id)
	}
	p := b.newPosting(ctx)
	item := current
	item.Name = strings.TrimSpace(input.Name)
	item.Unit = strings.TrimSpace(input.Unit)
	item.ReorderLevel = input.ReorderLevel
	item.Notes = input.Notes
	item.IsActive = utils.DereferencePtr(input.IsActive, current.IsActive)
	item.UpdatedAt = p.now
	p.cs.Update(&item)
	if err := b.commit(ctx, p.cs); err != nil {
		return nil, err
	}
	return &item, nil
}

// CreateParty registers a customer or supplier and posts its opening balance, if any.
func (b *Books) CreateParty(ctx context.Context, input *models.NewParty) (*models.Party, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	if !input.Type.IsValid() {
		return nil, fmt.Errorf("%w: unknown party type %q", models.ErrValidation, input.Type)
	}
	phone := strings.TrimSpace(input.Phone)
	if phone != "" {
		if err := utils.ValidatePhoneNumber(phone, utils.CountryCode); err != nil {
			return nil, fmt.Errorf("%w: phone: %v", models.ErrValidation, err)
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	p := b.newPosting(ctx)
	party := &models.Party{
		ID:             models.NewId(),
		Type:           input.Type,
		Name:           strings.TrimSpace(input.Name),
		Phone:          phone,
		Email:          strings.ToLower(strings.TrimSpace(input.Email)),
		Address:        input.Address,
		OpeningBalance: input.OpeningBalance,
		IsActive:       true,
		CreatedAt:      p.now,
		UpdatedAt:      p.now,
	}
	p.cs.Insert(party)

	if !input.OpeningBalance.IsZero() {
		direction := models.OpeningBalanceDirection(party.Type)
		if input.OpeningBalance.IsNegative() {
			direction = direction.Opposite()
		}
		p.ledgerEntry(party.ID, models.LedgerCategoryOpeningBalance, direction, input.OpeningBalance.Abs(),
			models.SourceTypeParty, party.ID, p.now, "Opening balance")
	}

	if err := b.commit(ctx, p.cs); err != nil {
		return nil, err
	}
	return party, nil
}

// UpdateParty edits contact fields. The type and opening balance are fixed once posted.
func (b *Books) UpdateParty(ctx context.Context, id string, input *models.UpdateParty) (*models.Party, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	phone := strings.TrimSpace(input.Phone)
	if phone != "" {
		if err := utils.ValidatePhoneNumber(phone, utils.CountryCode); err != nil {
			return nil, fmt.Errorf("%w: phone: %v", models.ErrValidation, err)
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	current, ok := b.parties.get(id)
	if !ok {
		return nil, notFound("party", id)
	}
	p := b.newPosting(ctx)
	party := current
	party.Name = strings.TrimSpace(input.Name)
	party.Phone = phone
	party.Email = strings.ToLower(strings.TrimSpace(input.Email))
	party.Address = input.Address
	party.IsActive = utils.DereferencePtr(input.IsActive, current.IsActive)
	party.UpdatedAt = p.now
	p.cs.Update(&party)
	if err := b.commit(ctx, p.cs); err != nil {
		return nil, err
	}
	return &party, nil
}

func (b *Books) validateRecipeItems(ingredients []models.BlendIngredient) error {
	if err := models.ValidateIngredients(ingredients); err != nil {
		return err
	}
	for _, ing := range ingredients {
		item, ok := b.stockItems.get(ing.StockItemId)
		if !ok {
			return notFound("stock item", ing.StockItemId)
		}
		if item.Kind == models.StockItemKindPackaging {
			return fmt.Errorf("%w: %s is packaging", models.ErrInvalidRecipe, item.Name)
		}
	}
	return nil
}

func (b *Books) CreateRecipe(ctx context.Context, input *models.NewBlendRecipe) (*models.BlendRecipe, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.validateRecipeItems(input.Ingredients); err != nil {
		return nil, err
	}
	p := b.newPosting(ctx)
	recipe := &models.BlendRecipe{
		ID:          models.NewId(),
		Name:        strings.TrimSpace(input.Name),
		Ingredients: models.JSONList[models.BlendIngredient](input.Ingredients),
		IsActive:    true,
		CreatedAt:   p.now,
		UpdatedAt:   p.now,
	}
	p.cs.Insert(recipe)
	if err := b.commit(ctx, p.cs); err != nil {
		return nil, err
	}
	return recipe, nil
}

// UpdateRecipe changes the mix for future runs. Posted production costs are not touched.
func (b *Books) UpdateRecipe(ctx context.Context, id string, input *models.UpdateBlendRecipe) (*models.BlendRecipe, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	current, ok := b.recipes.get(id)
	if !ok {
		return nil, notFound("recipe", id)
	}
	if err := b.validateRecipeItems(input.Ingredients); err != nil {
		return nil, err
	}
	p := b.newPosting(ctx)
	recipe := current
	recipe.Name = strings.TrimSpace(input.Name)
	recipe.Ingredients = models.JSONList[models.BlendIngredient](input.Ingredients)
	recipe.IsActive = utils.DereferencePtr(input.IsActive, current.IsActive)
	recipe.UpdatedAt = p.now
	p.cs.Update(&recipe)
	if err := b.commit(ctx, p.cs); err != nil {
		return nil, err
	}
	return &recipe, nil
}

func (b *Books) UpdateSettings(ctx context.Context, input *models.UpdateSettings) (*models.Settings, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	if _, err := time.LoadLocation(input.Timezone); err != nil {
		return nil, fmt.Errorf("%w: timezone: %v", models.ErrValidation, err)
	}
	for _, r := range strings.Split(input.ReportRecipients, ",") {
		if r = strings.TrimSpace(r); r != "" && !utils.IsValidEmail(r) {
			return nil, fmt.Errorf("%w: invalid recipient %q", models.ErrValidation, r)
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	p := b.newPosting(ctx)
	settings := b.settings
	settings.ID = models.SettingsId
	settings.BusinessName = input.BusinessName
	settings.Currency = input.Currency
	settings.Timezone = input.Timezone
	settings.WeeklyReportWeekday = input.WeeklyReportWeekday
	settings.WeeklyReportHour = input.WeeklyReportHour
	settings.ReportRecipients = input.ReportRecipients
	settings.UpdatedAt = p.now
	p.cs.Upsert(&settings)
	if err := b.commit(ctx, p.cs); err != nil {
		return nil, err
	}
	return &settings, nil
}

// MarkWeeklyReportSent records when the weekly report went out.
func (b *Books) MarkWeeklyReportSent(ctx context.Context, at time.Time) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	p := b.newPosting(ctx)
	settings := b.settings
	settings.ID = models.SettingsId
	settings.LastWeeklyReportAt = &at
	settings.UpdatedAt = p.now
	p.cs.Upsert(&settings)
	return b.commit(ctx, p.cs)
}

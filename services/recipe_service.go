package services

import (
	"context"
	"fmt"
	"slices"
	"time"

	"restaurant-api/models"
	"restaurant-api/policy"

	"gorm.io/gorm"
)

type RecipeService struct{ deps }

type IngredientInput struct {
	InventoryItemID uint    `json:"inventory_item_id" validate:"required"`
	Quantity        float64 `json:"quantity" validate:"gt=0"`
}

type upsertRecipeInput struct {
	MenuItemID  uint              `validate:"required"`
	Ingredients []IngredientInput `validate:"dive"`
}

func (s *RecipeService) List(ctx context.Context) ([]models.Recipe, error) {
	var recipes []models.Recipe
	err := s.db.WithContext(ctx).
		Preload("MenuItem").
		Preload("Ingredients.InventoryItem").
		Order("id asc").
		Find(&recipes).Error
	return recipes, err
}

// ForMenuItem returns the recipe of a menu item.
func (s *RecipeService) ForMenuItem(ctx context.Context, menuItemID uint) (*models.Recipe, error) {
	var recipe models.Recipe
	err := s.db.WithContext(ctx).
		Preload("MenuItem").
		Preload("Ingredients", func(db *gorm.DB) *gorm.DB { return db.Order("inventory_item_id asc") }).
		Preload("Ingredients.InventoryItem").
		Where("menu_item_id = ?", menuItemID).
		First(&recipe).Error
	if err != nil {
		return nil, notFound(err, "recipe for menu item", menuItemID)
	}
	return &recipe, nil
}

// Upsert makes the menu item's recipe match ingredients exactly. The recipe
// row is created once and then kept; ingredient rows are diffed in place so
// the recipe is never observed missing or half-written.
func (s *RecipeService) Upsert(ctx context.Context, actor Actor, menuItemID uint, ingredients []IngredientInput) (*models.Recipe, error) {
	if err := authorize(policy.OpManageRecipes, actor); err != nil {
		return nil, err
	}
	if err := validateInput(upsertRecipeInput{MenuItemID: menuItemID, Ingredients: ingredients}); err != nil {
		return nil, err
	}

	desired := map[uint]float64{}
	for _, ing := range ingredients {
		desired[ing.InventoryItemID] += ing.Quantity
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var menuItem models.MenuItem
		if err := tx.First(&menuItem, menuItemID).Error; err != nil {
			return notFound(err, "menu item", menuItemID)
		}
		if len(desired) > 0 {
			ids := make([]uint, 0, len(desired))
			for id := range desired {
				ids = append(ids, id)
			}
			var found int64
			if err := tx.Model(&models.InventoryItem{}).Where("id IN ?", ids).Count(&found).Error; err != nil {
				return err
			}
			if int(found) != len(ids) {
				return fmt.Errorf("%w: one or more inventory items do not exist", ErrNotFound)
			}
		}

		recipe := models.Recipe{MenuItemID: menuItemID}
		if err := tx.Where(models.Recipe{MenuItemID: menuItemID}).FirstOrCreate(&recipe).Error; err != nil {
			return fmt.Errorf("load recipe: %w", err)
		}

		var existing []models.RecipeIngredient
		if err := tx.Where("recipe_id = ?", recipe.ID).Find(&existing).Error; err != nil {
			return err
		}
		ops := DiffIngredients(existing, desired)
		if len(ops.Remove) > 0 {
			if err := tx.Delete(&models.RecipeIngredient{}, ops.Remove).Error; err != nil {
				return fmt.Errorf("remove ingredients: %w", err)
			}
		}
		for _, u := range ops.Update {
			if err := tx.Model(&models.RecipeIngredient{}).Where("id = ?", u.ID).
				Update("quantity", u.Quantity).Error; err != nil {
				return fmt.Errorf("update ingredient: %w", err)
			}
		}
		for _, add := range ops.Add {
			add.RecipeID = recipe.ID
			if err := tx.Create(&add).Error; err != nil {
				return fmt.Errorf("add ingredient: %w", err)
			}
		}
		// bump updated_at even when only children changed
		return tx.Model(&recipe).Update("updated_at", time.Now().UTC()).Error
	})
	if err != nil {
		return nil, err
	}
	s.log.WithField("menu_item_id", menuItemID).WithField("ingredients", len(desired)).Info("recipe saved")
	return s.ForMenuItem(ctx, menuItemID)
}

// IngredientOps is the change set that turns one ingredient list into another.
type IngredientOps struct {
	Add    []models.RecipeIngredient
	Update []models.RecipeIngredient
	Remove []uint
}

// DiffIngredients compares stored rows with the desired inventory→quantity map.
func DiffIngredients(existing []models.RecipeIngredient, desired map[uint]float64) IngredientOps {
	var ops IngredientOps
	seen := map[uint]bool{}
	for _, row := range existing {
		qty, keep := desired[row.InventoryItemID]
		if !keep || seen[row.InventoryItemID] {
			ops.Remove = append(ops.Remove, row.ID)
			continue
		}
		seen[row.InventoryItemID] = true
		if qty != row.Quantity {
			row.Quantity = qty
			ops.Update = append(ops.Update, row)
		}
	}
	ids := make([]uint, 0, len(desired))
	for id := range desired {
		if !seen[id] {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	for _, id := range ids {
		ops.Add = append(ops.Add, models.RecipeIngredient{InventoryItemID: id, Quantity: desired[id]})
	}
	return ops
}

func (s *RecipeService) Delete(ctx context.Context, actor Actor, recipeID uint) error {
	if err := authorize(policy.OpManageRecipes, actor); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("recipe_id = ?", recipeID).Delete(&models.RecipeIngredient{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Recipe{}, recipeID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: recipe %d", ErrNotFound, recipeID)
		}
		return nil
	})
}

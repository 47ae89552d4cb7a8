package services

import (
	"context"
	"fmt"
	"strings"

	"restaurant-api/events"
	"restaurant-api/models"
	"restaurant-api/policy"

	"gorm.io/gorm"
)

type InventoryService struct{ deps }

type CreateInventoryInput struct {
	Name      string `json:"name" validate:"required"`
	Quantity  int    `json:"quantity" validate:"min=0"`
	Unit      string `json:"unit" validate:"required"`
	Threshold int    `json:"threshold" validate:"min=0"`
}

func (s *InventoryService) List(ctx context.Context) ([]models.InventoryItem, error) {
	var items []models.InventoryItem
	if err := s.db.WithContext(ctx).Order("created_at desc").Order("id desc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *InventoryService) Get(ctx context.Context, id uint) (*models.InventoryItem, error) {
	var item models.InventoryItem
	if err := s.db.WithContext(ctx).First(&item, id).Error; err != nil {
		return nil, notFound(err, "inventory item", id)
	}
	return &item, nil
}

// LowStock returns items at or below their threshold, lowest stock first.
func (s *InventoryService) LowStock(ctx context.Context) ([]models.InventoryItem, error) {
	var items []models.InventoryItem
	err := s.db.WithContext(ctx).
		Where("quantity <= threshold").
		Order("quantity asc").
		Find(&items).Error
	return items, err
}

func (s *InventoryService) Create(ctx context.Context, actor Actor, in CreateInventoryInput) (*models.InventoryItem, error) {
	if err := authorize(policy.OpManageInventory, actor); err != nil {
		return nil, err
	}
	in.Name = strings.TrimSpace(in.Name)
	in.Unit = strings.TrimSpace(in.Unit)
	if err := validateInput(in); err != nil {
		return nil, err
	}
	item := models.InventoryItem{
		Name:      in.Name,
		Quantity:  in.Quantity,
		Unit:      in.Unit,
		Threshold: in.Threshold,
	}
	if err := s.db.WithContext(ctx).Create(&item).Error; err != nil {
		return nil, fmt.Errorf("create inventory item: %w", err)
	}
	s.changed(ctx, item.ID)
	return &item, nil
}

// Restock adds amount to the item's quantity as one atomic increment.
func (s *InventoryService) Restock(ctx context.Context, actor Actor, id uint, amount int) (*models.InventoryItem, error) {
	if err := authorize(policy.OpManageInventory, actor); err != nil {
		return nil, err
	}
	if amount <= 0 {
		return nil, fmt.Errorf("%w: restock amount must be positive", ErrValidation)
	}
	res := s.db.WithContext(ctx).Model(&models.InventoryItem{}).
		Where("id = ?", id).
		Update("quantity", gorm.Expr("quantity + ?", amount))
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: inventory item %d", ErrNotFound, id)
	}
	s.log.WithField("item_id", id).WithField("amount", amount).Info("inventory restocked")
	s.changed(ctx, id)
	return s.Get(ctx, id)
}

// SetQuantity overwrites the stock count, e.g. after a physical count.
func (s *InventoryService) SetQuantity(ctx context.Context, actor Actor, id uint, quantity int) (*models.InventoryItem, error) {
	if err := authorize(policy.OpManageInventory, actor); err != nil {
		return nil, err
	}
	if quantity < 0 {
		return nil, fmt.Errorf("%w: quantity must be >= 0", ErrValidation)
	}
	res := s.db.WithContext(ctx).Model(&models.InventoryItem{}).
		Where("id = ?", id).
		Update("quantity", quantity)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: inventory item %d", ErrNotFound, id)
	}
	s.changed(ctx, id)
	return s.Get(ctx, id)
}

// Delete removes an item that no recipe uses any more.
func (s *InventoryService) Delete(ctx context.Context, actor Actor, id uint) error {
	if err := authorize(policy.OpDeleteInventory, actor); err != nil {
		return err
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var uses int64
		if err := tx.Model(&models.RecipeIngredient{}).Where("inventory_item_id = ?", id).Count(&uses).Error; err != nil {
			return err
		}
		if uses > 0 {
			return fmt.Errorf("%w: inventory item %d is used by %d recipe ingredient(s)", ErrConflict, id, uses)
		}
		res := tx.Delete(&models.InventoryItem{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: inventory item %d", ErrNotFound, id)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.changed(ctx, id)
	return nil
}

func (s *InventoryService) changed(ctx context.Context, id uint) {
	s.publish(ctx, events.TopicInventory, events.TypeInventoryChanged, map[string]any{"item_id": id})
}

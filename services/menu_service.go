package services

import (
	"context"
	"fmt"
	"strings"

	"restaurant-api/models"
	"restaurant-api/policy"

	"gorm.io/gorm"
)

type MenuService struct{ deps }

type CategoryInput struct {
	Name string `json:"name" validate:"required"`
	Slug string `json:"slug" validate:"required,slug"`
}

type MenuItemInput struct {
	Name        string  `json:"name" validate:"required"`
	Description string  `json:"description"`
	Price       float64 `json:"price" validate:"gte=0"`
	Image       string  `json:"image" validate:"omitempty,url"`
	CategoryID  uint    `json:"category_id" validate:"required"`
	Available   *bool   `json:"available"`
}

// Categories lists every category with its items.
func (s *MenuService) Categories(ctx context.Context) ([]models.Category, error) {
	var cats []models.Category
	err := s.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("name asc") }).
		Order("name asc").
		Find(&cats).Error
	return cats, err
}

func (s *MenuService) CreateCategory(ctx context.Context, actor Actor, in CategoryInput) (*models.Category, error) {
	if err := authorize(policy.OpManageMenu, actor); err != nil {
		return nil, err
	}
	in.Name = strings.TrimSpace(in.Name)
	in.Slug = strings.ToLower(strings.TrimSpace(in.Slug))
	if err := validateInput(in); err != nil {
		return nil, err
	}
	var taken int64
	if err := s.db.WithContext(ctx).Model(&models.Category{}).Where("slug = ?", in.Slug).Count(&taken).Error; err != nil {
		return nil, err
	}
	if taken > 0 {
		return nil, fmt.Errorf("%w: slug %q already in use", ErrConflict, in.Slug)
	}
	cat := models.Category{Name: in.Name, Slug: in.Slug}
	if err := s.db.WithContext(ctx).Create(&cat).Error; err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	return &cat, nil
}

// DeleteCategory removes an empty category.
func (s *MenuService) DeleteCategory(ctx context.Context, actor Actor, id uint) error {
	if err := authorize(policy.OpManageMenu, actor); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var items int64
		if err := tx.Model(&models.MenuItem{}).Where("category_id = ?", id).Count(&items).Error; err != nil {
			return err
		}
		if items > 0 {
			return fmt.Errorf("%w: category %d still has %d item(s)", ErrConflict, id, items)
		}
		res := tx.Delete(&models.Category{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: category %d", ErrNotFound, id)
		}
		return nil
	})
}

func (s *MenuService) Items(ctx context.Context) ([]models.MenuItem, error) {
	var items []models.MenuItem
	err := s.db.WithContext(ctx).Preload("Category").Order("name asc").Find(&items).Error
	return items, err
}

func (s *MenuService) Item(ctx context.Context, id uint) (*models.MenuItem, error) {
	var item models.MenuItem
	if err := s.db.WithContext(ctx).Preload("Category").First(&item, id).Error; err != nil {
		return nil, notFound(err, "menu item", id)
	}
	return &item, nil
}

// PublicMenu returns categories holding only available items. Empty
// categories are left out.
func (s *MenuService) PublicMenu(ctx context.Context) ([]models.Category, error) {
	var cats []models.Category
	err := s.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Where("available = ?", true).Order("name asc")
		}).
		Order("name asc").
		Find(&cats).Error
	if err != nil {
		return nil, err
	}
	out := cats[:0]
	for _, c := range cats {
		if len(c.Items) > 0 {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *MenuService) CreateItem(ctx context.Context, actor Actor, in MenuItemInput) (*models.MenuItem, error) {
	if err := authorize(policy.OpManageMenu, actor); err != nil {
		return nil, err
	}
	in.Name = strings.TrimSpace(in.Name)
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if err := s.categoryExists(ctx, in.CategoryID); err != nil {
		return nil, err
	}
	item := models.MenuItem{
		Name:        in.Name,
		Description: in.Description,
		Price:       round2(in.Price),
		Image:       in.Image,
		CategoryID:  in.CategoryID,
		Available:   true,
	}
	if err := s.db.WithContext(ctx).Create(&item).Error; err != nil {
		return nil, fmt.Errorf("create menu item: %w", err)
	}
	// gorm skips zero values on insert, so false needs an explicit update
	if in.Available != nil && !*in.Available {
		if err := s.db.WithContext(ctx).Model(&item).Update("available", false).Error; err != nil {
			return nil, err
		}
	}
	return s.Item(ctx, item.ID)
}

func (s *MenuService) UpdateItem(ctx context.Context, actor Actor, id uint, in MenuItemInput) (*models.MenuItem, error) {
	if err := authorize(policy.OpManageMenu, actor); err != nil {
		return nil, err
	}
	in.Name = strings.TrimSpace(in.Name)
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if err := s.categoryExists(ctx, in.CategoryID); err != nil {
		return nil, err
	}
	updates := map[string]any{
		"name":        in.Name,
		"description": in.Description,
		"price":       round2(in.Price),
		"image":       in.Image,
		"category_id": in.CategoryID,
	}
	if in.Available != nil {
		updates["available"] = *in.Available
	}
	res := s.db.WithContext(ctx).Model(&models.MenuItem{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: menu item %d", ErrNotFound, id)
	}
	return s.Item(ctx, id)
}

// ToggleAvailability flips whether the item can be ordered.
func (s *MenuService) ToggleAvailability(ctx context.Context, actor Actor, id uint) (*models.MenuItem, error) {
	if err := authorize(policy.OpManageMenu, actor); err != nil {
		return nil, err
	}
	res := s.db.WithContext(ctx).Model(&models.MenuItem{}).
		Where("id = ?", id).
		Update("available", gorm.Expr("NOT available"))
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: menu item %d", ErrNotFound, id)
	}
	return s.Item(ctx, id)
}

// DeleteItem removes the item together with its recipe. Items that were
// already sold stay; mark them unavailable instead.
func (s *MenuService) DeleteItem(ctx context.Context, actor Actor, id uint) error {
	if err := authorize(policy.OpManageMenu, actor); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var sold int64
		if err := tx.Model(&models.OrderItem{}).Where("menu_item_id = ?", id).Count(&sold).Error; err != nil {
			return err
		}
		if sold > 0 {
			return fmt.Errorf("%w: menu item %d appears on %d order line(s)", ErrConflict, id, sold)
		}
		var recipe models.Recipe
		err := tx.Where("menu_item_id = ?", id).Limit(1).Find(&recipe).Error
		if err != nil {
			return err
		}
		if recipe.ID != 0 {
			if err := tx.Where("recipe_id = ?", recipe.ID).Delete(&models.RecipeIngredient{}).Error; err != nil {
				return err
			}
			if err := tx.Delete(&recipe).Error; err != nil {
				return err
			}
		}
		res := tx.Delete(&models.MenuItem{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: menu item %d", ErrNotFound, id)
		}
		return nil
	})
}

func (s *MenuService) categoryExists(ctx context.Context, id uint) error {
	var cat models.Category
	if err := s.db.WithContext(ctx).Select("id").First(&cat, id).Error; err != nil {
		return notFound(err, "category", id)
	}
	return nil
}

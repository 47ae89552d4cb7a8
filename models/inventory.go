package models

import "time"

// InventoryItem is a raw stock unit. Quantity is deliberately signed: order
// deductions may push it below zero unless strict stock is enabled.
type InventoryItem struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"not null"`
	Quantity  int       `json:"quantity" gorm:"not null;default:0"`
	Unit      string    `json:"unit" gorm:"not null"`
	Threshold int       `json:"threshold" gorm:"not null;default:0"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LowStock reports whether the item is at or below its alert threshold.
func (i InventoryItem) LowStock() bool {
	return i.Quantity <= i.Threshold
}

// Recipe maps one menu item to the inventory it consumes per unit sold.
type Recipe struct {
	ID          uint               `json:"id" gorm:"primaryKey"`
	MenuItemID  uint               `json:"menu_item_id" gorm:"uniqueIndex;not null"`
	MenuItem    *MenuItem          `json:"menu_item,omitempty" gorm:"foreignKey:MenuItemID"`
	Ingredients []RecipeIngredient `json:"ingredients,omitempty" gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

type RecipeIngredient struct {
	ID              uint           `json:"id" gorm:"primaryKey"`
	RecipeID        uint           `json:"recipe_id" gorm:"not null;index"`
	InventoryItemID uint           `json:"inventory_item_id" gorm:"not null;index"`
	InventoryItem   *InventoryItem `json:"inventory_item,omitempty" gorm:"foreignKey:InventoryItemID"`
	Quantity        float64        `json:"quantity" gorm:"not null"` // per one unit of the menu item
}

package models

import "time"

type ShiftStatus string

const (
	ShiftActive    ShiftStatus = "ACTIVE"
	ShiftCompleted ShiftStatus = "COMPLETED"
)

type Shift struct {
	ID        uint        `json:"id" gorm:"primaryKey"`
	UserID    uint        `json:"user_id" gorm:"not null;index"`
	User      *User       `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Status    ShiftStatus `json:"status" gorm:"not null;default:'ACTIVE'"`
	StartTime time.Time   `json:"start_time" gorm:"not null"`
	EndTime   *time.Time  `json:"end_time"`
	Notes     string      `json:"notes"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// All lists every model for AutoMigrate.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Category{},
		&MenuItem{},
		&InventoryItem{},
		&Recipe{},
		&RecipeIngredient{},
		&RestaurantTable{},
		&Order{},
		&OrderItem{},
		&OrderStatusHistory{},
		&Payment{},
		&Reservation{},
		&Shift{},
	}
}

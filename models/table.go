package models

import "time"

type TableStatus string

const (
	TableAvailable  TableStatus = "AVAILABLE"
	TableOccupied   TableStatus = "OCCUPIED"
	TableReserved   TableStatus = "RESERVED"
	TableOutOfOrder TableStatus = "OUT_OF_ORDER"
)

func ValidTableStatus(s TableStatus) bool {
	switch s {
	case TableAvailable, TableOccupied, TableReserved, TableOutOfOrder:
		return true
	}
	return false
}

type RestaurantTable struct {
	ID        uint        `json:"id" gorm:"primaryKey"`
	Number    string      `json:"number" gorm:"uniqueIndex;not null"`
	Capacity  int         `json:"capacity" gorm:"not null"`
	Status    TableStatus `json:"status" gorm:"not null;default:'AVAILABLE'"`
	Orders    []Order     `json:"orders,omitempty" gorm:"foreignKey:TableID"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

type ReservationStatus string

const (
	ReservationConfirmed ReservationStatus = "CONFIRMED"
	ReservationCancelled ReservationStatus = "CANCELLED"
	ReservationCompleted ReservationStatus = "COMPLETED"
)

type Reservation struct {
	ID            uint              `json:"id" gorm:"primaryKey"`
	TableID       uint              `json:"table_id" gorm:"not null;index"`
	Table         *RestaurantTable  `json:"table,omitempty" gorm:"foreignKey:TableID"`
	CustomerName  string            `json:"customer_name" gorm:"not null"`
	CustomerPhone string            `json:"customer_phone"`
	GuestCount    int               `json:"guest_count" gorm:"not null"`
	StartTime     time.Time         `json:"start_time" gorm:"not null;index"`
	EndTime       *time.Time        `json:"end_time"`
	Status        ReservationStatus `json:"status" gorm:"not null;default:'CONFIRMED'"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

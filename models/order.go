package models

import "time"

// OrderStatus represents the fulfillment state of an order
type OrderStatus string

const (
	StatusPending   OrderStatus = "PENDING"
	StatusPreparing OrderStatus = "PREPARING"
	StatusReady     OrderStatus = "READY"
	StatusCompleted OrderStatus = "COMPLETED"
	StatusCancelled OrderStatus = "CANCELLED"
)

// ActiveStatuses are the statuses shown on the kitchen display.
var ActiveStatuses = []OrderStatus{StatusPending, StatusPreparing, StatusReady}

type OrderType string

const (
	OrderDineIn   OrderType = "DINE_IN"
	OrderTakeaway OrderType = "TAKEAWAY"
)

type PaymentStatus string

const (
	PaymentUnpaid   PaymentStatus = "UNPAID"
	PaymentPaid     PaymentStatus = "PAID"
	PaymentRefunded PaymentStatus = "REFUNDED"
)

type PaymentMethod string

const (
	MethodCash PaymentMethod = "CASH"
	MethodCard PaymentMethod = "CARD"
)

type Order struct {
	ID            uint                 `json:"id" gorm:"primaryKey"`
	Type          OrderType            `json:"type" gorm:"not null;default:'DINE_IN'"`
	Status        OrderStatus          `json:"status" gorm:"not null;default:'PENDING';index"`
	PaymentStatus PaymentStatus        `json:"payment_status" gorm:"not null;default:'UNPAID'"`
	TotalAmount   float64              `json:"total_amount"`
	TableID       *uint                `json:"table_id"`
	Table         *RestaurantTable     `json:"table,omitempty" gorm:"foreignKey:TableID"`
	UserID        *uint                `json:"user_id"` // nil for guest orders
	User          *User                `json:"user,omitempty" gorm:"foreignKey:UserID"`
	CustomerName  string               `json:"customer_name,omitempty"`
	CustomerEmail string               `json:"customer_email,omitempty"`
	Items         []OrderItem          `json:"items,omitempty" gorm:"foreignKey:OrderID"`
	Payments      []Payment            `json:"payments,omitempty" gorm:"foreignKey:OrderID"`
	StatusHistory []OrderStatusHistory `json:"status_history,omitempty" gorm:"foreignKey:OrderID"`
	CreatedAt     time.Time            `json:"created_at" gorm:"index"`
	UpdatedAt     time.Time            `json:"updated_at"`
}

type OrderItem struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	OrderID    uint      `json:"order_id" gorm:"not null;index"`
	MenuItemID uint      `json:"menu_item_id" gorm:"not null"`
	MenuItem   *MenuItem `json:"menu_item,omitempty" gorm:"foreignKey:MenuItemID"`
	Quantity   int       `json:"quantity" gorm:"not null"`
	Price      float64   `json:"price" gorm:"not null"` // snapshot price at time of order
	Name       string    `json:"name"`                  // snapshot name
}

// OrderStatusHistory tracks every status change
type OrderStatusHistory struct {
	ID         uint        `json:"id" gorm:"primaryKey"`
	OrderID    uint        `json:"order_id" gorm:"not null;index"`
	FromStatus OrderStatus `json:"from_status"`
	ToStatus   OrderStatus `json:"to_status" gorm:"not null"`
	ChangedBy  *uint       `json:"changed_by"`
	Note       string      `json:"note"`
	CreatedAt  time.Time   `json:"created_at"`
}

// Payment is an append-only settlement record.
type Payment struct {
	ID        uint          `json:"id" gorm:"primaryKey"`
	OrderID   uint          `json:"order_id" gorm:"not null;index"`
	Amount    float64       `json:"amount" gorm:"not null"`
	Method    PaymentMethod `json:"method" gorm:"not null"`
	Status    PaymentStatus `json:"status" gorm:"not null"`
	Reference string        `json:"reference"`
	CreatedBy *uint         `json:"created_by"`
	CreatedAt time.Time     `json:"created_at"`
}

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order lifecycle states. The set is closed; any transition between members
// is accepted (no forward-only graph is enforced).
const (
	StatusPending   = "PENDING"
	StatusConfirmed = "CONFIRMED"
	StatusShipped   = "SHIPPED"
	StatusDelivered = "DELIVERED"
	StatusCancelled = "CANCELLED"
)

func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// Order owns its items: they are created and deleted with it and never shared.
// Total is derived at creation from the items and stored as decimal, never
// binary floating point.
type Order struct {
	ID        uint            `gorm:"primaryKey;autoIncrement"      json:"orderId"`
	UserID    uint            `gorm:"index;not null"                json:"userId"`
	CreatedAt time.Time       `gorm:"not null"                      json:"createdAt"`
	Status    string          `gorm:"size:20;not null"              json:"status"`
	Total     decimal.Decimal `gorm:"type:decimal(12,2);not null"   json:"totalAmount"`
	Items     []OrderItem     `gorm:"constraint:OnDelete:CASCADE"   json:"items"`
}

// OrderItem captures product, quantity and unit price at order-creation time;
// the price is never recomputed from a catalog afterwards.
type OrderItem struct {
	ID        uint            `gorm:"primaryKey;autoIncrement"        json:"id"`
	OrderID   uint            `gorm:"index;not null"                  json:"orderId"`
	ProductID uint            `gorm:"not null"                        json:"productId"`
	Quantity  int             `gorm:"not null;check:quantity > 0"     json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(12,2);not null"     json:"price"`
}

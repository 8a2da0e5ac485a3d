package transport

import "github.com/shopspring/decimal"

type CreateOrderItem struct {
	ProductID uint            `json:"productId"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

type CreateOrderRequest struct {
	UserID uint              `json:"userId"`
	Items  []CreateOrderItem `json:"items"`
}

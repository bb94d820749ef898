package dto

import "github.com/shopspring/decimal"

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	JWT string `json:"jwt"`
}

// AddItemRequest carries only the sku. Each add increments quantity by one.
type AddItemRequest struct {
	ItemID string `json:"itemId"`
}

type CartItemResponse struct {
	ItemID    string          `json:"itemId"`
	Name      string          `json:"name"`
	Quantity  int32           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

type CartResponse struct {
	Owner string              `json:"owner"`
	Items []*CartItemResponse `json:"items"`
	Total decimal.Decimal     `json:"total"`
}

type ErrorResponse struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

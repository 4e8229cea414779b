package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus описывает стадию выполнения заказа.
type OrderStatus string

const (
	OrderStatusPlaced    OrderStatus = "placed"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
)

// orderTransitions содержит единственный допустимый следующий статус для каждого статуса.
// Для delivered перехода нет.
var orderTransitions = map[OrderStatus]OrderStatus{
	OrderStatusPlaced:  OrderStatusShipped,
	OrderStatusShipped: OrderStatusDelivered,
}

// Valid сообщает, входит ли статус в перечисление.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPlaced, OrderStatusShipped, OrderStatusDelivered:
		return true
	default:
		return false
	}
}

// IsTransitionTarget сообщает, может ли статус быть целью перехода.
// placed бывает только начальным значением.
func (s OrderStatus) IsTransitionTarget() bool {
	return s == OrderStatusShipped || s == OrderStatusDelivered
}

// Next возвращает следующий статус по таблице переходов.
func (s OrderStatus) Next() (OrderStatus, bool) {
	next, ok := orderTransitions[s]
	return next, ok
}

// CanTransitionTo проверяет, разрешён ли переход из s в target.
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	next, ok := s.Next()
	return ok && next == target
}

// Order представляет заказ пользователя.
type Order struct {
	ID          int64           `db:"id"`
	OrderNumber string          `db:"order_number"`
	UserEmail   string          `db:"user_email"`
	TotalPrice  decimal.Decimal `db:"total_price"`
	Status      OrderStatus     `db:"status"`
	CreatedAt   time.Time       `db:"created_at"`
}

// CreateOrderRequest - запрос на создание заказа.
type CreateOrderRequest struct {
	UserEmail  string           `json:"user_email" validate:"required"`
	TotalPrice *decimal.Decimal `json:"total_price" validate:"required"`
}

// UpdateStatusRequest - запрос на смену статуса заказа.
type UpdateStatusRequest struct {
	NewStatus OrderStatus `json:"new_status" validate:"required,oneof=shipped delivered"`
}

// OrderSummary - результат создания заказа.
type OrderSummary struct {
	ID          int64
	OrderNumber string
	Status      OrderStatus
}

// CreateOrderResponse - ответ на создание заказа.
type CreateOrderResponse struct {
	Message     string `json:"message"`
	OrderID     int64  `json:"orderId"`
	OrderNumber string `json:"order_number"`
}

// OrderResponse - заказ в ответе API. Сумма отдаётся числом.
type OrderResponse struct {
	ID          int64   `json:"id"`
	OrderNumber string  `json:"order_number"`
	UserEmail   string  `json:"user_email"`
	TotalPrice  float64 `json:"total_price"`
	Status      string  `json:"status"`
	CreatedAt   string  `json:"created_at"`
}

// MessageResponse - ответ с текстовым сообщением.
type MessageResponse struct {
	Message string `json:"message"`
}

// NewOrderResponse преобразует заказ в DTO для HTTP-ответа.
func NewOrderResponse(o *Order) *OrderResponse {
	return &OrderResponse{
		ID:          o.ID,
		OrderNumber: o.OrderNumber,
		UserEmail:   o.UserEmail,
		TotalPrice:  o.TotalPrice.InexactFloat64(),
		Status:      string(o.Status),
		CreatedAt:   o.CreatedAt.Format(time.RFC3339),
	}
}

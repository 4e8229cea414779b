package services

import (
	"context"

	"github.com/agamariel/orderservice/internal/models"
	"github.com/shopspring/decimal"
)

// OrderStorage определяет интерфейс хранилища, которым пользуется сервис заказов.
type OrderStorage interface {
	Insert(ctx context.Context, orderNumber, userEmail string, totalPrice decimal.Decimal) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.Order, error)
	GetByOwner(ctx context.Context, email string) ([]*models.Order, error)
	GetStatus(ctx context.Context, id int64) (models.OrderStatus, error)
	TransitionStatus(ctx context.Context, id int64, from, to models.OrderStatus) error
}

// OrderNumberGenerator выдаёт человекочитаемый номер нового заказа.
type OrderNumberGenerator func() string

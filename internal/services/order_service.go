package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/agamariel/orderservice/internal/models"
	"github.com/agamariel/orderservice/internal/storage"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const orderNumberPrefix = "ORD-"

var (
	ErrInvalidInput      = errors.New("missing user_email or total_price")
	ErrInvalidStatus     = errors.New("invalid or missing new_status")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrOrderNotFound     = storage.ErrOrderNotFound
)

// TransitionError описывает недопустимый переход и хранит оба статуса.
type TransitionError struct {
	Current   models.OrderStatus
	Requested models.OrderStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("Invalid status transition from %s to %s", e.Current, e.Requested)
}

// Is позволяет сравнивать через errors.Is(err, ErrInvalidTransition).
func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// IsValidationError сообщает, что ошибка вызвана некорректным вводом клиента.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrInvalidStatus) ||
		errors.Is(err, ErrInvalidTransition)
}

// OrderService определяет интерфейс работы с заказами.
type OrderService interface {
	CreateOrder(ctx context.Context, userEmail string, totalPrice *decimal.Decimal) (*models.OrderSummary, error)
	TransitionStatus(ctx context.Context, id int64, newStatus models.OrderStatus) error
	GetOrder(ctx context.Context, id int64) (*models.Order, error)
	ListOrders(ctx context.Context, email string) ([]*models.Order, error)
}

// OrderServiceImpl реализует OrderService.
type OrderServiceImpl struct {
	orderStorage OrderStorage
	newNumber    OrderNumberGenerator
}

// Option настраивает OrderServiceImpl.
type Option func(*OrderServiceImpl)

// WithNumberGenerator подменяет генератор номеров заказов.
func WithNumberGenerator(gen OrderNumberGenerator) Option {
	return func(s *OrderServiceImpl) {
		if gen != nil {
			s.newNumber = gen
		}
	}
}

// NewOrderService создаёт новый сервис заказов.
func NewOrderService(orderStorage OrderStorage, opts ...Option) *OrderServiceImpl {
	s := &OrderServiceImpl{
		orderStorage: orderStorage,
		newNumber:    NewOrderNumber,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewOrderNumber возвращает "ORD-" и первые 8 hex-символов случайного UUID.
func NewOrderNumber() string {
	return orderNumberPrefix + strings.SplitN(uuid.NewString(), "-", 2)[0]
}

// CreateOrder создаёт заказ в статусе placed.
func (s *OrderServiceImpl) CreateOrder(ctx context.Context, userEmail string, totalPrice *decimal.Decimal) (*models.OrderSummary, error) {
	if strings.TrimSpace(userEmail) == "" || totalPrice == nil {
		return nil, ErrInvalidInput
	}

	number := s.newNumber()
	id, err := s.orderStorage.Insert(ctx, number, userEmail, *totalPrice)
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	return &models.OrderSummary{
		ID:          id,
		OrderNumber: number,
		Status:      models.OrderStatusPlaced,
	}, nil
}

// TransitionStatus переводит заказ в следующий статус.
// Разрешены только placed -> shipped и shipped -> delivered.
func (s *OrderServiceImpl) TransitionStatus(ctx context.Context, id int64, newStatus models.OrderStatus) error {
	if !newStatus.IsTransitionTarget() {
		return ErrInvalidStatus
	}

	current, err := s.orderStorage.GetStatus(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrOrderNotFound) {
			return ErrOrderNotFound
		}
		return fmt.Errorf("get order status: %w", err)
	}

	if !current.CanTransitionTo(newStatus) {
		return &TransitionError{Current: current, Requested: newStatus}
	}

	err = s.orderStorage.TransitionStatus(ctx, id, current, newStatus)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, storage.ErrOrderNotFound):
		return ErrOrderNotFound
	case errors.Is(err, storage.ErrStatusMismatch):
		// Статус успел смениться между чтением и записью.
		fresh, gErr := s.orderStorage.GetStatus(ctx, id)
		if gErr != nil {
			if errors.Is(gErr, storage.ErrOrderNotFound) {
				return ErrOrderNotFound
			}
			return fmt.Errorf("get order status: %w", gErr)
		}
		return &TransitionError{Current: fresh, Requested: newStatus}
	default:
		return fmt.Errorf("transition order status: %w", err)
	}
}

// GetOrder возвращает заказ по id.
func (s *OrderServiceImpl) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	order, err := s.orderStorage.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	return order, nil
}

// ListOrders возвращает заказы пользователя. Пустой список - не ошибка.
func (s *OrderServiceImpl) ListOrders(ctx context.Context, email string) ([]*models.Order, error) {
	orders, err := s.orderStorage.GetByOwner(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}

	if orders == nil {
		return []*models.Order{}, nil
	}

	return orders, nil
}

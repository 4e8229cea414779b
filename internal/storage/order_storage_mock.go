package storage

import (
	"context"

	"github.com/agamariel/orderservice/internal/models"
	"github.com/shopspring/decimal"
)

var _ OrderStorage = (*MockOrderStorage)(nil)

// MockOrderStorage - мок для тестирования (экспортируемый для использования в других пакетах)
type MockOrderStorage struct {
	InsertFunc           func(ctx context.Context, orderNumber, userEmail string, totalPrice decimal.Decimal) (int64, error)
	GetByIDFunc          func(ctx context.Context, id int64) (*models.Order, error)
	GetByOwnerFunc       func(ctx context.Context, email string) ([]*models.Order, error)
	GetStatusFunc        func(ctx context.Context, id int64) (models.OrderStatus, error)
	UpdateStatusFunc     func(ctx context.Context, id int64, status models.OrderStatus) error
	TransitionStatusFunc func(ctx context.Context, id int64, from, to models.OrderStatus) error
}

func (m *MockOrderStorage) Insert(ctx context.Context, orderNumber, userEmail string, totalPrice decimal.Decimal) (int64, error) {
	if m.InsertFunc != nil {
		return m.InsertFunc(ctx, orderNumber, userEmail, totalPrice)
	}
	return 1, nil
}

func (m *MockOrderStorage) GetByID(ctx context.Context, id int64) (*models.Order, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, ErrOrderNotFound
}

func (m *MockOrderStorage) GetByOwner(ctx context.Context, email string) ([]*models.Order, error) {
	if m.GetByOwnerFunc != nil {
		return m.GetByOwnerFunc(ctx, email)
	}
	return []*models.Order{}, nil
}

func (m *MockOrderStorage) GetStatus(ctx context.Context, id int64) (models.OrderStatus, error) {
	if m.GetStatusFunc != nil {
		return m.GetStatusFunc(ctx, id)
	}
	return "", ErrOrderNotFound
}

func (m *MockOrderStorage) UpdateStatus(ctx context.Context, id int64, status models.OrderStatus) error {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, id, status)
	}
	return nil
}

func (m *MockOrderStorage) TransitionStatus(ctx context.Context, id int64, from, to models.OrderStatus) error {
	if m.TransitionStatusFunc != nil {
		return m.TransitionStatusFunc(ctx, id, from, to)
	}
	return nil
}

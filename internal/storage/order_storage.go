package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/agamariel/orderservice/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

var (
	ErrOrderNotFound = errors.New("order not found")
	// ErrStatusMismatch возвращается условным обновлением, если статус заказа уже не равен ожидаемому.
	ErrStatusMismatch = errors.New("order status changed concurrently")
)

// OrderStorage определяет интерфейс для работы с заказами.
type OrderStorage interface {
	Insert(ctx context.Context, orderNumber, userEmail string, totalPrice decimal.Decimal) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.Order, error)
	GetByOwner(ctx context.Context, email string) ([]*models.Order, error)
	GetStatus(ctx context.Context, id int64) (models.OrderStatus, error)
	UpdateStatus(ctx context.Context, id int64, status models.OrderStatus) error
	TransitionStatus(ctx context.Context, id int64, from, to models.OrderStatus) error
}

var _ OrderStorage = (*PostgresOrderStorage)(nil)

// PostgresOrderStorage реализует OrderStorage для PostgreSQL.
type PostgresOrderStorage struct {
	pool *pgxpool.Pool
}

// NewPostgresOrderStorage создаёт новый экземпляр PostgresOrderStorage.
func NewPostgresOrderStorage(pool *pgxpool.Pool) *PostgresOrderStorage {
	return &PostgresOrderStorage{pool: pool}
}

// Insert создаёт заказ и возвращает сгенерированный id. Статус проставляет default схемы.
func (s *PostgresOrderStorage) Insert(ctx context.Context, orderNumber, userEmail string, totalPrice decimal.Decimal) (int64, error) {
	query := `
		INSERT INTO orders (order_number, user_email, total_price)
		VALUES ($1, $2, $3)
		RETURNING id
	`

	var id int64
	if err := s.pool.QueryRow(ctx, query, orderNumber, userEmail, totalPrice.String()).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to insert order: %w", err)
	}

	return id, nil
}

// GetByID возвращает заказ по id.
func (s *PostgresOrderStorage) GetByID(ctx context.Context, id int64) (*models.Order, error) {
	query := `
		SELECT id, order_number, user_email, total_price::text, status, created_at
		FROM orders
		WHERE id = $1
	`

	return scanOrder(s.pool.QueryRow(ctx, query, id))
}

// GetByOwner возвращает все заказы пользователя в порядке, который отдаёт база.
func (s *PostgresOrderStorage) GetByOwner(ctx context.Context, email string) ([]*models.Order, error) {
	query := `
		SELECT id, order_number, user_email, total_price::text, status, created_at
		FROM orders
		WHERE user_email = $1
	`

	rows, err := s.pool.Query(ctx, query, email)
	if err != nil {
		return nil, fmt.Errorf("failed to query owner orders: %w", err)
	}
	defer rows.Close()

	orders := make([]*models.Order, 0)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("rows error: %w", rows.Err())
	}

	return orders, nil
}

// GetStatus возвращает только текущий статус заказа.
func (s *PostgresOrderStorage) GetStatus(ctx context.Context, id int64) (models.OrderStatus, error) {
	var status string
	err := s.pool.QueryRow(ctx, `SELECT status FROM orders WHERE id = $1`, id).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrOrderNotFound
		}
		return "", fmt.Errorf("failed to get order status: %w", err)
	}

	return models.OrderStatus(status), nil
}

// UpdateStatus безусловно выставляет статус. Допустимость перехода здесь не проверяется.
func (s *PostgresOrderStorage) UpdateStatus(ctx context.Context, id int64, status models.OrderStatus) error {
	query := `
		UPDATE orders
		SET status = $1, updated_at = NOW()
		WHERE id = $2
	`

	result, err := s.pool.Exec(ctx, query, string(status), id)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrOrderNotFound
	}

	return nil
}

// TransitionStatus меняет статус from -> to одним условным UPDATE.
// Если ни одна строка не обновлена, перечитывает статус, чтобы отличить
// отсутствующий заказ (ErrOrderNotFound) от гонки (ErrStatusMismatch).
func (s *PostgresOrderStorage) TransitionStatus(ctx context.Context, id int64, from, to models.OrderStatus) error {
	query := `
		UPDATE orders
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3
	`

	result, err := s.pool.Exec(ctx, query, string(to), id, string(from))
	if err != nil {
		return fmt.Errorf("failed to transition order status: %w", err)
	}

	if result.RowsAffected() == 1 {
		return nil
	}

	if _, err := s.GetStatus(ctx, id); err != nil {
		return err
	}
	return ErrStatusMismatch
}

// scanOrder читает заказ из строки результата и приводит сумму к decimal.
func scanOrder(row pgx.Row) (*models.Order, error) {
	var (
		order    models.Order
		priceStr string
		status   string
	)

	err := row.Scan(
		&order.ID,
		&order.OrderNumber,
		&order.UserEmail,
		&priceStr,
		&status,
		&order.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to scan order: %w", err)
	}

	price, err := decimal.NewFromString(priceStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse total_price %q: %w", priceStr, err)
	}
	order.TotalPrice = price
	order.Status = models.OrderStatus(status)

	return &order, nil
}

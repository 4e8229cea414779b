package services

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"

	"github.com/agamariel/orderservice/internal/models"
	"github.com/agamariel/orderservice/internal/storage"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var orderNumberRe = regexp.MustCompile(`^ORD-[0-9a-f]{8}$`)

func price(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestNewOrderNumber(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		n := NewOrderNumber()
		if !orderNumberRe.MatchString(n) {
			t.Fatalf("order number %q does not match %s", n, orderNumberRe)
		}
		seen[n] = struct{}{}
	}
	assert.Greater(t, len(seen), 90, "order numbers should be random")
}

func TestOrderService_CreateOrder(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name        string
		email       string
		totalPrice  *decimal.Decimal
		mockStorage *storage.MockOrderStorage
		wantErr     error
		wantAnyErr  bool
	}{
		{
			name:        "missing email",
			email:       "",
			totalPrice:  price("10"),
			mockStorage: &storage.MockOrderStorage{},
			wantErr:     ErrInvalidInput,
		},
		{
			name:        "blank email",
			email:       "   ",
			totalPrice:  price("10"),
			mockStorage: &storage.MockOrderStorage{},
			wantErr:     ErrInvalidInput,
		},
		{
			name:        "null price",
			email:       "a@b.com",
			totalPrice:  nil,
			mockStorage: &storage.MockOrderStorage{},
			wantErr:     ErrInvalidInput,
		},
		{
			name:       "storage error",
			email:      "a@b.com",
			totalPrice: price("42.5"),
			mockStorage: &storage.MockOrderStorage{
				InsertFunc: func(ctx context.Context, number, email string, p decimal.Decimal) (int64, error) {
					return 0, errors.New("connection refused")
				},
			},
			wantAnyErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inserted := false
			if tt.mockStorage.InsertFunc == nil {
				tt.mockStorage.InsertFunc = func(ctx context.Context, number, email string, p decimal.Decimal) (int64, error) {
					inserted = true
					return 1, nil
				}
			}

			svc := NewOrderService(tt.mockStorage)
			summary, err := svc.CreateOrder(ctx, tt.email, tt.totalPrice)
			require.Error(t, err)
			assert.Nil(t, summary)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.False(t, inserted, "invalid input must not reach the store")
			}
			if tt.wantAnyErr {
				assert.False(t, IsValidationError(err))
			}
		})
	}

	t.Run("success", func(t *testing.T) {
		var gotNumber, gotEmail string
		var gotPrice decimal.Decimal
		svc := NewOrderService(&storage.MockOrderStorage{
			InsertFunc: func(ctx context.Context, number, email string, p decimal.Decimal) (int64, error) {
				gotNumber, gotEmail, gotPrice = number, email, p
				return 17, nil
			},
		})

		summary, err := svc.CreateOrder(ctx, "a@b.com", price("42.5"))
		require.NoError(t, err)
		assert.Equal(t, int64(17), summary.ID)
		assert.Equal(t, models.OrderStatusPlaced, summary.Status)
		assert.Regexp(t, orderNumberRe, summary.OrderNumber)
		assert.Equal(t, summary.OrderNumber, gotNumber)
		assert.Equal(t, "a@b.com", gotEmail)
		assert.True(t, gotPrice.Equal(decimal.RequireFromString("42.5")))
	})

	t.Run("zero price is accepted", func(t *testing.T) {
		svc := NewOrderService(&storage.MockOrderStorage{}, WithNumberGenerator(func() string { return "ORD-00000000" }))
		summary, err := svc.CreateOrder(ctx, "a@b.com", price("0"))
		require.NoError(t, err)
		assert.Equal(t, "ORD-00000000", summary.OrderNumber)
	})
}

func TestOrderService_TransitionStatus(t *testing.T) {
	ctx := context.Background()
	statuses := []models.OrderStatus{models.OrderStatusPlaced, models.OrderStatusShipped, models.OrderStatusDelivered}

	for _, current := range statuses {
		for _, requested := range statuses {
			current, requested := current, requested
			t.Run(string(current)+"->"+string(requested), func(t *testing.T) {
				written := false
				svc := NewOrderService(&storage.MockOrderStorage{
					GetStatusFunc: func(ctx context.Context, id int64) (models.OrderStatus, error) {
						return current, nil
					},
					TransitionStatusFunc: func(ctx context.Context, id int64, from, to models.OrderStatus) error {
						written = true
						assert.Equal(t, current, from)
						assert.Equal(t, requested, to)
						return nil
					},
				})

				err := svc.TransitionStatus(ctx, 1, requested)
				legal := (current == models.OrderStatusPlaced && requested == models.OrderStatusShipped) ||
					(current == models.OrderStatusShipped && requested == models.OrderStatusDelivered)

				if legal {
					require.NoError(t, err)
					assert.True(t, written)
					return
				}

				require.Error(t, err)
				assert.True(t, IsValidationError(err))
				assert.False(t, written)
				if requested != models.OrderStatusPlaced {
					var te *TransitionError
					require.ErrorAs(t, err, &te)
					assert.Contains(t, err.Error(), string(current))
					assert.Contains(t, err.Error(), string(requested))
				}
			})
		}
	}
}

func TestOrderService_TransitionStatusErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("invalid target never reads the store", func(t *testing.T) {
		for _, target := range []models.OrderStatus{"", models.OrderStatusPlaced, "cancelled"} {
			svc := NewOrderService(&storage.MockOrderStorage{
				GetStatusFunc: func(ctx context.Context, id int64) (models.OrderStatus, error) {
					t.Fatal("store must not be called")
					return "", nil
				},
			})
			assert.ErrorIs(t, svc.TransitionStatus(ctx, 1, target), ErrInvalidStatus)
		}
	})

	t.Run("not found", func(t *testing.T) {
		svc := NewOrderService(&storage.MockOrderStorage{})
		err := svc.TransitionStatus(ctx, 404, models.OrderStatusShipped)
		assert.ErrorIs(t, err, ErrOrderNotFound)
		assert.False(t, IsValidationError(err))
	})

	t.Run("storage error on read", func(t *testing.T) {
		svc := NewOrderService(&storage.MockOrderStorage{
			GetStatusFunc: func(ctx context.Context, id int64) (models.OrderStatus, error) {
				return "", errors.New("db error")
			},
		})
		err := svc.TransitionStatus(ctx, 1, models.OrderStatusShipped)
		require.Error(t, err)
		assert.False(t, IsValidationError(err))
		assert.NotErrorIs(t, err, ErrOrderNotFound)
	})

	t.Run("concurrent change reports fresh status", func(t *testing.T) {
		reads := 0
		svc := NewOrderService(&storage.MockOrderStorage{
			GetStatusFunc: func(ctx context.Context, id int64) (models.OrderStatus, error) {
				reads++
				if reads == 1 {
					return models.OrderStatusPlaced, nil
				}
				return models.OrderStatusShipped, nil
			},
			TransitionStatusFunc: func(ctx context.Context, id int64, from, to models.OrderStatus) error {
				return storage.ErrStatusMismatch
			},
		})

		err := svc.TransitionStatus(ctx, 1, models.OrderStatusShipped)
		var te *TransitionError
		require.ErrorAs(t, err, &te)
		assert.Equal(t, models.OrderStatusShipped, te.Current)
		assert.Equal(t, models.OrderStatusShipped, te.Requested)
	})

	t.Run("deleted between read and write", func(t *testing.T) {
		svc := NewOrderService(&storage.MockOrderStorage{
			GetStatusFunc: func(ctx context.Context, id int64) (models.OrderStatus, error) {
				return models.OrderStatusPlaced, nil
			},
			TransitionStatusFunc: func(ctx context.Context, id int64, from, to models.OrderStatus) error {
				return storage.ErrOrderNotFound
			},
		})
		assert.ErrorIs(t, svc.TransitionStatus(ctx, 1, models.OrderStatusShipped), ErrOrderNotFound)
	})
}

// conditionalStore эмулирует UPDATE ... WHERE status = $from.
type conditionalStore struct {
	storage.MockOrderStorage
	mu     sync.Mutex
	status models.OrderStatus
}

func (s *conditionalStore) GetStatus(ctx context.Context, id int64) (models.OrderStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status, nil
}

func (s *conditionalStore) TransitionStatus(ctx context.Context, id int64, from, to models.OrderStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != from {
		return storage.ErrStatusMismatch
	}
	s.status = to
	return nil
}

func TestOrderService_ConcurrentTransitions(t *testing.T) {
	store := &conditionalStore{status: models.OrderStatusPlaced}
	svc := NewOrderService(store)

	const workers = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := svc.TransitionStatus(context.Background(), 1, models.OrderStatusShipped)
			if err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, ErrInvalidTransition)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, models.OrderStatusShipped, store.status)
}

func TestOrderService_GetOrder(t *testing.T) {
	ctx := context.Background()
	order := &models.Order{
		ID:          5,
		OrderNumber: "ORD-deadbeef",
		UserEmail:   "a@b.com",
		TotalPrice:  decimal.RequireFromString("19.99"),
		Status:      models.OrderStatusPlaced,
	}

	svc := NewOrderService(&storage.MockOrderStorage{
		GetByIDFunc: func(ctx context.Context, id int64) (*models.Order, error) {
			if id == order.ID {
				return order, nil
			}
			return nil, storage.ErrOrderNotFound
		},
	})

	got, err := svc.GetOrder(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, order, got)

	_, err = svc.GetOrder(ctx, 6)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestOrderService_ListOrders(t *testing.T) {
	ctx := context.Background()

	t.Run("empty", func(t *testing.T) {
		svc := NewOrderService(&storage.MockOrderStorage{
			GetByOwnerFunc: func(ctx context.Context, email string) ([]*models.Order, error) {
				return nil, nil
			},
		})
		orders, err := svc.ListOrders(ctx, "nobody@b.com")
		require.NoError(t, err)
		assert.NotNil(t, orders)
		assert.Empty(t, orders)
	})

	t.Run("storage error", func(t *testing.T) {
		svc := NewOrderService(&storage.MockOrderStorage{
			GetByOwnerFunc: func(ctx context.Context, email string) ([]*models.Order, error) {
				return nil, errors.New("db error")
			},
		})
		_, err := svc.ListOrders(ctx, "a@b.com")
		assert.Error(t, err)
	})

	t.Run("pass-through", func(t *testing.T) {
		want := []*models.Order{{ID: 1, UserEmail: "a@b.com"}, {ID: 2, UserEmail: "a@b.com"}}
		svc := NewOrderService(&storage.MockOrderStorage{
			GetByOwnerFunc: func(ctx context.Context, email string) ([]*models.Order, error) {
				assert.Equal(t, "a@b.com", email)
				return want, nil
			},
		})
		orders, err := svc.ListOrders(ctx, "a@b.com")
		require.NoError(t, err)
		assert.Equal(t, want, orders)
	})
}

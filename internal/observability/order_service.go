package observability

import (
	"context"
	"errors"
	"log/slog"

	"github.com/agamariel/orderservice/internal/models"
	"github.com/agamariel/orderservice/internal/services"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"
)

const instrumentationName = "github.com/agamariel/orderservice/internal/observability"

// OrderService оборачивает services.OrderService спанами, метриками и debug-логами.
// Ошибки клиента (валидация, not found) не помечают спан как ошибочный.
type OrderService struct {
	inner   services.OrderService
	tracer  trace.Tracer
	logger  *slog.Logger
	metrics orderMetrics
}

type Option func(*OrderService)

func WithLogger(logger *slog.Logger) Option {
	return func(s *OrderService) {
		s.logger = logger
	}
}

func WithTracer(tr trace.Tracer) Option {
	return func(s *OrderService) {
		s.tracer = tr
	}
}

func WithMeter(m metric.Meter) Option {
	return func(s *OrderService) {
		s.metrics = newOrderMetrics(m)
	}
}

// WithInstruments подключает трейсер, meter и логгер из Instruments.
func WithInstruments(i *Instruments) Option {
	return func(s *OrderService) {
		s.tracer = i.Tracer(instrumentationName)
		s.metrics = newOrderMetrics(i.Meter(instrumentationName))
		s.logger = i.Logger
	}
}

// NewOrderService оборачивает сервис заказов.
func NewOrderService(inner services.OrderService, opts ...Option) *OrderService {
	s := &OrderService{inner: inner}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.tracer == nil {
		s.tracer = nooptrace.NewTracerProvider().Tracer(instrumentationName)
	}
	return s
}

func (s *OrderService) CreateOrder(ctx context.Context, userEmail string, totalPrice *decimal.Decimal) (*models.OrderSummary, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.CreateOrder")
	defer span.End()

	summary, err := s.inner.CreateOrder(ctx, userEmail, totalPrice)
	if err != nil {
		s.finish(ctx, span, err, "create order failed")
		return nil, err
	}

	span.SetAttributes(
		attribute.Int64("order.id", summary.ID),
		attribute.String("order.number", summary.OrderNumber),
	)
	s.metrics.recordCreated(ctx)
	s.debug(ctx, "order created", slog.Int64("order.id", summary.ID), slog.String("order.number", summary.OrderNumber))
	return summary, nil
}

func (s *OrderService) TransitionStatus(ctx context.Context, id int64, newStatus models.OrderStatus) error {
	ctx, span := s.tracer.Start(ctx, "OrderService.TransitionStatus", trace.WithAttributes(
		attribute.Int64("order.id", id),
		attribute.String("order.new_status", string(newStatus)),
	))
	defer span.End()

	err := s.inner.TransitionStatus(ctx, id, newStatus)
	s.metrics.recordTransition(ctx, newStatus, err)
	if err != nil {
		s.finish(ctx, span, err, "status transition failed", slog.Int64("order.id", id))
		return err
	}

	s.debug(ctx, "order status updated", slog.Int64("order.id", id), slog.String("status", string(newStatus)))
	return nil
}

func (s *OrderService) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.GetOrder", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	order, err := s.inner.GetOrder(ctx, id)
	if err != nil {
		s.finish(ctx, span, err, "get order failed", slog.Int64("order.id", id))
		return nil, err
	}
	span.SetAttributes(attribute.String("order.status", string(order.Status)))
	return order, nil
}

func (s *OrderService) ListOrders(ctx context.Context, email string) ([]*models.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.ListOrders")
	defer span.End()

	orders, err := s.inner.ListOrders(ctx, email)
	if err != nil {
		s.finish(ctx, span, err, "list orders failed")
		return nil, err
	}

	span.SetAttributes(attribute.Int("orders.count", len(orders)))
	if len(orders) == 0 {
		s.debug(ctx, "no orders found for owner", slog.String("user_email", email))
	} else {
		s.debug(ctx, "orders found for owner", slog.String("user_email", email), slog.Int("count", len(orders)))
	}
	return orders, nil
}

func (s *OrderService) finish(ctx context.Context, span trace.Span, err error, msg string, attrs ...slog.Attr) {
	if isClientError(err) {
		span.SetAttributes(attribute.String("order.outcome", err.Error()))
		s.debug(ctx, msg, append(attrs, slog.String("reason", err.Error()))...)
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

func (s *OrderService) debug(ctx context.Context, msg string, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	s.logger.LogAttrs(ctx, slog.LevelDebug, msg, attrs...)
}

func isClientError(err error) bool {
	return services.IsValidationError(err) || errors.Is(err, services.ErrOrderNotFound)
}

type orderMetrics struct {
	created     metric.Int64Counter
	transitions metric.Int64Counter
}

func newOrderMetrics(m metric.Meter) orderMetrics {
	if m == nil {
		return orderMetrics{}
	}
	created, _ := m.Int64Counter("orders.created", metric.WithDescription("Number of orders created"))
	transitions, _ := m.Int64Counter("orders.status_transitions", metric.WithDescription("Status transition attempts by target status and outcome"))
	return orderMetrics{created: created, transitions: transitions}
}

func (m orderMetrics) recordCreated(ctx context.Context) {
	if m.created != nil {
		m.created.Add(ctx, 1)
	}
}

func (m orderMetrics) recordTransition(ctx context.Context, status models.OrderStatus, err error) {
	if m.transitions == nil {
		return
	}
	outcome := "ok"
	switch {
	case err == nil:
	case errors.Is(err, services.ErrOrderNotFound):
		outcome = "not_found"
	case services.IsValidationError(err):
		outcome = "rejected"
	default:
		outcome = "error"
	}
	m.transitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("order.status", string(status)),
		attribute.String("outcome", outcome),
	))
}

var _ services.OrderService = (*OrderService)(nil)

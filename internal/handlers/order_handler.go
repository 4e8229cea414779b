package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/agamariel/orderservice/internal/models"
	"github.com/agamariel/orderservice/internal/services"
	"github.com/labstack/echo/v4"
)

const (
	msgOrderCreated       = "Order created"
	msgStatusUpdated      = "Order status updated"
	msgHealthy            = "Order Service is healthy"
	msgMissingCreateInput = "Missing user_email or total_price"
	msgInvalidNewStatus   = "Invalid or missing new_status"
	msgMissingEmail       = "Missing user email in query"
	msgOrderNotFound      = "Order not found"
	msgInvalidFormat      = "invalid request format"
)

// OrderHandler обрабатывает запросы, связанные с заказами.
type OrderHandler struct {
	orderService services.OrderService
	logger       *slog.Logger
}

func NewOrderHandler(orderService services.OrderService, logger *slog.Logger) *OrderHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &OrderHandler{orderService: orderService, logger: logger}
}

// CreateOrder обрабатывает POST /order.
func (h *OrderHandler) CreateOrder(c echo.Context) error {
	var req models.CreateOrderRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, msgInvalidFormat)
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, msgMissingCreateInput)
	}

	ctx := c.Request().Context()
	summary, err := h.orderService.CreateOrder(ctx, req.UserEmail, req.TotalPrice)
	if err != nil {
		if errors.Is(err, services.ErrInvalidInput) {
			return echo.NewHTTPError(http.StatusBadRequest, msgMissingCreateInput)
		}
		h.logger.ErrorContext(ctx, "Error creating order",
			slog.String("operation", "create_order"),
			slog.String("user_email", req.UserEmail),
			slog.String("total_price", req.TotalPrice.String()),
			slog.String("error", err.Error()))
		return echo.NewHTTPError(http.StatusInternalServerError)
	}

	return c.JSON(http.StatusCreated, models.CreateOrderResponse{
		Message:     msgOrderCreated,
		OrderID:     summary.ID,
		OrderNumber: summary.OrderNumber,
	})
}

// UpdateStatus обрабатывает PUT /order/:id.
func (h *OrderHandler) UpdateStatus(c echo.Context) error {
	var req models.UpdateStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, msgInvalidFormat)
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, msgInvalidNewStatus)
	}

	id, ok := parseOrderID(c.Param("id"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, msgOrderNotFound)
	}

	ctx := c.Request().Context()
	err := h.orderService.TransitionStatus(ctx, id, req.NewStatus)
	if err != nil {
		var te *services.TransitionError
		switch {
		case errors.As(err, &te):
			return echo.NewHTTPError(http.StatusBadRequest, te.Error())
		case errors.Is(err, services.ErrInvalidStatus):
			return echo.NewHTTPError(http.StatusBadRequest, msgInvalidNewStatus)
		case errors.Is(err, services.ErrOrderNotFound):
			return echo.NewHTTPError(http.StatusNotFound, msgOrderNotFound)
		default:
			h.logger.ErrorContext(ctx, "Error updating order",
				slog.String("operation", "update_status"),
				slog.Int64("order_id", id),
				slog.String("new_status", string(req.NewStatus)),
				slog.String("error", err.Error()))
			return echo.NewHTTPError(http.StatusInternalServerError)
		}
	}

	return c.JSON(http.StatusOK, models.MessageResponse{Message: msgStatusUpdated})
}

// ListOrders обрабатывает GET /order?email=.
func (h *OrderHandler) ListOrders(c echo.Context) error {
	email := c.QueryParam("email")
	if strings.TrimSpace(email) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, msgMissingEmail)
	}

	ctx := c.Request().Context()
	orders, err := h.orderService.ListOrders(ctx, email)
	if err != nil {
		h.logger.ErrorContext(ctx, "Error fetching orders",
			slog.String("operation", "list_orders"),
			slog.String("user_email", email),
			slog.String("error", err.Error()))
		return echo.NewHTTPError(http.StatusInternalServerError)
	}

	response := make([]*models.OrderResponse, 0, len(orders))
	for _, o := range orders {
		response = append(response, models.NewOrderResponse(o))
	}
	return c.JSON(http.StatusOK, response)
}

// GetOrder обрабатывает GET /order/:id.
func (h *OrderHandler) GetOrder(c echo.Context) error {
	id, ok := parseOrderID(c.Param("id"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, msgOrderNotFound)
	}

	ctx := c.Request().Context()
	order, err := h.orderService.GetOrder(ctx, id)
	if err != nil {
		if errors.Is(err, services.ErrOrderNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, msgOrderNotFound)
		}
		h.logger.ErrorContext(ctx, "Error fetching order",
			slog.String("operation", "get_order"),
			slog.Int64("order_id", id),
			slog.String("error", err.Error()))
		return echo.NewHTTPError(http.StatusInternalServerError)
	}

	return c.JSON(http.StatusOK, models.NewOrderResponse(order))
}

// Health обрабатывает GET /order/health.
func (h *OrderHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, models.MessageResponse{Message: msgHealthy})
}

// parseOrderID разбирает id из пути. Нечисловой или неположительный id не может принадлежать заказу.
func parseOrderID(raw string) (int64, bool) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

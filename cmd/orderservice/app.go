package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/agamariel/orderservice/internal/config"
	"github.com/agamariel/orderservice/internal/handlers"
	"github.com/agamariel/orderservice/internal/migrations"
	"github.com/agamariel/orderservice/internal/observability"
	"github.com/agamariel/orderservice/internal/services"
	"github.com/agamariel/orderservice/internal/storage"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// App структура для управления приложением и его зависимостями.
type App struct {
	cfg         *config.Config
	instruments *observability.Instruments
	logger      *slog.Logger
	dbPool      *pgxpool.Pool
	echo        *echo.Echo

	orderHandler *handlers.OrderHandler
}

// NewApp создаёт и инициализирует новое приложение.
func NewApp(ctx context.Context, cfg *config.Config, instruments *observability.Instruments) (*App, error) {
	app := &App{
		cfg:         cfg,
		instruments: instruments,
		logger:      instruments.Logger,
	}

	if err := app.initDatabase(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	app.initDependencies()
	app.initServer()

	return app, nil
}

// initDatabase выполняет миграции и открывает пул соединений.
func (app *App) initDatabase(ctx context.Context) error {
	if app.cfg.DatabaseURI == "" {
		return fmt.Errorf("DATABASE_URI is required")
	}

	app.logger.Info("running database migrations")
	if err := migrations.RunDSN(ctx, app.cfg.DatabaseURI); err != nil {
		return err
	}

	dbPool, err := storage.NewPool(ctx, app.cfg.DatabaseURI, app.cfg.PoolSize)
	if err != nil {
		return err
	}

	app.dbPool = dbPool
	app.logger.Info("connected to database", slog.Int("max_conns", int(app.cfg.PoolSize)))

	return nil
}

// initDependencies собирает storage, сервис и handler.
func (app *App) initDependencies() {
	orderStorage := storage.NewPostgresOrderStorage(app.dbPool)

	var orderService services.OrderService = services.NewOrderService(orderStorage)
	orderService = observability.NewOrderService(orderService, observability.WithInstruments(app.instruments))

	app.orderHandler = handlers.NewOrderHandler(orderService, app.logger)
}

// initServer инициализирует HTTP-сервер и настраивает маршруты.
func (app *App) initServer() {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handlers.NewRequestValidator()
	e.HTTPErrorHandler = handlers.ErrorHandler(app.logger)

	// Middleware
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			app.logger.LogAttrs(c.Request().Context(), slog.LevelInfo, "request",
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency))
			return nil
		},
	}))
	e.Use(middleware.BodyLimit("1M"))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{echo.GET, echo.POST, echo.PUT},
	}))

	handlers.RegisterRoutes(e, app.orderHandler)

	app.echo = e
}

// Start запускает HTTP-сервер и блокируется до его остановки.
func (app *App) Start() error {
	app.logger.Info("Order Service starting", slog.String("config", app.cfg.String()))
	if err := app.echo.Start(app.cfg.RunAddress); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server stopped: %w", err)
	}

	return nil
}

// Shutdown корректно завершает работу приложения.
func (app *App) Shutdown(ctx context.Context) error {
	app.logger.Info("shutting down server")

	if err := app.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	if app.dbPool != nil {
		app.dbPool.Close()
	}

	app.logger.Info("server gracefully stopped")
	return nil
}

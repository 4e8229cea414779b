package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
)

// ErrorResponse - тело ответа с ошибкой.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ErrorHandler отдаёт ошибки в виде {"error": "..."}.
// Для 5xx текст всегда заменяется на общий, детали остаются только в логах.
func ErrorHandler(logger *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		message := http.StatusText(code)

		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			if m, ok := he.Message.(string); ok && m != "" {
				message = m
			} else {
				message = http.StatusText(code)
			}
		} else {
			logger.ErrorContext(c.Request().Context(), "unhandled error",
				slog.String("method", c.Request().Method),
				slog.String("path", c.Path()),
				slog.String("error", err.Error()))
		}

		if code >= http.StatusInternalServerError {
			message = "Internal Server Error"
		}

		var writeErr error
		if c.Request().Method == http.MethodHead {
			writeErr = c.NoContent(code)
		} else {
			writeErr = c.JSON(code, ErrorResponse{Error: message})
		}
		if writeErr != nil {
			logger.Error("failed to write error response", slog.String("error", writeErr.Error()))
		}
	}
}

package http

import (
	"net/http"
	"time"

	"github.com/cashflow/card-gateway/internal/logger"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

// NewServer wires middleware, validation and routes onto a new echo instance
func NewServer(paymentHandler *PaymentHandler, log *zap.Logger, exposeErrorDetail bool) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = NewRequestValidator(time.Now)
	e.HTTPErrorHandler = NewHTTPErrorHandler(log, exposeErrorDetail)

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(logger.NewEchoRequestLogger(log))

	// Routes
	e.POST("/payments", paymentHandler.CreatePayment)
	e.GET("/payments/:id", paymentHandler.GetPayment)

	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	return e
}

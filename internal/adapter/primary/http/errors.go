package http

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/cashflow/card-gateway/internal/core"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const (
	errorValidation = "ValidationError"
	errorUnexpected = "UnexpectedError"
)

// ErrorResponse is the body of every error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed on the '%s' rule", fe.Field(), fe.Tag()))
	}
	return strings.Join(msgs, "; ")
}

// respondToError writes err with the status its kind maps to
func (h *PaymentHandler) respondToError(c echo.Context, err error) error {
	var gwErr *core.GatewayError
	if errors.As(err, &gwErr) {
		return c.JSON(gwErr.HTTPStatus(), ErrorResponse{
			Error:   string(gwErr.Key),
			Message: gwErr.Message,
		})
	}

	h.logger.Error("Unexpected error",
		zap.Error(err),
		zap.String("method", c.Request().Method),
		zap.String("path", c.Request().URL.Path))

	return c.JSON(http.StatusInternalServerError, unexpectedResponse(err, h.exposeErrorDetail))
}

func unexpectedResponse(err error, exposeDetail bool) ErrorResponse {
	resp := ErrorResponse{
		Error:   errorUnexpected,
		Message: "An unexpected error occurred",
	}
	if exposeDetail {
		resp.Detail = err.Error()
	}
	return resp
}

// NewHTTPErrorHandler handles errors that escape handlers, such as unknown
// routes or recovered panics
func NewHTTPErrorHandler(logger *zap.Logger, exposeDetail bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		body := unexpectedResponse(err, exposeDetail)

		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			body = ErrorResponse{
				Error:   http.StatusText(code),
				Message: fmt.Sprint(he.Message),
			}
		}

		if code >= http.StatusInternalServerError {
			logger.Error("HTTP error",
				zap.Error(err),
				zap.Int("status", code),
				zap.String("method", c.Request().Method),
				zap.String("path", c.Request().URL.Path))
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(code)
		} else {
			err = c.JSON(code, body)
		}
		if err != nil {
			logger.Error("Failed to send error response", zap.Error(err))
		}
	}
}

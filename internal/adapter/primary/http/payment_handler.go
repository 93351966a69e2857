package http

import (
	"encoding/json"
	"net/http"

	"github.com/cashflow/card-gateway/internal/port/input"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PaymentHandler is a primary adapter (HTTP handler)
type PaymentHandler struct {
	paymentService    input.PaymentService
	logger            *zap.Logger
	exposeErrorDetail bool
}

// NewPaymentHandler creates a new payment handler. exposeErrorDetail adds the
// error chain to 500 responses and must be off in production.
func NewPaymentHandler(paymentService input.PaymentService, logger *zap.Logger, exposeErrorDetail bool) *PaymentHandler {
	return &PaymentHandler{
		paymentService:    paymentService,
		logger:            logger,
		exposeErrorDetail: exposeErrorDetail,
	}
}

// CreatePaymentRequest represents the HTTP request to create a payment
type CreatePaymentRequest struct {
	CardHolderName     string          `json:"cardHolderName" validate:"required,max=150"`
	CardNumber         string          `json:"cardNumber" validate:"required,credit_card"`
	CardExpirationDate string          `json:"cardExpirationDate" validate:"required,card_expiry"`
	CVV                string          `json:"cvv" validate:"required,len=3,number"`
	Amount             decimal.Decimal `json:"amount" validate:"gt=0"`
	Currency           string          `json:"currency" validate:"required,len=3,alpha,uppercase"`
}

// PaymentResponse represents the HTTP response for a payment
type PaymentResponse struct {
	ID                 string  `json:"id"`
	CardHolderName     string  `json:"cardHolderName"`
	CardNumber         string  `json:"cardNumber"`
	CardExpirationDate string  `json:"cardExpirationDate"`
	CVV                string  `json:"cvv"`
	Amount             float64 `json:"amount"`
	Currency           string  `json:"currency"`
	Status             string  `json:"status"`
	Code               string  `json:"code"`
}

func toHTTPResponse(response *input.PaymentResponse) PaymentResponse {
	return PaymentResponse{
		ID:                 response.ID.String(),
		CardHolderName:     response.CardHolderName,
		CardNumber:         response.CardNumber,
		CardExpirationDate: response.CardExpirationDate,
		CVV:                response.CVV,
		Amount:             response.Amount.InexactFloat64(),
		Currency:           response.Currency,
		Status:             string(response.Status),
		Code:               string(response.Code),
	}
}

// CreatePayment handles payment submission
func (h *PaymentHandler) CreatePayment(c echo.Context) error {
	var req CreatePaymentRequest

	decoder := json.NewDecoder(c.Request().Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   errorValidation,
			Message: "Invalid request body: " + err.Error(),
		})
	}

	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   errorValidation,
			Message: validationMessage(err),
		})
	}

	// Convert to service request
	serviceReq := input.SubmitPaymentRequest{
		CardHolderName:     req.CardHolderName,
		CardNumber:         req.CardNumber,
		CardExpirationDate: req.CardExpirationDate,
		CVV:                req.CVV,
		Amount:             req.Amount,
		Currency:           req.Currency,
	}

	response, err := h.paymentService.SubmitPayment(c.Request().Context(), serviceReq)
	if err != nil {
		return h.respondToError(c, err)
	}

	return c.JSON(http.StatusCreated, toHTTPResponse(response))
}

// GetPayment handles payment retrieval by ID
func (h *PaymentHandler) GetPayment(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   errorValidation,
			Message: "id must be a valid UUID",
		})
	}

	response, err := h.paymentService.GetPaymentStatus(c.Request().Context(), id)
	if err != nil {
		return h.respondToError(c, err)
	}

	return c.JSON(http.StatusOK, toHTTPResponse(response))
}

package core

import (
	"errors"
	"fmt"
	"net/http"
)

// GatewayErrorKey identifies the kind of a GatewayError
type GatewayErrorKey string

const (
	ErrKeyInvalidCardNumber     GatewayErrorKey = "INVALID_CARD_NUMBER"
	ErrKeyInvalidExpirationDate GatewayErrorKey = "INVALID_EXPIRATION_DATE"
	ErrKeyInvalidCVV            GatewayErrorKey = "INVALID_CVV"
	ErrKeyPaymentNotFound       GatewayErrorKey = "PAYMENT_RECORD_NOT_FOUND"
)

var keyToHTTPStatus = map[GatewayErrorKey]int{
	ErrKeyInvalidCardNumber:     http.StatusBadRequest,
	ErrKeyInvalidExpirationDate: http.StatusBadRequest,
	ErrKeyInvalidCVV:            http.StatusBadRequest,
	ErrKeyPaymentNotFound:       http.StatusNotFound,
}

// GatewayError is a domain error that the HTTP layer translates into a response
type GatewayError struct {
	Key     GatewayErrorKey
	Message string
	Err     error
}

func (e *GatewayError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s", e.Message, e.Err.Error())
	}
	return e.Message
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// HTTPStatus returns the status code the error is surfaced with
func (e *GatewayError) HTTPStatus() int {
	if status, ok := keyToHTTPStatus[e.Key]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// NewGatewayError creates a new GatewayError
func NewGatewayError(key GatewayErrorKey, message string, err error) *GatewayError {
	return &GatewayError{
		Key:     key,
		Message: message,
		Err:     err,
	}
}

// HasKey reports whether err is a GatewayError with the given key
func HasKey(err error, key GatewayErrorKey) bool {
	var gwErr *GatewayError
	return errors.As(err, &gwErr) && gwErr.Key == key
}

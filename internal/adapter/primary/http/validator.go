package http

import (
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

const amountPlaces = 2

var expiryPattern = regexp.MustCompile(`^(0[1-9]|1[0-2])/([0-9]{2})$`)

// RequestValidator plugs go-playground/validator into echo
type RequestValidator struct {
	validate *validator.Validate
}

// NewRequestValidator registers the gateway's custom rules. now is the clock
// card expiry is checked against.
func NewRequestValidator(now func() time.Time) *RequestValidator {
	v := validator.New()

	// Report JSON field names
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// Amounts are validated as numbers
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})

	err := v.RegisterValidation("card_expiry", func(fl validator.FieldLevel) bool {
		return validExpiry(fl.Field().String(), now())
	})
	if err != nil {
		panic(err)
	}

	// Amounts are stored with two decimal places
	v.RegisterStructValidation(func(sl validator.StructLevel) {
		req := sl.Current().Interface().(CreatePaymentRequest)
		if !req.Amount.Equal(req.Amount.Round(amountPlaces)) {
			sl.ReportError(req.Amount, "amount", "Amount", "max_places", "2")
		}
	}, CreatePaymentRequest{})

	return &RequestValidator{validate: v}
}

// Validate implements echo.Validator
func (rv *RequestValidator) Validate(i interface{}) error {
	return rv.validate.Struct(i)
}

// validExpiry accepts MM/YY dates whose month has not ended yet
func validExpiry(value string, now time.Time) bool {
	m := expiryPattern.FindStringSubmatch(value)
	if m == nil {
		return false
	}
	month, _ := strconv.Atoi(m[1])
	year, _ := strconv.Atoi(m[2])
	year += 2000

	firstOfNextMonth := time.Date(year, time.Month(month)+1, 1, 0, 0, 0, 0, time.UTC)
	return now.UTC().Before(firstOfNextMonth)
}

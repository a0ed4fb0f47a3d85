package catalog

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
)

// Rating is the optional review summary attached to a product.
type Rating struct {
	Rate  float64 `json:"rate" validate:"gte=0,lte=5"`
	Count int     `json:"count" validate:"gte=0"`
}

// Product mirrors one catalog entry as served by the remote API. Instances
// are read-only: the client decodes them and nothing downstream mutates them.
type Product struct {
	ID          int64           `json:"id" validate:"required"`
	Title       string          `json:"title" validate:"required"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Image       string          `json:"image"`
	Rating      *Rating         `json:"rating,omitempty"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" {
			return f.Name
		}
		return tag
	})
	return v
}

// Validate checks the invariants the remote contract promises: stable id,
// non-empty title, non-negative price, rating within bounds.
func (p Product) Validate() error {
	if err := validate.Struct(p); err != nil {
		return formatValidationErrors(err)
	}
	if p.Price.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "product price must be non-negative").
			WithDetails(map[string]any{"id": p.ID, "price": p.Price.String()})
	}
	return nil
}

func formatValidationErrors(err error) *pkgerrors.Error {
	if errs, ok := err.(validator.ValidationErrors); ok {
		details := map[string]string{}
		for _, fieldErr := range errs {
			details[fieldErr.Field()] = validationMessage(fieldErr)
		}
		return pkgerrors.New(pkgerrors.CodeValidation, "malformed product payload").WithDetails(details)
	}
	return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "malformed product payload")
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be at most %s", fe.Param())
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

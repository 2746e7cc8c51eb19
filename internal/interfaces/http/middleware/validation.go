package middleware

import (
	"errors"
	"reflect"
	"strings"

	"github.com/gemerp/backend/internal/domain/inventory"
	"github.com/gemerp/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// SetupValidator configures gin's validator: JSON field names in errors, the
// decimal type seen as its string form, and the gem-specific tags
// item_type, decimal_positive and decimal_nonnegative.
func SetupValidator() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("gin validator engine is not go-playground/validator")
	}
	return RegisterValidations(v)
}

// RegisterValidations installs the custom tags on a validator instance
func RegisterValidations(v *validator.Validate) error {
	// Use JSON tag names for field names in errors
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		}
		return name
	})

	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		switch d := field.Interface().(type) {
		case decimal.Decimal:
			return d.String()
		case decimal.NullDecimal:
			if !d.Valid {
				return ""
			}
			return d.Decimal.String()
		}
		return nil
	}, decimal.Decimal{}, decimal.NullDecimal{})

	if err := v.RegisterValidation("item_type", validateItemType); err != nil {
		return err
	}
	if err := v.RegisterValidation("decimal_positive", decimalRule(func(d decimal.Decimal) bool {
		return d.IsPositive()
	})); err != nil {
		return err
	}
	return v.RegisterValidation("decimal_nonnegative", decimalRule(func(d decimal.Decimal) bool {
		return !d.IsNegative()
	}))
}

func validateItemType(fl validator.FieldLevel) bool {
	return inventory.ItemType(fl.Field().String()).IsValid()
}

// decimalRule adapts a predicate to the string form produced by the decimal type func
func decimalRule(ok func(decimal.Decimal) bool) validator.Func {
	return func(fl validator.FieldLevel) bool {
		raw := fl.Field().String()
		if raw == "" {
			return false
		}
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return false
		}
		return ok(d)
	}
}

// FormatValidationErrors converts a binding error into per-field details.
// Anything that is not a validator error yields a single body-level detail.
func FormatValidationErrors(err error) []dto.ValidationDetail {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return []dto.ValidationDetail{{Field: "body", Message: err.Error()}}
	}
	details := make([]dto.ValidationDetail, 0, len(validationErrors))
	for _, e := range validationErrors {
		details = append(details, dto.ValidationDetail{
			Field:   e.Field(),
			Message: getValidationMessage(e),
		})
	}
	return details
}

// getValidationMessage returns a human-readable validation message
func getValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Invalid email format"
	case "min":
		if e.Kind() == reflect.String {
			return "Must be at least " + e.Param() + " characters"
		}
		if e.Kind() == reflect.Slice {
			return "Must contain at least " + e.Param() + " entries"
		}
		return "Must be at least " + e.Param()
	case "max":
		if e.Kind() == reflect.String {
			return "Must be at most " + e.Param() + " characters"
		}
		return "Must be at most " + e.Param()
	case "oneof":
		return "Must be one of: " + e.Param()
	case "item_type":
		return "Must be one of: Rough, Lots, Sorted Lots, Cut and Polished"
	case "decimal_positive":
		return "Must be a number greater than zero"
	case "decimal_nonnegative":
		return "Must be a number that is not negative"
	default:
		return "Invalid value"
	}
}

package services

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"expensetracker/internal/core"
)

// newValidator reports fields by their form name.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("form"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// toValidationError converts validator failures into field-keyed messages.
func toValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := core.NewValidationError()
	for _, fe := range verrs {
		out.Add(fe.Field(), fieldMessage(fe))
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "max":
		return fmt.Sprintf("Ensure this value has at most %s characters.", fe.Param())
	case "number", "numeric":
		return "Enter a whole number."
	default:
		return fmt.Sprintf("Invalid value (%s).", fe.Tag())
	}
}

// amountMessage maps amount parse errors to form messages.
func amountMessage(err error) string {
	switch {
	case errors.Is(err, core.ErrNegativeAmount):
		return "Ensure this value is greater than or equal to 0."
	case errors.Is(err, core.ErrTooManyDecimals):
		return "Ensure that there are no more than 2 decimal places."
	case errors.Is(err, core.ErrAmountTooLarge):
		return "Ensure that there are no more than 10 digits in total."
	default:
		return "Enter a number."
	}
}

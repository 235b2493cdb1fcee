package services

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/dmitrijs2005/simkeeper/internal/common"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// checkStruct runs the struct tag rules and converts failures into
// per-field messages keyed by the JSON field name.
func checkStruct(s any) common.Violations {
	violations := common.Violations{}

	err := validate.Struct(s)
	if err == nil {
		return violations
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		violations.Add("input", "The input is invalid.")
		return violations
	}
	for _, fe := range fieldErrs {
		violations.Add(fe.Field(), message(fe))
	}
	return violations
}

func message(fe validator.FieldError) string {
	field := strings.ReplaceAll(fe.Field(), "_", " ")
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("The %s field is required.", field)
	case "email":
		return fmt.Sprintf("The %s field must be a valid email address.", field)
	case "max":
		return fmt.Sprintf("The %s field must not be greater than %s characters.", field, fe.Param())
	case "min":
		return fmt.Sprintf("The %s field must be at least %s characters.", field, fe.Param())
	default:
		return fmt.Sprintf("The %s field is invalid.", field)
	}
}

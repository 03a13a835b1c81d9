package services

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateInput runs struct tag validation and returns the first failure as
// a *ValidationError
func validateInput(input interface{}) error {
	err := validate.Struct(input)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return &ValidationError{Message: err.Error()}
	}

	fe := fieldErrs[0]
	switch fe.Tag() {
	case "required":
		return &ValidationError{Field: fe.Field(), Message: "is required"}
	case "max":
		return &ValidationError{Field: fe.Field(), Message: fmt.Sprintf("must be at most %s characters", fe.Param())}
	case "oneof":
		return &ValidationError{Field: fe.Field(), Message: fmt.Sprintf("must be one of %s", fe.Param())}
	default:
		return &ValidationError{Field: fe.Field(), Message: "is invalid"}
	}
}

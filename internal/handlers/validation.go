package handlers

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// fixed messages for field/tag pairs clients match on
var fieldMessages = map[string]string{
	"email.email":       "Email is not valid",
	"password.required": "Password is required",
	"password.min":      "Password must be at least 6 characters long",
	"password.max":      "Password must be at most 72 characters long",
}

// validateStruct returns one message per failing field, in declaration order.
func validateStruct(data interface{}) []string {
	err := validate.Struct(data)
	if err == nil {
		return nil
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return []string{err.Error()}
	}

	msgs := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		msgs = append(msgs, errorMessage(e))
	}
	return msgs
}

func errorMessage(e validator.FieldError) string {
	if msg, ok := fieldMessages[e.Field()+"."+e.Tag()]; ok {
		return msg
	}

	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", e.Field())
	case "email":
		return fmt.Sprintf("%s must be a valid email", e.Field())
	case "min":
		if e.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters long", e.Field(), e.Param())
		}
		return fmt.Sprintf("%s must not be less than %s", e.Field(), e.Param())
	case "max":
		return fmt.Sprintf("%s must not be greater than %s", e.Field(), e.Param())
	case "gte":
		return fmt.Sprintf("%s must not be less than %s", e.Field(), e.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", e.Field(), strings.ReplaceAll(e.Param(), " ", ", "))
	default:
		return fmt.Sprintf("%s is invalid", e.Field())
	}
}

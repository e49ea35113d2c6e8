package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// fieldFlag returns the CLI flag or config key that sets the field at the
// given struct namespace, e.g. "Config.Notify.ToEmail".
func fieldFlag(structType reflect.Type, namespace string) string {
	if structType.Kind() == reflect.Ptr {
		structType = structType.Elem()
	}

	parts := strings.Split(namespace, ".")
	var keys []string
	var field reflect.StructField
	t := structType
	for _, name := range parts[1:] {
		f, found := t.FieldByName(name)
		if !found {
			return strings.ToLower(name)
		}
		field = f
		keys = append(keys, strings.Split(f.Tag.Get("mapstructure"), ",")[0])
		t = f.Type
	}

	if flagTag := field.Tag.Get("flag"); flagTag != "" {
		return "--" + flagTag
	}
	return strings.Join(keys, ".")
}

func formatValidationError(structType reflect.Type, errs validator.ValidationErrors) error {
	var messages []string

	for _, err := range errs {
		field := err.Field()
		hint := fmt.Sprintf(" (see %s)", fieldFlag(structType, err.StructNamespace()))

		switch err.Tag() {
		case "required":
			messages = append(messages, fmt.Sprintf("%s is required but not provided%s", field, hint))
		case "url":
			messages = append(messages, fmt.Sprintf("%s must be a valid URL%s", field, hint))
		case "email":
			messages = append(messages, fmt.Sprintf("%s must be a valid email address%s", field, hint))
		case "oneof":
			messages = append(messages, fmt.Sprintf("%s must be one of [%s]%s", field, err.Param(), hint))
		case "min":
			messages = append(messages, fmt.Sprintf("%s must be at least %s%s", field, err.Param(), hint))
		case "max":
			messages = append(messages, fmt.Sprintf("%s must be at most %s%s", field, err.Param(), hint))
		default:
			messages = append(messages, fmt.Sprintf("%s failed validation: %s%s", field, err.Tag(), hint))
		}
	}

	if len(messages) == 1 {
		return fmt.Errorf("config validation error: %s", messages[0])
	}
	return fmt.Errorf("config validation errors:\n  - %s", strings.Join(messages, "\n  - "))
}

func validateStruct(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			return formatValidationError(reflect.TypeOf(cfg), validationErrors)
		}
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

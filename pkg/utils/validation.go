package utils

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"

	vo "ontology-backend/domain/core/valueobjects"
	pkgerrors "ontology-backend/pkg/errors"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("notblank", validators.NotBlank)
	_ = v.RegisterValidation("collectionname", func(fl validator.FieldLevel) bool {
		return vo.ValidateCollectionName(fl.Field().String()) == nil
	})
	_ = v.RegisterValidation("nodetype", func(fl validator.FieldLevel) bool {
		_, err := vo.ParseNodeType(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("inheritancetype", func(fl validator.FieldLevel) bool {
		return vo.InheritanceType(fl.Field().String()).IsValid()
	})
	_ = v.RegisterValidation("relation", func(fl validator.FieldLevel) bool {
		switch fl.Field().String() {
		case "specializations", "generalizations", "parts", "isPartOf":
			return true
		}
		return false
	})
	return v
}

// ValidateStruct validates a struct based on its validation tags
func ValidateStruct(s interface{}) error {
	if err := validate.Struct(s); err != nil {
		return formatValidationError(err)
	}
	return nil
}

// formatValidationError turns validator output into a single validation AppError.
func formatValidationError(err error) error {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return pkgerrors.Validation("%s", err.Error())
	}
	messages := make([]string, 0, len(validationErrors))
	fields := make(map[string]interface{}, len(validationErrors))
	for _, e := range validationErrors {
		msg := formatFieldError(e)
		messages = append(messages, msg)
		fields[lowerFirst(e.Field())] = msg
	}
	return pkgerrors.Validation("%s", strings.Join(messages, "; ")).WithDetails(fields)
}

// formatFieldError formats a single field validation error
func formatFieldError(e validator.FieldError) string {
	field := lowerFirst(e.Field())

	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "notblank":
		return fmt.Sprintf("%s cannot be empty", field)
	case "min":
		if e.Kind().String() == "slice" {
			return fmt.Sprintf("%s must contain at least %s entries", field, e.Param())
		}
		return fmt.Sprintf("%s must be at least %s characters", field, e.Param())
	case "max":
		if e.Kind().String() == "slice" {
			return fmt.Sprintf("%s must contain at most %s entries", field, e.Param())
		}
		return fmt.Sprintf("%s must be at most %s characters", field, e.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	case "collectionname":
		return fmt.Sprintf("%s can only contain letters, numbers, hyphens, and underscores", field)
	case "nodetype":
		return fmt.Sprintf("%s is not a valid node type", field)
	case "inheritancetype":
		return fmt.Sprintf("%s is not a valid inheritance type", field)
	case "relation":
		return fmt.Sprintf("%s must be one of: specializations generalizations parts isPartOf", field)
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, e.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", field, e.Param())
	case "dive":
		return fmt.Sprintf("%s contains invalid values", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

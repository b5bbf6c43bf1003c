package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/Dnl30T/Avisos-FOA/pkg/apperror"
	"github.com/go-playground/validator/v10"
)

// New returns a validator reading the same `binding` tags gin validates at the edge,
// reporting fields by their JSON names.
func New() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.SetTagName("binding")
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// ToAppError converts validator output into an apperror.ValidationError. Other errors
// (malformed JSON, wrong types) become a single-field validation error on "body".
func ToAppError(err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return apperror.NewValidationError(apperror.FieldError{Field: "body", Message: err.Error()})
	}

	fields := make([]apperror.FieldError, 0, len(validationErrors))
	for _, fe := range validationErrors {
		fields = append(fields, apperror.FieldError{
			Field:   getFieldName(fe.Field()),
			Message: getFieldErrorMessage(fe),
		})
	}
	return apperror.NewValidationError(fields...)
}

func getFieldErrorMessage(fe validator.FieldError) string {
	field := getFieldName(fe.Field())

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email", field)
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "boolean":
		return fmt.Sprintf("%s must be true or false", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

func getFieldName(field string) string {
	fieldNames := map[string]string{
		"Title":          "title",
		"Description":    "description",
		"Category":       "category",
		"Urgency":        "urgency",
		"Subject":        "subject",
		"Dependency":     "dependency",
		"Deadline":       "deadline",
		"AdditionalInfo": "additional_info",
		"Email":          "email",
		"Password":       "password",
	}

	if name, ok := fieldNames[field]; ok {
		return name
	}
	return field
}

package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// Validation errors.
var (
	// ErrValidationFailed is returned when struct validation fails.
	ErrValidationFailed = errors.New("validation failed")
	// ErrFieldRequired is returned when a required field is missing.
	ErrFieldRequired = errors.New("field is required")
	// ErrFieldMaxLength is returned when a field exceeds maximum length.
	ErrFieldMaxLength = errors.New("field exceeds maximum length")
	// ErrFieldMinLength is returned when a field is below minimum length.
	ErrFieldMinLength = errors.New("field below minimum length")
	// ErrFieldGreaterThanOrEqual is returned when a field must be greater than or equal to a value.
	ErrFieldGreaterThanOrEqual = errors.New("field must be greater than or equal to constraint")
	// ErrFieldLessThanOrEqual is returned when a field must be less than or equal to a value.
	ErrFieldLessThanOrEqual = errors.New("field must be less than or equal to constraint")
	// ErrFieldOneOf is returned when a field must be one of allowed values.
	ErrFieldOneOf = errors.New("field must be one of allowed values")
	// ErrFieldUUID is returned when a field must be a valid UUID.
	ErrFieldUUID = errors.New("field must be a valid UUID")
	// ErrFieldScoreRange is returned when a score field lies outside [1,5].
	ErrFieldScoreRange = errors.New("field must be a score between 1 and 5")
	// ErrFieldPositiveWeight is returned when a weight field is not positive.
	ErrFieldPositiveWeight = errors.New("field must be a positive weight")
	// ErrBodyParseFailed is returned when request body parsing fails.
	ErrBodyParseFailed = errors.New("failed to parse request body")
	// ErrUnsupportedContentType is returned when the Content-Type is not application/json.
	ErrUnsupportedContentType = errors.New("Content-Type must be application/json")
)

// ErrValidatorInit is returned when custom validator registration fails
// during initialization.
var ErrValidatorInit = errors.New("validator initialization failed")

var (
	validate     *validator.Validate
	validateOnce sync.Once
	errValidate  error
)

// initValidators creates and configures the validator with custom rules for
// decimal scores and weights.
func initValidators() (*validator.Validate, error) {
	vld := validator.New(validator.WithRequiredStructEnabled())

	// Custom validators access decimal fields directly; registering a custom
	// type function that returns the same type loops the validator.

	if err := vld.RegisterValidation("score_range", func(fl validator.FieldLevel) bool {
		value, ok := fl.Field().Interface().(decimal.Decimal)
		if !ok {
			return false
		}

		return value.GreaterThanOrEqual(decimal.NewFromInt(1)) &&
			value.LessThanOrEqual(decimal.NewFromInt(5))
	}); err != nil {
		return nil, fmt.Errorf("%w: failed to register 'score_range': %w", ErrValidatorInit, err)
	}

	if err := vld.RegisterValidation("positive_weight", func(fl validator.FieldLevel) bool {
		value, ok := fl.Field().Interface().(decimal.Decimal)
		if !ok {
			return false
		}

		return value.IsPositive()
	}); err != nil {
		return nil, fmt.Errorf("%w: failed to register 'positive_weight': %w", ErrValidatorInit, err)
	}

	return vld, nil
}

// GetValidator returns the singleton validator instance.
func GetValidator() (*validator.Validate, error) {
	validateOnce.Do(func() {
		validate, errValidate = initValidators()
	})

	return validate, errValidate
}

// ValidateStruct validates a struct using the go-playground/validator tags.
// Returns nil if validation passes, or the first validation error.
func ValidateStruct(payload any) error {
	vld, initErr := GetValidator()
	if initErr != nil {
		return fmt.Errorf("%w: %w", ErrValidationFailed, initErr)
	}

	if err := vld.Struct(payload); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
			return formatValidationError(validationErrors[0])
		}

		return fmt.Errorf("%w: %w", ErrValidationFailed, err)
	}

	return nil
}

// validationErrorFormatters maps validation tags to their error formatting
// functions. A map keeps cyclomatic complexity down compared to a switch.
var validationErrorFormatters = map[string]func(field, param string) error{
	"required": func(field, _ string) error {
		return fmt.Errorf("%w: '%s'", ErrFieldRequired, field)
	},
	"max": func(field, param string) error {
		return fmt.Errorf("%w: '%s' must be at most %s", ErrFieldMaxLength, field, param)
	},
	"min": func(field, param string) error {
		return fmt.Errorf("%w: '%s' must be at least %s", ErrFieldMinLength, field, param)
	},
	"gte": func(field, param string) error {
		return fmt.Errorf("%w: '%s' must be at least %s", ErrFieldGreaterThanOrEqual, field, param)
	},
	"lte": func(field, param string) error {
		return fmt.Errorf("%w: '%s' must be at most %s", ErrFieldLessThanOrEqual, field, param)
	},
	"oneof": func(field, param string) error {
		return fmt.Errorf("%w: '%s' must be one of [%s]", ErrFieldOneOf, field, param)
	},
	"uuid": func(field, _ string) error {
		return fmt.Errorf("%w: '%s'", ErrFieldUUID, field)
	},
	"score_range": func(field, _ string) error {
		return fmt.Errorf("%w: '%s'", ErrFieldScoreRange, field)
	},
	"positive_weight": func(field, _ string) error {
		return fmt.Errorf("%w: '%s'", ErrFieldPositiveWeight, field)
	},
}

// formatValidationError creates a user-friendly error message from a
// validation error.
func formatValidationError(fe validator.FieldError) error {
	field := toSnakeCase(fe.Field())

	if formatter, ok := validationErrorFormatters[fe.Tag()]; ok {
		return formatter(field, fe.Param())
	}

	return fmt.Errorf("%w: '%s' failed '%s' check", ErrValidationFailed, field, fe.Tag())
}

// toSnakeCase converts a PascalCase or camelCase string to snake_case.
// Acronym runs stay together: HouseholdID becomes household_id.
func toSnakeCase(s string) string {
	var result strings.Builder

	runes := []rune(s)

	for i, r := range runes {
		if i > 0 && r >= 'A' && r <= 'Z' {
			prevLower := runes[i-1] >= 'a' && runes[i-1] <= 'z'
			nextLower := i+1 < len(runes) && runes[i+1] >= 'a' && runes[i+1] <= 'z'

			if prevLower || nextLower {
				result.WriteByte('_')
			}
		}

		result.WriteRune(r)
	}

	return strings.ToLower(result.String())
}

// decodeStrict unmarshals a JSON body into payload, rejecting fields the
// payload type does not declare.
func decodeStrict(body []byte, payload any) error {
	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(payload); err != nil {
		return fmt.Errorf("%w: %w", ErrBodyParseFailed, err)
	}

	return nil
}

// ParseBodyAndValidate parses the request body into the given struct and
// validates it. Rejects requests with non-JSON Content-Type headers and
// bodies carrying fields the target struct does not declare.
func ParseBodyAndValidate(fiberCtx *fiber.Ctx, payload any) error {
	ct := fiberCtx.Get(fiber.HeaderContentType)
	if ct != "" && !strings.HasPrefix(ct, fiber.MIMEApplicationJSON) {
		return ErrUnsupportedContentType
	}

	if err := decodeStrict(fiberCtx.Body(), payload); err != nil {
		return err
	}

	return ValidateStruct(payload)
}

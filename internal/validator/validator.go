package validator

import (
	"sync"

	"github.com/go-playground/validator/v10"
	ierr "github.com/vendora/vendora/internal/errors"
	"github.com/vendora/vendora/internal/types"
)

var (
	validate *validator.Validate
	once     sync.Once
)

// NewValidator builds the shared validator with the custom tags registered
func NewValidator() *validator.Validate {
	once.Do(func() {
		validate = validator.New()
		_ = validate.RegisterValidation("platform", func(fl validator.FieldLevel) bool {
			_, ok := types.ParsePlatform(fl.Field().String())
			return ok
		})
	})
	return validate
}

func GetValidator() *validator.Validate {
	return NewValidator()
}

// ValidateRequest validates a request DTO and returns an ErrValidation with per-field details
func ValidateRequest(req interface{}) error {
	if err := GetValidator().Struct(req); err != nil {
		details := make(map[string]any)
		var validateErrs validator.ValidationErrors
		if ierr.As(err, &validateErrs) {
			for _, fe := range validateErrs {
				details[fe.Field()] = fieldMessage(fe)
			}
		}
		return ierr.WithError(err).
			WithHint("Request validation failed").
			WithReportableDetails(details).
			Mark(ierr.ErrValidation)
	}
	return nil
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "platform":
		return "is not a supported platform"
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "email":
		return "must be a valid email"
	default:
		return fe.Error()
	}
}

package validator

import (
	"sync"

	ierr "github.com/finops/ffc-billing/internal/errors"
	"github.com/go-playground/validator/v10"
)

var (
	validate *validator.Validate
	once     sync.Once
)

func NewValidator() *validator.Validate {
	once.Do(func() {
		validate = validator.New()
	})
	return validate
}

func GetValidator() *validator.Validate {
	return NewValidator()
}

// ValidateRequest checks a payload received from a collaborator against its struct tags.
// Missing required fields surface as ErrValidation with one detail per field.
func ValidateRequest(req interface{}) error {
	if err := GetValidator().Struct(req); err != nil {
		details := make(map[string]any)
		var validateErrs validator.ValidationErrors
		if ierr.As(err, &validateErrs) {
			for _, err := range validateErrs {
				details[err.Namespace()] = err.Error()
			}
		}
		return ierr.WithError(err).
			WithHint("Payload validation failed").
			WithReportableDetails(details).
			Mark(ierr.ErrValidation)
	}
	return nil
}

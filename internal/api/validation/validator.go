package validation

import (
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var registerOnce sync.Once

// RegisterValidators registers custom validators
func RegisterValidators(v *validator.Validate) {
	v.RegisterValidation("looseemail", validateLooseEmail)
}

// RegisterGinValidators adds the custom validators to gin's binding engine.
// Safe to call more than once.
func RegisterGinValidators() {
	registerOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			RegisterValidators(v)
		}
	})
}

// IsLooseEmail accepts any value containing both "@" and ".". It is
// deliberately weaker than RFC 5322.
func IsLooseEmail(s string) bool {
	return strings.Contains(s, "@") && strings.Contains(s, ".")
}

func validateLooseEmail(fl validator.FieldLevel) bool {
	return IsLooseEmail(fl.Field().String())
}

// ValidationError represents a validation error
type ValidationError struct {
	Field string `json:"field"`
	Tag   string `json:"tag"`
	Value string `json:"value"`
}

// FormatValidationError formats validation errors into a user-friendly response
func FormatValidationError(err error) []ValidationError {
	var errors []ValidationError
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		for _, e := range validationErrors {
			errors = append(errors, ValidationError{
				Field: e.Field(),
				Tag:   e.Tag(),
				Value: e.Param(),
			})
		}
	}
	return errors
}

// HasTag reports whether any field failed the given validation tag.
func HasTag(errs []ValidationError, tag string) bool {
	for _, e := range errs {
		if e.Tag == tag {
			return true
		}
	}
	return false
}

package contextutils

import (
	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Reuse the binding tags gin enforces at the HTTP boundary so callers
	// that construct params directly (the CLI, tests) get the same checks.
	v.SetTagName("binding")
	return v
}

// ValidateStruct validates the binding tags on a request struct and returns
// an invalid-input error describing the first violation.
func ValidateStruct(s interface{}) error {
	if err := validate.Struct(s); err != nil {
		return WrapError(ErrInvalidInput, err.Error())
	}
	return nil
}

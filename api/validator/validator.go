// Package validator wraps go-playground/validator behind a small surface
// suited to request-body checks.
package validator

import (
	"github.com/go-playground/validator/v10"
)

// Validator validates structs and single values against validate tags.
type Validator struct {
	cli *validator.Validate
}

// ValidationError describes one failed field check.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// New returns a ready Validator.
func New() *Validator {
	return &Validator{
		cli: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// ValidateStruct checks every tagged field of s and returns one
// ValidationError per failure, or nil when s is valid.
func (v *Validator) ValidateStruct(s any) []ValidationError {
	if err := v.cli.Struct(s); err != nil {
		return formatError(err)
	}
	return nil
}

// Validate checks a single value against the given tag expression.
func (v *Validator) Validate(value any, tag string) []ValidationError {
	if err := v.cli.Var(value, tag); err != nil {
		return formatError(err)
	}
	return nil
}

func formatError(err error) []ValidationError {
	errs := make([]ValidationError, 0)
	for _, fe := range err.(validator.ValidationErrors) {
		errs = append(errs, ValidationError{
			Field:   fe.StructField(),
			Message: fe.Error(),
		})
	}
	return errs
}

package schema

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
)

// -----------------------------------------------------------------------------
// Validator interface
// -----------------------------------------------------------------------------

type Validator interface {
	Validate(ctx context.Context) error
}

// ValidatorFunc adapts a plain function to the Validator interface.
type ValidatorFunc func(ctx context.Context) error

func (f ValidatorFunc) Validate(ctx context.Context) error {
	return f(ctx)
}

// -----------------------------------------------------------------------------
// CompositeValidator
// -----------------------------------------------------------------------------

// CompositeValidator runs every validator in order and joins their errors
type CompositeValidator struct {
	validators []Validator
}

func NewCompositeValidator(validators ...Validator) *CompositeValidator {
	return &CompositeValidator{
		validators: validators,
	}
}

func (v *CompositeValidator) Validate(ctx context.Context) error {
	var errs []error
	for _, validator := range v.validators {
		if err := validator.Validate(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// -----------------------------------------------------------------------------
// StructValidator
// -----------------------------------------------------------------------------

type StructValidator struct {
	validate *validator.Validate
	value    any
}

// NewStructValidator validates value with validate, or with a fresh
// validator.Validate when validate is nil.
func NewStructValidator(validate *validator.Validate, value any) *StructValidator {
	if validate == nil {
		validate = validator.New()
	}
	return &StructValidator{
		validate: validate,
		value:    value,
	}
}

func (v *StructValidator) Validate(ctx context.Context) error {
	return v.validate.StructCtx(ctx, v.value)
}

func (v *StructValidator) RegisterValidation(tag string, fn validator.Func) error {
	return v.validate.RegisterValidation(tag, fn)
}

func (v *StructValidator) RegisterStructValidation(fn validator.StructLevelFunc, types ...any) {
	v.validate.RegisterStructValidation(fn, types...)
}

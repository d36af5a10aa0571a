package domain

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		validate.RegisterValidation("archetype", func(fl validator.FieldLevel) bool {
			return slices.Contains(Archetypes, fl.Field().String())
		})

		// palette requires the three mandatory color slots.
		validate.RegisterValidation("palette", func(fl validator.FieldLevel) bool {
			scheme, ok := fl.Field().Interface().(map[string]string)
			if !ok {
				return false
			}
			for _, slot := range []string{ColorPrimary, ColorSecondary, ColorAccent} {
				if scheme[slot] == "" {
					return false
				}
			}
			return true
		})
	})
	return validate
}

func isHexColor(c string) bool {
	return validatorInstance().Var(c, "hexcolor") == nil
}

// FieldError is a single failed constraint, flattened for callers that do
// not want to depend on the validator package.
type FieldError struct {
	Field string
	Rule  string
	Value any
}

func (e FieldError) String() string {
	return fmt.Sprintf("%s failed %q (value: %v)", e.Field, e.Rule, e.Value)
}

// SchemaError lists every constraint a value violated.
type SchemaError struct {
	Subject string
	Fields  []FieldError
}

func (e *SchemaError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.String())
	}
	return fmt.Sprintf("%s schema violation: %s", e.Subject, strings.Join(parts, "; "))
}

func schemaError(subject string, err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%s validation: %w", subject, err)
	}
	se := &SchemaError{Subject: subject}
	for _, fe := range verrs {
		se.Fields = append(se.Fields, FieldError{Field: fe.Namespace(), Rule: fe.Tag(), Value: fe.Value()})
	}
	return se
}

// ValidateRequest checks ingress bounds. Failures wrap ErrInvalidRequest.
func ValidateRequest(req BrandRequest) error {
	var err error
	switch r := req.(type) {
	case SimpleRequest:
		err = validatorInstance().Struct(r)
	case DetailedRequest:
		err = validatorInstance().Struct(r)
	default:
		return fmt.Errorf("%w: unsupported request type %T", ErrInvalidRequest, req)
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, schemaError("request", err))
	}
	return nil
}

// ValidateStrategy checks a normalized strategy against its schema.
func ValidateStrategy(s BrandStrategy) error {
	if err := validatorInstance().Struct(s); err != nil {
		return schemaError("strategy", err)
	}
	return nil
}

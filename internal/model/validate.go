package model

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrMissingField is wrapped by ValidationError when a required record
// field is absent.
var ErrMissingField = errors.New("missing required field")

// ValidationError identifies the record and field that failed validation.
type ValidationError struct {
	Index int
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("vacancy record %d: %s: %s", e.Index, ErrMissingField, e.Field)
}

func (e *ValidationError) Unwrap() error { return ErrMissingField }

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks that employer.id, employer.name, name and alternate_url
// are present.
func (r *VacancyRecord) Validate() error {
	return validateAt(r, 0)
}

// ValidateBatch validates every record and reports the first failure.
func ValidateBatch(records []VacancyRecord) error {
	for i := range records {
		if err := validateAt(&records[i], i); err != nil {
			return err
		}
	}
	return nil
}

func validateAt(r *VacancyRecord, index int) error {
	err := validate.Struct(r)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("validate vacancy record %d: %w", index, err)
	}

	// Namespace is "VacancyRecord.employer.id"; drop the type name.
	_, field, _ := strings.Cut(verrs[0].Namespace(), ".")
	return &ValidationError{Index: index, Field: field}
}

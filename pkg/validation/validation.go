// Package validation wires go-playground/validator for taskflow's
// entities and request types, and formats its failures for API clients.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/taskflow/taskflow/internal/core/board"
)

// Validate is the shared validator instance with taskflow's custom tags.
var Validate *validator.Validate

func init() {
	Validate = validator.New(validator.WithRequiredStructEnabled())

	mustRegister("milestone_kind", func(fl validator.FieldLevel) bool {
		return board.MilestoneKind(fl.Field().String()).Valid()
	})
	mustRegister("color_index", func(fl validator.FieldLevel) bool {
		i := fl.Field().Int()
		return i >= 0 && i < board.PaletteSize
	})
	mustRegister("icon_name", func(fl validator.FieldLevel) bool {
		return slices.Contains(board.Icons, fl.Field().String())
	})
	mustRegister("archive_kind", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return s == "stale" || s == "done"
	})

	// Report JSON names rather than Go field names.
	Validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		switch name {
		case "-":
			return ""
		case "":
			return fld.Name
		}
		return name
	})
}

func mustRegister(tag string, fn validator.Func) {
	if err := Validate.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("validation: register %s: %v", tag, err))
	}
}

// Validator is implemented by types with rules beyond struct tags.
type Validator interface {
	Validate() error
}

// ValidationError describes one failed rule.
type ValidationError struct {
	Field   string `json:"field"`
	Value   any    `json:"value,omitempty"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors collects every failed rule of one value.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// Struct checks v's validate tags and then, if v implements Validator,
// its Validate method. Tag failures come back as ValidationErrors.
func Struct(v any) error {
	if err := Validate.Struct(v); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			return format(fieldErrs)
		}
		return err
	}
	if val, ok := v.(Validator); ok {
		return val.Validate()
	}
	return nil
}

// Var checks a single value against a tag expression.
func Var(field string, v any, tag string) error {
	if err := Validate.Var(v, tag); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			out := format(fieldErrs)
			for i := range out {
				out[i].Field = field
			}
			return out
		}
		return err
	}
	return nil
}

func format(errs validator.ValidationErrors) ValidationErrors {
	out := make(ValidationErrors, 0, len(errs))
	for _, fe := range errs {
		out = append(out, ValidationError{
			Field:   fe.Field(),
			Value:   fe.Value(),
			Message: message(fe),
		})
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "field is required"
	case "min":
		return fmt.Sprintf("minimum value/length is %s", fe.Param())
	case "max":
		return fmt.Sprintf("maximum value/length is %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "uuid":
		return "must be a valid UUID"
	case "milestone_kind":
		return "must be monthly or weekly"
	case "color_index":
		return fmt.Sprintf("must be between 0 and %d", board.PaletteSize-1)
	case "icon_name":
		return "must be one of: " + strings.Join(board.Icons, ", ")
	case "archive_kind":
		return "must be stale or done"
	default:
		return fmt.Sprintf("validation failed: %s", fe.Tag())
	}
}

// Package validation runs the declarative schema check applied once to every operation input.
// Rules are expressed as `validate` struct tags; the custom "enum" tag delegates to the
// Validate method every domain enumeration implements.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"slaughterhouse/internal/pkg/errs"

	"github.com/go-playground/validator/v10"
)

var (
	once     sync.Once
	instance *validator.Validate
)

type selfValidating interface {
	Validate() error
}

func get() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "" || name == "-" {
				return f.Name
			}
			return name
		})
		if err := v.RegisterValidation("enum", isValidEnum); err != nil {
			panic(err)
		}
		instance = v
	})
	return instance
}

func isValidEnum(fl validator.FieldLevel) bool {
	field := fl.Field()
	if !field.CanInterface() {
		return false
	}
	v, ok := field.Interface().(selfValidating)
	return ok && v.Validate() == nil
}

// Struct validates s and reports every violated rule in a single ValueIsInvalidError for param.
func Struct(param string, s any) error {
	err := get().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return errs.NewValueIsInvalidErrorWithCause(param, err)
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, describe(fe))
	}
	return errs.NewValueIsInvalidErrorWithCause(param, errors.New(strings.Join(msgs, "; ")))
}

func describe(fe validator.FieldError) string {
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}

	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "enum":
		return fmt.Sprintf("%s has unknown value %v", field, fe.Value())
	case "gt", "gte", "lt", "lte", "min", "max":
		return fmt.Sprintf("%s must be %s %s", field, fe.Tag(), fe.Param())
	default:
		return fmt.Sprintf("%s failed %s", field, fe.Tag())
	}
}

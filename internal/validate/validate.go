// Package validate checks request and fixture structs against their
// `validate` tags and reports failures as bad-request errors.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	tx "github.com/gofhir/terminology"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report parameter names the way clients send them.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"param", "json", "mapstructure"} {
			name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
			if name != "" && name != "-" {
				return name
			}
		}
		return f.Name
	})
	return v
}

// Struct validates s. Tag violations become a single bad-request error.
func Struct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		msgs = append(msgs, formatFieldError(e))
	}
	return tx.BadRequest("%s", strings.Join(msgs, "; "))
}

func formatFieldError(e validator.FieldError) string {
	field := e.Field()

	switch e.Tag() {
	case "required":
		return fmt.Sprintf("parameter %q is required", field)
	case "required_without":
		return fmt.Sprintf("parameter %q is required when %q is absent", field, strings.ToLower(e.Param()))
	case "excluded_with":
		return fmt.Sprintf("parameter %q cannot be combined with %q", field, strings.ToLower(e.Param()))
	case "gte":
		return fmt.Sprintf("parameter %q must be >= %s", field, e.Param())
	case "oneof":
		return fmt.Sprintf("parameter %q must be one of: %s", field, e.Param())
	default:
		return fmt.Sprintf("parameter %q is invalid", field)
	}
}

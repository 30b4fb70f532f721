// Package validation checks struct field rules declared with `validate` tags
// and reports violations as apperr Validation errors.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"personapi/internal/apperr"
)

// phonePattern accepts an optional leading +, an optional parenthesized area code
// and digit groups separated by a single space, dot or hyphen.
var phonePattern = regexp.MustCompile(`^\+?\(?[0-9]{1,4}\)?([ .-]?[0-9]{1,4})*$`)

// Validator wraps a configured go-playground validator. It is safe for concurrent use.
type Validator struct {
	v *validator.Validate
}

// New returns a Validator that reports json field names and knows the "phone" tag.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// Registration only fails for an empty tag or nil func.
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	return &Validator{v: v}
}

// Struct validates s. Rule violations come back as an *apperr.Error of kind Validation
// listing every failing field; misuse (e.g. a non-struct argument) is returned unchanged.
func (val *Validator) Struct(s any) error {
	err := val.v.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return apperr.NewValidation(strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", field, fe.Param())
	case "email":
		return field + " must be a valid email address"
	case "phone":
		return field + " must be a valid phone number"
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}

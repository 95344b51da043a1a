package utils

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	// Mainland mobile numbers: 11 digits, second digit 3-9.
	mobileRegex   = regexp.MustCompile(`^1[3-9]\d{9}$`)
	passwordRegex = regexp.MustCompile(`^[0-9A-Za-z]{8,20}$`)
)

const (
	TagRequired = "required"
	TagMobile   = "cnmobile"
	TagPassword = "blogpwd"
	TagEqField  = "eqfield"
)

// ValidMobile reports whether s is an acceptable account mobile number.
func ValidMobile(s string) bool { return mobileRegex.MatchString(s) }

// ValidPassword reports whether s satisfies the 8-20 alphanumeric rule.
func ValidPassword(s string) bool { return passwordRegex.MatchString(s) }

// Validator wraps go-playground/validator with the account field rules.
// Field names in errors come from the `schema` form tag.
type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New()
	_ = v.RegisterValidation(TagMobile, func(fl validator.FieldLevel) bool {
		return ValidMobile(fl.Field().String())
	})
	_ = v.RegisterValidation(TagPassword, func(fl validator.FieldLevel) bool {
		return ValidPassword(fl.Field().String())
	})
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("schema"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Validator{validate: v}
}

// Validate returns the first failing rule as a *ValidationError. Missing
// fields are reported before malformed ones, then failures follow field order.
func (v *Validator) Validate(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) || len(errs) == 0 {
		return err
	}

	first := errs[0]
	for _, fe := range errs {
		if fe.Tag() == TagRequired {
			first = fe
			break
		}
	}
	return &ValidationError{
		Field:   first.Field(),
		Tag:     first.Tag(),
		Message: messageFor(first),
	}
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case TagRequired:
		return "missing required parameter: " + fe.Field()
	case TagMobile:
		return "please enter a valid mobile number"
	case TagPassword:
		return "password must be 8-20 letters or digits"
	case TagEqField:
		return "the two passwords do not match"
	default:
		return fe.Field() + " is invalid"
	}
}

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Tag     string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/mstgnz/paynow/infra/config"
	"github.com/mstgnz/paynow/provider/paynow"
)

var once sync.Once

// CustomValidate registers the custom tags on the shared validator
func CustomValidate() {
	once.Do(func() {
		v := config.App().Validator
		// json names in error output
		v.RegisterTagNameFunc(func(field reflect.StructField) string {
			name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return field.Name
			}
			return name
		})
		_ = paynow.RegisterValidations(v)
	})
}

// Struct validates s with the shared validator
func Struct(s any) error {
	CustomValidate()
	return config.App().Validator.Struct(s)
}

// Errors flattens validator errors into field -> message pairs.
// It returns nil for errors that did not come from the validator.
func Errors(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}

	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		out[fieldPath(fe)] = message(fe)
	}
	return out
}

// fieldPath drops the root struct name from the namespace
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "paynow_currency":
		return "must be one of PLN, EUR, USD, GBP"
	case "refund_reason":
		return "must be one of RMA, REFUND_BEFORE_14, REFUND_AFTER_14, OTHER"
	case "bcp47_language_tag":
		return "must be a language tag like pl-PL"
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

package paynow

import (
	"github.com/go-playground/validator/v10"
)

// RegisterValidations adds the paynow_currency and refund_reason tags to v
func RegisterValidations(v *validator.Validate) error {
	if err := v.RegisterValidation("paynow_currency", func(fl validator.FieldLevel) bool {
		_, err := ParseCurrency(fl.Field().String())
		return err == nil
	}); err != nil {
		return err
	}

	return v.RegisterValidation("refund_reason", func(fl validator.FieldLevel) bool {
		reason := RefundReason(fl.Field().String())
		for _, r := range RefundReasons {
			if r == reason {
				return true
			}
		}
		return false
	})
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// registration only fails for an empty tag or nil func
	_ = RegisterValidations(v)
	return v
}

package provider

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"
)

// ValidateConfigFields validates configuration against provided field definitions.
// Optional fields are checked only when present and non-empty.
func ValidateConfigFields(processorName string, config map[string]string, fields []ConfigField) error {
	for _, field := range fields {
		value, exists := config[field.Key]
		if field.Required {
			if !exists {
				return fmt.Errorf("%s: required field '%s' is missing", processorName, field.Key)
			}
			if strings.TrimSpace(value) == "" {
				return fmt.Errorf("%s: required field '%s' cannot be empty", processorName, field.Key)
			}
		} else if strings.TrimSpace(value) == "" {
			continue
		}

		if err := validateFieldType(processorName, field, value); err != nil {
			return err
		}

		if err := validateFieldPattern(processorName, field, value); err != nil {
			return err
		}

		if err := validateFieldLength(processorName, field, value); err != nil {
			return err
		}
	}

	return nil
}

// validateFieldType validates field based on its type
func validateFieldType(processorName string, field ConfigField, value string) error {
	switch field.Type {
	case "url":
		// URL templates keep their {payment_id} placeholder until payment creation
		u, err := url.Parse(ResolveURL(value, "placeholder"))
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%s: field '%s' must be an absolute URL", processorName, field.Key)
		}
	case "boolean":
		if value != "true" && value != "false" {
			return fmt.Errorf("%s: field '%s' must be 'true' or 'false'", processorName, field.Key)
		}
	case "duration":
		if d, err := time.ParseDuration(value); err != nil || d < 0 {
			return fmt.Errorf("%s: field '%s' must be a non-negative duration like 30s", processorName, field.Key)
		}
	}
	return nil
}

// validateFieldPattern validates field against regex pattern
func validateFieldPattern(processorName string, field ConfigField, value string) error {
	if field.Pattern == "" {
		return nil
	}

	matched, err := regexp.MatchString(field.Pattern, value)
	if err != nil {
		return fmt.Errorf("%s: invalid pattern for field '%s': %v", processorName, field.Key, err)
	}

	if !matched {
		return fmt.Errorf("%s: field '%s' does not match required pattern", processorName, field.Key)
	}

	return nil
}

// validateFieldLength validates field length constraints
func validateFieldLength(processorName string, field ConfigField, value string) error {
	if field.MinLength > 0 && len(value) < field.MinLength {
		return fmt.Errorf("%s: field '%s' must be at least %d characters", processorName, field.Key, field.MinLength)
	}

	if field.MaxLength > 0 && len(value) > field.MaxLength {
		return fmt.Errorf("%s: field '%s' must not exceed %d characters", processorName, field.Key, field.MaxLength)
	}

	return nil
}

package models

import (
	"fmt"
	"strings"
)

// ValidationError reports one rejected input field.
type ValidationError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func invalid(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func validateCurrency(code string) *ValidationError {
	if len(code) != 3 {
		return invalid("currency", "must be a 3-letter code")
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return invalid("currency", "must be a 3-letter code")
		}
	}
	return nil
}

// NormalizeCurrency upper-cases and trims a currency code.
func NormalizeCurrency(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

package core

import "strings"

// NormalizeCurrency trims and upper-cases a currency code
func NormalizeCurrency(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidateCurrency checks that code looks like an ISO-4217 code
func ValidateCurrency(code string) error {
	if len(code) != 3 {
		return &ValidationError{Field: "currency", Message: "must be a three letter ISO-4217 code"}
	}
	for i := 0; i < len(code); i++ {
		if code[i] < 'A' || code[i] > 'Z' {
			return &ValidationError{Field: "currency", Message: "must be a three letter ISO-4217 code"}
		}
	}
	return nil
}

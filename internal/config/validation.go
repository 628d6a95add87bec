package config

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// FieldError is one invalid setting.
type FieldError struct {
	Field  string
	Reason string
}

// ValidationErrors collects all validation errors
type ValidationErrors struct {
	Fields         []FieldError
	InvalidSymbols []string
	InvalidExpiry  string
}

func (e *ValidationErrors) add(field, reason string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Reason: reason})
}

// HasErrors returns true if any validation errors exist
func (e *ValidationErrors) HasErrors() bool {
	return len(e.Fields) > 0 || len(e.InvalidSymbols) > 0 || e.InvalidExpiry != ""
}

// Error formats all validation errors into a clear message
func (e *ValidationErrors) Error() string {
	var sb strings.Builder
	sb.WriteString("configuration validation failed:\n")

	if len(e.Fields) > 0 {
		sb.WriteString("\nInvalid settings:\n")
		for _, f := range e.Fields {
			sb.WriteString(fmt.Sprintf("  - %s: %s\n", f.Field, f.Reason))
		}
	}

	if len(e.InvalidSymbols) > 0 {
		sb.WriteString("\nInvalid symbols:\n")
		for _, s := range e.InvalidSymbols {
			sb.WriteString(fmt.Sprintf("  - %q\n", s))
		}
		sb.WriteString("\nSymbols are 1-10 characters: letters, digits, '.', '^' or '-'\n")
	}

	if e.InvalidExpiry != "" {
		sb.WriteString(fmt.Sprintf("\nInvalid expiry: %q (valid: all, nearest, YYYY-MM-DD)\n", e.InvalidExpiry))
	}

	return sb.String()
}

var symbolPattern = regexp.MustCompile(`^[A-Z0-9.^-]{1,10}$`)

// ValidateBatch validates symbols and the expiry selector of a batch run.
func ValidateBatch(symbols []string, expiry string) error {
	errs := &ValidationErrors{}
	validateBatch(errs, BatchConfig{Workers: 1, Symbols: symbols, Expiry: expiry})
	if errs.HasErrors() {
		return errs
	}
	return nil
}

func validateBatch(errs *ValidationErrors, b BatchConfig) {
	for _, s := range b.Symbols {
		if !symbolPattern.MatchString(strings.ToUpper(strings.TrimSpace(s))) {
			errs.InvalidSymbols = append(errs.InvalidSymbols, s)
		}
	}

	switch strings.ToLower(b.Expiry) {
	case "", ExpiryAll, ExpiryNearest:
	default:
		if _, err := time.Parse("2006-01-02", b.Expiry); err != nil {
			errs.InvalidExpiry = b.Expiry
		}
	}
}

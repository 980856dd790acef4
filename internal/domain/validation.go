package domain

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

const (
	// AccountNumberLength is the exact required length of an account number.
	AccountNumberLength = 15

	// MaxReferenceLength is the maximum length of a transaction reference.
	MaxReferenceLength = 200
)

// Decimal values accept an optional sign and at most 2 fractional digits,
// matching the NUMERIC(18,2) storage precision.
var decimalPattern = regexp.MustCompile(`^-?\d{1,18}(\.\d{1,2})?$`)

// ParseDecimal parses a monetary value from its wire representation.
// The format is validated before parsing so that precision overflows
// surface as input errors rather than silent rounding.
func ParseDecimal(value string) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return decimal.Zero, fmt.Errorf("value cannot be empty")
	}
	if !decimalPattern.MatchString(trimmed) {
		return decimal.Zero, fmt.Errorf("invalid decimal: must have at most 2 decimal places")
	}
	d, err := decimal.NewFromString(trimmed)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid decimal: %w", err)
	}
	return d, nil
}

// ValidateName validates an account display name.
func ValidateName(name string) error {
	if isBlank(name) {
		return &ValidationError{Field: "name", Message: "name is required"}
	}
	return nil
}

// ValidateAccountNumber validates that an account number is exactly
// AccountNumberLength characters.
func ValidateAccountNumber(number string) error {
	if isBlank(number) {
		return &ValidationError{Field: "accountNumber", Message: "account number is required"}
	}
	if utf8.RuneCountInString(number) != AccountNumberLength {
		return &ValidationError{
			Field:   "accountNumber",
			Message: fmt.Sprintf("account number must be exactly %d characters", AccountNumberLength),
		}
	}
	return nil
}

// ValidateReference validates a transaction reference.
func ValidateReference(reference string) error {
	if isBlank(reference) {
		return &ValidationError{Field: "reference", Message: "reference is required"}
	}
	if utf8.RuneCountInString(reference) > MaxReferenceLength {
		return &ValidationError{
			Field:   "reference",
			Message: fmt.Sprintf("reference must be at most %d characters", MaxReferenceLength),
		}
	}
	return nil
}

// ValidateType validates the credit/debit marker.
func ValidateType(txType string) error {
	if txType != string(TypeCredit) && txType != string(TypeDebit) {
		return &ValidationError{Field: "type", Message: "type must be C or D"}
	}
	return nil
}

// ValidateAmount parses and validates a transaction amount: a well-formed
// decimal, strictly greater than zero.
func ValidateAmount(value string) (decimal.Decimal, error) {
	amount, err := ParseDecimal(value)
	if err != nil {
		return decimal.Zero, &ValidationError{Field: "amount", Message: err.Error()}
	}
	if !amount.IsPositive() {
		return decimal.Zero, &ValidationError{Field: "amount", Message: "amount must be greater than 0"}
	}
	return amount, nil
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

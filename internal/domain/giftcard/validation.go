package giftcard

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ValidationError reports a field that failed validation at the edit boundary.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// Validate checks the invariants a card must satisfy before it is persisted.
func Validate(card *GiftCard) error {
	if strings.TrimSpace(card.StoreName) == "" {
		return &ValidationError{Field: "store name", Message: "must not be empty"}
	}
	if !card.Amount.IsPositive() {
		return &ValidationError{Field: "amount", Message: "must be greater than zero"}
	}
	if card.ExpiryDate.IsZero() {
		return &ValidationError{Field: "expiry date", Message: "must be set"}
	}
	return nil
}

// ParseAmount parses user-entered amount text. A comma is accepted as the
// decimal separator, so "12,5" parses as 12.5.
func ParseAmount(text string) (decimal.Decimal, error) {
	normalized := strings.ReplaceAll(strings.TrimSpace(text), ",", ".")
	normalized = strings.ReplaceAll(normalized, " ", "")
	if normalized == "" {
		return decimal.Zero, &ValidationError{Field: "amount", Message: "must not be empty"}
	}
	amount, err := decimal.NewFromString(normalized)
	if err != nil {
		return decimal.Zero, &ValidationError{Field: "amount", Message: fmt.Sprintf("%q is not a number", text)}
	}
	if !amount.IsPositive() {
		return decimal.Zero, &ValidationError{Field: "amount", Message: "must be greater than zero"}
	}
	return amount, nil
}

package giftcard

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// GiftCard is a single gift-card entry owned by one Telegram chat.
type GiftCard struct {
	ID         string
	OwnerID    int64 // Telegram chat ID of the owner
	StoreName  string
	Amount     decimal.Decimal
	ExpiryDate Date
	CreatedAt  time.Time
}

// New builds a validated card with a freshly assigned ID.
// The store name is trimmed before validation.
func New(ownerID int64, storeName string, amount decimal.Decimal, expiry Date) (*GiftCard, error) {
	card := &GiftCard{
		ID:         uuid.NewString(),
		OwnerID:    ownerID,
		StoreName:  strings.TrimSpace(storeName),
		Amount:     amount,
		ExpiryDate: expiry,
		CreatedAt:  time.Now(),
	}
	if err := Validate(card); err != nil {
		return nil, err
	}
	return card, nil
}

package giftcard

import (
	"context"
)

// Repository defines the operations for persisting and retrieving gift cards.
// All reads and deletes are scoped to a single owner.
type Repository interface {
	Add(ctx context.Context, card *GiftCard) error
	GetByID(ctx context.Context, ownerID int64, id string) (*GiftCard, error)
	Delete(ctx context.Context, ownerID int64, id string) error // No error if the card is absent
	// List returns the owner's cards ascending by expiry date, ties in insertion order.
	List(ctx context.Context, ownerID int64) ([]*GiftCard, error)
	ListAll(ctx context.Context) ([]*GiftCard, error) // For rescheduling on startup
}

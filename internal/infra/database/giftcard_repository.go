package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"giftcard_tracker_bot/internal/domain/giftcard"
)

// Custom errors
var ErrGiftCardNotFound = fmt.Errorf("gift card not found")
var ErrDuplicateGiftCardID = fmt.Errorf("gift card with this ID already exists")

const giftCardColumns = `id, owner_id, store_name, amount, expiry_date, created_at`

type GiftCardRepository struct {
	db      *sql.DB
	dialect Dialect
}

func NewGiftCardRepository(db *sql.DB, dialect Dialect) *GiftCardRepository {
	return &GiftCardRepository{db: db, dialect: dialect}
}

func (r *GiftCardRepository) Add(ctx context.Context, c *giftcard.GiftCard) error {
	query := r.dialect.Rebind(`INSERT INTO gift_cards (id, owner_id, store_name, amount, expiry_date, created_at)
               VALUES ($1, $2, $3, $4, $5, $6)`)

	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx, query, c.ID, c.OwnerID, c.StoreName, c.Amount, c.ExpiryDate, c.CreatedAt.Unix())
	if err != nil {
		// lib/pq reports "unique constraint", SQLite "UNIQUE constraint failed"
		if strings.Contains(strings.ToLower(err.Error()), "unique constraint") {
			return ErrDuplicateGiftCardID
		}
		return fmt.Errorf("error creating gift card: %w", err)
	}
	return nil
}

func (r *GiftCardRepository) GetByID(ctx context.Context, ownerID int64, id string) (*giftcard.GiftCard, error) {
	query := r.dialect.Rebind(`SELECT ` + giftCardColumns + `
               FROM gift_cards WHERE owner_id = $1 AND id = $2`)
	c, err := scanGiftCard(r.db.QueryRowContext(ctx, query, ownerID, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrGiftCardNotFound
		}
		return nil, fmt.Errorf("error getting gift card by ID: %w", err)
	}
	return c, nil
}

func (r *GiftCardRepository) Delete(ctx context.Context, ownerID int64, id string) error {
	query := r.dialect.Rebind(`DELETE FROM gift_cards WHERE owner_id = $1 AND id = $2`)
	if _, err := r.db.ExecContext(ctx, query, ownerID, id); err != nil {
		return fmt.Errorf("error deleting gift card: %w", err)
	}
	return nil
}

func (r *GiftCardRepository) List(ctx context.Context, ownerID int64) ([]*giftcard.GiftCard, error) {
	query := r.dialect.Rebind(`SELECT ` + giftCardColumns + `
               FROM gift_cards WHERE owner_id = $1 ORDER BY expiry_date ASC, seq ASC`)

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("error listing gift cards: %w", err)
	}
	defer rows.Close()
	return scanGiftCards(rows)
}

func (r *GiftCardRepository) ListAll(ctx context.Context) ([]*giftcard.GiftCard, error) {
	query := `SELECT ` + giftCardColumns + ` FROM gift_cards ORDER BY owner_id, expiry_date ASC, seq ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error listing all gift cards: %w", err)
	}
	defer rows.Close()
	return scanGiftCards(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGiftCard(row rowScanner) (*giftcard.GiftCard, error) {
	c := &giftcard.GiftCard{}
	var createdAt int64
	if err := row.Scan(&c.ID, &c.OwnerID, &c.StoreName, &c.Amount, &c.ExpiryDate, &createdAt); err != nil {
		return nil, err
	}
	c.CreatedAt = time.Unix(createdAt, 0)
	return c, nil
}

func scanGiftCards(rows *sql.Rows) ([]*giftcard.GiftCard, error) {
	cards := make([]*giftcard.GiftCard, 0)
	for rows.Next() {
		c, err := scanGiftCard(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning gift card row: %w", err)
		}
		cards = append(cards, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating gift card rows: %w", err)
	}
	return cards, nil
}

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"giftcard_tracker_bot/internal/domain/reminder"
)

type PermissionRepository struct {
	db      *sql.DB
	dialect Dialect
}

func NewPermissionRepository(db *sql.DB, dialect Dialect) *PermissionRepository {
	return &PermissionRepository{db: db, dialect: dialect}
}

func (r *PermissionRepository) Get(ctx context.Context, chatID int64) (reminder.PermissionStatus, error) {
	query := r.dialect.Rebind(`SELECT status FROM notification_permissions WHERE chat_id = $1`)
	var status reminder.PermissionStatus
	err := r.db.QueryRowContext(ctx, query, chatID).Scan(&status)
	if err != nil {
		if err == sql.ErrNoRows {
			return reminder.PermissionNotDetermined, nil
		}
		return "", fmt.Errorf("error getting notification permission: %w", err)
	}
	return status, nil
}

func (r *PermissionRepository) Set(ctx context.Context, chatID int64, status reminder.PermissionStatus) error {
	query := r.dialect.Rebind(`INSERT INTO notification_permissions (chat_id, status, updated_at)
               VALUES ($1, $2, $3)
               ON CONFLICT (chat_id) DO UPDATE SET status = excluded.status, updated_at = excluded.updated_at`)
	if _, err := r.db.ExecContext(ctx, query, chatID, status, time.Now().Unix()); err != nil {
		return fmt.Errorf("error setting notification permission: %w", err)
	}
	return nil
}

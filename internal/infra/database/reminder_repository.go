package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"giftcard_tracker_bot/internal/domain/reminder"

	"github.com/lib/pq" // For pq.Array
)

// Custom errors specific to reminder repository
var ErrReminderNotFound = fmt.Errorf("reminder not found")

const reminderColumns = `id, card_id, chat_id, offset_days, fire_at, title, body, status, attempts, last_error, sent_at, created_at, updated_at`

type ReminderRepository struct {
	db      *sql.DB
	dialect Dialect
}

func NewReminderRepository(db *sql.DB, dialect Dialect) *ReminderRepository {
	return &ReminderRepository{db: db, dialect: dialect}
}

func (r *ReminderRepository) Upsert(ctx context.Context, rem *reminder.Reminder) error {
	query := r.dialect.Rebind(`INSERT INTO reminders (id, card_id, chat_id, offset_days, fire_at, title, body, status, attempts, last_error, sent_at, created_at, updated_at)
               VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 0, NULL, NULL, $9, $10)
               ON CONFLICT (id) DO UPDATE SET
                   card_id = excluded.card_id, chat_id = excluded.chat_id, offset_days = excluded.offset_days,
                   fire_at = excluded.fire_at, title = excluded.title, body = excluded.body, status = excluded.status,
                   attempts = 0, last_error = NULL, sent_at = NULL, updated_at = excluded.updated_at`)

	now := time.Now()
	if rem.Status == "" {
		rem.Status = reminder.StatusPending
	}
	_, err := r.db.ExecContext(ctx, query,
		rem.ID, rem.CardID, rem.ChatID, rem.OffsetDays, rem.FireAt.Unix(), rem.Title, rem.Body, rem.Status,
		now.Unix(), now.Unix())
	if err != nil {
		return fmt.Errorf("error upserting reminder %s: %w", rem.ID, err)
	}
	rem.Attempts = 0
	rem.LastError = sql.NullString{}
	rem.SentAt = sql.NullTime{}
	rem.CreatedAt = time.Unix(now.Unix(), 0)
	rem.UpdatedAt = rem.CreatedAt
	return nil
}

func (r *ReminderRepository) DeletePending(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	var (
		res sql.Result
		err error
	)
	if r.dialect == DialectPostgres {
		query := `DELETE FROM reminders WHERE status = $1 AND id = ANY($2::text[])`
		res, err = r.db.ExecContext(ctx, query, reminder.StatusPending, pq.Array(ids))
	} else {
		// SQLite has no array parameters, so the id list is expanded.
		placeholders := make([]string, len(ids))
		args := make([]any, 0, len(ids)+1)
		args = append(args, reminder.StatusPending)
		for i, id := range ids {
			placeholders[i] = "?"
			args = append(args, id)
		}
		query := `DELETE FROM reminders WHERE status = ? AND id IN (` + strings.Join(placeholders, ", ") + `)`
		res, err = r.db.ExecContext(ctx, query, args...)
	}
	if err != nil {
		return 0, fmt.Errorf("error deleting pending reminders: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("error reading deleted reminder count: %w", err)
	}
	return n, nil
}

func (r *ReminderRepository) ListDue(ctx context.Context, now time.Time, limit int) ([]*reminder.Reminder, error) {
	query := r.dialect.Rebind(`SELECT ` + reminderColumns + `
               FROM reminders
               WHERE status = $1 AND fire_at <= $2
               ORDER BY fire_at ASC LIMIT $3`) // Oldest first
	rows, err := r.db.QueryContext(ctx, query, reminder.StatusPending, now.Unix(), limit)
	if err != nil {
		return nil, fmt.Errorf("error querying due reminders: %w", err)
	}
	defer rows.Close()
	return scanReminders(rows)
}

func (r *ReminderRepository) ListPendingByChat(ctx context.Context, chatID int64) ([]*reminder.Reminder, error) {
	query := r.dialect.Rebind(`SELECT ` + reminderColumns + `
               FROM reminders
               WHERE chat_id = $1 AND status = $2
               ORDER BY fire_at ASC`)
	rows, err := r.db.QueryContext(ctx, query, chatID, reminder.StatusPending)
	if err != nil {
		return nil, fmt.Errorf("error querying pending reminders by chat: %w", err)
	}
	defer rows.Close()
	return scanReminders(rows)
}

func (r *ReminderRepository) ListPendingByCard(ctx context.Context, cardID string) ([]*reminder.Reminder, error) {
	query := r.dialect.Rebind(`SELECT ` + reminderColumns + `
               FROM reminders
               WHERE card_id = $1 AND status = $2
               ORDER BY fire_at ASC`)
	rows, err := r.db.QueryContext(ctx, query, cardID, reminder.StatusPending)
	if err != nil {
		return nil, fmt.Errorf("error querying pending reminders by card: %w", err)
	}
	defer rows.Close()
	return scanReminders(rows)
}

func (r *ReminderRepository) Update(ctx context.Context, rem *reminder.Reminder) error {
	query := r.dialect.Rebind(`UPDATE reminders
               SET status = $1, attempts = $2, last_error = $3, sent_at = $4, updated_at = $5
               WHERE id = $6`)

	var sentAt sql.NullInt64
	if rem.SentAt.Valid {
		sentAt = sql.NullInt64{Int64: rem.SentAt.Time.Unix(), Valid: true}
	}
	now := time.Now()
	res, err := r.db.ExecContext(ctx, query, rem.Status, rem.Attempts, rem.LastError, sentAt, now.Unix(), rem.ID)
	if err != nil {
		return fmt.Errorf("error updating reminder %s: %w", rem.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error reading updated reminder count: %w", err)
	}
	if n == 0 {
		return ErrReminderNotFound
	}
	rem.UpdatedAt = time.Unix(now.Unix(), 0)
	return nil
}

func (r *ReminderRepository) PurgeFinished(ctx context.Context, before time.Time) (int64, error) {
	query := r.dialect.Rebind(`DELETE FROM reminders WHERE status <> $1 AND updated_at < $2`)
	res, err := r.db.ExecContext(ctx, query, reminder.StatusPending, before.Unix())
	if err != nil {
		return 0, fmt.Errorf("error purging finished reminders: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("error reading purged reminder count: %w", err)
	}
	return n, nil
}

// Helper to scan multiple rows
func scanReminders(rows *sql.Rows) ([]*reminder.Reminder, error) {
	reminders := make([]*reminder.Reminder, 0)
	for rows.Next() {
		rem := reminder.Reminder{}
		var fireAt, createdAt, updatedAt int64
		var sentAt sql.NullInt64
		if err := rows.Scan(
			&rem.ID, &rem.CardID, &rem.ChatID, &rem.OffsetDays, &fireAt, &rem.Title, &rem.Body,
			&rem.Status, &rem.Attempts, &rem.LastError, &sentAt, &createdAt, &updatedAt,
		); err != nil {
			return nil, fmt.Errorf("error scanning reminder row: %w", err)
		}
		rem.FireAt = time.Unix(fireAt, 0)
		rem.CreatedAt = time.Unix(createdAt, 0)
		rem.UpdatedAt = time.Unix(updatedAt, 0)
		if sentAt.Valid {
			rem.SentAt = sql.NullTime{Time: time.Unix(sentAt.Int64, 0), Valid: true}
		}
		reminders = append(reminders, &rem)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reminder rows: %w", err)
	}
	return reminders, nil
}

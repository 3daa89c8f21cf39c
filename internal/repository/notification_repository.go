package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/techmatch/techmatch-api/internal/models"
)

// NotificationRepository persists per-user notifications.
type NotificationRepository struct {
	db *sqlx.DB
}

// NewNotificationRepository constructs the repository.
func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create inserts a notification row.
func (r *NotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	const query = `INSERT INTO notifications (id, user_id, type, message, is_read, created_at)
	VALUES (:id, :user_id, :type, :message, :is_read, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, n); err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

// ListForUser returns a user's notifications, newest first.
func (r *NotificationRepository) ListForUser(ctx context.Context, userID string, unreadOnly bool, limit int) ([]models.Notification, error) {
	query := `SELECT id, user_id, type, message, is_read, read_at, created_at
	FROM notifications WHERE user_id = $1`
	if unreadOnly {
		query += ` AND is_read = FALSE`
	}
	query += ` ORDER BY created_at DESC, id DESC`
	args := []interface{}{userID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}
	var notifications []models.Notification
	if err := r.db.SelectContext(ctx, &notifications, query, args...); err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return notifications, nil
}

// CountUnread returns the number of unread notifications for a user.
func (r *NotificationRepository) CountUnread(ctx context.Context, userID string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND is_read = FALSE`, userID); err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return count, nil
}

// MarkRead flips a single notification owned by the user to read.
func (r *NotificationRepository) MarkRead(ctx context.Context, id, userID string, now time.Time) error {
	const query = `UPDATE notifications SET is_read = TRUE, read_at = $3
	WHERE id = $1 AND user_id = $2 AND is_read = FALSE`
	result, err := r.db.ExecContext(ctx, query, id, userID, now)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check notification update rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// MarkAllRead flips every unread notification for the user.
func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID string, now time.Time) error {
	const query = `UPDATE notifications SET is_read = TRUE, read_at = $2
	WHERE user_id = $1 AND is_read = FALSE`
	if _, err := r.db.ExecContext(ctx, query, userID, now); err != nil {
		return fmt.Errorf("mark all notifications read: %w", err)
	}
	return nil
}

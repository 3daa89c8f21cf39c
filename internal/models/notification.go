package models

import "time"

// NotificationType categorises inbox entries.
type NotificationType string

const (
	NotificationTypeVerification NotificationType = "VERIFICATION"
	NotificationTypeSkill        NotificationType = "SKILL"
	NotificationTypeJob          NotificationType = "JOB"
)

// Notification is an append-only inbox entry keyed by user.
type Notification struct {
	ID        string           `db:"id" json:"id"`
	UserID    string           `db:"user_id" json:"user_id"`
	Type      NotificationType `db:"type" json:"type"`
	Message   string           `db:"message" json:"message"`
	IsRead    bool             `db:"is_read" json:"is_read"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
	ReadAt    *time.Time       `db:"read_at" json:"read_at,omitempty"`
}

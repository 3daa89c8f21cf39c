package models

import "time"

// SkillStatus captures workflow states for per-skill credential review.
type SkillStatus string

const (
	SkillStatusPending  SkillStatus = "PENDING"
	SkillStatusApproved SkillStatus = "APPROVED"
	SkillStatusRejected SkillStatus = "REJECTED"
)

// SkillItem is a per-skill credential gate for technician accounts.
// Unlike verification requests there is no cooldown: a rejected skill may be
// resubmitted immediately, bounded only by the pending-count cap.
type SkillItem struct {
	ID              string      `db:"id" json:"id"`
	UserID          string      `db:"user_id" json:"user_id"`
	SkillName       string      `db:"skill_name" json:"skill_name"`
	Description     *string     `db:"description" json:"description,omitempty"`
	Status          SkillStatus `db:"status" json:"status"`
	CreatedAt       time.Time   `db:"created_at" json:"created_at"`
	ReviewedAt      *time.Time  `db:"reviewed_at" json:"reviewed_at,omitempty"`
	ReviewedBy      *string     `db:"reviewed_by" json:"reviewed_by,omitempty"`
	RejectionReason *string     `db:"rejection_reason" json:"rejection_reason,omitempty"`
}

// SkillQueueEntry joins a pending skill item with its owner's email for the
// admin review queue.
type SkillQueueEntry struct {
	SkillItem
	Email string `db:"email" json:"email"`
}

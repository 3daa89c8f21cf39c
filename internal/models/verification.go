package models

import "time"

// VerificationStatus captures workflow states for account verification.
type VerificationStatus string

const (
	VerificationStatusPending  VerificationStatus = "PENDING"
	VerificationStatusApproved VerificationStatus = "APPROVED"
	VerificationStatusRejected VerificationStatus = "REJECTED"
)

// VerificationRequest is the account-level identity gate. At most one
// request per user may be blocking at a time: PENDING, or REJECTED while
// the cooldown window is still open. History is retained, never rewritten.
type VerificationRequest struct {
	ID              string             `db:"id" json:"id"`
	UserID          string             `db:"user_id" json:"user_id"`
	UserRole        UserRole           `db:"user_role" json:"user_role"`
	Status          VerificationStatus `db:"status" json:"status"`
	SubmittedAt     time.Time          `db:"submitted_at" json:"submitted_at"`
	ReviewedAt      *time.Time         `db:"reviewed_at" json:"reviewed_at,omitempty"`
	ReviewedBy      *string            `db:"reviewed_by" json:"reviewed_by,omitempty"`
	RejectedAt      *time.Time         `db:"rejected_at" json:"rejected_at,omitempty"`
	RejectionReason *string            `db:"rejection_reason" json:"rejection_reason,omitempty"`
	CooldownUntil   *time.Time         `db:"cooldown_until" json:"cooldown_until,omitempty"`
}

// IsBlocking reports whether this request prevents a new submission at the
// given instant. The boundary is exclusive: at now == CooldownUntil the
// cooldown is over.
func (r *VerificationRequest) IsBlocking(now time.Time) bool {
	if r == nil {
		return false
	}
	switch r.Status {
	case VerificationStatusPending:
		return true
	case VerificationStatusRejected:
		return r.CooldownUntil != nil && now.Before(*r.CooldownUntil)
	default:
		return false
	}
}

// VerificationQueueEntry joins a request with its owner's email for the
// admin review queue.
type VerificationQueueEntry struct {
	VerificationRequest
	Email string `db:"email" json:"email"`
}

// FlagSeverity grades heuristic findings.
type FlagSeverity string

const (
	FlagSeverityLow    FlagSeverity = "LOW"
	FlagSeverityMedium FlagSeverity = "MEDIUM"
	FlagSeverityHigh   FlagSeverity = "HIGH"
)

// Flag types produced by the heuristic pass.
const (
	FlagTypeSuspiciousNameFormat = "SUSPICIOUS_NAME_FORMAT"
	FlagTypeLongSkillsList       = "UNUSUALLY_LONG_SKILLS_LIST"
	FlagTypeRepeatedPhrases      = "REPEATED_PHRASES"
)

// VerificationFlag is a write-once advisory finding attached to a request.
// Flags never block a transition; they only surface on the review screen.
type VerificationFlag struct {
	ID          string       `db:"id" json:"id"`
	RequestID   string       `db:"verification_request_id" json:"verification_request_id"`
	FlagType    string       `db:"flag_type" json:"flag_type"`
	Severity    FlagSeverity `db:"severity" json:"severity"`
	Description string       `db:"description" json:"description"`
	CreatedAt   time.Time    `db:"created_at" json:"created_at"`
}

// AdminAction is an append-only audit row for admin review decisions.
type AdminAction struct {
	ID         string    `db:"id" json:"id"`
	AdminID    string    `db:"admin_id" json:"admin_id"`
	ActionType string    `db:"action_type" json:"action_type"`
	TargetType string    `db:"target_type" json:"target_type"`
	TargetID   string    `db:"target_id" json:"target_id"`
	Notes      *string   `db:"notes" json:"notes,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// Admin action types.
const (
	ActionApproveVerification = "APPROVE_VERIFICATION"
	ActionRejectVerification  = "REJECT_VERIFICATION"
	ActionApproveSkill        = "APPROVE_SKILL"
	ActionRejectSkill         = "REJECT_SKILL"
)

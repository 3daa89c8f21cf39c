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

// VerificationRepository persists the account verification workflow.
type VerificationRepository struct {
	db *sqlx.DB
}

// NewVerificationRepository constructs the repository.
func NewVerificationRepository(db *sqlx.DB) *VerificationRepository {
	return &VerificationRepository{db: db}
}

const verificationColumns = `id, user_id, user_role, status, submitted_at, reviewed_at, reviewed_by, rejected_at, rejection_reason, cooldown_until`

// CreateWithDocuments inserts a new PENDING request together with its
// heuristic flags and validated documents in one transaction, so a failure
// on any row leaves no partial submission behind.
func (r *VerificationRepository) CreateWithDocuments(ctx context.Context, request *models.VerificationRequest, flags []models.VerificationFlag, docs []models.Document) error {
	if request.ID == "" {
		request.ID = uuid.NewString()
	}
	if request.Status == "" {
		request.Status = models.VerificationStatusPending
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin verification submit: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const insertRequest = `INSERT INTO verification_requests
	(id, user_id, user_role, status, submitted_at)
	VALUES (:id, :user_id, :user_role, :status, :submitted_at)`
	if _, err := tx.NamedExecContext(ctx, insertRequest, request); err != nil {
		return fmt.Errorf("create verification request: %w", err)
	}

	const insertFlag = `INSERT INTO verification_flags
	(id, verification_request_id, flag_type, severity, description, created_at)
	VALUES (:id, :verification_request_id, :flag_type, :severity, :description, :created_at)`
	for i := range flags {
		if flags[i].ID == "" {
			flags[i].ID = uuid.NewString()
		}
		flags[i].RequestID = request.ID
		if flags[i].CreatedAt.IsZero() {
			flags[i].CreatedAt = request.SubmittedAt
		}
		if _, err := tx.NamedExecContext(ctx, insertFlag, flags[i]); err != nil {
			return fmt.Errorf("create verification flag: %w", err)
		}
	}

	for i := range docs {
		if docs[i].ID == "" {
			docs[i].ID = uuid.NewString()
		}
		docs[i].VerificationRequestID = &request.ID
		if _, err := tx.NamedExecContext(ctx, insertDocument, docs[i]); err != nil {
			return fmt.Errorf("create verification document: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit verification submit: %w", err)
	}
	return nil
}

// LatestForUser returns the most recently submitted request for an account,
// breaking ties by id.
func (r *VerificationRepository) LatestForUser(ctx context.Context, userID string) (*models.VerificationRequest, error) {
	query := `SELECT ` + verificationColumns + ` FROM verification_requests
	WHERE user_id = $1 ORDER BY submitted_at DESC, id DESC LIMIT 1`
	var request models.VerificationRequest
	if err := r.db.GetContext(ctx, &request, query, userID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("latest verification request: %w", err)
	}
	return &request, nil
}

// GetByID fetches a request by identifier.
func (r *VerificationRepository) GetByID(ctx context.Context, id string) (*models.VerificationRequest, error) {
	query := `SELECT ` + verificationColumns + ` FROM verification_requests WHERE id = $1`
	var request models.VerificationRequest
	if err := r.db.GetContext(ctx, &request, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get verification request: %w", err)
	}
	return &request, nil
}

// ListByStatus returns requests in the given status joined with the owner's
// email for the admin queue. PENDING sorts oldest first; reviewed statuses
// sort by most recent decision.
func (r *VerificationRepository) ListByStatus(ctx context.Context, status models.VerificationStatus) ([]models.VerificationQueueEntry, error) {
	order := "ORDER BY COALESCE(vr.reviewed_at, vr.submitted_at) DESC, vr.id DESC"
	if status == models.VerificationStatusPending {
		order = "ORDER BY vr.submitted_at ASC, vr.id ASC"
	}
	query := fmt.Sprintf(`SELECT vr.id, vr.user_id, vr.user_role, vr.status, vr.submitted_at, vr.reviewed_at,
	vr.reviewed_by, vr.rejected_at, vr.rejection_reason, vr.cooldown_until, u.email
	FROM verification_requests vr
	JOIN users u ON u.id = vr.user_id
	WHERE vr.status = $1 %s`, order)
	var entries []models.VerificationQueueEntry
	if err := r.db.SelectContext(ctx, &entries, query, status); err != nil {
		return nil, fmt.Errorf("list verification requests: %w", err)
	}
	return entries, nil
}

// CountByStatus counts requests in a given status.
func (r *VerificationRepository) CountByStatus(ctx context.Context, status models.VerificationStatus) (int, error) {
	const query = `SELECT COUNT(1) FROM verification_requests WHERE status = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, status); err != nil {
		return 0, fmt.Errorf("count verification requests: %w", err)
	}
	return count, nil
}

// Approve transitions a PENDING request to APPROVED, flips the owner's
// verified cache, and records the admin action, all in one transaction.
// Returns sql.ErrNoRows when the request was not PENDING, which is the
// mechanism that serialises concurrent reviews of the same request.
func (r *VerificationRepository) Approve(ctx context.Context, requestID, adminID string, now time.Time) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin verification approve: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const update = `UPDATE verification_requests
	SET status = 'APPROVED', reviewed_at = $2, reviewed_by = $3
	WHERE id = $1 AND status = 'PENDING'`
	result, err := tx.ExecContext(ctx, update, requestID, now, adminID)
	if err != nil {
		return fmt.Errorf("approve verification request: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check approve rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}

	const markVerified = `UPDATE users SET verified = TRUE, updated_at = $2
	WHERE id = (SELECT user_id FROM verification_requests WHERE id = $1)`
	if _, err := tx.ExecContext(ctx, markVerified, requestID, now); err != nil {
		return fmt.Errorf("mark user verified: %w", err)
	}

	if err := insertAdminAction(ctx, tx, adminID, models.ActionApproveVerification, "verification_request", requestID, nil, now); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit verification approve: %w", err)
	}
	return nil
}

// Reject transitions a PENDING request to REJECTED with a cooldown window,
// clears the owner's verified cache, and records the admin action.
func (r *VerificationRepository) Reject(ctx context.Context, requestID, adminID, reason string, now, cooldownUntil time.Time) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin verification reject: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const update = `UPDATE verification_requests
	SET status = 'REJECTED', reviewed_at = $2, reviewed_by = $3, rejection_reason = $4, rejected_at = $2, cooldown_until = $5
	WHERE id = $1 AND status = 'PENDING'`
	result, err := tx.ExecContext(ctx, update, requestID, now, adminID, reason, cooldownUntil)
	if err != nil {
		return fmt.Errorf("reject verification request: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check reject rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}

	const clearVerified = `UPDATE users SET verified = FALSE, updated_at = $2
	WHERE id = (SELECT user_id FROM verification_requests WHERE id = $1)`
	if _, err := tx.ExecContext(ctx, clearVerified, requestID, now); err != nil {
		return fmt.Errorf("clear user verified: %w", err)
	}

	if err := insertAdminAction(ctx, tx, adminID, models.ActionRejectVerification, "verification_request", requestID, &reason, now); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit verification reject: %w", err)
	}
	return nil
}

// ListFlags returns the heuristic findings for a request, newest first.
func (r *VerificationRepository) ListFlags(ctx context.Context, requestID string) ([]models.VerificationFlag, error) {
	const query = `SELECT id, verification_request_id, flag_type, severity, description, created_at
	FROM verification_flags WHERE verification_request_id = $1 ORDER BY created_at DESC, id DESC`
	var flags []models.VerificationFlag
	if err := r.db.SelectContext(ctx, &flags, query, requestID); err != nil {
		return nil, fmt.Errorf("list verification flags: %w", err)
	}
	return flags, nil
}

func insertAdminAction(ctx context.Context, tx *sqlx.Tx, adminID, actionType, targetType, targetID string, notes *string, now time.Time) error {
	const query = `INSERT INTO admin_actions (id, admin_id, action_type, target_type, target_id, notes, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)`
	if _, err := tx.ExecContext(ctx, query, uuid.NewString(), adminID, actionType, targetType, targetID, notes, now); err != nil {
		return fmt.Errorf("record admin action: %w", err)
	}
	return nil
}

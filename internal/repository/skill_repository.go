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

// SkillRepository persists technician skill items and their review state.
type SkillRepository struct {
	db *sqlx.DB
}

// NewSkillRepository constructs the repository.
func NewSkillRepository(db *sqlx.DB) *SkillRepository {
	return &SkillRepository{db: db}
}

const skillColumns = `id, user_id, skill_name, description, status, created_at, reviewed_at, reviewed_by, rejection_reason`

// CreateWithDocuments inserts a new PENDING skill item with its certificate
// documents in one transaction.
func (r *SkillRepository) CreateWithDocuments(ctx context.Context, item *models.SkillItem, docs []models.Document) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.Status == "" {
		item.Status = models.SkillStatusPending
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin skill submit: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const insertItem = `INSERT INTO skill_items (id, user_id, skill_name, description, status, created_at)
	VALUES (:id, :user_id, :skill_name, :description, :status, :created_at)`
	if _, err := tx.NamedExecContext(ctx, insertItem, item); err != nil {
		return fmt.Errorf("create skill item: %w", err)
	}

	for i := range docs {
		if docs[i].ID == "" {
			docs[i].ID = uuid.NewString()
		}
		docs[i].SkillItemID = &item.ID
		if _, err := tx.NamedExecContext(ctx, insertDocument, docs[i]); err != nil {
			return fmt.Errorf("create skill document: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit skill submit: %w", err)
	}
	return nil
}

// CountPendingForUser counts the user's skill items still awaiting review.
func (r *SkillRepository) CountPendingForUser(ctx context.Context, userID string) (int, error) {
	const query = `SELECT COUNT(1) FROM skill_items WHERE user_id = $1 AND status = 'PENDING'`
	var count int
	if err := r.db.GetContext(ctx, &count, query, userID); err != nil {
		return 0, fmt.Errorf("count pending skills: %w", err)
	}
	return count, nil
}

// ListForUser returns all skill items belonging to a technician.
func (r *SkillRepository) ListForUser(ctx context.Context, userID string) ([]models.SkillItem, error) {
	query := `SELECT ` + skillColumns + ` FROM skill_items WHERE user_id = $1 ORDER BY created_at DESC, id DESC`
	var items []models.SkillItem
	if err := r.db.SelectContext(ctx, &items, query, userID); err != nil {
		return nil, fmt.Errorf("list user skills: %w", err)
	}
	return items, nil
}

// ListApprovedNamesForUser returns the names of the user's APPROVED skills.
func (r *SkillRepository) ListApprovedNamesForUser(ctx context.Context, userID string) ([]string, error) {
	const query = `SELECT skill_name FROM skill_items WHERE user_id = $1 AND status = 'APPROVED' ORDER BY skill_name`
	var names []string
	if err := r.db.SelectContext(ctx, &names, query, userID); err != nil {
		return nil, fmt.Errorf("list approved skills: %w", err)
	}
	return names, nil
}

// GetByID fetches a skill item by identifier.
func (r *SkillRepository) GetByID(ctx context.Context, id string) (*models.SkillItem, error) {
	query := `SELECT ` + skillColumns + ` FROM skill_items WHERE id = $1`
	var item models.SkillItem
	if err := r.db.GetContext(ctx, &item, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get skill item: %w", err)
	}
	return &item, nil
}

// ListPending returns every PENDING skill item joined with the owner's
// email, oldest first.
func (r *SkillRepository) ListPending(ctx context.Context) ([]models.SkillQueueEntry, error) {
	const query = `SELECT s.id, s.user_id, s.skill_name, s.description, s.status, s.created_at,
	s.reviewed_at, s.reviewed_by, s.rejection_reason, u.email
	FROM skill_items s
	JOIN users u ON u.id = s.user_id
	WHERE s.status = 'PENDING'
	ORDER BY s.created_at ASC, s.id ASC`
	var entries []models.SkillQueueEntry
	if err := r.db.SelectContext(ctx, &entries, query); err != nil {
		return nil, fmt.Errorf("list pending skills: %w", err)
	}
	return entries, nil
}

// Approve transitions a PENDING skill item to APPROVED and records the
// admin action. Returns sql.ErrNoRows when the item was not PENDING.
func (r *SkillRepository) Approve(ctx context.Context, skillID, adminID string, now time.Time) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin skill approve: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const update = `UPDATE skill_items
	SET status = 'APPROVED', reviewed_at = $2, reviewed_by = $3, rejection_reason = NULL
	WHERE id = $1 AND status = 'PENDING'`
	result, err := tx.ExecContext(ctx, update, skillID, now, adminID)
	if err != nil {
		return fmt.Errorf("approve skill item: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check skill approve rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}

	if err := insertAdminAction(ctx, tx, adminID, models.ActionApproveSkill, "skill_item", skillID, nil, now); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit skill approve: %w", err)
	}
	return nil
}

// Reject transitions a PENDING skill item to REJECTED with a reason.
// There is no cooldown; the technician may resubmit immediately.
func (r *SkillRepository) Reject(ctx context.Context, skillID, adminID, reason string, now time.Time) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin skill reject: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const update = `UPDATE skill_items
	SET status = 'REJECTED', rejection_reason = $4, reviewed_at = $2, reviewed_by = $3
	WHERE id = $1 AND status = 'PENDING'`
	result, err := tx.ExecContext(ctx, update, skillID, now, adminID, reason)
	if err != nil {
		return fmt.Errorf("reject skill item: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check skill reject rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}

	if err := insertAdminAction(ctx, tx, adminID, models.ActionRejectSkill, "skill_item", skillID, &reason, now); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit skill reject: %w", err)
	}
	return nil
}

package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/techmatch/techmatch-api/internal/models"
)

const insertDocument = `INSERT INTO documents
	(id, verification_request_id, skill_item_id, uploaded_by, document_type, original_name, stored_name, extension, size_bytes, uploaded_at)
	VALUES (:id, :verification_request_id, :skill_item_id, :uploaded_by, :document_type, :original_name, :stored_name, :extension, :size_bytes, :uploaded_at)`

const documentColumns = `id, verification_request_id, skill_item_id, uploaded_by, document_type, original_name, stored_name, extension, size_bytes, uploaded_at`

// DocumentRepository reads uploaded document metadata. Writes happen inside
// the verification and skill submission transactions.
type DocumentRepository struct {
	db *sqlx.DB
}

// NewDocumentRepository constructs the repository.
func NewDocumentRepository(db *sqlx.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// ListForRequest returns the documents bound to one verification request.
func (r *DocumentRepository) ListForRequest(ctx context.Context, requestID string) ([]models.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE verification_request_id = $1 ORDER BY uploaded_at DESC, id DESC`
	var docs []models.Document
	if err := r.db.SelectContext(ctx, &docs, query, requestID); err != nil {
		return nil, fmt.Errorf("list request documents: %w", err)
	}
	return docs, nil
}

// ListForSkillItem returns the certificate documents for one skill item.
func (r *DocumentRepository) ListForSkillItem(ctx context.Context, skillItemID string) ([]models.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE skill_item_id = $1 ORDER BY uploaded_at DESC, id DESC`
	var docs []models.Document
	if err := r.db.SelectContext(ctx, &docs, query, skillItemID); err != nil {
		return nil, fmt.Errorf("list skill documents: %w", err)
	}
	return docs, nil
}

// ListForUser returns every document uploaded by the user, newest first.
func (r *DocumentRepository) ListForUser(ctx context.Context, userID string) ([]models.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE uploaded_by = $1 ORDER BY uploaded_at DESC, id DESC`
	var docs []models.Document
	if err := r.db.SelectContext(ctx, &docs, query, userID); err != nil {
		return nil, fmt.Errorf("list user documents: %w", err)
	}
	return docs, nil
}

// GetByID fetches one document.
func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*models.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE id = $1`
	var doc models.Document
	if err := r.db.GetContext(ctx, &doc, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get document: %w", err)
	}
	return &doc, nil
}

package service

import (
	"context"
	"database/sql"
	"errors"
	"os"

	"go.uber.org/zap"

	"github.com/techmatch/techmatch-api/internal/models"
	appErrors "github.com/techmatch/techmatch-api/pkg/errors"
)

type documentRepository interface {
	GetByID(ctx context.Context, id string) (*models.Document, error)
	ListForUser(ctx context.Context, userID string) ([]models.Document, error)
}

type documentOpener interface {
	Open(filename string) (*os.File, error)
}

// DocumentService serves stored document blobs with ownership checks.
type DocumentService struct {
	repo    documentRepository
	storage documentOpener
	logger  *zap.Logger
}

// NewDocumentService constructs the service.
func NewDocumentService(repo documentRepository, storage documentOpener, logger *zap.Logger) *DocumentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DocumentService{repo: repo, storage: storage, logger: logger}
}

// Open returns the metadata and an open handle for a document. Admins may
// read any document; everyone else only their own uploads.
func (s *DocumentService) Open(ctx context.Context, documentID string, caller *models.JWTClaims) (*models.Document, *os.File, error) {
	doc, err := s.repo.GetByID(ctx, documentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "document not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load document")
	}

	if caller.Role != models.RoleAdmin && doc.UploadedBy != caller.UserID {
		return nil, nil, appErrors.Clone(appErrors.ErrForbidden, "you do not have access to this document")
	}

	file, err := s.storage.Open(doc.StoredName)
	if err != nil {
		s.logger.Error("stored document missing", zap.String("document_id", doc.ID), zap.Error(err))
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open document")
	}
	return doc, file, nil
}

// ListMine returns the caller's uploaded documents, newest first.
func (s *DocumentService) ListMine(ctx context.Context, userID string) ([]models.Document, error) {
	docs, err := s.repo.ListForUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list documents")
	}
	return docs, nil
}

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/techmatch/techmatch-api/internal/dto"
	"github.com/techmatch/techmatch-api/internal/models"
	"github.com/techmatch/techmatch-api/pkg/clock"
	appErrors "github.com/techmatch/techmatch-api/pkg/errors"
)

type verificationRepository interface {
	CreateWithDocuments(ctx context.Context, request *models.VerificationRequest, flags []models.VerificationFlag, docs []models.Document) error
	LatestForUser(ctx context.Context, userID string) (*models.VerificationRequest, error)
	GetByID(ctx context.Context, id string) (*models.VerificationRequest, error)
	ListByStatus(ctx context.Context, status models.VerificationStatus) ([]models.VerificationQueueEntry, error)
	CountByStatus(ctx context.Context, status models.VerificationStatus) (int, error)
	Approve(ctx context.Context, requestID, adminID string, now time.Time) error
	Reject(ctx context.Context, requestID, adminID, reason string, now, cooldownUntil time.Time) error
	ListFlags(ctx context.Context, requestID string) ([]models.VerificationFlag, error)
}

type verificationUserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	UpsertTechnicianProfile(ctx context.Context, profile *models.TechnicianProfile) error
	UpsertBusinessProfile(ctx context.Context, profile *models.BusinessProfile) error
}

type verificationDocumentRepository interface {
	ListForRequest(ctx context.Context, requestID string) ([]models.Document, error)
}

type documentStorage interface {
	Save(filename string, data []byte) (string, error)
	Delete(filename string) error
}

type notifier interface {
	NotifyUser(ctx context.Context, userID string, ntype models.NotificationType, message string)
	NotifyAdmins(ctx context.Context, ntype models.NotificationType, message string)
}

// VerificationConfig tunes the verification workflow.
type VerificationServiceConfig struct {
	DefaultCooldown time.Duration
}

// VerificationService implements the account verification workflow:
// self-service submission, admin review, and the status view that the
// access gates consult.
type VerificationService struct {
	repo    verificationRepository
	users   verificationUserRepository
	docs    verificationDocumentRepository
	storage documentStorage
	policy  DocumentPolicy
	notify  notifier
	clock   clock.Clock
	logger  *zap.Logger
	metrics *MetricsService
	config  VerificationServiceConfig
}

// NewVerificationService constructs the service.
func NewVerificationService(
	repo verificationRepository,
	users verificationUserRepository,
	docs verificationDocumentRepository,
	storage documentStorage,
	policy DocumentPolicy,
	notify notifier,
	clk clock.Clock,
	logger *zap.Logger,
	metrics *MetricsService,
	config VerificationServiceConfig,
) *VerificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clk == nil {
		clk = clock.System()
	}
	return &VerificationService{
		repo:    repo,
		users:   users,
		docs:    docs,
		storage: storage,
		policy:  policy,
		notify:  notify,
		clock:   clk,
		logger:  logger,
		metrics: metrics,
		config:  config,
	}
}

// Submit creates a new PENDING request for the user. One active request is
// allowed at a time: a PENDING request or a REJECTED one still inside its
// cooldown window blocks resubmission. All uploads are validated before
// any file or row is written.
func (s *VerificationService) Submit(ctx context.Context, userID string, req dto.SubmitVerificationRequest, uploads []dto.DocumentUpload) (*models.VerificationRequest, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	if user.Role != models.RoleTechnician && user.Role != models.RoleBusiness {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only technician and business accounts submit verification")
	}

	if strings.TrimSpace(req.DisplayName) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "display name is required")
	}
	if err := s.policy.Validate(uploads); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	latest, err := s.repo.LatestForUser(ctx, userID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load latest request")
	}
	if latest != nil {
		if latest.Status == models.VerificationStatusPending {
			return nil, appErrors.Clone(appErrors.ErrConflict, "you already have a pending verification request")
		}
		if latest.Status == models.VerificationStatusRejected && latest.IsBlocking(now) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "you are on cooldown after a rejection, please wait before resubmitting")
		}
	}

	if err := s.upsertProfile(ctx, user, req); err != nil {
		return nil, err
	}

	flags := computeNameFlags(req.DisplayName)
	if user.Role == models.RoleTechnician {
		flags = append(flags, computeTechnicianFlags(req.Skills)...)
	}

	docs, stored, err := s.storeUploads(userID, uploads, now)
	if err != nil {
		return nil, err
	}

	request := &models.VerificationRequest{
		UserID:      userID,
		UserRole:    user.Role,
		Status:      models.VerificationStatusPending,
		SubmittedAt: now,
	}
	if err := s.repo.CreateWithDocuments(ctx, request, flags, docs); err != nil {
		s.removeStored(stored)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create verification request")
	}

	s.notify.NotifyAdmins(ctx, models.NotificationTypeVerification,
		fmt.Sprintf("%s submitted a verification request.", user.Email))

	return request, nil
}

// Approve flips a PENDING request to APPROVED and marks the owner verified.
func (s *VerificationService) Approve(ctx context.Context, requestID, adminID string) error {
	now := s.clock.Now()
	if err := s.repo.Approve(ctx, requestID, adminID, now); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return s.reviewStateError(ctx, requestID, "approval")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to approve verification request")
	}

	s.metrics.RecordReviewDecision("verification", string(models.VerificationStatusApproved))
	if request, err := s.repo.GetByID(ctx, requestID); err == nil {
		s.notify.NotifyUser(ctx, request.UserID, models.NotificationTypeVerification,
			"Your account verification has been approved.")
	}
	return nil
}

// Reject flips a PENDING request to REJECTED and opens a cooldown window.
// A reason is mandatory; a zero cooldown falls back to the configured
// default.
func (s *VerificationService) Reject(ctx context.Context, requestID, adminID string, req dto.ReviewVerificationRequest) error {
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return appErrors.Clone(appErrors.ErrValidation, "rejection reason is required")
	}
	cooldown := time.Duration(req.CooldownSeconds) * time.Second
	if cooldown <= 0 {
		cooldown = s.config.DefaultCooldown
	}

	now := s.clock.Now()
	if err := s.repo.Reject(ctx, requestID, adminID, reason, now, now.Add(cooldown)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return s.reviewStateError(ctx, requestID, "rejection")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reject verification request")
	}

	s.metrics.RecordReviewDecision("verification", string(models.VerificationStatusRejected))
	if request, err := s.repo.GetByID(ctx, requestID); err == nil {
		s.notify.NotifyUser(ctx, request.UserID, models.NotificationTypeVerification,
			fmt.Sprintf("Your verification was rejected: %s", reason))
	}
	return nil
}

// StatusFor reports the caller's latest request and whether it currently
// blocks resubmission.
func (s *VerificationService) StatusFor(ctx context.Context, userID string) (*dto.VerificationStatusView, error) {
	latest, err := s.repo.LatestForUser(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &dto.VerificationStatusView{Blocking: false, CanApply: true}, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load verification status")
	}
	blocking := latest.IsBlocking(s.clock.Now())
	return &dto.VerificationStatusView{
		Request:  latest,
		Blocking: blocking,
		CanApply: !blocking,
	}, nil
}

// LatestFor returns the caller's most recent request, nil when none exists.
func (s *VerificationService) LatestFor(ctx context.Context, userID string) (*models.VerificationRequest, error) {
	latest, err := s.repo.LatestForUser(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load latest request")
	}
	return latest, nil
}

// Detail assembles a request with its flags and documents for review.
func (s *VerificationService) Detail(ctx context.Context, requestID string) (*dto.VerificationDetail, error) {
	request, err := s.repo.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "verification request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load verification request")
	}

	flags, err := s.repo.ListFlags(ctx, requestID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load flags")
	}
	docs, err := s.docs.ListForRequest(ctx, requestID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load documents")
	}

	return &dto.VerificationDetail{Request: *request, Flags: flags, Documents: docs}, nil
}

// Queue lists requests in the given status for the admin dashboard.
func (s *VerificationService) Queue(ctx context.Context, status models.VerificationStatus) ([]models.VerificationQueueEntry, error) {
	entries, err := s.repo.ListByStatus(ctx, status)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list verification requests")
	}
	return entries, nil
}

// CountByStatus counts requests in a status for dashboard badges.
func (s *VerificationService) CountByStatus(ctx context.Context, status models.VerificationStatus) (int, error) {
	count, err := s.repo.CountByStatus(ctx, status)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count verification requests")
	}
	return count, nil
}

func (s *VerificationService) upsertProfile(ctx context.Context, user *models.User, req dto.SubmitVerificationRequest) error {
	switch user.Role {
	case models.RoleTechnician:
		profile := &models.TechnicianProfile{
			UserID:   user.ID,
			FullName: strings.TrimSpace(req.DisplayName),
			Skills:   req.Skills,
		}
		if err := s.users.UpsertTechnicianProfile(ctx, profile); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save technician profile")
		}
	case models.RoleBusiness:
		profile := &models.BusinessProfile{
			UserID:      user.ID,
			CompanyName: strings.TrimSpace(req.DisplayName),
		}
		if err := s.users.UpsertBusinessProfile(ctx, profile); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save business profile")
		}
	}
	return nil
}

// storeUploads writes every validated file to storage and returns the
// document rows to insert plus the stored names for cleanup on failure.
func (s *VerificationService) storeUploads(userID string, uploads []dto.DocumentUpload, now time.Time) ([]models.Document, []string, error) {
	docs := make([]models.Document, 0, len(uploads))
	stored := make([]string, 0, len(uploads))
	for _, upload := range uploads {
		name := storedName(upload.Filename)
		if _, err := s.storage.Save(name, upload.Content); err != nil {
			s.removeStored(stored)
			return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store document")
		}
		stored = append(stored, name)
		docs = append(docs, models.Document{
			UploadedBy:   userID,
			DocumentType: upload.DocumentType,
			OriginalName: upload.Filename,
			StoredName:   name,
			Extension:    strings.ToLower(filepath.Ext(upload.Filename)),
			SizeBytes:    upload.SizeBytes,
			UploadedAt:   now,
		})
	}
	return docs, stored, nil
}

func (s *VerificationService) removeStored(names []string) {
	for _, name := range names {
		if err := s.storage.Delete(name); err != nil {
			s.logger.Warn("failed to remove stored document", zap.String("name", name), zap.Error(err))
		}
	}
}

// reviewStateError distinguishes a missing request from one already
// reviewed after a conditional update matched nothing.
func (s *VerificationService) reviewStateError(ctx context.Context, requestID, action string) error {
	if _, err := s.repo.GetByID(ctx, requestID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "verification request not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load verification request")
	}
	return appErrors.Clone(appErrors.ErrInvalidState, fmt.Sprintf("request is not in a valid state for %s", action))
}

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/techmatch/techmatch-api/internal/dto"
	"github.com/techmatch/techmatch-api/internal/models"
	"github.com/techmatch/techmatch-api/pkg/clock"
	appErrors "github.com/techmatch/techmatch-api/pkg/errors"
)

type skillRepository interface {
	CreateWithDocuments(ctx context.Context, item *models.SkillItem, docs []models.Document) error
	CountPendingForUser(ctx context.Context, userID string) (int, error)
	ListForUser(ctx context.Context, userID string) ([]models.SkillItem, error)
	ListApprovedNamesForUser(ctx context.Context, userID string) ([]string, error)
	GetByID(ctx context.Context, id string) (*models.SkillItem, error)
	ListPending(ctx context.Context) ([]models.SkillQueueEntry, error)
	Approve(ctx context.Context, skillID, adminID string, now time.Time) error
	Reject(ctx context.Context, skillID, adminID, reason string, now time.Time) error
}

type skillDocumentRepository interface {
	ListForSkillItem(ctx context.Context, skillItemID string) ([]models.Document, error)
}

// SkillServiceConfig tunes skill submissions.
type SkillServiceConfig struct {
	PendingLimit int
	Vocabulary   []string
	SuggestLimit int
}

// SkillService manages per-skill credential submissions and review. Skills
// have no cooldown; resubmission after rejection is bounded only by the
// pending-count cap.
type SkillService struct {
	repo    skillRepository
	docs    skillDocumentRepository
	storage documentStorage
	policy  DocumentPolicy
	notify  notifier
	clock   clock.Clock
	logger  *zap.Logger
	metrics *MetricsService
	config  SkillServiceConfig
}

// NewSkillService constructs the service.
func NewSkillService(
	repo skillRepository,
	docs skillDocumentRepository,
	storage documentStorage,
	policy DocumentPolicy,
	notify notifier,
	clk clock.Clock,
	logger *zap.Logger,
	metrics *MetricsService,
	config SkillServiceConfig,
) *SkillService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clk == nil {
		clk = clock.System()
	}
	if config.SuggestLimit <= 0 {
		config.SuggestLimit = 6
	}
	return &SkillService{
		repo:    repo,
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

// Submit creates a new PENDING skill item with its certificate documents.
// The skill name must come from the canonical vocabulary and the caller may
// hold at most the configured number of pending items.
func (s *SkillService) Submit(ctx context.Context, userID string, req dto.SubmitSkillRequest, uploads []dto.DocumentUpload) (*models.SkillItem, error) {
	name := strings.TrimSpace(req.SkillName)
	if name == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "skill name is required")
	}
	if !s.isCanonical(name) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "please choose a skill from the suggested canonical list")
	}
	if err := s.policy.Validate(uploads); err != nil {
		return nil, err
	}

	pending, err := s.repo.CountPendingForUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count pending skills")
	}
	if pending >= s.config.PendingLimit {
		return nil, appErrors.Clone(appErrors.ErrConflict,
			fmt.Sprintf("you can only have up to %d pending skills at a time", s.config.PendingLimit))
	}

	now := s.clock.Now()
	docs, stored, err := s.storeSkillUploads(userID, uploads, now)
	if err != nil {
		return nil, err
	}

	item := &models.SkillItem{
		UserID:    userID,
		SkillName: name,
		Status:    models.SkillStatusPending,
		CreatedAt: now,
	}
	if desc := strings.TrimSpace(req.Description); desc != "" {
		item.Description = &desc
	}
	if err := s.repo.CreateWithDocuments(ctx, item, docs); err != nil {
		s.removeSkillStored(stored)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create skill item")
	}

	s.notify.NotifyAdmins(ctx, models.NotificationTypeSkill,
		fmt.Sprintf("New skill submission: %s", name))

	return item, nil
}

// Approve flips a PENDING skill item to APPROVED.
func (s *SkillService) Approve(ctx context.Context, skillID, adminID string) error {
	if err := s.repo.Approve(ctx, skillID, adminID, s.clock.Now()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return s.skillStateError(ctx, skillID, "approval")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to approve skill item")
	}

	s.metrics.RecordReviewDecision("skill", string(models.SkillStatusApproved))
	if item, err := s.repo.GetByID(ctx, skillID); err == nil {
		s.notify.NotifyUser(ctx, item.UserID, models.NotificationTypeSkill,
			fmt.Sprintf("Your skill %q has been approved.", item.SkillName))
	}
	return nil
}

// Reject flips a PENDING skill item to REJECTED. An empty reason falls back
// to a generic one; there is no cooldown.
func (s *SkillService) Reject(ctx context.Context, skillID, adminID string, req dto.ReviewSkillRequest) error {
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		reason = "Rejected"
	}
	if err := s.repo.Reject(ctx, skillID, adminID, reason, s.clock.Now()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return s.skillStateError(ctx, skillID, "rejection")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reject skill item")
	}

	s.metrics.RecordReviewDecision("skill", string(models.SkillStatusRejected))
	if item, err := s.repo.GetByID(ctx, skillID); err == nil {
		s.notify.NotifyUser(ctx, item.UserID, models.NotificationTypeSkill,
			fmt.Sprintf("Your skill %q was rejected: %s", item.SkillName, reason))
	}
	return nil
}

// ListForUser returns the caller's skill items, newest first.
func (s *SkillService) ListForUser(ctx context.Context, userID string) ([]models.SkillItem, error) {
	items, err := s.repo.ListForUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list skills")
	}
	return items, nil
}

// ApprovedNamesForUser returns the technician's approved skill names.
// Recommendation scoring reads this set.
func (s *SkillService) ApprovedNamesForUser(ctx context.Context, userID string) ([]string, error) {
	names, err := s.repo.ListApprovedNamesForUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list approved skills")
	}
	return names, nil
}

// Queue lists all PENDING skill items for admin review, oldest first.
func (s *SkillService) Queue(ctx context.Context) ([]models.SkillQueueEntry, error) {
	entries, err := s.repo.ListPending(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list pending skills")
	}
	return entries, nil
}

// Detail assembles a skill item with its certificate documents.
func (s *SkillService) Detail(ctx context.Context, skillID string) (*dto.SkillDetail, error) {
	item, err := s.repo.GetByID(ctx, skillID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "skill item not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load skill item")
	}
	docs, err := s.docs.ListForSkillItem(ctx, skillID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load skill documents")
	}
	return &dto.SkillDetail{Item: *item, Documents: docs}, nil
}

// Suggest ranks the canonical vocabulary by similarity to the query. It
// always returns candidates, even for a nonsense query, so clients can
// render a picker unconditionally.
func (s *SkillService) Suggest(query string) []dto.SkillSuggestion {
	q := strings.ToLower(strings.TrimSpace(query))
	suggestions := make([]dto.SkillSuggestion, 0, len(s.config.Vocabulary))
	for _, skill := range s.config.Vocabulary {
		suggestions = append(suggestions, dto.SkillSuggestion{
			Skill: skill,
			Score: similarityRatio(q, strings.ToLower(skill)),
		})
	}
	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].Score > suggestions[j].Score
	})
	if len(suggestions) > s.config.SuggestLimit {
		suggestions = suggestions[:s.config.SuggestLimit]
	}
	return suggestions
}

func (s *SkillService) isCanonical(name string) bool {
	for _, skill := range s.config.Vocabulary {
		if skill == name {
			return true
		}
	}
	return false
}

func (s *SkillService) skillStateError(ctx context.Context, skillID, action string) error {
	if _, err := s.repo.GetByID(ctx, skillID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "skill item not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load skill item")
	}
	return appErrors.Clone(appErrors.ErrInvalidState, fmt.Sprintf("skill item is not in a valid state for %s", action))
}

func (s *SkillService) storeSkillUploads(userID string, uploads []dto.DocumentUpload, now time.Time) ([]models.Document, []string, error) {
	docs := make([]models.Document, 0, len(uploads))
	stored := make([]string, 0, len(uploads))
	for _, upload := range uploads {
		name := storedName(upload.Filename)
		if _, err := s.storage.Save(name, upload.Content); err != nil {
			s.removeSkillStored(stored)
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

func (s *SkillService) removeSkillStored(names []string) {
	for _, name := range names {
		if err := s.storage.Delete(name); err != nil {
			s.logger.Warn("failed to remove stored document", zap.String("name", name), zap.Error(err))
		}
	}
}

// similarityRatio computes 2*LCS/(len(a)+len(b)) over runes, a close cousin
// of difflib-style sequence matching that is monotonic in shared content.
func similarityRatio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	if len(ra)+len(rb) == 0 {
		return 0
	}
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for i := 1; i <= len(ra); i++ {
		for j := 1; j <= len(rb); j++ {
			if ra[i-1] == rb[j-1] {
				curr[j] = prev[j-1] + 1
			} else if prev[j] >= curr[j-1] {
				curr[j] = prev[j]
			} else {
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}
	lcs := prev[len(rb)]
	return 2 * float64(lcs) / float64(len(ra)+len(rb))
}

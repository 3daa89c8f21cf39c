package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/techmatch/techmatch-api/internal/dto"
	"github.com/techmatch/techmatch-api/internal/models"
	"github.com/techmatch/techmatch-api/pkg/clock"
	appErrors "github.com/techmatch/techmatch-api/pkg/errors"
)

type verificationRepoStub struct {
	latest    *models.VerificationRequest
	byID      map[string]*models.VerificationRequest
	created   *models.VerificationRequest
	flags     []models.VerificationFlag
	docs      []models.Document
	createErr error
	reviewErr error
	approved  []string
	rejected  []string
}

func (s *verificationRepoStub) CreateWithDocuments(ctx context.Context, request *models.VerificationRequest, flags []models.VerificationFlag, docs []models.Document) error {
	if s.createErr != nil {
		return s.createErr
	}
	request.ID = "vr-new"
	s.created = request
	s.flags = flags
	s.docs = docs
	return nil
}

func (s *verificationRepoStub) LatestForUser(ctx context.Context, userID string) (*models.VerificationRequest, error) {
	if s.latest == nil {
		return nil, sql.ErrNoRows
	}
	return s.latest, nil
}

func (s *verificationRepoStub) GetByID(ctx context.Context, id string) (*models.VerificationRequest, error) {
	if req, ok := s.byID[id]; ok {
		return req, nil
	}
	return nil, sql.ErrNoRows
}

func (s *verificationRepoStub) ListByStatus(ctx context.Context, status models.VerificationStatus) ([]models.VerificationQueueEntry, error) {
	return nil, nil
}

func (s *verificationRepoStub) CountByStatus(ctx context.Context, status models.VerificationStatus) (int, error) {
	return 0, nil
}

func (s *verificationRepoStub) Approve(ctx context.Context, requestID, adminID string, now time.Time) error {
	if s.reviewErr != nil {
		return s.reviewErr
	}
	s.approved = append(s.approved, requestID)
	return nil
}

func (s *verificationRepoStub) Reject(ctx context.Context, requestID, adminID, reason string, now, cooldownUntil time.Time) error {
	if s.reviewErr != nil {
		return s.reviewErr
	}
	s.rejected = append(s.rejected, requestID)
	return nil
}

func (s *verificationRepoStub) ListFlags(ctx context.Context, requestID string) ([]models.VerificationFlag, error) {
	return s.flags, nil
}

type verificationUserRepoStub struct {
	users       map[string]*models.User
	technicians map[string]*models.TechnicianProfile
	businesses  map[string]*models.BusinessProfile
}

func (s *verificationUserRepoStub) FindByID(ctx context.Context, id string) (*models.User, error) {
	if user, ok := s.users[id]; ok {
		return user, nil
	}
	return nil, sql.ErrNoRows
}

func (s *verificationUserRepoStub) UpsertTechnicianProfile(ctx context.Context, profile *models.TechnicianProfile) error {
	if s.technicians == nil {
		s.technicians = make(map[string]*models.TechnicianProfile)
	}
	s.technicians[profile.UserID] = profile
	return nil
}

func (s *verificationUserRepoStub) UpsertBusinessProfile(ctx context.Context, profile *models.BusinessProfile) error {
	if s.businesses == nil {
		s.businesses = make(map[string]*models.BusinessProfile)
	}
	s.businesses[profile.UserID] = profile
	return nil
}

type verificationDocRepoStub struct {
	docs []models.Document
}

func (s *verificationDocRepoStub) ListForRequest(ctx context.Context, requestID string) ([]models.Document, error) {
	return s.docs, nil
}

type storageStub struct {
	saved   map[string][]byte
	deleted []string
	saveErr error
}

func (s *storageStub) Save(filename string, data []byte) (string, error) {
	if s.saveErr != nil {
		return "", s.saveErr
	}
	if s.saved == nil {
		s.saved = make(map[string][]byte)
	}
	s.saved[filename] = data
	return filename, nil
}

func (s *storageStub) Delete(filename string) error {
	s.deleted = append(s.deleted, filename)
	delete(s.saved, filename)
	return nil
}

type notifierStub struct {
	userMessages  map[string][]string
	adminMessages []string
}

func (s *notifierStub) NotifyUser(ctx context.Context, userID string, ntype models.NotificationType, message string) {
	if s.userMessages == nil {
		s.userMessages = make(map[string][]string)
	}
	s.userMessages[userID] = append(s.userMessages[userID], message)
}

func (s *notifierStub) NotifyAdmins(ctx context.Context, ntype models.NotificationType, message string) {
	s.adminMessages = append(s.adminMessages, message)
}

func testPolicy() DocumentPolicy {
	return DocumentPolicy{
		AllowedExtensions: []string{".pdf", ".docx"},
		MaxFileSizeBytes:  15 * 1024 * 1024,
	}
}

func validUploads() []dto.DocumentUpload {
	return []dto.DocumentUpload{{
		Filename:     "certificate.pdf",
		SizeBytes:    2048,
		DocumentType: "identity",
		Content:      []byte("%PDF-1.4"),
	}}
}

func newVerificationTestService(repo *verificationRepoStub, users *verificationUserRepoStub, storage *storageStub, notify *notifierStub, clk clock.Clock) *VerificationService {
	return NewVerificationService(
		repo,
		users,
		&verificationDocRepoStub{},
		storage,
		testPolicy(),
		notify,
		clk,
		nil,
		nil,
		VerificationServiceConfig{DefaultCooldown: 24 * time.Hour},
	)
}

func technicianUser(id string) *models.User {
	return &models.User{ID: id, Email: id + "@example.com", Role: models.RoleTechnician, Active: true}
}

func TestVerificationSubmitCreatesPendingRequest(t *testing.T) {
	repo := &verificationRepoStub{}
	users := &verificationUserRepoStub{users: map[string]*models.User{"tech-1": technicianUser("tech-1")}}
	storage := &storageStub{}
	notify := &notifierStub{}
	svc := newVerificationTestService(repo, users, storage, notify, clock.NewFake(time.Unix(1_700_000_000, 0)))

	request, err := svc.Submit(context.Background(), "tech-1",
		dto.SubmitVerificationRequest{DisplayName: "Jonathan Smith", Skills: []string{"Plumbing"}},
		validUploads())
	require.NoError(t, err)
	assert.Equal(t, models.VerificationStatusPending, request.Status)
	assert.Empty(t, repo.flags)
	assert.Len(t, repo.docs, 1)
	assert.Len(t, storage.saved, 1)
	assert.Equal(t, "Jonathan Smith", users.technicians["tech-1"].FullName)
	assert.Len(t, notify.adminMessages, 1)
}

func TestVerificationSubmitPersistsFlags(t *testing.T) {
	repo := &verificationRepoStub{}
	users := &verificationUserRepoStub{users: map[string]*models.User{"tech-1": technicianUser("tech-1")}}
	svc := newVerificationTestService(repo, users, &storageStub{}, &notifierStub{}, clock.NewFake(time.Unix(1_700_000_000, 0)))

	_, err := svc.Submit(context.Background(), "tech-1",
		dto.SubmitVerificationRequest{DisplayName: "AAAA!!!!"},
		validUploads())
	require.NoError(t, err)
	require.Len(t, repo.flags, 2)
	assert.Equal(t, models.FlagSeverityMedium, repo.flags[0].Severity)
	assert.Equal(t, models.FlagSeverityHigh, repo.flags[1].Severity)
}

func TestVerificationSubmitBlockedWhilePending(t *testing.T) {
	repo := &verificationRepoStub{latest: &models.VerificationRequest{
		ID:     "vr-1",
		UserID: "tech-1",
		Status: models.VerificationStatusPending,
	}}
	users := &verificationUserRepoStub{users: map[string]*models.User{"tech-1": technicianUser("tech-1")}}
	svc := newVerificationTestService(repo, users, &storageStub{}, &notifierStub{}, clock.NewFake(time.Unix(1_700_000_000, 0)))

	_, err := svc.Submit(context.Background(), "tech-1",
		dto.SubmitVerificationRequest{DisplayName: "Jonathan Smith"}, validUploads())
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
	assert.Nil(t, repo.created)
}

func TestVerificationSubmitCooldownBoundary(t *testing.T) {
	base := time.Unix(1_700_000_000, 0)
	cooldownUntil := base.Add(3600 * time.Second)
	repo := &verificationRepoStub{latest: &models.VerificationRequest{
		ID:            "vr-1",
		UserID:        "tech-1",
		Status:        models.VerificationStatusRejected,
		CooldownUntil: &cooldownUntil,
	}}
	users := &verificationUserRepoStub{users: map[string]*models.User{"tech-1": technicianUser("tech-1")}}
	fake := clock.NewFake(base.Add(3599 * time.Second))
	svc := newVerificationTestService(repo, users, &storageStub{}, &notifierStub{}, fake)

	// One second before cooldown_until the window is still closed.
	_, err := svc.Submit(context.Background(), "tech-1",
		dto.SubmitVerificationRequest{DisplayName: "Jonathan Smith"}, validUploads())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)

	// At exactly cooldown_until the boundary is exclusive and submission
	// goes through.
	fake.Advance(time.Second)
	request, err := svc.Submit(context.Background(), "tech-1",
		dto.SubmitVerificationRequest{DisplayName: "Jonathan Smith"}, validUploads())
	require.NoError(t, err)
	assert.Equal(t, models.VerificationStatusPending, request.Status)
}

func TestVerificationSubmitRejectsBadExtensionBeforeAnyWrite(t *testing.T) {
	repo := &verificationRepoStub{}
	users := &verificationUserRepoStub{users: map[string]*models.User{"tech-1": technicianUser("tech-1")}}
	storage := &storageStub{}
	svc := newVerificationTestService(repo, users, storage, &notifierStub{}, clock.NewFake(time.Unix(1_700_000_000, 0)))

	uploads := []dto.DocumentUpload{
		{Filename: "ok.pdf", SizeBytes: 100, Content: []byte("x")},
		{Filename: "malware.exe", SizeBytes: 100, Content: []byte("x")},
	}
	_, err := svc.Submit(context.Background(), "tech-1",
		dto.SubmitVerificationRequest{DisplayName: "Jonathan Smith"}, uploads)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Nil(t, repo.created)
	assert.Empty(t, storage.saved)
}

func TestVerificationSubmitCleansUpWhenPersistFails(t *testing.T) {
	repo := &verificationRepoStub{createErr: errors.New("db down")}
	users := &verificationUserRepoStub{users: map[string]*models.User{"tech-1": technicianUser("tech-1")}}
	storage := &storageStub{}
	svc := newVerificationTestService(repo, users, storage, &notifierStub{}, clock.NewFake(time.Unix(1_700_000_000, 0)))

	_, err := svc.Submit(context.Background(), "tech-1",
		dto.SubmitVerificationRequest{DisplayName: "Jonathan Smith"}, validUploads())
	require.Error(t, err)
	assert.Empty(t, storage.saved)
	assert.Len(t, storage.deleted, 1)
}

func TestVerificationApproveNotifiesOwner(t *testing.T) {
	repo := &verificationRepoStub{byID: map[string]*models.VerificationRequest{
		"vr-1": {ID: "vr-1", UserID: "tech-1", Status: models.VerificationStatusApproved},
	}}
	notify := &notifierStub{}
	svc := newVerificationTestService(repo, &verificationUserRepoStub{}, &storageStub{}, notify, clock.NewFake(time.Unix(1_700_000_000, 0)))

	require.NoError(t, svc.Approve(context.Background(), "vr-1", "admin-1"))
	assert.Equal(t, []string{"vr-1"}, repo.approved)
	assert.Len(t, notify.userMessages["tech-1"], 1)
}

func TestVerificationApproveAlreadyReviewed(t *testing.T) {
	repo := &verificationRepoStub{
		reviewErr: sql.ErrNoRows,
		byID: map[string]*models.VerificationRequest{
			"vr-1": {ID: "vr-1", UserID: "tech-1", Status: models.VerificationStatusApproved},
		},
	}
	svc := newVerificationTestService(repo, &verificationUserRepoStub{}, &storageStub{}, &notifierStub{}, clock.NewFake(time.Unix(1_700_000_000, 0)))

	err := svc.Approve(context.Background(), "vr-1", "admin-2")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidState.Code, appErrors.FromError(err).Code)
}

func TestVerificationApproveMissingRequest(t *testing.T) {
	repo := &verificationRepoStub{reviewErr: sql.ErrNoRows, byID: map[string]*models.VerificationRequest{}}
	svc := newVerificationTestService(repo, &verificationUserRepoStub{}, &storageStub{}, &notifierStub{}, clock.NewFake(time.Unix(1_700_000_000, 0)))

	err := svc.Approve(context.Background(), "vr-404", "admin-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestVerificationRejectRequiresReason(t *testing.T) {
	svc := newVerificationTestService(&verificationRepoStub{}, &verificationUserRepoStub{}, &storageStub{}, &notifierStub{}, clock.NewFake(time.Unix(1_700_000_000, 0)))

	err := svc.Reject(context.Background(), "vr-1", "admin-1", dto.ReviewVerificationRequest{Reason: "   "})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestVerificationStatusForBlockedUser(t *testing.T) {
	base := time.Unix(1_700_000_000, 0)
	cooldownUntil := base.Add(time.Hour)
	repo := &verificationRepoStub{latest: &models.VerificationRequest{
		ID:            "vr-1",
		UserID:        "tech-1",
		Status:        models.VerificationStatusRejected,
		CooldownUntil: &cooldownUntil,
	}}
	svc := newVerificationTestService(repo, &verificationUserRepoStub{}, &storageStub{}, &notifierStub{}, clock.NewFake(base))

	view, err := svc.StatusFor(context.Background(), "tech-1")
	require.NoError(t, err)
	assert.True(t, view.Blocking)
	assert.False(t, view.CanApply)
}

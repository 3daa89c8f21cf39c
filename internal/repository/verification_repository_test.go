package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/techmatch/techmatch-api/internal/models"
)

func newVerificationRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestVerificationRepositoryCreateWithDocuments(t *testing.T) {
	db, mock, cleanup := newVerificationRepoMock(t)
	defer cleanup()

	repo := NewVerificationRepository(db)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO verification_requests")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO verification_flags")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO documents")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	request := &models.VerificationRequest{
		UserID:      "tech-1",
		UserRole:    models.RoleTechnician,
		SubmittedAt: now,
	}
	flags := []models.VerificationFlag{{
		FlagType:    models.FlagTypeSuspiciousNameFormat,
		Severity:    models.FlagSeverityMedium,
		Description: "Repeated characters pattern detected.",
	}}
	docs := []models.Document{{
		UploadedBy:   "tech-1",
		DocumentType: "certification",
		OriginalName: "cert.pdf",
		StoredName:   "abc.pdf",
		Extension:    ".pdf",
		SizeBytes:    1024,
		UploadedAt:   now,
	}}

	require.NoError(t, repo.CreateWithDocuments(context.Background(), request, flags, docs))
	require.NotEmpty(t, request.ID)
	require.Equal(t, models.VerificationStatusPending, request.Status)
	require.Equal(t, request.ID, flags[0].RequestID)
	require.Equal(t, &request.ID, docs[0].VerificationRequestID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVerificationRepositoryCreateRollsBackOnDocumentFailure(t *testing.T) {
	db, mock, cleanup := newVerificationRepoMock(t)
	defer cleanup()

	repo := NewVerificationRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO verification_requests")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO documents")).
		WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	request := &models.VerificationRequest{UserID: "tech-1", UserRole: models.RoleTechnician, SubmittedAt: time.Now()}
	docs := []models.Document{{UploadedBy: "tech-1", DocumentType: "certification", OriginalName: "cert.pdf", StoredName: "abc.pdf", Extension: ".pdf", SizeBytes: 10, UploadedAt: time.Now()}}

	err := repo.CreateWithDocuments(context.Background(), request, nil, docs)
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVerificationRepositoryLatestForUser(t *testing.T) {
	db, mock, cleanup := newVerificationRepoMock(t)
	defer cleanup()

	repo := NewVerificationRepository(db)
	now := time.Now()

	rows := sqlmock.NewRows([]string{"id", "user_id", "user_role", "status", "submitted_at", "reviewed_at", "reviewed_by", "rejected_at", "rejection_reason", "cooldown_until"}).
		AddRow("vr-2", "tech-1", "TECHNICIAN", "PENDING", now, nil, nil, nil, nil, nil)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, user_id, user_role, status")).
		WithArgs("tech-1").
		WillReturnRows(rows)

	request, err := repo.LatestForUser(context.Background(), "tech-1")
	require.NoError(t, err)
	require.Equal(t, "vr-2", request.ID)
	require.Equal(t, models.VerificationStatusPending, request.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVerificationRepositoryApprove(t *testing.T) {
	db, mock, cleanup := newVerificationRepoMock(t)
	defer cleanup()

	repo := NewVerificationRepository(db)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE verification_requests")).
		WithArgs("vr-1", now, "admin-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET verified = TRUE")).
		WithArgs("vr-1", now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO admin_actions")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Approve(context.Background(), "vr-1", "admin-1", now))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVerificationRepositoryApproveAlreadyReviewed(t *testing.T) {
	db, mock, cleanup := newVerificationRepoMock(t)
	defer cleanup()

	repo := NewVerificationRepository(db)
	now := time.Now()

	// A second reviewer races in after the first commit; the conditional
	// update matches nothing and the whole transaction rolls back.
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE verification_requests")).
		WithArgs("vr-1", now, "admin-2").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.Approve(context.Background(), "vr-1", "admin-2", now)
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVerificationRepositoryReject(t *testing.T) {
	db, mock, cleanup := newVerificationRepoMock(t)
	defer cleanup()

	repo := NewVerificationRepository(db)
	now := time.Now()
	cooldown := now.Add(24 * time.Hour)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE verification_requests")).
		WithArgs("vr-1", now, "admin-1", "document unreadable", cooldown).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET verified = FALSE")).
		WithArgs("vr-1", now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO admin_actions")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Reject(context.Background(), "vr-1", "admin-1", "document unreadable", now, cooldown))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVerificationRepositoryListByStatus(t *testing.T) {
	db, mock, cleanup := newVerificationRepoMock(t)
	defer cleanup()

	repo := NewVerificationRepository(db)
	now := time.Now()

	rows := sqlmock.NewRows([]string{"id", "user_id", "user_role", "status", "submitted_at", "reviewed_at", "reviewed_by", "rejected_at", "rejection_reason", "cooldown_until", "email"}).
		AddRow("vr-1", "tech-1", "TECHNICIAN", "PENDING", now.Add(-2*time.Hour), nil, nil, nil, nil, nil, "a@example.com").
		AddRow("vr-2", "biz-1", "BUSINESS", "PENDING", now.Add(-time.Hour), nil, nil, nil, nil, nil, "b@example.com")
	mock.ExpectQuery(regexp.QuoteMeta("FROM verification_requests vr")).
		WithArgs(models.VerificationStatusPending).
		WillReturnRows(rows)

	entries, err := repo.ListByStatus(context.Background(), models.VerificationStatusPending)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "a@example.com", entries[0].Email)
	require.NoError(t, mock.ExpectationsWereMet())
}

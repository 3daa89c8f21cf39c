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

func newSkillRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestSkillRepositoryCreateWithDocuments(t *testing.T) {
	db, mock, cleanup := newSkillRepoMock(t)
	defer cleanup()

	repo := NewSkillRepository(db)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO skill_items")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO documents")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	item := &models.SkillItem{UserID: "tech-1", SkillName: "Plumbing", CreatedAt: now}
	docs := []models.Document{{UploadedBy: "tech-1", DocumentType: "skill_evidence", OriginalName: "license.pdf", StoredName: "x.pdf", Extension: ".pdf", SizeBytes: 100, UploadedAt: now}}

	require.NoError(t, repo.CreateWithDocuments(context.Background(), item, docs))
	require.NotEmpty(t, item.ID)
	require.Equal(t, models.SkillStatusPending, item.Status)
	require.Equal(t, &item.ID, docs[0].SkillItemID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSkillRepositoryCountPendingForUser(t *testing.T) {
	db, mock, cleanup := newSkillRepoMock(t)
	defer cleanup()

	repo := NewSkillRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(1) FROM skill_items")).
		WithArgs("tech-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	count, err := repo.CountPendingForUser(context.Background(), "tech-1")
	require.NoError(t, err)
	require.Equal(t, 3, count)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSkillRepositoryApprove(t *testing.T) {
	db, mock, cleanup := newSkillRepoMock(t)
	defer cleanup()

	repo := NewSkillRepository(db)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE skill_items")).
		WithArgs("skill-1", now, "admin-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO admin_actions")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Approve(context.Background(), "skill-1", "admin-1", now))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSkillRepositoryRejectAlreadyReviewed(t *testing.T) {
	db, mock, cleanup := newSkillRepoMock(t)
	defer cleanup()

	repo := NewSkillRepository(db)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE skill_items")).
		WithArgs("skill-1", now, "admin-1", "no evidence").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.Reject(context.Background(), "skill-1", "admin-1", "no evidence", now)
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSkillRepositoryListApprovedNamesForUser(t *testing.T) {
	db, mock, cleanup := newSkillRepoMock(t)
	defer cleanup()

	repo := NewSkillRepository(db)
	rows := sqlmock.NewRows([]string{"skill_name"}).AddRow("Plumbing").AddRow("Electrical")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT skill_name FROM skill_items")).
		WithArgs("tech-1").
		WillReturnRows(rows)

	names, err := repo.ListApprovedNamesForUser(context.Background(), "tech-1")
	require.NoError(t, err)
	require.Equal(t, []string{"Plumbing", "Electrical"}, names)
	require.NoError(t, mock.ExpectationsWereMet())
}

package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/techmatch/techmatch-api/internal/models"
)

func newUserRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestUserRepositoryCreateAndFindByEmail(t *testing.T) {
	db, mock, cleanup := newUserRepoMock(t)
	defer cleanup()

	repo := NewUserRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	user := &models.User{
		Email:        "tech@example.com",
		PasswordHash: "$2a$10$hash",
		Role:         models.RoleTechnician,
		Active:       true,
	}
	require.NoError(t, repo.Create(context.Background(), user))
	require.NotEmpty(t, user.ID)

	rows := sqlmock.NewRows([]string{"id", "email", "password_hash", "role", "active", "verified", "force_password_change", "last_login", "created_at", "updated_at"}).
		AddRow(user.ID, "tech@example.com", "$2a$10$hash", "TECHNICIAN", true, false, false, nil, time.Now(), time.Now())
	// Lookup normalises the address before hitting the database.
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, email, password_hash")).
		WithArgs("tech@example.com").
		WillReturnRows(rows)

	found, err := repo.FindByEmail(context.Background(), "  Tech@Example.COM ")
	require.NoError(t, err)
	require.Equal(t, user.ID, found.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositorySetActiveMissingUser(t *testing.T) {
	db, mock, cleanup := newUserRepoMock(t)
	defer cleanup()

	repo := NewUserRepository(db)
	now := time.Now()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET active")).
		WithArgs("user-404", false, now).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.SetActive(context.Background(), "user-404", false, now)
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryTechnicianProfileRoundTrip(t *testing.T) {
	db, mock, cleanup := newUserRepoMock(t)
	defer cleanup()

	repo := NewUserRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO technician_profiles")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	profile := &models.TechnicianProfile{
		UserID:   "tech-1",
		FullName: "Jordan Reyes",
		Skills:   []string{"Plumbing", "HVAC"},
	}
	require.NoError(t, repo.UpsertTechnicianProfile(context.Background(), profile))

	raw, err := json.Marshal(profile.Skills)
	require.NoError(t, err)
	rows := sqlmock.NewRows([]string{"user_id", "full_name", "skills", "bio", "created_at"}).
		AddRow("tech-1", "Jordan Reyes", string(raw), nil, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM technician_profiles")).
		WithArgs("tech-1").
		WillReturnRows(rows)

	found, err := repo.GetTechnicianProfile(context.Background(), "tech-1")
	require.NoError(t, err)
	require.Equal(t, []string{"Plumbing", "HVAC"}, found.Skills)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryRefreshTokenLifecycle(t *testing.T) {
	db, mock, cleanup := newUserRepoMock(t)
	defer cleanup()

	repo := NewUserRepository(db)
	now := time.Now()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO refresh_tokens")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	token := &models.RefreshToken{
		UserID:    "user-1",
		Token:     "opaque-token",
		ExpiresAt: now.Add(72 * time.Hour),
		CreatedAt: now,
	}
	require.NoError(t, repo.CreateRefreshToken(context.Background(), token))
	require.NotEmpty(t, token.ID)

	rows := sqlmock.NewRows([]string{"id", "user_id", "token", "expires_at", "created_at", "revoked", "revoked_at", "ip_address", "user_agent"}).
		AddRow(token.ID, "user-1", "opaque-token", token.ExpiresAt, now, false, nil, "", "")
	mock.ExpectQuery(regexp.QuoteMeta("FROM refresh_tokens")).
		WithArgs("opaque-token").
		WillReturnRows(rows)

	found, err := repo.FindRefreshToken(context.Background(), "opaque-token")
	require.NoError(t, err)
	require.Equal(t, "user-1", found.UserID)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE refresh_tokens SET revoked = TRUE, revoked_at")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.RevokeRefreshToken(context.Background(), found.ID, now))
	require.NoError(t, mock.ExpectationsWereMet())
}

package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/techmatch/techmatch-api/internal/models"
	appErrors "github.com/techmatch/techmatch-api/pkg/errors"
)

type authRepoStub struct {
	usersByEmail map[string]*models.User
	usersByID    map[string]*models.User
	tokens       map[string]*models.RefreshToken

	created      []*models.User
	revokedAll   []string
	revokedByID  []string
	lastLoginSet bool
	passwordSet  string
}

func newAuthRepoStub() *authRepoStub {
	return &authRepoStub{
		usersByEmail: make(map[string]*models.User),
		usersByID:    make(map[string]*models.User),
		tokens:       make(map[string]*models.RefreshToken),
	}
}

func (s *authRepoStub) addUser(user *models.User) {
	s.usersByEmail[user.Email] = user
	s.usersByID[user.ID] = user
}

func (s *authRepoStub) Create(ctx context.Context, user *models.User) error {
	user.ID = "user-new"
	s.created = append(s.created, user)
	s.addUser(user)
	return nil
}

func (s *authRepoStub) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if user, ok := s.usersByEmail[email]; ok {
		return user, nil
	}
	return nil, sql.ErrNoRows
}

func (s *authRepoStub) FindByID(ctx context.Context, id string) (*models.User, error) {
	if user, ok := s.usersByID[id]; ok {
		return user, nil
	}
	return nil, sql.ErrNoRows
}

func (s *authRepoStub) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	s.lastLoginSet = true
	return nil
}

func (s *authRepoStub) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	s.passwordSet = passwordHash
	return nil
}

func (s *authRepoStub) RevokeUserRefreshTokens(ctx context.Context, userID string) error {
	s.revokedAll = append(s.revokedAll, userID)
	return nil
}

func (s *authRepoStub) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	s.tokens[token.Token] = token
	return nil
}

func (s *authRepoStub) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	if stored, ok := s.tokens[token]; ok {
		return stored, nil
	}
	return nil, sql.ErrNoRows
}

func (s *authRepoStub) RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error {
	s.revokedByID = append(s.revokedByID, id)
	for _, stored := range s.tokens {
		if stored.ID == id {
			stored.Revoked = true
		}
	}
	return nil
}

func testAuthConfig() AuthConfig {
	return AuthConfig{
		AccessTokenSecret:  "test-secret",
		AccessTokenExpiry:  15 * time.Minute,
		RefreshTokenExpiry: 24 * time.Hour,
	}
}

func hashedPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func TestAuthRegisterNormalizesEmail(t *testing.T) {
	repo := newAuthRepoStub()
	svc := NewAuthService(repo, nil, nil, testAuthConfig())

	info, err := svc.Register(context.Background(), models.RegisterRequest{
		Email:    "Tech@Example.COM",
		Password: "supersecret",
		Role:     models.RoleTechnician,
	})
	require.NoError(t, err)
	assert.Equal(t, "tech@example.com", info.Email)
	assert.False(t, info.Verified)
}

func TestAuthRegisterDuplicateEmail(t *testing.T) {
	repo := newAuthRepoStub()
	repo.addUser(&models.User{ID: "user-1", Email: "tech@example.com"})
	svc := NewAuthService(repo, nil, nil, testAuthConfig())

	_, err := svc.Register(context.Background(), models.RegisterRequest{
		Email:    "tech@example.com",
		Password: "supersecret",
		Role:     models.RoleTechnician,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestAuthRegisterRejectsAdminRole(t *testing.T) {
	svc := NewAuthService(newAuthRepoStub(), nil, nil, testAuthConfig())

	_, err := svc.Register(context.Background(), models.RegisterRequest{
		Email:    "admin@example.com",
		Password: "supersecret",
		Role:     models.RoleAdmin,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAuthLoginIssuesTokenPair(t *testing.T) {
	repo := newAuthRepoStub()
	repo.addUser(&models.User{
		ID:           "user-1",
		Email:        "tech@example.com",
		PasswordHash: hashedPassword(t, "supersecret"),
		Role:         models.RoleTechnician,
		Active:       true,
	})
	svc := NewAuthService(repo, nil, nil, testAuthConfig())

	resp, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "tech@example.com",
		Password: "supersecret",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.True(t, repo.lastLoginSet)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, models.RoleTechnician, claims.Role)
}

func TestAuthLoginWrongPassword(t *testing.T) {
	repo := newAuthRepoStub()
	repo.addUser(&models.User{
		ID:           "user-1",
		Email:        "tech@example.com",
		PasswordHash: hashedPassword(t, "supersecret"),
		Active:       true,
	})
	svc := NewAuthService(repo, nil, nil, testAuthConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "tech@example.com",
		Password: "not-the-password",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthLoginInactiveAccount(t *testing.T) {
	repo := newAuthRepoStub()
	repo.addUser(&models.User{
		ID:           "user-1",
		Email:        "tech@example.com",
		PasswordHash: hashedPassword(t, "supersecret"),
		Active:       false,
	})
	svc := NewAuthService(repo, nil, nil, testAuthConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "tech@example.com",
		Password: "supersecret",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInactiveAccount.Code, appErrors.FromError(err).Code)
}

func TestAuthRefreshRotatesToken(t *testing.T) {
	repo := newAuthRepoStub()
	repo.addUser(&models.User{ID: "user-1", Email: "tech@example.com", Active: true})
	repo.tokens["old-token"] = &models.RefreshToken{
		ID:        "rt-1",
		UserID:    "user-1",
		Token:     "old-token",
		ExpiresAt: time.Now().UTC().Add(time.Hour),
	}
	svc := NewAuthService(repo, nil, nil, testAuthConfig())

	resp, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: "old-token"})
	require.NoError(t, err)
	assert.NotEqual(t, "old-token", resp.RefreshToken)
	assert.Contains(t, repo.revokedByID, "rt-1")
}

func TestAuthRefreshRejectsExpiredToken(t *testing.T) {
	repo := newAuthRepoStub()
	repo.addUser(&models.User{ID: "user-1", Email: "tech@example.com", Active: true})
	repo.tokens["old-token"] = &models.RefreshToken{
		ID:        "rt-1",
		UserID:    "user-1",
		Token:     "old-token",
		ExpiresAt: time.Now().UTC().Add(-time.Minute),
	}
	svc := NewAuthService(repo, nil, nil, testAuthConfig())

	_, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: "old-token"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestAuthLogoutRejectsForeignToken(t *testing.T) {
	repo := newAuthRepoStub()
	repo.tokens["token"] = &models.RefreshToken{ID: "rt-1", UserID: "user-1", Token: "token"}
	svc := NewAuthService(repo, nil, nil, testAuthConfig())

	err := svc.Logout(context.Background(), "token", "user-2")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.revokedByID)
}

func TestAuthChangePasswordRevokesSessions(t *testing.T) {
	repo := newAuthRepoStub()
	repo.addUser(&models.User{
		ID:           "user-1",
		Email:        "tech@example.com",
		PasswordHash: hashedPassword(t, "old-password"),
		Active:       true,
	})
	svc := NewAuthService(repo, nil, nil, testAuthConfig())

	err := svc.ChangePassword(context.Background(), "user-1", models.ChangePasswordRequest{
		OldPassword: "old-password",
		NewPassword: "new-password",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, repo.passwordSet)
	assert.Equal(t, []string{"user-1"}, repo.revokedAll)
}

func TestAuthChangePasswordWrongOldPassword(t *testing.T) {
	repo := newAuthRepoStub()
	repo.addUser(&models.User{
		ID:           "user-1",
		Email:        "tech@example.com",
		PasswordHash: hashedPassword(t, "old-password"),
	})
	svc := NewAuthService(repo, nil, nil, testAuthConfig())

	err := svc.ChangePassword(context.Background(), "user-1", models.ChangePasswordRequest{
		OldPassword: "wrong",
		NewPassword: "new-password",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestAuthEnsureAdminSeedsOnce(t *testing.T) {
	repo := newAuthRepoStub()
	config := testAuthConfig()
	config.AdminEmail = "admin@example.com"
	config.AdminPassword = "bootstrap-password"
	svc := NewAuthService(repo, nil, nil, config)

	require.NoError(t, svc.EnsureAdmin(context.Background()))
	require.Len(t, repo.created, 1)
	admin := repo.created[0]
	assert.Equal(t, models.RoleAdmin, admin.Role)
	assert.True(t, admin.Verified)
	assert.True(t, admin.ForcePasswordChange)

	// Second boot finds the account and creates nothing.
	require.NoError(t, svc.EnsureAdmin(context.Background()))
	assert.Len(t, repo.created, 1)
}

func TestAuthValidateTokenRejectsForgedToken(t *testing.T) {
	repo := newAuthRepoStub()
	repo.addUser(&models.User{
		ID:           "user-1",
		Email:        "tech@example.com",
		PasswordHash: hashedPassword(t, "supersecret"),
		Active:       true,
	})
	issuer := NewAuthService(repo, nil, nil, testAuthConfig())
	resp, err := issuer.Login(context.Background(), models.LoginRequest{
		Email:    "tech@example.com",
		Password: "supersecret",
	})
	require.NoError(t, err)

	other := NewAuthService(repo, nil, nil, AuthConfig{
		AccessTokenSecret: "different-secret",
		AccessTokenExpiry: 15 * time.Minute,
	})
	_, err = other.ValidateToken(resp.AccessToken)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestAuthValidateSessionChecksAccount(t *testing.T) {
	repo := newAuthRepoStub()
	user := &models.User{
		ID:           "user-1",
		Email:        "tech@example.com",
		PasswordHash: hashedPassword(t, "supersecret"),
		Active:       true,
	}
	repo.addUser(user)
	svc := NewAuthService(repo, nil, nil, testAuthConfig())
	resp, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "tech@example.com",
		Password: "supersecret",
	})
	require.NoError(t, err)

	claims, err := svc.ValidateSession(context.Background(), resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)

	// A deactivated account is rejected before the token expires.
	user.Active = false
	_, err = svc.ValidateSession(context.Background(), resp.AccessToken)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)

	// So is one that no longer exists.
	delete(repo.usersByID, "user-1")
	_, err = svc.ValidateSession(context.Background(), resp.AccessToken)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/techmatch/techmatch-api/internal/dto"
	"github.com/techmatch/techmatch-api/internal/models"
	"github.com/techmatch/techmatch-api/pkg/clock"
	appErrors "github.com/techmatch/techmatch-api/pkg/errors"
)

type userRepoStub struct {
	users       map[string]*models.User
	technicians map[string]*models.TechnicianProfile
	businesses  map[string]*models.BusinessProfile
	setActive   []string
	revoked     []string
}

func newUserRepoStub(users ...*models.User) *userRepoStub {
	stub := &userRepoStub{
		users:       make(map[string]*models.User),
		technicians: make(map[string]*models.TechnicianProfile),
		businesses:  make(map[string]*models.BusinessProfile),
	}
	for _, user := range users {
		stub.users[user.ID] = user
	}
	return stub
}

func (s *userRepoStub) FindByID(ctx context.Context, id string) (*models.User, error) {
	if user, ok := s.users[id]; ok {
		return user, nil
	}
	return nil, sql.ErrNoRows
}

func (s *userRepoStub) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	return nil, 0, nil
}

func (s *userRepoStub) SetActive(ctx context.Context, id string, active bool, updatedAt time.Time) error {
	if _, ok := s.users[id]; !ok {
		return sql.ErrNoRows
	}
	s.setActive = append(s.setActive, id)
	return nil
}

func (s *userRepoStub) RevokeUserRefreshTokens(ctx context.Context, userID string) error {
	s.revoked = append(s.revoked, userID)
	return nil
}

func (s *userRepoStub) UpsertTechnicianProfile(ctx context.Context, profile *models.TechnicianProfile) error {
	s.technicians[profile.UserID] = profile
	return nil
}

func (s *userRepoStub) GetTechnicianProfile(ctx context.Context, userID string) (*models.TechnicianProfile, error) {
	if profile, ok := s.technicians[userID]; ok {
		return profile, nil
	}
	return nil, sql.ErrNoRows
}

func (s *userRepoStub) UpsertBusinessProfile(ctx context.Context, profile *models.BusinessProfile) error {
	s.businesses[profile.UserID] = profile
	return nil
}

func (s *userRepoStub) GetBusinessProfile(ctx context.Context, userID string) (*models.BusinessProfile, error) {
	if profile, ok := s.businesses[userID]; ok {
		return profile, nil
	}
	return nil, sql.ErrNoRows
}

func newUserTestService(repo *userRepoStub) *UserService {
	return NewUserService(repo, clock.NewFake(time.Unix(1_700_000_000, 0)), nil)
}

func TestUserProfileIncludesRoleProfile(t *testing.T) {
	repo := newUserRepoStub(&models.User{ID: "tech-1", Email: "tech@example.com", Role: models.RoleTechnician})
	repo.technicians["tech-1"] = &models.TechnicianProfile{UserID: "tech-1", FullName: "Jonathan Smith"}
	svc := newUserTestService(repo)

	view, err := svc.Profile(context.Background(), "tech-1")
	require.NoError(t, err)
	require.NotNil(t, view.Technician)
	assert.Equal(t, "Jonathan Smith", view.Technician.FullName)
	assert.Nil(t, view.Business)
}

func TestUserProfileWithoutRoleProfile(t *testing.T) {
	repo := newUserRepoStub(&models.User{ID: "biz-1", Email: "biz@example.com", Role: models.RoleBusiness})
	svc := newUserTestService(repo)

	view, err := svc.Profile(context.Background(), "biz-1")
	require.NoError(t, err)
	assert.Nil(t, view.Business)
}

func TestUserUpdateTechnicianProfileWrongRole(t *testing.T) {
	repo := newUserRepoStub(&models.User{ID: "biz-1", Email: "biz@example.com", Role: models.RoleBusiness})
	svc := newUserTestService(repo)

	err := svc.UpdateTechnicianProfile(context.Background(), "biz-1", dto.UpdateTechnicianProfileRequest{FullName: "X"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestUserSetActiveBlocksSelfDeactivation(t *testing.T) {
	repo := newUserRepoStub(&models.User{ID: "admin-1", Role: models.RoleAdmin})
	svc := newUserTestService(repo)

	err := svc.SetActive(context.Background(), "admin-1", "admin-1", false)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.setActive)
}

func TestUserSetActiveMissingTarget(t *testing.T) {
	repo := newUserRepoStub()
	svc := newUserTestService(repo)

	err := svc.SetActive(context.Background(), "user-404", "admin-1", false)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestUserSetActiveDeactivationRevokesSessions(t *testing.T) {
	repo := newUserRepoStub(&models.User{ID: "tech-1", Role: models.RoleTechnician, Active: true})
	svc := newUserTestService(repo)

	require.NoError(t, svc.SetActive(context.Background(), "tech-1", "admin-1", false))
	assert.Equal(t, []string{"tech-1"}, repo.revoked)
}

func TestUserSetActiveReactivationKeepsSessions(t *testing.T) {
	repo := newUserRepoStub(&models.User{ID: "tech-1", Role: models.RoleTechnician})
	svc := newUserTestService(repo)

	require.NoError(t, svc.SetActive(context.Background(), "tech-1", "admin-1", true))
	assert.Empty(t, repo.revoked)
}

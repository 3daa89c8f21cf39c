package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/techmatch/techmatch-api/internal/dto"
	"github.com/techmatch/techmatch-api/internal/models"
	"github.com/techmatch/techmatch-api/pkg/clock"
	appErrors "github.com/techmatch/techmatch-api/pkg/errors"
)

type userRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	SetActive(ctx context.Context, id string, active bool, updatedAt time.Time) error
	RevokeUserRefreshTokens(ctx context.Context, userID string) error
	UpsertTechnicianProfile(ctx context.Context, profile *models.TechnicianProfile) error
	GetTechnicianProfile(ctx context.Context, userID string) (*models.TechnicianProfile, error)
	UpsertBusinessProfile(ctx context.Context, profile *models.BusinessProfile) error
	GetBusinessProfile(ctx context.Context, userID string) (*models.BusinessProfile, error)
}

// UserService exposes account profiles and admin account management.
type UserService struct {
	repo   userRepository
	clock  clock.Clock
	logger *zap.Logger
}

// NewUserService constructs the service.
func NewUserService(repo userRepository, clk clock.Clock, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clk == nil {
		clk = clock.System()
	}
	return &UserService{repo: repo, clock: clk, logger: logger}
}

// Get loads a user by id.
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	return user, nil
}

// Profile assembles the caller's account with their role profile.
func (s *UserService) Profile(ctx context.Context, userID string) (*dto.ProfileView, error) {
	user, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	view := &dto.ProfileView{User: models.UserInfo{
		ID:       user.ID,
		Email:    user.Email,
		Role:     user.Role,
		Verified: user.Verified,
	}}

	switch user.Role {
	case models.RoleTechnician:
		profile, err := s.repo.GetTechnicianProfile(ctx, userID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load profile")
		}
		view.Technician = profile
	case models.RoleBusiness:
		profile, err := s.repo.GetBusinessProfile(ctx, userID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load profile")
		}
		view.Business = profile
	}
	return view, nil
}

// UpdateTechnicianProfile upserts the caller's technician profile.
func (s *UserService) UpdateTechnicianProfile(ctx context.Context, userID string, req dto.UpdateTechnicianProfileRequest) error {
	user, err := s.Get(ctx, userID)
	if err != nil {
		return err
	}
	if user.Role != models.RoleTechnician {
		return appErrors.Clone(appErrors.ErrForbidden, "only technician accounts have a technician profile")
	}

	profile := &models.TechnicianProfile{
		UserID:   userID,
		FullName: req.FullName,
		Skills:   req.Skills,
	}
	if req.Bio != "" {
		profile.Bio = &req.Bio
	}
	if err := s.repo.UpsertTechnicianProfile(ctx, profile); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save profile")
	}
	return nil
}

// UpdateBusinessProfile upserts the caller's business profile.
func (s *UserService) UpdateBusinessProfile(ctx context.Context, userID string, req dto.UpdateBusinessProfileRequest) error {
	user, err := s.Get(ctx, userID)
	if err != nil {
		return err
	}
	if user.Role != models.RoleBusiness {
		return appErrors.Clone(appErrors.ErrForbidden, "only business accounts have a business profile")
	}

	profile := &models.BusinessProfile{
		UserID:                 userID,
		CompanyName:            req.CompanyName,
		RegistrationIdentifier: req.RegistrationIdentifier,
	}
	if err := s.repo.UpsertBusinessProfile(ctx, profile); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save profile")
	}
	return nil
}

// List returns accounts matching the filter, for the admin dashboard.
func (s *UserService) List(ctx context.Context, filter models.UserFilter) ([]models.User, *models.Pagination, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 || filter.PageSize > 100 {
		filter.PageSize = 20
	}
	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list users")
	}
	return users, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// SetActive soft-deactivates or reactivates an account. Admin accounts
// cannot deactivate themselves.
func (s *UserService) SetActive(ctx context.Context, targetID, adminID string, active bool) error {
	if targetID == adminID && !active {
		return appErrors.Clone(appErrors.ErrValidation, "you cannot deactivate your own account")
	}
	if err := s.repo.SetActive(ctx, targetID, active, s.clock.Now()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update account")
	}
	if !active {
		if err := s.repo.RevokeUserRefreshTokens(ctx, targetID); err != nil {
			s.logger.Warn("failed to revoke refresh tokens for deactivated account",
				zap.String("user_id", targetID), zap.Error(err))
		}
	}
	return nil
}

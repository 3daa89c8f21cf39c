package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/techmatch/techmatch-api/internal/models"
	"github.com/techmatch/techmatch-api/pkg/clock"
	appErrors "github.com/techmatch/techmatch-api/pkg/errors"
)

type notificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	ListForUser(ctx context.Context, userID string, unreadOnly bool, limit int) ([]models.Notification, error)
	CountUnread(ctx context.Context, userID string) (int, error)
	MarkRead(ctx context.Context, id, userID string, now time.Time) error
	MarkAllRead(ctx context.Context, userID string, now time.Time) error
}

type adminLister interface {
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
}

// NotificationService writes and reads per-user inbox entries. Writes are
// fire-and-forget from the caller's perspective: a notification failure is
// logged and never aborts the triggering operation.
type NotificationService struct {
	repo   notificationRepository
	users  adminLister
	clock  clock.Clock
	logger *zap.Logger
}

// NewNotificationService constructs the service.
func NewNotificationService(repo notificationRepository, users adminLister, clk clock.Clock, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clk == nil {
		clk = clock.System()
	}
	return &NotificationService{repo: repo, users: users, clock: clk, logger: logger}
}

// NotifyUser appends an inbox entry for one user.
func (s *NotificationService) NotifyUser(ctx context.Context, userID string, ntype models.NotificationType, message string) {
	n := &models.Notification{
		UserID:    userID,
		Type:      ntype,
		Message:   message,
		CreatedAt: s.clock.Now(),
	}
	if err := s.repo.Create(ctx, n); err != nil {
		s.logger.Warn("failed to create notification",
			zap.String("user_id", userID),
			zap.String("type", string(ntype)),
			zap.Error(err))
	}
}

// NotifyAdmins fans a message out to every active admin account.
func (s *NotificationService) NotifyAdmins(ctx context.Context, ntype models.NotificationType, message string) {
	role := models.RoleAdmin
	active := true
	admins, _, err := s.users.List(ctx, models.UserFilter{Role: &role, Active: &active})
	if err != nil {
		s.logger.Warn("failed to list admins for notification", zap.Error(err))
		return
	}
	for _, admin := range admins {
		s.NotifyUser(ctx, admin.ID, ntype, message)
	}
}

// ListForUser returns the caller's inbox.
func (s *NotificationService) ListForUser(ctx context.Context, userID string, unreadOnly bool, limit int) ([]models.Notification, error) {
	notifications, err := s.repo.ListForUser(ctx, userID, unreadOnly, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notifications")
	}
	return notifications, nil
}

// CountUnread returns the caller's unread badge count.
func (s *NotificationService) CountUnread(ctx context.Context, userID string) (int, error) {
	count, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count notifications")
	}
	return count, nil
}

// MarkRead marks one notification owned by the caller as read.
func (s *NotificationService) MarkRead(ctx context.Context, id, userID string) error {
	if err := s.repo.MarkRead(ctx, id, userID, s.clock.Now()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "notification not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark notification read")
	}
	return nil
}

// MarkAllRead marks the caller's whole inbox as read.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) error {
	if err := s.repo.MarkAllRead(ctx, userID, s.clock.Now()); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark notifications read")
	}
	return nil
}

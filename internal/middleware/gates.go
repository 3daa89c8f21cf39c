package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/techmatch/techmatch-api/internal/models"
	"github.com/techmatch/techmatch-api/pkg/clock"
	appErrors "github.com/techmatch/techmatch-api/pkg/errors"
	"github.com/techmatch/techmatch-api/pkg/response"
)

// VerificationStatusSource exposes the latest verification request for a
// user. Gates consult it together with the clock; they hold no state of
// their own.
type VerificationStatusSource interface {
	LatestFor(ctx context.Context, userID string) (*models.VerificationRequest, error)
}

// RequireVerified blocks technician and business accounts whose latest
// verification request is not APPROVED. Admins pass through.
func RequireVerified(source VerificationStatusSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := currentClaims(c)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if claims.Role == models.RoleAdmin {
			c.Next()
			return
		}

		latest, err := source.LatestFor(c.Request.Context(), claims.UserID)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}
		if latest == nil || latest.Status != models.VerificationStatusApproved {
			response.Error(c, appErrors.ErrPendingReview)
			c.Abort()
			return
		}
		c.Next()
	}
}

// PendingOnly is the inverse gate: it admits only accounts that are not yet
// verified, keeping already-approved users off the onboarding endpoints.
func PendingOnly(source VerificationStatusSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := currentClaims(c)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		latest, err := source.LatestFor(c.Request.Context(), claims.UserID)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}
		if latest != nil && latest.Status == models.VerificationStatusApproved {
			response.Error(c, appErrors.Clone(appErrors.ErrConflict, "account is already verified"))
			c.Abort()
			return
		}
		c.Next()
	}
}

// CooldownGuard rejects submissions while the caller's latest request is
// still blocking: PENDING, or REJECTED inside its cooldown window.
func CooldownGuard(source VerificationStatusSource, clk clock.Clock) gin.HandlerFunc {
	if clk == nil {
		clk = clock.System()
	}
	return func(c *gin.Context) {
		claims, ok := currentClaims(c)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		latest, err := source.LatestFor(c.Request.Context(), claims.UserID)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}
		if latest != nil && latest.IsBlocking(clk.Now()) {
			response.Error(c, appErrors.Clone(appErrors.ErrConflict, "a verification request is already in progress"))
			c.Abort()
			return
		}
		c.Next()
	}
}

func currentClaims(c *gin.Context) (*models.JWTClaims, bool) {
	claimsValue, exists := c.Get(ContextUserKey)
	if !exists {
		return nil, false
	}
	claims, ok := claimsValue.(*models.JWTClaims)
	return claims, ok
}

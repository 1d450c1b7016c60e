package middleware

import (
	"errors"
	"net/http"
	"slices"

	"github.com/bizdesk/backend/internal/domain/identity"
	"github.com/bizdesk/backend/internal/domain/shared"
	"github.com/bizdesk/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RoleGuard authorizes requests against current database state
type RoleGuard struct {
	memberships identity.MembershipRepository
	users       identity.UserRepository
	logger      *zap.Logger
}

// NewRoleGuard creates a new RoleGuard
func NewRoleGuard(memberships identity.MembershipRepository, users identity.UserRepository, logger *zap.Logger) *RoleGuard {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RoleGuard{memberships: memberships, users: users, logger: logger}
}

// RequireCompanyRole requires a membership in the token's company. With no
// roles any member passes. The role is re-read from the database so that a
// demotion or removal applies to tokens already issued.
func (g *RoleGuard) RequireCompanyRole(roles ...identity.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err1 := uuid.Parse(GetUserID(c))
		companyID, err2 := uuid.Parse(GetCompanyID(c))
		if err1 != nil || err2 != nil || companyID == uuid.Nil {
			abortForbidden(c, "No active company for this session")
			return
		}

		membership, err := g.memberships.Find(c.Request.Context(), userID, companyID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				abortForbidden(c, "You are not a member of this company")
				return
			}
			g.logger.Error("Failed to load membership",
				zap.String("user_id", userID.String()),
				zap.String("company_id", companyID.String()),
				zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError,
				dto.NewErrorResponseWithRequestID(dto.ErrCodeInternal, "An unexpected error occurred", GetRequestID(c)))
			return
		}

		if len(roles) > 0 && !slices.Contains(roles, membership.Role) {
			g.logger.Debug("Company role check failed",
				zap.String("user_id", userID.String()),
				zap.String("role", string(membership.Role)))
			abortForbidden(c, "This action requires the "+string(roles[0])+" role")
			return
		}

		c.Set(JWTRoleKey, string(membership.Role))
		c.Next()
	}
}

// RequirePlatformAdmin requires the caller to be a platform ADMIN
func (g *RoleGuard) RequirePlatformAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := uuid.Parse(GetUserID(c))
		if err != nil {
			abortForbidden(c, "Platform administrator access required")
			return
		}

		user, err := g.users.FindByID(c.Request.Context(), userID)
		if err != nil {
			if !errors.Is(err, shared.ErrNotFound) {
				g.logger.Error("Failed to load user", zap.String("user_id", userID.String()), zap.Error(err))
			}
			abortForbidden(c, "Platform administrator access required")
			return
		}
		if !user.IsActive || !user.IsPlatformAdmin() {
			abortForbidden(c, "Platform administrator access required")
			return
		}

		c.Set(JWTPlatformRoleKey, string(user.PlatformRole))
		c.Next()
	}
}

// RequireResolvedRole checks the role stored by RequireCompanyRole earlier
// in the chain, without another database read.
func RequireResolvedRole(roles ...identity.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := identity.Role(GetCompanyRole(c))
		if role == "" || !slices.Contains(roles, role) {
			abortForbidden(c, "This action requires the "+string(roles[0])+" role")
			return
		}
		c.Next()
	}
}

func abortForbidden(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusForbidden, dto.NewErrorResponseWithRequestID(dto.ErrCodeForbidden, message, GetRequestID(c)))
}

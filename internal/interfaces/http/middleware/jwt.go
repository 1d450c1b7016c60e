package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/bizdesk/backend/internal/infrastructure/auth"
	"github.com/bizdesk/backend/internal/infrastructure/logger"
	"github.com/bizdesk/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// JWT context keys
const (
	JWTClaimsKey       = "jwt_claims"
	JWTUserIDKey       = "jwt_user_id"
	JWTCompanyIDKey    = "jwt_company_id"
	JWTRoleKey         = "jwt_role"
	JWTPlatformRoleKey = "jwt_platform_role"
	AuthHeaderKey      = "Authorization"
	BearerPrefix       = "Bearer "

	// AccessTokenCookie carries the access token for browser clients
	AccessTokenCookie = "access_token"
	// RefreshTokenCookie carries the refresh token, scoped to /api/v1/auth
	RefreshTokenCookie = "refresh_token"
)

// JWTMiddlewareConfig holds configuration for JWT middleware
type JWTMiddlewareConfig struct {
	// JWTService is required for token validation
	JWTService *auth.JWTService
	// TokenBlacklist is optional for checking revoked tokens
	TokenBlacklist auth.TokenBlacklist
	Logger         *zap.Logger
}

// JWTAuth authenticates the request with a bearer token or the access
// token cookie, rejecting tokens revoked by logout or password change.
func JWTAuth(cfg JWTMiddlewareConfig) gin.HandlerFunc {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		tokenString, err := extractToken(c)
		if err != nil {
			abortAuth(c, log, err)
			return
		}

		claims, err := cfg.JWTService.ValidateAccessToken(tokenString)
		if err != nil {
			abortAuth(c, log, err)
			return
		}

		if cfg.TokenBlacklist != nil {
			ctx := c.Request.Context()

			if claims.ID != "" {
				revoked, err := cfg.TokenBlacklist.IsRevoked(ctx, claims.ID)
				if err != nil {
					// fail open: Redis outages must not lock everyone out
					log.Error("Failed to check token blacklist",
						zap.String("jti", claims.ID),
						zap.Error(err))
				} else if revoked {
					abortAuth(c, log, auth.ErrTokenRevoked)
					return
				}
			}

			revoked, err := cfg.TokenBlacklist.IsUserTokenRevoked(ctx, claims.UserID, claims.GetIssuedAtTime())
			if err != nil {
				log.Error("Failed to check user token revocation",
					zap.String("user_id", claims.UserID),
					zap.Error(err))
			} else if revoked {
				abortAuth(c, log, auth.ErrTokenRevoked)
				return
			}
		}

		setClaims(c, claims)

		ctx := c.Request.Context()
		l := logger.FromContext(ctx)
		ctx, l = logger.WithUserID(ctx, l, claims.UserID)
		if claims.CompanyID != "" {
			ctx, l = logger.WithCompanyID(ctx, l, claims.CompanyID)
		}
		c.Request = c.Request.WithContext(ctx)
		logger.SetGinLogger(c, l)

		c.Next()
	}
}

func extractToken(c *gin.Context) (string, error) {
	if header := c.GetHeader(AuthHeaderKey); header != "" {
		if !strings.HasPrefix(header, BearerPrefix) {
			return "", auth.ErrInvalidToken
		}
		token := strings.TrimSpace(strings.TrimPrefix(header, BearerPrefix))
		if token == "" {
			return "", auth.ErrInvalidToken
		}
		return token, nil
	}
	if token, err := c.Cookie(AccessTokenCookie); err == nil && token != "" {
		return token, nil
	}
	return "", errMissingToken
}

var errMissingToken = errors.New("missing access token")

func setClaims(c *gin.Context, claims *auth.Claims) {
	c.Set(JWTClaimsKey, claims)
	c.Set(JWTUserIDKey, claims.UserID)
	c.Set(JWTCompanyIDKey, claims.CompanyID)
	c.Set(JWTRoleKey, claims.Role)
	c.Set(JWTPlatformRoleKey, claims.PlatformRole)
}

func abortAuth(c *gin.Context, log *zap.Logger, err error) {
	code, message := dto.ErrCodeUnauthorized, "Authentication required"
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		code, message = dto.ErrCodeTokenExpired, "Token has expired"
	case errors.Is(err, auth.ErrTokenRevoked):
		code, message = dto.ErrCodeTokenRevoked, "Token has been revoked"
	case errors.Is(err, errMissingToken):
	default:
		code, message = dto.ErrCodeTokenInvalid, "Invalid token"
	}

	log.Debug("JWT authentication failed",
		zap.Error(err),
		zap.String("path", c.Request.URL.Path))

	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponseWithRequestID(code, message, GetRequestID(c)))
}

// GetJWTClaims retrieves JWT claims from gin.Context
func GetJWTClaims(c *gin.Context) *auth.Claims {
	if claims, exists := c.Get(JWTClaimsKey); exists {
		if jwtClaims, ok := claims.(*auth.Claims); ok {
			return jwtClaims
		}
	}
	return nil
}

// GetUserID returns the authenticated user ID, or "" before JWTAuth
func GetUserID(c *gin.Context) string {
	return c.GetString(JWTUserIDKey)
}

// GetCompanyID returns the active company ID from the token, or ""
func GetCompanyID(c *gin.Context) string {
	return c.GetString(JWTCompanyIDKey)
}

// GetCompanyRole returns the caller's role in the active company. After
// RequireCompanyRole it reflects the database, not the token.
func GetCompanyRole(c *gin.Context) string {
	return c.GetString(JWTRoleKey)
}

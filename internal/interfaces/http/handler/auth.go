package handler

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bizdesk/backend/internal/application/identity"
	"github.com/bizdesk/backend/internal/domain/shared"
	"github.com/bizdesk/backend/internal/infrastructure/auth"
	"github.com/bizdesk/backend/internal/infrastructure/config"
	"github.com/bizdesk/backend/internal/infrastructure/logger"
	"github.com/bizdesk/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// RefreshCookiePath scopes the refresh cookie to the auth endpoints
	RefreshCookiePath = "/api/v1/auth"
	// OAuthStateCookie holds the Google sign-in state between redirect and callback
	OAuthStateCookie = "oauth_state"

	oauthStateTTL = 10 * time.Minute
)

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	BaseHandler
	authService *identity.AuthService
	cookies     config.CookieConfig
	frontendURL string
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *identity.AuthService, cookies config.CookieConfig, frontendURL string) *AuthHandler {
	if cookies.Path == "" {
		cookies.Path = "/"
	}
	return &AuthHandler{
		authService: authService,
		cookies:     cookies,
		frontendURL: strings.TrimRight(frontendURL, "/"),
	}
}

// Register godoc
// @Summary      Sign up
// @Description  Create a user together with a new company owned by that user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body RegisterRequest true "Sign-up data"
// @Success      201 {object} dto.Response{data=AuthResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.authService.Register(c.Request.Context(), identity.RegisterInput{
		Email:       req.Email,
		Password:    req.Password,
		Name:        req.Name,
		CompanyName: req.CompanyName,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.setSessionCookies(c, result.Tokens)
	h.Created(c, newAuthResponse(result))
}

// Login godoc
// @Summary      User login
// @Description  Authenticate with email and password. company_id selects the membership to act in.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body LoginRequest true "Login credentials"
// @Success      200 {object} dto.Response{data=AuthResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !h.bindJSON(c, &req) {
		return
	}

	input := identity.LoginInput{Email: req.Email, Password: req.Password}
	if req.CompanyID != "" {
		companyID, err := uuid.Parse(req.CompanyID)
		if err != nil {
			h.BadRequest(c, "Invalid company_id format")
			return
		}
		input.CompanyID = &companyID
	}

	result, err := h.authService.Login(c.Request.Context(), input)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.setSessionCookies(c, result.Tokens)
	h.Success(c, newAuthResponse(result))
}

// RefreshToken godoc
// @Summary      Refresh access token
// @Description  Exchange a refresh token (body or refresh_token cookie) for a new token pair
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body RefreshTokenRequest false "Refresh token"
// @Success      200 {object} dto.Response{data=AuthResponse}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /auth/refresh [post]
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req RefreshTokenRequest
	if c.Request.ContentLength > 0 && !h.bindJSON(c, &req) {
		return
	}

	token := req.RefreshToken
	if token == "" {
		token, _ = c.Cookie(middleware.RefreshTokenCookie)
	}
	if token == "" {
		h.Unauthorized(c, "Refresh token is required")
		return
	}

	result, err := h.authService.RefreshToken(c.Request.Context(), token)
	if err != nil {
		h.clearSessionCookies(c)
		h.HandleError(c, err)
		return
	}

	h.setSessionCookies(c, result.Tokens)
	h.Success(c, newAuthResponse(result))
}

// Logout godoc
// @Summary      User logout
// @Description  Revoke the current access token and refresh token and clear the session cookies
// @Tags         auth
// @Produce      json
// @Success      200 {object} dto.Response{data=MessageData}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := middleware.GetJWTClaims(c)
	if claims == nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	userID, err := claims.GetUserUUID()
	if err != nil {
		h.Unauthorized(c, "Invalid user ID in token")
		return
	}

	refreshToken, _ := c.Cookie(middleware.RefreshTokenCookie)
	err = h.authService.Logout(c.Request.Context(), identity.LogoutInput{
		UserID:       userID,
		AccessJTI:    claims.ID,
		AccessTTL:    claims.GetRemainingTTL(),
		RefreshToken: refreshToken,
	})
	h.clearSessionCookies(c)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, MessageData{Message: "Logged out successfully"})
}

// GetCurrentUser godoc
// @Summary      Get current user
// @Description  The authenticated user, the active company and every membership
// @Tags         auth
// @Produce      json
// @Success      200 {object} dto.Response{data=identity.CurrentUserResult}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /auth/me [get]
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	companyID, _ := getCompanyID(c)

	result, err := h.authService.GetCurrentUser(c.Request.Context(), userID, companyID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// ChangePassword godoc
// @Summary      Change password
// @Description  Change the password. Previously issued tokens stop working; a fresh pair is returned.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body ChangePasswordRequest true "Password change request"
// @Success      200 {object} dto.Response{data=AuthResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /auth/password [put]
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	var req ChangePasswordRequest
	if !h.bindJSON(c, &req) {
		return
	}
	companyID, _ := getCompanyID(c)

	result, err := h.authService.ChangePassword(c.Request.Context(), identity.ChangePasswordInput{
		UserID:      userID,
		CompanyID:   companyID,
		OldPassword: req.OldPassword,
		NewPassword: req.NewPassword,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.setSessionCookies(c, result.Tokens)
	h.Success(c, newAuthResponse(result))
}

// SwitchCompany godoc
// @Summary      Switch active company
// @Description  Issue tokens for another company the user belongs to
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body SwitchCompanyRequest true "Target company"
// @Success      200 {object} dto.Response{data=AuthResponse}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /auth/switch-company [post]
func (h *AuthHandler) SwitchCompany(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	var req SwitchCompanyRequest
	if !h.bindJSON(c, &req) {
		return
	}
	companyID, err := uuid.Parse(req.CompanyID)
	if err != nil {
		h.BadRequest(c, "Invalid company_id format")
		return
	}

	result, err := h.authService.SwitchCompany(c.Request.Context(), userID, companyID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.setSessionCookies(c, result.Tokens)
	h.Success(c, newAuthResponse(result))
}

// GoogleLogin godoc
// @Summary      Start Google sign-in
// @Description  Redirects to Google's consent screen
// @Tags         auth
// @Success      307
// @Failure      503 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /auth/google [get]
func (h *AuthHandler) GoogleLogin(c *gin.Context) {
	authURL, state, err := h.authService.GoogleAuthURL()
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.setCookie(c, OAuthStateCookie, state, int(oauthStateTTL.Seconds()), RefreshCookiePath+"/google")
	c.Redirect(http.StatusTemporaryRedirect, authURL)
}

// GoogleCallback godoc
// @Summary      Google sign-in callback
// @Description  Validates state, signs the user in and redirects to the frontend
// @Tags         auth
// @Param        code  query string true "Authorization code"
// @Param        state query string true "OAuth state"
// @Success      307
// @Router       /auth/google/callback [get]
func (h *AuthHandler) GoogleCallback(c *gin.Context) {
	expected, _ := c.Cookie(OAuthStateCookie)
	h.setCookie(c, OAuthStateCookie, "", -1, RefreshCookiePath+"/google")

	if c.Query("error") != "" {
		h.redirectWithError(c, "access_denied")
		return
	}
	state := c.Query("state")
	if expected == "" || state != expected {
		logger.L(c.Request.Context()).Warn("OAuth state mismatch")
		h.redirectWithError(c, "invalid_state")
		return
	}
	code := c.Query("code")
	if code == "" {
		h.redirectWithError(c, "missing_code")
		return
	}

	result, err := h.authService.LoginWithGoogle(c.Request.Context(), code)
	if err != nil {
		reason := "oauth_failed"
		var domainErr *shared.DomainError
		if errors.As(err, &domainErr) {
			reason = strings.ToLower(domainErr.Code)
		} else {
			logger.L(c.Request.Context()).Error("Google sign-in failed", zap.Error(err))
		}
		h.redirectWithError(c, reason)
		return
	}

	h.setSessionCookies(c, result.Tokens)
	c.Redirect(http.StatusTemporaryRedirect, h.frontendURL+"/auth/callback")
}

func (h *AuthHandler) redirectWithError(c *gin.Context, reason string) {
	c.Redirect(http.StatusTemporaryRedirect, h.frontendURL+"/login?error="+url.QueryEscape(reason))
}

func (h *AuthHandler) setSessionCookies(c *gin.Context, tokens *auth.TokenPair) {
	if tokens == nil {
		return
	}
	now := time.Now()
	h.setCookie(c, middleware.AccessTokenCookie, tokens.AccessToken,
		int(tokens.AccessTokenExpiresAt.Sub(now).Seconds()), h.cookies.Path)
	h.setCookie(c, middleware.RefreshTokenCookie, tokens.RefreshToken,
		int(tokens.RefreshTokenExpiresAt.Sub(now).Seconds()), RefreshCookiePath)
}

func (h *AuthHandler) clearSessionCookies(c *gin.Context) {
	h.setCookie(c, middleware.AccessTokenCookie, "", -1, h.cookies.Path)
	h.setCookie(c, middleware.RefreshTokenCookie, "", -1, RefreshCookiePath)
}

func (h *AuthHandler) setCookie(c *gin.Context, name, value string, maxAge int, path string) {
	c.SetSameSite(sameSiteMode(h.cookies.SameSite))
	c.SetCookie(name, value, maxAge, path, h.cookies.Domain, h.cookies.Secure, true)
}

func sameSiteMode(s string) http.SameSite {
	switch strings.ToLower(s) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

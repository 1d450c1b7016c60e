package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bizdesk/backend/internal/infrastructure/auth"
	"github.com/bizdesk/backend/internal/infrastructure/config"
	"github.com/bizdesk/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type stubBlacklist struct {
	revokedJTI  string
	revokedUser bool
	err         error
}

func (b *stubBlacklist) Revoke(context.Context, string, time.Duration) error { return nil }

func (b *stubBlacklist) IsRevoked(_ context.Context, jti string) (bool, error) {
	return jti == b.revokedJTI, b.err
}

func (b *stubBlacklist) RevokeUserTokens(context.Context, string, time.Duration) error { return nil }

func (b *stubBlacklist) IsUserTokenRevoked(context.Context, string, time.Time) (bool, error) {
	return b.revokedUser, b.err
}

func newTestJWTService() *auth.JWTService {
	return auth.NewJWTService(config.JWTConfig{
		Secret:                 "test-secret-key-with-at-least-32-chars!",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: time.Hour,
		Issuer:                 "bizdesk-test",
	})
}

func issueToken(t *testing.T, svc *auth.JWTService, userID, companyID uuid.UUID, role string) *auth.TokenPair {
	t.Helper()
	pair, err := svc.GenerateTokenPair(auth.GenerateTokenInput{
		UserID:       userID,
		Email:        "owner@acme.test",
		CompanyID:    companyID,
		Role:         role,
		PlatformRole: "USER",
	})
	require.NoError(t, err)
	return pair
}

func newJWTRouter(t *testing.T, svc *auth.JWTService, bl auth.TokenBlacklist) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(), JWTAuth(JWTMiddlewareConfig{JWTService: svc, TokenBlacklist: bl, Logger: zaptest.NewLogger(t)}))
	r.GET("/me", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user_id":    GetUserID(c),
			"company_id": GetCompanyID(c),
			"role":       GetCompanyRole(c),
		})
	})
	return r
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) *dto.ErrorInfo {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	return resp.Error
}

func TestJWTAuth_AcceptsBearerAndCookie(t *testing.T) {
	svc := newTestJWTService()
	userID, companyID := uuid.New(), uuid.New()
	pair := issueToken(t, svc, userID, companyID, "OWNER")
	r := newJWTRouter(t, svc, nil)

	t.Run("bearer header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"user_id":"`+userID.String()+`","company_id":"`+companyID.String()+`","role":"OWNER"}`, w.Body.String())
	})

	t.Run("cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: pair.AccessToken})
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestJWTAuth_Rejections(t *testing.T) {
	svc := newTestJWTService()
	pair := issueToken(t, svc, uuid.New(), uuid.New(), "EMPLOYEE")

	tests := []struct {
		name   string
		header string
		code   string
	}{
		{"missing token", "", dto.ErrCodeUnauthorized},
		{"not bearer", "Basic abc", dto.ErrCodeTokenInvalid},
		{"garbage", "Bearer not-a-jwt", dto.ErrCodeTokenInvalid},
		{"refresh token used as access", "Bearer " + pair.RefreshToken, dto.ErrCodeTokenInvalid},
	}

	r := newJWTRouter(t, svc, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			errInfo := decodeError(t, w)
			assert.Equal(t, tt.code, errInfo.Code)
			assert.NotEmpty(t, errInfo.RequestID)
		})
	}
}

func TestJWTAuth_Expired(t *testing.T) {
	svc := auth.NewJWTService(config.JWTConfig{
		Secret:                "test-secret-key-with-at-least-32-chars!",
		AccessTokenExpiration: -time.Minute,
		Issuer:                "bizdesk-test",
	})
	pair := issueToken(t, svc, uuid.New(), uuid.New(), "OWNER")

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	w := httptest.NewRecorder()
	newJWTRouter(t, svc, nil).ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, dto.ErrCodeTokenExpired, decodeError(t, w).Code)
}

func TestJWTAuth_Blacklist(t *testing.T) {
	svc := newTestJWTService()
	pair := issueToken(t, svc, uuid.New(), uuid.New(), "OWNER")
	claims, err := svc.ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)

	tests := []struct {
		name   string
		bl     *stubBlacklist
		status int
	}{
		{"jti revoked by logout", &stubBlacklist{revokedJTI: claims.ID}, http.StatusUnauthorized},
		{"all user tokens revoked", &stubBlacklist{revokedUser: true}, http.StatusUnauthorized},
		{"not revoked", &stubBlacklist{}, http.StatusOK},
		{"store unavailable fails open", &stubBlacklist{revokedUser: true, err: errors.New("redis down")}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
			w := httptest.NewRecorder()
			newJWTRouter(t, svc, tt.bl).ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusUnauthorized {
				assert.Equal(t, dto.ErrCodeTokenRevoked, decodeError(t, w).Code)
			}
		})
	}
}

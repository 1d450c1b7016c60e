package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/bizdesk/backend/internal/application/identity"
	domainidentity "github.com/bizdesk/backend/internal/domain/identity"
	"github.com/bizdesk/backend/internal/domain/shared"
	"github.com/bizdesk/backend/internal/infrastructure/auth"
	"github.com/bizdesk/backend/internal/infrastructure/config"
	"github.com/bizdesk/backend/internal/interfaces/http/middleware"
	"github.com/bizdesk/backend/tests/testutil"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const testFrontendURL = "https://app.bizdesk.test"

type stubGoogle struct {
	err error
}

func (g *stubGoogle) AuthCodeURL(state string) string {
	return "https://accounts.google.test/o/oauth2/auth?state=" + state
}

func (g *stubGoogle) FetchUser(context.Context, string) (*auth.GoogleUser, error) {
	return nil, g.err
}

type authFixture struct {
	users       *testutil.MockUserRepository
	memberships *testutil.MockMembershipRepository
	router      *gin.Engine
}

func newAuthFixture(t *testing.T, google identity.GoogleProvider) *authFixture {
	t.Helper()
	f := &authFixture{
		users:       new(testutil.MockUserRepository),
		memberships: new(testutil.MockMembershipRepository),
	}
	service := identity.NewAuthService(identity.AuthServiceDeps{
		UserRepo:       f.users,
		MembershipRepo: f.memberships,
		JWTService: auth.NewJWTService(config.JWTConfig{
			Secret:                 "handler-test-secret-at-least-32-chars",
			AccessTokenExpiration:  15 * time.Minute,
			RefreshTokenExpiration: 24 * time.Hour,
			Issuer:                 "bizdesk-test",
			MaxRefreshCount:        5,
		}),
		Blacklist: auth.NewInMemoryTokenBlacklist(),
		Google:    google,
		Logger:    zaptest.NewLogger(t),
	})
	h := NewAuthHandler(service, config.CookieConfig{SameSite: "strict"}, testFrontendURL+"/")

	f.router = gin.New()
	f.router.POST("/api/v1/auth/login", h.Login)
	f.router.POST("/api/v1/auth/refresh", h.RefreshToken)
	f.router.POST("/api/v1/auth/logout", h.Logout)
	f.router.GET("/api/v1/auth/google", h.GoogleLogin)
	f.router.GET("/api/v1/auth/google/callback", h.GoogleCallback)
	return f
}

func (f *authFixture) serve(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func findCookie(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestAuthHandler_Login(t *testing.T) {
	t.Run("sets session cookies", func(t *testing.T) {
		f := newAuthFixture(t, nil)
		user, err := domainidentity.NewUser("owner@acme.test", "Owner", "correct-horse")
		require.NoError(t, err)
		company, err := domainidentity.NewCompany("Acme", "")
		require.NoError(t, err)
		membership, err := domainidentity.NewMembership(user.ID, company.ID, domainidentity.RoleOwner)
		require.NoError(t, err)

		f.users.On("FindByEmail", mock.Anything, "owner@acme.test").Return(user, nil)
		f.users.On("Save", mock.Anything, user).Return(nil)
		f.memberships.On("FindByUser", mock.Anything, user.ID).Return([]domainidentity.Membership{*membership}, nil)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login",
			testutil.ToJSONReader(t, LoginRequest{Email: "owner@acme.test", Password: "correct-horse"}))
		req.Header.Set("Content-Type", "application/json")
		w := f.serve(req)

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		resp := decodeData[AuthResponse](t, w)
		assert.Equal(t, "OWNER", resp.Role)
		assert.NotEmpty(t, resp.Token.AccessToken)

		access := findCookie(w, middleware.AccessTokenCookie)
		require.NotNil(t, access)
		assert.True(t, access.HttpOnly)
		assert.Equal(t, "/", access.Path)
		assert.Equal(t, http.SameSiteStrictMode, access.SameSite)

		refresh := findCookie(w, middleware.RefreshTokenCookie)
		require.NotNil(t, refresh)
		assert.Equal(t, RefreshCookiePath, refresh.Path)
	})

	t.Run("wrong password", func(t *testing.T) {
		f := newAuthFixture(t, nil)
		user, err := domainidentity.NewUser("owner@acme.test", "Owner", "correct-horse")
		require.NoError(t, err)
		f.users.On("FindByEmail", mock.Anything, "owner@acme.test").Return(user, nil)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login",
			testutil.ToJSONReader(t, LoginRequest{Email: "owner@acme.test", Password: "guess"}))
		req.Header.Set("Content-Type", "application/json")
		w := f.serve(req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Nil(t, findCookie(w, middleware.AccessTokenCookie))
	})

	t.Run("unknown email", func(t *testing.T) {
		f := newAuthFixture(t, nil)
		f.users.On("FindByEmail", mock.Anything, "ghost@acme.test").Return(nil, shared.ErrNotFound)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login",
			testutil.ToJSONReader(t, LoginRequest{Email: "ghost@acme.test", Password: "whatever"}))
		req.Header.Set("Content-Type", "application/json")
		w := f.serve(req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "ERR_INVALID_CREDENTIALS", decodeResponse(t, w).Error.Code)
	})
}

func TestAuthHandler_RefreshTokenRequiresToken(t *testing.T) {
	f := newAuthFixture(t, nil)

	w := f.serve(httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandler_RefreshTokenFailureClearsCookies(t *testing.T) {
	f := newAuthFixture(t, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", nil)
	req.AddCookie(&http.Cookie{Name: middleware.RefreshTokenCookie, Value: "not-a-jwt"})

	w := f.serve(req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	cleared := findCookie(w, middleware.RefreshTokenCookie)
	require.NotNil(t, cleared)
	assert.Less(t, cleared.MaxAge, 0)
}

func TestAuthHandler_LogoutRequiresClaims(t *testing.T) {
	f := newAuthFixture(t, nil)

	w := f.serve(httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandler_GoogleLogin(t *testing.T) {
	t.Run("redirects with state cookie", func(t *testing.T) {
		f := newAuthFixture(t, &stubGoogle{})

		w := f.serve(httptest.NewRequest(http.MethodGet, "/api/v1/auth/google", nil))

		require.Equal(t, http.StatusTemporaryRedirect, w.Code)
		location, err := url.Parse(w.Header().Get("Location"))
		require.NoError(t, err)
		state := findCookie(w, OAuthStateCookie)
		require.NotNil(t, state)
		assert.Equal(t, state.Value, location.Query().Get("state"))
		assert.Equal(t, RefreshCookiePath+"/google", state.Path)
	})

	t.Run("not configured", func(t *testing.T) {
		f := newAuthFixture(t, nil)

		w := f.serve(httptest.NewRequest(http.MethodGet, "/api/v1/auth/google", nil))

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}

func TestAuthHandler_GoogleCallback(t *testing.T) {
	tests := []struct {
		name        string
		query       string
		stateCookie string
		google      *stubGoogle
		wantReason  string
	}{
		{name: "user denied consent", query: "error=access_denied&state=s1", stateCookie: "s1", wantReason: "access_denied"},
		{name: "missing state cookie", query: "code=c&state=s1", wantReason: "invalid_state"},
		{name: "state mismatch", query: "code=c&state=s2", stateCookie: "s1", wantReason: "invalid_state"},
		{name: "missing code", query: "state=s1", stateCookie: "s1", wantReason: "missing_code"},
		{name: "provider failure", query: "code=c&state=s1", stateCookie: "s1", google: &stubGoogle{err: errors.New("exchange failed")}, wantReason: "oauth_failed"},
		{name: "unverified email", query: "code=c&state=s1", stateCookie: "s1", google: &stubGoogle{err: auth.ErrEmailNotVerified}, wantReason: "email_not_verified"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			google := tt.google
			if google == nil {
				google = &stubGoogle{}
			}
			f := newAuthFixture(t, google)
			req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/google/callback?"+tt.query, nil)
			if tt.stateCookie != "" {
				req.AddCookie(&http.Cookie{Name: OAuthStateCookie, Value: tt.stateCookie})
			}

			w := f.serve(req)

			assert.Equal(t, http.StatusTemporaryRedirect, w.Code)
			assert.Equal(t, testFrontendURL+"/login?error="+tt.wantReason, w.Header().Get("Location"))
			state := findCookie(w, OAuthStateCookie)
			require.NotNil(t, state)
			assert.Less(t, state.MaxAge, 0)
		})
	}
}

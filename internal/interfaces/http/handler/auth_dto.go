package handler

import (
	"time"

	"github.com/bizdesk/backend/internal/application/identity"
	"github.com/google/uuid"
)

// RegisterRequest represents a sign-up request
// @Description Sign-up data; the user becomes OWNER of the new company
type RegisterRequest struct {
	Email       string `json:"email" binding:"required,email,max=200" example:"owner@acme.test"`
	Password    string `json:"password" binding:"required,min=8,max=72" example:"correct-horse-battery"`
	Name        string `json:"name" binding:"max=200" example:"Jane Owner"`
	CompanyName string `json:"company_name" binding:"required,min=1,max=200" example:"Acme Ltd"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email     string `json:"email" binding:"required,email" example:"owner@acme.test"`
	Password  string `json:"password" binding:"required" example:"correct-horse-battery"`
	CompanyID string `json:"company_id" binding:"omitempty,uuid" example:"550e8400-e29b-41d4-a716-446655440000"`
}

// RefreshTokenRequest carries a refresh token when no cookie is used
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// ChangePasswordRequest represents a password change
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password" binding:"required,min=8,max=72"`
}

// SwitchCompanyRequest selects another membership
type SwitchCompanyRequest struct {
	CompanyID string `json:"company_id" binding:"required,uuid"`
}

// TokenResponse represents the issued tokens
type TokenResponse struct {
	AccessToken           string    `json:"access_token"`
	RefreshToken          string    `json:"refresh_token"`
	AccessTokenExpiresAt  time.Time `json:"access_token_expires_at"`
	RefreshTokenExpiresAt time.Time `json:"refresh_token_expires_at"`
	TokenType             string    `json:"token_type" example:"Bearer"`
}

// AuthResponse is returned by every endpoint that signs the user in
type AuthResponse struct {
	Token     TokenResponse     `json:"token"`
	User      identity.UserInfo `json:"user"`
	CompanyID *uuid.UUID        `json:"company_id,omitempty"`
	Role      string            `json:"role,omitempty"`
}

func newAuthResponse(result *identity.AuthResult) AuthResponse {
	resp := AuthResponse{
		User:      result.User,
		CompanyID: result.CompanyID,
		Role:      result.Role,
	}
	if result.Tokens != nil {
		resp.Token = TokenResponse{
			AccessToken:           result.Tokens.AccessToken,
			RefreshToken:          result.Tokens.RefreshToken,
			AccessTokenExpiresAt:  result.Tokens.AccessTokenExpiresAt,
			RefreshTokenExpiresAt: result.Tokens.RefreshTokenExpiresAt,
			TokenType:             result.Tokens.TokenType,
		}
	}
	return resp
}

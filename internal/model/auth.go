package model

import "time"

type AuthRequest struct {
	ID       string `json:"id" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	AccessToken string `json:"accessToken"`
	ExpiresIn   int64  `json:"expiresIn"`
}

type AuthConfigResponse struct {
	AllowSignup bool `json:"allowSignup"`
}

type AuthUser struct {
	ID      int64
	LoginID string
	// TokenID is the jti of the access token that authenticated the request.
	TokenID string
}

type User struct {
	ID           int64
	LoginID      string
	PasswordHash string
	LastLoginAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TokenPair is what login, register and refresh hand back to the handler.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64
}

package dto

import "time"

// LoginRequest is the payload for username/password authentication.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse carries the issued token pair.
type LoginResponse struct {
	AccountID             string    `json:"accountID"`
	AccessToken           string    `json:"accessToken"`
	AccessTokenExpiresAt  time.Time `json:"accessTokenExpiresAt"`
	RefreshToken          string    `json:"refreshToken"`
	RefreshTokenExpiresAt time.Time `json:"refreshTokenExpiresAt"`
}

// RefreshTokenRequest is the payload for rotating an access token.
type RefreshTokenRequest struct {
	AccountID    string `json:"accountID" binding:"required"`
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// ExchangeCodeRequest is the payload carrying a Google authorization code.
type ExchangeCodeRequest struct {
	Code string `json:"code" binding:"required"`
}

// ExchangeCodeResponse carries the application token pair issued after a
// successful Google sign-in.
type ExchangeCodeResponse struct {
	AccountID             string    `json:"accountID"`
	AccessToken           string    `json:"accessToken"`
	AccessTokenExpiresAt  time.Time `json:"accessTokenExpiresAt"`
	RefreshToken          string    `json:"refreshToken"`
	RefreshTokenExpiresAt time.Time `json:"refreshTokenExpiresAt"`
}

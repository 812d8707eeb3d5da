package model

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

// TokenRequest is the form body of POST /token.
type TokenRequest struct {
	Username string `form:"username" binding:"required"`
	Password string `form:"password" binding:"required"`
}

// TokenResponse is the body returned on successful authentication.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Auth errors
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// TokenClaims represents JWT claims. The subject carries the authenticated
// username.
type TokenClaims struct {
	jwt.RegisteredClaims
}

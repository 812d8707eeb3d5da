package auth

import (
	"context"
	"crypto/subtle"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"golang.org/x/crypto/bcrypt"

	"github.com/jwalitptl/fhir-sync-api/internal/config"
	"github.com/jwalitptl/fhir-sync-api/internal/model"
	apperrors "github.com/jwalitptl/fhir-sync-api/pkg/errors"
)

const (
	bcryptCost         = 12
	claimsCacheCleanup = 10 * time.Minute
	tokenTypeBearer    = "bearer"
	defaultTokenExpiry = 30 * time.Minute
)

// Service authenticates the single configured credential pair and issues
// time-limited bearer tokens. The configured password is hashed once at
// construction so login always goes through a bcrypt comparison.
type Service struct {
	username     string
	passwordHash []byte
	secret       []byte
	tokenExpiry  time.Duration
	claims       *cache.Cache
}

func NewService(cfg config.AuthConfig) (*Service, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash configured password: %w", err)
	}

	expiry := cfg.TokenExpiry
	if expiry <= 0 {
		expiry = defaultTokenExpiry
	}

	return &Service{
		username:     cfg.Username,
		passwordHash: hash,
		secret:       []byte(cfg.JWTSecret),
		tokenExpiry:  expiry,
		claims:       cache.New(expiry, claimsCacheCleanup),
	}, nil
}

// Login validates the credential pair and returns a signed bearer token.
func (s *Service) Login(ctx context.Context, username, password string) (*model.TokenResponse, error) {
	usernameOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.username)) == 1
	passwordErr := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password))
	if !usernameOK || passwordErr != nil {
		return nil, model.ErrInvalidCredentials
	}

	token, err := s.issueToken(username)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	return &model.TokenResponse{
		AccessToken: token,
		TokenType:   tokenTypeBearer,
	}, nil
}

func (s *Service) issueToken(subject string) (string, error) {
	now := time.Now()
	claims := &model.TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenExpiry)),
			ID:        uuid.New().String(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// ValidateToken parses and verifies a bearer token. Validated claims are
// cached for the token's remaining life to skip repeated signature checks.
func (s *Service) ValidateToken(ctx context.Context, tokenString string) (*model.TokenClaims, error) {
	if cached, ok := s.claims.Get(tokenString); ok {
		return cached.(*model.TokenClaims), nil
	}

	claims := &model.TokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, apperrors.Unauthorized(err)
	}

	if claims.ExpiresAt != nil {
		if ttl := time.Until(claims.ExpiresAt.Time); ttl > 0 {
			s.claims.Set(tokenString, claims, ttl)
		}
	}
	return claims, nil
}

package middleware_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"

	"github.com/jwalitptl/fhir-sync-api/internal/middleware"
	"github.com/jwalitptl/fhir-sync-api/internal/model"
)

type mockValidator struct {
	validateFunc func(ctx context.Context, token string) (*model.TokenClaims, error)
}

func (m *mockValidator) ValidateToken(ctx context.Context, token string) (*model.TokenClaims, error) {
	return m.validateFunc(ctx, token)
}

func setupRouter(v middleware.TokenValidator) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(middleware.NewAuthMiddleware(v).Authenticate())
	engine.POST("/protected", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"subject": c.GetString(middleware.ContextSubject)})
	})
	return engine
}

func request(engine *gin.Engine, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestAuthenticate(t *testing.T) {
	engine := setupRouter(&mockValidator{
		validateFunc: func(ctx context.Context, token string) (*model.TokenClaims, error) {
			assert.Equal(t, "good-token", token)
			return &model.TokenClaims{
				RegisteredClaims: jwt.RegisteredClaims{Subject: "admin"},
			}, nil
		},
	})

	w := request(engine, "Bearer good-token")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "admin")
}

func TestAuthenticateMissingHeader(t *testing.T) {
	engine := setupRouter(&mockValidator{
		validateFunc: func(ctx context.Context, token string) (*model.TokenClaims, error) {
			t.Fatal("validator should not be called")
			return nil, nil
		},
	})

	w := request(engine, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthenticateBadFormat(t *testing.T) {
	engine := setupRouter(&mockValidator{
		validateFunc: func(ctx context.Context, token string) (*model.TokenClaims, error) {
			t.Fatal("validator should not be called")
			return nil, nil
		},
	})

	w := request(engine, "Basic dXNlcjpwYXNz")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthenticateInvalidToken(t *testing.T) {
	engine := setupRouter(&mockValidator{
		validateFunc: func(ctx context.Context, token string) (*model.TokenClaims, error) {
			return nil, fmt.Errorf("token is expired")
		},
	})

	w := request(engine, "Bearer stale-token")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

package router_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/fhir-sync-api/internal/middleware"
	"github.com/jwalitptl/fhir-sync-api/internal/model"
	"github.com/jwalitptl/fhir-sync-api/internal/router"
)

type stubHandler struct {
	registered func(*gin.RouterGroup)
}

func (s *stubHandler) RegisterRoutes(r *gin.RouterGroup) {
	s.registered(r)
}

type stubValidator struct{}

func (stubValidator) ValidateToken(ctx context.Context, token string) (*model.TokenClaims, error) {
	if token != "valid-token" {
		return nil, assert.AnError
	}
	return &model.TokenClaims{RegisteredClaims: jwt.RegisteredClaims{Subject: "admin"}}, nil
}

// One router per test binary: the router registers prometheus collectors in
// the default registry.
func TestRouter(t *testing.T) {
	r := router.NewRouter(
		middleware.NewAuthMiddleware(stubValidator{}),
		&stubHandler{registered: func(g *gin.RouterGroup) {
			g.POST("/token", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"token_type": "bearer"}) })
		}},
		&stubHandler{registered: func(g *gin.RouterGroup) {
			patients := g.Group("/patients")
			patients.GET("/postal_code/:postalCode", func(c *gin.Context) {
				c.JSON(http.StatusOK, gin.H{"patient_ids": []string{"p1"}})
			})
			patients.GET("/:term", func(c *gin.Context) {
				c.JSON(http.StatusOK, gin.H{"id": c.Param("term")})
			})
			patients.GET("/:term/observations", func(c *gin.Context) {
				c.JSON(http.StatusOK, []gin.H{})
			})
		}},
		&stubHandler{registered: func(g *gin.RouterGroup) {
			g.POST("/populate/:postalCode", func(c *gin.Context) {
				c.JSON(http.StatusOK, gin.H{"message": "Data populated successfully"})
			})
		}},
		&stubHandler{registered: func(g *gin.RouterGroup) {
			g.GET("/", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "healthy"}) })
		}},
		router.Config{},
	)
	r.Setup()
	engine := r.Engine()

	do := func(method, path, token string, form url.Values) *httptest.ResponseRecorder {
		var req *http.Request
		if form != nil {
			req = httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		} else {
			req = httptest.NewRequest(method, path, nil)
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)
		return w
	}

	t.Run("health is public", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, do(http.MethodGet, "/", "", nil).Code)
	})

	t.Run("token endpoint is public", func(t *testing.T) {
		w := do(http.MethodPost, "/token", "", url.Values{"username": {"admin"}, "password": {"secret"}})
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("patient reads are public", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, do(http.MethodGet, "/patients/p1", "", nil).Code)
		assert.Equal(t, http.StatusOK, do(http.MethodGet, "/patients/p1/observations", "", nil).Code)
		assert.Equal(t, http.StatusOK, do(http.MethodGet, "/patients/postal_code/12345", "", nil).Code)
	})

	t.Run("populate requires bearer token", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, do(http.MethodPost, "/populate/12345", "", nil).Code)
		assert.Equal(t, http.StatusUnauthorized, do(http.MethodPost, "/populate/12345", "stale", nil).Code)
		w := do(http.MethodPost, "/populate/12345", "valid-token", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Data populated successfully")
	})

	t.Run("metrics endpoint is exposed", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, do(http.MethodGet, "/metrics", "", nil).Code)
	})

	t.Run("request id header is set", func(t *testing.T) {
		w := do(http.MethodGet, "/", "", nil)
		assert.NotEmpty(t, w.Header().Get(middleware.HeaderXRequestID))
	})
}

package middleware_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"photo-versions-backend/internal/config"
	"photo-versions-backend/internal/middleware"
	"photo-versions-backend/internal/models"
)

const testSecret = "test-secret-key-for-jwt-signing-must-be-long-enough"

func signedToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func authRouter(cfg *config.Config) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware.AuthMiddleware(cfg))
	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": middleware.CallerID(c)})
	})
	return router
}

func doAuth(router *gin.Engine, header string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest("GET", "/test", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware_NoToken(t *testing.T) {
	w := doAuth(authRouter(&config.Config{JWTSecret: testSecret}), "")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	var body models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "unauthenticated", body.Code)
	assert.Equal(t, "missing authorization header", body.Message)
}

func TestAuthMiddleware_BadHeaders(t *testing.T) {
	router := authRouter(&config.Config{JWTSecret: testSecret})

	for _, header := range []string{"Token abc", "Bearer", "Bearer invalid-token", "Basic dXNlcjpwYXNz"} {
		w := doAuth(router, header)
		assert.Equal(t, http.StatusUnauthorized, w.Code, header)
	}
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	token := signedToken(t, testSecret, jwt.MapClaims{
		"sub": "user-123",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	w := doAuth(authRouter(&config.Config{JWTSecret: testSecret}), "Bearer "+token)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":"user-123"}`, w.Body.String())
}

func TestAuthMiddleware_WrongSecret(t *testing.T) {
	token := signedToken(t, "some-other-secret", jwt.MapClaims{"sub": "user-123"})

	w := doAuth(authRouter(&config.Config{JWTSecret: testSecret}), "Bearer "+token)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "signature is invalid")
}

func TestAuthMiddleware_Expired(t *testing.T) {
	token := signedToken(t, testSecret, jwt.MapClaims{
		"sub": "user-123",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})

	w := doAuth(authRouter(&config.Config{JWTSecret: testSecret}), "Bearer "+token)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "token has expired")
}

func TestAuthMiddleware_MissingSubject(t *testing.T) {
	token := signedToken(t, testSecret, jwt.MapClaims{"role": "authenticated"})

	w := doAuth(authRouter(&config.Config{JWTSecret: testSecret}), "Bearer "+token)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "missing user id")
}

func TestAuthMiddleware_RejectsOtherAlgorithms(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{"sub": "user-123"}).
		SignedString([]byte(testSecret))
	require.NoError(t, err)

	w := doAuth(authRouter(&config.Config{JWTSecret: testSecret}), "Bearer "+token)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

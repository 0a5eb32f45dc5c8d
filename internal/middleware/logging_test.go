package middleware_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"photo-versions-backend/internal/middleware"
)

func TestRequestLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	router := gin.New()
	router.Use(middleware.RequestLogger(zerolog.New(&buf)))
	router.GET("/photos/:photo_id", func(c *gin.Context) {
		c.Set(middleware.UserIDKey, "user-123")
		c.Status(http.StatusNotFound)
	})

	req, _ := http.NewRequest("GET", "/photos/abc", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "/photos/:photo_id", entry["route"])
	assert.Equal(t, "/photos/abc", entry["path"])
	assert.Equal(t, float64(http.StatusNotFound), entry["status"])
	assert.Equal(t, "user-123", entry["user_id"])
	assert.Equal(t, "http", entry["component"])
}

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requestIDEngine(captured *string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(RequestID())
	engine.GET("/ping", func(c *gin.Context) {
		*captured = RequestIDFromContext(c)
		c.Status(http.StatusOK)
	})
	return engine
}

func TestRequestID_GeneratesWhenAbsent(t *testing.T) {
	var seen string
	engine := requestIDEngine(&seen)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

	_, err := uuid.Parse(seen)
	require.NoError(t, err)
	assert.Equal(t, seen, w.Header().Get(HeaderXRequestID))
}

func TestRequestID_HonorsValidInboundID(t *testing.T) {
	var seen string
	engine := requestIDEngine(&seen)

	inbound := uuid.New().String()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(HeaderXRequestID, inbound)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, inbound, seen)
	assert.Equal(t, inbound, w.Header().Get(HeaderXRequestID))
}

func TestRequestID_ReplacesNonUUIDValues(t *testing.T) {
	var seen string
	engine := requestIDEngine(&seen)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(HeaderXRequestID, "not-a-uuid\r\ninjected")

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	_, err := uuid.Parse(seen)
	require.NoError(t, err)
	assert.NotContains(t, seen, "injected")
}

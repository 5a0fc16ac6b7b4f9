package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/mongo-console/pkg/utils/errors"
	"github.com/kart-io/mongo-console/pkg/utils/json"
	"github.com/kart-io/mongo-console/pkg/utils/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRequestID_GeneratesULID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())

	var seen string
	r.GET("/test", func(c *gin.Context) {
		seen = GetRequestID(c.Request.Context())
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

	requestID := w.Header().Get(HeaderXRequestID)
	require.NotEmpty(t, requestID)
	assert.Equal(t, requestID, seen)

	_, err := ulid.Parse(requestID)
	assert.NoError(t, err)
}

func TestRequestID_PreservesExistingID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/test", func(_ *gin.Context) {})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set(HeaderXRequestID, "existing-request-id-12345")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "existing-request-id-12345", w.Header().Get(HeaderXRequestID))
}

func TestRecovery_DefaultEnvelope(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), Recovery())
	r.GET("/panic", func(_ *gin.Context) {
		panic("boom")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var body response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, errors.ErrPanic.Code, body.Code)
	assert.NotEmpty(t, body.RequestID)
}

func TestRecovery_CustomResponder(t *testing.T) {
	r := gin.New()
	r.Use(RecoveryWithResponder(func(c *gin.Context, _ *errors.Errno) {
		c.AbortWithStatusJSON(http.StatusBadRequest, response.Message{Msg: "Config error: internal error"})
	}))
	r.POST("/config/add_config", func(_ *gin.Context) {
		panic("boom")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/config/add_config", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"msg":"Config error: internal error"}`, w.Body.String())
}

func TestLogger_PassesThrough(t *testing.T) {
	r := gin.New()
	r.Use(Logger("/health"))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.GET("/api", func(c *gin.Context) { c.Status(http.StatusAccepted) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api", nil))
	assert.Equal(t, http.StatusAccepted, w.Code)
}

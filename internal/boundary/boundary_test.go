package boundary

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"garment_portal_gateway/internal/views"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSupervise(t *testing.T) {
	assert.NoError(t, Supervise(func() error { return nil }))

	plain := errors.New("plain")
	assert.ErrorIs(t, Supervise(func() error { return plain }), plain)

	err := Supervise(func() error { panic("boom") })
	var fault *Fault
	require.ErrorAs(t, err, &fault)
	assert.Equal(t, "boom", fault.Value)
	assert.NotEmpty(t, fault.Stack)
}

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.SetHTMLTemplate(views.MustLoad())
	r.Use(Recovery(zap.NewNop()))
	r.GET("/dashboard/buyer", func(c *gin.Context) { panic("render failed") })
	r.GET("/api/v1/profile", func(c *gin.Context) { panic(errors.New("nil map")) })
	r.GET("/ok", func(c *gin.Context) { c.String(http.StatusOK, "fine") })
	return r
}

func TestRecovery_PageFaultServesRecoveryView(t *testing.T) {
	w := httptest.NewRecorder()
	newRouter().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/dashboard/buyer", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Something went wrong")
	assert.Contains(t, w.Body.String(), `<a href="/">`)
}

func TestRecovery_APIFaultServesJSON(t *testing.T) {
	w := httptest.NewRecorder()
	newRouter().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/profile", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "INTERNAL_SERVER_ERROR")
}

func TestRecovery_PassesThrough(t *testing.T) {
	w := httptest.NewRecorder()
	newRouter().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "fine", w.Body.String())
}

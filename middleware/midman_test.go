package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestManagerUseRunsRegisteredChain(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := &Manager{}
	m.Add(func(c *gin.Context) { c.Header("X-First", "1") })
	m.Add(func(c *gin.Context) { c.Header("X-Second", "2") })

	r := gin.New()
	r.Use(m.Use())
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1", w.Header().Get("X-First"))
	assert.Equal(t, "2", w.Header().Get("X-Second"))
}

func TestManagerUseStopsOnAbort(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := &Manager{}
	m.Add(func(c *gin.Context) { c.AbortWithStatus(http.StatusTeapot) })
	m.Add(func(c *gin.Context) { c.Header("X-Never", "1") })

	r := gin.New()
	r.Use(m.Use())
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusTeapot, w.Code)
	assert.Empty(t, w.Header().Get("X-Never"))
}

func TestManagerClear(t *testing.T) {
	m := &Manager{}
	m.Add(func(c *gin.Context) {})
	m.Clear()
	assert.Empty(t, m.mids)
}

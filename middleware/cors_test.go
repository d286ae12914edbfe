package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestCORSPreflight(t *testing.T) {
	router := gin.New()
	router.Use(CORS())
	router.PATCH("/api/admin/manifestacoes/:protocolo", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/api/admin/manifestacoes/1", nil))

	if w.Code != http.StatusNoContent {
		t.Errorf("Expected 204 for preflight, got %d", w.Code)
	}
	if !strings.Contains(w.Header().Get("Access-Control-Allow-Methods"), "PATCH") {
		t.Error("Expected PATCH to be allowed")
	}
}

func TestNoStore(t *testing.T) {
	router := gin.New()
	router.Use(NoStore())
	router.GET("/api/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/index.html", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/health", nil))
	if !strings.Contains(w.Header().Get("Cache-Control"), "no-store") {
		t.Error("Expected API responses to be uncached")
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/index.html", nil))
	if w.Header().Get("Cache-Control") != "" {
		t.Error("Expected static responses to be left alone")
	}
}

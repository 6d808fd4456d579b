package middleware

import (
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func serveSwagger(cfg SwaggerConfig, auth gin.HandlerFunc, remoteAddr string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.GET("/swagger/*any", SwaggerProtection(cfg, auth), func(c *gin.Context) {
		c.String(http.StatusOK, "docs")
	})

	req := httptest.NewRequest(http.MethodGet, "/swagger/index.html", nil)
	if remoteAddr != "" {
		req.RemoteAddr = remoteAddr
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestSwaggerProtection_Disabled(t *testing.T) {
	w := serveSwagger(SwaggerConfig{Enabled: false}, nil, "")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "ERR_NOT_FOUND")
}

func TestSwaggerProtection_EnabledWithoutRestrictions(t *testing.T) {
	w := serveSwagger(SwaggerConfig{Enabled: true}, nil, "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "docs", w.Body.String())
}

func TestSwaggerProtection_AllowList(t *testing.T) {
	tests := []struct {
		name       string
		allowed    []string
		remoteAddr string
		want       int
	}{
		{"exact ip allowed", []string{"10.0.0.5"}, "10.0.0.5:4000", http.StatusOK},
		{"exact ip denied", []string{"10.0.0.5"}, "10.0.0.6:4000", http.StatusForbidden},
		{"cidr allowed", []string{"192.168.1.0/24"}, "192.168.1.77:4000", http.StatusOK},
		{"cidr denied", []string{"192.168.1.0/24"}, "192.168.2.1:4000", http.StatusForbidden},
		{"garbage entries ignored", []string{"not-an-ip", "10.0.0.0/8"}, "10.1.2.3:4000", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serveSwagger(SwaggerConfig{Enabled: true, AllowedIPs: tt.allowed}, nil, tt.remoteAddr)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestSwaggerProtection_RequireAuth(t *testing.T) {
	deny := func(c *gin.Context) { c.AbortWithStatus(http.StatusUnauthorized) }
	allow := func(c *gin.Context) {}

	assert.Equal(t, http.StatusUnauthorized,
		serveSwagger(SwaggerConfig{Enabled: true, RequireAuth: true}, deny, "").Code)
	assert.Equal(t, http.StatusOK,
		serveSwagger(SwaggerConfig{Enabled: true, RequireAuth: true}, allow, "").Code)
	assert.Equal(t, http.StatusOK,
		serveSwagger(SwaggerConfig{Enabled: true, RequireAuth: false}, deny, "").Code)
}

func TestSwaggerProtection_AllowListCheckedBeforeAuth(t *testing.T) {
	called := false
	auth := func(c *gin.Context) { called = true }

	w := serveSwagger(SwaggerConfig{Enabled: true, RequireAuth: true, AllowedIPs: []string{"10.0.0.1"}}, auth, "10.9.9.9:1")

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.False(t, called)
}

func TestIsIPAllowed(t *testing.T) {
	ips, nets := parseAllowList([]string{"127.0.0.1", "::1", "172.16.0.0/12"})

	assert.True(t, isIPAllowed(net.ParseIP("127.0.0.1"), ips, nets))
	assert.True(t, isIPAllowed(net.ParseIP("::1"), ips, nets))
	assert.True(t, isIPAllowed(net.ParseIP("172.20.1.1"), ips, nets))
	assert.False(t, isIPAllowed(net.ParseIP("8.8.8.8"), ips, nets))
	assert.False(t, isIPAllowed(nil, ips, nets))
}

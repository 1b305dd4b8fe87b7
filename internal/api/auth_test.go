package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"maitred/internal/config"

	"github.com/stretchr/testify/assert"
)

func authConfig() config.APIConfig {
	return config.APIConfig{
		Auth: config.APIAuthConfig{
			Enabled:      true,
			HeaderAPIKey: "x-api-key",
			HeaderExtra:  "x-api-extra",
			APIKeys: []config.APIClientKey{
				{Key: "valid-key", Extra: "valid-extra", Name: "dashboard", Permissions: []string{PermReadBookings, PermWriteBookings}},
				{Key: "root-key", Extra: "root-extra", Name: "admin"},
			},
		},
		RateLimit: config.APIRateLimitConfig{RPS: 100, Burst: 200},
	}
}

func TestHTTPAuthWrap(t *testing.T) {
	auth := NewHTTPAuth(authConfig())
	handler := auth.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	do := func(method, path string, headers map[string]string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, nil)
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	valid := map[string]string{"x-api-key": "valid-key", "x-api-extra": "valid-extra"}

	t.Run("HealthBypassesAuth", func(t *testing.T) {
		rec := do(http.MethodGet, "/health", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("Success", func(t *testing.T) {
		rec := do(http.MethodGet, "/api/v1/bookings", valid)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("MissingHeaders", func(t *testing.T) {
		rec := do(http.MethodGet, "/api/v1/bookings", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("InvalidKey", func(t *testing.T) {
		rec := do(http.MethodGet, "/api/v1/bookings", map[string]string{"x-api-key": "bogus", "x-api-extra": "valid-extra"})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("InvalidExtra", func(t *testing.T) {
		rec := do(http.MethodGet, "/api/v1/bookings", map[string]string{"x-api-key": "valid-key", "x-api-extra": "bogus"})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("PermissionDenied", func(t *testing.T) {
		rec := do(http.MethodGet, "/api/v1/restaurants/1/availability", valid)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("EmptyPermissionListAllowsAll", func(t *testing.T) {
		rec := do(http.MethodGet, "/api/v1/restaurants/1/availability", map[string]string{"x-api-key": "root-key", "x-api-extra": "root-extra"})
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("QueryParamFallback", func(t *testing.T) {
		rec := do(http.MethodGet, "/api/v1/restaurants/1/ws?api_key=valid-key&api_extra=valid-extra", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestHTTPAuthRateLimit(t *testing.T) {
	cfg := config.APIConfig{
		Auth:      config.APIAuthConfig{Enabled: false},
		RateLimit: config.APIRateLimitConfig{RPS: 1, Burst: 1},
	}
	auth := NewHTTPAuth(cfg)
	handler := auth.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/bookings", nil)
	req.Header.Set("x-api-key", "key1")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestRequiredPermission(t *testing.T) {
	tests := []struct {
		method string
		path   string
		want   string
	}{
		{http.MethodGet, "/api/v1/restaurants/1/availability", PermReadAvailability},
		{http.MethodGet, "/api/v1/restaurants/1/occupancy", PermReadAvailability},
		{http.MethodGet, "/api/v1/restaurants/1/utilization", PermReadAvailability},
		{http.MethodGet, "/api/v1/restaurants/1/analytics", PermReadReports},
		{http.MethodPost, "/api/v1/restaurants/1/reports/schedule", PermReadReports},
		{http.MethodGet, "/api/v1/bookings/5", PermReadBookings},
		{http.MethodPost, "/api/v1/bookings", PermWriteBookings},
		{http.MethodPost, "/api/v1/bookings/5/status", PermWriteBookings},
		{http.MethodGet, "/api/v1/restaurants/1/tables", PermReadBookings},
		{http.MethodPost, "/api/v1/restaurants/1/tables", PermManage},
		{http.MethodDelete, "/api/v1/menu/items/3", PermManage},
		{http.MethodPut, "/api/v1/staff/2", PermManage},
		{http.MethodGet, "/api/v1/restaurants/1/ws", ""},
		{http.MethodGet, "/health", ""},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(tt.method, tt.path, nil)
		assert.Equal(t, tt.want, requiredPermission(req), "%s %s", tt.method, tt.path)
	}
}

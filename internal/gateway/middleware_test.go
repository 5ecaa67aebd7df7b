package gateway

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(2, time.Hour)
	defer rl.Stop()

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.allowRequest("1.1.1.1"))
	assert.True(t, rl.allowRequest("1.1.1.1"))
	assert.False(t, rl.allowRequest("1.1.1.1"))
	assert.True(t, rl.allowRequest("2.2.2.2"))

	now = now.Add(61 * time.Second)
	assert.True(t, rl.allowRequest("1.1.1.1"))
}

func TestRateLimiterMiddleware(t *testing.T) {
	rl := NewRateLimiter(1, time.Hour)
	defer rl.Stop()
	h := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "9.9.9.9, 10.0.0.1")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.1.1.1:5000"
	assert.Equal(t, "10.1.1.1", clientIP(req))

	req.Header.Set("X-Real-IP", "8.8.8.8")
	assert.Equal(t, "8.8.8.8", clientIP(req))

	req.Header.Set("X-Forwarded-For", "7.7.7.7, 8.8.8.8")
	assert.Equal(t, "7.7.7.7", clientIP(req))
}

func TestCORSRestrictedOrigins(t *testing.T) {
	h := NewCORSMiddleware([]string{"http://game.example"}).Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://game.example")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "http://game.example", rec.Header().Get("Access-Control-Allow-Origin"))

	req.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestMemoryCacheExpiryAndEviction(t *testing.T) {
	c := NewMemoryCache(2)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Set("a", &CacheEntry{Data: []byte("a"), ExpiresAt: now.Add(time.Second)})
	c.Set("b", &CacheEntry{Data: []byte("b"), ExpiresAt: now.Add(time.Minute)})
	c.Set("c", &CacheEntry{Data: []byte("c"), ExpiresAt: now.Add(time.Minute)})

	assert.Nil(t, c.Get("a"), "earliest expiring entry is evicted when full")
	assert.NotNil(t, c.Get("b"))

	now = now.Add(2 * time.Minute)
	assert.Nil(t, c.Get("b"))
}

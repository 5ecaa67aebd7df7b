package gateway

import (
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// defaultCleanupInterval 限流记录清理间隔
const defaultCleanupInterval = 5 * time.Minute

// RateLimiter 请求频率限制器，按客户端IP统计最近一分钟的请求
type RateLimiter struct {
	clients map[string]*ClientInfo
	mutex   sync.Mutex
	now     func() time.Time
	stop    chan struct{}
	once    sync.Once

	// 配置
	RequestsPerMinute int
}

// ClientInfo 客户端信息
type ClientInfo struct {
	Requests []time.Time
	LastSeen time.Time
}

// NewRateLimiter 创建新的频率限制器
func NewRateLimiter(requestsPerMinute int, cleanupInterval time.Duration) *RateLimiter {
	rl := &RateLimiter{
		clients:           make(map[string]*ClientInfo),
		now:               time.Now,
		stop:              make(chan struct{}),
		RequestsPerMinute: requestsPerMinute,
	}

	// 启动清理协程
	go rl.cleanup(cleanupInterval)

	return rl
}

// Stop 停止清理协程
func (rl *RateLimiter) Stop() {
	rl.once.Do(func() { close(rl.stop) })
}

// Middleware 频率限制中间件
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.allowRequest(clientIP(r)) {
			writeJSON(w, zerolog.Nop(), http.StatusTooManyRequests, apiResponse{
				Message: fmt.Sprintf("请求过于频繁，每分钟最多允许 %d 次请求", rl.RequestsPerMinute),
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// allowRequest 检查是否允许请求
func (rl *RateLimiter) allowRequest(ip string) bool {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	now := rl.now()
	client, exists := rl.clients[ip]
	if !exists {
		client = &ClientInfo{}
		rl.clients[ip] = client
	}
	client.LastSeen = now

	// 清理过期的请求记录
	cutoff := now.Add(-time.Minute)
	valid := client.Requests[:0]
	for _, t := range client.Requests {
		if t.After(cutoff) {
			valid = append(valid, t)
		}
	}
	client.Requests = valid

	if len(client.Requests) >= rl.RequestsPerMinute {
		return false
	}
	client.Requests = append(client.Requests, now)
	return true
}

// cleanup 清理10分钟未访问的客户端
func (rl *RateLimiter) cleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.mutex.Lock()
			cutoff := rl.now().Add(-10 * time.Minute)
			for ip, client := range rl.clients {
				if client.LastSeen.Before(cutoff) {
					delete(rl.clients, ip)
				}
			}
			rl.mutex.Unlock()
		case <-rl.stop:
			return
		}
	}
}

// clientIP 获取客户端IP
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return strings.TrimSpace(strings.Split(xff, ",")[0])
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// SecurityMiddleware 安全头中间件
type SecurityMiddleware struct{}

// NewSecurityMiddleware 创建安全中间件
func NewSecurityMiddleware() *SecurityMiddleware {
	return &SecurityMiddleware{}
}

// Middleware 安全头中间件
func (sm *SecurityMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Server", "PixelStorm")
		next.ServeHTTP(w, r)
	})
}

// CORSMiddleware CORS中间件
type CORSMiddleware struct {
	allowAll bool
	allowed  map[string]struct{}
}

// NewCORSMiddleware 创建CORS中间件，origins 为空或包含 "*" 时允许所有来源
func NewCORSMiddleware(origins []string) *CORSMiddleware {
	cm := &CORSMiddleware{
		allowAll: len(origins) == 0,
		allowed:  make(map[string]struct{}, len(origins)),
	}
	for _, o := range origins {
		if o == "*" {
			cm.allowAll = true
		}
		cm.allowed[o] = struct{}{}
	}
	return cm
}

// Middleware CORS中间件
func (cm *CORSMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		switch {
		case cm.allowAll:
			w.Header().Set("Access-Control-Allow-Origin", "*")
		case origin != "":
			if _, ok := cm.allowed[origin]; ok {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")
			}
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "86400")

		// 处理预检请求
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// LoggingMiddleware 日志中间件
type LoggingMiddleware struct {
	logger zerolog.Logger
}

// NewLoggingMiddleware 创建日志中间件
func NewLoggingMiddleware(logger zerolog.Logger) *LoggingMiddleware {
	return &LoggingMiddleware{logger: logger}
}

// Middleware 日志中间件
func (lm *LoggingMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &responseRecorder{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(recorder, r)

		lm.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.statusCode).
			Dur("duration", time.Since(start)).
			Msg("请求")
	})
}

// responseRecorder 响应记录器
type responseRecorder struct {
	http.ResponseWriter
	statusCode int
}

// WriteHeader 记录状态码
func (rr *responseRecorder) WriteHeader(code int) {
	rr.statusCode = code
	rr.ResponseWriter.WriteHeader(code)
}

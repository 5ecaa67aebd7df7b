package gateway

import (
	"crypto/md5"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"
)

// CacheEntry 缓存条目
type CacheEntry struct {
	Data        []byte
	ContentType string
	ExpiresAt   time.Time
	ETag        string
}

// MemoryCache 内存响应缓存，过期条目在读取或写满时清理
type MemoryCache struct {
	entries    map[string]*CacheEntry
	mutex      sync.Mutex
	maxEntries int
	now        func() time.Time
}

// NewMemoryCache 创建内存缓存
func NewMemoryCache(maxEntries int) *MemoryCache {
	return &MemoryCache{
		entries:    make(map[string]*CacheEntry),
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

// Get 获取未过期的缓存条目
func (mc *MemoryCache) Get(key string) *CacheEntry {
	mc.mutex.Lock()
	defer mc.mutex.Unlock()

	entry, ok := mc.entries[key]
	if !ok {
		return nil
	}
	if mc.now().After(entry.ExpiresAt) {
		delete(mc.entries, key)
		return nil
	}
	return entry
}

// Set 设置缓存条目
func (mc *MemoryCache) Set(key string, entry *CacheEntry) {
	mc.mutex.Lock()
	defer mc.mutex.Unlock()

	if len(mc.entries) >= mc.maxEntries {
		now := mc.now()
		for k, e := range mc.entries {
			if now.After(e.ExpiresAt) {
				delete(mc.entries, k)
			}
		}
		// 仍然写满时丢弃最早过期的条目
		if len(mc.entries) >= mc.maxEntries {
			var oldest string
			for k, e := range mc.entries {
				if oldest == "" || e.ExpiresAt.Before(mc.entries[oldest].ExpiresAt) {
					oldest = k
				}
			}
			delete(mc.entries, oldest)
		}
	}
	mc.entries[key] = entry
}

// CacheMiddleware 缓存GET响应，按路径前缀配置缓存时间
type CacheMiddleware struct {
	cache *MemoryCache
	ttls  map[string]time.Duration
}

// NewCacheMiddleware 创建缓存中间件
func NewCacheMiddleware(ttls map[string]time.Duration) *CacheMiddleware {
	return &CacheMiddleware{
		cache: NewMemoryCache(1000),
		ttls:  ttls,
	}
}

// Middleware 缓存中间件
func (cm *CacheMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ttl, ok := cm.ttlFor(r.URL.Path)
		if r.Method != http.MethodGet || !ok {
			next.ServeHTTP(w, r)
			return
		}

		key := r.URL.Path
		if r.URL.RawQuery != "" {
			key += "?" + r.URL.RawQuery
		}

		if entry := cm.cache.Get(key); entry != nil {
			w.Header().Set("ETag", entry.ETag)
			w.Header().Set("X-Cache", "HIT")
			if r.Header.Get("If-None-Match") == entry.ETag {
				w.WriteHeader(http.StatusNotModified)
				return
			}
			w.Header().Set("Content-Type", entry.ContentType)
			w.WriteHeader(http.StatusOK)
			w.Write(entry.Data)
			return
		}

		recorder := &cacheResponseRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(recorder, r)

		if recorder.statusCode == http.StatusOK && len(recorder.body) > 0 {
			cm.cache.Set(key, &CacheEntry{
				Data:        recorder.body,
				ContentType: recorder.Header().Get("Content-Type"),
				ExpiresAt:   cm.cache.now().Add(ttl),
				ETag:        fmt.Sprintf(`"%x"`, md5.Sum(recorder.body)),
			})
		}
	})
}

// ttlFor 按路径前缀匹配缓存时间
func (cm *CacheMiddleware) ttlFor(path string) (time.Duration, bool) {
	for prefix, ttl := range cm.ttls {
		if strings.HasPrefix(path, prefix) {
			return ttl, true
		}
	}
	return 0, false
}

// cacheResponseRecorder 缓存响应记录器
type cacheResponseRecorder struct {
	http.ResponseWriter
	statusCode int
	body       []byte
}

// WriteHeader 记录状态码
func (crr *cacheResponseRecorder) WriteHeader(code int) {
	crr.statusCode = code
	crr.ResponseWriter.WriteHeader(code)
}

// Write 记录响应体
func (crr *cacheResponseRecorder) Write(data []byte) (int, error) {
	crr.body = append(crr.body, data...)
	return crr.ResponseWriter.Write(data)
}

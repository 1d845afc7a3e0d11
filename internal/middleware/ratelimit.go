package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/SergeiKhy/promo-links/internal/metrics"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimiterConfig конфигурация rate limiter
type RateLimiterConfig struct {
	RequestsPerSecond float64       // Количество запросов в секунду
	BurstSize         int           // Максимальный размер burst
	CleanupInterval   time.Duration // Интервал очистки неактивных посетителей
}

// DefaultRateLimiterConfig конфигурация по умолчанию
var DefaultRateLimiterConfig = RateLimiterConfig{
	RequestsPerSecond: 10,
	BurstSize:         20,
	CleanupInterval:   time.Minute,
}

// visitor представляет rate limiter для одного клиента
type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter middleware для ограничения запросов (Token Bucket на клиента)
type RateLimiter struct {
	config   RateLimiterConfig
	visitors map[string]*visitor // ключ клиента -> visitor
	mu       sync.Mutex
	stop     chan struct{}
	once     sync.Once
}

// NewRateLimiter создаёт rate limiter и запускает очистку неактивных посетителей
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = DefaultRateLimiterConfig.CleanupInterval
	}
	rl := &RateLimiter{
		config:   config,
		visitors: make(map[string]*visitor),
		stop:     make(chan struct{}),
	}

	go rl.cleanupLoop()

	return rl
}

// Stop останавливает фоновую очистку
func (rl *RateLimiter) Stop() {
	rl.once.Do(func() { close(rl.stop) })
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			rl.cleanup()
		}
	}
}

// cleanup удаляет посетителей, которые не были активны долгое время
func (rl *RateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	for key, v := range rl.visitors {
		if time.Since(v.lastSeen) > rl.config.CleanupInterval*3 {
			delete(rl.visitors, key)
		}
	}
}

// Visitors число отслеживаемых клиентов
func (rl *RateLimiter) Visitors() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.visitors)
}

// getLimiter возвращает или создаёт rate limiter для ключа клиента
func (rl *RateLimiter) getLimiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if v, exists := rl.visitors[key]; exists {
		v.lastSeen = time.Now()
		return v.limiter
	}

	limiter := rate.NewLimiter(rate.Limit(rl.config.RequestsPerSecond), rl.config.BurstSize)
	rl.visitors[key] = &visitor{
		limiter:  limiter,
		lastSeen: time.Now(),
	}

	return limiter
}

// Middleware ограничивает запросы по IP клиента
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return rl.MiddlewareWithKey(nil)
}

// MiddlewareWithKey ограничивает запросы по ключу из getKey (IP, если ключ пуст)
func (rl *RateLimiter) MiddlewareWithKey(getKey func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var key string
		if getKey != nil {
			key = getKey(c)
		}
		if key == "" {
			key = c.ClientIP()
		}

		limiter := rl.getLimiter(key)
		if !limiter.Allow() {
			metrics.RecordRateLimited()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":   "rate_limit_exceeded",
				"message": "Too many requests, try again later",
			})
			return
		}

		c.Next()
	}
}

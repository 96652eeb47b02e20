package handlers

import (
	"log"
	"net/http"
	"sync"
	"time"

	"classroom-poll-backend/config"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// 全局限流器状态
var (
	rateLimitEnabled bool
	limiterRate      rate.Limit
	limiterBurst     int

	ipLimiters   = make(map[string]*ipLimiter)
	ipLimiterMtx sync.Mutex

	limitStatistics = map[string]int64{
		"total":    0,
		"allowed":  0,
		"rejected": 0,
	}
	limitStatsLock = &sync.RWMutex{}
)

type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiterStats 限流器统计信息
type RateLimiterStats struct {
	Enabled          bool  `json:"enabled"`
	Rate             int   `json:"rate"`
	Burst            int   `json:"burst"`
	TotalRequests    int64 `json:"totalRequests"`
	AllowedRequests  int64 `json:"allowedRequests"`
	RejectedRequests int64 `json:"rejectedRequests"`
}

// InitRateLimiters 初始化限流器
func InitRateLimiters() {
	rateLimitEnabled = config.GetBool("ENABLE_RATE_LIMIT", false)
	perSecond := config.GetInt("RATE_LIMIT_PER_SECOND", 20)
	limiterRate = rate.Limit(perSecond)
	limiterBurst = perSecond * 2

	if !rateLimitEnabled {
		return
	}

	// 定期清理长时间未活跃的IP限流器
	go func() {
		for range time.Tick(time.Minute) {
			ipLimiterMtx.Lock()
			for ip, entry := range ipLimiters {
				if time.Since(entry.lastSeen) > 3*time.Minute {
					delete(ipLimiters, ip)
				}
			}
			ipLimiterMtx.Unlock()
		}
	}()

	log.Printf("限流器已初始化：每IP速率=%d/秒，突发=%d", perSecond, limiterBurst)
}

func limiterForIP(ip string) *rate.Limiter {
	ipLimiterMtx.Lock()
	defer ipLimiterMtx.Unlock()

	entry, ok := ipLimiters[ip]
	if !ok {
		entry = &ipLimiter{limiter: rate.NewLimiter(limiterRate, limiterBurst)}
		ipLimiters[ip] = entry
	}
	entry.lastSeen = time.Now()
	return entry.limiter
}

// RateLimitMiddleware 按客户端IP限流的中间件
func RateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// 如果限流未启用，直接通过
		if !rateLimitEnabled {
			c.Next()
			return
		}

		limitStatsLock.Lock()
		limitStatistics["total"]++
		limitStatsLock.Unlock()

		if !limiterForIP(c.ClientIP()).Allow() {
			limitStatsLock.Lock()
			limitStatistics["rejected"]++
			limitStatsLock.Unlock()

			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": "请求频率过高，请稍后再试",
			})
			c.Abort()
			return
		}

		limitStatsLock.Lock()
		limitStatistics["allowed"]++
		limitStatsLock.Unlock()

		c.Next()
	}
}

// GetRateLimiterStats 获取限流器状态
func GetRateLimiterStats(c *gin.Context) {
	limitStatsLock.RLock()
	stats := RateLimiterStats{
		Enabled:          rateLimitEnabled,
		Rate:             int(limiterRate),
		Burst:            limiterBurst,
		TotalRequests:    limitStatistics["total"],
		AllowedRequests:  limitStatistics["allowed"],
		RejectedRequests: limitStatistics["rejected"],
	}
	limitStatsLock.RUnlock()

	c.JSON(http.StatusOK, stats)
}

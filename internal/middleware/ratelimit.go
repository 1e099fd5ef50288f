package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/user/yamdb/internal/metrics"
	"github.com/user/yamdb/internal/utils"
)

const rateWindow = time.Minute

// RateLimit 基于 Redis 的固定窗口限流
// client 为 nil 或 limit <= 0 时不限流，Redis 出错时放行
func RateLimit(client *redis.Client, prefix string, limit int, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if client == nil || limit <= 0 {
			c.Next()
			return
		}

		now := time.Now()
		window := now.Unix() / int64(rateWindow/time.Second)
		key := "ratelimit:" + prefix + ":" + utils.HashIP(c.ClientIP()) + ":" + strconv.FormatInt(window, 10)

		var incr *redis.IntCmd
		_, err := client.TxPipelined(c.Request.Context(), func(pipe redis.Pipeliner) error {
			incr = pipe.Incr(c.Request.Context(), key)
			pipe.Expire(c.Request.Context(), key, rateWindow)
			return nil
		})
		if err != nil {
			log.Warn("限流计数失败，放行请求", zap.Error(err))
			c.Next()
			return
		}

		if incr.Val() > int64(limit) {
			metrics.RateLimited.Inc()
			retry := rateWindow - time.Duration(now.Unix()%int64(rateWindow/time.Second))*time.Second
			c.Header("Retry-After", strconv.Itoa(int(retry.Seconds())))
			utils.Detail(c, http.StatusTooManyRequests, "Request was throttled.")
			return
		}
		c.Next()
	}
}

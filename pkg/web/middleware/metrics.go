package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lk2023060901/beachd/pkg/prometheus"
)

// Metrics 接口监控中间件；requests 标签为 path/method/status，duration 标签为 path/method
func Metrics(requests *prometheus.CounterVec, duration *prometheus.HistogramVec) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath() // 获取路由定义的路径而非实际请求路径
		if path == "" {
			path = "unknown"
		}

		c.Next()

		status := strconv.Itoa(c.Writer.Status())
		requests.WithLabelValues(path, c.Request.Method, status).Inc()
		duration.WithLabelValues(path, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}

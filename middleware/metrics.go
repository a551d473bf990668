package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mintern/forum/utils"
)

// RequestMetrics counts requests and observes their latency by method and status.
func RequestMetrics() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()

		status := strconv.Itoa(ctx.Writer.Status())
		utils.IncCounter(utils.HTTPRequestTotal, ctx.Request.Method, status)
		utils.ObserveDuration(utils.HTTPRequestDuration, time.Since(start), ctx.Request.Method, status)
	}
}

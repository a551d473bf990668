package middleware

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mintern/forum/config"
)

// RequestTimeout bounds the request context, and with it every query made
// through db.WithContext, to RequestTimeoutSec.
func RequestTimeout() gin.HandlerFunc {
	timeout := time.Duration(config.Get().RequestTimeoutSec) * time.Second
	return func(ctx *gin.Context) {
		if timeout <= 0 {
			ctx.Next()
			return
		}
		c, cancel := context.WithTimeout(ctx.Request.Context(), timeout)
		defer cancel()
		ctx.Request = ctx.Request.WithContext(c)
		ctx.Next()
	}
}

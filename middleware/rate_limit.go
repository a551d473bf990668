package middleware

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/mintern/forum/config"
	"github.com/mintern/forum/utils"
)

const limiterIdle = 5 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// limiterPool hands out one token bucket per caller and forgets idle callers.
type limiterPool struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	visitors map[string]*visitor
}

func newLimiterPool(perMinute int) *limiterPool {
	if perMinute < 1 {
		perMinute = 1
	}
	burst := perMinute / 2
	if burst < 1 {
		burst = 1
	}
	return &limiterPool{
		limit:    rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    burst,
		visitors: map[string]*visitor{},
	}
}

func (p *limiterPool) allow(key string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := time.Now()
	for k, v := range p.visitors {
		if now.Sub(v.lastSeen) > limiterIdle {
			delete(p.visitors, k)
		}
	}

	v, ok := p.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(p.limit, p.burst)}
		p.visitors[key] = v
	}
	v.lastSeen = now
	return v.limiter.Allow()
}

// RateLimitMiddleware applies a token bucket of RateLimitPerMinute per caller.
// Signed-in users are keyed by user id, everyone else by client IP.
func RateLimitMiddleware() gin.HandlerFunc {
	pool := newLimiterPool(config.Get().RateLimitPerMinute)

	return func(ctx *gin.Context) {
		if !pool.allow(rateKey(ctx)) {
			utils.Error(ctx, http.StatusTooManyRequests, 42901, "rate limit exceeded")
			ctx.Abort()
			return
		}
		ctx.Next()
	}
}

func rateKey(ctx *gin.Context) string {
	if id, ok := ctx.Get(ContextUserIDKey); ok {
		if uid, _ := id.(uint); uid != 0 {
			return fmt.Sprintf("user:%d", uid)
		}
	}
	return "ip:" + ctx.ClientIP()
}

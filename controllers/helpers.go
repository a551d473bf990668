package controllers

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mintern/forum/middleware"
	"github.com/mintern/forum/utils"
)

func getUserID(ctx *gin.Context) (uint, bool) {
	value, exists := ctx.Get(middleware.ContextUserIDKey)
	if !exists {
		return 0, false
	}

	switch v := value.(type) {
	case uint:
		return v, v != 0
	case int:
		return uint(v), v > 0
	case int64:
		return uint(v), v > 0
	case float64:
		return uint(v), v > 0
	default:
		return 0, false
	}
}

// viewerID is the caller's user id, or 0 when logged out.
func viewerID(ctx *gin.Context) uint {
	id, _ := getUserID(ctx)
	return id
}

func currentEmail(ctx *gin.Context) string {
	return ctx.GetString(middleware.ContextEmailKey)
}

func isAdmin(ctx *gin.Context) bool {
	return utils.IsAdminUsername(ctx.GetString(middleware.ContextUsernameKey))
}

// param reads a form field, falling back to the query string.
func param(ctx *gin.Context, name string) string {
	if v, ok := ctx.GetPostForm(name); ok {
		return strings.TrimSpace(v)
	}
	return strings.TrimSpace(ctx.Query(name))
}

// firstParam returns the first non-empty parameter among names.
func firstParam(ctx *gin.Context, names ...string) string {
	for _, name := range names {
		if v := param(ctx, name); v != "" {
			return v
		}
	}
	return ""
}

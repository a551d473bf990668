package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mintern/forum/utils"
)

const (
	// ContextUserIDKey is the key used to store authenticated user ID in Gin context.
	ContextUserIDKey = "user_id"
	// ContextUsernameKey stores the username inside Gin context.
	ContextUsernameKey = "username"
	// ContextEmailKey stores the signed-in email, present even before signup.
	ContextEmailKey = "email"
	// ContextTokenKey stores the raw bearer token for logout.
	ContextTokenKey = "token"
	// ContextClaimsKey stores the parsed *utils.Claims.
	ContextClaimsKey = "claims"

	// TokenCookie carries the session token for pages that submit plain HTML forms.
	TokenCookie = "mintern_token"
)

// AuthRequired ensures the request is authenticated via JWT.
// The identity must belong to a registered user.
func AuthRequired() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		claims, token, code, msg := authenticate(ctx)
		if claims == nil {
			utils.Error(ctx, http.StatusUnauthorized, code, msg)
			ctx.Abort()
			return
		}
		if !claims.Registered() {
			utils.Error(ctx, http.StatusForbidden, 40301, "signup required")
			ctx.Abort()
			return
		}
		setIdentity(ctx, claims, token)
		ctx.Next()
	}
}

// SignedIn accepts any valid token, including identities that have not signed up yet.
func SignedIn() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		claims, token, code, msg := authenticate(ctx)
		if claims == nil {
			utils.Error(ctx, http.StatusUnauthorized, code, msg)
			ctx.Abort()
			return
		}
		setIdentity(ctx, claims, token)
		ctx.Next()
	}
}

// OptionalAuth sets the identity when a valid token is present and otherwise
// lets the request through anonymously.
func OptionalAuth() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if claims, token, _, _ := authenticate(ctx); claims != nil {
			setIdentity(ctx, claims, token)
		}
		ctx.Next()
	}
}

// AdminRequired must run after AuthRequired.
func AdminRequired() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if !utils.IsAdminUsername(ctx.GetString(ContextUsernameKey)) {
			utils.Error(ctx, http.StatusForbidden, 40302, "admin only")
			ctx.Abort()
			return
		}
		ctx.Next()
	}
}

func authenticate(ctx *gin.Context) (*utils.Claims, string, int, string) {
	tokenString, code, msg := bearerToken(ctx)
	if tokenString == "" {
		return nil, "", code, msg
	}

	if utils.IsTokenBlacklisted(tokenString) {
		return nil, "", 40104, "token revoked"
	}

	claims, err := utils.ParseToken(tokenString)
	if err != nil {
		return nil, "", 40105, "invalid token"
	}
	return claims, tokenString, 0, ""
}

func bearerToken(ctx *gin.Context) (string, int, string) {
	authHeader := ctx.GetHeader("Authorization")
	if authHeader == "" {
		if cookie, err := ctx.Cookie(TokenCookie); err == nil && cookie != "" {
			return cookie, 0, ""
		}
		return "", 40101, "authorization header missing"
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", 40102, "invalid authorization header format"
	}

	tokenString := strings.TrimSpace(parts[1])
	if tokenString == "" {
		return "", 40103, "empty bearer token"
	}
	return tokenString, 0, ""
}

func setIdentity(ctx *gin.Context, claims *utils.Claims, token string) {
	ctx.Set(ContextUserIDKey, claims.UserID)
	ctx.Set(ContextUsernameKey, claims.Username)
	ctx.Set(ContextEmailKey, claims.Email)
	ctx.Set(ContextTokenKey, token)
	ctx.Set(ContextClaimsKey, claims)
}

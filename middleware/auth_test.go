package middleware

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mintern/forum/config"
	"github.com/mintern/forum/utils"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	config.Set(config.AppConfig{JWTSecret: "test-secret", GinMode: "test", AdminUsernames: []string{"root"}})
	os.Exit(m.Run())
}

func identityRouter(guards ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	handlers := append(guards, func(ctx *gin.Context) {
		id, _ := ctx.Get(ContextUserIDKey)
		ctx.JSON(http.StatusOK, gin.H{"user_id": id, "email": ctx.GetString(ContextEmailKey)})
	})
	r.GET("/whoami", handlers...)
	return r
}

func call(r *gin.Engine, mutate func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	if mutate != nil {
		mutate(req)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func bearer(token string) func(*http.Request) {
	return func(req *http.Request) { req.Header.Set("Authorization", "Bearer "+token) }
}

func mustToken(t *testing.T, id uint, username, email string) string {
	t.Helper()
	token, err := utils.GenerateToken(id, username, email, time.Hour)
	require.NoError(t, err)
	return token
}

func TestAuthRequired(t *testing.T) {
	r := identityRouter(AuthRequired())

	w := call(r, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), `"code":40101`)

	w = call(r, func(req *http.Request) { req.Header.Set("Authorization", "Token abc") })
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), `"code":40102`)

	w = call(r, bearer(mustToken(t, 0, "", "new@example.com")))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), `"code":40301`)

	w = call(r, bearer(mustToken(t, 4, "user4", "user4@example.com")))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":4,"email":"user4@example.com"}`, w.Body.String())
}

func TestTokenFromCookie(t *testing.T) {
	r := identityRouter(AuthRequired())
	token := mustToken(t, 5, "user5", "user5@example.com")

	w := call(r, func(req *http.Request) { req.AddCookie(&http.Cookie{Name: TokenCookie, Value: token}) })
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user_id":5`)
}

func TestRevokedTokenIsRejected(t *testing.T) {
	r := identityRouter(SignedIn())
	token := mustToken(t, 6, "revoked", "revoked@example.com")
	utils.BlacklistToken(token, time.Now().Add(time.Hour))

	w := call(r, bearer(token))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), `"code":40104`)
}

func TestSignedInAcceptsUnregistered(t *testing.T) {
	r := identityRouter(SignedIn())

	w := call(r, bearer(mustToken(t, 0, "", "new@example.com")))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":0,"email":"new@example.com"}`, w.Body.String())
}

func TestOptionalAuth(t *testing.T) {
	r := identityRouter(OptionalAuth())

	w := call(r, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":null,"email":""}`, w.Body.String())

	w = call(r, bearer("not-a-jwt"))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":null,"email":""}`, w.Body.String())

	w = call(r, bearer(mustToken(t, 7, "user7", "user7@example.com")))
	assert.JSONEq(t, `{"user_id":7,"email":"user7@example.com"}`, w.Body.String())
}

func TestAdminRequired(t *testing.T) {
	r := identityRouter(AuthRequired(), AdminRequired())

	w := call(r, bearer(mustToken(t, 8, "user8", "user8@example.com")))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = call(r, bearer(mustToken(t, 1, "root", "root@example.com")))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimitPerCaller(t *testing.T) {
	pool := newLimiterPool(2)

	assert.True(t, pool.allow("user:1"))
	assert.False(t, pool.allow("user:1"))
	assert.True(t, pool.allow("user:2"))
	assert.True(t, pool.allow("ip:192.0.2.1"))
}

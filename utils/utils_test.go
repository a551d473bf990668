package utils

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mintern/forum/config"
)

func TestMain(m *testing.M) {
	config.Set(config.AppConfig{
		JWTSecret:      "test-secret",
		GinMode:        "test",
		AdminUsernames: []string{"Root"},
	})
	os.Exit(m.Run())
}

func TestTryParseInt(t *testing.T) {
	assert.Equal(t, 0, TryParseInt(""))
	assert.Equal(t, 0, TryParseInt("not a number"))
	assert.Equal(t, -1, TryParseInt("-1"))
	assert.Equal(t, 42, TryParseInt(" 42 "))

	assert.Equal(t, uint(0), TryParseUint("-1"))
	assert.Equal(t, uint(7), TryParseUint("7"))
}

func TestUniqueAndWithoutUint(t *testing.T) {
	assert.Equal(t, []uint{3, 1, 2}, UniqueUint([]uint{3, 1, 3, 2, 1}))
	assert.Empty(t, UniqueUint(nil))
	assert.Equal(t, []uint{1, 2}, WithoutUint([]uint{5, 1, 5, 2}, 5))
}

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken(4, "user4", "user4@example.com", time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(4), claims.UserID)
	assert.Equal(t, "user4", claims.Username)
	assert.Equal(t, "user4@example.com", claims.Email)
	assert.True(t, claims.Registered())

	unregistered, err := GenerateToken(0, "", "new@example.com", time.Hour)
	require.NoError(t, err)
	claims, err = ParseToken(unregistered)
	require.NoError(t, err)
	assert.False(t, claims.Registered())

	// a non-positive duration falls back to the configured TTL
	defaulted, err := GenerateToken(4, "user4", "user4@example.com", 0)
	require.NoError(t, err)
	claims, err = ParseToken(defaulted)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(72*time.Hour), claims.ExpiresAt.Time, time.Minute)

	_, err = ParseToken(token + "x")
	assert.Error(t, err)
}

func TestPasswords(t *testing.T) {
	_, err := HashPassword("short")
	assert.ErrorIs(t, err, ErrWeakPassword)

	hash, err := HashPassword("long enough")
	require.NoError(t, err)
	assert.True(t, CheckPassword(hash, "long enough"))
	assert.False(t, CheckPassword(hash, "long enougH"))
	assert.False(t, CheckPassword("", "long enough"))
}

func TestTTLSetInMemory(t *testing.T) {
	s := newTTLSet("test:")
	s.add("a", time.Minute)
	s.add("ignored", 0)

	assert.True(t, s.has("a"))
	assert.False(t, s.has("ignored"))

	assert.True(t, s.take("a"))
	assert.False(t, s.take("a"))

	s.items["stale"] = time.Now().Add(-time.Second)
	assert.False(t, s.has("stale"))
	assert.NotContains(t, s.items, "stale")
}

func TestOAuthStateIsSingleUse(t *testing.T) {
	SaveState("state-1", 0)
	assert.True(t, ConsumeState("state-1"))
	assert.False(t, ConsumeState("state-1"))
	assert.False(t, ConsumeState("never-saved"))
}

func TestTokenBlacklist(t *testing.T) {
	BlacklistToken("revoked", time.Now().Add(time.Minute))
	BlacklistToken("already-expired", time.Now().Add(-time.Minute))

	assert.True(t, IsTokenBlacklisted("revoked"))
	assert.False(t, IsTokenBlacklisted("already-expired"))
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "<b>hi</b>", Sanitize(`<b>hi</b><script>alert(1)</script>`))
	assert.Equal(t, "hi", SanitizePlain(" <b>hi</b> "))
	assert.Empty(t, Sanitize("   "))
}

func TestIsAdminUsername(t *testing.T) {
	assert.True(t, IsAdminUsername("root"))
	assert.True(t, IsAdminUsername(" ROOT "))
	assert.False(t, IsAdminUsername("user4"))
	assert.False(t, IsAdminUsername(""))
}

func TestCacheWithoutRedis(t *testing.T) {
	ctx := context.Background()
	var out []int
	CacheSetJSON(ctx, "cache:test", []int{1}, time.Minute)
	assert.False(t, CacheGetJSON(ctx, "cache:test", &out))
	InvalidateByPrefix(ctx, "cache:")
}

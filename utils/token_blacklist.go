package utils

import "time"

var revokedTokens = newTTLSet("jwt:blacklist:")

// BlacklistToken revokes a token until its natural expiration.
func BlacklistToken(token string, expiresAt time.Time) {
	revokedTokens.add(token, time.Until(expiresAt))
}

// IsTokenBlacklisted checks if a token was revoked before natural expiration.
func IsTokenBlacklisted(token string) bool {
	return revokedTokens.has(token)
}

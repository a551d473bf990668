package utils

import "time"

var oauthStates = newTTLSet("oauth:state:")

// SaveState stores an OAuth state token with TTL to mitigate CSRF.
func SaveState(state string, ttl time.Duration) {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	oauthStates.add(state, ttl)
}

// ConsumeState validates and removes a state token. Each state is usable once.
func ConsumeState(state string) bool {
	return oauthStates.take(state)
}

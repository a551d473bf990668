package utils

import (
	"context"
	"sync"
	"time"
)

// ttlSet is a set of string keys with per-key expiry. It lives in Redis when
// configured and in process memory otherwise (single instance only).
type ttlSet struct {
	prefix string
	mu     sync.Mutex
	items  map[string]time.Time
}

func newTTLSet(prefix string) *ttlSet {
	return &ttlSet{prefix: prefix, items: map[string]time.Time{}}
}

func (s *ttlSet) add(key string, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	if rc := GetRedis(); rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := rc.Set(ctx, s.prefix+key, "1", ttl).Err(); err != nil {
			Sugar.Warnw("redis set failed", "prefix", s.prefix, "error", err)
		}
		return
	}
	s.mu.Lock()
	s.sweepLocked()
	s.items[key] = time.Now().Add(ttl)
	s.mu.Unlock()
}

func (s *ttlSet) has(key string) bool {
	if rc := GetRedis(); rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		n, err := rc.Exists(ctx, s.prefix+key).Result()
		if err != nil {
			// fail open so a Redis outage does not lock everyone out
			return false
		}
		return n > 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	exp, ok := s.items[key]
	if !ok {
		return false
	}
	if time.Now().After(exp) {
		delete(s.items, key)
		return false
	}
	return true
}

// take removes key and reports whether it was present and unexpired.
func (s *ttlSet) take(key string) bool {
	if rc := GetRedis(); rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		v, err := rc.GetDel(ctx, s.prefix+key).Result()
		return err == nil && v != ""
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	exp, ok := s.items[key]
	if ok {
		delete(s.items, key)
	}
	return ok && time.Now().Before(exp)
}

func (s *ttlSet) sweepLocked() {
	now := time.Now()
	for k, exp := range s.items {
		if now.After(exp) {
			delete(s.items, k)
		}
	}
}

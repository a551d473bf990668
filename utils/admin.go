package utils

import (
	"strings"

	"github.com/mintern/forum/config"
)

// IsAdminUsername checks whether given username is configured as an admin (case-insensitive)
func IsAdminUsername(username string) bool {
	uname := strings.TrimSpace(username)
	if uname == "" {
		return false
	}
	cfg := config.Get()
	for _, u := range cfg.AdminUsernames {
		if strings.EqualFold(strings.TrimSpace(u), uname) {
			return true
		}
	}
	return false
}

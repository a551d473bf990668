package utils

import (
	"strconv"
	"strings"
)

// TryParseInt parses a request parameter as an integer. Empty, missing or
// malformed values yield 0 instead of an error.
func TryParseInt(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}

// TryParseUint is TryParseInt for identifiers; negative values also yield 0.
func TryParseUint(s string) uint {
	n := TryParseInt(s)
	if n < 0 {
		return 0
	}
	return uint(n)
}

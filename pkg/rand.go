package pkg

import (
	"math/rand/v2"
	"strings"
)

const lowerAlphaNum = "abcdefghijklmnopqrstuvwxyz0123456789"

// RandString returns n random lowercase letters and digits, safe to use in
// docker container and queue names. Not for secrets.
func RandString(n int) string {
	var builder strings.Builder
	builder.Grow(n)

	for range n {
		builder.WriteByte(lowerAlphaNum[rand.IntN(len(lowerAlphaNum))]) //nolint:gosec
	}

	return builder.String()
}

package core

import (
	cryptorand "crypto/rand"
	"strings"
)

// Between returns the substring of s after sub1 and before sub2, or the rest
// of s when sub2 does not follow; "" when sub1 is absent.
func Between(s, sub1, sub2 string) string {
	i := strings.Index(s, sub1)
	if i < 0 {
		return ""
	}
	s = s[i+len(sub1):]

	if i = strings.Index(s, sub2); i >= 0 {
		return s[:i]
	}
	return s
}

const digits = "0123456789abcdefghijklmnopqrstuvwxyz"

func RandString(size byte) string {
	b := make([]byte, size)
	if _, err := cryptorand.Read(b); err != nil {
		panic(err)
	}
	for i := byte(0); i < size; i++ {
		b[i] = digits[b[i]%byte(len(digits))]
	}
	return string(b)
}

package oauth1

import "strings"

const upperhex = "0123456789ABCDEF"

// PercentEncode encodes s per RFC 3986 section 2.1 as required by OAuth 1.0a.
// Only ALPHA, DIGIT, '-', '.', '_' and '~' are left as-is; every other byte
// becomes %XX with uppercase hex. Notably space is %20, never '+'.
func PercentEncode(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[c>>4])
		b.WriteByte(upperhex[c&0x0F])
	}
	return b.String()
}

func isUnreserved(c byte) bool {
	switch {
	case 'A' <= c && c <= 'Z', 'a' <= c && c <= 'z', '0' <= c && c <= '9':
		return true
	case c == '-', c == '.', c == '_', c == '~':
		return true
	}
	return false
}

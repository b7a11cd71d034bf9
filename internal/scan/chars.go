package scan

// IsIdentStart reports whether c may begin a Pawn identifier. The at-sign
// and colon are included because public names (@Foo) and tags (Float:x)
// are scanned as part of the identifier.
func IsIdentStart(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_' || c == '@' || c == ':'
}

// IsIdentChar reports whether c may continue an identifier.
func IsIdentChar(c byte) bool {
	return IsIdentStart(c) || IsDigit(c)
}

func IsDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func IsWhitespace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}

// trimLeadingDigits drops digits that would start an identifier.
func trimLeadingDigits(s string) string {
	i := 0
	for i < len(s) && IsDigit(s[i]) {
		i++
	}
	return s[i:]
}

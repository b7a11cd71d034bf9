package docs

import (
	"regexp"
	"strings"
)

var reDelims = regexp.MustCompile(`(/\*|\*+\s+|\*/|(\*|\*\*)/)`)

// CommentBody returns the block comment that ends on the line directly
// above lines[decl], with comment delimiters and leading asterisks
// removed. It returns "" when the previous line does not close a comment.
func CommentBody(lines []string, decl int) string {
	if decl < 1 || decl > len(lines) || !strings.Contains(lines[decl-1], "*/") {
		return ""
	}

	for start := decl - 1; start >= 0; start-- {
		if !strings.Contains(lines[start], "/*") {
			continue
		}
		var b strings.Builder
		for _, line := range lines[start:decl] {
			b.WriteString(line)
			b.WriteString("\n\n")
		}
		return strings.TrimSpace(reDelims.ReplaceAllLiteralString(b.String(), ""))
	}
	return ""
}

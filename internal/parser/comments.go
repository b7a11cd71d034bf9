package parser

import "strings"

type lineClass int

const (
	lineCode lineClass = iota
	lineComment
	lineBlockComment
)

// commentState tracks block comments one line at a time. It is
// deliberately coarse: a line that opens or closes a multi-line comment is
// treated as comment in full, whatever code shares the line.
type commentState struct {
	depth int
}

// classify returns the class of line and, for code lines, the line with any
// same-line /* ... */ comments replaced by spaces so columns stay put.
func (c *commentState) classify(line string) (lineClass, string) {
	opens := strings.Contains(line, "/*")
	closes := strings.Contains(line, "*/")

	switch {
	case c.depth == 0 && opens && closes && balanced(line):
		return classifyCode(blankComments(line))
	case opens && closes:
		return lineBlockComment, line
	case opens:
		c.depth++
		return lineBlockComment, line
	case closes:
		if c.depth > 0 {
			c.depth--
		}
		return lineBlockComment, line
	case c.depth > 0:
		return lineBlockComment, line
	}
	return classifyCode(line)
}

func classifyCode(line string) (lineClass, string) {
	if strings.HasPrefix(strings.TrimSpace(line), "//") {
		return lineComment, line
	}
	return lineCode, line
}

// balanced reports whether every /* on the line is closed on the same line
func balanced(line string) bool {
	for {
		open := strings.Index(line, "/*")
		if open < 0 {
			return true
		}
		end := strings.Index(line[open+2:], "*/")
		if end < 0 {
			return false
		}
		line = line[open+2+end+2:]
	}
}

func blankComments(line string) string {
	b := []byte(line)
	for {
		open := strings.Index(string(b), "/*")
		if open < 0 {
			return string(b)
		}
		end := strings.Index(string(b[open+2:]), "*/")
		if end < 0 {
			return string(b)
		}
		stop := open + 2 + end + 2
		for k := open; k < stop; k++ {
			b[k] = ' '
		}
	}
}

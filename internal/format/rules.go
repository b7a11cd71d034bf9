package format

import (
	"regexp"
	"strings"
)

// rule is one regex rewrite. Rules with code set only touch text outside
// double-quoted strings.
type rule struct {
	re   *regexp.Regexp
	repl string
	code bool
}

const tag = "pawnls_tag_"

// protect hides Pawn syntax the JavaScript beautifier would mangle:
// preprocessor lines, tag colons, @-prefixed names and const.
var protect = []rule{
	{re: regexp.MustCompile(`(?m)(^[ \t]+#|^#)`), repl: "//" + tag + "hash_${1}"},
	{re: regexp.MustCompile(`([^\s:]):([^\s:])`), repl: "${1}" + tag + "colon${2}", code: true},
	{re: regexp.MustCompile(`([^\s:])::([^\s:])`), repl: "${1}" + tag + "two_colon${2}", code: true},
	{re: regexp.MustCompile(`([^\s:]):: +([^\s:])`), repl: "${1}" + tag + "four_colon${2}", code: true},
	{re: regexp.MustCompile(`([\w^\s:]): +([^\s:])`), repl: "${1}" + tag + "three_colon${2}", code: true},
	{re: regexp.MustCompile(`([^\s:])@([^\s:])`), repl: "${1}" + tag + "at${2}", code: true},
	{re: regexp.MustCompile(`\bconst\b`), repl: tag + "const"},
}

// restore undoes protect and repairs a few beautifier habits
var restore = []rule{
	{re: regexp.MustCompile(`\b` + tag + `const\b`), repl: "const"},
	{re: regexp.MustCompile(tag + `colon`), repl: ":"},
	{re: regexp.MustCompile(tag + `two_colon`), repl: "::"},
	{re: regexp.MustCompile(tag + `three_colon`), repl: ": "},
	{re: regexp.MustCompile(tag + `four_colon`), repl: ":: "},
	{re: regexp.MustCompile(tag + `at`), repl: "@"},
	{re: regexp.MustCompile(`>(\s+)\nhook`), repl: ">\nhook"},
	{re: regexp.MustCompile(`static(\s+)const`), repl: "static const"},
	{re: regexp.MustCompile(`\.\s\.`), repl: ".."},
	{re: regexp.MustCompile(`(?m)^[ \t]+//` + tag + `hash_|^//` + tag + `hash_`), repl: ""},
}

func apply(rules []rule, text string) string {
	for _, r := range rules {
		if r.code {
			text = outsideStrings(text, func(s string) string {
				return r.re.ReplaceAllString(s, r.repl)
			})
			continue
		}
		text = r.re.ReplaceAllString(text, r.repl)
	}
	return text
}

// outsideStrings applies fn to every stretch of each line that is not
// inside a double-quoted string. Strings end at the line end.
func outsideStrings(text string, fn func(string) string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if !strings.Contains(line, `"`) {
			lines[i] = fn(line)
			continue
		}

		var b strings.Builder
		start, inString := 0, false
		for j := 0; j < len(line); j++ {
			c := line[j]
			if inString {
				switch c {
				case '\\':
					j++
				case '"':
					b.WriteString(line[start : j+1])
					start, inString = j+1, false
				}
				continue
			}
			if c == '"' {
				b.WriteString(fn(line[start:j]))
				start, inString = j, true
			}
		}
		if inString {
			b.WriteString(line[start:])
		} else {
			b.WriteString(fn(line[start:]))
		}
		lines[i] = b.String()
	}
	return strings.Join(lines, "\n")
}

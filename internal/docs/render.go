package docs

import (
	"fmt"
	"regexp"
	"strings"
)

// Fallback texts shown when a section is absent
const (
	NoDescription = "This function doesn't have description"
	NoParameters  = "This function doesn't have parameter"
	NoReturn      = "This function doesn't return any value (void)"
	NoRemarks     = "This function doesn't have additional notes"
)

var (
	reSummary = regexp.MustCompile(`<summary>([\s\S]*?)</summary>`)
	reParam   = regexp.MustCompile(`<param (.*)="(.*)">([\s\S]*?)</param>`)
	reReturns = regexp.MustCompile(`<(return|returns)>([\s\S]*?)</(return|returns)>`)
	reRemarks = regexp.MustCompile(`<remarks>([\s\S]*?)</remarks>`)

	reStrong = regexp.MustCompile(`(<|</)(b|strong)>`)
	reCode   = regexp.MustCompile(`(<|</)(c|a|a (.*)="(.*)")>`)
	reBreak  = regexp.MustCompile(`(<br)(>| />)`)
	reItalic = regexp.MustCompile(`(<|</)(em)>`)
	reList   = regexp.MustCompile(`((<|</)ul>)|(</li>)`)
	reItem   = regexp.MustCompile(`<li>`)
)

var entities = strings.NewReplacer("&lt;", "<", "&gt;", ">")

// inline applies the one-pass inline substitutions. Overlapping or
// unbalanced tags are left partially substituted.
func inline(s string, breaks bool) string {
	s = reStrong.ReplaceAllLiteralString(s, "**")
	s = reCode.ReplaceAllLiteralString(s, "`")
	if breaks {
		s = reBreak.ReplaceAllLiteralString(s, "\n")
	}
	s = reItalic.ReplaceAllLiteralString(s, "*")
	return s
}

// Render converts a documentation comment body into markdown with a fixed
// section order: description, params, returns, remarks.
func Render(body string) string {
	var out strings.Builder

	if m := reSummary.FindStringSubmatch(body); m != nil {
		out.WriteString(strings.TrimSpace(entities.Replace(inline(m[1], true))))
		out.WriteString("\n")
	} else {
		out.WriteString(NoDescription + "\n")
	}

	out.WriteString("### Params\n")
	params := reParam.FindAllStringSubmatch(body, -1)
	for _, m := range params {
		name := m[2]
		if name == "" {
			name = "..."
		}
		desc := strings.TrimSpace(entities.Replace(inline(m[3], false)))
		fmt.Fprintf(&out, "* `%s` - %s\n", name, desc)
	}
	if len(params) == 0 {
		out.WriteString(NoParameters + "\n")
	}

	out.WriteString("### Returns\n")
	if m := reReturns.FindStringSubmatch(body); m != nil {
		out.WriteString(strings.TrimSpace(entities.Replace(inline(m[2], true))))
		out.WriteString("\n")
	} else {
		out.WriteString(NoReturn + "\n")
	}

	out.WriteString("### Remarks")
	remarks := reRemarks.FindAllStringSubmatch(body, -1)
	for _, m := range remarks {
		s := inline(m[1], true)
		s = reList.ReplaceAllLiteralString(s, "")
		s = strings.TrimSpace(entities.Replace(s))
		s = reItem.ReplaceAllLiteralString(s, "  * ")
		out.WriteString("\n")
		out.WriteString(s)
	}
	if len(remarks) == 0 {
		out.WriteString("\n" + NoRemarks + "\n")
	}

	return out.String()
}

package scan

// Call is the result of EnclosingCall. An empty Name means the cursor is
// not inside an argument list.
type Call struct {
	Name           string
	ParameterIndex int
}

type callState int

const (
	inCode callState = iota
	inString
)

// EnclosingCall finds the call whose argument list contains offset i and
// the zero-based index of the argument the cursor is in.
//
// The scan walks left from i-1. Parentheses closed to the left of the
// cursor belong to nested calls and are skipped together with their
// opening paren. Commas only count at depth zero. A ';' outside a string
// means the cursor is not inside a call.
func EnclosingCall(text string, i int) Call {
	if i > len(text) {
		i = len(text)
	}

	state := inCode
	depth, param := 0, 0
	for k := i - 1; k >= 0; k-- {
		c := text[k]
		if state == inString {
			if c == '"' && (k == 0 || text[k-1] != '\\') {
				state = inCode
			}
			continue
		}

		switch c {
		case ';':
			return Call{}
		case '"':
			state = inString
		case ',':
			if depth == 0 {
				param++
			}
		case ')':
			depth++
		case '(':
			if depth > 0 {
				depth--
				continue
			}
			name := identifierBefore(text, k)
			if name == "" {
				return Call{}
			}
			return Call{Name: name, ParameterIndex: param}
		}
	}
	return Call{}
}

// identifierBefore collects the identifier that ends right before paren,
// skipping whitespace between the two.
func identifierBefore(text string, paren int) string {
	j := paren - 1
	for j >= 0 && IsWhitespace(text[j]) {
		j--
	}
	end := j + 1
	for j >= 0 && IsIdentChar(text[j]) {
		j--
	}
	return trimLeadingDigits(text[j+1 : end])
}

package scan

// Identifier is the result of IdentifierAt. An empty Name means there is
// no identifier under the cursor.
type Identifier struct {
	Name string
	// Callable is set when the identifier is followed by '(' (after
	// optional whitespace).
	Callable bool
}

// IdentifierAt returns the identifier run that contains offset i.
//
// The byte at i must itself be an identifier character. A digit only
// counts when the byte before it is an identifier character too, so the
// cursor on a numeric literal yields nothing. Digits that would lead the
// assembled identifier are dropped.
func IdentifierAt(text string, i int) Identifier {
	if i < 0 || i >= len(text) || !IsIdentChar(text[i]) {
		return Identifier{}
	}
	if IsDigit(text[i]) && (i == 0 || !IsIdentChar(text[i-1])) {
		return Identifier{}
	}

	start := i
	for start > 0 && IsIdentChar(text[start-1]) {
		start--
	}
	end := i + 1
	for end < len(text) && IsIdentChar(text[end]) {
		end++
	}

	name := trimLeadingDigits(text[start:end])
	if name == "" {
		return Identifier{}
	}

	j := end
	for j < len(text) && IsWhitespace(text[j]) {
		j++
	}
	return Identifier{
		Name:     name,
		Callable: j < len(text) && text[j] == '(',
	}
}

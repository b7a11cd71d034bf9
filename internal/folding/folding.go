// Package folding computes folding ranges for Pawn documents.
//
// Pawn is close enough to C that the tree-sitter C grammar recovers its
// blocks, initializer lists, enums and comments even when declarations
// carry tags the grammar does not know. Region markers are matched on
// raw lines:
//
//	// #region Vehicles
//	...
//	// #endregion
package folding

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"
)

// Kinds reported on ranges. Blocks have no kind.
const (
	KindComment = "comment"
	KindRegion  = "region"
)

// Range is one foldable span of whole lines, 0-based and inclusive
type Range struct {
	StartLine int
	EndLine   int
	Kind      string
}

// blockNodes fold everything but the line holding the closing brace
var blockNodes = map[string]bool{
	"compound_statement":     true,
	"initializer_list":       true,
	"enumerator_list":        true,
	"field_declaration_list": true,
}

var (
	reRegionStart = regexp.MustCompile(`^\s*//\s*#region\b`)
	reRegionEnd   = regexp.MustCompile(`^\s*//\s*#endregion\b`)
)

// Ranges returns the folding ranges of text ordered by start line
func Ranges(ctx context.Context, text string) ([]Range, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(c.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, []byte(text))
	if err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}
	defer tree.Close()

	seen := make(map[Range]struct{})
	var out []Range
	add := func(r Range) {
		if r.EndLine <= r.StartLine {
			return
		}
		if _, ok := seen[r]; ok {
			return
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}

	walk(tree.RootNode(), add)
	for _, r := range regions(text) {
		add(r)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].StartLine != out[j].StartLine {
			return out[i].StartLine < out[j].StartLine
		}
		return out[i].EndLine > out[j].EndLine
	})
	return out, nil
}

func walk(n *sitter.Node, add func(Range)) {
	if n == nil {
		return
	}
	start, end := int(n.StartPoint().Row), int(n.EndPoint().Row)

	switch {
	case n.Type() == "comment":
		add(Range{StartLine: start, EndLine: end, Kind: KindComment})
	case blockNodes[n.Type()]:
		add(Range{StartLine: start, EndLine: end - 1})
	}

	for i := 0; i < int(n.ChildCount()); i++ {
		walk(n.Child(i), add)
	}
}

// regions pairs region markers like brackets. Unmatched markers are
// ignored.
func regions(text string) []Range {
	var out []Range
	var open []int
	for i, line := range strings.Split(text, "\n") {
		switch {
		case reRegionEnd.MatchString(line):
			if len(open) == 0 {
				continue
			}
			start := open[len(open)-1]
			open = open[:len(open)-1]
			out = append(out, Range{StartLine: start, EndLine: i, Kind: KindRegion})
		case reRegionStart.MatchString(line):
			open = append(open, i)
		}
	}
	return out
}

package parser

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/dshills/pawnls/internal/docs"
	"github.com/dshills/pawnls/internal/scan"
	"github.com/dshills/pawnls/pkg/types"
)

// Options selects which extraction passes run. Each field mirrors one of
// the allow* editor settings.
type Options struct {
	Natives         bool
	Functions       bool // forward, keyword and bare-call declarations
	CustomSnippets  bool
	DefineFunctions bool
	Defines         bool
	Words           bool
}

// AllPasses enables every pass.
func AllPasses() Options {
	return Options{
		Natives:         true,
		Functions:       true,
		CustomSnippets:  true,
		DefineFunctions: true,
		Defines:         true,
		Words:           true,
	}
}

// Bits packs the option set into a fingerprint for cached extractions
func (o Options) Bits() uint8 {
	var b uint8
	for i, on := range []bool{o.Natives, o.Functions, o.CustomSnippets, o.DefineFunctions, o.Defines, o.Words} {
		if on {
			b |= 1 << i
		}
	}
	return b
}

// Parser runs the regex extraction passes over Pawn source text
type Parser struct {
	passes []pass
}

// New creates a new Parser instance
func New() *Parser {
	return &Parser{passes: defaultPasses()}
}

// ParseFile reads a file from disk and extracts its symbols
func (p *Parser) ParseFile(filePath string, opts Options) (*types.ParseResult, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return p.Parse(types.FileURI(filePath), string(content), opts), nil
}

// Parse extracts symbol candidates and free words from one document.
// Symbols are returned in extraction order; deciding which candidate owns
// a name is left to the symbol table.
func (p *Parser) Parse(uri, text string, opts Options) *types.ParseResult {
	doc := newDocument(uri, text)
	result := &types.ParseResult{URI: uri}

	for _, ps := range p.passes {
		if !ps.enabled(opts) {
			continue
		}
		for i, line := range doc.code {
			if doc.classes[i] != ps.scope {
				continue
			}
			m := ps.re.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			if sym, ok := ps.build(doc, i, m); ok {
				result.Symbols = append(result.Symbols, sym)
			}
		}
	}

	if opts.Words {
		result.Words = doc.words()
	}
	return result
}

// document is the per-parse view of the text shared by all passes
type document struct {
	uri string
	// lines as written, used for documentation lookup
	lines []string
	// lines with same-line block comments blanked out, used for matching
	code    []string
	classes []lineClass
}

func newDocument(uri, text string) *document {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}

	doc := &document{
		uri:     uri,
		lines:   lines,
		code:    make([]string, len(lines)),
		classes: make([]lineClass, len(lines)),
	}

	var cs commentState
	for i, l := range lines {
		doc.classes[i], doc.code[i] = cs.classify(l)
	}
	return doc
}

var reWord = regexp.MustCompile(`[A-Za-z0-9_@:]+`)

// words collects unique identifier-like runs outside comments, in order of
// first appearance
func (d *document) words() []string {
	seen := make(map[string]struct{})
	words := make([]string, 0)
	for i, line := range d.code {
		if d.classes[i] != lineCode {
			continue
		}
		for _, w := range reWord.FindAllString(line, -1) {
			if _, ok := seen[w]; ok {
				continue
			}
			seen[w] = struct{}{}
			words = append(words, w)
		}
	}
	return words
}

// location returns the span of key on line i
func (d *document) location(i int, key string) types.Location {
	line := d.lines[i]
	start := strings.Index(line, key)
	if start < 0 {
		start = 0
	}
	startCol := scan.Column(line, start)
	endCol := scan.Column(line, start+len(key))
	if start+len(key) > len(line) {
		endCol = startCol + len(key)
	}
	return types.Location{
		URI: d.uri,
		Range: types.Range{
			Start: types.Position{Line: i, Character: startCol},
			End:   types.Position{Line: i, Character: endCol},
		},
	}
}

// documentation renders the comment block above line i
func (d *document) documentation(i int) string {
	return docs.Render(docs.CommentBody(d.lines, i))
}

// splitParams turns "a, Float:b" into ["a", "Float:b"]
func splitParams(args string) []string {
	if strings.TrimSpace(args) == "" {
		return []string{}
	}
	parts := strings.Split(args, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

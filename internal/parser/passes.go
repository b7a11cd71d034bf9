package parser

import (
	"regexp"
	"strings"

	"github.com/dshills/pawnls/internal/scan"
	"github.com/dshills/pawnls/pkg/types"
)

// pass is one extraction pattern with the rule that turns a match into a
// symbol candidate
type pass struct {
	name    string
	re      *regexp.Regexp
	scope   lineClass
	enabled func(Options) bool
	build   func(d *document, line int, m []string) (types.Symbol, bool)
}

var (
	reNative   = regexp.MustCompile(`^\s*native\s(\S+)\((.*?)\)`)
	reForward  = regexp.MustCompile(`^\s*forward\s+(\S+)\((.*?)\)`)
	reFunction = regexp.MustCompile(`^\s*(?:stock|function|func|timer|remotefunc|foreign)\s+(\S+)\((.*?)\)`)
	reBareCall = regexp.MustCompile(`^(\S+)\((.*?)\)`)

	reSnippetAlias    = regexp.MustCompile(`^//#snippet\s(\S+)\s(\S.+)$`)
	reSnippetFunction = regexp.MustCompile(`^//#function\s(\S+)\((.*?)\)`)

	reDefineFunction = regexp.MustCompile(`^\s*#define\s+(\S+)\((.*?)\)`)
	reDefine         = regexp.MustCompile(`^\s*#define\s+([^\s()]+)\s+(\S+)\s*$`)
)

// defaultPasses returns the passes in extraction order
func defaultPasses() []pass {
	natives := func(o Options) bool { return o.Natives }
	functions := func(o Options) bool { return o.Functions }
	snippets := func(o Options) bool { return o.CustomSnippets }

	return []pass{
		{name: "native", re: reNative, scope: lineCode, enabled: natives,
			build: declaration(types.KindNative, insertName)},
		{name: "forward", re: reForward, scope: lineCode, enabled: functions,
			build: declaration(types.KindForward, insertCall)},
		{name: "function", re: reFunction, scope: lineCode, enabled: functions,
			build: declaration(types.KindFunction, insertCall)},
		{name: "bare-call", re: reBareCall, scope: lineCode, enabled: functions,
			build: declaration(types.KindBareCall, insertName)},
		{name: "snippet", re: reSnippetAlias, scope: lineComment, enabled: snippets,
			build: snippetAlias},
		{name: "snippet-function", re: reSnippetFunction, scope: lineComment, enabled: snippets,
			build: snippetFunction},
		{name: "define-function", re: reDefineFunction, scope: lineCode,
			enabled: func(o Options) bool { return o.DefineFunctions },
			build:   defineFunction},
		{name: "define", re: reDefine, scope: lineCode,
			enabled: func(o Options) bool { return o.Defines },
			build:   define},
	}
}

// hidden reports names reserved for library internals
func hidden(name string) bool {
	return strings.Contains(name, "__")
}

// identifier rejects captures like `printf("x` that the greedy name group
// picks up from calls written at column zero
func identifier(name string) bool {
	if name == "" || scan.IsDigit(name[0]) {
		return false
	}
	for i := 0; i < len(name); i++ {
		if !scan.IsIdentChar(name[i]) {
			return false
		}
	}
	return true
}

func insertName(name, _ string) string { return name }

func insertCall(name, args string) string { return name + "(" + args + ")" }

// declaration builds the rule shared by native, forward, function and
// bare-call passes: m[1] is the possibly tagged name, m[2] the arguments.
func declaration(kind types.SymbolKind, insert func(name, args string) string) func(*document, int, []string) (types.Symbol, bool) {
	return func(d *document, i int, m []string) (types.Symbol, bool) {
		tagged, args := m[1], m[2]
		if hidden(tagged) {
			return types.Symbol{}, false
		}
		name := types.StripTag(tagged)
		if !identifier(name) {
			return types.Symbol{}, false
		}
		return types.Symbol{
			Name:          name,
			Kind:          kind,
			Label:         tagged + "(" + args + ")",
			InsertText:    insert(name, args),
			Documentation: d.documentation(i),
			Parameters:    splitParams(args),
			Location:      d.location(i, name),
			SourceURI:     d.uri,
		}, true
	}
}

func snippetAlias(d *document, i int, m []string) (types.Symbol, bool) {
	alias, expansion := m[1], m[2]
	return types.Symbol{
		Name:          alias,
		Kind:          types.KindCustomSnippet,
		Label:         alias,
		InsertText:    expansion,
		Documentation: "### Generic Snippet Usage:\n" + alias,
		Parameters:    []string{},
		Location:      d.location(i, alias),
		SourceURI:     d.uri,
	}, true
}

func snippetFunction(d *document, i int, m []string) (types.Symbol, bool) {
	name, args := m[1], m[2]
	call := name + "(" + args + ")"
	return types.Symbol{
		Name:          name,
		Kind:          types.KindCustomSnippet,
		Label:         call,
		InsertText:    call,
		Documentation: "### Snippet Function Usage:\n" + call,
		Parameters:    splitParams(args),
		Location:      d.location(i, name),
		SourceURI:     d.uri,
	}, true
}

func defineFunction(d *document, i int, m []string) (types.Symbol, bool) {
	name, args := m[1], m[2]
	call := name + "(" + args + ")"
	return types.Symbol{
		Name:          name,
		Kind:          types.KindMacroFunction,
		Label:         call,
		InsertText:    call,
		Documentation: "### Define Function Usage:\n" + call,
		Parameters:    splitParams(args),
		Location:      d.location(i, name),
		SourceURI:     d.uri,
	}, true
}

func define(d *document, i int, m []string) (types.Symbol, bool) {
	name := m[1]
	return types.Symbol{
		Name:          name,
		Kind:          types.KindMacroConstant,
		Label:         name,
		InsertText:    name,
		Documentation: "### Define Usage:\n" + name,
		Parameters:    []string{},
		Location:      d.location(i, name),
		SourceURI:     d.uri,
	}, true
}

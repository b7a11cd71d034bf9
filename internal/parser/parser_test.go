package parser

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dshills/pawnls/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testURI = "file:///srv/gamemodes/main.pwn"

func parse(t *testing.T, text string) *types.ParseResult {
	t.Helper()
	return New().Parse(testURI, text, AllPasses())
}

func byName(result *types.ParseResult) map[string]types.Symbol {
	out := make(map[string]types.Symbol)
	for _, s := range result.Symbols {
		if _, ok := out[s.Name]; !ok {
			out[s.Name] = s
		}
	}
	return out
}

func TestParse_Native(t *testing.T) {
	result := parse(t, "native SetHealth(playerid, Float:health);")

	require.Len(t, result.Symbols, 1)
	sym := result.Symbols[0]
	assert.Equal(t, "SetHealth", sym.Name)
	assert.Equal(t, types.KindNative, sym.Kind)
	assert.Equal(t, "SetHealth(playerid, Float:health)", sym.Label)
	assert.Equal(t, "SetHealth", sym.InsertText)
	assert.Equal(t, []string{"playerid", "Float:health"}, sym.Parameters)
	assert.Contains(t, sym.Documentation, "doesn't return any value")
	assert.Equal(t, testURI, sym.SourceURI)
	assert.NoError(t, sym.Validate())

	assert.Equal(t, types.Range{
		Start: types.Position{Line: 0, Character: 7},
		End:   types.Position{Line: 0, Character: 16},
	}, sym.Location.Range)
}

func TestParse_TaggedNative(t *testing.T) {
	result := parse(t, "native Float:floatsqrt(Float:value);")

	require.Len(t, result.Symbols, 1)
	sym := result.Symbols[0]
	assert.Equal(t, "floatsqrt", sym.Name)
	assert.Equal(t, "Float:floatsqrt(Float:value)", sym.Label)
	assert.Equal(t, "floatsqrt", sym.InsertText)
	assert.Equal(t, 13, sym.Location.Range.Start.Character)
}

func TestParse_Functions(t *testing.T) {
	text := "forward OnTimer(id);\n" +
		"stock Float:GetSpeed(vehicleid)\n" +
		"static stock Helper()\n" +
		"public OnGameModeInit()\n" +
		"main()\n" +
		"    indented(1);\n"

	syms := byName(parse(t, text))

	fwd := syms["OnTimer"]
	assert.Equal(t, types.KindForward, fwd.Kind)
	assert.Equal(t, "OnTimer(id)", fwd.InsertText)

	speed := syms["GetSpeed"]
	assert.Equal(t, types.KindFunction, speed.Kind)
	assert.Equal(t, "Float:GetSpeed(vehicleid)", speed.Label)
	assert.Equal(t, "GetSpeed(vehicleid)", speed.InsertText)

	// only the listed keywords may start a function declaration
	assert.NotContains(t, syms, "Helper")

	main := syms["main"]
	assert.Equal(t, types.KindBareCall, main.Kind)
	assert.Equal(t, "main", main.InsertText)
	assert.Empty(t, main.Parameters)

	_, ok := syms["indented"]
	assert.False(t, ok, "bare calls must start at column zero")

	// "public" is not a function keyword
	_, ok = syms["OnGameModeInit"]
	assert.False(t, ok)
}

func TestParse_HiddenNames(t *testing.T) {
	text := "native __Internal(x);\n" +
		"stock Foo__Bar()\n" +
		"native Visible();\n"

	syms := byName(parse(t, text))
	assert.Len(t, syms, 1)
	assert.Contains(t, syms, "Visible")
}

func TestParse_RejectsNonIdentifiers(t *testing.T) {
	text := "native Float:operator*(Float:oper1, Float:oper2) = floatmul;\n" +
		"printf(\"x(%d)\", 1);\n"

	result := parse(t, text)
	assert.Empty(t, result.Symbols)
}

func TestParse_Snippets(t *testing.T) {
	text := "//#snippet pfor for(new i = 0; i < MAX_PLAYERS; i++)\n" +
		"//#function SendMsg(playerid, const msg[])\n"

	syms := byName(parse(t, text))

	alias := syms["pfor"]
	assert.Equal(t, types.KindCustomSnippet, alias.Kind)
	assert.Equal(t, "pfor", alias.Label)
	assert.Equal(t, "for(new i = 0; i < MAX_PLAYERS; i++)", alias.InsertText)
	assert.Equal(t, "### Generic Snippet Usage:\npfor", alias.Documentation)

	fn := syms["SendMsg"]
	assert.Equal(t, types.KindCustomSnippet, fn.Kind)
	assert.Equal(t, "SendMsg(playerid, const msg[])", fn.Label)
	assert.Equal(t, fn.Label, fn.InsertText)
	assert.Equal(t, []string{"playerid", "const msg[]"}, fn.Parameters)
	assert.Equal(t, "### Snippet Function Usage:\nSendMsg(playerid, const msg[])", fn.Documentation)
}

func TestParse_SnippetsOnlyInLineComments(t *testing.T) {
	text := "/*\n//#snippet hidden nope()\n*/\n"
	assert.Empty(t, parse(t, text).Symbols)
}

func TestParse_Defines(t *testing.T) {
	text := "#define MAX_HOUSES 100\n" +
		"#define IsValid(%0) ((%0) != -1)\n" +
		"#define WRAPPED (5)  \n" +
		"#define EMPTY\n"

	syms := byName(parse(t, text))

	c := syms["MAX_HOUSES"]
	assert.Equal(t, types.KindMacroConstant, c.Kind)
	assert.Equal(t, "MAX_HOUSES", c.InsertText)
	assert.Equal(t, "### Define Usage:\nMAX_HOUSES", c.Documentation)

	fn := syms["IsValid"]
	assert.Equal(t, types.KindMacroFunction, fn.Kind)
	assert.Equal(t, "IsValid(%0)", fn.Label)
	assert.Equal(t, []string{"%0"}, fn.Parameters)
	assert.Equal(t, 8, fn.Location.Range.Start.Character)

	assert.Equal(t, types.KindMacroConstant, syms["WRAPPED"].Kind)

	_, ok := syms["EMPTY"]
	assert.False(t, ok)
}

func TestParse_SkipsComments(t *testing.T) {
	text := "/*\n" +
		"native Hidden();\n" +
		"*/\n" +
		"// native AlsoHidden();\n" +
		"native Shown(); /* trailing */\n" +
		"/* leading */ native Bar();\n"

	syms := byName(parse(t, text))
	assert.Contains(t, syms, "Shown")
	assert.Contains(t, syms, "Bar")
	assert.NotContains(t, syms, "Hidden")
	assert.NotContains(t, syms, "AlsoHidden")

	assert.Equal(t, 21, syms["Bar"].Location.Range.Start.Character)
}

func TestParse_Documentation(t *testing.T) {
	text := "/**\n" +
		" * <summary>Sets the health of a player.</summary>\n" +
		" * <param name=\"playerid\">The player</param>\n" +
		" * <returns>1 on success</returns>\n" +
		" */\n" +
		"native SetPlayerHealth(playerid, Float:health);\n" +
		"native NoDocs();\n"

	syms := byName(parse(t, text))

	doc := syms["SetPlayerHealth"].Documentation
	assert.Contains(t, doc, "Sets the health of a player.")
	assert.Contains(t, doc, "* `playerid` - The player")
	assert.Contains(t, doc, "1 on success")

	assert.Contains(t, syms["NoDocs"].Documentation, "doesn't have description")
}

func TestParse_Words(t *testing.T) {
	text := "new a = b + c_1;\n" +
		"// skipped words\n" +
		"/* none */\n" +
		"new a = @d + CMD:help;\n"

	result := parse(t, text)
	assert.Equal(t, []string{"new", "a", "b", "c_1", "@d", "CMD:help"}, result.Words)
}

func TestParse_Options(t *testing.T) {
	text := "native N();\n" +
		"stock F()\n" +
		"#define C 1\n" +
		"#define M(%0) %0\n" +
		"//#snippet s xy\n"

	p := New()

	result := p.Parse(testURI, text, Options{})
	assert.Empty(t, result.Symbols)
	assert.Empty(t, result.Words)

	result = p.Parse(testURI, text, Options{Natives: true})
	require.Len(t, result.Symbols, 1)
	assert.Equal(t, "N", result.Symbols[0].Name)

	result = p.Parse(testURI, text, Options{Defines: true, DefineFunctions: true})
	names := byName(result)
	assert.Len(t, names, 2)
	assert.Contains(t, names, "C")
	assert.Contains(t, names, "M")

	result = p.Parse(testURI, text, Options{CustomSnippets: true})
	require.Len(t, result.Symbols, 1)
	assert.Equal(t, "s", result.Symbols[0].Name)
}

func TestParse_CRLF(t *testing.T) {
	result := parse(t, "native Foo();\r\n#define BAR 1\r\n")

	syms := byName(result)
	assert.Contains(t, syms, "Foo")
	assert.Contains(t, syms, "BAR")
	assert.NotContains(t, result.Words, "1\r")
}

func TestParse_ReturnsDuplicates(t *testing.T) {
	text := "forward OnTimer(id);\n" +
		"stock OnTimer(id)\n"

	result := parse(t, text)
	require.Len(t, result.Symbols, 2)
	assert.Equal(t, types.KindForward, result.Symbols[0].Kind)
	assert.Equal(t, types.KindFunction, result.Symbols[1].Kind)
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lib.inc")
	require.NoError(t, os.WriteFile(path, []byte("native Lib();\n"), 0644))

	result, err := New().ParseFile(path, AllPasses())
	require.NoError(t, err)
	assert.Equal(t, types.FileURI(path), result.URI)
	require.Len(t, result.Symbols, 1)
	assert.Equal(t, result.URI, result.Symbols[0].SourceURI)
}

func TestParseFile_NonExistentFile(t *testing.T) {
	_, err := New().ParseFile("/nonexistent/file.pwn", AllPasses())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read file")
}

func TestCommentState(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
		want  []lineClass
	}{
		{
			name:  "multi-line block",
			lines: []string{"/*", "x", "*/", "y"},
			want:  []lineClass{lineBlockComment, lineBlockComment, lineBlockComment, lineCode},
		},
		{
			name:  "same line block",
			lines: []string{"a /* b */ c", "d"},
			want:  []lineClass{lineCode, lineCode},
		},
		{
			name:  "line comment",
			lines: []string{"  // note", "x"},
			want:  []lineClass{lineComment, lineCode},
		},
		{
			name:  "close then open on one line",
			lines: []string{"/* a", "b */ c /* d", "e */", "f"},
			want:  []lineClass{lineBlockComment, lineBlockComment, lineBlockComment, lineCode},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cs commentState
			got := make([]lineClass, len(tt.lines))
			for i, l := range tt.lines {
				got[i], _ = cs.classify(l)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBlankComments(t *testing.T) {
	assert.Equal(t, "a         c", blankComments("a /* b */ c"))
	assert.Equal(t, "no comment", blankComments("no comment"))
}

func TestOptions_Bits(t *testing.T) {
	assert.Equal(t, uint8(0), Options{}.Bits())
	assert.Equal(t, uint8(0x3f), AllPasses().Bits())
	assert.NotEqual(t, Options{Natives: true}.Bits(), Options{Words: true}.Bits())
}

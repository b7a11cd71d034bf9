package format

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/pawnls/internal/config"
	"github.com/dshills/pawnls/pkg/types"
)

var identity = BeautifierFunc(func(_ context.Context, src string, _ Options) (string, error) {
	return src, nil
})

func TestProtectRestore_RoundTrip(t *testing.T) {
	tests := []string{
		"#include <a_samp>\n",
		"\t#define MAX_CASH 500000\n",
		"new Float:x = 1.0;\n",
		"stock Float: Distance(Float:x1, Float:y1)\n",
		"Group::Member(a)\n",
		"hook OnPlayerConnect@Spawn(playerid)\n",
		"static const name[] = \"a:b @c\";\n",
	}
	for _, text := range tests {
		t.Run(strings.TrimSpace(text), func(t *testing.T) {
			assert.Equal(t, text, apply(restore, apply(protect, text)))
		})
	}
}

func TestProtect_HidesPawnSyntax(t *testing.T) {
	got := apply(protect, "#include <a_samp>\nnew Float:x;\nprint(\"a:b\");\n")

	assert.Contains(t, got, "//pawnls_tag_hash_#include")
	assert.Contains(t, got, "Floatpawnls_tag_colonx")
	// string contents are left alone
	assert.Contains(t, got, `"a:b"`)
}

func TestOutsideStrings(t *testing.T) {
	upper := strings.ToUpper

	assert.Equal(t, `A "b" C`, outsideStrings(`a "b" c`, upper))
	assert.Equal(t, `A "b\"c" D`, outsideStrings(`a "b\"c" d`, upper))
	assert.Equal(t, `A "unterminated`, outsideStrings(`a "unterminated`, upper))
	assert.Equal(t, "X\nY", outsideStrings("x\ny", upper))
}

func TestRestore_Repairs(t *testing.T) {
	assert.Equal(t, "static const x;", apply(restore, "static   const x;"))
	assert.Equal(t, "a..b", apply(restore, "a. .b"))
	assert.Equal(t, "<a>\nhook", apply(restore, "<a>  \nhook"))
}

func TestFormatter_Format(t *testing.T) {
	var got string
	var gotOpts Options
	b := BeautifierFunc(func(_ context.Context, src string, opts Options) (string, error) {
		got, gotOpts = src, opts
		return strings.ReplaceAll(src, "    ", "\t"), nil
	})

	f := New(b, config.Format{BraceStyle: "expand", IndentSize: 2})
	out, err := f.Format(context.Background(), "#define A\nmain()\n{\n    new Float:x;\n}\n")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(got, "//pawnls_tag_hash_#define"))
	assert.Equal(t, Options{BraceStyle: "expand", IndentSize: 2}, gotOpts)
	assert.Equal(t, "#define A\nmain()\n{\n\tnew Float:x;\n}\n", out)
}

func TestFormatter_KeepsTrailingNewline(t *testing.T) {
	trim := BeautifierFunc(func(_ context.Context, src string, _ Options) (string, error) {
		return strings.TrimRight(src, "\n"), nil
	})
	f := New(trim, config.Default().Format)

	out, err := f.Format(context.Background(), "main() {}\n")
	require.NoError(t, err)
	assert.Equal(t, "main() {}\n", out)

	out, err = f.Format(context.Background(), "main() {}")
	require.NoError(t, err)
	assert.Equal(t, "main() {}", out)
}

func TestFormatter_Error(t *testing.T) {
	boom := errors.New("boom")
	f := New(BeautifierFunc(func(context.Context, string, Options) (string, error) {
		return "", boom
	}), config.Default().Format)

	_, err := f.Document(context.Background(), "main() {}")
	assert.ErrorIs(t, err, boom)
}

func TestFormatter_Document(t *testing.T) {
	f := New(BeautifierFunc(func(_ context.Context, src string, _ Options) (string, error) {
		return strings.ReplaceAll(src, "  ", "\t"), nil
	}), config.Default().Format)

	text := "main()\n{\n  print(\"x\");\n}\n"
	edits, err := f.Document(context.Background(), text)
	require.NoError(t, err)
	require.Len(t, edits, 1)
	assert.Equal(t, types.Range{
		Start: types.Position{Line: 2, Character: 0},
		End:   types.Position{Line: 3, Character: 0},
	}, edits[0].Range)
	assert.Equal(t, "\tprint(\"x\");\n", edits[0].NewText)

	edits, err = New(identity, config.Default().Format).Document(context.Background(), text)
	require.NoError(t, err)
	assert.Empty(t, edits)
}

func TestFormatter_Range(t *testing.T) {
	f := New(BeautifierFunc(func(_ context.Context, src string, _ Options) (string, error) {
		return strings.ToUpper(src), nil
	}), config.Default().Format)

	text := "a\nb\nc\n"
	edits, err := f.Range(context.Background(), text, types.Range{
		Start: types.Position{Line: 1, Character: 0},
		End:   types.Position{Line: 2, Character: 0},
	})
	require.NoError(t, err)
	require.Len(t, edits, 1)
	assert.Equal(t, 1, edits[0].Range.Start.Line)
	assert.Equal(t, 2, edits[0].Range.End.Line)
	assert.Equal(t, "B\n", edits[0].NewText)
}

func TestEdits(t *testing.T) {
	tests := []struct {
		name   string
		before string
		after  string
		want   []TextEdit
	}{
		{name: "equal", before: "a\nb\n", after: "a\nb\n"},
		{
			name:   "replace middle",
			before: "a\nb\nc\n",
			after:  "a\nB\nc\n",
			want: []TextEdit{{
				Range:   types.Range{Start: types.Position{Line: 1}, End: types.Position{Line: 2}},
				NewText: "B\n",
			}},
		},
		{
			name:   "insert",
			before: "a\nc\n",
			after:  "a\nb\nc\n",
			want: []TextEdit{{
				Range:   types.Range{Start: types.Position{Line: 1}, End: types.Position{Line: 1}},
				NewText: "b\n",
			}},
		},
		{
			name:   "delete",
			before: "a\nb\nc\n",
			after:  "a\nc\n",
			want: []TextEdit{{
				Range: types.Range{Start: types.Position{Line: 1}, End: types.Position{Line: 2}},
			}},
		},
		{
			name:   "last line without newline",
			before: "a\nbb",
			after:  "a\ncc",
			want: []TextEdit{{
				Range:   types.Range{Start: types.Position{Line: 1}, End: types.Position{Line: 1, Character: 2}},
				NewText: "cc",
			}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Edits(tt.before, tt.after))
		})
	}
}

func TestExecBeautifier(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script fixture")
	}
	script := filepath.Join(t.TempDir(), "fake-beautify")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\ntr a-z A-Z\n"), 0755))

	out, err := ExecBeautifier{Command: script}.Beautify(context.Background(), "main() {}", Options{BraceStyle: "collapse", IndentSize: 4})
	require.NoError(t, err)
	assert.Equal(t, "MAIN() {}", out)

	_, err = ExecBeautifier{Command: filepath.Join(t.TempDir(), "missing")}.Beautify(context.Background(), "x", Options{})
	assert.ErrorIs(t, err, ErrBeautifierNotFound)
}

package format

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/dshills/pawnls/internal/config"
	"github.com/dshills/pawnls/internal/scan"
	"github.com/dshills/pawnls/pkg/types"
)

// ErrBeautifierNotFound is returned when the external beautifier is not
// installed
var ErrBeautifierNotFound = errors.New("beautifier not found")

// Options are passed through to the beautifier
type Options struct {
	BraceStyle string
	IndentSize int
}

// Beautifier reformats C-like source text
type Beautifier interface {
	Beautify(ctx context.Context, src string, opts Options) (string, error)
}

// BeautifierFunc adapts a function to the Beautifier interface
type BeautifierFunc func(ctx context.Context, src string, opts Options) (string, error)

func (f BeautifierFunc) Beautify(ctx context.Context, src string, opts Options) (string, error) {
	return f(ctx, src, opts)
}

// ExecBeautifier runs js-beautify (or a compatible command) with the
// source on stdin
type ExecBeautifier struct {
	Command string
}

func (e ExecBeautifier) Beautify(ctx context.Context, src string, opts Options) (string, error) {
	name := e.Command
	if name == "" {
		name = "js-beautify"
	}
	path, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrBeautifierNotFound, name)
	}

	args := []string{"-f", "-"}
	if opts.BraceStyle != "" && opts.BraceStyle != "none" {
		args = append(args, "--brace-style", opts.BraceStyle)
	}
	if opts.IndentSize > 0 {
		args = append(args, "--indent-size", strconv.Itoa(opts.IndentSize))
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Stdin = strings.NewReader(src)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("beautifier failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

// TextEdit replaces Range with NewText
type TextEdit struct {
	Range   types.Range
	NewText string
}

// Formatter wraps a Beautifier with the Pawn-specific rewrites around it
type Formatter struct {
	beautifier Beautifier
	opts       Options
}

// New creates a Formatter. A nil beautifier runs the command named in s.
func New(b Beautifier, s config.Format) *Formatter {
	if b == nil {
		b = ExecBeautifier{Command: s.Command}
	}
	return &Formatter{
		beautifier: b,
		opts:       Options{BraceStyle: s.BraceStyle, IndentSize: s.IndentSize},
	}
}

// Format returns text reformatted. A trailing newline is kept when the
// input had one.
func (f *Formatter) Format(ctx context.Context, text string) (string, error) {
	out, err := f.beautifier.Beautify(ctx, apply(protect, text), f.opts)
	if err != nil {
		return "", err
	}
	out = apply(restore, out)

	if strings.HasSuffix(text, "\n") && !strings.HasSuffix(out, "\n") {
		out += "\n"
	}
	return out, nil
}

// Document formats the whole text and returns the edits that turn the
// original into the result
func (f *Formatter) Document(ctx context.Context, text string) ([]TextEdit, error) {
	out, err := f.Format(ctx, text)
	if err != nil {
		return nil, err
	}
	return Edits(text, out), nil
}

// Range formats only the text inside r
func (f *Formatter) Range(ctx context.Context, text string, r types.Range) ([]TextEdit, error) {
	start, end := scan.ToOffset(text, r.Start), scan.ToOffset(text, r.End)
	if end < start {
		start, end = end, start
	}

	out, err := f.Format(ctx, text[start:end])
	if err != nil {
		return nil, err
	}
	return Edits(text, text[:start]+out+text[end:]), nil
}

// Edits computes line-level replacements from before to after
func Edits(before, after string) []TextEdit {
	if before == after {
		return nil
	}
	a, b := lines(before), lines(after)

	// byte offset of the start of each line in before, plus the end
	offsets := make([]int, len(a)+1)
	for i, l := range a {
		offsets[i+1] = offsets[i] + len(l)
	}

	var edits []TextEdit
	for _, op := range difflib.NewMatcher(a, b).GetOpCodes() {
		if op.Tag == 'e' {
			continue
		}
		edits = append(edits, TextEdit{
			Range: types.Range{
				Start: scan.PositionAt(before, offsets[op.I1]),
				End:   scan.PositionAt(before, offsets[op.I2]),
			},
			NewText: strings.Join(b[op.J1:op.J2], ""),
		})
	}
	return edits
}

// lines splits text keeping line terminators
func lines(text string) []string {
	out := strings.SplitAfter(text, "\n")
	if out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	return out
}

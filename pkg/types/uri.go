package types

import (
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"strings"
)

// SourceExtensions lists the file extensions the analyzer handles.
var SourceExtensions = []string{".pwn", ".inc", ".pawn"}

// IsSourceFile reports whether a path or URI names a Pawn source file.
// Extensions are matched case-sensitively.
func IsSourceFile(name string) bool {
	ext := path.Ext(name)
	for _, e := range SourceExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// FileURI converts a filesystem path to a file:// URI.
func FileURI(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		p = abs
	}
	p = filepath.ToSlash(p)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return (&url.URL{Scheme: "file", Path: p}).String()
}

// URIPath converts a file:// URI back to a filesystem path.
func URIPath(uri string) (string, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", fmt.Errorf("invalid uri %q: %w", uri, err)
	}
	if u.Scheme != "file" {
		return "", fmt.Errorf("unsupported uri scheme %q", u.Scheme)
	}
	p := u.Path
	// file:///C:/x on windows
	if len(p) >= 3 && p[0] == '/' && p[2] == ':' {
		p = p[1:]
	}
	return filepath.FromSlash(p), nil
}

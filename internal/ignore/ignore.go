package ignore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	lru "github.com/hashicorp/golang-lru/v2"
)

// FileName is the ignore list at a workspace root
const FileName = ".pawnignore"

// Template is written by Init
const Template = `// Usage: add one file or folder per line, relative to the workspace root.
// Explanation: matching files are not parsed for auto-complete and intellisense.
// Lines starting with "// " are comments.
`

// ErrExists is returned by Init when the workspace already has an ignore list
var ErrExists = errors.New(".pawnignore already exists")

type rule struct {
	line string
	re   *regexp.Regexp // nil when the line is not a valid expression
	text string         // joined path used for the literal fallback
	glob bool
}

// Matcher tests paths against one workspace's ignore list. The zero value
// matches nothing.
type Matcher struct {
	root  string
	rules []rule
}

// Parse compiles the contents of an ignore file for a workspace root.
//
// Each line is joined to the root and used as an unanchored regular
// expression over the slash-separated absolute path of a file, so an entry
// names a file, a directory prefix or a pattern. A trailing slash is kept. Lines that do not compile
// match literally. Lines containing glob metacharacters also match the
// workspace-relative path as a doublestar pattern.
func Parse(root, content string) *Matcher {
	m := &Matcher{root: root}
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" || strings.HasPrefix(line, "// ") {
			continue
		}

		joined := filepath.ToSlash(filepath.Join(root, line))
		if strings.HasSuffix(line, "/") && !strings.HasSuffix(joined, "/") {
			// a directory entry must not match siblings sharing its prefix
			joined += "/"
		}
		r := rule{line: line, text: joined}
		if re, err := regexp.Compile(joined); err == nil {
			r.re = re
		}
		r.glob = strings.ContainsAny(line, "*?[{")
		m.rules = append(m.rules, r)
	}
	return m
}

// Match reports whether path is excluded
func (m *Matcher) Match(path string) bool {
	if m == nil || len(m.rules) == 0 {
		return false
	}
	target := filepath.ToSlash(path)

	var rel string
	if r, err := filepath.Rel(m.root, path); err == nil {
		rel = filepath.ToSlash(r)
	}

	for _, r := range m.rules {
		if r.re != nil {
			if r.re.MatchString(target) {
				return true
			}
		} else if strings.Contains(target, r.text) {
			return true
		}

		if r.glob && rel != "" {
			pattern := strings.TrimSuffix(r.line, "/")
			if ok, _ := doublestar.Match(pattern, rel); ok {
				return true
			}
			if ok, _ := doublestar.Match(pattern+"/**", rel); ok {
				return true
			}
		}
	}
	return false
}

// Len returns the number of active rules
func (m *Matcher) Len() int {
	if m == nil {
		return 0
	}
	return len(m.rules)
}

type entry struct {
	modTime time.Time
	size    int64
	matcher *Matcher
}

// List loads and caches ignore lists per workspace root. A cached list is
// reused until the file's modification time or size changes.
type List struct {
	mu    sync.Mutex
	cache *lru.Cache[string, *entry]
}

// NewList creates a List caching up to size workspaces
func NewList(size int) *List {
	cache, err := lru.New[string, *entry](size)
	if err != nil {
		cache, _ = lru.New[string, *entry](16)
	}
	return &List{cache: cache}
}

// Matcher returns the compiled ignore list of root. A missing or
// unreadable file yields a matcher that allows everything.
func (l *List) Matcher(root string) *Matcher {
	file := filepath.Join(root, FileName)
	info, err := os.Stat(file)
	if err != nil {
		l.cache.Remove(root)
		return &Matcher{root: root}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if e, ok := l.cache.Get(root); ok && e.modTime.Equal(info.ModTime()) && e.size == info.Size() {
		return e.matcher
	}

	data, err := os.ReadFile(file)
	if err != nil {
		return &Matcher{root: root}
	}
	m := Parse(root, string(data))
	l.cache.Add(root, &entry{modTime: info.ModTime(), size: info.Size(), matcher: m})
	return m
}

// Allowed reports whether path under root may be indexed
func (l *List) Allowed(root, path string) bool {
	return !l.Matcher(root).Match(path)
}

// Invalidate drops the cached list of root
func (l *List) Invalidate(root string) {
	l.cache.Remove(root)
}

// Init writes Template to root's ignore file
func Init(root string) (string, error) {
	file := filepath.Join(root, FileName)
	f, err := os.OpenFile(file, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return file, ErrExists
		}
		return file, fmt.Errorf("failed to create %s: %w", FileName, err)
	}
	defer func() { _ = f.Close() }()

	if _, err := f.WriteString(Template); err != nil {
		return file, fmt.Errorf("failed to write %s: %w", FileName, err)
	}
	return file, nil
}

// Add appends path, made relative to root, to the ignore file. It creates
// the file from Template if needed and reports false when the entry is
// already listed.
func Add(root, path string) (bool, error) {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return false, fmt.Errorf("%s is not inside workspace %s", path, root)
	}
	rel = filepath.ToSlash(rel)

	file, err := Init(root)
	if err != nil && !errors.Is(err, ErrExists) {
		return false, err
	}

	data, err := os.ReadFile(file)
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", FileName, err)
	}
	for _, line := range strings.Split(string(data), "\n") {
		if strings.TrimRight(line, "\r") == rel {
			return false, nil
		}
	}

	f, err := os.OpenFile(file, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return false, fmt.Errorf("failed to open %s: %w", FileName, err)
	}
	defer func() { _ = f.Close() }()

	if _, err := f.WriteString("\n" + rel); err != nil {
		return false, fmt.Errorf("failed to append to %s: %w", FileName, err)
	}
	return true, nil
}

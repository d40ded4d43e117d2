package extract

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Match is one translation call recognized in a source file.
type Match struct {
	Namespace string
	Key       string
	// Group marks dot-path keys (auth.failed) that resolve through
	// grouped resource files rather than the flat dictionary.
	Group bool
	Line  int
}

// Dialect recognizes translation calls in the text of one source file.
type Dialect interface {
	Name() string
	Scan(path string, content []byte) ([]Match, error)
}

// DialectFactory builds a dialect. functions overrides the dialect's
// default list of translation functions when non-empty.
type DialectFactory func(functions []string) (Dialect, error)

var (
	dialectsMu sync.RWMutex
	dialects   = map[string]DialectFactory{}
)

// Register makes a dialect available to Lookup under name.
func Register(name string, f DialectFactory) {
	dialectsMu.Lock()
	defer dialectsMu.Unlock()
	dialects[name] = f
}

// Lookup builds the dialect registered under name.
func Lookup(name string, functions []string) (Dialect, error) {
	dialectsMu.RLock()
	f, ok := dialects[strings.ToLower(strings.TrimSpace(name))]
	dialectsMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown dialect %q (valid: %s)", name, strings.Join(Dialects(), ", "))
	}
	return f(functions)
}

// Dialects returns the registered dialect names, sorted.
func Dialects() []string {
	dialectsMu.RLock()
	defer dialectsMu.RUnlock()
	names := make([]string, 0, len(dialects))
	for n := range dialects {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func init() {
	Register("laravel", func(fns []string) (Dialect, error) { return NewLaravel(fns) })
	Register("react", func(fns []string) (Dialect, error) { return NewReact(fns, false) })
	Register("react-placeholder", func(fns []string) (Dialect, error) { return NewReact(fns, true) })
	Register("go", func(fns []string) (Dialect, error) { return NewGo(fns) })
}

// Literal patterns: a quoted string whose closing delimiter equals the
// opening one. Backslash escapes any character, so an escaped delimiter
// does not terminate the literal.
const (
	dqLiteral = `"((?:[^"\\]|\\.)*)"`
	sqLiteral = `'((?:[^'\\]|\\.)*)'`
)

// unescapeLiteral resolves \', \" and \\ so the key equals the runtime
// string. Other backslash sequences are kept as written.
func unescapeLiteral(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			switch s[i+1] {
			case '\'', '"', '\\':
				b.WriteByte(s[i+1])
				i++
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// lineIndex maps byte offsets to 1-based line numbers.
type lineIndex []int

func newLineIndex(content []byte) lineIndex {
	idx := lineIndex{0}
	for i, c := range content {
		if c == '\n' {
			idx = append(idx, i+1)
		}
	}
	return idx
}

func (l lineIndex) line(offset int) int {
	return sort.Search(len(l), func(i int) bool { return l[i] > offset })
}

func isWordByte(c byte) bool {
	return c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

// pick returns the first non-empty capture among the given submatch index
// pairs, along with whether any pair participated in the match.
func pick(content []byte, loc []int, groups ...int) (string, bool) {
	for _, g := range groups {
		if loc[2*g] >= 0 {
			return string(content[loc[2*g]:loc[2*g+1]]), true
		}
	}
	return "", false
}

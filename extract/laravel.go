package extract

import (
	"fmt"
	"regexp"
	"strings"
)

// LaravelFunctions are the translation helpers recognized by default in
// PHP, Blade, Twig and Vue sources.
var LaravelFunctions = []string{
	"trans",
	"trans_choice",
	"Lang::get",
	"Lang::choice",
	"Lang::trans",
	"Lang::transChoice",
	"@lang",
	"@choice",
	"__",
	"$trans.get",
	"$t",
}

// groupKeyPattern matches group{.group}.key literals without spaces.
var groupKeyPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+(?:\.[^) ]+)+$`)

// Laravel recognizes server-side translation helpers. Every plain key lands
// in the default namespace (the flat per-locale JSON file).
type Laravel struct {
	re *regexp.Regexp
}

// NewLaravel builds the dialect for the given helper names (defaults to
// LaravelFunctions).
func NewLaravel(functions []string) (*Laravel, error) {
	if len(functions) == 0 {
		functions = LaravelFunctions
	}
	alts := make([]string, 0, len(functions))
	for _, fn := range functions {
		fn = strings.TrimSpace(fn)
		if fn == "" {
			continue
		}
		alts = append(alts, regexp.QuoteMeta(fn))
	}
	if len(alts) == 0 {
		return nil, fmt.Errorf("laravel: no translation functions configured")
	}

	// Longer names first so trans_choice wins over trans.
	sortByLenDesc(alts)

	pattern := `(?:` + strings.Join(alts, "|") + `)\(\s*(?:` + dqLiteral + `|` + sqLiteral + `)\s*[),]`
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("laravel: compiling pattern: %w", err)
	}
	return &Laravel{re: re}, nil
}

func (l *Laravel) Name() string { return "laravel" }

// Scan returns group keys and plain keys. Vendor-namespaced literals
// (package::file.key) are dropped.
func (l *Laravel) Scan(path string, content []byte) ([]Match, error) {
	var out []Match
	var lines lineIndex

	for _, loc := range l.re.FindAllSubmatchIndex(content, -1) {
		// The helper must not be glued to a preceding identifier.
		if loc[0] > 0 && isWordByte(content[loc[0]-1]) {
			continue
		}
		raw, ok := pick(content, loc, 1, 2)
		if !ok {
			continue
		}
		key := unescapeLiteral(raw)
		if key == "" {
			continue
		}
		if lines == nil {
			lines = newLineIndex(content)
		}
		m := Match{Namespace: DefaultNamespace, Key: key, Line: lines.line(loc[0])}

		switch {
		case groupKeyPattern.MatchString(key):
			m.Group = true
		case strings.Contains(key, "::") && strings.Contains(key, ".") && !strings.Contains(key, " "):
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

func sortByLenDesc(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && len(s[j]) > len(s[j-1]); j-- {
			s[j], s[j-1] = s[j-1], s[j]
		}
	}
}

package extract

import (
	"fmt"
	"regexp"
	"strings"
)

// namespacePattern finds the namespace declared by a component:
// useTranslation("ns"), useTranslation(['ns', 'other']), withTranslation('ns').
var namespacePattern = regexp.MustCompile(`\b(?:useTranslation|withTranslation)\s*\(\s*(?:\[\s*)?(?:"([\w/-]+)"|'([\w/-]+)')`)

// React recognizes i18next t() calls in front-end components.
//
// Two call shapes are collected: the bare t('key') and t('key', options).
// With placeholdersOnly set the second shape only counts when the key
// carries {{...}} interpolation or the options argument is an object
// literal.
type React struct {
	re               *regexp.Regexp
	placeholdersOnly bool
}

// NewReact builds the dialect for the given function names (defaults to t).
func NewReact(functions []string, placeholdersOnly bool) (*React, error) {
	if len(functions) == 0 {
		functions = []string{"t"}
	}
	alts := make([]string, 0, len(functions))
	for _, fn := range functions {
		if fn = strings.TrimSpace(fn); fn != "" {
			alts = append(alts, regexp.QuoteMeta(fn))
		}
	}
	if len(alts) == 0 {
		return nil, fmt.Errorf("react: no translation functions configured")
	}
	sortByLenDesc(alts)

	// Groups: 1 dq key, 2 sq key, 3 terminator, 4 "{" when the second
	// argument is an object literal.
	pattern := `(?:` + strings.Join(alts, "|") + `)\s*\(\s*(?:` + dqLiteral + `|` + sqLiteral + `)\s*(\)|,\s*(\{)?)`
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("react: compiling pattern: %w", err)
	}
	return &React{re: re, placeholdersOnly: placeholdersOnly}, nil
}

func (r *React) Name() string {
	if r.placeholdersOnly {
		return "react-placeholder"
	}
	return "react"
}

// Namespace returns the first namespace declared in content, or
// DefaultNamespace.
func Namespace(content []byte) string {
	loc := namespacePattern.FindSubmatchIndex(content)
	if loc == nil {
		return DefaultNamespace
	}
	if ns, ok := pick(content, loc, 1, 2); ok && ns != "" {
		return ns
	}
	return DefaultNamespace
}

func (r *React) Scan(path string, content []byte) ([]Match, error) {
	ns := Namespace(content)

	var out []Match
	var lines lineIndex
	for _, loc := range r.re.FindAllSubmatchIndex(content, -1) {
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

		bare := content[loc[6]] == ')'
		if !bare && r.placeholdersOnly {
			object := loc[8] >= 0
			if !object && !strings.Contains(key, "{{") {
				continue
			}
		}

		if lines == nil {
			lines = newLineIndex(content)
		}
		out = append(out, Match{Namespace: ns, Key: key, Line: lines.line(loc[0])})
	}
	return out, nil
}

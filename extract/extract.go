// Package extract scans source trees for literal translation-function calls
// and collects the distinct translation keys, grouped by namespace.
//
// File enumeration is shared; recognizing calls is delegated to a Dialect
// (laravel, react, react-placeholder, go) selected by name. Extraction is
// heuristic: keys built at runtime, from variables or from template
// interpolation are not recovered.
package extract

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"
	"github.com/spf13/afero"
)

// DefaultNamespace is the namespace keys land in when the source does not
// declare one.
const DefaultNamespace = "translation"

// ErrSourceUnreadable is reported (never returned) for files or
// directories that cannot be read. Extraction continues past them.
var ErrSourceUnreadable = errors.New("source unreadable")

// skipDirs contains directory names to skip during source file scanning.
var skipDirs = map[string]bool{
	".git":         true,
	".hg":          true,
	".svn":         true,
	".idea":        true,
	"node_modules": true,
	"__pycache__":  true,
	".venv":        true,
	"vendor":       true,
	"storage":      true,
	"dist":         true,
	"build":        true,
}

// Options configures a single extraction.
type Options struct {
	// Roots are scanned in order. Missing roots are skipped with a notice.
	Roots []string
	// Extensions are file name suffixes to keep (".php", ".blade.php").
	Extensions []string
	// ExcludeDirs are additional directory names to skip.
	ExcludeDirs []string
	// ExcludeFiles are glob patterns (slash separated) matched against the
	// path relative to its root, the path as walked, and the base name.
	ExcludeFiles []string
	// Files, when non-empty, replaces walking Roots.
	Files []string

	Dialect Dialect
	FS      afero.Fs

	// OnWarn receives notices: skipped roots, unreadable sources, parse errors.
	OnWarn func(format string, args ...any)
	// OnFound is called for every key occurrence.
	OnFound func(namespace, key string)
}

// Result is the outcome of an extraction. It is read-only once returned.
type Result struct {
	// Namespaces maps namespace -> set of keys.
	Namespaces map[string]map[string]struct{}
	// Groups holds dot-path group keys (auth.failed). They are tracked
	// for diagnostics and never translated.
	Groups map[string]struct{}
	// Locations maps namespace+"\x04"+key -> "file:line" references.
	Locations map[string][]string
	// Files lists the source files scanned.
	Files []string
	// Unreadable holds one error per skipped source, wrapping
	// ErrSourceUnreadable.
	Unreadable []error
}

// NewResult returns an empty result.
func NewResult() *Result {
	return &Result{
		Namespaces: make(map[string]map[string]struct{}),
		Groups:     make(map[string]struct{}),
		Locations:  make(map[string][]string),
	}
}

func locationKey(namespace, key string) string {
	return namespace + "\x04" + key
}

// Add records a match found at location.
func (r *Result) Add(m Match, location string) {
	if m.Key == "" {
		return
	}
	if m.Group {
		r.Groups[m.Key] = struct{}{}
		return
	}
	ns := m.Namespace
	if ns == "" {
		ns = DefaultNamespace
	}
	r.Ensure(ns)[m.Key] = struct{}{}
	if location != "" {
		lk := locationKey(ns, m.Key)
		r.Locations[lk] = append(r.Locations[lk], location)
	}
}

// Ensure returns the key set for namespace, creating it when missing.
func (r *Result) Ensure(namespace string) map[string]struct{} {
	set, ok := r.Namespaces[namespace]
	if !ok {
		set = make(map[string]struct{})
		r.Namespaces[namespace] = set
	}
	return set
}

// Keys returns the keys of namespace in sorted order.
func (r *Result) Keys(namespace string) []string {
	set := r.Namespaces[namespace]
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// AllKeys returns the sorted union of keys across all namespaces.
func (r *Result) AllKeys() []string {
	union := make(map[string]struct{})
	for _, set := range r.Namespaces {
		for k := range set {
			union[k] = struct{}{}
		}
	}
	keys := make([]string, 0, len(union))
	for k := range union {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// NamespaceNames returns the namespaces in sorted order.
func (r *Result) NamespaceNames() []string {
	names := make([]string, 0, len(r.Namespaces))
	for ns := range r.Namespaces {
		names = append(names, ns)
	}
	sort.Strings(names)
	return names
}

// GroupKeys returns the group keys in sorted order.
func (r *Result) GroupKeys() []string {
	keys := make([]string, 0, len(r.Groups))
	for k := range r.Groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Where returns the "file:line" references recorded for a key.
func (r *Result) Where(namespace, key string) []string {
	return r.Locations[locationKey(namespace, key)]
}

// Len returns the number of distinct (namespace, key) pairs.
func (r *Result) Len() int {
	n := 0
	for _, set := range r.Namespaces {
		n += len(set)
	}
	return n
}

// Extract enumerates source files and runs the dialect over each of them.
// The only returned errors are configuration errors and context
// cancellation; unreadable sources are reported through OnWarn.
func Extract(ctx context.Context, opts Options) (*Result, error) {
	if opts.Dialect == nil {
		return nil, fmt.Errorf("no dialect configured")
	}
	if opts.FS == nil {
		opts.FS = afero.NewOsFs()
	}
	warn := opts.OnWarn
	if warn == nil {
		warn = func(string, ...any) {}
	}

	excl, err := compileGlobs(opts.ExcludeFiles)
	if err != nil {
		return nil, err
	}

	res := NewResult()
	unreadable := func(path string, err error) {
		e := fmt.Errorf("%w: %s: %v", ErrSourceUnreadable, path, err)
		res.Unreadable = append(res.Unreadable, e)
		warn("%v", e)
	}

	var files []string
	if len(opts.Files) > 0 {
		for _, f := range opts.Files {
			if !excl.match(f, f) {
				files = append(files, f)
			}
		}
	} else {
		files, err = findSources(ctx, opts, excl, warn, unreadable)
		if err != nil {
			return nil, err
		}
	}

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		content, err := afero.ReadFile(opts.FS, path)
		if err != nil {
			unreadable(path, err)
			continue
		}
		res.Files = append(res.Files, path)

		matches, err := opts.Dialect.Scan(path, content)
		if err != nil {
			warn("skipping %s: %v", path, err)
			continue
		}
		for _, m := range matches {
			res.Add(m, fmt.Sprintf("%s:%d", path, m.Line))
			if opts.OnFound != nil && !m.Group && m.Key != "" {
				ns := m.Namespace
				if ns == "" {
					ns = DefaultNamespace
				}
				opts.OnFound(ns, m.Key)
			}
		}
	}

	return res, nil
}

// findSources walks opts.Roots in order and returns the files that carry
// one of opts.Extensions and are not excluded. Paths are returned in walk
// order, deduplicated.
func findSources(ctx context.Context, opts Options, excl globSet, warn func(string, ...any), unreadable func(string, error)) ([]string, error) {
	var files []string
	seen := make(map[string]bool)

	extraSkip := make(map[string]bool, len(opts.ExcludeDirs))
	for _, d := range opts.ExcludeDirs {
		extraSkip[d] = true
	}

	for _, root := range opts.Roots {
		info, err := opts.FS.Stat(root)
		if err != nil || !info.IsDir() {
			warn("directory not found, skipping: %s", root)
			continue
		}

		err = afero.Walk(opts.FS, root, func(path string, info os.FileInfo, err error) error {
			if cerr := ctx.Err(); cerr != nil {
				return cerr
			}
			if err != nil {
				unreadable(path, err)
				if info != nil && info.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if info.IsDir() {
				if path != root && (skipDirs[info.Name()] || extraSkip[info.Name()]) {
					return filepath.SkipDir
				}
				return nil
			}
			if !hasExtension(path, opts.Extensions) {
				return nil
			}
			rel, rerr := filepath.Rel(root, path)
			if rerr != nil {
				rel = path
			}
			if excl.match(path, rel) {
				return nil
			}
			if !seen[path] {
				seen[path] = true
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil, err
			}
			return nil, fmt.Errorf("scanning %s: %w", root, err)
		}
	}

	return files, nil
}

func hasExtension(path string, exts []string) bool {
	if len(exts) == 0 {
		return true
	}
	name := filepath.Base(path)
	for _, ext := range exts {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

// globSet is a compiled list of exclusion patterns.
type globSet []glob.Glob

func compileGlobs(patterns []string) (globSet, error) {
	var gs globSet
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		g, err := glob.Compile(filepath.ToSlash(p), '/')
		if err != nil {
			return nil, fmt.Errorf("invalid exclude pattern %q: %w", p, err)
		}
		gs = append(gs, g)
	}
	return gs, nil
}

func (gs globSet) match(path, rel string) bool {
	if len(gs) == 0 {
		return false
	}
	candidates := []string{
		filepath.ToSlash(path),
		filepath.ToSlash(rel),
		filepath.Base(path),
	}
	for _, g := range gs {
		for _, c := range candidates {
			if g.Match(c) {
				return true
			}
		}
	}
	return false
}

// DescribeFiles returns a human-readable summary of the source files found,
// grouped by extension ("12 .php, 3 .vue").
func DescribeFiles(files []string) string {
	counts := make(map[string]int)
	for _, f := range files {
		counts[filepath.Ext(f)]++
	}
	exts := make([]string, 0, len(counts))
	for ext := range counts {
		exts = append(exts, ext)
	}
	sort.Strings(exts)

	parts := make([]string, 0, len(exts))
	for _, ext := range exts {
		name := ext
		if name == "" {
			name = "(none)"
		}
		parts = append(parts, fmt.Sprintf("%d %s", counts[ext], name))
	}
	return strings.Join(parts, ", ")
}

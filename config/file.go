// Package config loads keyglot's project configuration.
//
// Settings come from four layers, highest precedence first: command-line
// flags (applied by the caller), KEYGLOT_* environment variables (with an
// optional .env file in the project root), the .keyglot.yaml file, and the
// built-in defaults. Without a .keyglot.yaml the defaults describe two
// targets: server templates written to resources/lang and React components
// written to public/locales.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/minios-linux/keyglot/dictionary"
	"github.com/minios-linux/keyglot/extract"
)

// ---------------------------------------------------------------------------
// YAML schema
// ---------------------------------------------------------------------------

// FileName is the config file looked up in the project root.
const FileName = ".keyglot.yaml"

// File is the top-level .keyglot.yaml structure.
type File struct {
	// BaseLocale is the locale keys are written in. Empty means "ask".
	BaseLocale string `yaml:"base_locale,omitempty"`
	// Locales is the default target list; "all" expands to every supported
	// locale.
	Locales []string `yaml:"locales,omitempty"`
	// Provider selects the translation service.
	Provider Provider `yaml:"provider,omitempty"`
	// Targets is the list of extraction/output units.
	Targets []Target `yaml:"targets"`
	// Compress lists the directories minified by "keyglot compress".
	Compress []string `yaml:"compress,omitempty"`
}

// Provider is the provider section of .keyglot.yaml.
type Provider struct {
	Name    string  `yaml:"name,omitempty"`
	Model   string  `yaml:"model,omitempty"`
	BaseURL string  `yaml:"base_url,omitempty"`
	Proxy   string  `yaml:"proxy,omitempty"`
	Rate    float64 `yaml:"rate,omitempty"`
	// Prompt overrides the system prompt sent to LLM providers.
	Prompt string `yaml:"prompt,omitempty"`
}

// Target describes one group of sources and the dictionaries built from
// them.
type Target struct {
	// Name is a label shown in logs and used by --target.
	Name string `yaml:"name"`
	// Dialect is the extraction dialect (laravel, react, react-placeholder, go).
	Dialect string `yaml:"dialect"`
	// Roots are source directories relative to the project root.
	Roots []string `yaml:"roots"`
	// Extensions are file name suffixes to scan.
	Extensions []string `yaml:"extensions,omitempty"`
	// ExcludeDirs are extra directory names to skip.
	ExcludeDirs []string `yaml:"exclude_dirs,omitempty"`
	// ExcludeFiles are glob patterns of files to skip.
	ExcludeFiles []string `yaml:"exclude_files,omitempty"`
	// Functions overrides the dialect's translation function list.
	Functions []string `yaml:"functions,omitempty"`
	// Output is the dictionary directory relative to the project root.
	Output string `yaml:"output"`
	// Layout is nested ({output}/{locale}/{ns}.json) or flat ({output}/{locale}.json).
	Layout string `yaml:"layout,omitempty"`
	// Profile is pretty or compact.
	Profile string `yaml:"profile,omitempty"`
}

// ---------------------------------------------------------------------------
// Defaults
// ---------------------------------------------------------------------------

// Default returns the configuration used when no .keyglot.yaml exists.
func Default() *File {
	return &File{
		Provider: Provider{Name: "google"},
		Targets: []Target{
			{
				Name:       "server",
				Dialect:    "laravel",
				Roots:      []string{"vendor/brucelwayne", "vendor/mallria", "resources"},
				Extensions: []string{".php", ".twig", ".vue"},
				Output:     "resources/lang",
				Layout:     string(dictionary.Flat),
				Profile:    string(dictionary.Pretty),
			},
			{
				Name:       "react",
				Dialect:    "react",
				Roots:      []string{"resources/react"},
				Extensions: []string{".js", ".jsx"},
				Output:     "public/locales",
				Layout:     string(dictionary.Nested),
				Profile:    string(dictionary.Compact),
			},
		},
		Compress: []string{"resources/lang", "public/locales"},
	}
}

// defaultExtensions are used when a target names a dialect but no
// extensions.
var defaultExtensions = map[string][]string{
	"laravel":           {".php", ".twig", ".vue"},
	"react":             {".js", ".jsx", ".ts", ".tsx"},
	"react-placeholder": {".js", ".jsx", ".ts", ".tsx"},
	"go":                {".go"},
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load reads .keyglot.yaml from rootDir. A missing file yields Default().
func Load(fsys afero.Fs, rootDir string) (*File, error) {
	return LoadFile(fsys, filepath.Join(rootDir, FileName), true)
}

// LoadFile reads a config file. With optional set a missing file yields
// Default(); otherwise it is an error.
func LoadFile(fsys afero.Fs, path string, optional bool) (*File, error) {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		if optional && errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	if err := f.normalize(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &f, nil
}

// normalize applies per-target defaults and validates the file.
func (f *File) normalize() error {
	def := Default()
	if len(f.Targets) == 0 {
		f.Targets = def.Targets
	}
	if f.Compress == nil {
		for _, t := range f.Targets {
			f.Compress = append(f.Compress, t.Output)
		}
	}
	if f.Provider.Name == "" {
		f.Provider.Name = def.Provider.Name
	}
	if f.Provider.Rate < 0 {
		return fmt.Errorf("provider rate must not be negative")
	}

	seen := make(map[string]bool)
	for i := range f.Targets {
		t := &f.Targets[i]

		if t.Name == "" {
			return fmt.Errorf("target #%d has no name", i+1)
		}
		if seen[t.Name] {
			return fmt.Errorf("duplicate target %q", t.Name)
		}
		seen[t.Name] = true

		if t.Dialect == "" {
			return fmt.Errorf("target %q has no dialect", t.Name)
		}
		if !isDialect(t.Dialect) {
			return fmt.Errorf("target %q has unknown dialect %q (valid: %s)", t.Name, t.Dialect, strings.Join(extract.Dialects(), ", "))
		}
		if len(t.Roots) == 0 {
			return fmt.Errorf("target %q requires \"roots\"", t.Name)
		}
		if t.Output == "" {
			return fmt.Errorf("target %q requires \"output\"", t.Name)
		}
		if len(t.Extensions) == 0 {
			t.Extensions = defaultExtensions[t.Dialect]
		}

		if t.Layout == "" {
			t.Layout = string(dictionary.Nested)
		}
		if _, err := dictionary.ParseLayout(t.Layout); err != nil {
			return fmt.Errorf("target %q: %w", t.Name, err)
		}
		if t.Profile == "" {
			t.Profile = string(dictionary.Pretty)
		}
		if _, err := dictionary.ParseProfile(t.Profile); err != nil {
			return fmt.Errorf("target %q: %w", t.Name, err)
		}
	}
	return nil
}

func isDialect(name string) bool {
	for _, d := range extract.Dialects() {
		if d == name {
			return true
		}
	}
	return false
}

// ---------------------------------------------------------------------------
// Target helpers
// ---------------------------------------------------------------------------

// Select returns the targets named in names, in file order. An empty list
// selects every target.
func (f *File) Select(names []string) ([]Target, error) {
	if len(names) == 0 {
		return f.Targets, nil
	}
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}
	var out []Target
	for _, t := range f.Targets {
		if want[t.Name] {
			out = append(out, t)
			delete(want, t.Name)
		}
	}
	if len(want) > 0 {
		var missing []string
		for n := range want {
			missing = append(missing, n)
		}
		return nil, fmt.Errorf("unknown target(s): %s", strings.Join(missing, ", "))
	}
	return out, nil
}

// LayoutValue returns the parsed output layout.
func (t Target) LayoutValue() dictionary.Layout {
	l, err := dictionary.ParseLayout(t.Layout)
	if err != nil {
		return dictionary.Nested
	}
	return l
}

// ProfileValue returns the parsed serialization profile.
func (t Target) ProfileValue() dictionary.Profile {
	p, err := dictionary.ParseProfile(t.Profile)
	if err != nil {
		return dictionary.Pretty
	}
	return p
}

// AbsRoots resolves Roots against the project root.
func (t Target) AbsRoots(projectRoot string) []string {
	out := make([]string, len(t.Roots))
	for i, r := range t.Roots {
		out[i] = resolve(projectRoot, r)
	}
	return out
}

// AbsOutput resolves Output against the project root.
func (t Target) AbsOutput(projectRoot string) string {
	return resolve(projectRoot, t.Output)
}

func resolve(root, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}

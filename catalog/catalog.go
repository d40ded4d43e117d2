// Package catalog checks produced dictionaries the way a runtime
// localization layer sees them: every file is loaded through a go-i18n
// bundle and compared with the keys extracted from source.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/spf13/afero"
	"golang.org/x/text/language"

	"github.com/minios-linux/keyglot/dictionary"
	"github.com/minios-linux/keyglot/extract"
	"github.com/minios-linux/keyglot/locale"
	"github.com/minios-linux/keyglot/merge"
)

// Coverage describes one (locale, namespace) dictionary.
type Coverage struct {
	Locale    string
	Namespace string
	Path      string
	// Exists is false when the file has not been written yet.
	Exists bool
	// Messages is the number of messages the runtime loader accepted.
	Messages int
	// Keys is the number of extracted keys the file should hold.
	Keys    int
	Missing []string
	Empty   []string
	Stale   []string
	// LoadErr is set when the file cannot be loaded at runtime.
	LoadErr error
}

// Translated is the number of extracted keys with a non-empty value.
func (c Coverage) Translated() int {
	return c.Keys - len(c.Missing) - len(c.Empty)
}

// Percent is the share of extracted keys with a non-empty value.
func (c Coverage) Percent() float64 {
	if c.Keys == 0 {
		return 100
	}
	return float64(c.Translated()) * 100 / float64(c.Keys)
}

// Complete reports whether the file loads and covers every key.
func (c Coverage) Complete() bool {
	return c.Exists && c.LoadErr == nil && len(c.Missing) == 0 && len(c.Empty) == 0
}

// file is one dictionary to inspect.
type file struct {
	namespace string
	keys      []string
}

func files(layout dictionary.Layout, r *extract.Result) []file {
	if layout == dictionary.Flat {
		return []file{{namespace: extract.DefaultNamespace, keys: r.AllKeys()}}
	}
	names := r.NamespaceNames()
	hasDefault := false
	for _, n := range names {
		hasDefault = hasDefault || n == extract.DefaultNamespace
	}
	if !hasDefault {
		names = append([]string{extract.DefaultNamespace}, names...)
	}
	out := make([]file, len(names))
	for i, n := range names {
		out[i] = file{namespace: n, keys: r.Keys(n)}
	}
	return out
}

// Check computes coverage for every locale of reg, base first.
func Check(fsys afero.Fs, layout dictionary.Layout, outputDir string, reg locale.Registry, r *extract.Result) ([]Coverage, error) {
	var out []Coverage
	for _, loc := range reg.All() {
		for _, f := range files(layout, r) {
			path := layout.Path(outputDir, loc, f.namespace)
			c, err := check(fsys, path, loc, f.namespace, f.keys)
			if err != nil {
				return out, err
			}
			out = append(out, c)
		}
	}
	return out, nil
}

func check(fsys afero.Fs, path, loc, ns string, keys []string) (Coverage, error) {
	c := Coverage{Locale: loc, Namespace: ns, Path: path, Keys: len(keys)}

	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			c.Missing = keys
			return c, nil
		}
		return c, fmt.Errorf("reading %s: %w", path, err)
	}
	c.Exists = true

	mf, err := newBundle(loc).ParseMessageFileBytes(data, messageFilePath(ns, loc))
	if err != nil {
		c.LoadErr = fmt.Errorf("%s: %w", path, err)
		c.Missing = keys
		return c, nil
	}
	c.Messages = len(mf.Messages)

	d, err := dictionary.Parse(data)
	if err != nil {
		c.LoadErr = fmt.Errorf("%s: %w", path, err)
		c.Missing = keys
		return c, nil
	}
	for _, k := range keys {
		v, ok := d.Get(k)
		switch {
		case !ok:
			c.Missing = append(c.Missing, k)
		case v == "":
			c.Empty = append(c.Empty, k)
		}
	}
	c.Stale = merge.Stale(d, keys)
	return c, nil
}

func newBundle(loc string) *i18n.Bundle {
	bundle := i18n.NewBundle(language.Make(locale.Canonical(loc)))
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)
	return bundle
}

// messageFilePath is the name go-i18n derives the language tag and format
// from: {namespace}.{locale}.json.
func messageFilePath(ns, loc string) string {
	return ns + "." + locale.Canonical(loc) + ".json"
}

// ---------------------------------------------------------------------------
// Lookup
// ---------------------------------------------------------------------------

// Catalog is one namespace loaded for every locale of a registry.
type Catalog struct {
	bundle *i18n.Bundle
}

// Open loads the namespace's dictionaries into a single bundle. Missing
// files are skipped; unloadable ones are an error.
func Open(fsys afero.Fs, layout dictionary.Layout, outputDir string, reg locale.Registry, namespace string) (*Catalog, error) {
	bundle := newBundle(reg.Base)
	for _, loc := range reg.All() {
		path := layout.Path(outputDir, loc, namespace)
		data, err := afero.ReadFile(fsys, path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		if _, err := bundle.ParseMessageFileBytes(data, messageFilePath(namespace, loc)); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	return &Catalog{bundle: bundle}, nil
}

// Lookup resolves key for loc the way the runtime does: the locale's value,
// falling back to the bundle's default language, then the key itself.
func (c *Catalog) Lookup(loc, key string) string {
	localizer := i18n.NewLocalizer(c.bundle, locale.Canonical(loc))
	out, err := localizer.Localize(&i18n.LocalizeConfig{
		MessageID:      key,
		DefaultMessage: &i18n.Message{ID: key, Other: key},
	})
	if err != nil || out == "" {
		return key
	}
	return out
}

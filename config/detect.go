package config

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"

	"github.com/minios-linux/keyglot/dictionary"
)

// DetectLocales finds the locales that already have dictionaries in a
// target's output directory: {out}/{locale}.json for the flat layout,
// {out}/{locale}/ directories holding JSON files for the nested one.
func DetectLocales(fsys afero.Fs, layout dictionary.Layout, outputDir string) []string {
	if layout == dictionary.Flat {
		return detectLocalesFlat(fsys, outputDir)
	}
	return detectLocalesNested(fsys, outputDir)
}

// detectLocalesFlat finds locale codes from JSON files in a directory.
func detectLocalesFlat(fsys afero.Fs, dir string) []string {
	entries, err := afero.ReadDir(fsys, dir)
	if err != nil {
		return nil
	}

	var locales []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		code := strings.TrimSuffix(name, ".json")
		if isLocaleCode(code) {
			locales = append(locales, code)
		}
	}
	sort.Strings(locales)
	return locales
}

// detectLocalesNested finds locale subdirectories that contain at least
// one JSON file.
func detectLocalesNested(fsys afero.Fs, dir string) []string {
	entries, err := afero.ReadDir(fsys, dir)
	if err != nil {
		return nil
	}

	var locales []string
	for _, entry := range entries {
		if !entry.IsDir() || !isLocaleCode(entry.Name()) {
			continue
		}
		matches, _ := afero.Glob(fsys, filepath.Join(dir, entry.Name(), "*.json"))
		if len(matches) > 0 {
			locales = append(locales, entry.Name())
		}
	}
	sort.Strings(locales)
	return locales
}

// isLocaleCode checks if a string looks like a locale code.
// Supports: en, ru, fil, pt-BR, zh-CN, pt_BR, zh-Hant.
func isLocaleCode(s string) bool {
	lang, region, hasRegion := strings.Cut(strings.ReplaceAll(s, "_", "-"), "-")
	if len(lang) < 2 || len(lang) > 3 {
		return false
	}
	for i := 0; i < len(lang); i++ {
		if lang[i] < 'a' || lang[i] > 'z' {
			return false
		}
	}
	if !hasRegion {
		return true
	}
	if len(region) < 2 || len(region) > 4 {
		return false
	}
	for i := 0; i < len(region); i++ {
		c := region[i]
		if !(c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z' || c >= '0' && c <= '9') {
			return false
		}
	}
	return true
}

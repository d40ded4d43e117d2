// Package locale holds the set of locales a run operates on: one base
// locale plus zero or more targets, in BCP 47 case with the separator the
// operator used.
package locale

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Supported is the default locale list used when targets are given as
// "all".
var Supported = []string{
	"ar", "bg", "bn", "cs", "da", "de", "el", "en", "es", "et",
	"fa", "fi", "fr", "he", "hi", "hr", "hu", "id", "it", "ja",
	"ko", "lt", "lv", "ms", "nl", "no", "pl", "pt", "pt-BR", "ro",
	"ru", "sk", "sl", "sr", "sv", "th", "tr", "uk", "ur", "vi",
	"zh-CN", "zh-TW",
}

// Registry is the base locale plus the ordered target locales.
type Registry struct {
	Base    string
	Targets []string
}

// New builds a registry. Every code is normalized; duplicates (including
// a target equal to the base, or pt_BR next to pt-BR) are dropped while
// keeping first-seen order.
func New(base string, targets []string) (Registry, error) {
	b, err := Normalize(base)
	if err != nil {
		return Registry{}, fmt.Errorf("base locale: %w", err)
	}

	reg := Registry{Base: b}
	seen := map[string]bool{Canonical(b): true}
	for _, t := range targets {
		if strings.TrimSpace(t) == "" {
			continue
		}
		n, err := Normalize(t)
		if err != nil {
			return Registry{}, fmt.Errorf("target locale: %w", err)
		}
		if seen[Canonical(n)] {
			continue
		}
		seen[Canonical(n)] = true
		reg.Targets = append(reg.Targets, n)
	}
	return reg, nil
}

// All returns the base locale followed by the targets. The base locale is
// processed like any other locale and receives identity values.
func (r Registry) All() []string {
	out := make([]string, 0, len(r.Targets)+1)
	out = append(out, r.Base)
	out = append(out, r.Targets...)
	return out
}

// IsBase reports whether code is the base locale, whatever separator
// either of them is spelled with.
func (r Registry) IsBase(code string) bool {
	n, err := Normalize(code)
	if err != nil {
		return false
	}
	return Canonical(n) == Canonical(r.Base)
}

// Normalize fixes the case of a locale code and checks that it parses
// (pt_br -> pt_BR, ZH-cn -> zh-CN). The separator is kept as written:
// codes name files on disk, and Laravel spells them pt_BR.
func Normalize(code string) (string, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return "", fmt.Errorf("empty locale code")
	}
	tag, err := language.Parse(strings.ReplaceAll(code, "_", "-"))
	if err != nil {
		return "", fmt.Errorf("invalid locale %q: %w", code, err)
	}
	out := tag.String()
	if strings.Contains(code, "_") {
		out = strings.ReplaceAll(out, "-", "_")
	}
	return out, nil
}

// Canonical returns the BCP 47 spelling of a locale code (pt_BR -> pt-BR)
// for comparisons and provider requests. Codes that do not parse are
// returned unchanged.
func Canonical(code string) string {
	tag, err := language.Parse(strings.ReplaceAll(strings.TrimSpace(code), "_", "-"))
	if err != nil {
		return code
	}
	return tag.String()
}

// ParseList splits a comma separated locale list. "all" expands to
// Supported.
func ParseList(s string) []string {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "all") {
		out := make([]string, len(Supported))
		copy(out, Supported)
		return out
	}
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// DisplayName returns the native name of a locale ("Français",
// "简体中文"), falling back to the code itself.
func DisplayName(code string) string {
	tag, err := language.Parse(strings.ReplaceAll(code, "_", "-"))
	if err != nil {
		return code
	}
	if name := display.Self.Name(tag); name != "" {
		return name
	}
	return code
}

// EnglishName returns the English name of a locale ("French",
// "Simplified Chinese"), falling back to the code itself.
func EnglishName(code string) string {
	tag, err := language.Parse(strings.ReplaceAll(code, "_", "-"))
	if err != nil {
		return code
	}
	if name := display.English.Tags().Name(tag); name != "" {
		return name
	}
	return code
}

// Label formats a locale for progress output: "fr (Français)".
func Label(code string) string {
	name := DisplayName(code)
	if name == code {
		return code
	}
	return code + " (" + name + ")"
}

// Package i18n translates keyglot's own command-line messages.
//
// Catalogs are gettext .po files embedded in the binary and selected from
// LANGUAGE, LC_ALL, LC_MESSAGES or LANG by Init. Untranslated strings pass
// through unchanged.
package i18n

import (
	"embed"
	"os"
	"strings"

	"github.com/leonelquinteros/gotext"
)

// Directory structure: locales/{lang}/LC_MESSAGES/keyglot.po
//
//go:embed all:locales
var locales embed.FS

const domain = "keyglot"

// po is the gotext locale object used for translations.
var po *gotext.Locale

// Init selects the catalog for lang, or for the environment's language
// when lang is empty. A full code such as ru_RU falls back to ru. Call it
// once at startup, before any T or N call.
func Init(lang string) {
	if lang == "" {
		lang = detectLanguage()
	}

	po = gotext.NewLocaleFSWithPath(lang, locales, "locales")
	po.AddDomain(domain)
	po.SetDomain(domain)
}

// T translates a string. If no translation is available, returns the
// original string unchanged (standard gettext passthrough behavior).
func T(msgid string) string {
	if po == nil {
		return msgid
	}
	// Called through a func value: msgid is a catalog key, and the
	// format verbs it may carry are applied by the caller.
	get := po.Get
	return get(msgid)
}

// N translates a string with plural forms using the catalog's plural
// formula.
func N(singular, plural string, n int) string {
	if po == nil {
		if n == 1 {
			return singular
		}
		return plural
	}
	getN := po.GetN
	return getN(singular, plural, n)
}

// detectLanguage reads environment variables to determine the user's
// preferred language, following GNU gettext conventions.
func detectLanguage() string {
	// GNU gettext priority: LANGUAGE > LC_ALL > LC_MESSAGES > LANG
	for _, env := range []string{"LANGUAGE", "LC_ALL", "LC_MESSAGES", "LANG"} {
		if val := os.Getenv(env); val != "" {
			// LANGUAGE can be a colon-separated list; take the first
			if env == "LANGUAGE" {
				parts := strings.SplitN(val, ":", 2)
				val = parts[0]
			}
			// Strip encoding suffix (e.g. "ru_RU.UTF-8" -> "ru_RU")
			if idx := strings.IndexByte(val, '.'); idx >= 0 {
				val = val[:idx]
			}
			// C and POSIX mean no translation
			if val == "C" || val == "POSIX" || val == "" {
				continue
			}
			return val
		}
	}
	return "en"
}

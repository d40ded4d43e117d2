package i18n

import "testing"

func clearLocaleEnv(t *testing.T) {
	t.Helper()
	t.Setenv("LANGUAGE", "")
	t.Setenv("LC_ALL", "")
	t.Setenv("LC_MESSAGES", "")
	t.Setenv("LANG", "")
}

func TestDetectLanguagePriorityAndNormalization(t *testing.T) {
	t.Run("LANGUAGE has highest priority", func(t *testing.T) {
		clearLocaleEnv(t)
		t.Setenv("LANGUAGE", "ru_RU.UTF-8:en_US")
		t.Setenv("LC_ALL", "de_DE.UTF-8")

		if got := detectLanguage(); got != "ru_RU" {
			t.Fatalf("detectLanguage() = %q, want %q", got, "ru_RU")
		}
	})

	t.Run("C and POSIX are skipped", func(t *testing.T) {
		clearLocaleEnv(t)
		t.Setenv("LANGUAGE", "C")
		t.Setenv("LC_ALL", "POSIX")
		t.Setenv("LC_MESSAGES", "fr_FR.UTF-8")

		if got := detectLanguage(); got != "fr_FR" {
			t.Fatalf("detectLanguage() = %q, want %q", got, "fr_FR")
		}
	})

	t.Run("falls back to en", func(t *testing.T) {
		clearLocaleEnv(t)
		if got := detectLanguage(); got != "en" {
			t.Fatalf("detectLanguage() = %q, want %q", got, "en")
		}
	})
}

func TestTAndNFallbackWhenUninitialized(t *testing.T) {
	old := po
	po = nil
	t.Cleanup(func() { po = old })

	if got := T("Hello"); got != "Hello" {
		t.Fatalf("T fallback = %q, want %q", got, "Hello")
	}

	if got := N("file", "files", 1); got != "file" {
		t.Fatalf("N singular fallback = %q, want %q", got, "file")
	}

	if got := N("file", "files", 2); got != "files" {
		t.Fatalf("N plural fallback = %q, want %q", got, "files")
	}
}

func TestInitLoadsEmbeddedCatalog(t *testing.T) {
	old := po
	t.Cleanup(func() { po = old })

	Init("ru_RU")

	if got := T("Show version information"); got != "Показать информацию о версии" {
		t.Fatalf("T(ru) = %q", got)
	}
	if got := T("not in the catalog"); got != "not in the catalog" {
		t.Fatalf("T passthrough = %q", got)
	}
	if got := N("%d file compacted", "%d files compacted", 5); got != "Сжато %d файлов" {
		t.Fatalf("N(ru, 5) = %q", got)
	}
	if got := N("%d file compacted", "%d files compacted", 2); got != "Сжато %d файла" {
		t.Fatalf("N(ru, 2) = %q", got)
	}
}

func TestInitUnknownLanguagePassesThrough(t *testing.T) {
	old := po
	t.Cleanup(func() { po = old })

	Init("xx")
	if got := T("Show version information"); got != "Show version information" {
		t.Fatalf("T(xx) = %q", got)
	}
}

func TestFormatVerbsPassThroughUntranslated(t *testing.T) {
	old := po
	t.Cleanup(func() { po = old })

	Init("ru_RU")

	if got := T("%d items"); got != "%d items" {
		t.Fatalf("T(%%d items) = %q", got)
	}
	if got := T("%s and 100%"); got != "%s and 100%" {
		t.Fatalf("T(%%s and 100%%) = %q", got)
	}
	if got := N("%d item left", "%d items left", 3); got != "%d items left" {
		t.Fatalf("N(%%d items left) = %q", got)
	}
}

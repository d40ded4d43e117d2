package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minios-linux/keyglot/dictionary"
	"github.com/minios-linux/keyglot/extract"
	"github.com/minios-linux/keyglot/locale"
	"github.com/minios-linux/keyglot/merge"
	"github.com/minios-linux/keyglot/translate"
)

func extraction(keys map[string][]string) *extract.Result {
	r := extract.NewResult()
	for ns, ks := range keys {
		r.Ensure(ns)
		for _, k := range ks {
			r.Add(extract.Match{Namespace: ns, Key: k}, "")
		}
	}
	if len(keys) > 0 {
		r.Files = []string{"src/app.js"}
	}
	return r
}

func registry(t *testing.T, base string, targets ...string) locale.Registry {
	t.Helper()
	reg, err := locale.New(base, targets)
	require.NoError(t, err)
	return reg
}

// prefixer translates by prefixing the target locale and records calls.
type prefixer struct {
	calls []string
	fail  map[string]error
}

func (p *prefixer) Translate(_ context.Context, text, target, _ string) (string, error) {
	p.calls = append(p.calls, target+"/"+text)
	if err, ok := p.fail[target]; ok {
		return "", err
	}
	return target + ":" + text, nil
}

func readFile(t *testing.T, fs afero.Fs, path string) string {
	t.Helper()
	data, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	return string(data)
}

func TestRun_NestedLayout(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "out/fr/translation.json", []byte(`{"Hello":"Bonjour"}`), 0644))

	tr := &prefixer{}
	report, err := Run(context.Background(), Job{
		Extraction: extraction(map[string][]string{
			"translation": {"Hello", "Bye"},
			"admin":       {"Save"},
		}),
		Locales:    registry(t, "en", "fr"),
		OutputDir:  "out",
		Layout:     dictionary.Nested,
		Profile:    dictionary.Compact,
		Translator: tr,
		FS:         fs,
	})
	require.NoError(t, err)

	assert.Equal(t, `{"Bye":"Bye","Hello":"Hello"}`, readFile(t, fs, "out/en/translation.json"))
	assert.Equal(t, `{"Save":"Save"}`, readFile(t, fs, "out/en/admin.json"))
	assert.Equal(t, `{"Hello":"Bonjour","Bye":"fr:Bye"}`, readFile(t, fs, "out/fr/translation.json"))
	assert.Equal(t, `{"Save":"fr:Save"}`, readFile(t, fs, "out/fr/admin.json"))

	assert.Equal(t, []string{"fr/Save", "fr/Bye"}, tr.calls, "base locale must not call the provider")

	kept, identity, translated := report.Totals()
	assert.Equal(t, 1, kept)
	assert.Equal(t, 3, identity)
	assert.Equal(t, 2, translated)
	require.Len(t, report.Files, 4)
	for _, f := range report.Files {
		assert.True(t, f.Saved, f.Path)
	}
}

func TestRun_NestedAlwaysWritesDefaultNamespace(t *testing.T) {
	fs := afero.NewMemMapFs()
	_, err := Run(context.Background(), Job{
		Extraction: extraction(map[string][]string{"admin": {"Save"}}),
		Locales:    registry(t, "en"),
		OutputDir:  "out",
		Layout:     dictionary.Nested,
		Profile:    dictionary.Compact,
		FS:         fs,
	})
	require.NoError(t, err)
	assert.Equal(t, "{}", readFile(t, fs, "out/en/translation.json"))
	assert.Equal(t, `{"Save":"Save"}`, readFile(t, fs, "out/en/admin.json"))
}

func TestRun_EmptyExtractionWritesEmptyObjects(t *testing.T) {
	fs := afero.NewMemMapFs()
	tr := &prefixer{}
	_, err := Run(context.Background(), Job{
		Extraction: extract.NewResult(),
		Locales:    registry(t, "en", "de"),
		OutputDir:  "locales",
		Translator: tr,
		FS:         fs,
	})
	require.NoError(t, err)
	assert.Equal(t, "{}\n", readFile(t, fs, "locales/de/translation.json"))
	assert.Empty(t, tr.calls)
}

func TestRun_FlatLayoutPrunesAndRetranslatesEmpty(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "lang/fr.json",
		[]byte(`{"Old": "Vieux", "Hello": "", "Bye": "Au revoir"}`), 0644))

	tr := &prefixer{}
	report, err := Run(context.Background(), Job{
		Extraction: extraction(map[string][]string{
			"translation": {"Hello", "Bye"},
			"admin":       {"Save"},
		}),
		Locales:    registry(t, "en", "fr"),
		OutputDir:  "lang",
		Layout:     dictionary.Flat,
		Profile:    dictionary.Pretty,
		Translator: tr,
		FS:         fs,
	})
	require.NoError(t, err)

	want := "{\n" +
		`    "Hello": "fr:Hello",` + "\n" +
		`    "Bye": "Au revoir",` + "\n" +
		`    "Save": "fr:Save"` + "\n" +
		"}\n"
	assert.Equal(t, want, readFile(t, fs, "lang/fr.json"))
	assert.True(t, strings.HasPrefix(readFile(t, fs, "lang/en.json"), "{\n    \"Bye\": \"Bye\""))

	require.Len(t, report.Files, 2)
	fr := report.Files[1]
	assert.Equal(t, "fr", fr.Locale)
	assert.Equal(t, 1, fr.Pruned)
	assert.Equal(t, 1, fr.Kept)
	assert.Equal(t, 2, fr.Translated)
}

func TestRun_FlatKeepsKeysWhenNothingWasScanned(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "lang/fr.json", []byte(`{"Hello":"Bonjour"}`), 0644))
	require.NoError(t, afero.WriteFile(fs, "lang/en.json", []byte(`{"Hello":"Hello"}`), 0644))

	tr := &prefixer{}
	var logs []string
	report, err := Run(context.Background(), Job{
		Extraction: extract.NewResult(),
		Locales:    registry(t, "en", "fr"),
		OutputDir:  "lang",
		Layout:     dictionary.Flat,
		Profile:    dictionary.Compact,
		Translator: tr,
		FS:         fs,
		OnLog:      func(format string, args ...any) { logs = append(logs, fmt.Sprintf(format, args...)) },
	})
	require.NoError(t, err)

	assert.Equal(t, `{"Hello":"Bonjour"}`, readFile(t, fs, "lang/fr.json"))
	assert.Equal(t, `{"Hello":"Hello"}`, readFile(t, fs, "lang/en.json"))
	assert.Empty(t, tr.calls)
	for _, f := range report.Files {
		assert.Zero(t, f.Pruned, f.Path)
	}
	require.Len(t, logs, 1)
	assert.Contains(t, logs[0], "no source files scanned")
}

func TestRun_UnderscoreLocaleKeepsItsFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/out/pt_BR.json", []byte(`{"hello":"olá"}`), 0644))

	tr := &prefixer{}
	report, err := Run(context.Background(), Job{
		Extraction: extraction(map[string][]string{"translation": {"hello"}}),
		Locales:    registry(t, "en", "pt_BR"),
		OutputDir:  "/out",
		Layout:     dictionary.Flat,
		Profile:    dictionary.Compact,
		Translator: tr,
		FS:         fs,
	})
	require.NoError(t, err)

	assert.Empty(t, tr.calls, "existing translation must be kept")
	assert.Equal(t, `{"hello":"olá"}`, readFile(t, fs, "/out/pt_BR.json"))
	exists, err := afero.Exists(fs, "/out/pt-BR.json")
	require.NoError(t, err)
	assert.False(t, exists)

	require.Len(t, report.Files, 2)
	assert.Equal(t, "pt_BR", report.Files[1].Locale)
	assert.Equal(t, 1, report.Files[1].Kept)
}

func TestRun_ProviderGetsCanonicalCodes(t *testing.T) {
	tr := &prefixer{}
	_, err := Run(context.Background(), Job{
		Extraction: extraction(map[string][]string{"translation": {"Hi"}}),
		Locales:    registry(t, "en", "pt_BR"),
		OutputDir:  "out",
		Layout:     dictionary.Flat,
		Profile:    dictionary.Compact,
		Translator: tr,
		FS:         afero.NewMemMapFs(),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"pt-BR/Hi"}, tr.calls)
}

func TestRun_NestedKeepsStaleKeys(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "out/fr/translation.json", []byte(`{"Old":"Vieux"}`), 0644))

	_, err := Run(context.Background(), Job{
		Extraction: extraction(map[string][]string{"translation": {"New"}}),
		Locales:    registry(t, "en", "fr"),
		OutputDir:  "out",
		Profile:    dictionary.Compact,
		Translator: &prefixer{},
		FS:         fs,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"Old":"Vieux","New":"fr:New"}`, readFile(t, fs, "out/fr/translation.json"))
}

func TestRun_ForceRetranslates(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "out/fr/translation.json", []byte(`{"Hello":"Salut"}`), 0644))

	tr := &prefixer{}
	_, err := Run(context.Background(), Job{
		Extraction: extraction(map[string][]string{"translation": {"Hello"}}),
		Locales:    registry(t, "en", "fr"),
		OutputDir:  "out",
		Profile:    dictionary.Compact,
		Force:      true,
		Translator: tr,
		FS:         fs,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"Hello":"fr:Hello"}`, readFile(t, fs, "out/fr/translation.json"))
	assert.Equal(t, []string{"fr/Hello"}, tr.calls)
}

func TestRun_ProviderFailureAbandonsLocale(t *testing.T) {
	fs := afero.NewMemMapFs()
	original := []byte(`{"Hello":"Bonjour"}`)
	require.NoError(t, afero.WriteFile(fs, "out/fr/translation.json", original, 0644))

	quota := &translate.ProviderError{Provider: "test", Status: 429, Err: errors.New("quota exceeded")}
	tr := &prefixer{fail: map[string]error{"fr": quota}}

	var logs []string
	report, err := Run(context.Background(), Job{
		Extraction: extraction(map[string][]string{"translation": {"Hello", "Bye"}}),
		Locales:    registry(t, "en", "fr", "de"),
		OutputDir:  "out",
		Profile:    dictionary.Compact,
		Translator: tr,
		FS:         fs,
		OnLog:      func(format string, args ...any) { logs = append(logs, fmt.Sprintf(format, args...)) },
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, translate.ErrProvider)
	assert.Contains(t, err.Error(), "locale fr")

	assert.Equal(t, string(original), readFile(t, fs, "out/fr/translation.json"), "failed locale must stay untouched")
	assert.Equal(t, `{"Bye":"de:Bye","Hello":"de:Hello"}`, readFile(t, fs, "out/de/translation.json"))
	assert.Equal(t, []string{"fr"}, report.Failed)
	require.Len(t, logs, 1)
	assert.Contains(t, logs[0], "fr:")

	for _, f := range report.Files {
		assert.NotEqual(t, "fr", f.Locale)
	}
}

func TestRun_MalformedDictionaryIsReplaced(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "out/fr/translation.json", []byte(`{"Hello": `), 0644))

	var logs []string
	_, err := Run(context.Background(), Job{
		Extraction: extraction(map[string][]string{"translation": {"Hello"}}),
		Locales:    registry(t, "en", "fr"),
		OutputDir:  "out",
		Profile:    dictionary.Compact,
		Translator: &prefixer{},
		FS:         fs,
		OnLog:      func(format string, args ...any) { logs = append(logs, fmt.Sprintf(format, args...)) },
	})
	require.NoError(t, err)
	assert.Equal(t, `{"Hello":"fr:Hello"}`, readFile(t, fs, "out/fr/translation.json"))
	require.Len(t, logs, 1)
	assert.Contains(t, logs[0], "out/fr/translation.json")
}

func TestRun_WriteFailureIsReported(t *testing.T) {
	base := afero.NewMemMapFs()
	_, err := Run(context.Background(), Job{
		Extraction: extraction(map[string][]string{"translation": {"Hello"}}),
		Locales:    registry(t, "en"),
		OutputDir:  "out",
		FS:         afero.NewReadOnlyFs(base),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, dictionary.ErrWrite)
}

func TestRun_DryRun(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "lang/fr.json", []byte(`{"Old":"Vieux"}`), 0644))

	var pending int
	report, err := Run(context.Background(), Job{
		Extraction: extraction(map[string][]string{"translation": {"Hello", "Bye"}}),
		Locales:    registry(t, "en", "fr"),
		OutputDir:  "lang",
		Layout:     dictionary.Flat,
		DryRun:     true,
		FS:         fs,
		OnLocale: func(loc string, n int) {
			if loc == "fr" {
				pending = n
			}
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, pending)

	exists, err := afero.Exists(fs, "lang/en.json")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.Equal(t, `{"Old":"Vieux"}`, readFile(t, fs, "lang/fr.json"))

	require.Len(t, report.Files, 2)
	assert.Equal(t, 2, report.Files[1].Translated)
	assert.Equal(t, 1, report.Files[1].Pruned)
	assert.False(t, report.Files[1].Saved)
}

func TestRun_CancelledMidLocale(t *testing.T) {
	fs := afero.NewMemMapFs()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := 0
	tr := translate.Func(func(ctx context.Context, text, target, source string) (string, error) {
		calls++
		cancel()
		return "x", nil
	})

	_, err := Run(ctx, Job{
		Extraction: extraction(map[string][]string{"translation": {"A", "B", "C"}}),
		Locales:    registry(t, "en", "fr"),
		OutputDir:  "out",
		Translator: tr,
		FS:         fs,
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)

	exists, err := afero.Exists(fs, "out/fr/translation.json")
	require.NoError(t, err)
	assert.False(t, exists, "in-flight locale must not be saved")
}

func TestRun_Callbacks(t *testing.T) {
	var states []string
	var events []KeyEvent
	_, err := Run(context.Background(), Job{
		Extraction: extraction(map[string][]string{"translation": {"Hi"}}),
		Locales:    registry(t, "en", "it"),
		OutputDir:  "out",
		Translator: &prefixer{},
		FS:         afero.NewMemMapFs(),
		OnState:    func(s State, loc string) { states = append(states, strings.TrimSuffix(s.String()+" "+loc, " ")) },
		OnKey:      func(ev KeyEvent) { events = append(events, ev) },
	})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"idle", "extracting",
		"loading en", "resolving en", "translating en", "saving en",
		"loading it", "resolving it", "translating it", "saving it",
		"done",
	}, states)
	assert.Equal(t, []KeyEvent{
		{Locale: "en", Namespace: "translation", Key: "Hi", Value: "Hi", Action: merge.Identity},
		{Locale: "it", Namespace: "translation", Key: "Hi", Value: "it:Hi", Action: merge.Translate},
	}, events)
}

func TestRun_RequiresTranslatorForTargets(t *testing.T) {
	_, err := Run(context.Background(), Job{
		Extraction: extract.NewResult(),
		Locales:    registry(t, "en", "fr"),
		FS:         afero.NewMemMapFs(),
	})
	require.Error(t, err)
}

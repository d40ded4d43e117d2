package catalog

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minios-linux/keyglot/dictionary"
	"github.com/minios-linux/keyglot/extract"
	"github.com/minios-linux/keyglot/locale"
)

func result(keys map[string][]string) *extract.Result {
	r := extract.NewResult()
	for ns, ks := range keys {
		for _, k := range ks {
			r.Add(extract.Match{Namespace: ns, Key: k}, "")
		}
	}
	return r
}

func TestCheck_Flat(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "lang/en.json", []byte(`{"Bye":"Bye","Hello":"Hello"}`), 0644))
	require.NoError(t, afero.WriteFile(fs, "lang/fr.json", []byte(`{"Hello":"Bonjour","Bye":"","Old":"Vieux"}`), 0644))

	reg, err := locale.New("en", []string{"fr", "de"})
	require.NoError(t, err)

	cov, err := Check(fs, dictionary.Flat, "lang", reg, result(map[string][]string{"translation": {"Hello", "Bye"}}))
	require.NoError(t, err)
	require.Len(t, cov, 3)

	en, fr, de := cov[0], cov[1], cov[2]
	assert.True(t, en.Complete())
	assert.Equal(t, 100.0, en.Percent())
	assert.Equal(t, 2, en.Messages)

	assert.Equal(t, "fr", fr.Locale)
	assert.True(t, fr.Exists)
	assert.NoError(t, fr.LoadErr)
	assert.Equal(t, []string{"Bye"}, fr.Empty)
	assert.Empty(t, fr.Missing)
	assert.Equal(t, []string{"Old"}, fr.Stale)
	assert.Equal(t, 1, fr.Translated())
	assert.Equal(t, 50.0, fr.Percent())
	assert.False(t, fr.Complete())

	assert.False(t, de.Exists)
	assert.Equal(t, []string{"Bye", "Hello"}, de.Missing)
	assert.Equal(t, 0.0, de.Percent())
}

func TestCheck_NestedIncludesDefaultNamespace(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "locales/en/admin.json", []byte(`{"Save":"Save"}`), 0644))
	require.NoError(t, afero.WriteFile(fs, "locales/en/translation.json", []byte(`{}`), 0644))

	reg, err := locale.New("en", nil)
	require.NoError(t, err)

	cov, err := Check(fs, dictionary.Nested, "locales", reg, result(map[string][]string{"admin": {"Save"}}))
	require.NoError(t, err)
	require.Len(t, cov, 2)

	assert.Equal(t, "translation", cov[0].Namespace)
	assert.True(t, cov[0].Complete())
	assert.Equal(t, 0, cov[0].Keys)
	assert.Equal(t, "admin", cov[1].Namespace)
	assert.True(t, cov[1].Complete())
}

func TestCheck_LoadErrors(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "out/en/translation.json", []byte(`{"Hello": `), 0644))
	require.NoError(t, afero.WriteFile(fs, "out/fr/translation.json", []byte(`{"Hello":{"nested":"x"}}`), 0644))

	reg, err := locale.New("en", []string{"fr"})
	require.NoError(t, err)

	cov, err := Check(fs, dictionary.Nested, "out", reg, result(map[string][]string{"translation": {"Hello"}}))
	require.NoError(t, err)
	require.Len(t, cov, 2)

	for _, c := range cov {
		assert.True(t, c.Exists, c.Path)
		assert.Error(t, c.LoadErr, c.Path)
		assert.Contains(t, c.LoadErr.Error(), c.Path)
		assert.Equal(t, []string{"Hello"}, c.Missing)
		assert.False(t, c.Complete())
	}
}

func TestCatalog_Lookup(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "out/en/translation.json", []byte(`{"Hello":"Hello","Bye":"Bye"}`), 0644))
	require.NoError(t, afero.WriteFile(fs, "out/fr/translation.json", []byte(`{"Hello":"Bonjour"}`), 0644))

	reg, err := locale.New("en", []string{"fr", "de"})
	require.NoError(t, err)

	cat, err := Open(fs, dictionary.Nested, "out", reg, "translation")
	require.NoError(t, err)

	assert.Equal(t, "Bonjour", cat.Lookup("fr", "Hello"))
	assert.Equal(t, "Bye", cat.Lookup("fr", "Bye"))
	assert.Equal(t, "Hello", cat.Lookup("de", "Hello"))
	assert.Equal(t, "Unknown key", cat.Lookup("fr", "Unknown key"))
}

func TestOpen_Unloadable(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "lang/en.json", []byte(`[1,2`), 0644))

	reg, err := locale.New("en", nil)
	require.NoError(t, err)

	_, err = Open(fs, dictionary.Flat, "lang", reg, "translation")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lang/en.json")
}

func TestCatalog_UnderscoreLocale(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "lang/en.json", []byte(`{"hello":"hello"}`), 0644))
	require.NoError(t, afero.WriteFile(fs, "lang/pt_BR.json", []byte(`{"hello":"olá"}`), 0644))

	reg, err := locale.New("en", []string{"pt_BR"})
	require.NoError(t, err)

	cov, err := Check(fs, dictionary.Flat, "lang", reg, result(map[string][]string{"translation": {"hello"}}))
	require.NoError(t, err)
	require.Len(t, cov, 2)
	assert.Equal(t, "pt_BR", cov[1].Locale)
	assert.True(t, cov[1].Exists)
	assert.NoError(t, cov[1].LoadErr)
	assert.True(t, cov[1].Complete())

	cat, err := Open(fs, dictionary.Flat, "lang", reg, "translation")
	require.NoError(t, err)
	assert.Equal(t, "olá", cat.Lookup("pt_BR", "hello"))
}

package settings

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestDataDirAndFilePathUseXDGDataHome(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("XDG_DATA_HOME", tmp)

	dir, err := DataDir()
	if err != nil {
		t.Fatalf("DataDir() error: %v", err)
	}
	wantDir := filepath.Join(tmp, "keyglot")
	if dir != wantDir {
		t.Fatalf("DataDir() = %q, want %q", dir, wantDir)
	}

	wantPath := filepath.Join(tmp, "keyglot", "auth.json")
	if got := FilePath(); got != wantPath {
		t.Fatalf("FilePath() = %q, want %q", got, wantPath)
	}
	prompts, err := PromptsFilePath()
	if err != nil || prompts != filepath.Join(tmp, "keyglot", "prompts.json") {
		t.Fatalf("PromptsFilePath() = %q, %v", prompts, err)
	}
}

func TestSaveLoadRemoveLifecycle(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("XDG_DATA_HOME", tmp)

	if err := SetAPIKey("openai", "sk-openai-123456", ""); err != nil {
		t.Fatalf("SetAPIKey(openai) error: %v", err)
	}
	if err := SetAPIKey("custom-openai", "local-key-98765", "http://localhost:8080/v1"); err != nil {
		t.Fatalf("SetAPIKey(custom-openai) error: %v", err)
	}

	path := filepath.Join(tmp, "keyglot", "auth.json")
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat auth.json: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Fatalf("auth.json mode = %o, want 600", info.Mode().Perm())
	}

	if got := GetAPIKey("openai"); got != "sk-openai-123456" {
		t.Fatalf("GetAPIKey(openai) = %q", got)
	}
	if got := GetBaseURL("custom-openai"); got != "http://localhost:8080/v1" {
		t.Fatalf("GetBaseURL(custom-openai) = %q", got)
	}
	if got := List(); !reflect.DeepEqual(got, []string{"custom-openai", "openai"}) {
		t.Fatalf("List() = %v", got)
	}

	removed, err := Remove("openai")
	if err != nil || !removed {
		t.Fatalf("Remove(openai) = %v, %v", removed, err)
	}
	if got := GetAPIKey("openai"); got != "" {
		t.Fatalf("GetAPIKey after remove = %q, want empty", got)
	}
	if GetAPIKey("custom-openai") == "" {
		t.Fatalf("custom-openai should remain after removing openai")
	}

	removed, err = Remove("missing-provider")
	if err != nil || removed {
		t.Fatalf("Remove(missing) = %v, %v; want no-op", removed, err)
	}

	if err := RemoveAll(); err != nil {
		t.Fatalf("RemoveAll() error: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("auth.json should be removed, stat err=%v", err)
	}
	if got := Load(); len(got) != 0 {
		t.Fatalf("Load() after RemoveAll should be empty, got=%#v", got)
	}
}

func TestLoadIgnoresCorruptFile(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("XDG_DATA_HOME", tmp)

	if err := os.MkdirAll(filepath.Join(tmp, "keyglot"), 0700); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(filepath.Join(tmp, "keyglot", "auth.json"), []byte("{not json"), 0600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if got := Load(); len(got) != 0 {
		t.Fatalf("Load() on corrupt file = %#v, want empty", got)
	}
}

func TestResolveAPIKeyPriority(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("XDG_DATA_HOME", tmp)

	if err := SetAPIKey("groq", "stored-key", ""); err != nil {
		t.Fatalf("SetAPIKey() error: %v", err)
	}

	if got := ResolveAPIKey("groq", "flag-key", "env-key"); got != "flag-key" {
		t.Fatalf("flag should win, got %q", got)
	}
	if got := ResolveAPIKey("groq", "", "env-key"); got != "env-key" {
		t.Fatalf("env should win over store, got %q", got)
	}
	if got := ResolveAPIKey("groq", "", ""); got != "stored-key" {
		t.Fatalf("stored key expected, got %q", got)
	}
	if got := ResolveAPIKey("anthropic", "", ""); got != "" {
		t.Fatalf("unknown provider key = %q, want empty", got)
	}
}

func TestMaskKey(t *testing.T) {
	if got := MaskKey("short"); got != "****" {
		t.Fatalf("MaskKey(short) = %q, want ****", got)
	}
	if got := MaskKey("12345678"); got != "****" {
		t.Fatalf("MaskKey(8 chars) = %q, want ****", got)
	}
	if got := MaskKey("123456789"); got != "1234...6789" {
		t.Fatalf("MaskKey(9 chars) = %q, want 1234...6789", got)
	}
}

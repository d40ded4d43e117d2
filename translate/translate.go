// Package translate obtains machine translations for single strings from
// external services: the free Google Translate endpoint and HTTP API
// providers (OpenAI-compatible chat, Google AI Gemini, Anthropic).
//
// Every Translator is synchronous: one call per key. A failure is always an
// error wrapping ErrProvider, never an empty or identity string.
package translate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/minios-linux/keyglot/locale"
)

// ---------------------------------------------------------------------------
// Provider IDs
// ---------------------------------------------------------------------------

const (
	ProviderGoogle       = "google"
	ProviderGemini       = "gemini"
	ProviderOpenAI       = "openai"
	ProviderGroq         = "groq"
	ProviderCustomOpenAI = "custom-openai"
	ProviderOllama       = "ollama"
	ProviderAnthropic    = "anthropic"
)

// ---------------------------------------------------------------------------
// Errors
// ---------------------------------------------------------------------------

// ErrProvider classifies every failure of an external translation call:
// network, auth, quota, empty or invalid response.
var ErrProvider = errors.New("translation provider failure")

// ErrEmptyResponse is wrapped when a provider answers with no text.
var ErrEmptyResponse = errors.New("empty translation")

// ProviderError carries the provider and HTTP status (0 when not HTTP) of
// a failed call. It matches both ErrProvider and the underlying cause.
type ProviderError struct {
	Provider string
	Status   int
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Provider, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() []error {
	return []error{ErrProvider, e.Err}
}

func providerErr(provider string, status int, err error) error {
	return &ProviderError{Provider: provider, Status: status, Err: err}
}

// ---------------------------------------------------------------------------
// Translator
// ---------------------------------------------------------------------------

// Translator translates one string from the source locale to the target
// locale.
type Translator interface {
	Translate(ctx context.Context, text, target, source string) (string, error)
}

// Func adapts a plain function to the Translator interface.
type Func func(ctx context.Context, text, target, source string) (string, error)

func (f Func) Translate(ctx context.Context, text, target, source string) (string, error) {
	return f(ctx, text, target, source)
}

// ---------------------------------------------------------------------------
// Provider configuration
// ---------------------------------------------------------------------------

// Provider holds the configuration for a translation service.
type Provider struct {
	// ID is the provider identifier (google, groq, openai, etc.).
	ID string
	// Name is the display name.
	Name string
	// BaseURL is the API base URL.
	BaseURL string
	// APIKey is the authentication key (empty for local services).
	APIKey string
	// Model is the model identifier.
	Model string
	// Proxy is an optional HTTP/HTTPS proxy URL.
	Proxy string
	// Timeout is the request timeout.
	Timeout time.Duration
	// NeedsKey reports whether calls fail without an API key.
	NeedsKey bool
}

// DefaultProviders returns the pre-configured provider definitions.
func DefaultProviders() map[string]Provider {
	return map[string]Provider{
		ProviderGoogle: {
			ID:      ProviderGoogle,
			Name:    "Google Translate",
			Timeout: 30 * time.Second,
		},
		ProviderGemini: {
			ID:       ProviderGemini,
			Name:     "Google AI (Gemini)",
			BaseURL:  "https://generativelanguage.googleapis.com",
			Model:    "gemini-2.0-flash",
			Timeout:  120 * time.Second,
			NeedsKey: true,
		},
		ProviderOpenAI: {
			ID:       ProviderOpenAI,
			Name:     "OpenAI",
			BaseURL:  "https://api.openai.com/v1",
			Model:    "gpt-4o-mini",
			Timeout:  60 * time.Second,
			NeedsKey: true,
		},
		ProviderGroq: {
			ID:       ProviderGroq,
			Name:     "Groq",
			BaseURL:  "https://api.groq.com/openai/v1",
			Model:    "llama-3.3-70b-versatile",
			Timeout:  60 * time.Second,
			NeedsKey: true,
		},
		ProviderCustomOpenAI: {
			ID:      ProviderCustomOpenAI,
			Name:    "Custom OpenAI",
			Timeout: 60 * time.Second,
		},
		ProviderOllama: {
			ID:      ProviderOllama,
			Name:    "Ollama",
			BaseURL: "http://localhost:11434/v1",
			Timeout: 120 * time.Second,
		},
		ProviderAnthropic: {
			ID:       ProviderAnthropic,
			Name:     "Anthropic",
			BaseURL:  "https://api.anthropic.com/v1",
			Model:    "claude-3-5-haiku-latest",
			Timeout:  60 * time.Second,
			NeedsKey: true,
		},
	}
}

// ProviderIDs returns the known provider IDs, sorted.
func ProviderIDs() []string {
	var ids []string
	for id := range DefaultProviders() {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ---------------------------------------------------------------------------
// Translation options
// ---------------------------------------------------------------------------

// Options controls the translator built by New.
type Options struct {
	// Timeout is the per-request timeout (overrides provider timeout if set).
	Timeout time.Duration
	// MaxRetries is the maximum number of retries on 429 and 5xx. Default: 3.
	MaxRetries int
	// Rate limits calls per second (0 = unlimited).
	Rate float64
	// SystemPrompt overrides the default system prompt.
	SystemPrompt string
	// OnLog emits log messages (retries, rate limits).
	OnLog func(format string, args ...any)
}

func (o *Options) log(format string, args ...any) {
	if o.OnLog != nil {
		o.OnLog(format, args...)
	}
}

func (o *Options) effectiveTimeout(prov Provider) time.Duration {
	if o.Timeout > 0 {
		return o.Timeout
	}
	if prov.Timeout > 0 {
		return prov.Timeout
	}
	return 120 * time.Second
}

func (o *Options) effectiveMaxRetries() int {
	if o.MaxRetries > 0 {
		return o.MaxRetries
	}
	return 3
}

// New builds the translator for prov. Placeholders are masked around every
// call; with opts.Rate set the translator is paced.
func New(prov Provider, opts Options) (Translator, error) {
	if base, ok := DefaultProviders()[prov.ID]; ok {
		if prov.Name == "" {
			prov.Name = base.Name
		}
		if prov.BaseURL == "" {
			prov.BaseURL = base.BaseURL
		}
		if prov.Model == "" {
			prov.Model = base.Model
		}
		if prov.Timeout == 0 {
			prov.Timeout = base.Timeout
		}
		prov.NeedsKey = prov.NeedsKey || base.NeedsKey
	}

	var t Translator
	switch prov.ID {
	case ProviderGoogle:
		t = NewGoogle()
	case ProviderGemini, ProviderOpenAI, ProviderGroq, ProviderCustomOpenAI, ProviderOllama, ProviderAnthropic:
		h, err := newHTTPTranslator(prov, opts)
		if err != nil {
			return nil, err
		}
		t = h
	default:
		return nil, fmt.Errorf("unknown provider %q (valid: %s)", prov.ID, strings.Join(ProviderIDs(), ", "))
	}

	t = WithPlaceholders(t, prov.ID)
	if opts.Rate > 0 {
		t = NewPaced(t, opts.Rate)
	}
	return t, nil
}

// ---------------------------------------------------------------------------
// System prompts
// ---------------------------------------------------------------------------

// DefaultSystemPrompt is sent to LLM providers. {{sourceLang}} and
// {{targetLang}} are replaced with English language names.
const DefaultSystemPrompt = `You are a professional translator specializing in software and product localization. You are translating UI strings for a web application.

Translate the user's message from {{sourceLang}} to {{targetLang}}.

RULES:
- Reply with the translation only: no quotes, no explanations, no notes
- Keep tokens of the form __PH0__, __PH1__ exactly as they are, in a natural position
- Keep HTML tags, Markdown and punctuation at the ends of the text
- Translate for naturalness and fluency, using standard software terminology in {{targetLang}}
- Keep the original tone; short labels stay short`

// PromptsConfig holds system prompts loaded from prompts.json.
type PromptsConfig struct {
	Prompts map[string]string `json:"prompts"`
}

var globalPrompts *PromptsConfig

// LoadPromptsFromFile loads system prompts from a JSON file.
// A missing file is not an error; built-in defaults stay in effect.
func LoadPromptsFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read prompts file: %w", err)
	}

	var config PromptsConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return fmt.Errorf("failed to parse prompts file: %w", err)
	}

	globalPrompts = &config
	return nil
}

func getPrompt() string {
	if globalPrompts != nil {
		if prompt, ok := globalPrompts.Prompts["default"]; ok && prompt != "" {
			return prompt
		}
	}
	return DefaultSystemPrompt
}

func resolvePrompt(prompt, target, source string) string {
	if prompt == "" {
		prompt = getPrompt()
	}
	prompt = strings.ReplaceAll(prompt, "{{targetLang}}", locale.EnglishName(target))
	return strings.ReplaceAll(prompt, "{{sourceLang}}", locale.EnglishName(source))
}

// truncate truncates a string to maxLen characters.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

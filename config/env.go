package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment variable keyglot reads.
const EnvPrefix = "KEYGLOT_"

// Env holds the settings read from KEYGLOT_* variables. Zero values mean
// "not set".
type Env struct {
	BaseLocale string        `env:"BASE_LOCALE"`
	Locales    []string      `env:"LOCALES" envSeparator:","`
	Provider   string        `env:"PROVIDER"`
	Model      string        `env:"MODEL"`
	BaseURL    string        `env:"BASE_URL"`
	APIKey     string        `env:"API_KEY"`
	Proxy      string        `env:"PROXY"`
	Rate       float64       `env:"RATE"`
	Timeout    time.Duration `env:"TIMEOUT"`
}

// Environ returns the process environment merged over the variables of
// the .env file in rootDir. Variables already set in the process win. A
// missing .env file is not an error.
func Environ(rootDir string) (map[string]string, error) {
	vars := make(map[string]string)

	dotenv, err := godotenv.Read(filepath.Join(rootDir, ".env"))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("reading .env: %w", err)
	}
	for k, v := range dotenv {
		vars[k] = v
	}

	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			vars[k] = v
		}
	}
	return vars, nil
}

// ParseEnv reads the KEYGLOT_* settings from vars.
func ParseEnv(vars map[string]string) (Env, error) {
	e, err := env.ParseAsWithOptions[Env](env.Options{
		Prefix:      EnvPrefix,
		Environment: vars,
	})
	if err != nil {
		return Env{}, fmt.Errorf("environment: %w", err)
	}
	return e, nil
}

// LoadEnv combines Environ and ParseEnv.
func LoadEnv(rootDir string) (Env, error) {
	vars, err := Environ(rootDir)
	if err != nil {
		return Env{}, err
	}
	return ParseEnv(vars)
}

// Settings are the effective run settings after layering file and
// environment. Flags are applied on top by the caller.
type Settings struct {
	BaseLocale string
	Locales    []string
	Provider   string
	Model      string
	BaseURL    string
	APIKey     string
	Proxy      string
	Prompt     string
	Rate       float64
	Timeout    time.Duration
}

// Resolve layers the environment over the file.
func Resolve(f *File, e Env) Settings {
	s := Settings{
		BaseLocale: f.BaseLocale,
		Locales:    f.Locales,
		Provider:   f.Provider.Name,
		Model:      f.Provider.Model,
		BaseURL:    f.Provider.BaseURL,
		Proxy:      f.Provider.Proxy,
		Prompt:     f.Provider.Prompt,
		Rate:       f.Provider.Rate,
	}
	if e.BaseLocale != "" {
		s.BaseLocale = e.BaseLocale
	}
	if len(e.Locales) > 0 {
		s.Locales = e.Locales
	}
	if e.Provider != "" {
		s.Provider = e.Provider
	}
	if e.Model != "" {
		s.Model = e.Model
	}
	if e.BaseURL != "" {
		s.BaseURL = e.BaseURL
	}
	if e.APIKey != "" {
		s.APIKey = e.APIKey
	}
	if e.Proxy != "" {
		s.Proxy = e.Proxy
	}
	if e.Rate > 0 {
		s.Rate = e.Rate
	}
	if e.Timeout > 0 {
		s.Timeout = e.Timeout
	}
	return s
}

package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/minios-linux/keyglot/config"
	"github.com/minios-linux/keyglot/i18n"
	"github.com/minios-linux/keyglot/settings"
	"github.com/minios-linux/keyglot/translate"
)

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: i18n.T("Manage provider API keys"),
		Long: `Manage the API keys stored for translation providers.

Keys are kept in $XDG_DATA_HOME/keyglot/auth.json (mode 0600). A key given
with --api-key or ` + config.EnvPrefix + `API_KEY takes precedence over the
stored one.

API key providers:
  openai         OpenAI
  groq           Groq Cloud
  gemini         Google AI Studio (Gemini API key)
  anthropic      Anthropic
  custom-openai  Custom OpenAI-compatible endpoint (key optional)

No auth required:
  google         Google Translate (free endpoint)
  ollama         Local Ollama server

Examples:
  keyglot auth login --provider openai
  keyglot auth login --provider custom-openai --base-url http://localhost:8080/v1
  keyglot auth logout --provider openai
  keyglot auth logout                       Remove all credentials
  keyglot auth list`,
	}

	cmd.AddCommand(
		newAuthLoginCmd(),
		newAuthLogoutCmd(),
		newAuthListCmd(),
	)

	return cmd
}

// keyProviders returns the providers that accept an API key, sorted.
func keyProviders() []string {
	defaults := translate.DefaultProviders()
	var out []string
	for _, id := range translate.ProviderIDs() {
		if defaults[id].NeedsKey || id == translate.ProviderCustomOpenAI {
			out = append(out, id)
		}
	}
	return out
}

func isKeyProvider(id string) bool {
	for _, p := range keyProviders() {
		if p == id {
			return true
		}
	}
	return false
}

func completeKeyProviders(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	defaults := translate.DefaultProviders()
	var out []string
	for _, id := range keyProviders() {
		out = append(out, id+"\t"+defaults[id].Name)
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}

func newAuthLoginCmd() *cobra.Command {
	var provider, baseURL string

	cmd := &cobra.Command{
		Use:   "login",
		Short: i18n.T("Store an API key for a provider"),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := bufio.NewReader(cmd.InOrStdin())

			if provider == "" {
				fmt.Fprintf(stderr, "\n%s\n", blue(i18n.T("Select a provider")))
				for i, id := range keyProviders() {
					fmt.Fprintf(stderr, "  %d) %s\n", i+1, id)
				}
				answer, err := readLine(in, "\n  > ")
				if err != nil {
					return errors.New(i18n.T("no input received"))
				}
				provider = answer
				var n int
				if _, err := fmt.Sscanf(answer, "%d", &n); err == nil && n >= 1 && n <= len(keyProviders()) {
					provider = keyProviders()[n-1]
				}
			}
			provider = strings.ToLower(provider)
			if !isKeyProvider(provider) {
				return fmt.Errorf(i18n.T("provider %q does not use an API key (valid: %s)"), provider, strings.Join(keyProviders(), ", "))
			}

			existing := settings.Get(provider)

			if provider == translate.ProviderCustomOpenAI && baseURL == "" {
				prompt := i18n.T("  Enter endpoint URL (e.g. https://api.example.com/v1): ")
				if existing != nil && existing.BaseURL != "" {
					fmt.Fprintf(stderr, "  Current endpoint: %s\n", yellow(existing.BaseURL))
					prompt = i18n.T("  Enter new endpoint URL, or press Enter to keep: ")
				}
				answer, err := readLine(in, prompt)
				if err != nil && (existing == nil || existing.BaseURL == "") {
					return errors.New(i18n.T("no input received"))
				}
				baseURL = answer
				if baseURL == "" && existing != nil {
					baseURL = existing.BaseURL
				}
				if baseURL == "" {
					return errors.New(i18n.T("endpoint URL is required"))
				}
			}

			prompt := i18n.T("  Enter API key: ")
			if existing != nil && existing.Key != "" {
				fmt.Fprintf(stderr, "  Current key: %s\n", yellow(settings.MaskKey(existing.Key)))
				prompt = i18n.T("  Enter new key to replace, or press Enter to keep: ")
			}
			key, err := readLine(in, prompt)
			if err != nil && (existing == nil || existing.Key == "") && provider != translate.ProviderCustomOpenAI {
				return errors.New(i18n.T("no input received"))
			}
			if key == "" && existing != nil {
				key = existing.Key
			}
			if key == "" && provider != translate.ProviderCustomOpenAI {
				return errors.New(i18n.T("no API key provided"))
			}

			if err := settings.SetAPIKey(provider, key, baseURL); err != nil {
				return fmt.Errorf("saving credentials: %w", err)
			}
			logSuccess(i18n.T("%s credentials saved"), provider)
			fmt.Fprintf(stderr, "\n  You can now use: keyglot translate --provider %s\n\n", provider)
			return nil
		},
	}

	cmd.Flags().StringVar(&provider, "provider", "", "Provider to store a key for")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "Endpoint URL (custom-openai)")
	_ = cmd.RegisterFlagCompletionFunc("provider", completeKeyProviders)

	return cmd
}

func newAuthLogoutCmd() *cobra.Command {
	var provider string

	cmd := &cobra.Command{
		Use:   "logout",
		Short: i18n.T("Remove stored credentials"),
		Long: `Remove stored credentials for one or all providers.

If --provider is not specified, credentials for ALL providers are removed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if provider == "" {
				if err := settings.RemoveAll(); err != nil {
					return err
				}
				logSuccess("%s", i18n.T("All stored credentials removed"))
				return nil
			}

			removed, err := settings.Remove(strings.ToLower(provider))
			if err != nil {
				return fmt.Errorf("removing %s credentials: %w", provider, err)
			}
			if !removed {
				logWarning(i18n.T("No credentials stored for %s"), provider)
				return nil
			}
			logSuccess(i18n.T("%s credentials removed"), provider)
			return nil
		},
	}

	cmd.Flags().StringVar(&provider, "provider", "", "Provider to logout (default: all)")
	_ = cmd.RegisterFlagCompletionFunc("provider", completeKeyProviders)

	return cmd
}

func newAuthListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   i18n.T("Show stored credentials and status"),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			defaults := translate.DefaultProviders()

			fmt.Fprintf(out, "\n%s\n", blue(i18n.T("Stored Credentials")))
			fmt.Fprintln(out, strings.Repeat("─", 60))

			for _, id := range translate.ProviderIDs() {
				entry := settings.Get(id)
				var status string
				switch {
				case entry != nil && entry.Key != "":
					status = fmt.Sprintf("%s (key: %s)", green("configured"), settings.MaskKey(entry.Key))
				case entry != nil && entry.BaseURL != "":
					status = fmt.Sprintf("%s (no key)", green("configured"))
				case !defaults[id].NeedsKey && id != translate.ProviderCustomOpenAI:
					status = "no key needed"
				default:
					status = red("not configured")
				}
				fmt.Fprintf(out, "  %-14s %s\n", id, status)
				if entry != nil && entry.BaseURL != "" {
					fmt.Fprintf(out, "  %14s endpoint: %s\n", "", entry.BaseURL)
				}
			}

			p, err := loadProject()
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "\n  %s\n", yellow(i18n.T("Environment Variables")))
			if p.env.APIKey != "" {
				fmt.Fprintf(out, "  %sAPI_KEY: %s (overrides stored keys)\n", config.EnvPrefix, green(settings.MaskKey(p.env.APIKey)))
			} else {
				fmt.Fprintf(out, "  %sAPI_KEY: %s\n", config.EnvPrefix, red("not set"))
			}
			fmt.Fprintln(out)
			return nil
		},
	}
}

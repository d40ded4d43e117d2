package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/minios-linux/keyglot/config"
	"github.com/minios-linux/keyglot/dictionary"
	"github.com/minios-linux/keyglot/i18n"
	"github.com/minios-linux/keyglot/locale"
	"github.com/minios-linux/keyglot/merge"
	"github.com/minios-linux/keyglot/orchestrator"
	"github.com/minios-linux/keyglot/settings"
	"github.com/minios-linux/keyglot/translate"
)

type translateArgs struct {
	src sourceArgs

	base, langs     string
	layout, profile string
	force, dryRun   bool

	provider, model, apiKey string
	baseURL, proxy, prompt  string
	rate                    float64
	timeout                 time.Duration
}

func newTranslateCmd() *cobra.Command {
	var a translateArgs

	cmd := &cobra.Command{
		Use:   "translate",
		Short: i18n.T("Extract keys and translate missing dictionary entries"),
		Long: `Extract translation keys from source, then bring every locale's JSON
dictionaries up to date. Existing non-empty values are kept, the base
locale receives the key itself and every other missing or empty value is
translated by the provider, one key at a time.

Locales are processed one after another. When a provider call fails the
locale is abandoned and its files are left untouched; the remaining
locales still run.

Examples:
  # Translate every configured target with the free Google endpoint
  keyglot translate --base en --lang fr,de

  # Only the React target, using OpenAI
  keyglot translate --target react --provider openai --lang es

  # Re-translate everything, writing flat files
  keyglot translate --force --format flat

  # Show what would be translated
  keyglot translate --dry-run`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTranslate(cmd, a)
		},
	}

	a.src.register(cmd)

	// Locales
	cmd.Flags().StringVar(&a.base, "base", "", "Base locale (keys are written in this language)")
	cmd.Flags().StringVar(&a.langs, "lang", "", "Target locales, comma-separated or 'all' (default: configured or detected)")

	// Output
	cmd.Flags().BoolVar(&a.force, "force", false, "Re-translate keys that already have a value")
	cmd.Flags().StringVar(&a.layout, "format", "", "Output layout: nested or flat (default: from target)")
	cmd.Flags().StringVar(&a.profile, "profile", "", "Output formatting: pretty or compact (default: from target)")
	cmd.Flags().BoolVar(&a.dryRun, "dry-run", false, "Show what would be translated without calling the provider")

	// Provider
	cmd.Flags().StringVar(&a.provider, "provider", "", "Translation provider: "+strings.Join(translate.ProviderIDs(), ", "))
	cmd.Flags().StringVar(&a.model, "model", "", "Model name (LLM providers)")
	cmd.Flags().StringVar(&a.apiKey, "api-key", "", "API key (or "+config.EnvPrefix+"API_KEY env var)")
	cmd.Flags().StringVar(&a.baseURL, "base-url", "", "Custom API base URL")
	cmd.Flags().StringVar(&a.prompt, "prompt", "", "Custom system prompt (use {{sourceLang}} and {{targetLang}} placeholders)")

	// Network
	cmd.Flags().StringVar(&a.proxy, "proxy", "", "HTTP/HTTPS proxy URL")
	cmd.Flags().Float64Var(&a.rate, "rate", 0, "Maximum provider calls per second (0 = unlimited)")
	cmd.Flags().DurationVar(&a.timeout, "timeout", 0, "Request timeout (0 = provider default)")

	_ = cmd.RegisterFlagCompletionFunc("provider", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		defaults := translate.DefaultProviders()
		var out []string
		for _, id := range translate.ProviderIDs() {
			out = append(out, id+"\t"+defaults[id].Name)
		}
		return out, cobra.ShellCompDirectiveNoFileComp
	})
	_ = cmd.RegisterFlagCompletionFunc("model", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		p, _ := cmd.Flags().GetString("provider")
		switch p {
		case translate.ProviderOpenAI:
			return []string{"gpt-4o-mini", "gpt-4o", "gpt-4.1-mini"}, cobra.ShellCompDirectiveNoFileComp
		case translate.ProviderGroq:
			return []string{"llama-3.3-70b-versatile", "mixtral-8x7b-32768"}, cobra.ShellCompDirectiveNoFileComp
		case translate.ProviderGemini:
			return []string{"gemini-2.0-flash", "gemini-2.5-flash", "gemini-1.5-pro"}, cobra.ShellCompDirectiveNoFileComp
		case translate.ProviderAnthropic:
			return []string{"claude-3-5-haiku-latest", "claude-3-5-sonnet-latest"}, cobra.ShellCompDirectiveNoFileComp
		case translate.ProviderOllama:
			return []string{"llama3.2", "qwen2.5", "mistral"}, cobra.ShellCompDirectiveNoFileComp
		default:
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
	})
	_ = cmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{string(dictionary.Nested), string(dictionary.Flat)}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = cmd.RegisterFlagCompletionFunc("profile", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{string(dictionary.Pretty), string(dictionary.Compact)}, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

// applyFlags layers the explicitly set flags over the file and environment
// settings.
func applyFlags(cmd *cobra.Command, s *config.Settings, a translateArgs) {
	flags := cmd.Flags()
	if flags.Changed("base") {
		s.BaseLocale = a.base
	}
	if flags.Changed("lang") {
		s.Locales = locale.ParseList(a.langs)
	}
	if flags.Changed("provider") {
		s.Provider = a.provider
	}
	if flags.Changed("model") {
		s.Model = a.model
	}
	if flags.Changed("base-url") {
		s.BaseURL = a.baseURL
	}
	if flags.Changed("proxy") {
		s.Proxy = a.proxy
	}
	if flags.Changed("prompt") {
		s.Prompt = a.prompt
	}
	if flags.Changed("rate") {
		s.Rate = a.rate
	}
	if flags.Changed("timeout") {
		s.Timeout = a.timeout
	}
}

// buildTranslator resolves the provider configuration and credentials.
func buildTranslator(s config.Settings, flagKey, envKey string) (translate.Translator, error) {
	id := strings.ToLower(s.Provider)
	if id == "" {
		id = translate.ProviderGoogle
	}

	baseURL := s.BaseURL
	if baseURL == "" {
		baseURL = settings.GetBaseURL(id)
	}

	if path, err := settings.PromptsFilePath(); err == nil {
		if err := translate.LoadPromptsFromFile(path); err != nil {
			logWarning("%v", err)
		}
	}

	return translate.New(translate.Provider{
		ID:      id,
		BaseURL: baseURL,
		APIKey:  settings.ResolveAPIKey(id, flagKey, envKey),
		Model:   s.Model,
		Proxy:   s.Proxy,
	}, translate.Options{
		Timeout:      s.Timeout,
		Rate:         s.Rate,
		SystemPrompt: s.Prompt,
		OnLog:        logWarning,
	})
}

// targetLocales picks the target locales: configured ones, or the locales
// already present in the output directory.
func targetLocales(p *project, s config.Settings, t config.Target, layout dictionary.Layout) []string {
	if len(s.Locales) > 0 {
		return s.Locales
	}
	return config.DetectLocales(p.fs, layout, t.AbsOutput(p.root))
}

func runTranslate(cmd *cobra.Command, a translateArgs) error {
	p, err := loadProject()
	if err != nil {
		return err
	}
	targets, err := p.file.Select(a.src.targets)
	if err != nil {
		return err
	}

	s := p.settings
	applyFlags(cmd, &s, a)

	if s.BaseLocale == "" {
		s.BaseLocale, err = readLine(bufio.NewReader(cmd.InOrStdin()), i18n.T("Base locale (e.g. en): "))
		if err != nil || s.BaseLocale == "" {
			return errors.New(i18n.T("a base locale is required (--base or base_locale in the config file)"))
		}
	}

	var tr translate.Translator
	if !a.dryRun {
		tr, err = buildTranslator(s, a.apiKey, p.env.APIKey)
		if err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	log := newLogger(stderr, a.src.verbose)

	var (
		failed      []string
		errs        []error
		files       int
		translated  int
		interrupted bool
	)
	for _, t := range targets {
		layout := t.LayoutValue()
		if a.layout != "" {
			if layout, err = dictionary.ParseLayout(a.layout); err != nil {
				return err
			}
		}
		profile := t.ProfileValue()
		if a.profile != "" {
			if profile, err = dictionary.ParseProfile(a.profile); err != nil {
				return err
			}
		}

		reg, err := locale.New(s.BaseLocale, targetLocales(p, s, t, layout))
		if err != nil {
			return err
		}

		res, err := extractTarget(ctx, p, t, a.src, log)
		if err != nil {
			if ctx.Err() != nil {
				interrupted = true
				break
			}
			return err
		}
		logInfo(i18n.T("%s: %d keys in %d namespaces, locales: %s"),
			cyan(t.Name), res.Len(), len(res.NamespaceNames()), strings.Join(reg.All(), ", "))

		report, err := orchestrator.Run(ctx, orchestrator.Job{
			Extraction: res,
			Locales:    reg,
			OutputDir:  t.AbsOutput(p.root),
			Layout:     layout,
			Profile:    profile,
			Force:      a.force,
			DryRun:     a.dryRun,
			Translator: tr,
			FS:         p.fs,
			OnLocale:   progress.start(a.dryRun),
			OnKey: func(e orchestrator.KeyEvent) {
				log.Debug("key", "locale", e.Locale, "namespace", e.Namespace, "action", e.Action.String(), "key", e.Key, "value", e.Value)
				if e.Action == merge.Translate {
					progress.add()
				}
			},
			OnLog: logWarning,
		})
		progress.finish()

		if report != nil {
			for _, f := range report.Files {
				printFileReport(p.root, f, a.dryRun)
				if f.Saved {
					files++
				}
			}
			_, _, n := report.Totals()
			translated += n
			failed = append(failed, report.Failed...)
		}
		if err != nil {
			if errors.Is(err, context.Canceled) {
				interrupted = true
				break
			}
			errs = append(errs, fmt.Errorf("target %s: %w", t.Name, err))
		}
	}

	switch {
	case interrupted:
		logWarning("%s", i18n.T("Interrupted; the locale in progress was not saved"))
		return fmt.Errorf("translation interrupted: %w", context.Canceled)
	case len(errs) > 0:
		return fmt.Errorf(i18n.T("translation failed for %s: %w"), strings.Join(failed, ", "), errors.Join(errs...))
	case a.dryRun:
		logSuccess(i18n.T("Dry run: %d keys would be translated"), translated)
	default:
		logSuccess(i18n.T("Translation complete: %d keys translated, %d files written"), translated, files)
	}
	return nil
}

func printFileReport(root string, f orchestrator.FileReport, dryRun bool) {
	verb := "translated"
	if dryRun {
		verb = "to translate"
	}
	logInfo("  %s: %d kept, %d identity, %d %s, %d pruned",
		relPath(root, f.Path), f.Kept, f.Identity, f.Translated, verb, f.Pruned)
}

// progress is the per-locale progress bar of the running translate command.
var progress localeProgress

type localeProgress struct {
	bar *progressbar.ProgressBar
}

// start returns the OnLocale callback that opens a bar for every locale
// with pending provider calls.
func (lp *localeProgress) start(dryRun bool) func(loc string, pending int) {
	return func(loc string, pending int) {
		lp.finish()
		if pending == 0 {
			logInfo(i18n.T("%s: up to date"), locale.Label(loc))
			return
		}
		if dryRun {
			logInfo(i18n.T("%s: %d keys to translate"), locale.Label(loc), pending)
			return
		}
		lp.bar = progressbar.NewOptions(pending,
			progressbar.OptionSetWriter(stderr),
			progressbar.OptionEnableColorCodes(true),
			progressbar.OptionShowCount(),
			progressbar.OptionSetWidth(40),
			progressbar.OptionSetDescription("[cyan]"+locale.Label(loc)+"[reset]"),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "[green]=[reset]",
				SaucerHead:    "[green]>[reset]",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			}),
		)
	}
}

func (lp *localeProgress) add() {
	if lp.bar != nil {
		_ = lp.bar.Add(1)
	}
}

func (lp *localeProgress) finish() {
	if lp.bar != nil {
		_ = lp.bar.Finish()
		fmt.Fprintln(stderr)
		lp.bar = nil
	}
}

// keyglot: extracts translation keys from source code, machine-translates
// them and writes per-locale JSON dictionaries.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/lmittmann/tint"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/minios-linux/keyglot/config"
	"github.com/minios-linux/keyglot/extract"
	"github.com/minios-linux/keyglot/i18n"
)

// Version information (set via -ldflags during build)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// ---------------------------------------------------------------------------
// Operator notices
// ---------------------------------------------------------------------------

var (
	blue   = color.New(color.FgBlue).SprintFunc()
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.Bold, color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	cyan   = color.New(color.Bold, color.FgCyan).SprintFunc()
)

// stderr receives notices, progress bars and debug logs.
var stderr io.Writer = os.Stderr

func logInfo(format string, args ...any) {
	fmt.Fprintf(stderr, blue("[INFO]")+" "+format+"\n", args...)
}

func logSuccess(format string, args ...any) {
	fmt.Fprintf(stderr, green("[OK]")+" "+format+"\n", args...)
}

func logWarning(format string, args ...any) {
	fmt.Fprintf(stderr, yellow("[WARN]")+" "+format+"\n", args...)
}

func logError(format string, args ...any) {
	fmt.Fprintf(stderr, red("[ERROR]")+" "+format+"\n", args...)
}

// newLogger builds the structured logger used for per-key and debug lines.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
		NoColor:    color.NoColor,
	}))
}

// ---------------------------------------------------------------------------
// Global flags
// ---------------------------------------------------------------------------

var (
	rootDir    string
	configPath string
)

// project is the configuration shared by every command.
type project struct {
	root     string
	fs       afero.Fs
	file     *config.File
	env      config.Env
	settings config.Settings
}

// loadProject reads .keyglot.yaml (or --config), .env and KEYGLOT_*
// variables.
func loadProject() (*project, error) {
	root, err := filepath.Abs(rootDir)
	if err != nil {
		return nil, err
	}
	fs := afero.NewOsFs()

	var file *config.File
	if configPath != "" {
		file, err = config.LoadFile(fs, configPath, false)
	} else {
		file, err = config.Load(fs, root)
	}
	if err != nil {
		return nil, err
	}

	env, err := config.LoadEnv(root)
	if err != nil {
		return nil, err
	}

	return &project{
		root:     root,
		fs:       fs,
		file:     file,
		env:      env,
		settings: config.Resolve(file, env),
	}, nil
}

// ---------------------------------------------------------------------------
// Root command
// ---------------------------------------------------------------------------

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "keyglot",
		Short: i18n.T("Extract translation keys and machine-translate JSON dictionaries"),
		Long: `keyglot scans source files for translation calls, translates the keys
into the configured locales and writes JSON dictionaries a runtime
localization layer can load.

Commands:
  translate   Extract keys and translate missing entries
  extract     Print the keys found in source
  compress    Minify JSON dictionaries in place
  status      Show dictionary coverage per locale
  auth        Manage provider API keys

Providers:
  google         Google Translate (free, no key)
  openai         OpenAI API key
  groq           Groq Cloud API key
  gemini         Google AI (Gemini) API key
  anthropic      Anthropic API key
  ollama         Ollama local server
  custom-openai  Custom OpenAI-compatible endpoint`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&rootDir, "root", ".", "Project root directory")
	root.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: <root>/"+config.FileName+")")

	root.AddCommand(
		newTranslateCmd(),
		newExtractCmd(),
		newCompressCmd(),
		newStatusCmd(),
		newAuthCmd(),
		newVersionCmd(),
	)

	return root
}

func main() {
	i18n.Init("")
	if err := newRootCmd().Execute(); err != nil {
		logError("%v", err)
		if errors.Is(err, context.Canceled) {
			os.Exit(130)
		}
		os.Exit(1)
	}
}

// ---------------------------------------------------------------------------
// version
// ---------------------------------------------------------------------------

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: i18n.T("Show version information"),
		Long:  `Display version, commit hash, and build date.`,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "keyglot version %s\n", version)
			fmt.Fprintf(out, "  commit:    %s\n", commit)
			fmt.Fprintf(out, "  built:     %s\n", date)
			fmt.Fprintf(out, "  dialects:  %s\n", strings.Join(extract.Dialects(), ", "))
		},
	}
}

// ---------------------------------------------------------------------------
// Shared helpers
// ---------------------------------------------------------------------------

// splitList splits a comma-separated flag value, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// readLine prints prompt and reads one trimmed line from in. Callers that
// read several answers share one reader.
func readLine(in *bufio.Reader, prompt string) (string, error) {
	fmt.Fprint(stderr, prompt)
	line, err := in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// percentBar renders a colored bar of width cells followed by the percent.
func percentBar(percent, width int) string {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	filled := percent * width / 100
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)

	paint := red
	switch {
	case percent == 100:
		paint = green
	case percent >= 50:
		paint = yellow
	}
	return fmt.Sprintf("%s %3d%%", paint(bar), percent)
}

// resolvePath resolves p against the project root unless it is absolute.
func resolvePath(root, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}

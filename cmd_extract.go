package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/minios-linux/keyglot/config"
	"github.com/minios-linux/keyglot/extract"
	"github.com/minios-linux/keyglot/i18n"
)

// sourceArgs are the flags shared by every command that extracts keys.
type sourceArgs struct {
	targets []string
	files   []string
	exclude []string
	dialect string
	verbose bool
}

// flagSet returns the source selection flags, shared by extract, translate
// and status.
func (a *sourceArgs) flagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("source", pflag.ContinueOnError)
	fs.StringSliceVar(&a.targets, "target", nil, "Config targets to process (default: all)")
	fs.StringSliceVar(&a.files, "file", nil, "Scan only these files instead of walking the target roots")
	fs.StringSliceVar(&a.exclude, "exclude", nil, "Glob patterns of files to skip (e.g. 'resources/views/admin/**')")
	fs.StringVar(&a.dialect, "dialect", "", "Override the target's extraction dialect")
	fs.BoolVarP(&a.verbose, "verbose", "v", false, "Enable detailed logging")
	return fs
}

func (a *sourceArgs) register(cmd *cobra.Command) {
	cmd.Flags().AddFlagSet(a.flagSet())
	_ = cmd.RegisterFlagCompletionFunc("dialect", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return extract.Dialects(), cobra.ShellCompDirectiveNoFileComp
	})
}

// extractTarget runs the target's dialect over its sources.
func extractTarget(ctx context.Context, p *project, t config.Target, a sourceArgs, log *slog.Logger) (*extract.Result, error) {
	dialectName := t.Dialect
	if a.dialect != "" {
		dialectName = a.dialect
	}
	dialect, err := extract.Lookup(dialectName, t.Functions)
	if err != nil {
		return nil, fmt.Errorf("target %s: %w", t.Name, err)
	}

	files := make([]string, len(a.files))
	for i, f := range a.files {
		files[i] = resolvePath(p.root, f)
	}

	return extract.Extract(ctx, extract.Options{
		Roots:        t.AbsRoots(p.root),
		Extensions:   t.Extensions,
		ExcludeDirs:  t.ExcludeDirs,
		ExcludeFiles: excludePatterns(p.root, append(append([]string{}, t.ExcludeFiles...), a.exclude...)),
		Files:        files,
		Dialect:      dialect,
		FS:           p.fs,
		OnWarn:       logWarning,
		OnFound: func(ns, key string) {
			log.Debug("found", "target", t.Name, "namespace", ns, "key", key)
		},
	})
}

// excludePatterns adds a project-rooted variant of every relative pattern
// with a directory part, so "resources/views/admin/**" matches the
// absolute paths the walk produces.
func excludePatterns(root string, patterns []string) []string {
	out := make([]string, 0, len(patterns)*2)
	for _, pat := range patterns {
		out = append(out, pat)
		if strings.Contains(pat, "/") && !filepath.IsAbs(pat) {
			out = append(out, filepath.ToSlash(filepath.Join(root, pat)))
		}
	}
	return out
}

func newExtractCmd() *cobra.Command {
	var (
		src    sourceArgs
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "extract",
		Short: i18n.T("Print the translation keys found in source"),
		Long: `Scan the configured targets and print the distinct keys per namespace.

Examples:
  keyglot extract
  keyglot extract --target react --json
  keyglot extract --dialect go --file main.go`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(cmd, src, asJSON)
		},
	}

	src.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print machine-readable JSON")

	return cmd
}

// extractOutput is the --json document: target -> namespace -> keys.
type extractOutput map[string]map[string][]string

func runExtract(cmd *cobra.Command, src sourceArgs, asJSON bool) error {
	p, err := loadProject()
	if err != nil {
		return err
	}
	targets, err := p.file.Select(src.targets)
	if err != nil {
		return err
	}
	log := newLogger(stderr, src.verbose)
	out := cmd.OutOrStdout()

	doc := make(extractOutput)
	for _, t := range targets {
		res, err := extractTarget(cmd.Context(), p, t, src, log)
		if err != nil {
			return err
		}

		if asJSON {
			doc[t.Name] = make(map[string][]string)
			for _, ns := range res.NamespaceNames() {
				doc[t.Name][ns] = res.Keys(ns)
			}
			continue
		}

		if len(res.Files) == 0 {
			fmt.Fprintf(out, "%s (%s): no source files\n", cyan(t.Name), t.Dialect)
			continue
		}
		fmt.Fprintf(out, "%s (%s): %d keys in %s\n", cyan(t.Name), t.Dialect, res.Len(), extract.DescribeFiles(res.Files))
		for _, ns := range res.NamespaceNames() {
			fmt.Fprintf(out, "  [%s]\n", ns)
			for _, k := range res.Keys(ns) {
				fmt.Fprintf(out, "    %s\n", k)
				if src.verbose {
					for _, loc := range res.Where(ns, k) {
						fmt.Fprintf(out, "        %s\n", loc)
					}
				}
			}
		}
		if groups := res.GroupKeys(); len(groups) > 0 {
			fmt.Fprintf(out, "  group keys (not translated): %d\n", len(groups))
			if src.verbose {
				for _, g := range groups {
					fmt.Fprintf(out, "    %s\n", g)
				}
			}
		}
	}

	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(doc)
	}
	return nil
}

package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/minios-linux/keyglot/catalog"
	"github.com/minios-linux/keyglot/extract"
	"github.com/minios-linux/keyglot/i18n"
	"github.com/minios-linux/keyglot/locale"
)

func newStatusCmd() *cobra.Command {
	var (
		src       sourceArgs
		base      string
		langs     string
		key       string
		namespace string
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: i18n.T("Show dictionary coverage per locale"),
		Long: `Extract the keys of every target and compare them with the JSON
dictionaries on disk. Each dictionary is loaded the way a runtime
localization layer would load it, so files it would reject are reported.

With --key, show how the key resolves in every locale instead.

Examples:
  keyglot status
  keyglot status --target react --lang fr,de
  keyglot status --key "Save changes" --namespace admin`,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadProject()
			if err != nil {
				return err
			}
			targets, err := p.file.Select(src.targets)
			if err != nil {
				return err
			}

			s := p.settings
			if cmd.Flags().Changed("base") {
				s.BaseLocale = base
			}
			if s.BaseLocale == "" {
				s.BaseLocale = "en"
			}
			if cmd.Flags().Changed("lang") {
				s.Locales = locale.ParseList(langs)
			}

			out := cmd.OutOrStdout()
			log := newLogger(stderr, src.verbose)
			for _, t := range targets {
				layout := t.LayoutValue()
				reg, err := locale.New(s.BaseLocale, targetLocales(p, s, t, layout))
				if err != nil {
					return err
				}
				outputDir := t.AbsOutput(p.root)

				fmt.Fprintf(out, "\n%s (%s, %s) -> %s\n", cyan(t.Name), t.Dialect, layout, relPath(p.root, outputDir))

				if key != "" {
					cat, err := catalog.Open(p.fs, layout, outputDir, reg, namespace)
					if err != nil {
						return err
					}
					for _, loc := range reg.All() {
						fmt.Fprintf(out, "  %-8s %s\n", loc, cat.Lookup(loc, key))
					}
					continue
				}

				res, err := extractTarget(cmd.Context(), p, t, src, log)
				if err != nil {
					return err
				}
				cov, err := catalog.Check(p.fs, layout, outputDir, reg, res)
				if err != nil {
					return err
				}
				printCoverage(out, cov, src.verbose)
			}
			return nil
		},
	}

	src.register(cmd)
	cmd.Flags().StringVar(&base, "base", "", "Base locale (default: configured or en)")
	cmd.Flags().StringVar(&langs, "lang", "", "Target locales, comma-separated or 'all' (default: configured or detected)")
	cmd.Flags().StringVar(&key, "key", "", "Show how this key resolves in every locale")
	cmd.Flags().StringVar(&namespace, "namespace", extract.DefaultNamespace, "Namespace of --key (nested layout)")

	return cmd
}

func printCoverage(out io.Writer, cov []catalog.Coverage, verbose bool) {
	for _, c := range cov {
		var notes []string
		switch {
		case c.LoadErr != nil:
			notes = append(notes, red("load error: "+c.LoadErr.Error()))
		case !c.Exists:
			notes = append(notes, yellow("not created"))
		}
		if n := len(c.Missing); n > 0 && c.Exists && c.LoadErr == nil {
			notes = append(notes, fmt.Sprintf("%d missing", n))
		}
		if n := len(c.Empty); n > 0 {
			notes = append(notes, fmt.Sprintf("%d empty", n))
		}
		if n := len(c.Stale); n > 0 {
			notes = append(notes, fmt.Sprintf("%d stale", n))
		}

		fmt.Fprintf(out, "  %-8s %-14s %s  %d/%d  %s\n",
			c.Locale, c.Namespace, percentBar(int(c.Percent()), 20), c.Translated(), c.Keys, strings.Join(notes, ", "))

		if verbose {
			for _, k := range c.Missing {
				fmt.Fprintf(out, "      - %s\n", k)
			}
			for _, k := range c.Empty {
				fmt.Fprintf(out, "      ~ %s\n", k)
			}
		}
	}
}

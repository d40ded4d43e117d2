package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/minios-linux/keyglot/dictionary"
	"github.com/minios-linux/keyglot/i18n"
)

func newCompressCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compress [dir...]",
		Short: i18n.T("Minify JSON dictionaries in place"),
		Long: `Rewrite every dir/*.json and dir/*/*.json file in its most compact form:
key order is kept, insignificant whitespace is dropped and non-ASCII
characters and slashes stay unescaped.

Without arguments the directories listed under "compress" in the config
file are processed (by default every target's output directory).

A file that is not valid JSON is reported and left untouched; the other
files are still compacted and the command exits with status 1.

Examples:
  keyglot compress
  keyglot compress public/locales resources/lang`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompress(cmd, args)
		},
	}
	return cmd
}

func runCompress(cmd *cobra.Command, args []string) error {
	p, err := loadProject()
	if err != nil {
		return err
	}

	dirs := args
	if len(dirs) == 0 {
		dirs = p.file.Compress
	}
	if len(dirs) == 0 {
		return errors.New(i18n.T("no directories to compress"))
	}

	out := cmd.OutOrStdout()
	total, failed := 0, 0
	for _, d := range dirs {
		dir := resolvePath(p.root, d)
		n, err := dictionary.CompactTree(p.fs, dir,
			func(path string, changed bool) {
				status := green("compacted")
				if !changed {
					status = "unchanged"
				}
				fmt.Fprintf(out, "  %s %s\n", relPath(p.root, path), status)
			},
			func(path string, err error) {
				failed++
				logError("%v", err)
			},
		)
		if err != nil {
			failed++
			logError("%v", err)
			continue
		}
		total += n
	}

	if failed > 0 {
		return fmt.Errorf(i18n.T("%d files compacted, %d failed"), total, failed)
	}
	logSuccess(i18n.N("%d file compacted", "%d files compacted", total), total)
	return nil
}

// relPath shortens path relative to root when possible.
func relPath(root, path string) string {
	if rel, err := filepath.Rel(root, path); err == nil {
		return rel
	}
	return path
}

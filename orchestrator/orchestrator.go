// Package orchestrator drives a translation run: for every locale it loads
// the existing dictionaries, resolves each extracted key (keep, identity or
// translate), calls the provider for the rest and saves the result.
//
// Locales are processed strictly one after another. The only state shared
// between them is the read-only extraction result.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/afero"

	"github.com/minios-linux/keyglot/dictionary"
	"github.com/minios-linux/keyglot/extract"
	"github.com/minios-linux/keyglot/locale"
	"github.com/minios-linux/keyglot/merge"
	"github.com/minios-linux/keyglot/translate"
)

// State is the phase a run is in.
type State int

const (
	Idle State = iota
	Extracting
	Loading
	Resolving
	Translating
	Saving
	Done
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Extracting:
		return "extracting"
	case Loading:
		return "loading"
	case Resolving:
		return "resolving"
	case Translating:
		return "translating"
	case Saving:
		return "saving"
	case Done:
		return "done"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// KeyEvent reports the resolution of one key.
type KeyEvent struct {
	Locale    string
	Namespace string
	Key       string
	Value     string
	Action    merge.Action
}

// Job describes one run.
type Job struct {
	// Extraction is the finished, read-only extraction result.
	Extraction *extract.Result
	Locales    locale.Registry
	OutputDir  string
	Layout     dictionary.Layout
	Profile    dictionary.Profile

	// Force re-translates keys that already have a value.
	Force bool
	// Prune drops keys no longer found in source. Always on for the flat
	// layout, and off when the extraction scanned no files.
	Prune bool
	// DryRun resolves keys without provider calls or writes.
	DryRun bool

	Translator translate.Translator
	FS         afero.Fs

	// OnState is called on every state transition; locale is empty outside
	// per-locale phases.
	OnState func(state State, locale string)
	// OnLocale is called when a locale starts, with the number of keys that
	// need a provider call.
	OnLocale func(locale string, pending int)
	// OnKey is called once per resolved key.
	OnKey func(KeyEvent)
	// OnLog receives notices (malformed dictionaries, failed locales).
	OnLog func(format string, args ...any)
}

func (j *Job) log(format string, args ...any) {
	if j.OnLog != nil {
		j.OnLog(format, args...)
	}
}

func (j *Job) state(s State, locale string) {
	if j.OnState != nil {
		j.OnState(s, locale)
	}
}

// FileReport summarizes one (locale, namespace) dictionary.
type FileReport struct {
	Locale     string
	Namespace  string
	Path       string
	Kept       int
	Identity   int
	Translated int
	Pruned     int
	// Saved is false for dry runs and abandoned locales.
	Saved bool
}

// Report is the outcome of a run.
type Report struct {
	Files []FileReport
	// Failed lists locales that were abandoned.
	Failed []string
}

// Totals sums the per-file counters.
func (r *Report) Totals() (kept, identity, translated int) {
	for _, f := range r.Files {
		kept += f.Kept
		identity += f.Identity
		translated += f.Translated
	}
	return kept, identity, translated
}

// unit is one dictionary file being brought up to date.
type unit struct {
	namespace string
	path      string
	keys      []string
	existing  *dictionary.Dictionary
	steps     []merge.Step
	resolved  map[string]string
}

// Run executes job. Failed locales do not stop the run; their errors are
// joined into the returned error. Cancellation stops the run before the
// in-flight locale is saved.
func Run(ctx context.Context, job Job) (*Report, error) {
	if job.Extraction == nil {
		return nil, errors.New("orchestrator: no extraction result")
	}
	if job.FS == nil {
		job.FS = afero.NewOsFs()
	}
	if job.Layout == "" {
		job.Layout = dictionary.Nested
	}
	if job.Profile == "" {
		job.Profile = dictionary.Pretty
	}
	if job.Layout == dictionary.Flat {
		job.Prune = true
	}
	if job.Prune && len(job.Extraction.Files) == 0 {
		// Nothing was scanned, so every key would look stale.
		job.log("no source files scanned; keeping existing keys in %s", job.OutputDir)
		job.Prune = false
	}
	if job.Translator == nil && !job.DryRun && len(job.Locales.Targets) > 0 {
		return nil, errors.New("orchestrator: no translator configured")
	}

	job.state(Idle, "")
	job.state(Extracting, "")

	report := &Report{}
	var errs []error
	for _, loc := range job.Locales.All() {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		files, err := runLocale(ctx, &job, loc)
		if err != nil {
			if ctx.Err() != nil {
				return report, ctx.Err()
			}
			job.log("%s: %v", loc, err)
			report.Failed = append(report.Failed, loc)
			errs = append(errs, fmt.Errorf("locale %s: %w", loc, err))
		}
		report.Files = append(report.Files, files...)
	}

	job.state(Done, "")
	return report, errors.Join(errs...)
}

// namespaces returns the namespaces to write for a nested layout: every
// extracted namespace plus the default one, sorted.
func namespaces(r *extract.Result) []string {
	names := r.NamespaceNames()
	for _, n := range names {
		if n == extract.DefaultNamespace {
			return names
		}
	}
	names = append(names, extract.DefaultNamespace)
	sort.Strings(names)
	return names
}

func units(job *Job, loc string) []*unit {
	if job.Layout == dictionary.Flat {
		return []*unit{{
			namespace: extract.DefaultNamespace,
			path:      job.Layout.Path(job.OutputDir, loc, ""),
			keys:      job.Extraction.AllKeys(),
		}}
	}
	var out []*unit
	for _, ns := range namespaces(job.Extraction) {
		out = append(out, &unit{
			namespace: ns,
			path:      job.Layout.Path(job.OutputDir, loc, ns),
			keys:      job.Extraction.Keys(ns),
		})
	}
	return out
}

func runLocale(ctx context.Context, job *Job, loc string) ([]FileReport, error) {
	us := units(job, loc)
	opts := merge.Options{
		Force:    job.Force,
		Identity: job.Locales.IsBase(loc),
		Prune:    job.Prune,
	}

	job.state(Loading, loc)
	for _, u := range us {
		d, err := dictionary.Load(job.FS, u.path)
		if err != nil {
			if !dictionary.IsMalformed(err) {
				return nil, err
			}
			job.log("%v; starting from an empty dictionary", err)
			d = dictionary.New()
		}
		u.existing = d
	}

	job.state(Resolving, loc)
	pending := 0
	for _, u := range us {
		u.steps = merge.Plan(u.existing, u.keys, opts)
		u.resolved = merge.Resolved(u.steps)
		pending += merge.Count(u.steps, merge.Translate)
	}
	if job.OnLocale != nil {
		job.OnLocale(loc, pending)
	}

	job.state(Translating, loc)
	for _, u := range us {
		for _, s := range u.steps {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if s.Action == merge.Translate && !job.DryRun {
				out, err := job.Translator.Translate(ctx, s.Key, locale.Canonical(loc), locale.Canonical(job.Locales.Base))
				if err != nil {
					return nil, fmt.Errorf("translating %q: %w", s.Key, err)
				}
				s.Value = out
				u.resolved[s.Key] = out
			}
			if job.OnKey != nil {
				job.OnKey(KeyEvent{Locale: loc, Namespace: u.namespace, Key: s.Key, Value: s.Value, Action: s.Action})
			}
		}
	}

	reports := make([]FileReport, 0, len(us))
	for _, u := range us {
		reports = append(reports, FileReport{
			Locale:     loc,
			Namespace:  u.namespace,
			Path:       u.path,
			Kept:       merge.Count(u.steps, merge.Keep),
			Identity:   merge.Count(u.steps, merge.Identity),
			Translated: merge.Count(u.steps, merge.Translate),
		})
	}
	if job.DryRun {
		for i, u := range us {
			if job.Prune {
				reports[i].Pruned = len(merge.Stale(u.existing, u.keys))
			}
		}
		return reports, nil
	}

	job.state(Saving, loc)
	for i, u := range us {
		merged, pruned := merge.Merge(u.existing, u.resolved, u.keys, opts)
		reports[i].Pruned = len(pruned)
		if err := dictionary.Save(job.FS, u.path, merged, job.Profile); err != nil {
			return reports, err
		}
		reports[i].Saved = true
	}
	return reports, nil
}

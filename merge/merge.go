// Package merge decides, key by key, how a locale's dictionary is brought
// up to date with the keys extracted from source, and applies the result.
package merge

import (
	"github.com/minios-linux/keyglot/dictionary"
)

// Action is what happens to one extracted key.
type Action int

const (
	// Keep carries over an existing non-empty value.
	Keep Action = iota
	// Identity uses the key itself (base locale).
	Identity
	// Translate asks the provider.
	Translate
)

func (a Action) String() string {
	switch a {
	case Keep:
		return "keep"
	case Identity:
		return "identity"
	case Translate:
		return "translate"
	}
	return "unknown"
}

// Options controls planning and merging.
type Options struct {
	// Force regenerates values that already exist.
	Force bool
	// Identity marks the base locale: every key maps to itself.
	Identity bool
	// Prune drops keys that are no longer extracted.
	Prune bool
}

// Step is the resolution of one key. Value is set for Keep and Identity.
type Step struct {
	Key    string
	Action Action
	Value  string
}

// Plan resolves each key in order:
//   - existing non-empty value and not forced: Keep
//   - base locale: Identity
//   - otherwise: Translate
func Plan(existing *dictionary.Dictionary, keys []string, opts Options) []Step {
	steps := make([]Step, 0, len(keys))
	for _, key := range keys {
		if v, ok := existing.Get(key); ok && v != "" && !opts.Force {
			steps = append(steps, Step{Key: key, Action: Keep, Value: v})
			continue
		}
		if opts.Identity {
			steps = append(steps, Step{Key: key, Action: Identity, Value: key})
			continue
		}
		steps = append(steps, Step{Key: key, Action: Translate})
	}
	return steps
}

// Count returns the number of steps with the given action.
func Count(steps []Step, a Action) int {
	n := 0
	for _, s := range steps {
		if s.Action == a {
			n++
		}
	}
	return n
}

// Stale returns keys present in existing but absent from keys, in file
// order.
func Stale(existing *dictionary.Dictionary, keys []string) []string {
	want := make(map[string]bool, len(keys))
	for _, k := range keys {
		want[k] = true
	}
	var stale []string
	for _, k := range existing.Keys() {
		if !want[k] {
			stale = append(stale, k)
		}
	}
	return stale
}

// Merge builds the dictionary to save. Existing entries keep their order,
// new keys are appended in the order given, and resolved values overwrite
// existing ones. With opts.Prune stale keys are removed and returned.
func Merge(existing *dictionary.Dictionary, resolved map[string]string, keys []string, opts Options) (*dictionary.Dictionary, []string) {
	result := existing.Clone()
	for _, key := range keys {
		if v, ok := resolved[key]; ok {
			result.Set(key, v)
		}
	}

	if !opts.Prune {
		return result, nil
	}
	pruned := Stale(existing, keys)
	for _, k := range pruned {
		result.Delete(k)
	}
	return result, pruned
}

// Resolved collects the values already known from a plan (Keep and
// Identity steps).
func Resolved(steps []Step) map[string]string {
	out := make(map[string]string, len(steps))
	for _, s := range steps {
		if s.Action != Translate {
			out[s.Key] = s.Value
		}
	}
	return out
}

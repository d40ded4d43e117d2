// Package dictionary implements reading and writing of flat JSON translation
// dictionaries, one file per (namespace, locale):
//
//	{
//	    "Submit": "Envoyer",
//	    "invoice.due": "Échéance"
//	}
//
// Keys are the literal strings found in source code. Values are plain
// strings; an empty value means the key has not been translated yet.
// Key order from the file is preserved across load and save.
package dictionary

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// ErrMalformed is returned when an existing dictionary file is not a valid
// JSON object of strings.
var ErrMalformed = errors.New("malformed dictionary")

// ErrWrite is returned when a dictionary cannot be written to disk.
var ErrWrite = errors.New("dictionary write failed")

// Profile selects the serialization format used by Save.
type Profile string

const (
	// Pretty is the multi-line, 4-space indented format used for
	// human-maintained dictionaries.
	Pretty Profile = "pretty"
	// Compact is the single-line format used for machine-consumed
	// dictionaries (front-end bundles). Always emits an object.
	Compact Profile = "compact"
)

// ParseProfile validates a profile name.
func ParseProfile(s string) (Profile, error) {
	switch Profile(strings.ToLower(strings.TrimSpace(s))) {
	case Pretty:
		return Pretty, nil
	case Compact:
		return Compact, nil
	}
	return "", fmt.Errorf("unknown output profile %q (valid: pretty, compact)", s)
}

// Dictionary is an ordered key -> translation mapping.
type Dictionary struct {
	keys   []string
	values map[string]string
}

// New returns an empty dictionary.
func New() *Dictionary {
	return &Dictionary{values: make(map[string]string)}
}

// FromMap builds a dictionary from a map. Keys are inserted in sorted order.
func FromMap(m map[string]string) *Dictionary {
	d := New()
	for _, k := range sortedKeys(m) {
		d.Set(k, m[k])
	}
	return d
}

// Get returns the value for key and whether the key is present.
func (d *Dictionary) Get(key string) (string, bool) {
	v, ok := d.values[key]
	return v, ok
}

// Set stores value under key. New keys are appended after existing ones.
func (d *Dictionary) Set(key, value string) {
	if _, ok := d.values[key]; !ok {
		d.keys = append(d.keys, key)
	}
	d.values[key] = value
}

// Delete removes key if present.
func (d *Dictionary) Delete(key string) {
	if _, ok := d.values[key]; !ok {
		return
	}
	delete(d.values, key)
	for i, k := range d.keys {
		if k == key {
			d.keys = append(d.keys[:i], d.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the keys in insertion (file) order.
func (d *Dictionary) Keys() []string {
	out := make([]string, len(d.keys))
	copy(out, d.keys)
	return out
}

// Len returns the number of entries.
func (d *Dictionary) Len() int {
	return len(d.keys)
}

// Map returns a copy of the entries as a plain map.
func (d *Dictionary) Map() map[string]string {
	out := make(map[string]string, len(d.values))
	for k, v := range d.values {
		out[k] = v
	}
	return out
}

// Clone returns a deep copy.
func (d *Dictionary) Clone() *Dictionary {
	c := New()
	for _, k := range d.keys {
		c.Set(k, d.values[k])
	}
	return c
}

// Stats returns (total, translated, empty) counts.
func (d *Dictionary) Stats() (total, translated, empty int) {
	total = len(d.keys)
	for _, v := range d.values {
		if v != "" {
			translated++
		} else {
			empty++
		}
	}
	return
}

// ---------------------------------------------------------------------------
// Parsing
// ---------------------------------------------------------------------------

// Parse decodes a JSON object of strings, preserving key order.
// Errors wrap ErrMalformed.
func Parse(data []byte) (*Dictionary, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	t, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if delim, ok := t.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("%w: expected JSON object, got %v", ErrMalformed, t)
	}

	d := New()
	for dec.More() {
		kt, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		key, ok := kt.(string)
		if !ok {
			return nil, fmt.Errorf("%w: expected string key, got %T", ErrMalformed, kt)
		}

		vt, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		value, ok := vt.(string)
		if !ok {
			return nil, fmt.Errorf("%w: value for key %q is not a string", ErrMalformed, key)
		}
		d.Set(key, value)
	}

	// Closing brace, then nothing but whitespace.
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if _, err := dec.Token(); err == nil {
		return nil, fmt.Errorf("%w: trailing data after object", ErrMalformed)
	}

	return d, nil
}

// Load reads a dictionary file. A missing file yields an empty dictionary.
// A file that exists but does not parse returns an error wrapping
// ErrMalformed.
func Load(fsys afero.Fs, path string) (*Dictionary, error) {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return New(), nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	d, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return d, nil
}

// ---------------------------------------------------------------------------
// Serialization
// ---------------------------------------------------------------------------

// Marshal serializes the dictionary using the given profile.
func (d *Dictionary) Marshal(p Profile) ([]byte, error) {
	var b bytes.Buffer

	if p == Compact {
		b.WriteByte('{')
		for i, k := range d.keys {
			if i > 0 {
				b.WriteByte(',')
			}
			if err := writeString(&b, k); err != nil {
				return nil, err
			}
			b.WriteByte(':')
			if err := writeString(&b, d.values[k]); err != nil {
				return nil, err
			}
		}
		b.WriteByte('}')
		return b.Bytes(), nil
	}

	if len(d.keys) == 0 {
		return []byte("{}\n"), nil
	}

	b.WriteString("{\n")
	for i, k := range d.keys {
		b.WriteString("    ")
		if err := writeString(&b, k); err != nil {
			return nil, err
		}
		b.WriteString(": ")
		if err := writeString(&b, d.values[k]); err != nil {
			return nil, err
		}
		if i < len(d.keys)-1 {
			b.WriteByte(',')
		}
		b.WriteByte('\n')
	}
	b.WriteString("}\n")

	return b.Bytes(), nil
}

// Save writes the dictionary to path, creating parent directories.
// Errors wrap ErrWrite.
func Save(fsys afero.Fs, path string, d *Dictionary, p Profile) error {
	data, err := d.Marshal(p)
	if err != nil {
		return fmt.Errorf("%w: encoding %s: %v", ErrWrite, path, err)
	}

	if err := fsys.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("%w: creating directory for %s: %v", ErrWrite, path, err)
	}
	if err := afero.WriteFile(fsys, path, data, 0644); err != nil {
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}
	return nil
}

// writeString appends s as a JSON string literal. Non-ASCII characters,
// slashes and HTML-sensitive characters are written as is.
func writeString(b *bytes.Buffer, s string) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	b.Write(bytes.TrimSuffix(tmp.Bytes(), []byte("\n")))
	return nil
}

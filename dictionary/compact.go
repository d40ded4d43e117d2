package dictionary

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
)

// Layout selects how dictionaries are arranged under an output directory.
type Layout string

const (
	// Nested stores one file per namespace: {root}/{locale}/{namespace}.json.
	Nested Layout = "nested"
	// Flat stores one file per locale: {root}/{locale}.json.
	Flat Layout = "flat"
)

// ParseLayout validates a layout name.
func ParseLayout(s string) (Layout, error) {
	switch Layout(strings.ToLower(strings.TrimSpace(s))) {
	case Nested:
		return Nested, nil
	case Flat:
		return Flat, nil
	}
	return "", fmt.Errorf("unknown output layout %q (valid: nested, flat)", s)
}

// Path returns the dictionary file path for a locale and namespace.
// The namespace is ignored for the flat layout.
func (l Layout) Path(root, locale, namespace string) string {
	if l == Flat {
		return filepath.Join(root, locale+".json")
	}
	return filepath.Join(root, locale, namespace+".json")
}

// CompactBytes re-emits arbitrary JSON without insignificant whitespace.
// Object member order and number text are preserved. Invalid input
// returns an error wrapping ErrMalformed.
func CompactBytes(data []byte) ([]byte, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var out bytes.Buffer
	if err := compactValue(dec, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("%w: trailing data after value", ErrMalformed)
	}
	return out.Bytes(), nil
}

// compactValue copies one JSON value from dec to out.
func compactValue(dec *json.Decoder, out *bytes.Buffer) error {
	t, err := dec.Token()
	if err != nil {
		return err
	}

	switch v := t.(type) {
	case json.Delim:
		switch v {
		case '{':
			out.WriteByte('{')
			first := true
			for dec.More() {
				if !first {
					out.WriteByte(',')
				}
				first = false
				kt, err := dec.Token()
				if err != nil {
					return err
				}
				key, ok := kt.(string)
				if !ok {
					return fmt.Errorf("expected object key, got %v", kt)
				}
				if err := writeString(out, key); err != nil {
					return err
				}
				out.WriteByte(':')
				if err := compactValue(dec, out); err != nil {
					return err
				}
			}
			if _, err := dec.Token(); err != nil {
				return err
			}
			out.WriteByte('}')
		case '[':
			out.WriteByte('[')
			first := true
			for dec.More() {
				if !first {
					out.WriteByte(',')
				}
				first = false
				if err := compactValue(dec, out); err != nil {
					return err
				}
			}
			if _, err := dec.Token(); err != nil {
				return err
			}
			out.WriteByte(']')
		default:
			return fmt.Errorf("unexpected delimiter %v", v)
		}
	case string:
		return writeString(out, v)
	case json.Number:
		out.WriteString(v.String())
	case bool:
		if v {
			out.WriteString("true")
		} else {
			out.WriteString("false")
		}
	case nil:
		out.WriteString("null")
	default:
		return fmt.Errorf("unexpected token %v", t)
	}
	return nil
}

// CompactFile rewrites the JSON file at path in compact form. The file is only
// written when its bytes change. Malformed files are left untouched and an
// error wrapping ErrMalformed is returned.
func CompactFile(fsys afero.Fs, path string) (changed bool, err error) {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return false, fmt.Errorf("reading %s: %w", path, err)
	}
	out, err := CompactBytes(data)
	if err != nil {
		return false, fmt.Errorf("%s: %w", path, err)
	}
	if bytes.Equal(out, data) {
		return false, nil
	}

	info, err := fsys.Stat(path)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrWrite, err)
	}
	if err := afero.WriteFile(fsys, path, out, info.Mode().Perm()); err != nil {
		return false, fmt.Errorf("%w: %v", ErrWrite, err)
	}
	return true, nil
}

// CompactTree compacts dir/*.json and dir/*/*.json. onFile is called for
// each file processed (changed reports whether it was rewritten); onError
// is called for each file that failed, and the walk continues. Returns the
// number of files compacted successfully and an error only when dir
// itself cannot be listed.
func CompactTree(fsys afero.Fs, dir string, onFile func(path string, changed bool), onError func(path string, err error)) (int, error) {
	files, err := jsonFiles(fsys, dir)
	if err != nil {
		return 0, err
	}

	n := 0
	for _, path := range files {
		changed, err := CompactFile(fsys, path)
		if err != nil {
			if onError != nil {
				onError(path, err)
			}
			continue
		}
		n++
		if onFile != nil {
			onFile(path, changed)
		}
	}
	return n, nil
}

// jsonFiles lists dir/*.json and dir/*/*.json in sorted order.
func jsonFiles(fsys afero.Fs, dir string) ([]string, error) {
	entries, err := afero.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("reading directory %s: %w", dir, err)
	}

	var files []string
	for _, e := range entries {
		p := filepath.Join(dir, e.Name())
		if !e.IsDir() {
			if strings.HasSuffix(e.Name(), ".json") {
				files = append(files, p)
			}
			continue
		}
		sub, err := afero.ReadDir(fsys, p)
		if err != nil {
			continue
		}
		for _, se := range sub {
			if !se.IsDir() && strings.HasSuffix(se.Name(), ".json") {
				files = append(files, filepath.Join(p, se.Name()))
			}
		}
	}
	sort.Strings(files)
	return files, nil
}

// IsMalformed reports whether err was caused by an unparseable dictionary.
func IsMalformed(err error) bool {
	return errors.Is(err, ErrMalformed)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

package oggopus

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.senan.xyz/taglib"
)

// ReadTags returns the comments of the Opus file at path grouped by
// lower-cased key.
func ReadTags(path string) (map[string][]string, error) {
	props, err := taglib.ReadTags(path)
	if err != nil {
		return nil, fmt.Errorf("read tags from %s: %w", path, err)
	}
	return lowerKeys(props), nil
}

// WriteTags replaces the comments of the Opus file at path with fields. Keys
// are matched case-insensitively; a key present in fields replaces every
// existing comment with that key while other comments and the vendor string
// are kept. The returned error, when non-nil, is a *TagWriteError.
func WriteTags(path string, fields map[string][]string) error {
	src, err := os.Open(path)
	if err != nil {
		return tagError(KindOpen, path, err)
	}
	defer src.Close()

	info, err := src.Stat()
	if err != nil {
		return tagError(KindOpen, path, err)
	}
	if !info.Mode().IsRegular() {
		return tagError(KindOpen, path, errors.New("not a regular file"))
	}

	// TagLib picks its parser from the extension, so the copy keeps it.
	pattern := "." + filepath.Base(path) + ".tags-*" + filepath.Ext(path)
	tmp, err := os.CreateTemp(filepath.Dir(path), pattern)
	if err != nil {
		return tagError(KindPersist, path, err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := io.Copy(tmp, src); err != nil {
		_ = tmp.Close()
		return tagError(KindPersist, path, err)
	}
	if err := tmp.Chmod(info.Mode().Perm()); err != nil {
		_ = tmp.Close()
		return tagError(KindPersist, path, err)
	}
	if err := tmp.Close(); err != nil {
		return tagError(KindPersist, path, err)
	}

	if _, err := taglib.ReadTags(tmpPath); err != nil {
		return tagError(KindParse, path, err)
	}
	updates := upperKeys(fields)
	if len(updates) == 0 {
		return nil
	}
	if err := taglib.WriteTags(tmpPath, updates, 0); err != nil {
		return tagError(KindPersist, path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return tagError(KindPersist, path, err)
	}
	committed = true
	return nil
}

// upperKeys folds fields onto TagLib's upper-case property names, merging
// keys that differ only in case and dropping keys without values.
func upperKeys(fields map[string][]string) map[string][]string {
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	out := make(map[string][]string, len(fields))
	for _, key := range keys {
		values := fields[key]
		if len(values) == 0 {
			continue
		}
		upper := strings.ToUpper(key)
		out[upper] = append(out[upper], values...)
	}
	return out
}

func lowerKeys(props map[string][]string) map[string][]string {
	out := make(map[string][]string, len(props))
	for key, values := range props {
		lower := strings.ToLower(key)
		out[lower] = append(out[lower], values...)
	}
	return out
}

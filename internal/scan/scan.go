// Package scan expands command-line paths into the source files of a run.
package scan

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"dir2opus/internal/media/audio"
	"dir2opus/internal/services"
)

// Source is one discovered input file.
type Source struct {
	Path   string
	Format audio.Format
}

// Options controls discovery.
type Options struct {
	Recursive bool
	// Formats limits discovery to these formats. Empty accepts every format.
	Formats []audio.Format
}

// Result lists discovered sources in processing order plus explicitly named
// files that were passed over.
type Result struct {
	Sources []Source
	Ignored []string
}

// Discover walks paths. Directories contribute the supported files they
// contain (descending only when Recursive is set); files named directly are
// accepted when their format is enabled. A path that does not exist is a
// validation error: it means the arguments are unusable.
func Discover(paths []string, opts Options) (Result, error) {
	enabled := make(map[audio.Format]bool, len(opts.Formats))
	for _, f := range opts.Formats {
		enabled[f] = true
	}
	accept := func(path string) (audio.Format, bool) {
		f, ok := audio.Detect(path)
		if !ok {
			return "", false
		}
		if len(enabled) > 0 && !enabled[f] {
			return "", false
		}
		return f, true
	}

	var res Result
	seen := make(map[string]struct{})
	add := func(path string, f audio.Format) {
		abs, err := filepath.Abs(path)
		if err != nil {
			abs = filepath.Clean(path)
		}
		if _, dup := seen[abs]; dup {
			return
		}
		seen[abs] = struct{}{}
		res.Sources = append(res.Sources, Source{Path: abs, Format: f})
	}

	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return Result{}, services.Wrap(services.ErrValidation, "scan", "stat input", root, err)
		}
		if !info.IsDir() {
			if f, ok := accept(root); ok {
				add(root, f)
			} else {
				res.Ignored = append(res.Ignored, root)
			}
			continue
		}
		found, err := walk(root, opts.Recursive, accept)
		if err != nil {
			return Result{}, services.Wrap(services.ErrValidation, "scan", "walk directory", root, err)
		}
		for _, src := range found {
			add(src.Path, src.Format)
		}
	}
	return res, nil
}

func walk(root string, recursive bool, accept func(string) (audio.Format, bool)) ([]Source, error) {
	var out []Source
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrPermission) && path != root {
				return fs.SkipDir
			}
			return err
		}
		if d.IsDir() {
			if path != root && !recursive {
				return fs.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if f, ok := accept(path); ok {
			out = append(out, Source{Path: path, Format: f})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	// WalkDir is lexical already; the sort keeps the order stable if that
	// ever changes.
	sort.SliceStable(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

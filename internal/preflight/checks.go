package preflight

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"golang.org/x/sys/unix"

	"dir2opus/internal/config"
	"dir2opus/internal/deps"
	"dir2opus/internal/media/audio"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// Requirements lists opusenc plus the configured decoder for each format that
// needs one. With no formats, every enabled format is considered; decoders
// needed only by formats outside the list are reported as optional.
func Requirements(cfg *config.Config, formats []audio.Format) []deps.Requirement {
	needed := make(map[audio.Format]bool, len(formats))
	for _, f := range formats {
		needed[f] = true
	}
	all := len(needed) == 0

	reqs := []deps.Requirement{{
		Name:        "opusenc",
		Command:     cfg.EncoderBinary(),
		Description: "Required for encoding",
	}}

	byDecoder := make(map[string][]string)
	required := make(map[string]bool)
	for _, f := range cfg.EnabledFormats() {
		id := cfg.DecoderFor(f)
		if id == "" {
			continue
		}
		byDecoder[id] = append(byDecoder[id], f.String())
		if all || needed[f] {
			required[id] = true
		}
	}
	ids := make([]string, 0, len(byDecoder))
	for id := range byDecoder {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		reqs = append(reqs, deps.Requirement{
			Name:        id,
			Command:     cfg.BinaryFor(id),
			Description: "Decodes " + strings.Join(byDecoder[id], ", "),
			Optional:    !required[id],
		})
	}
	return reqs
}

// CheckSystemDeps evaluates the external tools needed for the given formats.
// Both the convert and deps commands use this to avoid duplicating the
// requirements list.
func CheckSystemDeps(cfg *config.Config, formats []audio.Format) []deps.Status {
	if cfg == nil {
		return nil
	}
	return deps.CheckBinaries(Requirements(cfg, formats))
}

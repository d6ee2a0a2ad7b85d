package preflight

import (
	"fmt"
	"sort"
	"strings"

	"dir2opus/internal/config"
	"dir2opus/internal/deps"
	"dir2opus/internal/media/audio"
	"dir2opus/internal/services"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll checks the state directory and every directory that will receive
// output files.
func RunAll(cfg *config.Config, outputDirs []string) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result
	results = append(results, CheckDirectoryAccess("State directory", cfg.Paths.StateDir))

	dirs := append([]string(nil), outputDirs...)
	sort.Strings(dirs)
	seen := make(map[string]struct{}, len(dirs))
	for _, dir := range dirs {
		if _, ok := seen[dir]; ok {
			continue
		}
		seen[dir] = struct{}{}
		results = append(results, CheckDirectoryAccess("Output directory", dir))
	}
	return results
}

// Verify runs every check needed before converting sources of the given
// formats into outputDirs. Any failure is a configuration error.
func Verify(cfg *config.Config, formats []audio.Format, outputDirs []string) error {
	var problems []string
	for _, status := range deps.Missing(CheckSystemDeps(cfg, formats)) {
		problems = append(problems, fmt.Sprintf("%s: %s", status.Name, status.Detail))
	}
	for _, result := range RunAll(cfg, outputDirs) {
		if !result.Passed {
			problems = append(problems, fmt.Sprintf("%s: %s", result.Name, result.Detail))
		}
	}
	if len(problems) == 0 {
		return nil
	}
	return services.Wrap(services.ErrConfiguration, "preflight", "verify", strings.Join(problems, "; "), nil)
}

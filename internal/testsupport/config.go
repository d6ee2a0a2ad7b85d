package testsupport

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"dir2opus/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Encoder.Quiet = true

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithStub writes a shell script named name under the config's bin directory
// and points the config at it: the encoder binary for "opusenc", otherwise the
// [binaries] override for that decoder.
func WithStub(name, body string) ConfigOption {
	return func(b *configBuilder) {
		path := WriteStub(b.t, filepath.Join(b.baseDir, "bin"), name, body)
		if name == "opusenc" {
			b.cfg.Encoder.Binary = path
			return
		}
		if b.cfg.Binaries == nil {
			b.cfg.Binaries = map[string]string{}
		}
		b.cfg.Binaries[name] = path
	}
}

// WithDecoder selects the decoder for a format.
func WithDecoder(format, id string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Decoders[format] = id
	}
}

// WithStubbedBinaries writes no-op stub executables for the provided names and
// prepends them to PATH. If names is empty, opusenc and the default decoders
// are stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"opusenc", "mpg123", "faad", "flac", "oggdec", "mac", "mpcdec", "wvunpack", "mplayer"}
		}
		binDir := filepath.Join(b.baseDir, "path-bin")
		for _, name := range names {
			WriteStub(b.t, binDir, name, "exit 0\n")
		}

		oldPath := os.Getenv("PATH")
		if err := os.Setenv("PATH", binDir+string(os.PathListSeparator)+oldPath); err != nil {
			b.t.Fatalf("set PATH: %v", err)
		}
		b.t.Cleanup(func() {
			_ = os.Setenv("PATH", oldPath)
		})
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}

// WriteStub writes an executable shell script named name into dir and returns
// its path. body is appended after the shebang line.
func WriteStub(t testing.TB, dir, name, body string) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir bin dir: %v", err)
	}
	target := filepath.Join(dir, name)
	if err := os.WriteFile(target, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatalf("write stub %s: %v", name, err)
	}
	return target
}

// OpusencScript returns a stub opusenc body. It appends its arguments to
// argLog, saves piped input next to the output as "<out>.stdin", requires a
// file input to exist, and copies fixture to the output path.
func OpusencScript(fixture, argLog string) string {
	return fmt.Sprintf(`echo "$*" >> '%s'
in=""
out=""
for a in "$@"; do in="$out"; out="$a"; done
if [ "$in" = "-" ]; then
	cat > "$out.stdin"
elif [ ! -f "$in" ]; then
	echo "opusenc: cannot open $in" >&2
	exit 9
fi
cp '%s' "$out"
`, argLog, fixture)
}

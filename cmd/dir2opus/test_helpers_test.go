package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"dir2opus/internal/config"
	"dir2opus/internal/testsupport"
)

const mpg123Stub = `case "$4" in
*bad*) echo "mpg123: cannot sync" >&2; exit 1 ;;
esac
printf 'PCMDATA' > "$3"
`

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	musicDir   string
	argLog     string
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)

	fixture := filepath.Join(base, "fixture.opus")
	testsupport.WriteOpus(t, fixture, "ENCODER=opusenc stub")
	argLog := filepath.Join(base, "opusenc.args")

	stubs := []testsupport.ConfigOption{
		testsupport.WithStub("opusenc", testsupport.OpusencScript(fixture, argLog)),
		testsupport.WithStub("mpg123", mpg123Stub),
	}
	cfg := testsupport.NewConfig(t, append(stubs, opts...)...)

	configPath := filepath.Join(homeDir, ".config", "dir2opus", "config.toml")
	writeTestConfig(t, configPath, cfg)

	musicDir := filepath.Join(base, "music")
	if err := os.MkdirAll(musicDir, 0o755); err != nil {
		t.Fatalf("mkdir music: %v", err)
	}

	return &cliTestEnv{
		cfg:        cfg,
		configPath: configPath,
		musicDir:   musicDir,
		argLog:     argLog,
	}
}

func (e *cliTestEnv) path(name string) string {
	return filepath.Join(e.musicDir, name)
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func requireNotContains(t *testing.T, output, substr string) {
	t.Helper()
	if strings.Contains(output, substr) {
		t.Fatalf("expected %q not to contain %q", output, substr)
	}
}

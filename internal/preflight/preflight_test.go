package preflight

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"dir2opus/internal/media/audio"
	"dir2opus/internal/services"
	"dir2opus/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestRequirementsMarkUnusedDecodersOptional(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithDecoder("wma", "mplayer"))
	cfg.Conversion.Formats = []string{"mp3", "flac", "wma", "wav"}

	reqs := Requirements(cfg, []audio.Format{audio.FormatMP3})
	got := map[string]bool{}
	for _, req := range reqs {
		got[req.Name] = req.Optional
	}
	want := map[string]bool{"opusenc": false, "mpg123": false, "flac": true, "mplayer": true}
	if len(got) != len(want) {
		t.Fatalf("requirements = %v want %v", got, want)
	}
	for name, optional := range want {
		if opt, ok := got[name]; !ok || opt != optional {
			t.Fatalf("requirement %s: optional=%v present=%v (want optional=%v)", name, opt, ok, optional)
		}
	}
}

func TestRequirementsUseBinaryOverrides(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStub("flac", "exit 0\n"))
	cfg.Conversion.Formats = []string{"flac"}

	reqs := Requirements(cfg, nil)
	if len(reqs) != 2 {
		t.Fatalf("expected opusenc and flac, got %+v", reqs)
	}
	if reqs[1].Command != filepath.Join(testsupport.BaseDir(cfg), "bin", "flac") || reqs[1].Optional {
		t.Fatalf("unexpected flac requirement %+v", reqs[1])
	}
}

func TestVerifyReportsMissingTools(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Encoder.Binary = filepath.Join(t.TempDir(), "no-opusenc")
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}

	err := Verify(cfg, []audio.Format{audio.FormatWAV}, []string{t.TempDir()})
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if !strings.Contains(err.Error(), "opusenc") {
		t.Fatalf("error should name the missing tool: %v", err)
	}
}

func TestVerifyPassesWithStubbedTools(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	out := t.TempDir()
	if err := Verify(cfg, []audio.Format{audio.FormatMP3, audio.FormatFLAC}, []string{out, out}); err != nil {
		t.Fatalf("Verify: %v", err)
	}
}

func TestVerifyRejectsMissingOutputDirectory(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	err := Verify(cfg, []audio.Format{audio.FormatWAV}, []string{filepath.Join(t.TempDir(), "gone")})
	if err == nil || !strings.Contains(err.Error(), "does not exist") {
		t.Fatalf("expected missing directory failure, got %v", err)
	}
}

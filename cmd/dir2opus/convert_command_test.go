package main

import (
	"errors"
	"os"
	"strings"
	"testing"

	"dir2opus/internal/services"
	"dir2opus/internal/testsupport"
)

func TestConvertCommandContinuesPastFailedJob(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.WriteMP3(t, env.path("bad.mp3"), map[string]string{"TIT2": "Bad"})
	testsupport.WriteMP3(t, env.path("track.mp3"), map[string]string{"TPE1": "A", "TIT2": "T"})
	testsupport.WriteWAV(t, env.path("voice.wav"), 64)

	out, _, err := runCLI(t, []string{"convert", env.musicDir}, env.configPath)
	if err != nil {
		t.Fatalf("per-job failures must not fail the command: %v", err)
	}
	requireContains(t, out, "bad.mp3")
	requireContains(t, out, "Decode Failed")
	requireContains(t, out, "passthrough")
	requireContains(t, out, "2 done, 0 skipped, 1 failed")

	if fileExists(env.path("bad.opus")) {
		t.Fatal("failed job left an output behind")
	}
	for _, name := range []string{"track.opus", "voice.opus"} {
		if !fileExists(env.path(name)) {
			t.Fatalf("expected %s", name)
		}
	}

	history, _, err := runCLI(t, []string{"history", "--failed"}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, history, "bad.mp3")
	requireNotContains(t, history, "track.mp3")

	tagsOut, _, err := runCLI(t, []string{"tags", env.path("track.opus")}, "")
	if err != nil {
		t.Fatalf("tags: %v", err)
	}
	requireContains(t, tagsOut, "artist")
	requireContains(t, tagsOut, "opusenc stub")
}

func TestConvertCommandFlagsOverrideConfig(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.WriteMP3(t, env.path("track.mp3"), nil)

	_, _, err := runCLI(t, []string{"convert", "--bitrate", "96", "--quality", "5", "--no-pipe", env.path("track.mp3")}, env.configPath)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	data, err := os.ReadFile(env.argLog)
	if err != nil {
		t.Fatalf("read opusenc args: %v", err)
	}
	want := "--quiet --bitrate 96 --comp 5 " + env.path("track.wav") + " " + env.path("track.opus")
	if got := strings.TrimSpace(string(data)); got != want {
		t.Fatalf("opusenc args = %q want %q", got, want)
	}
	if fileExists(env.path("track.wav")) {
		t.Fatal("intermediate should be removed after a successful encode")
	}
}

func TestConvertCommandRejectsInvalidOptions(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.WriteMP3(t, env.path("track.mp3"), nil)

	cases := []struct {
		args []string
		want string
	}{
		{[]string{"--decoder", "mp3=faad"}, "cannot read mp3"},
		{[]string{"--decoder", "mp3=sox"}, "unsupported decoder"},
		{[]string{"--decoder", "mp3"}, "expected fmt=id"},
		{[]string{"--quality", "11"}, "encoder.quality"},
	}
	for _, tc := range cases {
		args := append([]string{"convert"}, tc.args...)
		args = append(args, env.musicDir)
		_, _, err := runCLI(t, args, env.configPath)
		if err == nil || !strings.Contains(err.Error(), tc.want) {
			t.Fatalf("%v: expected error containing %q, got %v", tc.args, tc.want, err)
		}
	}
	if fileExists(env.path("track.opus")) {
		t.Fatal("no job may run after a configuration error")
	}
}

func TestConvertCommandFailsPreflightWithoutEncoder(t *testing.T) {
	env := setupCLITestEnv(t)
	env.cfg.Encoder.Binary = env.path("missing-opusenc")
	writeTestConfig(t, env.configPath, env.cfg)
	testsupport.WriteMP3(t, env.path("track.mp3"), nil)

	_, _, err := runCLI(t, []string{"convert", env.musicDir}, env.configPath)
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	requireContains(t, err.Error(), "opusenc")
}

func TestConvertCommandNoSources(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.WriteFile(t, env.path("notes.txt"), 16)

	out, _, err := runCLI(t, []string{"convert", env.musicDir}, env.configPath)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	requireContains(t, out, "No audio files found")
}

func TestParseDecoderFlag(t *testing.T) {
	format, id, err := parseDecoderFlag("FLAC= MPlayer ")
	if err != nil {
		t.Fatalf("parseDecoderFlag: %v", err)
	}
	if format.String() != "flac" || id != "mplayer" {
		t.Fatalf("got %s=%s", format, id)
	}
	if _, _, err := parseDecoderFlag("wav=mpg123"); err == nil {
		t.Fatal("wav takes no decoder")
	}
}

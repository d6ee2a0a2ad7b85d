package convert_test

import (
	"errors"
	"testing"

	"dir2opus/internal/config"
	"dir2opus/internal/convert"
	"dir2opus/internal/media/audio"
	"dir2opus/internal/scan"
	"dir2opus/internal/testsupport"
)

func TestOptionsForResolvesPerFormatBitrate(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Encoder.Bitrate = 128
	cfg.Encoder.Quality = 7
	cfg.Encoder.FormatBitrate = map[string]int{"mp3": 96}

	mp3 := convert.OptionsFor(cfg, audio.FormatMP3)
	flac := convert.OptionsFor(cfg, audio.FormatFLAC)
	if mp3.Encode.Bitrate != 96 || flac.Encode.Bitrate != 128 {
		t.Fatalf("bitrates mp3=%d flac=%d", mp3.Encode.Bitrate, flac.Encode.Bitrate)
	}
	if mp3.Encode.Quality != 7 || flac.Encode.Quality != 7 {
		t.Fatal("quality should be shared")
	}
	if cfg.Encoder.Bitrate != 128 {
		t.Fatal("deriving options must not touch the config")
	}
}

func TestNewJobDerivesSiblingPaths(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithDecoder("mp3", "lame"))
	cfg.Binaries = map[string]string{"lame": "/opt/lame/bin/lame"}

	job := convert.NewJob(cfg, scan.Source{Path: "/music/Album/01 Intro.mp3", Format: audio.FormatMP3})
	if job.WAVPath != "/music/Album/01 Intro.wav" || job.Output != "/music/Album/01 Intro.opus" {
		t.Fatalf("unexpected paths wav=%q out=%q", job.WAVPath, job.Output)
	}
	if job.Decoder != "lame" || job.DecoderBinary != "/opt/lame/bin/lame" {
		t.Fatalf("unexpected decoder %q (%q)", job.Decoder, job.DecoderBinary)
	}
	if job.State() != convert.StatePending {
		t.Fatalf("state = %s", job.State())
	}

	wav := convert.NewJob(cfg, scan.Source{Path: "/music/voice.wav", Format: audio.FormatWAV})
	if wav.Decoder != "" || wav.DecoderBinary != "" {
		t.Fatalf("wav jobs need no decoder, got %q", wav.Decoder)
	}
}

func TestNewJobsKeepsOrder(t *testing.T) {
	cfg := config.Default()
	jobs := convert.NewJobs(&cfg, []scan.Source{
		{Path: "/b.flac", Format: audio.FormatFLAC},
		{Path: "/a.mp3", Format: audio.FormatMP3},
	})
	if len(jobs) != 2 || jobs[0].Source != "/b.flac" || jobs[1].Source != "/a.mp3" {
		t.Fatalf("unexpected jobs %+v", jobs)
	}
}

func TestNewJobsFlagsPathConflicts(t *testing.T) {
	cfg := config.Default()
	jobs := convert.NewJobs(&cfg, []scan.Source{
		{Path: "/m/song.mp3", Format: audio.FormatMP3},
		{Path: "/m/song.wav", Format: audio.FormatWAV},
		{Path: "/m/other.flac", Format: audio.FormatFLAC},
		{Path: "/m/other.mp3", Format: audio.FormatMP3},
		{Path: "/n/other.mp3", Format: audio.FormatMP3},
	})

	wantConflict := map[string]bool{
		"/m/song.mp3":   true,
		"/m/song.wav":   false,
		"/m/other.flac": false,
		"/m/other.mp3":  true,
		"/n/other.mp3":  false,
	}
	for _, job := range jobs {
		err := job.Conflict()
		if got := err != nil; got != wantConflict[job.Source] {
			t.Fatalf("%s: conflict = %v", job.Source, err)
		}
		if err != nil && !errors.Is(err, convert.ErrPathConflict) {
			t.Fatalf("%s: expected ErrPathConflict, got %v", job.Source, err)
		}
	}
}

func TestStateMachine(t *testing.T) {
	allowed := []struct{ from, to convert.State }{
		{convert.StatePending, convert.StateDecoding},
		{convert.StatePending, convert.StateSkipped},
		{convert.StateDecoding, convert.StateEncoding},
		{convert.StateDecoding, convert.StateDecodeFailed},
		{convert.StateEncoding, convert.StateTagging},
		{convert.StateEncoding, convert.StateEncodeFailed},
		{convert.StateEncoding, convert.StateDecodeFailed},
		{convert.StateTagging, convert.StateDone},
		{convert.StateTagging, convert.StateTagFailed},
	}
	for _, tc := range allowed {
		if !tc.from.CanTransition(tc.to) {
			t.Fatalf("%s -> %s should be allowed", tc.from, tc.to)
		}
	}
	for _, tc := range []struct{ from, to convert.State }{
		{convert.StatePending, convert.StateEncoding},
		{convert.StateDecodeFailed, convert.StateEncoding},
		{convert.StateDone, convert.StateTagging},
		{convert.StateTagging, convert.StateEncodeFailed},
	} {
		if tc.from.CanTransition(tc.to) {
			t.Fatalf("%s -> %s should be rejected", tc.from, tc.to)
		}
	}

	for _, state := range convert.TerminalStates() {
		if !state.Terminal() {
			t.Fatalf("%s should be terminal", state)
		}
	}
	for _, state := range []convert.State{convert.StateDone, convert.StateTagFailed} {
		if !state.AllowsInputDeletion() {
			t.Fatalf("%s should allow input deletion", state)
		}
	}
	for _, state := range []convert.State{convert.StateDecodeFailed, convert.StateEncodeFailed, convert.StateSkipped} {
		if state.AllowsInputDeletion() {
			t.Fatalf("%s must not allow input deletion", state)
		}
	}
}

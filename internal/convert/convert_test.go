package convert_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"dir2opus/internal/config"
	"dir2opus/internal/convert"
	"dir2opus/internal/decode"
	"dir2opus/internal/journal"
	"dir2opus/internal/media/audio"
	"dir2opus/internal/oggopus"
	"dir2opus/internal/scan"
	"dir2opus/internal/testsupport"
)

const mpg123Body = `echo "$*" >> "$(dirname "$0")/mpg123.args"
case "$4" in
*bad*) echo "mpg123: cannot sync" >&2; exit 1 ;;
esac
printf 'PCMDATA' > "$3"
`

type harness struct {
	cfg    *config.Config
	dir    string
	argLog string
	logs   *bytes.Buffer
	logger *slog.Logger
}

func newHarness(t *testing.T, opts ...testsupport.ConfigOption) *harness {
	t.Helper()
	scratch := t.TempDir()
	fixture := filepath.Join(scratch, "fixture.opus")
	testsupport.WriteOpus(t, fixture, "ENCODER=opusenc stub")
	argLog := filepath.Join(scratch, "opusenc.args")

	base := []testsupport.ConfigOption{
		testsupport.WithStub("opusenc", testsupport.OpusencScript(fixture, argLog)),
		testsupport.WithStub("mpg123", mpg123Body),
	}
	cfg := testsupport.NewConfig(t, append(base, opts...)...)

	var logs bytes.Buffer
	return &harness{
		cfg:    cfg,
		dir:    t.TempDir(),
		argLog: argLog,
		logs:   &logs,
		logger: slog.New(slog.NewJSONHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug})),
	}
}

func (h *harness) path(name string) string {
	return filepath.Join(h.dir, name)
}

func (h *harness) job(t *testing.T, name string) *convert.Job {
	t.Helper()
	path := h.path(name)
	f, ok := audio.Detect(path)
	if !ok {
		t.Fatalf("unsupported fixture %s", name)
	}
	return convert.NewJob(h.cfg, scan.Source{Path: path, Format: f})
}

func (h *harness) runner(opts ...convert.RunnerOption) *convert.Runner {
	return convert.NewRunner(h.cfg.EncoderBinary(), h.logger, opts...)
}

func (h *harness) opusencArgs(t *testing.T) []string {
	t.Helper()
	data, err := os.ReadFile(h.argLog)
	if err != nil {
		t.Fatalf("read opusenc args: %v", err)
	}
	return strings.Split(strings.TrimSpace(string(data)), "\n")
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func TestPipeModeMP3CarriesTags(t *testing.T) {
	h := newHarness(t)
	testsupport.WriteMP3(t, h.path("track.mp3"), map[string]string{"TPE1": "A", "TIT2": "T"})

	outcome := h.runner().Process(context.Background(), h.job(t, "track.mp3"))

	if outcome.State != convert.StateDone || outcome.Err != nil {
		t.Fatalf("unexpected outcome %+v", outcome)
	}
	if outcome.Mode != decode.ModePipe {
		t.Fatalf("mode = %s", outcome.Mode)
	}
	decoderArgs, err := os.ReadFile(filepath.Join(testsupport.BaseDir(h.cfg), "bin", "mpg123.args"))
	if err != nil {
		t.Fatalf("read decoder args: %v", err)
	}
	if got, want := strings.TrimSpace(string(decoderArgs)), "-q -w /dev/stdout "+h.path("track.mp3"); got != want {
		t.Fatalf("decoder args = %q want %q", got, want)
	}
	if got, want := h.opusencArgs(t), []string{"--quiet - " + h.path("track.opus")}; !reflect.DeepEqual(got, want) {
		t.Fatalf("opusenc args = %q want %q", got, want)
	}
	piped, _ := os.ReadFile(h.path("track.opus.stdin"))
	if string(piped) != "PCMDATA" {
		t.Fatalf("encoder read %q from the pipe", piped)
	}

	written, err := oggopus.ReadTags(h.path("track.opus"))
	if err != nil {
		t.Fatalf("ReadTags: %v", err)
	}
	if !reflect.DeepEqual(written["artist"], []string{"A"}) || !reflect.DeepEqual(written["title"], []string{"T"}) {
		t.Fatalf("unexpected tags %v", written)
	}
	if outcome.TagCount != 2 {
		t.Fatalf("tag count = %d", outcome.TagCount)
	}
	if exists(h.path("track.wav")) {
		t.Fatal("pipe mode must never create an intermediate")
	}
	if !exists(h.path("track.mp3")) {
		t.Fatal("source must be kept without delete_input")
	}
}

func TestWAVSourcePassesThrough(t *testing.T) {
	h := newHarness(t)
	testsupport.WriteWAV(t, h.path("voice.wav"), 128)

	outcome := h.runner().Process(context.Background(), h.job(t, "voice.wav"))

	if outcome.State != convert.StateDone || outcome.Mode != decode.ModePassthrough {
		t.Fatalf("unexpected outcome %+v", outcome)
	}
	if got, want := h.opusencArgs(t), []string{"--quiet " + h.path("voice.wav") + " " + h.path("voice.opus")}; !reflect.DeepEqual(got, want) {
		t.Fatalf("opusenc args = %q want %q", got, want)
	}
	if !exists(h.path("voice.wav")) {
		t.Fatal("passthrough source must be kept")
	}
	if strings.Contains(h.logs.String(), "tags_missing") {
		t.Fatal("wav sources must not warn about missing tags")
	}
}

func TestDecoderFailureAbortsOnlyThatJob(t *testing.T) {
	for _, noPipe := range []bool{false, true} {
		h := newHarness(t)
		h.cfg.Conversion.NoPipe = noPipe
		testsupport.WriteMP3(t, h.path("bad.mp3"), map[string]string{"TIT2": "Bad"})
		testsupport.WriteMP3(t, h.path("good.mp3"), map[string]string{"TIT2": "Good"})

		jobs := []*convert.Job{h.job(t, "bad.mp3"), h.job(t, "good.mp3")}
		summary := h.runner().Run(context.Background(), jobs)

		if len(summary.Outcomes) != 2 {
			t.Fatalf("no_pipe=%v: expected two outcomes, got %d", noPipe, len(summary.Outcomes))
		}
		bad, good := summary.Outcomes[0], summary.Outcomes[1]
		if bad.State != convert.StateDecodeFailed || bad.FailedStage != "decode" {
			t.Fatalf("no_pipe=%v: unexpected bad outcome %+v", noPipe, bad)
		}
		if good.State != convert.StateDone {
			t.Fatalf("no_pipe=%v: next job should still run, got %+v", noPipe, good)
		}
		if exists(h.path("bad.opus")) || exists(h.path("bad.wav")) {
			t.Fatalf("no_pipe=%v: failed job left files behind", noPipe)
		}
		logs := h.logs.String()
		if !strings.Contains(logs, `"event_type":"decode_failed"`) || !strings.Contains(logs, `"decoder":"mpg123"`) {
			t.Fatalf("no_pipe=%v: expected decoder warning, got %s", noPipe, logs)
		}
		if summary.Failed() != 1 || summary.Count(convert.StateDone) != 1 {
			t.Fatalf("no_pipe=%v: unexpected summary counts", noPipe)
		}
	}
}

func TestSharedBaseNameKeepsUserWAV(t *testing.T) {
	h := newHarness(t)
	h.cfg.Conversion.NoPipe = true
	testsupport.WriteMP3(t, h.path("song.mp3"), map[string]string{"TIT2": "Song"})
	testsupport.WriteWAV(t, h.path("song.wav"), 64)
	before, err := os.ReadFile(h.path("song.wav"))
	if err != nil {
		t.Fatalf("read wav: %v", err)
	}

	jobs := convert.NewJobs(h.cfg, []scan.Source{
		{Path: h.path("song.mp3"), Format: audio.FormatMP3},
		{Path: h.path("song.wav"), Format: audio.FormatWAV},
	})
	summary := h.runner().Run(context.Background(), jobs)

	mp3, wav := summary.Outcomes[0], summary.Outcomes[1]
	if mp3.State != convert.StateSkipped || !errors.Is(mp3.Err, convert.ErrPathConflict) {
		t.Fatalf("unexpected mp3 outcome %+v", mp3)
	}
	if mp3.Entry("run").Output != "" {
		t.Fatal("a conflicting job must not record an output")
	}
	if wav.State != convert.StateDone {
		t.Fatalf("unexpected wav outcome %+v", wav)
	}
	after, err := os.ReadFile(h.path("song.wav"))
	if err != nil || !bytes.Equal(after, before) {
		t.Fatalf("user wav changed or removed (err=%v)", err)
	}
	if !strings.Contains(h.logs.String(), `"event_type":"output_conflict"`) {
		t.Fatalf("expected conflict warning, got %s", h.logs.String())
	}
	if got := h.opusencArgs(t); len(got) != 1 || !strings.Contains(got[0], h.path("song.wav")) {
		t.Fatalf("only the wav source should be encoded, got %q", got)
	}
	if summary.Failed() != 0 || summary.Count(convert.StateSkipped) != 1 {
		t.Fatalf("unexpected summary counts %+v", summary)
	}
}

func TestEncodeFailureSkipsTaggingAndDeletion(t *testing.T) {
	h := newHarness(t, testsupport.WithStub("opusenc", "cat > /dev/null\necho 'opusenc: bad input' >&2\nexit 2\n"))
	h.cfg.Conversion.DeleteInput = true
	testsupport.WriteMP3(t, h.path("track.mp3"), map[string]string{"TIT2": "T"})

	outcome := h.runner().Process(context.Background(), h.job(t, "track.mp3"))

	if outcome.State != convert.StateEncodeFailed || outcome.FailedStage != "encode" {
		t.Fatalf("unexpected outcome %+v", outcome)
	}
	if outcome.InputDeleted || !exists(h.path("track.mp3")) {
		t.Fatal("input must survive an encode failure")
	}
	if exists(h.path("track.opus")) {
		t.Fatal("no output expected")
	}
	if strings.Contains(h.logs.String(), "tag_write_failed") {
		t.Fatal("tagging must not run after an encode failure")
	}
}

func TestTagFailureKeepsAudioAndAllowsDeletion(t *testing.T) {
	h := newHarness(t, testsupport.WithStub("opusenc", "cat > /dev/null\nfor a in \"$@\"; do out=\"$a\"; done\nprintf 'not an ogg stream' > \"$out\"\n"))
	h.cfg.Conversion.DeleteInput = true
	testsupport.WriteMP3(t, h.path("track.mp3"), map[string]string{"TIT2": "T"})

	job := h.job(t, "track.mp3")
	outcome := h.runner().Process(context.Background(), job)

	if outcome.State != convert.StateTagFailed || outcome.FailedStage != "tag" {
		t.Fatalf("unexpected outcome %+v", outcome)
	}
	var tagErr *oggopus.TagWriteError
	if !errors.As(outcome.Err, &tagErr) || tagErr.Kind != oggopus.KindParse {
		t.Fatalf("expected parse TagWriteError, got %v", outcome.Err)
	}
	if !exists(h.path("track.opus")) {
		t.Fatal("audio must be kept when tagging fails")
	}
	if !outcome.InputDeleted || exists(h.path("track.mp3")) {
		t.Fatal("tag failure must not block input deletion")
	}
	if !strings.Contains(h.logs.String(), `"kind":"parse"`) {
		t.Fatalf("warning should name the error kind: %s", h.logs.String())
	}
}

func TestDeleteInputAfterSuccess(t *testing.T) {
	h := newHarness(t)
	h.cfg.Conversion.DeleteInput = true
	testsupport.WriteMP3(t, h.path("track.mp3"), map[string]string{"TIT2": "T"})

	outcome := h.runner().Process(context.Background(), h.job(t, "track.mp3"))
	if outcome.State != convert.StateDone || !outcome.InputDeleted {
		t.Fatalf("unexpected outcome %+v", outcome)
	}
	if exists(h.path("track.mp3")) || !exists(h.path("track.opus")) {
		t.Fatal("expected source replaced by output")
	}
}

func TestMissingTagsWarns(t *testing.T) {
	h := newHarness(t)
	testsupport.WriteMP3(t, h.path("untagged.mp3"), nil)

	outcome := h.runner().Process(context.Background(), h.job(t, "untagged.mp3"))
	if outcome.State != convert.StateDone || outcome.TagCount != 0 {
		t.Fatalf("unexpected outcome %+v", outcome)
	}
	if !strings.Contains(h.logs.String(), "no tags found") {
		t.Fatalf("expected no-tags warning, got %s", h.logs.String())
	}
	written, err := oggopus.ReadTags(h.path("untagged.opus"))
	if err != nil {
		t.Fatalf("ReadTags: %v", err)
	}
	if want := map[string][]string{"encoder": {"opusenc stub"}}; !reflect.DeepEqual(written, want) {
		t.Fatalf("encoder comments should be untouched, got %v", written)
	}
}

func TestSkipExistingOutput(t *testing.T) {
	h := newHarness(t)
	h.cfg.Conversion.SkipExisting = true
	testsupport.WriteMP3(t, h.path("track.mp3"), nil)
	testsupport.WriteOpus(t, h.path("track.opus"))

	outcome := h.runner().Process(context.Background(), h.job(t, "track.mp3"))
	if outcome.State != convert.StateSkipped {
		t.Fatalf("unexpected outcome %+v", outcome)
	}
	if exists(h.argLog) {
		t.Fatal("encoder must not run for skipped jobs")
	}
}

func TestRunRecordsJournal(t *testing.T) {
	h := newHarness(t)
	store := testsupport.MustOpenJournal(t, h.cfg)
	testsupport.WriteMP3(t, h.path("a.mp3"), map[string]string{"TIT2": "A"})
	testsupport.WriteMP3(t, h.path("bad.mp3"), nil)

	jobs := []*convert.Job{h.job(t, "a.mp3"), h.job(t, "bad.mp3")}
	summary := h.runner(convert.WithRecorder(store), convert.WithRunID("run-42")).Run(context.Background(), jobs)
	if summary.RunID != "run-42" {
		t.Fatalf("run id = %q", summary.RunID)
	}

	entries, err := store.List(context.Background(), journal.Filter{RunID: "run-42"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected two journal rows, got %d", len(entries))
	}
	if entries[0].State != "DECODE_FAILED" || entries[0].Output != "" || entries[0].Error == "" {
		t.Fatalf("unexpected failed row %+v", entries[0])
	}
	if entries[1].State != "DONE" || entries[1].Mode != "pipe" || entries[1].Decoder != "mpg123" || entries[1].TagCount != 1 {
		t.Fatalf("unexpected done row %+v", entries[1])
	}
}

func TestRunStopsWhenCancelled(t *testing.T) {
	h := newHarness(t)
	testsupport.WriteMP3(t, h.path("a.mp3"), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary := h.runner().Run(ctx, []*convert.Job{h.job(t, "a.mp3")})
	if !summary.Interrupted || len(summary.Outcomes) != 0 {
		t.Fatalf("unexpected summary %+v", summary)
	}
}

package testsupport

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/bogem/id3v2/v2"
)

// WriteMP3 writes a fake MP3 file at path: an ID3v2 tag holding the given
// text frames (frame id to value, e.g. "TPE1": "Artist") followed by a few
// frame-sync bytes. With no frames the file carries no tag at all.
func WriteMP3(t testing.TB, path string, frames map[string]string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}

	var buf bytes.Buffer
	if len(frames) > 0 {
		tag := id3v2.NewEmptyTag()
		for id, value := range frames {
			tag.AddTextFrame(id, id3v2.EncodingUTF8, value)
		}
		if _, err := tag.WriteTo(&buf); err != nil {
			t.Fatalf("write id3 tag: %v", err)
		}
	}
	buf.Write(bytes.Repeat([]byte{0xFF, 0xFB, 0x90, 0x00}, 64))
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write mp3 fixture %s: %v", path, err)
	}
}

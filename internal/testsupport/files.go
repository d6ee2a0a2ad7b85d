package testsupport

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

// WriteFile fills path with size bytes of filler. A size <= 0 writes a single
// byte.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()
	if size <= 0 {
		size = 1
	}
	writeBytes(t, path, bytes.Repeat([]byte{0x42}, int(size)))
}

// WriteWAV writes a 16-bit stereo 44.1 kHz PCM WAV file holding frames
// frames of silence.
func WriteWAV(t testing.TB, path string, frames int) {
	t.Helper()
	const (
		channels      = 2
		sampleRate    = 44100
		bitsPerSample = 16
	)
	blockAlign := channels * bitsPerSample / 8
	dataLen := frames * blockAlign

	var buf bytes.Buffer
	buf.WriteString("RIFF")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(36+dataLen))
	buf.WriteString("WAVEfmt ")
	for _, field := range []any{
		uint32(16),
		uint16(1),
		uint16(channels),
		uint32(sampleRate),
		uint32(sampleRate * blockAlign),
		uint16(blockAlign),
		uint16(bitsPerSample),
	} {
		_ = binary.Write(&buf, binary.LittleEndian, field)
	}
	buf.WriteString("data")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(dataLen))
	buf.Write(make([]byte, dataLen))
	writeBytes(t, path, buf.Bytes())
}

func writeBytes(t testing.TB, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

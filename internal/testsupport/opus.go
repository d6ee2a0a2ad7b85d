package testsupport

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
)

// OpusSerial is the stream serial number used by OpusStream.
const OpusSerial = 0x5eed

const (
	oggHeaderSize = 27
	oggMaxLace    = 255

	// OggContinued marks a page whose first segment continues a packet.
	OggContinued = 0x01
	// OggBOS marks the first page of a logical stream.
	OggBOS = 0x02
	// OggEOS marks the last page of a logical stream.
	OggEOS = 0x04
)

// OggPage is one page of an Ogg stream.
type OggPage struct {
	HeaderType byte
	Granule    uint64
	Serial     uint32
	Sequence   uint32
	Segments   []byte
	Body       []byte
}

// OpusStream returns a small, valid Ogg Opus stream whose comment header
// holds the given raw "KEY=value" comments. Three audio pages follow the
// headers; the last carries the EOS flag.
func OpusStream(comments ...string) []byte {
	head := make([]byte, 19)
	copy(head, "OpusHead")
	head[8] = 1
	head[9] = 2
	binary.LittleEndian.PutUint16(head[10:], 312)
	binary.LittleEndian.PutUint32(head[12:], 48000)

	var out bytes.Buffer
	out.Write(encodePage(&OggPage{
		HeaderType: OggBOS,
		Serial:     OpusSerial,
		Segments:   []byte{byte(len(head))},
		Body:       head,
	}))

	var packet bytes.Buffer
	packet.WriteString("OpusTags")
	writeLengthPrefixed(&packet, "libopus 1.4")
	_ = binary.Write(&packet, binary.LittleEndian, uint32(len(comments)))
	for _, c := range comments {
		writeLengthPrefixed(&packet, c)
	}
	pages := lacePacket(packet.Bytes(), 1)
	for _, p := range pages {
		out.Write(encodePage(p))
	}

	seq := uint32(1 + len(pages))
	for i := range 3 {
		p := &OggPage{
			Granule:  uint64(960 * 2 * (i + 1)),
			Serial:   OpusSerial,
			Sequence: seq,
			Segments: []byte{20, 20},
			Body:     bytes.Repeat([]byte{byte(0xF8 + i)}, 40),
		}
		if i == 2 {
			p.HeaderType = OggEOS
		}
		out.Write(encodePage(p))
		seq++
	}
	return out.Bytes()
}

// WriteOpus writes OpusStream(comments...) to path.
func WriteOpus(t testing.TB, path string, comments ...string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, OpusStream(comments...), 0o644); err != nil {
		t.Fatalf("write opus fixture %s: %v", path, err)
	}
}

// ReadOggPages parses every page of the Ogg file at path, failing the test on
// a malformed page or checksum mismatch.
func ReadOggPages(t testing.TB, path string) []*OggPage {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	r := bytes.NewReader(data)
	var pages []*OggPage
	for {
		var header [oggHeaderSize]byte
		if _, err := io.ReadFull(r, header[:]); err != nil {
			if errors.Is(err, io.EOF) {
				return pages
			}
			t.Fatalf("page %d header: %v", len(pages), err)
		}
		if string(header[:4]) != "OggS" {
			t.Fatalf("page %d: missing capture pattern", len(pages))
		}
		p := &OggPage{
			HeaderType: header[5],
			Granule:    binary.LittleEndian.Uint64(header[6:14]),
			Serial:     binary.LittleEndian.Uint32(header[14:18]),
			Sequence:   binary.LittleEndian.Uint32(header[18:22]),
			Segments:   make([]byte, header[26]),
		}
		if _, err := io.ReadFull(r, p.Segments); err != nil {
			t.Fatalf("page %d lacing: %v", len(pages), err)
		}
		size := 0
		for _, lace := range p.Segments {
			size += int(lace)
		}
		p.Body = make([]byte, size)
		if _, err := io.ReadFull(r, p.Body); err != nil {
			t.Fatalf("page %d body: %v", len(pages), err)
		}
		if want, got := binary.LittleEndian.Uint32(header[22:26]), oggCRC(unsignedPage(p)); want != got {
			t.Fatalf("page %d: crc %08x, computed %08x", len(pages), want, got)
		}
		pages = append(pages, p)
	}
}

func writeLengthPrefixed(buf *bytes.Buffer, s string) {
	_ = binary.Write(buf, binary.LittleEndian, uint32(len(s)))
	buf.WriteString(s)
}

// lacePacket splits packet over as many pages as it needs, starting at
// sequence seq.
func lacePacket(packet []byte, seq uint32) []*OggPage {
	var lacing []byte
	n := len(packet)
	for n >= oggMaxLace {
		lacing = append(lacing, oggMaxLace)
		n -= oggMaxLace
	}
	lacing = append(lacing, byte(n))

	var pages []*OggPage
	offset := 0
	for len(lacing) > 0 {
		count := min(len(lacing), 255)
		p := &OggPage{Serial: OpusSerial, Sequence: seq, Segments: lacing[:count]}
		if len(pages) > 0 {
			p.HeaderType = OggContinued
		}
		size := 0
		for _, lace := range p.Segments {
			size += int(lace)
		}
		p.Body = packet[offset : offset+size]
		offset += size
		lacing = lacing[count:]
		seq++
		pages = append(pages, p)
	}
	return pages
}

func encodePage(p *OggPage) []byte {
	out := unsignedPage(p)
	binary.LittleEndian.PutUint32(out[22:26], oggCRC(out))
	return out
}

func unsignedPage(p *OggPage) []byte {
	out := make([]byte, oggHeaderSize+len(p.Segments)+len(p.Body))
	copy(out, "OggS")
	out[5] = p.HeaderType
	binary.LittleEndian.PutUint64(out[6:14], p.Granule)
	binary.LittleEndian.PutUint32(out[14:18], p.Serial)
	binary.LittleEndian.PutUint32(out[18:22], p.Sequence)
	out[26] = byte(len(p.Segments))
	copy(out[oggHeaderSize:], p.Segments)
	copy(out[oggHeaderSize+len(p.Segments):], p.Body)
	return out
}

// Ogg page checksums use polynomial 0x04c11db7 without reflection.
var oggCRCTable = func() [256]uint32 {
	var table [256]uint32
	for i := range table {
		r := uint32(i) << 24
		for range 8 {
			if r&0x80000000 != 0 {
				r = r<<1 ^ 0x04c11db7
			} else {
				r <<= 1
			}
		}
		table[i] = r
	}
	return table
}()

func oggCRC(data []byte) uint32 {
	var crc uint32
	for _, b := range data {
		crc = crc<<8 ^ oggCRCTable[byte(crc>>24)^b]
	}
	return crc
}

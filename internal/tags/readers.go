package tags

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/bogem/id3v2/v2"
	"github.com/dhowden/tag"
	"go.senan.xyz/taglib"
)

func readID3(path string) ([]Raw, error) {
	t, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return nil, fmt.Errorf("open id3v2 tag: %w", err)
	}
	defer t.Close()

	var raw []Raw
	for id, frames := range t.AllFrames() {
		for _, frame := range frames {
			switch f := frame.(type) {
			case id3v2.TextFrame:
				raw = append(raw, Raw{Key: id, Value: splitNull(f.Text)})
			case id3v2.UserDefinedTextFrame:
				raw = append(raw, Raw{Key: "txxx:" + f.Description, Value: splitNull(f.Value)})
			case id3v2.CommentFrame:
				raw = append(raw, Raw{Key: id, Value: f.Text})
			case id3v2.UFIDFrame:
				raw = append(raw, Raw{Key: "ufid:" + f.OwnerIdentifier, Value: f.Identifier})
			case id3v2.UnknownFrame:
				if strings.HasPrefix(id, "W") {
					raw = append(raw, Raw{Key: id, Value: f.Body})
				}
			}
		}
	}
	sortRaw(raw)
	return raw, nil
}

func readMP4(path string) ([]Raw, error) {
	m, err := readMetadata(path)
	if err != nil || m == nil {
		return nil, err
	}
	data := m.Raw()
	raw := make([]Raw, 0, len(data))
	for key, value := range data {
		switch key {
		case "trkn_count", "disk_count":
			continue
		case "trkn", "disk":
			n, _ := value.(int)
			if n <= 0 {
				continue
			}
			if total, _ := data[key+"_count"].(int); total > 0 {
				raw = append(raw, Raw{Key: key, Value: fmt.Sprintf("%d/%d", n, total)})
				continue
			}
			raw = append(raw, Raw{Key: key, Value: n})
		default:
			raw = append(raw, Raw{Key: key, Value: value})
		}
	}
	sortRaw(raw)
	return raw, nil
}

func readVorbis(path string) ([]Raw, error) {
	m, err := readMetadata(path)
	if err != nil || m == nil {
		return nil, err
	}
	data := m.Raw()
	raw := make([]Raw, 0, len(data))
	for key, value := range data {
		raw = append(raw, Raw{Key: key, Value: value})
	}
	sortRaw(raw)
	return raw, nil
}

// readTagLib reads the property map TagLib builds for APEv2 and ASF tags.
// TagLib has already folded container names such as "Year" or
// "WM/AlbumTitle" onto its own property names.
func readTagLib(path string) ([]Raw, error) {
	props, err := taglib.ReadTags(path)
	if err != nil {
		return nil, fmt.Errorf("read tags: %w", err)
	}
	raw := make([]Raw, 0, len(props))
	for key, values := range props {
		raw = append(raw, Raw{Key: key, Value: values})
	}
	sortRaw(raw)
	return raw, nil
}

// readMetadata parses path with dhowden/tag. A file without any tag block is
// not an error.
func readMetadata(path string) (tag.Metadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open source: %w", err)
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		if errors.Is(err, tag.ErrNoTagsFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("read tags: %w", err)
	}
	return m, nil
}

func splitNull(text string) []string {
	parts := strings.Split(strings.TrimRight(text, "\x00"), "\x00")
	out := parts[:0]
	for _, part := range parts {
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func sortRaw(raw []Raw) {
	sort.SliceStable(raw, func(i, j int) bool { return raw[i].Key < raw[j].Key })
}

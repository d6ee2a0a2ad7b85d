package oggopus

import "fmt"

// ErrorKind classifies a tag write failure.
type ErrorKind string

const (
	// KindOpen means the Opus file could not be opened.
	KindOpen ErrorKind = "open"
	// KindParse means TagLib could not read the file as an Ogg Opus stream.
	KindParse ErrorKind = "parse"
	// KindPersist means the edited copy could not be saved or renamed into place.
	KindPersist ErrorKind = "persist"
)

// TagWriteError describes a failed WriteTags call.
type TagWriteError struct {
	Kind ErrorKind
	Path string
	Err  error
}

func (e *TagWriteError) Error() string {
	return fmt.Sprintf("write tags to %s: %s: %v", e.Path, e.Kind, e.Err)
}

func (e *TagWriteError) Unwrap() error {
	return e.Err
}

func tagError(kind ErrorKind, path string, err error) error {
	return &TagWriteError{Kind: kind, Path: path, Err: err}
}

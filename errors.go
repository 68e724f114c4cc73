package vocconv

import (
	"fmt"
	"io/fs"
)

// FileKind names the kind of dataset file a MissingFileError refers to.
type FileKind string

// The dataset files resolved per image ID.
const (
	ImageFileKind      FileKind = "image"
	AnnotationFileKind FileKind = "annotation"
)

// MissingFileError reports an image or annotation file that does not exist. The converter recovers
// from it by skipping the image.
type MissingFileError struct {
	Kind FileKind
	Path string
}

func (e *MissingFileError) Error() string {
	return fmt.Sprintf("%s file %q does not exist", e.Kind, e.Path)
}

// Unwrap returns fs.ErrNotExist.
func (e *MissingFileError) Unwrap() error {
	return fs.ErrNotExist
}

// MalformedRecordError reports an annotation or label record with a required field that is absent
// or cannot be parsed. It is fatal for a conversion run.
type MalformedRecordError struct {
	Path  string // The file the record was read from, if known.
	Field string // The offending field, e.g. "size/width" or "object[2]/bndbox/xmin".
	Err   error
}

func (e *MalformedRecordError) Error() string {
	msg := "malformed record"
	if e.Path != "" {
		msg += fmt.Sprintf(" %q", e.Path)
	}
	if e.Field != "" {
		msg += ": field " + e.Field
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MalformedRecordError) Unwrap() error {
	return e.Err
}

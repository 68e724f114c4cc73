package vocconv

// PASCAL VOC specific functionality.

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Layout resolves the files of one VOC dataset year below a VOCdevkit directory.
type Layout struct {
	DevkitPath string // The VOCdevkit directory.
	Year       string // The dataset year or version tag, e.g. "2007".
}

// Dir is the dataset directory <devkit>/VOC<year>.
func (l Layout) Dir() string {
	return filepath.Join(l.DevkitPath, "VOC"+l.Year)
}

// ImageSetFile is <dir>/ImageSets/Main/<split>.txt.
func (l Layout) ImageSetFile(split string) string {
	return filepath.Join(l.Dir(), "ImageSets", "Main", split+".txt")
}

// ImageFile is <dir>/JPEGImages/<id>.jpg.
func (l Layout) ImageFile(id string) string {
	return filepath.Join(l.Dir(), "JPEGImages", id+".jpg")
}

// AnnotationFile is <dir>/Annotations/<id>.xml.
func (l Layout) AnnotationFile(id string) string {
	return filepath.Join(l.Dir(), "Annotations", id+".xml")
}

// The XML elements are decoded as optional raw text so that absent fields can be told apart from
// fields with unparseable values.
type vocXMLBndBox struct {
	XMin *string `xml:"xmin"`
	XMax *string `xml:"xmax"`
	YMin *string `xml:"ymin"`
	YMax *string `xml:"ymax"`
}

type vocXMLObject struct {
	BndBox    *vocXMLBndBox `xml:"bndbox"`
	Difficult *string       `xml:"difficult"`
	Name      *string       `xml:"name"`
}

type vocXMLAnnotation struct {
	XMLName xml.Name       `xml:"annotation"`
	Objects []vocXMLObject `xml:"object"`
	Size    *struct {
		Width  *string `xml:"width"`
		Height *string `xml:"height"`
	} `xml:"size"`
}

// ReadAnnotation reads and parses the VOC annotation file at path.
//
// Every error, including a file that cannot be opened, is returned as *MalformedRecordError.
func ReadAnnotation(path string) (a Annotation, err error) {
	f, err := os.Open(path)
	if err != nil {
		return Annotation{}, &MalformedRecordError{Path: path, Err: err}
	}
	defer closeWithErrCheck(f, &err)

	a, err = DecodeAnnotation(f)
	if e, ok := err.(*MalformedRecordError); ok {
		e.Path = path
	}
	return a, err
}

// DecodeAnnotation parses a VOC annotation from r. The returned detections are unfiltered and in
// document order.
func DecodeAnnotation(r io.Reader) (Annotation, error) {
	var raw vocXMLAnnotation
	if err := xml.NewDecoder(r).Decode(&raw); err != nil {
		return Annotation{}, &MalformedRecordError{Err: errors.Wrap(err, "invalid XML")}
	}

	if raw.Size == nil {
		return Annotation{}, &MalformedRecordError{Field: "size", Err: errors.New("missing")}
	}
	width, err := parseIntField(raw.Size.Width, "size/width")
	if err != nil {
		return Annotation{}, err
	}
	height, err := parseIntField(raw.Size.Height, "size/height")
	if err != nil {
		return Annotation{}, err
	}
	if width <= 0 {
		return Annotation{}, &MalformedRecordError{
			Field: "size/width",
			Err:   errors.Errorf("invalid image width %d", width),
		}
	}
	if height <= 0 {
		return Annotation{}, &MalformedRecordError{
			Field: "size/height",
			Err:   errors.Errorf("invalid image height %d", height),
		}
	}

	a := Annotation{
		Detections: make([]Detection, 0, len(raw.Objects)),
		Height:     height,
		Width:      width,
	}
	for i, o := range raw.Objects {
		d, err := parseObject(o, fmt.Sprintf("object[%d]", i))
		if err != nil {
			return Annotation{}, err
		}
		a.Detections = append(a.Detections, d)
	}

	return a, nil
}

// parseObject converts a raw object element. prefix is used in error field names.
func parseObject(o vocXMLObject, prefix string) (Detection, error) {
	if o.Name == nil {
		return Detection{}, &MalformedRecordError{Field: prefix + "/name", Err: errors.New("missing")}
	}
	difficult, err := parseIntField(o.Difficult, prefix+"/difficult")
	if err != nil {
		return Detection{}, err
	}
	if o.BndBox == nil {
		return Detection{}, &MalformedRecordError{Field: prefix + "/bndbox", Err: errors.New("missing")}
	}

	d := Detection{Difficult: difficult == 1, Name: strings.TrimSpace(*o.Name)}
	coords := []struct {
		text  *string
		name  string
		value *float64
	}{
		{o.BndBox.XMin, "xmin", &d.Box.XMin},
		{o.BndBox.XMax, "xmax", &d.Box.XMax},
		{o.BndBox.YMin, "ymin", &d.Box.YMin},
		{o.BndBox.YMax, "ymax", &d.Box.YMax},
	}
	for _, c := range coords {
		if *c.value, err = parseFloatField(c.text, prefix+"/bndbox/"+c.name); err != nil {
			return Detection{}, err
		}
	}

	return d, nil
}

func parseIntField(text *string, field string) (int, error) {
	if text == nil {
		return 0, &MalformedRecordError{Field: field, Err: errors.New("missing")}
	}
	v, err := strconv.Atoi(strings.TrimSpace(*text))
	if err != nil {
		return 0, &MalformedRecordError{Field: field, Err: err}
	}
	return v, nil
}

func parseFloatField(text *string, field string) (float64, error) {
	if text == nil {
		return 0, &MalformedRecordError{Field: field, Err: errors.New("missing")}
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(*text), 64)
	if err != nil {
		return 0, &MalformedRecordError{Field: field, Err: err}
	}
	return v, nil
}

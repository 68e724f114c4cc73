package vocconv

// Line formats of the converted labels.

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// LineFormat serializes an image record to a single line of space-separated fields and parses such
// lines back.
//
// A line starts with <image_path> <width> <height> <num_objects>, followed by five fields per
// object. Image paths must not contain whitespace.
type LineFormat interface {
	// Name is the name used to select the format on the command line.
	Name() string
	// Encode returns the line for rec, without a line terminator. All detections of rec must have
	// a class that is known to the vocabulary; filter them with Annotation.Retain first.
	Encode(rec ImageRecord) (string, error)
	// Decode parses a line written by Encode. Errors are of type *MalformedRecordError.
	Decode(line string) (LabelLine, error)
}

const (
	lineHeaderFields = 4 // path, width, height, num_objects
	objectFields     = 5 // class ID and four box coordinates
)

// ParseLineFormat returns the LineFormat called name ("corner" or "center").
func ParseLineFormat(name string, vocab ClassVocabulary) (LineFormat, error) {
	switch strings.ToLower(name) {
	case "corner":
		return CornerFormat{Vocabulary: vocab}, nil
	case "center":
		return CenterFormat{Vocabulary: vocab}, nil
	}
	return nil, errors.Errorf("unknown line format %q", name)
}

// CornerFormat writes each object as <x_min> <y_min> <x_max> <y_max> <class_id>.
type CornerFormat struct {
	Vocabulary ClassVocabulary
}

// Name implements LineFormat.
func (CornerFormat) Name() string { return "corner" }

// Encode implements LineFormat.
func (f CornerFormat) Encode(rec ImageRecord) (string, error) {
	a := rec.Annotation
	fields := appendLineHeader(make([]string, 0, lineHeaderFields+objectFields*len(a.Detections)), rec)
	for _, d := range a.Detections {
		id, ok := f.Vocabulary.Lookup(d.Name)
		if !ok {
			return "", errors.Errorf("class %q of %q is not in the vocabulary", d.Name, rec.ImagePath)
		}
		b := NormalizeCorner(a.Width, a.Height, d.Box)
		fields = append(fields, formatFloat(b.XMin), formatFloat(b.YMin), formatFloat(b.XMax),
			formatFloat(b.YMax), strconv.Itoa(id))
	}

	return strings.Join(fields, " "), nil
}

// Decode implements LineFormat.
func (f CornerFormat) Decode(line string) (LabelLine, error) {
	return decodeLine(line, f.Vocabulary, func(v []float64) (int, CornerBox) {
		return int(v[4]), CornerBox{XMin: v[0], YMin: v[1], XMax: v[2], YMax: v[3]}
	}, 4)
}

// CenterFormat writes each object as <class_id> <x_center> <y_center> <width> <height>.
type CenterFormat struct {
	Vocabulary ClassVocabulary
}

// Name implements LineFormat.
func (CenterFormat) Name() string { return "center" }

// Encode implements LineFormat.
func (f CenterFormat) Encode(rec ImageRecord) (string, error) {
	a := rec.Annotation
	fields := appendLineHeader(make([]string, 0, lineHeaderFields+objectFields*len(a.Detections)), rec)
	for _, d := range a.Detections {
		id, ok := f.Vocabulary.Lookup(d.Name)
		if !ok {
			return "", errors.Errorf("class %q of %q is not in the vocabulary", d.Name, rec.ImagePath)
		}
		b := NormalizeCenter(a.Width, a.Height, d.Box)
		fields = append(fields, strconv.Itoa(id), formatFloat(b.XCenter), formatFloat(b.YCenter),
			formatFloat(b.Width), formatFloat(b.Height))
	}

	return strings.Join(fields, " "), nil
}

// Decode implements LineFormat. The boxes are converted to corner form.
func (f CenterFormat) Decode(line string) (LabelLine, error) {
	return decodeLine(line, f.Vocabulary, func(v []float64) (int, CornerBox) {
		b := CenterBox{XCenter: v[1], YCenter: v[2], Width: v[3], Height: v[4]}
		return int(v[0]), b.Corner()
	}, 0)
}

func appendLineHeader(fields []string, rec ImageRecord) []string {
	a := rec.Annotation
	return append(fields, rec.ImagePath, strconv.Itoa(a.Width), strconv.Itoa(a.Height),
		strconv.Itoa(len(a.Detections)))
}

// formatFloat returns the shortest representation of v that parses back to the same value.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// decodeLine parses the line header and the per object fields. toObject converts the five values
// of an object, of which the one at classIdx is the class ID.
func decodeLine(line string, vocab ClassVocabulary, toObject func(v []float64) (int, CornerBox),
	classIdx int) (LabelLine, error) {

	tokens := strings.Fields(line)
	if len(tokens) < lineHeaderFields {
		return LabelLine{}, &MalformedRecordError{
			Field: "header",
			Err:   errors.Errorf("insufficient tokens in %q", line),
		}
	}

	header := [3]int{}
	for i, name := range []string{"width", "height", "num_objects"} {
		v, err := strconv.Atoi(tokens[i+1])
		if err != nil {
			return LabelLine{}, &MalformedRecordError{Field: name, Err: err}
		}
		if v < 0 || (v == 0 && i < 2) {
			return LabelLine{}, &MalformedRecordError{
				Field: name,
				Err:   errors.Errorf("invalid value %d", v),
			}
		}
		header[i] = v
	}
	numObjects := header[2]
	if len(tokens) != lineHeaderFields+objectFields*numObjects {
		return LabelLine{}, &MalformedRecordError{
			Field: "num_objects",
			Err: errors.Errorf("%d objects do not match %d object tokens", numObjects,
				len(tokens)-lineHeaderFields),
		}
	}

	l := LabelLine{
		Height:    header[1],
		ImagePath: tokens[0],
		Objects:   make([]LabeledBox, 0, numObjects),
		Width:     header[0],
	}
	values := make([]float64, objectFields)
	for i := 0; i < numObjects; i++ {
		offset := lineHeaderFields + i*objectFields
		for j := range values {
			field := fmt.Sprintf("object[%d]/%d", i, j)
			if j == classIdx {
				id, err := strconv.Atoi(tokens[offset+j])
				if err != nil {
					return LabelLine{}, &MalformedRecordError{Field: field, Err: err}
				}
				if vocab.Name(id) == "" {
					return LabelLine{}, &MalformedRecordError{
						Field: field,
						Err:   errors.Errorf("unknown class ID %d", id),
					}
				}
				values[j] = float64(id)
				continue
			}

			v, err := strconv.ParseFloat(tokens[offset+j], 64)
			if err != nil {
				return LabelLine{}, &MalformedRecordError{Field: field, Err: err}
			}
			values[j] = v
		}

		id, box := toObject(values)
		l.Objects = append(l.Objects, LabeledBox{Box: box, ClassID: id})
	}

	return l, nil
}

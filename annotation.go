package vocconv

// The in-memory representation of a per-image annotation.

// Detection is a single labeled object as read from an annotation file.
type Detection struct {
	Box       PixelBox
	Difficult bool   // Set for objects that are excluded from standard evaluation.
	Name      string // The class name.
}

// Annotation is the image size and the list of detections of a single image.
type Annotation struct {
	Detections []Detection
	Height     int
	Width      int
}

// Retain returns a copy of a that only keeps the detections with a class known to vocab and
// without the difficult flag. The order of the kept detections is unchanged.
func (a Annotation) Retain(vocab ClassVocabulary) Annotation {
	kept := make([]Detection, 0, len(a.Detections))
	for _, d := range a.Detections {
		if _, known := vocab.Lookup(d.Name); !known || d.Difficult {
			continue
		}
		kept = append(kept, d)
	}

	return Annotation{Detections: kept, Height: a.Height, Width: a.Width}
}

// ImageRecord is the annotation of a single image together with the image path that is written to
// the output.
type ImageRecord struct {
	Annotation Annotation
	ImagePath  string
}

// LabeledBox is a normalized box and its class ID as decoded from an output line.
type LabeledBox struct {
	Box     CornerBox
	ClassID int
}

// LabelLine is a decoded output line.
type LabelLine struct {
	Height    int
	ImagePath string
	Objects   []LabeledBox
	Width     int
}

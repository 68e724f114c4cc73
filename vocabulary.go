package vocconv

import "github.com/samber/lo"

// vocClassNames are the PASCAL VOC object classes. The position of a name is its class ID.
var vocClassNames = [...]string{
	"aeroplane", "bicycle", "bird", "boat", "bottle", "bus", "car", "cat", "chair", "cow",
	"diningtable", "dog", "horse", "motorbike", "person", "pottedplant", "sheep", "sofa", "train",
	"tvmonitor",
}

// ClassVocabulary is an immutable, ordered list of class names. A class ID is the 0-based position
// of its name.
type ClassVocabulary struct {
	names []string
}

// VOCClasses returns the vocabulary of the twenty PASCAL VOC classes.
func VOCClasses() ClassVocabulary {
	return ClassVocabulary{names: vocClassNames[:]}
}

// Lookup returns the class ID for name. ok is false if the vocabulary does not contain name, in
// which case id is -1.
func (v ClassVocabulary) Lookup(name string) (id int, ok bool) {
	id = lo.IndexOf(v.names, name)
	return id, id >= 0
}

// Name returns the class name for id, or "" if id is out of range.
func (v ClassVocabulary) Name(id int) string {
	if id < 0 || id >= len(v.names) {
		return ""
	}
	return v.names[id]
}

// Len is the number of classes.
func (v ClassVocabulary) Len() int {
	return len(v.names)
}

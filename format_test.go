package vocconv

import (
	"strconv"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"
)

func testRecord(objects ...Detection) ImageRecord {
	return ImageRecord{
		Annotation: Annotation{Detections: objects, Height: 256, Width: 512},
		ImagePath:  "VOC2007/JPEGImages/000001.jpg",
	}
}

func TestParseLineFormat(t *testing.T) {
	vocab := VOCClasses()
	f, err := ParseLineFormat("corner", vocab)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, f.Name(), test.ShouldEqual, "corner")

	f, err = ParseLineFormat("Center", vocab)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, f.Name(), test.ShouldEqual, "center")

	_, err = ParseLineFormat("yolo", vocab)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "unknown line format")
}

func TestCornerFormatEncode(t *testing.T) {
	f := CornerFormat{Vocabulary: VOCClasses()}
	line, err := f.Encode(testRecord(
		Detection{Name: "dog", Box: PixelBox{XMin: 64, XMax: 128, YMin: 32, YMax: 64}},
		Detection{Name: "aeroplane", Box: PixelBox{XMin: 0, XMax: 512, YMin: 0, YMax: 256}},
	))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, line, test.ShouldEqual,
		"VOC2007/JPEGImages/000001.jpg 512 256 2 0.125 0.125 0.25 0.25 11 0 0 1 1 0")
}

func TestCenterFormatEncode(t *testing.T) {
	f := CenterFormat{Vocabulary: VOCClasses()}
	line, err := f.Encode(testRecord(
		Detection{Name: "dog", Box: PixelBox{XMin: 64, XMax: 128, YMin: 32, YMax: 64}},
		Detection{Name: "tvmonitor", Box: PixelBox{XMin: 0, XMax: 512, YMin: 0, YMax: 256}},
	))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, line, test.ShouldEqual,
		"VOC2007/JPEGImages/000001.jpg 512 256 2 11 0.1875 0.1875 0.125 0.125 19 0.5 0.5 1 1")
}

func TestEncodeWithoutObjects(t *testing.T) {
	vocab := VOCClasses()
	for _, f := range []LineFormat{CornerFormat{Vocabulary: vocab}, CenterFormat{Vocabulary: vocab}} {
		line, err := f.Encode(testRecord())
		test.That(t, err, test.ShouldBeNil)
		test.That(t, line, test.ShouldEqual, "VOC2007/JPEGImages/000001.jpg 512 256 0")
	}
}

func TestEncodeUnknownClass(t *testing.T) {
	vocab := VOCClasses()
	for _, f := range []LineFormat{CornerFormat{Vocabulary: vocab}, CenterFormat{Vocabulary: vocab}} {
		_, err := f.Encode(testRecord(Detection{Name: "unicorn"}))
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "unicorn")
	}
}

func TestEncodeScenario(t *testing.T) {
	vocab := VOCClasses()
	rec := ImageRecord{
		Annotation: Annotation{
			Detections: []Detection{{Name: "cat", Box: PixelBox{XMin: 10, XMax: 100, YMin: 20, YMax: 200}}},
			Height:     375,
			Width:      500,
		},
		ImagePath: "000005.jpg",
	}

	for _, tc := range []struct {
		format   LineFormat
		classIdx int
		want     []float64
	}{
		{CornerFormat{Vocabulary: vocab}, 4, []float64{0.02, 0.053333, 0.2, 0.533333}},
		{CenterFormat{Vocabulary: vocab}, 0, []float64{0.11, 0.293333, 0.18, 0.48}},
	} {
		line, err := tc.format.Encode(rec)
		test.That(t, err, test.ShouldBeNil)
		tokens := strings.Fields(line)
		test.That(t, tokens, test.ShouldHaveLength, 9)
		test.That(t, tokens[:4], test.ShouldResemble, []string{"000005.jpg", "500", "375", "1"})

		object := tokens[4:]
		test.That(t, object[tc.classIdx], test.ShouldEqual, "7")
		values := append(append([]string{}, object[:tc.classIdx]...), object[tc.classIdx+1:]...)
		for i, s := range values {
			v, err := strconv.ParseFloat(s, 64)
			test.That(t, err, test.ShouldBeNil)
			test.That(t, v, test.ShouldAlmostEqual, tc.want[i], 1e-6)
		}
	}
}

func TestDecodeRoundTrip(t *testing.T) {
	vocab := VOCClasses()
	rec := testRecord(
		Detection{Name: "dog", Box: PixelBox{XMin: 64, XMax: 128, YMin: 32, YMax: 64}},
		Detection{Name: "person", Box: PixelBox{XMin: 1, XMax: 511, YMin: 3, YMax: 250}},
	)
	want := []LabeledBox{
		{Box: NormalizeCorner(512, 256, rec.Annotation.Detections[0].Box), ClassID: 11},
		{Box: NormalizeCorner(512, 256, rec.Annotation.Detections[1].Box), ClassID: 14},
	}

	for _, f := range []LineFormat{CornerFormat{Vocabulary: vocab}, CenterFormat{Vocabulary: vocab}} {
		line, err := f.Encode(rec)
		test.That(t, err, test.ShouldBeNil)
		l, err := f.Decode(line)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, l.ImagePath, test.ShouldEqual, rec.ImagePath)
		test.That(t, l.Width, test.ShouldEqual, 512)
		test.That(t, l.Height, test.ShouldEqual, 256)
		test.That(t, l.Objects, test.ShouldHaveLength, 2)
		for i, o := range l.Objects {
			test.That(t, o.ClassID, test.ShouldEqual, want[i].ClassID)
			test.That(t, o.Box.XMin, test.ShouldAlmostEqual, want[i].Box.XMin, 1e-9)
			test.That(t, o.Box.YMin, test.ShouldAlmostEqual, want[i].Box.YMin, 1e-9)
			test.That(t, o.Box.XMax, test.ShouldAlmostEqual, want[i].Box.XMax, 1e-9)
			test.That(t, o.Box.YMax, test.ShouldAlmostEqual, want[i].Box.YMax, 1e-9)
		}
	}
}

func TestDecodeMalformed(t *testing.T) {
	f := CornerFormat{Vocabulary: VOCClasses()}
	for _, tc := range []struct {
		line  string
		field string
	}{
		{"a.jpg 10 10", "header"},
		{"a.jpg ten 10 0", "width"},
		{"a.jpg 0 10 0", "width"},
		{"a.jpg 10 -5 0", "height"},
		{"a.jpg 10 10 x", "num_objects"},
		{"a.jpg 10 10 1", "num_objects"},
		{"a.jpg 10 10 1 0 0 1 1 3 0.5", "num_objects"},
		{"a.jpg 10 10 -1", "num_objects"},
		{"a.jpg 10 10 1 0 0 1 1 dog", "object[0]/4"},
		{"a.jpg 10 10 1 0 0 1 1 20", "object[0]/4"},
		{"a.jpg 10 10 1 0 zero 1 1 3", "object[0]/1"},
	} {
		_, err := f.Decode(tc.line)
		var mre *MalformedRecordError
		test.That(t, errors.As(err, &mre), test.ShouldBeTrue)
		test.That(t, mre.Field, test.ShouldEqual, tc.field)
	}

	_, err := CenterFormat{Vocabulary: VOCClasses()}.Decode("a.jpg 10 10 1 2.5 0.5 0.5 1 1")
	var mre *MalformedRecordError
	test.That(t, errors.As(err, &mre), test.ShouldBeTrue)
	test.That(t, mre.Field, test.ShouldEqual, "object[0]/0")
}

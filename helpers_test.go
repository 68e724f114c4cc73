package vocconv

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"go.viam.com/test"
)

type testObject struct {
	name      string
	difficult int
	box       PixelBox
}

// annotationXML returns a VOC annotation document for an image of the given size.
func annotationXML(width, height int, objects ...testObject) string {
	var sb strings.Builder
	sb.WriteString("<annotation>\n\t<folder>VOC2007</folder>\n")
	fmt.Fprintf(&sb, "\t<size>\n\t\t<width>%d</width>\n\t\t<height>%d</height>\n"+
		"\t\t<depth>3</depth>\n\t</size>\n", width, height)
	for _, o := range objects {
		fmt.Fprintf(&sb, "\t<object>\n\t\t<name>%s</name>\n\t\t<pose>Left</pose>\n"+
			"\t\t<truncated>0</truncated>\n\t\t<difficult>%d</difficult>\n", o.name, o.difficult)
		fmt.Fprintf(&sb, "\t\t<bndbox>\n\t\t\t<xmin>%v</xmin>\n\t\t\t<ymin>%v</ymin>\n"+
			"\t\t\t<xmax>%v</xmax>\n\t\t\t<ymax>%v</ymax>\n\t\t</bndbox>\n\t</object>\n",
			o.box.XMin, o.box.YMin, o.box.XMax, o.box.YMax)
	}
	sb.WriteString("</annotation>\n")
	return sb.String()
}

// testDataset is a VOCdevkit directory in a temporary directory.
type testDataset struct {
	layout Layout
}

func newTestDataset(t *testing.T) testDataset {
	t.Helper()
	ds := testDataset{layout: Layout{DevkitPath: t.TempDir(), Year: "2007"}}
	for _, dir := range []string{"Annotations", "JPEGImages", filepath.Join("ImageSets", "Main")} {
		test.That(t, os.MkdirAll(filepath.Join(ds.layout.Dir(), dir), 0o755), test.ShouldBeNil)
	}
	return ds
}

func (ds testDataset) writeImageSet(t *testing.T, split string, ids ...string) {
	t.Helper()
	writeTestFile(t, ds.layout.ImageSetFile(split), strings.Join(ids, "\n")+"\n")
}

func (ds testDataset) writeAnnotation(t *testing.T, id, doc string) {
	t.Helper()
	writeTestFile(t, ds.layout.AnnotationFile(id), doc)
}

// writeImage writes an image placeholder; the converter only checks for its existence.
func (ds testDataset) writeImage(t *testing.T, id string) {
	t.Helper()
	writeTestFile(t, ds.layout.ImageFile(id), "")
}

// writeJPEG writes a decodable JPEG image of the given size.
func (ds testDataset) writeJPEG(t *testing.T, id string, width, height int) {
	t.Helper()
	img := imaging.New(width, height, color.NRGBA{R: 200, G: 100, B: 50, A: 255})
	test.That(t, imaging.Save(img, ds.layout.ImageFile(id)), test.ShouldBeNil)
}

func writeTestFile(t *testing.T, path, content string) {
	t.Helper()
	test.That(t, os.WriteFile(path, []byte(content), 0o644), test.ShouldBeNil)
}

package vocconv

// Conversion of a VOC image set to a label file.

import (
	"context"
	"io"
	"path/filepath"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
)

// Converter converts the annotations of a list of image IDs to lines of a LineFormat.
type Converter struct {
	Format     LineFormat
	Layout     Layout
	Logger     golog.Logger
	Vocabulary ClassVocabulary
	Workers    int // Number of images processed concurrently; <= 1 processes them sequentially.
}

// ConvertStats counts the outcome of a conversion run.
type ConvertStats struct {
	Objects                  int // Retained objects in all written lines.
	SkippedMissingAnnotation int
	SkippedMissingImage      int
	Written                  int
}

// convertResult is the outcome for a single image ID.
type convertResult struct {
	imagePath string
	line      string
	missing   *MissingFileError // Set if the image was skipped.
	objects   int
}

// Run converts the images listed in ids and writes one line per image to labels, in the order of
// ids. If list is not nil, the absolute path of every written image is written to it as well.
//
// Images with a missing image or annotation file are logged and skipped. A malformed annotation
// aborts the run with a *MalformedRecordError; the lines for the preceding IDs have been written at
// that point.
func (c *Converter) Run(ctx context.Context, ids []string, labels, list io.Writer) (
	ConvertStats, error) {

	var stats ConvertStats
	err := forEachOrdered(ctx, len(ids), c.Workers,
		func(ctx context.Context, i int) (convertResult, error) {
			return c.convertImage(ids[i])
		},
		func(i int, r convertResult) error {
			if r.missing != nil {
				c.Logger.Warnw("skipping image", "id", ids[i], "error", r.missing)
				if r.missing.Kind == ImageFileKind {
					stats.SkippedMissingImage++
				} else {
					stats.SkippedMissingAnnotation++
				}
				return nil
			}

			if _, err := io.WriteString(labels, r.line+"\n"); err != nil {
				return errors.Wrap(err, "failed to write the label line")
			}
			if list != nil {
				if _, err := io.WriteString(list, r.imagePath+"\n"); err != nil {
					return errors.Wrap(err, "failed to write the image list")
				}
			}
			stats.Written++
			stats.Objects += r.objects
			c.Logger.Debugw("converted image", "id", ids[i], "objects", r.objects)
			return nil
		})
	if err != nil {
		return stats, err
	}

	c.Logger.Infof("Converted %d images with %d objects, skipped %d with missing images and %d"+
		" with missing annotations", stats.Written, stats.Objects, stats.SkippedMissingImage,
		stats.SkippedMissingAnnotation)
	return stats, nil
}

// convertImage reads, filters and encodes the annotation for image id. A missing file is reported
// in the result, not as an error.
func (c *Converter) convertImage(id string) (convertResult, error) {
	imagePath := c.Layout.ImageFile(id)
	if !fileExists(imagePath) {
		return convertResult{missing: &MissingFileError{Kind: ImageFileKind, Path: imagePath}}, nil
	}
	annotationPath := c.Layout.AnnotationFile(id)
	if !fileExists(annotationPath) {
		return convertResult{
			missing: &MissingFileError{Kind: AnnotationFileKind, Path: annotationPath},
		}, nil
	}

	a, err := ReadAnnotation(annotationPath)
	if err != nil {
		return convertResult{}, err
	}
	rec := ImageRecord{Annotation: a.Retain(c.Vocabulary), ImagePath: imagePath}
	line, err := c.Format.Encode(rec)
	if err != nil {
		return convertResult{}, err
	}

	absPath, err := filepath.Abs(imagePath)
	if err != nil {
		return convertResult{}, errors.Wrapf(err, "cannot resolve %q", imagePath)
	}

	return convertResult{
		imagePath: absPath,
		line:      line,
		objects:   len(rec.Annotation.Detections),
	}, nil
}

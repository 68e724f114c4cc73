package vocconv

// TFRecord packing of converted labels and their images.

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/edaniels/golog"
	"github.com/golang/protobuf/proto"
	"github.com/pkg/errors"
	"github.com/ryszard/tfutils/go/example"
	"github.com/ryszard/tfutils/go/tfrecord"
	"github.com/ryszard/tfutils/proto/tensorflow/core/example" // package tensorflow
)

// Number of written records between progress messages.
const packProgressInterval = 50

// TFFeatureMap maps feature names to their values. Values must be convertible to
// tensorflow.Feature.
type TFFeatureMap map[string]interface{}

// PackStats counts the outcome of a packing run.
type PackStats struct {
	Skipped int // Records whose image could not be read or did not match the label.
	Written int
}

// packResult is the outcome for a single label line.
type packResult struct {
	record []byte
	skip   error // Set if the record was skipped.
}

// PackRecords reads the label file described by cfg, combines every line with its image and writes
// the result as tensorflow.Example records to one or more TFRecord files.
//
// The whole label file is decoded before anything is written; a malformed line is returned as
// *MalformedRecordError. Lines whose image cannot be read, or whose image size differs from the
// size in the line, are logged and skipped. A label file without lines produces a single empty
// record file.
func PackRecords(ctx context.Context, cfg PackConfig, format LineFormat, vocab ClassVocabulary,
	logger golog.Logger) (stats PackStats, err error) {

	lines, err := readLines(cfg.LabelPath)
	if err != nil {
		return stats, err
	}
	labels := make([]LabelLine, 0, len(lines))
	for n, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		l, err := format.Decode(line)
		if err != nil {
			if e, ok := err.(*MalformedRecordError); ok {
				e.Path = cfg.LabelPath
				e.Field = fmt.Sprintf("line %d/%s", n+1, e.Field)
			}
			return stats, err
		}
		labels = append(labels, l)
	}
	logger.Infof("Packing %d labelled images from %s", len(labels), cfg.LabelPath)

	numShards := cfg.NumShards
	if numShards <= 0 {
		numShards = 1
	}
	shardSize := int(math.Ceil(float64(len(labels)) / float64(numShards)))
	if shardSize == 0 {
		shardSize = 1
	}

	var shardFile *os.File
	defer func() {
		if shardFile != nil {
			closeWithErrCheck(shardFile, &err)
		}
	}()

	// openShard closes the current shard file, if any, and creates the given shard.
	openShard := func(shard int) error {
		if shardFile != nil {
			if err := shardFile.Close(); err != nil {
				return errors.Wrap(err, "failed to close the shard")
			}
			shardFile = nil
		}

		shardPath := cfg.RecordPath
		if numShards > 1 {
			shardPath += fmt.Sprintf("-%05d-of-%05d", shard, numShards)
		}
		f, err := os.Create(shardPath)
		if err != nil {
			return errors.Wrapf(err, "failed to create shard at %q", shardPath)
		}
		shardFile = f
		return nil
	}

	// Without labels, a single empty shard is written.
	if len(labels) == 0 {
		if err := openShard(0); err != nil {
			return stats, err
		}
	}

	err = forEachOrdered(ctx, len(labels), cfg.Workers,
		func(ctx context.Context, i int) (packResult, error) {
			return packRecord(labels[i], cfg, vocab)
		},
		func(i int, r packResult) error {
			// Check if a new shard file needs to be opened for writing.
			if i%shardSize == 0 {
				if err := openShard(i / shardSize); err != nil {
					return err
				}
			}

			if r.skip != nil {
				logger.Warnw("skipping record", "image", labels[i].ImagePath, "error", r.skip)
				stats.Skipped++
				return nil
			}

			if err := tfrecord.Write(shardFile, r.record); err != nil {
				return errors.Wrap(err, "failed to write example")
			}
			stats.Written++
			if stats.Written%packProgressInterval == 0 {
				logger.Infof("Processed %d files", stats.Written)
			}
			return nil
		})
	if err != nil {
		return stats, err
	}

	logger.Infof("Successfully wrote %d records to %s, skipped %d", stats.Written, cfg.RecordPath,
		stats.Skipped)
	return stats, nil
}

// packRecord reads the image for l and serialises both into a tensorflow.Example. Problems with the
// image are reported in the result.
func packRecord(l LabelLine, cfg PackConfig, vocab ClassVocabulary) (packResult, error) {
	path := l.ImagePath
	if cfg.Root != "" && !filepath.IsAbs(path) {
		path = filepath.Join(cfg.Root, path)
	}

	// Check the image size against the label.
	imgConfig, imgFormat, err := decodeImageConfig(path)
	if err != nil {
		return packResult{skip: errors.Wrap(err, "failed to decode the image metadata")}, nil
	}
	if imgConfig.Width != l.Width || imgConfig.Height != l.Height {
		return packResult{skip: errors.Errorf("image size %dx%d does not match the label size %dx%d",
			imgConfig.Width, imgConfig.Height, l.Width, l.Height)}, nil
	}

	// Read the image data, resizing it if requested.
	var imgData []byte
	width, height := l.Width, l.Height
	if cfg.ResizeWidth > 0 && cfg.ResizeHeight > 0 {
		img, err := loadImage(path)
		if err != nil {
			return packResult{skip: errors.Wrap(err, "failed to read the image")}, nil
		}
		img = resizeImage(img, cfg.ResizeWidth, cfg.ResizeHeight, imaging.Box, imaging.Linear)
		if imgData, err = encodeJPEG(img, cfg.JPEGQuality); err != nil {
			return packResult{}, errors.Wrapf(err, "failed to encode %q", path)
		}
		imgFormat = "jpeg"
		width, height = cfg.ResizeWidth, cfg.ResizeHeight
	} else if imgData, err = readFile(path); err != nil {
		return packResult{skip: errors.Wrap(err, "failed to read the image")}, nil
	}

	e, err := newTFExample(toTFFeatures(l, vocab, imgData, imgFormat, width, height))
	if err != nil {
		return packResult{}, errors.Wrapf(err, "failed to convert %q", l.ImagePath)
	}
	enc, err := proto.Marshal(e)
	if err != nil {
		return packResult{}, errors.Wrapf(err, "failed to serialise %q", l.ImagePath)
	}

	return packResult{record: enc}, nil
}

// toTFFeatures builds the object detection feature map for a label line and its encoded image. The
// boxes are already normalized; class labels are the vocabulary IDs.
func toTFFeatures(l LabelLine, vocab ClassVocabulary, imgData []byte, imgFormat string,
	width, height int) TFFeatureMap {

	f := make(TFFeatureMap, 16)
	f["image/height"] = height
	f["image/width"] = width
	f["image/filename"] = l.ImagePath
	f["image/source_id"] = l.ImagePath
	f["image/encoded"] = imgData
	f["image/format"] = imgFormat

	numLabels := len(l.Objects)
	xmins := make([]float32, numLabels)
	ymins := make([]float32, numLabels)
	xmaxs := make([]float32, numLabels)
	ymaxs := make([]float32, numLabels)
	classes := make([]string, numLabels)
	classIDs := make([]int64, numLabels)
	for i, o := range l.Objects {
		xmins[i] = float32(o.Box.XMin)
		ymins[i] = float32(o.Box.YMin)
		xmaxs[i] = float32(o.Box.XMax)
		ymaxs[i] = float32(o.Box.YMax)
		classes[i] = vocab.Name(o.ClassID)
		classIDs[i] = int64(o.ClassID)
	}
	f["image/object/bbox/xmin"] = xmins
	f["image/object/bbox/ymin"] = ymins
	f["image/object/bbox/xmax"] = xmaxs
	f["image/object/bbox/ymax"] = ymaxs
	f["image/object/class/text"] = classes
	f["image/object/class/label"] = classIDs

	return f
}

// newTFExample converts f to a tensorflow.Example. example.New panics on values it cannot convert,
// which is returned as an error.
func newTFExample(f TFFeatureMap) (e *tensorflow.Example, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("conversion to TensorFlow Example failed: %v", r)
		}
	}()

	return example.New(f), nil
}

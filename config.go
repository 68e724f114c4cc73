package vocconv

import (
	"path/filepath"
	"runtime"
	"strings"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
)

const defaultJPEGQuality = 92

// ConvertConfig configures the conversion of a VOC image set.
type ConvertConfig struct {
	DevkitPath string // The VOCdevkit directory.
	Format     string // The LineFormat name.
	ListPath   string // The image list output; only written for the "center" format.
	OutputPath string // The label output file.
	Split      string // The image set, e.g. "trainval".
	Workers    int
	Year       string
}

// Layout returns the dataset layout described by c.
func (c ConvertConfig) Layout() Layout {
	return Layout{DevkitPath: c.DevkitPath, Year: c.Year}
}

// Validate checks c and fills in defaults. Paths are cleaned and the format name is lowercased.
// For the "center" format, the list path defaults to <year>_<split>.txt next to the label output.
func (c *ConvertConfig) Validate() error {
	if c.DevkitPath == "" || c.Year == "" || c.Split == "" || c.OutputPath == "" {
		return errors.New("the devkit path, year, split and output path are required")
	}
	c.DevkitPath = filepath.Clean(c.DevkitPath)
	c.OutputPath = filepath.Clean(c.OutputPath)
	c.Format = strings.ToLower(c.Format)

	switch c.Format {
	case "corner":
		if c.ListPath != "" {
			return errors.New("an image list is only written for the center format")
		}
	case "center":
		if c.ListPath == "" {
			c.ListPath = filepath.Join(filepath.Dir(c.OutputPath), c.Year+"_"+c.Split+".txt")
		}
		c.ListPath = filepath.Clean(c.ListPath)
		if c.ListPath == c.OutputPath {
			return errors.New("the label and image list outputs cannot be identical")
		}
	default:
		return errors.Errorf("unsupported format %q", c.Format)
	}

	if c.Workers < 0 {
		return errors.Errorf("invalid number of workers %d", c.Workers)
	} else if c.Workers == 0 {
		c.Workers = runtime.NumCPU()
	}

	return nil
}

// PackConfig configures the conversion of a label file to TFRecord files.
type PackConfig struct {
	Format       string // The LineFormat of the label file.
	JPEGQuality  int    // The quality for re-encoded (resized) images, [1, 100].
	LabelPath    string // The label file to read.
	NumShards    int    // The number of TFRecord shard files.
	RecordPath   string // The TFRecord output path; shards get a suffix.
	ResizeHeight int    // Zero keeps the original size.
	ResizeWidth  int    // Zero keeps the original size.
	Root         string // Prepended to relative image paths of the label file.
	Workers      int
}

// Validate checks c and fills in defaults. The format name is lowercased. An invalid JPEG quality
// is replaced by the default.
func (c *PackConfig) Validate(logger golog.Logger) error {
	if c.LabelPath == "" || c.RecordPath == "" {
		return errors.New("the label file and record output paths are required")
	}
	c.LabelPath = filepath.Clean(c.LabelPath)
	c.RecordPath = filepath.Clean(c.RecordPath)
	if c.LabelPath == c.RecordPath {
		return errors.New("the label input and record output paths cannot be identical")
	}
	c.Format = strings.ToLower(c.Format)
	if c.Format != "corner" && c.Format != "center" {
		return errors.Errorf("unsupported format %q", c.Format)
	}

	if c.ResizeWidth < 0 || c.ResizeHeight < 0 || (c.ResizeWidth == 0) != (c.ResizeHeight == 0) {
		return errors.Errorf("invalid resize dimensions %dx%d; set both or neither",
			c.ResizeWidth, c.ResizeHeight)
	}
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		logger.Warnf("Invalid JPEG quality %d, setting it to %d", c.JPEGQuality, defaultJPEGQuality)
		c.JPEGQuality = defaultJPEGQuality
	}

	if c.NumShards <= 0 {
		c.NumShards = 1
	}
	if c.Workers < 0 {
		return errors.Errorf("invalid number of workers %d", c.Workers)
	} else if c.Workers == 0 {
		c.Workers = runtime.NumCPU()
	}

	return nil
}

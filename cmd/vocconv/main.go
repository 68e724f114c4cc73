// Converts PASCAL VOC annotations to flat label files and packs label files into TFRecords.
package main

import (
	"bufio"
	"io"
	"os"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"

	"github.com/sensorable/vocconv"
)

const (
	flagDebug        = "debug"
	flagFormat       = "format"
	flagListOut      = "list-out"
	flagWorkers      = "workers"
	flagRoot         = "root"
	flagNumShards    = "num-shards"
	flagResizeWidth  = "resize-width"
	flagResizeHeight = "resize-height"
	flagJPEGQuality  = "jpeg-quality"
)

func main() {
	logger := golog.NewLogger("vocconv")
	if err := newApp(logger).Run(os.Args); err != nil {
		logger.Fatal(err)
	}
}

func newApp(logger golog.Logger) *cli.App {
	return &cli.App{
		Name:            "vocconv",
		Usage:           "convert PASCAL VOC annotations to label files",
		HideHelpCommand: true,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  flagDebug,
				Usage: "enable debug logging",
			},
		},
		Before: func(c *cli.Context) error {
			if c.Bool(flagDebug) {
				logger = golog.NewDevelopmentLogger("vocconv")
			}
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:      "convert",
				Usage:     "convert the annotations of a VOC image set",
				ArgsUsage: "<devkit> <year> <split> <output>",
				Flags: []cli.Flag{
					newFormatFlag(),
					&cli.StringFlag{
						Name:  flagListOut,
						Usage: "the image list output `path` (center format; default <year>_<split>.txt next to the output)",
					},
					newWorkersFlag(),
				},
				Action: func(c *cli.Context) error {
					if c.Args().Len() != 4 {
						return errors.New("convert expects <devkit> <year> <split> <output>")
					}
					cfg := vocconv.ConvertConfig{
						DevkitPath: c.Args().Get(0),
						Format:     c.String(flagFormat),
						ListPath:   c.String(flagListOut),
						OutputPath: c.Args().Get(3),
						Split:      c.Args().Get(2),
						Workers:    c.Int(flagWorkers),
						Year:       c.Args().Get(1),
					}
					return convert(c, cfg, logger)
				},
			},
			{
				Name:      "pack",
				Usage:     "pack a label file and its images into TFRecord files",
				ArgsUsage: "<label-file> <record-out>",
				Flags: []cli.Flag{
					newFormatFlag(),
					&cli.StringFlag{
						Name:  flagRoot,
						Usage: "the `dir` that relative image paths in the label file are resolved against",
					},
					&cli.IntFlag{
						Name:  flagNumShards,
						Value: 1,
						Usage: "the number of shard files to create",
					},
					&cli.IntFlag{
						Name:  flagResizeWidth,
						Usage: "resize images to this `width` (requires -resize-height)",
					},
					&cli.IntFlag{
						Name:  flagResizeHeight,
						Usage: "resize images to this `height` (requires -resize-width)",
					},
					&cli.IntFlag{
						Name:  flagJPEGQuality,
						Value: 90,
						Usage: "the quality to use when re-encoding resized images [1, 100]",
					},
					newWorkersFlag(),
				},
				Action: func(c *cli.Context) error {
					if c.Args().Len() != 2 {
						return errors.New("pack expects <label-file> <record-out>")
					}
					cfg := vocconv.PackConfig{
						Format:       c.String(flagFormat),
						JPEGQuality:  c.Int(flagJPEGQuality),
						LabelPath:    c.Args().Get(0),
						NumShards:    c.Int(flagNumShards),
						RecordPath:   c.Args().Get(1),
						ResizeHeight: c.Int(flagResizeHeight),
						ResizeWidth:  c.Int(flagResizeWidth),
						Root:         c.String(flagRoot),
						Workers:      c.Int(flagWorkers),
					}
					return pack(c, cfg, logger)
				},
			},
		},
	}
}

func newFormatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  flagFormat,
		Value: "corner",
		Usage: "the label line `format` {corner, center}",
	}
}

func newWorkersFlag() cli.Flag {
	return &cli.IntFlag{
		Name:    flagWorkers,
		EnvVars: []string{"VOCCONV_WORKERS"},
		Usage:   "the number of images processed concurrently (0 uses all CPUs)",
	}
}

func convert(c *cli.Context, cfg vocconv.ConvertConfig, logger golog.Logger) (err error) {
	if err := cfg.Validate(); err != nil {
		return err
	}
	vocab := vocconv.VOCClasses()
	format, err := vocconv.ParseLineFormat(cfg.Format, vocab)
	if err != nil {
		return err
	}

	layout := cfg.Layout()
	logger.Infof("Processing VOC%s-%s: %s", cfg.Year, cfg.Split, layout.Dir())
	ids, err := vocconv.ReadImageIDs(layout.ImageSetFile(cfg.Split))
	if err != nil {
		return err
	}
	logger.Infof("Found %d images", len(ids))

	labels, flushLabels, err := createOutput(cfg.OutputPath)
	if err != nil {
		return err
	}
	defer func() { multierr.AppendInto(&err, flushLabels()) }()

	var list io.Writer
	if cfg.Format == "center" {
		var listFile *bufio.Writer
		var flushList func() error
		if listFile, flushList, err = createOutput(cfg.ListPath); err != nil {
			return err
		}
		defer func() { multierr.AppendInto(&err, flushList()) }()
		list = listFile
	}

	converter := vocconv.Converter{
		Format:     format,
		Layout:     layout,
		Logger:     logger,
		Vocabulary: vocab,
		Workers:    cfg.Workers,
	}
	if _, err := converter.Run(c.Context, ids, labels, list); err != nil {
		return errors.Wrap(err, "conversion failed")
	}

	logger.Infof("Successfully wrote labels to %s", cfg.OutputPath)
	return nil
}

func pack(c *cli.Context, cfg vocconv.PackConfig, logger golog.Logger) error {
	if err := cfg.Validate(logger); err != nil {
		return err
	}
	vocab := vocconv.VOCClasses()
	format, err := vocconv.ParseLineFormat(cfg.Format, vocab)
	if err != nil {
		return err
	}

	if _, err := vocconv.PackRecords(c.Context, cfg, format, vocab, logger); err != nil {
		return errors.Wrap(err, "packing failed")
	}
	return nil
}

// createOutput creates the file at path for buffered writing. The returned function flushes the
// buffer and closes the file.
func createOutput(path string) (*bufio.Writer, func() error, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "cannot create %q", path)
	}
	w := bufio.NewWriter(f)

	return w, func() error {
		return multierr.Combine(w.Flush(), f.Close())
	}, nil
}

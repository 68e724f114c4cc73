package vocconv

import (
	"bytes"
	"image"
	_ "image/jpeg" // Register the decoders for image.DecodeConfig.
	_ "image/png"
	"os"

	"github.com/disintegration/imaging"
)

// resizeImage resamples img to exactly width x height. downsamplingFilter is used when the output
// has fewer pixels than the input, upsamplingFilter otherwise.
func resizeImage(img image.Image, width, height int,
	downsamplingFilter, upsamplingFilter imaging.ResampleFilter) image.Image {

	b := img.Bounds()
	if b.Dx() == width && b.Dy() == height {
		return img
	}

	filter := upsamplingFilter
	if width*height < b.Dx()*b.Dy() {
		filter = downsamplingFilter
	}
	return imaging.Resize(img, width, height, filter)
}

// decodeImageConfig opens the file at path and returns the results of image.DecodeConfig.
func decodeImageConfig(path string) (config image.Config, format string, err error) {
	file, err := os.Open(path)
	if err != nil {
		return image.Config{}, "", err
	}
	defer file.Close()

	return image.DecodeConfig(file)
}

// loadImage reads and decodes the image at path.
func loadImage(path string) (image.Image, error) {
	return imaging.Open(path)
}

// encodeJPEG encodes img as JPEG with the given quality.
func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

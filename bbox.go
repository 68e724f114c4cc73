package vocconv

// Bounding box normalization.

// PixelBox is an axis-aligned box in absolute pixel coordinates, with the fields in the order
// they are read from an annotation.
type PixelBox struct {
	XMin, XMax, YMin, YMax float64
}

// CornerBox is a box given by its extents, normalized to the image size.
type CornerBox struct {
	XMin, YMin, XMax, YMax float64
}

// CenterBox is a box given by its center and size, normalized to the image size.
type CenterBox struct {
	XCenter, YCenter, Width, Height float64
}

// NormalizeCorner scales b by the reciprocal image width and height. Coordinates are neither
// rounded nor clamped, so boxes outside the image map outside [0, 1].
func NormalizeCorner(width, height int, b PixelBox) CornerBox {
	dw := 1 / float64(width)
	dh := 1 / float64(height)
	return CornerBox{
		XMin: b.XMin * dw,
		YMin: b.YMin * dh,
		XMax: b.XMax * dw,
		YMax: b.YMax * dh,
	}
}

// NormalizeCenter converts b to center form and scales it by the reciprocal image width and
// height.
func NormalizeCenter(width, height int, b PixelBox) CenterBox {
	dw := 1 / float64(width)
	dh := 1 / float64(height)
	return CenterBox{
		XCenter: (b.XMin + b.XMax) / 2 * dw,
		YCenter: (b.YMin + b.YMax) / 2 * dh,
		Width:   (b.XMax - b.XMin) * dw,
		Height:  (b.YMax - b.YMin) * dh,
	}
}

// Denormalize scales b back to pixel coordinates for an image of the given size.
func (b CornerBox) Denormalize(width, height int) PixelBox {
	w, h := float64(width), float64(height)
	return PixelBox{XMin: b.XMin * w, XMax: b.XMax * w, YMin: b.YMin * h, YMax: b.YMax * h}
}

// Corner converts b to corner form.
func (b CenterBox) Corner() CornerBox {
	return CornerBox{
		XMin: b.XCenter - b.Width/2,
		YMin: b.YCenter - b.Height/2,
		XMax: b.XCenter + b.Width/2,
		YMax: b.YCenter + b.Height/2,
	}
}

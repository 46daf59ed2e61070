package images

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// Outline returns a copy of frame with a one pixel border drawn around each
// rectangle. Rectangles are clipped to the frame; the input is not touched.
func Outline(frame image.Image, rects []image.Rectangle, c color.Color) *image.NRGBA {
	if frame == nil {
		return nil
	}
	out := imaging.Clone(frame)
	b := out.Bounds()
	for _, r := range rects {
		r = r.Intersect(b)
		if r.Empty() {
			continue
		}
		for x := r.Min.X; x < r.Max.X; x++ {
			out.Set(x, r.Min.Y, c)
			out.Set(x, r.Max.Y-1, c)
		}
		for y := r.Min.Y; y < r.Max.Y; y++ {
			out.Set(r.Min.X, y, c)
			out.Set(r.Max.X-1, y, c)
		}
	}
	return out
}

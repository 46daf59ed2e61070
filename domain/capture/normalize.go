package capture

import (
	"image"

	"golang.org/x/image/draw"
)

// Normalize crops topCrop rows off src and scales the rest to width,
// preserving aspect ratio. Detection percentages are tuned against this
// working width. A width <= 0 only crops.
func Normalize(src image.Image, width, topCrop int) *image.RGBA {
	if src == nil {
		return nil
	}
	b := src.Bounds()
	if topCrop > 0 && topCrop < b.Dy() {
		b.Min.Y += topCrop
	}
	if width <= 0 || width == b.Dx() {
		dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Copy(dst, image.Point{}, src, b, draw.Src, nil)
		return dst
	}
	height := b.Dy() * width / b.Dx()
	if height < 1 {
		height = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return dst
}

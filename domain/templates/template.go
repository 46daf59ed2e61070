package templates

import (
	"image"
	"math"
)

// Template is an immutable intensity bitmap with the statistics the
// matcher needs. Pixels with zero alpha are excluded from the statistics
// and flagged in Mask.
type Template struct {
	Name string
	W, H int
	Gray []float32
	Mask []bool // true where the pixel participates
	Mean float64
	Std  float64
	N    int // participating pixel count
}

// Luma converts 8-bit RGB to intensity using Rec. 709 weights.
func Luma(r, g, b uint8) float64 {
	return 0.2126*float64(r) + 0.7152*float64(g) + 0.0722*float64(b)
}

// FromImage builds a Template from img. It returns nil for an empty image.
func FromImage(name string, img image.Image) *Template {
	if img == nil {
		return nil
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return nil
	}
	t := &Template{
		Name: name,
		W:    w,
		H:    h,
		Gray: make([]float32, w*h),
		Mask: make([]bool, w*h),
	}
	var sum, sum2 float64
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, bb, a := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			if a == 0 {
				continue
			}
			v := Luma(uint8(r>>8), uint8(g>>8), uint8(bb>>8))
			off := y*w + x
			t.Gray[off] = float32(v)
			t.Mask[off] = true
			sum += v
			sum2 += v * v
			t.N++
		}
	}
	if t.N == 0 {
		return t
	}
	n := float64(t.N)
	t.Mean = sum / n
	if v := (sum2 - sum*sum/n) / n; v > 0 {
		t.Std = math.Sqrt(v)
	}
	return t
}

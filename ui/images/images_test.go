package images

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func TestScaleToFitKeepsAspect(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 1000, 560))
	got := ScaleToFit(src, 400, 400)
	if got.Bounds().Dx() != 400 || got.Bounds().Dy() != 224 {
		t.Fatalf("expected 400x224, got %v", got.Bounds().Size())
	}
}

func TestScaleToFitReturnsSmallImages(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 100, 50))
	if got := ScaleToFit(src, 400, 225); got != image.Image(src) {
		t.Fatalf("small image should be returned as-is")
	}
	if ScaleToFit(nil, 10, 10) != nil {
		t.Fatalf("nil in, nil out")
	}
}

func TestEncodePNGRoundTrips(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 3, 2))
	data := EncodePNG(src)
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if img.Bounds().Size() != image.Pt(3, 2) {
		t.Fatalf("size %v", img.Bounds().Size())
	}
}

func TestOutlineDrawsBorderOnCopy(t *testing.T) {
	frame := image.NewRGBA(image.Rect(0, 0, 20, 20))
	red := color.NRGBA{255, 0, 0, 255}
	out := Outline(frame, []image.Rectangle{image.Rect(5, 5, 10, 10), image.Rect(15, 15, 40, 40)}, red)

	if out.NRGBAAt(5, 5) != red || out.NRGBAAt(9, 9) != red || out.NRGBAAt(7, 5) != red {
		t.Fatalf("border not drawn")
	}
	if out.NRGBAAt(7, 7) == red {
		t.Fatalf("interior should stay untouched")
	}
	if out.NRGBAAt(19, 19) != red {
		t.Fatalf("clipped rectangle should be drawn at the frame edge")
	}
	if frame.RGBAAt(5, 5) != (color.RGBA{}) {
		t.Fatalf("input frame was modified")
	}
}

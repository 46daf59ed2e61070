package detect

import (
	"image"

	"github.com/soocke/linm-bot-go/domain/roi"
)

// pixel reads frame-relative coordinates straight from Pix.
func pixel(img *image.RGBA, x, y int) (r, g, b uint8, ok bool) {
	b0 := img.Bounds()
	x += b0.Min.X
	y += b0.Min.Y
	if !image.Pt(x, y).In(b0) {
		return 0, 0, 0, false
	}
	i := img.PixOffset(x, y)
	return img.Pix[i], img.Pix[i+1], img.Pix[i+2], true
}

// countColumn counts rows y1..y2-1 of the column whose pixel satisfies
// match. rows is the number of rows inside the frame.
func countColumn(img *image.RGBA, c roi.Column, match func(r, g, b uint8) bool) (n, rows int) {
	b := img.Bounds()
	x, y1, y2 := c.Px(b.Dx(), b.Dy())
	for y := y1; y < y2; y++ {
		r, g, bl, ok := pixel(img, x, y)
		if !ok {
			continue
		}
		rows++
		if match(r, g, bl) {
			n++
		}
	}
	return n, rows
}

func pctPx(v float64, size int) int { return int(v * float64(size) / 100) }

func percent(n, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(n) * 100 / float64(total)
}

func clampPct(v int) int { return min(max(v, 0), 100) }

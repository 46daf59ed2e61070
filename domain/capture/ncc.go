package capture

import (
	"image"
	"math"

	"github.com/soocke/linm-bot-go/domain/templates"
)

// grayPrecomp stores per-pixel intensity for a search region and its
// summed-area tables (integral images). The integrals allow O(1) window sum
// and variance queries.
type grayPrecomp struct {
	gray       []float64 // per pixel intensity (length W*H)
	integral   []float64 // summed-area table of intensity
	integralSq []float64 // summed-area table of intensity squared
	W, H       int
	Origin     image.Point // top-left of the region in frame coordinates
}

// buildGrayPrecomp converts region r of frame to intensity and computes its
// integral images. Pixel access goes straight to Pix for speed.
func buildGrayPrecomp(frame *image.RGBA, r image.Rectangle) *grayPrecomp {
	r = r.Intersect(frame.Bounds())
	if r.Empty() {
		return nil
	}
	W, H := r.Dx(), r.Dy()
	need := W * H
	p := &grayPrecomp{
		gray:       make([]float64, need),
		integral:   make([]float64, need),
		integralSq: make([]float64, need),
		W:          W,
		H:          H,
		Origin:     r.Min,
	}
	for y := 0; y < H; y++ {
		var rowSum, rowSum2 float64
		i := frame.PixOffset(r.Min.X, r.Min.Y+y)
		for x := 0; x < W; x++ {
			px := frame.Pix[i : i+4 : i+4]
			i += 4
			var v float64
			if px[3] != 0 {
				v = templates.Luma(px[0], px[1], px[2])
			}
			off := y*W + x
			p.gray[off] = v
			rowSum += v
			rowSum2 += v * v
			if y == 0 {
				p.integral[off] = rowSum
				p.integralSq[off] = rowSum2
			} else {
				p.integral[off] = p.integral[(y-1)*W+x] + rowSum
				p.integralSq[off] = p.integralSq[(y-1)*W+x] + rowSum2
			}
		}
	}
	return p
}

// integralSum returns the inclusive sum over rectangle [x0..x1] x [y0..y1]
// from an integral image stored in row-major order with width W.
func integralSum(I []float64, W int, x0, y0, x1, y1 int) float64 {
	if x0 > x1 || y0 > y1 {
		return 0
	}
	A := func(x, y int) float64 {
		if x < 0 || y < 0 {
			return 0
		}
		return I[y*W+x]
	}
	return A(x1, y1) - A(x0-1, y1) - A(x1, y0-1) + A(x0-1, y0-1)
}

// scoreAt computes the normalised cross-correlation of tpl placed with its
// top-left at (x, y) in region coordinates. ok is false for flat windows.
func scoreAt(pre *grayPrecomp, tpl *templates.Template, x, y int) (float64, bool) {
	w, h := tpl.W, tpl.H
	n := float64(tpl.N)
	full := tpl.N == w*h

	var sumF, sumF2, sumFT float64
	if full {
		sumF = integralSum(pre.integral, pre.W, x, y, x+w-1, y+h-1)
		sumF2 = integralSum(pre.integralSq, pre.W, x, y, x+w-1, y+h-1)
	}
	for ty := 0; ty < h; ty++ {
		row := (y+ty)*pre.W + x
		trow := ty * w
		for tx := 0; tx < w; tx++ {
			if !full && !tpl.Mask[trow+tx] {
				continue
			}
			f := pre.gray[row+tx]
			sumFT += f * float64(tpl.Gray[trow+tx])
			if !full {
				sumF += f
				sumF2 += f * f
			}
		}
	}
	meanF := sumF / n
	varF := (sumF2 - sumF*sumF/n) / n

	if tpl.Std <= 1e-9 {
		// Flat template: only an equally flat window of the same level matches.
		if varF <= 1e-6 && math.Abs(meanF-tpl.Mean) <= 0.5 {
			return 1, true
		}
		return 0, false
	}
	if varF <= 1e-9 {
		return 0, false
	}
	denom := n * math.Sqrt(varF) * tpl.Std
	return (sumFT - n*meanF*tpl.Mean) / denom, true
}

// bestNCC scans every placement (at stride, with optional refinement) and
// returns the global maximum.
func bestNCC(pre *grayPrecomp, tpl *templates.Template, stride int, refine bool) (Match, bool) {
	if pre == nil || tpl == nil || pre.W < tpl.W || pre.H < tpl.H {
		return Match{}, false
	}
	if stride <= 0 {
		stride = 1
	}
	bestX, bestY, best := 0, 0, math.Inf(-1)
	scan := func(x0, y0, x1, y1, step int) {
		for y := y0; y <= y1; y += step {
			for x := x0; x <= x1; x += step {
				s, ok := scoreAt(pre, tpl, x, y)
				if ok && s > best {
					best, bestX, bestY = s, x, y
				}
			}
		}
	}
	maxX, maxY := pre.W-tpl.W, pre.H-tpl.H
	scan(0, 0, maxX, maxY, stride)
	if math.IsInf(best, -1) {
		return Match{}, false
	}
	if refine && stride > 1 {
		scan(max(0, bestX-stride), max(0, bestY-stride), min(maxX, bestX+stride), min(maxY, bestY+stride), 1)
	}
	return Match{
		Confidence: best,
		X:          bestX + pre.Origin.X,
		Y:          bestY + pre.Origin.Y,
		W:          tpl.W,
		H:          tpl.H,
	}, true
}

// allNCC returns every placement scoring at least threshold.
func allNCC(pre *grayPrecomp, tpl *templates.Template, threshold float64) []Match {
	if pre == nil || tpl == nil || pre.W < tpl.W || pre.H < tpl.H {
		return nil
	}
	var out []Match
	for y := 0; y <= pre.H-tpl.H; y++ {
		for x := 0; x <= pre.W-tpl.W; x++ {
			s, ok := scoreAt(pre, tpl, x, y)
			if !ok || s < threshold {
				continue
			}
			out = append(out, Match{Confidence: s, X: x + pre.Origin.X, Y: y + pre.Origin.Y, W: tpl.W, H: tpl.H})
		}
	}
	return out
}

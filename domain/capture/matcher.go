package capture

import (
	"fmt"
	"image"
	"sort"

	"github.com/soocke/linm-bot-go/domain/templates"
)

// Match is a template hit in frame coordinates.
type Match struct {
	Confidence float64
	X, Y, W, H int
}

// Rect returns the matched rectangle.
func (m Match) Rect() image.Rectangle { return image.Rect(m.X, m.Y, m.X+m.W, m.Y+m.H) }

// Center returns the centre of the matched rectangle.
func (m Match) Center() image.Point { return image.Pt(m.X+m.W/2, m.Y+m.H/2) }

// TemplateSource resolves templates by name.
type TemplateSource interface {
	Get(name string) (*templates.Template, error)
}

// Matcher runs normalised cross-correlation of stored templates against
// frames. It holds no per-call state and is safe for concurrent use.
type Matcher struct {
	source TemplateSource
	stride int
	refine bool
}

// NewMatcher returns a Matcher scanning at stride (with a refinement pass
// around the coarse maximum when refine is set).
func NewMatcher(source TemplateSource, stride int, refine bool) *Matcher {
	if stride <= 0 {
		stride = 1
	}
	return &Matcher{source: source, stride: stride, refine: refine}
}

// Match returns the global best placement of name inside search. An empty
// search rectangle means the whole frame. It returns ErrNotFound when the
// best confidence is below threshold and templates.ErrTemplateMissing when
// the template cannot be loaded.
func (m *Matcher) Match(frame *image.RGBA, name string, threshold float64, search image.Rectangle) (Match, error) {
	tpl, pre, err := m.prepare(frame, name, search)
	if err != nil {
		return Match{}, err
	}
	best, ok := bestNCC(pre, tpl, m.stride, m.refine)
	if !ok {
		return Match{}, ErrNotFound
	}
	if best.Confidence < threshold {
		return best, fmt.Errorf("%w: %s best %.3f < %.3f", ErrNotFound, name, best.Confidence, threshold)
	}
	return best, nil
}

// MatchAll returns every placement at or above threshold after greedy
// non-max suppression, strongest first.
func (m *Matcher) MatchAll(frame *image.RGBA, name string, threshold float64, search image.Rectangle) ([]Match, error) {
	tpl, pre, err := m.prepare(frame, name, search)
	if err != nil {
		return nil, err
	}
	return Suppress(allNCC(pre, tpl, threshold)), nil
}

func (m *Matcher) prepare(frame *image.RGBA, name string, search image.Rectangle) (*templates.Template, *grayPrecomp, error) {
	if m == nil || m.source == nil {
		return nil, nil, templates.ErrTemplateMissing
	}
	tpl, err := m.source.Get(name)
	if err != nil {
		return nil, nil, err
	}
	if frame == nil {
		return nil, nil, ErrNotFound
	}
	if search.Empty() {
		search = frame.Bounds()
	}
	pre := buildGrayPrecomp(frame, search)
	if pre == nil || pre.W < tpl.W || pre.H < tpl.H {
		return nil, nil, ErrNotFound
	}
	return tpl, pre, nil
}

// Suppress applies greedy non-max suppression: candidates are taken in
// descending confidence and dropped when their centre is within half a
// template width and half a template height of one already kept.
func Suppress(cands []Match) []Match {
	sorted := append([]Match(nil), cands...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Confidence > sorted[j].Confidence })
	var kept []Match
	for _, c := range sorted {
		cc := c.Center()
		near := false
		for _, k := range kept {
			kc := k.Center()
			if 2*abs(cc.X-kc.X) < c.W && 2*abs(cc.Y-kc.Y) < c.H {
				near = true
				break
			}
		}
		if !near {
			kept = append(kept, c)
		}
	}
	return kept
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

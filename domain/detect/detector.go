package detect

import (
	"errors"
	"image"
	"log/slog"

	"github.com/soocke/linm-bot-go/domain/capture"
	"github.com/soocke/linm-bot-go/domain/roi"
	"github.com/soocke/linm-bot-go/domain/templates"
)

// Matcher is the template path. capture.Matcher satisfies it.
type Matcher interface {
	Match(frame *image.RGBA, name string, threshold float64, search image.Rectangle) (capture.Match, error)
}

// Detector turns a frame into a GameState. Each signal tries its template
// first and falls back to pixel sampling when the template is not stored.
// Safe for concurrent use; it holds no per-frame state.
type Detector struct {
	cat     roi.Catalog
	matcher Matcher
	logger  *slog.Logger
}

// New returns a detector. matcher may be nil to force the pixel path.
func New(cat roi.Catalog, matcher Matcher, logger *slog.Logger) *Detector {
	return &Detector{cat: cat, matcher: matcher, logger: logger}
}

// Catalog returns the catalog the detector samples with.
func (d *Detector) Catalog() roi.Catalog { return d.cat }

// Detect computes the full state for one frame and team slot.
func (d *Detector) Detect(frame *image.RGBA, slot int) GameState {
	st := GameState{HP: Unknown(), MP: Unknown()}
	if frame == nil {
		return st
	}
	st.TeamEnabled = d.TeamEnabled(frame)
	st.Overlay = d.OverlayMode(frame)
	st.PanelOpen = d.PanelOpen(frame)
	st.IsUnderAttack = d.UnderAttack(frame)
	if !st.Readable() {
		return st
	}
	if s, ok := d.readableSlot(frame, slot); ok {
		var hp int
		hp, st.Poisoned = d.HP(frame, s)
		st.HP = Known(hp)
		st.MP = Known(d.MP(frame, s))
	}
	st.IsAttacking = d.Attacking(frame)
	return st
}

// readableSlot picks the configured slot, or slot 0 when the configured one
// shows no bar.
func (d *Detector) readableSlot(frame *image.RGBA, slot int) (int, bool) {
	if d.SlotAvailable(frame, slot) {
		return slot, true
	}
	if slot != 0 && d.SlotAvailable(frame, 0) {
		return 0, true
	}
	return 0, false
}

// template reports (matched, decided). decided is false when the caller
// should fall back to pixels.
func (d *Detector) template(frame *image.RGBA, name string) (bool, bool) {
	if d.matcher == nil {
		return false, false
	}
	spec, ok := d.cat.Template(name)
	if !ok {
		return false, false
	}
	var search image.Rectangle
	if !spec.Search.IsZero() {
		b := frame.Bounds()
		search = spec.Search.Px(b.Dx(), b.Dy())
	}
	m, err := d.matcher.Match(frame, name, spec.Threshold, search)
	switch {
	case err == nil:
		if d.logger != nil {
			d.logger.Debug("template matched", "template", name, "confidence", m.Confidence)
		}
		return true, true
	case errors.Is(err, capture.ErrNotFound):
		return false, true
	case errors.Is(err, templates.ErrTemplateMissing):
		return false, false
	default:
		if d.logger != nil {
			d.logger.Debug("template match failed, using pixels", "template", name, "error", err)
		}
		return false, false
	}
}

// TeamEnabled reports whether the party frame is visible.
func (d *Detector) TeamEnabled(frame *image.RGBA) bool {
	if hit, ok := d.template(frame, roi.TemplateTeamEnabled); ok {
		return hit
	}
	t := d.cat.Team
	bright := func(r, g, b uint8) bool {
		return int(r) >= t.Bright && int(g) >= t.Bright && int(b) >= t.Bright
	}
	n1, rows1 := countColumn(frame, t.First, bright)
	if rows1 == 0 || float64(n1) < t.FirstFraction*float64(rows1) {
		return false
	}
	n2, _ := countColumn(frame, t.Second, bright)
	return n2 >= max(t.SecondMinCount, 1)
}

// OverlayMode buckets the team columns. Mid-grey in both columns is a
// confirmation dialog; near-black in both is a plain dialogue.
func (d *Detector) OverlayMode(frame *image.RGBA) Overlay {
	o := d.cat.Overlay
	in := func(rg roi.Range) func(r, g, b uint8) bool {
		return func(r, g, b uint8) bool {
			return rg.Contains(int(r)) && rg.Contains(int(g)) && rg.Contains(int(b))
		}
	}
	both := func(match func(r, g, b uint8) bool) bool {
		for _, c := range []roi.Column{d.cat.Team.First, d.cat.Team.Second} {
			n, rows := countColumn(frame, c, match)
			if rows == 0 || float64(n) < o.Fraction*float64(rows) {
				return false
			}
		}
		return true
	}
	if both(in(o.Grey)) {
		return DialogDark
	}
	if both(in(o.Dark)) {
		return DialogGrey
	}
	return OverlayNone
}

// PanelOpen reports whether the item/skill panel covers the right side.
func (d *Detector) PanelOpen(frame *image.RGBA) bool {
	if hit, ok := d.template(frame, roi.TemplatePanelOpened); ok {
		return hit
	}
	p := d.cat.Panel
	n, rows := countColumn(frame, p.Column, func(r, g, b uint8) bool {
		for _, s := range p.Signatures {
			if s.Match(r, g, b) {
				return true
			}
		}
		return false
	})
	return rows > 0 && percent(n, rows) >= p.MinPercent
}

// SlotAvailable checks the single slot marker pixel. It only reads the frame.
func (d *Detector) SlotAvailable(frame *image.RGBA, slot int) bool {
	s := d.cat.Slot
	b := frame.Bounds()
	x := pctPx(s.X, b.Dx())
	y := pctPx(s.BaseY+s.Step*float64(roi.SlotIndex(slot)), b.Dy())
	r, g, bl, ok := pixel(frame, x, y)
	if !ok {
		return false
	}
	return s.Sum.Contains(int(r) + int(g) + int(bl))
}

// HP returns the hp percentage for a slot and whether any poison-tinted
// pixel was seen. When no pixel has the hp colour the poison count stands in.
func (d *Detector) HP(frame *image.RGBA, slot int) (int, bool) {
	bar := d.cat.HP
	x1, x2, y := bar.Strip(slot).Px(frame.Bounds().Dx(), frame.Bounds().Dy())
	width := x2 - x1
	if width <= 0 {
		return 0, false
	}
	var n, poison int
	for x := x1; x < x2; x++ {
		r, g, b, ok := pixel(frame, x, y)
		if !ok {
			continue
		}
		switch {
		case bar.Color.Match(r, g, b):
			n++
		case bar.Poison != nil && bar.Poison.Match(r, g, b):
			poison++
		}
	}
	if n == 0 {
		n = poison
	}
	return clampPct(n * 100 / width), poison > 0
}

// MP returns the mp percentage for a slot.
func (d *Detector) MP(frame *image.RGBA, slot int) int {
	bar := d.cat.MP
	x1, x2, y := bar.Strip(slot).Px(frame.Bounds().Dx(), frame.Bounds().Dy())
	width := x2 - x1
	if width <= 0 {
		return 0
	}
	var n int
	for x := x1; x < x2; x++ {
		if r, g, b, ok := pixel(frame, x, y); ok && bar.Color.Match(r, g, b) {
			n++
		}
	}
	return clampPct(n * 100 / width)
}

// Attacking reports whether the attack glyph is lit. The pixel path walks
// the strip diagonally, one row down per column, following the glyph edge.
func (d *Detector) Attacking(frame *image.RGBA) bool {
	if hit, ok := d.template(frame, roi.TemplateIsAttack); ok {
		return hit
	}
	a := d.cat.Attack
	x1, x2, y := roi.Strip{X1: a.X1, X2: a.X2, Y: a.Y}.Px(frame.Bounds().Dx(), frame.Bounds().Dy())
	if x2 < x1 {
		return false
	}
	var n int
	for x := x1; x <= x2; x, y = x+1, y+1 {
		r, g, b, ok := pixel(frame, x, y)
		if !ok {
			continue
		}
		near := a.Near.Match(r, g, b)
		far := int(r)-int(g) >= a.RedMinusG && int(r)-int(b) >= a.RedMinusB
		if near || far {
			n++
		}
	}
	return percent(n, x2-x1+1) >= a.MinPercent
}

// UnderAttack reports whether the red damage cues are present. Both the
// bottom-right block and the top-left strip must pass.
func (d *Detector) UnderAttack(frame *image.RGBA) bool {
	if hit, ok := d.template(frame, roi.TemplateIsAttacked); ok {
		return hit
	}
	u := d.cat.UnderAttack
	w, h := frame.Bounds().Dx(), frame.Bounds().Dy()

	block := u.Block.Px(w, h)
	var n, total int
	for y := block.Min.Y; y < max(block.Max.Y, block.Min.Y+1); y++ {
		for x := block.Min.X; x < max(block.Max.X, block.Min.X+1); x++ {
			r, g, _, ok := pixel(frame, x, y)
			if !ok {
				continue
			}
			total++
			if int(r) >= u.BlockMinR && int(r)-int(g) >= u.BlockRedMinusG {
				n++
			}
		}
	}
	if total == 0 || percent(n, total) < u.BlockMinPercent {
		return false
	}

	x1, x2, y := u.Strip.Px(w, h)
	n, total = 0, 0
	for x := x1; x <= x2; x++ {
		r, g, b, ok := pixel(frame, x, y)
		if !ok {
			continue
		}
		total++
		if int(r)-int(g) >= u.StripRedMinusG && int(r)-int(b) >= u.StripRedMinusB {
			n++
		}
	}
	return total > 0 && percent(n, total) >= u.StripMinPercent
}

// Region is a named sampling area in frame pixels.
type Region struct {
	Name string
	Rect image.Rectangle
}

// Regions lists where the pixel path samples for a frame of the given size,
// for drawing on the preview.
func (d *Detector) Regions(size image.Point, slot int) []Region {
	w, h := size.X, size.Y
	col := func(c roi.Column) image.Rectangle {
		x, y1, y2 := c.Px(w, h)
		return image.Rect(x, y1, x+1, y2)
	}
	strip := func(s roi.Strip) image.Rectangle {
		x1, x2, y := s.Px(w, h)
		return image.Rect(x1, y, x2, y+1)
	}
	s := d.cat.Slot
	sx := pctPx(s.X, w)
	sy := pctPx(s.BaseY+s.Step*float64(roi.SlotIndex(slot)), h)
	a := d.cat.Attack
	ax1, ax2, ay := roi.Strip{X1: a.X1, X2: a.X2, Y: a.Y}.Px(w, h)
	return []Region{
		{Name: "team1", Rect: col(d.cat.Team.First)},
		{Name: "team2", Rect: col(d.cat.Team.Second)},
		{Name: "panel", Rect: col(d.cat.Panel.Column)},
		{Name: "slot", Rect: image.Rect(sx-1, sy-1, sx+2, sy+2)},
		{Name: "hp", Rect: strip(d.cat.HP.Strip(slot))},
		{Name: "mp", Rect: strip(d.cat.MP.Strip(slot))},
		{Name: "attack", Rect: image.Rect(ax1, ay, ax2+1, ay+ax2-ax1+1)},
		{Name: "attacked", Rect: d.cat.UnderAttack.Block.Px(w, h)},
		{Name: "attacked-strip", Rect: strip(d.cat.UnderAttack.Strip)},
	}
}

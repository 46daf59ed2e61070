package detect

import (
	"fmt"
	"image"
	"image/color"
	"testing"

	"github.com/soocke/linm-bot-go/domain/capture"
	"github.com/soocke/linm-bot-go/domain/roi"
	"github.com/soocke/linm-bot-go/domain/templates"
)

const (
	frameW = 1000
	frameH = 560
)

var (
	white   = color.RGBA{R: 245, G: 245, B: 245, A: 255}
	hpRed   = color.RGBA{R: 170, G: 5, B: 5, A: 255}
	poison  = color.RGBA{R: 10, G: 48, B: 5, A: 255}
	mpBlue  = color.RGBA{R: 10, G: 90, B: 160, A: 255}
	panelBg = color.RGBA{R: 30, G: 20, B: 15, A: 255}
	gore    = color.RGBA{R: 240, G: 60, B: 40, A: 255}
)

func blank() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, frameW, frameH))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = 90, 100, 80, 255
	}
	return img
}

func paintColumn(img *image.RGBA, c roi.Column, col color.RGBA) {
	x, y1, y2 := c.Px(frameW, frameH)
	for y := y1; y < y2; y++ {
		img.SetRGBA(x, y, col)
	}
}

// paintStrip colours the first n pixels of a strip.
func paintStrip(img *image.RGBA, s roi.Strip, n int, col color.RGBA) {
	x1, _, y := s.Px(frameW, frameH)
	for x := x1; x < x1+n; x++ {
		img.SetRGBA(x, y, col)
	}
}

func stripWidth(s roi.Strip) int {
	x1, x2, _ := s.Px(frameW, frameH)
	return x2 - x1
}

func paintSlot(img *image.RGBA, cat roi.Catalog, slot int) {
	x := pctPx(cat.Slot.X, frameW)
	y := pctPx(cat.Slot.BaseY+cat.Slot.Step*float64(roi.SlotIndex(slot)), frameH)
	img.SetRGBA(x, y, white)
}

func paintTeam(img *image.RGBA, cat roi.Catalog) {
	paintColumn(img, cat.Team.First, white)
	paintColumn(img, cat.Team.Second, white)
}

func paintAttack(img *image.RGBA, cat roi.Catalog) {
	a := cat.Attack
	x1, x2, y := roi.Strip{X1: a.X1, X2: a.X2, Y: a.Y}.Px(frameW, frameH)
	for x := x1; x <= x2; x, y = x+1, y+1 {
		img.SetRGBA(x, y, gore)
	}
}

type matchResult struct {
	m   capture.Match
	err error
}

// fakeMatcher returns canned results; unknown names are missing templates.
type fakeMatcher map[string]matchResult

func (f fakeMatcher) Match(_ *image.RGBA, name string, _ float64, _ image.Rectangle) (capture.Match, error) {
	if r, ok := f[name]; ok {
		return r.m, r.err
	}
	return capture.Match{}, fmt.Errorf("load %s: %w", name, templates.ErrTemplateMissing)
}

func TestTeamEnabledNeedsBothColumns(t *testing.T) {
	cat := roi.Default()
	d := New(cat, nil, nil)
	img := blank()
	paintColumn(img, cat.Team.First, white)
	if d.TeamEnabled(img) {
		t.Fatalf("one bright column should not enable team")
	}
	paintColumn(img, cat.Team.Second, white)
	if !d.TeamEnabled(img) {
		t.Fatalf("both bright columns should enable team")
	}
}

func TestOverlayBuckets(t *testing.T) {
	cat := roi.Default()
	d := New(cat, nil, nil)
	cases := []struct {
		name string
		v    uint8
		want Overlay
	}{
		{"grey", 118, DialogDark},
		{"dark", 60, DialogGrey},
		{"bright", 245, OverlayNone},
		{"between", 90, OverlayNone},
	}
	for _, tc := range cases {
		img := blank()
		c := color.RGBA{R: tc.v, G: tc.v, B: tc.v, A: 255}
		paintColumn(img, cat.Team.First, c)
		paintColumn(img, cat.Team.Second, c)
		if got := d.OverlayMode(img); got != tc.want {
			t.Fatalf("%s: overlay=%v want %v", tc.name, got, tc.want)
		}
	}
	img := blank()
	paintColumn(img, cat.Team.First, color.RGBA{R: 118, G: 118, B: 118, A: 255})
	if got := d.OverlayMode(img); got != OverlayNone {
		t.Fatalf("single grey column should not count as overlay, got %v", got)
	}
}

func TestPanelOpenThreshold(t *testing.T) {
	cat := roi.Default()
	d := New(cat, nil, nil)
	img := blank()
	x, y1, y2 := cat.Panel.Column.Px(frameW, frameH)
	half := y1 + (y2-y1)/2
	for y := y1; y < half; y++ {
		img.SetRGBA(x, y, panelBg)
	}
	if d.PanelOpen(img) {
		t.Fatalf("half-covered column should not read as open panel")
	}
	paintColumn(img, cat.Panel.Column, panelBg)
	if !d.PanelOpen(img) {
		t.Fatalf("fully covered column should read as open panel")
	}
}

func TestSlotAvailableIdempotent(t *testing.T) {
	cat := roi.Default()
	d := New(cat, nil, nil)
	img := blank()
	paintSlot(img, cat, 2)
	before := append([]uint8(nil), img.Pix...)
	first := d.SlotAvailable(img, 2)
	for i := 0; i < 5; i++ {
		if d.SlotAvailable(img, 2) != first {
			t.Fatalf("slot check not idempotent")
		}
	}
	if !first {
		t.Fatalf("painted slot 2 should be available")
	}
	if d.SlotAvailable(img, 3) {
		t.Fatalf("slot 3 not painted")
	}
	if string(before) != string(img.Pix) {
		t.Fatalf("slot check mutated the frame")
	}
}

func TestHPMonotonicAndBounded(t *testing.T) {
	cat := roi.Default()
	d := New(cat, nil, nil)
	strip := cat.HP.Strip(0)
	w := stripWidth(strip)
	prev := -1
	for n := 0; n <= w; n++ {
		img := blank()
		paintStrip(img, strip, n, hpRed)
		hp, poisoned := d.HP(img, 0)
		if hp < 0 || hp > 100 {
			t.Fatalf("hp %d out of range for %d pixels", hp, n)
		}
		if hp < prev {
			t.Fatalf("hp decreased from %d to %d at %d pixels", prev, hp, n)
		}
		if poisoned {
			t.Fatalf("no poison painted")
		}
		prev = hp
	}
	if prev != 100 {
		t.Fatalf("full strip should be 100, got %d", prev)
	}
}

func TestHPPoisonFallback(t *testing.T) {
	cat := roi.Default()
	d := New(cat, nil, nil)
	strip := cat.HP.Strip(0)
	w := stripWidth(strip)
	img := blank()
	paintStrip(img, strip, w/2, poison)
	hp, poisoned := d.HP(img, 0)
	if !poisoned {
		t.Fatalf("poison tint should set the flag")
	}
	if want := (w / 2) * 100 / w; hp != want {
		t.Fatalf("poison count should stand in for hp: got %d want %d", hp, want)
	}

	paintStrip(img, strip, w/4, hpRed)
	hp, poisoned = d.HP(img, 0)
	if !poisoned || hp != (w/4)*100/w {
		t.Fatalf("hp colour takes precedence when present: hp=%d poisoned=%v", hp, poisoned)
	}
}

func TestMPMonotonic(t *testing.T) {
	cat := roi.Default()
	d := New(cat, nil, nil)
	strip := cat.MP.Strip(1)
	w := stripWidth(strip)
	prev := -1
	for n := 0; n <= w; n += 7 {
		img := blank()
		paintStrip(img, strip, n, mpBlue)
		mp := d.MP(img, 1)
		if mp < prev || mp > 100 {
			t.Fatalf("mp=%d prev=%d at %d pixels", mp, prev, n)
		}
		prev = mp
	}
}

func TestDetectTeamDisabledLeavesLevelsUnknown(t *testing.T) {
	cat := roi.Default()
	d := New(cat, nil, nil)
	img := blank()
	paintSlot(img, cat, 0)
	paintStrip(img, cat.HP.Strip(0), 40, hpRed)
	paintAttack(img, cat)
	st := d.Detect(img, 0)
	if st.TeamEnabled {
		t.Fatalf("team columns not painted")
	}
	if st.HP.IsKnown() || st.MP.IsKnown() || st.HP.Display() != -1 || st.MP.Display() != -1 {
		t.Fatalf("levels must be unknown: hp=%v mp=%v", st.HP, st.MP)
	}
	if st.IsAttacking {
		t.Fatalf("attack is only read when the team frame is readable")
	}
}

func TestDetectReadsConfiguredSlot(t *testing.T) {
	cat := roi.Default()
	d := New(cat, nil, nil)
	img := blank()
	paintTeam(img, cat)
	paintSlot(img, cat, 2)
	hpStrip, mpStrip := cat.HP.Strip(2), cat.MP.Strip(2)
	paintStrip(img, hpStrip, stripWidth(hpStrip)/2, hpRed)
	paintStrip(img, mpStrip, stripWidth(mpStrip), mpBlue)
	paintAttack(img, cat)

	st := d.Detect(img, 2)
	hp, ok := st.HP.Value()
	if !ok || hp != (stripWidth(hpStrip)/2)*100/stripWidth(hpStrip) {
		t.Fatalf("hp=%v", st.HP)
	}
	if mp, ok := st.MP.Value(); !ok || mp != 100 {
		t.Fatalf("mp=%v", st.MP)
	}
	if !st.IsAttacking || st.PanelOpen || st.Overlay != OverlayNone {
		t.Fatalf("unexpected state %+v", st)
	}
}

func TestDetectFallsBackToSlotZero(t *testing.T) {
	cat := roi.Default()
	d := New(cat, nil, nil)
	img := blank()
	paintTeam(img, cat)
	paintSlot(img, cat, 0)
	paintStrip(img, cat.HP.Strip(0), stripWidth(cat.HP.Strip(0)), hpRed)
	st := d.Detect(img, 3)
	if hp, ok := st.HP.Value(); !ok || hp != 100 {
		t.Fatalf("should read slot 0 bars when slot 3 is absent: %v", st.HP)
	}
	st = d.Detect(blankWithTeam(cat), 3)
	if st.HP.IsKnown() {
		t.Fatalf("no slot marker at all should leave hp unknown")
	}
}

func blankWithTeam(cat roi.Catalog) *image.RGBA {
	img := blank()
	paintTeam(img, cat)
	return img
}

func TestAttackTemplateOverridesPixels(t *testing.T) {
	cat := roi.Default()
	img := blankWithTeam(cat)
	d := New(cat, fakeMatcher{roi.TemplateIsAttack: {m: capture.Match{Confidence: 0.81}}}, nil)
	if !d.Attacking(img) {
		t.Fatalf("template at 0.81 should report attacking regardless of pixels")
	}

	paintAttack(img, cat)
	miss := fmt.Errorf("is_attack: %w", capture.ErrNotFound)
	d = New(cat, fakeMatcher{roi.TemplateIsAttack: {err: miss}}, nil)
	if d.Attacking(img) {
		t.Fatalf("a stored template below threshold decides false")
	}

	d = New(cat, fakeMatcher{}, nil)
	if !d.Attacking(img) {
		t.Fatalf("missing template should fall back to pixels")
	}
}

func TestUnderAttackNeedsBothRegions(t *testing.T) {
	cat := roi.Default()
	d := New(cat, nil, nil)
	img := blank()
	block := cat.UnderAttack.Block.Px(frameW, frameH)
	for y := block.Min.Y; y < block.Max.Y; y++ {
		for x := block.Min.X; x < block.Max.X; x++ {
			img.SetRGBA(x, y, gore)
		}
	}
	if d.UnderAttack(img) {
		t.Fatalf("block alone should not trigger")
	}
	paintStrip(img, cat.UnderAttack.Strip, 5, color.RGBA{R: 200, G: 20, B: 20, A: 255})
	if !d.UnderAttack(img) {
		t.Fatalf("block and strip together should trigger")
	}
	d = New(cat, fakeMatcher{roi.TemplateIsAttacked: {err: capture.ErrNotFound}}, nil)
	if d.UnderAttack(img) {
		t.Fatalf("template miss should override pixels")
	}
}

func TestRegionsInsideFrame(t *testing.T) {
	d := New(roi.Default(), nil, nil)
	bounds := image.Rect(0, 0, frameW, frameH)
	for _, r := range d.Regions(bounds.Size(), 4) {
		if r.Rect.Empty() || !r.Rect.In(bounds) {
			t.Fatalf("region %s %v outside frame", r.Name, r.Rect)
		}
	}
}

func TestLevel(t *testing.T) {
	if Known(150).Display() != 100 || Known(-3).Display() != 0 {
		t.Fatalf("Known must clamp")
	}
	u := Unknown()
	if u.Below(50) || u.AtLeast(0) || u.Above(-1) {
		t.Fatalf("unknown must fail every comparison")
	}
	if !Known(30).Below(40) || Known(40).Below(40) || !Known(40).AtLeast(40) {
		t.Fatalf("comparisons wrong")
	}
	var zero Level
	if zero.IsKnown() {
		t.Fatalf("zero value must be unknown")
	}
}

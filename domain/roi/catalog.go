package roi

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/soocke/linm-bot-go/assets"
)

// CurrentVersion is the catalog schema version this build understands.
const CurrentVersion = 1

// Range is an inclusive integer interval.
type Range struct {
	Min int `toml:"min"`
	Max int `toml:"max"`
}

// Contains reports whether v lies within the range.
func (r Range) Contains(v int) bool { return v >= r.Min && v <= r.Max }

// RGBRange bounds each channel independently.
type RGBRange struct {
	R Range `toml:"r"`
	G Range `toml:"g"`
	B Range `toml:"b"`
}

// Match reports whether the colour lies inside all three channel ranges.
func (c RGBRange) Match(r, g, b uint8) bool {
	return c.R.Contains(int(r)) && c.G.Contains(int(g)) && c.B.Contains(int(b))
}

// Column is a vertical run of sample points at a fixed X.
type Column struct {
	X  float64 `toml:"x"`
	Y1 float64 `toml:"y1"`
	Y2 float64 `toml:"y2"`
}

// Px converts the column to pixel coordinates for a w×h frame.
func (c Column) Px(w, h int) (x, y1, y2 int) {
	return pct(c.X, w), pct(c.Y1, h), pct(c.Y2, h)
}

// Strip is a horizontal run of sample points at a fixed Y.
type Strip struct {
	X1 float64 `toml:"x1"`
	X2 float64 `toml:"x2"`
	Y  float64 `toml:"y"`
}

// Px converts the strip to pixel coordinates for a w×h frame.
func (s Strip) Px(w, h int) (x1, x2, y int) {
	return pct(s.X1, w), pct(s.X2, w), pct(s.Y, h)
}

// RectPct is a rectangle expressed as percentages of the frame.
type RectPct struct {
	X1 float64 `toml:"x1"`
	Y1 float64 `toml:"y1"`
	X2 float64 `toml:"x2"`
	Y2 float64 `toml:"y2"`
}

// IsZero reports whether the rectangle was left unset.
func (r RectPct) IsZero() bool { return r == RectPct{} }

// Px converts the rectangle to pixel coordinates for a w×h frame.
func (r RectPct) Px(w, h int) image.Rectangle {
	return image.Rect(pct(r.X1, w), pct(r.Y1, h), pct(r.X2, w), pct(r.Y2, h))
}

func pct(v float64, size int) int { return int(v * float64(size) / 100) }

type FrameSpec struct {
	// Width every captured frame is scaled to before detection.
	Width int `toml:"width"`
	// TitleBar is cropped off window captures, in source pixels.
	TitleBar int `toml:"title_bar"`
}

type TeamSpec struct {
	First          Column  `toml:"first"`
	Second         Column  `toml:"second"`
	Bright         int     `toml:"bright"`
	FirstFraction  float64 `toml:"first_fraction"`
	SecondMinCount int     `toml:"second_min_count"`
}

// OverlaySpec buckets the team columns when a dialog dims the screen.
// A column falls in a bucket when at least Fraction of its samples have all
// three channels inside that bucket's range.
type OverlaySpec struct {
	Grey        Range   `toml:"grey"`
	Dark        Range   `toml:"dark"`
	Fraction    float64 `toml:"fraction"`
	AcceptAfter int     `toml:"accept_after"`
}

type PanelSpec struct {
	Column     Column     `toml:"column"`
	Signatures []RGBRange `toml:"signatures"`
	MinPercent float64    `toml:"min_percent"`
}

// SlotSpec locates the single point checked for team slot availability.
type SlotSpec struct {
	X     float64 `toml:"x"`
	BaseY float64 `toml:"base_y"`
	Step  float64 `toml:"step"`
	Sum   Range   `toml:"sum"`
}

// BarSpec describes a resource bar strip. Poison is optional.
type BarSpec struct {
	X1     float64   `toml:"x1"`
	X2     float64   `toml:"x2"`
	BaseY  float64   `toml:"base_y"`
	Step   float64   `toml:"step"`
	Color  RGBRange  `toml:"color"`
	Poison *RGBRange `toml:"poison,omitempty"`
}

// Strip returns the bar strip for a team slot.
func (b BarSpec) Strip(slot int) Strip {
	return Strip{X1: b.X1, X2: b.X2, Y: b.BaseY + b.Step*float64(SlotIndex(slot))}
}

type AttackSpec struct {
	X1         float64  `toml:"x1"`
	X2         float64  `toml:"x2"`
	Y          float64  `toml:"y"`
	Near       RGBRange `toml:"near"`
	RedMinusG  int      `toml:"red_minus_g"`
	RedMinusB  int      `toml:"red_minus_b"`
	MinPercent float64  `toml:"min_percent"`
}

type UnderAttackSpec struct {
	Block           RectPct `toml:"block"`
	BlockMinR       int     `toml:"block_min_r"`
	BlockRedMinusG  int     `toml:"block_red_minus_g"`
	BlockMinPercent float64 `toml:"block_min_percent"`
	Strip           Strip   `toml:"strip"`
	StripRedMinusG  int     `toml:"strip_red_minus_g"`
	StripRedMinusB  int     `toml:"strip_red_minus_b"`
	StripMinPercent float64 `toml:"strip_min_percent"`
}

// AlertSpec controls the no-attack alert. The threshold starts at Base and
// is multiplied by Growth each time the alert fires.
type AlertSpec struct {
	Base   int `toml:"base"`
	Growth int `toml:"growth"`
	Beeps  int `toml:"beeps"`
}

// TemplateSpec configures one named template. Region is where the capture
// tool crops it from, Search bounds where the matcher looks for it.
type TemplateSpec struct {
	Threshold float64 `toml:"threshold"`
	Region    RectPct `toml:"region"`
	Search    RectPct `toml:"search"`
}

// Catalog is the immutable table of detection regions and thresholds.
type Catalog struct {
	Version     int                     `toml:"version"`
	Frame       FrameSpec               `toml:"frame"`
	Team        TeamSpec                `toml:"team"`
	Overlay     OverlaySpec             `toml:"overlay"`
	Panel       PanelSpec               `toml:"panel"`
	Slot        SlotSpec                `toml:"slot"`
	HP          BarSpec                 `toml:"hp"`
	MP          BarSpec                 `toml:"mp"`
	Attack      AttackSpec              `toml:"attack"`
	UnderAttack UnderAttackSpec         `toml:"under_attack"`
	Alert       AlertSpec               `toml:"alert"`
	Templates   map[string]TemplateSpec `toml:"templates"`
}

// Template names recognised by the detector.
const (
	TemplateTeamEnabled = "team_enabled"
	TemplatePanelOpened = "panel_opened"
	TemplateIsAttack    = "is_attack"
	TemplateIsAttacked  = "is_attacked"
)

// SlotIndex maps a configured team slot to its row offset. Slot 0 means
// "no team" and shares the first row with slot 1.
func SlotIndex(slot int) int {
	if slot >= 1 {
		return slot - 1
	}
	return 0
}

// Default returns the catalog embedded in the binary.
func Default() Catalog {
	c, err := Decode(assets.CatalogTOML)
	if err != nil {
		panic(fmt.Sprintf("roi: embedded catalog invalid: %v", err))
	}
	return c
}

// Load reads a catalog override from path. An empty path or missing file
// yields the embedded default.
func Load(path string) (Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return Default(), fmt.Errorf("read catalog: %w", err)
	}
	c, err := Decode(data)
	if err != nil {
		return Default(), fmt.Errorf("catalog %s: %w", path, err)
	}
	return c, nil
}

// Decode parses and validates a TOML catalog document.
func Decode(data []byte) (Catalog, error) {
	var c Catalog
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&c); err != nil {
		return Catalog{}, fmt.Errorf("decode catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Catalog{}, err
	}
	return c, nil
}

// Encode renders the catalog as TOML.
func (c Catalog) Encode() ([]byte, error) {
	return toml.Marshal(c)
}

// Template returns the spec for name and whether it is configured.
func (c Catalog) Template(name string) (TemplateSpec, bool) {
	t, ok := c.Templates[name]
	return t, ok
}

// Validate rejects unsupported versions, coordinates outside 0–100 and
// inverted ranges.
func (c Catalog) Validate() error {
	if c.Version != CurrentVersion {
		return fmt.Errorf("unsupported catalog version %d (want %d)", c.Version, CurrentVersion)
	}
	if c.Frame.Width < 100 {
		return fmt.Errorf("frame.width %d too small", c.Frame.Width)
	}
	var errs []error
	check := func(name string, vs ...float64) {
		for _, v := range vs {
			if v < 0 || v > 100 {
				errs = append(errs, fmt.Errorf("%s: %v outside 0-100", name, v))
				return
			}
		}
	}
	ordered := func(name string, lo, hi float64) {
		if lo > hi {
			errs = append(errs, fmt.Errorf("%s: %v > %v", name, lo, hi))
		}
	}
	rng := func(name string, r Range) {
		if r.Min > r.Max {
			errs = append(errs, fmt.Errorf("%s: min %d > max %d", name, r.Min, r.Max))
		}
	}
	col := func(name string, cl Column) {
		check(name, cl.X, cl.Y1, cl.Y2)
		ordered(name, cl.Y1, cl.Y2)
	}
	strip := func(name string, s Strip) {
		check(name, s.X1, s.X2, s.Y)
		ordered(name, s.X1, s.X2)
	}
	rect := func(name string, r RectPct) {
		check(name, r.X1, r.Y1, r.X2, r.Y2)
		ordered(name, r.X1, r.X2)
		ordered(name, r.Y1, r.Y2)
	}
	rgb := func(name string, c RGBRange) {
		rng(name+".r", c.R)
		rng(name+".g", c.G)
		rng(name+".b", c.B)
	}

	col("team.first", c.Team.First)
	col("team.second", c.Team.Second)
	rng("overlay.grey", c.Overlay.Grey)
	rng("overlay.dark", c.Overlay.Dark)
	col("panel.column", c.Panel.Column)
	for i, s := range c.Panel.Signatures {
		rgb(fmt.Sprintf("panel.signatures[%d]", i), s)
	}
	check("slot", c.Slot.X, c.Slot.BaseY)
	rng("slot.sum", c.Slot.Sum)
	strip("hp", Strip{X1: c.HP.X1, X2: c.HP.X2, Y: c.HP.BaseY})
	rgb("hp.color", c.HP.Color)
	if c.HP.Poison != nil {
		rgb("hp.poison", *c.HP.Poison)
	}
	strip("mp", Strip{X1: c.MP.X1, X2: c.MP.X2, Y: c.MP.BaseY})
	rgb("mp.color", c.MP.Color)
	strip("attack", Strip{X1: c.Attack.X1, X2: c.Attack.X2, Y: c.Attack.Y})
	rgb("attack.near", c.Attack.Near)
	rect("under_attack.block", c.UnderAttack.Block)
	strip("under_attack.strip", c.UnderAttack.Strip)
	for name, t := range c.Templates {
		rect("templates."+name+".region", t.Region)
		rect("templates."+name+".search", t.Search)
		if t.Threshold <= 0 || t.Threshold > 1 {
			errs = append(errs, fmt.Errorf("templates.%s.threshold %v outside (0,1]", name, t.Threshold))
		}
	}
	if c.Alert.Base < 1 || c.Alert.Growth < 1 {
		errs = append(errs, fmt.Errorf("alert: base %d growth %d must be >= 1", c.Alert.Base, c.Alert.Growth))
	}
	if c.Overlay.AcceptAfter < 1 {
		errs = append(errs, fmt.Errorf("overlay.accept_after %d must be >= 1", c.Overlay.AcceptAfter))
	}
	return errors.Join(errs...)
}

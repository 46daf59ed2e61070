package detect

import "fmt"

// Level is a percentage that may be unknown. The zero value is unknown.
type Level struct {
	v  int
	ok bool
}

// Known returns a known level clamped to 0..100.
func Known(v int) Level {
	return Level{v: min(max(v, 0), 100), ok: true}
}

// Unknown returns a level that carries no reading.
func Unknown() Level { return Level{} }

// Value returns the percentage and whether it is known.
func (l Level) Value() (int, bool) { return l.v, l.ok }

// IsKnown reports whether the level carries a reading.
func (l Level) IsKnown() bool { return l.ok }

// Below reports whether the level is known and strictly below p.
func (l Level) Below(p int) bool { return l.ok && l.v < p }

// AtLeast reports whether the level is known and at least p.
func (l Level) AtLeast(p int) bool { return l.ok && l.v >= p }

// Above reports whether the level is known and strictly above p.
func (l Level) Above(p int) bool { return l.ok && l.v > p }

// Display returns the percentage, or -1 when unknown. Only for status text.
func (l Level) Display() int {
	if !l.ok {
		return -1
	}
	return l.v
}

func (l Level) String() string {
	if !l.ok {
		return "unknown"
	}
	return fmt.Sprintf("%d%%", l.v)
}

// Overlay classifies a dimming dialog over the game view.
type Overlay int

const (
	OverlayNone Overlay = iota
	// DialogGrey is an in-dialogue overlay with nothing to confirm.
	DialogGrey
	// DialogDark is a confirmation dialog.
	DialogDark
)

func (o Overlay) String() string {
	switch o {
	case DialogGrey:
		return "dialog-grey"
	case DialogDark:
		return "dialog-dark"
	default:
		return "none"
	}
}

// GameState is the per-tick snapshot inferred from one frame.
// HP and MP are unknown unless TeamEnabled && !PanelOpen.
type GameState struct {
	TeamEnabled   bool
	Overlay       Overlay
	PanelOpen     bool
	HP            Level
	MP            Level
	Poisoned      bool
	IsAttacking   bool
	IsUnderAttack bool
}

// Readable reports whether combat readings can be trusted this tick.
func (s GameState) Readable() bool { return s.TeamEnabled && !s.PanelOpen }

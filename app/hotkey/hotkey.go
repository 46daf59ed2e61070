// Package hotkey watches the global keyboard for the stop-all chord.
package hotkey

// Key is the subset of keys the chord cares about.
type Key int

const (
	KeyOther Key = iota
	KeyShift
	KeyQ
)

// chord recognises Shift+Q from a stream of key transitions.
type chord struct {
	shift bool
}

// feed records one transition and reports whether the chord fired.
func (c *chord) feed(k Key, down bool) bool {
	switch k {
	case KeyShift:
		c.shift = down
	case KeyQ:
		return down && c.shift
	}
	return false
}

package action

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strings"

	"github.com/soocke/linm-bot-go/domain/roi"
)

// ErrInjectionFailed wraps every backend failure. Sessions log it and carry
// on; the next tick's detection shows whether the input landed.
var ErrInjectionFailed = errors.New("input injection failed")

// Command is one input: a profile hotkey or a fixed on-screen button.
// Button wins when both are set.
type Command struct {
	Hotkey string
	Button roi.ButtonID
}

// Key returns a hotkey command.
func Key(hotkey string) Command { return Command{Hotkey: hotkey} }

// Click returns a button command.
func Click(b roi.ButtonID) Command { return Command{Button: b} }

// IsZero reports whether the command carries no input.
func (c Command) IsZero() bool {
	return c.Button == roi.ButtonNone && strings.TrimSpace(c.Hotkey) == ""
}

// ButtonID resolves the command to a bar or menu button. Digit hotkeys map
// to their skill bar slot.
func (c Command) ButtonID() (roi.ButtonID, bool) {
	if c.Button != roi.ButtonNone {
		return c.Button, true
	}
	return roi.ButtonFor(c.Hotkey)
}

func (c Command) String() string {
	if c.Button != roi.ButtonNone {
		return c.Button.String()
	}
	return "key:" + c.Hotkey
}

// Target is the account an input is aimed at.
type Target struct {
	// Name is the configured window name.
	Name   string
	Handle uintptr
	// Device is the debug-bridge serial for device backends.
	Device string
	// Size is the client resolution buttons are scaled to. Zero means the
	// base resolution.
	Size image.Point
	// Origin is the client area's top-left on screen.
	Origin image.Point
}

func (t Target) resolution() image.Point {
	if t.Size.X <= 0 || t.Size.Y <= 0 {
		return roi.BaseResolution
	}
	return t.Size
}

// Point returns the click position of cmd on the target.
func (t Target) Point(cmd Command) (image.Point, error) {
	b, ok := cmd.ButtonID()
	if !ok {
		return image.Point{}, fmt.Errorf("%w: %s has no screen position", ErrInjectionFailed, cmd)
	}
	p, err := b.At(t.resolution())
	if err != nil {
		return image.Point{}, fmt.Errorf("%w: %v", ErrInjectionFailed, err)
	}
	return p, nil
}

// Injector delivers commands to a target. Implementations must be safe for
// use by several sessions at once.
type Injector interface {
	Send(ctx context.Context, t Target, cmd Command) error
}

// Bound fixes an injector to one target.
type Bound struct {
	Injector Injector
	Target   Target
}

// Send delivers cmd to the bound target.
func (b Bound) Send(ctx context.Context, cmd Command) error {
	if cmd.IsZero() {
		return nil
	}
	return b.Injector.Send(ctx, b.Target, cmd)
}

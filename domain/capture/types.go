package capture

import (
	"errors"
	"image"
	"time"
)

// ErrCaptureUnavailable reports that a window could not be found or read.
// Sessions halt on it rather than retry.
var ErrCaptureUnavailable = errors.New("capture unavailable")

// ErrNotFound reports that no location reached the match threshold.
var ErrNotFound = errors.New("no match")

// Frame is one captured, normalised framebuffer. It is not mutated after
// capture; the detector reads it once and the UI may keep it for preview.
type Frame struct {
	Image      *image.RGBA
	CapturedAt time.Time
	Sequence   uint64
}

// Size returns the frame dimensions.
func (f Frame) Size() image.Point {
	if f.Image == nil {
		return image.Point{}
	}
	return f.Image.Bounds().Size()
}

// Window identifies a capture target resolved from its configured name.
type Window struct {
	Name   string
	Handle uintptr
}

// Capturer is the OS-facing capture collaborator.
type Capturer interface {
	// Resolve looks up a window by name.
	Resolve(name string) (Window, error)
	// Capture grabs the window contents.
	Capture(w Window) (Frame, error)
	// Rect returns the window's screen rectangle, frame included.
	Rect(w Window) (image.Rectangle, error)
	// ClientRect returns the client area in screen coordinates. Captured
	// frames and button positions are both relative to it.
	ClientRect(w Window) (image.Rectangle, error)
	// SetPosition moves and resizes the window.
	SetPosition(w Window, r image.Rectangle) error
}

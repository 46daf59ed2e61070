//go:build !windows

package capture

import (
	"fmt"
	"image"
)

// WindowCapturer is only functional on Windows. Elsewhere every call
// reports ErrCaptureUnavailable so sessions halt cleanly.
type WindowCapturer struct{}

// NewWindowCapturer returns the non-Windows placeholder.
func NewWindowCapturer(width, titleBar int) *WindowCapturer { return &WindowCapturer{} }

func (c *WindowCapturer) Resolve(name string) (Window, error) {
	return Window{}, fmt.Errorf("%w: window capture requires windows", ErrCaptureUnavailable)
}

func (c *WindowCapturer) Capture(w Window) (Frame, error) {
	return Frame{}, fmt.Errorf("%w: window capture requires windows", ErrCaptureUnavailable)
}

func (c *WindowCapturer) Rect(w Window) (image.Rectangle, error) {
	return image.Rectangle{}, fmt.Errorf("%w: window capture requires windows", ErrCaptureUnavailable)
}

func (c *WindowCapturer) ClientRect(w Window) (image.Rectangle, error) {
	return image.Rectangle{}, fmt.Errorf("%w: window capture requires windows", ErrCaptureUnavailable)
}

func (c *WindowCapturer) SetPosition(w Window, r image.Rectangle) error {
	return fmt.Errorf("%w: window capture requires windows", ErrCaptureUnavailable)
}

// ListWindows has nothing to enumerate off Windows.
func ListWindows() []string { return nil }

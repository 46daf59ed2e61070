package capture

import (
	"errors"
	"fmt"
	"image"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vova616/screenshot"
)

// ScreenCapturer grabs fixed screen rectangles, one per configured account
// name. It suits emulators or mirrored devices whose windows cannot be
// addressed directly.
type ScreenCapturer struct {
	mu    sync.RWMutex
	rects map[string]image.Rectangle
	width int
	seq   atomic.Uint64
}

// NewScreenCapturer returns a capturer for the given name→rectangle map.
func NewScreenCapturer(rects map[string]image.Rectangle, width int) *ScreenCapturer {
	m := make(map[string]image.Rectangle, len(rects))
	for k, v := range rects {
		m[k] = v
	}
	return &ScreenCapturer{rects: m, width: width}
}

func (c *ScreenCapturer) Resolve(name string) (Window, error) {
	c.mu.RLock()
	r, ok := c.rects[name]
	c.mu.RUnlock()
	if !ok || r.Empty() {
		return Window{}, fmt.Errorf("%w: no screen rectangle configured for %q", ErrCaptureUnavailable, name)
	}
	return Window{Name: name}, nil
}

func (c *ScreenCapturer) Rect(w Window) (image.Rectangle, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.rects[w.Name]
	if !ok {
		return image.Rectangle{}, fmt.Errorf("%w: %q", ErrCaptureUnavailable, w.Name)
	}
	return r, nil
}

// ClientRect is the configured rectangle; it has no window frame.
func (c *ScreenCapturer) ClientRect(w Window) (image.Rectangle, error) { return c.Rect(w) }

// SetPosition is unsupported: the capture region is not a movable window.
func (c *ScreenCapturer) SetPosition(w Window, r image.Rectangle) error {
	return errors.ErrUnsupported
}

func (c *ScreenCapturer) Capture(w Window) (Frame, error) {
	r, err := c.Rect(w)
	if err != nil {
		return Frame{}, err
	}
	if screen, err := screenshot.ScreenRect(); err == nil {
		r = r.Intersect(screen)
	}
	if r.Empty() {
		return Frame{}, fmt.Errorf("%w: %q rectangle is off-screen", ErrCaptureUnavailable, w.Name)
	}
	img, err := screenshot.CaptureRect(r)
	if err != nil {
		return Frame{}, fmt.Errorf("%w: %q: %v", ErrCaptureUnavailable, w.Name, err)
	}
	return Frame{
		Image:      Normalize(img, c.width, 0),
		CapturedAt: time.Now(),
		Sequence:   c.seq.Add(1),
	}, nil
}

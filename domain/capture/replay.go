package capture

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/disintegration/imaging"
)

// ReplayCapturer serves recorded PNG screenshots in name order, looping.
// Each account reads <dir>/<name>/ when that directory exists, otherwise
// <dir> itself. Window rectangles are simulated so hide/show can run.
type ReplayCapturer struct {
	dir   string
	width int

	mu     sync.Mutex
	cursor map[string]int
	rects  map[string]image.Rectangle
	seq    uint64
}

// NewReplayCapturer returns a capturer reading from dir.
func NewReplayCapturer(dir string, width int) *ReplayCapturer {
	return &ReplayCapturer{
		dir:    dir,
		width:  width,
		cursor: map[string]int{},
		rects:  map[string]image.Rectangle{},
	}
}

func (c *ReplayCapturer) files(name string) ([]string, error) {
	dir := c.dir
	if fi, err := os.Stat(filepath.Join(c.dir, name)); err == nil && fi.IsDir() {
		dir = filepath.Join(c.dir, name)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".png") {
			out = append(out, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(out)
	return out, nil
}

func (c *ReplayCapturer) Resolve(name string) (Window, error) {
	files, err := c.files(name)
	if err != nil || len(files) == 0 {
		return Window{}, fmt.Errorf("%w: no recordings for %q in %s", ErrCaptureUnavailable, name, c.dir)
	}
	c.mu.Lock()
	if _, ok := c.rects[name]; !ok {
		c.rects[name] = image.Rect(0, 0, 1280, 720)
	}
	c.mu.Unlock()
	return Window{Name: name}, nil
}

func (c *ReplayCapturer) Capture(w Window) (Frame, error) {
	files, err := c.files(w.Name)
	if err != nil || len(files) == 0 {
		return Frame{}, fmt.Errorf("%w: recordings for %q vanished", ErrCaptureUnavailable, w.Name)
	}
	c.mu.Lock()
	i := c.cursor[w.Name] % len(files)
	c.cursor[w.Name] = i + 1
	c.seq++
	seq := c.seq
	c.mu.Unlock()

	img, err := imaging.Open(files[i])
	if err != nil {
		return Frame{}, fmt.Errorf("%w: %v", ErrCaptureUnavailable, err)
	}
	return Frame{Image: Normalize(img, c.width, 0), CapturedAt: time.Now(), Sequence: seq}, nil
}

func (c *ReplayCapturer) Rect(w Window) (image.Rectangle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.rects[w.Name]
	if !ok {
		return image.Rectangle{}, fmt.Errorf("%w: %q not resolved", ErrCaptureUnavailable, w.Name)
	}
	return r, nil
}

func (c *ReplayCapturer) ClientRect(w Window) (image.Rectangle, error) { return c.Rect(w) }

func (c *ReplayCapturer) SetPosition(w Window, r image.Rectangle) error {
	c.mu.Lock()
	c.rects[w.Name] = r
	c.mu.Unlock()
	return nil
}

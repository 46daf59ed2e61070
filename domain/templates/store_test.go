package templates

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/soocke/linm-bot-go/domain/roi"
)

var discardLogger = slog.New(slog.NewTextHandler(&discardWriter{}, nil))

type discardWriter struct{}

func (d *discardWriter) Write(p []byte) (int, error) { return len(p), nil }

func checker(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if (x+y)%2 == 0 {
				img.SetRGBA(x, y, c)
			} else {
				img.SetRGBA(x, y, color.RGBA{A: 255})
			}
		}
	}
	return img
}

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
}

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(t.TempDir(), 8, discardLogger)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return s
}

func TestStoreMissingTemplate(t *testing.T) {
	s := newStore(t)
	if s.Has("team_enabled") {
		t.Fatalf("empty store should not report templates")
	}
	if _, err := s.Get("team_enabled"); !errors.Is(err, ErrTemplateMissing) {
		t.Fatalf("expected ErrTemplateMissing, got %v", err)
	}
}

func TestStoreUndecodableTemplate(t *testing.T) {
	s := newStore(t)
	if err := os.WriteFile(s.Path("broken"), []byte("not a png"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if !s.Has("broken") {
		t.Fatalf("file exists, Has should be true")
	}
	if _, err := s.Get("broken"); !errors.Is(err, ErrTemplateMissing) {
		t.Fatalf("expected ErrTemplateMissing for undecodable file, got %v", err)
	}
}

func TestStoreRejectsPathNames(t *testing.T) {
	s := newStore(t)
	for _, name := range []string{"../x", "a/b", "x.png", ""} {
		if _, err := s.Get(name); !errors.Is(err, ErrTemplateMissing) {
			t.Fatalf("Get(%q) expected ErrTemplateMissing, got %v", name, err)
		}
	}
}

func TestStoreCachesAndInvalidates(t *testing.T) {
	s := newStore(t)
	writePNG(t, s.Path("glyph"), checker(4, 4, color.RGBA{R: 255, G: 255, B: 255, A: 255}))
	first, err := s.Get("glyph")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if first.W != 4 || first.H != 4 || first.N != 16 {
		t.Fatalf("unexpected template dims w=%d h=%d n=%d", first.W, first.H, first.N)
	}
	again, _ := s.Get("glyph")
	if again != first {
		t.Fatalf("second Get should hit the cache")
	}

	// Overwrite on disk: cached copy stays until invalidated.
	writePNG(t, s.Path("glyph"), checker(6, 3, color.RGBA{R: 255, A: 255}))
	if cached, _ := s.Get("glyph"); cached.W != 4 {
		t.Fatalf("expected cached 4px template, got %d", cached.W)
	}
	s.Invalidate("glyph")
	fresh, err := s.Get("glyph")
	if err != nil || fresh.W != 6 || fresh.H != 3 {
		t.Fatalf("after invalidate expected 6x3, got %+v err=%v", fresh, err)
	}
}

func TestTemplateStatsIgnoreTransparent(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 1))
	img.SetRGBA(0, 0, color.RGBA{R: 100, G: 100, B: 100, A: 255})
	tpl := FromImage("t", img)
	if tpl.N != 1 {
		t.Fatalf("expected 1 participating pixel, got %d", tpl.N)
	}
	if tpl.Mask[1] {
		t.Fatalf("transparent pixel should be masked out")
	}
	if d := tpl.Mean - Luma(100, 100, 100); d > 1e-9 || d < -1e-9 {
		t.Fatalf("mean=%v want %v", tpl.Mean, Luma(100, 100, 100))
	}
}

func TestPreloadSkipsMissing(t *testing.T) {
	s := newStore(t)
	writePNG(t, s.Path("a"), checker(3, 3, color.RGBA{G: 200, A: 255}))
	writePNG(t, s.Path("c"), checker(3, 3, color.RGBA{B: 200, A: 255}))
	got, err := s.Preload(context.Background(), "a", "b", "c")
	if err != nil {
		t.Fatalf("Preload: %v", err)
	}
	if len(got) != 2 || got[0] != "a" || got[1] != "c" {
		t.Fatalf("loaded=%v want [a c]", got)
	}
}

func TestCaptureListRemove(t *testing.T) {
	s := newStore(t)
	cat := roi.Default()
	src := checker(200, 100, color.RGBA{R: 250, G: 250, B: 250, A: 255})

	// Prime the cache with a stale version.
	writePNG(t, s.Path(roi.TemplateIsAttack), checker(2, 2, color.RGBA{A: 255}))
	if _, err := s.Get(roi.TemplateIsAttack); err != nil {
		t.Fatalf("prime: %v", err)
	}

	path, err := s.Capture(src, roi.TemplateIsAttack, roi.RectPct{X1: 10, Y1: 10, X2: 20, Y2: 30})
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if filepath.Base(path) != roi.TemplateIsAttack+".png" {
		t.Fatalf("unexpected path %s", path)
	}
	tpl, err := s.Get(roi.TemplateIsAttack)
	if err != nil {
		t.Fatalf("Get after capture: %v", err)
	}
	if tpl.W != 20 || tpl.H != 20 {
		t.Fatalf("captured template %dx%d want 20x20", tpl.W, tpl.H)
	}

	list, err := s.List(cat)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	var found, missingListed bool
	for _, info := range list {
		if info.Name == roi.TemplateIsAttack && info.Width == 20 && info.Configured {
			found = true
		}
		if info.Name == roi.TemplateTeamEnabled && info.Path == "" {
			missingListed = true
		}
	}
	if !found || !missingListed {
		t.Fatalf("list=%+v found=%v missingListed=%v", list, found, missingListed)
	}

	if err := s.Remove(roi.TemplateIsAttack); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := s.Get(roi.TemplateIsAttack); !errors.Is(err, ErrTemplateMissing) {
		t.Fatalf("expected missing after remove, got %v", err)
	}
	if err := s.Remove(roi.TemplateIsAttack); !errors.Is(err, ErrTemplateMissing) {
		t.Fatalf("second remove expected ErrTemplateMissing, got %v", err)
	}
}

func TestCaptureRejectsTinyRegion(t *testing.T) {
	s := newStore(t)
	src := checker(50, 50, color.RGBA{R: 1, A: 255})
	if _, err := s.Capture(src, "tiny", roi.RectPct{X1: 10, Y1: 10, X2: 11, Y2: 11}); err == nil {
		t.Fatalf("expected error for a sub-2px region")
	}
}

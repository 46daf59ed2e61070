package templates

import (
	"errors"
	"fmt"
	"image"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/disintegration/imaging"

	"github.com/soocke/linm-bot-go/domain/roi"
)

// Info describes a stored template for review.
type Info struct {
	Name       string
	Width      int
	Height     int
	Path       string
	ModTime    time.Time
	Configured bool // the catalog knows this name
}

// Capture crops region out of src, stores it as name and invalidates any
// cached copy. It returns the written path.
func (s *Store) Capture(src image.Image, name string, region roi.RectPct) (string, error) {
	if err := validName(name); err != nil {
		return "", err
	}
	if src == nil {
		return "", errors.New("capture: nil source image")
	}
	b := src.Bounds()
	r := region.Px(b.Dx(), b.Dy()).Add(b.Min).Intersect(b)
	if r.Dx() < 2 || r.Dy() < 2 {
		return "", fmt.Errorf("capture: region %v too small on %dx%d source", region, b.Dx(), b.Dy())
	}
	cropped := imaging.Crop(src, r)
	path := s.Path(name)
	if err := imaging.Save(cropped, path); err != nil {
		return "", fmt.Errorf("save template %s: %w", name, err)
	}
	s.Invalidate(name)
	if s.logger != nil {
		s.logger.Info("template captured", "name", name, "path", path, "w", r.Dx(), "h", r.Dy())
	}
	return path, nil
}

// List describes every template in the store directory, marking the ones
// the catalog references. Catalog names without a file are listed with a
// zero size so missing calibrations are visible.
func (s *Store) List(cat roi.Catalog) ([]Info, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read template dir: %w", err)
	}
	seen := map[string]bool{}
	var out []Info
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".png") {
			continue
		}
		name := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		info := Info{Name: name, Path: filepath.Join(s.dir, e.Name())}
		if fi, err := e.Info(); err == nil {
			info.ModTime = fi.ModTime()
		}
		if w, h, err := decodeSize(info.Path); err == nil {
			info.Width, info.Height = w, h
		}
		_, info.Configured = cat.Template(name)
		seen[name] = true
		out = append(out, info)
	}
	for name := range cat.Templates {
		if !seen[name] {
			out = append(out, Info{Name: name, Configured: true})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Remove deletes a stored template; detection for it reverts to pixels.
func (s *Store) Remove(name string) error {
	if err := validName(name); err != nil {
		return err
	}
	if err := os.Remove(s.Path(name)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrTemplateMissing, name)
		}
		return err
	}
	s.Invalidate(name)
	return nil
}

func decodeSize(path string) (int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, err
	}
	return cfg.Width, cfg.Height, nil
}

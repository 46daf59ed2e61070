package templates

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"
)

// ErrTemplateMissing reports an absent or undecodable template. Callers
// treat it as "use the pixel fallback".
var ErrTemplateMissing = errors.New("template missing")

const defaultCacheSize = 64

// Store loads templates from <dir>/<name>.png and caches them by name.
// Reads are safe for concurrent use. Writes go through the capture tool and
// must not overlap live sessions.
type Store struct {
	dir    string
	cache  *lru.Cache[string, *Template]
	logger *slog.Logger
}

// NewStore opens (and creates if needed) a template directory.
func NewStore(dir string, cacheSize int, logger *slog.Logger) (*Store, error) {
	if dir == "" {
		return nil, errors.New("template dir is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create template dir: %w", err)
	}
	if cacheSize <= 0 {
		cacheSize = defaultCacheSize
	}
	cache, err := lru.New[string, *Template](cacheSize)
	if err != nil {
		return nil, err
	}
	return &Store{dir: dir, cache: cache, logger: logger}, nil
}

// Dir returns the backing directory.
func (s *Store) Dir() string { return s.dir }

// Path returns the file path for a template name.
func (s *Store) Path(name string) string { return filepath.Join(s.dir, name+".png") }

// Has reports whether a template named name exists.
func (s *Store) Has(name string) bool {
	if s == nil || validName(name) != nil {
		return false
	}
	if s.cache.Contains(name) {
		return true
	}
	_, err := os.Stat(s.Path(name))
	return err == nil
}

// Get returns the named template, decoding and caching it on first use.
func (s *Store) Get(name string) (*Template, error) {
	if s == nil {
		return nil, ErrTemplateMissing
	}
	if err := validName(name); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTemplateMissing, err)
	}
	if t, ok := s.cache.Get(name); ok {
		return t, nil
	}
	img, err := imaging.Open(s.Path(name))
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) && s.logger != nil {
			s.logger.Warn("template decode failed", "name", name, "error", err)
		}
		return nil, fmt.Errorf("%w: %s", ErrTemplateMissing, name)
	}
	t := FromImage(name, img)
	if t == nil || t.N == 0 {
		return nil, fmt.Errorf("%w: %s is empty", ErrTemplateMissing, name)
	}
	s.cache.Add(name, t)
	if s.logger != nil {
		s.logger.Debug("template loaded", "name", name, "w", t.W, "h", t.H)
	}
	return t, nil
}

// Invalidate drops a cached template so the next Get re-reads the file.
func (s *Store) Invalidate(name string) { s.cache.Remove(name) }

// Purge drops every cached template.
func (s *Store) Purge() { s.cache.Purge() }

// Preload decodes the named templates in parallel. Missing templates are
// skipped; the returned slice lists the ones that loaded.
func (s *Store) Preload(ctx context.Context, names ...string) ([]string, error) {
	loaded := make([]bool, len(names))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, name := range names {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if _, err := s.Get(name); err != nil {
				if errors.Is(err, ErrTemplateMissing) {
					return nil
				}
				return err
			}
			loaded[i] = true
			return nil
		})
	}
	err := g.Wait()
	var out []string
	for i, ok := range loaded {
		if ok {
			out = append(out, names[i])
		}
	}
	return out, err
}

func validName(name string) error {
	if name == "" {
		return errors.New("empty template name")
	}
	if strings.ContainsAny(name, `/\.`) {
		return fmt.Errorf("invalid template name %q", name)
	}
	return nil
}

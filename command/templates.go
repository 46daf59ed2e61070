package command

import (
	"errors"
	"fmt"
	"image"
	"text/tabwriter"

	"github.com/disintegration/imaging"
	"github.com/urfave/cli/v2"

	"github.com/soocke/linm-bot-go/config"
	"github.com/soocke/linm-bot-go/domain/capture"
	"github.com/soocke/linm-bot-go/domain/roi"
	"github.com/soocke/linm-bot-go/domain/templates"
)

type toolEnv struct {
	cfg   *config.Config
	cat   roi.Catalog
	store *templates.Store
}

func openTool(c *cli.Context, deps Deps) (*toolEnv, error) {
	cfg, _, logger, err := setup(c, deps)
	if err != nil {
		return nil, err
	}
	cat, err := roi.Load(cfg.CatalogPath)
	if err != nil {
		return nil, err
	}
	store, err := templates.NewStore(cfg.TemplateDir, 8, logger)
	if err != nil {
		return nil, err
	}
	return &toolEnv{cfg: cfg, cat: cat, store: store}, nil
}

func templatesList(c *cli.Context, deps Deps) error {
	env, err := openTool(c, deps)
	if err != nil {
		return err
	}
	infos, err := env.store.List(env.cat)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSIZE\tCONFIGURED\tHINT ROI\tMODIFIED")
	for _, in := range infos {
		size := "missing"
		if in.Width > 0 {
			size = fmt.Sprintf("%dx%d", in.Width, in.Height)
		}
		hint := "-"
		if spec, ok := env.cat.Template(in.Name); ok && !spec.Region.IsZero() {
			r := spec.Region
			hint = fmt.Sprintf("%.1f,%.1f-%.1f,%.1f", r.X1, r.Y1, r.X2, r.Y2)
		}
		mod := "-"
		if !in.ModTime.IsZero() {
			mod = in.ModTime.Format("2006-01-02 15:04")
		}
		fmt.Fprintf(w, "%s\t%s\t%t\t%s\t%s\n", in.Name, size, in.Configured, hint, mod)
	}
	return w.Flush()
}

func templatesCapture(c *cli.Context, deps Deps) error {
	name := c.Args().First()
	if name == "" {
		return errors.New("templates capture: NAME is required")
	}
	env, err := openTool(c, deps)
	if err != nil {
		return err
	}
	spec, ok := env.cat.Template(name)
	if !ok || spec.Region.IsZero() {
		return fmt.Errorf("templates capture: catalog has no region for %q", name)
	}
	src, err := env.source(c.String("from"), c.String("window"))
	if err != nil {
		return err
	}
	path, err := env.store.Capture(src, name, spec.Region)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "saved %s\n", path)
	return nil
}

// source returns a frame normalised the same way the sessions see it.
func (e *toolEnv) source(file, window string) (image.Image, error) {
	switch {
	case file != "" && window != "":
		return nil, errors.New("templates capture: use either --from or --window")
	case file != "":
		img, err := imaging.Open(file)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", file, err)
		}
		return capture.Normalize(img, e.cat.Frame.Width, 0), nil
	case window != "":
		wc := capture.NewWindowCapturer(e.cat.Frame.Width, e.cat.Frame.TitleBar)
		w, err := wc.Resolve(window)
		if err != nil {
			return nil, err
		}
		f, err := wc.Capture(w)
		if err != nil {
			return nil, err
		}
		return f.Image, nil
	}
	return nil, errors.New("templates capture: --from or --window is required")
}

func templatesRemove(c *cli.Context, deps Deps) error {
	name := c.Args().First()
	if name == "" {
		return errors.New("templates remove: NAME is required")
	}
	env, err := openTool(c, deps)
	if err != nil {
		return err
	}
	if err := env.store.Remove(name); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "removed %s\n", name)
	return nil
}

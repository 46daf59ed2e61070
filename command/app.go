// Package command is the linm-bot command tree.
package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/soocke/linm-bot-go/assets"
	"github.com/soocke/linm-bot-go/config"
)

// Deps are the runners main wires in. Tests replace them.
type Deps struct {
	LoadConfig  func(path string) (*config.Config, error)
	NewLogger   func(debug bool) *slog.Logger
	RunUI       func(context.Context, *config.Config, string, *slog.Logger) error
	RunHeadless func(context.Context, *config.Config, string, *slog.Logger) error
}

func BuildApp(deps Deps) *cli.App {
	return &cli.App{
		Name:  "linm-bot",
		Usage: "multi-account LinM helper",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Value: "config.yaml", Usage: "config file"},
			&cli.BoolFlag{Name: "debug", Usage: "debug logging and runtime stats"},
		},
		Action: func(c *cli.Context) error { return run(c, deps, deps.RunUI) },
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "open the control panel",
				Action: func(c *cli.Context) error { return run(c, deps, deps.RunUI) },
			},
			{
				Name:   "headless",
				Usage:  "run every configured account without UI until interrupted",
				Action: func(c *cli.Context) error { return run(c, deps, deps.RunHeadless) },
			},
			{
				Name:  "templates",
				Usage: "review and calibrate detection templates",
				Subcommands: []*cli.Command{
					{
						Name:   "list",
						Usage:  "show stored and configured templates",
						Action: func(c *cli.Context) error { return templatesList(c, deps) },
					},
					{
						Name:      "capture",
						Usage:     "crop a template from a screenshot or a live window",
						ArgsUsage: "NAME",
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "from", Usage: "PNG screenshot to crop from"},
							&cli.StringFlag{Name: "window", Usage: "live window title to crop from"},
						},
						Action: func(c *cli.Context) error { return templatesCapture(c, deps) },
					},
					{
						Name:      "remove",
						Usage:     "delete a template so detection falls back to pixels",
						ArgsUsage: "NAME",
						Action:    func(c *cli.Context) error { return templatesRemove(c, deps) },
					},
				},
			},
			{
				Name:  "profile",
				Usage: "account profiles",
				Subcommands: []*cli.Command{
					{
						Name:      "init",
						Usage:     "write a sample profile",
						ArgsUsage: "PATH",
						Flags:     []cli.Flag{&cli.BoolFlag{Name: "force", Usage: "overwrite an existing file"}},
						Action:    profileInit,
					},
				},
			},
		},
	}
}

type runner func(context.Context, *config.Config, string, *slog.Logger) error

func run(c *cli.Context, deps Deps, fn runner) error {
	if fn == nil {
		return errors.New("runner is not configured")
	}
	cfg, path, logger, err := setup(c, deps)
	if err != nil {
		return err
	}
	return fn(c.Context, cfg, path, logger)
}

// setup loads the config named by the global flags and builds the logger.
func setup(c *cli.Context, deps Deps) (*config.Config, string, *slog.Logger, error) {
	path := c.String("config")
	load := deps.LoadConfig
	if load == nil {
		load = config.Load
	}
	cfg, err := load(path)
	if err != nil {
		return nil, path, nil, fmt.Errorf("config %s: %w", path, err)
	}
	if c.Bool("debug") {
		cfg.Debug = true
	}
	var logger *slog.Logger
	if deps.NewLogger != nil {
		logger = deps.NewLogger(cfg.Debug)
	}
	return cfg, path, logger, nil
}

func profileInit(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		return errors.New("profile init: PATH is required")
	}
	if _, err := os.Stat(path); err == nil && !c.Bool("force") {
		return fmt.Errorf("profile init: %s exists, use --force to overwrite", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(path, assets.ProfileINI, 0o644); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "wrote %s\n", path)
	return nil
}

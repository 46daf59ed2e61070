package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/soocke/linm-bot-go/app"
	"github.com/soocke/linm-bot-go/command"
	"github.com/soocke/linm-bot-go/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cli := command.BuildApp(command.Deps{
		LoadConfig: config.Load,
		NewLogger: func(debug bool) *slog.Logger {
			level := slog.LevelInfo
			if debug {
				level = slog.LevelDebug
			}
			return NewLogger(level, os.Stderr)
		},
		RunUI:       runUI,
		RunHeadless: runHeadless,
	})
	if err := cli.RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "linm-bot:", err)
		os.Exit(1)
	}
}

func runUI(ctx context.Context, cfg *config.Config, cfgPath string, logger *slog.Logger) error {
	c, err := app.BuildContainer(ctx, cfg, cfgPath, logger)
	if err != nil {
		return err
	}
	app.NewApp("LinM Bot", 960, 720, c).Start()
	return nil
}

func runHeadless(ctx context.Context, cfg *config.Config, cfgPath string, logger *slog.Logger) error {
	c, err := app.BuildContainer(ctx, cfg, cfgPath, logger)
	if err != nil {
		return err
	}
	return app.RunHeadless(ctx, c)
}

package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"

	"github.com/soocke/linm-bot-go/app/hotkey"
	"github.com/soocke/linm-bot-go/debug"
	"github.com/soocke/linm-bot-go/ui/presenter"
	"github.com/soocke/linm-bot-go/ui/theme"
	"github.com/soocke/linm-bot-go/ui/view"
)

const (
	tick = 100 * time.Millisecond
	// shutdownGrace bounds how long Exit waits for sessions to finish
	// their current tick.
	shutdownGrace = 5 * time.Second
)

type app struct {
	c       *Container
	logger  *slog.Logger
	root    *view.RootView
	loop    *presenter.Loop
	afterID string
	cancel  context.CancelFunc
}

func NewApp(title string, width, height int, c *Container) *app {
	a := &app{c: c, logger: c.Logger}
	App.WmTitle(title)
	WmProtocol(App, "WM_DELETE_WINDOW", a.exitHandler)
	WmGeometry(App, fmt.Sprintf("%dx%d+100+100", width, height))
	return a
}

// Start builds the panel and blocks in the Tk event loop.
func (a *app) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	cfg := a.c.Config
	theme.InitStyles(cfg.Dark)

	names := make([]string, len(cfg.Accounts))
	for i, acct := range cfg.Accounts {
		names[i] = acct.Name
	}
	var slots []view.BossSlot
	for _, s := range a.c.Schedule.Slots() {
		slots = append(slots, view.BossSlot{Time: s.Time, Enabled: s.Enabled})
	}
	panel := a.c.Panel
	a.root = view.NewRootView(cfg, a.c.ConfigPath, a.logger)
	a.root.Build(names, slots, view.Handlers{
		Toggle:      panel.Toggle,
		Preview:     panel.Select,
		HideWindows: panel.SetHideWindows,
		BossSlot:    panel.SetBossSlot,
		StopAll:     panel.StopAll,
		Exit:        a.exitHandler,
		ApplyRules:  a.c.SetRules,
	})
	panel.SetView(a.root)
	a.loop = presenter.NewLoop(panel, a.scheduleUpdate)

	if err := hotkey.Watch(ctx, a.c.Supervisor.StopAll, a.logger); err != nil && a.logger != nil {
		a.logger.Warn("stop-all hotkey unavailable", "error", err)
	}
	if cfg.Debug {
		debug.StartRuntimeLogger(ctx, 10*time.Second, a.logger, a.c.Supervisor.RunningCount)
	}

	a.scheduleUpdate()
	App.Wait()
}

func (a *app) exitHandler() {
	if a.afterID != "" {
		TclAfterCancel(a.afterID)
		a.afterID = ""
	}
	if a.cancel != nil {
		a.cancel()
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := a.c.Shutdown(ctx); err != nil && a.logger != nil {
		a.logger.Error("shutdown incomplete", "error", err)
	}
	Destroy(App)
}

// scheduleUpdate keeps presenter work on Tk's event loop thread.
func (a *app) scheduleUpdate() {
	a.afterID = TclAfter(tick, func() { a.loop.Tick() })
}

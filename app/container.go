package app

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"sync"

	"github.com/soocke/linm-bot-go/config"
	"github.com/soocke/linm-bot-go/domain/action"
	"github.com/soocke/linm-bot-go/domain/boss"
	"github.com/soocke/linm-bot-go/domain/capture"
	"github.com/soocke/linm-bot-go/domain/clock"
	"github.com/soocke/linm-bot-go/domain/decision"
	"github.com/soocke/linm-bot-go/domain/detect"
	"github.com/soocke/linm-bot-go/domain/journal"
	"github.com/soocke/linm-bot-go/domain/roi"
	"github.com/soocke/linm-bot-go/domain/session"
	"github.com/soocke/linm-bot-go/domain/supervisor"
	"github.com/soocke/linm-bot-go/domain/templates"
	"github.com/soocke/linm-bot-go/ui/model"
	"github.com/soocke/linm-bot-go/ui/presenter"
)

const templateCacheSize = 64

// Container assembles the domain services, the supervisor and the panel
// presenter. It has no Tk dependency so headless runs share it.
type Container struct {
	Config     *config.Config
	ConfigPath string
	Logger     *slog.Logger

	Catalog    roi.Catalog
	Templates  *templates.Store
	Detector   *detect.Detector
	Capturer   capture.Capturer
	Injector   action.Injector
	Alerter    action.Alerter
	Journal    *journal.Journal
	Schedule   *boss.Schedule
	Supervisor *supervisor.Supervisor
	Accounts   *model.Accounts
	Panel      *presenter.PanelPresenter
	Clock      clock.Clock

	// baseCoords is set for device backends that take clicks in catalog
	// coordinates.
	baseCoords bool

	mu    sync.Mutex
	rules config.RulesConfig
	slots map[int]int // team slot of each started account, for the preview

	closers []io.Closer
}

// BuildContainer constructs every component from cfg. On error anything
// already opened is closed.
func BuildContainer(ctx context.Context, cfg *config.Config, cfgPath string, logger *slog.Logger) (c *Container, err error) {
	c = &Container{Config: cfg, ConfigPath: cfgPath, Logger: logger, Clock: clock.Real{}, rules: cfg.Rules, slots: map[int]int{}}
	defer func() {
		if err != nil {
			_ = c.Close()
		}
	}()

	if c.Catalog, err = roi.Load(cfg.CatalogPath); err != nil {
		return nil, err
	}
	if c.Templates, err = templates.NewStore(cfg.TemplateDir, templateCacheSize, logger); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(c.Catalog.Templates))
	for n := range c.Catalog.Templates {
		names = append(names, n)
	}
	loaded, err := c.Templates.Preload(ctx, names...)
	if err != nil {
		return nil, fmt.Errorf("preload templates: %w", err)
	}
	if logger != nil {
		logger.Info("templates loaded", "loaded", loaded, "configured", len(names))
	}
	matcher := capture.NewMatcher(c.Templates, cfg.Capture.Stride, cfg.Capture.Refine)
	c.Detector = detect.New(c.Catalog, matcher, logger)

	if c.Capturer, err = newCapturer(cfg, c.Catalog); err != nil {
		return nil, err
	}
	if err = c.openInjector(); err != nil {
		return nil, err
	}
	c.Alerter = action.NewAlerter(logger)

	if cfg.JournalPath != "" {
		if c.Journal, err = journal.Open(cfg.JournalPath, cfg.OutputDir); err != nil {
			return nil, err
		}
		c.closers = append(c.closers, c.Journal)
	}
	if c.Schedule, err = boss.NewSchedule(cfg.Boss); err != nil {
		return nil, err
	}

	acctNames := make([]string, len(cfg.Accounts))
	for i, a := range cfg.Accounts {
		acctNames[i] = a.Name
	}
	c.Supervisor = supervisor.New(len(cfg.Accounts), 0, c.newSession, logger)
	c.Supervisor.SetHideWindows(cfg.HideWindows)
	c.Accounts = model.NewAccounts(acctNames)
	c.Panel = presenter.NewPanelPresenter(c.Accounts, c.Supervisor, c.Schedule, nil, logger)
	c.Panel.Regions = c.regions
	return c, nil
}

func newCapturer(cfg *config.Config, cat roi.Catalog) (capture.Capturer, error) {
	width := cat.Frame.Width
	switch cfg.Capture.Backend {
	case "screen":
		rects := make(map[string]image.Rectangle, len(cfg.Accounts))
		for _, a := range cfg.Accounts {
			r := a.Rect
			rects[a.Name] = image.Rect(r[0], r[1], r[0]+r[2], r[1]+r[3])
		}
		return capture.NewScreenCapturer(rects, width), nil
	case "replay":
		if cfg.Capture.ReplayDir == "" {
			return nil, errors.New("capture.replay_dir is required for the replay backend")
		}
		return capture.NewReplayCapturer(cfg.Capture.ReplayDir, width), nil
	default:
		return capture.NewWindowCapturer(width, cat.Frame.TitleBar), nil
	}
}

func (c *Container) openInjector() error {
	in := c.Config.Input
	switch in.Backend {
	case "adb":
		c.Injector = action.NewADBInjector(in.ADBPath, nil, c.Logger)
		c.baseCoords = true
	case "arduino":
		inj, closer, err := action.OpenArduino(in.SerialPort, in.Baud, in.KeyHold, c.Logger)
		if err != nil {
			return err
		}
		c.Injector = inj
		c.closers = append(c.closers, closer)
	case "record":
		c.Injector = action.NewRecordingInjector(c.Logger)
	default:
		c.Injector = action.NewWindowInjector(in.KeyHold)
	}
	return nil
}

// SetRules replaces the rules used by sessions started afterwards.
func (c *Container) SetRules(r config.RulesConfig) {
	c.mu.Lock()
	c.rules = r
	c.mu.Unlock()
}

func (c *Container) currentRules() decision.Rules {
	c.mu.Lock()
	defer c.mu.Unlock()
	return decision.NewRules(c.rules, c.Catalog)
}

// newSession is the supervisor factory. The profile is read on every start
// so edits apply without restarting the program.
func (c *Container) newSession(i int) (supervisor.Runner, error) {
	if i < 0 || i >= len(c.Config.Accounts) {
		return nil, fmt.Errorf("account %d not configured", i)
	}
	acct := c.Config.Accounts[i]
	path := c.Config.ProfilePath(acct)
	profile, err := config.LoadProfile(path, c.Logger)
	if err != nil && c.Logger != nil {
		c.Logger.Warn("profile incomplete, defaults applied", "account", i, "path", path, "error", err)
	}
	c.mu.Lock()
	c.slots[i] = profile.Slot
	c.mu.Unlock()
	return session.New(i, acct, profile, session.Deps{
		Capturer:   c.Capturer,
		Detector:   c.Detector,
		Injector:   c.Injector,
		Alerter:    c.Alerter,
		Journal:    c.recorder(),
		Schedule:   c.Schedule,
		Rules:      c.currentRules(),
		Clock:      c.Clock,
		BaseCoords: c.baseCoords,
		Reporter:   c.Supervisor,
		Controls:   c.Supervisor,
		Logger:     c.Logger,
	}), nil
}

// recorder avoids handing a typed nil to the session.
func (c *Container) recorder() session.Recorder {
	if c.Journal == nil {
		return nil
	}
	return c.Journal
}

// regions outlines the selected account's sampling areas on the preview.
func (c *Container) regions(size image.Point) []image.Rectangle {
	c.mu.Lock()
	slot := c.slots[c.Supervisor.ShowIndex()]
	c.mu.Unlock()
	rs := c.Detector.Regions(size, slot)
	out := make([]image.Rectangle, len(rs))
	for i, r := range rs {
		out[i] = r.Rect
	}
	return out
}

// Shutdown stops every account, waiting up to ctx, then releases resources.
func (c *Container) Shutdown(ctx context.Context) error {
	var err error
	if c.Supervisor != nil {
		err = c.Supervisor.Shutdown(ctx)
	}
	return errors.Join(err, c.Close())
}

// Close releases the journal and device ports.
func (c *Container) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		errs = append(errs, c.closers[i].Close())
	}
	c.closers = nil
	return errors.Join(errs...)
}

package view

import (
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/soocke/linm-bot-go/config"
	"github.com/soocke/linm-bot-go/ui/theme"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"
)

// Handlers are the user actions the root view forwards to presenters.
type Handlers struct {
	Toggle      func(i int)
	Preview     func(i int)
	HideWindows func(on bool)
	BossSlot    func(i int, on bool)
	StopAll     func()
	Exit        func()
	ApplyRules  func(config.RulesConfig)
}

// BossSlot is the initial state of one boss toggle.
type BossSlot struct {
	Time    string
	Enabled bool
}

// RootView composes the control panel: a header, one row per account, the
// boss toggles, the rules form and the preview.
type RootView struct {
	cfg     *config.Config
	cfgPath string
	logger  *slog.Logger

	rows    []*accountRow
	preview *capturePreview
	Config  ConfigPanel

	hide     bool
	hideBtn  *ButtonWidget
	boss     []bool
	bossBtns []*ButtonWidget
}

func NewRootView(cfg *config.Config, cfgPath string, logger *slog.Logger) *RootView {
	return &RootView{cfg: cfg, cfgPath: cfgPath, logger: logger, hide: cfg != nil && cfg.HideWindows}
}

// Build constructs the layout. names are the account window names.
func (rv *RootView) Build(names []string, slots []BossSlot, h Handlers) {
	if rv == nil {
		return
	}
	header := Frame()
	Grid(header, Row(0), Column(0), Sticky("we"), Padx("0.4m"), Pady("0.3m"))
	rv.hideBtn = Button(Txt(hideText(rv.hide)), Command(func() {
		rv.hide = !rv.hide
		rv.hideBtn.Configure(Txt(hideText(rv.hide)))
		call1(h.HideWindows, rv.hide)
	}))
	Grid(rv.hideBtn, In(header), Row(0), Column(0), Sticky("w"), Padx("0.2m"))
	stopAll := TButton(Txt("Stop All (Shift+Q)"), Style(theme.StyleDangerButton), Command(func() { call0(h.StopAll) }))
	Grid(stopAll, In(header), Row(0), Column(1), Sticky("w"), Padx("0.2m"))
	exit := Button(Txt("Exit"), Command(func() { call0(h.Exit) }))
	Grid(exit, In(header), Row(0), Column(2), Sticky("e"), Padx("0.2m"))

	accounts := Frame(Borderwidth(1), Relief("groove"))
	Grid(accounts, Row(1), Column(0), Sticky("we"), Padx("0.4m"), Pady("0.3m"))
	if len(names) == 0 {
		Grid(Label(Txt("No accounts configured."), Anchor("w")), In(accounts), Row(0), Column(0), Sticky("w"))
	}
	rv.rows = make([]*accountRow, len(names))
	for i, n := range names {
		rv.rows[i] = newAccountRow(accounts, i, n,
			func() { call1(h.Toggle, i) },
			func() { call1(h.Preview, i) })
	}

	bossFrame := Frame()
	Grid(bossFrame, Row(2), Column(0), Sticky("we"), Padx("0.4m"), Pady("0.3m"))
	Grid(TLabel(Txt("Boss:"), Style(theme.StyleAccentLabel)), In(bossFrame), Row(0), Column(0), Sticky("w"), Padx("0.2m"))
	rv.boss = make([]bool, len(slots))
	rv.bossBtns = make([]*ButtonWidget, len(slots))
	for i, s := range slots {
		rv.boss[i] = s.Enabled
		rv.bossBtns[i] = Button(Txt(bossText(s.Time, s.Enabled)), Command(func() {
			rv.boss[i] = !rv.boss[i]
			rv.bossBtns[i].Configure(Txt(bossText(s.Time, rv.boss[i])))
			if h.BossSlot != nil {
				h.BossSlot(i, rv.boss[i])
			}
		}))
		Grid(rv.bossBtns[i], In(bossFrame), Row(0), Column(i+1), Sticky("w"), Padx("0.2m"))
	}

	rules := Frame(Borderwidth(1), Relief("groove"))
	Grid(rules, Row(3), Column(0), Sticky("we"), Padx("0.4m"), Pady("0.3m"))
	rv.Config = NewConfigPanel(rv.cfg, rv.cfgPath, h.ApplyRules, rv.logger)
	rv.Config.Build(rules, 0)

	rv.preview = newCapturePreview(4, 1)
}

// SetRow renders account i.
func (rv *RootView) SetRow(i int, status string, running bool, current, total time.Duration) {
	if rv == nil || i < 0 || i >= len(rv.rows) {
		return
	}
	rv.rows[i].set(status, running, current, total)
}

// SetPreview replaces the preview image. nil clears it.
func (rv *RootView) SetPreview(img image.Image) {
	if rv == nil {
		return
	}
	if img == nil {
		rv.preview.reset()
		return
	}
	rv.preview.update(img)
}

func hideText(on bool) string {
	if on {
		return "Show Windows"
	}
	return "Hide Windows"
}

func bossText(at string, on bool) string {
	if on {
		return fmt.Sprintf("%s on", at)
	}
	return fmt.Sprintf("%s off", at)
}

func call0(f func()) {
	if f != nil {
		f()
	}
}

func call1[T any](f func(T), v T) {
	if f != nil {
		f(v)
	}
}

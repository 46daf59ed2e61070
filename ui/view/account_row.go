package view

import (
	"time"

	"github.com/soocke/linm-bot-go/ui/model"
	"github.com/soocke/linm-bot-go/ui/theme"

	//lint:ignore ST1001 Dot import for concise Tk widget DSL.
	. "modernc.org/tk9.0"
)

// accountRow is one line of the account table: name, status, uptime and
// the per-account buttons.
type accountRow struct {
	name    *LabelWidget
	status  *LabelWidget
	uptime  *LabelWidget
	toggle  *TButtonWidget
	preview *ButtonWidget
}

func newAccountRow(parent *FrameWidget, row int, name string, onToggle, onPreview func()) *accountRow {
	r := &accountRow{
		name:    Label(Txt(name), Width(14), Anchor("w")),
		status:  Label(Txt("stopped"), Width(44), Anchor("w"), Borderwidth(1), Relief("ridge")),
		uptime:  Label(Txt(model.FormatUptime(0, 0)), Width(20), Anchor("w")),
		toggle:  TButton(Txt("Start"), Style(theme.StylePrimaryButton), Command(onToggle)),
		preview: Button(Txt("Show"), Command(onPreview)),
	}
	Grid(r.name, In(parent), Row(row), Column(0), Sticky("w"), Padx("0.3m"), Pady("0.15m"))
	Grid(r.status, In(parent), Row(row), Column(1), Sticky("we"), Padx("0.3m"), Pady("0.15m"))
	Grid(r.uptime, In(parent), Row(row), Column(2), Sticky("w"), Padx("0.3m"), Pady("0.15m"))
	Grid(r.toggle, In(parent), Row(row), Column(3), Sticky("we"), Padx("0.2m"), Pady("0.15m"))
	Grid(r.preview, In(parent), Row(row), Column(4), Sticky("we"), Padx("0.2m"), Pady("0.15m"))
	return r
}

func (r *accountRow) set(status string, running bool, current, total time.Duration) {
	if r == nil {
		return
	}
	r.status.Configure(Txt(status))
	r.uptime.Configure(Txt(model.FormatUptime(current, total)))
	if running {
		r.toggle.Configure(Txt("Stop"), Style(theme.StyleDangerButton))
	} else {
		r.toggle.Configure(Txt("Start"), Style(theme.StylePrimaryButton))
	}
}

package presenter

import (
	"image"
	"image/color"
	"log/slog"
	"time"

	"github.com/soocke/linm-bot-go/domain/supervisor"
	"github.com/soocke/linm-bot-go/ui/images"
	"github.com/soocke/linm-bot-go/ui/model"
)

// Supervisor is the part of the supervisor the panel drives.
type Supervisor interface {
	Messages() <-chan supervisor.Message
	Running(i int) bool
	Toggle(i int) error
	StopAll()
	SetShowIndex(i int)
	ShowIndex() int
	SetHideWindows(on bool)
}

// BossSlots toggles scheduled boss slots.
type BossSlots interface {
	SetEnabled(i int, on bool)
}

// PanelView renders account rows and the preview.
type PanelView interface {
	SetRow(i int, status string, running bool, current, total time.Duration)
	SetPreview(img image.Image)
}

// maxDrain bounds how many messages one tick applies so a burst cannot
// stall the Tk thread.
const maxDrain = 256

var regionColor = color.NRGBA{R: 255, G: 220, B: 0, A: 255}

// PanelPresenter is the single consumer of supervisor messages. All its
// methods run on the Tk thread.
type PanelPresenter struct {
	model  *model.Accounts
	sup    Supervisor
	boss   BossSlots
	view   PanelView
	logger *slog.Logger

	// Regions, when set, outlines the detector's sampling areas on the
	// preview.
	Regions func(size image.Point) []image.Rectangle
}

func NewPanelPresenter(m *model.Accounts, sup Supervisor, boss BossSlots, view PanelView, logger *slog.Logger) *PanelPresenter {
	return &PanelPresenter{model: m, sup: sup, boss: boss, view: view, logger: logger}
}

// SetView attaches the view once it is built.
func (p *PanelPresenter) SetView(v PanelView) {
	if p != nil {
		p.view = v
	}
}

// Tick drains pending messages without blocking and refreshes the view.
func (p *PanelPresenter) Tick(now time.Time) {
	if p == nil || p.model == nil || p.sup == nil {
		return
	}
	p.model.Show(p.sup.ShowIndex())
	p.drain()
	for i := range p.model.Len() {
		p.model.SetRunning(i, p.sup.Running(i), now)
		r, _ := p.model.Row(i)
		if !r.Dirty || p.view == nil {
			continue
		}
		cur, total := r.Uptime.Values()
		p.view.SetRow(i, r.Status, r.Running, cur, total)
		p.model.Clean(i)
	}
	if f, ok := p.model.TakePreview(); ok && f.Image != nil && p.view != nil {
		var img image.Image = f.Image
		if p.Regions != nil {
			img = images.Outline(f.Image, p.Regions(f.Size()), regionColor)
		}
		p.view.SetPreview(img)
	}
}

func (p *PanelPresenter) drain() {
	msgs := p.sup.Messages()
	for range maxDrain {
		select {
		case m := <-msgs:
			p.model.Apply(m)
		default:
			return
		}
	}
}

// Toggle starts or stops account i.
func (p *PanelPresenter) Toggle(i int) {
	if p == nil || p.sup == nil {
		return
	}
	if err := p.sup.Toggle(i); err != nil && p.logger != nil {
		p.logger.Error("toggle account failed", "account", i, "error", err)
	}
}

// Select chooses the previewed account. Selecting it again hides the
// preview.
func (p *PanelPresenter) Select(i int) {
	if p == nil || p.sup == nil {
		return
	}
	if p.sup.ShowIndex() == i {
		i = -1
	}
	p.sup.SetShowIndex(i)
	if p.model != nil {
		p.model.Show(i)
	}
}

// SetHideWindows forwards the hide switch.
func (p *PanelPresenter) SetHideWindows(on bool) {
	if p != nil && p.sup != nil {
		p.sup.SetHideWindows(on)
	}
}

// SetBossSlot enables or disables boss slot i.
func (p *PanelPresenter) SetBossSlot(i int, on bool) {
	if p != nil && p.boss != nil {
		p.boss.SetEnabled(i, on)
	}
}

// StopAll stops every account.
func (p *PanelPresenter) StopAll() {
	if p != nil && p.sup != nil {
		p.sup.StopAll()
	}
}

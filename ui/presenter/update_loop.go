package presenter

import "time"

// Loop drives the presenters from the Tk after-callback.
//
// The zero value is usable (methods are nil-safe).
type Loop struct {
	Panel    *PanelPresenter
	Schedule func()
}

func NewLoop(panel *PanelPresenter, schedule func()) *Loop {
	return &Loop{Panel: panel, Schedule: schedule}
}

func (l *Loop) Tick() {
	if l == nil {
		return
	}
	if l.Panel != nil {
		l.Panel.Tick(time.Now())
	}
	if l.Schedule != nil {
		l.Schedule()
	}
}

// Package model holds UI state. It is only touched from the Tk thread.
package model

import (
	"time"

	"github.com/soocke/linm-bot-go/domain/capture"
	"github.com/soocke/linm-bot-go/domain/supervisor"
)

// Account is one row of the control panel.
type Account struct {
	Name    string
	Status  string
	Running bool
	Uptime  Uptime
	// Dirty marks rows changed since the view last rendered them.
	Dirty bool
}

// Accounts is the panel state fed by supervisor messages.
type Accounts struct {
	rows    []Account
	show    int
	preview capture.Frame
	fresh   bool
}

// NewAccounts returns one row per window name.
func NewAccounts(names []string) *Accounts {
	m := &Accounts{rows: make([]Account, len(names)), show: -1}
	for i, n := range names {
		m.rows[i] = Account{Name: n, Status: "stopped", Dirty: true}
	}
	return m
}

// Len is the number of rows.
func (m *Accounts) Len() int { return len(m.rows) }

// Row returns a copy of row i.
func (m *Accounts) Row(i int) (Account, bool) {
	if i < 0 || i >= len(m.rows) {
		return Account{}, false
	}
	return m.rows[i], true
}

// Apply folds one supervisor message into the state.
func (m *Accounts) Apply(msg supervisor.Message) {
	if msg.Account < 0 || msg.Account >= len(m.rows) {
		return
	}
	r := &m.rows[msg.Account]
	switch msg.Kind {
	case supervisor.StatusText:
		r.Status = msg.Text
	case supervisor.FramePreview:
		// Frames queued before the selection changed are stale.
		if msg.Account != m.show {
			return
		}
		m.preview = msg.Frame
		m.fresh = true
		return
	case supervisor.Stopped:
		r.Status = msg.Text
		r.Running = false
	}
	r.Dirty = true
}

// Show selects the account whose previews are kept. Changing it drops a
// pending frame from the previous account.
func (m *Accounts) Show(i int) {
	if i == m.show {
		return
	}
	m.show = i
	m.preview = capture.Frame{}
	m.fresh = false
}

// SetRunning records the supervisor's running flag for row i at now.
func (m *Accounts) SetRunning(i int, running bool, now time.Time) {
	if i < 0 || i >= len(m.rows) {
		return
	}
	r := &m.rows[i]
	if r.Running != running {
		r.Running = running
		r.Dirty = true
	}
	before, _ := r.Uptime.Values()
	r.Uptime.OnTick(running, now)
	if after, _ := r.Uptime.Values(); after/time.Second != before/time.Second {
		r.Dirty = true
	}
}

// Clean clears the dirty mark of row i.
func (m *Accounts) Clean(i int) {
	if i >= 0 && i < len(m.rows) {
		m.rows[i].Dirty = false
	}
}

// TakePreview returns the newest preview frame once.
func (m *Accounts) TakePreview() (capture.Frame, bool) {
	if !m.fresh {
		return capture.Frame{}, false
	}
	m.fresh = false
	return m.preview, true
}

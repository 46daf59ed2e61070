package model

import (
	"fmt"
	"time"
)

// Uptime tracks how long an account has been running in its current run and
// in total. Presenters call OnTick with the supervisor's running flag.
// The zero value is ready to use.
type Uptime struct {
	active      bool
	since       time.Time
	current     time.Duration
	accumulated time.Duration
}

// OnTick folds the running flag observed at now into the counters.
func (u *Uptime) OnTick(running bool, now time.Time) {
	if u == nil {
		return
	}
	switch {
	case running && !u.active:
		u.active = true
		u.since = now
		u.current = 0
	case running:
		u.current = now.Sub(u.since)
	case u.active:
		u.current = now.Sub(u.since)
		u.accumulated += u.current
		u.active = false
	}
}

// Values returns the current run and the total. The total includes the
// ongoing run.
func (u *Uptime) Values() (current, total time.Duration) {
	if u == nil {
		return 0, 0
	}
	total = u.accumulated
	if u.active {
		total += u.current
	}
	return u.current, total
}

// FormatUptime renders "current / total" as HH:MM:SS pairs.
func FormatUptime(current, total time.Duration) string {
	return fmt.Sprintf("%s / %s", hms(current), hms(total))
}

func hms(d time.Duration) string {
	s := int(d.Seconds())
	return fmt.Sprintf("%02d:%02d:%02d", s/3600, s/60%60, s%60)
}

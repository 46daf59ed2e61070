package boss

import (
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/soocke/linm-bot-go/config"
)

// Slot is one scheduled encounter.
type Slot struct {
	Time    string
	Hour    int
	Minute  int
	Enabled bool
	// Skip suppresses the slot on these weekdays.
	Skip []time.Weekday
	// Alt opens the alternate boss menu on these weekdays.
	Alt []time.Weekday
}

// SkippedOn reports whether the slot is suppressed on wd.
func (s Slot) SkippedOn(wd time.Weekday) bool { return slices.Contains(s.Skip, wd) }

// AltOn reports whether the alternate menu entry is used on wd.
func (s Slot) AltOn(wd time.Weekday) bool { return slices.Contains(s.Alt, wd) }

// Schedule holds the slot list and the gate timing. Enabled flags may be
// toggled from the UI while sessions read them.
type Schedule struct {
	mu          sync.RWMutex
	lead        int
	windowStart int
	windowEnd   int
	slots       []Slot
}

// NewSchedule builds a schedule from configuration.
func NewSchedule(cfg config.BossConfig) (*Schedule, error) {
	s := &Schedule{lead: cfg.LeadMinutes, windowStart: cfg.WindowStart, windowEnd: cfg.WindowEnd}
	if s.lead <= 0 || s.lead >= 60 {
		return nil, fmt.Errorf("boss lead %d minutes outside 1-59", cfg.LeadMinutes)
	}
	for _, c := range cfg.Slots {
		t, err := time.Parse("15:04", c.Time)
		if err != nil {
			return nil, fmt.Errorf("boss slot %q: %w", c.Time, err)
		}
		skip, err := parseWeekdays(c.SkipWeekdays)
		if err != nil {
			return nil, fmt.Errorf("boss slot %s: %w", c.Time, err)
		}
		alt, err := parseWeekdays(c.AltWeekdays)
		if err != nil {
			return nil, fmt.Errorf("boss slot %s: %w", c.Time, err)
		}
		s.slots = append(s.slots, Slot{
			Time:    t.Format("15:04"),
			Hour:    t.Hour(),
			Minute:  t.Minute(),
			Enabled: c.Enabled,
			Skip:    skip,
			Alt:     alt,
		})
	}
	return s, nil
}

// Lead is how long before the slot the script starts.
func (s *Schedule) Lead() time.Duration { return time.Duration(s.lead) * time.Minute }

// Slots returns a copy of the slot list.
func (s *Schedule) Slots() []Slot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.slots)
}

// SetEnabled toggles slot i. Out-of-range indexes are ignored.
func (s *Schedule) SetEnabled(i int, on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i >= 0 && i < len(s.slots) {
		s.slots[i].Enabled = on
	}
}

// Enabled reports whether slot i is switched on.
func (s *Schedule) Enabled(i int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return i >= 0 && i < len(s.slots) && s.slots[i].Enabled
}

// Due reports the slot whose gate is open at now: the minute is 60-lead,
// the second is inside the window, and the target time is an enabled slot
// not skipped on the target's weekday.
func (s *Schedule) Due(now time.Time) (int, Slot, bool) {
	if now.Minute() != 60-s.lead || now.Second() < s.windowStart || now.Second() > s.windowEnd {
		return -1, Slot{}, false
	}
	target := now.Add(s.Lead())
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i, sl := range s.slots {
		if sl.Hour != target.Hour() || sl.Minute != target.Minute() {
			continue
		}
		if !sl.Enabled || sl.SkippedOn(target.Weekday()) {
			return -1, Slot{}, false
		}
		return i, sl, true
	}
	return -1, Slot{}, false
}

// Gate fires each due slot at most once per day. One per session.
type Gate struct {
	sched *Schedule
	fired map[string]bool
}

// NewGate returns a gate over sched.
func NewGate(sched *Schedule) *Gate {
	return &Gate{sched: sched, fired: make(map[string]bool)}
}

// Check returns the slot to run now, if any.
func (g *Gate) Check(now time.Time) (Slot, bool) {
	if g == nil || g.sched == nil {
		return Slot{}, false
	}
	_, sl, ok := g.sched.Due(now)
	if !ok {
		return Slot{}, false
	}
	key := now.Add(g.sched.Lead()).Format("2006-01-02 ") + sl.Time
	if g.fired[key] {
		return Slot{}, false
	}
	g.fired[key] = true
	return sl, true
}

func parseWeekdays(names []string) ([]time.Weekday, error) {
	var out []time.Weekday
	for _, n := range names {
		wd, ok := weekdays[strings.ToLower(strings.TrimSpace(n))]
		if !ok {
			return nil, fmt.Errorf("unknown weekday %q", n)
		}
		out = append(out, wd)
	}
	return out, nil
}

var weekdays = map[string]time.Weekday{
	"sunday": time.Sunday, "sun": time.Sunday,
	"monday": time.Monday, "mon": time.Monday,
	"tuesday": time.Tuesday, "tue": time.Tuesday,
	"wednesday": time.Wednesday, "wed": time.Wednesday,
	"thursday": time.Thursday, "thu": time.Thursday,
	"friday": time.Friday, "fri": time.Friday,
	"saturday": time.Saturday, "sat": time.Saturday,
}

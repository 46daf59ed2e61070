package boss

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/soocke/linm-bot-go/config"
	"github.com/soocke/linm-bot-go/domain/action"
	"github.com/soocke/linm-bot-go/domain/clock"
	"github.com/soocke/linm-bot-go/domain/roi"
)

var discardLogger = slog.New(slog.NewTextHandler(&discardWriter{}, nil))

type discardWriter struct{}

func (d *discardWriter) Write(p []byte) (int, error) { return len(p), nil }

func schedule(t *testing.T) *Schedule {
	t.Helper()
	s, err := NewSchedule(config.DefaultConfig().Boss)
	if err != nil {
		t.Fatalf("NewSchedule: %v", err)
	}
	return s
}

// at returns a local time on the first date after 2026-10-01 with weekday wd.
func at(wd time.Weekday, hh, mm, ss int) time.Time {
	d := time.Date(2026, 10, 1, hh, mm, ss, 0, time.Local)
	for d.Weekday() != wd {
		d = d.AddDate(0, 0, 1)
	}
	return d
}

func TestNewScheduleRejectsBadInput(t *testing.T) {
	cfg := config.DefaultConfig().Boss
	cfg.Slots = []config.BossSlot{{Time: "25:00"}}
	if _, err := NewSchedule(cfg); err == nil {
		t.Fatalf("expected error for bad time")
	}
	cfg.Slots = []config.BossSlot{{Time: "13:00", SkipWeekdays: []string{"Caturday"}}}
	if _, err := NewSchedule(cfg); err == nil {
		t.Fatalf("expected error for bad weekday")
	}
	cfg = config.DefaultConfig().Boss
	cfg.LeadMinutes = 0
	if _, err := NewSchedule(cfg); err == nil {
		t.Fatalf("expected error for zero lead")
	}
}

func TestGateFiresOncePerWindow(t *testing.T) {
	g := NewGate(schedule(t))
	open := at(time.Monday, 12, 55, 5)
	sl, ok := g.Check(open)
	if !ok || sl.Time != "13:00" {
		t.Fatalf("expected 13:00 slot at %v, got %+v ok=%v", open, sl, ok)
	}
	for _, s := range []int{6, 8, 10} {
		if _, ok := g.Check(open.Add(time.Duration(s-5) * time.Second)); ok {
			t.Fatalf("gate fired twice in one window (second %d)", s)
		}
	}
	// Next day the same slot fires again.
	if _, ok := g.Check(open.AddDate(0, 0, 1)); !ok {
		t.Fatalf("expected slot to fire the following day")
	}
}

func TestGateWindowBounds(t *testing.T) {
	g := NewGate(schedule(t))
	for _, now := range []time.Time{
		at(time.Monday, 12, 55, 4),
		at(time.Monday, 12, 55, 11),
		at(time.Monday, 12, 54, 5),
		at(time.Monday, 13, 0, 5),
		at(time.Monday, 14, 55, 5), // 15:00 is not a slot
	} {
		if _, ok := g.Check(now); ok {
			t.Fatalf("gate should be closed at %v", now)
		}
	}
}

func TestGateDisabledSlot(t *testing.T) {
	s := schedule(t)
	g := NewGate(s)
	now := at(time.Monday, 21, 55, 5) // 22:00 disabled by default
	if _, ok := g.Check(now); ok {
		t.Fatalf("disabled slot fired")
	}
	s.SetEnabled(4, true)
	if !s.Enabled(4) {
		t.Fatalf("SetEnabled did not stick")
	}
	if sl, ok := g.Check(now.Add(time.Second)); !ok || sl.Time != "22:00" {
		t.Fatalf("enabled slot did not fire: %+v %v", sl, ok)
	}
	s.SetEnabled(99, true) // ignored
}

func TestGateSkipsWeekday(t *testing.T) {
	g := NewGate(schedule(t))
	if _, ok := g.Check(at(time.Sunday, 20, 55, 5)); ok {
		t.Fatalf("21:00 should be skipped on Sunday")
	}
	if _, ok := g.Check(at(time.Saturday, 20, 55, 5)); !ok {
		t.Fatalf("21:00 should fire on Saturday")
	}
}

func TestGateUsesTargetWeekday(t *testing.T) {
	cfg := config.DefaultConfig().Boss
	cfg.Slots = []config.BossSlot{{Time: "00:00", Enabled: true, SkipWeekdays: []string{"Sun"}}}
	s, err := NewSchedule(cfg)
	if err != nil {
		t.Fatalf("NewSchedule: %v", err)
	}
	// 23:55 Saturday targets midnight Sunday.
	if _, ok := NewGate(s).Check(at(time.Saturday, 23, 55, 6)); ok {
		t.Fatalf("slot on Sunday midnight should be skipped")
	}
	if _, ok := NewGate(s).Check(at(time.Sunday, 23, 55, 6)); !ok {
		t.Fatalf("slot on Monday midnight should fire")
	}
}

func TestSlotsIsACopy(t *testing.T) {
	s := schedule(t)
	sl := s.Slots()
	sl[0].Enabled = false
	if !s.Enabled(0) {
		t.Fatalf("Slots leaked internal state")
	}
}

type sink struct{ sent []action.Command }

func (s *sink) send(_ context.Context, cmd action.Command) error {
	s.sent = append(s.sent, cmd)
	return nil
}

func newScript(c clock.Clock, out *sink) *Script {
	sc := NewScript(c, out.send, "8", discardLogger)
	sc.Jitter = func() time.Duration { return 0 }
	return sc
}

func TestScriptRunsSequence(t *testing.T) {
	fc := clock.NewFake(at(time.Monday, 12, 55, 5))
	out := &sink{}
	sl, _ := NewGate(schedule(t)).Check(fc.Now())
	ok, err := newScript(fc, out).Run(context.Background(), sl, time.Monday)
	if err != nil || !ok {
		t.Fatalf("Run = %v, %v", ok, err)
	}
	want := []action.Command{action.Key("8"), action.Click(roi.BossQuest), action.Click(roi.Key2), action.Click(roi.AutoBtn)}
	if len(out.sent) != len(want) {
		t.Fatalf("sent %v, want %v", out.sent, want)
	}
	for i := range want {
		if out.sent[i] != want[i] {
			t.Fatalf("command %d = %v, want %v", i, out.sent[i], want[i])
		}
	}
	slept := fc.Slept()
	if slept[0] != 10*time.Second || slept[1] != 3*time.Second {
		t.Fatalf("unexpected delays %v", slept[:2])
	}
	if fc.Now().Minute() != 0 || fc.Now().Hour() != 13 {
		t.Fatalf("auto pressed at %v, want 13:00", fc.Now())
	}
}

func TestScriptAltMenu(t *testing.T) {
	fc := clock.NewFake(at(time.Friday, 22, 55, 5))
	out := &sink{}
	sl := Slot{Time: "23:00", Hour: 23, Enabled: true, Alt: []time.Weekday{time.Friday}}
	if _, err := newScript(fc, out).Run(context.Background(), sl, time.Friday); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.sent[1] != action.Click(roi.BossQuestAlt) {
		t.Fatalf("expected alternate menu on Friday, got %v", out.sent[1])
	}
}

func TestScriptStopsOnCancel(t *testing.T) {
	fc := clock.NewFake(at(time.Monday, 12, 55, 5))
	ctx, cancel := context.WithCancel(context.Background())
	fc.OnWake(func(time.Time) { cancel() })
	out := &sink{}
	ok, err := newScript(fc, out).Run(ctx, Slot{Time: "13:00", Hour: 13}, time.Monday)
	if ok || !errors.Is(err, context.Canceled) {
		t.Fatalf("Run = %v, %v; want cancelled", ok, err)
	}
	if len(out.sent) != 1 {
		t.Fatalf("expected only the return-home key, got %v", out.sent)
	}
}

func TestScriptGivesUp(t *testing.T) {
	fc := clock.NewFake(at(time.Monday, 12, 10, 0))
	out := &sink{}
	sc := newScript(fc, out)
	sc.MaxWait = time.Minute
	ok, err := sc.Run(context.Background(), Slot{Time: "13:00", Hour: 13}, time.Monday)
	if ok || err != nil {
		t.Fatalf("Run = %v, %v; want give up", ok, err)
	}
	if len(out.sent) != 3 {
		t.Fatalf("auto should not be pressed, sent %v", out.sent)
	}
}

func TestScriptLogsSendFailure(t *testing.T) {
	fc := clock.NewFake(at(time.Monday, 12, 55, 5))
	calls := 0
	sc := NewScript(fc, func(context.Context, action.Command) error {
		calls++
		return action.ErrInjectionFailed
	}, "8", discardLogger)
	sc.Jitter = nil
	ok, err := sc.Run(context.Background(), Slot{Time: "13:00", Hour: 13}, time.Monday)
	if !ok || err != nil {
		t.Fatalf("send failures should not abort: %v %v", ok, err)
	}
	if calls != 4 {
		t.Fatalf("expected 4 send attempts, got %d", calls)
	}
}

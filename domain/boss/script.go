package boss

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/soocke/linm-bot-go/domain/action"
	"github.com/soocke/linm-bot-go/domain/clock"
	"github.com/soocke/linm-bot-go/domain/roi"
)

// Script runs the boss sequence for one account. It owns the account's
// input until Run returns.
type Script struct {
	Clock clock.Clock
	Send  func(ctx context.Context, cmd action.Command) error
	// ReturnHome is the profile's return-home hotkey.
	ReturnHome string
	Settle     time.Duration
	Jitter     func() time.Duration
	MenuDelay  time.Duration
	Poll       time.Duration
	// MaxWait bounds the wait for the boss to spawn.
	MaxWait time.Duration
	Logger  *slog.Logger
}

// NewScript returns a script with the standard delays: 10s settle plus up
// to 10s jitter, 3s before confirming and a 10s spawn poll.
func NewScript(c clock.Clock, send func(context.Context, action.Command) error, returnHome string, logger *slog.Logger) *Script {
	return &Script{
		Clock:      c,
		Send:       send,
		ReturnHome: returnHome,
		Settle:     10 * time.Second,
		Jitter:     func() time.Duration { return time.Duration(rand.IntN(11)) * time.Second },
		MenuDelay:  3 * time.Second,
		Poll:       10 * time.Second,
		MaxWait:    15 * time.Minute,
		Logger:     logger,
	}
}

// Run executes the sequence. It reports whether the auto button was pressed;
// a cancelled context ends it early with ctx.Err().
func (s *Script) Run(ctx context.Context, slot Slot, weekday time.Weekday) (bool, error) {
	s.log("boss script start, returning home", "slot", slot.Time)
	s.send(ctx, action.Key(s.ReturnHome))

	wait := s.Settle
	if s.Jitter != nil {
		wait += s.Jitter()
	}
	if err := s.Clock.Sleep(ctx, wait); err != nil {
		return false, err
	}

	menu := roi.BossQuest
	if slot.AltOn(weekday) {
		menu = roi.BossQuestAlt
	}
	s.send(ctx, action.Click(menu))
	if err := s.Clock.Sleep(ctx, s.MenuDelay); err != nil {
		return false, err
	}
	s.log("confirm boss entry", "slot", slot.Time)
	s.send(ctx, action.Click(roi.Key2))

	deadline := s.Clock.Now().Add(s.MaxWait)
	for {
		if err := s.Clock.Sleep(ctx, s.Poll); err != nil {
			s.log("stopped while waiting for boss", "slot", slot.Time)
			return false, err
		}
		now := s.Clock.Now()
		if now.Minute() == 0 {
			s.send(ctx, action.Click(roi.AutoBtn))
			s.log("boss started, auto on", "slot", slot.Time)
			return true, nil
		}
		if now.After(deadline) {
			s.log("boss did not start in time", "slot", slot.Time)
			return false, nil
		}
	}
}

// send is open loop: failures are logged and the script continues.
func (s *Script) send(ctx context.Context, cmd action.Command) {
	if err := s.Send(ctx, cmd); err != nil && s.Logger != nil {
		s.Logger.Warn("boss input failed", "command", cmd.String(), "error", err)
	}
}

func (s *Script) log(msg string, args ...any) {
	if s.Logger != nil {
		s.Logger.Info(msg, args...)
	}
}

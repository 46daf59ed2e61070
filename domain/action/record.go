package action

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"time"
)

// Sent is one recorded command. Click and Screen are set for commands with
// an on-screen position: Click relative to the client area, Screen with the
// target's origin added.
type Sent struct {
	Target  string
	Command Command
	Click   image.Point
	Screen  image.Point
	At      time.Time
}

// RecordingInjector keeps every command instead of sending it. Used for dry
// runs and tests.
type RecordingInjector struct {
	mu     sync.Mutex
	sent   []Sent
	fail   error
	logger *slog.Logger
}

// NewRecordingInjector returns an empty recorder.
func NewRecordingInjector(logger *slog.Logger) *RecordingInjector {
	return &RecordingInjector{logger: logger}
}

// FailWith makes subsequent sends fail with err wrapped in
// ErrInjectionFailed. nil restores success.
func (r *RecordingInjector) FailWith(err error) {
	r.mu.Lock()
	r.fail = err
	r.mu.Unlock()
}

func (r *RecordingInjector) Send(ctx context.Context, t Target, cmd Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	sent := Sent{Target: t.Name, Command: cmd, At: time.Now()}
	if p, err := t.Point(cmd); err == nil {
		sent.Click = p
		sent.Screen = p.Add(t.Origin)
	}
	r.sent = append(r.sent, sent)
	if r.logger != nil {
		r.logger.Debug("input recorded", "target", t.Name, "command", cmd.String())
	}
	if r.fail != nil {
		return fmt.Errorf("%w: %v", ErrInjectionFailed, r.fail)
	}
	return nil
}

// Sent returns a copy of all recorded commands.
func (r *RecordingInjector) Sent() []Sent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Sent(nil), r.sent...)
}

// Commands returns the recorded commands for one target.
func (r *RecordingInjector) Commands(target string) []Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Command
	for _, s := range r.sent {
		if s.Target == target {
			out = append(out, s.Command)
		}
	}
	return out
}

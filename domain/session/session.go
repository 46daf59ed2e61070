// Package session runs the capture, detect, decide and act loop for one
// account.
package session

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/soocke/linm-bot-go/config"
	"github.com/soocke/linm-bot-go/domain/action"
	"github.com/soocke/linm-bot-go/domain/boss"
	"github.com/soocke/linm-bot-go/domain/capture"
	"github.com/soocke/linm-bot-go/domain/clock"
	"github.com/soocke/linm-bot-go/domain/decision"
	"github.com/soocke/linm-bot-go/domain/detect"
	"github.com/soocke/linm-bot-go/domain/journal"
)

const (
	// hideOffset moves a hidden window off every realistic desktop.
	hideOffset = 10000
	// hiddenAt is the coordinate past which a window counts as hidden.
	hiddenAt = 8000
	// repeatGap separates repeated presses of one action.
	repeatGap = 500 * time.Millisecond
	// bossHomeHold pushes the return-home timer past the encounter intro.
	bossHomeHold = 10 * time.Minute
)

// Detector turns a frame into a game state.
type Detector interface {
	Detect(frame *image.RGBA, slot int) detect.GameState
}

// Recorder persists incidents.
type Recorder interface {
	Record(e journal.Entry) (journal.Incident, error)
}

// Reporter receives a session's output for the UI.
type Reporter interface {
	Status(account int, text string)
	Preview(account int, f capture.Frame)
}

// Controls are the UI switches a session reads once per tick.
type Controls interface {
	ShowIndex() int
	HideWindows() bool
}

// Deps are the collaborators shared by all sessions. Journal, Schedule,
// Alerter, Reporter and Controls may be nil.
type Deps struct {
	Capturer capture.Capturer
	Detector Detector
	Injector action.Injector
	Alerter  action.Alerter
	Journal  Recorder
	Schedule *boss.Schedule
	Rules    decision.Rules
	Clock    clock.Clock
	// BaseCoords sends clicks in catalog coordinates instead of scaling them
	// to the window size. Device backends use it.
	BaseCoords bool
	Reporter   Reporter
	Controls   Controls
	Logger     *slog.Logger
}

// Session is one account's loop. Its timers are owned by the goroutine
// calling Run.
type Session struct {
	index   int
	account config.Account
	profile config.AccountProfile
	deps    Deps
	runID   string
	gate    *boss.Gate
	logger  *slog.Logger

	window capture.Window
	target action.Target
	timers decision.Timers
}

// New returns a session for account index. The profile is fixed for the
// session's lifetime.
func New(index int, acct config.Account, profile config.AccountProfile, deps Deps) *Session {
	if deps.Clock == nil {
		deps.Clock = clock.Real{}
	}
	runID := uuid.NewString()
	logger := deps.Logger
	if logger != nil {
		logger = logger.With("account", index, "window", acct.Name, "run", runID)
	}
	s := &Session{
		index:   index,
		account: acct,
		profile: profile,
		deps:    deps,
		runID:   runID,
		logger:  logger,
		timers:  decision.NewTimers(deps.Clock.Now(), deps.Rules),
	}
	if deps.Schedule != nil {
		s.gate = boss.NewGate(deps.Schedule)
	}
	return s
}

// RunID identifies this run in logs and the journal.
func (s *Session) RunID() string { return s.runID }

// Timers returns the current decision timers. Not safe while Run is active.
func (s *Session) Timers() decision.Timers { return s.timers }

// Run attaches to the window and loops until ctx is cancelled, which
// returns nil. Losing the window ends the run with ErrCaptureUnavailable.
func (s *Session) Run(ctx context.Context) error {
	if err := s.Attach(); err != nil {
		return err
	}
	if s.logger != nil {
		s.logger.Info("session started", "slot", s.profile.Slot, "role", s.profile.Role)
	}
	var next time.Duration
	for {
		if ctx.Err() != nil {
			break
		}
		if err := s.deps.Clock.Sleep(ctx, next); err != nil {
			break
		}
		n, err := s.Tick(ctx)
		if err != nil {
			if s.logger != nil {
				s.logger.Error("session halted", "error", err)
			}
			return err
		}
		next = n
	}
	if s.logger != nil {
		s.logger.Info("session stopped")
	}
	return nil
}

// Attach resolves the account's window.
func (s *Session) Attach() error {
	w, err := s.deps.Capturer.Resolve(s.account.Name)
	if err != nil {
		return unavailable(err)
	}
	s.window = w
	s.target = action.Target{Name: s.account.Name, Handle: w.Handle, Device: s.account.Device}
	if r, err := s.deps.Capturer.Rect(w); err == nil {
		s.place(r)
	}
	return nil
}

// Tick runs one iteration and returns the delay before the next one.
func (s *Session) Tick(ctx context.Context) (time.Duration, error) {
	start := s.deps.Clock.Now()
	if sl, ok := s.gate.Check(start); ok {
		s.runBoss(ctx, sl, start)
		return 0, nil
	}

	s.visibility()

	f, err := s.deps.Capturer.Capture(s.window)
	if err != nil {
		return 0, unavailable(err)
	}
	st := s.deps.Detector.Detect(f.Image, s.profile.Slot)
	d := decision.Decide(st, s.profile, s.timers, start, s.deps.Rules)
	s.timers = d.Timers

	s.act(ctx, d)
	if d.Screenshot != "" && f.Image != nil {
		s.record(d.Screenshot, st, f.Image)
	}
	if d.Beeps > 0 {
		s.alert(d.Beeps)
	}
	if d.Alert {
		if s.logger != nil {
			s.logger.Warn("no attack for too long", "ticks", d.Timers.NoAttackTicks)
		}
		s.alert(d.AlertBeeps)
	}

	elapsed := s.deps.Clock.Now().Sub(start)
	if s.logger != nil {
		s.logger.Debug("tick", "hp", st.HP.String(), "mp", st.MP.String(), "action", d.Action.String(), "next", d.Next)
	}
	if s.deps.Controls != nil && s.deps.Controls.ShowIndex() == s.index && s.deps.Reporter != nil {
		s.deps.Reporter.Preview(s.index, f)
	}
	s.status(fmt.Sprintf("HP:%03d, MP:%03d, %dms, %s", st.HP.Display(), st.MP.Display(), elapsed.Milliseconds(), d.Info))
	return d.Next, nil
}

// act sends the decision's input. Repeats finish even if a stop arrives
// in between, so an action is never cut short.
func (s *Session) act(ctx context.Context, d decision.Decision) {
	if !d.Acts() {
		return
	}
	cmd := action.Command{Hotkey: d.Hotkey, Button: d.Button}
	ctx = context.WithoutCancel(ctx)
	_ = s.send(ctx, cmd)
	for range d.Repeat {
		if err := s.deps.Clock.Sleep(ctx, repeatGap); err != nil {
			return
		}
		_ = s.send(ctx, cmd)
	}
}

// send is open loop: a failed input is logged and the next tick's frame
// shows whether anything happened.
func (s *Session) send(ctx context.Context, cmd action.Command) error {
	if s.deps.Injector == nil {
		return nil
	}
	err := action.Bound{Injector: s.deps.Injector, Target: s.target}.Send(ctx, cmd)
	if err != nil && s.logger != nil {
		s.logger.Warn("input failed", "command", cmd.String(), "error", err)
	}
	return err
}

func (s *Session) runBoss(ctx context.Context, sl boss.Slot, now time.Time) {
	s.status(fmt.Sprintf("boss %s: script running.", sl.Time))
	wd := now.Add(s.deps.Schedule.Lead()).Weekday()
	script := boss.NewScript(s.deps.Clock, s.send, s.profile.Hotkeys.ReturnHome, s.logger)
	started, err := script.Run(ctx, sl, wd)
	s.timers.LastReturnHome = s.deps.Clock.Now().Add(bossHomeHold)
	if err != nil {
		return
	}
	s.record(journal.TagBoss, detect.GameState{HP: detect.Unknown(), MP: detect.Unknown()}, nil)
	if started {
		s.status(fmt.Sprintf("boss %s: auto on.", sl.Time))
	} else {
		s.status(fmt.Sprintf("boss %s: did not start.", sl.Time))
	}
}

// visibility moves the window off-screen or back as the hide switch says.
func (s *Session) visibility() {
	hide := s.deps.Controls != nil && s.deps.Controls.HideWindows()
	r, err := s.deps.Capturer.Rect(s.window)
	if err != nil {
		return
	}
	off := image.Pt(hideOffset, hideOffset)
	var moved image.Rectangle
	switch {
	case hide && r.Min.X <= hiddenAt && r.Min.Y <= hiddenAt:
		moved = r.Add(off)
	case !hide && r.Min.X >= hiddenAt && r.Min.Y >= hiddenAt:
		moved = r.Sub(off)
	default:
		s.place(r)
		return
	}
	if err := s.deps.Capturer.SetPosition(s.window, moved); err != nil {
		if !errors.Is(err, errors.ErrUnsupported) && s.logger != nil {
			s.logger.Warn("move window failed", "hide", hide, "error", err)
		}
		s.place(r)
		return
	}
	s.place(moved)
}

// place aims input at the client area of a window whose outer rectangle
// is r. Buttons are scaled to the client size; window messages take client
// coordinates and screen devices add Origin.
func (s *Session) place(r image.Rectangle) {
	if s.deps.BaseCoords {
		return
	}
	if cr, err := s.deps.Capturer.ClientRect(s.window); err == nil && !cr.Empty() {
		r = cr
	}
	s.target.Origin = r.Min
	s.target.Size = r.Size()
}

func (s *Session) record(tag string, st detect.GameState, frame image.Image) {
	if s.deps.Journal == nil {
		return
	}
	_, err := s.deps.Journal.Record(journal.Entry{
		RunID:   s.runID,
		Account: s.index,
		Window:  s.account.Name,
		Tag:     tag,
		HP:      st.HP.Display(),
		MP:      st.MP.Display(),
		Frame:   frame,
		At:      s.deps.Clock.Now(),
	})
	if err != nil && s.logger != nil {
		s.logger.Warn("journal write failed", "tag", tag, "error", err)
	}
}

func (s *Session) alert(beeps int) {
	if s.deps.Alerter != nil && beeps > 0 {
		s.deps.Alerter.Alert(beeps)
	}
}

func (s *Session) status(text string) {
	if s.deps.Reporter != nil {
		s.deps.Reporter.Status(s.index, text)
	}
}

func unavailable(err error) error {
	if errors.Is(err, capture.ErrCaptureUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %v", capture.ErrCaptureUnavailable, err)
}

// Package supervisor runs one session goroutine per account and funnels
// their output into a single ordered channel for the UI.
package supervisor

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/soocke/linm-bot-go/domain/capture"
)

// Kind tags a Message.
type Kind int

const (
	StatusText Kind = iota
	FramePreview
	Stopped
)

func (k Kind) String() string {
	switch k {
	case StatusText:
		return "status"
	case FramePreview:
		return "preview"
	case Stopped:
		return "stopped"
	}
	return "unknown"
}

// Message is the only way session output reaches the UI.
type Message struct {
	Kind    Kind
	Account int
	Text    string
	Frame   capture.Frame
}

// maxStopText bounds the error text carried by a Stopped message.
const maxStopText = 120

// Runner is one account's loop. Run returns nil when ctx is cancelled.
type Runner interface {
	Run(ctx context.Context) error
}

// Factory builds the runner for account index. Called on every Start.
type Factory func(index int) (Runner, error)

type task struct {
	cancel  context.CancelFunc
	done    chan struct{}
	stopped atomic.Bool
}

// Supervisor owns the account tasks. All methods are safe for concurrent
// use; the UI thread is the expected caller of the control methods.
type Supervisor struct {
	mu      sync.Mutex
	n       int
	factory Factory
	tasks   map[int]*task

	msgs     chan Message
	quit     chan struct{}
	quitOnce sync.Once

	show atomic.Int64
	hide atomic.Bool

	logger *slog.Logger
}

// New returns a supervisor for n accounts. buffer sizes the message queue.
func New(n, buffer int, factory Factory, logger *slog.Logger) *Supervisor {
	if buffer <= 0 {
		buffer = 256
	}
	s := &Supervisor{
		n:       n,
		factory: factory,
		tasks:   make(map[int]*task),
		msgs:    make(chan Message, buffer),
		quit:    make(chan struct{}),
		logger:  logger,
	}
	s.show.Store(-1)
	return s
}

// SetFactory replaces the runner factory. Sessions report back to the
// supervisor, so the factory is often bound after construction.
func (s *Supervisor) SetFactory(f Factory) {
	s.mu.Lock()
	s.factory = f
	s.mu.Unlock()
}

// Len is the number of accounts.
func (s *Supervisor) Len() int { return s.n }

// Messages is the single consumer side of the queue.
func (s *Supervisor) Messages() <-chan Message { return s.msgs }

// Start launches account i. Starting a running account does nothing. If a
// previous task is still finishing its tick, the new one waits for it.
func (s *Supervisor) Start(i int) error {
	if i < 0 || i >= s.n {
		return fmt.Errorf("account %d out of range", i)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	select {
	case <-s.quit:
		return fmt.Errorf("supervisor shut down")
	default:
	}
	prev := s.tasks[i]
	if prev != nil && !prev.stopped.Load() {
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	t := &task{cancel: cancel, done: make(chan struct{})}
	s.tasks[i] = t
	go s.run(ctx, i, t, prev, s.factory)
	if s.logger != nil {
		s.logger.Info("account started", "account", i)
	}
	return nil
}

// Stop asks account i to finish its current tick and exit.
func (s *Supervisor) Stop(i int) {
	s.mu.Lock()
	t := s.tasks[i]
	s.mu.Unlock()
	if t == nil || t.stopped.Swap(true) {
		return
	}
	t.cancel()
	if s.logger != nil {
		s.logger.Info("account stopping", "account", i)
	}
}

// StopAll stops every account.
func (s *Supervisor) StopAll() {
	for i := range s.n {
		s.Stop(i)
	}
}

// Toggle starts a stopped account or stops a running one.
func (s *Supervisor) Toggle(i int) error {
	if s.Running(i) {
		s.Stop(i)
		return nil
	}
	return s.Start(i)
}

// Running reports whether account i is running. It turns false as soon as
// Stop is called or the task dies.
func (s *Supervisor) Running(i int) bool {
	s.mu.Lock()
	t := s.tasks[i]
	s.mu.Unlock()
	return t != nil && !t.stopped.Load()
}

// RunningCount returns how many accounts are running.
func (s *Supervisor) RunningCount() int {
	n := 0
	for i := range s.n {
		if s.Running(i) {
			n++
		}
	}
	return n
}

// SetShowIndex selects the account whose frames are previewed. -1 shows
// none.
func (s *Supervisor) SetShowIndex(i int) { s.show.Store(int64(i)) }

func (s *Supervisor) ShowIndex() int { return int(s.show.Load()) }

// SetHideWindows switches off-screen hiding for every account.
func (s *Supervisor) SetHideWindows(on bool) { s.hide.Store(on) }

func (s *Supervisor) HideWindows() bool { return s.hide.Load() }

// Status queues a status line for account i.
func (s *Supervisor) Status(i int, text string) {
	s.emit(Message{Kind: StatusText, Account: i, Text: text})
}

// Preview queues a frame for account i.
func (s *Supervisor) Preview(i int, f capture.Frame) {
	s.emit(Message{Kind: FramePreview, Account: i, Frame: f})
}

// Shutdown stops every account and waits for them, or for ctx.
func (s *Supervisor) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.quitOnce.Do(func() { close(s.quit) })
	tasks := make(map[int]*task, len(s.tasks))
	for i, t := range s.tasks {
		tasks[i] = t
	}
	s.mu.Unlock()

	var g errgroup.Group
	for i, t := range tasks {
		t.stopped.Store(true)
		t.cancel()
		g.Go(func() error {
			select {
			case <-t.done:
				return nil
			case <-ctx.Done():
				return fmt.Errorf("account %d did not stop: %w", i, ctx.Err())
			}
		})
	}
	return g.Wait()
}

func (s *Supervisor) run(ctx context.Context, i int, t *task, prev *task, factory Factory) {
	defer close(t.done)
	if prev != nil {
		<-prev.done
	}
	var err error
	if ctx.Err() == nil {
		err = s.guard(ctx, i, factory)
	}
	t.stopped.Store(true)
	t.cancel()

	text := "stopped"
	if err != nil {
		text = truncate(err.Error(), maxStopText)
		if s.logger != nil {
			s.logger.Error("account stopped", "account", i, "error", err)
		}
	} else if s.logger != nil {
		s.logger.Info("account stopped", "account", i)
	}
	s.emit(Message{Kind: Stopped, Account: i, Text: text})
}

// guard runs one task and turns a panic into an error.
func (s *Supervisor) guard(ctx context.Context, i int, factory Factory) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if s.logger != nil {
				s.logger.Error("session panic", "account", i, "error", r, "stack", string(debug.Stack()))
			}
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	if factory == nil {
		return fmt.Errorf("no session factory")
	}
	r, err := factory(i)
	if err != nil {
		return err
	}
	return r.Run(ctx)
}

// emit blocks while the queue is full, until shutdown.
func (s *Supervisor) emit(m Message) {
	select {
	case s.msgs <- m:
	case <-s.quit:
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

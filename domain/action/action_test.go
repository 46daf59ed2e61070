package action

import (
	"context"
	"errors"
	"image"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/soocke/linm-bot-go/domain/roi"
)

var discardLogger = slog.New(slog.NewTextHandler(&discardWriter{}, nil))

type discardWriter struct{}

func (d *discardWriter) Write(p []byte) (int, error) { return len(p), nil }

func TestTargetPointScales(t *testing.T) {
	tg := Target{Name: "a", Size: image.Pt(640, 360)}
	p, err := tg.Point(Key("1"))
	if err != nil {
		t.Fatalf("Point: %v", err)
	}
	if p != image.Pt(240, 317) {
		t.Fatalf("key1 at half resolution=%v", p)
	}
	p, err = Target{}.Point(Click(roi.AutoBtn))
	if err != nil || p != image.Pt(970, 510) {
		t.Fatalf("zero size should use base resolution: %v %v", p, err)
	}
	if _, err := tg.Point(Key("F3")); !errors.Is(err, ErrInjectionFailed) {
		t.Fatalf("non-digit hotkey has no position, err=%v", err)
	}
}

func TestBoundSkipsEmptyCommand(t *testing.T) {
	rec := NewRecordingInjector(discardLogger)
	b := Bound{Injector: rec, Target: Target{Name: "w"}}
	if err := b.Send(context.Background(), Command{}); err != nil {
		t.Fatalf("empty command: %v", err)
	}
	if err := b.Send(context.Background(), Key("8")); err != nil {
		t.Fatalf("Send: %v", err)
	}
	got := rec.Commands("w")
	if len(got) != 1 || got[0].Hotkey != "8" {
		t.Fatalf("recorded %+v", got)
	}
}

func TestRecordingFailure(t *testing.T) {
	rec := NewRecordingInjector(nil)
	rec.FailWith(errors.New("unplugged"))
	err := rec.Send(context.Background(), Target{Name: "w"}, Key("1"))
	if !errors.Is(err, ErrInjectionFailed) {
		t.Fatalf("expected ErrInjectionFailed, got %v", err)
	}
	if len(rec.Sent()) != 1 {
		t.Fatalf("failed sends are still recorded as attempted")
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := rec.Send(ctx, Target{}, Key("1")); !errors.Is(err, context.Canceled) {
		t.Fatalf("cancelled context should short-circuit, got %v", err)
	}
}

type runCall struct {
	name string
	args []string
}

type fakeRunner struct {
	mu    sync.Mutex
	calls []runCall
	out   map[string]string
}

func (f *fakeRunner) run(_ context.Context, name string, args ...string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, runCall{name: name, args: args})
	return []byte(f.out[args[0]]), nil
}

func TestADBTap(t *testing.T) {
	fr := &fakeRunner{}
	a := NewADBInjector("/opt/adb", fr.run, discardLogger)
	err := a.Send(context.Background(), Target{Name: "LinM-1", Device: "127.0.0.1:62001"}, Click(roi.BossQuest))
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(fr.calls) != 1 {
		t.Fatalf("calls=%+v", fr.calls)
	}
	c := fr.calls[0]
	if c.name != "/opt/adb" || strings.Join(c.args, " ") != "-s 127.0.0.1:62001 shell input tap 850 40" {
		t.Fatalf("unexpected command %s %v", c.name, c.args)
	}
}

func TestADBErrorReconnects(t *testing.T) {
	fr := &fakeRunner{out: map[string]string{"-s": "error: device '127.0.0.1:62001' not found\n"}}
	a := NewADBInjector("", fr.run, discardLogger)
	err := a.Send(context.Background(), Target{Name: "127.0.0.1:62001"}, Key("2"))
	if !errors.Is(err, ErrInjectionFailed) {
		t.Fatalf("expected ErrInjectionFailed, got %v", err)
	}
	if len(fr.calls) != 2 || fr.calls[1].args[0] != "connect" || fr.calls[1].args[1] != "127.0.0.1:62001" {
		t.Fatalf("expected reconnect, calls=%+v", fr.calls)
	}
}

// fakePort acknowledges every line it receives.
type fakePort struct {
	written strings.Builder
	reply   string
	pending int
}

func (f *fakePort) Write(p []byte) (int, error) {
	f.written.Write(p)
	f.pending++
	return len(p), nil
}

func (f *fakePort) Read(p []byte) (int, error) {
	if f.pending == 0 {
		return 0, io.EOF
	}
	f.pending--
	return copy(p, f.reply), nil
}

func TestArduinoKeyAndClick(t *testing.T) {
	port := &fakePort{reply: "received\r\n"}
	a := NewArduinoInjector(port, 0, discardLogger)
	tg := Target{Name: "w", Origin: image.Pt(100, 50)}
	if err := a.Send(context.Background(), tg, Key("7")); err != nil {
		t.Fatalf("key: %v", err)
	}
	if err := a.Send(context.Background(), tg, Click(roi.AcceptQuest)); err != nil {
		t.Fatalf("click: %v", err)
	}
	want := "key_down:7\nkey_up:7\nclick:840,595\n"
	if port.written.String() != want {
		t.Fatalf("wrote %q want %q", port.written.String(), want)
	}
}

func TestArduinoUnexpectedReply(t *testing.T) {
	port := &fakePort{reply: "busy\n"}
	a := NewArduinoInjector(port, 0, nil)
	if err := a.Send(context.Background(), Target{}, Click(roi.AutoBtn)); !errors.Is(err, ErrInjectionFailed) {
		t.Fatalf("expected ErrInjectionFailed, got %v", err)
	}
}

func TestAlerterFunc(t *testing.T) {
	var got int
	var a Alerter = AlerterFunc(func(n int) { got = n })
	a.Alert(3)
	if got != 3 {
		t.Fatalf("got %d", got)
	}
	LogAlerter{Logger: discardLogger}.Alert(2)
}

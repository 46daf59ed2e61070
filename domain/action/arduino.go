package action

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/tarm/serial"

	"github.com/soocke/linm-bot-go/domain/roi"
)

const arduinoAck = "received"

// ArduinoInjector drives a serial HID board that types and clicks on the
// host. Every line written is acknowledged with "received". Buttons are
// clicked at screen coordinates, so targets need Origin set.
type ArduinoInjector struct {
	mu     sync.Mutex
	port   io.ReadWriter
	hold   time.Duration
	logger *slog.Logger
}

// OpenArduino opens the serial port and returns an injector on it.
func OpenArduino(name string, baud int, hold time.Duration, logger *slog.Logger) (*ArduinoInjector, io.Closer, error) {
	port, err := serial.OpenPort(&serial.Config{
		Name:        name,
		Baud:        baud,
		Parity:      serial.ParityNone,
		StopBits:    serial.Stop1,
		ReadTimeout: 2 * time.Second,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("open serial %s: %w", name, err)
	}
	return NewArduinoInjector(port, hold, logger), port, nil
}

// NewArduinoInjector wraps an already open port.
func NewArduinoInjector(port io.ReadWriter, hold time.Duration, logger *slog.Logger) *ArduinoInjector {
	return &ArduinoInjector{port: port, hold: hold, logger: logger}
}

func (a *ArduinoInjector) Send(ctx context.Context, t Target, cmd Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if cmd.Button == roi.ButtonNone && len(strings.TrimSpace(cmd.Hotkey)) == 1 {
		k := strings.TrimSpace(cmd.Hotkey)
		if err := a.line(fmt.Sprintf("key_down:%s\n", k)); err != nil {
			return err
		}
		time.Sleep(a.hold)
		return a.line(fmt.Sprintf("key_up:%s\n", k))
	}
	p, err := t.Point(cmd)
	if err != nil {
		return err
	}
	p = p.Add(t.Origin)
	return a.line(fmt.Sprintf("click:%d,%d\n", p.X, p.Y))
}

// line writes msg and waits for the acknowledgement.
func (a *ArduinoInjector) line(msg string) error {
	if _, err := a.port.Write([]byte(msg)); err != nil {
		return fmt.Errorf("%w: write %q: %v", ErrInjectionFailed, strings.TrimSpace(msg), err)
	}
	resp, err := a.readLine()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInjectionFailed, err)
	}
	if resp != arduinoAck {
		return fmt.Errorf("%w: unexpected response %q", ErrInjectionFailed, resp)
	}
	return nil
}

func (a *ArduinoInjector) readLine() (string, error) {
	var resp []byte
	buf := make([]byte, 128)
	for empty := 0; empty < 3; {
		n, err := a.port.Read(buf)
		if n > 0 {
			resp = append(resp, buf[:n]...)
			if i := bytes.IndexByte(resp, '\n'); i >= 0 {
				return string(bytes.TrimSpace(resp[:i])), nil
			}
			continue
		}
		if err != nil {
			return "", fmt.Errorf("read serial: %w", err)
		}
		empty++
	}
	return "", fmt.Errorf("read serial: no response")
}

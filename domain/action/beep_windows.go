//go:build windows

package action

import (
	"log/slog"
	"time"

	"golang.org/x/sys/windows"
)

var procBeep = windows.NewLazySystemDLL("kernel32.dll").NewProc("Beep")

// BeepAlerter sounds the PC speaker: 1500Hz for 100ms per beep with a
// 400ms gap, on its own goroutine.
type BeepAlerter struct {
	logger *slog.Logger
}

// NewAlerter returns the platform alerter.
func NewAlerter(logger *slog.Logger) Alerter { return &BeepAlerter{logger: logger} }

func (b *BeepAlerter) Alert(beeps int) {
	if beeps <= 0 {
		return
	}
	if b.logger != nil {
		b.logger.Debug("alert", "beeps", beeps)
	}
	go func() {
		for i := 0; i < beeps; i++ {
			_, _, _ = procBeep.Call(1500, 100)
			time.Sleep(400 * time.Millisecond)
		}
	}()
}

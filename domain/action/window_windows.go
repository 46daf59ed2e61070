//go:build windows

package action

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sys/windows"

	"github.com/soocke/linm-bot-go/domain/roi"
)

const (
	wmKeyDown     = 0x0100
	wmKeyUp       = 0x0101
	wmLButtonDown = 0x0201
	wmLButtonUp   = 0x0202
	mkLButton     = 0x0001
)

var (
	user32          = windows.NewLazySystemDLL("user32.dll")
	procPostMessage = user32.NewProc("PostMessageW")
	procMapVirtual  = user32.NewProc("MapVirtualKeyW")
)

// WindowInjector posts key and mouse messages straight to the game window,
// so it works while the window is hidden or in the background.
type WindowInjector struct {
	hold time.Duration
}

// NewWindowInjector returns an injector holding keys down for hold.
func NewWindowInjector(hold time.Duration) *WindowInjector {
	return &WindowInjector{hold: hold}
}

func (w *WindowInjector) Send(ctx context.Context, t Target, cmd Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if t.Handle == 0 {
		return fmt.Errorf("%w: %s has no window handle", ErrInjectionFailed, t.Name)
	}
	if cmd.Button == roi.ButtonNone {
		if vk, ok := ParseVK(cmd.Hotkey); ok {
			return w.key(t, vk)
		}
	}
	p, err := t.Point(cmd)
	if err != nil {
		return err
	}
	lp := uintptr(uint32(p.Y)<<16 | uint32(p.X)&0xFFFF)
	if err := post(t, wmLButtonDown, mkLButton, lp); err != nil {
		return err
	}
	time.Sleep(w.hold)
	return post(t, wmLButtonUp, 0, lp)
}

func (w *WindowInjector) key(t Target, vk byte) error {
	scan, _, _ := procMapVirtual.Call(uintptr(vk), 0)
	down := uintptr(1 | (scan&0xFF)<<16)
	up := down | 0xC0000000
	if err := post(t, wmKeyDown, uintptr(vk), down); err != nil {
		return err
	}
	time.Sleep(w.hold)
	return post(t, wmKeyUp, uintptr(vk), up)
}

func post(t Target, msg, wp, lp uintptr) error {
	if ok, _, err := procPostMessage.Call(t.Handle, msg, wp, lp); ok == 0 {
		return fmt.Errorf("%w: PostMessage to %s: %v", ErrInjectionFailed, t.Name, err)
	}
	return nil
}

// ParseVK converts a key token ("1", "F3", "R") into a virtual-key code.
// Recognises digits, letters and F1..F12.
func ParseVK(key string) (byte, bool) {
	k := strings.ToUpper(strings.TrimSpace(key))
	switch {
	case len(k) == 1 && k[0] >= '0' && k[0] <= '9':
		return k[0], true
	case len(k) == 1 && k[0] >= 'A' && k[0] <= 'Z':
		return k[0], true
	case len(k) >= 2 && k[0] == 'F':
		var n int
		if _, err := fmt.Sscanf(k[1:], "%d", &n); err == nil && n >= 1 && n <= 12 {
			return byte(0x70 + n - 1), true
		}
	}
	return 0, false
}

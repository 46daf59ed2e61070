//go:build windows

package hotkey

import (
	"context"
	"log/slog"

	"github.com/moutend/go-hook/pkg/keyboard"
	"github.com/moutend/go-hook/pkg/types"
)

// Watch installs a low-level keyboard hook and calls fire on every
// Shift+Q until ctx is done. fire runs on the hook goroutine.
func Watch(ctx context.Context, fire func(), logger *slog.Logger) error {
	events := make(chan types.KeyboardEvent, 100)
	if err := keyboard.Install(nil, events); err != nil {
		return err
	}
	go func() {
		defer keyboard.Uninstall()
		var c chord
		for {
			select {
			case <-ctx.Done():
				return
			case ev := <-events:
				if ev.Message != types.WM_KEYDOWN && ev.Message != types.WM_KEYUP {
					continue
				}
				if c.feed(key(ev.VKCode), ev.Message == types.WM_KEYDOWN) {
					if logger != nil {
						logger.Warn("stop-all hotkey pressed")
					}
					fire()
				}
			}
		}
	}()
	return nil
}

func key(vk types.VKCode) Key {
	switch vk {
	case types.VK_LSHIFT, types.VK_RSHIFT:
		return KeyShift
	case types.VK_Q:
		return KeyQ
	}
	return KeyOther
}

package action

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// Runner executes a command and returns its combined output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// ADBInjector taps mirrored devices through the debug bridge. Hotkeys are
// sent as taps on their skill bar slot.
type ADBInjector struct {
	path    string
	run     Runner
	timeout time.Duration
	logger  *slog.Logger
}

// NewADBInjector returns an injector that shells out to the adb binary at
// path. run may be nil.
func NewADBInjector(path string, run Runner, logger *slog.Logger) *ADBInjector {
	if path == "" {
		path = "adb"
	}
	if run == nil {
		run = execRunner
	}
	return &ADBInjector{path: path, run: run, timeout: 10 * time.Second, logger: logger}
}

func (a *ADBInjector) Send(ctx context.Context, t Target, cmd Command) error {
	p, err := t.Point(cmd)
	if err != nil {
		return err
	}
	device := t.Device
	if device == "" {
		device = t.Name
	}
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()
	out, err := a.run(ctx, a.path, "-s", device, "shell", "input", "tap", strconv.Itoa(p.X), strconv.Itoa(p.Y))
	if err != nil {
		return fmt.Errorf("%w: adb tap %s on %s: %v", ErrInjectionFailed, cmd, device, err)
	}
	res := strings.TrimSpace(string(out))
	if !strings.HasPrefix(res, "error") {
		return nil
	}
	if a.logger != nil {
		a.logger.Error("adb error", "device", device, "output", res)
	}
	if addr := quoted(res); addr != "" {
		rc, err := a.run(ctx, a.path, "connect", addr)
		if a.logger != nil {
			a.logger.Info("adb reconnect", "addr", addr, "output", strings.TrimSpace(string(rc)), "error", err)
		}
	}
	return fmt.Errorf("%w: adb tap %s on %s: %s", ErrInjectionFailed, cmd, device, res)
}

// quoted returns the first single-quoted substring of s.
func quoted(s string) string {
	parts := strings.Split(s, "'")
	if len(parts) < 3 {
		return ""
	}
	return parts[1]
}

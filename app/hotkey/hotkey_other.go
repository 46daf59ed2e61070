//go:build !windows

package hotkey

import (
	"context"
	"errors"
	"log/slog"
)

// Watch is only available on Windows.
func Watch(ctx context.Context, fire func(), logger *slog.Logger) error {
	return errors.ErrUnsupported
}

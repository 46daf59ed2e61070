//go:build !windows

package action

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// WindowInjector needs the Windows message queue; elsewhere every send fails.
type WindowInjector struct{}

// NewWindowInjector returns the unsupported stub.
func NewWindowInjector(time.Duration) *WindowInjector { return &WindowInjector{} }

func (w *WindowInjector) Send(_ context.Context, t Target, cmd Command) error {
	return fmt.Errorf("%w: window messages to %s: %w", ErrInjectionFailed, t.Name, errors.ErrUnsupported)
}

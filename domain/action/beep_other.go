//go:build !windows

package action

import "log/slog"

// NewAlerter returns the platform alerter. Without a PC speaker API alerts
// go to the log.
func NewAlerter(logger *slog.Logger) Alerter { return LogAlerter{Logger: logger} }

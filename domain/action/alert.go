package action

import "log/slog"

// Alerter plays an audible alert. Alert must not block the caller.
type Alerter interface {
	Alert(beeps int)
}

// LogAlerter records alerts in the log instead of sounding them.
type LogAlerter struct {
	Logger *slog.Logger
}

func (a LogAlerter) Alert(beeps int) {
	if a.Logger != nil && beeps > 0 {
		a.Logger.Warn("alert", "beeps", beeps)
	}
}

// AlerterFunc adapts a function to Alerter.
type AlerterFunc func(beeps int)

func (f AlerterFunc) Alert(beeps int) { f(beeps) }

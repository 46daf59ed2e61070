package app

import (
	"context"
	"time"

	"github.com/soocke/linm-bot-go/debug"
	"github.com/soocke/linm-bot-go/domain/supervisor"
)

// RunHeadless starts every configured account and logs supervisor
// messages until ctx is done, then shuts the accounts down.
func RunHeadless(ctx context.Context, c *Container) error {
	if c.Config.Debug {
		debug.StartRuntimeLogger(ctx, 10*time.Second, c.Logger, c.Supervisor.RunningCount)
	}
	for i := range c.Supervisor.Len() {
		if err := c.Supervisor.Start(i); err != nil {
			return err
		}
	}
	msgs := c.Supervisor.Messages()
	for {
		select {
		case <-ctx.Done():
			sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownGrace)
			defer cancel()
			return c.Shutdown(sctx)
		case m := <-msgs:
			c.logMessage(m)
		}
	}
}

func (c *Container) logMessage(m supervisor.Message) {
	if c.Logger == nil {
		return
	}
	name := ""
	if m.Account >= 0 && m.Account < len(c.Config.Accounts) {
		name = c.Config.Accounts[m.Account].Name
	}
	switch m.Kind {
	case supervisor.StatusText:
		c.Logger.Info("status", "account", m.Account, "window", name, "text", m.Text)
	case supervisor.Stopped:
		c.Logger.Warn("account stopped", "account", m.Account, "window", name, "reason", m.Text)
	}
}

// Package debug logs runtime health while the bot runs with --debug.
package debug

import (
	"context"
	"log/slog"
	"runtime"
	"runtime/metrics"
	"time"
)

// StartRuntimeLogger logs goroutine count, stack and heap usage, process
// working set and the number of running accounts every interval until ctx
// is done. running may be nil.
func StartRuntimeLogger(ctx context.Context, interval time.Duration, logger *slog.Logger, running func() int) {
	if logger == nil {
		return
	}
	if interval <= 0 {
		interval = 5 * time.Second
	}
	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		samples := []metrics.Sample{{Name: "/sched/goroutines:goroutines"}}
		var rssErrLogged bool
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
			}
			metrics.Read(samples)
			var ms runtime.MemStats
			runtime.ReadMemStats(&ms)
			attrs := []any{
				slog.Uint64("goroutines", samples[0].Value.Uint64()),
				slog.Uint64("stack_inuse", ms.StackInuse),
				slog.Uint64("heap_alloc", ms.HeapAlloc),
				slog.Uint64("heap_inuse", ms.HeapInuse),
				slog.Uint64("num_gc", uint64(ms.NumGC)),
			}
			if rss, peak, err := workingSet(); err == nil {
				attrs = append(attrs, slog.Uint64("rss", rss), slog.Uint64("rss_peak", peak))
			} else if !rssErrLogged {
				logger.Warn("working set unavailable", "error", err)
				rssErrLogged = true
			}
			if running != nil {
				attrs = append(attrs, slog.Int("sessions", running()))
			}
			logger.Info("runtime", attrs...)
		}
	}()
}

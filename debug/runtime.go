// Package debug holds the periodic loggers enabled by the debug flag.
package debug

import (
	"context"
	"log/slog"
	"runtime"
	"runtime/metrics"
	"time"
)

// StartRuntimeLogger logs goroutine count, stack and heap usage and the process
// working set every interval until ctx is done. The returned channel closes when the
// goroutine exits.
func StartRuntimeLogger(ctx context.Context, interval time.Duration, logger *slog.Logger) <-chan struct{} {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer recoverLog(logger, "runtime logger")
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
			var goroutines uint64
			if samples[0].Value.Kind() == metrics.KindUint64 {
				goroutines = samples[0].Value.Uint64()
			}
			var ms runtime.MemStats
			runtime.ReadMemStats(&ms)
			rss, err := processRSS()
			if err != nil && !rssErrLogged {
				// reported once; the platform may simply not support it
				logger.Warn("runtime logger: working set unavailable", "error", err)
				rssErrLogged = true
			}
			logger.Info("runtime.stats",
				slog.Uint64("goroutines", goroutines),
				slog.Uint64("stack_inuse", ms.StackInuse),
				slog.Uint64("heap_alloc", ms.HeapAlloc),
				slog.Uint64("heap_inuse", ms.HeapInuse),
				slog.Uint64("heap_sys", ms.HeapSys),
				slog.Uint64("next_gc", ms.NextGC),
				slog.Uint64("num_gc", uint64(ms.NumGC)),
				slog.Uint64("rss", rss),
			)
		}
	}()
	return done
}

func recoverLog(logger *slog.Logger, where string) {
	if r := recover(); r != nil && logger != nil {
		logger.Error("panic recovered", "where", where, "panic", r)
	}
}

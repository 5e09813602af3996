package debug

import (
	"context"
	"log/slog"
	"time"

	"github.com/soocke/cursor-pilot/domain/feed"
	"github.com/soocke/cursor-pilot/domain/perf"
	"github.com/soocke/cursor-pilot/domain/steering"
)

// StatsSources are the counters the stats logger samples. Nil fields are skipped.
type StatsSources struct {
	Steering func() steering.Stats
	Reader   func() feed.ReaderStats
	Pipeline func() feed.PipelineStats
	OSErrors func() uint64
	Perf     *perf.Monitor
}

// StartStatsLogger logs steering, feed and timing counters every interval until ctx
// is done. Rates are computed against the previous sample.
func StartStatsLogger(ctx context.Context, interval time.Duration, logger *slog.Logger, src StatsSources) <-chan struct{} {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer recoverLog(logger, "stats logger")
		t := time.NewTicker(interval)
		defer t.Stop()
		var prev statsSample
		last := time.Now()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-t.C:
				cur := sample(src)
				logStats(logger, cur, prev, now.Sub(last))
				prev, last = cur, now
				if src.Perf != nil {
					src.Perf.Log(logger)
				}
			}
		}
	}()
	return done
}

type statsSample struct {
	steering steering.Stats
	reader   feed.ReaderStats
	pipeline feed.PipelineStats
	osErrors uint64
}

func sample(src StatsSources) statsSample {
	var s statsSample
	if src.Steering != nil {
		s.steering = src.Steering()
	}
	if src.Reader != nil {
		s.reader = src.Reader()
	}
	if src.Pipeline != nil {
		s.pipeline = src.Pipeline()
	}
	if src.OSErrors != nil {
		s.osErrors = src.OSErrors()
	}
	return s
}

func logStats(logger *slog.Logger, cur, prev statsSample, elapsed time.Duration) {
	secs := elapsed.Seconds()
	if secs <= 0 {
		secs = 1
	}
	logger.Info("controller.stats",
		slog.String("steering_mode", cur.steering.Mode.String()),
		slog.Bool("steering_running", cur.steering.Running),
		slog.Float64("tick_hz", float64(cur.steering.Ticks-prev.steering.Ticks)/secs),
		slog.Uint64("moves", cur.steering.Moves-prev.steering.Moves),
		slog.Uint64("frames", cur.pipeline.Processed-prev.pipeline.Processed),
		slog.Uint64("frames_with_target", cur.pipeline.Targets-prev.pipeline.Targets),
		slog.Uint64("malformed", cur.reader.Malformed-prev.reader.Malformed),
		slog.Uint64("dropped", cur.reader.Dropped-prev.reader.Dropped),
		slog.Uint64("os_errors", cur.osErrors-prev.osErrors),
	)
}

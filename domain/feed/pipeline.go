package feed

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/soocke/cursor-pilot/domain/perf"
	"github.com/soocke/cursor-pilot/domain/target"
)

// Sink receives the selected target of every frame.
type Sink interface {
	HandleTargetUpdate(distance float64, box *target.Rect)
	IgnoreSet() *target.IgnoreSet
	SelectionMode() target.Mode
}

// FrameResult is the annotated outcome of one frame, kept for display.
type FrameResult struct {
	Seq         uint64
	Objects     []target.Annotated
	Selected    target.DetectedObject
	HasTarget   bool
	Mode        target.Mode
	Err         error
	ProcessedAt time.Time
	Latency     time.Duration // from receipt to processed
}

// PipelineStats counts processed frames.
type PipelineStats struct {
	Processed uint64
	Targets   uint64
	Malformed uint64
}

// Pipeline runs selection on frames in the frame-processing context and forwards
// the choice to the sink.
type Pipeline struct {
	sink   Sink
	perf   *perf.Monitor
	logger *slog.Logger

	latest    atomic.Pointer[FrameResult]
	processed atomic.Uint64
	targets   atomic.Uint64
	malformed atomic.Uint64
	badLog    rate.Sometimes
}

func NewPipeline(sink Sink, monitor *perf.Monitor, logger *slog.Logger) *Pipeline {
	if monitor == nil {
		monitor = perf.NewMonitor(0)
	}
	return &Pipeline{sink: sink, perf: monitor, logger: logger, badLog: rate.Sometimes{Interval: 5 * time.Second}}
}

// Run processes frames until ctx is done.
func (p *Pipeline) Run(ctx context.Context, frames <-chan Frame) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case f := <-frames:
			p.Process(f)
		}
	}
}

// Process handles one frame synchronously and returns its result.
func (p *Pipeline) Process(f Frame) FrameResult {
	start := time.Now()
	defer p.perf.Counter(perf.StageFrame).Since(start)
	p.processed.Add(1)

	res := FrameResult{Seq: f.Seq, Err: f.Err}
	if f.Err != nil {
		p.malformed.Add(1)
		p.badLog.Do(func() {
			if p.logger != nil {
				p.logger.Warn("dropping malformed frame", "seq", f.Seq, "error", f.Err)
			}
		})
		p.sink.HandleTargetUpdate(0, nil)
		p.store(res, f, start)
		return res
	}

	selStart := time.Now()
	res.Mode = p.sink.SelectionMode()
	sel, ok := target.Select(f.Objects, p.sink.IgnoreSet().Snapshot(), res.Mode)
	res.Objects = target.Annotate(f.Objects, sel, ok)
	res.Selected, res.HasTarget = sel, ok
	p.perf.Counter(perf.StageSelect).Since(selStart)

	if ok {
		p.targets.Add(1)
		b := sel.Box
		p.sink.HandleTargetUpdate(sel.DistanceM, &b)
	} else {
		p.sink.HandleTargetUpdate(0, nil)
	}
	p.store(res, f, start)
	return res
}

func (p *Pipeline) store(res FrameResult, f Frame, now time.Time) {
	res.ProcessedAt = time.Now()
	if !f.ReceivedAt.IsZero() {
		res.Latency = now.Sub(f.ReceivedAt)
	}
	p.latest.Store(&res)
}

// Latest returns the most recently processed frame.
func (p *Pipeline) Latest() (FrameResult, bool) {
	r := p.latest.Load()
	if r == nil {
		return FrameResult{}, false
	}
	return *r, true
}

func (p *Pipeline) Stats() PipelineStats {
	return PipelineStats{
		Processed: p.processed.Load(),
		Targets:   p.targets.Load(),
		Malformed: p.malformed.Load(),
	}
}

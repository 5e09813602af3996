package action

import (
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// ErrorReporter logs OS failures at most once per interval per operation. Hot loops
// hand every error to Report and never log directly.
type ErrorReporter struct {
	logger   *slog.Logger
	interval time.Duration
	now      func() time.Time

	mu    sync.Mutex
	ops   map[string]*opReport
	total atomic.Uint64
}

type opReport struct {
	limiter    *rate.Limiter
	suppressed uint64
}

// NewErrorReporter returns a reporter emitting at most one line per op per interval.
func NewErrorReporter(logger *slog.Logger, interval time.Duration) *ErrorReporter {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &ErrorReporter{logger: logger, interval: interval, now: time.Now, ops: make(map[string]*opReport)}
}

// WithClock swaps the time source; intended for tests.
func (r *ErrorReporter) WithClock(now func() time.Time) *ErrorReporter {
	r.now = now
	return r
}

// Report records err and logs it if the op's limiter allows. It returns true when a
// line was written. Nil errors are ignored.
func (r *ErrorReporter) Report(err error) bool {
	if r == nil || err == nil {
		return false
	}
	r.total.Add(1)
	op := "other"
	var oe *OSError
	if errors.As(err, &oe) {
		op = oe.Op
	}

	r.mu.Lock()
	st, ok := r.ops[op]
	if !ok {
		st = &opReport{limiter: rate.NewLimiter(rate.Every(r.interval), 1)}
		r.ops[op] = st
	}
	if !st.limiter.AllowN(r.now(), 1) {
		st.suppressed++
		r.mu.Unlock()
		return false
	}
	suppressed := st.suppressed
	st.suppressed = 0
	r.mu.Unlock()

	if r.logger != nil {
		r.logger.Warn("os input call failed", "op", op, "error", err, "suppressed", suppressed)
	}
	return true
}

// Total returns the number of errors seen, logged or not.
func (r *ErrorReporter) Total() uint64 {
	if r == nil {
		return 0
	}
	return r.total.Load()
}

package feed

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/hpcloud/tail"
)

const maxLineBytes = 1 << 20

// ReaderStats counts decoded lines.
type ReaderStats struct {
	Decoded   uint64
	Malformed uint64
	Dropped   uint64
}

// Reader turns a line stream into Frames. Only the newest frame is kept: a slow
// consumer sees the latest detection, never a backlog.
type Reader struct {
	logger    *slog.Logger
	frames    chan Frame
	now       func() time.Time
	decoded   atomic.Uint64
	malformed atomic.Uint64
	dropped   atomic.Uint64
}

func NewReader(logger *slog.Logger) *Reader {
	return &Reader{logger: logger, frames: make(chan Frame, 1), now: time.Now}
}

// Frames is the single-slot latest-frame channel.
func (r *Reader) Frames() <-chan Frame { return r.frames }

func (r *Reader) Stats() ReaderStats {
	return ReaderStats{
		Decoded:   r.decoded.Load(),
		Malformed: r.malformed.Load(),
		Dropped:   r.dropped.Load(),
	}
}

// ReadFrom consumes src until EOF or ctx is done. A blocked read (e.g. an idle
// stdin) is abandoned on cancellation; the scanning goroutine exits with src.
func (r *Reader) ReadFrom(ctx context.Context, src io.Reader) error {
	errCh := make(chan error, 1)
	go func() {
		sc := bufio.NewScanner(src)
		sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
		for sc.Scan() {
			if ctx.Err() != nil {
				errCh <- nil
				return
			}
			r.handleLine(sc.Bytes())
		}
		errCh <- sc.Err()
	}()
	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("read feed: %w", err)
		}
		return nil
	}
}

// Follow tails path from its current end, reopening it across rotation, until ctx
// is done.
func (r *Reader) Follow(ctx context.Context, path string) error {
	t, err := tail.TailFile(path, tail.Config{
		Follow:    true,
		ReOpen:    true,
		MustExist: true,
		Location:  &tail.SeekInfo{Offset: 0, Whence: io.SeekEnd},
		Logger:    tail.DiscardingLogger,
	})
	if err != nil {
		return fmt.Errorf("tail feed %s: %w", path, err)
	}
	defer func() {
		_ = t.Stop()
		t.Cleanup()
	}()
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-t.Lines:
			if !ok {
				return t.Err()
			}
			if line.Err != nil {
				if r.logger != nil {
					r.logger.Warn("feed tail error", "error", line.Err)
				}
				continue
			}
			r.handleLine([]byte(line.Text))
		}
	}
}

func (r *Reader) handleLine(line []byte) {
	if len(line) == 0 {
		return
	}
	f, err := Decode(line)
	f.ReceivedAt = r.now()
	if err != nil {
		r.malformed.Add(1)
		f.Err = err
		f.Objects = nil
	} else {
		r.decoded.Add(1)
	}
	r.publish(f)
}

// publish replaces a pending frame with f.
func (r *Reader) publish(f Frame) {
	select {
	case r.frames <- f:
	default:
		select {
		case <-r.frames:
			r.dropped.Add(1)
		default:
		}
		select {
		case r.frames <- f:
		default:
			r.dropped.Add(1)
		}
	}
}

package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Robogera/crowd/pkg/indexed"
)

var (
	ERR_SOURCE_UNAVAILABLE error = errors.New("Source unavailable")
	// Returned by a decoder for a frame that should be skipped
	ERR_EMPTY_FRAME error = errors.New("Empty frame")
)

type Metadata struct {
	Width  int
	Height int
	FPS    float64
	// 0 for live streams
	FrameCount int
}

type Decoder[T any] interface {
	// Returns io.EOF once the stream is exhausted
	Decode() (T, error)
	Metadata() Metadata
	Close() error
}

type Options[T any] struct {
	// Buffered frames, at least 1
	Capacity int
	// How long Stop waits for the decode goroutine
	StopTimeout time.Duration
	// Called for every decoded frame that never reaches a consumer
	Release func(T)
}

// Bounded frame buffer filled by a background decode goroutine.
// The goroutine blocks while the buffer is full.
type Source[T any] struct {
	decoder Decoder[T]
	logger  *slog.Logger
	opts    Options[T]
	meta    Metadata
	frames  chan indexed.Indexed[T]

	mu      sync.Mutex
	started bool
	stopped bool
	cancel  context.CancelFunc
	err     error

	ended      atomic.Bool
	done       chan struct{}
	done_once  sync.Once
	close_once sync.Once
	close_err  error
}

func Open[T any](decoder Decoder[T], opts Options[T], logger *slog.Logger) (*Source[T], error) {
	meta := decoder.Metadata()
	if math.IsNaN(meta.FPS) || math.IsInf(meta.FPS, 0) || meta.FPS <= 0 {
		decoder.Close()
		return nil, fmt.Errorf("frame rate %.3f: %w", meta.FPS, ERR_SOURCE_UNAVAILABLE)
	}
	if opts.Capacity < 1 {
		opts.Capacity = 1
	}
	if opts.StopTimeout <= 0 {
		opts.StopTimeout = time.Second
	}
	if opts.Release == nil {
		opts.Release = func(T) {}
	}
	return &Source[T]{
		decoder: decoder,
		logger:  logger.With("coroutine", "decoder"),
		opts:    opts,
		meta:    meta,
		frames:  make(chan indexed.Indexed[T], opts.Capacity),
		done:    make(chan struct{}),
	}, nil
}

func (s *Source[T]) Metadata() Metadata { return s.meta }

// Launches the decode goroutine. Calls after the first one
// and calls after Stop do nothing
func (s *Source[T]) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started || s.stopped {
		return
	}
	s.started = true
	ctx, s.cancel = context.WithCancel(ctx)
	go s.decode(ctx)
}

func (s *Source[T]) decode(ctx context.Context) {
	defer s.finish()

	var seq uint64 = 0
	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("Decoder cancelled by context")
			return
		default:
		}

		frame, err := s.decoder.Decode()
		switch {
		case errors.Is(err, io.EOF):
			s.logger.Info("End of stream", "frames", seq)
			return
		case errors.Is(err, ERR_EMPTY_FRAME):
			s.logger.Warn("Empty frame received, skipping", "seq", seq)
			continue
		case err != nil:
			s.logger.Error("Can't decode frame", "seq", seq, "error", err)
			s.mu.Lock()
			s.err = err
			s.mu.Unlock()
			return
		}

		select {
		case <-ctx.Done():
			s.opts.Release(frame)
			s.logger.Debug("Decoder cancelled by context")
			return
		case s.frames <- indexed.NewIndexed(seq, time.Now(), frame):
			seq++
		}
	}
}

func (s *Source[T]) finish() {
	s.done_once.Do(func() {
		s.ended.Store(true)
		close(s.done)
	})
}

// Dequeues a frame without blocking. ok is false when
// nothing is buffered right now
func (s *Source[T]) Read() (frame indexed.Indexed[T], ok bool) {
	select {
	case frame = <-s.frames:
		return frame, true
	default:
		return frame, false
	}
}

// Blocks until a frame is available, the stream ends or ctx is done.
// ok is false once the stream is exhausted
func (s *Source[T]) Next(ctx context.Context) (frame indexed.Indexed[T], ok bool, err error) {
	select {
	case frame = <-s.frames:
		return frame, true, nil
	case <-ctx.Done():
		return frame, false, ctx.Err()
	case <-s.done:
		// the last frames may still be buffered
		frame, ok = s.Read()
		return frame, ok, nil
	}
}

// False only after decoding ended and the buffer is drained
func (s *Source[T]) HasMore() bool {
	return !s.ended.Load() || len(s.frames) > 0
}

func (s *Source[T]) Len() int { return len(s.frames) }
func (s *Source[T]) Cap() int { return cap(s.frames) }

// Decoding error that ended the stream, nil after a clean end
func (s *Source[T]) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Stops decoding, waits for the goroutine up to the stop timeout,
// closes the decoder and releases buffered frames. Safe to call
// any number of times, before or without Start
func (s *Source[T]) Stop() error {
	s.mu.Lock()
	if s.stopped {
		err := s.close_err
		s.mu.Unlock()
		return err
	}
	s.stopped = true
	started := s.started
	s.mu.Unlock()

	if !started {
		s.finish()
	} else {
		s.cancel()
	}

	select {
	case <-s.done:
		s.closeDecoder()
	case <-time.After(s.opts.StopTimeout):
		s.logger.Warn("Decoder did not stop in time, closing it in background", "timeout", s.opts.StopTimeout)
		go func() {
			<-s.done
			s.closeDecoder()
			s.drain()
		}()
	}
	s.drain()

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.close_err
}

func (s *Source[T]) drain() {
	released := 0
	for {
		frame, ok := s.Read()
		if !ok {
			break
		}
		s.opts.Release(frame.Value())
		released++
	}
	if released > 0 {
		s.logger.Debug("Released buffered frames", "count", released)
	}
}

func (s *Source[T]) closeDecoder() {
	s.close_once.Do(func() {
		err := s.decoder.Close()
		s.mu.Lock()
		s.close_err = err
		s.mu.Unlock()
		if err != nil {
			s.logger.Error("Can't close decoder", "error", err)
		}
	})
}

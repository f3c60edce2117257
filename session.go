package mandelbrot

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// eventQueueSize bounds the callbacks waiting for the dispatcher. Deduplicated
// progress yields at most 101 reports per pass, so a full render fits.
const eventQueueSize = Passes*101 + Passes + 2

// Session is one render request in flight. It owns the pixel buffer and the
// cancellation of its run. Sessions are created by Renderer.Render.
type Session struct {
	id  SessionID
	req Request
	buf *PixelBuffer

	ctx    context.Context
	cancel context.CancelFunc

	observer Observer
	exec     func(func())
	logger   *slog.Logger

	// events carries observer callbacks to the dispatcher.
	events chan queued
	done   chan struct{}

	// ran is the scheduler's outcome, written by run before events is
	// closed. outcome is the one delivered to Done, written by the
	// dispatcher and read only after done is closed.
	ran     Outcome
	outcome Outcome

	// report packs the last reported pass and percentage as pass<<32|pct.
	report  atomic.Int64
	dropped atomic.Int64

	// withheld counts flushes not delivered because the session was
	// cancelled first. A session that withheld a flush is cancelled.
	withheld atomic.Int64

	// lastPass and lastPct belong to the dispatcher goroutine.
	lastPass, lastPct int

	started time.Time
}

func newSession(ctx context.Context, req Request, opts *options) *Session {
	ctx, cancel := context.WithCancel(ctx)
	return &Session{
		id:       uuid.New(),
		req:      req,
		buf:      NewPixelBuffer(req.Width, req.Height),
		ctx:      ctx,
		cancel:   cancel,
		observer: opts.observer,
		exec:     opts.executor,
		logger:   Logger(),
		events:   make(chan queued, eventQueueSize),
		done:     make(chan struct{}),
		lastPass: -1,
		lastPct:  -1,
		started:  time.Now(),
	}
}

// ID returns the session identity carried by every notification.
func (s *Session) ID() SessionID {
	return s.id
}

// Request returns the request being rendered.
func (s *Session) Request() Request {
	return s.req
}

// Cancel asks the run to stop. Workers finish the block they are on; no
// flush is handed to the executor afterwards, and the session ends
// Cancelled unless every flush had already been handed over. Cancel is safe
// to call at any time.
func (s *Session) Cancel() {
	s.cancel()
}

// Done is closed once the run has finished and its final notification has
// been handed to the executor.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Wait blocks until the session finishes and returns its outcome.
func (s *Session) Wait() Outcome {
	<-s.done
	return s.outcome
}

// Outcome returns the outcome and true if the session has finished.
func (s *Session) Outcome() (Outcome, bool) {
	select {
	case <-s.done:
		return s.outcome, true
	default:
		return 0, false
	}
}

// Progress returns the most recent pass and percentage reported by the
// scheduler. Before the first report it returns (0, 0).
func (s *Session) Progress() (pass, percent int) {
	p := s.report.Load()
	return int(p >> 32), int(int32(p))
}

// Result returns the final image of a completed session. The buffer is no
// longer written once the session is done.
func (s *Session) Result() (*PixelBuffer, bool) {
	out, ok := s.Outcome()
	if !ok || out != Completed {
		return nil, false
	}
	return s.buf, true
}

// run drives the scheduler and returns once the dispatcher has handed every
// callback, Done included, to the executor. It is the only sender on events.
func (s *Session) run(sched *scheduler) {
	go s.dispatch()

	s.ran = sched.run(s.ctx)
	close(s.events)
	<-s.done

	s.logger.Debug("mandelbrot: render finished",
		"session", s.id,
		"outcome", s.outcome,
		"elapsed", time.Since(s.started),
		"droppedProgress", s.dropped.Load(),
		"withheldFlushes", s.withheld.Load())
}

// queued is an observer callback waiting for the dispatcher. Flushes are
// withheld once the session is cancelled.
type queued struct {
	fn    func()
	flush bool
}

// dispatch delivers callbacks in order through the executor, then decides
// the outcome and delivers Done. Whether a flush is delivered is settled
// here, before it reaches the executor, so Done agrees with the flushes
// the observer receives.
func (s *Session) dispatch() {
	defer close(s.done)
	for ev := range s.events {
		if ev.flush && s.ctx.Err() != nil {
			s.withheld.Add(1)
			continue
		}
		s.exec(s.guard(ev.fn))
	}

	out := s.ran
	if out == Completed && s.withheld.Load() > 0 {
		out = Cancelled
	}
	s.outcome = out
	s.exec(s.guard(func() { s.observer.Done(s.id, out) }))
}

// guard keeps a panicking observer from taking the dispatcher down.
func (s *Session) guard(fn func()) func() {
	return func() {
		defer func() {
			if r := recover(); r != nil {
				s.logger.Warn("mandelbrot: observer panicked", "session", s.id, "panic", r)
			}
		}()
		fn()
	}
}

// progress implements passSink. It never blocks: when the dispatcher is
// behind, the report is dropped.
func (s *Session) progress(pass, percent int) {
	s.report.Store(int64(pass)<<32 | int64(percent))

	select {
	case s.events <- queued{fn: func() { s.deliverProgress(pass, percent) }}:
	default:
		s.dropped.Add(1)
	}
}

// deliverProgress runs on the dispatcher. Workers may enqueue reports out
// of order; anything not ahead of the last delivered report is skipped.
func (s *Session) deliverProgress(pass, percent int) {
	if pass < s.lastPass || (pass == s.lastPass && percent <= s.lastPct) {
		return
	}
	s.lastPass, s.lastPct = pass, percent
	s.observer.Progress(s.id, pass, percent)
}

// flush implements passSink. The snapshot is taken here, on the
// orchestrating goroutine, while no worker is writing.
func (s *Session) flush(pass int) {
	f := Frame{Session: s.id, Pass: pass, Buffer: s.buf.Clone()}
	s.logger.Debug("mandelbrot: pass flushed", "session", s.id, "pass", pass)

	select {
	case s.events <- queued{fn: func() { s.observer.Flush(f) }, flush: true}:
	case <-s.ctx.Done():
		s.withheld.Add(1)
	}
}

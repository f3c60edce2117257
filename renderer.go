package mandelbrot

import (
	"context"
	"sync"

	"github.com/gogpu/mandelbrot/internal/parallel"
)

// Renderer produces progressive Mandelbrot images. At most one of its
// sessions is current: every call to Render cancels the previous session
// before starting a new one.
//
// A Renderer owns a worker pool shared by all its sessions; call Close to
// release it.
//
// Thread safety: Renderer is safe for concurrent use.
type Renderer struct {
	opts options
	pool *parallel.WorkerPool

	mu      sync.Mutex
	current *Session
	closed  bool

	// live counts sessions whose run has not returned.
	live sync.WaitGroup
}

// NewRenderer creates a renderer and starts its workers.
//
// Example:
//
//	r := mandelbrot.NewRenderer(mandelbrot.WithObserver(canvas))
//	defer r.Close()
//
//	req, _ := mandelbrot.NewRequest(mandelbrot.DefaultViewport(), 1920, 1080, 100)
//	s, _ := r.Render(ctx, req)
//	s.Wait()
func NewRenderer(opts ...Option) *Renderer {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Renderer{
		opts: o,
		pool: parallel.NewWorkerPool(o.workers),
	}
}

// Workers returns the number of scheduler workers.
func (r *Renderer) Workers() int {
	return r.pool.Workers()
}

// Render validates req, supersedes the current session and starts a new one
// in the background. It returns without waiting for any pass.
//
// An invalid request is rejected before anything else happens: the current
// session keeps running and the observer is not called. Otherwise the
// observer's Started is called before Render returns; it must not call
// back into the Renderer.
//
// Cancelling ctx cancels the session.
func (r *Renderer) Render(ctx context.Context, req Request) (*Session, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, ErrClosed
	}

	s := newSession(ctx, req, &r.opts)
	if prev := r.current; prev != nil {
		prev.Cancel()
		s.logger.Debug("mandelbrot: render superseded", "session", prev.id, "by", s.id)
	}
	r.current = s

	s.logger.Debug("mandelbrot: render started",
		"session", s.id,
		"viewport", req.Viewport,
		"width", req.Width,
		"height", req.Height,
		"maxIterations", req.MaxIterations,
		"workers", r.pool.Workers())

	r.opts.observer.Started(s.id, req)

	sched := &scheduler{
		req:   req,
		buf:   s.buf,
		pool:  r.pool,
		grain: r.opts.grain,
		eval:  r.opts.evaluate,
		sink:  s,
	}
	r.live.Add(1)
	go func() {
		defer r.live.Done()
		s.run(sched)
	}()
	return s, nil
}

// Current returns the current session, or nil before the first Render.
// A finished session stays current until the next Render.
func (r *Renderer) Current() *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Cancel cancels the current session, if any.
func (r *Renderer) Cancel() {
	if s := r.Current(); s != nil {
		s.Cancel()
	}
}

// Close cancels the current session, waits for every session to finish
// and stops the workers. Render returns ErrClosed afterwards.
// Close is safe to call multiple times.
func (r *Renderer) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	if r.current != nil {
		r.current.Cancel()
	}
	r.mu.Unlock()

	r.live.Wait()
	r.pool.Close()
}

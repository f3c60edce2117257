package mandelbrot

import (
	"context"
	"sync/atomic"

	"github.com/gogpu/mandelbrot/internal/parallel"
)

// blockSize is the number of consecutive row-major pixels refined together.
// Pass p evaluates the pixel at offset p of every block and paints it over
// offsets p..blockSize-1, so after pass 0 the image is a coarse preview and
// after the last pass every pixel holds its own value.
const blockSize = Passes

// passSink receives scheduler events. Implementations must not block in
// progress, which is called from workers.
type passSink interface {
	progress(pass, percent int)
	flush(pass int)
}

// scheduler fills one buffer in four progressive passes.
type scheduler struct {
	req   Request
	buf   *PixelBuffer
	pool  *parallel.WorkerPool
	grain int
	eval  func(complex128, int) Color
	sink  passSink

	// stop mirrors ctx cancellation as a lock-free flag polled per block.
	stop atomic.Bool

	// completed counts blocks finished in the current pass; reported is
	// the last percentage sent to the sink, or -1.
	completed atomic.Int64
	reported  atomic.Int64
}

// run executes the passes in order, flushing after each one that finished
// without cancellation. It returns once no worker touches the buffer.
func (s *scheduler) run(ctx context.Context) Outcome {
	n := s.buf.Len()
	if n == 0 {
		return Completed
	}

	unwatch := context.AfterFunc(ctx, func() { s.stop.Store(true) })
	defer unwatch()

	blocks := (n + blockSize - 1) / blockSize
	grain := parallel.Grain(blocks, s.pool.Workers(), s.grain)

	for pass := range Passes {
		if ctx.Err() != nil {
			return Cancelled
		}

		s.completed.Store(0)
		s.reported.Store(-1)
		ok := s.pool.For(blocks, grain, func(lo, hi int) {
			s.refine(pass, lo, hi, blocks)
		})
		if !ok || ctx.Err() != nil {
			return Cancelled
		}
		s.sink.flush(pass)
	}
	return Completed
}

// refine processes blocks [lo, hi) for one pass.
func (s *scheduler) refine(pass, lo, hi, total int) {
	var (
		w, h = s.req.Width, s.req.Height
		n    = len(s.buf.pix)
	)
	for b := lo; b < hi; b++ {
		if s.stop.Load() {
			return
		}
		start := b * blockSize
		if idx := start + pass; idx < n {
			c := s.eval(s.req.Viewport.ToComplex(idx%w, idx/w, w, h), s.req.MaxIterations)
			s.buf.Fill(idx, start+blockSize, c)
		}
		s.tick(pass, total)
	}
}

// tick records a finished block and reports the pass percentage when it
// exceeds the last value reported, so a pass yields at most 101 reports
// and they never go backwards.
func (s *scheduler) tick(pass, total int) {
	pct := s.completed.Add(1) * 100 / int64(total)
	for {
		last := s.reported.Load()
		if pct <= last {
			return
		}
		if s.reported.CompareAndSwap(last, pct) {
			s.sink.progress(pass, int(pct))
			return
		}
	}
}

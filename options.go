package mandelbrot

// Option configures a Renderer during creation.
//
// Example:
//
//	// Defaults: GOMAXPROCS workers, no observer
//	r := mandelbrot.NewRenderer()
//
//	// Report to a display and deliver callbacks on a UI queue
//	r := mandelbrot.NewRenderer(
//	    mandelbrot.WithObserver(canvas),
//	    mandelbrot.WithExecutor(ui.Post),
//	)
type Option func(*options)

// options holds optional configuration for Renderer creation.
type options struct {
	workers  int
	grain    int
	observer Observer
	executor func(func())
	evaluate func(complex128, int) Color
}

// defaultGrain is the minimum number of blocks handed to a worker at once.
// Cancellation is still polled per block.
const defaultGrain = 256

func defaultOptions() options {
	return options{
		workers:  0, // GOMAXPROCS
		grain:    defaultGrain,
		observer: nopObserver{},
		executor: func(fn func()) { fn() },
		evaluate: Evaluate,
	}
}

// WithWorkers sets the number of scheduler workers.
// Zero or a negative value selects GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithGrain sets the minimum number of 4-pixel blocks per unit of pool work.
// Smaller values balance load better on tiny images at the cost of more
// scheduling overhead. Values below 1 are ignored.
func WithGrain(blocks int) Option {
	return func(o *options) {
		if blocks >= 1 {
			o.grain = blocks
		}
	}
}

// WithObserver sets the observer notified of every session.
// Use Observers to attach more than one.
func WithObserver(obs Observer) Option {
	return func(o *options) {
		if obs != nil {
			o.observer = obs
		}
	}
}

// WithExecutor sets the execution context for observer callbacks other
// than Started. The executor receives each callback in order from the
// session's dispatcher goroutine; it may run it inline (the default) or
// post it to a UI event queue, as long as callbacks run one at a time in
// the order they were handed over.
func WithExecutor(exec func(func())) Option {
	return func(o *options) {
		if exec != nil {
			o.executor = exec
		}
	}
}

package mandelbrot

import "github.com/google/uuid"

// SessionID identifies one render session. Display layers use it to ignore
// frames from sessions that have been superseded.
type SessionID = uuid.UUID

// Outcome is the terminal state of a render session.
type Outcome int

const (
	// Completed means all four passes ran and were flushed.
	Completed Outcome = iota
	// Cancelled means the session was superseded or cancelled before
	// finishing. It is a normal outcome, not a failure.
	Cancelled
)

// String returns the outcome name.
func (o Outcome) String() string {
	switch o {
	case Completed:
		return "completed"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Passes is the number of progressive refinement passes per render.
const Passes = 4

// Frame is a snapshot of a session's buffer taken after a pass.
// The buffer is a copy owned by no session; observers may keep it but
// must not modify it, since every observer receives the same copy.
type Frame struct {
	Session SessionID
	// Pass is the 0-based pass that produced the frame.
	Pass   int
	Buffer *PixelBuffer
}

// Final reports whether the frame is the fully refined image.
func (f Frame) Final() bool {
	return f.Pass == Passes-1
}

// Observer receives render notifications.
//
// Started is called synchronously by Renderer.Render before it returns.
// All other calls are made from the session's dispatcher, in order, via the
// renderer's executor (see WithExecutor). They never run on scheduler
// workers, so a slow observer cannot stall evaluation; it can only cause
// progress notifications to be dropped.
type Observer interface {
	// Started announces a new current session.
	Started(id SessionID, req Request)
	// Progress reports the percentage of blocks finished in a pass.
	// Values within a pass only increase.
	Progress(id SessionID, pass, percent int)
	// Flush hands over the image after a completed pass.
	Flush(f Frame)
	// Done is the last call for a session.
	Done(id SessionID, o Outcome)
}

// ObserverFuncs adapts plain functions to Observer. Nil fields are skipped.
type ObserverFuncs struct {
	OnStarted  func(id SessionID, req Request)
	OnProgress func(id SessionID, pass, percent int)
	OnFlush    func(f Frame)
	OnDone     func(id SessionID, o Outcome)
}

func (o ObserverFuncs) Started(id SessionID, req Request) {
	if o.OnStarted != nil {
		o.OnStarted(id, req)
	}
}

func (o ObserverFuncs) Progress(id SessionID, pass, percent int) {
	if o.OnProgress != nil {
		o.OnProgress(id, pass, percent)
	}
}

func (o ObserverFuncs) Flush(f Frame) {
	if o.OnFlush != nil {
		o.OnFlush(f)
	}
}

func (o ObserverFuncs) Done(id SessionID, out Outcome) {
	if o.OnDone != nil {
		o.OnDone(id, out)
	}
}

// Observers fans notifications out to several observers in order.
type Observers []Observer

func (obs Observers) Started(id SessionID, req Request) {
	for _, o := range obs {
		o.Started(id, req)
	}
}

func (obs Observers) Progress(id SessionID, pass, percent int) {
	for _, o := range obs {
		o.Progress(id, pass, percent)
	}
}

func (obs Observers) Flush(f Frame) {
	for _, o := range obs {
		o.Flush(f)
	}
}

func (obs Observers) Done(id SessionID, out Outcome) {
	for _, o := range obs {
		o.Done(id, out)
	}
}

type nopObserver struct{}

func (nopObserver) Started(SessionID, Request)  {}
func (nopObserver) Progress(SessionID, int, int) {}
func (nopObserver) Flush(Frame)                  {}
func (nopObserver) Done(SessionID, Outcome)      {}

package mandelbrot

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// withEvaluator replaces the per-pixel evaluator.
func withEvaluator(fn func(complex128, int) Color) Option {
	return func(o *options) {
		o.evaluate = fn
	}
}

type event struct {
	kind    string
	pass    int
	percent int
	frame   Frame
	outcome Outcome
}

// recorder is an Observer that keeps every notification per session.
type recorder struct {
	mu      sync.Mutex
	order   []SessionID
	events  map[SessionID][]event
	started map[SessionID]Request
}

func newRecorder() *recorder {
	return &recorder{
		events:  make(map[SessionID][]event),
		started: make(map[SessionID]Request),
	}
}

func (r *recorder) Started(id SessionID, req Request) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.order = append(r.order, id)
	r.started[id] = req
	r.events[id] = append(r.events[id], event{kind: "started"})
}

func (r *recorder) Progress(id SessionID, pass, percent int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events[id] = append(r.events[id], event{kind: "progress", pass: pass, percent: percent})
}

func (r *recorder) Flush(f Frame) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events[f.Session] = append(r.events[f.Session], event{kind: "flush", pass: f.Pass, frame: f})
}

func (r *recorder) Done(id SessionID, o Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events[id] = append(r.events[id], event{kind: "done", outcome: o})
}

func (r *recorder) get(id SessionID) []event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]event(nil), r.events[id]...)
}

func (r *recorder) flushes(id SessionID) []Frame {
	var frames []Frame
	for _, e := range r.get(id) {
		if e.kind == "flush" {
			frames = append(frames, e.frame)
		}
	}
	return frames
}

// gate blocks evaluation while armed until it is opened.
type gate struct {
	armed   atomic.Bool
	entered chan struct{}
	open    chan struct{}
	once    sync.Once
}

func newGate() *gate {
	return &gate{entered: make(chan struct{}), open: make(chan struct{})}
}

func (g *gate) evaluate(c complex128, n int) Color {
	if g.armed.Load() {
		g.once.Do(func() { close(g.entered) })
		<-g.open
	}
	return Evaluate(c, n)
}

func waitDone(t *testing.T, s *Session) Outcome {
	t.Helper()
	select {
	case <-s.Done():
		return s.Wait()
	case <-time.After(10 * time.Second):
		t.Fatal("session did not finish")
		return 0
	}
}

func testRequest(w, h int) Request {
	return Request{Viewport: DefaultViewport(), Width: w, Height: h, MaxIterations: 64}
}

func TestRendererInvalidRequest(t *testing.T) {
	rec := newRecorder()
	r := NewRenderer(WithObserver(rec))
	defer r.Close()

	tests := []struct {
		name string
		req  Request
		want error
	}{
		{"iterations", Request{Viewport: DefaultViewport(), Width: 4, Height: 4}, ErrInvalidIterations},
		{"size", Request{Viewport: DefaultViewport(), Width: -4, Height: 4, MaxIterations: 10}, ErrInvalidSize},
		{"too large", Request{Viewport: DefaultViewport(), Width: 1 << 20, Height: 1 << 20, MaxIterations: 10}, ErrInvalidSize},
		{"viewport", Request{Width: 4, Height: 4, MaxIterations: 10}, ErrInvalidViewport},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := r.Render(context.Background(), tt.req)
			if !errors.Is(err, tt.want) || s != nil {
				t.Errorf("Render() = %v, %v; want nil, %v", s, err, tt.want)
			}
		})
	}

	if r.Current() != nil {
		t.Error("invalid request became current")
	}
	if len(rec.order) != 0 {
		t.Errorf("observer saw %d sessions, want 0", len(rec.order))
	}
}

func TestRendererCompletes(t *testing.T) {
	rec := newRecorder()
	r := NewRenderer(WithObserver(rec), WithWorkers(3), WithGrain(1))
	defer r.Close()

	req := testRequest(37, 21)
	s, err := r.Render(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if r.Current() != s {
		t.Error("Current() is not the new session")
	}
	if out := waitDone(t, s); out != Completed {
		t.Fatalf("Wait() = %v, want completed", out)
	}

	events := rec.get(s.ID())
	if events[0].kind != "started" {
		t.Errorf("first event = %q, want started", events[0].kind)
	}
	if last := events[len(events)-1]; last.kind != "done" || last.outcome != Completed {
		t.Errorf("last event = %+v, want done/completed", last)
	}

	frames := rec.flushes(s.ID())
	if len(frames) != Passes {
		t.Fatalf("flushes = %d, want %d", len(frames), Passes)
	}
	for p, f := range frames {
		if f.Pass != p || f.Session != s.ID() {
			t.Errorf("flush %d = pass %d session %v", p, f.Pass, f.Session)
		}
		if f.Final() != (p == Passes-1) {
			t.Errorf("flush %d Final() = %v", p, f.Final())
		}
	}

	got, ok := s.Result()
	if !ok {
		t.Fatal("Result() unavailable after completion")
	}
	if !got.Equal(reference(req)) {
		t.Error("result differs from per-pixel evaluation")
	}
	if !frames[Passes-1].Buffer.Equal(got) {
		t.Error("final frame differs from result")
	}
	if frames[Passes-1].Buffer == got {
		t.Error("final frame shares the session buffer")
	}

	if pass, pct := s.Progress(); pass != Passes-1 || pct != 100 {
		t.Errorf("Progress() = %d, %d; want %d, 100", pass, pct, Passes-1)
	}
}

func TestRendererProgressOrdering(t *testing.T) {
	rec := newRecorder()
	r := NewRenderer(WithObserver(rec), WithWorkers(4), WithGrain(1))
	defer r.Close()

	s, err := r.Render(context.Background(), testRequest(120, 60))
	if err != nil {
		t.Fatal(err)
	}
	waitDone(t, s)

	lastPass, lastPct := -1, -1
	flushed := -1
	for _, e := range rec.get(s.ID()) {
		switch e.kind {
		case "progress":
			if e.pass < lastPass || (e.pass == lastPass && e.percent <= lastPct) {
				t.Fatalf("progress went back: %d/%d after %d/%d", e.pass, e.percent, lastPass, lastPct)
			}
			if e.pass <= flushed {
				t.Fatalf("progress for pass %d after its flush", e.pass)
			}
			if e.percent < 0 || e.percent > 100 {
				t.Fatalf("percent %d out of range", e.percent)
			}
			lastPass, lastPct = e.pass, e.percent
		case "flush":
			flushed = e.pass
		}
	}
}

func TestRendererSupersedes(t *testing.T) {
	rec := newRecorder()
	g := newGate()
	r := NewRenderer(WithObserver(rec), WithWorkers(2), WithGrain(1), withEvaluator(g.evaluate))
	defer r.Close()

	g.armed.Store(true)
	s1, err := r.Render(context.Background(), testRequest(64, 32))
	if err != nil {
		t.Fatal(err)
	}
	<-g.entered

	g.armed.Store(false)
	req2 := Request{Viewport: DefaultViewport().Zoom(2, 32, 16, 64, 32), Width: 64, Height: 32, MaxIterations: 64}
	s2, err := r.Render(context.Background(), req2)
	if err != nil {
		t.Fatal(err)
	}
	if s1.ID() == s2.ID() {
		t.Fatal("sessions share an ID")
	}
	if s1.ctx.Err() == nil {
		t.Error("previous session not cancelled before Render returned")
	}
	close(g.open)

	if out := waitDone(t, s1); out != Cancelled {
		t.Errorf("superseded session = %v, want cancelled", out)
	}
	if out := waitDone(t, s2); out != Completed {
		t.Errorf("new session = %v, want completed", out)
	}

	if n := len(rec.flushes(s1.ID())); n != 0 {
		t.Errorf("superseded session flushed %d times", n)
	}
	if n := len(rec.flushes(s2.ID())); n != Passes {
		t.Errorf("new session flushed %d times, want %d", n, Passes)
	}
	if _, ok := s1.Result(); ok {
		t.Error("Result() available for a cancelled session")
	}
	got, _ := s2.Result()
	if !got.Equal(reference(req2)) {
		t.Error("new session result differs from per-pixel evaluation")
	}

	if len(rec.order) != 2 || rec.order[0] != s1.ID() || rec.order[1] != s2.ID() {
		t.Errorf("Started order = %v", rec.order)
	}
	ev := rec.get(s1.ID())
	if last := ev[len(ev)-1]; last.kind != "done" || last.outcome != Cancelled {
		t.Errorf("superseded session last event = %+v", last)
	}
}

func TestRendererCancel(t *testing.T) {
	g := newGate()
	r := NewRenderer(WithWorkers(2), withEvaluator(g.evaluate))
	defer r.Close()

	g.armed.Store(true)
	s, err := r.Render(context.Background(), testRequest(32, 32))
	if err != nil {
		t.Fatal(err)
	}
	<-g.entered
	r.Cancel()
	close(g.open)

	if out := waitDone(t, s); out != Cancelled {
		t.Errorf("Wait() = %v, want cancelled", out)
	}
	if out, ok := s.Outcome(); !ok || out != Cancelled {
		t.Errorf("Outcome() = %v, %v", out, ok)
	}
}

func TestRendererContextCancelled(t *testing.T) {
	rec := newRecorder()
	r := NewRenderer(WithObserver(rec))
	defer r.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s, err := r.Render(ctx, testRequest(16, 16))
	if err != nil {
		t.Fatal(err)
	}
	if out := waitDone(t, s); out != Cancelled {
		t.Errorf("Wait() = %v, want cancelled", out)
	}
	if n := len(rec.flushes(s.ID())); n != 0 {
		t.Errorf("flushes = %d, want 0", n)
	}
}

func TestRendererEmptyImage(t *testing.T) {
	rec := newRecorder()
	r := NewRenderer(WithObserver(rec))
	defer r.Close()

	s, err := r.Render(context.Background(), testRequest(0, 10))
	if err != nil {
		t.Fatal(err)
	}
	if out := waitDone(t, s); out != Completed {
		t.Errorf("Wait() = %v, want completed", out)
	}
	if n := len(rec.flushes(s.ID())); n != 0 {
		t.Errorf("flushes = %d, want 0", n)
	}
	if buf, ok := s.Result(); !ok || buf.Len() != 0 {
		t.Errorf("Result() = %v, %v", buf, ok)
	}
}

func TestRendererClose(t *testing.T) {
	g := newGate()
	r := NewRenderer(WithWorkers(2), withEvaluator(g.evaluate))

	g.armed.Store(true)
	s, err := r.Render(context.Background(), testRequest(32, 32))
	if err != nil {
		t.Fatal(err)
	}
	<-g.entered

	closed := make(chan struct{})
	go func() {
		r.Close()
		close(closed)
	}()
	<-s.ctx.Done()
	close(g.open)

	select {
	case <-closed:
	case <-time.After(10 * time.Second):
		t.Fatal("Close did not return")
	}
	if out, ok := s.Outcome(); !ok || out != Cancelled {
		t.Errorf("Outcome() after Close = %v, %v", out, ok)
	}

	if _, err := r.Render(context.Background(), testRequest(4, 4)); !errors.Is(err, ErrClosed) {
		t.Errorf("Render() after Close error = %v, want ErrClosed", err)
	}
	r.Close()
}

func TestRendererExecutor(t *testing.T) {
	var (
		calls  atomic.Int64
		inExec atomic.Bool
		doneIn atomic.Bool
	)
	exec := func(fn func()) {
		calls.Add(1)
		inExec.Store(true)
		fn()
		inExec.Store(false)
	}
	obs := ObserverFuncs{
		OnDone: func(SessionID, Outcome) { doneIn.Store(inExec.Load()) },
	}

	r := NewRenderer(WithObserver(obs), WithExecutor(exec))
	defer r.Close()

	s, err := r.Render(context.Background(), testRequest(20, 10))
	if err != nil {
		t.Fatal(err)
	}
	waitDone(t, s)

	// At least four flushes and the final Done.
	if calls.Load() < Passes+1 {
		t.Errorf("executor ran %d callbacks, want at least %d", calls.Load(), Passes+1)
	}
	if !doneIn.Load() {
		t.Error("Done did not run on the executor")
	}
}

// TestRendererCancelWhileExecutorBehind tests that a session cancelled
// after its passes finished, but before a lagging executor received the
// flushes, does not report Completed.
func TestRendererCancelWhileExecutorBehind(t *testing.T) {
	var (
		entered = make(chan struct{})
		release = make(chan struct{})
		once    sync.Once
	)
	exec := func(fn func()) {
		once.Do(func() { close(entered) })
		<-release
		fn()
	}
	rec := newRecorder()
	r := NewRenderer(WithWorkers(2), WithObserver(rec), WithExecutor(exec))
	defer r.Close()

	s, err := r.Render(context.Background(), testRequest(8, 8))
	if err != nil {
		t.Fatal(err)
	}
	<-entered
	deadline := time.Now().Add(5 * time.Second)
	for pass, pct := s.Progress(); pass != Passes-1 || pct != 100; pass, pct = s.Progress() {
		if time.Now().After(deadline) {
			t.Fatal("scheduler did not reach the last pass")
		}
		time.Sleep(time.Millisecond)
	}
	time.Sleep(20 * time.Millisecond)

	s.Cancel()
	close(release)

	if out := waitDone(t, s); out != Cancelled {
		t.Errorf("Wait() = %v, want cancelled", out)
	}
	if n := len(rec.flushes(s.ID())); n != 0 {
		t.Errorf("flushes = %d, want 0 after cancel", n)
	}
	ev := rec.get(s.ID())
	if last := ev[len(ev)-1]; last.kind != "done" || last.outcome != Cancelled {
		t.Errorf("last event = %+v, want done(cancelled)", last)
	}
	if _, ok := s.Result(); ok {
		t.Error("Result() available for a cancelled session")
	}
}

// TestRendererCompletedMeansFourFlushes tests that every Done(Completed)
// follows one delivered flush per pass.
func TestRendererCompletedMeansFourFlushes(t *testing.T) {
	rec := newRecorder()
	r := NewRenderer(WithObserver(rec), WithExecutor(func(fn func()) {
		time.Sleep(50 * time.Microsecond)
		fn()
	}))
	defer r.Close()

	var sessions []*Session
	for range 8 {
		s, err := r.Render(context.Background(), testRequest(12, 12))
		if err != nil {
			t.Fatal(err)
		}
		sessions = append(sessions, s)
	}
	for _, s := range sessions {
		out := waitDone(t, s)
		n := len(rec.flushes(s.ID()))
		if out == Completed && n != Passes {
			t.Errorf("session %v completed after %d flushes", s.ID(), n)
		}
	}
	if out := sessions[len(sessions)-1].Wait(); out != Completed {
		t.Errorf("last session = %v, want completed", out)
	}
}

func TestRendererObserverPanic(t *testing.T) {
	var flushes, dones atomic.Int64
	obs := Observers{
		ObserverFuncs{OnFlush: func(Frame) { panic("boom") }},
		ObserverFuncs{
			OnFlush: func(Frame) { flushes.Add(1) },
			OnDone:  func(SessionID, Outcome) { dones.Add(1) },
		},
	}
	r := NewRenderer(WithObserver(obs))
	defer r.Close()

	s, err := r.Render(context.Background(), testRequest(8, 8))
	if err != nil {
		t.Fatal(err)
	}
	if out := waitDone(t, s); out != Completed {
		t.Errorf("Wait() = %v, want completed", out)
	}
	// The first observer panics before the second sees any flush.
	if flushes.Load() != 0 {
		t.Errorf("second observer saw %d flushes, want 0", flushes.Load())
	}
	if dones.Load() != 1 {
		t.Errorf("Done delivered %d times, want 1", dones.Load())
	}
}

func TestRendererDefaults(t *testing.T) {
	r := NewRenderer(WithWorkers(3), WithGrain(0), WithObserver(nil), WithExecutor(nil))
	defer r.Close()

	if r.Workers() != 3 {
		t.Errorf("Workers() = %d, want 3", r.Workers())
	}
	if r.opts.grain != defaultGrain {
		t.Errorf("grain = %d, want default %d", r.opts.grain, defaultGrain)
	}
	if r.opts.observer == nil || r.opts.executor == nil {
		t.Error("nil options replaced the defaults")
	}
	if r.Current() != nil {
		t.Error("Current() before any Render is not nil")
	}
	r.Cancel()
}

func TestOutcomeString(t *testing.T) {
	tests := []struct {
		o    Outcome
		want string
	}{
		{Completed, "completed"},
		{Cancelled, "cancelled"},
		{Outcome(9), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.o.String(); got != tt.want {
			t.Errorf("Outcome(%d).String() = %q, want %q", tt.o, got, tt.want)
		}
	}
}

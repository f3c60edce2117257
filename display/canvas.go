package display

import (
	"errors"
	"image"
	"image/png"
	"os"
	"sync"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/gogpu/mandelbrot"
)

// ErrNoImage is returned when a Canvas has not received a frame yet.
var ErrNoImage = errors.New("display: no frame to show")

// Canvas is a mandelbrot.Observer that keeps the latest frame of the
// current session, the way a window would. Notifications from sessions
// other than the one last announced by Started are counted and ignored,
// so a superseded render never overwrites the image of its successor.
//
// Until the new session flushes its first pass the canvas keeps showing the
// previous frame.
//
// Thread safety: Canvas is safe for concurrent use.
type Canvas struct {
	palette  *Palette
	printer  *message.Printer
	onUpdate func()

	mu       sync.Mutex
	current  mandelbrot.SessionID
	req      mandelbrot.Request
	active   bool
	frame    mandelbrot.Frame
	pass     int
	percent  int
	finished bool
	outcome  mandelbrot.Outcome
	stale    int
}

// CanvasOption configures NewCanvas.
type CanvasOption func(*Canvas)

// WithPalette sets the palette used by Image. The default is
// DefaultPalette.
func WithPalette(p *Palette) CanvasOption {
	return func(c *Canvas) {
		if p != nil {
			c.palette = p
		}
	}
}

// WithLanguage selects the locale for status and position labels.
func WithLanguage(tag language.Tag) CanvasOption {
	return func(c *Canvas) {
		c.printer = message.NewPrinter(tag)
	}
}

// WithUpdate registers fn to be called, without the canvas lock held,
// after each accepted notification. A window would request a repaint here.
func WithUpdate(fn func()) CanvasOption {
	return func(c *Canvas) {
		c.onUpdate = fn
	}
}

// NewCanvas creates an empty canvas.
func NewCanvas(opts ...CanvasOption) *Canvas {
	c := &Canvas{
		palette: DefaultPalette(),
		printer: message.NewPrinter(language.English),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Started implements mandelbrot.Observer.
func (c *Canvas) Started(id mandelbrot.SessionID, req mandelbrot.Request) {
	c.mu.Lock()
	c.current, c.req, c.active = id, req, true
	c.pass, c.percent = 0, 0
	c.finished = false
	c.mu.Unlock()
	c.update()
}

// Progress implements mandelbrot.Observer.
func (c *Canvas) Progress(id mandelbrot.SessionID, pass, percent int) {
	c.mu.Lock()
	if !c.accept(id) {
		c.mu.Unlock()
		return
	}
	c.pass, c.percent = pass, percent
	c.mu.Unlock()
	c.update()
}

// Flush implements mandelbrot.Observer.
func (c *Canvas) Flush(f mandelbrot.Frame) {
	c.mu.Lock()
	if !c.accept(f.Session) {
		c.mu.Unlock()
		mandelbrot.Logger().Debug("display: stale frame ignored", "session", f.Session, "pass", f.Pass)
		return
	}
	c.frame = f
	c.pass, c.percent = f.Pass, 100
	c.mu.Unlock()
	c.update()
}

// Done implements mandelbrot.Observer.
func (c *Canvas) Done(id mandelbrot.SessionID, o mandelbrot.Outcome) {
	c.mu.Lock()
	if !c.accept(id) {
		c.mu.Unlock()
		return
	}
	c.finished, c.outcome = true, o
	c.mu.Unlock()
	c.update()
}

// accept reports whether id is the current session. Called with c.mu held.
func (c *Canvas) accept(id mandelbrot.SessionID) bool {
	if c.active && id == c.current {
		return true
	}
	c.stale++
	return false
}

func (c *Canvas) update() {
	if c.onUpdate != nil {
		c.onUpdate()
	}
}

// Session returns the current session ID and whether any session started.
func (c *Canvas) Session() (mandelbrot.SessionID, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current, c.active
}

// Frame returns the frame on display.
func (c *Canvas) Frame() (mandelbrot.Frame, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frame, c.frame.Buffer != nil
}

// Stale returns how many notifications from other sessions were ignored.
func (c *Canvas) Stale() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stale
}

// Finished returns the outcome of the current session once it is done.
func (c *Canvas) Finished() (mandelbrot.Outcome, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.outcome, c.finished
}

// Status describes the state of the current session, e.g. "Pass 2/4 - 37%".
func (c *Canvas) Status() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case !c.active:
		return c.printer.Sprintf("Ready")
	case c.finished && c.outcome == mandelbrot.Completed:
		return c.printer.Sprintf("Done")
	case c.finished:
		return c.printer.Sprintf("Cancelled")
	}
	return c.printer.Sprintf("Pass %d/%d - %d%%", c.pass+1, mandelbrot.Passes, c.percent)
}

// Position labels the point under pixel (x, y) of the current request.
// It returns "" before the first session.
func (c *Canvas) Position(x, y float64) string {
	c.mu.Lock()
	req, ok := c.req, c.active
	c.mu.Unlock()
	if !ok {
		return ""
	}
	return positionLabel(c.printer, req.Viewport, x, y, req.Width, req.Height)
}

// Image colorizes the frame on display, or returns nil if there is none.
func (c *Canvas) Image() *image.NRGBA {
	f, ok := c.Frame()
	if !ok {
		return nil
	}
	return c.palette.Colorize(f.Buffer)
}

// SavePNG writes the colorized frame on display to a PNG file.
func (c *Canvas) SavePNG(path string) error {
	img := c.Image()
	if img == nil {
		return ErrNoImage
	}
	return SavePNG(path, img)
}

// SavePNG writes img to a PNG file.
func SavePNG(path string, img image.Image) error {
	f, err := os.Create(path) //nolint:gosec // path is user-provided intentionally
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// Command mandel renders the Mandelbrot set to a PNG file.
//
// The render runs in four progressive passes; -passes writes the image after
// each of them. With -zoom-steps the command starts a chain of renders, each
// zooming into the center of the previous one and superseding it, and saves
// the last.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/gogpu/mandelbrot"
	"github.com/gogpu/mandelbrot/display"
)

func main() {
	def := mandelbrot.DefaultViewport()
	var (
		width      = flag.Int("width", 1920, "image width")
		height     = flag.Int("height", 1080, "image height")
		iterations = flag.Int("iterations", mandelbrot.DefaultIterations, "maximum iterations per point")
		x          = flag.Float64("x", real(def.Origin()), "real part of the top-left corner")
		y          = flag.Float64("y", imag(def.Origin()), "imaginary part of the top-left corner")
		w          = flag.Float64("w", def.Width(), "width of the view on the real axis")
		h          = flag.Float64("h", def.Height(), "height of the view on the imaginary axis")
		workers    = flag.Int("workers", 0, "worker goroutines (0 = GOMAXPROCS)")
		output     = flag.String("output", "mandelbrot.png", "output file")
		passes     = flag.String("passes", "", "directory to write each pass to")
		scale      = flag.Int("scale", 0, "scale the output to fit in N×N pixels (0 = off)")
		caption    = flag.Bool("caption", false, "draw status and view caption")
		palette    = flag.String("palette", "default", "palette: "+strings.Join(display.PaletteNames(), ", "))
		steps      = flag.Int("steps", 0, "number of palette bands (0 = smooth)")
		zoomSteps  = flag.Int("zoom-steps", 0, "zoom 2× into the center this many times, superseding each render")
		verbose    = flag.Bool("v", false, "log render lifecycle")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	mandelbrot.SetLogger(logger)

	pal, err := display.PaletteByName(*palette, display.WithSteps(*steps))
	if err != nil {
		log.Fatalf("palette: %v", err)
	}
	view, err := mandelbrot.NewViewport(complex(*x, *y), *w, *h)
	if err != nil {
		log.Fatalf("viewport: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	canvas := display.NewCanvas(display.WithPalette(pal))
	observers := mandelbrot.Observers{canvas, progressLogger(logger, canvas)}
	if *passes != "" {
		if err := os.MkdirAll(*passes, 0o755); err != nil {
			log.Fatalf("passes: %v", err)
		}
		observers = append(observers, passWriter(logger, pal, *passes))
	}

	r := mandelbrot.NewRenderer(
		mandelbrot.WithWorkers(*workers),
		mandelbrot.WithObserver(observers),
	)
	defer r.Close()

	var s *mandelbrot.Session
	for i := range max(*zoomSteps, 0) + 1 {
		if i > 0 {
			view = view.Zoom(2, float64(*width)/2, float64(*height)/2, *width, *height)
		}
		req, err := mandelbrot.NewRequest(view, *width, *height, *iterations)
		if err != nil {
			log.Fatalf("request: %v", err)
		}
		s, err = r.Render(ctx, req)
		if err != nil {
			log.Fatalf("render: %v", err)
		}
	}

	if out := s.Wait(); out != mandelbrot.Completed {
		log.Fatalf("render %s", out)
	}

	img := canvas.Image()
	if img == nil {
		log.Fatal("render produced no image")
	}
	if *caption {
		if err := display.Annotate(img, 0, display.Caption(nil, s.Request()), canvas.Status()); err != nil {
			log.Fatalf("caption: %v", err)
		}
	}
	if *scale > 0 {
		img = display.Thumbnail(img, *scale, *scale, display.CatmullRom)
	}
	if err := display.SavePNG(*output, img); err != nil {
		log.Fatalf("Failed to save: %v", err)
	}

	log.Printf("Saved %s (%dx%d, %s)\n", *output, img.Bounds().Dx(), img.Bounds().Dy(), view)
}

// progressLogger logs the canvas status whenever a pass completes.
func progressLogger(logger *slog.Logger, canvas *display.Canvas) mandelbrot.Observer {
	return mandelbrot.ObserverFuncs{
		OnFlush: func(f mandelbrot.Frame) {
			logger.Info("pass complete", "session", f.Session, "pass", f.Pass+1, "status", canvas.Status())
		},
		OnDone: func(id mandelbrot.SessionID, o mandelbrot.Outcome) {
			logger.Info("render done", "session", id, "outcome", o)
		},
	}
}

// passWriter saves every flushed frame as dir/<session>-pass<n>.png.
func passWriter(logger *slog.Logger, pal *display.Palette, dir string) mandelbrot.Observer {
	return mandelbrot.ObserverFuncs{
		OnFlush: func(f mandelbrot.Frame) {
			path := filepath.Join(dir, fmt.Sprintf("%s-pass%d.png", f.Session, f.Pass+1))
			if err := display.SavePNG(path, pal.Colorize(f.Buffer)); err != nil {
				logger.Warn("write pass", "path", path, "err", err)
			}
		},
	}
}

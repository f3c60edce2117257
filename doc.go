// Package mandelbrot renders the Mandelbrot set progressively on the CPU.
//
// # Overview
//
// A Renderer turns a Request (a Viewport onto the complex plane, an image
// size and an iteration budget) into a PixelBuffer of packed colors. The
// image is produced in four passes so that a display can show a coarse
// preview almost immediately and refine it as the passes complete. Starting
// a new render supersedes the previous one, which stops within one block of
// work per worker.
//
// # Quick Start
//
//	r := mandelbrot.NewRenderer()
//	defer r.Close()
//
//	req, err := mandelbrot.NewRequest(mandelbrot.DefaultViewport(), 1920, 1080, 100)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	s, err := r.Render(context.Background(), req)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if s.Wait() == mandelbrot.Completed {
//	    buf, _ := s.Result()
//	    _ = display.SavePNG("mandelbrot.png", display.DefaultPalette().Colorize(buf))
//	}
//
// # Coloring
//
// Evaluate iterates z = z² + c from zero until |z|² exceeds 2^16 or the
// budget runs out. Points that never escape get the Interior sentinel (all
// bits set). Escaped points get a gray level from the smoothed escape count
// normalized by the iteration budget, which avoids visible banding. Mapping
// grays to a palette is left to the display; see the display package.
//
// # Progressive Passes
//
// Pixels are grouped into blocks of four in row-major order. Pass p
// evaluates the pixel at offset p of each block and paints that color over
// offsets p through 3. After pass 0 every block shows one true sample;
// after pass 3 every pixel holds its own value. A pass never touches the
// offsets finished by earlier passes.
//
// # Notifications
//
// An Observer receives Started, Progress, Flush and Done for each session.
// Flush carries a Frame, a private snapshot of the buffer, so the display
// never shares memory with running workers. Frames and progress are tagged
// with the session ID; a display should ignore those that do not belong to
// the session it last saw start.
//
// # Coordinate System
//
// The viewport origin is the top-left pixel. Columns increase to the right
// along the real axis; rows increase downward while the imaginary part
// decreases.
package mandelbrot

package display

import (
	"image"

	xdraw "golang.org/x/image/draw"
)

// Quality selects the resampling filter used by Scale.
type Quality int

const (
	// Nearest keeps hard pixel edges; it suits the blocky early passes.
	Nearest Quality = iota
	// Bilinear is fast and smooth enough for live previews.
	Bilinear
	// CatmullRom is the slowest and sharpest; use it for saved thumbnails.
	CatmullRom
)

func (q Quality) interpolator() xdraw.Interpolator {
	switch q {
	case Bilinear:
		return xdraw.ApproxBiLinear
	case CatmullRom:
		return xdraw.CatmullRom
	default:
		return xdraw.NearestNeighbor
	}
}

// Fit returns the largest size with the aspect ratio of w×h that fits in
// maxW×maxH. Non-positive limits leave that dimension unconstrained.
func Fit(w, h, maxW, maxH int) (int, int) {
	if w <= 0 || h <= 0 {
		return 0, 0
	}
	scale := 1.0
	if maxW > 0 {
		scale = min(scale, float64(maxW)/float64(w))
	}
	if maxH > 0 {
		scale = min(scale, float64(maxH)/float64(h))
	}
	return max(int(float64(w)*scale+0.5), 1), max(int(float64(h)*scale+0.5), 1)
}

// Scale resamples src to exactly w×h.
func Scale(src image.Image, w, h int, q Quality) *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, max(w, 0), max(h, 0)))
	if dst.Bounds().Empty() || src.Bounds().Empty() {
		return dst
	}
	q.interpolator().Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	return dst
}

// Thumbnail scales src down to fit in maxW×maxH. Images that already fit
// are copied unscaled.
func Thumbnail(src image.Image, maxW, maxH int, q Quality) *image.NRGBA {
	b := src.Bounds()
	w, h := Fit(b.Dx(), b.Dy(), maxW, maxH)
	return Scale(src, w, h, q)
}

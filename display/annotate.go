package display

import (
	"fmt"
	"image"
	"image/color"
	"sync"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// DefaultCaptionSize is the caption font size in pixels.
const DefaultCaptionSize = 14

var (
	captionBackground = color.NRGBA{0, 0, 0, 0xa0}
	captionForeground = color.NRGBA{0xff, 0xff, 0xff, 0xff}
)

var (
	goRegularOnce sync.Once
	goRegular     *opentype.Font
	goRegularErr  error

	facesMu sync.Mutex
	faces   = make(map[float64]font.Face)
)

// captionFace returns the Go Regular face at size, parsing the font on
// first use and caching one face per size.
func captionFace(size float64) (font.Face, error) {
	goRegularOnce.Do(func() {
		goRegular, goRegularErr = opentype.Parse(goregular.TTF)
	})
	if goRegularErr != nil {
		return nil, fmt.Errorf("display: parse caption font: %w", goRegularErr)
	}

	facesMu.Lock()
	defer facesMu.Unlock()
	if f, ok := faces[size]; ok {
		return f, nil
	}
	f, err := opentype.NewFace(goRegular, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("display: caption face: %w", err)
	}
	faces[size] = f
	return f, nil
}

// Annotate draws lines of text in a translucent box at the bottom-left
// corner of dst. A size of zero or less selects DefaultCaptionSize.
// Nothing is drawn when there are no lines.
func Annotate(dst xdraw.Image, size float64, lines ...string) error {
	if len(lines) == 0 {
		return nil
	}
	if size <= 0 {
		size = DefaultCaptionSize
	}
	face, err := captionFace(size)
	if err != nil {
		return err
	}

	m := face.Metrics()
	lineH := m.Height.Ceil()
	pad := max(lineH/3, 2)

	var textW fixed.Int26_6
	for _, l := range lines {
		textW = max(textW, font.MeasureString(face, l))
	}

	b := dst.Bounds()
	box := image.Rect(
		b.Min.X,
		b.Max.Y-len(lines)*lineH-2*pad,
		b.Min.X+textW.Ceil()+2*pad,
		b.Max.Y,
	).Intersect(b)
	xdraw.Draw(dst, box, image.NewUniform(captionBackground), image.Point{}, xdraw.Over)

	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(captionForeground),
		Face: face,
	}
	for i, l := range lines {
		d.Dot = fixed.P(box.Min.X+pad, box.Min.Y+pad+i*lineH+m.Ascent.Ceil())
		d.DrawString(l)
	}
	return nil
}

package export

import (
	"image"
	"image/color"
	"image/draw"
	"io"
	"math"

	"github.com/chai2010/webp"
	"github.com/pkg/errors"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/vector"

	"github.com/woozymasta/geodoc/internal/document"
)

const (
	// MinPreviewSize and MaxPreviewSize bound the longest preview side.
	MinPreviewSize = 16
	MaxPreviewSize = 4096

	// supersample is the factor the preview is drawn at before scaling down.
	supersample = 2
	// maxCanvas caps the drawing canvas side; larger previews are drawn
	// with a smaller factor.
	maxCanvas = 4096
)

// ErrPreviewSize is returned for preview sizes outside
// [MinPreviewSize, MaxPreviewSize].
var ErrPreviewSize = errors.New("preview size out of range")

// Preview renders the snapshot into an RGBA image whose longest side is
// size pixels, on a white background with a small margin.
func (s *Snapshot) Preview(size int) (*image.RGBA, error) {
	if size < MinPreviewSize || size > MaxPreviewSize {
		return nil, errors.Wrapf(ErrPreviewSize, "%d not in [%d, %d]", size, MinPreviewSize, MaxPreviewSize)
	}

	factor := supersample
	if size*factor > maxCanvas {
		factor = 1
	}

	b, ok := s.Bound()
	spanX, spanY := 1.0, 1.0
	if ok {
		spanX = math.Max(b.Max.X()-b.Min.X(), 1e-9)
		spanY = math.Max(b.Max.Y()-b.Min.Y(), 1e-9)
	}

	w, h := size, size
	if spanX >= spanY {
		h = int(math.Max(1, math.Round(float64(size)*spanY/spanX)))
	} else {
		w = int(math.Max(1, math.Round(float64(size)*spanX/spanY)))
	}

	bigW, bigH := w*factor, h*factor
	margin := float64(size*factor) / 40
	scale := math.Min(
		(float64(bigW)-2*margin)/spanX,
		(float64(bigH)-2*margin)/spanY,
	)
	if scale <= 0 || math.IsInf(scale, 0) || math.IsNaN(scale) {
		scale = 1
	}

	project := func(p document.Point3d) (float32, float32) {
		x := margin + (p.X-b.Min.X())*scale
		y := float64(bigH) - margin - (p.Y-b.Min.Y())*scale
		return float32(x), float32(y)
	}

	canvas := image.NewRGBA(image.Rect(0, 0, bigW, bigH))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	half := float32(factor)
	r := vector.NewRasterizer(bigW, bigH)

	for _, obj := range s.Objects {
		r.Reset(bigW, bigH)

		switch obj.Kind {
		case document.KindPoint:
			x, y := project(obj.Point)
			square(r, x, y, half*2)
		case document.KindCurve:
			for i := 1; i < len(obj.Curve.Points); i++ {
				ax, ay := project(obj.Curve.Points[i-1])
				bx, by := project(obj.Curve.Points[i])
				segment(r, ax, ay, bx, by, half)
			}
		}

		c := s.layerColor(objectLayer(obj))
		src := image.NewUniform(color.RGBA{R: c.R, G: c.G, B: c.B, A: 255})
		r.Draw(canvas, canvas.Bounds(), src, image.Point{})
	}

	out := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(out, out.Bounds(), canvas, canvas.Bounds(), xdraw.Src, nil)

	return out, nil
}

// WritePreview encodes the preview as lossless WebP.
func (s *Snapshot) WritePreview(w io.Writer, size int) error {
	img, err := s.Preview(size)
	if err != nil {
		return err
	}
	if err := webp.Encode(w, img, &webp.Options{Lossless: true}); err != nil {
		return errors.Wrap(err, "encode webp")
	}
	return nil
}

func square(r *vector.Rasterizer, x, y, half float32) {
	// same winding as segment quads
	r.MoveTo(x-half, y+half)
	r.LineTo(x+half, y+half)
	r.LineTo(x+half, y-half)
	r.LineTo(x-half, y-half)
	r.ClosePath()
}

// segment adds a quad of the given half width around a-b.
func segment(r *vector.Rasterizer, ax, ay, bx, by, half float32) {
	dx, dy := bx-ax, by-ay
	l := float32(math.Hypot(float64(dx), float64(dy)))
	if l == 0 {
		square(r, ax, ay, half)
		return
	}
	nx, ny := -dy/l*half, dx/l*half

	r.MoveTo(ax+nx, ay+ny)
	r.LineTo(bx+nx, by+ny)
	r.LineTo(bx-nx, by-ny)
	r.LineTo(ax-nx, ay-ny)
	r.ClosePath()
}

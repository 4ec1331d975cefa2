package export

import (
	"bytes"
	"fmt"
	"html"
	"io"
	"math"
	"strconv"

	"github.com/paulmach/orb"
	"github.com/pkg/errors"
	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/svg"

	"github.com/woozymasta/geodoc/internal/document"
)

const svgMIME = "image/svg+xml"

// Bound returns the x/y bounding box of every object in the snapshot.
func (s *Snapshot) Bound() (orb.Bound, bool) {
	var b orb.Bound
	first := true

	extend := func(p document.Point3d) {
		pt := orb.Point{p.X, p.Y}
		if first {
			b = orb.Bound{Min: pt, Max: pt}
			first = false
			return
		}
		b = b.Extend(pt)
	}

	for _, obj := range s.Objects {
		switch obj.Kind {
		case document.KindPoint:
			extend(obj.Point)
		case document.KindCurve:
			for _, p := range obj.Curve.Points {
				extend(p)
			}
		}
	}

	return b, !first
}

// layerColor returns the color of the layer at index, black if unassigned.
func (s *Snapshot) layerColor(index int) document.Color {
	for _, l := range s.Layers {
		if l.Index == index {
			return l.Color
		}
	}
	return document.Black
}

// WriteSVG draws the snapshot as minified SVG, one group per layer. The y
// axis is flipped so north points up.
func (s *Snapshot) WriteSVG(w io.Writer) error {
	b, ok := s.Bound()
	if !ok {
		b = orb.Bound{Max: orb.Point{1, 1}}
	}

	width := math.Max(b.Max.X()-b.Min.X(), 1e-9)
	height := math.Max(b.Max.Y()-b.Min.Y(), 1e-9)
	stroke := math.Max(width, height) / 500
	radius := stroke * 2

	num := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	tx := func(p document.Point3d) (string, string) {
		return num(p.X - b.Min.X()), num(b.Max.Y() - p.Y)
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %s %s">`, num(width), num(height))

	groups := map[int]*bytes.Buffer{}
	var order []int
	for _, obj := range s.Objects {
		layer := objectLayer(obj)
		g, ok := groups[layer]
		if !ok {
			g = &bytes.Buffer{}
			groups[layer] = g
			order = append(order, layer)
		}

		switch obj.Kind {
		case document.KindPoint:
			x, y := tx(obj.Point)
			fmt.Fprintf(g, `<circle cx="%s" cy="%s" r="%s"/>`, x, y, num(radius))
		case document.KindCurve:
			g.WriteString(`<polyline points="`)
			for i, p := range obj.Curve.Points {
				if i > 0 {
					g.WriteByte(' ')
				}
				x, y := tx(p)
				g.WriteString(x + "," + y)
			}
			g.WriteString(`"/>`)
		}
	}

	for _, layer := range order {
		color := s.layerColor(layer).Hex()
		name := s.layerName(layer)
		fmt.Fprintf(&buf, `<g id="%s" stroke="%s" fill="none" stroke-width="%s">`,
			html.EscapeString(groupID(layer, name)), color, num(stroke))
		buf.Write(groups[layer].Bytes())
		buf.WriteString(`</g>`)
	}
	buf.WriteString(`</svg>`)

	m := minify.New()
	m.AddFunc(svgMIME, svg.Minify)
	if err := m.Minify(svgMIME, w, &buf); err != nil {
		return errors.Wrap(err, "minify svg")
	}
	return nil
}

// objectLayer returns the layer index of obj.
func objectLayer(obj document.Object) int {
	if obj.Attributes == nil {
		return document.NoLayer
	}
	return obj.Attributes.LayerIndex
}

func groupID(layer int, name string) string {
	if name != "" {
		return "layer-" + name
	}
	if layer == document.NoLayer {
		return "default"
	}
	return "layer-" + strconv.Itoa(layer)
}

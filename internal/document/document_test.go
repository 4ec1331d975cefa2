package document

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureLayerIsIdempotent(t *testing.T) {
	doc := NewMemoryDocument()
	red := Color{R: 255, A: 255}

	first, err := EnsureLayer(doc.Layers(), "roads", Black)
	require.NoError(t, err)

	second, err := EnsureLayer(doc.Layers(), "roads", red)
	require.NoError(t, err)
	require.Equal(t, first, second)

	layers, err := doc.Layers().List()
	require.NoError(t, err)
	require.Len(t, layers, 1)
	assert.Equal(t, "roads", layers[0].Name)
	assert.Equal(t, red, layers[0].Color)

	_, err = EnsureLayer(doc.Layers(), "", red)
	require.ErrorIs(t, err, ErrEmptyLayerName)
}

func TestLayerTableAddRejectsDuplicates(t *testing.T) {
	doc := NewMemoryDocument()

	_, err := doc.Layers().Add("a", Black)
	require.NoError(t, err)

	_, err = doc.Layers().Add("a", White)
	require.Error(t, err)

	_, err = doc.Layers().Add("", White)
	require.ErrorIs(t, err, ErrEmptyLayerName)

	idx, err := doc.Layers().Find("missing")
	require.NoError(t, err)
	assert.Equal(t, NoLayer, idx)
}

func TestObjectTable(t *testing.T) {
	doc := NewMemoryDocument()
	attrs := NewAttributes()
	attrs.SetUserString("name", "a")

	id, err := doc.Objects().AddPoint(Point3d{X: 1, Y: 2}, attrs)
	require.NoError(t, err)

	// later mutation must not leak into the stored object
	attrs.SetUserString("name", "b")

	obj, err := doc.Objects().Find(id)
	require.NoError(t, err)
	assert.Equal(t, KindPoint, obj.Kind)
	assert.Equal(t, Point3d{X: 1, Y: 2}, obj.Point)
	v, ok := obj.Attributes.UserString("name")
	require.True(t, ok)
	assert.Equal(t, "a", v)

	ids, err := doc.Objects().AddPoints([]Point3d{{X: 1}, {X: 2}, {X: 3}}, nil)
	require.NoError(t, err)
	assert.Len(t, ids, 3)

	_, err = doc.Objects().AddPoint(Point3d{X: math.NaN()}, nil)
	require.ErrorIs(t, err, ErrInvalidPoint)

	bad := NewAttributes()
	bad.LayerIndex = 4
	_, err = doc.Objects().AddPoint(Point3d{}, bad)
	require.True(t, errors.Is(err, ErrLayerNotFound))

	_, err = doc.Objects().Find("nope")
	require.ErrorIs(t, err, ErrObjectNotFound)

	all, err := doc.Objects().List()
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestControlPointCurve(t *testing.T) {
	pts := []Point3d{{X: 102}, {X: 103, Y: 1}, {X: 104}, {X: 105, Y: 1}}

	c, err := NewControlPointCurve(pts, 1)
	require.NoError(t, err)

	lo, hi := c.Domain()
	assert.Equal(t, 0.0, lo)
	assert.Equal(t, 3.0, hi)

	for i, p := range pts {
		assert.Equal(t, p, c.PointAt(float64(i)))
	}
	assert.Equal(t, Point3d{X: 102.5, Y: 0.5}, c.PointAt(0.5))
	assert.False(t, c.IsClosed())
	assert.InDelta(t, 3*math.Sqrt2, c.Length(), 1e-9)

	_, err = NewControlPointCurve(pts[:1], 1)
	require.ErrorIs(t, err, ErrDegenerateCurve)

	_, err = NewControlPointCurve([]Point3d{{X: math.Inf(1)}, {}}, 1)
	require.ErrorIs(t, err, ErrInvalidPoint)
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		want Color
	}{
		{"", Black},
		{"#ff0000", Color{R: 255, A: 255}},
		{"#0F0", Color{G: 255, A: 255}},
		{"rgb(0,0,255)", Color{B: 255, A: 255}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseColor(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseColor("not-a-color")
	require.Error(t, err)
}

func TestColorJSON(t *testing.T) {
	for _, c := range []Color{Black, {R: 1, G: 2, B: 3, A: 4}} {
		data, err := json.Marshal(c)
		require.NoError(t, err)

		var back Color
		require.NoError(t, json.Unmarshal(data, &back))
		assert.Equal(t, c, back)
	}
}

func TestAttributesJSONKeepsOrder(t *testing.T) {
	a := NewAttributes()
	a.LayerIndex = 2
	a.SetUserString("z", "1")
	a.SetUserString("a", "2")

	data, err := json.Marshal(a)
	require.NoError(t, err)

	back := &Attributes{}
	require.NoError(t, json.Unmarshal(data, back))
	assert.Equal(t, []string{"z", "a"}, back.Keys())
	assert.Equal(t, 2, back.LayerIndex)
}

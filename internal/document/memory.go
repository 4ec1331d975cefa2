package document

import (
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// MemoryDocument keeps layers and objects in memory. It is not safe for
// concurrent use.
type MemoryDocument struct {
	objIndex map[ObjectID]int
	layers   []Layer
	objects  []Object
	newID    func() ObjectID
}

// NewMemoryDocument returns an empty document.
func NewMemoryDocument() *MemoryDocument {
	return &MemoryDocument{
		objIndex: map[ObjectID]int{},
		newID:    func() ObjectID { return ObjectID(uuid.NewString()) },
	}
}

// Layers returns the layer table.
func (d *MemoryDocument) Layers() LayerTable { return memoryLayers{d} }

// Objects returns the object table.
func (d *MemoryDocument) Objects() ObjectTable { return memoryObjects{d} }

type memoryLayers struct{ d *MemoryDocument }

func (t memoryLayers) Find(name string) (int, error) {
	for _, l := range t.d.layers {
		if l.Name == name {
			return l.Index, nil
		}
	}
	return NoLayer, nil
}

func (t memoryLayers) Add(name string, color Color) (int, error) {
	if name == "" {
		return NoLayer, ErrEmptyLayerName
	}

	// Add never duplicates a name; callers wanting to update use EnsureLayer.
	if idx, _ := t.Find(name); idx != NoLayer {
		return NoLayer, errors.Errorf("layer %q already exists at index %d", name, idx)
	}

	idx := len(t.d.layers)
	t.d.layers = append(t.d.layers, Layer{Index: idx, Name: name, Color: color})
	return idx, nil
}

func (t memoryLayers) Get(index int) (Layer, error) {
	if index < 0 || index >= len(t.d.layers) {
		return Layer{}, errors.Wrapf(ErrLayerNotFound, "index %d", index)
	}
	return t.d.layers[index], nil
}

func (t memoryLayers) SetColor(index int, color Color) error {
	if index < 0 || index >= len(t.d.layers) {
		return errors.Wrapf(ErrLayerNotFound, "index %d", index)
	}
	t.d.layers[index].Color = color
	return nil
}

func (t memoryLayers) List() ([]Layer, error) {
	out := make([]Layer, len(t.d.layers))
	copy(out, t.d.layers)
	return out, nil
}

type memoryObjects struct{ d *MemoryDocument }

func (t memoryObjects) checkLayer(attrs *Attributes) error {
	if attrs == nil || attrs.LayerIndex == NoLayer {
		return nil
	}
	_, err := memoryLayers(t).Get(attrs.LayerIndex)
	return err
}

func (t memoryObjects) add(obj Object) ObjectID {
	obj.ID = t.d.newID()
	t.d.objIndex[obj.ID] = len(t.d.objects)
	t.d.objects = append(t.d.objects, obj)
	return obj.ID
}

func (t memoryObjects) AddPoint(p Point3d, attrs *Attributes) (ObjectID, error) {
	if !p.Valid() {
		return "", ErrInvalidPoint
	}
	if err := t.checkLayer(attrs); err != nil {
		return "", err
	}
	return t.add(Object{Kind: KindPoint, Point: p, Attributes: attrs.Clone()}), nil
}

func (t memoryObjects) AddPoints(points []Point3d, attrs *Attributes) ([]ObjectID, error) {
	for i, p := range points {
		if !p.Valid() {
			return nil, errors.Wrapf(ErrInvalidPoint, "point %d", i)
		}
	}
	if err := t.checkLayer(attrs); err != nil {
		return nil, err
	}

	ids := make([]ObjectID, 0, len(points))
	for _, p := range points {
		ids = append(ids, t.add(Object{Kind: KindPoint, Point: p, Attributes: attrs.Clone()}))
	}
	return ids, nil
}

func (t memoryObjects) AddCurve(c *Curve, attrs *Attributes) (ObjectID, error) {
	if c == nil || len(c.Points) < 2 {
		return "", ErrDegenerateCurve
	}
	if err := t.checkLayer(attrs); err != nil {
		return "", err
	}
	return t.add(Object{Kind: KindCurve, Curve: c, Attributes: attrs.Clone()}), nil
}

func (t memoryObjects) Find(id ObjectID) (Object, error) {
	i, ok := t.d.objIndex[id]
	if !ok {
		return Object{}, errors.Wrapf(ErrObjectNotFound, "id %s", id)
	}
	return t.d.objects[i], nil
}

func (t memoryObjects) List() ([]Object, error) {
	out := make([]Object, len(t.d.objects))
	copy(out, t.d.objects)
	return out, nil
}

// Package processor loads GeoJSON features into a document.
package processor

import (
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/woozymasta/geodoc/internal/document"
	"github.com/woozymasta/geodoc/internal/geo"
)

// Destination is the optional layer features are placed on. A nil
// destination leaves objects unassigned; an empty Layer name is an error.
type Destination struct {
	Layer string
	Color document.Color
}

// Processor drives features through the converter into a document.
// It is not safe for concurrent use; callers serialize access to Document.
type Processor struct {
	Document  document.Document
	Converter Converter
	// Palette colors layers created by ProcessLayers, cycling per layer.
	// Black is used when empty.
	Palette []document.Color
}

// New returns a processor for doc with no projection.
func New(doc document.Document) *Processor {
	return &Processor{
		Document:  doc,
		Converter: Converter{Projection: geo.ProjectionNone},
	}
}

// ProcessFeatures adds every feature of fc in order and returns the created
// object identifiers as one flat list. The first failure aborts the run and
// no identifiers are returned.
func (p *Processor) ProcessFeatures(fc *geo.FeatureCollection, dest *Destination) ([]document.ObjectID, error) {
	if fc == nil {
		return nil, errors.New("nil feature collection")
	}

	ids := make([]document.ObjectID, 0, len(fc.Features))

	for i := range fc.Features {
		featureIDs, err := p.processFeature(&fc.Features[i], dest)
		if err != nil {
			return nil, errors.Wrapf(err, "feature %d", i)
		}
		ids = append(ids, featureIDs...)
	}

	layer := ""
	if dest != nil {
		layer = dest.Layer
	}
	log.Debug().
		Str("layer", layer).
		Int("features", len(fc.Features)).
		Int("objects", len(ids)).
		Msg("Feature collection processed")

	return ids, nil
}

func (p *Processor) processFeature(f *geo.Feature, dest *Destination) ([]document.ObjectID, error) {
	attrs := document.NewAttributes()

	if dest != nil {
		idx, err := document.EnsureLayer(p.Document.Layers(), dest.Layer, dest.Color)
		if err != nil {
			return nil, errors.Wrapf(err, "layer %q", dest.Layer)
		}
		attrs.LayerIndex = idx
	}

	for _, key := range sortedKeys(f.Properties) {
		attrs.SetUserString(key, geo.PropertyString(f.Properties[key]))
	}

	if f.Geometry == nil {
		return nil, ErrMissingGeometry
	}

	kind, err := f.Geometry.Kind()
	if err != nil {
		return nil, err
	}
	// members are never decoded, a collection is rejected as a whole
	if kind == geo.KindGeometryCollection {
		return nil, errors.Wrapf(ErrUnsupportedGeometry, "%s", kind)
	}

	g, err := f.Geometry.Orb()
	if err != nil {
		return nil, err
	}

	shape, err := p.Converter.Convert(g)
	if err != nil {
		return nil, err
	}

	log.Trace().
		Str("type", f.Geometry.Type).
		Int("properties", attrs.Len()).
		Msg("Adding feature")

	return shape.Add(p.Document.Objects(), attrs)
}

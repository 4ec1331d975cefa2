package processor

import (
	"sort"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/woozymasta/geodoc/internal/document"
	"github.com/woozymasta/geodoc/internal/geo"
)

// Load decodes a FeatureCollection and processes it.
func (p *Processor) Load(raw []byte, dest *Destination) ([]document.ObjectID, error) {
	fc, err := geo.Decode(raw)
	if err != nil {
		return nil, err
	}
	return p.ProcessFeatures(fc, dest)
}

// LoadLayers decodes a layer-name to FeatureCollection mapping and processes
// it with ProcessLayers.
func (p *Processor) LoadLayers(raw []byte) ([][]document.ObjectID, error) {
	layers, err := geo.DecodeLayers(raw)
	if err != nil {
		return nil, err
	}
	return p.ProcessLayers(layers)
}

// ProcessLayers puts every collection on a layer named after its key and
// returns one identifier list per layer, in input order.
func (p *Processor) ProcessLayers(layers geo.Layers) ([][]document.ObjectID, error) {
	results := make([][]document.ObjectID, 0, len(layers))

	for i, nc := range layers {
		dest := &Destination{Layer: nc.Name, Color: p.layerColor(i)}

		ids, err := p.ProcessFeatures(nc.Collection, dest)
		if err != nil {
			return nil, errors.Wrapf(err, "layer %q", nc.Name)
		}

		log.Info().
			Str("layer", nc.Name).
			Str("color", dest.Color.String()).
			Int("objects", len(ids)).
			Msg("Layer loaded")

		results = append(results, ids)
	}

	return results, nil
}

func (p *Processor) layerColor(i int) document.Color {
	if len(p.Palette) == 0 {
		return document.Black
	}
	return p.Palette[i%len(p.Palette)]
}

// sortedKeys gives property copying a stable order; JSON objects decode into
// Go maps which do not keep one.
func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

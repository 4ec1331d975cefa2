// Package server exposes a document over HTTP: load GeoJSON into it and
// read it back as JSON, GeoJSON, SVG or a WebP preview.
package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/woozymasta/geodoc/internal/document"
	"github.com/woozymasta/geodoc/internal/export"
	"github.com/woozymasta/geodoc/internal/geo"
	"github.com/woozymasta/geodoc/internal/processor"
)

// Routes registers every handler on a new mux.
func (s *ServerContext) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/load", s.HandleLoad)
	mux.HandleFunc("/api/layers", s.HandleLayers)
	mux.HandleFunc("/api/objects", s.HandleObjects)
	mux.HandleFunc("/document.geojson", s.HandleGeoJSON)
	mux.HandleFunc("/document.svg", s.HandleSVG)
	mux.HandleFunc("/preview.webp", s.HandlePreview)
	return mux
}

// HandleLoad adds a FeatureCollection body to the document, optionally on
// the layer named by the "layer" query parameter colored by "color".
func (s *ServerContext) HandleLoad(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := readBody(w, r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var dest *processor.Destination
	if name := r.URL.Query().Get("layer"); name != "" {
		color, err := document.ParseColor(r.URL.Query().Get("color"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		dest = &processor.Destination{Layer: name, Color: color}
	}

	s.mu.Lock()
	ids, err := s.Processor.Load(body, dest)
	s.mu.Unlock()

	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, ids)
}

// HandleLayers lists layers on GET and loads a layered mapping on POST.
func (s *ServerContext) HandleLayers(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.mu.Lock()
		layers, err := s.Processor.Document.Layers().List()
		s.mu.Unlock()
		if err != nil {
			writeError(w, err)
			return
		}
		if layers == nil {
			layers = []document.Layer{}
		}
		writeJSON(w, layers)

	case http.MethodPost:
		body, err := readBody(w, r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		s.mu.Lock()
		results, err := s.Processor.LoadLayers(body)
		s.mu.Unlock()

		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, results)

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleObjects lists objects, filtered by the "layer" name when given.
func (s *ServerContext) HandleObjects(w http.ResponseWriter, r *http.Request) {
	snap, err := s.snapshot()
	if err != nil {
		writeError(w, err)
		return
	}

	objects := snap.Objects
	if name := r.URL.Query().Get("layer"); name != "" {
		index := document.NoLayer
		for _, l := range snap.Layers {
			if l.Name == name {
				index = l.Index
			}
		}
		if index == document.NoLayer {
			http.NotFound(w, r)
			return
		}

		filtered := make([]document.Object, 0, len(objects))
		for _, obj := range objects {
			if obj.Attributes != nil && obj.Attributes.LayerIndex == index {
				filtered = append(filtered, obj)
			}
		}
		objects = filtered
	}

	if objects == nil {
		objects = []document.Object{}
	}
	writeJSON(w, objects)
}

// HandleGeoJSON serves the document as a FeatureCollection.
func (s *ServerContext) HandleGeoJSON(w http.ResponseWriter, r *http.Request) {
	s.serveExport(w, "application/geo+json", func(snap *export.Snapshot, out io.Writer) error {
		return snap.WriteFeatureCollection(out, export.FormatJSON)
	})
}

// HandleSVG serves the document drawing.
func (s *ServerContext) HandleSVG(w http.ResponseWriter, r *http.Request) {
	s.serveExport(w, "image/svg+xml", func(snap *export.Snapshot, out io.Writer) error {
		return snap.WriteSVG(out)
	})
}

// HandlePreview serves a WebP preview, sized by the "size" query parameter.
func (s *ServerContext) HandlePreview(w http.ResponseWriter, r *http.Request) {
	size := s.PreviewSize
	if v := r.URL.Query().Get("size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < export.MinPreviewSize || n > export.MaxPreviewSize {
			http.Error(w, "invalid size", http.StatusBadRequest)
			return
		}
		size = n
	}

	s.serveExport(w, "image/webp", func(snap *export.Snapshot, out io.Writer) error {
		return snap.WritePreview(out, size)
	})
}

// serveExport renders into a buffer first so a failed export still gets a
// proper error status.
func (s *ServerContext) serveExport(w http.ResponseWriter, contentType string, render func(*export.Snapshot, io.Writer) error) {
	snap, err := s.snapshot()
	if err != nil {
		writeError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := render(snap, &buf); err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "no-cache")
	// Ignoring error as we cannot handle client disconnects
	_, _ = w.Write(buf.Bytes())
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodySize))
	if err != nil {
		return nil, errors.Wrap(err, "read body")
	}
	return body, nil
}

// writeError maps input problems to 422, bad export options to 400 and
// everything else to 500.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.Is(err, processor.ErrUnsupportedGeometry),
		errors.Is(err, processor.ErrUnknownGeometry),
		errors.Is(err, processor.ErrMissingGeometry),
		errors.Is(err, document.ErrDegenerateCurve),
		errors.Is(err, document.ErrInvalidPoint),
		errors.Is(err, document.ErrEmptyLayerName),
		errors.Is(err, geo.ErrNotObject),
		errors.Is(err, geo.ErrMissingFeatures),
		errors.Is(err, geo.ErrTrailingData),
		errors.Is(err, geo.ErrMissingCoordinates),
		errors.Is(err, geo.ErrInvalidPosition),
		errors.Is(err, io.ErrUnexpectedEOF),
		errors.As(err, &syntaxErr),
		errors.As(err, &typeErr):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, export.ErrPreviewSize):
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		log.Error().Err(err).Msg("Request failed")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	// Ignoring error as we cannot handle client disconnects
	_ = json.NewEncoder(w).Encode(v)
}

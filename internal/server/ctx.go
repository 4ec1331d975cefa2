package server

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/woozymasta/geodoc/internal/document"
	"github.com/woozymasta/geodoc/internal/export"
	"github.com/woozymasta/geodoc/internal/geo"
	"github.com/woozymasta/geodoc/internal/processor"
)

// MaxBodySize limits uploaded GeoJSON bodies.
const MaxBodySize = 64 << 20

// ServerContext holds dependencies for request handlers. Every handler
// takes mu, so the document is never touched from two requests at once.
type ServerContext struct {
	mu          sync.Mutex
	Processor   *processor.Processor
	PreviewSize int
}

// NewServerContext wires a processor around doc.
func NewServerContext(doc document.Document, projection geo.Projection, palette []document.Color) *ServerContext {
	p := processor.New(doc)
	p.Converter.Projection = projection
	p.Palette = palette

	log.Info().
		Str("projection", string(projection)).
		Int("palette", len(palette)).
		Msg("Server context initialized")

	return &ServerContext{Processor: p, PreviewSize: 1024}
}

func (s *ServerContext) snapshot() (*export.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return export.Take(s.Processor.Document)
}

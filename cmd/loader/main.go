package main

import (
	"bufio"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/woozymasta/geodoc/internal/config"
	"github.com/woozymasta/geodoc/internal/document"
	"github.com/woozymasta/geodoc/internal/document/sqlitedoc"
	"github.com/woozymasta/geodoc/internal/export"
	"github.com/woozymasta/geodoc/internal/geo"
	"github.com/woozymasta/geodoc/internal/logger"
	"github.com/woozymasta/geodoc/internal/processor"
	"github.com/woozymasta/geodoc/internal/source"

	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	Args struct {
		Inputs []string `positional-arg-name:"INPUT" description:"GeoJSON files or URLs, '-' for stdin"`
	} `positional-args:"yes"`

	ConfigFile  string `short:"c" long:"config"       env:"CONFIG_FILE"  description:"Path to a YAML or TOML layer configuration"`
	Database    string `short:"d" long:"db"           env:"DOCUMENT_DB"  description:"SQLite document file (in-memory document when empty)"`
	Layer       string `short:"l" long:"layer"        description:"Destination layer for plain inputs"`
	Color       string `short:"C" long:"color"        description:"Destination layer color" default:"#000000"`
	Projection  string `short:"P" long:"projection"   env:"PROJECTION"   description:"Coordinate projection" choice:"none" choice:"mercator" default:"none"`
	GeoJSONOut  string `short:"g" long:"geojson"      description:"Write the document as a FeatureCollection to this path"`
	Format      string `short:"f" long:"format"       description:"FeatureCollection output format" choice:"json" choice:"yaml" default:"json"`
	SVGOut      string `short:"s" long:"svg"          description:"Write the document as SVG to this path"`
	PreviewOut  string `short:"w" long:"preview"      description:"Write a WebP preview to this path"`
	PreviewSize int    `long:"preview-size"           description:"Longest side of the preview in pixels" default:"1024"`
	Layered     bool   `short:"L" long:"layers"       description:"Inputs map layer names to FeatureCollections"`
	Quiet       bool   `short:"q" long:"quiet"        description:"Do not print object identifiers"`
}

func main() {
	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	opts.Logger.Setup()

	if err := run(opts); err != nil {
		log.Fatal().Err(err).Msg("Loader failed")
	}

	log.Info().Msg("Loader finished successfully")
}

func run(opts Options) error {
	var cfg *config.Config
	if opts.ConfigFile != "" {
		var err error
		cfg, err = config.Load(opts.ConfigFile)
		if err != nil {
			return errors.Wrap(err, "load configuration")
		}
	}

	if cfg == nil && len(opts.Args.Inputs) == 0 {
		return errors.New("nothing to load: pass input files or --config")
	}

	projectionName := opts.Projection
	if cfg != nil && cfg.Projection != "" {
		projectionName = cfg.Projection
	}
	projection, err := geo.ParseProjection(projectionName)
	if err != nil {
		return err
	}

	if opts.PreviewOut != "" && (opts.PreviewSize < export.MinPreviewSize || opts.PreviewSize > export.MaxPreviewSize) {
		return errors.Wrapf(export.ErrPreviewSize, "--preview-size %d", opts.PreviewSize)
	}

	doc, closeDoc, err := openDocument(opts.Database)
	if err != nil {
		return err
	}
	defer closeDoc()

	proc := processor.New(doc)
	proc.Converter.Projection = projection
	if cfg != nil {
		if proc.Palette, err = cfg.PaletteColors(); err != nil {
			return err
		}
	}

	fetcher := source.NewFetcher(&http.Client{Timeout: 30 * time.Second})

	out := bufio.NewWriter(os.Stdout)
	defer func() { _ = out.Flush() }()

	printIDs := func(layer string, ids []document.ObjectID) {
		if opts.Quiet {
			return
		}
		for _, id := range ids {
			fmt.Fprintf(out, "%s\t%s\n", layer, id)
		}
	}

	log.Info().
		Int("inputs", len(opts.Args.Inputs)).
		Bool("config", cfg != nil).
		Str("projection", string(projection)).
		Str("db", opts.Database).
		Msg("Starting loader")

	if cfg != nil {
		if err := loadConfigLayers(proc, cfg, fetcher, printIDs); err != nil {
			return err
		}
	}

	for _, input := range opts.Args.Inputs {
		data, err := fetcher.Fetch(input)
		if err != nil {
			return err
		}

		if opts.Layered {
			layers, err := geo.DecodeLayers(data)
			if err != nil {
				return errors.Wrap(err, input)
			}
			results, err := proc.ProcessLayers(layers)
			if err != nil {
				return errors.Wrap(err, input)
			}
			for i, ids := range results {
				printIDs(layers[i].Name, ids)
			}
			continue
		}

		var dest *processor.Destination
		if opts.Layer != "" {
			color, err := document.ParseColor(opts.Color)
			if err != nil {
				return err
			}
			dest = &processor.Destination{Layer: opts.Layer, Color: color}
		}

		ids, err := proc.Load(data, dest)
		if err != nil {
			return errors.Wrap(err, input)
		}

		log.Info().Str("input", input).Int("objects", len(ids)).Msg("Input loaded")
		printIDs(opts.Layer, ids)
	}

	return writeExports(doc, opts)
}

func loadConfigLayers(proc *processor.Processor, cfg *config.Config, fetcher *source.Fetcher, printIDs func(string, []document.ObjectID)) error {
	for i, l := range cfg.Layers {
		var fc *geo.FeatureCollection
		var err error

		if l.Inline != nil {
			log.Info().Str("layer", l.Name).Msg("Using inline GeoJSON from config")
			fc, err = geo.FromValue(l.Inline)
		} else {
			log.Info().Str("layer", l.Name).Str("source", l.Source).Msg("Processing layer source")
			var data []byte
			if data, err = fetcher.Fetch(l.Source); err == nil {
				fc, err = geo.Decode(data)
			}
		}
		if err != nil {
			return errors.Wrapf(err, "layer %q", l.Name)
		}

		color, err := cfg.LayerColor(i)
		if err != nil {
			return err
		}

		ids, err := proc.ProcessFeatures(fc, &processor.Destination{Layer: l.Name, Color: color})
		if err != nil {
			return errors.Wrapf(err, "layer %q", l.Name)
		}

		log.Info().Str("layer", l.Name).Int("objects", len(ids)).Msg("Layer loaded")
		printIDs(l.Name, ids)
	}
	return nil
}

func openDocument(path string) (document.Document, func(), error) {
	if path == "" {
		return document.NewMemoryDocument(), func() {}, nil
	}

	doc, err := sqlitedoc.Open(path)
	if err != nil {
		return nil, nil, err
	}

	return doc, func() {
		if err := doc.Close(); err != nil {
			log.Error().Err(err).Str("db", path).Msg("Failed to close document")
		}
	}, nil
}

func writeExports(doc document.Document, opts Options) error {
	if opts.GeoJSONOut == "" && opts.SVGOut == "" && opts.PreviewOut == "" {
		return nil
	}

	snap, err := export.Take(doc)
	if err != nil {
		return err
	}

	if opts.GeoJSONOut != "" {
		format := export.Format(opts.Format)
		if err := export.SaveFile(opts.GeoJSONOut, func(w io.Writer) error {
			return snap.WriteFeatureCollection(w, format)
		}); err != nil {
			return err
		}
	}

	if opts.SVGOut != "" {
		if err := export.SaveFile(opts.SVGOut, snap.WriteSVG); err != nil {
			return err
		}
	}

	if opts.PreviewOut != "" {
		if err := export.SaveFile(opts.PreviewOut, func(w io.Writer) error {
			return snap.WritePreview(w, opts.PreviewSize)
		}); err != nil {
			return err
		}
	}

	return nil
}

package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/woozymasta/geodoc/internal/config"
	"github.com/woozymasta/geodoc/internal/document"
	"github.com/woozymasta/geodoc/internal/document/sqlitedoc"
	"github.com/woozymasta/geodoc/internal/export"
	"github.com/woozymasta/geodoc/internal/geo"
	"github.com/woozymasta/geodoc/internal/logger"
	"github.com/woozymasta/geodoc/internal/server"

	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog/log"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	ConfigFile  string `short:"c" long:"config"       env:"CONFIG_FILE"    description:"Path to configuration file (projection and palette)"`
	Database    string `short:"d" long:"db"           env:"DOCUMENT_DB"    description:"SQLite document file (in-memory document when empty)"`
	Addr        string `short:"a" long:"addr"         env:"LISTEN_ADDRESS" description:"Address to listen on"       default:"0.0.0.0"`
	Projection  string `short:"P" long:"projection"   env:"PROJECTION"     description:"Coordinate projection" choice:"none" choice:"mercator" default:"none"`
	Port        int    `short:"p" long:"port"         env:"LISTEN_PORT"    description:"Port to listen on"          default:"8080"`
	PreviewSize int    `long:"preview-size"           env:"PREVIEW_SIZE"   description:"Default preview size"       default:"1024"`
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

	// Setup Logging
	opts.Logger.Setup()

	projectionName := opts.Projection
	var palette []document.Color

	// Load Config
	if opts.ConfigFile != "" {
		cfg, err := config.Load(opts.ConfigFile)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to load configuration")
		}
		if cfg.Projection != "" {
			projectionName = cfg.Projection
		}
		if palette, err = cfg.PaletteColors(); err != nil {
			log.Fatal().Err(err).Msg("Invalid palette")
		}
	}

	projection, err := geo.ParseProjection(projectionName)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid projection")
	}

	if opts.PreviewSize < export.MinPreviewSize || opts.PreviewSize > export.MaxPreviewSize {
		log.Fatal().
			Int("size", opts.PreviewSize).
			Int("min", export.MinPreviewSize).
			Int("max", export.MaxPreviewSize).
			Msg("Invalid preview size")
	}

	var doc document.Document = document.NewMemoryDocument()
	closeDoc := func() {}
	if opts.Database != "" {
		sqlDoc, err := sqlitedoc.Open(opts.Database)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to open document")
		}
		closeDoc = func() {
			if err := sqlDoc.Close(); err != nil {
				log.Error().Err(err).Str("db", opts.Database).Msg("Failed to close document")
			}
		}
		doc = sqlDoc
	}

	srvCtx := server.NewServerContext(doc, projection, palette)
	srvCtx.PreviewSize = opts.PreviewSize

	handler := server.RequestLogger(srvCtx.Routes())

	listenAddr := fmt.Sprintf("%s:%d", opts.Addr, opts.Port)
	log.Info().
		Str("addr", listenAddr).
		Str("db", opts.Database).
		Msg("Web server started")

	err = http.ListenAndServe(listenAddr, handler)

	// log.Fatal exits without running defers
	closeDoc()
	log.Fatal().Err(err).Msg("Server failed")
}

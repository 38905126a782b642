package server

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"net/http"
	"os"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/joeblew999/forest-map/internal/api"
	"github.com/joeblew999/forest-map/internal/api/viewer"
	"github.com/joeblew999/forest-map/internal/db"
	"github.com/joeblew999/forest-map/internal/observability"
	"github.com/joeblew999/forest-map/internal/service"
	"github.com/joeblew999/forest-map/internal/templates"
	"github.com/joeblew999/forest-map/web"
)

// Config holds the server configuration.
type Config struct {
	Host    string
	Port    string
	DataDir string
	WebDir  string // Path to web/ directory; empty uses the embedded copy

	SpeciesFile string // GeoJSON source of the tree species overlay
	IndexFile   string // GeoJSON source of the HBR index overlay

	EnableDB     bool     // Keep a DuckDB attribute table of the styled features
	DBExtensions []string // DuckDB extensions loaded best effort, e.g. spatial

	Logger *zap.Logger
}

// Server is the forest map HTTP server.
type Server struct {
	config   Config
	mux      *http.ServeMux
	humaAPI  huma.API
	db       *sql.DB
	bus      *service.EventBus
	services *api.Services
	registry *prometheus.Registry
	web      fs.FS
	renderer *templates.Renderer
	logger   *zap.Logger
}

// New creates a new forest map server.
func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SpeciesFile == "" {
		cfg.SpeciesFile = service.DefaultSpeciesFile
	}
	if cfg.IndexFile == "" {
		cfg.IndexFile = service.DefaultIndexFile
	}

	mux := http.NewServeMux()

	// Create Huma API with humago (pure stdlib) adapter
	humaConfig := huma.DefaultConfig("forest-map API", "1.0.0")
	humaConfig.Info.Description = "Forestry survey map: tree species and HBR index overlays, layer visibility and legends."
	humaConfig.Servers = []*huma.Server{
		{URL: fmt.Sprintf("http://%s:%s", cfg.Host, cfg.Port), Description: "Local server"},
	}
	// Disable $schema property in responses (cleaner JSON)
	humaConfig.CreateHooks = []func(huma.Config) huma.Config{}
	humaConfig.Transformers = append(humaConfig.Transformers, api.LinkTransformer())

	humaAPI := humago.New(mux, humaConfig)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := observability.NewMetrics(registry)

	// Initialize services
	bus := service.NewEventBus()
	layers := service.NewLayerService(service.DefaultLayers(cfg.SpeciesFile, cfg.IndexFile))
	sources := service.NewSourceService(cfg.DataDir)
	services := &api.Services{
		Layer:      layers,
		Source:     sources,
		Feature:    service.NewFeatureService(layers, sources, metrics, logger),
		Visibility: service.NewVisibilityController(layers.List(), bus, metrics, logger),
		Logger:     logger,
	}

	var webFS fs.FS = web.FS
	if cfg.WebDir != "" {
		webFS = os.DirFS(cfg.WebDir)
	}

	// Initialize template renderer for viewer SSE handlers
	renderer, err := templates.New(webFS)
	if err != nil {
		logger.Warn("fragment templates unavailable, viewer SSE routes disabled", zap.Error(err))
	} else {
		logger.Debug("loaded fragment templates", zap.String("web_dir", cfg.WebDir))
	}

	s := &Server{
		config:   cfg,
		mux:      mux,
		humaAPI:  humaAPI,
		bus:      bus,
		services: services,
		registry: registry,
		web:      webFS,
		renderer: renderer,
		logger:   logger,
	}

	if cfg.EnableDB {
		conn, err := db.Open(context.Background(), db.Config{
			DataDir:    cfg.DataDir,
			DBName:     "forestmap",
			Extensions: cfg.DBExtensions,
		}, logger)
		if err != nil {
			logger.Warn("duckdb unavailable", zap.Error(err))
		} else {
			s.db = conn
		}
	}

	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// OpenAPI returns the generated OpenAPI document.
func (s *Server) OpenAPI() *huma.OpenAPI {
	return s.humaAPI.OpenAPI()
}

// Preload styles every overlay and, with the database enabled, loads the
// styled attributes into the features table. A missing source is logged and
// skipped; the layer then reports its error on first request.
func (s *Server) Preload(ctx context.Context) error {
	if err := s.services.Feature.Preload(ctx); err != nil {
		s.logger.Warn("overlay preload incomplete", zap.Error(err))
	}
	if s.db == nil {
		return nil
	}

	for _, l := range s.services.Layer.Overlays() {
		styled, err := s.services.Feature.Styled(ctx, l.ID)
		if err != nil {
			continue
		}
		n, err := db.LoadFeatures(ctx, s.db, l.ID, styled.Features)
		if err != nil {
			return err
		}
		s.logger.Info("features table loaded", zap.String("layer", l.ID), zap.Int("rows", n))
	}
	return nil
}

// Close closes server resources.
func (s *Server) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Server) routes() {
	// Register Huma REST API routes (OpenAPI-documented JSON endpoints)
	api.RegisterRoutes(s.humaAPI, s.services)
	api.NewInfoHandler(s.config.DataDir, s.db != nil).RegisterRoutes(s.humaAPI)
	api.NewDBHandler(s.db).RegisterRoutes(s.humaAPI)

	// Register viewer SSE routes using Huma + Datastar SDK
	if s.renderer != nil {
		viewer.NewHandler(
			s.services.Layer,
			s.services.Feature,
			s.services.Visibility,
			s.bus,
			s.renderer,
			s.logger,
		).RegisterRoutes(s.humaAPI)
	}

	s.mux.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	// Static files and pages
	if static, err := fs.Sub(s.web, "static"); err == nil {
		s.mux.Handle("/static/", http.StripPrefix("/static/", http.FileServerFS(static)))
	}
	s.mux.HandleFunc("/viewer", s.handleViewer)
	s.mux.HandleFunc("/", s.handleRoot)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	s.handleViewer(w, r)
}

func (s *Server) handleViewer(w http.ResponseWriter, r *http.Request) {
	http.ServeFileFS(w, r, s.web, "templates/viewer.html")
}

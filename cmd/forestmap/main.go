package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/joeblew999/forest-map/internal/classify"
	"github.com/joeblew999/forest-map/internal/config"
	"github.com/joeblew999/forest-map/internal/server"
	"github.com/joeblew999/forest-map/internal/service"
)

// Options defines all CLI flags and env vars for the map server.
// Flags: --host, --port, --data-dir, --web-dir, --species-file, --index-file,
// --log-level, --log-format, --db
// Env vars: SERVICE_HOST, SERVICE_PORT, SERVICE_DATA_DIR, ...
type Options struct {
	Host        string `doc:"Host to bind to" default:"0.0.0.0"`
	Port        int    `doc:"Port to listen on" short:"p" default:"8086"`
	DataDir     string `doc:"Directory holding sources/ and duckdb/" default:".data"`
	WebDir      string `doc:"Path to a web/ directory (empty: embedded assets)"`
	SpeciesFile string `doc:"GeoJSON source of the tree species overlay" default:"Dревостой Верещагинского МО.geojson"`
	IndexFile   string `doc:"GeoJSON source of the HBR index overlay" default:"Xвойные лесные насаждения.geojson"`
	LogLevel    string `doc:"Log level (debug, info, warn, error)" default:"info"`
	LogFormat   string `doc:"Log format (json, console)" default:"console"`
	DB          bool   `doc:"Keep a DuckDB table of styled feature attributes" default:"true"`
}

func newServer(opts *Options, logger *zap.Logger) *server.Server {
	return server.New(server.Config{
		Host:         opts.Host,
		Port:         fmt.Sprintf("%d", opts.Port),
		DataDir:      opts.DataDir,
		WebDir:       opts.WebDir,
		SpeciesFile:  opts.SpeciesFile,
		IndexFile:    opts.IndexFile,
		EnableDB:     opts.DB,
		DBExtensions: []string{"spatial"},
		Logger:       logger,
	})
}

func mustLogger(opts *Options) *zap.Logger {
	logger, err := config.InitLogger(config.LogConfig{Level: opts.LogLevel, Format: opts.LogFormat})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	return logger
}

func main() {
	cli := humacli.New(func(hooks humacli.Hooks, opts *Options) {
		var (
			logger  *zap.Logger
			srv     *server.Server
			httpSrv *http.Server
		)

		hooks.OnStart(func() {
			logger = mustLogger(opts)
			defer logger.Sync()

			srv = newServer(opts, logger)
			if err := srv.Preload(context.Background()); err != nil {
				logger.Error("preload failed", zap.Error(err))
			}

			addr := fmt.Sprintf("%s:%d", opts.Host, opts.Port)
			displayHost := opts.Host
			if displayHost == "0.0.0.0" {
				displayHost = "localhost"
			}
			baseURL := fmt.Sprintf("http://%s:%d", displayHost, opts.Port)

			logger.Info("forest-map server starting",
				zap.String("addr", addr),
				zap.String("viewer", baseURL+"/viewer"),
				zap.String("docs", baseURL+"/docs"),
				zap.String("openapi", baseURL+"/openapi.json"),
				zap.String("data_dir", opts.DataDir),
			)

			httpSrv = &http.Server{Addr: addr, Handler: srv}
			if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Fatal("server error", zap.Error(err))
			}
		})

		hooks.OnStop(func() {
			if httpSrv == nil {
				return
			}
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := httpSrv.Shutdown(ctx); err != nil {
				logger.Warn("shutdown", zap.Error(err))
			}
			if err := srv.Close(); err != nil {
				logger.Warn("close", zap.Error(err))
			}
			logger.Info("forest-map server stopped")
		})
	})

	cli.Root().Use = "forestmap"
	cli.Root().Short = "Forestry survey map: species and HBR index overlays"
	cli.Root().Version = "0.1.0"

	// spec subcommand: export OpenAPI spec
	specCmd := &cobra.Command{
		Use:   "spec",
		Short: "Export OpenAPI spec (JSON by default, --yaml for YAML)",
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			opts.DB = false
			srv := newServer(opts, zap.NewNop())
			defer srv.Close()

			useYAML, _ := cmd.Flags().GetBool("yaml")
			printValue(srv.OpenAPI(), useYAML)
		}),
	}
	specCmd.Flags().BoolP("yaml", "y", false, "Output as YAML instead of JSON")
	cli.Root().AddCommand(specCmd)

	// legend subcommand: print the colour tables the classifiers use
	legendCmd := &cobra.Command{
		Use:   "legend",
		Short: "Print the species and HBR index legends (JSON by default, --yaml for YAML)",
		Run: func(cmd *cobra.Command, args []string) {
			useYAML, _ := cmd.Flags().GetBool("yaml")
			printValue(struct {
				View    service.MapView       `json:"view" yaml:"view"`
				Species []classify.LegendItem `json:"species" yaml:"species"`
				Index   []classify.LegendItem `json:"index" yaml:"index"`
			}{
				View:    service.DefaultView,
				Species: classify.SpeciesLegend(),
				Index:   classify.IndexLegend(),
			}, useYAML)
		},
	}
	legendCmd.Flags().BoolP("yaml", "y", false, "Output as YAML instead of JSON")
	cli.Root().AddCommand(legendCmd)

	cli.Run()
}

func printValue(v any, useYAML bool) {
	var output []byte
	var err error
	if useYAML {
		output, err = yaml.Marshal(v)
	} else {
		output, err = json.MarshalIndent(v, "", "  ")
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling output: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(output))
}

package cmd

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/MeKo-Tech/topomap/internal/pipeline"
	"github.com/MeKo-Tech/topomap/internal/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve terrains over HTTP (optionally generating missing ones on-demand)",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "127.0.0.1:8080", "Listen address (host:port)")
	serveCmd.Flags().String("terrain-dir", "", "Directory containing terrains (defaults to --output-dir)")

	serveCmd.Flags().Bool("generate-missing", true, "Generate missing terrains on-demand and cache them to disk")
	serveCmd.Flags().Bool("disable-cache", false, "Always regenerate terrains (still writes to disk)")
	serveCmd.Flags().Int("max-concurrent-generations", runtime.NumCPU(), "Max concurrent terrain generations (default: number of CPUs)")
	serveCmd.Flags().Duration("generation-timeout", 2*time.Minute, "Timeout per terrain generation")
	serveCmd.Flags().String("cache-control", "no-store", "Cache-Control header for served terrains")
	serveCmd.Flags().Int("max-nodes", 1025, "Largest grid size a request may ask for")

	mustBind := func(key string, name string) {
		if err := viper.BindPFlag(key, serveCmd.Flags().Lookup(name)); err != nil {
			panic(fmt.Sprintf("failed to bind flag: %v", err))
		}
	}

	mustBind("serve.addr", "addr")
	mustBind("serve.terrain_dir", "terrain-dir")
	mustBind("serve.generate_missing", "generate-missing")
	mustBind("serve.disable_cache", "disable-cache")
	mustBind("serve.max_concurrent_generations", "max-concurrent-generations")
	mustBind("serve.generation_timeout", "generation-timeout")
	mustBind("serve.cache_control", "cache-control")
	mustBind("serve.max_nodes", "max-nodes")
}

func runServe(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	addr := viper.GetString("serve.addr")
	terrainDir := viper.GetString("serve.terrain_dir")
	if terrainDir == "" {
		terrainDir = viper.GetString("output-dir")
	}
	generateMissing := viper.GetBool("serve.generate_missing")
	maxConc := viper.GetInt("serve.max_concurrent_generations")

	cfg, err := pipelineConfig(terrainDir)
	if err != nil {
		return err
	}
	gen, err := pipeline.NewGenerator(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to init generator: %w", err)
	}

	od, err := server.NewOnDemandTerrain(gen, server.OnDemandTerrainConfig{
		TerrainDir:               terrainDir,
		CacheControl:             viper.GetString("serve.cache_control"),
		MaxNodes:                 viper.GetInt("serve.max_nodes"),
		MaxConcurrentGenerations: maxConc,
		GenerationTimeout:        viper.GetDuration("serve.generation_timeout"),
		GenerateMissing:          generateMissing,
		DisableCache:             viper.GetBool("serve.disable_cache"),
	}, logger)
	if err != nil {
		return err
	}

	srv := &http.Server{Addr: addr, Handler: newServeMux(od), ReadHeaderTimeout: 5 * time.Second}

	logger.Info("terrain server listening",
		"addr", addr,
		"terrain_dir", terrainDir,
		"generate_missing", generateMissing,
		"max_concurrent_generations", maxConc,
	)
	return srv.ListenAndServe()
}

func newServeMux(od *server.OnDemandTerrain) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		http.Redirect(w, r, "/status", http.StatusFound)
	})
	mux.Handle("/status", od.StatusHandler())
	mux.Handle("/status/stream", od.StatusStreamHandler())
	mux.Handle("/terrain/", od.Handler())
	return mux
}

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/MeKo-Tech/topomap/internal/heightfield"
	"github.com/MeKo-Tech/topomap/internal/pipeline"
	"github.com/MeKo-Tech/topomap/internal/worker"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate terrains",
	Long: `Generate one terrain per seed. Each terrain is written as <key>.json (mesh),
<key>.geojson (contours) and <key>.png (preview), where key is s{seed}_n{nodes}.`,
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().StringP("seeds", "s", "1337", "Seeds to generate: comma-separated values and ranges (e.g. \"1,5..8\")")
	generateCmd.Flags().IntP("workers", "w", 0, "Number of terrains built in parallel (default: number of CPUs)")
	generateCmd.Flags().Bool("progress", true, "Show progress bar when generating several terrains")
	generateCmd.Flags().Bool("allow-failures", false, "Exit successfully even if some terrains fail")
	generateCmd.Flags().Bool("force", false, "Force regeneration even if the terrain exists")

	bindFlags := []struct {
		key  string
		flag string
	}{
		{"generate.seeds", "seeds"},
		{"generate.workers", "workers"},
		{"generate.progress", "progress"},
		{"generate.allow_failures", "allow-failures"},
		{"generate.force", "force"},
	}

	for _, bf := range bindFlags {
		if err := viper.BindPFlag(bf.key, generateCmd.Flags().Lookup(bf.flag)); err != nil {
			panic(fmt.Sprintf("failed to bind flag %s: %v", bf.flag, err))
		}
	}
}

func runGenerate(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	seeds, err := parseSeeds(viper.GetString("generate.seeds"))
	if err != nil {
		return fmt.Errorf("invalid seeds: %w", err)
	}
	workers := viper.GetInt("generate.workers")
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	showProgress := viper.GetBool("generate.progress") && len(seeds) > 1
	force := viper.GetBool("generate.force")
	allowFailures := viper.GetBool("generate.allow_failures")
	outputDir := viper.GetString("output-dir")

	cfg, err := pipelineConfig(outputDir)
	if err != nil {
		return err
	}
	gen, err := pipeline.NewGenerator(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to init generator: %w", err)
	}

	logger.Info("Starting terrain generation",
		"seeds", len(seeds),
		"nodes", cfg.Terrain.Nodes,
		"method", string(cfg.Method),
		"levels", len(gen.Levels()),
		"workers", workers,
		"output_dir", outputDir,
		"force", force,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			logger.Info("Received interrupt signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
	}()

	tasks := make([]worker.Task, 0, len(seeds))
	for _, seed := range seeds {
		tasks = append(tasks, worker.Task{
			Key:   heightfield.Key{Seed: seed, Nodes: cfg.Terrain.Nodes},
			Force: force,
		})
	}

	progress := worker.NewProgress(len(tasks), showProgress)
	pool := worker.New(worker.Config{
		Workers:    workers,
		Generator:  gen,
		OnProgress: progress.Callback(),
	})

	results := pool.Run(ctx, tasks)
	progress.Done()

	var failedCount int
	for _, r := range results {
		if r.Err != nil {
			failedCount++
			logger.Error("Terrain generation failed", "key", r.Task.Key.String(), "error", r.Err)
			continue
		}
		logger.Debug("Terrain ready", "key", r.Task.Key.String(), "path", r.Path, "ms", r.Elapsed.Milliseconds())
	}

	logger.Info(progress.Summary())

	if failedCount > 0 {
		if allowFailures {
			logger.Warn("Some terrains failed to generate, but continuing due to --allow-failures flag", "failed_count", failedCount)
			return nil
		}
		return fmt.Errorf("%d terrains failed to generate", failedCount)
	}
	if len(results) < len(tasks) {
		return fmt.Errorf("generation cancelled after %d of %d terrains", len(results), len(tasks))
	}
	return nil
}

package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "topomap",
	Short: "A procedural topography generator",
	Long: `Topomap synthesizes fractal terrain with the diamond-square algorithm,
traces its elevation contours, and exports meshes, GeoJSON contours and
shaded previews for WebGL viewers.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	flags.String("output-dir", "./terrain", "Output directory for generated terrains")
	flags.Bool("verbose", false, "Enable verbose logging")

	// Terrain
	flags.Int("nodes", 129, "Grid nodes per side (2^k+1)")
	flags.Float64("size", 7, "World extent of the terrain along X and Y")
	flags.Float64("variation", 2, "Height perturbation amplitude")
	flags.String("method", "diamond-square", "Terrain source: diamond-square, perlin or simplex")

	// Contours
	flags.Float64("increment", 0.1, "Spacing between contour levels")
	flags.String("levels", "", "Explicit comma-separated contour levels (overrides --increment)")
	flags.Float64("epsilon", 1e-12, "Tolerance for treating two crossings as the same point")
	flags.Int("max-moves", 1000, "Cell steps after which a contour is cut off")
	flags.Int("contour-workers", 1, "Goroutines tracing levels of one terrain")

	// Preview
	flags.Int("render-size", 512, "Preview width in pixels")
	flags.Float64("render-blur", 0.8, "Gaussian sigma applied to the preview tint (0 disables)")

	bindFlags := []struct {
		key  string
		flag string
	}{
		{"output-dir", "output-dir"},
		{"verbose", "verbose"},
		{"terrain.nodes", "nodes"},
		{"terrain.size", "size"},
		{"terrain.variation", "variation"},
		{"terrain.method", "method"},
		{"contours.increment", "increment"},
		{"contours.levels", "levels"},
		{"contours.epsilon", "epsilon"},
		{"contours.max_moves", "max-moves"},
		{"contours.workers", "contour-workers"},
		{"render.size", "render-size"},
		{"render.blur", "render-blur"},
	}

	for _, bf := range bindFlags {
		if err := viper.BindPFlag(bf.key, flags.Lookup(bf.flag)); err != nil {
			panic(fmt.Sprintf("failed to bind flag %s: %v", bf.flag, err))
		}
	}
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix("TOPOMAP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		if viper.GetBool("verbose") {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	}
}

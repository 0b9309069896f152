// Command mapfctl samples MovingAI instances, validates path tensors, runs
// random rollouts and renders or streams the results.
//
// Usage: go run ./cmd/mapfctl <command> [flags]
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pthm-cable/gridmapf/config"
	"github.com/pthm-cable/gridmapf/motion"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	mapName    string
	mapsDir    string
	mapPath    string
	scenDir    string
	scenPath   string
	k          int
	offset     int
	motion     string
	outputDir  string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	gf := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:          "mapfctl",
		Short:        "Multi-agent path finding environment and path validator for MovingAI grids.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setup(cmd, gf)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&gf.configPath, "config", "", "Path to config.yaml (empty = use defaults)")
	pf.StringVar(&gf.mapName, "map", "", "Map basename without extension, e.g. den312d")
	pf.StringVar(&gf.mapsDir, "maps-dir", "", "Directory with .map files")
	pf.StringVar(&gf.mapPath, "map-path", "", "Explicit .map path (overrides --map and --maps-dir)")
	pf.StringVar(&gf.scenDir, "scen-dir", "", "Directory with .scen files")
	pf.StringVar(&gf.scenPath, "scen-path", "", "Explicit .scen path")
	pf.IntVar(&gf.k, "k", 0, "Number of scenario rows (agents) to use")
	pf.IntVar(&gf.offset, "offset", 0, "First scenario row")
	pf.StringVar(&gf.motion, "motion", "", "Grid connectivity: 4 or 8")
	pf.StringVar(&gf.outputDir, "output-dir", "", "Directory for CSV logs and config snapshot")

	rootCmd.AddCommand(
		newSampleCmd(gf),
		newValidateCmd(gf),
		newRolloutCmd(gf),
		newPlaybackCmd(gf),
		newPreviewCmd(gf),
		newServeCmd(gf),
	)
	return rootCmd
}

// setup loads .env and config, applies flag overrides and installs the
// default logger.
func setup(cmd *cobra.Command, gf *globalFlags) error {
	envFile := config.LoadDotEnv()

	if err := config.Init(gf.configPath); err != nil {
		return err
	}
	cfg := config.Cfg()

	flags := cmd.Flags()
	if flags.Changed("map") {
		cfg.Data.Map = gf.mapName
	}
	if flags.Changed("maps-dir") {
		cfg.Data.MapsDir = gf.mapsDir
	}
	if flags.Changed("map-path") {
		cfg.Data.MapPath = gf.mapPath
	}
	if flags.Changed("scen-dir") {
		cfg.Data.ScenDir = gf.scenDir
	}
	if flags.Changed("scen-path") {
		cfg.Data.ScenPath = gf.scenPath
	}
	if flags.Changed("k") {
		cfg.Data.K = gf.k
	}
	if flags.Changed("offset") {
		cfg.Data.Offset = gf.offset
	}
	if flags.Changed("motion") {
		conn, err := motion.ParseConnectivity(gf.motion)
		if err != nil {
			return err
		}
		cfg.Motion.Connectivity = int(conn)
	}
	if flags.Changed("output-dir") {
		cfg.Telemetry.OutputDir = gf.outputDir
	}
	if err := cfg.Refresh(); err != nil {
		return err
	}

	slog.SetDefault(newLogger(os.Stderr, cfg.Logging.Format, cfg.Derived.LogLevel))
	if envFile != "" {
		slog.Debug("loaded env file", "path", envFile)
	}
	return nil
}

// newLogger builds the handler selected by logging.format.
func newLogger(w io.Writer, format string, level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// signalContext is cancelled on interrupt.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func printf(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.OutOrStdout(), format, args...)
}

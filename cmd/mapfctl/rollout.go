package main

import (
	"context"
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/pthm-cable/gridmapf/config"
	"github.com/pthm-cable/gridmapf/env"
	"github.com/pthm-cable/gridmapf/grid"
	"github.com/pthm-cable/gridmapf/renderer"
	"github.com/pthm-cable/gridmapf/rollout"
	"github.com/pthm-cable/gridmapf/telemetry"
	"github.com/pthm-cable/gridmapf/trajectory"
)

func newRolloutCmd(_ *globalFlags) *cobra.Command {
	var (
		steps     int
		policy    string
		seed      int64
		headless  bool
		logEvery  int
		savePaths string
	)

	cmd := &cobra.Command{
		Use:   "rollout",
		Short: "Run random or independently planned joint actions on a sampled instance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Cfg()
			flags := cmd.Flags()
			if flags.Changed("steps") {
				cfg.Rollout.Steps = steps
			}
			if flags.Changed("policy") {
				cfg.Rollout.Policy = policy
			}
			if flags.Changed("seed") {
				cfg.Rollout.Seed = seed
			}
			if flags.Changed("headless") {
				cfg.Rollout.Headless = headless
			}
			if flags.Changed("log-every") {
				cfg.Rollout.LogEvery = logEvery
			}
			if err := cfg.Refresh(); err != nil {
				return err
			}

			g, e, err := buildEnv(cfg)
			if err != nil {
				return err
			}

			out, err := telemetry.NewOutputManager(cfg.Telemetry.OutputDir)
			if err != nil {
				return err
			}
			defer out.Close()
			if err := out.WriteConfig(cfg); err != nil {
				return err
			}

			pol, err := newPolicy(cfg, e)
			if err != nil {
				return err
			}
			runner := rollout.NewRunner(e, pol, rollout.Options{
				Output:   out,
				Logger:   slog.Default(),
				LogEvery: cfg.Rollout.LogEvery,
			})
			slog.Info("starting rollout",
				"agents", e.NumAgents(),
				"steps", cfg.Rollout.Steps,
				"policy", cfg.Rollout.Policy,
				"seed", cfg.Rollout.Seed,
				"connectivity", cfg.Derived.Connectivity,
				"headless", cfg.Rollout.Headless,
			)

			if cfg.Rollout.Headless {
				ctx, cancel := signalContext()
				defer cancel()
				if _, err := runner.Run(ctx, cfg.Rollout.Steps); err != nil && !errors.Is(err, context.Canceled) {
					return err
				}
			} else {
				v := renderer.New(runner, g, viewerOptions(cfg, "rollout", -1, runner.Perf))
				if err := v.Run(); err != nil {
					return err
				}
				slog.Info("viewer closed", "summary", runner.Summary())
			}

			if savePaths != "" {
				paths, err := runner.Paths()
				if err != nil {
					return err
				}
				if err := trajectory.SaveNPY(savePaths, paths); err != nil {
					return err
				}
				slog.Info("saved paths", "path", savePaths, "shape", paths.Shape())
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.IntVar(&steps, "steps", 0, "Number of ticks to run")
	f.StringVar(&policy, "policy", "", "Action policy: random or astar")
	f.Int64Var(&seed, "seed", 0, "RNG seed (0 = time-based)")
	f.BoolVar(&headless, "headless", false, "Run without the viewer window")
	f.IntVar(&logEvery, "log-every", 0, "Log diagnostics every N ticks")
	f.StringVar(&savePaths, "save-paths", "", "Write the recorded trajectory to this .npy file")
	return cmd
}

// buildEnv loads the map and scenario and returns a reset environment.
func buildEnv(cfg *config.Config) (*grid.Grid, *env.Env, error) {
	g, mp, err := loadGrid(cfg.Data)
	if err != nil {
		return nil, nil, err
	}
	inst, sp, err := loadInstance(g, cfg.Data)
	if err != nil {
		return nil, nil, err
	}
	slog.Debug("instance loaded", "map", mp, "scen", sp, "agents", inst.NumAgents())
	e, err := env.New(inst, cfg.Derived.Connectivity)
	if err != nil {
		return nil, nil, err
	}
	return g, e, nil
}

// viewerOptions maps the render section onto viewer options.
func viewerOptions(cfg *config.Config, source string, last int, perf func() telemetry.PerfStats) renderer.Options {
	return renderer.Options{
		Title:          "MAPF " + mapName(cfg.Data),
		SourceName:     source,
		Width:          cfg.Render.Width,
		Height:         cfg.Render.Height,
		TargetFPS:      cfg.Render.TargetFPS,
		StepsPerSecond: cfg.Render.StepsPerSecond,
		CellSize:       cfg.Render.CellSize,
		Highlight:      cfg.Playback.HighlightCollisions,
		Last:           last,
		Perf:           perf,
		Logger:         slog.Default(),
	}
}

// newPolicy builds the configured policy and warns about agents the
// planner could not route.
func newPolicy(cfg *config.Config, e *env.Env) (rollout.Policy, error) {
	pol, err := rollout.NewPolicy(cfg.Rollout.Policy, e.Instance(), cfg.Derived.Connectivity, cfg.Rollout.Seed)
	if err != nil {
		return nil, err
	}
	if pp, ok := pol.(*rollout.PathPolicy); ok {
		if u := pp.Unreachable(); len(u) > 0 {
			slog.Warn("no path to goal; agents will wait", "agents", u)
		}
	}
	return pol, nil
}

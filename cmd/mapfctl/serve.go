package main

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/pthm-cable/gridmapf/config"
	"github.com/pthm-cable/gridmapf/rollout"
	"github.com/pthm-cable/gridmapf/stream"
)

func newServeCmd(_ *globalFlags) *cobra.Command {
	var (
		addr     string
		interval time.Duration
		steps    int
		seed     int64
		policy   string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a rollout and stream snapshots over WebSocket",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Cfg()
			flags := cmd.Flags()
			if flags.Changed("addr") {
				cfg.Stream.Addr = addr
			}
			if flags.Changed("interval") {
				cfg.Stream.Interval = interval
			}
			if flags.Changed("seed") {
				cfg.Rollout.Seed = seed
			}
			if flags.Changed("policy") {
				cfg.Rollout.Policy = policy
			}
			if err := cfg.Refresh(); err != nil {
				return err
			}

			g, e, err := buildEnv(cfg)
			if err != nil {
				return err
			}
			pol, err := newPolicy(cfg, e)
			if err != nil {
				return err
			}
			runner := rollout.NewRunner(e, pol, rollout.Options{
				Logger:   slog.Default(),
				LogEvery: cfg.Rollout.LogEvery,
			})
			srv := stream.NewServer(g, slog.Default())

			ctx, cancel := signalContext()
			defer cancel()

			errc := make(chan error, 1)
			go func() { errc <- srv.ListenAndServe(ctx, cfg.Stream.Addr) }()

			err = srv.Pump(ctx, runner, cfg.Stream.Interval, steps)
			if err != nil && !errors.Is(err, context.Canceled) {
				cancel()
				<-errc
				return err
			}
			if err == nil {
				slog.Info("rollout finished; serving last frame until interrupted", "summary", runner.Summary())
			}
			return <-errc
		},
	}

	f := cmd.Flags()
	f.StringVar(&addr, "addr", "", "Listen address (empty = config)")
	f.DurationVar(&interval, "interval", 0, "Time between ticks (0 = config)")
	f.IntVar(&steps, "steps", 0, "Stop ticking after N steps (0 = run until interrupted)")
	f.Int64Var(&seed, "seed", 0, "RNG seed (0 = time-based)")
	f.StringVar(&policy, "policy", "", "Action policy: random or astar")
	return cmd
}

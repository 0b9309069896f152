package main

import (
	"github.com/spf13/cobra"

	"github.com/pthm-cable/gridmapf/config"
	"github.com/pthm-cable/gridmapf/grid"
)

// sampleShown caps the agents printed by sample.
const sampleShown = 10

func newSampleCmd(_ *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "sample",
		Short: "Sample a MAPF instance (starts/goals) from a MovingAI scenario",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Cfg()
			g, mp, err := loadGrid(cfg.Data)
			if err != nil {
				return err
			}
			inst, sp, err := loadInstance(g, cfg.Data)
			if err != nil {
				return err
			}

			starts, goals := inst.Starts(), inst.Goals()
			printf(cmd, "Map path : %s\n", mp)
			printf(cmd, "Scen path: %s\n", sp)
			printf(cmd, "num_agents       : %d\n", inst.NumAgents())
			printf(cmd, "grid shape       : H=%d, W=%d\n", g.Height(), g.Width())
			printf(cmd, "offset, k        : %d, %d\n", inst.Source().Offset, inst.Source().K)
			printf(cmd, "starts all free  : %v\n", allPassable(g, starts))
			printf(cmd, "goals all free   : %v\n", allPassable(g, goals))

			n := min(len(starts), sampleShown)
			printf(cmd, "\nFirst %d agents (row, col):\n", n)
			for i := 0; i < n; i++ {
				printf(cmd, "  %3d: start=%v goal=%v\n", i, starts[i], goals[i])
			}
			return nil
		},
	}
}

func allPassable(g *grid.Grid, ps []grid.Pos) bool {
	for _, p := range ps {
		if !g.Passable(p) {
			return false
		}
	}
	return true
}

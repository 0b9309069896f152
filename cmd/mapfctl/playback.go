package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/pthm-cable/gridmapf/animate"
	"github.com/pthm-cable/gridmapf/config"
	"github.com/pthm-cable/gridmapf/grid"
	"github.com/pthm-cable/gridmapf/renderer"
	"github.com/pthm-cable/gridmapf/scene"
	"github.com/pthm-cable/gridmapf/trajectory"
)

func newPlaybackCmd(_ *globalFlags) *cobra.Command {
	var (
		out         string
		fps         int
		stride      int
		cellSize    int
		noHighlight bool
		view        bool
	)

	cmd := &cobra.Command{
		Use:   "playback <paths.npy>",
		Short: "Render a path tensor as an animated GIF or replay it in the viewer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Cfg()
			flags := cmd.Flags()
			if flags.Changed("fps") {
				cfg.Playback.FPS = fps
			}
			if flags.Changed("stride") {
				cfg.Playback.Stride = stride
			}
			if flags.Changed("cell-size") {
				cfg.Playback.CellSize = cellSize
			}
			if noHighlight {
				cfg.Playback.HighlightCollisions = false
			}
			if err := cfg.Refresh(); err != nil {
				return err
			}

			g, _, err := loadGrid(cfg.Data)
			if err != nil {
				return err
			}
			pathsFile, err := checkPathsFile(args[0])
			if err != nil {
				return err
			}
			paths, err := trajectory.LoadNPY(pathsFile)
			if err != nil {
				return err
			}
			steps, agents, err := paths.Dims()
			if err != nil {
				return err
			}

			var starts, goals []grid.Pos
			if flags.Changed("k") {
				inst, _, err := loadInstance(g, cfg.Data)
				if err != nil {
					return err
				}
				if inst.NumAgents() == agents {
					starts, goals = inst.Starts(), inst.Goals()
				} else {
					slog.Warn("agent count differs from instance; not drawing goals",
						"paths_n", agents, "instance_n", inst.NumAgents())
				}
			}

			if view {
				frames, err := paths.Frames()
				if err != nil {
					return err
				}
				replay := scene.NewReplay(g, frames, goals)
				return renderer.New(replay, g, viewerOptions(cfg, "replay", steps-1, nil)).Run()
			}

			anim, err := animate.Playback(g, paths, animate.PlaybackOptions{
				FPS:       cfg.Playback.FPS,
				Stride:    cfg.Playback.Stride,
				CellSize:  cfg.Playback.CellSize,
				Highlight: cfg.Playback.HighlightCollisions,
				Goals:     goals,
				Starts:    starts,
			})
			if err != nil {
				return err
			}
			if err := animate.SaveGIF(out, anim); err != nil {
				return err
			}
			slog.Info("saved playback", "path", out, "frames", len(anim.Image), "steps", steps, "agents", agents)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&out, "out", "playback.gif", "Output GIF path")
	f.IntVar(&fps, "fps", 0, "Frames per second (0 = config)")
	f.IntVar(&stride, "stride", 0, "Render every Nth timestep (0 = config)")
	f.IntVar(&cellSize, "cell-size", 0, "Pixels per cell (0 = config)")
	f.BoolVar(&noHighlight, "no-highlight", false, "Do not color colliding agents")
	f.BoolVar(&view, "view", false, "Open the interactive viewer instead of writing a GIF")
	return cmd
}

package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/pthm-cable/gridmapf/animate"
	"github.com/pthm-cable/gridmapf/config"
	"github.com/pthm-cable/gridmapf/renderer"
	"github.com/pthm-cable/gridmapf/scene"
)

func newPreviewCmd(_ *globalFlags) *cobra.Command {
	var (
		out      string
		cellSize int
	)

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Render the map to PNG, or open it in the viewer when --out is empty",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Cfg()
			g, mp, err := loadGrid(cfg.Data)
			if err != nil {
				return err
			}
			slog.Info("loaded map", "path", mp, "height", g.Height(), "width", g.Width(), "free", g.FreeCount())

			if out == "" {
				empty := scene.NewReplay(g, nil, nil)
				return renderer.New(empty, g, viewerOptions(cfg, "map", -1, nil)).Run()
			}

			if cellSize <= 0 {
				cellSize = cfg.Playback.CellSize
			}
			canvas := animate.NewCanvas(g, animate.Style{CellSize: cellSize})
			if err := animate.SavePNG(out, canvas.Map()); err != nil {
				return err
			}
			slog.Info("saved preview", "path", out)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&out, "out", "", "Output PNG path (empty = open the viewer)")
	f.IntVar(&cellSize, "cell-size", 0, "Pixels per cell (0 = config)")
	return cmd
}

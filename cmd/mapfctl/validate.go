package main

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pthm-cable/gridmapf/config"
	"github.com/pthm-cable/gridmapf/grid"
	"github.com/pthm-cable/gridmapf/storage"
	"github.com/pthm-cable/gridmapf/telemetry"
	"github.com/pthm-cable/gridmapf/trajectory"
	"github.com/pthm-cable/gridmapf/validate"
)

func newValidateCmd(_ *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <paths.npy>",
		Short: "Validate a (T, N, 2) path tensor against a MovingAI map",
		Long: "Validate checks bounds, obstacles, move legality and vertex/edge collisions.\n" +
			"Pass --k to also check that every agent ends on its scenario goal.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Cfg()
			ctx := cmd.Context()

			g, mp, err := loadGrid(cfg.Data)
			if err != nil {
				return err
			}
			printf(cmd, "Map path   : %s\n", mp)
			printf(cmd, "Grid shape : H=%d, W=%d\n", g.Height(), g.Width())

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
			printf(cmd, "Paths shape: T=%d, N=%d, 2\n", steps, agents)

			var goals []grid.Pos
			if cmd.Flags().Changed("k") {
				inst, sp, err := loadInstance(g, cfg.Data)
				if err != nil {
					return err
				}
				printf(cmd, "Scenario   : %s\n", sp)
				goals = inst.Goals()
				if inst.NumAgents() != agents {
					slog.Warn("agent count differs from instance",
						"paths_n", agents, "instance_n", inst.NumAgents())
				}
			}

			report, err := validate.Validate(g, paths, validate.Options{
				Connectivity: cfg.Derived.Connectivity,
				Goals:        goals,
				Workers:      cfg.Validate.Workers,
			})
			if err != nil {
				return err
			}
			printReport(cmd, report)
			slog.Info("validation finished", "report", report)

			run := storage.NewRun(report)
			run.PathsFile = pathsFile
			run.Map = mapName(cfg.Data)
			run.Steps, run.Agents = steps, agents
			run.Connectivity = int(cfg.Derived.Connectivity)
			return persist(ctx, cfg, run)
		},
	}
}

// persist stores run in the configured backend and appends it to
// reports.csv when an output directory is set.
func persist(ctx context.Context, cfg *config.Config, run storage.Run) error {
	if ctx == nil {
		ctx = context.Background()
	}
	store, err := storage.NewStore(cfg.Storage.Backend, cfg.Storage.SQLitePath)
	if err != nil {
		return err
	}
	defer storage.CloseIfSupported(store)
	if err := store.Init(ctx); err != nil {
		return err
	}
	if err := store.SaveRun(ctx, run); err != nil {
		return err
	}
	slog.Info("run saved", "id", run.ID, "backend", cfg.Storage.Backend)

	out, err := telemetry.NewOutputManager(cfg.Telemetry.OutputDir)
	if err != nil {
		return err
	}
	defer out.Close()
	rec := telemetry.NewReportRecord(run.Report)
	rec.RunID = run.ID
	rec.CreatedAt = run.CreatedAt.Format(time.RFC3339)
	rec.PathsFile = run.PathsFile
	rec.Map = run.Map
	rec.Steps, rec.Agents = run.Steps, run.Agents
	rec.Connectivity = run.Connectivity
	return out.WriteReport(rec)
}

func mapName(d config.DataConfig) string {
	if d.MapPath != "" {
		return strings.TrimSuffix(filepath.Base(d.MapPath), filepath.Ext(d.MapPath))
	}
	return d.Map
}

func printReport(cmd *cobra.Command, r validate.Report) {
	printf(cmd, "\n=== Validation Report ===\n")
	printf(cmd, "OK (no errors + success if goals): %v\n", r.OK)
	printf(cmd, "  Out-of-bounds positions : %d\n", r.OutOfBounds)
	printf(cmd, "  On-obstacle positions   : %d\n", r.OnObstacle)
	printf(cmd, "  Illegal moves           : %d\n", r.IllegalMoves)
	printf(cmd, "  Vertex collisions       : %d\n", r.VertexCollisions)
	printf(cmd, "  Edge collisions (swaps) : %d\n", r.EdgeCollisions)
	if r.Success == validate.GoalsUnchecked {
		printf(cmd, "  Success (end at goals)  : [not checked, no goals given]\n")
	} else {
		printf(cmd, "  Success (end at goals)  : %v\n", r.Success)
	}

	fe := r.FirstError
	if fe == nil {
		printf(cmd, "\nNo errors detected in paths.\n")
		return
	}
	printf(cmd, "\nFirst error:\n")
	printf(cmd, "  time   : %d\n", fe.Time)
	printf(cmd, "  type   : %s\n", fe.Kind)
	printf(cmd, "  agents : %v\n", fe.Agents)
	if extra := contextString(fe.Context); extra != "" {
		printf(cmd, "  extra  : %s\n", extra)
	}
}

func contextString(c validate.Context) string {
	var parts []string
	if len(c.Positions) > 0 {
		parts = append(parts, "positions="+join(c.Positions))
	}
	if c.Delta != nil {
		parts = append(parts, "delta="+c.Delta.String())
	}
	if c.Cell != nil {
		parts = append(parts, "cell="+c.Cell.String())
	}
	if c.MoveI != nil && c.MoveJ != nil {
		parts = append(parts, "from_to_i="+c.MoveI.From.String()+"->"+c.MoveI.To.String(),
			"from_to_j="+c.MoveJ.From.String()+"->"+c.MoveJ.To.String())
	}
	return strings.Join(parts, " ")
}

func join(ps []grid.Pos) string {
	s := make([]string, len(ps))
	for i, p := range ps {
		s[i] = p.String()
	}
	return "[" + strings.Join(s, " ") + "]"
}

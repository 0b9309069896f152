// Package rollout drives an environment with a policy, recording the
// trajectory and per-tick telemetry.
package rollout

import (
	"context"
	"log/slog"

	"github.com/pthm-cable/gridmapf/env"
	"github.com/pthm-cable/gridmapf/scene"
	"github.com/pthm-cable/gridmapf/telemetry"
	"github.com/pthm-cable/gridmapf/trajectory"
)

// perfWindow is the tick window for perf.csv samples.
const perfWindow = 100

// Options configures a Runner. All fields are optional.
type Options struct {
	Output   *telemetry.OutputManager
	Logger   *slog.Logger
	LogEvery int // log diagnostics every N ticks; 0 disables
}

// Runner owns one rollout. It is not safe for concurrent use.
type Runner struct {
	env    *env.Env
	policy Policy
	opts   Options

	rec  trajectory.Recorder
	col  *telemetry.Collector
	perf *telemetry.PerfCollector

	state env.State
	last  *env.Diagnostics
}

// NewRunner resets e and records the initial state.
func NewRunner(e *env.Env, p Policy, opts Options) *Runner {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	r := &Runner{
		env:    e,
		policy: p,
		opts:   opts,
		col:    telemetry.NewCollector(e.NumAgents()),
		perf:   telemetry.NewPerfCollector(perfWindow),
	}
	r.Rewind()
	return r
}

// Rewind resets the environment and discards everything recorded.
func (r *Runner) Rewind() {
	r.state = r.env.Reset()
	r.last = nil
	r.rec.Reset()
	r.rec.Record(r.state)
	r.col.Reset()
}

// Tick advances one step.
func (r *Runner) Tick() (telemetry.StepRecord, error) {
	r.perf.StartTick()

	r.perf.StartPhase(telemetry.PhasePolicy)
	actions := r.policy.Actions(r.state)

	r.perf.StartPhase(telemetry.PhaseStep)
	st, diag, err := r.env.Step(actions)
	if err != nil {
		r.perf.EndTick()
		return telemetry.StepRecord{}, err
	}
	r.state, r.last = st, &diag

	r.perf.StartPhase(telemetry.PhaseRecord)
	r.rec.Record(st)
	rec := r.col.Record(st, diag)

	r.perf.StartPhase(telemetry.PhaseTelemetry)
	if r.opts.LogEvery > 0 && st.T%r.opts.LogEvery == 0 {
		r.opts.Logger.Info("tick", "diag", diag)
	}
	if err := r.opts.Output.WriteStep(rec); err != nil {
		r.perf.EndTick()
		return rec, err
	}
	r.perf.EndTick()

	if st.T%perfWindow == 0 {
		if err := r.opts.Output.WritePerf(r.perf.Stats(), st.T); err != nil {
			return rec, err
		}
	}
	return rec, nil
}

// Run ticks steps times, stopping early if ctx is cancelled, and logs the
// summary.
func (r *Runner) Run(ctx context.Context, steps int) (telemetry.RolloutSummary, error) {
	for i := 0; i < steps; i++ {
		if err := ctx.Err(); err != nil {
			return r.Summary(), err
		}
		if _, err := r.Tick(); err != nil {
			return r.Summary(), err
		}
	}
	sum := r.Summary()
	r.opts.Logger.Info("rollout finished", "summary", sum, "perf", r.perf.Stats())
	return sum, nil
}

// Advance ticks once and mirrors the result into sc. A rollout never runs
// out, so done is always false.
func (r *Runner) Advance(sc *scene.Scene) (done bool, err error) {
	if _, err := r.Tick(); err != nil {
		return false, err
	}
	sc.Sync(r.state, r.last)
	return false, nil
}

// Restart rewinds and mirrors the initial state into sc.
func (r *Runner) Restart(sc *scene.Scene) {
	r.Rewind()
	sc.Sync(r.state, nil)
}

// State returns the latest snapshot.
func (r *Runner) State() env.State { return r.state }

// LastDiagnostics returns the diagnostics of the latest step, or nil
// before the first.
func (r *Runner) LastDiagnostics() *env.Diagnostics { return r.last }

// Paths returns the trajectory recorded since the last rewind.
func (r *Runner) Paths() (*trajectory.Tensor, error) { return r.rec.Tensor() }

// Summary aggregates the ticks since the last rewind.
func (r *Runner) Summary() telemetry.RolloutSummary { return r.col.Summary() }

// Perf returns tick timing over the recent window.
func (r *Runner) Perf() telemetry.PerfStats { return r.perf.Stats() }

package telemetry

import (
	"log/slog"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// StepRecord is one rollout tick, written to steps.csv.
type StepRecord struct {
	Tick             int `csv:"tick"`
	InvalidMoves     int `csv:"invalid_moves"`
	UnknownActions   int `csv:"unknown_actions"`
	VertexCollisions int `csv:"vertex_collisions"`
	EdgeCollisions   int `csv:"edge_collisions"`
	AtGoal           int `csv:"at_goal"`
}

// Conflicts returns vertex plus edge records for the tick.
func (r StepRecord) Conflicts() int {
	return r.VertexCollisions + r.EdgeCollisions
}

// LogValue implements slog.LogValuer for structured logging.
func (r StepRecord) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("tick", r.Tick),
		slog.Int("invalid", r.InvalidMoves),
		slog.Int("vertex", r.VertexCollisions),
		slog.Int("edge", r.EdgeCollisions),
		slog.Int("at_goal", r.AtGoal),
	)
}

// RolloutSummary aggregates a whole rollout.
type RolloutSummary struct {
	Ticks  int
	Agents int

	TotalInvalid int
	TotalUnknown int
	TotalVertex  int
	TotalEdge    int

	// Per-tick conflict distribution
	ConflictMean float64
	ConflictStd  float64
	ConflictP50  float64
	ConflictP90  float64
	ConflictMax  float64

	// Agents on their goal after the last tick
	FinalAtGoal int
}

// Summarize computes a RolloutSummary from per-tick records.
func Summarize(records []StepRecord, agents int) RolloutSummary {
	s := RolloutSummary{Ticks: len(records), Agents: agents}
	if len(records) == 0 {
		return s
	}

	conflicts := make([]float64, len(records))
	for i, r := range records {
		s.TotalInvalid += r.InvalidMoves
		s.TotalUnknown += r.UnknownActions
		s.TotalVertex += r.VertexCollisions
		s.TotalEdge += r.EdgeCollisions
		conflicts[i] = float64(r.Conflicts())
	}
	s.FinalAtGoal = records[len(records)-1].AtGoal

	s.ConflictMean, s.ConflictStd = MeanStd(conflicts)
	sort.Float64s(conflicts)
	s.ConflictP50 = Percentile(conflicts, 0.50)
	s.ConflictP90 = Percentile(conflicts, 0.90)
	s.ConflictMax = floats.Max(conflicts)
	return s
}

// MeanStd returns the mean and sample standard deviation of values.
// The deviation is 0 for fewer than two values.
func MeanStd(values []float64) (mean, std float64) {
	switch len(values) {
	case 0:
		return 0, 0
	case 1:
		return values[0], 0
	}
	mean, std = stat.MeanStdDev(values, nil)
	if math.IsNaN(std) {
		std = 0
	}
	return mean, std
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Linear interpolation
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// LogValue implements slog.LogValuer for structured logging.
func (s RolloutSummary) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("ticks", s.Ticks),
		slog.Int("agents", s.Agents),
		slog.Int("invalid", s.TotalInvalid),
		slog.Int("unknown", s.TotalUnknown),
		slog.Int("vertex", s.TotalVertex),
		slog.Int("edge", s.TotalEdge),
		slog.Float64("conflict_mean", s.ConflictMean),
		slog.Float64("conflict_std", s.ConflictStd),
		slog.Float64("conflict_p50", s.ConflictP50),
		slog.Float64("conflict_p90", s.ConflictP90),
		slog.Float64("conflict_max", s.ConflictMax),
		slog.Int("final_at_goal", s.FinalAtGoal),
	)
}

package telemetry

import "github.com/pthm-cable/gridmapf/env"

// Collector turns per-tick environment diagnostics into StepRecords and
// keeps them for the end-of-run summary.
type Collector struct {
	agents  int
	records []StepRecord
}

// NewCollector creates a collector for a rollout of the given agent count.
func NewCollector(agents int) *Collector {
	return &Collector{agents: agents}
}

// Record converts the result of one Step. s is the state after the step.
func (c *Collector) Record(s env.State, d env.Diagnostics) StepRecord {
	atGoal := 0
	for _, ok := range s.AtGoal() {
		if ok {
			atGoal++
		}
	}
	r := StepRecord{
		Tick:             d.T,
		InvalidMoves:     len(d.InvalidMoves),
		UnknownActions:   len(d.UnknownActions),
		VertexCollisions: len(d.VertexCollisions),
		EdgeCollisions:   len(d.EdgeCollisions),
		AtGoal:           atGoal,
	}
	c.records = append(c.records, r)
	return r
}

// Records returns the records collected so far.
func (c *Collector) Records() []StepRecord {
	return c.records
}

// Summary aggregates everything recorded.
func (c *Collector) Summary() RolloutSummary {
	return Summarize(c.records, c.agents)
}

// Reset discards collected records.
func (c *Collector) Reset() {
	c.records = c.records[:0]
}

package telemetry

import (
	"log/slog"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
)

// Phase is one timed section of a rollout tick.
type Phase int

const (
	PhasePolicy    Phase = iota // choosing the joint action
	PhaseStep                   // env.Step, including collision detection
	PhaseRecord                 // appending the snapshot to the trajectory
	PhaseTelemetry              // step record, CSV and logging
	numPhases
)

var phaseNames = [numPhases]string{"policy", "step", "record", "telemetry"}

func (p Phase) String() string {
	if p < 0 || p >= numPhases {
		return "unknown"
	}
	return phaseNames[p]
}

// Phases lists every phase in tick order.
func Phases() []Phase {
	return []Phase{PhasePolicy, PhaseStep, PhaseRecord, PhaseTelemetry}
}

type tickSample struct {
	total  time.Duration
	phases [numPhases]time.Duration
}

// PerfCollector times rollout ticks over a rolling window of the most
// recent samples. It is not safe for concurrent use.
type PerfCollector struct {
	window []tickSample
	next   int
	filled int

	cur        tickSample
	tickStart  time.Time
	phaseStart time.Time
	phase      Phase // -1 outside a phase

	now func() time.Time
}

// NewPerfCollector keeps the last windowSize ticks; values below 1 mean 60.
func NewPerfCollector(windowSize int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 60
	}
	return &PerfCollector{
		window: make([]tickSample, windowSize),
		phase:  -1,
		now:    time.Now,
	}
}

// StartTick begins timing a tick.
func (p *PerfCollector) StartTick() {
	p.tickStart = p.now()
	p.cur = tickSample{}
	p.phase = -1
}

// StartPhase closes the running phase, if any, and opens ph.
func (p *PerfCollector) StartPhase(ph Phase) {
	now := p.now()
	p.closePhase(now)
	p.phaseStart = now
	p.phase = ph
}

func (p *PerfCollector) closePhase(now time.Time) {
	if p.phase >= 0 && p.phase < numPhases {
		p.cur.phases[p.phase] += now.Sub(p.phaseStart)
	}
	p.phase = -1
}

// EndTick closes the running phase and stores the sample.
func (p *PerfCollector) EndTick() {
	now := p.now()
	p.closePhase(now)
	p.cur.total = now.Sub(p.tickStart)

	p.window[p.next] = p.cur
	p.next = (p.next + 1) % len(p.window)
	if p.filled < len(p.window) {
		p.filled++
	}
}

// PhaseStat is one phase's share of the average tick.
type PhaseStat struct {
	Avg time.Duration
	Pct float64 // of AvgTickDuration
}

// PerfStats aggregates the current window.
type PerfStats struct {
	Samples         int
	AvgTickDuration time.Duration
	MinTickDuration time.Duration
	MaxTickDuration time.Duration
	P95TickDuration time.Duration
	TicksPerSecond  float64
	Phases          [numPhases]PhaseStat
}

// Phase returns the stat for ph.
func (s PerfStats) Phase(ph Phase) PhaseStat {
	if ph < 0 || ph >= numPhases {
		return PhaseStat{}
	}
	return s.Phases[ph]
}

// Stats computes window aggregates. An empty window yields zero stats.
func (p *PerfCollector) Stats() PerfStats {
	n := p.filled
	if n == 0 {
		return PerfStats{}
	}

	totals := make([]float64, n)
	var sums [numPhases]time.Duration
	for i, s := range p.window[:n] {
		totals[i] = float64(s.total)
		for ph, d := range s.phases {
			sums[ph] += d
		}
	}
	sort.Float64s(totals)

	avg := time.Duration(stat.Mean(totals, nil))
	out := PerfStats{
		Samples:         n,
		AvgTickDuration: avg,
		MinTickDuration: time.Duration(totals[0]),
		MaxTickDuration: time.Duration(totals[n-1]),
		P95TickDuration: time.Duration(stat.Quantile(0.95, stat.Empirical, totals, nil)),
	}
	if avg > 0 {
		out.TicksPerSecond = float64(time.Second) / float64(avg)
	}
	for ph, sum := range sums {
		ps := PhaseStat{Avg: sum / time.Duration(n)}
		if avg > 0 {
			ps.Pct = float64(ps.Avg) / float64(avg) * 100
		}
		out.Phases[ph] = ps
	}
	return out
}

// LogValue implements slog.LogValuer for structured logging.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int("samples", s.Samples),
		slog.Int64("avg_tick_us", s.AvgTickDuration.Microseconds()),
		slog.Int64("p95_tick_us", s.P95TickDuration.Microseconds()),
		slog.Int64("max_tick_us", s.MaxTickDuration.Microseconds()),
		slog.Float64("ticks_per_sec", s.TicksPerSecond),
	}
	for _, ph := range Phases() {
		if pct := s.Phases[ph].Pct; pct > 0.1 {
			attrs = append(attrs, slog.Float64(ph.String()+"_pct", float64(int(pct*10))/10))
		}
	}
	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is one perf.csv row.
type PerfStatsCSV struct {
	Tick         int     `csv:"tick"`
	Samples      int     `csv:"samples"`
	AvgTickUS    int64   `csv:"avg_tick_us"`
	MinTickUS    int64   `csv:"min_tick_us"`
	MaxTickUS    int64   `csv:"max_tick_us"`
	P95TickUS    int64   `csv:"p95_tick_us"`
	TicksPerSec  float64 `csv:"ticks_per_sec"`
	PolicyPct    float64 `csv:"policy_pct"`
	StepPct      float64 `csv:"step_pct"`
	RecordPct    float64 `csv:"record_pct"`
	TelemetryPct float64 `csv:"telemetry_pct"`
}

// ToCSV flattens s for perf.csv.
func (s PerfStats) ToCSV(tick int) PerfStatsCSV {
	return PerfStatsCSV{
		Tick:         tick,
		Samples:      s.Samples,
		AvgTickUS:    s.AvgTickDuration.Microseconds(),
		MinTickUS:    s.MinTickDuration.Microseconds(),
		MaxTickUS:    s.MaxTickDuration.Microseconds(),
		P95TickUS:    s.P95TickDuration.Microseconds(),
		TicksPerSec:  s.TicksPerSecond,
		PolicyPct:    s.Phases[PhasePolicy].Pct,
		StepPct:      s.Phases[PhaseStep].Pct,
		RecordPct:    s.Phases[PhaseRecord].Pct,
		TelemetryPct: s.Phases[PhaseTelemetry].Pct,
	}
}

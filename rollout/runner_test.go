package rollout

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pthm-cable/gridmapf/env"
	"github.com/pthm-cable/gridmapf/grid"
	"github.com/pthm-cable/gridmapf/instance"
	"github.com/pthm-cable/gridmapf/motion"
	"github.com/pthm-cable/gridmapf/scene"
	"github.com/pthm-cable/gridmapf/telemetry"
	"github.com/pthm-cable/gridmapf/validate"
)

func corridor(t *testing.T) *env.Env {
	t.Helper()
	g, err := grid.FromRows([]string{"....", ".@.."})
	if err != nil {
		t.Fatal(err)
	}
	inst, err := instance.New(g,
		[]grid.Pos{{Row: 0, Col: 0}, {Row: 0, Col: 1}},
		[]grid.Pos{{Row: 0, Col: 1}, {Row: 0, Col: 0}},
	)
	if err != nil {
		t.Fatal(err)
	}
	e, err := env.New(inst, motion.Four)
	if err != nil {
		t.Fatal(err)
	}
	return e
}

func TestRandomPolicyRange(t *testing.T) {
	for _, conn := range []motion.Connectivity{motion.Four, motion.Eight} {
		p := NewRandomPolicy(7, conn)
		st := env.State{Positions: make([]grid.Pos, 50)}
		for i := 0; i < 20; i++ {
			for _, a := range p.Actions(st) {
				if int(a) < 0 || int(a) >= conn.NumActions() {
					t.Fatalf("%v: action %d out of range", conn, a)
				}
			}
		}
	}
}

func TestRandomPolicySeeded(t *testing.T) {
	st := env.State{Positions: make([]grid.Pos, 10)}
	a := NewRandomPolicy(42, motion.Eight).Actions(st)
	b := NewRandomPolicy(42, motion.Eight).Actions(st)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("same seed diverged at %d", i)
		}
	}
}

func TestRunnerSwapIsRecordedAndDetected(t *testing.T) {
	e := corridor(t)
	script := Scripted{{motion.Right, motion.Left}}
	r := NewRunner(e, script, Options{})

	rec, err := r.Tick()
	if err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if rec.EdgeCollisions != 1 || rec.AtGoal != 2 {
		t.Errorf("record = %+v", rec)
	}
	if d := r.LastDiagnostics(); d == nil || len(d.EdgeCollisions) != 1 {
		t.Fatalf("diagnostics = %+v", d)
	}

	paths, err := r.Paths()
	if err != nil {
		t.Fatalf("Paths: %v", err)
	}
	steps, agents, err := paths.Dims()
	if err != nil || steps != 2 || agents != 2 {
		t.Fatalf("dims = %d, %d, %v", steps, agents, err)
	}

	// The recorded trajectory validates to the same conflict.
	rep, err := validate.Validate(e.Instance().Grid(), paths, validate.Options{
		Connectivity: motion.Four,
		Goals:        e.Instance().Goals(),
	})
	if err != nil {
		t.Fatal(err)
	}
	if rep.EdgeCollisions != 1 || rep.Success != validate.GoalsReached || rep.OK {
		t.Errorf("report = %+v", rep)
	}
}

func TestRunnerRunWritesTelemetry(t *testing.T) {
	dir := t.TempDir()
	out, err := telemetry.NewOutputManager(dir)
	if err != nil {
		t.Fatal(err)
	}
	r := NewRunner(corridor(t), NewRandomPolicy(1, motion.Four), Options{Output: out})
	sum, err := r.Run(context.Background(), 12)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if err := out.Close(); err != nil {
		t.Fatal(err)
	}
	if sum.Ticks != 12 || sum.Agents != 2 {
		t.Errorf("summary = %+v", sum)
	}
	data, err := os.ReadFile(filepath.Join(dir, "steps.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if lines := strings.Split(strings.TrimSpace(string(data)), "\n"); len(lines) != 13 {
		t.Errorf("steps.csv has %d lines, want 13", len(lines))
	}
}

func TestRunnerRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := NewRunner(corridor(t), NewRandomPolicy(1, motion.Four), Options{})
	if _, err := r.Run(ctx, 5); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if r.State().T != 0 {
		t.Errorf("ticked after cancel: t=%d", r.State().T)
	}
}

func TestRunnerRewindAndScene(t *testing.T) {
	r := NewRunner(corridor(t), Scripted{{motion.Down, motion.Wait}}, Options{})
	sc := scene.New()

	if done, err := r.Advance(sc); done || err != nil {
		t.Fatalf("Advance = %v, %v", done, err)
	}
	if sc.Time() != 1 || sc.Len() != 2 {
		t.Fatalf("scene t=%d len=%d", sc.Time(), sc.Len())
	}
	if r.Summary().TotalInvalid != 0 {
		t.Errorf("summary = %+v", r.Summary())
	}

	r.Restart(sc)
	if sc.Time() != 0 || r.State().T != 0 || r.Summary().Ticks != 0 {
		t.Errorf("restart left t=%d ticks=%d", sc.Time(), r.Summary().Ticks)
	}
	paths, err := r.Paths()
	if err != nil {
		t.Fatal(err)
	}
	if steps, _, _ := paths.Dims(); steps != 1 {
		t.Errorf("recorded %d frames after restart, want 1", steps)
	}
}

func TestShortestPathPolicyReachesGoals(t *testing.T) {
	g, err := grid.FromRows([]string{"....", ".@.."})
	if err != nil {
		t.Fatal(err)
	}
	inst, err := instance.New(g,
		[]grid.Pos{{Row: 0, Col: 0}, {Row: 1, Col: 3}},
		[]grid.Pos{{Row: 0, Col: 3}, {Row: 1, Col: 2}},
	)
	if err != nil {
		t.Fatal(err)
	}
	e, err := env.New(inst, motion.Four)
	if err != nil {
		t.Fatal(err)
	}
	p := NewShortestPathPolicy(inst, motion.Four)
	if u := p.Unreachable(); len(u) != 0 {
		t.Fatalf("unreachable = %v", u)
	}

	r := NewRunner(e, p, Options{})
	if _, err := r.Run(context.Background(), 5); err != nil {
		t.Fatal(err)
	}
	paths, err := r.Paths()
	if err != nil {
		t.Fatal(err)
	}
	rep, err := validate.Validate(g, paths, validate.Options{Connectivity: motion.Four, Goals: inst.Goals()})
	if err != nil {
		t.Fatal(err)
	}
	if !rep.OK {
		t.Errorf("report = %+v", rep)
	}
}

func TestShortestPathPolicyIgnoresOtherAgents(t *testing.T) {
	e := corridor(t)
	r := NewRunner(e, NewShortestPathPolicy(e.Instance(), motion.Four), Options{})
	rec, err := r.Tick()
	if err != nil {
		t.Fatal(err)
	}
	if rec.EdgeCollisions != 1 {
		t.Errorf("record = %+v, want the planned swap", rec)
	}
}

func TestNewPolicy(t *testing.T) {
	inst := corridor(t).Instance()
	for _, name := range []string{"", PolicyRandom, PolicyAStar} {
		if _, err := NewPolicy(name, inst, motion.Four, 1); err != nil {
			t.Errorf("NewPolicy(%q): %v", name, err)
		}
	}
	if _, err := NewPolicy("greedy", inst, motion.Four, 1); !errors.Is(err, ErrUnknownPolicy) {
		t.Errorf("err = %v, want ErrUnknownPolicy", err)
	}
}

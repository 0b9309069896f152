package validate

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"github.com/pthm-cable/gridmapf/grid"
	"github.com/pthm-cable/gridmapf/motion"
	"github.com/pthm-cable/gridmapf/trajectory"
)

func mustGrid(t *testing.T, rows ...string) *grid.Grid {
	t.Helper()
	g, err := grid.FromRows(rows)
	if err != nil {
		t.Fatalf("FromRows: %v", err)
	}
	return g
}

func mustPaths(t *testing.T, frames ...[]grid.Pos) *trajectory.Tensor {
	t.Helper()
	p, err := trajectory.FromFrames(frames)
	if err != nil {
		t.Fatalf("FromFrames: %v", err)
	}
	return p
}

func p(r, c int) grid.Pos { return grid.Pos{Row: r, Col: c} }

func TestValidateCleanTrajectory(t *testing.T) {
	g := mustGrid(t, "...", "...")
	paths := mustPaths(t,
		[]grid.Pos{p(0, 0), p(1, 2)},
		[]grid.Pos{p(0, 1), p(1, 1)},
	)
	r, err := Validate(g, paths, Options{Connectivity: motion.Four})
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !r.OK || r.FirstError != nil {
		t.Errorf("expected ok report, got %+v", r)
	}
	if r.Success != GoalsUnchecked {
		t.Errorf("Success = %v, want unchecked", r.Success)
	}
}

func TestValidateSingleAgentStaticPathIsOK(t *testing.T) {
	g := mustGrid(t, "...")
	r, err := Validate(g, mustPaths(t, []grid.Pos{p(0, 1)}), Options{Connectivity: motion.Four})
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !r.OK {
		t.Errorf("T=1 trajectory should be ok: %+v", r)
	}
}

func TestValidateCountsAndFirstErrorKinds(t *testing.T) {
	g := mustGrid(t, "...", ".@.", "...")
	tests := []struct {
		name   string
		conn   motion.Connectivity
		frames [][]grid.Pos
		want   Report
		kind   Kind
		time   int
		agents []int
	}{
		{
			name:   "out of bounds",
			conn:   motion.Four,
			frames: [][]grid.Pos{{p(0, 0)}, {p(-1, 0)}},
			want:   Report{OutOfBounds: 1, IllegalMoves: 0},
			kind:   KindBounds,
			time:   1,
			agents: []int{0},
		},
		{
			name:   "obstacle",
			conn:   motion.Four,
			frames: [][]grid.Pos{{p(0, 1)}, {p(1, 1)}},
			want:   Report{OnObstacle: 1},
			kind:   KindObstacle,
			time:   1,
			agents: []int{0},
		},
		{
			name:   "teleport",
			conn:   motion.Four,
			frames: [][]grid.Pos{{p(0, 0)}, {p(0, 2)}},
			want:   Report{IllegalMoves: 1},
			kind:   KindIllegalMove,
			time:   1,
			agents: []int{0},
		},
		{
			name:   "diagonal under four",
			conn:   motion.Four,
			frames: [][]grid.Pos{{p(0, 0)}, {p(1, 0)}, {p(2, 1)}},
			want:   Report{IllegalMoves: 1},
			kind:   KindIllegalMove,
			time:   2,
			agents: []int{0},
		},
		{
			name:   "vertex",
			conn:   motion.Four,
			frames: [][]grid.Pos{{p(0, 0), p(0, 2)}, {p(0, 1), p(0, 1)}},
			want:   Report{VertexCollisions: 1},
			kind:   KindVertexCollision,
			time:   1,
			agents: []int{0, 1},
		},
		{
			name:   "swap",
			conn:   motion.Four,
			frames: [][]grid.Pos{{p(0, 0), p(0, 1)}, {p(0, 1), p(0, 0)}},
			want:   Report{EdgeCollisions: 1},
			kind:   KindEdgeCollision,
			time:   1,
			agents: []int{0, 1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := Validate(g, mustPaths(t, tt.frames...), Options{Connectivity: tt.conn})
			if err != nil {
				t.Fatalf("Validate: %v", err)
			}
			if r.OK {
				t.Fatal("expected not ok")
			}
			got := Report{
				OutOfBounds:      r.OutOfBounds,
				OnObstacle:       r.OnObstacle,
				IllegalMoves:     r.IllegalMoves,
				VertexCollisions: r.VertexCollisions,
				EdgeCollisions:   r.EdgeCollisions,
			}
			if got != tt.want {
				t.Errorf("counts = %+v, want %+v", got, tt.want)
			}
			fe := r.FirstError
			if fe == nil {
				t.Fatal("FirstError is nil")
			}
			if fe.Kind != tt.kind || fe.Time != tt.time || !reflect.DeepEqual(fe.Agents, tt.agents) {
				t.Errorf("FirstError = %+v, want %s at t=%d agents %v", fe, tt.kind, tt.time, tt.agents)
			}
		})
	}
}

func TestValidateEarlierPassWinsOverEarlierTime(t *testing.T) {
	g := mustGrid(t, "....")
	// Illegal jump at t=1, out of bounds at t=2.
	paths := mustPaths(t,
		[]grid.Pos{p(0, 0)},
		[]grid.Pos{p(0, 2)},
		[]grid.Pos{p(0, 4)},
	)
	r, err := Validate(g, paths, Options{Connectivity: motion.Eight})
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if r.FirstError == nil || r.FirstError.Kind != KindBounds || r.FirstError.Time != 2 {
		t.Fatalf("FirstError = %+v, want bounds at t=2", r.FirstError)
	}
	if r.IllegalMoves != 2 {
		t.Errorf("IllegalMoves = %d, want 2", r.IllegalMoves)
	}
}

func TestValidateBoundsBeforeObstacleWithinTimestep(t *testing.T) {
	g := mustGrid(t, "@.")
	paths := mustPaths(t, []grid.Pos{p(0, 0), p(5, 5)})
	r, err := Validate(g, paths, Options{Connectivity: motion.Four})
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if r.FirstError.Kind != KindBounds || !reflect.DeepEqual(r.FirstError.Agents, []int{1}) {
		t.Errorf("FirstError = %+v, want bounds for agent 1", r.FirstError)
	}
	if r.OnObstacle != 1 || r.OutOfBounds != 1 {
		t.Errorf("counts = %d/%d, want 1/1", r.OutOfBounds, r.OnObstacle)
	}
}

func TestValidateOutOfBoundsIsNotAnObstacle(t *testing.T) {
	g := mustGrid(t, "..")
	r, err := Validate(g, mustPaths(t, []grid.Pos{p(0, 9)}), Options{Connectivity: motion.Four})
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if r.OutOfBounds != 1 || r.OnObstacle != 0 {
		t.Errorf("counts = %d/%d, want 1/0", r.OutOfBounds, r.OnObstacle)
	}
}

func TestValidateBoundsViolationCapsAgents(t *testing.T) {
	g := mustGrid(t, ".")
	frame := make([]grid.Pos, 6)
	for i := range frame {
		frame[i] = p(-1, i)
	}
	r, err := Validate(g, mustPaths(t, frame), Options{Connectivity: motion.Four})
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if r.OutOfBounds != 6 {
		t.Errorf("OutOfBounds = %d, want 6", r.OutOfBounds)
	}
	fe := r.FirstError
	if len(fe.Agents) != 4 || len(fe.Context.Positions) != 4 {
		t.Errorf("expected 4 agents and positions, got %+v", fe)
	}
	if fe.Context.Positions[3] != p(-1, 3) {
		t.Errorf("Positions[3] = %v", fe.Context.Positions[3])
	}
}

func TestValidateVertexCountsPairs(t *testing.T) {
	g := mustGrid(t, "...")
	// Three agents on one cell: three pairs.
	paths := mustPaths(t, []grid.Pos{p(0, 1), p(0, 1), p(0, 1)})
	r, err := Validate(g, paths, Options{Connectivity: motion.Four})
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if r.VertexCollisions != 3 {
		t.Errorf("VertexCollisions = %d, want 3", r.VertexCollisions)
	}
	if c := r.FirstError.Context.Cell; c == nil || *c != p(0, 1) {
		t.Errorf("Cell = %v, want (0,1)", c)
	}
}

func TestValidateEdgeCarriesBothMoves(t *testing.T) {
	g := mustGrid(t, "...")
	paths := mustPaths(t,
		[]grid.Pos{p(0, 0), p(0, 1)},
		[]grid.Pos{p(0, 1), p(0, 0)},
	)
	r, err := Validate(g, paths, Options{Connectivity: motion.Four})
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	ctx := r.FirstError.Context
	if ctx.MoveI == nil || ctx.MoveJ == nil {
		t.Fatalf("missing moves: %+v", ctx)
	}
	if ctx.MoveI.From != p(0, 0) || ctx.MoveI.To != p(0, 1) || ctx.MoveJ.From != p(0, 1) || ctx.MoveJ.To != p(0, 0) {
		t.Errorf("moves = %+v / %+v", *ctx.MoveI, *ctx.MoveJ)
	}
}

func TestValidateIllegalMoveCarriesDelta(t *testing.T) {
	g := mustGrid(t, "....")
	paths := mustPaths(t, []grid.Pos{p(0, 0)}, []grid.Pos{p(0, 3)})
	r, err := Validate(g, paths, Options{Connectivity: motion.Four})
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if d := r.FirstError.Context.Delta; d == nil || *d != (motion.Delta{DRow: 0, DCol: 3}) {
		t.Errorf("Delta = %v, want (0, 3)", d)
	}
}

// stacked builds T frames of two agents sharing a cell that jumps between
// the ends of a 1x4 corridor: every transition is two illegal moves and
// every frame one vertex collision.
func stacked(steps int) [][]grid.Pos {
	frames := make([][]grid.Pos, steps)
	for t := range frames {
		c := 0
		if t%2 == 1 {
			c = 3
		}
		frames[t] = []grid.Pos{p(0, c), p(0, c)}
	}
	return frames
}

func TestPassesKeepEarliestViolation(t *testing.T) {
	v := &validator{grid: mustGrid(t, "...."), frames: stacked(9), conn: motion.Four}

	moves := v.movePass(1, 9)
	if moves.counts[0] != 16 {
		t.Errorf("illegal moves = %d, want 16", moves.counts[0])
	}
	if f := moves.first; f == nil || f.Time != 1 || !reflect.DeepEqual(f.Agents, []int{0}) {
		t.Errorf("first illegal move = %+v, want t=1 agent 0", f)
	}

	vertices := v.vertexPass(0, 9)
	if vertices.counts[0] != 9 {
		t.Errorf("vertex collisions = %d, want 9", vertices.counts[0])
	}
	if f := vertices.first; f == nil || f.Time != 0 || *f.Context.Cell != p(0, 0) {
		t.Errorf("first vertex collision = %+v, want t=0 at (0,0)", f)
	}
}

func TestMovePassAllocsIndependentOfViolations(t *testing.T) {
	g := mustGrid(t, "....")
	short := &validator{grid: g, frames: stacked(2), conn: motion.Four}
	long := &validator{grid: g, frames: stacked(64), conn: motion.Four}

	a := testing.AllocsPerRun(20, func() { short.movePass(1, 2) })
	b := testing.AllocsPerRun(20, func() { long.movePass(1, 64) })
	if a != b {
		t.Errorf("allocs grow with violations: %v for 2 moves, %v for 126", a, b)
	}
}

func TestValidateGoals(t *testing.T) {
	g := mustGrid(t, "...")
	paths := mustPaths(t, []grid.Pos{p(0, 0)}, []grid.Pos{p(0, 1)})

	r, err := Validate(g, paths, Options{Connectivity: motion.Four, Goals: []grid.Pos{p(0, 1)}})
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if r.Success != GoalsReached || !r.OK {
		t.Errorf("reached: %+v", r)
	}

	r, err = Validate(g, paths, Options{Connectivity: motion.Four, Goals: []grid.Pos{p(0, 2)}})
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if r.Success != GoalsMissed || r.OK {
		t.Errorf("missed: %+v", r)
	}
	if r.FirstError != nil {
		t.Errorf("missing a goal is not a violation: %+v", r.FirstError)
	}
}

func TestValidateErrors(t *testing.T) {
	g := mustGrid(t, "...")
	good := mustPaths(t, []grid.Pos{p(0, 0)})
	bad, err := trajectory.New([]int{1, 1, 3}, []int64{0, 0, 0})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if _, err := Validate(g, bad, Options{Connectivity: motion.Four}); !errors.Is(err, trajectory.ErrShape) {
		t.Errorf("(T,N,3): err = %v, want ErrShape", err)
	}
	if _, err := Validate(g, good, Options{Connectivity: 6}); !errors.Is(err, motion.ErrUnknownConnectivity) {
		t.Errorf("connectivity 6: err = %v", err)
	}
	goals := []grid.Pos{p(0, 0), p(0, 1)}
	if _, err := Validate(g, good, Options{Connectivity: motion.Four, Goals: goals}); !errors.Is(err, ErrGoalShape) {
		t.Errorf("goal shape: err = %v", err)
	}
}

func TestValidateShardedMatchesSerial(t *testing.T) {
	g := mustGrid(t, "......", "..@...", "......", "......")
	// A trajectory with every kind of violation scattered through time.
	var frames [][]grid.Pos
	for step := 0; step < 40; step++ {
		frame := []grid.Pos{
			p(step%4, 0),
			p(0, step%6),
			p(3-step%4, 5),
			p(1, 2),
		}
		if step%7 == 0 {
			frame[0] = p(-1, 0)
		}
		if step%5 == 0 {
			frame[1] = frame[2]
		}
		frames = append(frames, frame)
	}
	paths := mustPaths(t, frames...)
	serial, err := Validate(g, paths, Options{Connectivity: motion.Four, Workers: 1})
	if err != nil {
		t.Fatalf("serial: %v", err)
	}
	for _, workers := range []int{2, 3, 8, 64} {
		got, err := Validate(g, paths, Options{Connectivity: motion.Four, Workers: workers})
		if err != nil {
			t.Fatalf("workers=%d: %v", workers, err)
		}
		if !reflect.DeepEqual(got, serial) {
			t.Errorf("workers=%d: report differs\n got %+v\nwant %+v", workers, got, serial)
		}
	}
}

func TestReportJSON(t *testing.T) {
	cell := p(0, 1)
	r := Report{
		FirstError: &Violation{Time: 2, Kind: KindVertexCollision, Agents: []int{0, 1}, Context: Context{Cell: &cell}},
		Success:    GoalsUnchecked,
	}
	b, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if m["success"] != nil {
		t.Errorf("success = %v, want null", m["success"])
	}
	fe := m["first_error"].(map[string]any)
	if fe["type"] != "vertex_collision" {
		t.Errorf("type = %v", fe["type"])
	}
	if _, ok := fe["extra"].(map[string]any)["cell"]; !ok {
		t.Errorf("extra missing cell: %s", b)
	}

	var back Report
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("Unmarshal Report: %v", err)
	}
	if back.Success != GoalsUnchecked || back.FirstError.Time != 2 {
		t.Errorf("round trip = %+v", back)
	}
}

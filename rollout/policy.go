package rollout

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/pthm-cable/gridmapf/env"
	"github.com/pthm-cable/gridmapf/grid"
	"github.com/pthm-cable/gridmapf/instance"
	"github.com/pthm-cable/gridmapf/motion"
	"github.com/pthm-cable/gridmapf/planner"
)

// Policy names accepted by NewPolicy.
const (
	PolicyRandom = "random"
	PolicyAStar  = "astar"
)

// ErrUnknownPolicy is returned by NewPolicy for an unrecognised name.
var ErrUnknownPolicy = errors.New("rollout: unknown policy")

// Policy chooses one joint action per tick.
type Policy interface {
	Actions(s env.State) []motion.Action
}

// RandomPolicy samples each agent's action uniformly from the action ids
// its connectivity defines.
type RandomPolicy struct {
	rng  *rand.Rand
	conn motion.Connectivity
}

// NewRandomPolicy returns a seeded policy. A zero seed is replaced by the
// current time.
func NewRandomPolicy(seed int64, conn motion.Connectivity) *RandomPolicy {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &RandomPolicy{rng: rand.New(rand.NewSource(seed)), conn: conn}
}

func (p *RandomPolicy) Actions(s env.State) []motion.Action {
	n := p.conn.NumActions()
	out := make([]motion.Action, len(s.Positions))
	for i := range out {
		out[i] = motion.Action(p.rng.Intn(n))
	}
	return out
}

// Scripted replays fixed joint actions, then waits.
type Scripted [][]motion.Action

func (s Scripted) Actions(st env.State) []motion.Action {
	if st.T < len(s) {
		return s[st.T]
	}
	return make([]motion.Action, len(st.Positions))
}

// PathPolicy follows precomputed per-agent paths, one cell per tick, and
// waits once a path is exhausted. Agents without a path always wait.
type PathPolicy struct {
	paths [][]grid.Pos
	conn  motion.Connectivity
}

// NewPathPolicy wraps paths, indexed by agent.
func NewPathPolicy(paths [][]grid.Pos, conn motion.Connectivity) *PathPolicy {
	return &PathPolicy{paths: paths, conn: conn}
}

// NewShortestPathPolicy plans every agent from its start to its goal with
// A*, ignoring other agents.
func NewShortestPathPolicy(inst *instance.Instance, conn motion.Connectivity) *PathPolicy {
	return NewPathPolicy(planner.PlanAll(inst.Grid(), conn, inst.Starts(), inst.Goals()), conn)
}

func (p *PathPolicy) Actions(s env.State) []motion.Action {
	out := make([]motion.Action, len(s.Positions))
	for i, pos := range s.Positions {
		if i >= len(p.paths) || len(p.paths[i]) == 0 {
			continue
		}
		path := p.paths[i]
		next := path[min(s.T+1, len(path)-1)]
		if a, ok := p.conn.ActionFor(motion.Between(pos, next)); ok {
			out[i] = a
		}
	}
	return out
}

// Unreachable returns the agents that have no path.
func (p *PathPolicy) Unreachable() []int {
	var out []int
	for i, path := range p.paths {
		if len(path) == 0 {
			out = append(out, i)
		}
	}
	return out
}

// NewPolicy builds a policy by name: "random" or "astar".
func NewPolicy(name string, inst *instance.Instance, conn motion.Connectivity, seed int64) (Policy, error) {
	switch name {
	case "", PolicyRandom:
		return NewRandomPolicy(seed, conn), nil
	case PolicyAStar:
		return NewShortestPathPolicy(inst, conn), nil
	default:
		return nil, fmt.Errorf("%w: %q (want %q or %q)", ErrUnknownPolicy, name, PolicyRandom, PolicyAStar)
	}
}

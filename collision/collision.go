// Package collision finds inter-agent conflicts in position vectors. It is
// purely observational: nothing here moves an agent.
package collision

import (
	"fmt"

	"github.com/pthm-cable/gridmapf/grid"
)

// Vertex is a cell occupied by two or more agents at one timestep.
type Vertex struct {
	Cell   grid.Pos `json:"cell"`
	Agents []int    `json:"agents"` // ascending, all occupants
}

// Move is one agent's transition between consecutive timesteps.
type Move struct {
	From grid.Pos `json:"from"`
	To   grid.Pos `json:"to"`
}

// Edge is a swap: agents I and J (I < J) exchanged cells.
type Edge struct {
	I     int  `json:"i"`
	J     int  `json:"j"`
	MoveI Move `json:"move_i"`
	MoveJ Move `json:"move_j"`
}

// Occupancy groups agents by cell. Cells appear in order of first
// occupancy by ascending agent index.
func Occupancy(pos []grid.Pos) (cells []grid.Pos, agents [][]int) {
	index := make(map[grid.Pos]int, len(pos))
	for i, p := range pos {
		k, ok := index[p]
		if !ok {
			k = len(cells)
			index[p] = k
			cells = append(cells, p)
			agents = append(agents, nil)
		}
		agents[k] = append(agents[k], i)
	}
	return cells, agents
}

// Vertices returns one record per shared cell, listing every agent on it.
func Vertices(pos []grid.Pos) []Vertex {
	cells, agents := Occupancy(pos)
	var out []Vertex
	for k, cell := range cells {
		if len(agents[k]) > 1 {
			out = append(out, Vertex{Cell: cell, Agents: agents[k]})
		}
	}
	return out
}

// Pairs returns the number of unordered agent pairs among k co-located agents.
func Pairs(k int) int {
	return k * (k - 1) / 2
}

// Swapped reports whether agents i and j exchanged cells between prev and
// curr. The test is symmetric in i and j.
func Swapped(prev, curr []grid.Pos, i, j int) bool {
	return prev[i] == curr[j] && prev[j] == curr[i]
}

// Edges scans every unordered pair for swaps. prev and curr must have the
// same length; Edges panics otherwise. Callers pass consecutive frames of
// one trajectory or environment, where N is fixed.
func Edges(prev, curr []grid.Pos) []Edge {
	if len(prev) != len(curr) {
		panic(fmt.Sprintf("collision: position vectors differ in length (%d vs %d)", len(prev), len(curr)))
	}
	var out []Edge
	n := len(prev)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if Swapped(prev, curr, i, j) {
				out = append(out, NewEdge(prev, curr, i, j))
			}
		}
	}
	return out
}

// NewEdge builds the record for a detected swap of i and j.
func NewEdge(prev, curr []grid.Pos, i, j int) Edge {
	return Edge{
		I:     i,
		J:     j,
		MoveI: Move{From: prev[i], To: curr[i]},
		MoveJ: Move{From: prev[j], To: curr[j]},
	}
}

// Involved flags each of n agents that appears in any vertex or edge record.
func Involved(n int, vs []Vertex, es []Edge) []bool {
	out := make([]bool, n)
	for _, v := range vs {
		for _, i := range v.Agents {
			out[i] = true
		}
	}
	for _, e := range es {
		out[e.I] = true
		out[e.J] = true
	}
	return out
}

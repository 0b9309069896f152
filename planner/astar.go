// Package planner computes single-agent shortest paths on a grid. Agents are
// planned independently, so the joint result may contain collisions.
package planner

import (
	"container/heap"

	"github.com/pthm-cable/gridmapf/grid"
	"github.com/pthm-cable/gridmapf/motion"
)

// AStar finds shortest paths where every move, diagonal or not, costs one
// tick. It reuses its search buffers and is not safe for concurrent use.
type AStar struct {
	g    *grid.Grid
	conn motion.Connectivity

	openHeap  *nodeHeap
	closedSet map[int]struct{}
	cameFrom  map[int]int
	gScore    map[int]int
}

// astarNode is a node in the search.
type astarNode struct {
	p     grid.Pos
	f     int // g + h
	index int // heap index
}

// nodeHeap implements heap.Interface for the open set.
type nodeHeap []*astarNode

func (h nodeHeap) Len() int           { return len(h) }
func (h nodeHeap) Less(i, j int) bool { return h[i].f < h[j].f }
func (h nodeHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *nodeHeap) Push(x any) {
	n := x.(*astarNode)
	n.index = len(*h)
	*h = append(*h, n)
}

func (h *nodeHeap) Pop() any {
	old := *h
	n := len(old)
	node := old[n-1]
	old[n-1] = nil
	node.index = -1
	*h = old[0 : n-1]
	return node
}

// NewAStar returns a planner for g under conn.
func NewAStar(g *grid.Grid, conn motion.Connectivity) *AStar {
	return &AStar{
		g:         g,
		conn:      conn,
		openHeap:  &nodeHeap{},
		closedSet: make(map[int]struct{}, 256),
		cameFrom:  make(map[int]int, 256),
		gScore:    make(map[int]int, 256),
	}
}

// FindPath returns the cells from start to goal inclusive, or nil when goal
// is unreachable or either endpoint is not passable. A diagonal move only
// needs its target cell free, matching the environment.
func (a *AStar) FindPath(start, goal grid.Pos) []grid.Pos {
	if !a.g.Passable(start) || !a.g.Passable(goal) {
		return nil
	}
	if start == goal {
		return []grid.Pos{start}
	}

	*a.openHeap = (*a.openHeap)[:0]
	clear(a.closedSet)
	clear(a.cameFrom)
	clear(a.gScore)

	startID := a.id(start)
	goalID := a.id(goal)
	a.gScore[startID] = 0
	heap.Push(a.openHeap, &astarNode{p: start, f: a.heuristic(start, goal)})

	n := a.conn.NumActions()
	for a.openHeap.Len() > 0 {
		current := heap.Pop(a.openHeap).(*astarNode)
		currentID := a.id(current.p)
		if currentID == goalID {
			return a.reconstructPath(startID, goalID)
		}
		if _, ok := a.closedSet[currentID]; ok {
			continue
		}
		a.closedSet[currentID] = struct{}{}

		// Skip Wait.
		for act := motion.Action(1); int(act) < n; act++ {
			d, _ := a.conn.Delta(act)
			next := d.Apply(current.p)
			if !a.g.Passable(next) {
				continue
			}
			nextID := a.id(next)
			if _, ok := a.closedSet[nextID]; ok {
				continue
			}
			tentativeG := a.gScore[currentID] + 1
			if existingG, ok := a.gScore[nextID]; ok && tentativeG >= existingG {
				continue
			}
			a.cameFrom[nextID] = currentID
			a.gScore[nextID] = tentativeG
			heap.Push(a.openHeap, &astarNode{p: next, f: tentativeG + a.heuristic(next, goal)})
		}
	}
	return nil
}

// heuristic is Manhattan distance under 4-connectivity and Chebyshev under
// 8-connectivity. Both are exact on an empty grid.
func (a *AStar) heuristic(p, q grid.Pos) int {
	dr, dc := abs(p.Row-q.Row), abs(p.Col-q.Col)
	if a.conn == motion.Eight {
		return max(dr, dc)
	}
	return dr + dc
}

func (a *AStar) id(p grid.Pos) int {
	return p.Row*a.g.Width() + p.Col
}

func (a *AStar) pos(id int) grid.Pos {
	return grid.Pos{Row: id / a.g.Width(), Col: id % a.g.Width()}
}

// reconstructPath walks cameFrom back from goal.
func (a *AStar) reconstructPath(startID, goalID int) []grid.Pos {
	var ids []int
	for current := goalID; current != startID; current = a.cameFrom[current] {
		ids = append(ids, current)
	}
	ids = append(ids, startID)

	path := make([]grid.Pos, len(ids))
	for i := range ids {
		path[i] = a.pos(ids[len(ids)-1-i])
	}
	return path
}

// PlanAll plans each start/goal pair independently. Unreachable pairs get a
// nil path.
func PlanAll(g *grid.Grid, conn motion.Connectivity, starts, goals []grid.Pos) [][]grid.Pos {
	a := NewAStar(g, conn)
	out := make([][]grid.Pos, len(starts))
	for i := range starts {
		out[i] = a.FindPath(starts[i], goals[i])
	}
	return out
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

package scene

// Agent identifies the agent an entity mirrors.
type Agent struct {
	Index int
}

// Cell is the agent's current grid cell.
type Cell struct {
	Row, Col int
}

// Goal is the agent's goal cell.
type Goal struct {
	Row, Col int
}

// Status holds per-tick display flags.
type Status struct {
	AtGoal    bool
	Blocked   bool // last move was rejected and the agent stayed put
	Colliding bool // part of a vertex or edge record this tick
}

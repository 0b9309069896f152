package grid

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Scenario is the ordered list of start/goal pairs from a .scen file.
type Scenario struct {
	Starts []Pos
	Goals  []Pos
}

// Len returns the number of scenario entries.
func (s Scenario) Len() int { return len(s.Starts) }

// LoadScen reads a MovingAI .scen file.
func LoadScen(path string) (Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return Scenario{}, err
	}
	defer f.Close()

	sc, err := ParseScen(f)
	if err != nil {
		return Scenario{}, fmt.Errorf("%s: %w", path, err)
	}
	return sc, nil
}

// ParseScen parses scenario text. Each entry line has nine tab-separated
// fields: bucket, map, width, height, start_col, start_row, goal_col,
// goal_row, optimal length. Blank and "version" lines are skipped.
func ParseScen(r io.Reader) (Scenario, error) {
	var out Scenario
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), " \t\r\n")
		if line == "" || strings.HasPrefix(line, "version") {
			continue
		}
		tokens := strings.Split(line, "\t")
		if len(tokens) != 9 {
			return Scenario{}, fmt.Errorf("%w: unexpected scen format in line: %s", ErrFormat, line)
		}
		var v [4]int
		for i := range v {
			n, err := strconv.Atoi(strings.TrimSpace(tokens[4+i]))
			if err != nil {
				return Scenario{}, fmt.Errorf("%w: field %d in line %q: %v", ErrFormat, 4+i, line, err)
			}
			v[i] = n
		}
		out.Starts = append(out.Starts, Pos{Row: v[1], Col: v[0]})
		out.Goals = append(out.Goals, Pos{Row: v[3], Col: v[2]})
	}
	if err := sc.Err(); err != nil {
		return Scenario{}, err
	}
	return out, nil
}

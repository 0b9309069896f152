package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pthm-cable/gridmapf/config"
	"github.com/pthm-cable/gridmapf/grid"
	"github.com/pthm-cable/gridmapf/instance"
)

// errNotFound marks a missing input file.
var errNotFound = errors.New("not found")

// maxSuggestions caps the files listed in a not-found error.
const maxSuggestions = 5

// placeholderPrefixes are documentation paths users paste verbatim.
var placeholderPrefixes = []string{"/path/to/", "/full/path/"}

// mapPath returns the explicit map path, else <maps_dir>/<map>.map.
func mapPath(d config.DataConfig) string {
	if d.MapPath != "" {
		return d.MapPath
	}
	return filepath.Join(d.MapsDir, d.Map+".map")
}

// scenPath returns the explicit scenario path, else the first sorted
// <map>-random-*.scen in the scenario dir, else <map>-random-1.scen.
func scenPath(d config.DataConfig) string {
	if d.ScenPath != "" {
		return d.ScenPath
	}
	name := d.Map
	if name == "" && d.MapPath != "" {
		name = strings.TrimSuffix(filepath.Base(d.MapPath), filepath.Ext(d.MapPath))
	}
	matches, _ := filepath.Glob(filepath.Join(d.ScenDir, name+"-random-*.scen"))
	if len(matches) > 0 {
		sort.Strings(matches)
		return matches[0]
	}
	return filepath.Join(d.ScenDir, name+"-random-1.scen")
}

// loadGrid resolves and parses the map.
func loadGrid(d config.DataConfig) (*grid.Grid, string, error) {
	path := mapPath(d)
	if _, err := os.Stat(path); err != nil {
		return nil, path, fmt.Errorf("map file %w: %s", errNotFound, path)
	}
	g, err := grid.LoadMap(path)
	return g, path, err
}

// loadInstance resolves the scenario and slices k rows from offset.
func loadInstance(g *grid.Grid, d config.DataConfig) (*instance.Instance, string, error) {
	path := scenPath(d)
	if _, err := os.Stat(path); err != nil {
		return nil, path, fmt.Errorf("scenario file %w: %s%s", errNotFound, path,
			suggest(filepath.Dir(path), "*.scen", "available scenario files"))
	}
	sc, err := grid.LoadScen(path)
	if err != nil {
		return nil, path, err
	}
	inst, err := instance.FromScenario(g, sc, d.K, d.Offset)
	return inst, path, err
}

// checkPathsFile rejects placeholder paths and, for a missing file, lists
// nearby .npy files.
func checkPathsFile(arg string) (string, error) {
	for _, p := range placeholderPrefixes {
		if strings.HasPrefix(arg, p) {
			return "", fmt.Errorf("%q appears to be an example path, not a real file; "+
				"pass the actual location of your paths.npy, e.g. ./paths.npy", arg)
		}
	}
	abs, err := filepath.Abs(arg)
	if err != nil {
		abs = arg
	}
	if _, err := os.Stat(abs); err != nil {
		cwd, _ := os.Getwd()
		return abs, fmt.Errorf("paths file %w: %s (resolved to %s, cwd %s)%s",
			errNotFound, arg, abs, cwd, suggest(cwd, "*.npy", ".npy files in current directory"))
	}
	return abs, nil
}

// suggest lists up to maxSuggestions files matching pattern in dir.
func suggest(dir, pattern, title string) string {
	matches, _ := filepath.Glob(filepath.Join(dir, pattern))
	if len(matches) == 0 {
		return ""
	}
	sort.Strings(matches)
	var b strings.Builder
	fmt.Fprintf(&b, "\n%s:", title)
	for _, m := range matches[:min(len(matches), maxSuggestions)] {
		fmt.Fprintf(&b, "\n  - %s", filepath.Base(m))
	}
	if len(matches) > maxSuggestions {
		fmt.Fprintf(&b, "\n  ... and %d more", len(matches)-maxSuggestions)
	}
	return b.String()
}

package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pthm-cable/gridmapf/config"
	"github.com/pthm-cable/gridmapf/grid"
	"github.com/pthm-cable/gridmapf/trajectory"
	"github.com/pthm-cable/gridmapf/validate"
)

const tinyMap = "type octile\nheight 3\nwidth 4\nmap\n....\n..@.\n....\n"

const tinyScen = "version 1\n" +
	"0\ttiny.map\t4\t3\t0\t0\t3\t0\t3\n" +
	"0\ttiny.map\t4\t3\t0\t2\t3\t2\t3\n"

// dataDir lays out maps/ and scens/ under a temp dir.
func dataDir(t *testing.T, scens ...string) (mapsDir, scenDir string) {
	t.Helper()
	root := t.TempDir()
	mapsDir = filepath.Join(root, "maps")
	scenDir = filepath.Join(root, "scens")
	for _, d := range []string{mapsDir, scenDir} {
		if err := os.MkdirAll(d, 0755); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(mapsDir, "tiny.map"), []byte(tinyMap), 0644); err != nil {
		t.Fatal(err)
	}
	for _, name := range scens {
		if err := os.WriteFile(filepath.Join(scenDir, name), []byte(tinyScen), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return mapsDir, scenDir
}

func TestScenPath(t *testing.T) {
	_, withFiles := dataDir(t, "tiny-random-3.scen", "tiny-random-10.scen", "other-random-1.scen")
	_, empty := dataDir(t)

	tests := []struct {
		name string
		data config.DataConfig
		want string
	}{
		{"explicit", config.DataConfig{ScenPath: "/x/y.scen", ScenDir: withFiles, Map: "tiny"}, "/x/y.scen"},
		{"first sorted match", config.DataConfig{ScenDir: withFiles, Map: "tiny"}, filepath.Join(withFiles, "tiny-random-10.scen")},
		{"fallback", config.DataConfig{ScenDir: empty, Map: "tiny"}, filepath.Join(empty, "tiny-random-1.scen")},
		{"name from map path", config.DataConfig{ScenDir: empty, MapPath: "/m/den312d.map"}, filepath.Join(empty, "den312d-random-1.scen")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := scenPath(tt.data); got != tt.want {
				t.Errorf("scenPath = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMapPath(t *testing.T) {
	if got := mapPath(config.DataConfig{MapsDir: "data", Map: "den312d"}); got != filepath.Join("data", "den312d.map") {
		t.Errorf("mapPath = %q", got)
	}
	if got := mapPath(config.DataConfig{MapsDir: "data", Map: "den312d", MapPath: "/a/b.map"}); got != "/a/b.map" {
		t.Errorf("explicit mapPath = %q", got)
	}
}

func TestLoadGridNotFound(t *testing.T) {
	_, _, err := loadGrid(config.DataConfig{MapsDir: t.TempDir(), Map: "nope"})
	if !errors.Is(err, errNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
}

func TestLoadInstanceNotFoundListsScens(t *testing.T) {
	mapsDir, scenDir := dataDir(t, "other-random-1.scen")
	d := config.DataConfig{MapsDir: mapsDir, ScenDir: scenDir, Map: "tiny", K: 1}
	g, _, err := loadGrid(d)
	if err != nil {
		t.Fatal(err)
	}
	_, _, err = loadInstance(g, d)
	if !errors.Is(err, errNotFound) || !strings.Contains(err.Error(), "other-random-1.scen") {
		t.Fatalf("err = %v", err)
	}
}

func TestCheckPathsFile(t *testing.T) {
	for _, p := range []string{"/path/to/paths.npy", "/full/path/paths.npy"} {
		if _, err := checkPathsFile(p); err == nil || !strings.Contains(err.Error(), "example path") {
			t.Errorf("checkPathsFile(%q) = %v, want example path error", p, err)
		}
	}

	dir := t.TempDir()
	real := filepath.Join(dir, "paths.npy")
	if err := os.WriteFile(real, nil, 0644); err != nil {
		t.Fatal(err)
	}
	got, err := checkPathsFile(real)
	if err != nil || got != real {
		t.Errorf("checkPathsFile(real) = %q, %v", got, err)
	}

	if _, err := checkPathsFile(filepath.Join(dir, "missing.npy")); !errors.Is(err, errNotFound) {
		t.Errorf("missing file err = %v", err)
	}
}

func TestSuggestCaps(t *testing.T) {
	dir := t.TempDir()
	for _, n := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		if err := os.WriteFile(filepath.Join(dir, n+".npy"), nil, 0644); err != nil {
			t.Fatal(err)
		}
	}
	s := suggest(dir, "*.npy", "found")
	if !strings.Contains(s, "- a.npy") || strings.Contains(s, "- f.npy") || !strings.Contains(s, "and 2 more") {
		t.Errorf("suggest = %q", s)
	}
	if suggest(t.TempDir(), "*.npy", "found") != "" {
		t.Error("empty dir should give no suggestions")
	}
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestSampleCommand(t *testing.T) {
	mapsDir, scenDir := dataDir(t, "tiny-random-1.scen")
	out, err := run(t, "sample", "--maps-dir", mapsDir, "--scen-dir", scenDir, "--map", "tiny", "--k", "2")
	if err != nil {
		t.Fatalf("sample: %v\n%s", err, out)
	}
	for _, want := range []string{"num_agents       : 2", "H=3, W=4", "starts all free  : true", "1: start=(2, 0) goal=(2, 3)"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestValidateCommand(t *testing.T) {
	mapsDir, scenDir := dataDir(t, "tiny-random-1.scen")
	dir := t.TempDir()

	var frames [][]grid.Pos
	for c := 0; c < 4; c++ {
		frames = append(frames, []grid.Pos{{Row: 0, Col: c}, {Row: 2, Col: c}})
	}
	paths, err := trajectory.FromFrames(frames)
	if err != nil {
		t.Fatal(err)
	}
	pathsFile := filepath.Join(dir, "paths.npy")
	if err := trajectory.SaveNPY(pathsFile, paths); err != nil {
		t.Fatal(err)
	}

	outDir := filepath.Join(dir, "out")
	out, err := run(t, "validate", pathsFile,
		"--maps-dir", mapsDir, "--scen-dir", scenDir, "--map", "tiny", "--k", "2", "--output-dir", outDir)
	if err != nil {
		t.Fatalf("validate: %v\n%s", err, out)
	}
	for _, want := range []string{"T=4, N=2", "OK (no errors + success if goals): true", "Success (end at goals)  : true", "No errors detected"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	data, err := os.ReadFile(filepath.Join(outDir, "reports.csv"))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 || !strings.HasPrefix(lines[0], "run_id,") || !strings.Contains(lines[1], "tiny") {
		t.Errorf("reports.csv = %q", data)
	}
}

func TestValidateCommandReportsCollision(t *testing.T) {
	mapsDir, _ := dataDir(t)
	dir := t.TempDir()

	paths, err := trajectory.FromFrames([][]grid.Pos{
		{{Row: 0, Col: 0}, {Row: 0, Col: 1}},
		{{Row: 0, Col: 1}, {Row: 0, Col: 0}},
	})
	if err != nil {
		t.Fatal(err)
	}
	pathsFile := filepath.Join(dir, "swap.npy")
	if err := trajectory.SaveNPY(pathsFile, paths); err != nil {
		t.Fatal(err)
	}

	out, err := run(t, "validate", pathsFile, "--maps-dir", mapsDir, "--map", "tiny")
	if err != nil {
		t.Fatalf("validate: %v\n%s", err, out)
	}
	for _, want := range []string{"Edge collisions (swaps) : 1", "type   : edge_collision", "agents : [0 1]", "not checked"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestValidateCommandGoalCountMismatch(t *testing.T) {
	mapsDir, scenDir := dataDir(t, "tiny-random-1.scen")
	dir := t.TempDir()

	paths, err := trajectory.FromFrames([][]grid.Pos{{{Row: 0, Col: 0}}})
	if err != nil {
		t.Fatal(err)
	}
	pathsFile := filepath.Join(dir, "one.npy")
	if err := trajectory.SaveNPY(pathsFile, paths); err != nil {
		t.Fatal(err)
	}

	out, err := run(t, "validate", pathsFile,
		"--maps-dir", mapsDir, "--scen-dir", scenDir, "--map", "tiny", "--k", "2")
	if !errors.Is(err, validate.ErrGoalShape) {
		t.Fatalf("expected ErrGoalShape, got %v\n%s", err, out)
	}
}

func TestRejectsBadMotion(t *testing.T) {
	mapsDir, scenDir := dataDir(t, "tiny-random-1.scen")
	if _, err := run(t, "sample", "--maps-dir", mapsDir, "--scen-dir", scenDir, "--map", "tiny", "--motion", "6"); err == nil {
		t.Fatal("expected error for --motion 6")
	}
}

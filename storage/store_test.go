package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/pthm-cable/gridmapf/grid"
	"github.com/pthm-cable/gridmapf/validate"
)

func backends(t *testing.T) map[string]Store {
	t.Helper()
	return map[string]Store{
		"memory": NewMemoryStore(),
		"sqlite": NewSQLiteStore(filepath.Join(t.TempDir(), "runs.db")),
	}
}

func sampleRun(id string, at time.Time) Run {
	cell := grid.Pos{Row: 2, Col: 3}
	run := NewRun(validate.Report{
		VertexCollisions: 1,
		FirstError: &validate.Violation{
			Time:    3,
			Kind:    validate.KindVertexCollision,
			Agents:  []int{0, 4},
			Context: validate.Context{Cell: &cell},
		},
		Success: validate.GoalsMissed,
	})
	run.ID = id
	run.CreatedAt = at
	run.Map = "empty-8-8"
	run.Steps, run.Agents, run.Connectivity = 10, 5, 4
	return run
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			if err := store.Init(ctx); err != nil {
				t.Fatalf("init: %v", err)
			}
			t.Cleanup(func() { _ = CloseIfSupported(store) })

			want := sampleRun("r1", time.Unix(100, 0).UTC())
			if err := store.SaveRun(ctx, want); err != nil {
				t.Fatalf("save run: %v", err)
			}
			got, ok, err := store.GetRun(ctx, "r1")
			if err != nil {
				t.Fatalf("get run: %v", err)
			}
			if !ok {
				t.Fatal("expected run r1")
			}
			if got.Map != want.Map || got.Agents != 5 || !got.CreatedAt.Equal(want.CreatedAt) {
				t.Errorf("unexpected run loaded: %+v", got)
			}
			fe := got.Report.FirstError
			if fe == nil || fe.Kind != validate.KindVertexCollision || fe.Context.Cell == nil || *fe.Context.Cell != (grid.Pos{Row: 2, Col: 3}) {
				t.Errorf("first error lost: %+v", fe)
			}
			if got.Report.Success != validate.GoalsMissed {
				t.Errorf("success = %v", got.Report.Success)
			}

			if _, ok, err := store.GetRun(ctx, "missing"); err != nil || ok {
				t.Errorf("missing run: ok=%v err=%v", ok, err)
			}
		})
	}
}

func TestStoreListNewestFirst(t *testing.T) {
	ctx := context.Background()
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			if err := store.Init(ctx); err != nil {
				t.Fatalf("init: %v", err)
			}
			t.Cleanup(func() { _ = CloseIfSupported(store) })

			base := time.Unix(1000, 0).UTC()
			for i, id := range []string{"a", "b", "c"} {
				if err := store.SaveRun(ctx, sampleRun(id, base.Add(time.Duration(i)*time.Second))); err != nil {
					t.Fatalf("save %s: %v", id, err)
				}
			}
			// Overwrite keeps one row per id.
			if err := store.SaveRun(ctx, sampleRun("a", base.Add(10*time.Second))); err != nil {
				t.Fatalf("overwrite: %v", err)
			}

			all, err := store.ListRuns(ctx, 0)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			var ids []string
			for _, r := range all {
				ids = append(ids, r.ID)
			}
			if len(ids) != 3 || ids[0] != "a" || ids[1] != "c" || ids[2] != "b" {
				t.Errorf("order = %v, want [a c b]", ids)
			}

			two, err := store.ListRuns(ctx, 2)
			if err != nil {
				t.Fatalf("list limit: %v", err)
			}
			if len(two) != 2 {
				t.Errorf("limit 2 returned %d", len(two))
			}
		})
	}
}

func TestSQLiteRequiresInit(t *testing.T) {
	store := NewSQLiteStore(filepath.Join(t.TempDir(), "x.db"))
	if err := store.SaveRun(context.Background(), Run{}); err == nil {
		t.Fatal("expected error before init")
	}
	if err := NewSQLiteStore("").Init(context.Background()); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestSQLitePersistsAcrossOpen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "runs.db")

	first := NewSQLiteStore(path)
	if err := first.Init(ctx); err != nil {
		t.Fatal(err)
	}
	if err := first.SaveRun(ctx, sampleRun("keep", time.Unix(5, 0))); err != nil {
		t.Fatal(err)
	}
	if err := first.Close(); err != nil {
		t.Fatal(err)
	}

	second := NewSQLiteStore(path)
	if err := second.Init(ctx); err != nil {
		t.Fatal(err)
	}
	defer second.Close()
	if _, ok, err := second.GetRun(ctx, "keep"); err != nil || !ok {
		t.Fatalf("reopened store lost run: ok=%v err=%v", ok, err)
	}
}

func TestDecodeRunVersionMismatch(t *testing.T) {
	run := sampleRun("v", time.Unix(0, 0))
	run.SchemaVersion = 99
	data, err := EncodeRun(run)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := DecodeRun(data); !errors.Is(err, ErrVersionMismatch) {
		t.Fatalf("err = %v, want ErrVersionMismatch", err)
	}
}

func TestNewRunAssignsID(t *testing.T) {
	a, b := NewRun(validate.Report{}), NewRun(validate.Report{})
	if a.ID == "" || a.ID == b.ID {
		t.Errorf("ids = %q, %q", a.ID, b.ID)
	}
	if a.SchemaVersion != CurrentSchemaVersion {
		t.Errorf("schema version = %d", a.SchemaVersion)
	}
}

func TestNewStore(t *testing.T) {
	for _, kind := range []string{"", "memory", "sqlite"} {
		store, err := NewStore(kind, "x.db")
		if err != nil || store == nil {
			t.Errorf("NewStore(%q) = %v, %v", kind, store, err)
		}
	}
	if _, err := NewStore("unknown", ""); err == nil {
		t.Fatal("expected unsupported store error")
	}
}

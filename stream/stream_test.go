package stream

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pthm-cable/gridmapf/env"
	"github.com/pthm-cable/gridmapf/grid"
	"github.com/pthm-cable/gridmapf/instance"
	"github.com/pthm-cable/gridmapf/motion"
	"github.com/pthm-cable/gridmapf/rollout"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// swapRunner has two agents that exchange cells on the first tick.
func swapRunner(t *testing.T) (*grid.Grid, *rollout.Runner) {
	t.Helper()
	g, err := grid.FromRows([]string{"..", "@."})
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
	script := rollout.Scripted{{motion.Right, motion.Left}}
	return g, rollout.NewRunner(e, script, rollout.Options{Logger: quietLogger()})
}

func TestGridRoute(t *testing.T) {
	g, _ := swapRunner(t)
	srv := httptest.NewServer(NewServer(g, quietLogger()))
	defer srv.Close()

	resp, err := http.Get(srv.URL + URIGrid)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var info GridInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		t.Fatal(err)
	}
	if info.Height != 2 || info.Width != 2 || strings.Join(info.Rows, "/") != "../@." {
		t.Errorf("grid = %+v", info)
	}
}

func TestStateRoute(t *testing.T) {
	g, runner := swapRunner(t)
	s := NewServer(g, quietLogger())
	srv := httptest.NewServer(s)
	defer srv.Close()

	resp, err := http.Get(srv.URL + URIState)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("status before publish = %d, want 204", resp.StatusCode)
	}

	if err := s.Hub.Publish(NewFrame(runner.State(), nil)); err != nil {
		t.Fatal(err)
	}
	resp, err = http.Get(srv.URL + URIState)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var f Frame
	if err := json.NewDecoder(resp.Body).Decode(&f); err != nil {
		t.Fatal(err)
	}
	if f.T != 0 || len(f.Positions) != 2 || f.Positions[1] != (grid.Pos{Row: 0, Col: 1}) {
		t.Errorf("frame = %+v", f)
	}
}

func TestUnknownRoute(t *testing.T) {
	g, _ := swapRunner(t)
	srv := httptest.NewServer(NewServer(g, quietLogger()))
	defer srv.Close()

	resp, err := http.Post(srv.URL+URIGrid, "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("POST /grid status = %d, want 404", resp.StatusCode)
	}
}

func TestWebSocketReceivesFrames(t *testing.T) {
	g, runner := swapRunner(t)
	s := NewServer(g, quietLogger())
	srv := httptest.NewServer(s)
	defer srv.Close()

	if err := s.Hub.Publish(NewFrame(runner.State(), nil)); err != nil {
		t.Fatal(err)
	}

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + URIWebSocket
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	// The latest frame is replayed on connect.
	var first Frame
	if err := conn.ReadJSON(&first); err != nil {
		t.Fatal(err)
	}
	if first.T != 0 {
		t.Fatalf("first frame t = %d, want 0", first.T)
	}

	if _, err := runner.Tick(); err != nil {
		t.Fatal(err)
	}
	if err := s.Hub.Publish(NewFrame(runner.State(), runner.LastDiagnostics())); err != nil {
		t.Fatal(err)
	}

	var next Frame
	if err := conn.ReadJSON(&next); err != nil {
		t.Fatal(err)
	}
	if next.T != 1 {
		t.Fatalf("second frame t = %d, want 1", next.T)
	}
	if len(next.EdgeCollisions) != 1 || next.EdgeCollisions[0].I != 0 || next.EdgeCollisions[0].J != 1 {
		t.Errorf("edge collisions = %+v", next.EdgeCollisions)
	}
	if !next.AtGoal[0] || !next.AtGoal[1] {
		t.Errorf("at_goal = %v", next.AtGoal)
	}
}

func TestPumpPublishes(t *testing.T) {
	g, runner := swapRunner(t)
	s := NewServer(g, quietLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.Pump(ctx, runner, time.Millisecond, 3); err != nil {
		t.Fatal(err)
	}

	var f Frame
	if err := json.Unmarshal(s.Hub.Latest(), &f); err != nil {
		t.Fatal(err)
	}
	if f.T != 3 {
		t.Errorf("latest t = %d, want 3", f.T)
	}
}

func TestPumpCancelled(t *testing.T) {
	g, runner := swapRunner(t)
	s := NewServer(g, quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.Pump(ctx, runner, time.Hour, 0); err != context.Canceled {
		t.Errorf("Pump = %v, want context.Canceled", err)
	}
}

func TestPublishDropsForSlowClient(t *testing.T) {
	h := NewHub(quietLogger())
	c := &client{send: make(chan []byte, sendBuffer)}
	h.clients[c] = struct{}{}

	for i := 0; i < sendBuffer+5; i++ {
		if err := h.Publish(Frame{T: i}); err != nil {
			t.Fatal(err)
		}
	}
	if len(c.send) != sendBuffer || c.dropped != 5 {
		t.Errorf("queued %d dropped %d, want %d and 5", len(c.send), c.dropped, sendBuffer)
	}
}

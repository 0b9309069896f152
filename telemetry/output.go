package telemetry

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
	"github.com/pthm-cable/gridmapf/config"
	"github.com/pthm-cable/gridmapf/validate"
)

// ReportRecord is one validation run, appended to reports.csv.
type ReportRecord struct {
	RunID            string `csv:"run_id"`
	CreatedAt        string `csv:"created_at"` // RFC 3339
	PathsFile        string `csv:"paths_file"`
	Map              string `csv:"map"`
	Steps            int    `csv:"steps"`
	Agents           int    `csv:"agents"`
	Connectivity     int    `csv:"connectivity"`
	OK               bool   `csv:"ok"`
	OutOfBounds      int    `csv:"out_of_bounds"`
	OnObstacle       int    `csv:"on_obstacle"`
	IllegalMoves     int    `csv:"illegal_moves"`
	VertexCollisions int    `csv:"vertex_collisions"`
	EdgeCollisions   int    `csv:"edge_collisions"`
	Success          string `csv:"success"`
	FirstErrorType   string `csv:"first_error_type"`
	FirstErrorTime   int    `csv:"first_error_time"`
}

// NewReportRecord flattens a validation report. FirstErrorTime is -1 when
// there is no first error.
func NewReportRecord(r validate.Report) ReportRecord {
	rec := ReportRecord{
		OK:               r.OK,
		OutOfBounds:      r.OutOfBounds,
		OnObstacle:       r.OnObstacle,
		IllegalMoves:     r.IllegalMoves,
		VertexCollisions: r.VertexCollisions,
		EdgeCollisions:   r.EdgeCollisions,
		Success:          r.Success.String(),
		FirstErrorTime:   -1,
	}
	if r.FirstError != nil {
		rec.FirstErrorType = string(r.FirstError.Kind)
		rec.FirstErrorTime = r.FirstError.Time
	}
	return rec
}

// csvSink is a lazily opened CSV file that writes its header once.
type csvSink struct {
	path          string
	appendMode    bool
	file          *os.File
	headerWritten bool
}

func (s *csvSink) writer() (io.Writer, error) {
	if s.file != nil {
		return s.file, nil
	}
	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if s.appendMode {
		flags = os.O_CREATE | os.O_WRONLY | os.O_APPEND
	}
	f, err := os.OpenFile(s.path, flags, 0644)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", filepath.Base(s.path), err)
	}
	if s.appendMode {
		if info, err := f.Stat(); err == nil && info.Size() > 0 {
			s.headerWritten = true
		}
	}
	s.file = f
	return f, nil
}

func write[T any](s *csvSink, records []T) error {
	w, err := s.writer()
	if err != nil {
		return err
	}
	if !s.headerWritten {
		// First write includes headers
		if err := gocsv.Marshal(records, w); err != nil {
			return fmt.Errorf("writing %s: %w", filepath.Base(s.path), err)
		}
		s.headerWritten = true
		return nil
	}
	// Subsequent writes skip headers
	if err := gocsv.MarshalWithoutHeaders(records, w); err != nil {
		return fmt.Errorf("writing %s: %w", filepath.Base(s.path), err)
	}
	return nil
}

func (s *csvSink) close() error {
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}

// OutputManager handles structured run output with CSV logging.
// steps.csv and perf.csv are truncated per run; reports.csv accumulates
// across runs.
type OutputManager struct {
	dir     string
	steps   *csvSink
	perf    *csvSink
	reports *csvSink
}

// NewOutputManager creates a new output manager and initializes the output directory.
// Returns nil if dir is empty (output disabled).
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}

	// Create output directory
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	return &OutputManager{
		dir:     dir,
		steps:   &csvSink{path: filepath.Join(dir, "steps.csv")},
		perf:    &csvSink{path: filepath.Join(dir, "perf.csv")},
		reports: &csvSink{path: filepath.Join(dir, "reports.csv"), appendMode: true},
	}, nil
}

// WriteConfig saves the current configuration as YAML.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	configPath := filepath.Join(om.dir, "config.yaml")
	return cfg.WriteYAML(configPath)
}

// WriteStep writes a tick record to steps.csv.
func (om *OutputManager) WriteStep(r StepRecord) error {
	if om == nil {
		return nil
	}
	return write(om.steps, []StepRecord{r})
}

// WritePerf writes a performance stats record to perf.csv.
func (om *OutputManager) WritePerf(stats PerfStats, tick int) error {
	if om == nil {
		return nil
	}
	return write(om.perf, []PerfStatsCSV{stats.ToCSV(tick)})
}

// WriteReport appends a validation record to reports.csv.
func (om *OutputManager) WriteReport(r ReportRecord) error {
	if om == nil {
		return nil
	}
	return write(om.reports, []ReportRecord{r})
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close flushes and closes all output files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}

	var firstErr error
	for _, s := range []*csvSink{om.steps, om.perf, om.reports} {
		if err := s.close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Package csvrecord implements the demonstration CSV output format
// "winner,a_start,b_start,a_end,b_end\n", one row per iteration of the
// winner-amplification scenario. It belongs to the demonstration tooling
// and is never imported by the core engine.
package csvrecord

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/racewindow/fuzzysync/internal/fzsync/clock"
)

// Recorder writes winner-scenario rows to an underlying writer.
type Recorder struct {
	w     *csv.Writer
	log   *slog.Logger
	runID string
}

// New wraps w in a Recorder, writing a run-identifying comment header
// (tagged with a fresh UUID, so runs accumulated in one directory can be
// told apart) before the CSV column header row. log receives one line per
// failed row write; a nil log defaults to slog.Default().
func New(w io.Writer, log *slog.Logger) (*Recorder, error) {
	if log == nil {
		log = slog.Default()
	}

	runID := uuid.NewString()
	if _, err := fmt.Fprintf(w, "# run=%s\n", runID); err != nil {
		return nil, fmt.Errorf("csvrecord: writing run header: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"winner", "a_start", "b_start", "a_end", "b_end"}); err != nil {
		return nil, fmt.Errorf("csvrecord: writing column header: %w", err)
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return nil, fmt.Errorf("csvrecord: flushing column header: %w", err)
	}

	return &Recorder{w: cw, log: log, runID: runID}, nil
}

// RunID returns the UUID tagging this recorder's run.
func (r *Recorder) RunID() string {
	return r.runID
}

// WriteRow appends one winner-scenario observation: which side's value the
// racy variable held, and the four window timestamps from that iteration.
// An I/O failure is reported to the caller, never fatal; the run itself
// continues regardless of a single row's outcome.
func (r *Recorder) WriteRow(winner byte, aStart, bStart, aEnd, bEnd clock.Stamp) error {
	row := []string{
		string(winner),
		fmt.Sprintf("%d", aStart.UnixNano()),
		fmt.Sprintf("%d", bStart.UnixNano()),
		fmt.Sprintf("%d", aEnd.UnixNano()),
		fmt.Sprintf("%d", bEnd.UnixNano()),
	}

	if err := r.w.Write(row); err != nil {
		r.log.Error("csvrecord: write failed", "error", err)
		return fmt.Errorf("csvrecord: write row: %w", err)
	}
	return nil
}

// Flush flushes any buffered rows to the underlying writer.
func (r *Recorder) Flush() error {
	r.w.Flush()
	if err := r.w.Error(); err != nil {
		return fmt.Errorf("csvrecord: flush: %w", err)
	}
	return nil
}

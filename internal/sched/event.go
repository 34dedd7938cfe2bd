// internal/sched/event.go

package sched

import (
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"
)

// EventKind is the type of scheduler event, adapted from the teacher's
// StatusKind: the same shape (a small enum of lifecycle moments), swapped
// for this design's lifecycle instead of the CFS dispatch/preempt/finish
// one.
type EventKind int

const (
	EventSpawn EventKind = iota
	EventStep
	EventTimeout
	EventDeferRun
	EventRepeaterFire
	EventWatchdogTrip
	EventSelectWinner
	EventCleanup
)

func (k EventKind) String() string {
	switch k {
	case EventSpawn:
		return "Spawn"
	case EventStep:
		return "Step"
	case EventTimeout:
		return "Timeout"
	case EventDeferRun:
		return "DeferRun"
	case EventRepeaterFire:
		return "RepeaterFire"
	case EventWatchdogTrip:
		return "WatchdogTrip"
	case EventSelectWinner:
		return "SelectWinner"
	case EventCleanup:
		return "Cleanup"
	default:
		return "Unknown"
	}
}

// Event is emitted on key scheduler actions, the adapted equivalent of the
// teacher's StatusEvent (Time/Kind/TaskID/... fields for a CSV- or
// log-friendly record).
type Event struct {
	Time   time.Time
	Kind   EventKind
	TaskID uint64
	Detail string
}

// Tracer consumes scheduler events. New installs a *LogTracer when
// Config.EnableLogging is set and a NopTracer otherwise; tests commonly
// substitute a collecting tracer via SetTracer.
type Tracer interface {
	Trace(Event)
}

// NopTracer discards every event; used when EnableLogging is false so the
// run loop never has to branch on a nil Tracer.
type NopTracer struct{}

func (NopTracer) Trace(Event) {}

// LogTracer writes one line per event via the standard log package,
// playing the role the teacher's fmt.Println-based handleEvent plays for
// terminal output.
type LogTracer struct {
	*log.Logger
}

// NewLogTracer builds a LogTracer writing to os.Stderr with a "sched: "
// prefix.
func NewLogTracer() *LogTracer {
	return &LogTracer{Logger: log.New(os.Stderr, "sched: ", log.LstdFlags|log.Lmicroseconds)}
}

func (t *LogTracer) Trace(e Event) {
	t.Printf("%-12s task=%d %s", e.Kind, e.TaskID, e.Detail)
}

// CSVTracer writes the event stream to a CSV file, grounded directly in
// the teacher's EnableCSVLogging/csvWriter pair.
type CSVTracer struct {
	file   *os.File
	writer *csv.Writer
}

// NewCSVTracer opens path for CSV logging of events, writing the header
// row immediately, exactly as the teacher's EnableCSVLogging does.
func NewCSVTracer(path string) (*CSVTracer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	w := csv.NewWriter(f)
	_ = w.Write([]string{"timestamp", "event", "task_id", "detail"})
	w.Flush()
	return &CSVTracer{file: f, writer: w}, nil
}

func (t *CSVTracer) Trace(e Event) {
	rec := []string{
		e.Time.Format(time.RFC3339Nano),
		e.Kind.String(),
		strconv.FormatUint(e.TaskID, 10),
		e.Detail,
	}
	_ = t.writer.Write(rec)
	t.writer.Flush()
}

// Close flushes and closes the underlying file.
func (t *CSVTracer) Close() error {
	t.writer.Flush()
	return t.file.Close()
}

func fmtDetail(format string, args ...any) string {
	return fmt.Sprintf(format, args...)
}

package sched

import (
	"encoding/csv"
	"log/slog"
	"os"
	"strconv"
	"time"

	"postq/internal/priority"
)

// EventKind names a dispatcher life-cycle event, the descendant of the
// teacher's StatusKind.
type EventKind int

const (
	EventEnqueue EventKind = iota
	EventDelayArmed
	EventDispatch
	EventResolve
	EventReject
	EventAbort
	EventPriorityChange
)

func (k EventKind) String() string {
	switch k {
	case EventEnqueue:
		return "enqueue"
	case EventDelayArmed:
		return "delay_armed"
	case EventDispatch:
		return "dispatch"
	case EventResolve:
		return "resolve"
	case EventReject:
		return "reject"
	case EventAbort:
		return "abort"
	case EventPriorityChange:
		return "priority_change"
	default:
		return "unknown"
	}
}

// Event is emitted for every dispatcher-observable transition a task goes
// through.
type Event struct {
	Time     time.Time
	Kind     EventKind
	TaskID   uint64
	Priority priority.Priority
	Detail   string
}

// Recorder receives every Event the scheduler emits. Recording happens as
// a direct, synchronous call from inside the dispatcher rather than over a
// channel: the dispatcher's single-threaded ordering guarantee would
// otherwise let a slow or blocked consumer reorder observations relative
// to the queue state that produced them.
type Recorder interface {
	Record(Event)
}

// SlogRecorder logs every event through log/slog at debug level, matching
// the structured-logging ambient stack used across the retrieved corpus.
type SlogRecorder struct {
	Logger *slog.Logger
}

// NewSlogRecorder wraps logger, defaulting to slog.Default() if nil.
func NewSlogRecorder(logger *slog.Logger) *SlogRecorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogRecorder{Logger: logger}
}

func (r *SlogRecorder) Record(ev Event) {
	r.Logger.Debug("sched event",
		"kind", ev.Kind.String(),
		"task_id", ev.TaskID,
		"priority", ev.Priority.String(),
		"detail", ev.Detail,
	)
}

// CSVRecorder streams the same event stream to a CSV file.
type CSVRecorder struct {
	file   *os.File
	writer *csv.Writer
}

// NewCSVRecorder opens path for CSV event logging. Callers must call
// Close when finished.
func NewCSVRecorder(path string) (*CSVRecorder, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	w := csv.NewWriter(f)
	w.Write([]string{"timestamp", "kind", "task_id", "priority", "detail"})
	w.Flush()
	return &CSVRecorder{file: f, writer: w}, nil
}

func (r *CSVRecorder) Record(ev Event) {
	r.writer.Write([]string{
		ev.Time.Format(time.RFC3339Nano),
		ev.Kind.String(),
		strconv.FormatUint(ev.TaskID, 10),
		ev.Priority.String(),
		ev.Detail,
	})
	r.writer.Flush()
}

// Close flushes and closes the underlying file.
func (r *CSVRecorder) Close() error {
	r.writer.Flush()
	return r.file.Close()
}

// multiRecorder fans one event out to several recorders.
type multiRecorder struct {
	recorders []Recorder
}

func (m *multiRecorder) Record(ev Event) {
	for _, r := range m.recorders {
		r.Record(ev)
	}
}

// Package report carries progress and warning events out of the patch
// pipeline. Library code never prints; it tells an Observer what happened.
package report

import (
	"sync"

	log "github.com/sirupsen/logrus"
)

// Op names the pipeline step an event belongs to.
type Op string

const (
	OpHash    Op = "hash"
	OpSkip    Op = "skip"
	OpArchive Op = "archive"
	OpExtract Op = "extract"
	OpRemove  Op = "remove"
)

// Warning is a non-fatal condition: the affected path was skipped and the
// operation carried on.
type Warning struct {
	Op   Op
	Path string
	Err  error
}

func (w Warning) String() string {
	if w.Err == nil {
		return string(w.Op) + " " + w.Path
	}
	return string(w.Op) + " " + w.Path + ": " + w.Err.Error()
}

// Observer receives events from Snapshot, Write and Apply.
type Observer interface {
	Progress(op Op, path string)
	Warn(w Warning)
}

// Nop discards all events.
type Nop struct{}

func (Nop) Progress(Op, string) {}
func (Nop) Warn(Warning)        {}

// OrNop returns o, or Nop when o is nil.
func OrNop(o Observer) Observer {
	if o == nil {
		return Nop{}
	}
	return o
}

// Logger forwards events to a logrus logger: progress at debug level,
// warnings at warn level.
type Logger struct {
	Log log.FieldLogger
}

func NewLogger(l log.FieldLogger) *Logger {
	return &Logger{Log: l}
}

func (l *Logger) Progress(op Op, path string) {
	l.Log.WithFields(log.Fields{"op": op, "path": path}).Debug("progress")
}

func (l *Logger) Warn(w Warning) {
	entry := l.Log.WithFields(log.Fields{"op": w.Op, "path": w.Path})
	if w.Err != nil {
		entry = entry.WithError(w.Err)
	}
	entry.Warn("skipped")
}

// Recorder keeps every event in memory. Safe for concurrent use.
type Recorder struct {
	mu       sync.Mutex
	progress []Event
	warnings []Warning
}

// Event is one recorded progress notification.
type Event struct {
	Op   Op
	Path string
}

func (r *Recorder) Progress(op Op, path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.progress = append(r.progress, Event{Op: op, Path: path})
}

func (r *Recorder) Warn(w Warning) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.warnings = append(r.warnings, w)
}

// Events returns a copy of the recorded progress events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.progress...)
}

// Warnings returns a copy of the recorded warnings.
func (r *Recorder) Warnings() []Warning {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Warning(nil), r.warnings...)
}

// Tee fans events out to several observers.
type Tee []Observer

func (t Tee) Progress(op Op, path string) {
	for _, o := range t {
		o.Progress(op, path)
	}
}

func (t Tee) Warn(w Warning) {
	for _, o := range t {
		o.Warn(w)
	}
}

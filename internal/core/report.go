package core

import (
	"errors"
	"fmt"
	"time"

	"github.com/giantswarm/perslc/internal/command"
)

// Stage names one step of the teardown sequence.
type Stage string

const (
	StageLock      Stage = "lock"
	StageHandles   Stage = "handles"
	StageDatabases Stage = "databases"
	StageCloseAll  Stage = "close_all"
	StagePlugins   Stage = "plugins"
	StageNotify    Stage = "notify"
)

// StageError is one resource that failed during teardown. ID is the handle
// ID, database slot or plugin slot; it is -1 for stages without one.
type StageError struct {
	Stage Stage
	ID    int
	Name  string
	Err   error
}

func (e StageError) Error() string {
	switch {
	case e.Name != "":
		return fmt.Sprintf("%s %q: %v", e.Stage, e.Name, e.Err)
	case e.ID >= 0:
		return fmt.Sprintf("%s %d: %v", e.Stage, e.ID, e.Err)
	default:
		return fmt.Sprintf("%s: %v", e.Stage, e.Err)
	}
}

func (e StageError) Unwrap() error {
	return e.Err
}

// Report describes one teardown run. Failures never change the status sent
// to the lifecycle manager; they exist for logs, metrics and OnReport.
type Report struct {
	RunID    string
	Request  command.Request
	Started  time.Time     // before the access lock is requested
	Duration time.Duration // includes the wait for the access lock

	HandlesClosed        int
	DatabasesClosed      int
	PluginsDeinitialized int

	// Notified reports whether LifecycleRequestComplete was sent.
	Notified bool

	Failures []StageError
}

// ReportFunc receives a teardown report once the completion was sent.
type ReportFunc func(*Report)

func (r *Report) fail(stage Stage, id int, name string, err error) {
	r.Failures = append(r.Failures, StageError{Stage: stage, ID: id, Name: name, Err: err})
}

// FailuresIn returns the failures recorded for stage.
func (r *Report) FailuresIn(stage Stage) []StageError {
	var out []StageError
	for _, f := range r.Failures {
		if f.Stage == stage {
			out = append(out, f)
		}
	}
	return out
}

// Err joins all recorded failures, or returns nil for a clean run.
func (r *Report) Err() error {
	if len(r.Failures) == 0 {
		return nil
	}
	errs := make([]error, len(r.Failures))
	for i, f := range r.Failures {
		errs[i] = f
	}
	return errors.Join(errs...)
}

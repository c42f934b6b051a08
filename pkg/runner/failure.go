package runner

import (
	"errors"
	"fmt"
	"time"
)

// Stage names the part of a run that failed.
type Stage string

const (
	StageLog    Stage = "open-logs"
	StageOpen   Stage = "open-input"
	StageHeader Stage = "read-header"
	StageRead   Stage = "read-rows"
	StageWrite  Stage = "write-summary"
)

// RunFailure is returned when a run aborts. No summary file exists for a
// failed run.
type RunFailure struct {
	Label string
	Stage Stage
	Err   error
	Time  time.Time
	// ErrorLog is the error log the failure was recorded in, if any.
	ErrorLog string
}

func (f *RunFailure) Error() string {
	if f.Label == "" {
		return fmt.Sprintf("run failed during %s: %v", f.Stage, f.Err)
	}
	return fmt.Sprintf("run %q failed during %s: %v", f.Label, f.Stage, f.Err)
}

func (f *RunFailure) Unwrap() error {
	return f.Err
}

// asFailure fills in the run-level fields of err, wrapping it if needed.
func asFailure(cfg Config, err error, errorLog string) *RunFailure {
	var fail *RunFailure
	if !errors.As(err, &fail) {
		fail = &RunFailure{Stage: StageRead, Err: err}
	}
	fail.Label = cfg.Label
	fail.ErrorLog = errorLog
	if fail.Time.IsZero() {
		fail.Time = cfg.Now()
	}
	return fail
}

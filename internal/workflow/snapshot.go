package workflow

import "time"

// StepSnapshot is a value copy of one step's execution record.
type StepSnapshot struct {
	Index int
	Name  string
	Path  string

	State      State
	StartedAt  time.Time
	FinishedAt time.Time

	// ExitCode is valid only when Exited is true.
	ExitCode int
	Exited   bool

	// LaunchError is non-empty for steps that failed before producing a
	// process.
	LaunchError string

	// Lines is the number of output lines captured at snapshot time.
	Lines int
}

// Snapshot is a consistent value copy of the whole run.
type Snapshot struct {
	Overall State
	Steps   []StepSnapshot
}

// Snapshot returns a consistent copy of all step records plus the derived
// overall state. Safe to call from any goroutine.
func (r *Run) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snap := Snapshot{Steps: make([]StepSnapshot, len(r.steps))}
	states := make([]State, len(r.steps))
	for i, sr := range r.steps {
		snap.Steps[i] = StepSnapshot{
			Index:       sr.step.Index,
			Name:        sr.step.Name,
			Path:        sr.step.Path,
			State:       sr.state,
			StartedAt:   sr.startedAt,
			FinishedAt:  sr.finishedAt,
			ExitCode:    sr.exitCode,
			Exited:      sr.exited,
			LaunchError: sr.launchErr,
			Lines:       sr.buf.Len(),
		}
		states[i] = sr.state
	}
	snap.Overall = Overall(states)
	return snap
}

// Overall derives the run state from the step state vector. It is recomputed
// on every observation rather than stored, so it can never diverge from the
// per-step truth.
func Overall(states []State) State {
	anyFailed := false
	anyStarted := false
	allSucceeded := len(states) > 0
	for _, s := range states {
		switch s {
		case Aborted:
			return Aborted
		case Failed:
			anyFailed = true
		case Running:
			anyStarted = true
		case Succeeded:
			anyStarted = true
		}
		if s != Succeeded {
			allSucceeded = false
		}
	}
	switch {
	case anyFailed:
		return Failed
	case allSucceeded:
		return Succeeded
	case anyStarted:
		return Running
	default:
		return Pending
	}
}

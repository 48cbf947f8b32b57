// Package workflow holds the data model for one invocation: the immutable
// Step list, the mutable per-step run records, and the derived overall run
// state.
//
// Ownership is strict. The supervisor goroutine is the only writer; it drives
// transitions through the methods on Run. Everything else (the dashboard, the
// headless reporter, tests) reads value-copy snapshots and can never mutate
// execution state.
package workflow

import (
	"fmt"
	"sync"
	"time"

	"github.com/checkboard/checkboard/internal/outbuf"
)

// State is the execution state of a single step.
type State int

const (
	// Pending means the step has not started yet.
	Pending State = iota
	// Running means the step's process is currently executing.
	Running
	// Succeeded means the step exited with code 0.
	Succeeded
	// Failed means the step exited nonzero or could not be launched.
	Failed
	// Aborted means the run was cancelled while this step was running or
	// before it could start.
	Aborted
)

// String returns the lower-case state name.
func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Running:
		return "running"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	case Aborted:
		return "aborted"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Terminal reports whether no further transition is possible from s.
func (s State) Terminal() bool {
	return s == Succeeded || s == Failed || s == Aborted
}

// Step identifies one executable script in the workflow. Steps are created by
// the step source and never mutated afterwards.
type Step struct {
	// Index is the step's position in the workflow, starting at 0.
	Index int
	// Name is the display name, typically the script's file name.
	Name string
	// Path is the absolute path of the executable.
	Path string
}

// stepRun is the mutable execution record bound 1:1 to a Step. All fields
// except buf are guarded by the owning Run's mutex; buf synchronizes itself.
type stepRun struct {
	step Step
	buf  *outbuf.Buffer

	state      State
	startedAt  time.Time
	finishedAt time.Time
	exitCode   int
	exited     bool
	launchErr  string
}

// Run is the live record of one workflow invocation.
type Run struct {
	mu    sync.RWMutex
	steps []*stepRun
	wait  bool
}

// NewRun creates a Run with every step Pending. The wait flag controls
// whether the dashboard stays open after a fully successful run.
func NewRun(steps []Step, wait bool) *Run {
	r := &Run{wait: wait}
	for _, s := range steps {
		r.steps = append(r.steps, &stepRun{step: s, buf: &outbuf.Buffer{}})
	}
	return r
}

// Len returns the number of steps in the run.
func (r *Run) Len() int {
	return len(r.steps)
}

// Wait reports whether the run was started with the wait flag.
func (r *Run) Wait() bool {
	return r.wait
}

// Step returns the immutable descriptor of step i.
func (r *Run) Step(i int) Step {
	return r.steps[i].step
}

// Buffer returns the output buffer of step i. Buffers synchronize their own
// access, so handing them to both the writer and reader side is safe.
func (r *Run) Buffer(i int) *outbuf.Buffer {
	return r.steps[i].buf
}

// Start transitions step i from Pending to Running.
func (r *Run) Start(i int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transition(i, Pending, Running)
	r.steps[i].startedAt = time.Now()
}

// Finish records the exit code of step i and transitions it from Running to
// Succeeded (code 0) or Failed.
func (r *Run) Finish(i int, exitCode int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	next := Succeeded
	if exitCode != 0 {
		next = Failed
	}
	r.transition(i, Running, next)
	sr := r.steps[i]
	sr.finishedAt = time.Now()
	sr.exitCode = exitCode
	sr.exited = true
}

// FailLaunch marks step i Failed with a launch-error cause: the executable
// was missing, not runnable, or could not be spawned. The step never produced
// a process, so no exit code is recorded.
func (r *Run) FailLaunch(i int, cause error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transition(i, Running, Failed)
	sr := r.steps[i]
	sr.finishedAt = time.Now()
	sr.launchErr = cause.Error()
}

// Abort marks step i Aborted. Valid from Running (the child was killed) and
// from Pending (cancellation arrived before the step could start).
func (r *Run) Abort(i int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sr := r.steps[i]
	if sr.state != Pending && sr.state != Running {
		panic(fmt.Sprintf("workflow: abort of step %d in state %s", i, sr.state))
	}
	sr.state = Aborted
	sr.finishedAt = time.Now()
}

// transition asserts the current state of step i and moves it forward.
// Transitions are driven only by the supervisor, so a mismatch is a
// programmer error.
func (r *Run) transition(i int, from, to State) {
	sr := r.steps[i]
	if sr.state != from {
		panic(fmt.Sprintf("workflow: step %d is %s, cannot move %s -> %s", i, sr.state, from, to))
	}
	sr.state = to
}

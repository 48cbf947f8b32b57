// Package supervisor runs workflow steps strictly in order, one child
// process at a time, streaming each child's stdout and stderr line-by-line
// into the step's output buffer as it is produced.
//
// The supervisor is the only writer of workflow state. It decides pass, fail
// and abort semantics: exit 0 proceeds to the next step, anything else halts
// the run with the remaining steps left Pending. Cancelling the context
// terminates the in-flight child (and its process group where the platform
// supports it) and marks the step Aborted only after the child has actually
// exited.
package supervisor

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"
	"time"

	"github.com/checkboard/checkboard/internal/ctxlog"
	"github.com/checkboard/checkboard/internal/outbuf"
	"github.com/checkboard/checkboard/internal/workflow"
	"golang.org/x/sync/errgroup"
)

// termGrace is how long a cancelled child gets between SIGTERM and SIGKILL.
const termGrace = 2 * time.Second

// Options configures a Supervisor.
type Options struct {
	// Cwd is the working directory every step runs in.
	Cwd string
	// Envs overrides the inherited process environment, highest precedence
	// last: callers pre-merge env-file pairs and config file envs here.
	Envs map[string]string
}

// Supervisor executes the steps of a single workflow run.
type Supervisor struct {
	run  *workflow.Run
	opts Options
	env  []string
}

// New creates a Supervisor for run.
func New(run *workflow.Run, opts Options) *Supervisor {
	return &Supervisor{run: run, opts: opts, env: mergeEnv(os.Environ(), opts.Envs)}
}

// Run executes all steps in order and returns when the run reaches a
// terminal overall state. The outcome is recorded in the workflow run, not
// returned: step failures are state, not errors.
func (s *Supervisor) Run(ctx context.Context) {
	logger := ctxlog.FromContext(ctx)
	logger.Info("🚀 Workflow started.", "steps", s.run.Len(), "cwd", s.opts.Cwd)

	for i := 0; i < s.run.Len(); i++ {
		if ctx.Err() != nil {
			// Cancellation arrived between steps: the next step is the one
			// that gets aborted, everything after it stays Pending.
			s.run.Abort(i)
			logger.Info("🛑 Workflow aborted before step.", "step", s.run.Step(i).Name)
			return
		}

		step := s.run.Step(i)
		stepLogger := logger.With("step", step.Name)
		stepLogger.Info("▶️ Starting step.")
		s.run.Start(i)

		switch outcome, exitCode, err := s.runStep(ctx, i); outcome {
		case stepSucceeded:
			s.run.Finish(i, 0)
			stepLogger.Info("✅ Step succeeded.")
		case stepFailed:
			s.run.Finish(i, exitCode)
			stepLogger.Warn("❌ Step failed, halting workflow.", "exit_code", exitCode)
			return
		case stepLaunchError:
			s.run.FailLaunch(i, err)
			s.run.Buffer(i).Append("launch error: " + err.Error())
			stepLogger.Warn("❌ Step could not be launched, halting workflow.", "error", err)
			return
		case stepAborted:
			s.run.Abort(i)
			stepLogger.Info("🛑 Step aborted.")
			return
		}
	}
	logger.Info("🏁 Workflow finished.", "overall", s.run.Snapshot().Overall.String())
}

type stepOutcome int

const (
	stepSucceeded stepOutcome = iota
	stepFailed
	stepLaunchError
	stepAborted
)

// runStep spawns step i and blocks until the child has exited and both pipe
// readers have drained.
func (s *Supervisor) runStep(ctx context.Context, i int) (stepOutcome, int, error) {
	step := s.run.Step(i)
	buf := s.run.Buffer(i)

	cmd := exec.Command(step.Path)
	cmd.Dir = s.opts.Cwd
	cmd.Env = s.env
	setProcAttrs(cmd)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return stepLaunchError, 0, err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return stepLaunchError, 0, err
	}

	if err := cmd.Start(); err != nil {
		return stepLaunchError, 0, err
	}

	// Watch for cancellation while the child runs. exited is closed once
	// cmd.Wait returns, which also confirms for the aborted case that no
	// orphan is left behind.
	exited := make(chan struct{})
	cancelled := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			close(cancelled)
			terminate(cmd, exited)
		case <-exited:
		}
	}()

	var readers errgroup.Group
	readers.Go(func() error { return pipeLines(stdout, buf) })
	readers.Go(func() error { return pipeLines(stderr, buf) })

	// Pipe readers must drain before Wait closes the pipes.
	readErr := readers.Wait()
	waitErr := cmd.Wait()
	close(exited)

	select {
	case <-cancelled:
		return stepAborted, 0, nil
	default:
	}

	if readErr != nil {
		ctxlog.FromContext(ctx).Warn("Output capture ended early.", "step", step.Name, "error", readErr)
	}

	if waitErr == nil {
		return stepSucceeded, 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		return stepFailed, exitErr.ExitCode(), nil
	}
	return stepLaunchError, 0, waitErr
}

// pipeLines appends r to buf line by line. A final line without a trailing
// newline is still captured.
func pipeLines(r io.Reader, buf *outbuf.Buffer) error {
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		if len(line) > 0 {
			buf.Append(strings.TrimRight(line, "\r\n"))
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
}

// mergeEnv applies overrides on top of the inherited environment and returns
// a sorted KEY=VALUE slice. Later assignments of the same name win.
func mergeEnv(inherited []string, overrides map[string]string) []string {
	merged := make(map[string]string, len(inherited)+len(overrides))
	for _, kv := range inherited {
		if k, v, ok := strings.Cut(kv, "="); ok {
			merged[k] = v
		}
	}
	for k, v := range overrides {
		merged[k] = v
	}

	out := make([]string, 0, len(merged))
	for k, v := range merged {
		out = append(out, k+"="+v)
	}
	sort.Strings(out)
	return out
}

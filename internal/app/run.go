package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/checkboard/checkboard/internal/ctxlog"
	"github.com/checkboard/checkboard/internal/dashboard"
	"github.com/checkboard/checkboard/internal/supervisor"
	"github.com/checkboard/checkboard/internal/workflow"
)

// Sentinel outcomes of a run, mapped to exit codes by the CLI entrypoint.
var (
	// ErrRunFailed means at least one step failed; the run halted.
	ErrRunFailed = errors.New("workflow failed")
	// ErrRunAborted means the user (or a signal) cancelled the run.
	ErrRunAborted = errors.New("workflow aborted")
)

// Run executes the workflow with the dashboard (or the headless stream) and
// returns nil only when every step succeeded.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	defer a.cleanup()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	sup := supervisor.New(a.run, a.opts)
	done := make(chan struct{})
	go func() {
		defer close(done)
		sup.Run(runCtx)
	}()

	var uiErr error
	if a.noUI {
		a.streamOutput(ctx, done)
	} else {
		uiErr = dashboard.Run(a.run, cancel)
		// The dashboard returned; make sure the supervisor winds down even
		// if it quit for a reason other than the quit key.
		cancel()
	}

	// Never report an outcome before the supervisor has confirmed the child
	// process is gone.
	<-done

	if uiErr != nil {
		return fmt.Errorf("dashboard: %w", uiErr)
	}

	switch overall := a.run.Snapshot().Overall; overall {
	case workflow.Succeeded:
		return nil
	case workflow.Aborted:
		return ErrRunAborted
	case workflow.Failed:
		return ErrRunFailed
	default:
		return fmt.Errorf("run ended in non-terminal state %s", overall)
	}
}

package app

import (
	"context"
	"fmt"
	"time"

	"github.com/checkboard/checkboard/internal/workflow"
)

// streamInterval is the polling cadence of the headless output stream.
const streamInterval = 50 * time.Millisecond

// streamOutput is the non-interactive replacement for the dashboard, used
// for git hooks and pipes: it polls the output buffers and writes every new
// line to outW prefixed with its step name, until the supervisor finishes.
func (a *App) streamOutput(ctx context.Context, done <-chan struct{}) {
	seen := make([]int, a.run.Len())

	ticker := time.NewTicker(streamInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			a.flushNew(seen)
			a.printSummary()
			return
		case <-ticker.C:
			a.flushNew(seen)
		case <-ctx.Done():
			// Cancelled externally; keep draining until the supervisor
			// confirms the child exited.
			<-done
			a.flushNew(seen)
			a.printSummary()
			return
		}
	}
}

// flushNew writes the lines appended since the previous flush. Buffers are
// append-only, so remembering the count per step is enough.
func (a *App) flushNew(seen []int) {
	for i := range seen {
		lines := a.run.Buffer(i).Range(seen[i], -1)
		if len(lines) == 0 {
			continue
		}
		name := a.run.Step(i).Name
		for _, l := range lines {
			fmt.Fprintf(a.outW, "%s | %s\n", name, l.Text)
		}
		seen[i] += len(lines)
	}
}

func (a *App) printSummary() {
	snap := a.run.Snapshot()
	for _, s := range snap.Steps {
		detail := ""
		switch {
		case s.LaunchError != "":
			detail = " (launch error: " + s.LaunchError + ")"
		case s.State == workflow.Failed:
			detail = fmt.Sprintf(" (exit %d)", s.ExitCode)
		}
		fmt.Fprintf(a.outW, "%-10s %s%s\n", s.State.String(), s.Name, detail)
	}
	fmt.Fprintf(a.outW, "overall: %s\n", snap.Overall)
}

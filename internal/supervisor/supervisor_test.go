package supervisor

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/checkboard/checkboard/internal/outbuf"
	"github.com/checkboard/checkboard/internal/testutil"
	"github.com/checkboard/checkboard/internal/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stepsFromDir(dir string, names ...string) []workflow.Step {
	steps := make([]workflow.Step, len(names))
	for i, name := range names {
		steps[i] = workflow.Step{Index: i, Name: name, Path: filepath.Join(dir, name)}
	}
	return steps
}

func lineTexts(lines []outbuf.Line) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l.Text
	}
	return out
}

func TestAllStepsSucceed(t *testing.T) {
	ctx, _ := testutil.Context(t)
	dir := testutil.Scripts(t, map[string]string{
		"10-a.sh": `echo "A-OK"`,
		"20-b.sh": `echo "B-OK"; echo "B also on stderr" >&2`,
	})
	run := workflow.NewRun(stepsFromDir(dir, "10-a.sh", "20-b.sh"), false)

	New(run, Options{Cwd: dir}).Run(ctx)

	snap := run.Snapshot()
	assert.Equal(t, workflow.Succeeded, snap.Overall)
	assert.Equal(t, workflow.Succeeded, snap.Steps[0].State)
	assert.Equal(t, workflow.Succeeded, snap.Steps[1].State)
	assert.Equal(t, []string{"A-OK"}, lineTexts(run.Buffer(0).Snapshot()))
	assert.ElementsMatch(t, []string{"B-OK", "B also on stderr"}, lineTexts(run.Buffer(1).Snapshot()))
}

func TestFailFastHaltsRemainingSteps(t *testing.T) {
	ctx, _ := testutil.Context(t)
	dir := testutil.Scripts(t, map[string]string{
		"10-a.sh": `echo "A-OK"`,
		"20-b.sh": `echo "B-FAIL"; exit 1`,
		"30-c.sh": `echo "never runs"`,
	})
	run := workflow.NewRun(stepsFromDir(dir, "10-a.sh", "20-b.sh", "30-c.sh"), false)

	New(run, Options{Cwd: dir}).Run(ctx)

	snap := run.Snapshot()
	assert.Equal(t, workflow.Failed, snap.Overall)
	assert.Equal(t, workflow.Succeeded, snap.Steps[0].State)
	assert.Equal(t, workflow.Failed, snap.Steps[1].State)
	assert.Equal(t, 1, snap.Steps[1].ExitCode)
	assert.Equal(t, workflow.Pending, snap.Steps[2].State)
	assert.Equal(t, []string{"A-OK"}, lineTexts(run.Buffer(0).Snapshot()))
	assert.Equal(t, []string{"B-FAIL"}, lineTexts(run.Buffer(1).Snapshot()))
	assert.Empty(t, run.Buffer(2).Snapshot())
}

func TestMissingExecutableIsALaunchError(t *testing.T) {
	ctx, _ := testutil.Context(t)
	dir := t.TempDir()
	run := workflow.NewRun(stepsFromDir(dir, "10-absent.sh", "20-b.sh"), false)

	New(run, Options{Cwd: dir}).Run(ctx)

	snap := run.Snapshot()
	assert.Equal(t, workflow.Failed, snap.Overall)
	assert.Equal(t, workflow.Failed, snap.Steps[0].State)
	assert.False(t, snap.Steps[0].Exited)
	assert.NotEmpty(t, snap.Steps[0].LaunchError)
	assert.Equal(t, workflow.Pending, snap.Steps[1].State)
}

func TestCancellationAbortsInFlightStep(t *testing.T) {
	ctx, _ := testutil.Context(t)
	ctx, cancel := context.WithCancel(ctx)
	dir := testutil.Scripts(t, map[string]string{
		"10-a.sh":    `echo "A-OK"`,
		"20-slow.sh": `echo "started"; sleep 30`,
		"30-c.sh":    `echo "never runs"`,
	})
	run := workflow.NewRun(stepsFromDir(dir, "10-a.sh", "20-slow.sh", "30-c.sh"), false)

	done := make(chan struct{})
	go func() {
		New(run, Options{Cwd: dir}).Run(ctx)
		close(done)
	}()

	// Wait for the slow step to be in flight, then cancel.
	require.Eventually(t, func() bool {
		return run.Buffer(1).Len() > 0
	}, 5*time.Second, 10*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("supervisor did not return after cancellation")
	}

	snap := run.Snapshot()
	assert.Equal(t, workflow.Aborted, snap.Overall)
	assert.Equal(t, workflow.Succeeded, snap.Steps[0].State)
	assert.Equal(t, workflow.Aborted, snap.Steps[1].State)
	assert.Equal(t, workflow.Pending, snap.Steps[2].State)
}

func TestCancellationBeforeStartAbortsNextStep(t *testing.T) {
	ctx, _ := testutil.Context(t)
	ctx, cancel := context.WithCancel(ctx)
	cancel()
	dir := testutil.Scripts(t, map[string]string{"10-a.sh": `echo hi`})
	run := workflow.NewRun(stepsFromDir(dir, "10-a.sh"), false)

	New(run, Options{Cwd: dir}).Run(ctx)

	snap := run.Snapshot()
	assert.Equal(t, workflow.Aborted, snap.Overall)
	assert.Equal(t, workflow.Aborted, snap.Steps[0].State)
	assert.Empty(t, run.Buffer(0).Snapshot())
}

func TestConfiguredEnvsOverrideInherited(t *testing.T) {
	ctx, _ := testutil.Context(t)
	t.Setenv("CHECK_VALUE", "inherited")
	dir := testutil.Scripts(t, map[string]string{
		"10-env.sh": `echo "CHECK_VALUE=$CHECK_VALUE"`,
	})
	run := workflow.NewRun(stepsFromDir(dir, "10-env.sh"), false)

	New(run, Options{Cwd: dir, Envs: map[string]string{"CHECK_VALUE": "configured"}}).Run(ctx)

	assert.Equal(t, []string{"CHECK_VALUE=configured"}, lineTexts(run.Buffer(0).Snapshot()))
}

func TestStepsRunInConfiguredWorkingDirectory(t *testing.T) {
	ctx, _ := testutil.Context(t)
	scriptDir := testutil.Scripts(t, map[string]string{"10-pwd.sh": `pwd`})
	workDir := t.TempDir()
	run := workflow.NewRun(stepsFromDir(scriptDir, "10-pwd.sh"), false)

	New(run, Options{Cwd: workDir}).Run(ctx)

	lines := lineTexts(run.Buffer(0).Snapshot())
	require.Len(t, lines, 1)
	got, err := filepath.EvalSymlinks(lines[0])
	require.NoError(t, err)
	want, err := filepath.EvalSymlinks(workDir)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestOutputWithoutTrailingNewlineIsCaptured(t *testing.T) {
	ctx, _ := testutil.Context(t)
	dir := testutil.Scripts(t, map[string]string{
		"10-raw.sh": `printf "no newline"`,
	})
	run := workflow.NewRun(stepsFromDir(dir, "10-raw.sh"), false)

	New(run, Options{Cwd: dir}).Run(ctx)

	assert.Equal(t, []string{"no newline"}, lineTexts(run.Buffer(0).Snapshot()))
}

func TestMergeEnvPrecedence(t *testing.T) {
	merged := mergeEnv(
		[]string{"A=1", "B=2", "PATH=/usr/bin"},
		map[string]string{"B": "override", "C": "3"},
	)
	assert.Contains(t, merged, "A=1")
	assert.Contains(t, merged, "B=override")
	assert.Contains(t, merged, "C=3")
	assert.Contains(t, merged, "PATH=/usr/bin")
}

func TestBuiltinEnvs(t *testing.T) {
	ctx, _ := testutil.Context(t)
	cwd := t.TempDir()

	envs, cleanup, err := BuiltinEnvs(ctx, cwd)
	require.NoError(t, err)
	defer cleanup()

	assert.DirExists(t, envs["CHECKBOARD_TMPDIR"])
	assert.True(t, filepath.IsAbs(envs["CHECKBOARD_CWD"]))
	// Not a git work tree, so no branch var.
	assert.NotContains(t, envs, "CHECKBOARD_BRANCH")

	tmp := envs["CHECKBOARD_TMPDIR"]
	cleanup()
	assert.NoDirExists(t, tmp)
}

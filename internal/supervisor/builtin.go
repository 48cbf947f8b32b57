package supervisor

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/checkboard/checkboard/internal/ctxlog"
)

// BuiltinEnvs returns the environment variables checkboard itself injects
// into every step, plus a cleanup func for the per-run temp directory:
//
//	CHECKBOARD_TMPDIR  fresh scratch directory, removed after the run
//	CHECKBOARD_CWD     absolute working directory of the run
//	CHECKBOARD_BRANCH  current git branch, only when cwd is a git work tree
func BuiltinEnvs(ctx context.Context, cwd string) (map[string]string, func(), error) {
	logger := ctxlog.FromContext(ctx)

	tmpDir, err := os.MkdirTemp("", "checkboard-*")
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() { _ = os.RemoveAll(tmpDir) }

	abs, err := filepath.Abs(cwd)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	envs := map[string]string{
		"CHECKBOARD_TMPDIR": tmpDir,
		"CHECKBOARD_CWD":    abs,
	}

	if branch := gitBranch(ctx, abs); branch != "" {
		envs["CHECKBOARD_BRANCH"] = branch
	} else {
		logger.Debug("No git branch detected, CHECKBOARD_BRANCH not set.", "cwd", abs)
	}
	return envs, cleanup, nil
}

// gitBranch returns the current branch name, or "" outside a git work tree
// or on a detached HEAD.
func gitBranch(ctx context.Context, cwd string) string {
	if _, err := os.Stat(filepath.Join(cwd, ".git")); err != nil {
		return ""
	}
	cmd := exec.CommandContext(ctx, "git", "branch", "--show-current")
	cmd.Dir = cwd
	out, err := cmd.Output()
	if err != nil {
		ctxlog.FromContext(ctx).Warn("Reading git branch failed.", "error", err)
		return ""
	}
	return strings.TrimSpace(string(out))
}

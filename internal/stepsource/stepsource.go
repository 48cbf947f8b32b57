// Package stepsource discovers the ordered Step list from a directory of
// executable scripts. Ordering is the alphabetical order of the script
// paths; prefixing file names with numbers ("10-fmt.sh", "20-test.sh") is
// the intended way to control it.
package stepsource

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/checkboard/checkboard/internal/ctxlog"
	"github.com/checkboard/checkboard/internal/workflow"
)

// Load scans dir (non-recursively) and returns the workflow steps in
// execution order. Dotfiles, editor backup files ("name~") and
// subdirectories are ignored. Regular files without an executable bit are
// skipped with a warning so a stray README in the steps directory does not
// fail the run.
func Load(ctx context.Context, dir string) ([]workflow.Step, error) {
	logger := ctxlog.FromContext(ctx)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read steps directory %s: %w", dir, err)
	}

	var paths []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() {
			continue
		}
		if strings.HasPrefix(name, ".") || strings.HasSuffix(name, "~") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return nil, fmt.Errorf("stat step %s: %w", name, err)
		}
		if info.Mode().Perm()&0o111 == 0 {
			logger.Warn("Skipping non-executable file in steps directory.", "file", name)
			continue
		}
		abs, err := filepath.Abs(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("resolve step path %s: %w", name, err)
		}
		paths = append(paths, abs)
	}
	sort.Strings(paths)

	if len(paths) == 0 {
		return nil, fmt.Errorf("no executable steps found in %s", dir)
	}

	steps := make([]workflow.Step, len(paths))
	for i, p := range paths {
		steps[i] = workflow.Step{Index: i, Name: filepath.Base(p), Path: p}
	}
	logger.Debug("Steps discovered.", "dir", dir, "count", len(steps))
	return steps, nil
}

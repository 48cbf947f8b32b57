package cli

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/checkboard/checkboard/internal/app"
	"golang.org/x/term"
)

// ExitError is an error carrying a specific process exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments into a validated app.Config. The
// returned bool is true when the program should exit cleanly without
// running (e.g. --help).
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	flagSet := flag.NewFlagSet("checkboard", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
checkboard - Run a directory of presubmit scripts with a live terminal dashboard.

Usage:
  checkboard [options] [STEPS_DIR]

Arguments:
  STEPS_DIR
    Directory of executable step scripts, run in alphabetical order.
    Equivalent to --dir.

Options:
`)
		flagSet.PrintDefaults()
	}

	dirFlag := flagSet.String("dir", "", "Directory of executable step scripts.")
	cwdFlag := flagSet.String("cwd", ".", "Working directory the steps run in.")
	waitFlag := flagSet.Bool("wait", false, "Keep the dashboard open after a successful run.")
	configFlag := flagSet.String("config", "", "Workflow config file (HCL or JSON). Defaults to checkboard.hcl inside the steps directory.")
	envFileFlag := flagSet.String("env-file", "", "Dotenv file merged into every step's environment.")
	noUIFlag := flagSet.Bool("no-ui", false, "Disable the dashboard and stream step output to stdout.")
	logLevelFlag := flagSet.String("log-level", "info", "Logging level. Options: 'debug', 'info', 'warn', 'error'.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text', 'json', 'tint'.")
	logFileFlag := flagSet.String("log-file", "", "Write logs to this file instead of stderr.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	dir := *dirFlag
	if dir == "" && flagSet.NArg() > 0 {
		dir = flagSet.Arg(0)
	}
	if dir == "" {
		flagSet.Usage()
		return nil, true, nil
	}

	switch *logLevelFlag {
	case "debug", "info", "warn", "error":
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}
	switch *logFormatFlag {
	case "text", "json", "tint":
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text', 'json', or 'tint'"}
	}

	// Pipes and git hooks get the plain stream, no flag needed.
	noUI := *noUIFlag || !term.IsTerminal(int(os.Stdout.Fd()))

	config, err := app.NewConfig(app.Config{
		Dir:        dir,
		Cwd:        *cwdFlag,
		ConfigPath: *configFlag,
		EnvFile:    *envFileFlag,
		Wait:       *waitFlag,
		NoUI:       noUI,
		LogLevel:   *logLevelFlag,
		LogFormat:  *logFormatFlag,
		LogFile:    *logFileFlag,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	return config, false, nil
}

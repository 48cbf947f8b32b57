package app

import "errors"

// Config holds everything an App needs to run, as validated by the CLI
// layer.
type Config struct {
	// Dir is the steps directory.
	Dir string
	// Cwd is the working directory steps run in.
	Cwd string
	// ConfigPath points to the workflow config file. Empty means
	// auto-detect "checkboard.hcl" inside Dir.
	ConfigPath string
	// EnvFile is an optional dotenv file merged into every step's
	// environment (below the config file's envs).
	EnvFile string
	// Wait keeps the dashboard open after a fully successful run.
	Wait bool
	// NoUI disables the dashboard and streams step output to stdout
	// instead. Forced when stdout is not a terminal.
	NoUI bool

	LogLevel  string
	LogFormat string
	LogFile   string
}

func NewConfig(cfg Config) (*Config, error) {
	if cfg.Dir == "" {
		return nil, errors.New("steps directory is required")
	}
	if cfg.Cwd == "" {
		cfg.Cwd = "."
	}
	return &cfg, nil
}

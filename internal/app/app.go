package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/checkboard/checkboard/internal/config"
	"github.com/checkboard/checkboard/internal/ctxlog"
	"github.com/checkboard/checkboard/internal/stepsource"
	"github.com/checkboard/checkboard/internal/supervisor"
	"github.com/checkboard/checkboard/internal/workflow"
	"github.com/joho/godotenv"
)

// defaultConfigName is the workflow config file picked up from the steps
// directory when --config is not given.
const defaultConfigName = "checkboard.hcl"

// App encapsulates one invocation: its logger, the discovered workflow and
// the supervisor options derived from configuration.
type App struct {
	outW    io.Writer
	logger  *slog.Logger
	run     *workflow.Run
	opts    supervisor.Options
	noUI    bool
	cleanup func()
}

// New builds a fully wired App. Startup failures (unreadable config, empty
// steps directory) panic; the CLI entrypoint recovers them into a clean
// exit message. outW is where headless mode streams step output.
func New(outW io.Writer, cfg *Config) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, logDestination(cfg))
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured.")

	steps, err := stepsource.Load(ctx, cfg.Dir)
	if err != nil {
		panic(fmt.Errorf("load steps: %w", err))
	}

	envs, cleanup, err := stepEnvs(ctx, cfg)
	if err != nil {
		panic(err)
	}

	return &App{
		outW:    outW,
		logger:  logger,
		run:     workflow.NewRun(steps, cfg.Wait),
		opts:    supervisor.Options{Cwd: cfg.Cwd, Envs: envs},
		noUI:    cfg.NoUI,
		cleanup: cleanup,
	}
}

// Workflow returns the app's run record. Primarily for tests.
func (a *App) Workflow() *workflow.Run {
	return a.run
}

// stepEnvs assembles the environment overrides applied to every step, in
// ascending precedence: checkboard's builtin vars, the dotenv file, the
// config file's envs.
func stepEnvs(ctx context.Context, cfg *Config) (map[string]string, func(), error) {
	logger := ctxlog.FromContext(ctx)

	envs, cleanup, err := supervisor.BuiltinEnvs(ctx, cfg.Cwd)
	if err != nil {
		return nil, nil, fmt.Errorf("prepare builtin envs: %w", err)
	}

	if cfg.EnvFile != "" {
		pairs, err := godotenv.Read(cfg.EnvFile)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("load env file %s: %w", cfg.EnvFile, err)
		}
		for k, v := range pairs {
			envs[k] = v
		}
		logger.Debug("Env file loaded.", "path", cfg.EnvFile, "count", len(pairs))
	}

	fileCfg, err := loadConfigFile(cfg)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	for k, v := range fileCfg.Envs {
		envs[k] = v
	}

	return envs, cleanup, nil
}

// loadConfigFile loads the explicit --config path, or the default config
// inside the steps directory when present. No file means empty config.
func loadConfigFile(cfg *Config) (*config.Config, error) {
	path := cfg.ConfigPath
	if path == "" {
		candidate := filepath.Join(cfg.Dir, defaultConfigName)
		if _, err := os.Stat(candidate); err != nil {
			return config.Empty(), nil
		}
		path = candidate
	}
	fileCfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return fileCfg, nil
}

// logDestination picks where logs go: the configured file, stderr in
// headless mode, or nowhere while the dashboard owns the terminal.
func logDestination(cfg *Config) io.Writer {
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			panic(fmt.Errorf("open log file: %w", err))
		}
		return f
	}
	if cfg.NoUI {
		return os.Stderr
	}
	return io.Discard
}

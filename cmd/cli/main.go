package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/checkboard/checkboard/internal/app"
	"github.com/checkboard/checkboard/internal/cli"
)

// main is the entrypoint for the checkboard binary.
func main() {
	// Minimal logger until the app configures the real one.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	})))

	err := run(os.Stdout, os.Args[1:])
	switch {
	case err == nil:
	case errors.Is(err, app.ErrRunFailed):
		os.Exit(1)
	case errors.Is(err, app.ErrRunAborted):
		os.Exit(130)
	default:
		var exitErr *cli.ExitError
		if errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run encapsulates the main application logic for easier testing and error
// handling.
func run(outW io.Writer, args []string) (err error) {
	appConfig, shouldExit, err := cli.Parse(args, outW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	// The app panics on critical startup errors; recover into a normal
	// error so the user gets a clean message instead of a stack trace.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("critical startup error: %v", r)
		}
	}()

	// An interrupt cancels the run the same way the quit key does.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return app.New(outW, appConfig).Run(ctx)
}

package main

import (
	"context"
	"errors"
	"os"

	"github.com/desertthunder/kjx/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)
	runner := NewRunner(RunnerOpts{Logger: logger})
	defer runner.Close()

	if err := newApp(runner).Run(context.Background(), os.Args); err != nil {
		if !userError(err) {
			logger.Fatalf("application error: %v", err)
		}
		logger.Error(err.Error())
		runner.Close()
		os.Exit(1)
	}
}

// userError reports whether err was caused by a lookup or name the user supplied.
// These are logged as plain errors instead of application failures.
func userError(err error) bool {
	return errors.Is(err, shared.ErrNotFound) ||
		errors.Is(err, shared.ErrDuplicateName) ||
		errors.Is(err, shared.ErrNotRegular)
}

func newApp(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "kjx",
		Usage:   "Run a karaoke singer rotation",
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
				Sources: cli.EnvVars("KJX_CONFIG"),
			},
		},
		Before:   r.LoadConfig,
		Commands: r.register(),
	}
}

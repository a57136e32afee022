package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/kjx/internal/shared"
	"github.com/desertthunder/kjx/internal/tasks"
	"github.com/desertthunder/kjx/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive rotation display.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(r.config.Logging.File)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	if level, err := shared.ParseLogLevel(r.config.Logging.Level); err == nil {
		shared.SetLogLevel(fileLogger, level)
	}
	r.SetLogger(fileLogger)

	s, err := r.Session()
	if err != nil {
		return err
	}

	opts := tasks.AdvanceOptionsFromConfig(r.config.AutoAdvance)
	if cmd.Bool("auto") {
		opts.Enabled = true
	}

	if err := ui.Run(ctx, s, tasks.LogPerformer{Logger: fileLogger}, opts); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}

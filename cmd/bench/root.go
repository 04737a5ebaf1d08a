package main

import (
	"log/slog"

	"github.com/spf13/cobra"
)

// rootOptions holds global flags for all commands.
type rootOptions struct {
	verbose bool
	logger  *slog.Logger
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Exercise and benchmark the invariant-checked queue",
		Long: `bench drives the mutex-protected linked queue.

"demo" runs the basic FIFO scenario, "run" measures producer/consumer
throughput with and without the structural check, and "markdown-table"
summarises the last recorded session.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if opts.verbose {
				level = slog.LevelDebug
			}
			opts.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log every invariant check")

	cmd.AddCommand(newDemoCommand(opts))
	cmd.AddCommand(newRunCommand(opts))
	cmd.AddCommand(newMarkdownTableCommand())

	return cmd
}

package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/i5heu/GoCheckedQueue/pkg/checkedqueue"
)

func newDemoCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Enqueue 1, 2, 3 and dequeue until the queue is empty",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDemo(cmd.OutOrStdout(), opts.logger)
		},
	}
}

// runDemo prints each dequeued value on its own line, followed by the error
// reported for the final dequeue on the empty queue.
func runDemo(w io.Writer, logger *slog.Logger) error {
	q := checkedqueue.New[int](
		checkedqueue.WithLogger(logger),
		checkedqueue.WithInvariantChecks(true),
	)

	q.Enqueue(1)
	q.Enqueue(2)
	q.Enqueue(3)

	for {
		v, err := q.Dequeue()
		if errors.Is(err, checkedqueue.ErrEmptyQueue) {
			fmt.Fprintf(w, "error: %v\n", err)
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Fprintln(w, v)
	}
}

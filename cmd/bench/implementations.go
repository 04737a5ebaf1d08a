package main

import (
	"log/slog"

	"github.com/i5heu/GoCheckedQueue/internal/queue"
	"github.com/i5heu/GoCheckedQueue/pkg/checkedqueue"
)

type benchQueue = interface {
	queue.QueueValidationInterface[*int]
	queue.Validator
}

// Implementation represents a queue configuration under test.
type Implementation struct {
	name        string
	description string
	checks      bool
	features    []string
	newQueue    func(logger *slog.Logger) benchQueue
}

// getImplementations enumerates the queue variants the bench and the tests run.
func getImplementations() []Implementation {
	return []Implementation{
		{
			name:        "CheckedQueue",
			description: "Mutex-protected linked queue, structure verified before and after every mutation.",
			checks:      true,
			features:    []string{"MPMC", "FIFO", "Invariant-Checked"},
			newQueue: func(logger *slog.Logger) benchQueue {
				return checkedqueue.New[*int](
					checkedqueue.WithLogger(logger),
					checkedqueue.WithInvariantChecks(true),
				)
			},
		},
		{
			name:        "CheckedQueueNoCheck",
			description: "The same queue with the per-mutation check switched off.",
			checks:      false,
			features:    []string{"MPMC", "FIFO"},
			newQueue: func(logger *slog.Logger) benchQueue {
				return checkedqueue.New[*int](
					checkedqueue.WithLogger(logger),
					checkedqueue.WithInvariantChecks(false),
				)
			},
		},
	}
}

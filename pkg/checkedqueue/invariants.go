package checkedqueue

import (
	"fmt"
	"log/slog"

	"github.com/i5heu/GoCheckedQueue/pkg/tracker"
)

// ViolationKind classifies a structural corruption.
type ViolationKind int

const (
	// Dangling: a linked node is not in the live set (use after release).
	Dangling ViolationKind = iota + 1
	// Duplicate: a node is reached twice while walking the chain (cycle or
	// double link).
	Duplicate
	// Orphan: a live node is not reachable from the sentinel.
	Orphan
)

func (k ViolationKind) String() string {
	switch k {
	case Dangling:
		return "dangling node"
	case Duplicate:
		return "duplicate link"
	case Orphan:
		return "orphaned node"
	default:
		return fmt.Sprintf("ViolationKind(%d)", int(k))
	}
}

// Check phases.
const (
	PhasePre    = "pre"
	PhasePost   = "post"
	PhaseSample = "sample"
)

// InvariantViolation reports that the node chain no longer matches the live
// set. It is a defect in the queue, never an expected condition: the engine
// panics with it, and Validate returns it.
type InvariantViolation struct {
	Kind   ViolationKind
	Op     string
	Phase  string
	Handle tracker.Handle

	// Orphans is the number of live nodes never reached. Only set for Orphan.
	Orphans int
}

func (v *InvariantViolation) Error() string {
	msg := fmt.Sprintf("checkedqueue: invariant violated (%s check of %s): %s %v", v.Phase, v.Op, v.Kind, v.Handle)
	if v.Kind == Orphan {
		msg += fmt.Sprintf(" (%d unreachable)", v.Orphans)
	}
	return msg
}

// checkInvariants walks the chain from the sentinel and compares the set of
// reached nodes against the arena's live set.
//
// REQUIRES: q.mu is held.
func (q *Queue[T]) checkInvariants(op, phase string) error {
	q.stats.Checks++

	live := q.arena.Snapshot()
	seen := make(map[tracker.Handle]struct{}, len(live))

	q.opts.logger.Debug("checking queue structural invariants",
		slog.String("op", op),
		slog.String("phase", phase),
		slog.Int("nodes", len(live)),
	)

	for n := q.sentinel; !n.IsNil(); n = q.arena.Next(n) {
		if _, ok := live[n]; !ok {
			return &InvariantViolation{Kind: Dangling, Op: op, Phase: phase, Handle: n}
		}
		if _, ok := seen[n]; ok {
			return &InvariantViolation{Kind: Duplicate, Op: op, Phase: phase, Handle: n}
		}
		seen[n] = struct{}{}
	}

	if len(seen) != len(live) {
		v := &InvariantViolation{Kind: Orphan, Op: op, Phase: phase, Orphans: len(live) - len(seen)}
		for h := range live {
			if _, ok := seen[h]; !ok {
				v.Handle = h
				break
			}
		}
		return v
	}
	return nil
}

// assertInvariants runs the check when enabled and panics on a violation.
//
// REQUIRES: q.mu is held.
func (q *Queue[T]) assertInvariants(op, phase string) {
	if !q.opts.checks {
		return
	}
	if err := q.checkInvariants(op, phase); err != nil {
		q.opts.logger.Error("queue structure corrupted",
			slog.String("op", op),
			slog.String("phase", phase),
			slog.String("error", err.Error()),
		)
		panic(err)
	}
}

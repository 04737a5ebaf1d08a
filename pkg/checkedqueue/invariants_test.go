package checkedqueue

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i5heu/GoCheckedQueue/pkg/tracker"
)

// newFilled returns a checked queue holding values, plus the handles of the
// data nodes in chain order.
func newFilled(t *testing.T, values ...int) (*Queue[int], []tracker.Handle) {
	t.Helper()
	q := New[int](WithInvariantChecks(true))
	for _, v := range values {
		q.Enqueue(v)
	}
	var handles []tracker.Handle
	for n := q.arena.Next(q.sentinel); !n.IsNil(); n = q.arena.Next(n) {
		handles = append(handles, n)
	}
	require.Len(t, handles, len(values))
	return q, handles
}

func requireViolation(t *testing.T, err error, kind ViolationKind) *InvariantViolation {
	t.Helper()
	require.Error(t, err)
	var v *InvariantViolation
	require.True(t, errors.As(err, &v), "expected *InvariantViolation, got %T: %v", err, err)
	assert.Equal(t, kind, v.Kind, "violation: %v", v)
	return v
}

func TestCheckHoldsOnHealthyQueue(t *testing.T) {
	q, _ := newFilled(t, 1, 2, 3)
	assert.NoError(t, q.Validate())

	_, err := q.Dequeue()
	require.NoError(t, err)
	assert.NoError(t, q.Validate())
}

func TestCheckDetectsDanglingNode(t *testing.T) {
	q, h := newFilled(t, 1, 2)

	// Release the second node while the first still links to it.
	q.arena.Destroy(h[1])

	v := requireViolation(t, q.Validate(), Dangling)
	assert.Equal(t, h[1], v.Handle)
	assert.Equal(t, PhaseSample, v.Phase)
}

func TestCheckDetectsCycle(t *testing.T) {
	q, h := newFilled(t, 1, 2, 3)
	q.arena.SetNext(h[2], h[0])

	v := requireViolation(t, q.Validate(), Duplicate)
	assert.Equal(t, h[0], v.Handle)
}

func TestCheckDetectsDoubleLink(t *testing.T) {
	q, h := newFilled(t, 1, 2)
	// The last node links back to itself.
	q.arena.SetNext(h[1], h[1])

	requireViolation(t, q.Validate(), Duplicate)
}

func TestCheckDetectsOrphan(t *testing.T) {
	q, _ := newFilled(t, 1)
	lost := q.arena.Create(99)

	v := requireViolation(t, q.Validate(), Orphan)
	assert.Equal(t, lost, v.Handle)
	assert.Equal(t, 1, v.Orphans)
	assert.Contains(t, v.Error(), "orphaned node")
}

func TestCheckDetectsUnlinkedChain(t *testing.T) {
	q, h := newFilled(t, 1, 2, 3)
	q.arena.SetNext(h[0], tracker.Nil)

	v := requireViolation(t, q.Validate(), Orphan)
	assert.Equal(t, 2, v.Orphans)
}

func TestEnqueueOnCorruptedQueuePanics(t *testing.T) {
	q, h := newFilled(t, 1, 2)
	q.arena.SetNext(h[1], h[0])

	defer func() {
		r := recover()
		require.NotNil(t, r, "enqueue on a cyclic chain must panic")
		err, ok := r.(error)
		require.True(t, ok)
		v := requireViolation(t, err, Duplicate)
		assert.Equal(t, "enqueue", v.Op)
		assert.Equal(t, PhasePre, v.Phase)

		// The deferred unlock ran during the panic.
		locked := q.mu.TryLock()
		assert.True(t, locked, "lock leaked by panicking enqueue")
		if locked {
			q.mu.Unlock()
		}
	}()
	q.Enqueue(3)
}

func TestDequeueOnCorruptedQueuePanics(t *testing.T) {
	q, _ := newFilled(t, 1)
	q.arena.Create(42)

	assert.Panics(t, func() { _, _ = q.Dequeue() })
}

func TestViolationIsLogged(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	q := New[int](WithInvariantChecks(true), WithLogger(logger))
	q.Enqueue(1)
	assert.Contains(t, buf.String(), "checking queue structural invariants")
	assert.Contains(t, buf.String(), "phase=post")

	q.arena.Create(5)
	assert.Panics(t, func() { q.Enqueue(2) })
	assert.Contains(t, buf.String(), "queue structure corrupted")
	assert.Contains(t, buf.String(), "level=ERROR")
}

func TestChecksDisabledSkipTraversal(t *testing.T) {
	q := New[int](WithInvariantChecks(false))
	q.Enqueue(1)
	q.Enqueue(2)
	_, err := q.Dequeue()
	require.NoError(t, err)

	assert.Zero(t, q.Stats().Checks)

	// A corruption goes unnoticed by mutations but Validate still sees it.
	q.arena.Create(7)
	assert.NotPanics(t, func() { q.Enqueue(3) })
	requireViolation(t, q.Validate(), Orphan)
}

func TestViolationKindString(t *testing.T) {
	assert.Equal(t, "dangling node", Dangling.String())
	assert.Equal(t, "duplicate link", Duplicate.String())
	assert.Equal(t, "orphaned node", Orphan.String())
	assert.Equal(t, "ViolationKind(9)", ViolationKind(9).String())
}

func TestDefaultChecksFollowBuild(t *testing.T) {
	q := New[int]()
	q.Enqueue(1)
	assert.Equal(t, invariantChecksDefault, q.Stats().Checks > 0)
}

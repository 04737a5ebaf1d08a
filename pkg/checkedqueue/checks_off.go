//go:build nocheck

package checkedqueue

// Production builds skip the per-mutation traversal unless a queue opts in
// with WithInvariantChecks(true).
const invariantChecksDefault = false

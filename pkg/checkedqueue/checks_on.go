//go:build !nocheck

package checkedqueue

const invariantChecksDefault = true

package store

import "fmt"

// RemoteWriteError wraps a failed persistence call. The optimistic apply has
// already been rolled back by the time the caller sees one; retrying the
// whole mutation is safe.
type RemoteWriteError struct {
	Op  string
	Err error
}

func (e *RemoteWriteError) Error() string {
	return fmt.Sprintf("remote write failed: %s: %v", e.Op, e.Err)
}

func (e *RemoteWriteError) Unwrap() error {
	return e.Err
}

// ReconcileError reports a server response that could not be merged into the
// cache. The coordinator falls back to a full refetch when it sees one.
type ReconcileError struct {
	Op     string
	Reason string
}

func (e *ReconcileError) Error() string {
	return fmt.Sprintf("reconciliation failed: %s: %s", e.Op, e.Reason)
}

package syncer

import (
	"errors"
	"fmt"
)

// ErrInFlight is returned when a Synchronize call overlaps a running one.
// At most one synchronization may touch a given cache at a time.
var ErrInFlight = errors.New("synchronization already in flight")

// ErrorKind tags the failure domain of a sync run.
type ErrorKind string

const (
	// KindTransport - the ledger was unreachable or returned a malformed response
	KindTransport ErrorKind = "transport"
	// KindMapping - a raw record failed field conversion
	KindMapping ErrorKind = "mapping"
	// KindStore - the cache store rejected a read or write
	KindStore ErrorKind = "store"
)

// SyncError reports an aborted sync run: which domain failed and the page
// offset the run had reached, so a caller can log progress and decide
// whether to retry. A failed run commits nothing to the cache.
type SyncError struct {
	Kind   ErrorKind
	Offset uint64
	Err    error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("sync aborted at offset %d (%s): %v", e.Offset, e.Kind, e.Err)
}

func (e *SyncError) Unwrap() error {
	return e.Err
}

func syncErr(kind ErrorKind, offset uint64, err error) *SyncError {
	return &SyncError{Kind: kind, Offset: offset, Err: err}
}

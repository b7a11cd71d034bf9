package indexer

import "sync/atomic"

// IndexLock admits one workspace pass at a time. Callers that lose the
// race get ErrIndexingInProgress instead of queueing behind the pass.
type IndexLock struct {
	held atomic.Bool
}

// TryAcquire takes the lock if it is free
func (l *IndexLock) TryAcquire() bool {
	return l.held.CompareAndSwap(false, true)
}

// Release frees the lock; only the holder may call it
func (l *IndexLock) Release() {
	l.held.Store(false)
}

// Held reports whether a pass is running
func (l *IndexLock) Held() bool {
	return l.held.Load()
}

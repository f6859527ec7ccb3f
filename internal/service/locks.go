package service

import "sync"

// taskLocks hands out one mutex per task id. Entries are dropped when the
// last holder releases them, so the map only tracks tasks being written.
type taskLocks struct {
	mu    sync.Mutex
	locks map[uint]*taskLock
}

type taskLock struct {
	mu   sync.Mutex
	refs int
}

func newTaskLocks() *taskLocks {
	return &taskLocks{locks: make(map[uint]*taskLock)}
}

// lock blocks until the task is free and returns the release func.
func (l *taskLocks) lock(taskID uint) func() {
	l.mu.Lock()
	entry, ok := l.locks[taskID]
	if !ok {
		entry = &taskLock{}
		l.locks[taskID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, taskID)
		}
		l.mu.Unlock()
	}
}

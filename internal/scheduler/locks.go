package scheduler

import "sync"

// slugLocks provides non-blocking per-slug mutual exclusion.
type slugLocks struct {
	mu     sync.Mutex
	active map[string]bool
}

func newSlugLocks() *slugLocks {
	return &slugLocks{active: make(map[string]bool)}
}

// tryLock claims the slug if no other refresh holds it.
func (l *slugLocks) tryLock(slug string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.active[slug] {
		return false
	}
	l.active[slug] = true
	return true
}

func (l *slugLocks) unlock(slug string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.active, slug)
}

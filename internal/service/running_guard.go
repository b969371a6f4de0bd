package service

import (
	"context"
	"sync"
)

// ExportedRunningGuard is an exported alias so _test packages can test the guard.
type ExportedRunningGuard = commitGuard

// ─────────────────────────────────────────────────────────────
// commitGuard: one commit per document at a time
// ─────────────────────────────────────────────────────────────

// commitGuard ensures a document is never written by two commits at once.
// The engine is not re-entrant on a session's records/schema pair, so a
// second commit on a busy document is refused instead of queued.
type commitGuard struct {
	mu      sync.Mutex
	running map[string]struct{}
	wg      sync.WaitGroup
}

// TryLock marks doc as being committed. Returns false if it already is.
func (g *commitGuard) TryLock(doc string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.running == nil {
		g.running = make(map[string]struct{})
	}
	if _, ok := g.running[doc]; ok {
		return false
	}
	g.running[doc] = struct{}{}
	g.wg.Add(1)
	return true
}

// Unlock releases doc. Must be called after TryLock returns true.
func (g *commitGuard) Unlock(doc string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.running, doc)
	g.wg.Done()
}

// WaitAll blocks until all running commits complete or ctx is cancelled.
func (g *commitGuard) WaitAll(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		g.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}
}
